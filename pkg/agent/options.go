package agent

import (
	"github.com/teslashibe/go-hearth/pkg/chat"
	"github.com/teslashibe/go-hearth/pkg/speech"
)

// Options are the construction arguments passed to a host factory. Nil
// fields are absent; hosts must work with any subset.
type Options struct {
	VAD         speech.VAD
	STT         speech.STT
	TTS         speech.TTS
	LLM         speech.LLM
	ChatContext *chat.Context

	// Functions is the convention A tool catalog.
	Functions *FunctionContext

	// Tools is the convention B tool catalog.
	Tools []FunctionTool

	Job *JobContext
}

// Present lists the dependencies that are set, in a stable order.
func (o Options) Present() []Dep {
	var deps []Dep
	if o.VAD != nil {
		deps = append(deps, DepVAD)
	}
	if o.STT != nil {
		deps = append(deps, DepSTT)
	}
	if o.LLM != nil {
		deps = append(deps, DepLLM)
	}
	if o.TTS != nil {
		deps = append(deps, DepTTS)
	}
	if o.ChatContext != nil {
		deps = append(deps, DepChatContext)
	}
	if o.Functions != nil || o.Tools != nil {
		deps = append(deps, DepToolCatalog)
	}
	if o.Job != nil {
		deps = append(deps, DepJob)
	}
	return deps
}

// Has reports whether dep is present.
func (o Options) Has(dep Dep) bool {
	for _, d := range o.Present() {
		if d == dep {
			return true
		}
	}
	return false
}

// Filter returns a copy holding only the dependencies d accepts.
func (o Options) Filter(d Descriptor) Options {
	var out Options
	if d.Accepts(DepVAD) {
		out.VAD = o.VAD
	}
	if d.Accepts(DepSTT) {
		out.STT = o.STT
	}
	if d.Accepts(DepLLM) {
		out.LLM = o.LLM
	}
	if d.Accepts(DepTTS) {
		out.TTS = o.TTS
	}
	if d.Accepts(DepChatContext) {
		out.ChatContext = o.ChatContext
	}
	if d.Accepts(DepToolCatalog) {
		switch d.ToolForm {
		case ToolFormObject:
			out.Functions = o.Functions
		case ToolFormList:
			out.Tools = o.Tools
		}
	}
	if d.Accepts(DepJob) {
		out.Job = o.Job
	}
	return out
}
