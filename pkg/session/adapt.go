package session

import (
	"context"
	"fmt"

	"github.com/teslashibe/go-hearth/pkg/agent"
	"github.com/teslashibe/go-hearth/pkg/tool"
)

// ObjectForm exposes reg as a FunctionContext (convention A).
func ObjectForm(reg *tool.Registry) (*agent.FunctionContext, error) {
	fc := agent.NewFunctionContext()
	for _, d := range reg.List() {
		name := d.Name
		err := fc.Add(agent.Method{
			Name:        d.Name,
			Description: d.Description,
			Params:      d.Params,
			Fn: func(ctx context.Context, args map[string]any) (string, error) {
				return reg.Invoke(ctx, name, args)
			},
		})
		if err != nil {
			return nil, fmt.Errorf("session: adapt %s: %w", name, err)
		}
	}
	return fc, nil
}

// ListForm exposes reg as independent function tools (convention B).
func ListForm(reg *tool.Registry) []agent.FunctionTool {
	decls := reg.List()
	out := make([]agent.FunctionTool, 0, len(decls))
	for _, d := range decls {
		name := d.Name
		out = append(out, agent.FunctionTool{
			Name:        d.Name,
			Description: d.Description,
			Params:      d.Params,
			Async:       d.Async,
			Fn: func(rc *agent.RunContext, args map[string]any) (string, error) {
				return reg.Invoke(rc.Context(), name, args)
			},
		})
	}
	return out
}
