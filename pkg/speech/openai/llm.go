package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/teslashibe/go-hearth/pkg/chat"
	"github.com/teslashibe/go-hearth/pkg/speech"
)

const providerLLM = "llm"

// LLM generates replies through /chat/completions.
type LLM struct {
	client
}

// NewLLM creates a chat-completion provider.
func NewLLM(opts ...Option) (*LLM, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &LLM{client: newClient(cfg, providerLLM)}, nil
}

// Model returns the configured chat model.
func (l *LLM) Model() string { return l.config.LLMModel }

// Chat implements speech.LLM.
func (l *LLM) Chat(ctx context.Context, msgs []chat.Message, tools []speech.ToolSpec) (chat.Message, error) {
	if len(msgs) == 0 {
		return chat.Message{}, ErrEmptyInput
	}
	start := time.Now()

	resp, err := l.postJSON(ctx, "/chat/completions", l.buildChatPayload(msgs, tools))
	if err != nil {
		return chat.Message{}, err
	}
	defer resp.Body.Close()

	var result chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return chat.Message{}, WrapError(providerLLM, fmt.Errorf("decode response: %w", err))
	}
	if len(result.Choices) == 0 {
		return chat.Message{}, WrapError(providerLLM, ErrNoChoices)
	}

	choice := result.Choices[0]
	msg := chat.Message{
		Role:      chat.RoleAssistant,
		Content:   choice.Message.Content,
		ToolCalls: parseToolCalls(choice.Message.ToolCalls),
	}

	l.logger.Debug("chat completion",
		"model", result.Model,
		"finish_reason", choice.FinishReason,
		"tool_calls", len(msg.ToolCalls),
		"total_tokens", result.Usage.TotalTokens,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return msg, nil
}

// buildChatPayload constructs the API request payload.
func (l *LLM) buildChatPayload(msgs []chat.Message, tools []speech.ToolSpec) map[string]any {
	messages := make([]map[string]any, len(msgs))
	for i, msg := range msgs {
		m := map[string]any{
			"role":    string(msg.Role),
			"content": msg.Content,
		}
		if msg.Name != "" && msg.Role != chat.RoleTool {
			m["name"] = msg.Name
		}
		if msg.ToolCallID != "" {
			m["tool_call_id"] = msg.ToolCallID
		}
		if len(msg.ToolCalls) > 0 {
			calls := make([]map[string]any, len(msg.ToolCalls))
			for j, tc := range msg.ToolCalls {
				calls[j] = map[string]any{
					"id":   tc.ID,
					"type": "function",
					"function": map[string]string{
						"name":      tc.Name,
						"arguments": tc.Arguments,
					},
				}
			}
			m["tool_calls"] = calls
		}
		messages[i] = m
	}

	payload := map[string]any{
		"model":    l.config.LLMModel,
		"messages": messages,
	}
	if l.config.MaxTokens > 0 {
		payload["max_tokens"] = l.config.MaxTokens
	}
	if l.config.Temperature > 0 {
		payload["temperature"] = l.config.Temperature
	}

	if len(tools) > 0 {
		defs := make([]map[string]any, len(tools))
		for i, t := range tools {
			defs[i] = map[string]any{
				"type": "function",
				"function": map[string]any{
					"name":        t.Name,
					"description": t.Description,
					"parameters":  t.Parameters,
				},
			}
		}
		payload["tools"] = defs
	}
	return payload
}

func parseToolCalls(calls []apiToolCall) []chat.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	result := make([]chat.ToolCall, len(calls))
	for i, call := range calls {
		result[i] = chat.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		}
	}
	return result
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role      string        `json:"role"`
			Content   string        `json:"content"`
			ToolCalls []apiToolCall `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type apiToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

var _ speech.LLM = (*LLM)(nil)
