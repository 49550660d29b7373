package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-hearth/pkg/chat"
	"github.com/teslashibe/go-hearth/pkg/speech"
)

func testOpts(url string) []Option {
	return []Option{WithBaseURL(url), WithAPIKey("test-key"), WithRetry(1, time.Millisecond)}
}

func TestConstructorsRequireKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewSTT()
	assert.ErrorIs(t, err, ErrNoAPIKey)
	_, err = NewTTS()
	assert.ErrorIs(t, err, ErrNoAPIKey)
	_, err = NewLLM()
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestConstructorsReadEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("OPENAI_BASE_URL", "http://local.test/v1/")

	l, err := NewLLM()
	require.NoError(t, err)
	assert.Equal(t, "env-key", l.config.APIKey)
	assert.Equal(t, "http://local.test/v1", l.config.BaseURL)
	assert.Equal(t, DefaultLLMModel, l.Model())
}

func TestLLMChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "gpt-test", payload["model"])

		msgs := payload["messages"].([]any)
		require.Len(t, msgs, 4)
		assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
		assistant := msgs[2].(map[string]any)
		assert.Len(t, assistant["tool_calls"], 1)
		toolMsg := msgs[3].(map[string]any)
		assert.Equal(t, "call_1", toolMsg["tool_call_id"])

		tools := payload["tools"].([]any)
		require.Len(t, tools, 1)
		fn := tools[0].(map[string]any)["function"].(map[string]any)
		assert.Equal(t, "get_temperature", fn["name"])

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "x", "model": "gpt-test",
			"choices": [{
				"message": {"role": "assistant", "content": "", "tool_calls": [
					{"id": "call_2", "type": "function", "function": {"name": "set_temperature", "arguments": "{\"zone\":\"office\",\"temp\":19}"}}
				]},
				"finish_reason": "tool_calls"
			}],
			"usage": {"total_tokens": 12}
		}`)
	}))
	defer server.Close()

	l, err := NewLLM(append(testOpts(server.URL), WithLLMModel("gpt-test"))...)
	require.NoError(t, err)

	msgs := []chat.Message{
		chat.System("Be brief."),
		chat.User("How warm is the office?"),
		{Role: chat.RoleAssistant, ToolCalls: []chat.ToolCall{{ID: "call_1", Name: "get_temperature", Arguments: `{"zone":"office"}`}}},
		chat.ToolResult("call_1", "get_temperature", "The temperature in the office is 21°C"),
	}
	tools := []speech.ToolSpec{{Name: "get_temperature", Description: "Get", Parameters: map[string]any{"type": "object"}}}

	reply, err := l.Chat(context.Background(), msgs, tools)
	require.NoError(t, err)
	assert.Equal(t, chat.RoleAssistant, reply.Role)
	require.Len(t, reply.ToolCalls, 1)
	assert.Equal(t, "set_temperature", reply.ToolCalls[0].Name)
	assert.JSONEq(t, `{"zone":"office","temp":19}`, reply.ToolCalls[0].Arguments)
}

func TestLLMNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"choices": []}`)
	}))
	defer server.Close()

	l, err := NewLLM(testOpts(server.URL)...)
	require.NoError(t, err)
	_, err = l.Chat(context.Background(), []chat.Message{chat.User("hi")}, nil)
	assert.ErrorIs(t, err, ErrNoChoices)

	_, err = l.Chat(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestRetryThenAPIError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"error": {"message": "overloaded", "code": "busy"}}`)
	}))
	defer server.Close()

	l, err := NewLLM(testOpts(server.URL)...)
	require.NoError(t, err)

	_, err = l.Chat(context.Background(), []chat.Message{chat.User("hi")}, nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, "overloaded", apiErr.Message)
	assert.True(t, apiErr.IsRetryable())
	assert.Equal(t, int32(2), calls.Load(), "one retry")
}

func TestUnauthorizedNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, "nope")
	}))
	defer server.Close()

	tts, err := NewTTS(testOpts(server.URL)...)
	require.NoError(t, err)

	_, err = tts.Synthesize(context.Background(), "hello")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsUnauthorized())
	assert.Equal(t, "nope", apiErr.Message)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTTSSynthesize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/speech", r.URL.Path)
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "pcm", payload["response_format"])
		assert.Equal(t, "nova", payload["voice"])
		assert.Equal(t, "Hey! I'm ready to help you.", payload["input"])
		w.Write(make([]byte, 480))
	}))
	defer server.Close()

	tts, err := NewTTS(append(testOpts(server.URL), WithVoice("nova"))...)
	require.NoError(t, err)

	audio, err := tts.Synthesize(context.Background(), "Hey! I'm ready to help you.")
	require.NoError(t, err)
	assert.Len(t, audio, 480)
	assert.Equal(t, 24000, tts.SampleRate())
	assert.Equal(t, "nova", tts.Voice())

	_, err = tts.Synthesize(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestSTTTranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, DefaultSTTModel, r.FormValue("model"))
		assert.Equal(t, "en", r.FormValue("language"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "audio.wav", hdr.Filename)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "RIFF", string(data[:4]))
		assert.Len(t, data, 44+320)

		io.WriteString(w, `{"text": "  what's the temperature in the kitchen? "}`)
	}))
	defer server.Close()

	stt, err := NewSTT(append(testOpts(server.URL), WithLanguage("en"))...)
	require.NoError(t, err)

	text, err := stt.Transcribe(context.Background(), make([]byte, 320), speech.SampleRate)
	require.NoError(t, err)
	assert.Equal(t, "what's the temperature in the kitchen?", text)

	_, err = stt.Transcribe(context.Background(), nil, speech.SampleRate)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestContextCancelStopsRetry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	l, err := NewLLM(WithBaseURL(server.URL), WithAPIKey("k"), WithRetry(5, time.Second))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = l.Chat(ctx, []chat.Message{chat.User("hi")}, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
