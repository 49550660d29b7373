package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewRespectsLevel(t *testing.T) {
	t.Setenv("GO_ENV", "")
	var buf bytes.Buffer
	l := New(&buf, "warn")

	l.Info("hidden")
	l.Warn("shown", "zone", "kitchen")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "zone=kitchen")
}

func TestNewJSONInProduction(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	var buf bytes.Buffer
	New(&buf, "info").Info("hello")
	assert.True(t, strings.HasPrefix(buf.String(), "{"), "expected JSON output, got %q", buf.String())
}

func TestComponentTagsRecords(t *testing.T) {
	rec := NewRecorder()
	prev := L()
	Use(rec.Logger())
	t.Cleanup(func() { Use(prev) })

	Component("cli").Warn("room URL missing", "room", "den")
	Info("plain")

	e, ok := rec.Find("room URL missing")
	require.True(t, ok)
	assert.Equal(t, slog.LevelWarn, e.Level)
	assert.Equal(t, "cli", e.Attrs["component"])
	assert.Equal(t, "den", e.Attrs["room"])

	plain, ok := rec.Find("plain")
	require.True(t, ok)
	assert.NotContains(t, plain.Attrs, "component")
}

func TestRecorderGroups(t *testing.T) {
	rec := NewRecorder()
	rec.Logger().WithGroup("job").With("id", "job_1").Info("started", "room", "den")

	e, ok := rec.Find("started")
	require.True(t, ok)
	assert.Equal(t, "job_1", e.Attrs["job.id"])
	assert.Equal(t, "den", e.Attrs["job.room"])
	assert.Len(t, rec.FindAll("started"), 1)
}
