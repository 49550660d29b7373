package tool_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-hearth/pkg/tool"
)

func echo(ctx context.Context, args tool.Args) (string, error) {
	s, err := args.String("text")
	if err != nil {
		return "", err
	}
	return s, nil
}

func TestRegistryRegister(t *testing.T) {
	reg := tool.NewRegistry()
	require.NoError(t, reg.Register(tool.Define("echo", "Echo text").String("text", "Text").Handle(echo)))
	require.NoError(t, reg.Register(tool.Define("add", "Add one").Int("n", "Number").Handle(
		func(ctx context.Context, args tool.Args) (string, error) {
			n, err := args.Int("n")
			if err != nil {
				return "", err
			}
			return strconv.Itoa(n + 1), nil
		})))

	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, []string{"echo", "add"}, reg.Names())

	err := reg.Register(tool.Define("echo", "again").Handle(echo))
	assert.ErrorIs(t, err, tool.ErrDuplicate)

	d, ok := reg.Get("add")
	require.True(t, ok)
	assert.Equal(t, tool.TypeInteger, d.Params[0].Type)
}

func TestRegistryRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		decl tool.Declaration
	}{
		{"empty name", tool.Define("", "x").Handle(echo)},
		{"bad name", tool.Define("get temp", "x").Handle(echo)},
		{"no description", tool.Define("x", "").Handle(echo)},
		{"no handler", tool.Define("x", "x").Handle(nil)},
		{"duplicate param", tool.Define("x", "x").String("a", "").String("a", "").Handle(echo)},
		{"bad type", tool.Declaration{Name: "x", Description: "x", Handler: echo, Params: []tool.Param{{Name: "a", Type: "array"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tool.NewRegistry().Register(tt.decl)
			assert.ErrorIs(t, err, tool.ErrInvalidDeclaration)
		})
	}
}

func TestMustRegisterPanics(t *testing.T) {
	reg := tool.NewRegistry()
	reg.MustRegister(tool.Define("echo", "Echo").Handle(echo))
	assert.Panics(t, func() { reg.MustRegister(tool.Define("echo", "Echo").Handle(echo)) })
}

func TestRegistryInvoke(t *testing.T) {
	reg := tool.NewRegistry()
	reg.MustRegister(tool.Define("echo", "Echo text").String("text", "Text").Handle(echo))
	ctx := context.Background()

	out, err := reg.Invoke(ctx, "echo", map[string]any{"text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", out)

	_, err = reg.Invoke(ctx, "nope", nil)
	assert.ErrorIs(t, err, tool.ErrNotFound)

	_, err = reg.Invoke(ctx, "echo", map[string]any{})
	assert.ErrorIs(t, err, tool.ErrArgMissing)

	_, err = reg.Invoke(ctx, "echo", map[string]any{"text": 42})
	require.ErrorIs(t, err, tool.ErrArgType)
	var ae *tool.ArgError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "echo", ae.Tool)
	assert.Equal(t, "text", ae.Param)
}

func TestToInt(t *testing.T) {
	tests := []struct {
		in   any
		want int
		ok   bool
	}{
		{21, 21, true},
		{int8(-3), -3, true},
		{int64(30), 30, true},
		{uint16(7), 7, true},
		{float64(23), 23, true},
		{float32(19), 19, true},
		{json.Number("25"), 25, true},
		{json.Number("25.0"), 25, true},
		{json.Number("21.5"), 21, true},
		{json.Number("1e3"), 1000, true},
		{21.5, 21, true},
		{-21.5, -21, true},
		{math.NaN(), 0, false},
		{math.Inf(1), 0, false},
		{"24", 24, true},
		{" 18 ", 18, true},
		{"+7", 7, true},
		{"21.0", 0, false},
		{"21.5", 0, false},
		{"1e3", 0, false},
		{"abc", 0, false},
		{"warm", 0, false},
		{json.Number("x"), 0, false},
		{true, 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := tool.ToInt(tt.in)
		assert.Equal(t, tt.ok, ok, "%T %v", tt.in, tt.in)
		assert.Equal(t, tt.want, got, "%T %v", tt.in, tt.in)
	}
}

func TestSchemas(t *testing.T) {
	reg := tool.NewRegistry()
	reg.MustRegister(tool.Define("set_temperature", "Set the temperature").
		String("zone", "The specific zone", "kitchen", "office").
		Int("temp", "The temperature to set").
		Handle(echo))

	schemas := reg.Schemas()
	require.Len(t, schemas, 1)

	raw, err := json.Marshal(schemas[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "function",
		"function": {
			"name": "set_temperature",
			"description": "Set the temperature",
			"parameters": {
				"type": "object",
				"properties": {
					"zone": {"type": "string", "description": "The specific zone", "enum": ["kitchen", "office"]},
					"temp": {"type": "integer", "description": "The temperature to set"}
				},
				"required": ["zone", "temp"]
			}
		}
	}`, string(raw))
}
