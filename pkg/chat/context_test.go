package chat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-hearth/pkg/chat"
)

func TestContextFactory(t *testing.T) {
	t.Run("seeds system message", func(t *testing.T) {
		ctx, err := chat.NewContextFactory("Be brief.")()
		require.NoError(t, err)
		require.Equal(t, 1, ctx.Len())
		assert.Equal(t, chat.System("Be brief."), ctx.Messages()[0])
		assert.Equal(t, "Be brief.", ctx.Instructions())
	})

	t.Run("blank instructions fail", func(t *testing.T) {
		ctx, err := chat.NewContextFactory("  ")()
		assert.ErrorIs(t, err, chat.ErrNoInstructions)
		assert.Nil(t, ctx)
	})
}

func TestContextAppend(t *testing.T) {
	c := chat.NewContext().
		Append(chat.System("sys")).
		Append(chat.User("hi"), chat.Assistant("hello"))

	assert.Equal(t, 3, c.Len())
	last, ok := c.Last()
	require.True(t, ok)
	assert.Equal(t, chat.RoleAssistant, last.Role)

	cp := c.Copy()
	cp.Append(chat.ToolResult("call_1", "get_temperature", "22"))
	assert.Equal(t, 3, c.Len(), "copy is independent")
	assert.Equal(t, 4, cp.Len())

	msgs := c.Messages()
	msgs[0].Content = "changed"
	assert.Equal(t, "sys", c.Instructions(), "Messages returns a copy")
}

func TestEmptyContext(t *testing.T) {
	c := chat.NewContext()
	_, ok := c.Last()
	assert.False(t, ok)
	assert.Empty(t, c.Instructions())
}
