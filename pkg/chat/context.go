// Package chat holds the conversation context shared by a session host and
// its language model: an ordered list of role-tagged messages seeded with a
// system instruction.
package chat

import (
	"errors"
	"strings"
	"sync"
)

// ErrNoInstructions is returned by the context factory when no system
// instruction is configured.
var ErrNoInstructions = errors.New("chat: system instructions required")

// Context is an append-only conversation history. It is safe for concurrent
// use; hosts append from their listen loop while tools read it.
type Context struct {
	mu       sync.RWMutex
	messages []Message
}

// NewContext creates an empty context.
func NewContext() *Context {
	return &Context{}
}

// Append adds messages and returns the context for chaining.
func (c *Context) Append(msgs ...Message) *Context {
	c.mu.Lock()
	c.messages = append(c.messages, msgs...)
	c.mu.Unlock()
	return c
}

// Messages returns a copy of the history.
func (c *Context) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Message(nil), c.messages...)
}

// Len returns the number of messages.
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Last returns the most recent message.
func (c *Context) Last() (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Instructions returns the content of the first system message.
func (c *Context) Instructions() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, m := range c.messages {
		if m.Role == RoleSystem {
			return m.Content
		}
	}
	return ""
}

// Copy returns an independent context with the same history.
func (c *Context) Copy() *Context {
	return &Context{messages: c.Messages()}
}

// NewContextFactory returns a zero-argument constructor that seeds each new
// context with instructions as its system message.
func NewContextFactory(instructions string) func() (*Context, error) {
	return func() (*Context, error) {
		if strings.TrimSpace(instructions) == "" {
			return nil, ErrNoInstructions
		}
		return NewContext().Append(System(instructions)), nil
	}
}
