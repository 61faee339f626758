package message

import (
	"testing"

	"github.com/germanamz/easel/pkg/chats/content"
	"github.com/germanamz/easel/pkg/chats/role"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	msg := New("alice", role.User, content.Text{Text: "hello"}, content.Image{Data: []byte{1}, MediaType: "image/png"})

	assert.Equal(t, "alice", msg.Sender)
	assert.Equal(t, role.User, msg.Role)
	assert.Len(t, msg.Parts, 2)
	assert.Nil(t, msg.Metadata)
}

func TestNewText(t *testing.T) {
	msg := NewText("easel", role.Assistant, "hi there")

	assert.Equal(t, "easel", msg.Sender)
	assert.Equal(t, role.Assistant, msg.Role)
	assert.Len(t, msg.Parts, 1)
	assert.Equal(t, "hi there", msg.Parts[0].(content.Text).Text)
}

func TestMessage_TextContent(t *testing.T) {
	msg := New("alice", role.User,
		content.Text{Text: "add a "},
		content.Image{Data: []byte{1}},
		content.Text{Text: "hat"},
	)

	assert.Equal(t, "add a hat", msg.TextContent())
}

func TestMessage_ToolCalls(t *testing.T) {
	msg := New("easel", role.Assistant,
		content.Text{Text: "working on it"},
		content.ToolCall{ID: "c1", Name: "generateImage", Arguments: `{"prompt":"a cat"}`},
		content.ToolCall{ID: "c2", Name: "plan", Arguments: `{}`},
	)

	calls := msg.ToolCalls()
	assert.Len(t, calls, 2)
	assert.Equal(t, "generateImage", calls[0].Name)
	assert.Equal(t, "plan", calls[1].Name)
}

func TestMessage_FirstToolCall(t *testing.T) {
	msg := New("easel", role.Assistant,
		content.ToolCall{ID: "c1", Name: "editImage"},
		content.ToolCall{ID: "c2", Name: "generateImage"},
	)

	tc, ok := msg.FirstToolCall()
	assert.True(t, ok)
	assert.Equal(t, "editImage", tc.Name)
}

func TestMessage_FirstToolCall_None(t *testing.T) {
	msg := NewText("easel", role.Assistant, "done")

	_, ok := msg.FirstToolCall()
	assert.False(t, ok)
}

func TestMessage_Images(t *testing.T) {
	msg := New("alice", role.User,
		content.Text{Text: "use these"},
		content.Image{Data: []byte{1}, ShapeID: "s1"},
		content.Image{Data: []byte{2}, ShapeID: "s2"},
	)

	imgs := msg.Images()
	assert.Len(t, imgs, 2)
	assert.Equal(t, "s1", imgs[0].ShapeID)
	assert.Equal(t, "s2", imgs[1].ShapeID)
}

func TestMessage_Meta(t *testing.T) {
	var msg Message

	_, ok := msg.GetMeta("k")
	assert.False(t, ok)

	msg.SetMeta("k", 42)
	v, ok := msg.GetMeta("k")
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}
