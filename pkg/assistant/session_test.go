package assistant_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/germanamz/easel/pkg/assistant"
	"github.com/germanamz/easel/pkg/chats/chat"
	"github.com/germanamz/easel/pkg/chats/content"
	"github.com/germanamz/easel/pkg/chats/message"
	"github.com/germanamz/easel/pkg/chats/role"
	"github.com/germanamz/easel/pkg/modeladapter"
	"github.com/germanamz/easel/pkg/tools/toolbox"
)

// sequenceCompleter returns scripted responses in order, or a scripted
// error.
type sequenceCompleter struct {
	responses []message.Message
	errs      []error
	calls     int
}

func (s *sequenceCompleter) Complete(_ context.Context, _ *chat.Chat, _ []toolbox.Tool) (message.Message, error) {
	i := s.calls
	s.calls++

	if i < len(s.errs) && s.errs[i] != nil {
		return message.Message{}, s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return message.NewText("model", role.Assistant, "done"), nil
}

func toolCallMsg(name, args string) message.Message {
	return message.New("model", role.Assistant, content.ToolCall{
		ID:        "call-1",
		Name:      name,
		Arguments: args,
	})
}

func recordingTool(name string, out string, err error) (toolbox.Tool, *[]json.RawMessage) {
	var calls []json.RawMessage
	return toolbox.Tool{
		Name:        name,
		Description: name,
		InputSchema: json.RawMessage(`{"type":"object"}`),
		Handler: func(_ context.Context, input json.RawMessage) (string, error) {
			calls = append(calls, input)
			return out, err
		},
	}, &calls
}

func TestSendPlainAnswer(t *testing.T) {
	completer := &sequenceCompleter{responses: []message.Message{
		message.NewText("model", role.Assistant, "hello there"),
	}}
	s := assistant.NewSession(completer, toolbox.New())

	msg, err := s.Send(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello there", msg.TextContent())

	// user turn plus model turn
	assert.Equal(t, 2, s.Chat.Len())
	transcript := s.Chat.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, role.User, transcript[0].Role)
	assert.Equal(t, role.Assistant, transcript[1].Role)
}

func TestSendToolLoop(t *testing.T) {
	tool, calls := recordingTool("generateImage", "Generated 1 image(s)", nil)
	tb := toolbox.New()
	tb.Register(tool)

	completer := &sequenceCompleter{responses: []message.Message{
		toolCallMsg("generateImage", `{"prompt":"a cat"}`),
		message.NewText("model", role.Assistant, "I drew a cat."),
	}}
	s := assistant.NewSession(completer, tb)

	var started, ended []string
	s.Hooks = assistant.Hooks{
		OnToolStart: func(tc content.ToolCall) { started = append(started, tc.Name) },
		OnToolEnd: func(tc content.ToolCall, res content.ToolResult) {
			ended = append(ended, tc.Name)
			assert.False(t, res.IsError)
		},
	}

	msg, err := s.Send(context.Background(), "draw a cat")
	require.NoError(t, err)
	assert.Equal(t, "I drew a cat.", msg.TextContent())

	require.Len(t, *calls, 1)
	assert.JSONEq(t, `{"prompt":"a cat"}`, string((*calls)[0]))
	assert.Equal(t, []string{"generateImage"}, started)
	assert.Equal(t, []string{"generateImage"}, ended)

	// tool exchanges stay out of the transcript
	transcript := s.Chat.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, "draw a cat", transcript[0].TextContent())
	assert.Equal(t, "I drew a cat.", transcript[1].TextContent())

	// but the full history holds user, tool-call, tool-result, answer
	assert.Equal(t, 4, s.Chat.Len())
	assert.Equal(t, role.Tool, s.Chat.At(2).Role)
}

func TestSendToolErrorKeepsLoopAlive(t *testing.T) {
	tool, _ := recordingTool("editImage", "", errors.New("no image selected"))
	tb := toolbox.New()
	tb.Register(tool)

	completer := &sequenceCompleter{responses: []message.Message{
		toolCallMsg("editImage", `{"prompt":"add a hat"}`),
		message.NewText("model", role.Assistant, "Please select an image first."),
	}}
	s := assistant.NewSession(completer, tb)

	msg, err := s.Send(context.Background(), "add a hat")
	require.NoError(t, err)
	assert.Equal(t, "Please select an image first.", msg.TextContent())

	// the error became a tool result fed back to the model
	toolMsg := s.Chat.At(2)
	require.Equal(t, role.Tool, toolMsg.Role)
	result, ok := toolMsg.Parts[0].(content.ToolResult)
	require.True(t, ok)
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, "no image selected")
}

func TestSendModelFailureAppendsNoModelTurn(t *testing.T) {
	completer := &sequenceCompleter{errs: []error{
		&modeladapter.HTTPError{Status: 503, Body: "unavailable"},
	}}
	s := assistant.NewSession(completer, toolbox.New())

	_, err := s.Send(context.Background(), "hi")
	require.Error(t, err)

	// the user turn stays; no model turn was appended
	require.Equal(t, 1, s.Chat.Len())
	assert.Equal(t, role.User, s.Chat.At(0).Role)
}

func TestSendModelTierFallback(t *testing.T) {
	primary := &sequenceCompleter{errs: []error{
		&modeladapter.HTTPError{Status: 500, Body: "internal"},
	}}
	secondary := &sequenceCompleter{responses: []message.Message{
		message.NewText("model", role.Assistant, "fallback answer"),
	}}

	var notified bool
	fb := &modeladapter.FallbackCompleter{
		Primary:    primary,
		Secondary:  secondary,
		OnFallback: func(error) { notified = true },
	}
	s := assistant.NewSession(fb, toolbox.New())

	msg, err := s.Send(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "fallback answer", msg.TextContent())
	assert.True(t, notified)
	assert.Equal(t, 1, secondary.calls)
}

func TestSendAttachmentSetsReference(t *testing.T) {
	completer := &sequenceCompleter{responses: []message.Message{
		message.NewText("model", role.Assistant, "noted"),
	}}
	s := assistant.NewSession(completer, toolbox.New())

	_, err := s.Send(context.Background(), "add a hat", assistant.Attachment{
		Data:      []byte("img"),
		MediaType: "image/png",
		ShapeID:   "shape-1",
	})
	require.NoError(t, err)

	ref, ok := s.Context.Reference()
	require.True(t, ok)
	assert.Equal(t, "shape-1", ref.ShapeID)

	// the attachment rides along in the user turn
	images := s.Chat.At(0).Images()
	require.Len(t, images, 1)
	assert.Equal(t, []byte("img"), images[0].Data)
}

func TestSendMaxIterations(t *testing.T) {
	tool, _ := recordingTool("plan", "ok", nil)
	tb := toolbox.New()
	tb.Register(tool)

	looping := &sequenceCompleter{}
	// always answer with another tool call
	looping.responses = []message.Message{
		toolCallMsg("plan", `{}`), toolCallMsg("plan", `{}`),
		toolCallMsg("plan", `{}`), toolCallMsg("plan", `{}`),
	}
	s := assistant.NewSession(looping, tb)
	s.MaxIterations = 3

	_, err := s.Send(context.Background(), "loop forever")
	assert.ErrorIs(t, err, assistant.ErrMaxIterations)
	assert.Equal(t, 3, looping.calls)
}

func TestReset(t *testing.T) {
	completer := &sequenceCompleter{responses: []message.Message{
		message.NewText("model", role.Assistant, "hello"),
	}}
	s := assistant.NewSession(completer, toolbox.New())

	_, err := s.Send(context.Background(), "hi", assistant.Attachment{Data: []byte("x")})
	require.NoError(t, err)
	require.NotZero(t, s.Chat.Len())

	s.Reset()
	assert.Zero(t, s.Chat.Len())
	_, ok := s.Context.Reference()
	assert.False(t, ok)
}

func TestSendOnlyFirstToolCallHonored(t *testing.T) {
	first, firstCalls := recordingTool("generateImage", "ok", nil)
	second, secondCalls := recordingTool("generateVideo", "ok", nil)
	tb := toolbox.New()
	tb.Register(first, second)

	multi := message.New("model", role.Assistant,
		content.ToolCall{ID: "a", Name: "generateImage", Arguments: `{"prompt":"x"}`},
		content.ToolCall{ID: "b", Name: "generateVideo", Arguments: `{"prompt":"y"}`},
	)
	completer := &sequenceCompleter{responses: []message.Message{
		multi,
		message.NewText("model", role.Assistant, "done"),
	}}
	s := assistant.NewSession(completer, tb)

	_, err := s.Send(context.Background(), "do both")
	require.NoError(t, err)

	assert.Len(t, *firstCalls, 1)
	assert.Empty(t, *secondCalls)
}
