// Package assistant runs the conversation loop: a user utterance goes in,
// the model answers either with a final reply or with a sequence of tool
// calls the session executes one at a time, feeding each result back until
// the model produces a plain answer.
package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/germanamz/easel/pkg/chats/chat"
	"github.com/germanamz/easel/pkg/chats/content"
	"github.com/germanamz/easel/pkg/chats/message"
	"github.com/germanamz/easel/pkg/chats/role"
	"github.com/germanamz/easel/pkg/modeladapter"
	"github.com/germanamz/easel/pkg/tools/toolbox"
)

// DefaultMaxIterations bounds how many tool calls a single user message may
// trigger before the session gives up.
const DefaultMaxIterations = 24

// ErrMaxIterations is returned when the model keeps issuing tool calls past
// the iteration limit without producing a final answer.
var ErrMaxIterations = errors.New("assistant: tool loop exceeded iteration limit")

// Hooks are optional observation points for frontends. Nil hooks are
// skipped. They run synchronously on the session's goroutine.
type Hooks struct {
	// OnToolStart fires before a tool call is dispatched.
	OnToolStart func(call content.ToolCall)
	// OnToolEnd fires after a tool call returned, error results included.
	OnToolEnd func(call content.ToolCall, result content.ToolResult)
	// OnAnswer fires when the model produced the final answer for a user
	// message, after it was appended to the chat.
	OnAnswer func(msg message.Message)
}

// Session owns one conversation: its chat history, the implicit image
// context, the tool catalog, and the completer (usually a FallbackCompleter
// wrapping primary and secondary models).
type Session struct {
	Completer modeladapter.Completer
	Toolbox   *toolbox.ToolBox
	Chat      *chat.Chat
	Context   *Context

	// MaxIterations caps tool calls per Send. Zero means
	// DefaultMaxIterations.
	MaxIterations int

	Hooks Hooks
}

// NewSession creates a Session with a fresh chat and implicit context.
func NewSession(completer modeladapter.Completer, tb *toolbox.ToolBox) *Session {
	return &Session{
		Completer: completer,
		Toolbox:   tb,
		Chat:      chat.New(),
		Context:   NewContext(),
	}
}

// Send handles one user message: it records any attached images as the new
// implicit reference, appends the user turn, and drives the model/tool loop
// until the model answers in plain content. The final answer is appended to
// the chat and returned.
//
// If the model call fails (after any completer-level fallback), no model
// turn is appended; the user turn stays and the error is returned for the
// frontend to surface.
func (s *Session) Send(ctx context.Context, text string, attachments ...Attachment) (message.Message, error) {
	parts := make([]content.Part, 0, 1+len(attachments))
	if text != "" {
		parts = append(parts, content.Text{Text: text})
	}
	for _, a := range attachments {
		s.Context.Attach(a)
		parts = append(parts, content.Image{
			Data:      a.Data,
			MediaType: a.MediaType,
			ShapeID:   a.ShapeID,
		})
	}
	s.Chat.Append(message.New("user", role.User, parts...))

	maxIter := s.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	for i := 0; i < maxIter; i++ {
		msg, err := s.Completer.Complete(ctx, s.Chat, s.Toolbox.Tools())
		if err != nil {
			return message.Message{}, fmt.Errorf("model call: %w", err)
		}

		// Only the first tool call of a response is honored; the model is
		// required to issue one call per turn.
		tc, ok := msg.FirstToolCall()
		if !ok {
			s.Chat.Append(msg)
			if s.Hooks.OnAnswer != nil {
				s.Hooks.OnAnswer(msg)
			}
			return msg, nil
		}

		s.Chat.Append(msg)

		if s.Hooks.OnToolStart != nil {
			s.Hooks.OnToolStart(tc)
		}
		result := s.Toolbox.Call(ctx, tc)
		if s.Hooks.OnToolEnd != nil {
			s.Hooks.OnToolEnd(tc, result)
		}

		s.Chat.Append(message.New("tools", role.Tool, result))
	}

	return message.Message{}, ErrMaxIterations
}

// Reset clears the conversation and the implicit context.
func (s *Session) Reset() {
	s.Chat.Reset()
	s.Context.Reset()
}
