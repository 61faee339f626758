package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/germanamz/easel/pkg/assistant"
	"github.com/germanamz/easel/pkg/canvastools"
	"github.com/germanamz/easel/pkg/chats/chat"
	"github.com/germanamz/easel/pkg/chats/content"
	"github.com/germanamz/easel/pkg/chats/message"
	"github.com/germanamz/easel/pkg/tools/toolbox"
)

// Session represents one conversation over the shared canvas. Only one Send
// call may be active at a time.
type Session struct {
	id     string
	inner  *assistant.Session
	events *EventBus

	mu     sync.Mutex
	active bool
}

func newSession(id string, e *Engine) *Session {
	sctx := assistant.NewContext()
	tools := canvastools.New(e.doc, e.gen, sctx, e.editor)

	inner := &assistant.Session{
		Completer:     e.completer,
		Toolbox:       tools.Tools(),
		Chat:          chat.New(),
		Context:       sctx,
		MaxIterations: e.cfg.MaxIterations,
	}

	s := &Session{
		id:     id,
		inner:  inner,
		events: e.events,
	}

	inner.Hooks = assistant.Hooks{
		OnToolStart: func(tc content.ToolCall) {
			s.publish(EventToolCallStart, ToolCallData{Name: tc.Name, Arguments: tc.Arguments})
		},
		OnToolEnd: func(tc content.ToolCall, res content.ToolResult) {
			s.publish(EventToolCallEnd, ToolResultData{
				Name:    tc.Name,
				Content: res.Content,
				IsError: res.IsError,
			})
			if !res.IsError {
				s.publish(EventCanvasChanged, nil)
			}
		},
		OnAnswer: func(msg message.Message) {
			s.publish(EventAnswer, msg.TextContent())
		},
	}

	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Chat returns the underlying chat for direct observation.
func (s *Session) Chat() *chat.Chat { return s.inner.Chat }

// Toolbox returns the session's canvas toolbox, e.g. for serving the same
// catalog over MCP.
func (s *Session) Toolbox() *toolbox.ToolBox { return s.inner.Toolbox }

// Send handles one user message, optionally with attached images, and
// returns the model's final answer. Only one Send may be active per session.
func (s *Session) Send(ctx context.Context, text string, attachments ...assistant.Attachment) (message.Message, error) {
	if err := s.acquire(); err != nil {
		return message.Message{}, err
	}
	defer s.release()

	reply, err := s.inner.Send(ctx, text, attachments...)
	if err != nil {
		s.publish(EventError, err.Error())
		return message.Message{}, err
	}

	return reply, nil
}

// Reset clears the conversation and its implicit context.
func (s *Session) Reset() {
	s.inner.Reset()
}

func (s *Session) publish(kind EventKind, data any) {
	s.events.Publish(Event{
		Kind:      kind,
		SessionID: s.id,
		Timestamp: time.Now(),
		Data:      data,
	})
}

func (s *Session) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return fmt.Errorf("engine: session %s: another Send is already active", s.id)
	}
	s.active = true
	return nil
}

func (s *Session) release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = false
}
