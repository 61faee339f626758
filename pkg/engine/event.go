package engine

import (
	"sync"
	"time"
)

// EventKind identifies the type of engine event.
type EventKind string

const (
	EventToolCallStart EventKind = "tool_call_start"
	EventToolCallEnd   EventKind = "tool_call_end"
	EventModelFallback EventKind = "model_fallback"
	EventMediaFallback EventKind = "media_fallback"
	EventAnswer        EventKind = "answer"
	EventMaskEditor    EventKind = "mask_editor"
	EventCanvasChanged EventKind = "canvas_changed"
	EventToggleChanged EventKind = "toggle_changed"
	EventError         EventKind = "error"
)

// Event is an immutable notification of engine activity.
type Event struct {
	Kind      EventKind
	SessionID string
	Timestamp time.Time
	Data      any
}

// ToolCallData rides on tool_call_start events.
type ToolCallData struct {
	Name      string
	Arguments string
}

// ToolResultData rides on tool_call_end events.
type ToolResultData struct {
	Name    string
	Content string
	IsError bool
}

// FallbackData rides on model_fallback and media_fallback events. Flow is
// empty for model-tier fallback.
type FallbackData struct {
	Flow   string
	Reason string
}

// MaskEditorData rides on mask_editor events; the frontend opens its masked
// edit flow with these values.
type MaskEditorData struct {
	ShapeID string
	Prompt  string
	Overlay []byte
}

// ToggleData rides on toggle_changed events.
type ToggleData struct {
	Flow    string
	Enabled bool
}

// Subscription receives events from an EventBus.
type Subscription struct {
	C  <-chan Event
	ch chan Event
}

// EventBus fans out events to all active subscribers. It is safe for
// concurrent use.
type EventBus struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

// NewEventBus creates an EventBus ready for use.
func NewEventBus() *EventBus {
	return &EventBus{
		subs: make(map[*Subscription]struct{}),
	}
}

// Subscribe creates a new subscription with the given channel buffer size.
// The caller should read from sub.C and eventually call Unsubscribe.
func (b *EventBus) Subscribe(bufSize int) *Subscription {
	ch := make(chan Event, bufSize)
	sub := &Subscription{C: ch, ch: ch}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	return sub
}

// Unsubscribe removes the subscription and closes its channel.
func (b *EventBus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		close(sub.ch)
	}
}

// Publish sends an event to all subscribers. If a subscriber's buffer is full
// the event is dropped for that subscriber to prevent slow consumers from
// stalling the session loop.
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs {
		select {
		case sub.ch <- e:
		default:
		}
	}
}
