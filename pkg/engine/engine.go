package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/germanamz/easel/pkg/canvas"
	"github.com/germanamz/easel/pkg/canvastools"
	"github.com/germanamz/easel/pkg/media"
	"github.com/germanamz/easel/pkg/modeladapter"
)

// Engine assembles the assistant from configuration: the model completer
// with its tier fallback, the media generator with its per-flow fallback,
// the shared canvas document, and the event bus frontends observe.
type Engine struct {
	cfg       Config
	log       *slog.Logger
	events    *EventBus
	doc       *canvas.Document
	toggles   *media.Toggles
	gen       media.Generator
	completer modeladapter.Completer
	editor    canvastools.MaskEditor

	mu       sync.Mutex
	sessions map[string]*Session
	nextID   int
}

// New creates an Engine from the given configuration. It validates the
// config and builds the provider adapters; it performs no network calls.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		log:      slog.Default(),
		events:   NewEventBus(),
		doc:      canvas.NewDocument(),
		toggles:  media.NewToggles(),
		sessions: make(map[string]*Session),
	}
	e.editor = &busMaskEditor{engine: e}

	for name, on := range cfg.Fallback {
		e.toggles.Set(knownFlows[name], on)
	}

	primary, err := buildCompleter(cfg.Providers.Primary)
	if err != nil {
		return nil, err
	}
	e.completer = primary

	if cfg.Providers.Secondary != nil {
		secondary, err := buildCompleter(*cfg.Providers.Secondary)
		if err != nil {
			return nil, err
		}
		e.completer = &modeladapter.FallbackCompleter{
			Primary:   primary,
			Secondary: secondary,
			OnFallback: func(cause error) {
				e.log.Warn("falling back to secondary model", "cause", cause)
				e.events.Publish(Event{
					Kind:      EventModelFallback,
					Timestamp: time.Now(),
					Data:      FallbackData{Reason: cause.Error()},
				})
			},
		}
	}

	primaryGen, err := buildGenerator(cfg.Media.Primary)
	if err != nil {
		return nil, err
	}
	e.gen = primaryGen

	// A secondary without a credential means fallback stays a no-op.
	if cfg.Media.secondaryConfigured() {
		secondaryGen, err := buildGenerator(*cfg.Media.Secondary)
		if err != nil {
			return nil, err
		}
		e.gen = &media.FallbackGenerator{
			Primary:   primaryGen,
			Secondary: secondaryGen,
			Flows:     e.toggles,
			OnFallback: func(flow media.Flow, cause error) {
				e.log.Warn("falling back to secondary media provider",
					"flow", flow, "cause", cause)
				e.events.Publish(Event{
					Kind:      EventMediaFallback,
					Timestamp: time.Now(),
					Data:      FallbackData{Flow: string(flow), Reason: cause.Error()},
				})
			},
		}
	}

	return e, nil
}

// Events returns the engine's event bus.
func (e *Engine) Events() *EventBus { return e.events }

// Canvas returns the shared canvas document.
func (e *Engine) Canvas() *canvas.Document { return e.doc }

// Generator returns the media generator, fallback wrapper included.
func (e *Engine) Generator() media.Generator { return e.gen }

// SetLogger replaces the engine's logger. Call before NewSession.
func (e *Engine) SetLogger(log *slog.Logger) {
	if log != nil {
		e.log = log
	}
}

// SetMaskEditor replaces the mask editor frontends implement. The default
// publishes a mask_editor event and expects a frontend to react. Call
// before NewSession.
func (e *Engine) SetMaskEditor(editor canvastools.MaskEditor) {
	if editor != nil {
		e.editor = editor
	}
}

// SetFlowFallback flips the fallback toggle for one flow and notifies
// subscribers.
func (e *Engine) SetFlowFallback(flow media.Flow, on bool) error {
	if _, ok := knownFlows[string(flow)]; !ok {
		return fmt.Errorf("engine: unknown flow %q", flow)
	}

	e.toggles.Set(flow, on)
	e.events.Publish(Event{
		Kind:      EventToggleChanged,
		Timestamp: time.Now(),
		Data:      ToggleData{Flow: string(flow), Enabled: on},
	})

	return nil
}

// FlowFallbackEnabled reports the current toggle for one flow.
func (e *Engine) FlowFallbackEnabled(flow media.Flow) bool {
	return e.toggles.Enabled(flow)
}

// NewSession creates a new conversation over the shared canvas.
func (e *Engine) NewSession() *Session {
	e.mu.Lock()
	e.nextID++
	id := fmt.Sprintf("session-%d", e.nextID)
	e.mu.Unlock()

	s := newSession(id, e)

	e.mu.Lock()
	e.sessions[id] = s
	e.mu.Unlock()

	return s
}

// Session returns an existing session by ID.
func (e *Engine) Session(id string) (*Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[id]
	return s, ok
}

// CloseSession drops a session and its conversation state. Callers that
// create a session per connection must close it when the connection ends.
func (e *Engine) CloseSession(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.sessions, id)
}

// busMaskEditor is the default MaskEditor: it publishes a mask_editor event
// for a frontend to act on.
type busMaskEditor struct {
	engine *Engine
}

func (m *busMaskEditor) OpenMaskEditor(_ context.Context, shapeID, prompt string, overlay []byte) error {
	m.engine.events.Publish(Event{
		Kind:      EventMaskEditor,
		Timestamp: time.Now(),
		Data:      MaskEditorData{ShapeID: shapeID, Prompt: prompt, Overlay: overlay},
	})
	return nil
}
