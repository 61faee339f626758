// Package bridge exposes the engine to browser frontends over a websocket.
// Each connection owns one session: the client sends prompt, toggle and
// reset frames; the bridge streams engine events back as they happen.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/germanamz/easel/pkg/assistant"
	"github.com/germanamz/easel/pkg/engine"
	"github.com/germanamz/easel/pkg/media"
)

// Frame types the client may send.
const (
	FramePrompt         = "prompt"
	FrameToggleFallback = "toggle_fallback"
	FrameReset          = "reset"
)

// inboundFrame is a client message. Type selects which fields apply.
type inboundFrame struct {
	Type        string            `json:"type"`
	Text        string            `json:"text,omitempty"`
	Attachments []attachmentFrame `json:"attachments,omitempty"`
	Flow        string            `json:"flow,omitempty"`
	Enabled     bool              `json:"enabled,omitempty"`
}

// attachmentFrame carries an attached image; Data is base64 on the wire.
type attachmentFrame struct {
	Data      []byte `json:"data"`
	MediaType string `json:"mediaType"`
	ShapeID   string `json:"shapeId,omitempty"`
}

// eventFrame is what the bridge writes back.
type eventFrame struct {
	Type      string `json:"type"`
	Kind      string `json:"kind"`
	SessionID string `json:"sessionId,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// Server bridges websocket connections to engine sessions.
type Server struct {
	Engine *engine.Engine
	Log    *slog.Logger

	// OriginPatterns is passed to the websocket accept options. Empty means
	// same-origin only.
	OriginPatterns []string
}

// NewServer creates a bridge over the given engine.
func NewServer(e *engine.Engine) *Server {
	return &Server{Engine: e, Log: slog.Default()}
}

// ServeHTTP upgrades the request and runs the connection until the client
// goes away.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.OriginPatterns,
	})
	if err != nil {
		s.Log.Error("websocket accept failed", "err", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "connection closed")

	if err := s.serve(r.Context(), conn); err != nil {
		var closeErr websocket.CloseError
		if !errors.As(err, &closeErr) && !errors.Is(err, context.Canceled) {
			s.Log.Warn("connection ended", "err", err)
		}
		return
	}

	conn.Close(websocket.StatusNormalClosure, "")
}

func (s *Server) serve(ctx context.Context, conn *websocket.Conn) error {
	sess := s.Engine.NewSession()
	defer s.Engine.CloseSession(sess.ID())

	sub := s.Engine.Events().Subscribe(64)
	defer s.Engine.Events().Unsubscribe(sub)

	var writeMu sync.Mutex
	write := func(frame eventFrame) error {
		writeMu.Lock()
		defer writeMu.Unlock()

		return wsjson.Write(ctx, conn, frame)
	}

	// Pump engine events to the client. Events from other sessions are
	// forwarded only when they are not session-scoped (canvas and toggle
	// changes are global).
	pumpCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		for {
			select {
			case <-pumpCtx.Done():
				return
			case ev, ok := <-sub.C:
				if !ok {
					return
				}
				if ev.SessionID != "" && ev.SessionID != sess.ID() {
					continue
				}
				_ = write(eventFrame{
					Type:      "event",
					Kind:      string(ev.Kind),
					SessionID: ev.SessionID,
					Data:      ev.Data,
				})
			}
		}
	}()

	for {
		var frame inboundFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			return err
		}

		switch frame.Type {
		case FramePrompt:
			attachments := make([]assistant.Attachment, 0, len(frame.Attachments))
			for _, a := range frame.Attachments {
				attachments = append(attachments, assistant.Attachment{
					Data:      a.Data,
					MediaType: a.MediaType,
					ShapeID:   a.ShapeID,
				})
			}
			// Errors surface to the client as error events.
			_, _ = sess.Send(ctx, frame.Text, attachments...)

		case FrameToggleFallback:
			if err := s.Engine.SetFlowFallback(media.Flow(frame.Flow), frame.Enabled); err != nil {
				_ = write(eventFrame{
					Type: "event",
					Kind: string(engine.EventError),
					Data: err.Error(),
				})
			}

		case FrameReset:
			sess.Reset()

		default:
			_ = write(eventFrame{
				Type: "event",
				Kind: string(engine.EventError),
				Data: fmt.Sprintf("unknown frame type %q", frame.Type),
			})
		}
	}
}
