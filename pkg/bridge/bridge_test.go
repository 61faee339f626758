package bridge

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/germanamz/easel/pkg/chats/chat"
	"github.com/germanamz/easel/pkg/chats/message"
	"github.com/germanamz/easel/pkg/chats/role"
	"github.com/germanamz/easel/pkg/engine"
	"github.com/germanamz/easel/pkg/media"
	"github.com/germanamz/easel/pkg/modeladapter"
	"github.com/germanamz/easel/pkg/tools/toolbox"
)

type cannedCompleter struct{ reply string }

func (c *cannedCompleter) Complete(_ context.Context, _ *chat.Chat, _ []toolbox.Tool) (message.Message, error) {
	return message.NewText("model", role.Assistant, c.reply), nil
}

type nullGenerator struct{}

func (nullGenerator) DescribeImage(context.Context, []byte) (string, error) { return "", nil }
func (nullGenerator) GenerateImages(context.Context, string, []byte, int, string) ([][]byte, error) {
	return nil, media.ErrNoImages
}
func (nullGenerator) EditImage(context.Context, []byte, []byte, string, []byte) ([]byte, error) {
	return nil, nil
}
func (nullGenerator) GenerateVideo(context.Context, []byte, string, int, string) ([][]byte, error) {
	return nil, nil
}

func newTestEngine(t *testing.T, reply string) *engine.Engine {
	t.Helper()

	engine.RegisterProvider("bridge-mock", func(engine.ProviderConfig) (modeladapter.Completer, error) {
		return &cannedCompleter{reply: reply}, nil
	})
	engine.RegisterMediaProvider("bridge-mockmedia", func(engine.MediaProviderConfig) (media.Generator, error) {
		return nullGenerator{}, nil
	})

	eng, err := engine.New(engine.Config{
		Providers: engine.ProvidersConfig{Primary: engine.ProviderConfig{Kind: "bridge-mock"}},
		Media:     engine.MediaConfig{Primary: engine.MediaProviderConfig{Kind: "bridge-mockmedia"}},
	})
	require.NoError(t, err)
	return eng
}

func dial(t *testing.T, eng *engine.Engine) (*websocket.Conn, context.Context) {
	t.Helper()

	srv := httptest.NewServer(NewServer(eng))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })

	return conn, ctx
}

func readUntil(ctx context.Context, t *testing.T, conn *websocket.Conn, kind string) eventFrame {
	t.Helper()

	for {
		var frame eventFrame
		require.NoError(t, wsjson.Read(ctx, conn, &frame))
		if frame.Kind == kind {
			return frame
		}
	}
}

func TestPromptRoundTrip(t *testing.T) {
	eng := newTestEngine(t, "hello from the model")
	conn, ctx := dial(t, eng)

	err := wsjson.Write(ctx, conn, inboundFrame{Type: FramePrompt, Text: "hi"})
	require.NoError(t, err)

	frame := readUntil(ctx, t, conn, string(engine.EventAnswer))
	assert.Equal(t, "event", frame.Type)
	assert.Equal(t, "hello from the model", frame.Data)
}

func TestToggleFallbackFrame(t *testing.T) {
	eng := newTestEngine(t, "x")
	conn, ctx := dial(t, eng)

	err := wsjson.Write(ctx, conn, inboundFrame{Type: FrameToggleFallback, Flow: "video", Enabled: true})
	require.NoError(t, err)

	frame := readUntil(ctx, t, conn, string(engine.EventToggleChanged))
	assert.Equal(t, "event", frame.Type)
	assert.True(t, eng.FlowFallbackEnabled(media.FlowVideo))
}

func TestUnknownFrameReportsError(t *testing.T) {
	eng := newTestEngine(t, "x")
	conn, ctx := dial(t, eng)

	err := wsjson.Write(ctx, conn, inboundFrame{Type: "teleport"})
	require.NoError(t, err)

	frame := readUntil(ctx, t, conn, string(engine.EventError))
	assert.Contains(t, frame.Data.(string), "unknown frame type")
}

func TestUnknownToggleFlowReportsError(t *testing.T) {
	eng := newTestEngine(t, "x")
	conn, ctx := dial(t, eng)

	err := wsjson.Write(ctx, conn, inboundFrame{Type: FrameToggleFallback, Flow: "bogus", Enabled: true})
	require.NoError(t, err)

	frame := readUntil(ctx, t, conn, string(engine.EventError))
	assert.Contains(t, frame.Data.(string), "unknown flow")
}

func TestConnectionCloseDropsSession(t *testing.T) {
	eng := newTestEngine(t, "hello")
	conn, ctx := dial(t, eng)

	err := wsjson.Write(ctx, conn, inboundFrame{Type: FramePrompt, Text: "hi"})
	require.NoError(t, err)

	frame := readUntil(ctx, t, conn, string(engine.EventAnswer))
	require.NotEmpty(t, frame.SessionID)

	_, ok := eng.Session(frame.SessionID)
	require.True(t, ok)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))

	// The serve goroutine closes the session when the read loop exits.
	assert.Eventually(t, func() bool {
		_, ok := eng.Session(frame.SessionID)
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}
