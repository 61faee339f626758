package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/germanamz/easel/pkg/chats/chat"
	"github.com/germanamz/easel/pkg/chats/message"
	"github.com/germanamz/easel/pkg/chats/role"
	"github.com/germanamz/easel/pkg/media"
	"github.com/germanamz/easel/pkg/modeladapter"
	"github.com/germanamz/easel/pkg/tools/toolbox"
)

// mockCompleter returns a canned reply or a canned error.
type mockCompleter struct {
	reply string
	err   error
}

func (m *mockCompleter) Complete(_ context.Context, _ *chat.Chat, _ []toolbox.Tool) (message.Message, error) {
	if m.err != nil {
		return message.Message{}, m.err
	}
	return message.NewText("model", role.Assistant, m.reply), nil
}

type mockGenerator struct{}

func (mockGenerator) DescribeImage(context.Context, []byte) (string, error) { return "", nil }
func (mockGenerator) GenerateImages(context.Context, string, []byte, int, string) ([][]byte, error) {
	return nil, media.ErrNoImages
}
func (mockGenerator) EditImage(context.Context, []byte, []byte, string, []byte) ([]byte, error) {
	return nil, nil
}
func (mockGenerator) GenerateVideo(context.Context, []byte, string, int, string) ([][]byte, error) {
	return nil, nil
}

func registerMocks(reply string, err error) {
	RegisterProvider("mock", func(_ ProviderConfig) (modeladapter.Completer, error) {
		return &mockCompleter{reply: reply, err: err}, nil
	})
	RegisterMediaProvider("mockmedia", func(_ MediaProviderConfig) (media.Generator, error) {
		return mockGenerator{}, nil
	})
}

func mockConfig() Config {
	return Config{
		Providers: ProvidersConfig{Primary: ProviderConfig{Kind: "mock"}},
		Media:     MediaConfig{Primary: MediaProviderConfig{Kind: "mockmedia"}},
	}
}

func TestEngine_SendPlainAnswer(t *testing.T) {
	registerMocks("hello", nil)

	eng, err := New(mockConfig())
	require.NoError(t, err)

	sess := eng.NewSession()
	assert.NotEmpty(t, sess.ID())

	found, ok := eng.Session(sess.ID())
	require.True(t, ok)
	assert.Equal(t, sess, found)

	reply, err := sess.Send(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", reply.TextContent())
}

func TestEngine_AnswerEventPublished(t *testing.T) {
	registerMocks("done", nil)

	eng, err := New(mockConfig())
	require.NoError(t, err)

	sub := eng.Events().Subscribe(8)
	defer eng.Events().Unsubscribe(sub)

	sess := eng.NewSession()
	_, err = sess.Send(context.Background(), "hi")
	require.NoError(t, err)

	ev := <-sub.C
	assert.Equal(t, EventAnswer, ev.Kind)
	assert.Equal(t, sess.ID(), ev.SessionID)
	assert.Equal(t, "done", ev.Data)
}

func TestEngine_ModelFallbackPublishes(t *testing.T) {
	RegisterProvider("flaky", func(_ ProviderConfig) (modeladapter.Completer, error) {
		return &mockCompleter{err: &modeladapter.HTTPError{Status: 500, Body: "internal"}}, nil
	})
	RegisterProvider("steady", func(_ ProviderConfig) (modeladapter.Completer, error) {
		return &mockCompleter{reply: "backup answer"}, nil
	})
	RegisterMediaProvider("mockmedia", func(_ MediaProviderConfig) (media.Generator, error) {
		return mockGenerator{}, nil
	})

	cfg := mockConfig()
	cfg.Providers.Primary = ProviderConfig{Kind: "flaky"}
	cfg.Providers.Secondary = &ProviderConfig{Kind: "steady"}

	eng, err := New(cfg)
	require.NoError(t, err)

	sub := eng.Events().Subscribe(8)
	defer eng.Events().Unsubscribe(sub)

	sess := eng.NewSession()
	reply, err := sess.Send(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "backup answer", reply.TextContent())

	ev := <-sub.C
	assert.Equal(t, EventModelFallback, ev.Kind)
}

func TestEngine_SendErrorPublishesAndKeepsUserTurn(t *testing.T) {
	registerMocks("", &modeladapter.HTTPError{Status: 400, Body: "bad request"})

	eng, err := New(mockConfig())
	require.NoError(t, err)

	sub := eng.Events().Subscribe(8)
	defer eng.Events().Unsubscribe(sub)

	sess := eng.NewSession()
	_, err = sess.Send(context.Background(), "hi")
	require.Error(t, err)

	ev := <-sub.C
	assert.Equal(t, EventError, ev.Kind)

	// the user turn stays in the chat
	assert.Equal(t, 1, sess.Chat().Len())
}

func TestEngine_SetFlowFallback(t *testing.T) {
	registerMocks("x", nil)

	eng, err := New(mockConfig())
	require.NoError(t, err)

	sub := eng.Events().Subscribe(4)
	defer eng.Events().Unsubscribe(sub)

	require.NoError(t, eng.SetFlowFallback(media.FlowVideo, true))
	assert.True(t, eng.FlowFallbackEnabled(media.FlowVideo))
	assert.False(t, eng.FlowFallbackEnabled(media.FlowInpaint))

	ev := <-sub.C
	assert.Equal(t, EventToggleChanged, ev.Kind)
	assert.Equal(t, ToggleData{Flow: "video", Enabled: true}, ev.Data)

	assert.Error(t, eng.SetFlowFallback(media.Flow("bogus"), true))
}

func TestEngine_InitialTogglesFromConfig(t *testing.T) {
	registerMocks("x", nil)

	cfg := mockConfig()
	cfg.Fallback = map[string]bool{"text_to_image": true}

	eng, err := New(cfg)
	require.NoError(t, err)

	assert.True(t, eng.FlowFallbackEnabled(media.FlowTextToImage))
	assert.False(t, eng.FlowFallbackEnabled(media.FlowVideo))
}

func TestEngine_UnknownProviderKind(t *testing.T) {
	cfg := mockConfig()
	cfg.Providers.Primary.Kind = "nope"

	_, err := New(cfg)
	assert.ErrorContains(t, err, "unknown provider kind")
}

func TestEngine_SecondaryMediaWithoutCredentialIsIgnored(t *testing.T) {
	registerMocks("x", nil)

	cfg := mockConfig()
	cfg.Media.Secondary = &MediaProviderConfig{Kind: "mockmedia"} // no api_key

	eng, err := New(cfg)
	require.NoError(t, err)

	// no fallback wrapper: the generator is the bare primary
	_, isFallback := eng.Generator().(*media.FallbackGenerator)
	assert.False(t, isFallback)
}

func TestCloseSessionRemovesState(t *testing.T) {
	registerMocks("hello", nil)

	eng, err := New(mockConfig())
	require.NoError(t, err)

	sess := eng.NewSession()
	_, ok := eng.Session(sess.ID())
	require.True(t, ok)

	eng.CloseSession(sess.ID())
	_, ok = eng.Session(sess.ID())
	assert.False(t, ok)

	// Closing again or closing an unknown ID is harmless.
	eng.CloseSession(sess.ID())
	eng.CloseSession("session-nope")
}
