package modeladapter

import (
	"context"
	"errors"
	"testing"

	"github.com/germanamz/easel/pkg/chats/chat"
	"github.com/germanamz/easel/pkg/chats/message"
	"github.com/germanamz/easel/pkg/chats/role"
	"github.com/germanamz/easel/pkg/tools/toolbox"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	reply message.Message
	err   error
	calls int
}

func (s *stubCompleter) Complete(_ context.Context, _ *chat.Chat, _ []toolbox.Tool) (message.Message, error) {
	s.calls++
	if s.err != nil {
		return message.Message{}, s.err
	}
	return s.reply, nil
}

func TestFallback_PrimarySucceeds(t *testing.T) {
	primary := &stubCompleter{reply: message.NewText("", role.Assistant, "hi")}
	secondary := &stubCompleter{}
	f := &FallbackCompleter{Primary: primary, Secondary: secondary}

	reply, err := f.Complete(context.Background(), chat.New(), nil)

	require.NoError(t, err)
	assert.Equal(t, "hi", reply.TextContent())
	assert.Equal(t, 0, secondary.calls)
}

func TestFallback_TransientFailureUsesSecondary(t *testing.T) {
	primary := &stubCompleter{err: &HTTPError{Status: 500, Body: "boom"}}
	secondary := &stubCompleter{reply: message.NewText("", role.Assistant, "rescued")}

	var notified error
	f := &FallbackCompleter{
		Primary:    primary,
		Secondary:  secondary,
		OnFallback: func(err error) { notified = err },
	}

	reply, err := f.Complete(context.Background(), chat.New(), nil)

	require.NoError(t, err)
	assert.Equal(t, "rescued", reply.TextContent())
	assert.Equal(t, 1, secondary.calls)
	assert.Error(t, notified)
}

func TestFallback_NonTransientPassesThrough(t *testing.T) {
	primary := &stubCompleter{err: &HTTPError{Status: 400, Body: "bad request"}}
	secondary := &stubCompleter{reply: message.NewText("", role.Assistant, "unused")}
	f := &FallbackCompleter{Primary: primary, Secondary: secondary}

	_, err := f.Complete(context.Background(), chat.New(), nil)

	require.Error(t, err)
	assert.Equal(t, 0, secondary.calls)
}

func TestFallback_NoSecondaryConfigured(t *testing.T) {
	primary := &stubCompleter{err: &HTTPError{Status: 503, Body: "overloaded"}}
	f := &FallbackCompleter{Primary: primary}

	_, err := f.Complete(context.Background(), chat.New(), nil)

	require.Error(t, err)
	var he *HTTPError
	assert.True(t, errors.As(err, &he))
}

func TestFallback_BothFail(t *testing.T) {
	primary := &stubCompleter{err: &HTTPError{Status: 500, Body: "boom"}}
	secondary := &stubCompleter{err: errors.New("also down")}
	f := &FallbackCompleter{Primary: primary, Secondary: secondary}

	_, err := f.Complete(context.Background(), chat.New(), nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "also down")
	assert.Contains(t, err.Error(), "boom")
}

func TestIsTransientFallbackCases(t *testing.T) {
	assert.True(t, IsTransient(&HTTPError{Status: 500}))
	assert.True(t, IsTransient(&HTTPError{Status: 503}))
	assert.False(t, IsTransient(&HTTPError{Status: 404}))
	assert.False(t, IsTransient(&HTTPError{Status: 429}))
	assert.True(t, IsTransient(errors.New(`gemini: {"status":"INTERNAL"}`)))
	assert.True(t, IsTransient(errors.New("service unavailable")))
	assert.False(t, IsTransient(errors.New("invalid api key")))
}
