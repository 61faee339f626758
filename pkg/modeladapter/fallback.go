package modeladapter

import (
	"context"
	"fmt"

	"github.com/germanamz/easel/pkg/chats/chat"
	"github.com/germanamz/easel/pkg/chats/message"
	"github.com/germanamz/easel/pkg/tools/toolbox"
)

// Compile-time check that *FallbackCompleter implements Completer.
var _ Completer = (*FallbackCompleter)(nil)

// FallbackCompleter retries transient primary-model failures against a
// secondary, typically smaller model. The same conversation and tool
// declarations are replayed, so the secondary continues the logical session.
// Non-transient failures pass through untouched, and a transient failure
// with no secondary configured surfaces as-is.
type FallbackCompleter struct {
	Primary   Completer
	Secondary Completer

	// OnFallback, when set, is called with the primary error just before the
	// secondary attempt. It is informational; it cannot veto the retry.
	OnFallback func(err error)
}

// Complete sends the conversation to the primary completer, falling back to
// the secondary on transient server-side failures.
func (f *FallbackCompleter) Complete(ctx context.Context, c *chat.Chat, tools []toolbox.Tool) (message.Message, error) {
	reply, err := f.Primary.Complete(ctx, c, tools)
	if err == nil {
		return reply, nil
	}

	if f.Secondary == nil || !IsTransient(err) {
		return message.Message{}, err
	}

	if f.OnFallback != nil {
		f.OnFallback(err)
	}

	reply, ferr := f.Secondary.Complete(ctx, c, tools)
	if ferr != nil {
		return message.Message{}, fmt.Errorf("fallback model failed after %v: %w", err, ferr)
	}

	return reply, nil
}
