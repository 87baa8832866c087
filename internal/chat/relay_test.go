package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/safecase-systems/safecase/internal/logging"
	"github.com/safecase-systems/safecase/internal/models"
)

// stubCompleter replays canned fragments through the streaming callback.
type stubCompleter struct {
	fragments   []string
	err         error
	gotMessages []llms.MessageContent
}

func (s *stubCompleter) StreamCompletion(ctx context.Context, messages []llms.MessageContent, fn func(ctx context.Context, chunk []byte) error) error {
	s.gotMessages = messages
	for _, f := range s.fragments {
		if err := fn(ctx, []byte(f)); err != nil {
			return err
		}
	}
	return s.err
}

func testRelay(c Completer) *Relay {
	return NewRelay(c, time.Millisecond, logging.Default())
}

func history(prompts ...string) []models.ChatMessage {
	msgs := make([]models.ChatMessage, 0, len(prompts))
	for _, p := range prompts {
		msgs = append(msgs, models.ChatMessage{Type: models.MessageTypePrompt, Content: p})
	}
	return msgs
}

func textOf(m llms.MessageContent) string {
	if len(m.Parts) == 0 {
		return ""
	}
	if part, ok := m.Parts[0].(llms.TextContent); ok {
		return part.Text
	}
	return ""
}

func TestStreamEmptyHistoryEmitsNothing(t *testing.T) {
	stub := &stubCompleter{fragments: []string{"should not appear"}}
	r := testRelay(stub)

	var emitted []string
	err := r.Stream(context.Background(), nil, func(fragment string) error {
		emitted = append(emitted, fragment)
		return nil
	})

	require.NoError(t, err)
	assert.Empty(t, emitted)
	assert.Nil(t, stub.gotMessages, "upstream must not be called for an empty history")
}

func TestStreamPrependsSystemConstraint(t *testing.T) {
	stub := &stubCompleter{}
	r := testRelay(stub)

	err := r.Stream(context.Background(), []models.ChatMessage{
		{Type: models.MessageTypePrompt, Content: "how do I report an incident?"},
		{Type: models.MessageTypeResponse, Content: "you can submit a report here"},
		{Type: models.MessageTypePrompt, Content: "is it confidential?"},
	}, func(string) error { return nil })
	require.NoError(t, err)

	require.Len(t, stub.gotMessages, 4)
	assert.Equal(t, llms.ChatMessageTypeSystem, stub.gotMessages[0].Role)
	assert.Equal(t, systemConstraint, textOf(stub.gotMessages[0]))

	assert.Equal(t, llms.ChatMessageTypeHuman, stub.gotMessages[1].Role)
	assert.Equal(t, "how do I report an incident?", textOf(stub.gotMessages[1]))
	assert.Equal(t, llms.ChatMessageTypeAI, stub.gotMessages[2].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, stub.gotMessages[3].Role)
}

func TestStreamPreservesFragmentOrder(t *testing.T) {
	stub := &stubCompleter{fragments: []string{"Reports ", "are ", "kept ", "confidential."}}
	r := testRelay(stub)

	var emitted []string
	err := r.Stream(context.Background(), history("is it confidential?"), func(fragment string) error {
		emitted = append(emitted, fragment)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Reports ", "are ", "kept ", "confidential."}, emitted)
}

// The pacing delay separates consecutive fragments; it must not run
// after the last one, or every stream would close one interval late.
func TestStreamClosesPromptlyAfterLastFragment(t *testing.T) {
	pacing := 500 * time.Millisecond
	stub := &stubCompleter{fragments: []string{"only fragment"}}
	r := NewRelay(stub, pacing, logging.Default())

	start := time.Now()
	var emitted []string
	err := r.Stream(context.Background(), history("hello"), func(fragment string) error {
		emitted = append(emitted, fragment)
		return nil
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, []string{"only fragment"}, emitted)
	assert.Less(t, elapsed, pacing, "single-fragment stream must not wait out a pacing interval")
}

func TestStreamSurfacesUpstreamError(t *testing.T) {
	upstreamErr := errors.New("provider unavailable")
	stub := &stubCompleter{fragments: []string{"partial "}, err: upstreamErr}
	r := testRelay(stub)

	var emitted []string
	err := r.Stream(context.Background(), history("hello"), func(fragment string) error {
		emitted = append(emitted, fragment)
		return nil
	})

	assert.ErrorIs(t, err, upstreamErr)
	assert.Equal(t, []string{"partial "}, emitted)
}

func TestStreamStopsOnEmitError(t *testing.T) {
	stub := &stubCompleter{fragments: []string{"one", "two", "three"}}
	r := testRelay(stub)

	emitErr := errors.New("client gone")
	var count int
	err := r.Stream(context.Background(), history("hello"), func(string) error {
		count++
		if count == 2 {
			return emitErr
		}
		return nil
	})

	assert.ErrorIs(t, err, emitErr)
	assert.Equal(t, 2, count)
}

func TestStreamCancellationPropagatesUpstream(t *testing.T) {
	blocked := make(chan struct{})
	stub := &blockingCompleter{
		delivered: make(chan struct{}),
		unblocked: blocked,
	}
	r := testRelay(stub)

	ctx, cancel := context.WithCancel(context.Background())

	var emitted []string
	done := make(chan error, 1)
	go func() {
		done <- r.Stream(ctx, history("hello"), func(fragment string) error {
			emitted = append(emitted, fragment)
			return nil
		})
	}()

	// Let the first fragment through, then cancel while upstream blocks.
	select {
	case <-stub.delivered:
	case <-time.After(time.Second):
		t.Fatal("first fragment never delivered")
	}
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("stream did not stop after cancellation")
	}

	select {
	case <-blocked:
	case <-time.After(time.Second):
		t.Fatal("cancellation never reached the upstream call")
	}
}

// blockingCompleter emits one fragment and then waits for cancellation.
type blockingCompleter struct {
	delivered chan struct{}
	unblocked chan struct{}
}

func (b *blockingCompleter) StreamCompletion(ctx context.Context, messages []llms.MessageContent, fn func(ctx context.Context, chunk []byte) error) error {
	if err := fn(ctx, []byte("first")); err != nil {
		return err
	}
	close(b.delivered)
	<-ctx.Done()
	close(b.unblocked)
	return ctx.Err()
}
