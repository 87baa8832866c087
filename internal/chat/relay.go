// Package chat relays client conversations to the upstream completion
// provider as an ordered stream of text fragments, with the service's
// domain constraint always injected first.
package chat

import (
	"context"
	"time"

	"github.com/safecase-systems/safecase/internal/logging"
	"github.com/safecase-systems/safecase/internal/models"
	"github.com/tmc/langchaingo/llms"
)

// systemConstraint restricts the assistant to the GBV support domain. It
// is fixed at process start and always the first message of every relay;
// callers cannot override or reorder it.
const systemConstraint = `You are a supportive assistant for a gender-based violence (GBV) incident and case management service. Only answer questions related to gender-based violence: survivor support, safety planning, reporting procedures, available services, and case management. If a question falls outside that domain, politely decline and explain what you can help with. Never blame survivors. If someone appears to be in immediate danger, encourage them to contact local emergency services right away.`

// defaultPacing is the delay between forwarded fragments when none is
// configured. It smooths delivery without adding noticeable latency.
const defaultPacing = 50 * time.Millisecond

// Completer is the upstream provider contract: submit an ordered message
// sequence, receive fragments through the callback until the stream ends.
type Completer interface {
	StreamCompletion(ctx context.Context, messages []llms.MessageContent, fn func(ctx context.Context, chunk []byte) error) error
}

// EmitFunc delivers one fragment to the client. Implementations must
// flush so the fragment is received without delay.
type EmitFunc func(fragment string) error

// Relay forwards provider fragments to a client one at a time, pacing
// delivery and propagating client-side cancellation upstream.
type Relay struct {
	completer Completer
	pacing    time.Duration
	logger    *logging.Logger
}

// NewRelay creates a relay over the given completer. A non-positive
// pacing falls back to the default.
func NewRelay(completer Completer, pacing time.Duration, logger *logging.Logger) *Relay {
	if pacing <= 0 {
		pacing = defaultPacing
	}
	return &Relay{
		completer: completer,
		pacing:    pacing,
		logger:    logger,
	}
}

// buildMessages maps the client history to role-tagged messages with the
// system constraint prepended. Ordering is load-bearing: providers weigh
// earlier messages more strongly, so the constraint must come first.
func buildMessages(history []models.ChatMessage) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(history)+1)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, systemConstraint))

	for _, m := range history {
		role := llms.ChatMessageTypeAI
		if m.Type == models.MessageTypePrompt {
			role = llms.ChatMessageTypeHuman
		}
		messages = append(messages, llms.TextParts(role, m.Content))
	}

	return messages
}

// Stream relays a completion for the given history, calling emit once per
// fragment in provider order. An empty history produces zero fragments
// and a nil error. Cancelling ctx (client disconnect) stops the upstream
// call and returns ctx.Err.
func (r *Relay) Stream(ctx context.Context, history []models.ChatMessage, emit EmitFunc) error {
	if len(history) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Unbuffered channel keeps at most one fragment in flight, so client
	// order matches provider order.
	fragments := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(fragments)
		errc <- r.completer.StreamCompletion(ctx, buildMessages(history), func(ctx context.Context, chunk []byte) error {
			select {
			case fragments <- string(chunk):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	first := true
	for {
		select {
		case fragment, ok := <-fragments:
			if !ok {
				// Upstream stream ended; surface its error, if any.
				return <-errc
			}
			// Cooperative yield between fragments only, so the stream
			// closes as soon as the last fragment is emitted.
			// Cancellation interrupts the wait so a disconnected client
			// never pays the delay.
			if !first {
				select {
				case <-time.After(r.pacing):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			first = false
			if err := emit(fragment); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
