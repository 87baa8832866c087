package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/safecase-systems/safecase/internal/models"
)

// stubCompleter replays canned fragments through the streaming callback.
type stubCompleter struct {
	fragments []string
	err       error
}

func (s *stubCompleter) StreamCompletion(ctx context.Context, messages []llms.MessageContent, fn func(ctx context.Context, chunk []byte) error) error {
	for _, f := range s.fragments {
		if err := fn(ctx, []byte(f)); err != nil {
			return err
		}
	}
	return s.err
}

func chatRequest(t *testing.T, messages []models.ChatMessage) *http.Request {
	t.Helper()
	body, err := json.Marshal(models.ChatRequest{Messages: messages})
	require.NoError(t, err)
	return httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader(body))
}

// sseEvents splits the response body into SSE event blocks.
func sseEvents(body string) []string {
	blocks := strings.Split(strings.TrimRight(body, "\n"), "\n\n")
	events := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b != "" {
			events = append(events, b)
		}
	}
	return events
}

func TestChatStreamOrderedFragments(t *testing.T) {
	completer := &stubCompleter{fragments: []string{"You ", "are ", "not ", "alone."}}
	h := newTestHandler(&mockRepository{}, completer)

	req := chatRequest(t, []models.ChatMessage{
		{Type: models.MessageTypePrompt, Content: "I need help"},
	})
	w := httptest.NewRecorder()

	h.ChatStream(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

	events := sseEvents(w.Body.String())
	require.Len(t, events, 5)

	var reassembled strings.Builder
	for _, e := range events[:4] {
		var payload struct {
			Content string `json:"content"`
		}
		data := strings.TrimPrefix(e, "data: ")
		require.NoError(t, json.Unmarshal([]byte(data), &payload))
		reassembled.WriteString(payload.Content)
	}

	assert.Equal(t, "You are not alone.", reassembled.String())
	assert.True(t, strings.HasPrefix(events[4], "event: done"))
}

func TestChatStreamEmptyHistory(t *testing.T) {
	completer := &stubCompleter{fragments: []string{"should not appear"}}
	h := newTestHandler(&mockRepository{}, completer)

	req := chatRequest(t, nil)
	w := httptest.NewRecorder()

	h.ChatStream(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	events := sseEvents(w.Body.String())
	require.Len(t, events, 1, "empty history yields only the done event")
	assert.True(t, strings.HasPrefix(events[0], "event: done"))
}

func TestChatStreamInvalidBody(t *testing.T) {
	h := newTestHandler(&mockRepository{}, &stubCompleter{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	h.ChatStream(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatStreamUpstreamErrorEndsStream(t *testing.T) {
	completer := &stubCompleter{
		fragments: []string{"partial "},
		err:       errors.New("provider unavailable"),
	}
	h := newTestHandler(&mockRepository{}, completer)

	req := chatRequest(t, []models.ChatMessage{
		{Type: models.MessageTypePrompt, Content: "hello"},
	})
	w := httptest.NewRecorder()

	h.ChatStream(w, req)

	// The status is already committed when the failure surfaces; the
	// stream ends with neither a done nor an error frame.
	require.Equal(t, http.StatusOK, w.Code)

	events := sseEvents(w.Body.String())
	require.Len(t, events, 1)
	assert.True(t, strings.HasPrefix(events[0], "data: "))
	assert.NotContains(t, w.Body.String(), "event: done")
}
