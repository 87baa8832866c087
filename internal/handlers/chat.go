package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/safecase-systems/safecase/internal/httputil"
	"github.com/safecase-systems/safecase/internal/logging"
	"github.com/safecase-systems/safecase/internal/metrics"
	"github.com/safecase-systems/safecase/internal/models"
)

// ChatStream handles POST /api/v1/chat. The response is a Server-Sent
// Events stream with one data event per fragment, ending with a "done"
// event on normal completion. An empty message history yields only the
// "done" event. Client disconnects cancel the upstream completion;
// upstream failures end the stream without an error frame.
func (h *Handler) ChatStream(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.WriteError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	start := time.Now()
	err := h.relay.Stream(r.Context(), req.Messages, func(fragment string) error {
		payload, err := json.Marshal(map[string]string{"content": fragment})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return err
		}
		flusher.Flush()
		metrics.ChatFragments.Inc()
		return nil
	})
	metrics.ChatStreamDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		fmt.Fprint(w, "event: done\ndata: {}\n\n")
		flusher.Flush()
		metrics.ChatStreams.WithLabelValues(metrics.OutcomeCompleted).Inc()
	case errors.Is(err, context.Canceled):
		// Client went away; nothing left to write.
		metrics.ChatStreams.WithLabelValues(metrics.OutcomeCancelled).Inc()
		h.logger.InfoContext(r.Context(), "chat stream cancelled by client")
	default:
		// Headers are already sent; the stream just ends early.
		metrics.ChatStreams.WithLabelValues(metrics.OutcomeError).Inc()
		h.logger.ErrorContext(r.Context(), "chat stream failed", logging.Error(err))
	}
}
