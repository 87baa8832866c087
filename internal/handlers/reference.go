package handlers

import (
	"net/http"

	"github.com/safecase-systems/safecase/internal/httputil"
)

// ListStatuses handles GET /api/v1/statuses
func (h *Handler) ListStatuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.service.ListStatuses(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"statuses": statuses})
}

// ListUsers handles GET /api/v1/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"users": users})
}

// GetCaseStats handles GET /api/v1/stats/cases
func (h *Handler) GetCaseStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetCaseStats(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, stats)
}
