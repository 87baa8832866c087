package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/safecase-systems/safecase/internal/httputil"
	"github.com/safecase-systems/safecase/internal/models"
)

// ReportIncident handles POST /api/v1/incidents. This endpoint is open
// so survivors can report without an account.
func (h *Handler) ReportIncident(w http.ResponseWriter, r *http.Request) {
	var req models.CreateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	inc, err := h.service.ReportIncident(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, inc)
}

// GetIncident handles GET /api/v1/incidents/{id}
func (h *Handler) GetIncident(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid incident ID")
		return
	}

	inc, err := h.service.GetIncident(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, inc)
}

// ListIncidents handles GET /api/v1/incidents
func (h *Handler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	p := httputil.ParsePagination(r, 50, 100)

	incidents, total, err := h.service.ListIncidents(r.Context(), p.Page, p.Limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"incidents": incidents,
		"total":     total,
		"page":      p.Page,
		"limit":     p.Limit,
	})
}
