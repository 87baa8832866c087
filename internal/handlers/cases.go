package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/safecase-systems/safecase/internal/auth"
	"github.com/safecase-systems/safecase/internal/httputil"
	"github.com/safecase-systems/safecase/internal/models"
)

// CreateCase handles POST /api/v1/cases
func (h *Handler) CreateCase(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.service.OpenCase(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, c)
}

// GetCase handles GET /api/v1/cases/{id}
func (h *Handler) GetCase(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid case ID")
		return
	}

	c, err := h.service.GetCase(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, c)
}

// ListCases handles GET /api/v1/cases
func (h *Handler) ListCases(w http.ResponseWriter, r *http.Request) {
	p := httputil.ParsePagination(r, 50, 100)
	req := models.ListCasesRequest{
		Page:   p.Page,
		Limit:  p.Limit,
		Filter: caseFilterFromQuery(r),
	}

	resp, err := h.service.ListCases(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// UpdateCase handles PATCH /api/v1/cases/{id}
func (h *Handler) UpdateCase(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid case ID")
		return
	}

	var req models.UpdateCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.service.UpdateCase(r.Context(), id, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, c)
}

// AddCaseNote handles POST /api/v1/cases/{id}/notes
func (h *Handler) AddCaseNote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid case ID")
		return
	}

	var req models.AddCaseNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	note, err := h.service.AddCaseNote(r.Context(), id, auth.GetUserID(r.Context()), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, note)
}

// ListCaseNotes handles GET /api/v1/cases/{id}/notes
func (h *Handler) ListCaseNotes(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid case ID")
		return
	}

	notes, err := h.service.ListCaseNotes(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"case_id": id,
		"notes":   notes,
	})
}

// caseFilterFromQuery reads the shared filter parameters used by both
// the listing and the export endpoints. The assignee key is exposed as
// assignedTo; the snake_case form is accepted for older clients.
func caseFilterFromQuery(r *http.Request) models.CaseFilter {
	q := r.URL.Query()
	assignedTo := q.Get("assignedTo")
	if assignedTo == "" {
		assignedTo = q.Get("assigned_to")
	}
	return models.CaseFilter{
		Status:     q.Get("status"),
		AssignedTo: assignedTo,
		Search:     q.Get("search"),
	}
}
