// Package handlers exposes the HTTP API.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/safecase-systems/safecase/internal/chat"
	"github.com/safecase-systems/safecase/internal/httputil"
	"github.com/safecase-systems/safecase/internal/logging"
	"github.com/safecase-systems/safecase/internal/repository"
	"github.com/safecase-systems/safecase/internal/service"
)

type Handler struct {
	service *service.Service
	relay   *chat.Relay
	logger  *logging.Logger
}

func NewHandler(svc *service.Service, relay *chat.Relay, logger *logging.Logger) *Handler {
	return &Handler{
		service: svc,
		relay:   relay,
		logger:  logger,
	}
}

// HealthCheck handles GET /healthz
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// writeServiceError maps service and repository errors to HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrCaseNotFound),
		errors.Is(err, repository.ErrIncidentNotFound),
		errors.Is(err, repository.ErrStatusNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		httputil.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrCaseExists):
		httputil.WriteError(w, http.StatusConflict, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "request failed",
			logging.Method(r.Method),
			logging.Path(r.URL.Path),
			logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}
