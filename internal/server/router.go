// Package server assembles the HTTP router and server lifecycle.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/safecase-systems/safecase/internal/auth"
	"github.com/safecase-systems/safecase/internal/handlers"
	"github.com/safecase-systems/safecase/internal/middleware"
)

// RouterConfig holds dependencies needed to configure routes
type RouterConfig struct {
	Handler        *handlers.Handler
	AuthMiddleware *auth.Middleware
	CORS           middleware.CORSConfig
}

// NewRouter constructs a ServeMux with all API routes registered.
// Incident reporting and the support chat are open so survivors can use
// them without an account; case management routes require a staff token.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	h := cfg.Handler
	protect := func(fn http.HandlerFunc) http.Handler {
		return cfg.AuthMiddleware.Protect(fn)
	}

	// Survivor-facing endpoints
	mux.HandleFunc("POST /api/v1/incidents", h.ReportIncident)
	mux.HandleFunc("POST /api/v1/chat", h.ChatStream)

	// Incident triage (protected)
	mux.Handle("GET /api/v1/incidents", protect(h.ListIncidents))
	mux.Handle("GET /api/v1/incidents/{id}", protect(h.GetIncident))

	// Case management (protected). The export route is registered before
	// the {id} route so "export" is not parsed as a case ID.
	mux.Handle("POST /api/v1/cases", protect(h.CreateCase))
	mux.Handle("GET /api/v1/cases", protect(h.ListCases))
	mux.Handle("GET /api/v1/cases/export", protect(h.ExportCases))
	mux.Handle("GET /api/v1/cases/{id}", protect(h.GetCase))
	mux.Handle("PATCH /api/v1/cases/{id}", protect(h.UpdateCase))
	mux.Handle("POST /api/v1/cases/{id}/notes", protect(h.AddCaseNote))
	mux.Handle("GET /api/v1/cases/{id}/notes", protect(h.ListCaseNotes))

	// Reference data and dashboard (protected)
	mux.Handle("GET /api/v1/statuses", protect(h.ListStatuses))
	mux.Handle("GET /api/v1/users", protect(h.ListUsers))
	mux.Handle("GET /api/v1/stats/cases", protect(h.GetCaseStats))

	// Operational endpoints
	mux.HandleFunc("GET /healthz", h.HealthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())

	return middleware.RequestID(middleware.CORS(cfg.CORS)(mux))
}
