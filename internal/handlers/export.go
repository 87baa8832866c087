package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/safecase-systems/safecase/internal/export"
	"github.com/safecase-systems/safecase/internal/logging"
)

// ExportCases handles GET /api/v1/cases/export. It accepts the same
// filter parameters as the listing and returns every matching case as a
// CSV attachment, newest first.
func (h *Handler) ExportCases(w http.ResponseWriter, r *http.Request) {
	filter := caseFilterFromQuery(r)

	cases, err := h.service.ExportCases(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	filename := fmt.Sprintf("cases-export-%s.csv", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := export.WriteCSV(w, cases); err != nil {
		// Headers are already sent; all we can do is log.
		h.logger.ErrorContext(r.Context(), "csv export write failed", logging.Error(err))
	}
}
