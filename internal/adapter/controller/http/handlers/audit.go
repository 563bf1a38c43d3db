package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/pcslave/credential-phishing-detection/internal/entity"
)

// AuditSource reads back persisted analysis outcomes.
type AuditSource interface {
	RecentAudits(ctx context.Context, limit int) ([]entity.AuditRecord, error)
}

// RecentAudits returns the most recent analysis outcomes, newest first.
// An optional ?limit= query parameter caps the page size (default 50).
func RecentAudits(src AuditSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > 500 {
				ErrorResponse(w, http.StatusBadRequest, "invalid limit", err)
				return
			}
			limit = n
		}

		records, err := src.RecentAudits(r.Context(), limit)
		if err != nil {
			ErrorResponse(w, http.StatusInternalServerError, "failed to load audit records", err)
			return
		}
		JSONResponse(w, http.StatusOK, map[string]interface{}{
			"records": records,
			"count":   len(records),
		})
	}
}
