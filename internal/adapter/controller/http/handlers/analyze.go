package handlers

import (
	"errors"
	"net/http"

	"github.com/pcslave/credential-phishing-detection/internal/domain/urlkey"
	"github.com/pcslave/credential-phishing-detection/internal/usecase/analysis"
)

// AnalyzeRequest is the body of POST /api/v1/analyze.
type AnalyzeRequest struct {
	Domain string `json:"domain"`
	Path   string `json:"path,omitempty"`
}

// Analyze runs the phishing risk analysis for a domain.
func Analyze(svc *analysis.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnalyzeRequest
		switch r.Method {
		case http.MethodGet:
			req.Domain = r.URL.Query().Get("domain")
			req.Path = r.URL.Query().Get("path")
		default:
			if err := DecodeJSON(r, &req); err != nil {
				ErrorResponse(w, http.StatusBadRequest, "invalid request body", err)
				return
			}
		}
		if req.Domain == "" {
			ErrorResponse(w, http.StatusBadRequest, "domain is required", nil)
			return
		}

		result, err := svc.Analyze(r.Context(), req.Domain, req.Path)
		if err != nil {
			if errors.Is(err, urlkey.ErrInvalidTarget) {
				ErrorResponse(w, http.StatusBadRequest, "invalid analysis target", err)
				return
			}
			ErrorResponse(w, http.StatusInternalServerError, "analysis failed", err)
			return
		}
		JSONResponse(w, http.StatusOK, result)
	}
}

// Providers reports the active external reputation providers and cache
// statistics.
func Providers(svc *analysis.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		JSONResponse(w, http.StatusOK, map[string]interface{}{
			"providers": svc.ProviderStatus(),
			"cache":     svc.CacheStats(),
		})
	}
}

// FlushCache drops every cached analysis result.
func FlushCache(svc *analysis.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.FlushCache()
		SuccessResponse(w, "analysis cache flushed", nil)
	}
}
