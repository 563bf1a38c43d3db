package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pcslave/credential-phishing-detection/internal/domain/urlkey"
	"github.com/pcslave/credential-phishing-detection/internal/usecase/lists"
)

// BlacklistRequest is the body of POST /api/v1/blacklist.
type BlacklistRequest struct {
	Domain string `json:"domain"`
	Source string `json:"source,omitempty"`
}

// GetBlacklist returns every blacklisted domain.
func GetBlacklist(svc *lists.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := svc.Blacklist(r.Context())
		if err != nil {
			ErrorResponse(w, http.StatusInternalServerError, "failed to load blacklist", err)
			return
		}
		JSONResponse(w, http.StatusOK, map[string]interface{}{
			"domains": entries,
			"count":   len(entries),
		})
	}
}

// AddBlacklist adds a domain to the blacklist.
func AddBlacklist(svc *lists.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BlacklistRequest
		if err := DecodeJSON(r, &req); err != nil {
			ErrorResponse(w, http.StatusBadRequest, "invalid request body", err)
			return
		}
		if req.Domain == "" {
			ErrorResponse(w, http.StatusBadRequest, "domain is required", nil)
			return
		}
		source := req.Source
		if source == "" {
			source = "api"
		}
		if err := svc.AddToBlacklist(r.Context(), req.Domain, source); err != nil {
			if errors.Is(err, urlkey.ErrInvalidTarget) {
				ErrorResponse(w, http.StatusBadRequest, "invalid domain", err)
				return
			}
			ErrorResponse(w, http.StatusInternalServerError, "failed to add domain", err)
			return
		}
		SuccessResponse(w, "domain added to blacklist", nil)
	}
}

// RemoveBlacklist deletes a domain from the blacklist.
func RemoveBlacklist(svc *lists.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		domain := chi.URLParam(r, "domain")
		if domain == "" {
			ErrorResponse(w, http.StatusBadRequest, "domain is required", nil)
			return
		}
		removed, err := svc.RemoveFromBlacklist(r.Context(), domain)
		if err != nil {
			if errors.Is(err, urlkey.ErrInvalidTarget) {
				ErrorResponse(w, http.StatusBadRequest, "invalid domain", err)
				return
			}
			ErrorResponse(w, http.StatusInternalServerError, "failed to remove domain", err)
			return
		}
		if !removed {
			ErrorResponse(w, http.StatusNotFound, "domain not in blacklist", nil)
			return
		}
		SuccessResponse(w, "domain removed from blacklist", nil)
	}
}

// GetWhitelist returns the curated trusted domains.
func GetWhitelist(svc *lists.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		domains, err := svc.Whitelist(r.Context())
		if err != nil {
			ErrorResponse(w, http.StatusInternalServerError, "failed to load whitelist", err)
			return
		}
		JSONResponse(w, http.StatusOK, map[string]interface{}{
			"domains": domains,
			"count":   len(domains),
		})
	}
}
