package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcslave/credential-phishing-detection/internal/config"
	"github.com/pcslave/credential-phishing-detection/internal/entity"
	"github.com/pcslave/credential-phishing-detection/internal/usecase/analysis"
	"github.com/pcslave/credential-phishing-detection/internal/usecase/lists"
)

// stubListsRepo backs a lists.Service with fixed counts.
type stubListsRepo struct {
	stats entity.ListStats
}

func (s stubListsRepo) IsBlacklisted(context.Context, string) (bool, error) { return false, nil }

func (s stubListsRepo) AddBlacklist(context.Context, string, string) error { return nil }

func (s stubListsRepo) RemoveBlacklist(context.Context, string) (bool, error) { return false, nil }

func (s stubListsRepo) BlacklistEntries(context.Context) ([]entity.BlacklistEntry, error) {
	return nil, nil
}

func (s stubListsRepo) IsWhitelisted(context.Context, string) (bool, error) { return false, nil }

func (s stubListsRepo) WhitelistDomains(context.Context) ([]string, error) { return nil, nil }

func (s stubListsRepo) AddWhitelist(context.Context, string) error { return nil }

func (s stubListsRepo) Seed(context.Context, []string, []string) error { return nil }

func (s stubListsRepo) Stats(context.Context) (entity.ListStats, error) { return s.stats, nil }

func TestHealthCheckHandler(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "development"}}
	analysisSvc := analysis.NewService(analysis.Config{})
	listsSvc := lists.NewService(stubListsRepo{
		stats: entity.ListStats{BlacklistCount: 3, WhitelistCount: 20},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	HealthCheck(cfg, analysisSvc, listsSvc)(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "development", body.Environment)
	assert.Equal(t, 3, body.Lists.BlacklistCount)
	assert.Equal(t, 20, body.Lists.WhitelistCount)
	assert.Equal(t, 0, body.Cache.Size)
}
