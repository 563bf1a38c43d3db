package reputation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pcslave/credential-phishing-detection/internal/entity"
)

const phishTankURL = "https://checkurl.phishtank.com/checkurl/"

// PhishTankConfig holds configuration for the PhishTank client. The app
// key is optional; the public API works without one.
type PhishTankConfig struct {
	AppKey      string
	BaseURL     string // overridable for tests
	MinInterval time.Duration
}

// PhishTankClient queries the community phishing database. A URL present
// in the database is a HIGH verdict.
type PhishTankClient struct {
	baseClient
	baseURL string
	appKey  string
}

// NewPhishTankClient creates a new PhishTank client.
func NewPhishTankClient(cfg PhishTankConfig) *PhishTankClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = phishTankURL
	}
	return &PhishTankClient{
		baseClient: newBaseClient(cfg.MinInterval),
		baseURL:    baseURL,
		appKey:     cfg.AppKey,
	}
}

func (c *PhishTankClient) Name() string { return "PhishTank" }

// IsConfigured is always true: PhishTank needs no API key.
func (c *PhishTankClient) IsConfigured() bool { return true }

type phishTankResponse struct {
	Results struct {
		InDatabase bool   `json:"in_database"`
		PhishID    any    `json:"phish_id"`
		Verified   bool   `json:"verified"`
		Valid      bool   `json:"valid"`
		DetailPage string `json:"phish_detail_page"`
	} `json:"results"`
}

// CheckURL asks PhishTank whether the URL is a known phish.
func (c *PhishTankClient) CheckURL(ctx context.Context, targetURL string) (entity.Verdict, error) {
	if err := c.wait(ctx); err != nil {
		return entity.Verdict{}, err
	}

	form := url.Values{}
	form.Set("url", targetURL)
	form.Set("format", "json")
	if c.appKey != "" {
		form.Set("app_key", c.appKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return entity.Verdict{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "credential-phishing-detection/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return entity.Verdict{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return entity.Verdict{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var ptResp phishTankResponse
	if err := json.NewDecoder(resp.Body).Decode(&ptResp); err != nil {
		return entity.Verdict{}, fmt.Errorf("decode response: %w", err)
	}

	verdict := entity.Verdict{Provider: c.Name(), Tier: entity.RiskLow}
	if ptResp.Results.InDatabase {
		verdict.Tier = entity.RiskHigh
		verdict.Reason = "PhishTank: URL is in the community phishing database"
		if id := fmt.Sprint(ptResp.Results.PhishID); id != "" && id != "<nil>" {
			verdict.Reason += " (phish id " + id + ")"
		}
	}
	return verdict, nil
}
