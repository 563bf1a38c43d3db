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

const urlhausURL = "https://urlhaus-api.abuse.ch/v1/"

// URLhausConfig holds configuration for the URLhaus client. Requires an
// Auth-Key from auth.abuse.ch.
type URLhausConfig struct {
	APIKey      string
	BaseURL     string // overridable for tests
	MinInterval time.Duration
}

// URLhausClient queries abuse.ch URLhaus for known-malicious hosts.
// A host with live phishing or malware URLs is HIGH; historical entries
// only are MEDIUM.
type URLhausClient struct {
	baseClient
	baseURL string
	apiKey  string
}

// NewURLhausClient creates a new URLhaus client.
func NewURLhausClient(cfg URLhausConfig) *URLhausClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = urlhausURL
	}
	return &URLhausClient{
		baseClient: newBaseClient(cfg.MinInterval),
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
	}
}

func (c *URLhausClient) Name() string { return "URLhaus" }

func (c *URLhausClient) IsConfigured() bool { return c.apiKey != "" }

type urlhausResponse struct {
	QueryStatus string `json:"query_status"`
	URLCount    int    `json:"url_count"`
	URLs        []struct {
		URLStatus string   `json:"url_status"`
		Threat    string   `json:"threat"`
		Tags      []string `json:"tags"`
	} `json:"urls"`
}

// CheckURL looks the target's host up in URLhaus.
func (c *URLhausClient) CheckURL(ctx context.Context, targetURL string) (entity.Verdict, error) {
	if err := c.wait(ctx); err != nil {
		return entity.Verdict{}, err
	}

	host := targetURL
	if u, err := url.Parse(targetURL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}

	form := url.Values{}
	form.Set("host", host)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"host/", strings.NewReader(form.Encode()))
	if err != nil {
		return entity.Verdict{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Auth-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return entity.Verdict{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return entity.Verdict{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var uhResp urlhausResponse
	if err := json.NewDecoder(resp.Body).Decode(&uhResp); err != nil {
		return entity.Verdict{}, fmt.Errorf("decode response: %w", err)
	}

	verdict := entity.Verdict{Provider: c.Name(), Tier: entity.RiskLow}
	if uhResp.QueryStatus != "ok" {
		return verdict, nil
	}

	active := 0
	for _, u := range uhResp.URLs {
		if u.URLStatus == "online" {
			active++
		}
	}
	if active > 0 {
		verdict.Tier = entity.RiskHigh
		verdict.Reason = fmt.Sprintf("URLhaus: host serves %d active malicious URLs", active)
	} else if uhResp.URLCount > 0 {
		verdict.Tier = entity.RiskMedium
		verdict.Reason = fmt.Sprintf("URLhaus: host has %d historical malicious URLs", uhResp.URLCount)
	}
	return verdict, nil
}
