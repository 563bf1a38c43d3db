package reputation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pcslave/credential-phishing-detection/internal/entity"
)

const virusTotalURL = "https://www.virustotal.com/api/v3/urls"

// VirusTotalConfig holds configuration for the VirusTotal client.
type VirusTotalConfig struct {
	APIKey      string
	BaseURL     string // overridable for tests
	MinInterval time.Duration
}

// VirusTotalClient queries VirusTotal v3 for the latest multi-scanner
// analysis of a URL. More than 5 malicious detections is HIGH; any
// malicious detection or more than 2 suspicious ones is MEDIUM.
type VirusTotalClient struct {
	baseClient
	baseURL string
	apiKey  string
}

// NewVirusTotalClient creates a new VirusTotal client.
func NewVirusTotalClient(cfg VirusTotalConfig) *VirusTotalClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = virusTotalURL
	}
	return &VirusTotalClient{
		baseClient: newBaseClient(cfg.MinInterval),
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
	}
}

func (c *VirusTotalClient) Name() string { return "VirusTotal" }

func (c *VirusTotalClient) IsConfigured() bool { return c.apiKey != "" }

type vtResponse struct {
	Data struct {
		Attributes struct {
			LastAnalysisStats struct {
				Malicious  int `json:"malicious"`
				Suspicious int `json:"suspicious"`
				Harmless   int `json:"harmless"`
				Undetected int `json:"undetected"`
			} `json:"last_analysis_stats"`
		} `json:"attributes"`
	} `json:"data"`
}

// CheckURL fetches the cached VirusTotal analysis for the URL.
func (c *VirusTotalClient) CheckURL(ctx context.Context, targetURL string) (entity.Verdict, error) {
	if err := c.wait(ctx); err != nil {
		return entity.Verdict{}, err
	}

	// VT identifies a URL by its unpadded urlsafe-base64 encoding.
	urlID := strings.TrimRight(base64.URLEncoding.EncodeToString([]byte(targetURL)), "=")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+urlID, nil)
	if err != nil {
		return entity.Verdict{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return entity.Verdict{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// URL never submitted to VT: no opinion.
		return entity.Verdict{Provider: c.Name(), Tier: entity.RiskLow}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return entity.Verdict{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var vtResp vtResponse
	if err := json.NewDecoder(resp.Body).Decode(&vtResp); err != nil {
		return entity.Verdict{}, fmt.Errorf("decode response: %w", err)
	}

	stats := vtResp.Data.Attributes.LastAnalysisStats
	verdict := entity.Verdict{Provider: c.Name(), Tier: entity.RiskLow}
	switch {
	case stats.Malicious > 5:
		verdict.Tier = entity.RiskHigh
	case stats.Malicious > 0 || stats.Suspicious > 2:
		verdict.Tier = entity.RiskMedium
	}
	if verdict.Tier != entity.RiskLow {
		verdict.Reason = fmt.Sprintf("VirusTotal: %d scanners flagged the URL as malicious", stats.Malicious)
		if stats.Suspicious > 0 {
			verdict.Reason += fmt.Sprintf(", %d as suspicious", stats.Suspicious)
		}
	}
	return verdict, nil
}
