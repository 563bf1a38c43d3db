package reputation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pcslave/credential-phishing-detection/internal/entity"
)

const safeBrowsingURL = "https://safebrowsing.googleapis.com/v4/threatMatches:find"

// SafeBrowsingConfig holds configuration for the Google Safe Browsing client.
type SafeBrowsingConfig struct {
	APIKey      string
	BaseURL     string // overridable for tests
	MinInterval time.Duration
}

// SafeBrowsingClient queries Google Safe Browsing v4 threatMatches:find.
// Any match (MALWARE, SOCIAL_ENGINEERING, UNWANTED_SOFTWARE) is a HIGH
// verdict.
type SafeBrowsingClient struct {
	baseClient
	baseURL string
	apiKey  string
}

// NewSafeBrowsingClient creates a new Safe Browsing client.
func NewSafeBrowsingClient(cfg SafeBrowsingConfig) *SafeBrowsingClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = safeBrowsingURL
	}
	return &SafeBrowsingClient{
		baseClient: newBaseClient(cfg.MinInterval),
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
	}
}

func (c *SafeBrowsingClient) Name() string { return "Google Safe Browsing" }

func (c *SafeBrowsingClient) IsConfigured() bool { return c.apiKey != "" }

type sbThreatEntry struct {
	URL string `json:"url"`
}

type sbRequest struct {
	Client struct {
		ClientID      string `json:"clientId"`
		ClientVersion string `json:"clientVersion"`
	} `json:"client"`
	ThreatInfo struct {
		ThreatTypes      []string        `json:"threatTypes"`
		PlatformTypes    []string        `json:"platformTypes"`
		ThreatEntryTypes []string        `json:"threatEntryTypes"`
		ThreatEntries    []sbThreatEntry `json:"threatEntries"`
	} `json:"threatInfo"`
}

type sbResponse struct {
	Matches []struct {
		ThreatType string `json:"threatType"`
	} `json:"matches"`
}

// CheckURL looks the URL up in Safe Browsing's threat lists.
func (c *SafeBrowsingClient) CheckURL(ctx context.Context, targetURL string) (entity.Verdict, error) {
	if err := c.wait(ctx); err != nil {
		return entity.Verdict{}, err
	}

	var payload sbRequest
	payload.Client.ClientID = "credential-phishing-detection"
	payload.Client.ClientVersion = "1.0.0"
	payload.ThreatInfo.ThreatTypes = []string{"MALWARE", "SOCIAL_ENGINEERING", "UNWANTED_SOFTWARE"}
	payload.ThreatInfo.PlatformTypes = []string{"ANY_PLATFORM"}
	payload.ThreatInfo.ThreatEntryTypes = []string{"URL"}
	payload.ThreatInfo.ThreatEntries = []sbThreatEntry{{URL: targetURL}}

	body, err := json.Marshal(payload)
	if err != nil {
		return entity.Verdict{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"?key="+c.apiKey, bytes.NewReader(body))
	if err != nil {
		return entity.Verdict{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return entity.Verdict{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return entity.Verdict{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var sbResp sbResponse
	if err := json.NewDecoder(resp.Body).Decode(&sbResp); err != nil {
		return entity.Verdict{}, fmt.Errorf("decode response: %w", err)
	}

	verdict := entity.Verdict{
		Provider: c.Name(),
		Tier:     entity.RiskLow,
	}
	if len(sbResp.Matches) > 0 {
		types := make([]string, 0, len(sbResp.Matches))
		for _, m := range sbResp.Matches {
			types = append(types, m.ThreatType)
		}
		verdict.Tier = entity.RiskHigh
		verdict.Reason = fmt.Sprintf("%s flagged URL as %s", c.Name(), strings.Join(types, ", "))
	}
	return verdict, nil
}
