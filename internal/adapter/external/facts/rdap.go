package facts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pcslave/credential-phishing-detection/internal/entity"
)

const rdapBaseURL = "https://rdap.org/domain/"

// RDAPClient fetches domain registration facts over RDAP, the HTTP
// successor to the WHOIS wire protocol.
type RDAPClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewRDAPClient creates an RDAP client. baseURL is overridable for tests;
// empty means the rdap.org bootstrap redirector.
func NewRDAPClient(baseURL string, timeout time.Duration) *RDAPClient {
	if baseURL == "" {
		baseURL = rdapBaseURL
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &RDAPClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

type rdapResponse struct {
	Events []struct {
		EventAction string `json:"eventAction"`
		EventDate   string `json:"eventDate"`
	} `json:"events"`
}

// DomainAge looks up the registration date and WHOIS privacy status of a
// domain.
func (c *RDAPClient) DomainAge(ctx context.Context, domain string) (entity.DomainAgeFacts, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+domain, nil)
	if err != nil {
		return entity.DomainAgeFacts{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/rdap+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return entity.DomainAgeFacts{}, fmt.Errorf("rdap lookup %s: %w", domain, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Unregistered or unknown domain: no facts.
		return entity.DomainAgeFacts{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return entity.DomainAgeFacts{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return entity.DomainAgeFacts{}, fmt.Errorf("read response: %w", err)
	}

	var rdap rdapResponse
	if err := json.Unmarshal(body, &rdap); err != nil {
		return entity.DomainAgeFacts{}, fmt.Errorf("decode response: %w", err)
	}

	facts := entity.DomainAgeFacts{
		// Registrar privacy services redact the registrant entity.
		WhoisHidden: strings.Contains(string(body), "REDACTED") ||
			strings.Contains(strings.ToLower(string(body)), "privacy"),
	}
	for _, ev := range rdap.Events {
		if ev.EventAction != "registration" {
			continue
		}
		registered, err := time.Parse(time.RFC3339, ev.EventDate)
		if err != nil {
			continue
		}
		facts.Known = true
		facts.AgeDays = int(time.Since(registered).Hours() / 24)
		break
	}
	return facts, nil
}
