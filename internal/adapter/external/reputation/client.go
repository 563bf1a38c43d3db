// Package reputation integrates third-party URL reputation services and
// fans out to all enabled ones concurrently. Each concrete client turns a
// candidate URL into a risk verdict; clients never see request bodies or
// credentials, only the URL under analysis.
package reputation

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/pcslave/credential-phishing-detection/internal/entity"
)

// Client is one external reputation service.
type Client interface {
	Name() string
	// IsConfigured reports whether the client has what it needs (API
	// key, endpoint) to be part of the fan-out set.
	IsConfigured() bool
	// CheckURL queries the service for the given URL. Implementations
	// must respect ctx cancellation; the aggregator supplies the
	// deadline and converts errors into unavailable verdicts.
	CheckURL(ctx context.Context, targetURL string) (entity.Verdict, error)
}

// baseClient bundles the pieces every HTTP-backed client shares: a pooled
// transport and an optional outbound rate limiter.
type baseClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
}

func newBaseClient(minInterval time.Duration) baseClient {
	b := baseClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	if minInterval > 0 {
		b.limiter = rate.NewLimiter(rate.Every(minInterval), 1)
	}
	return b
}

// wait blocks until the rate limiter admits the call or ctx expires.
func (b *baseClient) wait(ctx context.Context) error {
	if b.limiter == nil {
		return nil
	}
	return b.limiter.Wait(ctx)
}
