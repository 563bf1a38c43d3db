// Package evidence contains the internal checks that turn an analysis
// target into scored signals. Every provider degrades gracefully: a failed
// or timed-out lookup yields a zero-weight skipped signal, never an error.
package evidence

import (
	"context"

	"github.com/pcslave/credential-phishing-detection/internal/domain/urlkey"
	"github.com/pcslave/credential-phishing-detection/internal/entity"
)

// Signal weights. Additive; the scorer clamps the total to [0,100].
const (
	WeightBlacklist   = 50
	WeightSimilarity  = 40
	WeightCertificate = 30
	WeightIPLiteral   = 25
	WeightStructure   = 25
	WeightNewDomain   = 20
	WeightWhoisHidden = 15

	// NewDomainMaxAgeDays marks how recently a domain must have been
	// registered to count as new.
	NewDomainMaxAgeDays = 30
)

// Provider is one independent evidence check.
type Provider interface {
	Name() string
	Check(ctx context.Context, t urlkey.Target) entity.Signal
}

// BlacklistChecker is the read interface over the local blacklist.
type BlacklistChecker interface {
	IsBlacklisted(ctx context.Context, domain string) (bool, error)
}

// CertFactSource supplies certificate facts for a host.
type CertFactSource interface {
	CertificateFacts(ctx context.Context, host string) (entity.CertificateFacts, error)
}

// DomainAgeSource supplies registration facts for a domain.
type DomainAgeSource interface {
	DomainAge(ctx context.Context, domain string) (entity.DomainAgeFacts, error)
}

func skipped(name, cause string) entity.Signal {
	return entity.Signal{
		Name:    name,
		Skipped: true,
		Reason:  "check skipped: " + cause,
	}
}

func clear(name string) entity.Signal {
	return entity.Signal{Name: name}
}
