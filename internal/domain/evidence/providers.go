package evidence

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pcslave/credential-phishing-detection/internal/domain/urlkey"
	"github.com/pcslave/credential-phishing-detection/internal/entity"
)

// IPLiteralProvider flags hosts that are raw IPv4/IPv6 addresses. Phishing
// kits frequently serve login pages straight off an address to avoid
// registering a domain.
type IPLiteralProvider struct{}

func (IPLiteralProvider) Name() string { return "ip_literal" }

func (IPLiteralProvider) Check(_ context.Context, t urlkey.Target) entity.Signal {
	if !t.IsIP {
		return clear("ip_literal")
	}
	return entity.Signal{
		Name:     "ip_literal",
		Detected: true,
		Weight:   WeightIPLiteral,
		Reason:   fmt.Sprintf("host is a literal IP address (%s) instead of a domain", t.Host),
	}
}

// BlacklistProvider checks membership in the local phishing blacklist.
type BlacklistProvider struct {
	Lists BlacklistChecker
}

func (BlacklistProvider) Name() string { return "blacklist" }

func (p BlacklistProvider) Check(ctx context.Context, t urlkey.Target) entity.Signal {
	listed, err := p.Lists.IsBlacklisted(ctx, t.Registrable)
	if err != nil {
		return skipped("blacklist", err.Error())
	}
	if !listed {
		return clear("blacklist")
	}
	return entity.Signal{
		Name:     "blacklist",
		Detected: true,
		Weight:   WeightBlacklist,
		Reason:   fmt.Sprintf("domain %s is on the local phishing blacklist", t.Registrable),
	}
}

// CertificateProvider turns TLS certificate facts into a signal. Absent,
// self-signed, expired or mismatching certificates all score the same.
type CertificateProvider struct {
	Certs CertFactSource
}

func (CertificateProvider) Name() string { return "certificate" }

func (p CertificateProvider) Check(ctx context.Context, t urlkey.Target) entity.Signal {
	facts, err := p.Certs.CertificateFacts(ctx, t.Host)
	if err != nil {
		return skipped("certificate", err.Error())
	}

	var problem string
	switch {
	case !facts.Found:
		problem = "no TLS certificate presented"
	case facts.Expired:
		problem = "TLS certificate is expired"
	case facts.SelfSigned:
		problem = "TLS certificate is self-signed"
	case facts.HostnameMismatch:
		problem = "TLS certificate does not match the hostname"
	case !facts.Valid:
		problem = "TLS certificate failed validation"
	default:
		return clear("certificate")
	}

	return entity.Signal{
		Name:     "certificate",
		Detected: true,
		Weight:   WeightCertificate,
		Reason:   problem,
	}
}

// DomainAgeProvider flags freshly registered domains and privacy-shielded
// WHOIS records. Both facts can apply at once; their weights add up.
type DomainAgeProvider struct {
	Ages DomainAgeSource
}

func (DomainAgeProvider) Name() string { return "domain_age" }

func (p DomainAgeProvider) Check(ctx context.Context, t urlkey.Target) entity.Signal {
	if t.IsIP {
		return clear("domain_age")
	}
	facts, err := p.Ages.DomainAge(ctx, t.Registrable)
	if err != nil {
		return skipped("domain_age", err.Error())
	}
	if !facts.Known {
		return skipped("domain_age", "no registration data available")
	}

	weight := 0
	var reasons []string
	if facts.AgeDays >= 0 && facts.AgeDays <= NewDomainMaxAgeDays {
		weight += WeightNewDomain
		reasons = append(reasons, fmt.Sprintf("domain registered %d days ago", facts.AgeDays))
	}
	if facts.WhoisHidden {
		weight += WeightWhoisHidden
		reasons = append(reasons, "registrant data is privacy-shielded")
	}
	if weight == 0 {
		return clear("domain_age")
	}
	return entity.Signal{
		Name:     "domain_age",
		Detected: true,
		Weight:   weight,
		Reason:   strings.Join(reasons, "; "),
	}
}

var longRandomLabel = regexp.MustCompile(`[a-z0-9]{30,}`)

// URLStructureProvider flags structural oddities: deep subdomain chains,
// punycode hosts, non-standard ports, runs of hyphens and very long
// random-looking labels.
type URLStructureProvider struct {
	// MaxSubdomainDepth is the deepest acceptable subdomain chain.
	MaxSubdomainDepth int
}

func (URLStructureProvider) Name() string { return "url_structure" }

func (p URLStructureProvider) Check(_ context.Context, t urlkey.Target) entity.Signal {
	maxDepth := p.MaxSubdomainDepth
	if maxDepth <= 0 {
		maxDepth = 3
	}

	var oddities []string
	if depth := t.SubdomainDepth(); depth > maxDepth {
		oddities = append(oddities, fmt.Sprintf("unusually deep subdomain chain (%d levels)", depth))
	}
	if t.Unicode {
		oddities = append(oddities, "internationalized (punycode) hostname")
	}
	if t.Port != 0 {
		oddities = append(oddities, fmt.Sprintf("non-standard port %d", t.Port))
	}
	if strings.Contains(t.Host, "--") {
		// Runs of hyphens outside the punycode prefix.
		stripped := strings.ReplaceAll(t.Host, "xn--", "")
		if strings.Contains(stripped, "--") {
			oddities = append(oddities, "consecutive hyphens in hostname")
		}
	}
	if longRandomLabel.MatchString(t.Host) {
		oddities = append(oddities, "very long random-looking label in hostname")
	}
	if strings.Contains(t.Path, "@") {
		oddities = append(oddities, "'@' character in path")
	}

	if len(oddities) == 0 {
		return clear("url_structure")
	}
	return entity.Signal{
		Name:     "url_structure",
		Detected: true,
		Weight:   WeightStructure,
		Reason:   "suspicious URL structure: " + strings.Join(oddities, ", "),
	}
}
