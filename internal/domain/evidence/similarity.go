package evidence

import (
	"context"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/net/idna"

	"github.com/pcslave/credential-phishing-detection/internal/domain/urlkey"
	"github.com/pcslave/credential-phishing-detection/internal/entity"
)

// WhitelistSource exposes the curated high-value domains used as the
// typosquatting reference set.
type WhitelistSource interface {
	WhitelistDomains(ctx context.Context) ([]string, error)
}

// SimilarityProvider detects typosquatting: domains within a small edit
// distance of a curated high-value domain, after folding confusable
// characters so homograph spoofs collapse onto their latin targets.
type SimilarityProvider struct {
	Whitelist WhitelistSource
	// MaxDistance is the largest edit distance still considered a
	// lookalike. Defaults to 2.
	MaxDistance int
}

func (SimilarityProvider) Name() string { return "domain_similarity" }

func (p SimilarityProvider) Check(ctx context.Context, t urlkey.Target) entity.Signal {
	if t.IsIP {
		return clear("domain_similarity")
	}
	trusted, err := p.Whitelist.WhitelistDomains(ctx)
	if err != nil {
		return skipped("domain_similarity", err.Error())
	}

	maxDist := p.MaxDistance
	if maxDist <= 0 {
		maxDist = 2
	}

	// Punycode hosts are compared in their unicode form so Cyrillic and
	// Greek homoglyphs fold onto the latin domains they spoof.
	candidateRaw := t.Registrable
	if t.Unicode {
		if uni, err := idna.Lookup.ToUnicode(t.Registrable); err == nil {
			candidateRaw = uni
		}
	}
	candidate := foldConfusables(candidateRaw)
	for _, ref := range trusted {
		ref = strings.ToLower(ref)
		if t.Registrable == ref {
			// Exact whitelist membership is the scorer's override,
			// not a similarity hit.
			return clear("domain_similarity")
		}
		dist := levenshtein.ComputeDistance(candidate, foldConfusables(ref))
		if dist == 0 {
			return entity.Signal{
				Name:     "domain_similarity",
				Detected: true,
				Weight:   WeightSimilarity,
				Reason:   fmt.Sprintf("domain impersonates '%s' using lookalike characters", ref),
			}
		}
		if dist <= maxDist {
			return entity.Signal{
				Name:     "domain_similarity",
				Detected: true,
				Weight:   WeightSimilarity,
				Reason:   fmt.Sprintf("domain resembles '%s' (edit distance %d)", ref, dist),
			}
		}
	}
	return clear("domain_similarity")
}

// confusables maps characters that visually resemble a latin letter onto
// it: digits used as letters, and the common Cyrillic/Greek homoglyphs.
var confusables = map[rune]rune{
	'0': 'o', '1': 'l', '3': 'e', '5': 's', '7': 't',
	// Cyrillic
	'а': 'a', 'е': 'e', 'о': 'o', 'р': 'p', 'с': 'c', 'х': 'x',
	'у': 'y', 'і': 'i', 'ѕ': 's', 'ј': 'j', 'ԁ': 'd', 'ԛ': 'q',
	// Greek
	'ο': 'o', 'ν': 'v', 'α': 'a', 'ε': 'e', 'ι': 'i', 'κ': 'k',
	'ρ': 'p', 'τ': 't', 'υ': 'u',
}

func foldConfusables(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if f, ok := confusables[r]; ok {
			r = f
		}
		b.WriteRune(r)
	}
	return b.String()
}
