// Package scoring reduces evidence signals and the best external verdict
// into a final risk tier. The reduction is deterministic and side-effect
// free so the same inputs always produce the same outcome.
package scoring

import (
	"github.com/pcslave/credential-phishing-detection/internal/entity"
)

// Thresholds are the internal score cut-offs for each tier.
type Thresholds struct {
	High   int
	Medium int
}

// DefaultThresholds returns the documented cut-offs: HIGH at 70, MEDIUM at 40.
func DefaultThresholds() Thresholds {
	return Thresholds{High: 70, Medium: 40}
}

// Input carries everything the scorer needs for one reduction.
type Input struct {
	Signals     []entity.Signal
	Whitelisted bool
	// Best is the highest-severity available external verdict, nil when
	// no provider answered.
	Best *entity.Verdict
	// Degraded marks that the external fan-out hit its global budget and
	// some providers were abandoned.
	Degraded bool
}

// Outcome is the scored reduction, before result assembly.
type Outcome struct {
	Tier           entity.RiskTier
	Score          int
	DecisionSource string
	Reasons        []string
}

// Scorer applies the scoring and merge policy.
type Scorer struct {
	thresholds Thresholds
}

// New creates a scorer with the given thresholds.
func New(t Thresholds) *Scorer {
	if t.High <= 0 {
		t = DefaultThresholds()
	}
	return &Scorer{thresholds: t}
}

// Score reduces the input to a final tier, score, decision source and
// ordered reasons list.
//
// Whitelist membership overrides everything: trusted domains are LOW with
// score 0 regardless of other signals or external verdicts. Otherwise the
// internal tier and the external best verdict merge under a strict priority
// order: external-HIGH > internal-HIGH > external-MEDIUM > internal-MEDIUM
// > LOW. The external verdict's reason is always appended last when one is
// present, so the deciding (or dissenting) provider stays visible.
func (s *Scorer) Score(in Input) Outcome {
	if in.Whitelisted {
		return Outcome{
			Tier:           entity.RiskLow,
			Score:          0,
			DecisionSource: entity.DecisionSourceInternal,
			Reasons:        []string{"domain is on the trusted whitelist"},
		}
	}

	score := 0
	var reasons []string
	for _, sig := range in.Signals {
		if !sig.Detected {
			continue
		}
		score += sig.Weight
		if sig.Reason != "" {
			reasons = append(reasons, sig.Reason)
		}
	}
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	internalTier := entity.RiskLow
	switch {
	case score >= s.thresholds.High:
		internalTier = entity.RiskHigh
	case score >= s.thresholds.Medium:
		internalTier = entity.RiskMedium
	}

	tier := internalTier
	source := entity.DecisionSourceInternal
	if in.Best != nil && in.Best.Available && externalWins(in.Best.Tier, internalTier) {
		tier = in.Best.Tier
		source = in.Best.Provider
	}

	if in.Degraded {
		reasons = append(reasons, "analysis degraded: external reputation budget exhausted")
	}
	if in.Best != nil && in.Best.Available && in.Best.Reason != "" {
		reasons = append(reasons, in.Best.Reason)
	}

	return Outcome{
		Tier:           tier,
		Score:          score,
		DecisionSource: source,
		Reasons:        reasons,
	}
}

// externalWins implements the merge priority: external-HIGH >
// internal-HIGH > external-MEDIUM > internal-MEDIUM > LOW. Equal tiers
// break toward the external verdict, so its provider becomes the decision
// source.
func externalWins(external, internal entity.RiskTier) bool {
	if external == entity.RiskHigh {
		return true
	}
	if external == entity.RiskMedium {
		return internal != entity.RiskHigh
	}
	return false
}
