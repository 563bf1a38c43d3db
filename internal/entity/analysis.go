package entity

import (
	"time"
)

// RiskTier is the three-level risk verdict driving the response action.
type RiskTier string

const (
	RiskLow    RiskTier = "low"
	RiskMedium RiskTier = "medium"
	RiskHigh   RiskTier = "high"
)

// Rank returns the ordering of a tier: LOW < MEDIUM < HIGH.
func (t RiskTier) Rank() int {
	switch t {
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	}
	return 0
}

// Action is the downstream response for a risk tier.
type Action string

const (
	ActionBlocked Action = "blocked"
	ActionWarned  Action = "warned"
	ActionAllowed Action = "allowed"
)

// ActionForTier maps a risk tier to the response action.
func ActionForTier(tier RiskTier) Action {
	switch tier {
	case RiskHigh:
		return ActionBlocked
	case RiskMedium:
		return ActionWarned
	default:
		return ActionAllowed
	}
}

// Signal is one named fact produced by an evidence provider. Signals are
// immutable once produced; a skipped check carries Weight 0.
type Signal struct {
	Name     string `json:"name"`
	Detected bool   `json:"detected"`
	Weight   int    `json:"weight"`
	Reason   string `json:"reason,omitempty"`
	Skipped  bool   `json:"skipped,omitempty"`
}

// Verdict is the outcome of one external reputation provider. Available is
// false when the call errored or timed out, in which case Cause holds why
// and the verdict is excluded from best-verdict selection.
type Verdict struct {
	Provider  string        `json:"provider"`
	Tier      RiskTier      `json:"tier"`
	Reason    string        `json:"reason,omitempty"`
	Latency   time.Duration `json:"latency"`
	Available bool          `json:"available"`
	Cause     string        `json:"cause,omitempty"`
}

// DecisionSourceInternal marks a result decided by internal signals rather
// than an external provider.
const DecisionSourceInternal = "internal"

// AnalysisResult is the final output of one analysis. It is built exactly
// once per cache miss and never mutated afterwards, so it is safe to share
// by reference between the cache and concurrent callers.
type AnalysisResult struct {
	ID              string    `json:"id"`
	Key             string    `json:"key"`
	Tier            RiskTier  `json:"tier"`
	Score           int       `json:"score"`
	Action          Action    `json:"action"`
	DecisionSource  string    `json:"decision_source"`
	Reasons         []string  `json:"reasons"`
	Signals         []Signal  `json:"signals"`
	ExternalResults []Verdict `json:"external_results"`
	WarningPageURL  string    `json:"warning_page_url,omitempty"`
	ComputedAt      time.Time `json:"computed_at"`
	CacheHit        bool      `json:"cache_hit"`
}

// AuditRecord is the subset of an analysis result persisted for audit.
// It intentionally excludes raw signal internals.
type AuditRecord struct {
	ID             string    `json:"id"`
	Key            string    `json:"key"`
	Tier           RiskTier  `json:"tier"`
	Score          int       `json:"score"`
	DecisionSource string    `json:"decision_source"`
	Reasons        []string  `json:"reasons"`
	ComputedAt     time.Time `json:"computed_at"`
}
