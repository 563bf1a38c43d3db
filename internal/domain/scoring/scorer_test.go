package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pcslave/credential-phishing-detection/internal/entity"
)

func signalWith(weight int, reason string) entity.Signal {
	return entity.Signal{Name: "test", Detected: true, Weight: weight, Reason: reason}
}

func signalsForTier(tier entity.RiskTier) []entity.Signal {
	switch tier {
	case entity.RiskHigh:
		return []entity.Signal{signalWith(50, "blacklisted"), signalWith(30, "bad certificate")}
	case entity.RiskMedium:
		return []entity.Signal{signalWith(40, "typosquat")}
	default:
		return nil
	}
}

func TestMergePriorityOrder(t *testing.T) {
	s := New(DefaultThresholds())

	cases := []struct {
		name         string
		internal     entity.RiskTier
		external     entity.RiskTier // "" means no external verdict
		wantTier     entity.RiskTier
		wantExternal bool // external provider is the decision source
	}{
		{"int-low/ext-none", entity.RiskLow, "", entity.RiskLow, false},
		{"int-low/ext-low", entity.RiskLow, entity.RiskLow, entity.RiskLow, false},
		{"int-low/ext-medium", entity.RiskLow, entity.RiskMedium, entity.RiskMedium, true},
		{"int-low/ext-high", entity.RiskLow, entity.RiskHigh, entity.RiskHigh, true},
		{"int-medium/ext-none", entity.RiskMedium, "", entity.RiskMedium, false},
		{"int-medium/ext-low", entity.RiskMedium, entity.RiskLow, entity.RiskMedium, false},
		{"int-medium/ext-medium", entity.RiskMedium, entity.RiskMedium, entity.RiskMedium, true},
		{"int-medium/ext-high", entity.RiskMedium, entity.RiskHigh, entity.RiskHigh, true},
		{"int-high/ext-none", entity.RiskHigh, "", entity.RiskHigh, false},
		{"int-high/ext-low", entity.RiskHigh, entity.RiskLow, entity.RiskHigh, false},
		{"int-high/ext-medium", entity.RiskHigh, entity.RiskMedium, entity.RiskHigh, false},
		{"int-high/ext-high", entity.RiskHigh, entity.RiskHigh, entity.RiskHigh, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := Input{Signals: signalsForTier(tc.internal)}
			if tc.external != "" {
				in.Best = &entity.Verdict{
					Provider:  "TestProvider",
					Tier:      tc.external,
					Reason:    "provider reason",
					Available: true,
				}
			}

			out := s.Score(in)
			assert.Equal(t, tc.wantTier, out.Tier)
			if tc.wantExternal {
				assert.Equal(t, "TestProvider", out.DecisionSource)
			} else {
				assert.Equal(t, entity.DecisionSourceInternal, out.DecisionSource)
			}
		})
	}
}

func TestEqualTiersBreakTowardExternal(t *testing.T) {
	s := New(DefaultThresholds())
	out := s.Score(Input{
		Signals: signalsForTier(entity.RiskMedium),
		Best: &entity.Verdict{
			Provider:  "TestProvider",
			Tier:      entity.RiskMedium,
			Reason:    "listed as suspicious",
			Available: true,
		},
	})
	assert.Equal(t, entity.RiskMedium, out.Tier)
	assert.Equal(t, "TestProvider", out.DecisionSource)
	assert.Equal(t, "listed as suspicious", out.Reasons[len(out.Reasons)-1])
}

func TestWhitelistOverride(t *testing.T) {
	s := New(DefaultThresholds())
	out := s.Score(Input{
		Signals:     signalsForTier(entity.RiskHigh),
		Whitelisted: true,
		Best: &entity.Verdict{
			Provider:  "TestProvider",
			Tier:      entity.RiskHigh,
			Available: true,
		},
	})
	assert.Equal(t, entity.RiskLow, out.Tier)
	assert.Equal(t, 0, out.Score)
	assert.Equal(t, entity.DecisionSourceInternal, out.DecisionSource)
}

func TestScoreClamping(t *testing.T) {
	s := New(DefaultThresholds())
	out := s.Score(Input{
		Signals: []entity.Signal{
			signalWith(50, "a"), signalWith(40, "b"), signalWith(30, "c"),
		},
	})
	assert.Equal(t, 100, out.Score)
	assert.Equal(t, entity.RiskHigh, out.Tier)
}

func TestNoSignalsNoVerdict(t *testing.T) {
	s := New(DefaultThresholds())
	out := s.Score(Input{})
	assert.Equal(t, entity.RiskLow, out.Tier)
	assert.Equal(t, 0, out.Score)
	assert.Equal(t, entity.DecisionSourceInternal, out.DecisionSource)
	assert.Empty(t, out.Reasons)
}

func TestExternalReasonAlwaysAppendedLast(t *testing.T) {
	s := New(DefaultThresholds())

	// External decides: its reason comes last.
	out := s.Score(Input{
		Signals: signalsForTier(entity.RiskMedium),
		Best: &entity.Verdict{
			Provider:  "TestProvider",
			Tier:      entity.RiskHigh,
			Reason:    "flagged by provider",
			Available: true,
		},
	})
	assert.Equal(t, "flagged by provider", out.Reasons[len(out.Reasons)-1])

	// External loses but its reason stays visible, still last.
	out = s.Score(Input{
		Signals: signalsForTier(entity.RiskHigh),
		Best: &entity.Verdict{
			Provider:  "TestProvider",
			Tier:      entity.RiskMedium,
			Reason:    "mild provider concern",
			Available: true,
		},
	})
	assert.Equal(t, entity.DecisionSourceInternal, out.DecisionSource)
	assert.Equal(t, "mild provider concern", out.Reasons[len(out.Reasons)-1])
}

func TestSkippedSignalsContributeNothing(t *testing.T) {
	s := New(DefaultThresholds())
	out := s.Score(Input{
		Signals: []entity.Signal{
			{Name: "certificate", Skipped: true, Reason: "check skipped: timeout"},
			signalWith(25, "ip literal"),
		},
	})
	assert.Equal(t, 25, out.Score)
	assert.Equal(t, entity.RiskLow, out.Tier)
	// Skipped reasons are not part of the user-facing list.
	assert.Equal(t, []string{"ip literal"}, out.Reasons)
}

func TestDegradedNote(t *testing.T) {
	s := New(DefaultThresholds())
	out := s.Score(Input{Degraded: true})
	assert.Contains(t, out.Reasons[0], "degraded")
}
