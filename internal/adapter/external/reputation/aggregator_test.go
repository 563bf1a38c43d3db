package reputation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcslave/credential-phishing-detection/internal/entity"
)

// fakeClient is a scripted reputation client for fan-out tests.
type fakeClient struct {
	name       string
	configured bool
	tier       entity.RiskTier
	reason     string
	err        error
	delay      time.Duration
	// hang ignores the context and never returns within any test budget.
	hang bool
}

func (f *fakeClient) Name() string { return f.name }

func (f *fakeClient) IsConfigured() bool { return f.configured }

func (f *fakeClient) CheckURL(ctx context.Context, _ string) (entity.Verdict, error) {
	if f.hang {
		time.Sleep(10 * time.Second)
	} else if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return entity.Verdict{}, ctx.Err()
		}
	}
	if f.err != nil {
		return entity.Verdict{}, f.err
	}
	return entity.Verdict{Tier: f.tier, Reason: f.reason}, nil
}

func TestAggregatorPicksHighestSeverity(t *testing.T) {
	agg := NewAggregator([]Client{
		&fakeClient{name: "slow-high", configured: true, tier: entity.RiskHigh, delay: 30 * time.Millisecond},
		&fakeClient{name: "fast-medium", configured: true, tier: entity.RiskMedium},
		&fakeClient{name: "fast-low", configured: true, tier: entity.RiskLow},
	}, Options{}, nil)

	res := agg.CheckURL(context.Background(), "https://example.com/login")
	require.NotNil(t, res.Best)
	assert.Equal(t, "slow-high", res.Best.Provider)
	assert.Equal(t, entity.RiskHigh, res.Best.Tier)
	assert.False(t, res.Degraded)
	assert.Len(t, res.All, 3)
}

func TestAggregatorLatencyTieBreak(t *testing.T) {
	agg := NewAggregator([]Client{
		&fakeClient{name: "slower", configured: true, tier: entity.RiskHigh, delay: 60 * time.Millisecond},
		&fakeClient{name: "faster", configured: true, tier: entity.RiskHigh, delay: 5 * time.Millisecond},
	}, Options{}, nil)

	res := agg.CheckURL(context.Background(), "https://example.com")
	require.NotNil(t, res.Best)
	assert.Equal(t, "faster", res.Best.Provider)
}

func TestAggregatorFailureDoesNotBlockSiblings(t *testing.T) {
	agg := NewAggregator([]Client{
		&fakeClient{name: "broken", configured: true, err: errors.New("upstream 500")},
		&fakeClient{name: "healthy", configured: true, tier: entity.RiskMedium, reason: "listed"},
	}, Options{}, nil)

	res := agg.CheckURL(context.Background(), "https://example.com")
	require.NotNil(t, res.Best)
	assert.Equal(t, "healthy", res.Best.Provider)

	var broken entity.Verdict
	for _, v := range res.All {
		if v.Provider == "broken" {
			broken = v
		}
	}
	assert.False(t, broken.Available)
	assert.Equal(t, "upstream 500", broken.Cause)
}

func TestAggregatorGlobalBudgetIsHardCeiling(t *testing.T) {
	agg := NewAggregator([]Client{
		&fakeClient{name: "stuck", configured: true, hang: true},
		&fakeClient{name: "quick", configured: true, tier: entity.RiskLow},
	}, Options{GlobalBudget: 150 * time.Millisecond, PerCallTimeout: time.Second}, nil)

	start := time.Now()
	res := agg.CheckURL(context.Background(), "https://example.com")
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 500*time.Millisecond)
	assert.True(t, res.Degraded)

	var stuck entity.Verdict
	for _, v := range res.All {
		if v.Provider == "stuck" {
			stuck = v
		}
	}
	assert.False(t, stuck.Available)
	assert.Equal(t, "global_timeout", stuck.Cause)

	require.NotNil(t, res.Best)
	assert.Equal(t, "quick", res.Best.Provider)
}

func TestAggregatorPerCallTimeout(t *testing.T) {
	agg := NewAggregator([]Client{
		&fakeClient{name: "sluggish", configured: true, tier: entity.RiskHigh, delay: time.Second},
	}, Options{PerCallTimeout: 50 * time.Millisecond, GlobalBudget: 2 * time.Second}, nil)

	res := agg.CheckURL(context.Background(), "https://example.com")
	assert.Nil(t, res.Best)
	require.Len(t, res.All, 1)
	assert.False(t, res.All[0].Available)
	assert.Equal(t, "timeout", res.All[0].Cause)
	assert.False(t, res.Degraded)
}

func TestAggregatorNoClients(t *testing.T) {
	agg := NewAggregator(nil, Options{}, nil)
	res := agg.CheckURL(context.Background(), "https://example.com")
	assert.Nil(t, res.Best)
	assert.Empty(t, res.All)
	assert.False(t, res.Degraded)
}

func TestAggregatorExcludesUnconfiguredClients(t *testing.T) {
	agg := NewAggregator([]Client{
		&fakeClient{name: "disabled"},
		&fakeClient{name: "enabled", configured: true, tier: entity.RiskLow},
	}, Options{}, nil)

	assert.Len(t, agg.Clients(), 1)
	res := agg.CheckURL(context.Background(), "https://example.com")
	assert.Len(t, res.All, 1)
	assert.Equal(t, "enabled", res.All[0].Provider)
}

func TestAggregatorAllUnavailable(t *testing.T) {
	agg := NewAggregator([]Client{
		&fakeClient{name: "a", configured: true, err: errors.New("boom")},
		&fakeClient{name: "b", configured: true, err: errors.New("boom")},
	}, Options{}, nil)

	res := agg.CheckURL(context.Background(), "https://example.com")
	assert.Nil(t, res.Best)
	assert.False(t, res.Degraded)
}
