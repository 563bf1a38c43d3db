// Package analysis is the risk-analysis entry point: it normalizes the
// target, runs the evidence providers and the external reputation fan-out
// concurrently, scores the combined signals and memoizes the result.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/pcslave/credential-phishing-detection/internal/adapter/external/reputation"
	"github.com/pcslave/credential-phishing-detection/internal/domain/evidence"
	"github.com/pcslave/credential-phishing-detection/internal/domain/scoring"
	"github.com/pcslave/credential-phishing-detection/internal/domain/urlkey"
	"github.com/pcslave/credential-phishing-detection/internal/entity"
)

// WhitelistChecker is the read interface over the curated whitelist used
// for the scoring override.
type WhitelistChecker interface {
	IsWhitelisted(ctx context.Context, domain string) (bool, error)
}

// AuditSink receives the audit-safe subset of each computed result.
type AuditSink interface {
	SaveAudit(ctx context.Context, rec entity.AuditRecord) error
}

// Config wires a Service.
type Config struct {
	Providers  []evidence.Provider
	Aggregator *reputation.Aggregator
	Scorer     *scoring.Scorer
	Whitelist  WhitelistChecker
	Audit      AuditSink // optional

	CacheTTL        time.Duration // default 1h
	CacheSize       int           // default 4096 entries
	EvidenceTimeout time.Duration // default 1s

	Logger *slog.Logger
	Now    func() time.Time // injectable clock for tests
}

// Service analyzes login targets for credential-phishing risk. It is safe
// for concurrent use; concurrent calls for the same uncached key share a
// single computation.
type Service struct {
	providers       []evidence.Provider
	aggregator      *reputation.Aggregator
	scorer          *scoring.Scorer
	whitelist       WhitelistChecker
	audit           AuditSink
	cache           *resultCache
	flight          singleflight.Group
	evidenceTimeout time.Duration
	logger          *slog.Logger
	now             func() time.Time
}

// NewService creates an analysis service.
func NewService(cfg Config) *Service {
	if cfg.EvidenceTimeout <= 0 {
		cfg.EvidenceTimeout = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Scorer == nil {
		cfg.Scorer = scoring.New(scoring.DefaultThresholds())
	}
	return &Service{
		providers:       cfg.Providers,
		aggregator:      cfg.Aggregator,
		scorer:          cfg.Scorer,
		whitelist:       cfg.Whitelist,
		audit:           cfg.Audit,
		cache:           newResultCache(cfg.CacheSize, cfg.CacheTTL, cfg.Now),
		evidenceTimeout: cfg.EvidenceTimeout,
		logger:          cfg.Logger,
		now:             cfg.Now,
	}
}

// Analyze runs the full risk analysis for a domain plus optional path.
// Results are cached per normalized key for the configured TTL, and at
// most one computation runs per key at a time; concurrent callers for the
// same in-flight key all receive the same result. The only error returned
// is urlkey.ErrInvalidTarget for malformed input.
func (s *Service) Analyze(ctx context.Context, domain, path string) (*entity.AnalysisResult, error) {
	target, err := urlkey.Normalize(domain, path)
	if err != nil {
		return nil, err
	}
	key := target.Key()

	if cached, ok := s.cache.get(key); ok {
		hit := *cached
		hit.CacheHit = true
		return &hit, nil
	}

	v, err, _ := s.flight.Do(key, func() (any, error) {
		// Re-check under the flight: a sibling may have stored the
		// result between our miss and acquiring the flight.
		if cached, ok := s.cache.get(key); ok {
			return cached, nil
		}
		result := s.compute(ctx, target)
		s.cache.set(key, result)
		s.saveAudit(result)
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*entity.AnalysisResult), nil
}

// compute runs the two fan-outs concurrently and scores the barrier'd
// outcome. Evidence providers and external clients race freely against
// each other; the scorer only runs after both sets finish or time out.
func (s *Service) compute(ctx context.Context, target urlkey.Target) *entity.AnalysisResult {
	start := s.now()

	var (
		wg          sync.WaitGroup
		signals     []entity.Signal
		whitelisted bool
		fanout      reputation.FanoutResult
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		signals = s.collectEvidence(ctx, target)
	}()

	if s.whitelist != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			listed, err := s.whitelist.IsWhitelisted(ctx, target.Registrable)
			if err != nil {
				s.logger.Warn("whitelist lookup failed", "domain", target.Registrable, "error", err)
				return
			}
			whitelisted = listed
		}()
	}

	if s.aggregator != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fanout = s.aggregator.CheckURL(ctx, targetURL(target))
		}()
	}

	wg.Wait()

	outcome := s.scorer.Score(scoring.Input{
		Signals:     signals,
		Whitelisted: whitelisted,
		Best:        fanout.Best,
		Degraded:    fanout.Degraded,
	})

	result := &entity.AnalysisResult{
		ID:              uuid.NewString(),
		Key:             target.Key(),
		Tier:            outcome.Tier,
		Score:           outcome.Score,
		Action:          entity.ActionForTier(outcome.Tier),
		DecisionSource:  outcome.DecisionSource,
		Reasons:         outcome.Reasons,
		Signals:         signals,
		ExternalResults: fanout.All,
		ComputedAt:      start,
	}
	if result.Action == entity.ActionBlocked {
		result.WarningPageURL = "/warning?risk=" + string(result.Tier)
	}

	s.logger.Info("analysis computed",
		"key", result.Key,
		"tier", result.Tier,
		"score", result.Score,
		"decision_source", result.DecisionSource,
		"external_latency", fanout.TotalLatency,
		"duration", time.Since(start),
	)
	return result
}

// collectEvidence fans out to every provider under a shared deadline.
// A provider that overruns the deadline is recorded as skipped; the
// pipeline never blocks on a single slow check.
func (s *Service) collectEvidence(ctx context.Context, target urlkey.Target) []entity.Signal {
	ectx, cancel := context.WithTimeout(ctx, s.evidenceTimeout)
	defer cancel()

	signals := make([]entity.Signal, len(s.providers))
	var mu sync.Mutex
	filled := make([]bool, len(s.providers))

	var wg sync.WaitGroup
	for i, p := range s.providers {
		wg.Add(1)
		go func(i int, p evidence.Provider) {
			defer wg.Done()
			sig := p.Check(ectx, target)
			mu.Lock()
			signals[i] = sig
			filled[i] = true
			mu.Unlock()
		}(i, p)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ectx.Done():
	}

	mu.Lock()
	defer mu.Unlock()
	for i, ok := range filled {
		if !ok {
			signals[i] = entity.Signal{
				Name:    s.providers[i].Name(),
				Skipped: true,
				Reason:  "check skipped: evidence deadline exceeded",
			}
		}
	}
	out := make([]entity.Signal, len(signals))
	copy(out, signals)
	return out
}

// saveAudit persists the audit-safe subset of a computed result without
// blocking the caller.
func (s *Service) saveAudit(result *entity.AnalysisResult) {
	if s.audit == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		rec := entity.AuditRecord{
			ID:             result.ID,
			Key:            result.Key,
			Tier:           result.Tier,
			Score:          result.Score,
			DecisionSource: result.DecisionSource,
			Reasons:        result.Reasons,
			ComputedAt:     result.ComputedAt,
		}
		if err := s.audit.SaveAudit(ctx, rec); err != nil {
			s.logger.Error("failed to save analysis audit", "key", rec.Key, "error", err)
		}
	}()
}

// CacheStats exposes cache counters for the health surface.
func (s *Service) CacheStats() CacheStats {
	return s.cache.stats()
}

// FlushCache drops all cached results.
func (s *Service) FlushCache() {
	s.cache.purge()
}

// ProviderStatus reports the active external reputation providers.
func (s *Service) ProviderStatus() []reputation.ProviderStatus {
	if s.aggregator == nil {
		return nil
	}
	return s.aggregator.Status()
}

func targetURL(t urlkey.Target) string {
	u := "https://" + t.Host
	if t.Port != 0 {
		u = fmt.Sprintf("%s:%d", u, t.Port)
	}
	return u + t.Path
}
