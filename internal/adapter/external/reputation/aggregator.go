package reputation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pcslave/credential-phishing-detection/internal/entity"
)

// Default fan-out bounds. The global budget is the hard ceiling for the
// whole fan-out; the per-call timeout is the common case for one provider.
const (
	DefaultPerCallTimeout = 3 * time.Second
	DefaultGlobalBudget   = 3 * time.Second
)

// Aggregator queries every enabled reputation client concurrently and
// reduces the outcomes to the single highest-severity verdict.
type Aggregator struct {
	clients        []Client
	perCallTimeout time.Duration
	globalBudget   time.Duration
	logger         *slog.Logger
}

// Options bounds the fan-out.
type Options struct {
	PerCallTimeout time.Duration
	GlobalBudget   time.Duration
}

// NewAggregator creates an aggregator over the given active client set.
// Clients that report themselves unconfigured are excluded up front.
func NewAggregator(clients []Client, opts Options, logger *slog.Logger) *Aggregator {
	if opts.PerCallTimeout <= 0 {
		opts.PerCallTimeout = DefaultPerCallTimeout
	}
	if opts.GlobalBudget <= 0 {
		opts.GlobalBudget = DefaultGlobalBudget
	}
	if logger == nil {
		logger = slog.Default()
	}
	active := make([]Client, 0, len(clients))
	for _, c := range clients {
		if c.IsConfigured() {
			active = append(active, c)
		}
	}
	return &Aggregator{
		clients:        active,
		perCallTimeout: opts.PerCallTimeout,
		globalBudget:   opts.GlobalBudget,
		logger:         logger,
	}
}

// FanoutResult is the reduced outcome of one fan-out.
type FanoutResult struct {
	// Best is the highest-severity available verdict, nil when no client
	// is enabled or none answered in time.
	Best *entity.Verdict
	// All holds one outcome per enabled client, in configuration order.
	All []entity.Verdict
	// Degraded marks that the global budget expired before every client
	// answered.
	Degraded     bool
	TotalLatency time.Duration
}

type indexedVerdict struct {
	idx     int
	verdict entity.Verdict
}

// CheckURL fans out to all enabled clients. Each call runs under its own
// deadline; the whole fan-out is additionally capped by the global budget.
// A client that errors or times out is recorded as unavailable and never
// blocks its siblings. When the global budget expires, still-pending
// clients are abandoned and marked unavailable with cause global_timeout.
func (a *Aggregator) CheckURL(ctx context.Context, targetURL string) FanoutResult {
	start := time.Now()
	if len(a.clients) == 0 {
		return FanoutResult{}
	}

	gctx, cancel := context.WithTimeout(ctx, a.globalBudget)
	defer cancel()

	resultCh := make(chan indexedVerdict, len(a.clients))
	for i, client := range a.clients {
		go func(i int, client Client) {
			callStart := time.Now()
			cctx, ccancel := context.WithTimeout(gctx, a.perCallTimeout)
			defer ccancel()

			verdict, err := client.CheckURL(cctx, targetURL)
			latency := time.Since(callStart)
			if err != nil {
				cause := err.Error()
				if errors.Is(err, context.DeadlineExceeded) {
					cause = "timeout"
				}
				a.logger.Warn("reputation provider unavailable",
					"provider", client.Name(),
					"cause", cause,
					"latency", latency,
				)
				verdict = entity.Verdict{
					Provider: client.Name(),
					Cause:    cause,
				}
			} else {
				verdict.Provider = client.Name()
				verdict.Available = true
			}
			verdict.Latency = latency

			select {
			case resultCh <- indexedVerdict{idx: i, verdict: verdict}:
			case <-gctx.Done():
			}
		}(i, client)
	}

	all := make([]entity.Verdict, len(a.clients))
	received := make([]bool, len(a.clients))
	pending := len(a.clients)
	degraded := false

collect:
	for pending > 0 {
		select {
		case r := <-resultCh:
			all[r.idx] = r.verdict
			received[r.idx] = true
			pending--
		case <-gctx.Done():
			degraded = true
			break collect
		}
	}

	if degraded {
		for i, ok := range received {
			if !ok {
				all[i] = entity.Verdict{
					Provider: a.clients[i].Name(),
					Cause:    "global_timeout",
					Latency:  time.Since(start),
				}
			}
		}
	}

	return FanoutResult{
		Best:         selectBest(all),
		All:          all,
		Degraded:     degraded,
		TotalLatency: time.Since(start),
	}
}

// selectBest picks the highest-severity available verdict. Verdicts of
// equal tier tie-break on latency, first responder wins, so the choice is
// deterministic regardless of configuration order.
func selectBest(all []entity.Verdict) *entity.Verdict {
	var best *entity.Verdict
	for i := range all {
		v := &all[i]
		if !v.Available {
			continue
		}
		switch {
		case best == nil:
			best = v
		case v.Tier.Rank() > best.Tier.Rank():
			best = v
		case v.Tier.Rank() == best.Tier.Rank() && v.Latency < best.Latency:
			best = v
		}
	}
	return best
}

// Clients returns the active client set.
func (a *Aggregator) Clients() []Client {
	return a.clients
}

// ProviderStatus describes one integrated provider.
type ProviderStatus struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
}

// Status reports the enabled state of every active client.
func (a *Aggregator) Status() []ProviderStatus {
	status := make([]ProviderStatus, 0, len(a.clients))
	for _, c := range a.clients {
		status = append(status, ProviderStatus{Name: c.Name(), Configured: c.IsConfigured()})
	}
	return status
}
