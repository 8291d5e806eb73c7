// Package probe requests a set of targets and records how each request
// failed, by failure category and kind.
package probe

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"reqfail/internal/platform/httpclient"
	"reqfail/internal/platform/logger"
	"reqfail/pkg/failure"
)

// Outcome labels.
const (
	OutcomeOK      = "ok"
	OutcomeStatus  = "status"
	OutcomeFailure = "failure"
)

// Fetcher issues the probe request.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) (*http.Response, error)
	ReadBody(resp *http.Response) ([]byte, error)
}

// Result is the outcome of one probe of one target.
type Result struct {
	Target   string        `json:"target"`
	At       time.Time     `json:"at"`
	Duration time.Duration `json:"duration"`
	Outcome  string        `json:"outcome"`
	Status   int           `json:"status,omitempty"`
	Category string        `json:"category,omitempty"`
	Kind     string        `json:"kind,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// Prober probes its targets concurrently and keeps the latest result of
// each.
type Prober struct {
	fetcher Fetcher
	targets []string
	metrics *Metrics
	log     *slog.Logger
	limit   int

	mu     sync.RWMutex
	latest map[string]Result
}

// Option configures Prober.
type Option func(*Prober)

// WithLogger sets logger used by prober.
func WithLogger(l *slog.Logger) Option {
	return func(p *Prober) {
		if l != nil {
			p.log = l
		}
	}
}

// WithConcurrency limits how many targets are probed at once.
func WithConcurrency(n int) Option {
	return func(p *Prober) {
		if n > 0 {
			p.limit = n
		}
	}
}

// New creates a Prober for targets.
func New(f Fetcher, targets []string, m *Metrics, opts ...Option) *Prober {
	p := &Prober{
		fetcher: f,
		targets: slices.Clone(targets),
		metrics: m,
		log:     slog.Default(),
		limit:   8,
		latest:  make(map[string]Result, len(targets)),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Targets returns the probed URLs.
func (p *Prober) Targets() []string {
	return slices.Clone(p.targets)
}

// Run probes every target once and returns the results in target order.
func (p *Prober) Run(ctx context.Context) []Result {
	if p.metrics != nil {
		p.metrics.Bound.Set(float64(failure.Default().Bound()))
	}

	results := make([]Result, len(p.targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.limit)
	for i, target := range p.targets {
		g.Go(func() error {
			results[i] = p.Probe(gctx, target)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Probe requests target once, reads the body and records the outcome.
func (p *Prober) Probe(ctx context.Context, target string) Result {
	start := time.Now()
	res := Result{Target: target, At: start, Outcome: OutcomeOK}

	resp, err := p.fetcher.Get(ctx, target)
	if err == nil {
		res.Status = resp.StatusCode
		_, err = p.fetcher.ReadBody(resp)
	}
	res.Duration = time.Since(start)

	// Retries that ran out on a status still got an answer.
	var se *httpclient.StatusError
	if errors.As(err, &se) {
		res.Status = se.Code
		err = nil
	}

	switch {
	case err != nil:
		res.Outcome = OutcomeFailure
		res.Error = err.Error()
		c, k := failure.Classify(err)
		res.Category, res.Kind = c.String(), string(k)
		p.log.Warn("probe failed", slog.String("target", target), slog.Duration("dur", res.Duration), logger.Failure(err))
	case res.Status >= http.StatusBadRequest:
		res.Outcome = OutcomeStatus
		p.log.Info("probe answered with error status", slog.String("target", target), slog.Int("status", res.Status))
	default:
		p.log.Debug("probe ok", slog.String("target", target), slog.Int("status", res.Status), slog.Duration("dur", res.Duration))
	}

	p.record(res)
	return res
}

func (p *Prober) record(res Result) {
	if p.metrics != nil {
		p.metrics.Requests.WithLabelValues(res.Target, res.Outcome).Inc()
		p.metrics.Duration.WithLabelValues(res.Target).Observe(res.Duration.Seconds())
		if res.Outcome == OutcomeFailure {
			p.metrics.Failures.WithLabelValues(res.Target, res.Category, res.Kind).Inc()
		}
	}

	p.mu.Lock()
	p.latest[res.Target] = res
	p.mu.Unlock()
}

// ErrNoResult is returned by Latest for a target that was never probed.
var ErrNoResult = errors.New("probe: no result yet")

// Latest returns the most recent result for target.
func (p *Prober) Latest(target string) (Result, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	res, ok := p.latest[target]
	if !ok {
		return Result{}, ErrNoResult
	}
	return res, nil
}

// Results returns the most recent result of every probed target, in
// target order.
func (p *Prober) Results() []Result {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Result, 0, len(p.latest))
	for _, t := range p.targets {
		if res, ok := p.latest[t]; ok {
			out = append(out, res)
		}
	}
	return out
}
