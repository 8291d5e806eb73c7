package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"reqfail/internal/platform/logger"
)

// JobFunc is a scheduled unit of work.
type JobFunc func(ctx context.Context) error

// JobID identifies a scheduled job.
type JobID = cron.EntryID

// OverlapPolicy decides what happens when a job is due while its previous
// run is still going.
type OverlapPolicy int

const (
	// AllowOverlap runs jobs concurrently (default).
	AllowOverlap OverlapPolicy = iota
	// SkipIfRunning drops the run.
	SkipIfRunning
	// DelayIfRunning waits for the previous run to finish.
	DelayIfRunning
)

func (p OverlapPolicy) String() string {
	switch p {
	case SkipIfRunning:
		return "skip"
	case DelayIfRunning:
		return "delay"
	default:
		return "allow"
	}
}

// JobOptions configures a job.
type JobOptions struct {
	// Name is used in logs and hooks.
	Name string
	// Timeout bounds a single run (optional).
	Timeout       time.Duration
	OverlapPolicy OverlapPolicy
	// RunOnStart also runs the job once when the scheduler starts.
	RunOnStart bool
}

// JobHooks are optional observability callbacks.
type JobHooks struct {
	OnJobStart  func(jobName string)
	OnJobFinish func(jobName string, duration time.Duration, err error)
}

// Config holds scheduler configuration.
type Config struct {
	Logger   *slog.Logger
	JobHooks JobHooks
}

type job struct {
	fn   JobFunc
	opts JobOptions
}

// Scheduler runs jobs on cron schedules. Schedules use the standard five
// field syntax and descriptors such as "@every 30s" or "@hourly".
type Scheduler struct {
	cron   *cron.Cron
	log    *slog.Logger
	hooks  JobHooks
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	onStart   []*job
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// New creates a scheduler whose jobs see a context derived from parent.
func New(parent context.Context, cfg Config) *Scheduler {
	ctx, cancel := context.WithCancel(parent)

	l := cfg.Logger
	if l == nil {
		l = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cronLogger{l.With("component", "cron")})),
		log:    l,
		hooks:  cfg.JobHooks,
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddJob schedules fn on spec.
func (s *Scheduler) AddJob(spec string, fn JobFunc, opts JobOptions) (JobID, error) {
	if opts.Name == "" {
		opts.Name = "unnamed"
	}
	j := &job{fn: fn, opts: opts}

	cl := cronLogger{s.log}
	var chain cron.Chain
	switch opts.OverlapPolicy {
	case SkipIfRunning:
		chain = cron.NewChain(cron.SkipIfStillRunning(cl))
	case DelayIfRunning:
		chain = cron.NewChain(cron.DelayIfStillRunning(cl))
	default:
		chain = cron.NewChain()
	}

	id, err := s.cron.AddJob(spec, chain.Then(cron.FuncJob(func() { s.run(j) })))
	if err != nil {
		return 0, fmt.Errorf("schedule %q: %w", opts.Name, err)
	}
	if opts.RunOnStart {
		s.mu.Lock()
		s.onStart = append(s.onStart, j)
		s.mu.Unlock()
	}
	s.log.Info("job scheduled", "name", opts.Name, "schedule", spec, "overlap_policy", opts.OverlapPolicy.String(), "id", id)
	return id, nil
}

// Remove unschedules a job. A run in progress finishes.
func (s *Scheduler) Remove(id JobID) {
	s.cron.Remove(id)
}

// Next reports when the job runs next, or the zero time if it is unknown
// or the scheduler is not started.
func (s *Scheduler) Next(id JobID) time.Time {
	return s.cron.Entry(id).Next
}

// Start starts the scheduler. It stops on its own when the parent context
// is done.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		s.cron.Start()

		s.mu.Lock()
		initial := s.onStart
		s.onStart = nil
		s.mu.Unlock()
		for _, j := range initial {
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.run(j)
			}()
		}

		go func() {
			<-s.ctx.Done()
			s.stopOnce.Do(s.stop)
		}()
		s.log.Info("scheduler started")
	})
}

// Stop cancels running jobs and waits for them.
func (s *Scheduler) Stop() {
	s.cancel()
	s.stopOnce.Do(s.stop)
}

// StopContext is Stop bounded by ctx. Shutdown still completes when ctx
// expires first, but ctx's error is returned.
func (s *Scheduler) StopContext(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.stopOnce.Do(s.stop)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.log.Warn("scheduler stop deadline exceeded, waiting for jobs")
		<-done
		return ctx.Err()
	}
}

func (s *Scheduler) stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) run(j *job) {
	name := j.opts.Name
	if s.hooks.OnJobStart != nil {
		s.hooks.OnJobStart(name)
	}

	ctx := s.ctx
	if j.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := safeRun(ctx, j.fn)
	dur := time.Since(start)

	if s.hooks.OnJobFinish != nil {
		s.hooks.OnJobFinish(name, dur, err)
	}
	if err != nil {
		s.log.Error("job failed", slog.String("name", name), slog.Duration("dur", dur), logger.Failure(err))
		return
	}
	s.log.Debug("job done", "name", name, "dur", dur)
}

func safeRun(ctx context.Context, fn JobFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}
