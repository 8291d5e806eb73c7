// Package scheduler runs background jobs on cron schedules using
// github.com/robfig/cron/v3.
//
// Features:
//   - Standard cron specs and descriptors ("@every 30s", "@hourly")
//   - Overlap control per job (Allow/Skip/Delay)
//   - Per-job timeouts, optional run on start
//   - Parent context for lifecycle, graceful StopContext
//   - Panic recovery, slog logging, optional hooks
//
// Usage:
//
//	s := scheduler.New(ctx, scheduler.Config{Logger: log})
//	_, err := s.AddJob("@every 30s", func(ctx context.Context) error {
//		prober.Run(ctx)
//		return nil
//	}, scheduler.JobOptions{Name: "probe", OverlapPolicy: scheduler.SkipIfRunning, RunOnStart: true})
//	s.Start()
//	defer s.Stop()
//
// Failed runs are logged with their request failure category when the
// error has one.
package scheduler
