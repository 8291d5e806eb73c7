package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"reqfail/internal/adapter/httpapi"
	"reqfail/internal/adapter/probe"
	"reqfail/internal/adapter/scheduler"
	"reqfail/internal/config"
	"reqfail/internal/platform/httpclient"
	"reqfail/internal/platform/logger"
	"reqfail/pkg/failure"
	"reqfail/pkg/failure/tlsfailure"
)

// App wires application components.
type App struct {
	cfg config.Config
	log *slog.Logger
}

// New creates a new App instance and loads configuration.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Options{
		Env:          cfg.Env,
		ConsoleLevel: cfg.Log.ConsoleLevel,
		FileLevel:    cfg.Log.FileLevel,
		File:         cfg.Log.File,
		App:          "reqprobe",
	})
	return &App{cfg: cfg, log: log}, nil
}

// Run probes the configured targets on schedule and serves the
// introspection API until SIGINT or SIGTERM.
func (a *App) Run() error {
	defer logger.Close(a.log)

	if a.cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	if a.cfg.Probe.TLS {
		tlsfailure.Enable()
	}
	a.log.Info("starting",
		slog.Int("bound", failure.Default().Bound()),
		slog.Bool("tls", tlsfailure.Loaded()),
		slog.Int("targets", len(a.cfg.Probe.Targets)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	client := httpclient.New(
		httpclient.WithLogger(a.log),
		httpclient.WithTimeout(a.cfg.Probe.Timeout),
		httpclient.WithRetries(a.cfg.Probe.Retries, 0),
		httpclient.WithHeaders(map[string]string{"User-Agent": "reqprobe"}),
	)
	prober := probe.New(client, a.cfg.Probe.Targets, probe.NewMetrics(reg), probe.WithLogger(a.log))

	sched := scheduler.New(ctx, scheduler.Config{Logger: a.log})
	if len(a.cfg.Probe.Targets) > 0 {
		_, err := sched.AddJob(a.cfg.Probe.Schedule, func(ctx context.Context) error {
			prober.Run(ctx)
			return nil
		}, scheduler.JobOptions{
			Name:          "probe",
			OverlapPolicy: scheduler.SkipIfRunning,
			RunOnStart:    true,
		})
		if err != nil {
			return err
		}
	} else {
		a.log.Warn("no probe targets configured, serving the API only")
	}
	sched.Start()

	r := httpapi.NewRouter(httpapi.Options{
		Results:  prober,
		Gatherer: reg,
		Logger:   a.log,
	})
	srv := &http.Server{Addr: a.cfg.HTTP.Addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http server listening", slog.String("addr", a.cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		a.log.Error("server", slog.Any("err", runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sched.StopContext(shutdownCtx); err != nil {
		a.log.Warn("scheduler shutdown", slog.Any("err", err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	a.log.Info("stopped")
	return runErr
}
