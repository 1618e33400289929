// Package app wires configuration, sources, the prediction service, the
// collector and the HTTP surface into a runnable process.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/taixiu-oracle/internal/collector"
	"github.com/yourusername/taixiu-oracle/internal/config"
	"github.com/yourusername/taixiu-oracle/internal/datasource"
	"github.com/yourusername/taixiu-oracle/internal/health"
	"github.com/yourusername/taixiu-oracle/internal/metrics"
	"github.com/yourusername/taixiu-oracle/internal/predictor"
	"github.com/yourusername/taixiu-oracle/internal/scheduler"
	"github.com/yourusername/taixiu-oracle/internal/server"
	"github.com/yourusername/taixiu-oracle/internal/service"
	"github.com/yourusername/taixiu-oracle/internal/stream"
)

const shutdownTimeout = 10 * time.Second

// Options selects which parts of the process run.
type Options struct {
	// Predictor mounts the prediction API.
	Predictor bool
	// Collector runs the rolling history collector when it is enabled in config.
	Collector bool
	Version   string
}

// App is a fully wired process.
type App struct {
	cfg    *config.Config
	logger *logrus.Logger

	service   *service.PredictionService
	collector *collector.Collector
	scheduler *scheduler.Scheduler
	hub       *stream.Hub
	health    *health.Handler
	handler   http.Handler
	server    *server.Server
}

// NewEngine builds the ensemble from configuration. A non-zero seed makes the
// random fallbacks reproducible.
func NewEngine(cfg *config.Config) *predictor.Engine {
	var opts []predictor.Option
	if cfg.Ensemble.Seed != 0 {
		opts = append(opts, predictor.WithSeed(cfg.Ensemble.Seed))
	}
	return predictor.NewEngine(cfg.PredictorConfig(), opts...)
}

// NewPredictionService builds the prediction service against the configured upstream.
func NewPredictionService(cfg *config.Config, log *logrus.Logger) (*service.PredictionService, error) {
	source, err := datasource.NewFactory(cfg, log).NewHistorySource()
	if err != nil {
		return nil, fmt.Errorf("failed to create history source: %w", err)
	}
	return service.NewPredictionService(source, NewEngine(cfg), service.PredictionServiceConfig{
		HistoryLimit:  cfg.Upstream.HistoryLimit,
		PatternLength: cfg.Upstream.PatternLength,
	}, log), nil
}

// New wires the process described by cfg and opts.
func New(cfg *config.Config, log *logrus.Logger, opts Options) (*App, error) {
	if !opts.Predictor && !(opts.Collector && cfg.Collector.Enabled) {
		return nil, errors.New("nothing to run: prediction API and collector are both disabled")
	}
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	a := &App{
		cfg:    cfg,
		logger: log,
		health: health.NewHandler(health.Config{ServiceName: cfg.App.Name, Version: opts.Version, Logger: log}),
	}

	deps := server.Deps{
		Health:        a.health,
		AllowedOrigin: cfg.Server.CORSAllowedOrigins,
		Logger:        log,
	}
	var readiness []health.Checker

	if opts.Predictor {
		svc, err := NewPredictionService(cfg, log)
		if err != nil {
			return nil, err
		}
		a.service = svc
		deps.Predictor = svc
		readiness = append(readiness, health.ReadyFunc("prediction", svc.Ready))

		if cfg.Stream.Enabled {
			a.hub = stream.NewHub(cfg.Server.CORSAllowedOrigins, log)
			svc.OnUpdate(func(s service.Snapshot) {
				if err := a.hub.Broadcast(s.Result); err != nil {
					log.WithError(err).Warn("Failed to broadcast prediction")
				}
			})
			deps.Stream = a.hub
			deps.StreamPath = cfg.Stream.Path
		}
	}

	if opts.Collector && cfg.Collector.Enabled {
		source, err := datasource.NewFactory(cfg, log).NewRecordSource()
		if err != nil {
			return nil, fmt.Errorf("failed to create collector source: %w", err)
		}
		a.collector = collector.NewCollector(source, collector.NewBuffer(cfg.Collector.Capacity), log)
		a.scheduler = scheduler.NewScheduler(log)
		if err := a.collector.Schedule(a.scheduler, cfg.CollectorInterval()); err != nil {
			return nil, fmt.Errorf("failed to schedule collector: %w", err)
		}
		deps.History = a.collector
		readiness = append(readiness, health.ReadyFunc("collector", a.collector.Ready))
	}

	a.health.AddChecker(health.Any("data", readiness...))

	if cfg.Metrics.Enabled {
		deps.Metrics = metrics.Handler()
		deps.MetricsPath = cfg.Metrics.Path
	}

	a.handler = server.NewRouter(deps)
	a.server = server.New(server.Config{
		Addr:         cfg.ListenAddress(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}, a.handler, log)
	return a, nil
}

// Handler returns the HTTP handler of the process.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Service returns the prediction service, or nil when the API is not mounted.
func (a *App) Service() *service.PredictionService {
	return a.service
}

// Collector returns the collector, or nil when it does not run.
func (a *App) Collector() *collector.Collector {
	return a.collector
}

// Run serves until ctx is cancelled or the listener fails, then shuts every
// component down.
func (a *App) Run(ctx context.Context) error {
	if a.collector != nil {
		// Fill the buffer before the first tick.
		if err := a.collector.Poll(ctx); err != nil {
			a.logger.WithError(err).Warn("Initial collector poll failed")
		}
		if err := a.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	errCh := a.server.Start()
	a.logger.WithFields(logrus.Fields{
		"addr":      a.cfg.ListenAddress(),
		"predictor": a.service != nil,
		"collector": a.collector != nil,
		"stream":    a.hub != nil,
	}).Info("Service started")

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("Shutdown requested")
	case err, ok := <-errCh:
		if ok {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	a.shutdown()
	return runErr
}

func (a *App) shutdown() {
	a.health.SetDraining(true)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.hub != nil {
		a.hub.Close()
	}
	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.WithError(err).Error("Error during HTTP server shutdown")
	}
	if a.scheduler != nil {
		if err := a.scheduler.Stop(); err != nil {
			a.logger.WithError(err).Error("Error stopping scheduler")
		}
	}
	a.logger.Info("Service stopped")
}
