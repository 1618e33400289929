// Package server exposes the prediction API, the republished history and the
// operational endpoints over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/taixiu-oracle/internal/health"
	"github.com/yourusername/taixiu-oracle/internal/logger"
	"github.com/yourusername/taixiu-oracle/internal/models"
	"github.com/yourusername/taixiu-oracle/internal/service"
)

// Predictor is the prediction side of the API.
type Predictor interface {
	Predict(ctx context.Context) (models.PredictionResult, error)
	Latest() (service.Snapshot, error)
}

// HistoryProvider returns the rolling round buffer, newest first.
type HistoryProvider interface {
	History() []json.RawMessage
}

// Deps are the handlers' collaborators. Nil members leave their routes unmounted.
type Deps struct {
	Predictor     Predictor
	History       HistoryProvider
	Health        *health.Handler
	Stream        http.Handler
	StreamPath    string
	Metrics       http.Handler
	MetricsPath   string
	AllowedOrigin []string
	Logger        *logrus.Logger
}

// NewRouter builds the chi router with the middleware stack and every route
// whose dependency is present.
func NewRouter(deps Deps) chi.Router {
	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	origins := deps.AllowedOrigin
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(logger.NewAccessLogger(log)))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           60 * 15,
	}))

	h := &handler{predictor: deps.Predictor, history: deps.History, logger: log.WithField("component", "api")}

	r.Get("/", h.Alive)

	r.Route("/api", func(rr chi.Router) {
		if deps.Predictor != nil {
			rr.Get("/hitpro", h.Prediction)
			rr.Get("/hitpro/detail", h.Detail)
		}
		if deps.History != nil {
			rr.Get("/history", h.History)
		}
	})

	if deps.Health != nil {
		r.Get("/health", deps.Health.HandleHealth)
		r.Get("/ready", deps.Health.HandleReady)
		r.Get("/live", deps.Health.HandleLive)
	}
	if deps.Metrics != nil && deps.MetricsPath != "" {
		r.Method(http.MethodGet, deps.MetricsPath, deps.Metrics)
	}
	if deps.Stream != nil && deps.StreamPath != "" {
		r.Method(http.MethodGet, deps.StreamPath, deps.Stream)
	}
	return r
}

// Config holds the listener settings.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server wraps http.Server with start and graceful shutdown.
type Server struct {
	server *http.Server
	logger *logrus.Entry
}

// New creates a server for handler.
func New(cfg Config, handler http.Handler, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	return &Server{
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       60 * time.Second,
		},
		logger: log.WithField("component", "http"),
	}
}

// Start serves in the background. Errors other than a clean shutdown are
// delivered on the returned channel.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.server.Addr).Info("HTTP server starting")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("HTTP server error")
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down")
	return s.server.Shutdown(ctx)
}
