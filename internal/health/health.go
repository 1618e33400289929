// Package health serves liveness and readiness probes.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Checker reports whether one dependency of the service is ready.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

type checkerFunc struct {
	name string
	fn   func(ctx context.Context) error
}

func (c checkerFunc) Name() string                    { return c.name }
func (c checkerFunc) Check(ctx context.Context) error { return c.fn(ctx) }

// CheckerFunc wraps fn as a named Checker.
func CheckerFunc(name string, fn func(ctx context.Context) error) Checker {
	return checkerFunc{name: name, fn: fn}
}

// ReadyFunc builds a Checker from a boolean probe.
func ReadyFunc(name string, ready func() bool) Checker {
	return CheckerFunc(name, func(context.Context) error {
		if !ready() {
			return errors.New("not ready")
		}
		return nil
	})
}

// Any passes when at least one of checkers passes.
func Any(name string, checkers ...Checker) Checker {
	return CheckerFunc(name, func(ctx context.Context) error {
		failures := make([]string, 0, len(checkers))
		for _, c := range checkers {
			err := c.Check(ctx)
			if err == nil {
				return nil
			}
			failures = append(failures, fmt.Sprintf("%s: %v", c.Name(), err))
		}
		if len(failures) == 0 {
			return errors.New("no checks configured")
		}
		return errors.New(strings.Join(failures, "; "))
	})
}

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp,omitempty"`
	Version   string `json:"version,omitempty"`
	Uptime    string `json:"uptime,omitempty"`
}

// ReadyResponse represents the JSON response for readiness check endpoints.
type ReadyResponse struct {
	Status   string            `json:"status"`
	Service  string            `json:"service"`
	Checks   map[string]string `json:"checks,omitempty"`
	Duration string            `json:"duration,omitempty"`
}

// Config holds the configuration for the health handler.
type Config struct {
	ServiceName  string
	Version      string
	CheckTimeout time.Duration
	Logger       *logrus.Logger
}

// Handler serves /health, /ready and /live.
type Handler struct {
	serviceName string
	version     string
	timeout     time.Duration
	started     time.Time
	logger      *logrus.Entry

	mu       sync.RWMutex
	checkers []Checker
	draining bool
}

// NewHandler creates a health handler.
func NewHandler(cfg Config) *Handler {
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	timeout := cfg.CheckTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Handler{
		serviceName: cfg.ServiceName,
		version:     cfg.Version,
		timeout:     timeout,
		started:     time.Now(),
		logger:      log.WithField("component", "health"),
	}
}

// AddChecker registers a readiness check. Every check must pass.
func (h *Handler) AddChecker(c Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers = append(h.checkers, c)
}

// SetDraining makes /ready fail while the process shuts down.
func (h *Handler) SetDraining(draining bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.draining = draining
}

// HandleHealth handles the /health endpoint - basic liveness check.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   h.serviceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
	})
}

// HandleLive handles the /live endpoint - kubernetes liveness probe.
func (h *Handler) HandleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Service: h.serviceName})
}

// HandleReady handles the /ready endpoint.
func (h *Handler) HandleReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	checks, ready := h.Evaluate(r.Context())

	response := ReadyResponse{
		Status:   "ok",
		Service:  h.serviceName,
		Checks:   checks,
		Duration: time.Since(start).String(),
	}
	status := http.StatusOK
	if !ready {
		response.Status = "not_ready"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

// Evaluate runs every checker and reports the per-check status.
func (h *Handler) Evaluate(ctx context.Context) (map[string]string, bool) {
	h.mu.RLock()
	checkers := append([]Checker(nil), h.checkers...)
	draining := h.draining
	h.mu.RUnlock()

	checks := make(map[string]string, len(checkers)+1)
	ready := true
	if draining {
		checks["service"] = "draining"
		ready = false
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	for _, c := range checkers {
		if err := c.Check(ctx); err != nil {
			checks[c.Name()] = fmt.Sprintf("error: %v", err)
			ready = false
			h.logger.WithFields(logrus.Fields{"check": c.Name(), "error": err.Error()}).Debug("Readiness check failed")
			continue
		}
		checks[c.Name()] = "ok"
	}
	return checks, ready
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
