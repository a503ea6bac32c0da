// Package health serves the probes an orchestrator polls: liveness, readiness
// backed by named dependency checks, and a status document describing how the
// node is configured.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"starbeam/pkg/platform/httputil"
)

// Version is set at build time via ldflags.
var Version = "dev"

// CheckFunc probes one dependency and returns nil when it is usable.
type CheckFunc func(ctx context.Context) error

type Option func(*Handler)

// WithDetail adds a static key to the status document, e.g. the proof mode.
func WithDetail(key, value string) Option {
	return func(h *Handler) { h.details[key] = value }
}

// WithCheckTimeout bounds every readiness probe. Defaults to two seconds.
func WithCheckTimeout(d time.Duration) Option {
	return func(h *Handler) { h.checkTimeout = d }
}

type Handler struct {
	started      time.Time
	environment  string
	checkTimeout time.Duration
	details      map[string]string

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

func New(environment string, opts ...Option) *Handler {
	h := &Handler{
		started:      time.Now(),
		environment:  environment,
		checkTimeout: 2 * time.Second,
		details:      map[string]string{},
		checks:       map[string]CheckFunc{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterCheck adds a named readiness check, e.g. the ledger ping.
func (h *Handler) RegisterCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleStatus)
	r.Get("/health/live", h.HandleLiveness)
	r.Get("/health/ready", h.HandleReadiness)
}

type LivenessResponse struct {
	Status string `json:"status"`
}

func (h *Handler) HandleLiveness(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, LivenessResponse{Status: "alive"})
}

type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
	Failed []string          `json:"failed,omitempty"`
}

// HandleReadiness probes every dependency in parallel and answers 503 if any
// of them is down.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	resp := h.probe(r.Context())
	status := http.StatusOK
	if len(resp.Failed) > 0 {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, resp)
}

func (h *Handler) probe(ctx context.Context) ReadinessResponse {
	h.mu.RLock()
	checks := make(map[string]CheckFunc, len(h.checks))
	for name, check := range h.checks {
		checks[name] = check
	}
	h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, h.checkTimeout)
	defer cancel()

	resp := ReadinessResponse{Status: "ready", Checks: make(map[string]string, len(checks))}
	var mu sync.Mutex
	var wg sync.WaitGroup
	for name, check := range checks {
		wg.Go(func() {
			result := "up"
			if err := check(ctx); err != nil {
				result = "down: " + err.Error()
			}
			mu.Lock()
			resp.Checks[name] = result
			if result != "up" {
				resp.Failed = append(resp.Failed, name)
			}
			mu.Unlock()
		})
	}
	wg.Wait()

	if len(resp.Failed) > 0 {
		resp.Status = "not_ready"
		sort.Strings(resp.Failed)
	}
	return resp
}

type StatusResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	Environment   string            `json:"environment"`
	Details       map[string]string `json:"details,omitempty"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Timestamp     string            `json:"timestamp"`
}

func (h *Handler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		Status:        "healthy",
		Version:       Version,
		Environment:   h.environment,
		Details:       h.details,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	})
}
