package httptransport

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"

	accounthandler "starbeam/internal/account/handler"
	"starbeam/internal/platform/health"
	registryhandler "starbeam/internal/registry/handler"
	"starbeam/pkg/platform/middleware/auth"
	"starbeam/pkg/platform/middleware/request"
	"starbeam/pkg/platform/ratelimit"
)

// Dependencies is everything the router mounts. Nil metrics or limiter
// disable the corresponding middleware.
type Dependencies struct {
	Logger         *slog.Logger
	Accounts       *accounthandler.Handler
	Registry       *registryhandler.Handler
	Health         *health.Handler
	TokenValidator auth.JWTValidator

	ProvisionLimiter *ratelimit.KeyLimiter
	RequestMetrics   *request.Metrics
	MetricsHandler   http.Handler

	RequestTimeout time.Duration
	MaxBodyBytes   int64
	TrustedProxies []netip.Prefix
}

// NewRouter wires the public endpoints behind the shared middleware stack.
func NewRouter(d Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(d.Logger))
	r.Use(request.RequestID)
	r.Use(request.RequestTime)
	r.Use(request.ClientMetadata(d.TrustedProxies))
	r.Use(request.Logger(d.Logger))
	r.Use(request.Latency(d.RequestMetrics))
	if d.RequestTimeout > 0 {
		r.Use(request.Timeout(d.RequestTimeout))
	}
	if d.MaxBodyBytes > 0 {
		r.Use(request.BodyLimit(d.MaxBodyBytes))
	}
	r.Use(request.ContentTypeJSON)

	if d.Health != nil {
		d.Health.Register(r)
	}
	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	d.Registry.Register(r, ratelimit.Middleware(d.ProvisionLimiter, d.Logger))
	d.Accounts.Register(r, auth.RequirePrincipal(d.TokenValidator, d.Logger))

	return r
}
