package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"reliefledger/internal/admin"
	"reliefledger/internal/ratelimit"
	"reliefledger/internal/registry"
	"reliefledger/internal/registry/handler"
	"reliefledger/internal/registry/service"
	"reliefledger/pkg/platform/httputil"
	authmw "reliefledger/pkg/platform/middleware/auth"
	request "reliefledger/pkg/platform/middleware/request"
	"reliefledger/pkg/platform/middleware/requesttime"
)

const requestTimeout = 30 * time.Second

// HealthCheck reports the readiness of one backing dependency.
type HealthCheck func(ctx context.Context) error

// Deps are the collaborators NewRouter wires into routes.
type Deps struct {
	Logger         *slog.Logger
	Ledgers        *registry.Ledgers
	ServiceOptions []service.Option
	Validator      authmw.TokenValidator
	// Revocation may be nil, which disables the revocation lookup.
	Revocation authmw.RevocationChecker
	// RateLimiter may be nil, which disables per-actor limits.
	RateLimiter *ratelimit.Limiter
	Admin       *admin.Handler
	Metrics     http.Handler
	Health      map[string]HealthCheck
}

// NewRouter wires every public endpoint. Registry routes require a bearer
// token; admin routes require the admin token.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.Recovery(d.Logger))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(d.Logger))
	r.Use(chimw.Timeout(requestTimeout))

	r.Get("/healthz", healthHandler(d.Health))
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}
	if d.Admin != nil {
		d.Admin.Register(r)
	}

	r.Group(func(g chi.Router) {
		g.Use(request.ContentTypeJSON)
		g.Use(authmw.RequireActor(d.Validator, d.Revocation, d.Logger))
		if d.RateLimiter != nil {
			g.Use(ratelimit.Middleware(d.RateLimiter, d.Logger))
		}

		handler.New(service.New(d.Ledgers.Equipment, d.ServiceOptions...), registry.ToEquipmentRecord, d.Logger).
			Register(g, "/equipment")
		handler.New(service.New(d.Ledgers.Deployments, d.ServiceOptions...), registry.ToDeploymentRecord, d.Logger).
			Register(g, "/deployments")
		handler.New(service.New(d.Ledgers.Returns, d.ServiceOptions...), registry.ToReturnRecord, d.Logger).
			Register(g, "/returns")
	})
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			for name, check := range checks {
				if err := check(ctx); err != nil {
					resp.Checks[name] = err.Error()
					resp.Status = "degraded"
					status = http.StatusServiceUnavailable
					continue
				}
				resp.Checks[name] = "ok"
			}
		}
		httputil.WriteJSON(w, status, resp)
	}
}
