package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/backend-bits/saas-backend/pkg/handler"
	"github.com/backend-bits/saas-backend/pkg/httpserver"
	"github.com/backend-bits/saas-backend/pkg/identity"
	"github.com/backend-bits/saas-backend/pkg/metrics"
	"github.com/backend-bits/saas-backend/pkg/ratelimiter"
	"github.com/backend-bits/saas-backend/pkg/requestid"
	"github.com/backend-bits/saas-backend/svc/access"
	"github.com/backend-bits/saas-backend/svc/billing"
)

// Options wires the router's collaborators. Ledger, Gate and Verifier are
// required; Limiter and Metrics are optional.
type Options struct {
	Config   Config
	Ledger   *billing.Ledger
	Gate     *access.Gate
	Verifier identity.Verifier
	Limiter  *ratelimiter.Limiter
	Metrics  *metrics.Recorder
	Logger   *slog.Logger

	// Checks are probed by /ready and reported by /health.
	Checks map[string]httpserver.Check
	// SignatureHeader carries the webhook signature.
	SignatureHeader string
}

type server struct {
	cfg             Config
	ledger          *billing.Ledger
	gate            *access.Gate
	limiter         *ratelimiter.Limiter
	checks          map[string]httpserver.Check
	signatureHeader string
	log             *slog.Logger
	errorHandler    handler.ErrorHandler[handler.Context]
}

// NewRouter builds the service router.
//
//	r := api.NewRouter(api.Options{
//	    Ledger:   ledger,
//	    Gate:     access.NewGate(order),
//	    Verifier: verifier,
//	})
//	srv.Run(ctx, r)
func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	sigHeader := opts.SignatureHeader
	if sigHeader == "" {
		sigHeader = billing.LocalSignatureHeader
	}

	mappers := ErrorMappers()
	writeErr := errorWriter(log, mappers)

	s := &server{
		cfg:             opts.Config,
		ledger:          opts.Ledger,
		gate:            opts.Gate,
		limiter:         opts.Limiter,
		checks:          opts.Checks,
		signatureHeader: sigHeader,
		log:             log,
		errorHandler:    handler.NewErrorHandler(log, mappers...),
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware(routePattern))
	}
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   opts.Config.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", requestid.Header},
		ExposedHeaders:   []string{requestid.Header, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, r, handler.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, r, handler.ErrMethodNotAllowed)
	})

	r.Get("/", handler.Wrap(s.banner, handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler)))
	r.Get("/health", handler.Wrap(s.health, handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler)))
	r.Get("/ready", httpserver.ReadinessHandler(log, opts.Checks))
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics.Handler())
	}

	r.Post("/webhooks/payments", handler.Wrap(s.webhook, handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler)))

	r.Route("/api", func(r chi.Router) {
		r.Get("/plans", handler.Wrap(s.plans, handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler)))

		r.Group(func(r chi.Router) {
			r.Use(identity.Middleware(opts.Verifier, writeErr))
			if opts.Config.ReconcileTier {
				r.Use(access.Reconcile(opts.Gate.Ordering(), opts.Ledger, writeErr))
			}
			if opts.Limiter != nil {
				r.Use(ratelimiter.Middleware(opts.Limiter, s.quota, writeErr))
			}

			r.Get("/profile", handler.Wrap(s.profile, handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler)))
			r.Get("/dashboard", handler.Wrap(s.dashboard, handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler)))

			r.Route("/payments", func(r chi.Router) {
				r.Post("/create-order", handler.Wrap(s.createOrder,
					handler.WithBinders[handler.Context, CreateOrderRequest](handler.BindJSON()),
					handler.WithErrorHandler[handler.Context, CreateOrderRequest](s.errorHandler),
				))
				r.Post("/verify", handler.Wrap(s.verifyPayment,
					handler.WithBinders[handler.Context, VerifyPaymentRequest](handler.BindJSON()),
					handler.WithErrorHandler[handler.Context, VerifyPaymentRequest](s.errorHandler),
				))
				r.Get("/orders", handler.Wrap(s.listOrders, handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler)))
				r.Get("/orders/{orderID}", handler.Wrap(s.getOrder,
					handler.WithBinders[handler.Context, OrderRequest](handler.BindPath(chi.URLParam)),
					handler.WithErrorHandler[handler.Context, OrderRequest](s.errorHandler),
				))
			})

			var hooks []access.DenyHook
			if opts.Metrics != nil {
				hooks = append(hooks, func(_ context.Context, err *access.AuthorizationError) {
					opts.Metrics.AccessDenied(err.Reason)
				})
			}
			hooks = append(hooks, func(ctx context.Context, err *access.AuthorizationError) {
				log.InfoContext(ctx, "access denied",
					slog.String("caller_tier", string(err.Caller)),
					slog.String("required_tier", string(err.Required)),
					slog.String("reason", err.Reason),
				)
			})

			r.With(access.RequireTier(opts.Gate, access.Pro, writeErr, hooks...)).
				Get("/premium/content", handler.Wrap(s.premiumContent, handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler)))
			r.With(access.RequireTier(opts.Gate, access.Starter, writeErr, hooks...)).
				Get("/analytics/usage", handler.Wrap(s.analytics, handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler)))
		})
	})

	return r
}

// quota resolves the caller's plan limit for the rate limiter.
func (s *server) quota(r *http.Request) (string, int64, bool) {
	claims, ok := identity.ClaimsFromContext(r.Context())
	if !ok {
		return "", 0, false
	}
	return claims.Subject, s.planLimit(access.ParseTier(claims.Tier)), true
}

func (s *server) planLimit(tier access.Tier) int64 {
	limit, ok := s.ledger.Catalog().Limits(tier)[s.cfg.QuotaLimit]
	if !ok {
		return ratelimiter.Unlimited
	}
	return limit
}

// usage reports the caller's quota window; zero when limiting is off.
func (s *server) usage(ctx context.Context, userID string, tier access.Tier) (ratelimiter.Result, error) {
	limit := s.planLimit(tier)
	if s.limiter == nil {
		return ratelimiter.Result{Limit: limit}, nil
	}
	return s.limiter.Usage(ctx, userID, limit)
}
