package gate

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jobbyai/planguard/pkg/entitlement"
	"github.com/jobbyai/planguard/pkg/httpserver"
	"github.com/jobbyai/planguard/pkg/logger"
	"github.com/jobbyai/planguard/pkg/metrics"
	"github.com/jobbyai/planguard/pkg/plans"
	"github.com/jobbyai/planguard/pkg/usage"
)

// Entitlements decides and records feature usage. *entitlement.Checker
// implements it.
type Entitlements interface {
	CheckAndReserve(ctx context.Context, userID string, feature plans.Feature) (*entitlement.Result, error)
	Summary(ctx context.Context, userID string) (*entitlement.Summary, error)
	Refund(ctx context.Context, userID string, feature plans.Feature, units int64, reason string) (usage.Credit, error)
}

// Webhooks applies billing provider notifications. *subscription.Service
// implements it.
type Webhooks interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// Config holds the gate's HTTP tuning knobs.
type Config struct {
	WebhookMaxBytes  int64         `env:"WEBHOOK_MAX_BYTES" envDefault:"1048576"`
	ReadinessTimeout time.Duration `env:"READINESS_TIMEOUT" envDefault:"2s"`
}

// Server wires the gate's routes to the domain services.
type Server struct {
	catalog      *plans.Catalog
	entitlements Entitlements
	webhooks     Webhooks

	log              *slog.Logger
	registry         *prometheus.Registry
	metrics          *metrics.HTTP
	checks           []httpserver.Check
	webhookMaxBytes  int64
	readinessTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics instruments every route and serves registry on /metrics.
func WithMetrics(registry *prometheus.Registry) Option {
	return func(s *Server) {
		if registry != nil {
			s.registry = registry
			s.metrics = metrics.NewHTTP(registry)
		}
	}
}

// WithReadinessChecks adds dependencies probed by /readyz.
func WithReadinessChecks(checks ...httpserver.Check) Option {
	return func(s *Server) { s.checks = append(s.checks, checks...) }
}

// WithConfig applies cfg. Zero values keep the defaults.
func WithConfig(cfg Config) Option {
	return func(s *Server) {
		if cfg.WebhookMaxBytes > 0 {
			s.webhookMaxBytes = cfg.WebhookMaxBytes
		}
		if cfg.ReadinessTimeout > 0 {
			s.readinessTimeout = cfg.ReadinessTimeout
		}
	}
}

// New creates a Server. webhooks may be nil when billing is disabled.
// Panics if catalog or entitlements is nil.
func New(catalog *plans.Catalog, entitlements Entitlements, webhooks Webhooks, opts ...Option) *Server {
	if catalog == nil || entitlements == nil {
		panic("gate: catalog and entitlements are required")
	}

	s := &Server{
		catalog:          catalog,
		entitlements:     entitlements,
		webhooks:         webhooks,
		log:              logger.Discard(),
		webhookMaxBytes:  1 << 20,
		readinessTimeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the gate's HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}

	r.NotFound(s.wrap(func(*http.Request) Response { return Fail(ErrNotFound) }))

	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(s.log, s.readinessTimeout, s.checks...))
	if s.registry != nil {
		r.Handle("/metrics", metrics.Handler(s.registry))
	}

	r.Get("/plans", s.wrap(s.listPlans))
	r.Post("/webhooks/paddle", s.wrap(s.paddleWebhook))
	r.Post("/internal/credits", s.wrap(s.grantCredit))

	r.Group(func(r chi.Router) {
		r.Use(RequireUser)

		r.Get("/usage", s.wrap(s.usageSummary))

		r.With(s.RequireQuota(plans.FeatureResumeGeneration)).Post("/resume/generate", s.wrap(reservation))
		r.With(s.RequireQuota(plans.FeatureJobAnalysis)).Post("/analyze", s.wrap(reservation))
		r.With(s.RequireQuota(plans.FeatureTemplates)).Post("/templates", s.wrap(reservation))
		r.With(s.RequireQuota(plans.FeatureAIAnalysis)).Post("/ai/analyze", s.wrap(reservation))
	})

	return r
}

// wrap adapts a HandlerFunc to http.HandlerFunc.
func (s *Server) wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := h(r)
		if resp == nil {
			resp = Fail(ErrInternal)
		}
		if err := resp.Render(w, r); err != nil {
			s.log.ErrorContext(r.Context(), "failed to render response", logger.Error(err))
		}
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.DebugContext(r.Context(), "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			logger.UserID(r.Header.Get(HeaderUserID)),
			logger.Duration(time.Since(start)),
		)
	})
}
