package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonjun/stiky/pkg/health"
	"github.com/wonjun/stiky/pkg/middleware"
)

// RouterConfig carries the cross-cutting router settings.
type RouterConfig struct {
	ServiceName string
	CORS        middleware.CORSConfig
	PprofCIDRs  []string
}

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Auth   *AuthHandler
	OAuth  *OAuthHandler
	User   *UserHandler
	Health *health.Handler
}

// NewRouter creates a chi router with all routes registered. validate checks
// bearer access tokens on protected routes.
func NewRouter(cfg RouterConfig, h Handlers, validate middleware.TokenValidator, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Timeout(30 * time.Second))

	// Health check endpoints
	r.Get("/health/live", h.Health.LivenessHandler())
	r.Get("/health/ready", h.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(middleware.NoStore)

		r.Post("/signup", h.Auth.Signup)
		r.Post("/login", h.Auth.Login)
		r.Post("/reissue", h.Auth.Reissue)
		r.Post("/token", h.Auth.Token)
		r.Post("/logout", h.Auth.Logout)
	})

	// OAuth2 redirects
	r.Group(func(r chi.Router) {
		r.Use(middleware.NoStore)

		r.Get("/oauth2/authorization/{provider}", h.OAuth.Authorize)
		r.Get("/login/oauth2/code/{provider}", h.OAuth.Callback)
	})

	// Bearer-protected API
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(validate))
		r.Use(middleware.RequestLogger(logger))

		r.Get("/api/members/me", h.Auth.Me)

		r.Route("/api/users", func(r chi.Router) {
			r.Post("/", h.User.CreateUser)
			r.Get("/", h.User.ListUsers)
			r.Get("/{id}", h.User.GetUser)
			r.Delete("/{id}", h.User.DeleteUser)
		})
	})

	return r
}
