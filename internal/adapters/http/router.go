package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/posturehq/auth-service/internal/application"
)

// Options carries the transport-level knobs the handlers need.
type Options struct {
	DevMode        bool
	FrontendURL    string
	AllowedOrigins []string
	ReadyCheck     func() error
}

// Handler is the HTTP adapter entrypoint for session use-cases.
// Keeping only application dependency here preserves clean adapter boundaries.
type Handler struct {
	service *application.Service
	opts    Options
}

// NewHandler constructs an HTTP handler bound to application service.
func NewHandler(service *application.Service, opts Options) *Handler {
	return &Handler{service: service, opts: opts}
}

// NewRouter registers the HTTP routes and middleware stack.
// Centralizing routes here ensures consistent auth and error behavior across endpoints.
func NewRouter(handler *Handler, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   handler.opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/auth/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			// Credential endpoints are the brute-force surface; everything
			// else is cookie-gated already.
			r.Use(httprate.LimitByIP(30, time.Minute))
			r.Post("/login", handler.login)
			r.Get("/sso/callback", handler.ssoCallback)
		})
		r.Post("/refresh", handler.refresh)
		r.Post("/logout", handler.logout)
		r.Get("/me", handler.me)
	})

	return r
}
