package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"seniorguard/internal/api/handlers"
	apimiddleware "seniorguard/internal/api/middleware"
	"seniorguard/internal/config"
	"seniorguard/pkg/logger"
)

// Router holds dependencies for the API router
type Router struct {
	config   config.Config
	handlers *handlers.Handlers
	limiter  apimiddleware.Limiter
	gatherer prometheus.Gatherer
	logger   *logger.Logger
}

// NewRouter creates a new Router instance. limiter and gatherer may be nil.
func NewRouter(cfg config.Config, h *handlers.Handlers, limiter apimiddleware.Limiter, gatherer prometheus.Gatherer, log *logger.Logger) *Router {
	return &Router{
		config:   cfg,
		handlers: h,
		limiter:  limiter,
		gatherer: gatherer,
		logger:   log.WithComponent("router"),
	}
}

// Setup sets up the Chi router with all routes and middleware
func (r *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(apimiddleware.Logger(r.logger))
	router.Use(middleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   r.config.CORS.AllowedOrigins,
		AllowedMethods:   r.config.CORS.AllowedMethods,
		AllowedHeaders:   r.config.CORS.AllowedHeaders,
		AllowCredentials: r.config.CORS.AllowCredentials,
		MaxAge:           r.config.CORS.MaxAge,
	}))

	// Operational routes
	router.Group(func(pub chi.Router) {
		pub.Get("/health", r.handlers.Health.Check)
		pub.Get("/ready", r.handlers.Health.Ready)
		if r.gatherer != nil && r.config.Metrics.Enabled {
			pub.Handle(r.metricsPath(), promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{}))
		}
	})

	router.Route("/api/v1", func(api chi.Router) {
		// Live feed connections are long-lived and exempt from the request timeout
		api.Get("/ws/scans", r.handlers.Streaming.HandleWebSocket)
		api.Get("/ws/stats", r.handlers.Streaming.GetStats)

		api.Group(func(scan chi.Router) {
			scan.Use(middleware.Timeout(60 * time.Second))
			if r.config.RateLimit.Enabled && r.limiter != nil {
				scan.Use(apimiddleware.RateLimiter(r.limiter, r.config.RateLimit, r.logger))
			}

			scan.Route("/scan", func(s chi.Router) {
				s.Post("/url", r.handlers.Scan.ScanURL)
				s.Post("/text", r.handlers.Scan.ScanText)
				s.Post("/email", r.handlers.Scan.ScanEmail)
			})

			scan.Route("/voice", func(v chi.Router) {
				v.Post("/audio", r.handlers.Voice.AnalyzeAudio)
				v.Post("/text", r.handlers.Voice.AnalyzeText)
				v.Post("/stream", r.handlers.Voice.AnalyzeStream)
			})
		})
	})

	return router
}

func (r *Router) metricsPath() string {
	if r.config.Metrics.Path == "" {
		return "/metrics"
	}
	return r.config.Metrics.Path
}
