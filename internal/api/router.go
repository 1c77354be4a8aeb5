// Package api assembles the HTTP API for LiveHike.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/livehike/livehike/internal/api/handler"
	"github.com/livehike/livehike/internal/api/middleware"
	"github.com/livehike/livehike/internal/api/models"
	"github.com/livehike/livehike/internal/blob"
	"github.com/livehike/livehike/internal/pin"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	Store   *pin.Store
	Reports *pin.ReportService

	// Blobs and Backend describe the persistence backend for status reports.
	Blobs   blob.Store
	Backend string

	// DefaultUser is the actor for requests without X-User-Id.
	DefaultUser string
	RequireTLS  bool
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "livehike-api"
	}
	defaultUser := cfg.DefaultUser
	if defaultUser == "" {
		defaultUser = "current_user"
	}

	// Order matters: ids and actor first so every later layer can log them.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Actor(defaultUser))
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		problem := models.NewNotFound(middleware.GetRequestID(r.Context()), "no route for "+r.Method+" "+r.URL.Path)
		problem.Instance = r.URL.Path
		problem.Write(w)
	})

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Backend:   cfg.Backend,
		Store:     cfg.Store,
		Blobs:     cfg.Blobs,
	})
	trailHandler := handler.NewTrailHandler(cfg.Store)
	pinHandler := handler.NewPinHandler(cfg.Store, cfg.Reports, cfg.Logger)
	streamHandler := handler.NewStreamHandler(handler.StreamConfig{
		Store:   cfg.Store,
		Metrics: cfg.Metrics,
		Logger:  cfg.Logger,
	})

	readLimit := middleware.RateLimitByIP(middleware.ReadRateLimit)
	reportLimit := middleware.RateLimitByActor(middleware.ReportRateLimit)
	moderationLimit := middleware.RateLimitByActor(middleware.ModerationRateLimit)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		r.Route("/trails", func(r chi.Router) {
			r.With(readLimit).Get("/", trailHandler.ListTrails)

			r.Route("/{trailName}", func(r chi.Router) {
				r.With(readLimit).Get("/", trailHandler.GetTrail)
				r.With(readLimit).Get("/region", trailHandler.GetRegion)

				r.Route("/pins", func(r chi.Router) {
					r.With(readLimit).Get("/", trailHandler.ListPins)
					r.Get("/stream", streamHandler.Stream)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireJSON, reportLimit)
						r.Post("/hazards", pinHandler.ReportHazard)
						r.Post("/wrong-turns", pinHandler.ReportWrongTurn)
						r.Post("/wildlife", pinHandler.ReportWildlife)
					})
				})
			})
		})

		r.Route("/pins/{pinId}", func(r chi.Router) {
			r.With(readLimit).Get("/", pinHandler.GetPin)

			r.Group(func(r chi.Router) {
				r.Use(moderationLimit)
				r.Post("/verify", pinHandler.VerifyPin)
				r.Post("/dismiss", pinHandler.DismissPin)
				r.Delete("/", pinHandler.DeletePin)
			})
		})
	})

	return r
}
