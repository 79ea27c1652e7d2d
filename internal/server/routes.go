package server

import (
	"github.com/fulmenhq/gofulmen/signals"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/meganame/megacheck/internal/appid"
	"github.com/meganame/megacheck/internal/core"
	"github.com/meganame/megacheck/internal/observability"
	"github.com/meganame/megacheck/internal/server/handlers"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	registryHealth := &handlers.RegistryHealth{Reporter: s.opts.Status}
	if s.opts.Status != nil {
		if manager := handlers.GetHealthManager(); manager != nil {
			manager.RegisterDependency("registry", registryHealth)
		}
	}

	// Availability API
	s.router.Route("/api", func(r chi.Router) {
		r.Method("POST", "/check", &handlers.CheckHandler{Checker: s.opts.Checker})
		r.Method("GET", "/price", &handlers.PriceHandler{Rules: s.opts.Rules})
		r.Method("GET", "/random", &handlers.RandomHandler{Rules: s.opts.Rules})
		r.Method("GET", "/health", registryHealth)
	})

	s.router.Method("GET", "/", &handlers.IndexPage{
		Title:    core.Suffix + " name checker",
		MaxNames: s.opts.MaxNames,
	})

	// Service health probes
	s.router.Get("/health", handlers.Probe("aggregate"))
	s.router.Get("/health/live", handlers.Probe("live"))
	s.router.Get("/health/ready", handlers.Probe("ready"))
	s.router.Get("/health/startup", handlers.Probe("startup"))

	s.router.Get("/version", handlers.VersionHandler)

	// Exporter output proxied onto the main port
	s.router.Method("GET", "/metrics", newMetricsProxy())

	s.registerAdminEndpoint()
}

// Admin signal requests are limited per minute.
const (
	adminSignalPath  = "/admin/signal"
	adminSignalRate  = 10
	adminSignalBurst = 5
)

// registerAdminEndpoint mounts the gofulmen signal handler so operators can
// trigger a config reload (SIGHUP) or shutdown over HTTP.
func (s *Server) registerAdminEndpoint() {
	logger := observability.ServerLogger
	if s.opts.AdminToken == "" {
		if logger != nil {
			logger.Debug("admin signal endpoint disabled", zap.String("env", appid.Env("ADMIN_TOKEN")))
		}
		return
	}

	s.router.Method("POST", adminSignalPath, signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: s.opts.AdminToken,
		RateLimit: adminSignalRate,
		RateBurst: adminSignalBurst,
	}))

	if logger != nil {
		logger.Warn("admin signal endpoint enabled",
			zap.String("path", adminSignalPath),
			zap.Int("rate_per_minute", adminSignalRate))
	}
}
