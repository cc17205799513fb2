package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/enzo-prism/yt-keywords/internal/handler"
	"github.com/enzo-prism/yt-keywords/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Keyword   *handler.KeywordHandler
	Serp      *handler.SerpHandler
	Score     *handler.ScoreHandler
	Channel   *handler.ChannelHandler
	Usage     *handler.UsageHandler
	Constants *handler.ConstantsHandler
	Health    *handler.HealthHandler
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, corsOrigins string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(handler.MetricsMiddleware())
	app.Use(middleware.NewRequestLogger())
	app.Use(middleware.NewCORS(corsOrigins))

	// Probes and metrics (before API group)
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	// API routes
	api := app.Group("/api")

	api.Post("/keywords", h.Keyword.GetIdeas)
	api.Post("/youtube", h.Serp.GetSerp)
	api.Post("/score", h.Score.Explore)
	api.Get("/channels", h.Channel.GetProfile)
	api.Get("/usage", h.Usage.GetSummary)
	api.Get("/constants", h.Constants.Get)
}
