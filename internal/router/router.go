package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/campushub/campushub-api/internal/config"
	"github.com/campushub/campushub-api/internal/handler"
	"github.com/campushub/campushub-api/internal/middleware"
	"github.com/campushub/campushub-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler     *handler.AuthHandler
	PYQHandler      *handler.DocumentHandler
	NotesHandler    *handler.DocumentHandler
	PostHandler     *handler.PostHandler
	AdminHandler    *handler.AdminHandler
	RealtimeHandler *handler.RealtimeHandler
	Authenticate    fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	authenticate := deps.Authenticate
	if authenticate == nil {
		authenticate = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth", middleware.RateLimit("auth", 10, time.Minute))
		deps.AuthHandler.Register(auth)
	}

	// The same handler type serves both document kinds; each instance is
	// bound to its own kind so listings and reviews never mix.
	if deps.PYQHandler != nil {
		deps.PYQHandler.Register(api.Group("/pyq"))
	}
	if deps.NotesHandler != nil {
		deps.NotesHandler.Register(api.Group("/notes"))
	}

	if deps.PostHandler != nil {
		deps.PostHandler.Register(api.Group("/posts"))
	}

	if deps.AdminHandler != nil {
		deps.AdminHandler.Register(api.Group("/admin", authenticate))
	}

	if deps.RealtimeHandler != nil {
		deps.RealtimeHandler.Register(api.Group("/realtime", authenticate))
	}
}
