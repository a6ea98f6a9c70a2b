package middleware

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

// Config carries the dependencies for the shared middleware chain.
type Config struct {
	Logger *zerolog.Logger
}

// Register attaches the middlewares every route shares: panic recovery,
// correlation IDs, request metrics, access logging and CORS. Route-specific
// middlewares (authentication, role gates, rate limits) are attached by the
// router on their groups.
func Register(app *fiber.App, cfg Config) {
	accessLogger := zerolog.New(io.Discard)
	if cfg.Logger != nil {
		accessLogger = *cfg.Logger
	}

	app.Use(recover.New())
	app.Use(CorrelationID())
	app.Use(Observability(accessLogger))
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Correlation-ID",
		AllowMethods:  "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		ExposeHeaders: "X-Correlation-ID",
	}))
}
