package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/treytuscai/DevReady/internal/config"
	"github.com/treytuscai/DevReady/internal/handler"
	"github.com/treytuscai/DevReady/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	CodeExecutionHandler *handler.CodeExecutionHandler
	QuestionHandler      *handler.QuestionHandler
	AssistantHandler     *handler.AssistantHandler
	SeedHandler          *handler.SeedHandler
	JWTMiddleware        fiber.Handler
	RunRateLimiter       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Execution routes live at the root; guards are attached per route so they
	// do not leak onto /metrics or /api/v1/health.
	if deps.CodeExecutionHandler != nil {
		guards := []fiber.Handler{jwtMiddleware}
		if deps.RunRateLimiter != nil {
			guards = append(guards, deps.RunRateLimiter)
		}
		deps.CodeExecutionHandler.Register(app, guards...)
	}

	if deps.QuestionHandler != nil {
		deps.QuestionHandler.Register(api.Group("/questions", jwtMiddleware))
	}

	if deps.AssistantHandler != nil {
		deps.AssistantHandler.Register(api.Group("/ai", jwtMiddleware))
	}

	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(api.Group("/admin/seed"))
	}
}
