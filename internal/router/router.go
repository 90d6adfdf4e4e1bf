package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-lingua-api/internal/config"
	"github.com/noah-isme/gema-lingua-api/internal/handler"
	"github.com/noah-isme/gema-lingua-api/internal/middleware"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ScoringHandler  *handler.ScoringHandler
	QuizPlanHandler *handler.QuizPlanHandler
	MetricsHandler  fiber.Handler
	JWTMiddleware   fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	if deps.MetricsHandler != nil {
		app.Get("/metrics", deps.MetricsHandler)
	}

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	next := func(c *fiber.Ctx) error { return c.Next() }

	// Scoring (answers, batches, history, holistic responses)
	if deps.ScoringHandler != nil {
		scoring := app.Group("/api/v2/scoring",
			jwtMiddleware,
			middleware.WithAuth(next, middleware.AuthOptions{Role: middleware.AuthRoleAny, RequireUser: true}),
			middleware.RateLimit("scoring", 120, time.Minute),
		)
		deps.ScoringHandler.Register(scoring)
	}

	// Quiz planning is restricted to staff
	if deps.QuizPlanHandler != nil {
		plans := app.Group("/api/v2/quiz-plans",
			jwtMiddleware,
			middleware.WithAuth(next, middleware.AuthOptions{Role: middleware.AuthRoleAny, RequireUser: true}),
			middleware.RequireRole(middleware.AuthRoleAdmin, middleware.AuthRoleTeacher),
		)
		deps.QuizPlanHandler.Register(plans)
	}
}
