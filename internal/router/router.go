package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/edulearn-io/edulearn-go-api/internal/config"
	"github.com/edulearn-io/edulearn-go-api/internal/handler"
	"github.com/edulearn-io/edulearn-go-api/internal/middleware"
	"github.com/edulearn-io/edulearn-go-api/internal/models"
	"github.com/edulearn-io/edulearn-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SubmissionHandler          *handler.SubmissionHandler
	ChallengeSubmissionHandler *handler.ChallengeSubmissionHandler
	PodiumHandler              *handler.PodiumHandler
	ActivityHandler            *handler.ActivityHandler
	JWTMiddleware              fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	v2 := app.Group("/api/v2", jwtMiddleware, middleware.RateLimit("api", 120, time.Minute))

	// Exercise submission workflow
	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.RegisterExerciseRoutes(v2.Group("/exercises"))
		deps.SubmissionHandler.Register(v2.Group("/submissions"))
	}

	// Challenge submission workflow
	if deps.ChallengeSubmissionHandler != nil {
		deps.ChallengeSubmissionHandler.RegisterChallengeRoutes(v2.Group("/challenges"))
		deps.ChallengeSubmissionHandler.Register(v2.Group("/challenge-submissions"))
	}

	// Leaderboards
	if deps.PodiumHandler != nil {
		deps.PodiumHandler.Register(v2.Group("/podium"))
	}

	// Audit trail, instructor-only
	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(v2.Group("/activity", middleware.RequireRole(models.RoleTeacher)))
	}
}
