package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/classroom-api/internal/config"
	"github.com/noah-isme/classroom-api/internal/handler"
	"github.com/noah-isme/classroom-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssignmentHandler *handler.ActivityHandler
	ExamHandler       *handler.ActivityHandler
	QuizHandler       *handler.ActivityHandler
	ReportingHandler  *handler.ReportingHandler
	SubjectHandler    *handler.SubjectHandler
	UserHandler       *handler.UserHandler
	HealthProbes      map[string]handler.Probe
	// IdentityMiddleware resolves the caller from a bearer token. Nil disables identity resolution.
	IdentityMiddleware fiber.Handler
	// DisableMetrics skips the /metrics endpoint.
	DisableMetrics bool
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	if !deps.DisableMetrics {
		app.Get("/metrics", observability.MetricsHandler())
	}

	identity := deps.IdentityMiddleware
	if identity == nil {
		identity = func(c *fiber.Ctx) error { return c.Next() }
	}

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	secured := api.Group("", identity)

	// Graded activities share one route shape per kind.
	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.Register(secured.Group("/assignments"))
	}
	if deps.ExamHandler != nil {
		deps.ExamHandler.Register(secured.Group("/exams"))
	}
	if deps.QuizHandler != nil {
		deps.QuizHandler.Register(secured.Group("/quizzes"))
	}

	if deps.ReportingHandler != nil {
		deps.ReportingHandler.Register(secured.Group("/students"))
	}
	if deps.SubjectHandler != nil {
		deps.SubjectHandler.Register(secured.Group("/subjects"))
	}
	if deps.UserHandler != nil {
		deps.UserHandler.Register(secured.Group("/users"))
	}
}
