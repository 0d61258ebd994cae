package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/writeright/essay-api/internal/config"
	"github.com/writeright/essay-api/internal/handler"
	"github.com/writeright/essay-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssignmentHandler *handler.AssignmentHandler
	SubmissionHandler *handler.SubmissionHandler
	RewriteHandler    *handler.RewriteHandler
	UploadHandler     *handler.UploadHandler
	JWTMiddleware     fiber.Handler
	FinalizeLimiter   fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
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

	if deps.AssignmentHandler != nil {
		assignments := api.Group("/assignments", jwtMiddleware)
		deps.AssignmentHandler.Register(assignments)
	}

	if deps.SubmissionHandler != nil {
		submissions := api.Group("/submissions", jwtMiddleware)
		// Finalize starts OCR and AI evaluation, so it gets its own limiter.
		if deps.FinalizeLimiter != nil {
			submissions.Use("/:id/finalize", deps.FinalizeLimiter)
		}
		deps.SubmissionHandler.Register(submissions)

		if deps.RewriteHandler != nil {
			deps.RewriteHandler.Register(submissions)
		}
	}

	if deps.UploadHandler != nil {
		uploads := api.Group("/uploads", jwtMiddleware)
		deps.UploadHandler.Register(uploads)
	}
}
