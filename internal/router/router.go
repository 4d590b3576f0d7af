package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/madrasa-api/internal/config"
	"github.com/noah-isme/madrasa-api/internal/handler"
)

// Registrar is implemented by handlers that bind their own routes.
type Registrar interface {
	Register(router fiber.Router)
}

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ForumHandler        *handler.ForumHandler
	ProfileHandler      *handler.ProfileHandler
	EnrollmentHandler   *handler.EnrollmentHandler
	NotificationHandler *handler.NotificationHandler
	RecordHandlers      []Registrar
	JWTMiddleware       fiber.Handler
	IdentityMiddleware  fiber.Handler
	ForumRateLimit      fiber.Handler
	AdminOnly           fiber.Handler
	HealthProbes        []handler.HealthProbe
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Public v1 group for health & headers; registered before the authenticated group.
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes...))

	guards := make([]fiber.Handler, 0, 2)
	for _, guard := range []fiber.Handler{deps.JWTMiddleware, deps.IdentityMiddleware} {
		if guard != nil {
			guards = append(guards, guard)
		}
	}
	protected := app.Group("/api/v1", guards...)

	if deps.ForumHandler != nil {
		var forumGuards []fiber.Handler
		if deps.ForumRateLimit != nil {
			forumGuards = append(forumGuards, deps.ForumRateLimit)
		}
		deps.ForumHandler.Register(protected, forumGuards...)
	}
	if deps.ProfileHandler != nil {
		deps.ProfileHandler.Register(protected)
	}
	if deps.EnrollmentHandler != nil {
		deps.EnrollmentHandler.Register(protected)
	}
	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(protected)
	}
	for _, records := range deps.RecordHandlers {
		records.Register(protected)
	}

	if deps.AdminOnly != nil {
		admin := protected.Group("/admin", deps.AdminOnly)
		admin.Get("/rls-policies", handler.PolicyStatements())
	}
}
