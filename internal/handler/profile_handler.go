package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/madrasa-api/internal/dto"
	"github.com/noah-isme/madrasa-api/internal/i18n"
	"github.com/noah-isme/madrasa-api/internal/middleware"
	"github.com/noah-isme/madrasa-api/internal/service"
	"github.com/noah-isme/madrasa-api/internal/utils"
)

// ProfileHandler serves profile reads and role changes.
type ProfileHandler struct {
	service service.RoleService
	errors  errorResponder
}

// NewProfileHandler constructs a profile handler.
func NewProfileHandler(service service.RoleService, translator *i18n.Translator, logger zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{
		service: service,
		errors:  errorResponder{translator: translator, logger: logger.With().Str("component", "profile_handler").Logger()},
	}
}

// Register binds the profile routes.
func (h *ProfileHandler) Register(router fiber.Router) {
	router.Get("/profiles/me", h.me)
	router.Get("/profiles/:id", h.get)
	router.Put("/profiles/:id/role", h.changeRole)
}

func (h *ProfileHandler) me(c *fiber.Ctx) error {
	actor, ok := middleware.IdentityFromContext(c)
	if !ok {
		return h.errors.unauthorized(c)
	}

	profile, err := h.service.Me(withRequestContext(c), actor)
	if err != nil {
		return h.errors.respond(c, err, "")
	}
	return utils.SendSuccess(c, "profile", profile)
}

func (h *ProfileHandler) get(c *fiber.Ctx) error {
	actor, ok := middleware.IdentityFromContext(c)
	if !ok {
		return h.errors.unauthorized(c)
	}

	profile, err := h.service.Profile(withRequestContext(c), actor, c.Params("id"))
	if err != nil {
		return h.errors.respond(c, err, "")
	}
	return utils.SendSuccess(c, "profile", profile)
}

func (h *ProfileHandler) changeRole(c *fiber.Ctx) error {
	actor, ok := middleware.IdentityFromContext(c)
	if !ok {
		return h.errors.unauthorized(c)
	}

	var req dto.RoleChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return h.errors.badRequest(c)
	}

	profile, err := h.service.ChangeRole(withRequestContext(c), actor, c.Params("id"), req)
	if err != nil {
		return h.errors.respond(c, err, i18n.KeyDenyRoleChange)
	}
	return utils.SendSuccess(c, "role updated", profile)
}
