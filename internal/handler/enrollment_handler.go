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

// EnrollmentHandler serves class enrollment endpoints.
type EnrollmentHandler struct {
	service service.EnrollmentService
	errors  errorResponder
}

// NewEnrollmentHandler constructs an enrollment handler.
func NewEnrollmentHandler(service service.EnrollmentService, translator *i18n.Translator, logger zerolog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		service: service,
		errors:  errorResponder{translator: translator, logger: logger.With().Str("component", "enrollment_handler").Logger()},
	}
}

// Register binds the enrollment routes.
func (h *EnrollmentHandler) Register(router fiber.Router) {
	router.Post("/enrollments", h.enroll)
	router.Post("/enrollments/:id/confirm-payment", h.confirmPayment)
}

func (h *EnrollmentHandler) enroll(c *fiber.Ctx) error {
	actor, ok := middleware.IdentityFromContext(c)
	if !ok {
		return h.errors.unauthorized(c)
	}

	var req dto.EnrollRequest
	if err := c.BodyParser(&req); err != nil {
		return h.errors.badRequest(c)
	}

	enrollment, err := h.service.Enroll(withRequestContext(c), actor, req)
	if err != nil {
		return h.errors.respond(c, err, "")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "enrollment", enrollment)
}

func (h *EnrollmentHandler) confirmPayment(c *fiber.Ctx) error {
	actor, ok := middleware.IdentityFromContext(c)
	if !ok {
		return h.errors.unauthorized(c)
	}

	var req dto.ConfirmPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return h.errors.badRequest(c)
	}

	enrollment, err := h.service.ConfirmPayment(withRequestContext(c), actor, c.Params("id"), req)
	if err != nil {
		return h.errors.respond(c, err, "")
	}
	return utils.SendSuccess(c, "payment confirmed", enrollment)
}
