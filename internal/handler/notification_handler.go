package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/madrasa-api/internal/i18n"
	"github.com/noah-isme/madrasa-api/internal/middleware"
	"github.com/noah-isme/madrasa-api/internal/service"
	"github.com/noah-isme/madrasa-api/internal/utils"
)

// NotificationHandler lists and acknowledges the caller's notifications.
type NotificationHandler struct {
	service service.NotificationService
	errors  errorResponder
}

// NewNotificationHandler constructs a handler instance.
func NewNotificationHandler(service service.NotificationService, translator *i18n.Translator, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		errors:  errorResponder{translator: translator, logger: logger.With().Str("component", "notification_handler").Logger()},
	}
}

// Register binds the notification routes.
func (h *NotificationHandler) Register(router fiber.Router) {
	router.Get("/notifications", h.list)
	router.Patch("/notifications/:id/read", h.markRead)
}

func (h *NotificationHandler) list(c *fiber.Ctx) error {
	actor, ok := middleware.IdentityFromContext(c)
	if !ok {
		return h.errors.unauthorized(c)
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return h.errors.badRequest(c)
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return h.errors.badRequest(c)
	}

	ctx := withRequestContext(c)
	notifications, err := h.service.List(ctx, actor.UserID, limit, offset)
	if err != nil {
		return h.errors.respond(c, err, "")
	}
	unread, err := h.service.UnreadCount(ctx, actor.UserID)
	if err != nil {
		return h.errors.respond(c, err, "")
	}

	return utils.OK(c, notifications, "notifications", fiber.Map{"unread": unread, "limit": limit, "offset": offset})
}

func (h *NotificationHandler) markRead(c *fiber.Ctx) error {
	actor, ok := middleware.IdentityFromContext(c)
	if !ok {
		return h.errors.unauthorized(c)
	}

	notification, err := h.service.MarkRead(withRequestContext(c), c.Params("id"), actor.UserID)
	if err != nil {
		return h.errors.respond(c, err, "")
	}

	return utils.SendSuccess(c, "notification marked as read", notification)
}
