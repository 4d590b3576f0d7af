package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/madrasa-api/internal/i18n"
	"github.com/noah-isme/madrasa-api/internal/middleware"
	"github.com/noah-isme/madrasa-api/internal/policy"
	"github.com/noah-isme/madrasa-api/internal/service"
	"github.com/noah-isme/madrasa-api/internal/utils"
)

// RecordHandler exposes policy-guarded CRUD for one protected table under /records/<table>.
type RecordHandler[T policy.Row] struct {
	service *service.RecordService[T]
	errors  errorResponder
}

// NewRecordHandler constructs a record handler for T.
func NewRecordHandler[T policy.Row](svc *service.RecordService[T], translator *i18n.Translator, logger zerolog.Logger) *RecordHandler[T] {
	componentLogger := logger.With().Str("component", "record_handler").Str("table", string(svc.Table())).Logger()
	return &RecordHandler[T]{
		service: svc,
		errors:  errorResponder{translator: translator, logger: componentLogger},
	}
}

// Register binds the record routes.
func (h *RecordHandler[T]) Register(router fiber.Router) {
	group := router.Group("/records/" + string(h.service.Table()))
	group.Get("/", h.list)
	group.Post("/", h.create)
	group.Get("/:id", h.get)
	group.Put("/:id", h.update)
	group.Delete("/:id", h.delete)
}

func (h *RecordHandler[T]) list(c *fiber.Ctx) error {
	actor, ok := middleware.IdentityFromContext(c)
	if !ok {
		return h.errors.unauthorized(c)
	}
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return h.errors.badRequest(c)
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return h.errors.badRequest(c)
	}

	result, err := h.service.List(withRequestContext(c), actor, page, pageSize)
	if err != nil {
		return h.errors.respond(c, err, "")
	}
	return utils.OK(c, result.Items, string(h.service.Table()), result.Pagination)
}

func (h *RecordHandler[T]) get(c *fiber.Ctx) error {
	actor, ok := middleware.IdentityFromContext(c)
	if !ok {
		return h.errors.unauthorized(c)
	}

	row, err := h.service.Get(withRequestContext(c), actor, c.Params("id"))
	if err != nil {
		return h.errors.respond(c, err, "")
	}
	return utils.SendSuccess(c, string(h.service.Table()), row)
}

func (h *RecordHandler[T]) create(c *fiber.Ctx) error {
	actor, ok := middleware.IdentityFromContext(c)
	if !ok {
		return h.errors.unauthorized(c)
	}

	var payload T
	if err := c.BodyParser(&payload); err != nil {
		return h.errors.badRequest(c)
	}

	row, err := h.service.Create(withRequestContext(c), actor, payload)
	if err != nil {
		return h.errors.respond(c, err, "")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, string(h.service.Table()), row)
}

func (h *RecordHandler[T]) update(c *fiber.Ctx) error {
	actor, ok := middleware.IdentityFromContext(c)
	if !ok {
		return h.errors.unauthorized(c)
	}

	var payload T
	if err := c.BodyParser(&payload); err != nil {
		return h.errors.badRequest(c)
	}

	row, err := h.service.Update(withRequestContext(c), actor, c.Params("id"), payload)
	if err != nil {
		return h.errors.respond(c, err, h.writeDenyKey())
	}
	return utils.SendSuccess(c, string(h.service.Table()), row)
}

func (h *RecordHandler[T]) delete(c *fiber.Ctx) error {
	actor, ok := middleware.IdentityFromContext(c)
	if !ok {
		return h.errors.unauthorized(c)
	}

	if err := h.service.Delete(withRequestContext(c), actor, c.Params("id")); err != nil {
		return h.errors.respond(c, err, h.writeDenyKey())
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *RecordHandler[T]) writeDenyKey() string {
	if policy.AppendOnly(h.service.Table()) {
		return i18n.KeyAppendOnly
	}
	return i18n.KeyPermissionDenied
}
