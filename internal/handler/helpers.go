package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/madrasa-api/internal/i18n"
	"github.com/noah-isme/madrasa-api/internal/middleware"
	"github.com/noah-isme/madrasa-api/internal/models"
	"github.com/noah-isme/madrasa-api/internal/policy"
	"github.com/noah-isme/madrasa-api/internal/service"
	"github.com/noah-isme/madrasa-api/internal/utils"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func withRequestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

func validationDetails(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	details := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		details[fieldErr.Field()] = fieldErr.Tag()
	}
	return details
}

// errorResponder maps service errors onto localised HTTP responses.
type errorResponder struct {
	translator *i18n.Translator
	logger     zerolog.Logger
}

func (r errorResponder) message(c *fiber.Ctx, key string) string {
	return r.translator.Message(c.Get(fiber.HeaderAcceptLanguage), key)
}

// respond writes the error response. denyKey selects the permission message.
func (r errorResponder) respond(c *fiber.Ctx, err error, denyKey string) error {
	if denyKey == "" {
		denyKey = i18n.KeyPermissionDenied
	}

	var storeErr *service.StoreError
	switch {
	case errors.Is(err, models.ErrAppendOnly):
		return utils.SendError(c, fiber.StatusForbidden, r.message(c, i18n.KeyAppendOnly))
	case errors.Is(err, service.ErrForumForbidden), errors.Is(err, policy.ErrDenied):
		return utils.SendError(c, fiber.StatusForbidden, r.message(c, denyKey))
	case errors.Is(err, service.ErrProfileNotFound):
		return utils.SendError(c, fiber.StatusNotFound, r.message(c, i18n.KeyProfileNotFound))
	case errors.Is(err, gorm.ErrRecordNotFound):
		return utils.SendError(c, fiber.StatusNotFound, r.message(c, i18n.KeyNotFound))
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, r.message(c, i18n.KeyInvalidPayload), validationDetails(err))
	case errors.Is(err, service.ErrInvalidRequest):
		return utils.Fail(c, fiber.StatusBadRequest, r.message(c, i18n.KeyInvalidPayload), err.Error())
	case errors.As(err, &storeErr):
		requestLogger(r.logger, c).Warn().Err(err).Str("op", storeErr.Op).Msg("store operation failed")
		return utils.SendError(c, fiber.StatusBadRequest, storeErr.Error())
	}

	requestLogger(r.logger, c).Error().Err(err).Str("path", c.Path()).Msg("unexpected error")
	return utils.SendError(c, fiber.StatusInternalServerError, r.message(c, i18n.KeyUnexpected))
}

func (r errorResponder) badRequest(c *fiber.Ctx) error {
	return utils.SendError(c, fiber.StatusBadRequest, r.message(c, i18n.KeyInvalidPayload))
}

func (r errorResponder) unauthorized(c *fiber.Ctx) error {
	return utils.SendError(c, fiber.StatusUnauthorized, r.message(c, i18n.KeyAuthRequired))
}
