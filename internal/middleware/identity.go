package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/madrasa-api/internal/i18n"
	"github.com/noah-isme/madrasa-api/internal/policy"
	"github.com/noah-isme/madrasa-api/internal/service"
	"github.com/noah-isme/madrasa-api/internal/utils"
)

const identityLocal = "identity"

// IdentityResolver is the lookup ResolveIdentity depends on.
type IdentityResolver interface {
	Resolve(ctx context.Context, userID string) (policy.Identity, error)
}

// ResolveIdentity loads the caller's profile role after JWTProtected. A token whose user has no
// profile is rejected with 404.
func ResolveIdentity(resolver IdentityResolver, translator *i18n.Translator, logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if userID == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, translate(c, translator, i18n.KeyAuthRequired))
		}

		identity, err := resolver.Resolve(c.UserContext(), userID)
		if errors.Is(err, service.ErrProfileNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, translate(c, translator, i18n.KeyProfileNotFound))
		}
		if err != nil {
			logger.Error().Err(err).Str("correlation_id", GetCorrelationID(c)).Str("user_id", userID).Msg("identity resolution failed")
			return utils.SendError(c, fiber.StatusInternalServerError, translate(c, translator, i18n.KeyUnexpected))
		}

		c.Locals(identityLocal, identity)
		c.Locals("user_role", identity.Role.String())
		return c.Next()
	}
}

// IdentityFromContext returns the identity stored by ResolveIdentity.
func IdentityFromContext(c *fiber.Ctx) (policy.Identity, bool) {
	identity, ok := c.Locals(identityLocal).(policy.Identity)
	return identity, ok
}
