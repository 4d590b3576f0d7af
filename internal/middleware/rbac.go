package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/madrasa-api/internal/i18n"
	"github.com/noah-isme/madrasa-api/internal/policy"
	"github.com/noah-isme/madrasa-api/internal/utils"
)

// RequireRole ensures that the resolved identity holds one of the allowed roles.
func RequireRole(translator *i18n.Translator, roles ...policy.Role) fiber.Handler {
	allowed := make(map[policy.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, translate(c, translator, i18n.KeyAuthRequired))
		}
		if _, ok := allowed[identity.Role]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, translate(c, translator, i18n.KeyPermissionDenied))
		}
		return c.Next()
	}
}
