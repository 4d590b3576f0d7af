package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/madrasa-api/internal/policy"
	"github.com/noah-isme/madrasa-api/internal/utils"
)

// PolicyStatements returns the PostgreSQL row-level security statements rendered from the
// policy set, so operators can review what ApplyRowLevelSecurity installs.
func PolicyStatements() fiber.Handler {
	statements := policy.PostgresPolicies()
	return func(c *fiber.Ctx) error {
		return utils.SendSuccess(c, "row level security policies", fiber.Map{
			"tables":     policy.Tables(),
			"statements": statements,
		})
	}
}
