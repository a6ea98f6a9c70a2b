package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/campushub/campushub-api/internal/authz"
	"github.com/campushub/campushub-api/internal/models"
	"github.com/campushub/campushub-api/internal/utils"
)

// RequireReviewer ensures the resolved principal may review documents.
func RequireReviewer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := Principal(c)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}
		if !authz.CanPerform(principal.Role, authz.ActionReviewDocument, "") {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}

// RequireRole ensures the resolved principal holds one of the given roles.
func RequireRole(roles ...models.Role) fiber.Handler {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := Principal(c)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}
		if _, ok := allowed[principal.Role]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}
