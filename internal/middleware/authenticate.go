package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/campushub/campushub-api/internal/models"
	"github.com/campushub/campushub-api/internal/service"
	"github.com/campushub/campushub-api/internal/utils"
)

// PrincipalKey is the fiber locals key carrying the resolved principal.
// Websocket handlers read it off the upgraded connection's locals.
const PrincipalKey = "principal"

// Authenticate validates the bearer token and resolves the current
// principal from the user store. Role and suspension are re-read on every
// request, so a demotion or suspension takes effect before the token
// expires.
func Authenticate(guard service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		principal, err := guard.ResolvePrincipal(c.UserContext(), token)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrAccountSuspended):
				return utils.SendError(c, fiber.StatusUnauthorized, "account suspended")
			case errors.Is(err, service.ErrUnknownPrincipal):
				return utils.SendError(c, fiber.StatusUnauthorized, "unknown principal")
			case errors.Is(err, service.ErrInvalidCredential):
				return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
			default:
				return utils.SendError(c, fiber.StatusInternalServerError, "authentication failed")
			}
		}

		c.Locals(PrincipalKey, principal)
		c.Locals("user_id", principal.ID)
		c.Locals("user_role", string(principal.Role))

		return c.Next()
	}
}

// Principal returns the resolved principal for the active request.
func Principal(c *fiber.Ctx) (models.User, bool) {
	principal, ok := c.Locals(PrincipalKey).(models.User)
	return principal, ok
}

func bearerToken(c *fiber.Ctx) string {
	authorization := c.Get("Authorization")
	if authorization == "" {
		// Websocket handshakes cannot set headers from browsers, so the
		// token may arrive as a query parameter instead.
		return strings.TrimSpace(c.Query("token"))
	}

	const bearer = "Bearer "
	if !strings.HasPrefix(strings.ToLower(authorization), strings.ToLower(bearer)) {
		return ""
	}

	return strings.TrimSpace(authorization[len(bearer):])
}
