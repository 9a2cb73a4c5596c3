package middleware

import (
	"project/backend/config"
	"project/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by the auth middleware. Handlers read the resolved
// identity from here instead of re-parsing the token.
const (
	LocalUserID = "user_id"
	LocalRole   = "role"
)

func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, role, err := utils.ExtractUserFromToken(c, cfg)
		if err != nil {
			return utils.Unauthorized(c, "Unauthorized")
		}

		c.Locals(LocalUserID, userID)
		c.Locals(LocalRole, role)
		return c.Next()
	}
}

func AdminMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(LocalRole).(string)
		if !ok {
			return utils.Unauthorized(c, "Unauthorized")
		}

		if role != "admin" {
			return utils.Forbidden(c, "Admin access required")
		}

		return c.Next()
	}
}

// CallerID returns the user id resolved by AuthMiddleware.
func CallerID(c *fiber.Ctx) uint {
	id, _ := c.Locals(LocalUserID).(uint)
	return id
}

// IsAdmin reports whether the resolved caller has the admin role.
func IsAdmin(c *fiber.Ctx) bool {
	role, _ := c.Locals(LocalRole).(string)
	return role == "admin"
}
