// middleware/auth.go
package middleware

import (
	"strconv"
	"strings"

	"task-points-market/utils"

	"github.com/gofiber/fiber/v2"
)

const userIDKey = "user_id"

// UserContextMiddleware extracts the user id set by the Gateway. Every route behind
// it acts on behalf of that user, so a missing or malformed id is rejected.
func UserContextMiddleware() fiber.Handler {
	log := utils.NewLogger("user_ctx")
	return func(c *fiber.Ctx) error {
		raw := strings.TrimSpace(c.Get("X-User-ID"))
		if raw == "" {
			log.WithField("path", c.Path()).Warn("❌ X-User-ID missing")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID header",
			})
		}
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "X-User-ID must be a numeric user id",
			})
		}

		c.Locals(userIDKey, userID)
		return c.Next()
	}
}

// UserID returns the caller set by UserContextMiddleware, or 0 outside of it.
func UserID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(userIDKey).(int64)
	return id
}
