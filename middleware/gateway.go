// middleware/gateway.go
package middleware

import (
	"strings"

	"task-points-market/utils"

	"github.com/gofiber/fiber/v2"
)

// GatewayAuthMiddleware validates the Bearer token from the Gateway.
// Paths listed in open (health checks, metrics scraping) skip the check.
func GatewayAuthMiddleware(expectedToken string, open ...string) fiber.Handler {
	log := utils.NewLogger("gateway_auth")
	if expectedToken == "" {
		log.Fatal("❌ SERVICE_TOKEN is not set, gateway requests cannot be authenticated")
	}
	skip := make(map[string]struct{}, len(open))
	for _, p := range open {
		skip[p] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		if _, ok := skip[c.Path()]; ok {
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			log.WithField("path", c.Path()).Warn("🚫 missing Authorization header")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "gateway authentication token missing",
			})
		}

		// "Bearer <token>" or the raw token
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token != expectedToken {
			log.WithField("path", c.Path()).Warn("❌ invalid gateway token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid gateway authentication token",
			})
		}

		return c.Next()
	}
}
