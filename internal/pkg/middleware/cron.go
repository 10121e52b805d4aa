package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/env"
)

// CronAuthMiddleware guards the scheduled-sync endpoint. In production the
// request must carry `Authorization: Bearer $CRON_SECRET`; in dev the check is
// skipped so the endpoint stays curl-able.
func CronAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if env.IsDev() {
			return c.Next()
		}

		secret := env.GetEnv("CRON_SECRET", "")
		if secret == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error":   "not_configured",
				"message": "CRON_SECRET is not set",
			})
		}

		token := extractBearerToken(c)
		if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": "invalid cron secret",
			})
		}
		return c.Next()
	}
}

func extractBearerToken(c *fiber.Ctx) string {
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
