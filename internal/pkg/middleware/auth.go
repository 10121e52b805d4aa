package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/usercontext"
)

// RequireAPISessionAuth ensures a logged-in session for API routes and returns JSON 401 instead of redirect.
func RequireAPISessionAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	return c.Next()
}

// RequireOrganization ensures the request carries an active organization.
// Tenant-scoped routes refuse to guess one.
func RequireOrganization(c *fiber.Ctx) error {
	if usercontext.GetOrganizationID(c) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "no_organization",
			"message": "no active organization selected",
		})
	}
	return c.Next()
}
