package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/usercontext"
)

func currentUserID(c *fiber.Ctx) string {
	return usercontext.GetUserID(c)
}

func currentOrgID(c *fiber.Ctx) string {
	return usercontext.GetOrganizationID(c)
}

func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}
