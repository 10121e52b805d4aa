package controllers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/session"
	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/usercontext"
)

// Identity verification happens upstream (reverse proxy / identity provider);
// this controller only materializes the verified identity as a server-side
// session the API middleware can check.

type sessionRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	Username string `json:"username"`
}

// HandleSessionLogin establishes the session for an authenticated user.
func HandleSessionLogin(c *fiber.Ctx) error {
	var req sessionRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "could not parse request body")
	}
	if err := validator.New().Struct(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", err.Error())
	}

	if err := session.SetSessionValue(c, usercontext.KeyUserID, req.UserID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "session_error", "could not persist session")
	}
	if err := session.SetSessionValue(c, usercontext.KeyUsername, req.Username); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "session_error", "could not persist session")
	}

	return c.JSON(fiber.Map{"success": true})
}

// HandleSessionLogout destroys the current session.
func HandleSessionLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		if derr := sess.Destroy(); derr != nil {
			return jsonError(c, fiber.StatusInternalServerError, "session_error", "could not destroy session")
		}
	}
	c.ClearCookie(usercontext.OrgCookieName)
	return c.JSON(fiber.Map{"success": true})
}
