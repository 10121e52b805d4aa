package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/session"
	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/usercontext"
)

// UserContextMiddleware resolves the session user and the active organization
// once per request and stores the result in Locals. Controllers read the
// context; they never touch the session store directly.
func UserContextMiddleware(c *fiber.Ctx) error {
	ctx := usercontext.UserContext{}

	if v, ok := session.GetSessionValue(c, usercontext.KeyUserID).(string); ok && v != "" {
		ctx.UserID = v
		ctx.IsLoggedIn = true
	}
	if v, ok := session.GetSessionValue(c, usercontext.KeyUsername).(string); ok {
		ctx.Username = v
	}
	ctx.OrganizationID = c.Cookies(usercontext.OrgCookieName)

	c.Locals("USER_CONTEXT", ctx)
	c.Locals(usercontext.KeyFromProtected, ctx.IsLoggedIn)
	c.Locals(usercontext.KeyUserID, ctx.UserID)
	c.Locals(usercontext.KeyUsername, ctx.Username)

	return c.Next()
}
