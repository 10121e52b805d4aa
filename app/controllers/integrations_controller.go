package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/env"
	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/gmb"
)

// IntegrationsController owns the Google Business Profile connect lifecycle:
// authorization redirect, callback, status, invitations, disconnect.
type IntegrationsController struct {
	wrapper *gmb.Wrapper
}

var integrationsController *IntegrationsController

// InitializeIntegrationsController wires the controller with the GMB facade.
func InitializeIntegrationsController(wrapper *gmb.Wrapper) {
	integrationsController = &IntegrationsController{wrapper: wrapper}
}

func googleRedirectURI() string {
	if uri := env.GetEnv("GOOGLE_REDIRECT_URI", ""); uri != "" {
		return uri
	}
	return env.GetEnv("APP_URL", "http://localhost:4000") + "/api/integrations/google/callback"
}

// HandleGoogleConnect starts an authorization attempt: a fresh state token is
// pinned to the browser via a short-lived cookie, then the user is sent to
// Google's consent screen.
func HandleGoogleConnect(c *fiber.Ctx) error {
	state := uuid.NewString()

	c.Cookie(&fiber.Cookie{
		Name:     gmb.StateCookieName,
		Value:    state,
		MaxAge:   int(gmb.StateCookieMaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   !env.IsDev(),
		SameSite: "Lax",
		Path:     "/",
	})

	return c.Redirect(integrationsController.wrapper.GetAuthURL(state, googleRedirectURI()), fiber.StatusSeeOther)
}

// HandleGoogleCallback finishes the authorization: state must match the
// cookie byte for byte, then the code is exchanged and the encrypted token
// pair stored for the active organization.
func HandleGoogleCallback(c *fiber.Ctx) error {
	issued := c.Cookies(gmb.StateCookieName)
	returned := c.Query("state")
	c.ClearCookie(gmb.StateCookieName)

	if err := gmb.VerifyState(issued, returned); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_state", "state mismatch or expired authorization attempt")
	}

	if errParam := c.Query("error"); errParam != "" {
		return jsonError(c, fiber.StatusBadRequest, "consent_denied", errParam)
	}

	code := c.Query("code")
	if code == "" {
		return jsonError(c, fiber.StatusBadRequest, "missing_code", "authorization code missing")
	}

	orgID := currentOrgID(c)
	if err := integrationsController.wrapper.HandleOAuthCallback(
		c.Context(), code, orgID, currentUserID(c), googleRedirectURI(),
	); err != nil {
		log.Errorf("[Integrations] OAuth callback failed for org %s: %v", orgID, err)
		return jsonError(c, fiber.StatusBadGateway, "exchange_failed", "could not complete Google authorization")
	}

	return c.Redirect(env.GetEnv("APP_URL", "http://localhost:4000")+"/settings/integrations", fiber.StatusSeeOther)
}

// HandleGoogleStatus reports the connection state; when connected it also
// returns the accounts, locations and pending invitations the credential sees.
func HandleGoogleStatus(c *fiber.Ctx) error {
	orgID := currentOrgID(c)

	if !integrationsController.wrapper.HasValidToken(orgID) {
		return c.JSON(fiber.Map{"connected": false})
	}

	ctx := c.Context()
	accounts, err := integrationsController.wrapper.ListAccounts(ctx, orgID)
	if err != nil {
		return integrationStatusError(c, orgID, err)
	}
	locations, err := integrationsController.wrapper.GetAllAccessibleLocations(ctx, orgID)
	if err != nil {
		return integrationStatusError(c, orgID, err)
	}
	invitations, err := integrationsController.wrapper.GetInvitations(ctx, orgID)
	if err != nil {
		return integrationStatusError(c, orgID, err)
	}

	return c.JSON(fiber.Map{
		"connected":   true,
		"accounts":    accounts,
		"locations":   locations,
		"invitations": invitations,
	})
}

func integrationStatusError(c *fiber.Ctx, orgID string, err error) error {
	log.Errorf("[Integrations] Status lookup failed for org %s: %v", orgID, err)
	if errors.Is(err, gmb.ErrAuthExpired) || errors.Is(err, gmb.ErrNoConnection) {
		return c.JSON(fiber.Map{"connected": false, "reconnect_required": true})
	}
	return jsonError(c, fiber.StatusBadGateway, "status_failed", "could not query Google Business Profile")
}

type acceptInvitationRequest struct {
	InvitationName string `json:"invitation_name"`
}

// HandleAcceptInvitation accepts a pending location share.
func HandleAcceptInvitation(c *fiber.Ctx) error {
	var req acceptInvitationRequest
	if err := c.BodyParser(&req); err != nil || req.InvitationName == "" {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "invitation_name is required")
	}

	orgID := currentOrgID(c)
	if err := integrationsController.wrapper.AcceptInvitation(c.Context(), orgID, req.InvitationName); err != nil {
		log.Errorf("[Integrations] Accept invitation failed for org %s: %v", orgID, err)
		return jsonError(c, fiber.StatusBadGateway, "accept_failed", "could not accept invitation")
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleGoogleDisconnect revokes the credential remotely (best effort) and
// always deletes the stored row.
func HandleGoogleDisconnect(c *fiber.Ctx) error {
	orgID := currentOrgID(c)
	if err := integrationsController.wrapper.RevokeToken(c.Context(), orgID); err != nil {
		log.Errorf("[Integrations] Disconnect failed for org %s: %v", orgID, err)
		return jsonError(c, fiber.StatusInternalServerError, "disconnect_failed", "could not remove stored credential")
	}
	return c.JSON(fiber.Map{"success": true})
}
