package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ReviewDeckHQ/ReviewDeck/app/models"
	"github.com/ReviewDeckHQ/ReviewDeck/app/repository"
	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/env"
	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/usercontext"
)

// OrganizationsController manages tenants and the active-organization cookie.
type OrganizationsController struct {
	orgs repository.OrganizationRepository
}

var organizationsController *OrganizationsController

// InitializeOrganizationsController wires the controller with its repository.
func InitializeOrganizationsController(orgs repository.OrganizationRepository) {
	organizationsController = &OrganizationsController{orgs: orgs}
}

type createOrganizationRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// HandleCreateOrganization creates a tenant and makes it the active one.
func HandleCreateOrganization(c *fiber.Ctx) error {
	var req createOrganizationRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "could not parse request body")
	}

	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if slug == "" {
		slug = slugify(req.Name)
	}

	org := &models.Organization{
		Name: strings.TrimSpace(req.Name),
		Slug: slug,
	}
	if err := org.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_organization", err.Error())
	}

	if err := organizationsController.orgs.Create(org); err != nil {
		return jsonError(c, fiber.StatusConflict, "create_failed", "organization could not be created")
	}

	setActiveOrganizationCookie(c, org.ID)
	return c.Status(fiber.StatusCreated).JSON(org)
}

// HandleListOrganizations lists tenants with simple offset pagination.
func HandleListOrganizations(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	orgs, err := organizationsController.orgs.List(offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "list_failed", "could not list organizations")
	}
	total, err := organizationsController.orgs.Count()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "list_failed", "could not count organizations")
	}

	return c.JSON(fiber.Map{
		"organizations": orgs,
		"total":         total,
	})
}

// HandleSelectOrganization switches the active organization cookie after
// checking the target exists.
func HandleSelectOrganization(c *fiber.Ctx) error {
	orgID := c.Params("id")
	org, err := organizationsController.orgs.GetByID(orgID)
	if err != nil || org == nil {
		return jsonError(c, fiber.StatusNotFound, "not_found", "organization not found")
	}

	setActiveOrganizationCookie(c, org.ID)
	return c.JSON(fiber.Map{"success": true, "organization": org})
}

func setActiveOrganizationCookie(c *fiber.Ctx, orgID string) {
	c.Cookie(&fiber.Cookie{
		Name:     usercontext.OrgCookieName,
		Value:    orgID,
		HTTPOnly: true,
		Secure:   !env.IsDev(),
		SameSite: "Lax",
		Path:     "/",
	})
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-' || r == '_':
			return '-'
		default:
			return -1
		}
	}, slug)
	return strings.Trim(slug, "-")
}
