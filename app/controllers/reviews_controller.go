package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ReviewDeckHQ/ReviewDeck/app/repository"
	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/gmb"
	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/reviewsync"
)

// ReviewsController exposes the review mirror and the sync/reply actions.
type ReviewsController struct {
	engine  *reviewsync.Engine
	reviews repository.ReviewRepository
}

var reviewsController *ReviewsController

// InitializeReviewsController wires the controller with the engine and repository.
func InitializeReviewsController(engine *reviewsync.Engine, reviews repository.ReviewRepository) {
	reviewsController = &ReviewsController{engine: engine, reviews: reviews}
}

// HandleLocationReviews fetches the remote reviews for one location, folds
// them into the mirror and returns the stored rows. One round trip serves
// both the UI and the persistence.
func HandleLocationReviews(c *fiber.Ctx) error {
	accountID := c.Query("account_id")
	locationID := c.Query("location_id")
	if accountID == "" || locationID == "" {
		return jsonError(c, fiber.StatusBadRequest, "invalid_query", "account_id and location_id are required")
	}

	orgID := currentOrgID(c)
	loc := gmb.Location{ID: locationID, AccountID: accountID, Title: c.Query("location_name")}

	result, err := reviewsController.engine.SyncLocation(c.Context(), orgID, loc)
	if err != nil {
		log.Errorf("[Reviews] Location sync failed for org %s location %s: %v", orgID, locationID, err)
		if errors.Is(err, gmb.ErrAuthExpired) || errors.Is(err, gmb.ErrNoConnection) {
			return jsonError(c, fiber.StatusUnauthorized, "reconnect_required", "Google connection is no longer valid")
		}
		return jsonError(c, fiber.StatusBadGateway, "sync_failed", "could not fetch reviews")
	}

	stored, err := reviewsController.reviews.ListByLocation(orgID, locationID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "list_failed", "could not load stored reviews")
	}

	return c.JSON(fiber.Map{
		"reviews":     stored,
		"fetched":     result.Fetched,
		"new_reviews": result.NewReviews,
	})
}

// HandleSyncOrganization runs a full sync pass for the active organization.
func HandleSyncOrganization(c *fiber.Ctx) error {
	result := reviewsController.engine.SyncOrganization(c.Context(), currentOrgID(c))
	if !result.Success {
		return c.Status(fiber.StatusBadGateway).JSON(result)
	}
	return c.JSON(result)
}

// HandleStoredReviews lists the mirror with offset pagination.
func HandleStoredReviews(c *fiber.Ctx) error {
	orgID := currentOrgID(c)
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	reviews, err := reviewsController.reviews.ListByOrganization(orgID, offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "list_failed", "could not load stored reviews")
	}
	total, err := reviewsController.reviews.CountByOrganization(orgID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "list_failed", "could not count stored reviews")
	}

	return c.JSON(fiber.Map{
		"reviews": reviews,
		"total":   total,
	})
}

// HandleUnansweredCount reports how many stored reviews still lack a reply.
func HandleUnansweredCount(c *fiber.Ctx) error {
	count, err := reviewsController.reviews.CountUnanswered(currentOrgID(c))
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "count_failed", "could not count unanswered reviews")
	}
	return c.JSON(fiber.Map{"unanswered": count})
}

type replyRequest struct {
	ReviewName string `json:"review_name"`
	Comment    string `json:"comment"`
}

// HandleReplyToReview publishes an owner reply. The remote write happens
// first; the mirror is only updated once Google accepted the reply.
func HandleReplyToReview(c *fiber.Ctx) error {
	var req replyRequest
	if err := c.BodyParser(&req); err != nil || req.ReviewName == "" || req.Comment == "" {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "review_name and comment are required")
	}

	if err := reviewsController.engine.ReplyToReview(c.Context(), currentOrgID(c), req.ReviewName, req.Comment); err != nil {
		log.Errorf("[Reviews] Reply failed: %v", err)
		return jsonError(c, fiber.StatusBadGateway, "reply_failed", "could not publish reply")
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleDeleteReviewReply removes an owner reply remotely and clears the mirror.
func HandleDeleteReviewReply(c *fiber.Ctx) error {
	var req replyRequest
	if err := c.BodyParser(&req); err != nil || req.ReviewName == "" {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "review_name is required")
	}

	if err := reviewsController.engine.DeleteReviewReply(c.Context(), currentOrgID(c), req.ReviewName); err != nil {
		log.Errorf("[Reviews] Reply deletion failed: %v", err)
		return jsonError(c, fiber.StatusBadGateway, "delete_failed", "could not delete reply")
	}
	return c.JSON(fiber.Map{"success": true})
}
