package reviewsync

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/datatypes"

	"github.com/ReviewDeckHQ/ReviewDeck/app/models"
	"github.com/ReviewDeckHQ/ReviewDeck/app/repository"
	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/gmb"
)

// RemoteSource is the slice of the Business Profile facade the engine needs.
// Keeping it an interface lets the engine run against an in-memory double.
type RemoteSource interface {
	GetAllAccessibleLocations(ctx context.Context, orgID string) ([]gmb.Location, error)
	GetReviews(ctx context.Context, orgID, accountID, locationID string) ([]gmb.Review, error)
	ReplyToReviewByName(ctx context.Context, orgID, reviewName, comment string) bool
	DeleteReviewReplyByName(ctx context.Context, orgID, reviewName string) bool
	ConnectedOrganizationIDs() ([]string, error)
}

// LocationResult is the outcome of reconciling one location.
type LocationResult struct {
	LocationID   string `json:"location_id"`
	LocationName string `json:"location_name"`
	Fetched      int    `json:"fetched"`
	NewReviews   int    `json:"new_reviews"`
	Failed       bool   `json:"failed"`
}

// SyncResult is the outcome of reconciling one organization.
type SyncResult struct {
	OrganizationID    string           `json:"organization_id"`
	Success           bool             `json:"success"`
	NewReviews        int              `json:"new_reviews"`
	UnansweredReviews int64            `json:"unanswered_reviews"`
	Locations         []LocationResult `json:"locations,omitempty"`
	Error             string           `json:"error,omitempty"`
}

// Summary is the outcome of a full sync pass over every connected organization.
type Summary struct {
	Success bool         `json:"success"`
	Synced  int          `json:"synced"`
	Results []SyncResult `json:"results"`
}

// Engine reconciles the remote review state into the local mirror. All writes
// go through the review repository's conflict-tolerant operations, so any
// number of engines may run the same pass concurrently.
type Engine struct {
	remote  RemoteSource
	reviews repository.ReviewRepository
}

func NewEngine(remote RemoteSource, reviews repository.ReviewRepository) *Engine {
	return &Engine{remote: remote, reviews: reviews}
}

// SyncLocation fetches the remote reviews for one location and folds them into
// the mirror: unknown reviews are inserted, known ones are touched only when
// the owner reply changed remotely. Insert conflicts mean another pass won the
// race and count as already-present, never as failures.
func (e *Engine) SyncLocation(ctx context.Context, orgID string, loc gmb.Location) (LocationResult, error) {
	result := LocationResult{LocationID: loc.ID, LocationName: loc.Title}

	remoteReviews, err := e.remote.GetReviews(ctx, orgID, loc.AccountID, loc.ID)
	if err != nil {
		result.Failed = true
		return result, fmt.Errorf("reviewsync: fetch reviews for location %s: %w", loc.ID, err)
	}
	result.Fetched = len(remoteReviews)

	for i := range remoteReviews {
		rev := &remoteReviews[i]
		platformReviewID := rev.StableID()
		if platformReviewID == "" {
			log.Warnf("[ReviewSync] Skipping review without a stable id at location %s", loc.ID)
			continue
		}

		inserted, err := e.reviews.InsertIfAbsent(reviewRecord(orgID, loc, rev, platformReviewID))
		if err != nil {
			result.Failed = true
			return result, fmt.Errorf("reviewsync: insert review %s: %w", platformReviewID, err)
		}
		if inserted {
			result.NewReviews++
			continue
		}

		if err := e.reconcileReply(orgID, platformReviewID, rev); err != nil {
			result.Failed = true
			return result, err
		}
	}

	return result, nil
}

// reconcileReply updates the stored reply when the remote one differs. Rating
// and text edits are intentionally not mirrored; the reply is the only field
// both sides write.
func (e *Engine) reconcileReply(orgID, platformReviewID string, rev *gmb.Review) error {
	existing, err := e.reviews.GetByPlatformID(orgID, models.PlatformGoogle, platformReviewID)
	if err != nil {
		return fmt.Errorf("reviewsync: load review %s: %w", platformReviewID, err)
	}
	if existing == nil {
		// Inserted and deleted between our two statements; nothing to update.
		return nil
	}

	remoteReply := rev.ReplyComment()
	if existing.ReplyText() == remoteReply {
		return nil
	}

	var reply *string
	var replyUpdatedAt *time.Time
	if remoteReply != "" {
		reply = &remoteReply
		at := time.Now()
		if rev.ReviewReply != nil {
			if parsed, ok := parseRemoteTime(rev.ReviewReply.UpdateTime); ok {
				at = parsed
			}
		}
		replyUpdatedAt = &at
	}

	if err := e.reviews.UpdateReply(orgID, models.PlatformGoogle, platformReviewID, reply, replyUpdatedAt); err != nil {
		return fmt.Errorf("reviewsync: update reply for %s: %w", platformReviewID, err)
	}
	return nil
}

// SyncOrganization discovers every accessible location and reconciles each
// one. A failing location is logged and skipped so one broken listing cannot
// starve the rest; only credential problems fail the whole organization.
func (e *Engine) SyncOrganization(ctx context.Context, orgID string) SyncResult {
	result := SyncResult{OrganizationID: orgID}

	locations, err := e.remote.GetAllAccessibleLocations(ctx, orgID)
	if err != nil {
		log.Errorf("[ReviewSync] Location discovery failed for org %s: %v", orgID, err)
		result.Error = err.Error()
		return result
	}

	for _, loc := range locations {
		locResult, err := e.SyncLocation(ctx, orgID, loc)
		if err != nil {
			log.Errorf("[ReviewSync] Sync failed for org %s location %s: %v", orgID, loc.ID, err)
		}
		result.NewReviews += locResult.NewReviews
		result.Locations = append(result.Locations, locResult)
	}

	if unanswered, err := e.reviews.CountUnanswered(orgID); err == nil {
		result.UnansweredReviews = unanswered
	} else {
		log.Errorf("[ReviewSync] Unanswered count failed for org %s: %v", orgID, err)
	}

	result.Success = true
	return result
}

// SyncAll runs a pass over every organization that still holds a refresh
// token. Per-organization failures are recorded in the summary, not raised.
func (e *Engine) SyncAll(ctx context.Context) (Summary, error) {
	orgIDs, err := e.remote.ConnectedOrganizationIDs()
	if err != nil {
		return Summary{}, fmt.Errorf("reviewsync: list connected organizations: %w", err)
	}

	summary := Summary{Success: true}
	for _, orgID := range orgIDs {
		res := e.SyncOrganization(ctx, orgID)
		if res.Success {
			summary.Synced++
		}
		summary.Results = append(summary.Results, res)
	}

	log.Infof("[ReviewSync] Pass complete: %d/%d organizations synced", summary.Synced, len(orgIDs))
	return summary, nil
}

// ReplyToReview publishes an owner reply remotely and, on success, mirrors it
// into the stored row. Remote first: a failed publish must not leave a local
// reply the world cannot see.
func (e *Engine) ReplyToReview(ctx context.Context, orgID, reviewName, comment string) error {
	if ok := e.remote.ReplyToReviewByName(ctx, orgID, reviewName, comment); !ok {
		return fmt.Errorf("reviewsync: remote reply to %s failed", reviewName)
	}

	now := time.Now()
	platformReviewID := lastNameSegment(reviewName)
	if err := e.reviews.UpdateReply(orgID, models.PlatformGoogle, platformReviewID, &comment, &now); err != nil {
		// The remote side accepted the reply; the mirror catches up on the
		// next sync pass.
		log.Errorf("[ReviewSync] Reply stored remotely but local update failed for %s: %v", platformReviewID, err)
	}
	return nil
}

// DeleteReviewReply removes an owner reply remotely and clears the mirror.
func (e *Engine) DeleteReviewReply(ctx context.Context, orgID, reviewName string) error {
	if ok := e.remote.DeleteReviewReplyByName(ctx, orgID, reviewName); !ok {
		return fmt.Errorf("reviewsync: remote reply deletion for %s failed", reviewName)
	}

	platformReviewID := lastNameSegment(reviewName)
	if err := e.reviews.UpdateReply(orgID, models.PlatformGoogle, platformReviewID, nil, nil); err != nil {
		log.Errorf("[ReviewSync] Reply deleted remotely but local update failed for %s: %v", platformReviewID, err)
	}
	return nil
}

func reviewRecord(orgID string, loc gmb.Location, rev *gmb.Review, platformReviewID string) *models.Review {
	record := &models.Review{
		OrganizationID:    orgID,
		Platform:          models.PlatformGoogle,
		PlatformReviewID:  platformReviewID,
		LocationID:        loc.ID,
		LocationName:      loc.Title,
		ReviewerName:      rev.Reviewer.DisplayName,
		ReviewerAvatarURL: rev.Reviewer.ProfilePhotoURL,
		Rating:            models.RatingFromStar(rev.StarRating),
		ReviewText:        rev.Comment,
		RawData:           datatypes.JSON(rev.Raw),
	}

	if reviewedAt, ok := parseRemoteTime(rev.CreateTime); ok {
		record.ReviewedAt = reviewedAt
	} else {
		record.ReviewedAt = time.Now()
	}

	if reply := rev.ReplyComment(); reply != "" {
		record.ReviewReply = &reply
		at := time.Now()
		if parsed, ok := parseRemoteTime(rev.ReviewReply.UpdateTime); ok {
			at = parsed
		}
		record.ReplyUpdatedAt = &at
	}

	return record
}

func parseRemoteTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func lastNameSegment(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' {
			return name[i+1:]
		}
	}
	return name
}
