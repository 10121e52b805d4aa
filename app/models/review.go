package models

import (
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

const PlatformGoogle = "google"

// Review is the local mirror of one remote review. Identity is the composite
// (organization_id, platform, platform_review_id); the unique index on it is
// what makes concurrent syncs commutative.
type Review struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	OrganizationID    string         `gorm:"type:varchar(36);uniqueIndex:uniq_org_platform_review;index" json:"organization_id" validate:"required"`
	Platform          string         `gorm:"type:varchar(50);uniqueIndex:uniq_org_platform_review" json:"platform" validate:"required"`
	PlatformReviewID  string         `gorm:"type:varchar(191);uniqueIndex:uniq_org_platform_review" json:"platform_review_id" validate:"required"`
	LocationID        string         `gorm:"type:varchar(191);index" json:"location_id"`
	LocationName      string         `gorm:"type:varchar(255)" json:"location_name"`
	ReviewerName      string         `gorm:"type:varchar(255)" json:"reviewer_name"`
	ReviewerAvatarURL string         `gorm:"type:varchar(512);default:null" json:"reviewer_avatar_url,omitempty"`
	Rating            int            `json:"rating" validate:"min=1,max=5"`
	ReviewText        string         `gorm:"type:text" json:"review_text"`
	ReviewReply       *string        `gorm:"type:text" json:"review_reply,omitempty"`
	ReviewedAt        time.Time      `json:"reviewed_at"`
	ReplyUpdatedAt    *time.Time     `gorm:"type:timestamp;default:null" json:"reply_updated_at,omitempty"`
	RawData           datatypes.JSON `json:"raw_data,omitempty"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *Review) Validate() error {
	v := validator.New()

	return v.Struct(r)
}

// IsAnswered reports whether the review currently has a reply.
func (r *Review) IsAnswered() bool {
	return r.ReplyText() != ""
}

// ReplyText returns the stored reply or "" when none exists.
func (r *Review) ReplyText() string {
	if r.ReviewReply == nil {
		return ""
	}
	return *r.ReviewReply
}

var starRatingWords = [5]string{"ONE", "TWO", "THREE", "FOUR", "FIVE"}

// RatingFromStar normalizes the remote star-rating representation to an
// integer in [1,5]. The remote API reports word enums ("FIVE"); numeric
// strings are clamped, anything unrecognized floors to 1.
func RatingFromStar(star string) int {
	for i, w := range starRatingWords {
		if star == w {
			return i + 1
		}
	}
	if n, err := strconv.Atoi(star); err == nil {
		return ClampRating(n)
	}
	return 1
}

// StarFromRating is the inverse mapping, used when presenting stored rows in
// the remote API's shape. Out-of-range values clamp into [1,5].
func StarFromRating(rating int) string {
	return starRatingWords[ClampRating(rating)-1]
}

// ClampRating forces a numeric rating into the valid [1,5] range.
func ClampRating(rating int) int {
	if rating < 1 {
		return 1
	}
	if rating > 5 {
		return 5
	}
	return rating
}
