package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ReviewDeckHQ/ReviewDeck/app/models"
)

// reviewRepository implements the ReviewRepository interface
type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository creates a new review repository instance
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) GetByPlatformID(orgID, platform, platformReviewID string) (*models.Review, error) {
	var review models.Review
	err := r.db.Where("organization_id = ? AND platform = ? AND platform_review_id = ?",
		orgID, platform, platformReviewID).First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// InsertIfAbsent relies on the unique index over (organization_id, platform,
// platform_review_id) as the sole concurrency guard: two concurrent syncs of
// the same remote review resolve to exactly one row, the loser observing
// inserted=false.
func (r *reviewRepository) InsertIfAbsent(review *models.Review) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "organization_id"}, {Name: "platform"}, {Name: "platform_review_id"},
		},
		DoNothing: true,
	}).Create(review)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *reviewRepository) UpdateReply(orgID, platform, platformReviewID string, reply *string, replyUpdatedAt *time.Time) error {
	return r.db.Model(&models.Review{}).
		Where("organization_id = ? AND platform = ? AND platform_review_id = ?",
			orgID, platform, platformReviewID).
		Updates(map[string]interface{}{
			"review_reply":     reply,
			"reply_updated_at": replyUpdatedAt,
			"updated_at":       time.Now(),
		}).Error
}

func (r *reviewRepository) ListByOrganization(orgID string, offset, limit int) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.Where("organization_id = ?", orgID).
		Order("reviewed_at DESC").
		Offset(offset).Limit(limit).
		Find(&reviews).Error
	return reviews, err
}

func (r *reviewRepository) ListByLocation(orgID, locationID string) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.Where("organization_id = ? AND location_id = ?", orgID, locationID).
		Order("reviewed_at DESC").
		Find(&reviews).Error
	return reviews, err
}

func (r *reviewRepository) CountByOrganization(orgID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Review{}).Where("organization_id = ?", orgID).Count(&count).Error
	return count, err
}

func (r *reviewRepository) CountUnanswered(orgID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Review{}).
		Where("organization_id = ? AND (review_reply IS NULL OR review_reply = '')", orgID).
		Count(&count).Error
	return count, err
}

func (r *reviewRepository) CountUnansweredPerOrganization() (map[string]int64, error) {
	type row struct {
		OrganizationID string
		Count          int64
	}
	var rows []row
	err := r.db.Model(&models.Review{}).
		Select("organization_id, COUNT(*) as count").
		Where("review_reply IS NULL OR review_reply = ''").
		Group("organization_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, rec := range rows {
		counts[rec.OrganizationID] = rec.Count
	}
	return counts, nil
}
