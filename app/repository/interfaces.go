package repository

import (
	"time"

	"github.com/ReviewDeckHQ/ReviewDeck/app/models"
)

// OrganizationRepository defines the interface for organization-related database operations
type OrganizationRepository interface {
	Create(org *models.Organization) error
	GetByID(id string) (*models.Organization, error)
	GetBySlug(slug string) (*models.Organization, error)
	List(offset, limit int) ([]models.Organization, error)
	Count() (int64, error)
}

// GoogleCredentialRepository defines the interface for encrypted OAuth credential rows.
// Callers outside the token store only ever see decrypted tokens; this layer
// moves cipher envelopes.
type GoogleCredentialRepository interface {
	GetByOrganization(orgID string) (*models.GoogleCredential, error)
	Upsert(cred *models.GoogleCredential) error
	UpdateAccessToken(orgID, accessTokenCipher string, expiresAt time.Time) error
	DeleteByOrganization(orgID string) error
	ListOrganizationIDsWithRefreshToken() ([]string, error)
}

// ReviewRepository defines the interface for the local review mirror.
type ReviewRepository interface {
	// GetByPlatformID returns (nil, nil) when no row matches.
	GetByPlatformID(orgID, platform, platformReviewID string) (*models.Review, error)
	// InsertIfAbsent creates the row unless the natural key already exists.
	// A conflict means "already present" and reports inserted=false, not an error.
	InsertIfAbsent(review *models.Review) (inserted bool, err error)
	UpdateReply(orgID, platform, platformReviewID string, reply *string, replyUpdatedAt *time.Time) error
	ListByOrganization(orgID string, offset, limit int) ([]models.Review, error)
	ListByLocation(orgID, locationID string) ([]models.Review, error)
	CountByOrganization(orgID string) (int64, error)
	CountUnanswered(orgID string) (int64, error)
	CountUnansweredPerOrganization() (map[string]int64, error)
}

// Repositories bundles all repository implementations
type Repositories struct {
	Organization     OrganizationRepository
	GoogleCredential GoogleCredentialRepository
	Review           ReviewRepository
}
