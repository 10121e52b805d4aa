package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ReviewDeckHQ/ReviewDeck/app/models"
)

// googleCredentialRepository implements the GoogleCredentialRepository interface
type googleCredentialRepository struct {
	db *gorm.DB
}

// NewGoogleCredentialRepository creates a new credential repository instance
func NewGoogleCredentialRepository(db *gorm.DB) GoogleCredentialRepository {
	return &googleCredentialRepository{db: db}
}

func (r *googleCredentialRepository) GetByOrganization(orgID string) (*models.GoogleCredential, error) {
	var cred models.GoogleCredential
	err := r.db.Where("organization_id = ?", orgID).First(&cred).Error
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

// Upsert writes the credential keyed by organization. A second authorization
// for the same organization overwrites the existing row.
func (r *googleCredentialRepository) Upsert(cred *models.GoogleCredential) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "organization_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id", "access_token", "refresh_token", "expires_at", "updated_at",
		}),
	}).Create(cred).Error
}

func (r *googleCredentialRepository) UpdateAccessToken(orgID, accessTokenCipher string, expiresAt time.Time) error {
	return r.db.Model(&models.GoogleCredential{}).
		Where("organization_id = ?", orgID).
		Updates(map[string]interface{}{
			"access_token": accessTokenCipher,
			"expires_at":   expiresAt,
			"updated_at":   time.Now(),
		}).Error
}

func (r *googleCredentialRepository) DeleteByOrganization(orgID string) error {
	return r.db.Where("organization_id = ?", orgID).Delete(&models.GoogleCredential{}).Error
}

// ListOrganizationIDsWithRefreshToken returns every organization that still
// has a refresh token on file; this is the work list for a full sync pass.
func (r *googleCredentialRepository) ListOrganizationIDsWithRefreshToken() ([]string, error) {
	var ids []string
	err := r.db.Model(&models.GoogleCredential{}).
		Where("refresh_token IS NOT NULL AND refresh_token <> ''").
		Pluck("organization_id", &ids).Error
	return ids, err
}
