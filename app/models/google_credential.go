package models

import "time"

// GoogleCredential stores the encrypted OAuth token pair for one organization.
// At most one live row per organization; a second authorization overwrites.
// AccessToken and RefreshToken hold cipher envelopes, never plaintext.
type GoogleCredential struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OrganizationID string    `gorm:"uniqueIndex;type:varchar(36)" json:"organization_id"`
	UserID         string    `gorm:"index;type:varchar(36)" json:"user_id"`
	AccessToken    string    `gorm:"type:text" json:"-"`
	RefreshToken   string    `gorm:"type:text" json:"-"`
	ExpiresAt      time.Time `gorm:"type:timestamp" json:"expires_at"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsExpired reports whether the stored access token is past its expiry.
// The refresh token remains the basis of validity; an expired access token
// only means the next remote call must refresh first.
func (c *GoogleCredential) IsExpired() bool {
	return !c.ExpiresAt.After(time.Now())
}
