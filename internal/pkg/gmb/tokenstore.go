package gmb

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ReviewDeckHQ/ReviewDeck/app/models"
	"github.com/ReviewDeckHQ/ReviewDeck/app/repository"
	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/tokencrypt"
)

// TokenStore persists per-organization OAuth credentials, encrypted at rest.
// It is the only component that ever sees both the cipher and the rows;
// everything above it works with decrypted tokens, everything below it with
// envelopes.
type TokenStore struct {
	creds  repository.GoogleCredentialRepository
	cipher *tokencrypt.Cipher
}

func NewTokenStore(creds repository.GoogleCredentialRepository, cipher *tokencrypt.Cipher) *TokenStore {
	return &TokenStore{creds: creds, cipher: cipher}
}

// Get loads and decrypts the organization's credential. A missing row or an
// envelope that no longer decrypts both report ErrNoConnection; a corrupt
// credential is unusable, not a crash.
func (s *TokenStore) Get(orgID string) (*Token, error) {
	cred, err := s.creds.GetByOrganization(orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoConnection
		}
		return nil, fmt.Errorf("gmb: load credential: %w", err)
	}

	accessToken, err := s.cipher.Decrypt(cred.AccessToken)
	if err != nil {
		log.Errorf("[TokenStore] Failed to decrypt access token for org %s: %v", orgID, err)
		return nil, ErrNoConnection
	}
	refreshToken, err := s.cipher.Decrypt(cred.RefreshToken)
	if err != nil {
		log.Errorf("[TokenStore] Failed to decrypt refresh token for org %s: %v", orgID, err)
		return nil, ErrNoConnection
	}

	return &Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    cred.ExpiresAt,
	}, nil
}

// Upsert encrypts and stores a full token pair, keyed by organization.
func (s *TokenStore) Upsert(orgID, userID string, tok *Token) error {
	accessCipher, err := s.cipher.Encrypt(tok.AccessToken)
	if err != nil {
		return fmt.Errorf("gmb: encrypt access token: %w", err)
	}
	refreshCipher, err := s.cipher.Encrypt(tok.RefreshToken)
	if err != nil {
		return fmt.Errorf("gmb: encrypt refresh token: %w", err)
	}

	return s.creds.Upsert(&models.GoogleCredential{
		OrganizationID: orgID,
		UserID:         userID,
		AccessToken:    accessCipher,
		RefreshToken:   refreshCipher,
		ExpiresAt:      tok.ExpiresAt,
	})
}

// UpdateAccessToken replaces only the access half after a silent refresh.
// Concurrent refreshes are wasteful but safe; the last writer wins.
func (s *TokenStore) UpdateAccessToken(orgID, accessToken string, expiresAt time.Time) error {
	accessCipher, err := s.cipher.Encrypt(accessToken)
	if err != nil {
		return fmt.Errorf("gmb: encrypt access token: %w", err)
	}
	return s.creds.UpdateAccessToken(orgID, accessCipher, expiresAt)
}

// Delete removes the credential row.
func (s *TokenStore) Delete(orgID string) error {
	return s.creds.DeleteByOrganization(orgID)
}

// HasValidToken reports whether a credential exists and its access token has
// not yet expired. An expired access token with a live refresh token still
// counts as disconnected for UI purposes, matching the stored expiry check.
func (s *TokenStore) HasValidToken(orgID string) bool {
	cred, err := s.creds.GetByOrganization(orgID)
	if err != nil {
		return false
	}
	return !cred.IsExpired()
}

// ListConnectedOrgIDs returns the organizations eligible for a sync pass.
func (s *TokenStore) ListConnectedOrgIDs() ([]string, error) {
	return s.creds.ListOrganizationIDsWithRefreshToken()
}
