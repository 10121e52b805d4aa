package gmb

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// Wrapper is the organization-scoped facade over the OAuth protocol, the
// token store and the API client. The web layer and the sync engine only
// ever talk to this type; neither touches ciphertext or raw tokens.
type Wrapper struct {
	store *TokenStore
	oauth *OAuth
}

func NewWrapper(store *TokenStore, oauth *OAuth) *Wrapper {
	return &Wrapper{store: store, oauth: oauth}
}

// service builds an API client for the organization's stored credential.
// Every silent refresh is persisted back through the store; the last writer
// wins, which is safe because the refresh grant is idempotent per token.
func (w *Wrapper) service(orgID string) (*Client, error) {
	tok, err := w.store.Get(orgID)
	if err != nil {
		return nil, err
	}

	return NewClient(tok, w.oauth, func(accessToken string, expiresAt time.Time) {
		if err := w.store.UpdateAccessToken(orgID, accessToken, expiresAt); err != nil {
			log.Errorf("[GMB] Failed to persist refreshed access token for org %s: %v", orgID, err)
		}
	}), nil
}

// GetAuthURL starts an authorization attempt.
func (w *Wrapper) GetAuthURL(state, redirectURI string) string {
	return w.oauth.AuthCodeURL(state, redirectURI)
}

// HandleOAuthCallback finishes the code exchange and persists the encrypted
// token pair, keyed by organization. State verification happens before this
// is called; an exchange missing either token persists nothing.
func (w *Wrapper) HandleOAuthCallback(ctx context.Context, code, orgID, userID, redirectURI string) error {
	tok, err := w.oauth.Exchange(ctx, code, redirectURI)
	if err != nil {
		return err
	}
	return w.store.Upsert(orgID, userID, tok)
}

// HasValidToken reports whether the organization holds an unexpired credential.
func (w *Wrapper) HasValidToken(orgID string) bool {
	return w.store.HasValidToken(orgID)
}

// ListAccounts enumerates the credential's Business Profile accounts.
func (w *Wrapper) ListAccounts(ctx context.Context, orgID string) ([]Account, error) {
	c, err := w.service(orgID)
	if err != nil {
		return nil, err
	}
	return c.Accounts(ctx)
}

// ListLocations enumerates locations under one account.
func (w *Wrapper) ListLocations(ctx context.Context, orgID, accountID string) ([]Location, error) {
	c, err := w.service(orgID)
	if err != nil {
		return nil, err
	}
	return c.Locations(ctx, accountID)
}

// GetAllAccessibleLocations runs the de-duplicating discovery traversal.
func (w *Wrapper) GetAllAccessibleLocations(ctx context.Context, orgID string) ([]Location, error) {
	c, err := w.service(orgID)
	if err != nil {
		return nil, err
	}
	return c.AllAccessibleLocations(ctx)
}

// GetInvitations lists pending location shares.
func (w *Wrapper) GetInvitations(ctx context.Context, orgID string) ([]Invitation, error) {
	c, err := w.service(orgID)
	if err != nil {
		return nil, err
	}
	return c.Invitations(ctx)
}

// AcceptInvitation accepts a pending share; the location becomes traversable
// on the next discovery pass.
func (w *Wrapper) AcceptInvitation(ctx context.Context, orgID, invitationName string) error {
	c, err := w.service(orgID)
	if err != nil {
		return err
	}
	return c.AcceptInvitation(ctx, invitationName)
}

// GetReviews fetches the remote review list for one location.
func (w *Wrapper) GetReviews(ctx context.Context, orgID, accountID, locationID string) ([]Review, error) {
	c, err := w.service(orgID)
	if err != nil {
		return nil, err
	}
	return c.Reviews(ctx, accountID, locationID)
}

// GetBusinessInfo fetches the detail view of one location.
func (w *Wrapper) GetBusinessInfo(ctx context.Context, orgID, locationID string) (*Location, error) {
	c, err := w.service(orgID)
	if err != nil {
		return nil, err
	}
	return c.BusinessInfo(ctx, locationID)
}

// ReplyToReviewByName submits an owner reply, addressed by full resource
// name. Reports success as a flag; the caller decides what to persist.
func (w *Wrapper) ReplyToReviewByName(ctx context.Context, orgID, reviewName, comment string) bool {
	c, err := w.service(orgID)
	if err != nil {
		log.Errorf("[GMB] Reply failed for org %s: %v", orgID, err)
		return false
	}
	if err := c.ReplyToReviewByName(ctx, reviewName, comment); err != nil {
		log.Errorf("[GMB] Reply to %s failed: %v", reviewName, err)
		return false
	}
	return true
}

// DeleteReviewReplyByName removes an owner reply, addressed by full resource name.
func (w *Wrapper) DeleteReviewReplyByName(ctx context.Context, orgID, reviewName string) bool {
	c, err := w.service(orgID)
	if err != nil {
		log.Errorf("[GMB] Reply deletion failed for org %s: %v", orgID, err)
		return false
	}
	if err := c.DeleteReviewReplyByName(ctx, reviewName); err != nil {
		log.Errorf("[GMB] Reply deletion for %s failed: %v", reviewName, err)
		return false
	}
	return true
}

// RevokeToken disconnects the organization: remote revocation is attempted
// first but is best effort; the stored credential row is deleted regardless.
func (w *Wrapper) RevokeToken(ctx context.Context, orgID string) error {
	tok, err := w.store.Get(orgID)
	if err == nil {
		if rerr := w.oauth.Revoke(ctx, tok.AccessToken); rerr != nil {
			log.Warnf("[GMB] Remote token revocation for org %s failed: %v", orgID, rerr)
		}
	}
	return w.store.Delete(orgID)
}

// ConnectedOrganizationIDs returns every organization eligible for a sync pass.
func (w *Wrapper) ConnectedOrganizationIDs() ([]string, error) {
	return w.store.ListConnectedOrgIDs()
}
