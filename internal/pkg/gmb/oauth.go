package gmb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// BusinessManageScope grants read/write access to Business Profile data.
const BusinessManageScope = "https://www.googleapis.com/auth/business.manage"

const defaultRevokeURL = "https://oauth2.googleapis.com/revoke"

// StateCookieName carries the CSRF state token between the authorization
// redirect and the callback. The cookie is short-lived by design.
const StateCookieName = "google_oauth_state"

// StateCookieMaxAge bounds how long an authorization attempt stays valid.
const StateCookieMaxAge = 10 * time.Minute

// OAuth implements the three-legged authorization-code flow plus silent
// refresh against Google's OAuth endpoints.
type OAuth struct {
	clientID     string
	clientSecret string
	endpoint     oauth2.Endpoint
	revokeURL    string
	httpClient   *http.Client
}

// NewOAuth validates configuration up front; a missing client id or secret is
// fatal for every operation that would need it.
func NewOAuth(clientID, clientSecret string) (*OAuth, error) {
	if clientID == "" || clientSecret == "" {
		return nil, ErrNotConfigured
	}
	return &OAuth{
		clientID:     clientID,
		clientSecret: clientSecret,
		endpoint:     google.Endpoint,
		revokeURL:    defaultRevokeURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (o *OAuth) config(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     o.clientID,
		ClientSecret: o.clientSecret,
		Endpoint:     o.endpoint,
		RedirectURL:  redirectURI,
		Scopes:       []string{"openid", "email", "profile", BusinessManageScope},
	}
}

// AuthCodeURL builds the authorization URL. Offline access plus forced
// consent guarantees Google returns a refresh token on every authorization.
func (o *OAuth) AuthCodeURL(state, redirectURI string) string {
	return o.config(redirectURI).AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades an authorization code for the token pair. Both halves are
// required: a response missing either is ErrMissingTokens and must not be
// persisted.
func (o *OAuth) Exchange(ctx context.Context, code, redirectURI string) (*Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)

	tok, err := o.config(redirectURI).Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("gmb: code exchange: %w", err)
	}
	if tok.AccessToken == "" || tok.RefreshToken == "" {
		return nil, ErrMissingTokens
	}

	return &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}, nil
}

// Refresh posts a refresh_token grant and returns the new access token and
// expiry. The refresh token itself is long-lived and not rotated by this
// flow, so only the access half changes.
func (o *OAuth) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)

	src := o.config("").TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	return tok.AccessToken, tok.Expiry, nil
}

// Revoke invalidates the token with Google. Best effort: callers delete the
// stored credential regardless of the outcome here.
func (o *OAuth) Revoke(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		o.revokeURL+"?token="+url.QueryEscape(accessToken), nil)
	if err != nil {
		return err
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gmb: revoke returned status %d", resp.StatusCode)
	}
	return nil
}

// VerifyState compares the callback state with the issued one. Byte-for-byte
// equality is the CSRF defense and must not be skipped.
func VerifyState(issued, returned string) error {
	if issued == "" || returned == "" || issued != returned {
		return ErrInvalidState
	}
	return nil
}
