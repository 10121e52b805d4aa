package gmb

import "errors"

var (
	// ErrNotConfigured means the Google client id/secret are missing.
	ErrNotConfigured = errors.New("gmb: google oauth credentials not configured")

	// ErrNoConnection means the organization has no usable stored credential.
	ErrNoConnection = errors.New("gmb: no google connection found")

	// ErrMissingTokens means the code exchange returned without both tokens;
	// nothing is persisted in that case.
	ErrMissingTokens = errors.New("gmb: token exchange returned incomplete tokens")

	// ErrRefreshFailed means the refresh-token grant was rejected. Callers
	// surface this as "reconnect required" and never retry indefinitely.
	ErrRefreshFailed = errors.New("gmb: access token refresh failed")

	// ErrAuthExpired means a remote call still reported 401 after the single
	// allowed refresh+retry. The credential needs re-authorization.
	ErrAuthExpired = errors.New("gmb: google authorization expired")

	// ErrInvalidState means the OAuth callback state did not match the one
	// issued for this session.
	ErrInvalidState = errors.New("gmb: invalid oauth state")
)
