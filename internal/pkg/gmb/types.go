package gmb

import (
	"encoding/json"
	"strings"
	"time"
)

// Token is an organization's decrypted OAuth credential pair.
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Account is one Business Profile account visible to a credential.
type Account struct {
	Name              string `json:"name"` // "accounts/{id}"
	ID                string `json:"accountId"`
	AccountName       string `json:"accountName"`
	Type              string `json:"type"`
	Role              string `json:"role"`
	VerificationState string `json:"verificationState"`
}

// Location is one business location, annotated with the account it was
// discovered through so callers never have to re-parse resource names.
type Location struct {
	Name         string `json:"name"` // "locations/{id}"
	ID           string `json:"locationId"`
	AccountID    string `json:"accountId"`
	Title        string `json:"title"`
	Address      string `json:"address,omitempty"`
	PrimaryPhone string `json:"primaryPhone,omitempty"`
	WebsiteURI   string `json:"websiteUri,omitempty"`
}

// Invitation is a pending share of a location or account with this
// credential. Until accepted, the target is not traversable for reviews.
type Invitation struct {
	Name           string `json:"name"` // "accounts/{id}/invitations/{id}"
	Role           string `json:"role"`
	TargetLocation string `json:"targetLocation,omitempty"`
	TargetAccount  string `json:"targetAccount,omitempty"`
}

// Reviewer mirrors the remote reviewer object.
type Reviewer struct {
	DisplayName     string `json:"displayName"`
	ProfilePhotoURL string `json:"profilePhotoUrl,omitempty"`
	IsAnonymous     bool   `json:"isAnonymous,omitempty"`
}

// ReviewReply mirrors the remote reply object.
type ReviewReply struct {
	Comment    string `json:"comment"`
	UpdateTime string `json:"updateTime,omitempty"`
}

// Review mirrors one remote review. Raw holds the untouched JSON payload;
// the reconciliation engine snapshots it so the resource name can be
// recovered later for reply operations.
type Review struct {
	Name        string          `json:"name"` // "accounts/{a}/locations/{l}/reviews/{r}"
	ReviewID    string          `json:"reviewId"`
	Reviewer    Reviewer        `json:"reviewer"`
	StarRating  string          `json:"starRating"`
	Comment     string          `json:"comment,omitempty"`
	CreateTime  string          `json:"createTime"`
	UpdateTime  string          `json:"updateTime,omitempty"`
	ReviewReply *ReviewReply    `json:"reviewReply,omitempty"`
	Raw         json.RawMessage `json:"-"`
}

// ReplyComment returns the remote reply text or "" when unanswered.
func (r *Review) ReplyComment() string {
	if r.ReviewReply == nil {
		return ""
	}
	return r.ReviewReply.Comment
}

// StableID derives the platform review id: the explicit field when present,
// otherwise the trailing segment of the resource name.
func (r *Review) StableID() string {
	if r.ReviewID != "" {
		return r.ReviewID
	}
	return lastSegment(r.Name)
}

// trimResourceID strips an optional "{collection}/" prefix so identifiers are
// accepted with or without their path-segment prefixes.
func trimResourceID(id, collection string) string {
	return strings.TrimPrefix(id, collection+"/")
}

func lastSegment(name string) string {
	if name == "" {
		return ""
	}
	parts := strings.Split(name, "/")
	return parts[len(parts)-1]
}
