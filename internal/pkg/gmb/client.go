package gmb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	mybusinessaccountmanagement "google.golang.org/api/mybusinessaccountmanagement/v1"
	mybusinessbusinessinformation "google.golang.org/api/mybusinessbusinessinformation/v1"
	"google.golang.org/api/option"
)

// The reviews and reply surface still lives on the v4 API, which has no
// generated Go client; those calls go over plain JSON/HTTPS.
const defaultReviewEndpoint = "https://mybusiness.googleapis.com/v4"

const (
	locationReadMask     = "name,title,storefrontAddress,phoneNumbers,websiteUri"
	businessInfoReadMask = "name,title,phoneNumbers,websiteUri,regularHours,specialHours"
	locationPageSize     = 100
	reviewPageSize       = 50
	defaultCallTimeout   = 30 * time.Second
)

// TokenRefresher exchanges a refresh token for a fresh access token.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (string, time.Time, error)
}

// errUnauthorized marks a 401 from the raw review endpoints so the retry
// logic can treat generated-client and raw responses uniformly.
var errUnauthorized = errors.New("gmb: unauthorized")

// Client performs authenticated calls against the Business Profile APIs for
// one organization's credential. On a 401 it refreshes the access token
// exactly once and retries the identical request; a second 401 surfaces as
// ErrAuthExpired. Read failures other than auth degrade to empty results.
type Client struct {
	accessToken  string
	refreshToken string
	refresher    TokenRefresher
	onRefresh    func(accessToken string, expiresAt time.Time)
	httpClient   *http.Client
	callTimeout  time.Duration

	// endpoint overrides, used by tests
	reviewEndpoint   string
	accountEndpoint  string
	locationEndpoint string
}

// NewClient builds a client around a decrypted token pair. onRefresh is
// invoked after every successful silent refresh so the caller can persist the
// rotated access token; it may be nil.
func NewClient(tok *Token, refresher TokenRefresher, onRefresh func(string, time.Time)) *Client {
	return &Client{
		accessToken:    tok.AccessToken,
		refreshToken:   tok.RefreshToken,
		refresher:      refresher,
		onRefresh:      onRefresh,
		httpClient:     &http.Client{Timeout: defaultCallTimeout},
		callTimeout:    defaultCallTimeout,
		reviewEndpoint: defaultReviewEndpoint,
	}
}

// withAuthRetry runs call, allowing at most one refresh+retry on 401. The
// retry bound is an explicit counter, not control flow: a second 401 is
// ErrAuthExpired. Timeouts and other failures never trigger a refresh.
func (c *Client) withAuthRetry(ctx context.Context, call func(accessToken string) error) error {
	refreshes := 0
	for {
		err := call(c.accessToken)
		if !isUnauthorized(err) {
			return err
		}
		if refreshes >= 1 || c.refresher == nil || c.refreshToken == "" {
			return ErrAuthExpired
		}
		refreshes++

		accessToken, expiresAt, rerr := c.refresher.Refresh(ctx, c.refreshToken)
		if rerr != nil {
			return fmt.Errorf("%w: %v", ErrAuthExpired, rerr)
		}
		c.accessToken = accessToken
		if c.onRefresh != nil {
			c.onRefresh(accessToken, expiresAt)
		}
	}
}

func isUnauthorized(err error) bool {
	if err == nil {
		return false
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusUnauthorized
	}
	return errors.Is(err, errUnauthorized)
}

func (c *Client) serviceOptions(accessToken string, endpointOverride string) []option.ClientOption {
	opts := []option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: accessToken,
			TokenType:   "Bearer",
		})),
	}
	if endpointOverride != "" {
		opts = append(opts, option.WithEndpoint(endpointOverride))
	}
	return opts
}

// Accounts lists every Business Profile account visible to the credential.
func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	var out []Account
	err := c.withAuthRetry(ctx, func(accessToken string) error {
		svc, err := mybusinessaccountmanagement.NewService(ctx, c.serviceOptions(accessToken, c.accountEndpoint)...)
		if err != nil {
			return err
		}

		out = out[:0]
		pageToken := ""
		for {
			call := svc.Accounts.List().Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			resp, err := call.Do()
			if err != nil {
				return err
			}
			for _, a := range resp.Accounts {
				out = append(out, Account{
					Name:              a.Name,
					ID:                lastSegment(a.Name),
					AccountName:       a.AccountName,
					Type:              a.Type,
					Role:              a.Role,
					VerificationState: a.VerificationState,
				})
			}
			if resp.NextPageToken == "" {
				return nil
			}
			pageToken = resp.NextPageToken
		}
	})
	if err != nil {
		if errors.Is(err, ErrAuthExpired) {
			return nil, err
		}
		log.Errorf("[GMB] Failed to fetch accounts: %v", err)
		return []Account{}, nil
	}
	return out, nil
}

// Locations lists the locations under one account.
func (c *Client) Locations(ctx context.Context, accountID string) ([]Location, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	cleanAccountID := trimResourceID(accountID, "accounts")
	parent := "accounts/" + cleanAccountID

	var out []Location
	err := c.withAuthRetry(ctx, func(accessToken string) error {
		svc, err := mybusinessbusinessinformation.NewService(ctx, c.serviceOptions(accessToken, c.locationEndpoint)...)
		if err != nil {
			return err
		}

		out = out[:0]
		pageToken := ""
		for {
			call := svc.Accounts.Locations.List(parent).
				ReadMask(locationReadMask).
				PageSize(locationPageSize).
				Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			resp, err := call.Do()
			if err != nil {
				return err
			}
			for _, l := range resp.Locations {
				out = append(out, locationFromAPI(l, cleanAccountID))
			}
			if resp.NextPageToken == "" {
				return nil
			}
			pageToken = resp.NextPageToken
		}
	})
	if err != nil {
		if errors.Is(err, ErrAuthExpired) {
			return nil, err
		}
		log.Errorf("[GMB] Failed to fetch locations for account %s: %v", cleanAccountID, err)
		return []Location{}, nil
	}
	return out, nil
}

func locationFromAPI(l *mybusinessbusinessinformation.Location, accountID string) Location {
	loc := Location{
		Name:      l.Name,
		ID:        lastSegment(l.Name),
		AccountID: accountID,
		Title:     l.Title,
	}
	if l.StorefrontAddress != nil {
		parts := append([]string{}, l.StorefrontAddress.AddressLines...)
		if l.StorefrontAddress.Locality != "" {
			parts = append(parts, l.StorefrontAddress.Locality)
		}
		loc.Address = strings.Join(parts, ", ")
	}
	if l.PhoneNumbers != nil {
		loc.PrimaryPhone = l.PhoneNumbers.PrimaryPhone
	}
	loc.WebsiteURI = l.WebsiteUri
	return loc
}

// BusinessInfo fetches the readMask-scoped detail view of one location.
func (c *Client) BusinessInfo(ctx context.Context, locationID string) (*Location, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	name := "locations/" + trimResourceID(locationID, "locations")

	var out *Location
	err := c.withAuthRetry(ctx, func(accessToken string) error {
		svc, err := mybusinessbusinessinformation.NewService(ctx, c.serviceOptions(accessToken, c.locationEndpoint)...)
		if err != nil {
			return err
		}
		l, err := svc.Locations.Get(name).ReadMask(businessInfoReadMask).Context(ctx).Do()
		if err != nil {
			return err
		}
		loc := locationFromAPI(l, "")
		out = &loc
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAuthExpired) {
			return nil, err
		}
		log.Errorf("[GMB] Failed to fetch business info for %s: %v", name, err)
		return nil, nil
	}
	return out, nil
}

// Invitations lists pending location/account shares across all accounts.
// These are informational until accepted; their locations do not show up in
// the discovery traversal yet.
func (c *Client) Invitations(ctx context.Context) ([]Invitation, error) {
	accounts, err := c.Accounts(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	out := []Invitation{}
	for _, account := range accounts {
		err := c.withAuthRetry(ctx, func(accessToken string) error {
			svc, err := mybusinessaccountmanagement.NewService(ctx, c.serviceOptions(accessToken, c.accountEndpoint)...)
			if err != nil {
				return err
			}
			resp, err := svc.Accounts.Invitations.List(account.Name).Context(ctx).Do()
			if err != nil {
				return err
			}
			for _, inv := range resp.Invitations {
				mapped := Invitation{Name: inv.Name, Role: inv.Role}
				if inv.TargetLocation != nil {
					mapped.TargetLocation = inv.TargetLocation.LocationName
				}
				if inv.TargetAccount != nil {
					mapped.TargetAccount = inv.TargetAccount.Name
				}
				out = append(out, mapped)
			}
			return nil
		})
		if err != nil {
			if errors.Is(err, ErrAuthExpired) {
				return nil, err
			}
			log.Errorf("[GMB] Failed to fetch invitations for %s: %v", account.Name, err)
		}
	}
	return out, nil
}

// AcceptInvitation accepts a pending invitation. Idempotent on the remote
// side: once accepted, the shared location appears through the normal
// account traversal on the next pass.
func (c *Client) AcceptInvitation(ctx context.Context, invitationName string) error {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	if !strings.Contains(invitationName, "/invitations/") {
		return fmt.Errorf("gmb: invalid invitation name %q", invitationName)
	}

	return c.withAuthRetry(ctx, func(accessToken string) error {
		svc, err := mybusinessaccountmanagement.NewService(ctx, c.serviceOptions(accessToken, c.accountEndpoint)...)
		if err != nil {
			return err
		}
		_, err = svc.Accounts.Invitations.Accept(invitationName,
			&mybusinessaccountmanagement.AcceptInvitationRequest{}).Context(ctx).Do()
		return err
	})
}

type reviewsPage struct {
	Reviews       []json.RawMessage `json:"reviews"`
	NextPageToken string            `json:"nextPageToken"`
}

// Reviews fetches the full review list for one location, following
// pagination. Each returned review keeps its raw JSON payload.
func (c *Client) Reviews(ctx context.Context, accountID, locationID string) ([]Review, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	path := fmt.Sprintf("accounts/%s/locations/%s/reviews",
		trimResourceID(accountID, "accounts"),
		trimResourceID(locationID, "locations"))

	var out []Review
	err := c.withAuthRetry(ctx, func(accessToken string) error {
		out = out[:0]
		pageToken := ""
		for {
			u := fmt.Sprintf("%s/%s?pageSize=%d", c.reviewEndpoint, path, reviewPageSize)
			if pageToken != "" {
				u += "&pageToken=" + url.QueryEscape(pageToken)
			}

			var page reviewsPage
			if err := c.getJSON(ctx, accessToken, u, &page); err != nil {
				return err
			}
			for _, raw := range page.Reviews {
				var review Review
				if err := json.Unmarshal(raw, &review); err != nil {
					log.Warnf("[GMB] Skipping undecodable review payload: %v", err)
					continue
				}
				review.Raw = raw
				out = append(out, review)
			}
			if page.NextPageToken == "" {
				return nil
			}
			pageToken = page.NextPageToken
		}
	})
	if err != nil {
		if errors.Is(err, ErrAuthExpired) {
			return nil, err
		}
		log.Errorf("[GMB] Failed to fetch reviews for %s: %v", path, err)
		return []Review{}, nil
	}
	return out, nil
}

// ReplyToReview upserts the owner reply on a review. Write operations report
// failure to the caller instead of degrading; persistence decisions stay with
// the caller.
func (c *Client) ReplyToReview(ctx context.Context, accountID, locationID, reviewID, comment string) error {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	u := c.replyURL(accountID, locationID, reviewID)
	body, err := json.Marshal(map[string]string{"comment": comment})
	if err != nil {
		return err
	}

	return c.withAuthRetry(ctx, func(accessToken string) error {
		return c.doJSON(ctx, accessToken, http.MethodPut, u, body)
	})
}

// DeleteReviewReply removes the owner reply from a review.
func (c *Client) DeleteReviewReply(ctx context.Context, accountID, locationID, reviewID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	u := c.replyURL(accountID, locationID, reviewID)

	return c.withAuthRetry(ctx, func(accessToken string) error {
		return c.doJSON(ctx, accessToken, http.MethodDelete, u, nil)
	})
}

// ReplyToReviewByName accepts the full hierarchical resource name recovered
// from a stored raw payload.
func (c *Client) ReplyToReviewByName(ctx context.Context, reviewName, comment string) error {
	accountID, locationID, reviewID, err := splitReviewName(reviewName)
	if err != nil {
		return err
	}
	return c.ReplyToReview(ctx, accountID, locationID, reviewID, comment)
}

// DeleteReviewReplyByName is the delete counterpart of ReplyToReviewByName.
func (c *Client) DeleteReviewReplyByName(ctx context.Context, reviewName string) error {
	accountID, locationID, reviewID, err := splitReviewName(reviewName)
	if err != nil {
		return err
	}
	return c.DeleteReviewReply(ctx, accountID, locationID, reviewID)
}

func (c *Client) replyURL(accountID, locationID, reviewID string) string {
	return fmt.Sprintf("%s/accounts/%s/locations/%s/reviews/%s/reply",
		c.reviewEndpoint,
		trimResourceID(accountID, "accounts"),
		trimResourceID(locationID, "locations"),
		trimResourceID(reviewID, "reviews"))
}

func splitReviewName(reviewName string) (accountID, locationID, reviewID string, err error) {
	parts := strings.Split(reviewName, "/")
	if len(parts) != 6 || parts[0] != "accounts" || parts[2] != "locations" || parts[4] != "reviews" {
		return "", "", "", fmt.Errorf("gmb: invalid review resource name %q", reviewName)
	}
	return parts[1], parts[3], parts[5], nil
}

func (c *Client) getJSON(ctx context.Context, accessToken, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		return errUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gmb: GET %s returned status %d: %s", u, resp.StatusCode, snippet)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) doJSON(ctx context.Context, accessToken, method, u string, body []byte) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		return errUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gmb: %s %s returned status %d: %s", method, u, resp.StatusCode, snippet)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
