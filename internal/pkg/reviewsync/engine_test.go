package reviewsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ReviewDeckHQ/ReviewDeck/app/models"
	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/gmb"
)

type memReviewRepo struct {
	rows   map[string]*models.Review
	nextID uint
}

func newMemReviewRepo() *memReviewRepo {
	return &memReviewRepo{rows: make(map[string]*models.Review)}
}

func reviewKey(orgID, platform, platformReviewID string) string {
	return orgID + "|" + platform + "|" + platformReviewID
}

func (m *memReviewRepo) GetByPlatformID(orgID, platform, platformReviewID string) (*models.Review, error) {
	row, ok := m.rows[reviewKey(orgID, platform, platformReviewID)]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

func (m *memReviewRepo) InsertIfAbsent(review *models.Review) (bool, error) {
	key := reviewKey(review.OrganizationID, review.Platform, review.PlatformReviewID)
	if _, exists := m.rows[key]; exists {
		return false, nil
	}
	m.nextID++
	copied := *review
	copied.ID = m.nextID
	m.rows[key] = &copied
	return true, nil
}

func (m *memReviewRepo) UpdateReply(orgID, platform, platformReviewID string, reply *string, replyUpdatedAt *time.Time) error {
	row, ok := m.rows[reviewKey(orgID, platform, platformReviewID)]
	if !ok {
		return nil
	}
	row.ReviewReply = reply
	row.ReplyUpdatedAt = replyUpdatedAt
	return nil
}

func (m *memReviewRepo) ListByOrganization(orgID string, offset, limit int) ([]models.Review, error) {
	var out []models.Review
	for _, row := range m.rows {
		if row.OrganizationID == orgID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (m *memReviewRepo) ListByLocation(orgID, locationID string) ([]models.Review, error) {
	var out []models.Review
	for _, row := range m.rows {
		if row.OrganizationID == orgID && row.LocationID == locationID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (m *memReviewRepo) CountByOrganization(orgID string) (int64, error) {
	var n int64
	for _, row := range m.rows {
		if row.OrganizationID == orgID {
			n++
		}
	}
	return n, nil
}

func (m *memReviewRepo) CountUnanswered(orgID string) (int64, error) {
	var n int64
	for _, row := range m.rows {
		if row.OrganizationID == orgID && !row.IsAnswered() {
			n++
		}
	}
	return n, nil
}

func (m *memReviewRepo) CountUnansweredPerOrganization() (map[string]int64, error) {
	out := make(map[string]int64)
	for _, row := range m.rows {
		if !row.IsAnswered() {
			out[row.OrganizationID]++
		}
	}
	return out, nil
}

type fakeRemote struct {
	locations     map[string][]gmb.Location
	reviews       map[string][]gmb.Review // keyed by location id
	locationsErr  error
	reviewErrs    map[string]error
	replyOK       bool
	deleteOK      bool
	replied       []string
	orgIDs        []string
	orgIDsListErr error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		locations:  make(map[string][]gmb.Location),
		reviews:    make(map[string][]gmb.Review),
		reviewErrs: make(map[string]error),
		replyOK:    true,
		deleteOK:   true,
	}
}

func (f *fakeRemote) GetAllAccessibleLocations(ctx context.Context, orgID string) ([]gmb.Location, error) {
	if f.locationsErr != nil {
		return nil, f.locationsErr
	}
	return f.locations[orgID], nil
}

func (f *fakeRemote) GetReviews(ctx context.Context, orgID, accountID, locationID string) ([]gmb.Review, error) {
	if err := f.reviewErrs[locationID]; err != nil {
		return nil, err
	}
	return f.reviews[locationID], nil
}

func (f *fakeRemote) ReplyToReviewByName(ctx context.Context, orgID, reviewName, comment string) bool {
	if f.replyOK {
		f.replied = append(f.replied, reviewName)
	}
	return f.replyOK
}

func (f *fakeRemote) DeleteReviewReplyByName(ctx context.Context, orgID, reviewName string) bool {
	return f.deleteOK
}

func (f *fakeRemote) ConnectedOrganizationIDs() ([]string, error) {
	return f.orgIDs, f.orgIDsListErr
}

func remoteReview(id, star, comment string) gmb.Review {
	rev := gmb.Review{
		ReviewID:   id,
		Name:       fmt.Sprintf("accounts/a1/locations/l1/reviews/%s", id),
		Reviewer:   gmb.Reviewer{DisplayName: "Pat Example"},
		StarRating: star,
		Comment:    comment,
		CreateTime: "2026-08-01T10:30:00Z",
	}
	rev.Raw, _ = json.Marshal(map[string]string{"reviewId": id})
	return rev
}

func testLocation() gmb.Location {
	return gmb.Location{ID: "l1", AccountID: "a1", Title: "Cafe Eins"}
}

func TestSyncLocationInsertsNewReviews(t *testing.T) {
	repo := newMemReviewRepo()
	remote := newFakeRemote()
	remote.reviews["l1"] = []gmb.Review{
		remoteReview("r1", "FIVE", "Great coffee"),
		remoteReview("r2", "TWO", "Slow service"),
	}
	engine := NewEngine(remote, repo)

	result, err := engine.SyncLocation(context.Background(), "org-1", testLocation())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 2, result.NewReviews)
	assert.False(t, result.Failed)

	stored, err := repo.GetByPlatformID("org-1", models.PlatformGoogle, "r1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 5, stored.Rating)
	assert.Equal(t, "Great coffee", stored.ReviewText)
	assert.Equal(t, "Pat Example", stored.ReviewerName)
	assert.Equal(t, "l1", stored.LocationID)
	assert.Equal(t, "Cafe Eins", stored.LocationName)
	assert.False(t, stored.IsAnswered())
	assert.Equal(t, 2026, stored.ReviewedAt.Year())
	assert.NotEmpty(t, stored.RawData)
}

func TestSyncLocationIsIdempotent(t *testing.T) {
	repo := newMemReviewRepo()
	remote := newFakeRemote()
	remote.reviews["l1"] = []gmb.Review{remoteReview("r1", "FOUR", "Nice")}
	engine := NewEngine(remote, repo)

	first, err := engine.SyncLocation(context.Background(), "org-1", testLocation())
	require.NoError(t, err)
	assert.Equal(t, 1, first.NewReviews)

	second, err := engine.SyncLocation(context.Background(), "org-1", testLocation())
	require.NoError(t, err)
	assert.Equal(t, 0, second.NewReviews, "replay adds nothing")

	count, err := repo.CountByOrganization("org-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSyncLocationMirrorsNewRemoteReply(t *testing.T) {
	repo := newMemReviewRepo()
	remote := newFakeRemote()
	remote.reviews["l1"] = []gmb.Review{remoteReview("r1", "THREE", "Okay")}
	engine := NewEngine(remote, repo)

	_, err := engine.SyncLocation(context.Background(), "org-1", testLocation())
	require.NoError(t, err)

	answered := remoteReview("r1", "THREE", "Okay")
	answered.ReviewReply = &gmb.ReviewReply{
		Comment:    "Thanks for stopping by!",
		UpdateTime: "2026-08-02T09:00:00Z",
	}
	remote.reviews["l1"] = []gmb.Review{answered}

	result, err := engine.SyncLocation(context.Background(), "org-1", testLocation())
	require.NoError(t, err)
	assert.Equal(t, 0, result.NewReviews, "reply change is an update, not a new row")

	stored, err := repo.GetByPlatformID("org-1", models.PlatformGoogle, "r1")
	require.NoError(t, err)
	assert.Equal(t, "Thanks for stopping by!", stored.ReplyText())
	require.NotNil(t, stored.ReplyUpdatedAt)
	assert.Equal(t, time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC), stored.ReplyUpdatedAt.UTC())
}

func TestSyncLocationClearsRemovedRemoteReply(t *testing.T) {
	repo := newMemReviewRepo()
	remote := newFakeRemote()
	answered := remoteReview("r1", "FIVE", "Love it")
	answered.ReviewReply = &gmb.ReviewReply{Comment: "Thank you!"}
	remote.reviews["l1"] = []gmb.Review{answered}
	engine := NewEngine(remote, repo)

	_, err := engine.SyncLocation(context.Background(), "org-1", testLocation())
	require.NoError(t, err)

	remote.reviews["l1"] = []gmb.Review{remoteReview("r1", "FIVE", "Love it")}
	_, err = engine.SyncLocation(context.Background(), "org-1", testLocation())
	require.NoError(t, err)

	stored, err := repo.GetByPlatformID("org-1", models.PlatformGoogle, "r1")
	require.NoError(t, err)
	assert.False(t, stored.IsAnswered())
	assert.Nil(t, stored.ReplyUpdatedAt)
}

func TestSyncLocationFallsBackToResourceName(t *testing.T) {
	repo := newMemReviewRepo()
	remote := newFakeRemote()
	rev := remoteReview("", "ONE", "Bad")
	rev.Name = "accounts/a1/locations/l1/reviews/from-name"
	remote.reviews["l1"] = []gmb.Review{rev}
	engine := NewEngine(remote, repo)

	_, err := engine.SyncLocation(context.Background(), "org-1", testLocation())
	require.NoError(t, err)

	stored, err := repo.GetByPlatformID("org-1", models.PlatformGoogle, "from-name")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 1, stored.Rating)
}

func TestSyncOrganizationIsolatesLocationFailures(t *testing.T) {
	repo := newMemReviewRepo()
	remote := newFakeRemote()
	remote.locations["org-1"] = []gmb.Location{
		{ID: "broken", AccountID: "a1", Title: "Broken"},
		{ID: "l1", AccountID: "a1", Title: "Cafe Eins"},
	}
	remote.reviewErrs["broken"] = errors.New("listing unavailable")
	remote.reviews["l1"] = []gmb.Review{remoteReview("r1", "FIVE", "Great")}
	engine := NewEngine(remote, repo)

	result := engine.SyncOrganization(context.Background(), "org-1")
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.NewReviews)
	assert.Equal(t, int64(1), result.UnansweredReviews)
	require.Len(t, result.Locations, 2)
	assert.True(t, result.Locations[0].Failed)
	assert.False(t, result.Locations[1].Failed)
}

func TestSyncOrganizationFailsOnDiscoveryError(t *testing.T) {
	repo := newMemReviewRepo()
	remote := newFakeRemote()
	remote.locationsErr = gmb.ErrAuthExpired
	engine := NewEngine(remote, repo)

	result := engine.SyncOrganization(context.Background(), "org-1")
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.Empty(t, result.Locations)
}

func TestSyncAllCoversEveryConnectedOrganization(t *testing.T) {
	repo := newMemReviewRepo()
	remote := newFakeRemote()
	remote.orgIDs = []string{"org-1", "org-2"}
	remote.locations["org-1"] = []gmb.Location{testLocation()}
	remote.locations["org-2"] = []gmb.Location{{ID: "l2", AccountID: "a2", Title: "Cafe Zwei"}}
	remote.reviews["l1"] = []gmb.Review{remoteReview("r1", "FIVE", "Great")}
	remote.reviews["l2"] = []gmb.Review{remoteReview("r2", "TWO", "Meh")}
	engine := NewEngine(remote, repo)

	summary, err := engine.SyncAll(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.Success)
	assert.Equal(t, 2, summary.Synced)
	require.Len(t, summary.Results, 2)

	count1, _ := repo.CountByOrganization("org-1")
	count2, _ := repo.CountByOrganization("org-2")
	assert.Equal(t, int64(1), count1)
	assert.Equal(t, int64(1), count2)
}

func TestReplyToReviewRemoteFirst(t *testing.T) {
	repo := newMemReviewRepo()
	remote := newFakeRemote()
	remote.reviews["l1"] = []gmb.Review{remoteReview("r1", "FOUR", "Nice")}
	engine := NewEngine(remote, repo)

	_, err := engine.SyncLocation(context.Background(), "org-1", testLocation())
	require.NoError(t, err)

	name := "accounts/a1/locations/l1/reviews/r1"
	require.NoError(t, engine.ReplyToReview(context.Background(), "org-1", name, "Thank you!"))
	assert.Equal(t, []string{name}, remote.replied)

	stored, err := repo.GetByPlatformID("org-1", models.PlatformGoogle, "r1")
	require.NoError(t, err)
	assert.Equal(t, "Thank you!", stored.ReplyText())
	assert.NotNil(t, stored.ReplyUpdatedAt)
}

func TestReplyToReviewRemoteFailureLeavesMirrorUntouched(t *testing.T) {
	repo := newMemReviewRepo()
	remote := newFakeRemote()
	remote.reviews["l1"] = []gmb.Review{remoteReview("r1", "FOUR", "Nice")}
	remote.replyOK = false
	engine := NewEngine(remote, repo)

	_, err := engine.SyncLocation(context.Background(), "org-1", testLocation())
	require.NoError(t, err)

	err = engine.ReplyToReview(context.Background(), "org-1", "accounts/a1/locations/l1/reviews/r1", "Thank you!")
	assert.Error(t, err)

	stored, err := repo.GetByPlatformID("org-1", models.PlatformGoogle, "r1")
	require.NoError(t, err)
	assert.False(t, stored.IsAnswered())
}

func TestDeleteReviewReplyClearsMirror(t *testing.T) {
	repo := newMemReviewRepo()
	remote := newFakeRemote()
	answered := remoteReview("r1", "FIVE", "Great")
	answered.ReviewReply = &gmb.ReviewReply{Comment: "Thanks!"}
	remote.reviews["l1"] = []gmb.Review{answered}
	engine := NewEngine(remote, repo)

	_, err := engine.SyncLocation(context.Background(), "org-1", testLocation())
	require.NoError(t, err)

	require.NoError(t, engine.DeleteReviewReply(context.Background(), "org-1", "accounts/a1/locations/l1/reviews/r1"))

	stored, err := repo.GetByPlatformID("org-1", models.PlatformGoogle, "r1")
	require.NoError(t, err)
	assert.False(t, stored.IsAnswered())
}
