package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/middleware"
	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/reviewsync"
)

type stubSyncer struct {
	calls   int
	summary reviewsync.Summary
}

func (s *stubSyncer) SyncAll(ctx context.Context) (reviewsync.Summary, error) {
	s.calls++
	return s.summary, nil
}

func newCronApp(syncer CronSyncer) *fiber.App {
	InitializeCronController(syncer)
	app := fiber.New()
	app.Post("/api/cron/sync-reviews", middleware.CronAuthMiddleware(), HandleCronSync)
	return app
}

func TestCronSyncRunsPass(t *testing.T) {
	t.Setenv("APP_ENV", "dev")

	syncer := &stubSyncer{summary: reviewsync.Summary{Success: true, Synced: 3}}
	app := newCronApp(syncer)

	req := httptest.NewRequest(http.MethodPost, "/api/cron/sync-reviews", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, syncer.calls)

	var summary reviewsync.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.True(t, summary.Success)
	assert.Equal(t, 3, summary.Synced)
}

func TestCronSyncRequiresSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("CRON_SECRET", "sekrit")

	syncer := &stubSyncer{summary: reviewsync.Summary{Success: true}}
	app := newCronApp(syncer)

	req := httptest.NewRequest(http.MethodPost, "/api/cron/sync-reviews", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, syncer.calls)

	req = httptest.NewRequest(http.MethodPost, "/api/cron/sync-reviews", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	resp, err = app.Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, syncer.calls)
}

func TestCronSyncWithoutConfiguredSecret(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("CRON_SECRET", "")

	syncer := &stubSyncer{}
	app := newCronApp(syncer)

	req := httptest.NewRequest(http.MethodPost, "/api/cron/sync-reviews", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
