package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/reviewsync"
)

// CronSyncer is the engine slice the cron endpoint drives.
type CronSyncer interface {
	SyncAll(ctx context.Context) (reviewsync.Summary, error)
}

// CronController exposes the externally triggered full sync pass.
type CronController struct {
	syncer CronSyncer
}

var cronController *CronController

// InitializeCronController wires the controller with the engine.
func InitializeCronController(syncer CronSyncer) {
	cronController = &CronController{syncer: syncer}
}

// HandleCronSync runs one full sync pass over every connected organization.
// The route is guarded by the cron auth middleware.
func HandleCronSync(c *fiber.Ctx) error {
	summary, err := cronController.syncer.SyncAll(c.Context())
	if err != nil {
		log.Errorf("[Cron] Sync pass failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "sync_failed", "sync pass could not run")
	}
	return c.JSON(summary)
}
