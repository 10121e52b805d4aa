package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ReviewDeckHQ/ReviewDeck/app/controllers"
	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())

	auth := api.Group("/auth")
	auth.Post("/login", controllers.HandleSessionLogin)
	auth.Post("/logout", controllers.HandleSessionLogout)

	// External trigger for the full sync pass; bearer-secret guarded.
	cron := api.Group("/cron", middleware.CronAuthMiddleware())
	cron.Get("/sync-reviews", controllers.HandleCronSync)
	cron.Post("/sync-reviews", controllers.HandleCronSync)

	protected := api.Group("", middleware.RequireAPISessionAuth)

	protected.Post("/organizations", controllers.HandleCreateOrganization)
	protected.Get("/organizations", controllers.HandleListOrganizations)
	protected.Post("/organizations/:id/select", controllers.HandleSelectOrganization)

	org := protected.Group("", middleware.RequireOrganization)

	org.Get("/integrations/google/connect", controllers.HandleGoogleConnect)
	org.Get("/integrations/google/callback", controllers.HandleGoogleCallback)
	org.Get("/integrations/google/status", controllers.HandleGoogleStatus)
	org.Post("/integrations/google/disconnect", controllers.HandleGoogleDisconnect)
	org.Post("/integrations/google/invitations/accept", controllers.HandleAcceptInvitation)

	org.Get("/reviews", controllers.HandleLocationReviews)
	org.Get("/reviews/stored", controllers.HandleStoredReviews)
	org.Get("/reviews/unanswered-count", controllers.HandleUnansweredCount)
	org.Post("/reviews/sync", controllers.HandleSyncOrganization)
	org.Post("/reviews/reply", controllers.HandleReplyToReview)
	org.Delete("/reviews/reply", controllers.HandleDeleteReviewReply)
	org.Post("/reviews/generate", controllers.HandleGenerateReply)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
