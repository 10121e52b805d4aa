package router

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ReviewDeckHQ/ReviewDeck/app/controllers"
	"github.com/ReviewDeckHQ/ReviewDeck/app/repository"
	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/airesponder"
	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/env"
	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/gmb"
	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/middleware"
	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/reviewsync"
	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/scheduler"
	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/session"
	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/tokencrypt"
)

// Router installs one slice of the route table.
type Router interface {
	InstallRouter(app *fiber.App)
}

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	// Wire services and controllers against the global repository factory
	engine := buildServices()

	// In-process scheduler drives the same engine as the cron endpoint
	scheduler.Initialize(engine).Start()

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
}

// buildServices constructs the cipher, OAuth protocol, token store, API
// facade and reconciliation engine, and hands them to the controllers.
func buildServices() *reviewsync.Engine {
	repos := repository.GetGlobalFactory().GetRepositories()

	cipher, err := tokencrypt.New(env.GetEnv("TOKEN_ENCRYPTION_KEY", ""))
	if err != nil {
		log.Fatalf("[Router] Token cipher setup failed: %v", err)
	}

	oauthClient, err := gmb.NewOAuth(
		env.GetEnv("GOOGLE_CLIENT_ID", ""),
		env.GetEnv("GOOGLE_CLIENT_SECRET", ""),
	)
	if err != nil {
		log.Fatalf("[Router] Google OAuth setup failed: %v", err)
	}

	store := gmb.NewTokenStore(repos.GoogleCredential, cipher)
	wrapper := gmb.NewWrapper(store, oauthClient)
	engine := reviewsync.NewEngine(wrapper, repos.Review)

	generator, err := airesponder.New()
	if err != nil {
		if errors.Is(err, airesponder.ErrNotConfigured) {
			log.Warn("[Router] OPENAI_API_KEY not set, AI reply generation disabled")
		} else {
			log.Errorf("[Router] AI generator setup failed: %v", err)
		}
		generator = nil
	}

	controllers.InitializeOrganizationsController(repos.Organization)
	controllers.InitializeIntegrationsController(wrapper)
	controllers.InitializeReviewsController(engine, repos.Review)
	controllers.InitializeCronController(engine)
	controllers.InitializeGenerateController(generator)

	return engine
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
