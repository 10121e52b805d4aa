package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ReviewDeckHQ/ReviewDeck/app/repository"
	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/cache"
	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/database"
	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/env"
	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	// init fiber app
	app := fiber.New(fiber.Config{
		AppName: "ReviewDeck",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// ROUTER
	router.InstallRouter(app)

	return app
}
