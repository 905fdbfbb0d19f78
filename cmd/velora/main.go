package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/velora-shop/velora/app/repository"
	"github.com/velora-shop/velora/internal/pkg/cache"
	"github.com/velora-shop/velora/internal/pkg/database"
	"github.com/velora-shop/velora/internal/pkg/env"
	"github.com/velora-shop/velora/internal/pkg/notifier"
	"github.com/velora-shop/velora/internal/pkg/router"
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

	// Build the notification dispatcher once at boot so a misconfigured
	// transport shows up in the logs immediately, not on the first order.
	notifier.GetDispatcher()

	app := fiber.New(fiber.Config{
		AppName: "velora",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", monitor.New())

	// ROUTER
	router.InstallRouter(app)

	return app
}
