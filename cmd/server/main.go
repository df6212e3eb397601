package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"

	"github.com/arman-s/GymAppBack/internal/config"
	"github.com/arman-s/GymAppBack/internal/database"
	"github.com/arman-s/GymAppBack/internal/routes"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.DBUrl == "" {
		log.Fatal("DB_URL is required")
	}
	if err := database.ConnectDB(cfg.DBUrl); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB()

	app := fiber.New()

	app.Use(cors.New())
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	chatService := routes.RegisterRoutes(app, cfg, database.DB)

	// Lapsed memberships are purged on every list/read anyway; the
	// schedule catches conversations nobody is looking at.
	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cfg.SweepSchedule, func() {
		deleted, err := chatService.CleanupSweep(context.Background())
		if err != nil {
			log.Printf("scheduled chat sweep: %v", err)
			return
		}
		if len(deleted) > 0 {
			log.Printf("scheduled chat sweep removed %d conversation(s)", len(deleted))
		}
	}); err != nil {
		log.Fatalf("Failed to schedule chat sweep: %v", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	log.Printf("Server starting on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
