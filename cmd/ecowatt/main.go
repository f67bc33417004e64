package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/ecowatt/ecowatt/internal/api/http"
	"github.com/ecowatt/ecowatt/internal/config"
	"github.com/ecowatt/ecowatt/internal/energy"
	"github.com/ecowatt/ecowatt/internal/geo"
	"github.com/ecowatt/ecowatt/internal/scheduler"
	"github.com/ecowatt/ecowatt/internal/store"
	"github.com/ecowatt/ecowatt/internal/weather/providers"
	"github.com/ecowatt/ecowatt/web"
)

func main() {
	// Load configuration (.env is read inside Load).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound weather and geocoding calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// In-memory report store with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	// Upstream clients.
	provider := providers.NewOpenMeteoProvider(httpClient)
	resolver := geo.NewResolver(httpClient, cfg.GeocoderAPIKey)

	// Core service running the resolve/fetch/compute/store pipeline.
	service := energy.NewService(memStore, provider, resolver, cfg.Energy)

	// Scheduler that keeps the preset cities warm.
	sched := scheduler.New(cfg.PresetLocations, cfg.RefreshInterval, cfg.DefaultHorizonHours, service)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "ecowatt",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "ecowatt",
		})
	})

	// Embedded dashboard.
	app.Get("/", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(web.IndexHTML)
	})

	// API routes.
	httpapi.RegisterRoutes(app, service, cfg)

	// Start server with graceful shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
