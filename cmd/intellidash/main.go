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

	httpapi "github.com/pixel-remedy-bot/intellidash-v2/internal/api/http"
	"github.com/pixel-remedy-bot/intellidash-v2/internal/config"
	"github.com/pixel-remedy-bot/intellidash-v2/internal/news"
	"github.com/pixel-remedy-bot/intellidash-v2/internal/providers"
	"github.com/pixel-remedy-bot/intellidash-v2/internal/ratelimit"
	"github.com/pixel-remedy-bot/intellidash-v2/internal/scheduler"
	"github.com/pixel-remedy-bot/intellidash-v2/internal/store"
	"github.com/pixel-remedy-bot/intellidash-v2/internal/trending"
	"github.com/pixel-remedy-bot/intellidash-v2/internal/usage"
	"github.com/pixel-remedy-bot/intellidash-v2/internal/weather"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Persistent store shared by the cache and the usage tracker.
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer db.Close()

	tracker := usage.NewTracker(db)
	passthrough := cfg.CacheMode == config.CacheModePassthrough
	if passthrough {
		log.Println("running in passthrough mode; the store is bypassed")
	}

	// Domain orchestrators composing providers, store, and usage tracking.
	weatherSvc := weather.NewService(
		db,
		providers.NewOpenWeatherClient(httpClient, cfg.OpenWeatherAPIKey),
		tracker,
		cfg.UpstreamTimeout,
		passthrough,
	)
	newsSvc := news.NewService(
		db,
		providers.NewNewsAPIClient(httpClient, cfg.NewsAPIKey),
		tracker,
		cfg.UpstreamTimeout,
		passthrough,
	)
	trendingSvc := trending.NewService(
		db,
		providers.NewRedditClient(httpClient),
		tracker,
		cfg.UpstreamTimeout,
		passthrough,
	)

	// Prewarm scheduler keeps configured cities and all categories fresh.
	sched := scheduler.New(cfg.PrewarmCities, cfg.PrewarmInterval, weatherSvc, newsSvc, trendingSvc)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "intellidash",
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
				"error": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(httpapi.RateLimit(ratelimit.NewFixedWindow(cfg.RateLimitMax, cfg.RateLimitWindow)))

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "intellidash",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Services{
		Weather:  weatherSvc,
		News:     newsSvc,
		Trending: trendingSvc,
		Usage:    db,
	})

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
