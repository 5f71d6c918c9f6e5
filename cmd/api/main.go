package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/midwaymeet/midwaymeet/internal/adapters/googlemaps"
	"github.com/midwaymeet/midwaymeet/internal/adapters/http"
	natsadapter "github.com/midwaymeet/midwaymeet/internal/adapters/nats"
	"github.com/midwaymeet/midwaymeet/internal/adapters/valkey"
	"github.com/midwaymeet/midwaymeet/internal/core/ports"
	"github.com/midwaymeet/midwaymeet/internal/core/usecases"
	"github.com/midwaymeet/midwaymeet/internal/pkg/config"
	"github.com/midwaymeet/midwaymeet/internal/pkg/logging"
	"github.com/midwaymeet/midwaymeet/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("midwaymeet-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Maps provider
	provider := googlemaps.New(googlemaps.Config{
		APIKey:          cfg.Maps.APIKey,
		BaseURL:         cfg.Maps.BaseURL,
		Timeout:         time.Duration(cfg.Maps.RequestTimeout) * time.Second,
		MatrixChunkSize: cfg.Maps.MatrixChunkSize,
		MatrixWorkers:   cfg.Maps.MatrixWorkers,
		MaxRetries:      cfg.Maps.MaxRetries,
	})

	// Cache
	cache, cacheErr := valkey.New(cfg.Valkey.Addr)
	if cacheErr != nil {
		slog.Warn("valkey unavailable", "error", cacheErr)
	} else {
		defer cache.Close()
	}

	// NATS
	nc, natsErr := natsadapter.NewPublisher(cfg.NATS.URL)
	if natsErr != nil {
		slog.Warn("nats unavailable", "error", natsErr)
	} else {
		defer nc.Close()
	}

	// Search strategies
	finderCfg := usecases.FinderConfig{
		FairnessWeight:    cfg.Search.FairnessWeight,
		EfficiencyWeight:  cfg.Search.EfficiencyWeight,
		SearchRadiusM:     cfg.Search.RadiusMeters,
		MaxAlternatives:   cfg.Search.MaxAlternatives,
		SampleCount:       cfg.Search.SampleCount,
		LateralOffsetsM:   cfg.Search.LateralOffsetsM,
		RefineRounds:      cfg.Search.RefineRounds,
		RefineSamples:     cfg.Search.RefineSamples,
		WindowShrink:      cfg.Search.WindowShrink,
		VenueSnapRadiusM:  cfg.Search.VenueSnapRadiusM,
		MinSampleSpacingM: cfg.Search.MinSampleSpacingM,
	}
	finders := map[string]ports.MeetingPointFinder{
		usecases.AlgorithmGeoMidpoint:  usecases.NewGeoMidpointFinder(provider, finderCfg),
		usecases.AlgorithmRouteMinimax: usecases.NewRouteMinimaxFinder(provider, finderCfg),
	}

	deps := &http.Dependencies{
		Finders:           finders,
		DefaultAlgorithm:  cfg.Search.DefaultAlgorithm,
		Provider:          provider,
		GeocodeTTLSeconds: cfg.Valkey.GeocodeTTL,
	}
	if cacheErr == nil {
		deps.Cache = cache
	}
	if natsErr == nil {
		deps.Events = nc
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024, // requests are small JSON bodies
		AppName:      "MidwayMeet API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.midwaymeet.app",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
