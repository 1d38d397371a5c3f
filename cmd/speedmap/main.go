package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gpx-speedmap/internal/config"
	"github.com/gpx-speedmap/internal/gpx"
	"github.com/gpx-speedmap/internal/infrastructure/overpass"
	"github.com/gpx-speedmap/internal/pkg/logger"
	"github.com/gpx-speedmap/internal/renderer"
	"github.com/gpx-speedmap/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	runID := uuid.New()
	log = log.With(zap.String("run_id", runID.String()))

	log.Info("Starting route speed map run",
		zap.String("gpx_file", cfg.Route.File),
		zap.Int("max_points", cfg.Route.MaxPoints),
		zap.Int("limit_speed_kmh", cfg.Route.SpeedThresholdKmh),
		zap.Int("workers", cfg.Route.Workers))

	// 3. Load route points
	points, err := gpx.ParseFile(cfg.Route.File)
	if err != nil {
		log.Fatal("Failed to load GPX route", zap.Error(err))
	}
	log.Info("Route loaded", zap.Int("points", len(points)))

	// 4. Wire the enrichment pipeline. One throttle instance is shared
	// by every Overpass consumer in the process.
	throttle := overpass.NewThrottle(cfg.Overpass.ThrottleInterval)
	geodata := overpass.NewClient(&cfg.Overpass, throttle, log)
	cache := usecase.NewLookupCache()
	enrichUC := usecase.NewEnrichUseCase(geodata, cache, log, &cfg.Route)

	// 5. Run until done or interrupted
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	route, err := enrichUC.Enrich(ctx, points)
	if err != nil {
		log.Fatal("Enrichment failed", zap.Error(err))
	}
	log.Info("Enrichment complete",
		zap.Int("annotated_points", len(route.Points)),
		zap.Int("fuel_stations", len(route.Stations)),
		zap.Int("cached_cells", cache.Len()))

	// 6. Render the map artifact
	outPath := cfg.Output.File
	if outPath == "" {
		outPath = fmt.Sprintf("speed_map_%s_%s.html",
			time.Now().Format("20060102_150405"), runID.String()[:8])
	}

	out, err := os.Create(outPath)
	if err != nil {
		log.Fatal("Failed to create output file", zap.Error(err))
	}

	renderErr := renderer.Render(out, route, renderer.Options{
		ThresholdKmh: cfg.Route.SpeedThresholdKmh,
	})
	if closeErr := out.Close(); renderErr == nil {
		renderErr = closeErr
	}
	if renderErr != nil {
		log.Fatal("Failed to render map", zap.Error(renderErr))
	}

	log.Info("Map generated", zap.String("file", outPath))
}
