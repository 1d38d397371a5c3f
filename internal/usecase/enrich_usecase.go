package usecase

import (
	"context"
	"sort"
	"sync"

	"github.com/gpx-speedmap/internal/config"
	"github.com/gpx-speedmap/internal/domain"
	"github.com/gpx-speedmap/internal/domain/repository"
	"go.uber.org/zap"
)

// EnrichUseCase - use case для обогащения маршрута: sampling, per-point
// speed lookups through the cache, then one fuel-station aggregation
// over the whole route's bounding box.
type EnrichUseCase struct {
	geodata    repository.GeodataRepository
	cache      *LookupCache
	logger     *zap.Logger
	maxPoints  int
	workers    int
	bboxMargin float64
}

// NewEnrichUseCase создает новый EnrichUseCase.
func NewEnrichUseCase(
	geodata repository.GeodataRepository,
	cache *LookupCache,
	logger *zap.Logger,
	cfg *config.RouteConfig,
) *EnrichUseCase {
	return &EnrichUseCase{
		geodata:    geodata,
		cache:      cache,
		logger:     logger,
		maxPoints:  cfg.MaxPoints,
		workers:    cfg.Workers,
		bboxMargin: cfg.BBoxMarginDeg,
	}
}

// Enrich runs the whole pipeline over an ordered route. Per-point
// lookup failures degrade to unknown records and the run continues;
// only an empty route, an invalid sampling limit or context
// cancellation are fatal.
func (uc *EnrichUseCase) Enrich(ctx context.Context, points []domain.RoutePoint) (*domain.AnnotatedRoute, error) {
	sampled, err := Sample(points, uc.maxPoints)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("Route sampled",
		zap.Int("total_points", len(points)),
		zap.Int("sampled_points", len(sampled)))

	annotated, err := uc.lookupSpeeds(ctx, sampled)
	if err != nil {
		return nil, err
	}

	// The station search covers the full track, not just the sampled
	// subsequence, expanded so stations right off the edges are found.
	bbox := domain.BoundingBoxFromPoints(points).Expand(uc.bboxMargin)
	stations, err := uc.geodata.FuelStations(ctx, bbox)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("Fuel stations aggregated", zap.Int("stations", len(stations)))

	return &domain.AnnotatedRoute{
		Points:   annotated,
		Stations: stations,
	}, nil
}

// lookupSpeeds resolves speed records for all sampled points using a
// bounded worker pool. Workers share the throttled client and the
// cell cache; completion order is irrelevant because the result is
// re-sorted by original sequence index before assembly.
func (uc *EnrichUseCase) lookupSpeeds(ctx context.Context, sampled []domain.RoutePoint) ([]domain.AnnotatedPoint, error) {
	results := make([]domain.AnnotatedPoint, len(sampled))
	jobs := make(chan int)

	workers := uc.workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(sampled) {
		workers = len(sampled)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				pt := sampled[i]
				rec, err := uc.cache.GetOrCompute(ctx, pt.Lat, pt.Lon, uc.geodata.NearestRoadSpeed)
				if err != nil {
					// Cancellation mid-lookup; the degraded record
					// keeps the slot render-able either way.
					rec = domain.SpeedRecord{Lat: pt.Lat, Lon: pt.Lon}
				}
				results[i] = domain.AnnotatedPoint{Seq: pt.Seq, Record: rec}
				uc.logProgress(i+1, len(sampled), rec)
			}
		}()
	}

feed:
	for i := range sampled {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Seq < results[j].Seq
	})
	return results, nil
}

func (uc *EnrichUseCase) logProgress(done, total int, rec domain.SpeedRecord) {
	fields := []zap.Field{
		zap.Int("point", done),
		zap.Int("total", total),
		zap.Float64("lat", rec.Lat),
		zap.Float64("lon", rec.Lon),
	}
	switch {
	case rec.NoLimit:
		fields = append(fields, zap.String("max_speed", "none"))
	case rec.MaxSpeedKmh != nil:
		fields = append(fields, zap.Int("max_speed_kmh", *rec.MaxSpeedKmh))
	default:
		fields = append(fields, zap.String("max_speed", "unknown"))
	}
	uc.logger.Info("Speed lookup", fields...)
}
