package repository

import (
	"context"

	"github.com/gpx-speedmap/internal/domain"
)

// GeodataRepository defines the external geodata lookups the pipeline
// needs. Implementations absorb transient service failures: a degraded
// (unknown/empty) result with a nil error is the normal failure mode,
// and only context cancellation propagates as an error.
type GeodataRepository interface {
	// NearestRoadSpeed resolves the speed limit of the tagged road way
	// nearest to the coordinate.
	NearestRoadSpeed(ctx context.Context, lat, lon float64) (domain.SpeedRecord, error)

	// FuelStations lists fuel amenities with SP95/SP98 availability
	// inside the bounding box.
	FuelStations(ctx context.Context, bbox domain.BoundingBox) ([]domain.FuelStation, error)
}
