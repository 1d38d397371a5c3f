package usecase

import (
	"github.com/gpx-speedmap/internal/domain"
	"github.com/gpx-speedmap/internal/pkg/errors"
)

// SampleCeiling is the hard upper bound on queried points, matching the
// Overpass fair-use guidance. Larger requests are clamped, not rejected.
const SampleCeiling = 500

// Sample reduces an ordered route to at most maxPoints evenly spaced
// points. Routes short enough are returned unchanged; otherwise the
// result has exactly maxPoints entries and always keeps the first and
// last point so the annotated map spans the full track.
func Sample(points []domain.RoutePoint, maxPoints int) ([]domain.RoutePoint, error) {
	if maxPoints <= 0 {
		return nil, errors.ErrInvalidMaxPoints
	}
	if len(points) == 0 {
		return nil, errors.ErrEmptyRoute
	}
	if maxPoints > SampleCeiling {
		maxPoints = SampleCeiling
	}
	if len(points) <= maxPoints {
		return points, nil
	}
	if maxPoints == 1 {
		return points[:1], nil
	}

	// Evenly spaced indices over [0, len-1], floor of the running
	// fractional position. Integer math keeps it exact at both ends.
	sampled := make([]domain.RoutePoint, 0, maxPoints)
	for k := 0; k < maxPoints; k++ {
		idx := k * (len(points) - 1) / (maxPoints - 1)
		sampled = append(sampled, points[idx])
	}
	return sampled, nil
}
