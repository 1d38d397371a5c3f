package domain

import "math"

// CellKey identifies a spatial grid cell of roughly 11 m. Coordinates
// that quantize into the same cell share one speed lookup.
type CellKey struct {
	LatE4 int32
	LonE4 int32
}

const cellScale = 1e4

// Cell quantizes a coordinate to its grid cell. Plain rounding of the
// scaled value keeps the mapping deterministic for any two coordinates
// inside the same cell.
func Cell(lat, lon float64) CellKey {
	return CellKey{
		LatE4: int32(math.Round(lat * cellScale)),
		LonE4: int32(math.Round(lon * cellScale)),
	}
}
