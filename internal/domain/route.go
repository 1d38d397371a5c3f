package domain

// RoutePoint is one recorded GPS sample along the traveled track.
// Seq is the position within the original route and is preserved
// through sampling and enrichment so markers render in track order.
type RoutePoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	Seq int     `json:"seq"`
}

type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// BoundingBoxFromPoints computes the smallest box covering all points.
// Returns the zero box for an empty slice.
func BoundingBoxFromPoints(points []RoutePoint) BoundingBox {
	if len(points) == 0 {
		return BoundingBox{}
	}
	bbox := BoundingBox{
		MinLat: points[0].Lat,
		MinLon: points[0].Lon,
		MaxLat: points[0].Lat,
		MaxLon: points[0].Lon,
	}
	for _, p := range points[1:] {
		if p.Lat < bbox.MinLat {
			bbox.MinLat = p.Lat
		}
		if p.Lat > bbox.MaxLat {
			bbox.MaxLat = p.Lat
		}
		if p.Lon < bbox.MinLon {
			bbox.MinLon = p.Lon
		}
		if p.Lon > bbox.MaxLon {
			bbox.MaxLon = p.Lon
		}
	}
	return bbox
}

// Expand grows the box by margin degrees on every side, so stations
// just off the track edges are still found.
func (b BoundingBox) Expand(margin float64) BoundingBox {
	return BoundingBox{
		MinLat: b.MinLat - margin,
		MinLon: b.MinLon - margin,
		MaxLat: b.MaxLat + margin,
		MaxLon: b.MaxLon + margin,
	}
}
