package gpx

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gpx-speedmap/internal/domain"
	"github.com/gpx-speedmap/internal/pkg/errors"
	"github.com/gpx-speedmap/internal/pkg/utils"
)

type gpxDocument struct {
	Tracks []track `xml:"trk"`
}

type track struct {
	Segments []segment `xml:"trkseg"`
}

type segment struct {
	Points []trackPoint `xml:"trkpt"`
}

type trackPoint struct {
	Lat       float64    `xml:"lat,attr"`
	Lon       float64    `xml:"lon,attr"`
	Elevation *float64   `xml:"ele"`
	Time      *time.Time `xml:"time"`
}

// Parse reads a GPX document and flattens all tracks and segments into
// one ordered point sequence, assigning sequence indices in document
// order. Elevation and timestamps are accepted but not carried further.
func Parse(r io.Reader) ([]domain.RoutePoint, error) {
	var doc gpxDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode GPX: %w", err)
	}

	var points []domain.RoutePoint
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			for _, pt := range seg.Points {
				if !utils.ValidateCoordinates(pt.Lat, pt.Lon) {
					return nil, errors.ErrInvalidCoordinates.WithDetails(map[string]interface{}{
						"lat": pt.Lat,
						"lon": pt.Lon,
					})
				}
				points = append(points, domain.RoutePoint{
					Lat: pt.Lat,
					Lon: pt.Lon,
					Seq: len(points),
				})
			}
		}
	}
	if len(points) == 0 {
		return nil, errors.ErrInvalidGPX
	}
	return points, nil
}

// ParseFile opens and parses a GPX file from disk.
func ParseFile(path string) ([]domain.RoutePoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open GPX file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}
