package overpass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gpx-speedmap/internal/config"
	"github.com/gpx-speedmap/internal/domain"
	"github.com/gpx-speedmap/internal/domain/repository"
	"github.com/gpx-speedmap/internal/pkg/utils"
	"go.uber.org/zap"
)

type client struct {
	httpClient    *http.Client
	baseURL       string
	searchRadiusM int
	maxAttempts   int
	backoffBase   time.Duration
	queryTimeout  int
	throttle      *Throttle
	logger        *zap.Logger
}

// NewClient создает новый клиент для Overpass API. The throttle is
// shared process-wide; pass the same instance to every consumer.
func NewClient(cfg *config.OverpassConfig, throttle *Throttle, logger *zap.Logger) repository.GeodataRepository {
	return &client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		baseURL:       cfg.BaseURL,
		searchRadiusM: cfg.SearchRadiusM,
		maxAttempts:   cfg.MaxAttempts,
		backoffBase:   cfg.BackoffBase,
		queryTimeout:  int(cfg.RequestTimeout.Seconds()),
		throttle:      throttle,
		logger:        logger,
	}
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat,omitempty"`
	Lon    float64           `json:"lon,omitempty"`
	Center *overpassCenter   `json:"center,omitempty"`
	Tags   map[string]string `json:"tags,omitempty"`
}

type overpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (el overpassElement) position() (lat, lon float64, ok bool) {
	if el.Center != nil {
		return el.Center.Lat, el.Center.Lon, true
	}
	if el.Lat != 0 || el.Lon != 0 {
		return el.Lat, el.Lon, true
	}
	return 0, 0, false
}

// NearestRoadSpeed resolves the maxspeed tag of the closest highway way
// within the search radius. Retry exhaustion and malformed responses
// degrade to an unknown record with a nil error so a single bad lookup
// never aborts the pipeline.
func (c *client) NearestRoadSpeed(ctx context.Context, lat, lon float64) (domain.SpeedRecord, error) {
	rec := domain.SpeedRecord{Lat: lat, Lon: lon}

	query := fmt.Sprintf(
		"[out:json][timeout:%d];\nway(around:%d,%f,%f)[\"highway\"][\"maxspeed\"];\nout tags center;",
		c.queryTimeout, c.searchRadiusM, lat, lon,
	)

	c.logger.Debug("Querying nearest road speed",
		zap.Float64("lat", lat),
		zap.Float64("lon", lon),
		zap.Int("radius_m", c.searchRadiusM))

	body, err := c.post(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return rec, ctx.Err()
		}
		c.logger.Warn("Speed lookup failed, degrading to unknown",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
			zap.Error(err))
		return rec, nil
	}

	var decoded overpassResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		c.logger.Warn("Failed to decode speed response, degrading to unknown", zap.Error(err))
		return rec, nil
	}

	// Several ways can fall inside the radius at junctions; keep the
	// one whose center is closest to the query coordinate.
	bestIdx := -1
	bestDist := math.MaxFloat64
	for i, el := range decoded.Elements {
		if _, ok := el.Tags["maxspeed"]; !ok {
			continue
		}
		dist := math.MaxFloat64
		if elLat, elLon, ok := el.position(); ok {
			dist = utils.HaversineDistance(lat, lon, elLat, elLon)
		}
		if bestIdx == -1 || dist < bestDist {
			bestIdx = i
			bestDist = dist
		}
	}
	if bestIdx == -1 {
		return rec, nil
	}

	way := decoded.Elements[bestIdx]
	rec.MaxSpeedKmh, rec.NoLimit = domain.ParseMaxspeed(way.Tags["maxspeed"])
	wayID := way.ID
	rec.WayID = &wayID
	return rec, nil
}

// Tag keys whose value "yes" marks a fuel grade as available. OSM data
// carries both the canonical octane keys and shorthand synonyms.
var (
	sp95Tags = []string{"fuel:octane_95", "fuel:95"}
	sp98Tags = []string{"fuel:octane_98", "fuel:98"}
)

func hasFuelGrade(tags map[string]string, keys []string) bool {
	for _, key := range keys {
		if value, ok := tags[key]; ok && strings.EqualFold(value, "yes") {
			return true
		}
	}
	return false
}

// FuelStations lists fuel amenities with at least one of SP95/SP98
// inside the bounding box. Failures degrade to an empty list.
func (c *client) FuelStations(ctx context.Context, bbox domain.BoundingBox) ([]domain.FuelStation, error) {
	bounds := fmt.Sprintf("(%f,%f,%f,%f)", bbox.MinLat, bbox.MinLon, bbox.MaxLat, bbox.MaxLon)
	query := fmt.Sprintf(
		"[out:json][timeout:%d];\n(\nnode[\"amenity\"=\"fuel\"][\"fuel:octane_95\"]%s;\nnode[\"amenity\"=\"fuel\"][\"fuel:octane_98\"]%s;\n);\nout center;",
		c.queryTimeout, bounds, bounds,
	)

	c.logger.Debug("Querying fuel stations",
		zap.Float64("min_lat", bbox.MinLat),
		zap.Float64("max_lat", bbox.MaxLat),
		zap.Float64("min_lon", bbox.MinLon),
		zap.Float64("max_lon", bbox.MaxLon))

	body, err := c.post(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("Fuel station lookup failed, degrading to empty list", zap.Error(err))
		return nil, nil
	}

	var decoded overpassResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		c.logger.Warn("Failed to decode fuel station response, degrading to empty list", zap.Error(err))
		return nil, nil
	}

	stations := make([]domain.FuelStation, 0, len(decoded.Elements))
	for _, el := range decoded.Elements {
		lat, lon, ok := el.position()
		if !ok {
			continue
		}
		hasSP95 := hasFuelGrade(el.Tags, sp95Tags)
		hasSP98 := hasFuelGrade(el.Tags, sp98Tags)
		// A station offering neither grade carries no value here, and
		// unset tags never default to "available".
		if !hasSP95 && !hasSP98 {
			continue
		}
		stations = append(stations, domain.FuelStation{
			Lat:     lat,
			Lon:     lon,
			Name:    el.Tags["name"],
			HasSP95: hasSP95,
			HasSP98: hasSP98,
		})
	}

	c.logger.Debug("Fuel station query successful", zap.Int("stations", len(stations)))
	return stations, nil
}

// retryableError marks failures worth another attempt: transport
// errors, rate limiting and server-side errors.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// post runs one throttled request per attempt:
// Attempt(n) -> success | retryable failure -> backoff -> Attempt(n+1),
// bounded by maxAttempts. Non-retryable failures stop immediately.
func (c *client) post(ctx context.Context, query string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, time.Duration(attempt-1)*c.backoffBase); err != nil {
				return nil, err
			}
		}
		if err := c.throttle.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := c.doPost(ctx, query)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var retryable *retryableError
		if !errors.As(err, &retryable) || ctx.Err() != nil {
			break
		}
		c.logger.Warn("Overpass request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.maxAttempts),
			zap.Error(err))
	}
	return nil, lastErr
}

func (c *client) doPost(ctx context.Context, query string) ([]byte, error) {
	form := url.Values{}
	form.Set("data", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &retryableError{err: fmt.Errorf("failed to execute request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		respErr := fmt.Errorf("overpass API error: status %d, body: %s", resp.StatusCode, string(body))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return nil, &retryableError{err: respErr}
		}
		return nil, respErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &retryableError{err: fmt.Errorf("failed to read response: %w", err)}
	}
	return body, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
