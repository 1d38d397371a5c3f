package overpass

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gpx-speedmap/internal/config"
	"github.com/gpx-speedmap/internal/domain"
)

func testConfig(baseURL string) *config.OverpassConfig {
	return &config.OverpassConfig{
		BaseURL:          baseURL,
		RequestTimeout:   5 * time.Second,
		SearchRadiusM:    30,
		ThrottleInterval: 0,
		MaxAttempts:      3,
		BackoffBase:      0,
	}
}

func TestClient_NearestRoadSpeed(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	ctx := context.Background()

	t.Run("picks the nearest of several ways", func(t *testing.T) {
		// Query coordinate is (48.8580, 2.2945): way 200 is much closer.
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"elements":[
				{"type":"way","id":100,"center":{"lat":48.8700,"lon":2.3100},"tags":{"highway":"primary","maxspeed":"50"}},
				{"type":"way","id":200,"center":{"lat":48.8581,"lon":2.2946},"tags":{"highway":"motorway","maxspeed":"130"}}
			]}`)
		}))
		defer server.Close()

		client := NewClient(testConfig(server.URL), NewThrottle(0), logger)
		rec, err := client.NearestRoadSpeed(ctx, 48.8580, 2.2945)
		require.NoError(t, err)

		require.NotNil(t, rec.MaxSpeedKmh)
		assert.Equal(t, 130, *rec.MaxSpeedKmh)
		require.NotNil(t, rec.WayID)
		assert.Equal(t, int64(200), *rec.WayID)
		assert.Equal(t, domain.ColorHigh, rec.Color(110))
	})

	t.Run("maxspeed none maps to the no-limit sentinel", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"elements":[
				{"type":"way","id":7,"center":{"lat":48.8581,"lon":2.2946},"tags":{"highway":"motorway","maxspeed":"none"}}
			]}`)
		}))
		defer server.Close()

		client := NewClient(testConfig(server.URL), NewThrottle(0), logger)
		rec, err := client.NearestRoadSpeed(ctx, 48.8580, 2.2945)
		require.NoError(t, err)

		assert.Nil(t, rec.MaxSpeedKmh)
		assert.True(t, rec.NoLimit)
		assert.Equal(t, domain.ColorHigh, rec.Color(110))
	})

	t.Run("no tagged way nearby yields unknown", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"elements":[]}`)
		}))
		defer server.Close()

		client := NewClient(testConfig(server.URL), NewThrottle(0), logger)
		rec, err := client.NearestRoadSpeed(ctx, 48.8580, 2.2945)
		require.NoError(t, err)

		assert.Nil(t, rec.MaxSpeedKmh)
		assert.False(t, rec.NoLimit)
		assert.Equal(t, domain.ColorUnknown, rec.Color(110))
	})

	t.Run("retries server errors then succeeds", func(t *testing.T) {
		var requests int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&requests, 1) <= 2 {
				w.WriteHeader(http.StatusGatewayTimeout)
				return
			}
			fmt.Fprint(w, `{"elements":[
				{"type":"way","id":1,"center":{"lat":48.8581,"lon":2.2946},"tags":{"maxspeed":"80"}}
			]}`)
		}))
		defer server.Close()

		client := NewClient(testConfig(server.URL), NewThrottle(0), logger)
		rec, err := client.NearestRoadSpeed(ctx, 48.8580, 2.2945)
		require.NoError(t, err)

		assert.Equal(t, int32(3), atomic.LoadInt32(&requests))
		require.NotNil(t, rec.MaxSpeedKmh)
		assert.Equal(t, 80, *rec.MaxSpeedKmh)
	})

	t.Run("exhausted retries degrade to unknown", func(t *testing.T) {
		var requests int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&requests, 1)
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := NewClient(testConfig(server.URL), NewThrottle(0), logger)
		rec, err := client.NearestRoadSpeed(ctx, 48.8580, 2.2945)
		require.NoError(t, err)

		assert.Equal(t, int32(3), atomic.LoadInt32(&requests))
		assert.Nil(t, rec.MaxSpeedKmh)
		assert.Equal(t, domain.ColorUnknown, rec.Color(110))
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var requests int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&requests, 1)
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		client := NewClient(testConfig(server.URL), NewThrottle(0), logger)
		rec, err := client.NearestRoadSpeed(ctx, 48.8580, 2.2945)
		require.NoError(t, err)

		assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
		assert.Nil(t, rec.MaxSpeedKmh)
	})

	t.Run("cancelled context propagates", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		client := NewClient(testConfig(server.URL), NewThrottle(0), logger)
		_, err := client.NearestRoadSpeed(cancelled, 48.8580, 2.2945)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestClient_FuelStations(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	ctx := context.Background()
	bbox := domain.BoundingBox{MinLat: 48.8, MinLon: 2.2, MaxLat: 48.9, MaxLon: 2.4}

	t.Run("classifies grades and drops untagged stations", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"elements":[
				{"type":"node","id":1,"lat":48.81,"lon":2.21,"tags":{"amenity":"fuel","name":"Total Access","fuel:octane_95":"yes","fuel:octane_98":"yes"}},
				{"type":"node","id":2,"lat":48.82,"lon":2.22,"tags":{"amenity":"fuel","name":"Esso","fuel:octane_95":"yes","fuel:octane_98":"no"}},
				{"type":"node","id":3,"lat":48.83,"lon":2.23,"tags":{"amenity":"fuel","name":"Diesel only"}},
				{"type":"node","id":4,"lat":48.84,"lon":2.24,"tags":{"amenity":"fuel","fuel:98":"YES"}}
			]}`)
		}))
		defer server.Close()

		client := NewClient(testConfig(server.URL), NewThrottle(0), logger)
		stations, err := client.FuelStations(ctx, bbox)
		require.NoError(t, err)
		require.Len(t, stations, 3)

		assert.Equal(t, "Total Access", stations[0].Name)
		assert.True(t, stations[0].HasSP95)
		assert.True(t, stations[0].HasSP98)

		assert.Equal(t, "Esso", stations[1].Name)
		assert.True(t, stations[1].HasSP95)
		assert.False(t, stations[1].HasSP98)

		// Synonym tag key and case-insensitive value, unnamed station.
		assert.Empty(t, stations[2].Name)
		assert.False(t, stations[2].HasSP95)
		assert.True(t, stations[2].HasSP98)
	})

	t.Run("station with neither grade never appears", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"elements":[
				{"type":"node","id":1,"lat":48.81,"lon":2.21,"tags":{"amenity":"fuel","fuel:octane_95":"no","fuel:octane_98":"no"}}
			]}`)
		}))
		defer server.Close()

		client := NewClient(testConfig(server.URL), NewThrottle(0), logger)
		stations, err := client.FuelStations(ctx, bbox)
		require.NoError(t, err)
		assert.Empty(t, stations)
	})

	t.Run("failure degrades to empty list", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewClient(testConfig(server.URL), NewThrottle(0), logger)
		stations, err := client.FuelStations(ctx, bbox)
		require.NoError(t, err)
		assert.Empty(t, stations)
	})
}
