package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int {
	return &v
}

func TestParseMaxspeed(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    *int
		noLimit bool
	}{
		{"plain number", "90", intPtr(90), false},
		{"number with unit", "90 km/h", intPtr(90), false},
		{"mph converted", "30 mph", intPtr(48), false},
		{"mph uppercase", "50 MPH", intPtr(80), false},
		{"french urban code", "FR:urban", intPtr(50), false},
		{"french rural code", "FR:rural", intPtr(80), false},
		{"french trunk code", "FR:trunk", intPtr(110), false},
		{"french motorway code", "FR:motorway", intPtr(130), false},
		{"walking pace", "walk", intPtr(10), false},
		{"no limit", "none", nil, true},
		{"no limit uppercase", "NONE", nil, true},
		{"signals", "signals", nil, false},
		{"variable", "variable", nil, false},
		{"unknown national code", "DE:urban", nil, false},
		{"garbage", "fast", nil, false},
		{"negative", "-5", nil, false},
		{"empty", "", nil, false},
		{"whitespace only", "   ", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kmh, noLimit := ParseMaxspeed(tt.raw)
			assert.Equal(t, tt.noLimit, noLimit)
			if tt.want == nil {
				assert.Nil(t, kmh)
				return
			}
			require.NotNil(t, kmh)
			assert.Equal(t, *tt.want, *kmh)
		})
	}
}

func TestSpeedRecord_Color(t *testing.T) {
	const threshold = 110

	t.Run("unknown when speed is nil", func(t *testing.T) {
		rec := SpeedRecord{}
		assert.Equal(t, ColorUnknown, rec.Color(threshold))
	})

	t.Run("high at exactly the threshold", func(t *testing.T) {
		rec := SpeedRecord{MaxSpeedKmh: intPtr(110)}
		assert.Equal(t, ColorHigh, rec.Color(threshold))
	})

	t.Run("high above the threshold", func(t *testing.T) {
		rec := SpeedRecord{MaxSpeedKmh: intPtr(130)}
		assert.Equal(t, ColorHigh, rec.Color(threshold))
	})

	t.Run("low below the threshold", func(t *testing.T) {
		rec := SpeedRecord{MaxSpeedKmh: intPtr(109)}
		assert.Equal(t, ColorLow, rec.Color(threshold))
	})

	t.Run("no limit is high", func(t *testing.T) {
		rec := SpeedRecord{NoLimit: true}
		assert.Equal(t, ColorHigh, rec.Color(threshold))
	})
}
