package domain

import (
	"math"
	"strconv"
	"strings"
)

// SpeedRecord is the result of one nearest-road speed lookup.
// MaxSpeedKmh == nil with NoLimit == false means the limit is unknown
// (no tagged way nearby, or the lookup failed). NoLimit marks roads
// explicitly tagged "maxspeed=none" (unrestricted motorway).
type SpeedRecord struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	MaxSpeedKmh *int    `json:"max_speed_kmh"`
	NoLimit     bool    `json:"no_limit"`
	WayID       *int64  `json:"way_id,omitempty"`
}

// ColorClass buckets a speed record for rendering.
type ColorClass string

const (
	ColorHigh    ColorClass = "high"
	ColorLow     ColorClass = "low"
	ColorUnknown ColorClass = "unknown"
)

// Color classifies the record against the configured threshold.
// Unrestricted roads count as high: no limit is at or above any threshold.
func (r SpeedRecord) Color(thresholdKmh int) ColorClass {
	if r.NoLimit {
		return ColorHigh
	}
	if r.MaxSpeedKmh == nil {
		return ColorUnknown
	}
	if *r.MaxSpeedKmh >= thresholdKmh {
		return ColorHigh
	}
	return ColorLow
}

// Known implicit OSM maxspeed codes, in km/h. National-default codes
// beyond these map to unknown rather than guessed values.
var speedCodes = map[string]int{
	"FR:urban":    50,
	"FR:rural":    80,
	"FR:trunk":    110,
	"FR:motorway": 130,
	"walk":        10,
}

// Codes that mean "tagged but not a fixed number"; they carry no usable
// limit and map to unknown.
var variableCodes = map[string]struct{}{
	"signals":  {},
	"variable": {},
}

const milesPerHourInKmh = 1.609344

// ParseMaxspeed turns a raw OSM maxspeed tag value into km/h.
// Returns (nil, true) for "none", (nil, false) for anything it cannot
// interpret. Never fails: unknown strings degrade to unknown.
func ParseMaxspeed(raw string) (kmh *int, noLimit bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, false
	}
	if strings.EqualFold(value, "none") {
		return nil, true
	}
	if _, ok := variableCodes[strings.ToLower(value)]; ok {
		return nil, false
	}
	if v, ok := speedCodes[value]; ok {
		return &v, false
	}

	fields := strings.Fields(value)
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 0 {
		return nil, false
	}
	if len(fields) > 1 && strings.EqualFold(fields[1], "mph") {
		n = int(math.Round(float64(n) * milesPerHourInKmh))
	}
	return &n, false
}
