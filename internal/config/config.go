package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Route    RouteConfig
	Overpass OverpassConfig
	Output   OutputConfig
	Log      LogConfig
}

type RouteConfig struct {
	File              string  `validate:"required"`
	MaxPoints         int     `validate:"gt=0"`
	SpeedThresholdKmh int     `validate:"gt=0"`
	BBoxMarginDeg     float64 `validate:"gte=0,lte=1"`
	Workers           int     `validate:"gte=1,lte=4"`
}

type OverpassConfig struct {
	BaseURL          string        `validate:"required,url"`
	RequestTimeout   time.Duration `validate:"gt=0"`
	SearchRadiusM    int           `validate:"gte=5,lte=200"`
	ThrottleInterval time.Duration `validate:"gte=0"`
	MaxAttempts      int           `validate:"gte=1,lte=10"`
	BackoffBase      time.Duration `validate:"gte=0"`
}

type OutputConfig struct {
	File string
}

type LogConfig struct {
	Level string
}

// Load reads flags, environment and an optional .env file, in that
// precedence order, and validates the result. args are the raw command
// line arguments without the program name.
func Load(args []string) (*Config, error) {
	flags := pflag.NewFlagSet("speedmap", pflag.ContinueOnError)
	flags.StringP("file", "f", "", "path to the GPX file")
	flags.IntP("limit-speed", "l", 110, "speed threshold in km/h")
	flags.IntP("max-points", "m", 400, "maximum number of GPS points to query")
	flags.StringP("out", "o", "", "output HTML file (default: speed_map_<timestamp>_<run>.html)")
	flags.Int("workers", 1, "concurrent lookup workers (1-4)")
	flags.String("log-level", "info", "log level")
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()
	// The .env file is optional for a batch run.
	_ = v.ReadInConfig()

	if err := v.BindPFlag("GPX_FILE", flags.Lookup("file")); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}
	_ = v.BindPFlag("LIMIT_SPEED", flags.Lookup("limit-speed"))
	_ = v.BindPFlag("MAX_POINTS", flags.Lookup("max-points"))
	_ = v.BindPFlag("OUTPUT_FILE", flags.Lookup("out"))
	_ = v.BindPFlag("LOOKUP_WORKERS", flags.Lookup("workers"))
	_ = v.BindPFlag("LOG_LEVEL", flags.Lookup("log-level"))

	v.SetDefault("BBOX_MARGIN_DEG", 0.01)
	v.SetDefault("OVERPASS_URL", "https://overpass-api.de/api/interpreter")
	v.SetDefault("OVERPASS_TIMEOUT", 60)
	v.SetDefault("OVERPASS_SEARCH_RADIUS", 30)
	v.SetDefault("OVERPASS_THROTTLE_MS", 1200)
	v.SetDefault("OVERPASS_MAX_ATTEMPTS", 3)
	v.SetDefault("OVERPASS_BACKOFF_MS", 1000)

	cfg := &Config{
		Route: RouteConfig{
			File:              v.GetString("GPX_FILE"),
			MaxPoints:         v.GetInt("MAX_POINTS"),
			SpeedThresholdKmh: v.GetInt("LIMIT_SPEED"),
			BBoxMarginDeg:     v.GetFloat64("BBOX_MARGIN_DEG"),
			Workers:           v.GetInt("LOOKUP_WORKERS"),
		},
		Overpass: OverpassConfig{
			BaseURL:          v.GetString("OVERPASS_URL"),
			RequestTimeout:   time.Duration(v.GetInt("OVERPASS_TIMEOUT")) * time.Second,
			SearchRadiusM:    v.GetInt("OVERPASS_SEARCH_RADIUS"),
			ThrottleInterval: time.Duration(v.GetInt("OVERPASS_THROTTLE_MS")) * time.Millisecond,
			MaxAttempts:      v.GetInt("OVERPASS_MAX_ATTEMPTS"),
			BackoffBase:      time.Duration(v.GetInt("OVERPASS_BACKOFF_MS")) * time.Millisecond,
		},
		Output: OutputConfig{
			File: v.GetString("OUTPUT_FILE"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
