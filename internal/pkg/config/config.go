package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Maps      MapsConfig      `mapstructure:"maps"`
	Search    SearchConfig    `mapstructure:"search"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type MapsConfig struct {
	APIKey          string `mapstructure:"api_key"`
	BaseURL         string `mapstructure:"base_url"`
	RequestTimeout  int    `mapstructure:"request_timeout"`
	MatrixChunkSize int    `mapstructure:"matrix_chunk_size"`
	MatrixWorkers   int    `mapstructure:"matrix_workers"`
	MaxRetries      int    `mapstructure:"max_retries"`
}

type SearchConfig struct {
	DefaultAlgorithm  string    `mapstructure:"default_algorithm"`
	FairnessWeight    float64   `mapstructure:"fairness_weight"`
	EfficiencyWeight  float64   `mapstructure:"efficiency_weight"`
	RadiusMeters      int       `mapstructure:"radius_meters"`
	MaxAlternatives   int       `mapstructure:"max_alternatives"`
	SampleCount       int       `mapstructure:"sample_count"`
	LateralOffsetsM   []float64 `mapstructure:"lateral_offsets_m"`
	RefineRounds      int       `mapstructure:"refine_rounds"`
	RefineSamples     int       `mapstructure:"refine_samples"`
	WindowShrink      float64   `mapstructure:"window_shrink"`
	VenueSnapRadiusM  int       `mapstructure:"venue_snap_radius_m"`
	MinSampleSpacingM float64   `mapstructure:"min_sample_spacing_m"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr       string `mapstructure:"addr"`
	GeocodeTTL int    `mapstructure:"geocode_ttl"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("maps.api_key", "")
	v.SetDefault("maps.base_url", "")
	v.SetDefault("maps.request_timeout", 10)
	v.SetDefault("maps.matrix_chunk_size", 25)
	v.SetDefault("maps.matrix_workers", 10)
	v.SetDefault("maps.max_retries", 2)
	v.SetDefault("search.default_algorithm", "geo-midpoint")
	v.SetDefault("search.fairness_weight", 0.7)
	v.SetDefault("search.efficiency_weight", 0.3)
	v.SetDefault("search.radius_meters", 2000)
	v.SetDefault("search.max_alternatives", 5)
	v.SetDefault("search.sample_count", 30)
	v.SetDefault("search.lateral_offsets_m", []float64{-60, 0, 60})
	v.SetDefault("search.refine_rounds", 3)
	v.SetDefault("search.refine_samples", 10)
	v.SetDefault("search.window_shrink", 0.5)
	v.SetDefault("search.venue_snap_radius_m", 150)
	v.SetDefault("search.min_sample_spacing_m", 200)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.geocode_ttl", 86400)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: MIDWAYMEET_MAPS_API_KEY → maps.api_key
	v.SetEnvPrefix("MIDWAYMEET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Maps.APIKey == "" {
		errs = append(errs, "maps.api_key is required")
	}
	if c.Maps.MatrixChunkSize <= 0 || c.Maps.MatrixChunkSize > 25 {
		errs = append(errs, fmt.Sprintf("maps.matrix_chunk_size must be 1-25, got %d", c.Maps.MatrixChunkSize))
	}
	if c.Maps.MatrixWorkers <= 0 {
		errs = append(errs, "maps.matrix_workers must be positive")
	}
	if c.Search.FairnessWeight <= 0 || c.Search.EfficiencyWeight <= 0 {
		errs = append(errs, "search weights must be positive")
	}
	if c.Search.RadiusMeters < 100 || c.Search.RadiusMeters > 10000 {
		errs = append(errs, fmt.Sprintf("search.radius_meters must be 100-10000, got %d", c.Search.RadiusMeters))
	}
	if c.Search.SampleCount <= 1 {
		errs = append(errs, "search.sample_count must be at least 2")
	}
	if c.Search.DefaultAlgorithm != "geo-midpoint" && c.Search.DefaultAlgorithm != "route-minimax" {
		errs = append(errs, fmt.Sprintf("search.default_algorithm must be geo-midpoint or route-minimax, got %q", c.Search.DefaultAlgorithm))
	}
	if c.Search.WindowShrink <= 0 || c.Search.WindowShrink >= 1 {
		errs = append(errs, "search.window_shrink must be in (0, 1)")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
