package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Data source selects where the two data endpoints read from.
const (
	SourceGarmin = "garmin"
	SourceLocal  = "local"
)

// Config holds the configuration for the Garmin gateway service.
// Environment variables are parsed from the GARMIN_ prefix, e.g.
// GARMIN_SERVICE_PORT, GARMIN_DATA_SOURCE.
type Config struct {
	// HTTP listen port.
	ServicePort int `envconfig:"SERVICE_PORT" default:"8000"`

	// ServiceIsCN switches the upstream to the China-region domain.
	ServiceIsCN bool `envconfig:"SERVICE_IS_CN" default:"false"`

	// DataSource is "garmin" (live upstream, snapshots saved after each
	// successful fetch) or "local" (serve the last saved snapshots only).
	DataSource string `envconfig:"DATA_SOURCE" default:"garmin"`

	// FetchConcurrency bounds parallel upstream calls per process.
	FetchConcurrency int `envconfig:"FETCH_CONCURRENCY" default:"8"`

	// UpstreamTimeoutSeconds bounds every individual upstream call.
	UpstreamTimeoutSeconds int `envconfig:"UPSTREAM_TIMEOUT_SECONDS" default:"20"`

	// ReplayDBPath locates the snapshot database used by DataSource.
	ReplayDBPath string `envconfig:"REPLAY_DB_PATH" default:"mock_data/replay.db"`
}

// Validate normalizes and checks derived constraints.
func (c *Config) Validate() error {
	c.DataSource = strings.ToLower(c.DataSource)
	switch c.DataSource {
	case SourceGarmin, SourceLocal:
	default:
		return fmt.Errorf("unsupported GARMIN_DATA_SOURCE: %s", c.DataSource)
	}
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("GARMIN_FETCH_CONCURRENCY must be >= 1, got %d", c.FetchConcurrency)
	}
	if c.UpstreamTimeoutSeconds < 1 {
		return fmt.Errorf("GARMIN_UPSTREAM_TIMEOUT_SECONDS must be >= 1, got %d", c.UpstreamTimeoutSeconds)
	}
	return nil
}

// New creates a Config from the environment. A .env file in the working
// directory is loaded first when present.
func New() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("GARMIN", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Info().
		Int("port", cfg.ServicePort).
		Bool("is_cn", cfg.ServiceIsCN).
		Str("data_source", cfg.DataSource).
		Int("fetch_concurrency", cfg.FetchConcurrency).
		Int("upstream_timeout_seconds", cfg.UpstreamTimeoutSeconds).
		Str("replay_db_path", cfg.ReplayDBPath).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting returns a config with defaults suitable for unit tests.
func NewForTesting() *Config {
	return &Config{
		ServicePort:            8000,
		DataSource:             SourceGarmin,
		FetchConcurrency:       4,
		UpstreamTimeoutSeconds: 5,
		ReplayDBPath:           "replay.db",
	}
}

// HTTPAddr returns the listen address for the HTTP server.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.ServicePort)
}

// UpstreamTimeout returns the per-call upstream timeout.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutSeconds) * time.Second
}

// IsLocalSource reports whether the service replays saved snapshots instead
// of calling the upstream.
func (c *Config) IsLocalSource() bool {
	return c.DataSource == SourceLocal
}
