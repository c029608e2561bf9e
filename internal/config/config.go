// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config carries every tunable the process reads at startup.
type Config struct {
	ListenAddr      string        `env:"LISTEN_ADDR" envDefault:":5001"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Catalog search sidecars. The fallback is optional; leave it empty to
	// run with a single source.
	CatalogBaseURL         string `env:"CATALOG_BASE_URL" envDefault:"http://127.0.0.1:5002"`
	FallbackCatalogBaseURL string `env:"FALLBACK_CATALOG_BASE_URL"`

	// Metadata/extraction sidecar.
	ExtractorBaseURL string `env:"EXTRACTOR_BASE_URL" envDefault:"http://127.0.0.1:5003"`

	// Every external call gets a deadline; streams only bound the wait for
	// upstream response headers so playback is not cut off mid-track.
	UpstreamTimeout     time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"15s"`
	StreamHeaderTimeout time.Duration `env:"STREAM_HEADER_TIMEOUT" envDefault:"30s"`
	ResolvedURLTTL      time.Duration `env:"RESOLVED_URL_TTL" envDefault:"10m"`

	SearchCacheSize int           `env:"SEARCH_CACHE_SIZE" envDefault:"256"`
	SearchCacheTTL  time.Duration `env:"SEARCH_CACHE_TTL" envDefault:"5m"`
	ProbeCacheSize  int           `env:"PROBE_CACHE_SIZE" envDefault:"4096"`
	ProbeCacheTTL   time.Duration `env:"PROBE_CACHE_TTL" envDefault:"30m"`

	ProbeConcurrency int `env:"PROBE_CONCURRENCY" envDefault:"4"`
	OverscanFactor   int `env:"OVERSCAN_FACTOR" envDefault:"2"`
	DefaultResults   int `env:"DEFAULT_RESULTS" envDefault:"20"`
	MaxResults       int `env:"MAX_RESULTS" envDefault:"50"`

	// Hand-maintained channel allow-list; membership is approximate and
	// expected to be extended over time.
	VerifiedChannelIDs []string `env:"VERIFIED_CHANNEL_IDS" envSeparator:","`
}

// Load parses configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
