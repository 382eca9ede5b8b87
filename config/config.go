package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Server struct {
		Port           string `env:"PORT" envDefault:"5250"`
		GinMode        string `env:"GIN_MODE" envDefault:"release"`
		AllowedOrigins string `env:"ALLOWED_ORIGINS" envDefault:"*"`
		LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	}

	Database struct {
		Path string `env:"DATABASE_PATH" envDefault:"database/residences.db"`
	}

	Routing struct {
		// Provider credential; may only be empty in mock mode
		APIKey string `env:"ROUTING_API_KEY"`

		BaseURL string `env:"ROUTING_BASE_URL" envDefault:"https://maps.googleapis.com/maps/api/directions/json"`

		// Upper bound for a single provider call
		Timeout time.Duration `env:"ROUTING_TIMEOUT" envDefault:"10s"`

		// Estimate travel times from straight-line distance instead of
		// calling the provider
		Mock bool `env:"ROUTING_MOCK" envDefault:"false"`

		// Time zone the HH:MM arrive-by and depart-at times are read in
		Timezone string `env:"ROUTING_TIMEZONE" envDefault:"Europe/Stockholm"`
	}

	Geocoder struct {
		Country  string `env:"GEOCODER_COUNTRY" envDefault:"Sweden"`
		CacheDir string `env:"GEOCODER_CACHE_DIR"`
	}

	Commute struct {
		// Number of concurrent routing workers
		Workers int `env:"COMMUTE_WORKERS" envDefault:"4"`

		// Maximum number of queued routing tasks
		QueueSize int `env:"COMMUTE_QUEUE_SIZE" envDefault:"256"`

		// Client-local commute cache file
		CacheFile string `env:"COMMUTE_CACHE_FILE"`

		// How long a commute time stays valid
		CacheTTL time.Duration `env:"COMMUTE_CACHE_TTL" envDefault:"720h"`

		// How often stale or missing commutes are re-enqueued
		RefreshInterval time.Duration `env:"COMMUTE_REFRESH_INTERVAL" envDefault:"24h"`
	}

	Finance struct {
		DownPaymentRate     float64 `env:"FINANCE_DOWN_PAYMENT_RATE" envDefault:"0.15"`
		InterestRateAnnual  float64 `env:"FINANCE_INTEREST_RATE" envDefault:"0.04"`
		ImputeOperatingCost bool    `env:"FINANCE_IMPUTE_OPERATING_COST" envDefault:"true"`
	}
}

// Parse fills a Config from the environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	base := filepath.Join(os.TempDir(), "jamfor")
	if c.Geocoder.CacheDir == "" {
		c.Geocoder.CacheDir = filepath.Join(base, "geocode_cache")
	}
	if c.Commute.CacheFile == "" {
		c.Commute.CacheFile = filepath.Join(base, "commute_cache.json")
	}
}
