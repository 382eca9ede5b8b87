package config

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// LoadConfig reads .env.local and .env (if present) into the environment and
// then parses and validates the configuration. Variables already set in the
// environment win over the files.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env.local", ".env")

	cfg, err := Parse()
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures the values are usable. A missing routing credential is
// not an error here: it is reported per task so that the rest of the service
// keeps working.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("PORT is required")
	}
	if c.Database.Path == "" {
		return errors.New("DATABASE_PATH is required")
	}
	if c.Commute.Workers <= 0 {
		return fmt.Errorf("COMMUTE_WORKERS must be positive, got %d", c.Commute.Workers)
	}
	if c.Commute.QueueSize <= 0 {
		return fmt.Errorf("COMMUTE_QUEUE_SIZE must be positive, got %d", c.Commute.QueueSize)
	}
	if c.Commute.CacheTTL <= 0 {
		return errors.New("COMMUTE_CACHE_TTL must be positive")
	}
	if c.Finance.DownPaymentRate < 0 || c.Finance.DownPaymentRate > 1 {
		return fmt.Errorf("FINANCE_DOWN_PAYMENT_RATE must be within [0,1], got %v", c.Finance.DownPaymentRate)
	}
	if c.Finance.InterestRateAnnual < 0 {
		return fmt.Errorf("FINANCE_INTEREST_RATE must not be negative, got %v", c.Finance.InterestRateAnnual)
	}
	if _, err := time.LoadLocation(c.Routing.Timezone); err != nil {
		return fmt.Errorf("invalid ROUTING_TIMEZONE %q: %w", c.Routing.Timezone, err)
	}
	return nil
}

// Location returns the routing time zone, falling back to local time.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Routing.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
