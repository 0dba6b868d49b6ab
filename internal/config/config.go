package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgallion1/torahtrack/internal/fetch"
	"github.com/dgallion1/torahtrack/internal/hebcal"
	"github.com/dgallion1/torahtrack/internal/sefaria"
)

type Config struct {
	Port string

	// Storage
	DatasetPath     string
	ProgressBackend string
	ProgressPath    string
	ReportPath      string

	// Upstream services
	HebcalURL    string
	SefariaURL   string
	RequestDelay time.Duration
	HTTPTimeout  time.Duration
	FetchRetries int

	// Dataset build
	FromYear int
	ToYear   int

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "5001"),

		DatasetPath:     envOr("DATASET_PATH", "data/torah_readings_complete.json"),
		ProgressBackend: envOr("PROGRESS_BACKEND", "csv"),
		ProgressPath:    envOr("PROGRESS_PATH", "data/progress.csv"),
		ReportPath:      envOr("REPORT_PATH", "data/build_report.md"),

		HebcalURL:    envOr("HEBCAL_URL", hebcal.DefaultBaseURL),
		SefariaURL:   envOr("SEFARIA_URL", sefaria.DefaultBaseURL),
		RequestDelay: envDuration("REQUEST_DELAY", 100*time.Millisecond),
		HTTPTimeout:  envDuration("HTTP_TIMEOUT", 30*time.Second),
		FetchRetries: envInt("FETCH_RETRIES", fetch.DefaultMaxRetries),

		FromYear: envInt("FROM_YEAR", 2014),
		ToYear:   envInt("TO_YEAR", 2030),

		LogLevel:  envOr("LOG_LEVEL", "info"),
		LogFormat: envOr("LOG_FORMAT", "json"),
	}

	if cfg.RequestDelay < 0 {
		cfg.RequestDelay = 100 * time.Millisecond
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.FetchRetries < 0 {
		cfg.FetchRetries = fetch.DefaultMaxRetries
	}

	return cfg
}

func (c Config) Validate() error {
	if c.DatasetPath == "" {
		return fmt.Errorf("DATASET_PATH is required")
	}
	if c.ProgressPath == "" {
		return fmt.Errorf("PROGRESS_PATH is required")
	}
	switch c.ProgressBackend {
	case "csv", "sqlite":
	default:
		return fmt.Errorf("PROGRESS_BACKEND must be csv or sqlite, got %q", c.ProgressBackend)
	}
	if c.FromYear > c.ToYear {
		return fmt.Errorf("FROM_YEAR %d is after TO_YEAR %d", c.FromYear, c.ToYear)
	}
	return nil
}

// Years lists the calendar years to fetch, inclusive.
func (c Config) Years() []int {
	if c.FromYear > c.ToYear {
		return nil
	}
	years := make([]int, 0, c.ToYear-c.FromYear+1)
	for y := c.FromYear; y <= c.ToYear; y++ {
		years = append(years, y)
	}
	return years
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
