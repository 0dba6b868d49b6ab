package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATASET_PATH", "PROGRESS_BACKEND", "PROGRESS_PATH", "REQUEST_DELAY", "FROM_YEAR", "TO_YEAR"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	if cfg.Port != "5001" {
		t.Errorf("expected port 5001, got %s", cfg.Port)
	}
	if cfg.DatasetPath != "data/torah_readings_complete.json" {
		t.Errorf("unexpected dataset path %s", cfg.DatasetPath)
	}
	if cfg.ProgressBackend != "csv" || cfg.ProgressPath != "data/progress.csv" {
		t.Errorf("unexpected progress config %s %s", cfg.ProgressBackend, cfg.ProgressPath)
	}
	if cfg.RequestDelay != 100*time.Millisecond || cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("unexpected timings %s %s", cfg.RequestDelay, cfg.HTTPTimeout)
	}
	if cfg.FromYear != 2014 || cfg.ToYear != 2030 {
		t.Errorf("unexpected years %d-%d", cfg.FromYear, cfg.ToYear)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("PROGRESS_BACKEND", "sqlite")
	t.Setenv("REQUEST_DELAY", "0s")
	t.Setenv("FETCH_RETRIES", "not a number")
	t.Setenv("FROM_YEAR", "2020")
	t.Setenv("TO_YEAR", "2022")

	cfg := Load()
	if cfg.Port != "9000" || cfg.ProgressBackend != "sqlite" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.RequestDelay != 0 {
		t.Errorf("expected zero delay, got %s", cfg.RequestDelay)
	}
	if cfg.FetchRetries != 2 {
		t.Errorf("invalid int should fall back to default, got %d", cfg.FetchRetries)
	}
	years := cfg.Years()
	if len(years) != 3 || years[0] != 2020 || years[2] != 2022 {
		t.Errorf("unexpected years %v", years)
	}
}

func TestValidate(t *testing.T) {
	base := Config{DatasetPath: "d.json", ProgressPath: "p.csv", ProgressBackend: "csv", FromYear: 2014, ToYear: 2030}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no dataset", func(c *Config) { c.DatasetPath = "" }},
		{"no progress", func(c *Config) { c.ProgressPath = "" }},
		{"bad backend", func(c *Config) { c.ProgressBackend = "redis" }},
		{"inverted years", func(c *Config) { c.FromYear = 2031 }},
	}
	for _, tt := range tests {
		c := base
		tt.mutate(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}
