package config

import (
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.Store != StoreMemory {
		t.Errorf("expected memory store, got %q", cfg.Store)
	}
	if cfg.DefaultTimezone != "Asia/Kuala_Lumpur" {
		t.Errorf("unexpected default timezone %q", cfg.DefaultTimezone)
	}
	if cfg.MissedThresholdHours != 12 {
		t.Errorf("expected threshold 12, got %d", cfg.MissedThresholdHours)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("STORE", " SQLite ")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	t.Setenv("MISSED_THRESHOLD_HOURS", "24")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store != StoreSQLite {
		t.Errorf("expected sqlite store, got %q", cfg.Store)
	}
	if cfg.SQLitePath != "/tmp/x.db" {
		t.Errorf("unexpected sqlite path %q", cfg.SQLitePath)
	}
	if cfg.MissedThresholdHours != 24 {
		t.Errorf("expected threshold 24, got %d", cfg.MissedThresholdHours)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Env:                  "development",
			Store:                StoreMemory,
			DefaultTimezone:      "Asia/Kuala_Lumpur",
			MissedThresholdHours: 12,
			SweepSchedule:        "*/15 * * * *",
			RefreshSchedule:      "@daily",
		}
	}

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"postgres without url", func(c *Config) { c.Store = StorePostgres }, true},
		{"postgres with url", func(c *Config) { c.Store = StorePostgres; c.DatabaseURL = "postgres://x" }, false},
		{"unknown store", func(c *Config) { c.Store = "mongo" }, true},
		{"local timezone", func(c *Config) { c.DefaultTimezone = "Local" }, true},
		{"bad timezone", func(c *Config) { c.DefaultTimezone = "Mars/Base" }, true},
		{"zero threshold", func(c *Config) { c.MissedThresholdHours = 0 }, true},
		{"bad cron", func(c *Config) { c.SweepSchedule = "every now and then" }, true},
		{"disabled cron", func(c *Config) { c.SweepSchedule = "" }, false},
		{"production without jwt", func(c *Config) { c.Env = "production" }, true},
		{"production with jwt", func(c *Config) { c.Env = "production"; c.JWTSecret = "s3cret" }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(&c)
			err := c.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
