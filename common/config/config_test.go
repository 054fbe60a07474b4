package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("api")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Service.Name != "api" {
		t.Errorf("Service.Name = %q", cfg.Service.Name)
	}
	if cfg.Dispatcher.EventStream != "clip-events" {
		t.Errorf("EventStream = %q", cfg.Dispatcher.EventStream)
	}
	if cfg.Dispatcher.DLQStream != "clip-events-dlq" {
		t.Errorf("DLQStream = %q", cfg.Dispatcher.DLQStream)
	}
	if len(cfg.Jobs.Types) != 3 {
		t.Errorf("Jobs.Types = %v", cfg.Jobs.Types)
	}
	if cfg.Search.PageSize != 40 || cfg.Search.MaxPageSize != 100 {
		t.Errorf("Search = %+v", cfg.Search)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ENRICHMENT_JOB_TYPES", "transcription, tagging")
	t.Setenv("SEARCH_PAGE_SIZE", "25")
	t.Setenv("DISPATCHER_BACKOFF_BASE", "1s")

	cfg, err := Load("api")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Jobs.Types) != 2 || cfg.Jobs.Types[1] != "tagging" {
		t.Errorf("Jobs.Types = %v", cfg.Jobs.Types)
	}
	if cfg.Search.PageSize != 25 {
		t.Errorf("PageSize = %d", cfg.Search.PageSize)
	}
	if cfg.Dispatcher.BackoffBase != time.Second {
		t.Errorf("BackoffBase = %v", cfg.Dispatcher.BackoffBase)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("api")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		return cfg
	}

	cases := []struct {
		name  string
		wreck func(*Config)
	}{
		{"bad port", func(c *Config) { c.Service.Port = 0 }},
		{"missing db host", func(c *Config) { c.Database.Host = "" }},
		{"conn pool inverted", func(c *Config) { c.Database.MaxConns = 1; c.Database.MinConns = 5 }},
		{"dispatcher attempts", func(c *Config) { c.Dispatcher.MaxAttempts = 0 }},
		{"backoff cap below base", func(c *Config) { c.Dispatcher.BackoffCap = c.Dispatcher.BackoffBase / 2 }},
		{"no job types", func(c *Config) { c.Jobs.Types = nil }},
		{"page size over max", func(c *Config) { c.Search.PageSize = 500 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.wreck(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
