package config

import (
	"testing"
	"time"
)

func TestGetFallsBackWhenBlank(t *testing.T) {
	t.Setenv("CFG_TEST_KEY", "   ")
	if got := Get("CFG_TEST_KEY", "fallback"); got != "fallback" {
		t.Fatalf("Get = %q, want fallback", got)
	}

	t.Setenv("CFG_TEST_KEY", " value ")
	if got := Get("CFG_TEST_KEY", "fallback"); got != "value" {
		t.Fatalf("Get = %q, want value", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEOCODER", "static")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("GEOCODE_CACHE", "")
	t.Setenv("GEOCODE_TIMEOUT", "")
	t.Setenv("RESOLVER_WORKERS", "")
	t.Setenv("GEOCODE_BACKOFF", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DBDriver != "sqlite" {
		t.Fatalf("DBDriver = %q, want sqlite", cfg.DBDriver)
	}
	if cfg.GeocodeCache != "sql" {
		t.Fatalf("GeocodeCache = %q, want sql", cfg.GeocodeCache)
	}
	if cfg.GeocodeTimeout != 10*time.Second {
		t.Fatalf("GeocodeTimeout = %v, want 10s", cfg.GeocodeTimeout)
	}
	if cfg.GeocodeBackoff != 200*time.Millisecond {
		t.Fatalf("GeocodeBackoff = %v, want 200ms", cfg.GeocodeBackoff)
	}
	if cfg.ResolverWorkers != 4 {
		t.Fatalf("ResolverWorkers = %d, want 4", cfg.ResolverWorkers)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "ors without key", env: map[string]string{"GEOCODER": "ors", "ORS_API_KEY": ""}},
		{name: "postgres without url", env: map[string]string{"GEOCODER": "static", "DB_DRIVER": "postgres", "DATABASE_URL": ""}},
		{name: "redis without url", env: map[string]string{"GEOCODER": "static", "GEOCODE_CACHE": "redis", "REDIS_URL": ""}},
		{name: "bad timeout", env: map[string]string{"GEOCODER": "static", "GEOCODE_TIMEOUT": "soon"}},
		{name: "bad backoff", env: map[string]string{"GEOCODER": "static", "GEOCODE_BACKOFF": "fast"}},
		{name: "negative backoff", env: map[string]string{"GEOCODER": "static", "GEOCODE_BACKOFF": "-1s"}},
		{name: "zero workers", env: map[string]string{"GEOCODER": "static", "RESOLVER_WORKERS": "0"}},
		{name: "unknown geocoder", env: map[string]string{"GEOCODER": "carrier-pigeon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestLoadGeocodeBackoff(t *testing.T) {
	t.Setenv("GEOCODER", "static")
	t.Setenv("GEOCODE_BACKOFF", "750ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GeocodeBackoff != 750*time.Millisecond {
		t.Fatalf("GeocodeBackoff = %v, want 750ms", cfg.GeocodeBackoff)
	}
}
