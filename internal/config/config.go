package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Get returns the environment value for key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func GetInt(key string, fallback int) (int, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not an integer: %w", key, v, err)
	}
	return n, nil
}

func GetFloat(key string, fallback float64) (float64, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not a number: %w", key, v, err)
	}
	return f, nil
}

func GetDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not a duration: %w", key, v, err)
	}
	return d, nil
}

// Config holds the server settings read from the environment.
type Config struct {
	Port string

	DBDriver    string // sqlite | postgres
	DBPath      string
	DatabaseURL string
	SeedPath    string

	Geocoder    string // ors | arcgis | static
	ORSKey      string
	ORSCountry  string
	ArcGISToken string

	GeocodeCache string // sql | redis | memory
	RedisURL     string

	GeocodeTimeout  time.Duration
	GeocodeAttempts int
	GeocodeBackoff  time.Duration
	GeocodeRatePerS float64
	GeocodeBurst    int
	ResolverWorkers int
}

// Load reads Config from the environment and validates cross-field requirements.
func Load() (Config, error) {
	cfg := Config{
		Port:         Get("PORT", "8080"),
		DBDriver:     strings.ToLower(Get("DB_DRIVER", "sqlite")),
		DBPath:       Get("DB_PATH", "data/app.db"),
		DatabaseURL:  Get("DATABASE_URL", ""),
		SeedPath:     Get("SEED_PATH", "data/seeds/catalog.yaml"),
		Geocoder:     strings.ToLower(Get("GEOCODER", "ors")),
		ORSKey:       Get("ORS_API_KEY", ""),
		ORSCountry:   Get("ORS_COUNTRY", ""),
		ArcGISToken:  Get("ARCGIS_TOKEN", ""),
		GeocodeCache: strings.ToLower(Get("GEOCODE_CACHE", "sql")),
		RedisURL:     Get("REDIS_URL", ""),
	}

	var errs []error
	var err error

	if cfg.GeocodeTimeout, err = GetDuration("GEOCODE_TIMEOUT", 10*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.GeocodeAttempts, err = GetInt("GEOCODE_ATTEMPTS", 3); err != nil {
		errs = append(errs, err)
	}
	if cfg.GeocodeBackoff, err = GetDuration("GEOCODE_BACKOFF", 200*time.Millisecond); err != nil {
		errs = append(errs, err)
	}
	if cfg.GeocodeRatePerS, err = GetFloat("GEOCODE_RATE_PER_SEC", 5); err != nil {
		errs = append(errs, err)
	}
	if cfg.GeocodeBurst, err = GetInt("GEOCODE_BURST", 5); err != nil {
		errs = append(errs, err)
	}
	if cfg.ResolverWorkers, err = GetInt("RESOLVER_WORKERS", 4); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.DBDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.Geocoder {
	case "ors":
		if c.ORSKey == "" {
			return errors.New("config: ORS_API_KEY is required when GEOCODER=ors")
		}
	case "arcgis", "static":
	default:
		return fmt.Errorf("config: unsupported GEOCODER %q", c.Geocoder)
	}

	switch c.GeocodeCache {
	case "sql", "memory":
	case "redis":
		if c.RedisURL == "" {
			return errors.New("config: REDIS_URL is required when GEOCODE_CACHE=redis")
		}
	default:
		return fmt.Errorf("config: unsupported GEOCODE_CACHE %q", c.GeocodeCache)
	}

	if c.GeocodeTimeout <= 0 {
		return errors.New("config: GEOCODE_TIMEOUT must be positive")
	}
	if c.GeocodeAttempts < 1 {
		return errors.New("config: GEOCODE_ATTEMPTS must be at least 1")
	}
	if c.GeocodeBackoff <= 0 {
		return errors.New("config: GEOCODE_BACKOFF must be positive")
	}
	if c.ResolverWorkers < 1 {
		return errors.New("config: RESOLVER_WORKERS must be at least 1")
	}
	return nil
}
