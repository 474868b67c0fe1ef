package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"order-fulfillment-service/internal/adapters/cache"
	"order-fulfillment-service/internal/adapters/geocoding"
	"order-fulfillment-service/internal/adapters/repositories"
	"order-fulfillment-service/internal/api"
	"order-fulfillment-service/internal/config"
	"order-fulfillment-service/internal/platform/db"
	"order-fulfillment-service/internal/platform/metrics"
	"order-fulfillment-service/internal/ports"
	"order-fulfillment-service/internal/services"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
)

// main is the application composition root.
// It wires concrete adapters (SQL, Redis, geocoding providers) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	metrics.RegisterDefault()

	conn, dialect, err := openDB(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	// Initialize schema and seed demo data on startup for local runs.
	catalog, err := initAndSeed(conn, dialect, cfg.SeedPath)
	if err != nil {
		log.Fatal(err)
	}

	provider, err := newGeocoder(cfg, catalog)
	if err != nil {
		log.Fatal(err)
	}

	store, closeStore, err := newGeocodeStore(cfg, conn, dialect)
	if err != nil {
		log.Fatal(err)
	}
	defer closeStore()

	// One cache for the whole process: every worker shares its in-flight lookups.
	geocodeCache, err := services.NewGeocodeCache(
		store,
		geocoding.NewRateLimitedGeocoder(provider, cfg.GeocodeRatePerS, cfg.GeocodeBurst),
		services.WithGeocodeTimeout(cfg.GeocodeTimeout),
	)
	if err != nil {
		log.Fatal(err)
	}

	repo := repositories.NewSQLStore(conn, dialect)
	resolver := &services.FulfillmentResolver{
		Index:     repositories.NewSQLAvailabilityIndex(conn, dialect),
		Addresses: geocodeCache,
		Workers:   cfg.ResolverWorkers,
		Attempts:  cfg.GeocodeAttempts,
		Backoff:   cfg.GeocodeBackoff,
	}
	router := api.NewRouter(repo, repo, resolver)

	// Timeouts are tuned for cold-cache resolution (external geocoder latency).
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Server listening addr=:%s db=%s geocoder=%s geocode_cache=%s", cfg.Port, cfg.DBDriver, cfg.Geocoder, cfg.GeocodeCache)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown failed: %v", err)
	}
}

func openDB(cfg config.Config) (*sql.DB, db.Dialect, error) {
	if cfg.DBDriver == "postgres" {
		conn, err := db.Open(cfg.DatabaseURL)
		return conn, db.Postgres, err
	}

	conn, err := db.OpenSqlite(cfg.DBPath)
	return conn, db.Sqlite, err
}

func initAndSeed(conn *sql.DB, dialect db.Dialect, seedPath string) (*repositories.Catalog, error) {
	if err := repositories.InitSchema(conn); err != nil {
		return nil, fmt.Errorf("init and seed: %w", err)
	}

	catalog, err := repositories.LoadCatalog(seedPath)
	if err != nil {
		return nil, fmt.Errorf("init and seed: %w", err)
	}

	if err := repositories.Seed(conn, dialect, catalog); err != nil {
		return nil, fmt.Errorf("init and seed: %w", err)
	}

	return catalog, nil
}

func newGeocoder(cfg config.Config, catalog *repositories.Catalog) (ports.Geocoder, error) {
	switch cfg.Geocoder {
	case "arcgis":
		return geocoding.NewArcGISGeocoder(geocoding.WithArcGISToken(cfg.ArcGISToken)), nil
	case "static":
		return geocoding.NewStaticGeocoder(catalog.GeocodeTable()), nil
	default:
		return geocoding.NewORSGeocoder(cfg.ORSKey, geocoding.WithORSCountry(cfg.ORSCountry))
	}
}

func newGeocodeStore(cfg config.Config, conn *sql.DB, dialect db.Dialect) (ports.GeocodeStore, func(), error) {
	switch cfg.GeocodeCache {
	case "redis":
		s, err := cache.NewRedisGeocodeStoreFromURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "memory":
		return cache.NewMemoryGeocodeStore(), func() {}, nil
	default:
		return cache.NewSQLGeocodeStore(conn, dialect), func() {}, nil
	}
}
