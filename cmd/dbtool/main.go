package main

import (
	"database/sql"
	"log"
	"order-fulfillment-service/internal/adapters/repositories"
	"order-fulfillment-service/internal/config"
	"order-fulfillment-service/internal/platform/db"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// dbtool initializes the Postgres schema and loads the seed catalog.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	conn, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	seedPath := config.Get("SEED_PATH", "data/seeds/catalog.yaml")
	if err := initAndSeed(conn, seedPath); err != nil {
		log.Fatal(err)
	}
}

func initAndSeed(conn *sql.DB, seedPath string) error {
	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(conn); err != nil {
		return err
	}
	log.Println("Schema ready.")

	log.Println("Seeding database...")
	if err := repositories.SeedFromYAML(conn, db.Postgres, seedPath); err != nil {
		return err
	}
	log.Println("Seeding complete.")

	return nil
}
