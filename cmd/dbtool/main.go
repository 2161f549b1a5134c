package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "time/tzdata"

	"mailcenter-service/internal/adapters/repositories"
	"mailcenter-service/internal/config"
	"mailcenter-service/internal/platform/db"
)

// dbtool initializes the Postgres schema and loads the seed file. Meant for
// provisioning a fresh environment; the server does the same for SQLite on
// startup.
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

	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(conn); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	policy, err := config.LoadPolicy(config.Get("BILLING_POLICY_PATH", "config/billing.yaml"))
	if err != nil {
		log.Fatalf("load billing policy failed: %v", err)
	}

	seedPath := config.Get("SEED_PATH", "data/seeds/mailitems.json")
	log.Printf("Seeding database from %s...", seedPath)
	report, err := repositories.SeedFromJSON(
		context.Background(),
		repositories.NewSQLContactRepository(conn),
		repositories.NewSQLMailItemRepository(conn, policy.Calendar),
		policy, seedPath, time.Now(),
	)
	if err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	for _, skip := range report.Skipped {
		log.Printf("seed row skipped: %v", skip)
	}
	log.Printf("Seeding complete: %d contacts, %d mail items, %d fees opened.",
		report.ContactsLoaded, report.MailItemsLoaded, report.FeesOpened)
}
