package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
	_ "time/tzdata"

	"mailcenter-service/internal/adapters/cache"
	"mailcenter-service/internal/adapters/repositories"
	"mailcenter-service/internal/api"
	"mailcenter-service/internal/config"
	"mailcenter-service/internal/platform/db"
	"mailcenter-service/internal/platform/logger"
	"mailcenter-service/internal/ports"
	"mailcenter-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (Postgres or SQLite, Redis) behind ports and
// starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		// Not an error: production supplies plain environment variables.
		os.Stderr.WriteString("no .env file found (using environment variables)\n")
	}

	log, err := logger.New(config.Get("LOG_MODE", "dev"))
	if err != nil {
		os.Stderr.WriteString("logger init failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	policy, err := config.LoadPolicy(config.Get("BILLING_POLICY_PATH", "config/billing.yaml"))
	if err != nil {
		log.Fatal("load billing policy failed", "err", err)
	}

	conn, repos, err := openRepositories(policy)
	if err != nil {
		log.Fatal("open database failed", "err", err)
	}
	defer conn.Close()

	if err := repositories.InitSchema(conn); err != nil {
		log.Fatal("init schema failed", "err", err)
	}

	// Seed demo data for local runs when a seed file is present.
	seedPath := config.Get("SEED_PATH", "data/seeds/mailitems.json")
	if _, err := os.Stat(seedPath); err == nil {
		report, err := repositories.SeedFromJSON(
			context.Background(),
			repos.contacts, repos.items,
			policy, seedPath, time.Now(),
		)
		if err != nil {
			log.Fatal("seed failed", "path", seedPath, "err", err)
		}
		log.Info("seeded demo data",
			"contacts", report.ContactsLoaded,
			"mail_items", report.MailItemsLoaded,
			"fees_opened", report.FeesOpened,
			"skipped", len(report.Skipped),
		)
		for _, skip := range report.Skipped {
			log.Warn("seed row skipped", "err", skip)
		}
	}

	var groupCache ports.GroupCache
	if addr := os.Getenv("REDIS_ADDR"); strings.TrimSpace(addr) != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		ttl := time.Duration(config.GetInt("GROUP_CACHE_TTL_SECONDS", 300)) * time.Second
		groupCache = cache.NewRedisGroupCache(client, ttl)
		log.Info("group cache enabled", "addr", addr, "ttl", ttl)
	}

	router := api.NewRouter(repos.items, repos.fees, repos.contacts, groupCache, policy, log)

	port := config.Get("PORT", "8080")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Info("server listening", "addr", srv.Addr)
	log.Fatal("server stopped", "err", srv.ListenAndServe())
}

type repoSet struct {
	items    ports.MailItemRepository
	fees     ports.FeeRepository
	contacts ports.ContactRepository
}

// openRepositories picks the storage backend: DATABASE_URL selects Postgres,
// otherwise the service runs on a local SQLite file.
func openRepositories(policy services.BillingPolicy) (*sql.DB, repoSet, error) {
	if databaseURL := os.Getenv("DATABASE_URL"); strings.TrimSpace(databaseURL) != "" {
		conn, err := db.Open(databaseURL)
		if err != nil {
			return nil, repoSet{}, err
		}
		return conn, repoSet{
			items:    repositories.NewSQLMailItemRepository(conn, policy.Calendar),
			fees:     repositories.NewSQLFeeRepository(conn, policy.Calendar),
			contacts: repositories.NewSQLContactRepository(conn),
		}, nil
	}

	conn, err := db.OpenSqlite(config.Get("DB_PATH", "data/app.db"))
	if err != nil {
		return nil, repoSet{}, err
	}
	return conn, repoSet{
		items:    repositories.NewSqliteMailItemRepository(conn, policy.Calendar),
		fees:     repositories.NewSqliteFeeRepository(conn, policy.Calendar),
		contacts: repositories.NewSqliteContactRepository(conn),
	}, nil
}
