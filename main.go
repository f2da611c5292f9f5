package main

import (
	"context"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"panelnorm/adapters/geocode"
	"panelnorm/adapters/postgres"
	"panelnorm/api"
	"panelnorm/internal/config"
	"panelnorm/internal/jobs"
	"panelnorm/internal/transform"
	"panelnorm/ports"
)

// initDatabase initializes the optional PostgreSQL job store
func initDatabase(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	if err := postgres.EnsureSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	for _, dir := range []string{cfg.Paths.UploadDir, cfg.Paths.ProcessedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	// Job bookkeeping: Postgres when configured, in-memory otherwise
	var repo ports.JobRepository = jobs.NewMemoryStore()
	if cfg.Database.URL != "" {
		db, err := initDatabase(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()
		repo = postgres.NewJobRepository(db)
		log.Println("Job store: PostgreSQL")
	} else {
		log.Println("Job store: in-memory")
	}

	lookup := geocode.LoadLookupTable(cfg.Paths.PostalCandidates)

	var remote ports.RemoteGeocoder
	if client := geocode.NewGoogleClient(cfg.Geocoding.GoogleAPIKey); client != nil {
		remote = client
	}

	pipeline := transform.NewPipeline(lookup, remote, cfg.Geocoding.Enabled)
	manager := jobs.NewManager(cfg.Paths.ProcessedDir, pipeline, repo)

	sweeper := jobs.NewSweeper(
		[]string{cfg.Paths.UploadDir, cfg.Paths.ProcessedDir},
		cfg.Cleanup.TTL, cfg.Cleanup.Interval, repo)
	go sweeper.Run(context.Background())

	app := api.NewApp(cfg, manager, repo, lookup, remote)
	log.Printf("Starting panelnorm server on port %s", cfg.Server.Port)
	log.Fatal(app.Run())
}
