package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"panelnorm/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig
	Paths     PathConfig
	Geocoding GeocodingConfig
	Database  DatabaseConfig
	Cleanup   CleanupConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// PathConfig holds file system paths for the upload/processed lifecycle
// and the postal master reference dataset candidates, in preference order.
type PathConfig struct {
	UploadDir        string
	ProcessedDir     string
	PostalCandidates []string
}

// GeocodingConfig holds remote geocoder settings. An empty API key
// disables the remote tier; the local lookup table still works.
type GeocodingConfig struct {
	GoogleAPIKey string
	Enabled      bool
}

// DatabaseConfig holds optional job-store settings. An empty URL keeps
// job bookkeeping in memory.
type DatabaseConfig struct {
	URL string
}

// CleanupConfig holds TTL file cleanup settings.
type CleanupConfig struct {
	TTL      time.Duration
	Interval time.Duration
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envOr("PORT", "5000"),
		},
		Paths: PathConfig{
			UploadDir:    envOr("UPLOAD_FOLDER", "uploads"),
			ProcessedDir: envOr("PROCESSED_FOLDER", "processed"),
			PostalCandidates: []string{
				os.Getenv("POSTAL_CODE_MASTER_FILE"),
				filepath.Join("..", "data", "postal_code_master.xlsx"),
				os.Getenv("POSTAL_CODE_FALLBACK_PATH"),
				"postal_code_master.xlsx",
			},
		},
		Geocoding: GeocodingConfig{
			GoogleAPIKey: os.Getenv("GOOGLE_MAPS_API_KEY"),
			Enabled:      envBool("GEOCODING_ENABLED", true),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Cleanup: CleanupConfig{
			TTL:      time.Duration(envInt("FILE_TTL_MINUTES", 15)) * time.Minute,
			Interval: time.Duration(envInt("CLEANUP_INTERVAL_MINUTES", 10)) * time.Minute,
		},
	}

	if err := validate(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.ConfigInvalid("server port must not be empty")
	}
	if cfg.Paths.UploadDir == "" || cfg.Paths.ProcessedDir == "" {
		return errors.ConfigInvalid("upload and processed folders must be configured")
	}
	if cfg.Cleanup.TTL <= 0 || cfg.Cleanup.Interval <= 0 {
		return errors.ConfigInvalid("cleanup TTL and interval must be positive")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
