package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Google  GoogleConfig
	MongoDB MongoDBConfig
	Summary SummaryConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// StorageConfig holds local persistence options.
type StorageConfig struct {
	DBPath string
}

// GoogleConfig contains the OAuth application credentials for cloud sync.
// ClientID here only seeds the credential slot on first run; the runtime
// value lives in local storage and can be changed through the API.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// MongoDBConfig holds settings for the optional daily summary archive.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// SummaryConfig holds scheduler-related settings.
type SummaryConfig struct {
	CronSchedule string
	Timezone     string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Storage: StorageConfig{
			DBPath: getenvWithDefault("PIGGERY_DB_PATH", "piggery.db"),
		},
		Google: GoogleConfig{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  getenvWithDefault("GOOGLE_REDIRECT_URL", "http://localhost:8080/oauth/callback"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "piggery"),
		},
		Summary: SummaryConfig{
			CronSchedule: getenvWithDefault("SUMMARY_CRON_SCHEDULE", "0 20 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "Asia/Manila"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated. Cloud
// sync and the MongoDB archive are optional; everything local must be set.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.Storage.DBPath == "" {
		return errors.New("PIGGERY_DB_PATH must not be empty")
	}

	// The client ID is user-provided at runtime, but a configured ID needs its
	// secret for the token exchange.
	if c.Google.ClientID != "" && c.Google.ClientSecret == "" {
		return errors.New("GOOGLE_CLIENT_SECRET must be provided when GOOGLE_CLIENT_ID is set")
	}

	if c.MongoDB.URI != "" && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided when MONGODB_URI is set")
	}

	if c.Summary.CronSchedule == "" {
		return errors.New("SUMMARY_CRON_SCHEDULE must be provided")
	}

	if c.Summary.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
