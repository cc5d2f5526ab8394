package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Drafts    DraftsConfig
	Storage   StorageConfig
	Render    RenderConfig
	RateLimit RateLimitConfig
	Matching  MatchingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig points at the SQLite database file
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// DraftsConfig controls how long parsed drafts wait for review
type DraftsConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// StorageConfig selects where uploads and generated flyers are written
type StorageConfig struct {
	Type               string `mapstructure:"type"` // "local" or "gcs"
	LocalDir           string `mapstructure:"local_dir"`
	PublicURLPrefix    string `mapstructure:"public_url_prefix"`
	GCSBucket          string `mapstructure:"gcs_bucket"`
	GCSCredentialsFile string `mapstructure:"gcs_credentials_file"`
}

// RenderConfig holds flyer rendering configuration
type RenderConfig struct {
	ChromePath     string        `mapstructure:"chrome_path"`
	ChunkSize      int           `mapstructure:"chunk_size"`
	Width          int           `mapstructure:"width"`
	Height         int           `mapstructure:"height"`
	Scale          float64       `mapstructure:"scale"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	Currency       string        `mapstructure:"currency"`
	AssetBaseURL   string        `mapstructure:"asset_base_url"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
	Burst int `mapstructure:"burst"`
}

// MatchingConfig tunes product suggestions for parsed items
type MatchingConfig struct {
	MaxDistance int `mapstructure:"max_distance"`
}

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/flyerkit/")

	// FLYERKIT_RENDER_CHROME_PATH -> render.chrome_path
	v.SetEnvPrefix("FLYERKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env when present; variables already set in the environment win
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(".env")
}

// setDefaults sets default configuration values.
// Every key needs a default so AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("database.path", "flyerkit.db")

	v.SetDefault("drafts.ttl", "2h")

	// Storage defaults
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_dir", "storage")
	v.SetDefault("storage.public_url_prefix", "/storage")
	v.SetDefault("storage.gcs_bucket", "")
	v.SetDefault("storage.gcs_credentials_file", "")

	// Render defaults, a 1080x1920 story at 2x
	v.SetDefault("render.chrome_path", "chromium")
	v.SetDefault("render.chunk_size", 4)
	v.SetDefault("render.width", 1080)
	v.SetDefault("render.height", 1920)
	v.SetDefault("render.scale", 2)
	v.SetDefault("render.timeout", "60s")
	v.SetDefault("render.max_concurrency", 2)
	v.SetDefault("render.currency", "BRL")
	v.SetDefault("render.asset_base_url", "")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)
	v.SetDefault("ratelimit.burst", 10)

	v.SetDefault("matching.max_distance", 3)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Database.Path == "" {
		return fmt.Errorf("database path is required (set FLYERKIT_DATABASE_PATH)")
	}

	switch config.Storage.Type {
	case "local":
		if config.Storage.LocalDir == "" {
			return fmt.Errorf("storage local_dir is required when storage type is 'local'")
		}
	case "gcs":
		if config.Storage.GCSBucket == "" {
			return fmt.Errorf("GCS bucket is required when storage type is 'gcs' (set FLYERKIT_STORAGE_GCS_BUCKET)")
		}
	default:
		return fmt.Errorf("storage type must be 'local' or 'gcs', got: %s", config.Storage.Type)
	}

	if config.Render.ChunkSize <= 0 {
		return fmt.Errorf("render chunk_size must be positive, got: %d", config.Render.ChunkSize)
	}
	if config.Render.Width <= 0 || config.Render.Height <= 0 || config.Render.Scale <= 0 {
		return fmt.Errorf("render width, height and scale must be positive")
	}
	if config.Render.MaxConcurrency <= 0 {
		return fmt.Errorf("render max_concurrency must be positive, got: %d", config.Render.MaxConcurrency)
	}

	if config.Drafts.TTL <= 0 {
		return fmt.Errorf("drafts ttl must be positive, got: %v", config.Drafts.TTL)
	}

	if config.RateLimit.PerIP <= 0 || config.RateLimit.Burst <= 0 {
		return fmt.Errorf("ratelimit per_ip and burst must be positive")
	}

	if config.Matching.MaxDistance < 0 {
		return fmt.Errorf("matching max_distance cannot be negative, got: %d", config.Matching.MaxDistance)
	}

	return nil
}
