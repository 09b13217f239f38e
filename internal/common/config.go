// Package common provides shared utilities for Tracket
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Storage backends accepted in [storage].backend.
const (
	BackendMemory    = "memory"
	BackendSQLite    = "sqlite"
	BackendSurrealDB = "surrealdb"
)

// Config holds all configuration for Tracket
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Ledger      LedgerConfig    `toml:"ledger"`
	Valuation   ValuationConfig `toml:"valuation"`
	Prices      PricesConfig    `toml:"prices"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host      string  `toml:"host"`
	Port      int     `toml:"port"`
	RateLimit float64 `toml:"rate_limit"` // requests per second, 0 disables
	RateBurst int     `toml:"rate_burst"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Backend   string          `toml:"backend"`
	SQLite    SQLiteConfig    `toml:"sqlite"`
	SurrealDB SurrealDBConfig `toml:"surrealdb"`
}

// SQLiteConfig holds the embedded database location.
type SQLiteConfig struct {
	Path string `toml:"path"`
}

// SurrealDBConfig holds SurrealDB connection settings.
type SurrealDBConfig struct {
	Address   string `toml:"address"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// Address describes the configured backend for banners and logs.
func (c *StorageConfig) Address() string {
	switch c.Backend {
	case BackendSQLite:
		return "sqlite://" + c.SQLite.Path
	case BackendSurrealDB:
		return c.SurrealDB.Address
	default:
		return c.Backend
	}
}

// LedgerConfig holds money-movement policy.
type LedgerConfig struct {
	AllowOverdraft bool `toml:"allow_overdraft"`
	PageSize       int  `toml:"page_size"`
}

// ValuationConfig holds position aggregation settings.
type ValuationConfig struct {
	StoreAggregation bool `toml:"store_aggregation"`
}

// PricesConfig holds price lookup settings.
type PricesConfig struct {
	CacheTTL string `toml:"cache_ttl"`
}

// GetCacheTTL parses the cache TTL. An explicit "0" disables caching.
func (c *PricesConfig) GetCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil || d < 0 {
		return 30 * time.Second
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      8080,
			RateLimit: 20,
			RateBurst: 40,
		},
		Storage: StorageConfig{
			Backend: BackendSQLite,
			SQLite:  SQLiteConfig{Path: "data/tracket.db"},
			SurrealDB: SurrealDBConfig{
				Address:   "ws://localhost:8000/rpc",
				Namespace: "tracket",
				Database:  "tracket",
				Username:  "root",
				Password:  "root",
			},
		},
		Ledger: LedgerConfig{
			AllowOverdraft: true,
			PageSize:       10,
		},
		Prices: PricesConfig{
			CacheTTL: "30s",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Outputs:    []string{"console"},
			FilePath:   "./logs/tracket.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// A .env file in the working directory is loaded first when present.
func LoadConfig(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("TRACKET_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("TRACKET_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("TRACKET_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("TRACKET_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if backend := os.Getenv("TRACKET_STORAGE_BACKEND"); backend != "" {
		config.Storage.Backend = strings.ToLower(backend)
	}
	if path := os.Getenv("TRACKET_SQLITE_PATH"); path != "" {
		config.Storage.SQLite.Path = path
	}
	if v := os.Getenv("TRACKET_SURREALDB_ADDRESS"); v != "" {
		config.Storage.SurrealDB.Address = v
	}
	if v := os.Getenv("TRACKET_SURREALDB_USERNAME"); v != "" {
		config.Storage.SurrealDB.Username = v
	}
	if v := os.Getenv("TRACKET_SURREALDB_PASSWORD"); v != "" {
		config.Storage.SurrealDB.Password = v
	}

	if v := os.Getenv("TRACKET_ALLOW_OVERDRAFT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Ledger.AllowOverdraft = b
		}
	}

	if v := os.Getenv("TRACKET_PRICE_CACHE_TTL"); v != "" {
		config.Prices.CacheTTL = v
	}
}

// Validate rejects configurations the application cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendSQLite, BackendSurrealDB:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Ledger.PageSize <= 0 {
		c.Ledger.PageSize = 10
	}
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
