package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DemoKey is the placeholder key every provider accepts in demo mode.
const DemoKey = "demo"

// Config holds all configuration for the application
// ⭐ SSOT: every environment variable is read here and nowhere else
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production, test

	// Database (optional run history)
	Database DatabaseConfig

	// Redis (optional L2 metrics cache)
	Redis RedisConfig

	// Financial data providers
	AlphaVantage ProviderConfig
	Finnhub      ProviderConfig
	FMP          ProviderConfig
	Finviz       FinvizConfig

	// ProviderOrder is the priority order of the live providers.
	ProviderOrder []string

	// Fetching
	Fetch FetchConfig

	// Cache
	Cache CacheConfig

	// MarketTablePath overrides the embedded market table when set.
	MarketTablePath string

	// RefreshSchedule is a cron spec (with seconds) for the screener refresh job.
	RefreshSchedule string

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether run history persistence is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// ProviderConfig holds a JSON financial data API configuration
type ProviderConfig struct {
	APIKey            string
	BaseURL           string
	RequestsPerMinute int
}

// DemoMode reports whether the provider runs with the placeholder key.
func (p ProviderConfig) DemoMode() bool {
	return p.APIKey == "" || p.APIKey == DemoKey
}

// FinvizConfig holds the HTML snapshot provider configuration
type FinvizConfig struct {
	Enabled           bool
	BaseURL           string
	RequestsPerMinute int
}

// FetchConfig holds batching parameters for the metrics fetcher
type FetchConfig struct {
	BatchSize              int
	BatchDelay             time.Duration
	HistoricalBatchSize    int
	HistoricalBatchDelay   time.Duration
	HistoricalUniverseSize int
	HTTPTimeout            time.Duration
}

// CacheConfig holds metrics cache TTLs
type CacheConfig struct {
	Enabled       bool
	CurrentTTL    time.Duration
	HistoricalTTL time.Duration
}

// LoadFrom loads envFile into the environment, then reads the configuration.
// An empty envFile behaves like Load.
func LoadFrom(envFile string) (*Config, error) {
	if envFile == "" {
		return Load()
	}
	if err := godotenv.Load(envFile); err != nil {
		return nil, fmt.Errorf("load env file %s: %w", envFile, err)
	}
	return read()
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	loadEnvFile()
	return read()
}

// read builds the Config from the environment
// ⭐ SSOT: the only function that calls os.Getenv()
func read() (*Config, error) {

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		AlphaVantage: ProviderConfig{
			APIKey:            getEnv("ALPHAVANTAGE_API_KEY", DemoKey),
			BaseURL:           getEnv("ALPHAVANTAGE_BASE_URL", "https://www.alphavantage.co"),
			RequestsPerMinute: getEnvAsInt("ALPHAVANTAGE_RPM", 0),
		},
		Finnhub: ProviderConfig{
			APIKey:            getEnv("FINNHUB_API_KEY", DemoKey),
			BaseURL:           getEnv("FINNHUB_BASE_URL", "https://finnhub.io"),
			RequestsPerMinute: getEnvAsInt("FINNHUB_RPM", 0),
		},
		FMP: ProviderConfig{
			APIKey:            getEnv("FMP_API_KEY", DemoKey),
			BaseURL:           getEnv("FMP_BASE_URL", "https://financialmodelingprep.com"),
			RequestsPerMinute: getEnvAsInt("FMP_RPM", 0),
		},
		Finviz: FinvizConfig{
			Enabled:           getEnvAsBool("FINVIZ_ENABLED", false),
			BaseURL:           getEnv("FINVIZ_BASE_URL", "https://finviz.com"),
			RequestsPerMinute: getEnvAsInt("FINVIZ_RPM", 0),
		},

		ProviderOrder: getEnvAsList("PROVIDERS", []string{"alpha_vantage", "finnhub", "fmp"}),

		Fetch: FetchConfig{
			BatchSize:              getEnvAsInt("SCREENER_BATCH_SIZE", 10),
			BatchDelay:             getEnvAsDuration("SCREENER_BATCH_DELAY", "1s"),
			HistoricalBatchSize:    getEnvAsInt("HISTORICAL_BATCH_SIZE", 5),
			HistoricalBatchDelay:   getEnvAsDuration("HISTORICAL_BATCH_DELAY", "2s"),
			HistoricalUniverseSize: getEnvAsInt("HISTORICAL_UNIVERSE_SIZE", 50),
			HTTPTimeout:            getEnvAsDuration("HTTP_TIMEOUT", "15s"),
		},

		Cache: CacheConfig{
			Enabled:       getEnvAsBool("CACHE_ENABLED", true),
			CurrentTTL:    getEnvAsDuration("CACHE_TTL_CURRENT", "10m"),
			HistoricalTTL: getEnvAsDuration("CACHE_TTL_HISTORICAL", "24h"),
		},

		MarketTablePath: getEnv("MARKET_TABLE_PATH", ""),
		RefreshSchedule: getEnv("REFRESH_SCHEDULE", "0 0 */1 * * *"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	switch c.Env {
	case "development", "staging", "production", "test":
	default:
		return fmt.Errorf("ENV must be one of: development, staging, production, test")
	}

	if c.Fetch.BatchSize < 1 {
		return fmt.Errorf("SCREENER_BATCH_SIZE must be >= 1")
	}
	if c.Fetch.HistoricalBatchSize < 1 {
		return fmt.Errorf("HISTORICAL_BATCH_SIZE must be >= 1")
	}
	if c.Fetch.HistoricalUniverseSize < 1 {
		return fmt.Errorf("HISTORICAL_UNIVERSE_SIZE must be >= 1")
	}

	for _, name := range c.ProviderOrder {
		switch name {
		case "alpha_vantage", "finnhub", "fmp", "finviz":
		default:
			return fmt.Errorf("PROVIDERS contains unknown provider %q", name)
		}
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma separated value, dropping blanks
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
