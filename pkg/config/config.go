package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External data providers
	Providers ProvidersConfig

	// Reconciliation
	Reconcile ReconcileConfig

	// Periodic watchlist refresh
	Refresh RefreshConfig

	// News sentiment classifier
	Sentiment SentimentConfig

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   LogFileConfig

	// Monitoring
	MetricsEnabled bool
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

// ProvidersConfig holds credentials and endpoints of the market data providers
type ProvidersConfig struct {
	// Timeout bounds every single provider call; expiry means "no data"
	Timeout time.Duration

	FinMindToken   string
	FinMindBaseURL string

	AlphaVantageAPIKey  string
	AlphaVantageBaseURL string

	// SEC asks for a descriptive User-Agent with a contact address
	SECUserAgent  string
	SECBaseURL    string
	SECTickersURL string

	YahooBaseURL string
	TWSEBaseURL  string
	MOPSBaseURL  string
}

// ReconcileConfig holds the cross-source tolerance
type ReconcileConfig struct {
	Tolerance float64 // relative difference fraction, 0.05 = 5%
}

// RefreshConfig holds the watchlist refresh job settings
type RefreshConfig struct {
	Schedule   string // cron expression with seconds
	Workers    int
	PolicyPath string // optional YAML source policy
}

// SentimentConfig holds the headline classifier settings
type SentimentConfig struct {
	APIKey   string
	Model    string
	MinScore float64
}

// LogFileConfig enables a rotating log file next to stdout
type LogFileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Providers: ProvidersConfig{
			Timeout:             getEnvAsDuration("PROVIDER_TIMEOUT", "15s"),
			FinMindToken:        getEnv("FINMIND_TOKEN", ""),
			FinMindBaseURL:      getEnv("FINMIND_BASE_URL", "https://api.finmindtrade.com/api/v4"),
			AlphaVantageAPIKey:  getEnv("ALPHA_VANTAGE_API_KEY", ""),
			AlphaVantageBaseURL: getEnv("ALPHA_VANTAGE_BASE_URL", "https://www.alphavantage.co/query"),
			SECUserAgent:        getEnv("SEC_USER_AGENT", "stockdash/1.0 (contact@example.com)"),
			SECBaseURL:          getEnv("SEC_BASE_URL", "https://data.sec.gov"),
			SECTickersURL:       getEnv("SEC_TICKERS_URL", "https://www.sec.gov/files/company_tickers.json"),
			YahooBaseURL:        getEnv("YAHOO_BASE_URL", "https://query2.finance.yahoo.com"),
			TWSEBaseURL:         getEnv("TWSE_BASE_URL", "https://www.twse.com.tw"),
			MOPSBaseURL:         getEnv("MOPS_BASE_URL", "https://mops.twse.com.tw"),
		},

		Reconcile: ReconcileConfig{
			Tolerance: getEnvAsFloat("RECONCILE_TOLERANCE", 0.05),
		},

		Refresh: RefreshConfig{
			Schedule:   getEnv("REFRESH_SCHEDULE", "0 30 17 * * 1-5"),
			Workers:    getEnvAsInt("REFRESH_WORKERS", 4),
			PolicyPath: getEnv("SOURCE_POLICY_PATH", ""),
		},

		Sentiment: SentimentConfig{
			APIKey:   getEnv("GEMINI_API_KEY", ""),
			Model:    getEnv("SENTIMENT_MODEL", "gemini-2.0-flash"),
			MinScore: getEnvAsFloat("SENTIMENT_MIN_SCORE", 0.6),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogFile: LogFileConfig{
			Path:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvAsInt("LOG_FILE_MAX_SIZE_MB", 50),
			MaxBackups: getEnvAsInt("LOG_FILE_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvAsInt("LOG_FILE_MAX_AGE_DAYS", 14),
		},

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate reports every invalid setting at once
func (c *Config) validate() error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	switch c.Env {
	case "development", "staging", "production":
	default:
		errs = append(errs, fmt.Errorf("ENV must be one of: development, staging, production (got %q)", c.Env))
	}
	if c.Reconcile.Tolerance < 0 || c.Reconcile.Tolerance >= 1 {
		errs = append(errs, fmt.Errorf("RECONCILE_TOLERANCE must be in [0, 1), got %v", c.Reconcile.Tolerance))
	}
	if c.Refresh.Workers < 1 {
		errs = append(errs, errors.New("REFRESH_WORKERS must be >= 1"))
	}
	if c.Providers.Timeout <= 0 {
		errs = append(errs, errors.New("PROVIDER_TIMEOUT must be positive"))
	}
	if c.Providers.SECUserAgent == "" {
		errs = append(errs, errors.New("SEC_USER_AGENT must not be empty"))
	}
	if c.Sentiment.MinScore < 0 || c.Sentiment.MinScore > 1 {
		errs = append(errs, fmt.Errorf("SENTIMENT_MIN_SCORE must be in [0, 1], got %v", c.Sentiment.MinScore))
	}
	return errors.Join(errs...)
}

// Helper functions (private, only used within this file)

// loadEnvFile loads the first .env found in the working directory or next to the binary
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

// getEnvAs parses key with parse; unset or unparsable = defaultValue
func getEnvAs[T any](key string, defaultValue T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := parse(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvAsInt(key string, defaultValue int) int {
	return getEnvAs(key, defaultValue, strconv.Atoi)
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	return getEnvAs(key, defaultValue, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

func getEnvAsBool(key string, defaultValue bool) bool {
	return getEnvAs(key, defaultValue, strconv.ParseBool)
}

// getEnvAsDuration takes the default as a string so it reads like the env value
func getEnvAsDuration(key string, defaultValue string) time.Duration {
	def, _ := time.ParseDuration(defaultValue)
	return getEnvAs(key, def, time.ParseDuration)
}
