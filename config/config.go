package config

import (
	"os"
	"strconv"
	"time"

	apperrors "github.com/sqanatoliy/jobs-scraper/pkg/errors"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config represents the application configuration
type Config struct {
	// Store configuration
	StoreDriver string
	DBPath      string
	PostgresDSN string

	// Telegram configuration
	TelegramToken       string
	ChatID              string
	NoExpTelegramToken  string
	NoExpChatID         string
	TelegramAPIEndpoint string
	NotifyMaxAttempts   int
	NotifyRatePerSecond float64

	// Fetch configuration
	HTTPTimeout time.Duration
	UserAgent   string

	// Memcache configuration, empty address disables the fetch cooldown
	MemcacheAddr       string
	FetchBlockDuration time.Duration

	// Redis configuration, empty address disables publishing
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Scraper definitions and schedule
	ScrapersFile string
	Schedule     string

	LogFile     string
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	notifyMaxAttempts, _ := strconv.Atoi(getEnv("NOTIFY_MAX_ATTEMPTS", "0"))
	notifyRate, _ := strconv.ParseFloat(getEnv("NOTIFY_RATE_PER_SECOND", "1"), 64)
	httpTimeout, _ := strconv.Atoi(getEnv("HTTP_TIMEOUT_SECONDS", "30"))
	fetchBlock, _ := strconv.Atoi(getEnv("FETCH_BLOCK_SECONDS", "300"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	redisStreamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	redisStreamMaxLength, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "1000"))

	return &Config{
		StoreDriver:          getEnv("JOBS_STORE_DRIVER", DriverSQLite),
		DBPath:               getEnv("JOBS_DB_PATH", "data/job_data.db"),
		PostgresDSN:          getEnv("JOBS_POSTGRES_DSN", ""),
		TelegramToken:        getEnv("TELEGRAM_TOKEN", ""),
		ChatID:               getEnv("CHAT_ID", ""),
		NoExpTelegramToken:   getEnv("NO_EXP_TELEGRAM_TOKEN", ""),
		NoExpChatID:          getEnv("NO_EXP_CHAT_ID", ""),
		TelegramAPIEndpoint:  getEnv("TELEGRAM_API_ENDPOINT", ""),
		NotifyMaxAttempts:    notifyMaxAttempts,
		NotifyRatePerSecond:  notifyRate,
		HTTPTimeout:          time.Duration(httpTimeout) * time.Second,
		UserAgent:            getEnv("USER_AGENT", "Mozilla/5.0"),
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		FetchBlockDuration:   time.Duration(fetchBlock) * time.Second,
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "jobs"),
		RedisStreamCount:     redisStreamCount,
		RedisStreamMaxLength: redisStreamMaxLength,
		ScrapersFile:         getEnv("SCRAPERS_FILE", "configs/scrapers.yaml"),
		Schedule:             getEnv("SCHEDULE", "@every 30m"),
		LogFile:              getEnv("LOG_FILE", "logs/scraper.log"),
		Environment:          getEnv("JOBS_ENVIRONMENT", "development"),
	}
}

// Validate checks settings that cannot be defaulted
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			return apperrors.NewConfiguration("JOBS_DB_PATH must not be empty", nil)
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return apperrors.NewConfiguration("JOBS_POSTGRES_DSN is required for the postgres store", nil)
		}
	default:
		return apperrors.NewConfiguration("unknown store driver "+strconv.Quote(c.StoreDriver), nil)
	}
	if c.HTTPTimeout <= 0 {
		return apperrors.NewConfiguration("HTTP_TIMEOUT_SECONDS must be positive", nil)
	}
	if c.FetchBlockDuration <= 0 {
		return apperrors.NewConfiguration("FETCH_BLOCK_SECONDS must be positive", nil)
	}
	if c.NotifyMaxAttempts < 0 {
		return apperrors.NewConfiguration("NOTIFY_MAX_ATTEMPTS must not be negative", nil)
	}
	if c.NotifyRatePerSecond <= 0 {
		return apperrors.NewConfiguration("NOTIFY_RATE_PER_SECOND must be positive", nil)
	}
	if c.RedisAddr != "" && c.RedisStreamCount < 1 {
		return apperrors.NewConfiguration("REDIS_STREAM_COUNT must be at least 1", nil)
	}
	return nil
}

// IsProduction reports whether the process runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
