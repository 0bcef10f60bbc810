package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App        AppConfig
	Sheets     SheetsConfig
	Redis      RedisConfig
	Logger     LoggerConfig
	Auth       AuthConfig
	Classifier ClassifierConfig
	Payout     PayoutConfig
	Taxonomy   TaxonomyConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// SheetsConfig holds the external worksheet backend values.
type SheetsConfig struct {
	SpreadsheetID   string
	BaseURL         string
	AccessToken     string
	TicketsSheet    string
	WorkersSheet    string
	CacheTTLSeconds int
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	AdminAccessKey        string
	PBKDF2Rounds          int
}

// ClassifierConfig points at the external quote-image classifier.
type ClassifierConfig struct {
	BaseURL        string
	APIKey         string
	Model          string
	TimeoutSeconds int
}

// PayoutConfig holds reporting parameters.
type PayoutConfig struct {
	MonthlyTarget int
}

// TaxonomyConfig optionally overrides the built-in category taxonomy.
type TaxonomyConfig struct {
	Path string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "dispatch-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Sheets: SheetsConfig{
			SpreadsheetID:   os.Getenv("SHEETS_SPREADSHEET_ID"),
			BaseURL:         getEnv("SHEETS_BASE_URL", "https://sheets.googleapis.com"),
			AccessToken:     os.Getenv("SHEETS_ACCESS_TOKEN"),
			TicketsSheet:    getEnv("SHEETS_TICKETS_SHEET", "tickets"),
			WorkersSheet:    getEnv("SHEETS_WORKERS_SHEET", "workers"),
			CacheTTLSeconds: getEnvAsInt("SHEETS_CACHE_TTL_SECONDS", 10),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 480),
			AdminAccessKey:        os.Getenv("AUTH_ADMIN_ACCESS_KEY"),
			PBKDF2Rounds:          getEnvAsInt("AUTH_PBKDF2_ROUNDS", 120000),
		},
		Classifier: ClassifierConfig{
			BaseURL:        getEnv("CLASSIFIER_BASE_URL", "https://generativelanguage.googleapis.com"),
			APIKey:         os.Getenv("CLASSIFIER_API_KEY"),
			Model:          getEnv("CLASSIFIER_MODEL", "gemini-2.5-flash"),
			TimeoutSeconds: getEnvAsInt("CLASSIFIER_TIMEOUT_SECONDS", 35),
		},
		Payout: PayoutConfig{
			MonthlyTarget: getEnvAsInt("PAYOUT_MONTHLY_TARGET", 250000),
		},
		Taxonomy: TaxonomyConfig{
			Path: os.Getenv("TAXONOMY_PATH"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// CacheTTL returns the worksheet snapshot time-to-live.
func (s SheetsConfig) CacheTTL() time.Duration {
	if s.CacheTTLSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

// Timeout returns the per-call classifier timeout.
func (c ClassifierConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 35 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
