package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	StoragePath     string
	StorageBaseURL  string
	OutputBucket    string
	URLSigningKey   string
	URLTTL          time.Duration
	GenAPIKey       string
	GenBaseURL      string
	GenModel        string
	GenTimeout      time.Duration
	ClaimStaleAfter time.Duration

	// PropagateTriggerErrors re-throws pipeline failures to the trigger
	// platform instead of only recording them on the job. Off by default so
	// reactive triggers are not redelivered in a loop.
	PropagateTriggerErrors bool

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		StoragePath:     getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:  getEnv("STORAGE_BASE_URL", "http://localhost:8080/static"),
		OutputBucket:    getEnv("OUTPUT_BUCKET", "catalog-images"),
		URLSigningKey:   os.Getenv("URL_SIGNING_KEY"),
		URLTTL:          24 * time.Hour * 365 * time.Duration(getEnvInt("URL_TTL_YEARS", 5)),
		GenAPIKey:       os.Getenv("GEN_API_KEY"),
		GenBaseURL:      getEnv("GEN_BASE_URL", "https://api.imagegen.example.com/v1"),
		GenModel:        getEnv("GEN_MODEL", "imagegen-standard"),
		GenTimeout:      time.Second * time.Duration(getEnvInt("GEN_TIMEOUT_SECONDS", 120)),
		ClaimStaleAfter: time.Second * time.Duration(getEnvInt("CLAIM_STALE_AFTER_SECONDS", 0)),

		PropagateTriggerErrors: getEnvBool("PROPAGATE_TRIGGER_ERRORS", false),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.URLSigningKey == "" {
		return nil, fmt.Errorf("URL_SIGNING_KEY is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
