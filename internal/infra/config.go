package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ProviderConfig holds the static settings for one AI provider.
type ProviderConfig struct {
	APIKey     string
	BaseURL    string
	ImageModel string
	VideoModel string
}

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	MetricsPort      string
	DatabaseURL      string
	JWTSecret        string
	StoragePath      string
	StorageBaseURL   string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int

	SweepInterval      time.Duration
	SweepBatchSize     int
	PendingTimeout     time.Duration
	ProcessingTimeout  time.Duration
	CredentialCacheTTL time.Duration
	LaunchTimeout      time.Duration

	DefaultImageProvider string
	DefaultVideoProvider string
	DashScope            ProviderConfig
	Gemini               ProviderConfig
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             port,
		MetricsPort:      getEnv("METRICS_PORT", "9090"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		StoragePath:      getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:   getEnv("STORAGE_BASE_URL", "http://localhost:"+port+"/static"),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),

		SweepInterval:      getEnvDuration("SWEEP_INTERVAL", 5*time.Second),
		SweepBatchSize:     getEnvInt("SWEEP_BATCH_SIZE", 5),
		PendingTimeout:     getEnvDuration("PENDING_TIMEOUT", 5*time.Minute),
		ProcessingTimeout:  getEnvDuration("PROCESSING_TIMEOUT", 20*time.Minute),
		CredentialCacheTTL: getEnvDuration("CREDENTIAL_CACHE_TTL", time.Minute),
		LaunchTimeout:      getEnvDuration("LAUNCH_TIMEOUT", 2*time.Minute),

		DefaultImageProvider: strings.ToLower(getEnv("DEFAULT_IMAGE_PROVIDER", "dashscope")),
		DefaultVideoProvider: strings.ToLower(getEnv("DEFAULT_VIDEO_PROVIDER", "dashscope")),
		DashScope: ProviderConfig{
			APIKey:     os.Getenv("DASHSCOPE_API_KEY"),
			BaseURL:    getEnv("DASHSCOPE_BASE_URL", "https://dashscope-intl.aliyuncs.com/api/v1"),
			ImageModel: getEnv("DASHSCOPE_IMAGE_MODEL", "wanx2.1-t2i-turbo"),
			VideoModel: getEnv("DASHSCOPE_VIDEO_MODEL", "wanx2.1-i2v-turbo"),
		},
		Gemini: ProviderConfig{
			APIKey:     os.Getenv("GEMINI_API_KEY"),
			BaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/"),
			ImageModel: getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
			VideoModel: getEnv("GEMINI_VIDEO_MODEL", "veo-3.0-generate-001"),
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.SweepBatchSize <= 0 {
		return nil, fmt.Errorf("SWEEP_BATCH_SIZE must be positive, got %d", cfg.SweepBatchSize)
	}
	if cfg.PendingTimeout <= 0 || cfg.ProcessingTimeout <= 0 {
		return nil, fmt.Errorf("PENDING_TIMEOUT and PROCESSING_TIMEOUT must be positive")
	}

	return cfg, nil
}

// RequireJWTSecret fails when the API is started without a signing secret.
func (c *Config) RequireJWTSecret() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
