// config.go - Environment-driven configuration for the client.
// A .env file in the working directory is honored when present.

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"sensechat/src/models"

	"github.com/joho/godotenv"
)

// Config holds everything the client reads from the environment.
type Config struct {
	// Backend
	APIBaseURL  string
	HTTPTimeout time.Duration
	Healthcheck bool

	// Local state
	ConfigDir string

	// Upload status polling
	PollInterval    time.Duration
	PollMaxAttempts int
	ReadyGrace      time.Duration

	// Client-side upload limits (server stays authoritative)
	MaxFileSizeMB int
	EnforceLimits bool

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads the configuration from the environment, falling back to
// defaults that match a local backend on port 8000.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		APIBaseURL: getEnv("SENSECHAT_API_URL", "http://localhost:8000"),
		// Chat answers wait on the language model; two minutes covers the
		// slow ones without masking a dead backend forever.
		HTTPTimeout:     getDurationEnv("SENSECHAT_HTTP_TIMEOUT", 120*time.Second),
		Healthcheck:     getBoolEnv("SENSECHAT_HEALTHCHECK", false),
		ConfigDir:       getEnv("SENSECHAT_CONFIG_DIR", defaultConfigDir()),
		PollInterval:    getDurationEnv("SENSECHAT_POLL_INTERVAL", 2*time.Second),
		PollMaxAttempts: getIntEnv("SENSECHAT_POLL_MAX_ATTEMPTS", 60),
		ReadyGrace:      getDurationEnv("SENSECHAT_READY_GRACE", 3*time.Second),
		MaxFileSizeMB:   getIntEnv("SENSECHAT_MAX_FILE_MB", 50),
		EnforceLimits:   getBoolEnv("SENSECHAT_ENFORCE_LIMITS", false),
		LogFile:         getEnv("SENSECHAT_LOG_FILE", ""),
		LogLevel:        getLevelEnv("SENSECHAT_LOG_LEVEL", slog.LevelInfo),
	}
}

// UploadPolicy assembles the client-side upload constraints from the
// backend's declared defaults and this configuration.
func (c *Config) UploadPolicy() models.UploadPolicy {
	policy := models.DefaultUploadPolicy()
	if c.MaxFileSizeMB > 0 {
		policy.MaxFileSizeMB = c.MaxFileSizeMB
	}
	policy.Enforce = c.EnforceLimits
	return policy
}

func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sensechat"
	}
	return filepath.Join(home, ".sensechat")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("Invalid integer in environment, using default", "key", key, "value", value)
		return fallback
	}
	return parsed
}

func getBoolEnv(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		slog.Warn("Invalid boolean in environment, using default", "key", key, "value", value)
		return fallback
	}
	return parsed
}

// getDurationEnv accepts Go duration strings ("2s", "500ms") and, for
// convenience, bare numbers meaning seconds.
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("Invalid duration in environment, using default", "key", key, "value", value)
		return fallback
	}
	return parsed
}

func getLevelEnv(key string, fallback slog.Level) slog.Level {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		slog.Warn("Invalid log level in environment, using default", "key", key, "value", value)
		return fallback
	}
	return level
}
