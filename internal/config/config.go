package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	baseURLVar  = "ARCA_BASE_URL"
	dataDirVar  = "ARCA_DATA_DIR"
	timeoutVar  = "ARCA_HTTP_TIMEOUT"
	logLevelVar = "ARCA_LOG_LEVEL"
)

// Config carries the client's environment-derived settings.
type Config struct {
	BaseURL     string
	DataDir     string
	HTTPTimeout time.Duration
	LogLevel    string
}

// New reads configuration from the environment, applying defaults.
func New() Config {
	return Config{
		BaseURL:     GetEnv(baseURLVar, "http://localhost:8080"),
		DataDir:     GetEnv(dataDirVar, defaultDataDir()),
		HTTPTimeout: getDuration(timeoutVar, 30*time.Second),
		LogLevel:    GetEnv(logLevelVar, "info"),
	}
}

// GetEnv returns the variable's value, or defaultValue when unset or blank.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultValue
	}
	return d
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".arca"
	}
	return filepath.Join(dir, "arca")
}
