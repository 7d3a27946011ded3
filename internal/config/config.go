package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 应用配置
type Config struct {
	Port          string
	DBPath        string
	DataRawPath   string
	BatchSize     int
	SourceTZ      string // zone for timestamps without an offset
	ProgressEvery int
	GinMode       string
	CORSOrigin    string
	RateLimit     int // requests per RateWindow on /api/data routes
	RateWindow    time.Duration
	Logging       LoggingConfig
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string
	FilePath string
}

// Load 加载配置
func Load() *Config {
	return &Config{
		Port:          normalizePort(getEnv("PORT", ":3001")),
		DBPath:        getEnv("DB_PATH", "./data/trips.db"),
		DataRawPath:   getEnv("DATA_RAW_PATH", "./data/raw/train.csv"),
		BatchSize:     getIntEnv("BATCH_SIZE", 1000),
		SourceTZ:      getEnv("SOURCE_TIMEZONE", "UTC"),
		ProgressEvery: getIntEnv("PROGRESS_EVERY", 10000),
		GinMode:       getEnv("GIN_MODE", "release"),
		CORSOrigin:    getEnv("CORS_ORIGIN", "*"),
		RateLimit:     getIntEnv("RATE_LIMIT", 10),
		RateWindow:    getDurationEnv("RATE_WINDOW", time.Minute),
		Logging: LoggingConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			FilePath: getEnv("LOG_FILE", "data/logs/app.log"),
		},
	}
}

// PORT may be a bare number ("3001") or a listen address (":3001")
func normalizePort(port string) string {
	if !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}
