package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config holds process-wide settings read from the environment.
type Config struct {
	LogFile  string
	LogLevel slog.Level

	ResultsDB string
	Workers   int
}

func Load() Config {
	return Config{
		LogFile:  getEnv("PRELUDIUM_LOG_FILE", "/tmp/preludium.log"),
		LogLevel: parseLogLevel(getEnv("PRELUDIUM_LOG_LEVEL", "INFO")),

		ResultsDB: getEnv("PRELUDIUM_RESULTS_DB", "preludium.db"),
		Workers:   getEnvInt("PRELUDIUM_WORKERS", 4),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || val <= 0 {
		return defaultVal
	}
	return val
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
