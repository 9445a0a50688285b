// Package config loads service configuration from the environment so main
// stays lean.
package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures the full configuration of the verification service.
type Server struct {
	Addr        string
	Environment string
	LogLevel    string

	// PostgresDSN selects the authoritative store. Empty means the in-memory
	// demo store seeded with sample records.
	PostgresDSN string

	// MACSecret enables signature verification when present. Without it every
	// scan carries signature status "unverified".
	MACSecret string

	// OperatorToken guards the cache and history endpoints. Empty leaves them
	// open, which is only acceptable for the demo setup. OperatorTokenHash
	// holds a bcrypt hash instead of the plain token and wins when both are
	// set.
	OperatorToken     string
	OperatorTokenHash string

	CacheWindow     time.Duration
	CacheMaxEntries int
	MinScanDelay    time.Duration
	HistoryLimit    int

	ShutdownTimeout time.Duration
}

// Defaults for the scan pipeline.
const (
	defaultAddr            = ":8080"
	defaultCacheWindow     = 60 * time.Second
	defaultCacheMaxEntries = 512
	defaultMinScanDelay    = 150 * time.Millisecond
	defaultHistoryLimit    = 20
	defaultShutdownTimeout = 10 * time.Second
)

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr:              envString("STAGEPASS_ADDR", defaultAddr),
		Environment:       envString("STAGEPASS_ENV", "development"),
		LogLevel:          envString("STAGEPASS_LOG_LEVEL", "info"),
		PostgresDSN:       os.Getenv("STAGEPASS_PG_DSN"),
		MACSecret:         os.Getenv("STAGEPASS_MAC_SECRET"),
		OperatorToken:     os.Getenv("STAGEPASS_OPERATOR_TOKEN"),
		OperatorTokenHash: os.Getenv("STAGEPASS_OPERATOR_TOKEN_HASH"),
		CacheWindow:       envDuration("STAGEPASS_CACHE_WINDOW", defaultCacheWindow),
		CacheMaxEntries:   envInt("STAGEPASS_CACHE_MAX_ENTRIES", defaultCacheMaxEntries),
		MinScanDelay:      envDuration("STAGEPASS_MIN_SCAN_DELAY", defaultMinScanDelay),
		HistoryLimit:      envInt("STAGEPASS_HISTORY_LIMIT", defaultHistoryLimit),
		ShutdownTimeout:   envDuration("STAGEPASS_SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}
}

func envString(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envDuration(name string, fallback time.Duration) time.Duration {
	if v := os.Getenv(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func envInt(name string, fallback int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
