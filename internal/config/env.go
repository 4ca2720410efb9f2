package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// envOrDefault returns the environment value for key, or fallback when the
// variable is unset. An explicitly empty variable is returned as-is so the
// required-value checks in Load can catch it.
func envOrDefault(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

// parseBrokers splits a comma-separated broker list, dropping empty entries.
func parseBrokers(s string) []string {
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, part := range parts {
		if b := strings.TrimSpace(part); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// parsePositiveDuration reads a duration environment variable that must be
// strictly positive.
func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	raw := envOrDefault(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration, got %q", key, raw)
	}
	return d, nil
}

func parseShutdownTimeout() (time.Duration, error) {
	return parsePositiveDuration("SHUTDOWN_TIMEOUT", "10s")
}

func parseBatchFlushInterval() (time.Duration, error) {
	return parsePositiveDuration("BATCH_FLUSH_INTERVAL", "500ms")
}

// parseBatchSize reads BATCH_SIZE, bounded to keep a single batch within
// what the loaders handle comfortably.
func parseBatchSize() (int, error) {
	raw := envOrDefault("BATCH_SIZE", "50")
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > 1000 {
		return 0, fmt.Errorf("invalid BATCH_SIZE: must be between 1 and 1000, got %q", raw)
	}
	return n, nil
}
