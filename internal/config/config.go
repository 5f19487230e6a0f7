// Package config provides runtime configuration for the reconciliation
// service, collected from the environment with sensible defaults.
package config

import (
	"os"
	"strconv"
)

// Config holds every knob the binaries need. It is constructed once at
// startup and passed down explicitly; nothing reads the environment after
// Load returns.
type Config struct {
	DatabaseURL string
	LogLevel    string

	LookbackDays   int // historical window behind today
	LookaheadDays  int // projection window ahead of today
	MergeBatchSize int // projection upsert batch size

	QueueCapacity int // pending triggers buffered per location key
	NotifyChannel string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Load collects configuration from environment variables.
func Load() Config {
	return Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LookbackDays:   atoienv("LOOKBACK_DAYS", 30),
		LookaheadDays:  atoienv("LOOKAHEAD_DAYS", 90),
		MergeBatchSize: atoienv("MERGE_BATCH_SIZE", 100),
		QueueCapacity:  atoienv("QUEUE_CAPACITY", 64),
		NotifyChannel:  getenv("NOTIFY_CHANNEL", "stock_events"),
	}
}
