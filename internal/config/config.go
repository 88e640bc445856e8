package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults match a local dump1090 setup.
const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultReconnectDelay = 5 * time.Second
	DefaultFlushInterval  = 5 * time.Second
	DefaultBatchSize      = 100
	DefaultCurrentMaxAge  = 60 * time.Second
)

// Config holds the relay configuration. Sink settings left empty
// disable the corresponding sink.
type Config struct {
	// Feed connection
	FeedAddr       string
	SourceID       string
	ConnectTimeout time.Duration
	ReconnectDelay time.Duration

	// Emission
	BatchSize     int
	FlushInterval time.Duration
	CurrentMaxAge time.Duration

	// Sinks
	CSVPath        string
	CurrentCSVPath string
	DBConnStr      string
	NATSURL        string
	IngestURL      string
	RedisAddr      string

	// Enrichment
	AircraftDBPath string
}

// Load reads configuration from environment variables and an optional
// .env file. A missing FEED_ADDR is the only fatal condition.
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	feedAddr := os.Getenv("FEED_ADDR")
	if feedAddr == "" {
		return nil, fmt.Errorf("FEED_ADDR environment variable is required (e.g. 127.0.0.1:30003)")
	}

	sourceID := os.Getenv("SOURCE_ID")
	if sourceID == "" {
		sourceID = "UNKNOWN_SOURCE"
	}

	cfg := &Config{
		FeedAddr:       feedAddr,
		SourceID:       sourceID,
		ConnectTimeout: durationEnv("CONNECT_TIMEOUT_SECONDS", DefaultConnectTimeout),
		ReconnectDelay: durationEnv("RECONNECT_DELAY_SECONDS", DefaultReconnectDelay),
		BatchSize:      intEnv("BATCH_SIZE", DefaultBatchSize),
		FlushInterval:  durationEnv("FLUSH_INTERVAL_SECONDS", DefaultFlushInterval),
		CurrentMaxAge:  durationEnv("CURRENT_MAX_AGE_SECONDS", DefaultCurrentMaxAge),
		CSVPath:        os.Getenv("CSV_PATH"),
		CurrentCSVPath: os.Getenv("CURRENT_CSV_PATH"),
		DBConnStr:      os.Getenv("DB_CONN_STR"),
		NATSURL:        os.Getenv("NATS_URL"),
		IngestURL:      os.Getenv("INGEST_URL"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		AircraftDBPath: os.Getenv("AIRCRAFT_DB_PATH"),
	}

	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultBatchSize
	}

	return cfg, nil
}

// durationEnv reads a whole-seconds env var, falling back on absent or
// unparseable values.
func durationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

func intEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
