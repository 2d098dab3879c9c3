package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	SOSURL      string
	StationURNs []string // explicit list; empty means discover via GetCapabilities

	RequestTimeout  time.Duration
	Workers         int
	ContinueOnError bool
	HarvestInterval time.Duration // 0 = harvest once and exit
	OutputPath      string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Kafka publishing configuration.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	requestTimeout, err := parseDurationEnv("REQUEST_TIMEOUT", "200s")
	if err != nil {
		return nil, err
	}

	harvestInterval, err := parseDurationEnv("HARVEST_INTERVAL", "0s")
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	workers, err := parseIntEnv("WORKERS", 4)
	if err != nil {
		return nil, err
	}

	kafkaBrokers := splitList(envOrDefault("KAFKA_BROKERS", "localhost:9092"))
	kafkaEnabled := os.Getenv("KAFKA_ENABLED") == "true"

	cfg := &Config{
		SOSURL:      os.Getenv("SOS_URL"),
		StationURNs: splitList(os.Getenv("STATION_URNS")),

		RequestTimeout:  requestTimeout,
		Workers:         workers,
		ContinueOnError: os.Getenv("CONTINUE_ON_ERROR") == "true",
		HarvestInterval: harvestInterval,
		OutputPath:      envOrDefault("OUTPUT_PATH", "stations.csv"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaBrokers: kafkaBrokers,
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "station-records"),
		KafkaEnabled: kafkaEnabled,
	}

	if cfg.SOSURL == "" {
		return nil, errors.New("SOS_URL is required")
	}
	if cfg.Workers < 1 {
		return nil, errors.New("WORKERS must be at least 1")
	}
	if cfg.RequestTimeout <= 0 {
		return nil, errors.New("REQUEST_TIMEOUT must be positive")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDurationEnv(key, fallback string) (time.Duration, error) {
	s := envOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parseIntEnv(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}

// splitList parses a comma-separated env value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
