package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	LogLevel string

	InputDir        string
	OutputDir       string
	BatchWorkers    int
	DocumentTimeout time.Duration
	OutputXLSX      bool
	PDFValidate     bool
	VocabularyFile  string

	// Empty PostgresDSN selects the in-memory result ledger.
	PostgresDSN string

	NATSURL     string
	NATSSubject string

	StoragePath string

	APIPort           string
	APIRateLimitRPS   float64
	APIRateLimitBurst int
	APIMaxInFlight    int
	APIMaxUploadBytes int64

	// RetryMaxAttempts overrides every retry budget; 0 keeps the ledger and
	// publish defaults.
	RetryMaxAttempts   int
	BreakerEnabled     bool
	BreakerOpenTimeout time.Duration

	WorkerMetricsPort string
}

func Load() Config {
	return Config{
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		InputDir:        mustEnv("INPUT_DIR", "./input"),
		OutputDir:       mustEnv("OUTPUT_DIR", "./output"),
		BatchWorkers:    mustEnvInt("BATCH_WORKERS", 4),
		DocumentTimeout: time.Duration(mustEnvInt("DOCUMENT_TIMEOUT_SECONDS", 60)) * time.Second,
		OutputXLSX:      mustEnvBool("OUTPUT_XLSX", false),
		PDFValidate:     mustEnvBool("PDF_VALIDATE", false),
		VocabularyFile:  mustEnv("VOCABULARY_FILE", ""),

		PostgresDSN: mustEnv("POSTGRES_DSN", ""),

		NATSURL:     mustEnv("NATS_URL", "nats://localhost:4222"),
		NATSSubject: mustEnv("NATS_SUBJECT", "profiles.extract"),

		StoragePath: mustEnv("STORAGE_PATH", "./data/storage"),

		APIPort:           mustEnv("API_PORT", "8080"),
		APIRateLimitRPS:   mustEnvFloat("API_RATE_LIMIT_RPS", 5),
		APIRateLimitBurst: mustEnvInt("API_RATE_LIMIT_BURST", 10),
		APIMaxInFlight:    mustEnvInt("API_MAX_INFLIGHT", 16),
		APIMaxUploadBytes: int64(mustEnvInt("API_MAX_UPLOAD_MB", 32)) << 20,

		RetryMaxAttempts:   mustEnvInt("RESILIENCE_RETRY_MAX_ATTEMPTS", 0),
		BreakerEnabled:     mustEnvBool("RESILIENCE_BREAKER_ENABLED", true),
		BreakerOpenTimeout: time.Duration(mustEnvInt("RESILIENCE_BREAKER_OPEN_SECONDS", 0)) * time.Second,

		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
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

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
