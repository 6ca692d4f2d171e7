package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            int
	LogLevel        string
	DatabaseURL     string
	NatsURL         string
	NatsToken       string
	NatsName        string
	CacheBackend    string
	CacheSize       int
	CacheTTL        time.Duration
	RedisAddr       string
	OTLPEndpoint    string
	Seed            uint64
	ScenarioFile    string
	RateLimit       float64
	MaxObservations int
	CORSOrigins     string
}

func Load() Config {
	return Config{
		Port:            envInt("CREDENCE_PORT", 8760),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		DatabaseURL:     envStr("DATABASE_URL", ""),
		NatsURL:         envStr("NATS_URL", ""),
		NatsToken:       envStr("NATS_TOKEN", ""),
		NatsName:        envStr("NATS_CLIENT_NAME", "credence"),
		CacheBackend:    envStr("CACHE_BACKEND", "memory"),
		CacheSize:       envInt("CACHE_SIZE", 256),
		CacheTTL:        time.Duration(envInt("CACHE_TTL_SECONDS", 3600)) * time.Second,
		RedisAddr:       envStr("REDIS_ADDR", "localhost:6379"),
		OTLPEndpoint:    envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Seed:            envUint("CREDENCE_SEED", 42),
		ScenarioFile:    envStr("CREDENCE_SCENARIO_FILE", ""),
		RateLimit:       envFloat("CREDENCE_RATE_LIMIT", 20),
		MaxObservations: envInt("CREDENCE_MAX_OBSERVATIONS", 10000),
		CORSOrigins:     envStr("CREDENCE_CORS_ORIGINS", "*"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envUint(key string, fallback uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
