// Package config builds runtime configuration from environment variables so
// main stays lean.
package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures the full engine configuration.
type Server struct {
	Addr        string
	DatabaseURL string
	LaunchYear  int
	AuditBuffer int
	Redis       RedisConfig
	Generator   GeneratorConfig
}

// RedisConfig configures the optional statistics cache. An empty URL
// disables Redis entirely.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// GeneratorConfig bounds the batch generation run.
type GeneratorConfig struct {
	PageSize int
	Workers  int
}

// DefaultLaunchYear is the first program year the engine accepts.
const DefaultLaunchYear = 2024

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("BENEFITS_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	return Server{
		Addr:        addr,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LaunchYear:  envInt("BENEFITS_LAUNCH_YEAR", DefaultLaunchYear),
		AuditBuffer: envInt("BENEFITS_AUDIT_BUFFER", 1024),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			CacheTTL:     envDuration("BENEFITS_STATS_CACHE_TTL", 30*time.Second),
		},
		Generator: GeneratorConfig{
			PageSize: envInt("BENEFITS_GENERATOR_PAGE_SIZE", 500),
			Workers:  envInt("BENEFITS_GENERATOR_WORKERS", 8),
		},
	}
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
