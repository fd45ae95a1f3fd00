package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Analysis  AnalysisConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// StorageConfig selects the durable store backing the coordinator.
type StorageConfig struct {
	Backend   string `envconfig:"STORAGE_BACKEND" default:"file"` // "file", "redis" or "memory"
	Dir       string `envconfig:"STORAGE_DIR" default:"/tmp/txgate-storage"`
	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`
}

// AnalysisConfig holds analysis backend configuration.
type AnalysisConfig struct {
	Endpoint       string `envconfig:"ANALYSIS_ENDPOINT" default:"http://localhost:9090"`
	TimeoutSeconds int    `envconfig:"ANALYSIS_TIMEOUT_SECONDS" default:"60"`
	Language       string `envconfig:"ANALYSIS_LANGUAGE" default:"en"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Storage: StorageConfig{
			Backend:   "file",
			Dir:       "/tmp/txgate-storage",
			RedisAddr: "localhost:6379",
		},
		Analysis: AnalysisConfig{
			Endpoint:       "http://localhost:9090",
			TimeoutSeconds: 60,
			Language:       "en",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
