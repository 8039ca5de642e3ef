package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Environment string           `mapstructure:"environment"`
	Prediction  PredictionConfig `mapstructure:"prediction"`
	Cache       CacheConfig      `mapstructure:"cache"`
	Logging     LoggingConfig    `mapstructure:"logging"`
	Report      ReportConfig     `mapstructure:"report"`
}

// PredictionConfig represents the prediction service configuration
type PredictionConfig struct {
	BaseURL        string               `mapstructure:"base_url"`
	BodyPath       string               `mapstructure:"body_path"`
	MindPath       string               `mapstructure:"mind_path"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	RateLimit      int                  `mapstructure:"rate_limit"`
	UserAgent      string               `mapstructure:"user_agent"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MinRequests  uint32        `mapstructure:"min_requests"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
}

// Cache backends
const (
	CacheBackendNone   = "none"
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// CacheConfig represents response cache configuration
type CacheConfig struct {
	Backend     string        `mapstructure:"backend"`
	MaxItems    int           `mapstructure:"max_items"`
	TTL         time.Duration `mapstructure:"ttl"`
	RedisURL    string        `mapstructure:"redis_url"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
	PoolSize    int           `mapstructure:"pool_size"`
	PoolTimeout time.Duration `mapstructure:"pool_timeout"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ReportConfig controls where rendered reports are written
type ReportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}
