package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mlhealth/riskview/internal/domain"
)

// EnvPrefix is prepended to every environment override, e.g.
// RISKVIEW_PREDICTION_BASE_URL.
const EnvPrefix = "RISKVIEW"

var _ domain.ConfigManager = (*Manager)(nil)

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v       *viper.Viper
	file    string
	envFile string
	config  *domain.Config
}

// Option customizes a Manager before the first load.
type Option func(*Manager)

// WithConfigFile reads the given file instead of searching the default paths.
func WithConfigFile(path string) Option {
	return func(m *Manager) {
		m.file = path
	}
}

// WithEnvFile loads environment variables from the given dotenv file.
// Defaults to ".env"; an empty path disables dotenv loading.
func WithEnvFile(path string) Option {
	return func(m *Manager) {
		m.envFile = path
	}
}

// NewManager creates a new configuration manager
func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{envFile: ".env"}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	// .env never overrides variables that are already set
	if m.envFile != "" {
		if err := godotenv.Load(m.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error reading env file: %w", err)
		}
	}

	v := viper.New()
	if m.file != "" {
		v.SetConfigFile(m.file)
	} else {
		v.SetConfigName("riskview")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.riskview")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; defaults and env vars still apply
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.v = v
	m.config = config
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Prediction service defaults
	v.SetDefault("prediction.base_url", "http://localhost:5000")
	v.SetDefault("prediction.body_path", "/predict/body")
	v.SetDefault("prediction.mind_path", "/predict/mind")
	v.SetDefault("prediction.timeout", "30s")
	v.SetDefault("prediction.rate_limit", 5)
	v.SetDefault("prediction.user_agent", "riskview/1.0")
	v.SetDefault("prediction.circuit_breaker.max_requests", 1)
	v.SetDefault("prediction.circuit_breaker.interval", "30s")
	v.SetDefault("prediction.circuit_breaker.timeout", "60s")
	v.SetDefault("prediction.circuit_breaker.min_requests", 3)
	v.SetDefault("prediction.circuit_breaker.failure_ratio", 0.6)

	// Cache defaults
	v.SetDefault("cache.backend", domain.CacheBackendNone)
	v.SetDefault("cache.max_items", 256)
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.redis_url", "redis://localhost:6379/0")
	v.SetDefault("cache.key_prefix", "riskview:")
	v.SetDefault("cache.pool_size", 10)
	v.SetDefault("cache.pool_timeout", "4s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	// Report defaults
	v.SetDefault("report.output_dir", DefaultOutputDir())
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetPredictionConfig returns prediction service configuration
func (m *Manager) GetPredictionConfig() *domain.PredictionConfig {
	return &m.config.Prediction
}

// GetCacheConfig returns response cache configuration
func (m *Manager) GetCacheConfig() *domain.CacheConfig {
	return &m.config.Cache
}

// ConfigFileUsed returns the path of the file that was read, if any.
func (m *Manager) ConfigFileUsed() string {
	return m.v.ConfigFileUsed()
}

// AllSettings returns the merged settings keyed the way they appear in the
// config file.
func (m *Manager) AllSettings() map[string]interface{} {
	return m.v.AllSettings()
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	// Validate prediction service configuration
	if config.Prediction.BaseURL == "" {
		return fmt.Errorf("prediction base URL is required")
	}
	u, err := url.Parse(config.Prediction.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid prediction base URL: %q", config.Prediction.BaseURL)
	}
	if config.Prediction.Timeout <= 0 {
		return fmt.Errorf("prediction timeout must be positive: %s", config.Prediction.Timeout)
	}
	if config.Prediction.RateLimit < 0 {
		return fmt.Errorf("invalid prediction rate limit: %d", config.Prediction.RateLimit)
	}
	if r := config.Prediction.CircuitBreaker.FailureRatio; r < 0 || r > 1 {
		return fmt.Errorf("circuit breaker failure ratio must be within [0,1]: %v", r)
	}

	// Validate cache configuration
	switch strings.ToLower(config.Cache.Backend) {
	case "", domain.CacheBackendNone, domain.CacheBackendMemory:
	case domain.CacheBackendRedis:
		if config.Cache.RedisURL == "" {
			return fmt.Errorf("Redis URL is required for the redis cache backend")
		}
	default:
		return fmt.Errorf("invalid cache backend: %s", config.Cache.Backend)
	}
	if config.Cache.MaxItems < 0 {
		return fmt.Errorf("invalid cache max items: %d", config.Cache.MaxItems)
	}

	// Validate logging configuration
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "warning": true,
		"error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}
	switch strings.ToLower(config.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s", config.Logging.Format)
	}
	switch strings.ToLower(config.Logging.Output) {
	case "", "stdout", "stderr":
	default:
		return fmt.Errorf("invalid log output: %s", config.Logging.Output)
	}

	return nil
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}
