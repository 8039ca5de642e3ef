package domain

import (
	"context"
	"io"
)

// Predictor is the external prediction service as seen by the application
type Predictor interface {
	PredictBody(ctx context.Context, payload BodyPayload) (*PredictionResult, error)
	PredictMind(ctx context.Context, text string) (*MoodResult, error)
}

// InputParser turns raw user input into submission payloads
type InputParser interface {
	BuildBodyPayload(metrics PatientMetrics) BodyPayload
	NormalizeMoodText(text string) (string, error)
	LoadMetrics(r io.Reader, format string) (PatientMetrics, error)
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetPredictionConfig() *PredictionConfig
	GetCacheConfig() *CacheConfig
	ConfigFileUsed() string
	AllSettings() map[string]interface{}
	Validate() error
	IsProduction() bool
}
