package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/mlhealth/riskview/internal/domain"
)

// Defaults applied when the configuration leaves a field empty.
const (
	DefaultBaseURL   = "http://localhost:5000"
	DefaultBodyPath  = "/predict/body"
	DefaultMindPath  = "/predict/mind"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5
	DefaultUserAgent = "riskview/1.0"

	// error bodies larger than this are not inspected
	maxErrorBody = 64 << 10
)

// PredictionClient talks to the remote body and mind prediction endpoints.
type PredictionClient struct {
	baseURL    string
	bodyPath   string
	mindPath   string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
	rateLimit  *rate.Limiter

	bodyBreaker *gobreaker.CircuitBreaker
	mindBreaker *gobreaker.CircuitBreaker

	cache     ResponseCache
	keyPrefix string
	logger    *logrus.Logger
}

// ClientOption customizes a PredictionClient.
type ClientOption func(*PredictionClient)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *PredictionClient) { c.httpClient = hc }
}

// WithCache enables response caching. Keys are prefixed with prefix.
func WithCache(cache ResponseCache, prefix string) ClientOption {
	return func(c *PredictionClient) {
		c.cache = cache
		c.keyPrefix = prefix
	}
}

// NewPredictionClient creates a new prediction service client
func NewPredictionClient(config domain.PredictionConfig, logger *logrus.Logger, opts ...ClientOption) *PredictionClient {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.BodyPath == "" {
		config.BodyPath = DefaultBodyPath
	}
	if config.MindPath == "" {
		config.MindPath = DefaultMindPath
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.RateLimit <= 0 {
		config.RateLimit = DefaultRateLimit
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = logrus.New()
	}

	c := &PredictionClient{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		bodyPath:   config.BodyPath,
		mindPath:   config.MindPath,
		userAgent:  config.UserAgent,
		timeout:    config.Timeout,
		httpClient: &http.Client{},
		rateLimit:  rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		logger:     logger,
	}
	c.bodyBreaker = newBreaker("predict-body", config.CircuitBreaker, logger)
	c.mindBreaker = newBreaker("predict-mind", config.CircuitBreaker, logger)

	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newBreaker(name string, cfg domain.CircuitBreakerConfig, logger *logrus.Logger) *gobreaker.CircuitBreaker {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	if cfg.Interval == 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 3
	}
	if cfg.FailureRatio == 0 {
		cfg.FailureRatio = 0.6
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
		IsSuccessful: countsAsHealthy,
	})
}

// countsAsHealthy keeps client-side problems (rejected input, caller
// cancellation) from tripping the breaker.
func countsAsHealthy(err error) bool {
	if err == nil {
		return true
	}
	var pe *domain.PredictionError
	if errors.As(err, &pe) {
		switch pe.Code {
		case domain.ErrCancelled:
			return true
		case domain.ErrHTTPStatus:
			return pe.Status < 500
		}
	}
	return false
}

// PredictBody submits the cardiac risk-factor payload.
func (c *PredictionClient) PredictBody(ctx context.Context, payload domain.BodyPayload) (*domain.PredictionResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, domain.NewPredictionError(domain.ErrInvalidInput, domain.MsgBodyFallback, c.bodyPath, 0, err)
	}

	var result domain.PredictionResult
	if err := c.call(ctx, c.bodyBreaker, c.bodyPath, domain.MsgBodyFallback, body, &result, validatePrediction); err != nil {
		return nil, fmt.Errorf("predicting body risk: %w", err)
	}
	return &result, nil
}

// PredictMind submits free text describing the user's mood.
func (c *PredictionClient) PredictMind(ctx context.Context, text string) (*domain.MoodResult, error) {
	body, err := json.Marshal(domain.MindRequest{Text: text})
	if err != nil {
		return nil, domain.NewPredictionError(domain.ErrInvalidInput, domain.MsgMindFallback, c.mindPath, 0, err)
	}

	var result domain.MoodResult
	if err := c.call(ctx, c.mindBreaker, c.mindPath, domain.MsgMindFallback, body, &result, nil); err != nil {
		return nil, fmt.Errorf("predicting mood: %w", err)
	}
	return &result, nil
}

// BreakerState reports the circuit breaker state of an endpoint path.
func (c *PredictionClient) BreakerState(path string) gobreaker.State {
	if path == c.mindPath {
		return c.mindBreaker.State()
	}
	return c.bodyBreaker.State()
}

// CacheStats returns response cache counters, or false when caching is off.
func (c *PredictionClient) CacheStats() (CacheStats, bool) {
	if c.cache == nil {
		return CacheStats{}, false
	}
	return c.cache.Stats(), true
}

// call performs one rate-limited, time-bounded, breaker-guarded request and
// decodes a 2xx response into out.
func (c *PredictionClient) call(
	ctx context.Context,
	breaker *gobreaker.CircuitBreaker,
	path, fallback string,
	body []byte,
	out interface{},
	validate func(interface{}) error,
) error {
	log := c.logger.WithField("endpoint", path)

	var key string
	if c.cache != nil {
		key = CacheKey(c.keyPrefix, path, body)
		if data, ok, err := c.cache.Get(ctx, key); err != nil {
			log.WithError(err).Warn("Response cache read failed")
		} else if ok {
			if err := decodeResponse(data, out, validate); err == nil {
				log.Debug("Serving cached prediction")
				return nil
			}
		}
	}

	if err := c.rateLimit.Wait(ctx); err != nil {
		return c.contextError(ctx, path, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	raw, err := breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, path, fallback, body)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			log.WithField("state", breaker.State().String()).Warn("Prediction service unavailable")
			return domain.NewPredictionError(domain.ErrServiceUnavailable, domain.MsgUnavailable, path, 0, err)
		}
		log.WithError(err).WithField("duration", time.Since(start)).Error("Prediction request failed")
		return err
	}

	data := raw.([]byte)
	if err := decodeResponse(data, out, validate); err != nil {
		log.WithError(err).Error("Malformed prediction response")
		return domain.NewPredictionError(domain.ErrDecode, fallback, path, http.StatusOK, err)
	}

	log.WithField("duration", time.Since(start)).Info("Prediction received")

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, data); err != nil {
			log.WithError(err).Warn("Failed to cache prediction")
		}
	}
	return nil
}

func (c *PredictionClient) post(ctx context.Context, path, fallback string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewPredictionError(domain.ErrTransport, transportMessage(err), path, 0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, c.contextError(ctx, path, err)
		}
		return nil, domain.NewPredictionError(domain.ErrTransport, transportMessage(err), path, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, domain.NewPredictionError(domain.ErrHTTPStatus, errorMessage(data, fallback), path, resp.StatusCode,
			fmt.Errorf("prediction service returned status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, c.contextError(ctx, path, err)
		}
		return nil, domain.NewPredictionError(domain.ErrTransport, transportMessage(err), path, resp.StatusCode, err)
	}
	return data, nil
}

// contextError classifies a failure caused by the request context.
func (c *PredictionClient) contextError(ctx context.Context, path string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return domain.NewPredictionError(domain.ErrTimeout, domain.MsgTimeout, path, 0, err)
	}
	return domain.NewPredictionError(domain.ErrCancelled, domain.MsgCancelled, path, 0, err)
}

func transportMessage(err error) string {
	if err == nil || err.Error() == "" {
		return domain.MsgUnexpected
	}
	return err.Error()
}

// errorMessage picks the service's own explanation out of an error body:
// "message" first, then "error", then the endpoint fallback.
func errorMessage(body []byte, fallback string) string {
	var payload struct {
		Message interface{} `json:"message"`
		Error   interface{} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fallback
	}
	if s, ok := payload.Message.(string); ok && s != "" {
		return s
	}
	if s, ok := payload.Error.(string); ok && s != "" {
		return s
	}
	return fallback
}

func decodeResponse(data []byte, out interface{}, validate func(interface{}) error) error {
	if err := json.Unmarshal(data, out); err != nil {
		return err
	}
	if validate != nil {
		return validate(out)
	}
	return nil
}

func validatePrediction(v interface{}) error {
	result, ok := v.(*domain.PredictionResult)
	if !ok {
		return fmt.Errorf("unexpected result type %T", v)
	}
	if result.Prediction != 0 && result.Prediction != 1 {
		return fmt.Errorf("prediction must be 0 or 1, got %d", result.Prediction)
	}
	if math.IsNaN(result.Probability) || result.Probability < 0 || result.Probability > 1 {
		return fmt.Errorf("probability must be within [0, 1], got %v", result.Probability)
	}
	return nil
}
