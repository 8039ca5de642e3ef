// Package setup assembles the riskview application from configuration and
// exposes it through a command-line front end.
package setup

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mlhealth/riskview/internal/domain"
	"github.com/mlhealth/riskview/internal/logging"
	"github.com/mlhealth/riskview/internal/service"
	"github.com/mlhealth/riskview/internal/session"
	"github.com/mlhealth/riskview/pkg/external"
)

// App wires the prediction client, the assessment service and one session
// per form.
type App struct {
	Config      domain.ConfigManager
	Logger      *logrus.Logger
	Client      *external.PredictionClient
	Parser      *service.InputParserService
	Assessments *service.AssessmentService
	Body        *session.Session[*service.BodyReport]
	Mind        *session.Session[*service.MindReport]

	cache external.ResponseCache
}

// AppOptions overrides parts of the assembly, mostly for tests.
type AppOptions struct {
	Logger     *logrus.Logger
	HTTPClient *http.Client
	Cache      external.ResponseCache
}

// NewApp validates the configuration and builds the application.
func NewApp(cfg domain.ConfigManager, opts AppOptions) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	conf := cfg.GetConfig()

	logger := opts.Logger
	if logger == nil {
		logger = logging.New(conf.Logging)
	}

	cache := opts.Cache
	if cache == nil {
		var err error
		cache, err = external.NewResponseCache(*cfg.GetCacheConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to create response cache: %w", err)
		}
	}

	var clientOpts []external.ClientOption
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, external.WithHTTPClient(opts.HTTPClient))
	}
	if cache != nil {
		clientOpts = append(clientOpts, external.WithCache(cache, conf.Cache.KeyPrefix))
	}
	client := external.NewPredictionClient(*cfg.GetPredictionConfig(), logger, clientOpts...)

	parser := service.NewInputParserService()

	logger.WithFields(logrus.Fields{
		"base_url":    conf.Prediction.BaseURL,
		"cache":       cacheBackend(conf.Cache.Backend, cache),
		"environment": conf.Environment,
	}).Debug("Application assembled")

	return &App{
		Config:      cfg,
		Logger:      logger,
		Client:      client,
		Parser:      parser,
		Assessments: service.NewAssessmentService(client, parser, logger),
		Body:        session.New[*service.BodyReport]("body", logger),
		Mind:        session.New[*service.MindReport]("mind", logger),
		cache:       cache,
	}, nil
}

// Close returns both forms to idle and releases the response cache. A form
// with a submission still running reports session.ErrSubmissionInFlight; the
// cache is closed regardless.
func (a *App) Close() error {
	var errs []error
	if err := a.Body.Reset(); err != nil {
		errs = append(errs, fmt.Errorf("body form: %w", err))
	}
	if err := a.Mind.Reset(); err != nil {
		errs = append(errs, fmt.Errorf("mind form: %w", err))
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FormStatus is the session state of one form.
type FormStatus struct {
	State       session.State
	Transitions int
	LastChange  time.Time
}

func formStatus(history []session.Transition) FormStatus {
	fs := FormStatus{State: session.StateIdle, Transitions: len(history)}
	if n := len(history); n > 0 {
		fs.State = history[n-1].To
		fs.LastChange = history[n-1].At
	}
	return fs
}

// Status summarizes the effective setup.
type Status struct {
	ConfigFile      string
	BaseURL         string
	CacheBackend    string
	CacheStats      *external.CacheStats
	BodyBreaker     string
	MindBreaker     string
	BodyForm        FormStatus
	MindForm        FormStatus
	ReportDir       string
	ReportDirExists bool
	Issues          []string
}

// Status checks the current setup.
func (a *App) Status() *Status {
	conf := a.Config.GetConfig()
	status := &Status{
		ConfigFile:   a.Config.ConfigFileUsed(),
		BaseURL:      conf.Prediction.BaseURL,
		CacheBackend: cacheBackend(conf.Cache.Backend, a.cache),
		BodyBreaker:  a.Client.BreakerState(conf.Prediction.BodyPath).String(),
		MindBreaker:  a.Client.BreakerState(conf.Prediction.MindPath).String(),
		BodyForm:     formStatus(a.Body.History()),
		MindForm:     formStatus(a.Mind.History()),
		ReportDir:    conf.Report.OutputDir,
		Issues:       []string{},
	}
	if stats, ok := a.Client.CacheStats(); ok {
		status.CacheStats = &stats
	}

	if a.Config.IsProduction() && status.CacheBackend == domain.CacheBackendNone {
		status.Issues = append(status.Issues, "Response cache is disabled in production; every submission reaches the prediction service")
	}
	if status.ConfigFile == "" {
		status.Issues = append(status.Issues, "No riskview.yaml found; using defaults and environment")
	}
	if info, err := os.Stat(status.ReportDir); err == nil && info.IsDir() {
		status.ReportDirExists = true
	} else {
		status.Issues = append(status.Issues, fmt.Sprintf("Report directory will be created on first save: %s", status.ReportDir))
	}
	return status
}

func cacheBackend(configured string, cache external.ResponseCache) string {
	if cache == nil {
		return domain.CacheBackendNone
	}
	if configured == "" {
		return cache.Stats().Backend
	}
	return strings.ToLower(configured)
}
