package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mlhealth/riskview/internal/domain"
	"github.com/mlhealth/riskview/pkg/riskengine"
)

// Disclaimer is shown under every assessment result.
const Disclaimer = "This prediction tool is for informational purposes only and does not constitute medical advice. " +
	"Consult a qualified healthcare professional for any health concerns or before making any decisions related to your health or treatment."

// BodyReport is everything presented after a cardiac risk assessment.
type BodyReport struct {
	PatientID   string                      `json:"patient_id,omitempty"`
	Metrics     domain.PatientMetrics       `json:"metrics"`
	Result      domain.PredictionResult     `json:"result"`
	Risk        riskengine.RiskProjection   `json:"risk"`
	Factors     riskengine.FactorProjection `json:"factors"`
	Suggestions []riskengine.Section        `json:"suggestions"`
	GeneratedAt time.Time                   `json:"generated_at"`
}

// MindReport is everything presented after a mood assessment.
type MindReport struct {
	Text        string                    `json:"text"`
	Result      domain.MoodResult         `json:"result"`
	Mood        riskengine.MoodProjection `json:"mood"`
	GeneratedAt time.Time                 `json:"generated_at"`
}

// AssessmentService runs a submission end to end: build the request, call the
// predictor and project the answer into report datasets.
type AssessmentService struct {
	predictor domain.Predictor
	parser    domain.InputParser
	logger    *logrus.Logger
	now       func() time.Time
}

// NewAssessmentService creates a new assessment service
func NewAssessmentService(predictor domain.Predictor, parser domain.InputParser, logger *logrus.Logger) *AssessmentService {
	if parser == nil {
		parser = NewInputParserService()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &AssessmentService{
		predictor: predictor,
		parser:    parser,
		logger:    logger,
		now:       time.Now,
	}
}

// AssessBody submits the metrics and builds the body report.
func (s *AssessmentService) AssessBody(ctx context.Context, metrics domain.PatientMetrics) (*BodyReport, error) {
	payload := s.parser.BuildBodyPayload(metrics)

	s.logger.WithFields(logrus.Fields{
		"patient_id": metrics.PatientID,
		"fields":     len(payload),
	}).Debug("Submitting body assessment")

	result, err := s.predictor.PredictBody(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("body assessment: %w", err)
	}

	report := &BodyReport{
		PatientID:   metrics.PatientID,
		Metrics:     metrics,
		Result:      *result,
		Risk:        riskengine.ProjectRisk(result.Probability),
		Factors:     riskengine.ProjectFactors(metrics),
		Suggestions: riskengine.SelectSuggestions(metrics, *result),
		GeneratedAt: s.now().UTC(),
	}

	s.logger.WithFields(logrus.Fields{
		"patient_id":  metrics.PatientID,
		"risk_level":  result.RiskLevel(),
		"probability": result.Probability,
	}).Info("Body assessment completed")

	return report, nil
}

// AssessMind normalizes the text, submits it and builds the mind report.
func (s *AssessmentService) AssessMind(ctx context.Context, text string) (*MindReport, error) {
	normalized, err := s.parser.NormalizeMoodText(text)
	if err != nil {
		return nil, fmt.Errorf("mind assessment: %w", err)
	}

	s.logger.WithField("length", len(normalized)).Debug("Submitting mind assessment")

	result, err := s.predictor.PredictMind(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("mind assessment: %w", err)
	}

	report := &MindReport{
		Text:        normalized,
		Result:      *result,
		Mood:        riskengine.ProjectMood(*result),
		GeneratedAt: s.now().UTC(),
	}

	s.logger.WithFields(logrus.Fields{
		"top_category": result.TopCategory,
		"categories":   len(result.Probabilities),
		"articles":     len(report.Mood.Articles),
	}).Info("Mind assessment completed")

	return report, nil
}
