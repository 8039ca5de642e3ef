package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/mlhealth/riskview/internal/domain"
	"github.com/mlhealth/riskview/pkg/riskengine"
)

// Input file formats accepted by LoadMetrics
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

var (
	// whole-string numeric forms a lenient form accepts
	decimalNumber = regexp.MustCompile(`^[+-]?(Infinity|(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?)$`)
	radixNumber   = regexp.MustCompile(`^0([xX][0-9a-fA-F]+|[oO][0-7]+|[bB][01]+)$`)
	integerPrefix = regexp.MustCompile(`^[+-]?\d+`)
)

// InputParserService implements the domain.InputParser interface
type InputParserService struct{}

// NewInputParserService creates a new input parser service
func NewInputParserService() *InputParserService {
	return &InputParserService{}
}

// BuildBodyPayload converts the raw form values into the body request in form
// order. Numeric-looking values become numbers (float64 when they contain a
// '.', int otherwise); anything else is sent as typed. A value that looks
// numeric but yields no number (e.g. whitespace only) is sent as null.
func (ips *InputParserService) BuildBodyPayload(metrics domain.PatientMetrics) domain.BodyPayload {
	payload := make(domain.BodyPayload, 0, len(domain.MetricFields))
	for _, field := range domain.MetricFields {
		payload = append(payload, domain.PayloadField{
			Key:   field,
			Value: convertFormValue(metrics.Get(field)),
		})
	}
	return payload
}

func convertFormValue(raw string) interface{} {
	if raw == "" || !looksNumeric(raw) {
		return raw
	}

	if strings.Contains(raw, ".") {
		v, ok := riskengine.ParseMetric(raw)
		if !ok || math.IsInf(v, 0) {
			return nil
		}
		return v
	}

	digits := integerPrefix.FindString(strings.TrimLeftFunc(raw, unicode.IsSpace))
	if digits == "" {
		return nil
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		// too wide for int64, keep the magnitude
		f, ferr := strconv.ParseFloat(digits, 64)
		if ferr != nil || math.IsInf(f, 0) {
			return nil
		}
		return f
	}
	return int(n)
}

// looksNumeric reports whether the whole trimmed string reads as a number.
// Whitespace-only strings count as numeric (zero).
func looksNumeric(raw string) bool {
	s := strings.TrimSpace(raw)
	if s == "" {
		return true
	}
	return decimalNumber.MatchString(s) || radixNumber.MatchString(s)
}

// NormalizeMoodText applies NFKC normalization, drops control characters
// other than line breaks and tabs, and trims the result. Empty text is an
// invalid-input error.
func (ips *InputParserService) NormalizeMoodText(text string) (string, error) {
	normalized := norm.NFKC.String(text)

	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) || r == unicode.ReplacementChar {
			return -1
		}
		return r
	}, normalized)

	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "", domain.NewPredictionError(domain.ErrInvalidInput, domain.MsgEmptyMoodInput, "", 0,
			domain.NewValidationError("text", "mood text cannot be empty", text))
	}
	return cleaned, nil
}

// LoadMetrics reads patient metrics from a YAML or JSON document. Scalars
// keep the text they were written with, so "1.0" stays a decimal.
func (ips *InputParserService) LoadMetrics(r io.Reader, format string) (domain.PatientMetrics, error) {
	var metrics domain.PatientMetrics

	data, err := io.ReadAll(r)
	if err != nil {
		return metrics, fmt.Errorf("reading metrics: %w", err)
	}

	var values map[string]string
	switch strings.ToLower(format) {
	case FormatYAML, "yml", "":
		values, err = decodeYAMLScalars(data)
	case FormatJSON:
		values, err = decodeJSONScalars(data)
	default:
		err = domain.NewValidationError("format", "unsupported metrics format", format)
	}
	if err != nil {
		return metrics, fmt.Errorf("loading metrics: %w", err)
	}

	for key, text := range values {
		if key == "patient_id" {
			metrics.PatientID = text
			continue
		}
		if err := metrics.Set(key, text); err != nil {
			return metrics, fmt.Errorf("loading metrics: %w", err)
		}
	}
	return metrics, nil
}

func decodeYAMLScalars(data []byte) (map[string]string, error) {
	nodes := make(map[string]yaml.Node)
	if err := yaml.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}

	out := make(map[string]string, len(nodes))
	for key, node := range nodes {
		if node.Kind != yaml.ScalarNode {
			return nil, domain.NewValidationError(key, "expected a scalar value", node.Tag)
		}
		if node.Tag == "!!null" {
			out[key] = ""
			continue
		}
		out[key] = node.Value
	}
	return out, nil
}

func decodeJSONScalars(data []byte) (map[string]string, error) {
	raw := make(map[string]interface{})
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parsing json: %w", err)
	}

	out := make(map[string]string, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case nil:
			out[key] = ""
		case string:
			out[key] = v
		case json.Number:
			out[key] = v.String()
		case bool:
			out[key] = "0"
			if v {
				out[key] = "1"
			}
		default:
			return nil, domain.NewValidationError(key, fmt.Sprintf("expected a scalar value, got %T", value), value)
		}
	}
	return out, nil
}
