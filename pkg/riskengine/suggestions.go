package riskengine

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/mlhealth/riskview/internal/domain"
)

// SectionKind identifies a block of the suggestion list.
type SectionKind string

const (
	SectionHeadline   SectionKind = "headline"
	SectionPriority   SectionKind = "priority_actions"
	SectionPreventive SectionKind = "preventive_actions"
	SectionGeneral    SectionKind = "general"
	SectionSpecific   SectionKind = "specific"
)

// Section is one block of advisory text. Headline sections carry Text and no
// items; list sections carry a Heading and Items.
type Section struct {
	Kind    SectionKind `json:"kind"`
	Heading string      `json:"heading,omitempty"`
	Text    string      `json:"text,omitempty"`
	Items   []string    `json:"items,omitempty"`
}

const (
	// RecommendationsTitle heads the whole suggestion block in reports.
	RecommendationsTitle = "Personalized Health Recommendations"

	headingPriority   = "Priority Actions:"
	headingPreventive = "Preventive Actions:"
	headingGeneral    = "General Heart Health Recommendations:"
	headingSpecific   = "Specific Recommendations Based on Your Profile:"
)

var priorityActions = []string{
	"Schedule an appointment with a cardiologist.",
	"Discuss medication options with your provider.",
	"Consider cardiac rehabilitation if recommended.",
	"Make immediate lifestyle changes to reduce risk factors.",
}

var preventiveActions = []string{
	"Maintain your current heart-healthy practices.",
	"Continue with regular health check-ups.",
	"Stay physically active and maintain a healthy weight.",
}

var generalRecommendations = []string{
	"Maintain a heart-healthy diet rich in fruits, vegetables, whole grains, and lean proteins.",
	"Aim for at least 150 minutes of moderate exercise per week.",
	"Monitor and manage your blood pressure and cholesterol levels.",
	"Avoid smoking and limit alcohol consumption.",
	"Manage stress through relaxation techniques, adequate sleep, and social connections.",
}

// profileRule fires when the raw value of Field parses and satisfies Match.
type profileRule struct {
	Field string
	Match func(float64) bool
	Text  string
}

// Evaluated in this order; output order follows it.
var profileRules = []profileRule{
	{
		Field: domain.FieldAge,
		Match: func(v float64) bool { return v > 50 },
		Text:  "Consider regular heart check-ups as age is a significant risk factor.",
	},
	{
		Field: domain.FieldSerumCholesterol,
		Match: func(v float64) bool { return v > 200 },
		Text:  "Your cholesterol level is elevated. Consider dietary changes and consult your doctor about management options.",
	},
	{
		Field: domain.FieldRestingBP,
		Match: func(v float64) bool { return v > 130 },
		Text:  "Your blood pressure reading is above optimal levels. Regular monitoring and lifestyle modifications are recommended.",
	},
	{
		Field: domain.FieldMaxHeartRate,
		Match: func(v float64) bool { return v < 150 },
		Text:  "Your maximum heart rate during exercise is lower than average. Gradual, supervised exercise may help improve cardiac fitness.",
	},
}

// SelectSuggestions assembles the ordered advisory sections for a body
// assessment: headline, one action block, the general block and, when any
// profile rule fires, the specific block.
func SelectSuggestions(metrics domain.PatientMetrics, result domain.PredictionResult) []Section {
	pct := FormatPercent(result.Probability * 100)

	sections := make([]Section, 0, 4)
	if result.RiskLevel() == domain.RiskHigh {
		sections = append(sections,
			Section{
				Kind: SectionHeadline,
				Text: fmt.Sprintf("Your assessment indicates a higher risk (%s%%) for heart disease. Please consult with a healthcare provider promptly.", pct),
			},
			Section{Kind: SectionPriority, Heading: headingPriority, Items: cloneItems(priorityActions)},
		)
	} else {
		sections = append(sections,
			Section{
				Kind: SectionHeadline,
				Text: fmt.Sprintf("Your assessment indicates a lower risk (%s%%) for heart disease. Continue with preventive measures.", pct),
			},
			Section{Kind: SectionPreventive, Heading: headingPreventive, Items: cloneItems(preventiveActions)},
		)
	}

	sections = append(sections, Section{Kind: SectionGeneral, Heading: headingGeneral, Items: cloneItems(generalRecommendations)})

	if specific := ProfileRecommendations(metrics); len(specific) > 0 {
		sections = append(sections, Section{Kind: SectionSpecific, Heading: headingSpecific, Items: specific})
	}
	return sections
}

// ProfileRecommendations returns the texts of the profile rules that fire.
// A blank or non-numeric field never fires.
func ProfileRecommendations(metrics domain.PatientMetrics) []string {
	var out []string
	for _, rule := range profileRules {
		v, ok := ParseMetric(metrics.Get(rule.Field))
		if ok && rule.Match(v) {
			out = append(out, rule.Text)
		}
	}
	return out
}

// FormatPercent formats v with one decimal place, rounding half away from
// zero on the exact binary value (12.25 -> "12.3", 0.15 -> "0.1").
func FormatPercent(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}

	exact := new(big.Float).SetFloat64(v).Text('f', 64)

	neg := strings.HasPrefix(exact, "-")
	exact = strings.TrimPrefix(exact, "-")
	dot := strings.IndexByte(exact, '.')
	intPart, frac := exact[:dot], exact[dot+1:]

	// keep one digit, decide on the rest
	kept := intPart + frac[:1]
	if frac[1] >= '5' {
		kept = incrementDecimal(kept)
	}

	out := kept[:len(kept)-1] + "." + kept[len(kept)-1:]
	if neg && strings.Trim(kept, "0") != "" {
		out = "-" + out
	}
	return out
}

// incrementDecimal adds one to a string of decimal digits.
func incrementDecimal(digits string) string {
	b := []byte(digits)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < '9' {
			b[i]++
			return string(b)
		}
		b[i] = '0'
	}
	return "1" + string(b)
}

func cloneItems(items []string) []string {
	out := make([]string, len(items))
	copy(out, items)
	return out
}
