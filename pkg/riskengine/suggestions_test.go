package riskengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlhealth/riskview/internal/domain"
)

func TestSelectSuggestionsHighRisk(t *testing.T) {
	metrics := domain.PatientMetrics{
		Age:              "60",
		SerumCholesterol: "250",
		RestingBP:        "140",
		MaxHeartRate:     "100",
	}

	sections := SelectSuggestions(metrics, domain.PredictionResult{Prediction: 1, Probability: 0.8})
	require.Len(t, sections, 4)

	assert.Equal(t, SectionHeadline, sections[0].Kind)
	assert.Contains(t, sections[0].Text, "80.0%")
	assert.Equal(t,
		"Your assessment indicates a higher risk (80.0%) for heart disease. Please consult with a healthcare provider promptly.",
		sections[0].Text)

	assert.Equal(t, SectionPriority, sections[1].Kind)
	assert.Equal(t, "Priority Actions:", sections[1].Heading)
	assert.Len(t, sections[1].Items, 4)

	assert.Equal(t, SectionGeneral, sections[2].Kind)
	assert.Len(t, sections[2].Items, 5)

	assert.Equal(t, SectionSpecific, sections[3].Kind)
	assert.Equal(t, "Specific Recommendations Based on Your Profile:", sections[3].Heading)
	require.Len(t, sections[3].Items, 4)
	assert.Contains(t, sections[3].Items[0], "age is a significant risk factor")
	assert.Contains(t, sections[3].Items[1], "cholesterol level is elevated")
	assert.Contains(t, sections[3].Items[2], "blood pressure reading")
	assert.Contains(t, sections[3].Items[3], "maximum heart rate")
}

func TestSelectSuggestionsLowRiskHealthyProfile(t *testing.T) {
	metrics := domain.PatientMetrics{
		Age:              "30",
		SerumCholesterol: "150",
		RestingBP:        "110",
		MaxHeartRate:     "170",
	}

	sections := SelectSuggestions(metrics, domain.PredictionResult{Prediction: 0, Probability: 0.1})
	require.Len(t, sections, 3)

	assert.Equal(t,
		"Your assessment indicates a lower risk (10.0%) for heart disease. Continue with preventive measures.",
		sections[0].Text)
	assert.Equal(t, SectionPreventive, sections[1].Kind)
	assert.Len(t, sections[1].Items, 3)
	assert.Equal(t, SectionGeneral, sections[2].Kind)
	assert.Len(t, sections[2].Items, 5)

	for _, s := range sections {
		assert.NotEqual(t, SectionSpecific, s.Kind)
	}
}

func TestSelectSuggestionsExactlyOneActionBlock(t *testing.T) {
	for _, prediction := range []int{0, 1} {
		sections := SelectSuggestions(domain.PatientMetrics{}, domain.PredictionResult{Prediction: prediction, Probability: 0.5})

		actionBlocks := 0
		for _, s := range sections {
			if s.Kind == SectionPriority || s.Kind == SectionPreventive {
				actionBlocks++
			}
		}
		assert.Equal(t, 1, actionBlocks, "prediction %d", prediction)
	}
}

func TestProfileRecommendations(t *testing.T) {
	tests := []struct {
		name    string
		metrics domain.PatientMetrics
		want    int
	}{
		{"All blank", domain.PatientMetrics{}, 0},
		{"Boundaries do not fire", domain.PatientMetrics{Age: "50", SerumCholesterol: "200", RestingBP: "130", MaxHeartRate: "150"}, 0},
		{"Non-numeric never fires", domain.PatientMetrics{Age: "old", MaxHeartRate: "slow"}, 0},
		{"Only low heart rate", domain.PatientMetrics{MaxHeartRate: "149"}, 1},
		{"Age and blood pressure", domain.PatientMetrics{Age: "51", RestingBP: "131"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, ProfileRecommendations(tt.metrics), tt.want)
		})
	}
}

func TestSuggestionListsAreNotShared(t *testing.T) {
	first := SelectSuggestions(domain.PatientMetrics{}, domain.PredictionResult{Prediction: 1, Probability: 0.9})
	first[1].Items[0] = "changed"

	second := SelectSuggestions(domain.PatientMetrics{}, domain.PredictionResult{Prediction: 1, Probability: 0.9})
	assert.Equal(t, "Schedule an appointment with a cardiologist.", second[1].Items[0])
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{80, "80.0"},
		{0, "0.0"},
		{100, "100.0"},
		{37.04, "37.0"},
		{12.25, "12.3"},
		{0.15, "0.1"},
		{99.96, "100.0"},
		{-0.01, "0.0"},
		{-2.5, "-2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPercent(tt.in))
		})
	}
}
