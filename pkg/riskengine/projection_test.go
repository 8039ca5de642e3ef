package riskengine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlhealth/riskview/internal/domain"
)

func TestProjectRisk(t *testing.T) {
	proj := ProjectRisk(0.37)

	require.Len(t, proj.Slices, 2)
	assert.Equal(t, RiskSliceLabel, proj.Slices[0].Label)
	assert.Equal(t, SafeSliceLabel, proj.Slices[1].Label)
	assert.InDelta(t, 37, proj.Slices[0].Value, 1e-9)
	assert.InDelta(t, 63, proj.Slices[1].Value, 1e-9)
	assert.Equal(t, "Risk Probability: 37.0%", proj.Title)
	assert.Equal(t, "Risk %: 37.0%", FormatSlice(proj.Slices[0]))
}

func TestProjectRiskSumsToHundred(t *testing.T) {
	for _, p := range []float64{0, 0.001, 0.3333, 0.5, 0.999, 1} {
		values := ProjectRisk(p).Values()
		assert.InDelta(t, 100, values[0]+values[1], 1e-9)
	}
}

func TestProjectFactors(t *testing.T) {
	proj := ProjectFactors(domain.PatientMetrics{
		Age:              "50",
		RestingBP:        "180",
		SerumCholesterol: "",
		MaxHeartRate:     "210",
	})

	assert.Equal(t, "Key Health Metrics (Normalized)", proj.Title)
	assert.Equal(t, "Your Metric (Normalized)", proj.UserLabel)
	assert.Equal(t, "Optimal Zone Midpoint (Normalized)", proj.OptimalLabel)
	assert.Equal(t, []string{"Age", "Resting BP", "Cholesterol", "Max Heart Rate"}, proj.Labels())

	user := proj.UserValues()
	require.Len(t, user, 4)
	assert.InDelta(t, 50, user[0], 1e-9)
	assert.InDelta(t, 100, user[1], 1e-9)
	assert.InDelta(t, 0, user[2], 1e-9, "blank cholesterol clamps to the minimum")
	assert.InDelta(t, 0, user[3], 1e-9, "inverted axis")

	for i, ref := range References() {
		assert.Equal(t, NormalizeOptimalMidpoint(ref), proj.OptimalValues()[i])
	}
}

func TestProjectMoodKeepsResponseOrder(t *testing.T) {
	raw := `{
		"probabilities": {"Stress": 40.5, "Normal": 30.0, "Anxiety": 29.5},
		"top_category": "Stress",
		"articles": {
			"Stress": [{"title": "S1", "url": "https://s1"}, {"title": "S2", "url": "https://s2"}],
			"Normal": [],
			"Anxiety": [{"title": "A1", "url": "https://a1"}]
		},
		"playlist": "https://open.spotify.com/embed/playlist/abc"
	}`

	var result domain.MoodResult
	require.NoError(t, json.Unmarshal([]byte(raw), &result))

	proj := ProjectMood(result)
	assert.Equal(t, "Probability (%)", proj.SeriesLabel)
	assert.Equal(t, []string{"Stress", "Normal", "Anxiety"}, proj.Labels)
	assert.Equal(t, []float64{40.5, 30, 29.5}, proj.Values)
	assert.Equal(t, "Stress", proj.TopCategory)
	assert.Equal(t, "https://open.spotify.com/embed/playlist/abc", proj.Playlist)

	titles := make([]string, len(proj.Articles))
	for i, a := range proj.Articles {
		titles[i] = a.Title
	}
	assert.Equal(t, []string{"S1", "S2", "A1"}, titles)
}

func TestFlattenArticlesEmpty(t *testing.T) {
	assert.Empty(t, FlattenArticles(nil))
	assert.Empty(t, FlattenArticles(domain.OrderedArticles{{Category: "Normal"}}))
}
