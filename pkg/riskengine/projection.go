package riskengine

import (
	"github.com/mlhealth/riskview/internal/domain"
)

// Chart labels shared with the renderer.
const (
	RiskSliceLabel   = "Risk %"
	SafeSliceLabel   = "Safe %"
	UserSeriesLabel  = "Your Metric (Normalized)"
	OptimalSeries    = "Optimal Zone Midpoint (Normalized)"
	FactorChartTitle = "Key Health Metrics (Normalized)"
	MoodSeriesLabel  = "Probability (%)"
	TopCategoryLabel = "Most Likely Mood"
	riskTitlePrefix  = "Risk Probability: "
)

// Slice is one segment of the risk doughnut.
type Slice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// RiskProjection is the two-slice doughnut dataset for a body prediction.
// Values keep full precision; only Title and FormatSlice round.
type RiskProjection struct {
	Title  string  `json:"title"`
	Slices []Slice `json:"slices"`
}

// ProjectRisk splits probability p into risk and safe percentages.
func ProjectRisk(p float64) RiskProjection {
	risk := p * 100
	return RiskProjection{
		Title: riskTitlePrefix + FormatPercent(risk) + "%",
		Slices: []Slice{
			{Label: RiskSliceLabel, Value: risk},
			{Label: SafeSliceLabel, Value: (1 - p) * 100},
		},
	}
}

// Values returns the slice values in order.
func (r RiskProjection) Values() []float64 {
	out := make([]float64, len(r.Slices))
	for i, s := range r.Slices {
		out[i] = s.Value
	}
	return out
}

// FormatSlice renders a slice value for tooltips and labels.
func FormatSlice(s Slice) string {
	return s.Label + ": " + FormatPercent(s.Value) + "%"
}

// NormalizedFactor is one radar axis.
type NormalizedFactor struct {
	Key          string  `json:"key"`
	Label        string  `json:"label"`
	UserValue    float64 `json:"user_value"`
	OptimalValue float64 `json:"optimal_value"`
}

// FactorProjection is the radar dataset: one user series and one optimal
// series over the fixed reference axes.
type FactorProjection struct {
	Title        string             `json:"title"`
	UserLabel    string             `json:"user_label"`
	OptimalLabel string             `json:"optimal_label"`
	Factors      []NormalizedFactor `json:"factors"`
}

// ProjectFactors normalizes the raw metrics against the reference set.
// Blank or unparseable values are read as 0 and clamp to the axis edge.
func ProjectFactors(metrics domain.PatientMetrics) FactorProjection {
	factors := make([]NormalizedFactor, 0, len(references))
	for _, ref := range references {
		factors = append(factors, NormalizedFactor{
			Key:          ref.Key,
			Label:        ref.Label,
			UserValue:    Normalize(SafeFloat(metrics.Get(ref.Key)), ref),
			OptimalValue: NormalizeOptimalMidpoint(ref),
		})
	}
	return FactorProjection{
		Title:        FactorChartTitle,
		UserLabel:    UserSeriesLabel,
		OptimalLabel: OptimalSeries,
		Factors:      factors,
	}
}

// Labels returns the axis labels in order.
func (f FactorProjection) Labels() []string {
	out := make([]string, len(f.Factors))
	for i, fac := range f.Factors {
		out[i] = fac.Label
	}
	return out
}

// UserValues returns the user series.
func (f FactorProjection) UserValues() []float64 {
	out := make([]float64, len(f.Factors))
	for i, fac := range f.Factors {
		out[i] = fac.UserValue
	}
	return out
}

// OptimalValues returns the optimal-midpoint series.
func (f FactorProjection) OptimalValues() []float64 {
	out := make([]float64, len(f.Factors))
	for i, fac := range f.Factors {
		out[i] = fac.OptimalValue
	}
	return out
}

// MoodProjection is the bar dataset and reading list for a mind prediction.
type MoodProjection struct {
	SeriesLabel string           `json:"series_label"`
	Labels      []string         `json:"labels"`
	Values      []float64        `json:"values"`
	TopCategory string           `json:"top_category"`
	Playlist    string           `json:"playlist,omitempty"`
	Articles    []domain.Article `json:"articles"`
}

// ProjectMood keeps the category order of the response.
func ProjectMood(result domain.MoodResult) MoodProjection {
	labels := make([]string, len(result.Probabilities))
	values := make([]float64, len(result.Probabilities))
	for i, s := range result.Probabilities {
		labels[i] = s.Category
		values[i] = s.Value
	}
	return MoodProjection{
		SeriesLabel: MoodSeriesLabel,
		Labels:      labels,
		Values:      values,
		TopCategory: result.TopCategory,
		Playlist:    result.Playlist,
		Articles:    FlattenArticles(result.Articles),
	}
}

// FlattenArticles concatenates the per-category lists, category order first
// and then item order.
func FlattenArticles(groups domain.OrderedArticles) []domain.Article {
	n := 0
	for _, g := range groups {
		n += len(g.Articles)
	}
	out := make([]domain.Article, 0, n)
	for _, g := range groups {
		out = append(out, g.Articles...)
	}
	return out
}
