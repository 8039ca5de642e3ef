package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlhealth/riskview/internal/domain"
	"github.com/mlhealth/riskview/internal/service"
	"github.com/mlhealth/riskview/pkg/riskengine"
)

func highRiskReport() *service.BodyReport {
	metrics := domain.PatientMetrics{
		PatientID:        "P-<42>",
		Age:              "62",
		RestingBP:        "145",
		SerumCholesterol: "230",
		MaxHeartRate:     "130",
	}
	result := domain.PredictionResult{Prediction: 1, Probability: 0.8, Message: "High risk of heart disease"}
	return &service.BodyReport{
		PatientID:   metrics.PatientID,
		Metrics:     metrics,
		Result:      result,
		Risk:        riskengine.ProjectRisk(result.Probability),
		Factors:     riskengine.ProjectFactors(metrics),
		Suggestions: riskengine.SelectSuggestions(metrics, result),
		GeneratedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func mindReport() *service.MindReport {
	result := domain.MoodResult{
		Probabilities: domain.OrderedScores{
			{Category: "Stress", Value: 62.5},
			{Category: "Anxiety", Value: 25},
			{Category: "Normal", Value: 12.5},
		},
		TopCategory: "Stress",
		Articles: domain.OrderedArticles{
			{Category: "Stress", Articles: []domain.Article{
				{Title: "Coping with stress", URL: "https://example.org/stress"},
			}},
			{Category: "Anxiety", Articles: []domain.Article{
				{Title: "Grounding exercises", URL: "https://example.org/anxiety"},
			}},
		},
		Playlist: "https://open.spotify.com/embed/playlist/abc",
	}
	return &service.MindReport{
		Text:   "Deadlines everywhere",
		Result: result,
		Mood:   riskengine.ProjectMood(result),
	}
}

func parse(t *testing.T, buf *bytes.Buffer) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	return doc
}

func TestRenderBodyReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderBodyReport(&buf, highRiskReport()))
	doc := parse(t, &buf)

	assert.Equal(t, 1, doc.Find("#"+RiskChartID).Length())
	assert.Equal(t, 1, doc.Find("#"+FactorChartID).Length())

	summary := doc.Find("#" + SummarySectionID)
	require.Equal(t, 1, summary.Length())
	assert.Equal(t, "High risk of heart disease", strings.TrimSpace(summary.Find("p.message").Text()))
	assert.Equal(t, "Reference Patient ID: P-<42>", strings.TrimSpace(summary.Find("p.patient").Text()))
	assert.Contains(t, summary.Find("p.note").Text(), "estimate only")

	recs := doc.Find("#" + RecommendationsSectionID)
	require.Equal(t, 1, recs.Length())
	assert.Equal(t, riskengine.RecommendationsTitle, strings.TrimSpace(recs.Find("h2").Text()))
	assert.Contains(t, recs.Find("p.headline").Text(), "80.0%")

	headings := recs.Find("h3").Map(func(_ int, s *goquery.Selection) string {
		return strings.TrimSpace(s.Text())
	})
	assert.Equal(t, []string{
		"Priority Actions:",
		"General Heart Health Recommendations:",
		"Specific Recommendations Based on Your Profile:",
	}, headings)
	assert.Equal(t, 4, recs.Find("div.priority_actions li").Length())
	assert.Equal(t, 5, recs.Find("div.general li").Length())
	assert.Equal(t, 4, recs.Find("div.specific li").Length())

	assert.Contains(t, doc.Find("#"+DisclaimerSectionID).Text(), "informational purposes only")
	assert.Equal(t, 0, doc.Find("#"+PlaylistSectionID).Length())
}

func TestRenderBodyReport_EscapesInput(t *testing.T) {
	report := highRiskReport()
	report.Result.Message = "<script>alert(1)</script>"

	var buf bytes.Buffer
	require.NoError(t, RenderBodyReport(&buf, report))

	assert.NotContains(t, buf.String(), "<script>alert(1)</script>")
	doc := parse(t, &buf)
	assert.Equal(t, "<script>alert(1)</script>", doc.Find("#summary p.message").Text())
}

func TestRenderBodyReport_LowRiskWithoutProfile(t *testing.T) {
	metrics := domain.PatientMetrics{Age: "30", RestingBP: "120", SerumCholesterol: "180", MaxHeartRate: "170"}
	result := domain.PredictionResult{Prediction: 0, Probability: 0.1}
	report := &service.BodyReport{
		Metrics:     metrics,
		Result:      result,
		Risk:        riskengine.ProjectRisk(result.Probability),
		Factors:     riskengine.ProjectFactors(metrics),
		Suggestions: riskengine.SelectSuggestions(metrics, result),
	}

	var buf bytes.Buffer
	require.NoError(t, RenderBodyReport(&buf, report))
	doc := parse(t, &buf)

	assert.Equal(t, 0, doc.Find("#summary p.patient").Length())
	assert.Equal(t, 0, doc.Find("#summary p.message").Length())
	assert.Equal(t, 3, doc.Find("div.preventive_actions li").Length())
	assert.Equal(t, 0, doc.Find("div.specific").Length())
}

func TestRenderMindReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderMindReport(&buf, mindReport()))
	doc := parse(t, &buf)

	assert.Equal(t, 1, doc.Find("#"+MoodChartID).Length())
	assert.Contains(t, doc.Find("#summary p.top-category").Text(), "Most Likely Mood: Stress")

	links := doc.Find("#" + ArticlesSectionID + " a")
	require.Equal(t, 2, links.Length())
	assert.Equal(t, "Coping with stress", links.First().Text())
	href, ok := links.Last().Attr("href")
	assert.True(t, ok)
	assert.Equal(t, "https://example.org/anxiety", href)

	src, ok := doc.Find("#" + PlaylistSectionID + " iframe").Attr("src")
	assert.True(t, ok)
	assert.Equal(t, "https://open.spotify.com/embed/playlist/abc", src)
	assert.Equal(t, 1, doc.Find("#"+DisclaimerSectionID).Length())
}

func TestRenderMindReport_NoArticlesOrPlaylist(t *testing.T) {
	report := mindReport()
	report.Mood.Articles = nil
	report.Mood.Playlist = ""

	var buf bytes.Buffer
	require.NoError(t, RenderMindReport(&buf, report))
	doc := parse(t, &buf)

	assert.Equal(t, 0, doc.Find("#"+ArticlesSectionID).Length())
	assert.Equal(t, 0, doc.Find("#"+PlaylistSectionID).Length())
}

func TestRender_NilReport(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, RenderBodyReport(&buf, nil))
	assert.Error(t, RenderMindReport(&buf, nil))
	assert.Error(t, WriteBodySummary(&buf, nil))
	assert.Error(t, WriteMindSummary(&buf, nil))
}

func TestWriteBodySummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBodySummary(&buf, highRiskReport()))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "High risk of heart disease\nReference Patient ID: P-<42>\nRisk Probability: 80.0%\n"))
	assert.Contains(t, out, "  Risk %: 80.0%\n")
	assert.Contains(t, out, "  Safe %: 20.0%\n")
	assert.Contains(t, out, "Priority Actions:\n  - ")
	assert.Contains(t, out, "Specific Recommendations Based on Your Profile:\n")
	assert.NotContains(t, out, "Preventive Actions:")
	assert.True(t, strings.HasSuffix(out, "Disclaimer: "+service.Disclaimer+"\n"))
}

func TestWriteMindSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMindSummary(&buf, mindReport()))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "Most Likely Mood: Stress\n"))
	stress := strings.Index(out, "Stress    62.5%")
	anxiety := strings.Index(out, "Anxiety   25.0%")
	normal := strings.Index(out, "Normal    12.5%")
	require.True(t, stress > 0 && anxiety > 0 && normal > 0, out)
	assert.Less(t, stress, anxiety)
	assert.Less(t, anxiety, normal)

	assert.Contains(t, out, "  - Coping with stress <https://example.org/stress>\n")
	assert.Contains(t, out, "Playlist: https://open.spotify.com/embed/playlist/abc\n")
}
