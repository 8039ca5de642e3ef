package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-echarts/go-echarts/v2/components"

	"github.com/mlhealth/riskview/internal/service"
	"github.com/mlhealth/riskview/pkg/riskengine"
)

// Section IDs in the rendered page.
const (
	SummarySectionID         = "summary"
	RecommendationsSectionID = "recommendations"
	ArticlesSectionID        = "articles"
	PlaylistSectionID        = "playlist"
	DisclaimerSectionID      = "disclaimer"
)

const (
	bodyPageTitle = "ML for Body: Heart Disease Risk"
	mindPageTitle = "ML for Mind: Mood Assessment"

	estimateNote = "Note: This tool provides an estimate only and is not a substitute for professional medical advice."
)

var bodyHeaderTmpl = template.Must(template.New("body-header").Parse(`
<section id="summary" class="summary">
  <h1>{{ .Title }}</h1>
  {{- if .Message }}<p class="message">{{ .Message }}</p>{{ end }}
  {{- if .PatientID }}<p class="patient">Reference Patient ID: {{ .PatientID }}</p>{{ end }}
  <p class="note">{{ .Note }}</p>
</section>`))

var recommendationsTmpl = template.Must(template.New("recommendations").Parse(`
<section id="recommendations" class="recommendations">
  <h2>{{ .Title }}</h2>
  {{- range .Sections }}
  {{- if .Text }}<p class="headline {{ .Kind }}">{{ .Text }}</p>{{ end }}
  {{- if .Items }}
  <div class="block {{ .Kind }}">
    <h3>{{ .Heading }}</h3>
    <ul>{{ range .Items }}<li>{{ . }}</li>{{ end }}</ul>
  </div>
  {{- end }}
  {{- end }}
</section>`))

var mindHeaderTmpl = template.Must(template.New("mind-header").Parse(`
<section id="summary" class="summary">
  <h1>{{ .Title }}</h1>
  <p class="top-category"><strong>{{ .TopLabel }}:</strong> {{ .TopCategory }}</p>
</section>`))

var articlesTmpl = template.Must(template.New("articles").Parse(`
<section id="articles" class="articles">
  <h3><strong>Suggested Articles</strong></h3>
  <ul>{{ range . }}<li><a href="{{ .URL }}" target="_blank" rel="noopener noreferrer">{{ .Title }}</a></li>{{ end }}</ul>
</section>`))

var playlistTmpl = template.Must(template.New("playlist").Parse(`
<section id="playlist" class="playlist">
  <h2>Music for Mind</h2>
  <iframe src="{{ . }}" height="352" frameborder="0" allowfullscreen
    allow="autoplay; clipboard-write; encrypted-media; fullscreen; picture-in-picture"
    loading="lazy" title="Music Playlist"></iframe>
</section>`))

var disclaimerTmpl = template.Must(template.New("disclaimer").Parse(`
<section id="disclaimer" class="disclaimer">
  <p><strong>Disclaimer:</strong> {{ . }}</p>
</section>`))

// RenderBodyReport writes an HTML page with the risk doughnut, the factor
// radar and the recommendation list.
func RenderBodyReport(w io.Writer, report *service.BodyReport) error {
	if report == nil {
		return fmt.Errorf("rendering body report: report is nil")
	}

	page := components.NewPage()
	page.PageTitle = bodyPageTitle
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(riskChart(report.Risk), factorChart(report.Factors))

	header, err := execute(bodyHeaderTmpl, map[string]string{
		"Title":     bodyPageTitle,
		"Message":   report.Result.Message,
		"PatientID": report.PatientID,
		"Note":      estimateNote,
	})
	if err != nil {
		return fmt.Errorf("rendering body report: %w", err)
	}

	var footer bytes.Buffer
	if err := recommendationsTmpl.Execute(&footer, map[string]interface{}{
		"Title":    riskengine.RecommendationsTitle,
		"Sections": report.Suggestions,
	}); err != nil {
		return fmt.Errorf("rendering body report: %w", err)
	}
	if err := disclaimerTmpl.Execute(&footer, service.Disclaimer); err != nil {
		return fmt.Errorf("rendering body report: %w", err)
	}

	return writePage(w, page, header, footer.String())
}

// RenderMindReport writes an HTML page with the mood bar chart, the
// suggested articles and the playlist.
func RenderMindReport(w io.Writer, report *service.MindReport) error {
	if report == nil {
		return fmt.Errorf("rendering mind report: report is nil")
	}

	page := components.NewPage()
	page.PageTitle = mindPageTitle
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(moodChart(report.Mood))

	header, err := execute(mindHeaderTmpl, map[string]string{
		"Title":       mindPageTitle,
		"TopLabel":    riskengine.TopCategoryLabel,
		"TopCategory": report.Mood.TopCategory,
	})
	if err != nil {
		return fmt.Errorf("rendering mind report: %w", err)
	}

	var footer bytes.Buffer
	if len(report.Mood.Articles) > 0 {
		if err := articlesTmpl.Execute(&footer, report.Mood.Articles); err != nil {
			return fmt.Errorf("rendering mind report: %w", err)
		}
	}
	if report.Mood.Playlist != "" {
		if err := playlistTmpl.Execute(&footer, report.Mood.Playlist); err != nil {
			return fmt.Errorf("rendering mind report: %w", err)
		}
	}
	if err := disclaimerTmpl.Execute(&footer, service.Disclaimer); err != nil {
		return fmt.Errorf("rendering mind report: %w", err)
	}

	return writePage(w, page, header, footer.String())
}

// writePage renders the chart page and wraps the charts with the header and
// footer fragments.
func writePage(w io.Writer, page *components.Page, header, footer string) error {
	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("rendering charts: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		return fmt.Errorf("parsing chart page: %w", err)
	}

	body := doc.Find("body")
	body.PrependHtml(header)
	body.AppendHtml(footer)

	out, err := doc.Html()
	if err != nil {
		return fmt.Errorf("serializing report: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

func execute(tmpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
