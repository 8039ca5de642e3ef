package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mlhealth/riskview/internal/service"
	"github.com/mlhealth/riskview/pkg/riskengine"
)

// WriteBodySummary writes a plain-text rendition of a body report.
func WriteBodySummary(w io.Writer, report *service.BodyReport) error {
	if report == nil {
		return fmt.Errorf("writing body summary: report is nil")
	}

	bw := bufio.NewWriter(w)
	if report.Result.Message != "" {
		fmt.Fprintln(bw, report.Result.Message)
	}
	if report.PatientID != "" {
		fmt.Fprintf(bw, "Reference Patient ID: %s\n", report.PatientID)
	}
	fmt.Fprintln(bw, report.Risk.Title)
	for _, s := range report.Risk.Slices {
		fmt.Fprintf(bw, "  %s\n", riskengine.FormatSlice(s))
	}

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, report.Factors.Title)
	for _, f := range report.Factors.Factors {
		fmt.Fprintf(bw, "  %-15s %6s  (optimal %s)\n", f.Label,
			riskengine.FormatPercent(f.UserValue), riskengine.FormatPercent(f.OptimalValue))
	}

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, riskengine.RecommendationsTitle)
	for _, section := range report.Suggestions {
		if section.Text != "" {
			fmt.Fprintln(bw, section.Text)
		}
		if len(section.Items) == 0 {
			continue
		}
		fmt.Fprintln(bw, section.Heading)
		for _, item := range section.Items {
			fmt.Fprintf(bw, "  - %s\n", item)
		}
	}

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, estimateNote)
	writeDisclaimer(bw)
	return bw.Flush()
}

// WriteMindSummary writes a plain-text rendition of a mind report.
func WriteMindSummary(w io.Writer, report *service.MindReport) error {
	if report == nil {
		return fmt.Errorf("writing mind summary: report is nil")
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s: %s\n\n", riskengine.TopCategoryLabel, report.Mood.TopCategory)

	fmt.Fprintln(bw, report.Mood.SeriesLabel)
	width := 0
	for _, label := range report.Mood.Labels {
		if len(label) > width {
			width = len(label)
		}
	}
	for i, label := range report.Mood.Labels {
		fmt.Fprintf(bw, "  %-*s %6s%%\n", width, label, riskengine.FormatPercent(report.Mood.Values[i]))
	}

	if len(report.Mood.Articles) > 0 {
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, "Suggested Articles")
		for _, a := range report.Mood.Articles {
			fmt.Fprintf(bw, "  - %s <%s>\n", a.Title, a.URL)
		}
	}
	if report.Mood.Playlist != "" {
		fmt.Fprintln(bw)
		fmt.Fprintf(bw, "Playlist: %s\n", report.Mood.Playlist)
	}

	fmt.Fprintln(bw)
	writeDisclaimer(bw)
	return bw.Flush()
}

func writeDisclaimer(w io.Writer) {
	fmt.Fprintln(w, "Disclaimer: "+strings.TrimSpace(service.Disclaimer))
}
