// Package render turns assessment reports into an HTML page of charts or a
// plain-text summary.
package render

import (
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/mlhealth/riskview/pkg/riskengine"
)

// Chart element IDs in the rendered page.
const (
	RiskChartID   = "risk-chart"
	FactorChartID = "factor-chart"
	MoodChartID   = "mood-chart"
)

const (
	chartWidth  = "560px"
	chartHeight = "380px"

	riskColor    = "#c0392b"
	safeColor    = "#27ae60"
	userColor    = "#2f80ed"
	optimalColor = "#9aa5b1"
	moodColor    = "#021526"
)

// riskChart draws the risk/safe doughnut. Slice values are shown with one
// decimal.
func riskChart(proj riskengine.RiskProjection) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			ChartID: RiskChartID,
			Width:   chartWidth,
			Height:  chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{
			Title: proj.Title,
			Left:  "center",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:      opts.Bool(true),
			Trigger:   "item",
			Formatter: "{b}: {c}%",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show:   opts.Bool(true),
			Bottom: "0",
		}),
	)

	colors := []string{riskColor, safeColor}
	data := make([]opts.PieData, 0, len(proj.Slices))
	for i, s := range proj.Slices {
		data = append(data, opts.PieData{
			Name:      s.Label,
			Value:     displayValue(s.Value),
			ItemStyle: &opts.ItemStyle{Color: colors[i%len(colors)]},
		})
	}

	pie.AddSeries("Risk Probability", data).
		SetSeriesOptions(
			charts.WithPieChartOpts(opts.PieChart{
				Radius: []string{"60%", "80%"},
				Center: []string{"50%", "55%"},
			}),
			charts.WithLabelOpts(opts.Label{
				Show:      opts.Bool(true),
				Formatter: "{b}: {c}%",
			}),
		)
	return pie
}

// factorChart draws the normalized metrics against the optimal midpoints on
// 0-100 axes.
func factorChart(proj riskengine.FactorProjection) *charts.Radar {
	indicators := make([]*opts.Indicator, 0, len(proj.Factors))
	for _, f := range proj.Factors {
		indicators = append(indicators, &opts.Indicator{Name: f.Label, Min: 0, Max: 100})
	}

	radar := charts.NewRadar()
	radar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			ChartID: FactorChartID,
			Width:   chartWidth,
			Height:  chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{
			Title: proj.Title,
			Left:  "center",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{
			Show:   opts.Bool(true),
			Bottom: "0",
		}),
		charts.WithRadarComponentOpts(opts.RadarComponent{
			Indicator:   indicators,
			Shape:       "polygon",
			SplitNumber: 5,
		}),
	)

	radar.AddSeries(proj.UserLabel, []opts.RadarData{{Name: proj.UserLabel, Value: roundAll(proj.UserValues())}},
		charts.WithItemStyleOpts(opts.ItemStyle{Color: userColor}),
	)
	radar.AddSeries(proj.OptimalLabel, []opts.RadarData{{Name: proj.OptimalLabel, Value: roundAll(proj.OptimalValues())}},
		charts.WithItemStyleOpts(opts.ItemStyle{Color: optimalColor}),
		charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}),
	)
	return radar
}

// moodChart draws one bar per category in response order.
func moodChart(proj riskengine.MoodProjection) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			ChartID: MoodChartID,
			Width:   chartWidth,
			Height:  chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{
			Title: riskengine.TopCategoryLabel + ": " + proj.TopCategory,
			Left:  "center",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:      opts.Bool(true),
			Formatter: "{b}: {c}%",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show:   opts.Bool(true),
			Bottom: "0",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "%",
			Min:  0,
			Max:  100,
		}),
	)

	data := make([]opts.BarData, 0, len(proj.Values))
	for _, v := range proj.Values {
		data = append(data, opts.BarData{Value: v})
	}

	bar.SetXAxis(proj.Labels).
		AddSeries(proj.SeriesLabel, data,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: moodColor}),
		)
	return bar
}

// displayValue rounds for display the same way the report text does.
func displayValue(v float64) float64 {
	rounded, err := strconv.ParseFloat(riskengine.FormatPercent(v), 64)
	if err != nil {
		return v
	}
	return rounded
}

func roundAll(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = displayValue(v)
	}
	return out
}
