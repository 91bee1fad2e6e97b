package report

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/steering.lab/internal/engine"
	"github.com/banshee-data/steering.lab/internal/session"
)

// AssetsHost is where the rendered page loads the echarts scripts from.
// Override it to serve them locally.
var AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// RenderDashboard writes a self-contained HTML page with the per-condition
// accuracy and outcome bars and an accuracy against movement time scatter.
func RenderDashboard(w io.Writer, title string, records []session.Record) error {
	sum := Summarize(records)

	page := components.NewPage()
	page.SetAssetsHost(AssetsHost)
	page.PageTitle = title
	page.AddCharts(
		accuracyBar(title, sum),
		outcomeBar(sum),
		movementScatter(records),
	)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func accuracyBar(title string, sum Summary) *charts.Bar {
	x := make([]string, 0, len(sum.Conditions))
	mean := make([]opts.BarData, 0, len(sum.Conditions))
	coverage := make([]opts.BarData, 0, len(sum.Conditions))
	for _, c := range sum.Conditions {
		x = append(x, conditionLabel(c))
		mean = append(mean, opts.BarData{Value: round2(c.Accuracy.Mean)})
		coverage = append(coverage, opts.BarData{Value: round2(c.Coverage.Mean)})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("%d attempts, %d hits, mean accuracy %.1f%%", sum.Attempts, sum.Hits, sum.Accuracy.Mean),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "%", Min: 0, Max: 100}),
	)
	bar.SetXAxis(x).
		AddSeries("accuracy", mean,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		).
		AddSeries("coverage", coverage)
	return bar
}

func outcomeBar(sum Summary) *charts.Bar {
	x := make([]string, 0, len(sum.Conditions))
	var hits, misses, errs []opts.BarData
	for _, c := range sum.Conditions {
		x = append(x, conditionLabel(c))
		hits = append(hits, opts.BarData{Value: c.Hits})
		misses = append(misses, opts.BarData{Value: c.Misses})
		errs = append(errs, opts.BarData{Value: c.Errors})
	}

	stacked := charts.WithBarChartOpts(opts.BarChart{Stack: "outcome"})
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Outcomes"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries(string(engine.ResultHit), hits, stacked, charts.WithItemStyleOpts(opts.ItemStyle{Color: "#43a047"})).
		AddSeries(string(engine.ResultMissed), misses, stacked, charts.WithItemStyleOpts(opts.ItemStyle{Color: "#fb8c00"})).
		AddSeries(string(engine.ResultError), errs, stacked, charts.WithItemStyleOpts(opts.ItemStyle{Color: "#e53935"}))
	return bar
}

func movementScatter(records []session.Record) *charts.Scatter {
	var pts []opts.ScatterData
	for i := range records {
		r := &records[i]
		if r.Outcome.Result != engine.ResultHit {
			continue
		}
		mt := r.MovementTime()
		if mt <= 0 {
			continue
		}
		pts = append(pts, opts.ScatterData{
			Value: []interface{}{float64(mt.Microseconds()) / 1000, round2(r.Outcome.Accuracy)},
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Accuracy vs Movement Time"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Movement time (ms)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Accuracy (%)", NameLocation: "middle", NameGap: 30, Min: 0, Max: 100}),
	)
	scatter.AddSeries("hits", pts, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	return scatter
}
