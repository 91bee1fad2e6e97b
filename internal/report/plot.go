package report

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/steering.lab/internal/engine"
	"github.com/banshee-data/steering.lab/internal/session"
)

// WriteAccuracyPlot saves a PNG with one line per condition: accuracy of
// each hit against its attempt sequence number.
func WriteAccuracyPlot(records []session.Record, file string) error {
	sum := Summarize(records)
	if sum.Hits == 0 {
		return fmt.Errorf("no hits to plot")
	}

	p := plot.New()
	p.Title.Text = "Accuracy per Hit"
	p.X.Label.Text = "Attempt"
	p.Y.Label.Text = "Accuracy (%)"
	p.Y.Min = 0
	p.Y.Max = 100

	colors := generateColors(len(sum.Conditions))
	for i, c := range sum.Conditions {
		if c.Hits == 0 {
			continue
		}
		pts := make(plotter.XYs, 0, c.Hits)
		for _, r := range records {
			if r.Factors != c.Factors || r.Outcome.Result != engine.ResultHit {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(r.Seq), Y: r.Outcome.Accuracy})
		}

		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return fmt.Errorf("create accuracy line: %w", err)
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		points.Color = colors[i]
		points.Shape = draw.CircleGlyph{}
		p.Add(line, points)
		p.Legend.Add(conditionLabel(c), line, points)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(14*vg.Inch, 6*vg.Inch, file); err != nil {
		return fmt.Errorf("save accuracy plot: %w", err)
	}
	return nil
}

// WriteSteeringPlot saves a PNG of mean movement time against index of
// difficulty, with the fitted steering-law line when one exists.
func WriteSteeringPlot(sum Summary, file string) error {
	pts := make(plotter.XYs, 0, len(sum.Conditions))
	for _, c := range sum.Conditions {
		if c.MovementMs.N == 0 {
			continue
		}
		pts = append(pts, plotter.XY{X: IndexOfDifficulty(c.Factors), Y: c.MovementMs.Mean})
	}
	if len(pts) == 0 {
		return fmt.Errorf("no movement times to plot")
	}

	p := plot.New()
	p.Title.Text = "Movement Time vs Index of Difficulty"
	p.X.Label.Text = "ID (distance / width)"
	p.Y.Label.Text = "Movement time (ms)"

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("create scatter: %w", err)
	}
	scatter.Shape = draw.CircleGlyph{}
	scatter.Radius = vg.Points(3)
	p.Add(scatter)
	p.Legend.Add("condition mean", scatter)

	if fit, ok := FitSteeringLaw(sum.Conditions); ok {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, pt := range pts {
			lo = math.Min(lo, pt.X)
			hi = math.Max(hi, pt.X)
		}
		fitLine, err := plotter.NewLine(plotter.XYs{
			{X: lo, Y: fit.Intercept + fit.Slope*lo},
			{X: hi, Y: fit.Intercept + fit.Slope*hi},
		})
		if err != nil {
			return fmt.Errorf("create fit line: %w", err)
		}
		fitLine.Width = vg.Points(1)
		fitLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(fitLine)
		p.Legend.Add(fmt.Sprintf("MT = %.0f + %.1f ID (R² %.2f)", fit.Intercept, fit.Slope, fit.RSquared), fitLine)
	}

	p.Legend.Top = true
	p.Legend.Left = true

	if err := p.Save(8*vg.Inch, 6*vg.Inch, file); err != nil {
		return fmt.Errorf("save steering plot: %w", err)
	}
	return nil
}

func conditionLabel(c Condition) string {
	return fmt.Sprintf("obj %g / tgt %g / d %g mm", c.Factors.ObjectWidthMm, c.Factors.TargetWidthMm, c.Factors.DistanceMm)
}

// generateColors creates a palette of n distinct hues.
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		r, g, b := hslToRGB(float64(i)/float64(n), 0.7, 0.45)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	rf := hueToRGB(p, q, h+1.0/3.0)
	gf := hueToRGB(p, q, h)
	bf := hueToRGB(p, q, h-1.0/3.0)
	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	switch {
	case t < 0:
		t++
	case t > 1:
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
