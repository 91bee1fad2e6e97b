package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/steering.lab/internal/monitoring"
	"github.com/banshee-data/steering.lab/internal/session"
)

// Output file names written by WriteAll.
const (
	SummaryFile   = "summary.json"
	AccuracyFile  = "accuracy.png"
	SteeringFile  = "steering.png"
	DashboardFile = "dashboard.html"
)

type summaryDoc struct {
	Title   string       `json:"title"`
	Summary Summary      `json:"summary"`
	Fit     *SteeringFit `json:"steering_fit,omitempty"`
}

// WriteAll writes the summary JSON, both plots and the dashboard into dir,
// creating it if needed. Plots that have nothing to show are skipped.
func WriteAll(dir, title string, records []session.Record) error {
	logf := monitoring.Component("Report")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	sum := Summarize(records)
	doc := summaryDoc{Title: title, Summary: sum}
	if fit, ok := FitSteeringLaw(sum.Conditions); ok {
		doc.Fit = &fit
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, SummaryFile), data, 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	if sum.Hits > 0 {
		if err := WriteAccuracyPlot(records, filepath.Join(dir, AccuracyFile)); err != nil {
			return err
		}
		if err := WriteSteeringPlot(sum, filepath.Join(dir, SteeringFile)); err != nil {
			return err
		}
	} else {
		logf("no hits in %d records, skipping plots", len(records))
	}

	f, err := os.Create(filepath.Join(dir, DashboardFile))
	if err != nil {
		return fmt.Errorf("create dashboard: %w", err)
	}
	defer f.Close()
	if err := RenderDashboard(f, title, records); err != nil {
		return err
	}

	logf("wrote %s: %d attempts, %d hits (%.0f%% hit rate)", dir, sum.Attempts, sum.Hits, 100*sum.HitRate())
	return f.Close()
}
