// Package report turns recorded trial attempts into summary statistics, a
// PNG accuracy plot and an HTML dashboard.
package report

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/steering.lab/internal/engine"
	"github.com/banshee-data/steering.lab/internal/session"
	"github.com/banshee-data/steering.lab/internal/trial"
)

// Stats describes one sample of values.
type Stats struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Median float64 `json:"median"`
}

func describe(xs []float64) Stats {
	if len(xs) == 0 {
		return Stats{}
	}
	s := Stats{N: len(xs)}
	if len(xs) == 1 {
		s.Mean, s.Median = xs[0], xs[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(xs, nil)

	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	s.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	return s
}

// Condition summarises the attempts of one factor combination.
type Condition struct {
	Factors       trial.Factors             `json:"factors"`
	Attempts      int                       `json:"attempts"`
	Hits          int                       `json:"hits"`
	Misses        int                       `json:"misses"`
	Errors        int                       `json:"errors"`
	Accuracy      Stats                     `json:"accuracy"`
	MovementMs    Stats                     `json:"movement_ms"`
	Coverage      Stats                     `json:"coverage"`
	ErrorsByCause map[engine.ErrorCause]int `json:"errors_by_cause,omitempty"`
}

// HitRate returns hits over attempts that ended in a hit or a miss.
func (c Condition) HitRate() float64 {
	if c.Hits+c.Misses == 0 {
		return 0
	}
	return float64(c.Hits) / float64(c.Hits+c.Misses)
}

// Summary is the report over all attempts of one or more sessions.
type Summary struct {
	Condition
	Conditions []Condition `json:"conditions"`
}

type accumulator struct {
	cond       Condition
	accuracy   []float64
	movementMs []float64
	coverage   []float64
}

func (a *accumulator) add(r *session.Record) {
	a.cond.Attempts++
	switch r.Outcome.Result {
	case engine.ResultHit:
		a.cond.Hits++
		a.accuracy = append(a.accuracy, r.Outcome.Accuracy)
		a.coverage = append(a.coverage, r.Outcome.Coverage)
		if mt := r.MovementTime(); mt > 0 {
			a.movementMs = append(a.movementMs, float64(mt.Microseconds())/1000)
		}
	case engine.ResultMissed:
		a.cond.Misses++
	case engine.ResultError:
		a.cond.Errors++
		if a.cond.ErrorsByCause == nil {
			a.cond.ErrorsByCause = map[engine.ErrorCause]int{}
		}
		a.cond.ErrorsByCause[r.Outcome.Cause]++
	}
}

func (a *accumulator) finish() Condition {
	c := a.cond
	c.Accuracy = describe(a.accuracy)
	c.MovementMs = describe(a.movementMs)
	c.Coverage = describe(a.coverage)
	return c
}

// Summarize aggregates records overall and per factor combination.
// Accuracy, movement time and coverage are taken from hits only.
// Conditions are ordered by object width, target width, then distance.
func Summarize(records []session.Record) Summary {
	var all accumulator
	byFactors := map[trial.Factors]*accumulator{}

	for i := range records {
		r := &records[i]
		all.add(r)
		acc, ok := byFactors[r.Factors]
		if !ok {
			acc = &accumulator{cond: Condition{Factors: r.Factors}}
			byFactors[r.Factors] = acc
		}
		acc.add(r)
	}

	sum := Summary{Condition: all.finish()}
	for _, acc := range byFactors {
		sum.Conditions = append(sum.Conditions, acc.finish())
	}
	sort.Slice(sum.Conditions, func(i, j int) bool {
		a, b := sum.Conditions[i].Factors, sum.Conditions[j].Factors
		if a.ObjectWidthMm != b.ObjectWidthMm {
			return a.ObjectWidthMm < b.ObjectWidthMm
		}
		if a.TargetWidthMm != b.TargetWidthMm {
			return a.TargetWidthMm < b.TargetWidthMm
		}
		if a.DistanceMm != b.DistanceMm {
			return a.DistanceMm < b.DistanceMm
		}
		return a.Straightness < b.Straightness
	})
	return sum
}

// IndexOfDifficulty is the steering-law difficulty of a straight tunnel:
// its length over its width.
func IndexOfDifficulty(f trial.Factors) float64 {
	if f.TargetWidthMm <= 0 {
		return math.Inf(1)
	}
	return f.DistanceMm / f.TargetWidthMm
}

// SteeringFit is the least-squares line MT = Intercept + Slope*ID over
// the per-condition mean movement times.
type SteeringFit struct {
	Intercept float64 `json:"intercept_ms"`
	Slope     float64 `json:"slope_ms"`
	RSquared  float64 `json:"r_squared"`
	Points    int     `json:"points"`
}

// FitSteeringLaw regresses mean movement time on index of difficulty.
// Conditions without a hit are skipped. ok is false when fewer than two
// distinct difficulties remain.
func FitSteeringLaw(conds []Condition) (fit SteeringFit, ok bool) {
	var ids, mts []float64
	distinct := map[float64]struct{}{}
	for _, c := range conds {
		if c.MovementMs.N == 0 {
			continue
		}
		id := IndexOfDifficulty(c.Factors)
		if math.IsInf(id, 0) {
			continue
		}
		ids = append(ids, id)
		mts = append(mts, c.MovementMs.Mean)
		distinct[id] = struct{}{}
	}
	if len(distinct) < 2 {
		return SteeringFit{}, false
	}
	alpha, beta := stat.LinearRegression(ids, mts, nil, false)
	return SteeringFit{
		Intercept: alpha,
		Slope:     beta,
		RSquared:  stat.RSquared(ids, mts, nil, alpha, beta),
		Points:    len(ids),
	}, true
}
