package engine

import (
	"github.com/banshee-data/steering.lab/internal/trace"
	"github.com/banshee-data/steering.lab/internal/trial"
)

// PointCounter is satisfied by *trace.Trace.
type PointCounter interface {
	PointCount() int
}

// Accuracy returns the share of samples recorded inside the tunnel
// interior, as a percentage of all samples recorded after entry. An empty
// total yields 0.
func Accuracy(total, inTunnel PointCounter) float64 {
	return AccuracyFromCounts(total.PointCount(), inTunnel.PointCount())
}

// AccuracyFromCounts returns 100×k/n, or 0 when n is zero.
func AccuracyFromCounts(n, k int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(k) * 100.0 / float64(n)
}

// Coverage scores how cleanly a path stayed inside the corridor along its
// length: the percentage of corridor columns (horizontal tunnels) or rows
// (vertical tunnels) whose samples all lie inside the interior. Columns
// without samples count as clean.
func Coverage(path *trace.Trace, tunnel *trial.Tunnel) float64 {
	in := tunnel.InRect
	horizontal := tunnel.Direction.Axis() == trial.AxisHorizontal

	n := tunnel.Length()
	if n <= 0 {
		return 0
	}
	lo := in.Y
	if horizontal {
		lo = in.X
	}
	hi := lo + n

	clean := 0
	for c := lo; c < hi; c++ {
		pts := path.PointsAtY(c)
		if horizontal {
			pts = path.PointsAtX(c)
		}
		ok := true
		for _, p := range pts {
			if !in.Contains(p) {
				ok = false
				break
			}
		}
		if ok {
			clean++
		}
	}
	return float64(clean) * 100.0 / float64(n)
}
