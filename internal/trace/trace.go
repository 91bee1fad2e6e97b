// Package trace records the sampled pointer path of a trial as an ordered
// list of points and the segments between consecutive points, and answers
// the intersection queries the interaction engine needs.
package trace

import (
	"fmt"

	"github.com/banshee-data/steering.lab/internal/geom"
)

// Trace is an append-only pointer path. The segment list always holds
// exactly max(0, len(points)-1) entries. The zero value is an empty trace
// ready for use. A Trace is not safe for concurrent mutation.
type Trace struct {
	points   []geom.Point
	segments []geom.Segment
}

// New returns an empty trace with room for capacity points.
func New(capacity int) *Trace {
	return &Trace{
		points:   make([]geom.Point, 0, capacity),
		segments: make([]geom.Segment, 0, max(capacity-1, 0)),
	}
}

// AddPoint appends p unconditionally, deriving the segment from the
// previous point when there is one.
func (t *Trace) AddPoint(p geom.Point) {
	if n := len(t.points); n > 0 {
		t.segments = append(t.segments, geom.Segment{P1: t.points[n-1], P2: p})
	}
	t.points = append(t.points, p)
}

// AddIfNew appends p only if it differs from the last stored point, so
// repeated samples at a resting cursor do not add zero-length segments.
// It reports whether p was appended.
func (t *Trace) AddIfNew(p geom.Point) bool {
	if last, ok := t.LastPoint(); ok && last == p {
		return false
	}
	t.AddPoint(p)
	return true
}

// Reset clears all points and segments, keeping the allocated storage.
func (t *Trace) Reset() {
	t.points = t.points[:0]
	t.segments = t.segments[:0]
}

// LastPoint returns the most recent point, or false when empty.
func (t *Trace) LastPoint() (geom.Point, bool) {
	if len(t.points) == 0 {
		return geom.Point{}, false
	}
	return t.points[len(t.points)-1], true
}

// PointCount returns the number of stored points.
func (t *Trace) PointCount() int {
	return len(t.points)
}

// SegmentCount returns the number of stored segments.
func (t *Trace) SegmentCount() int {
	return len(t.segments)
}

// Points returns a copy of the stored points.
func (t *Trace) Points() []geom.Point {
	out := make([]geom.Point, len(t.points))
	copy(out, t.points)
	return out
}

// Segments returns a copy of the stored segments.
func (t *Trace) Segments() []geom.Segment {
	out := make([]geom.Segment, len(t.segments))
	copy(out, t.segments)
	return out
}

// Intersects reports whether any stored segment shares a point with the
// finite segment s.
func (t *Trace) Intersects(s geom.Segment) bool {
	for _, seg := range t.segments {
		if seg.Intersects(s) {
			return true
		}
	}
	return false
}

// CrossesLine reports whether any stored segment touches or crosses the
// infinite extension of line. A path that passes the line far outside
// its visible endpoints still matches.
func (t *Trace) CrossesLine(line geom.Segment) bool {
	for _, seg := range t.segments {
		if seg.CrossesLine(line) {
			return true
		}
	}
	return false
}

// IntersectsRect reports whether any stored segment enters or touches r.
func (t *Trace) IntersectsRect(r geom.Rect) bool {
	for _, seg := range t.segments {
		if seg.IntersectsRect(r) {
			return true
		}
	}
	return false
}

// Length returns the total path length in pixels.
func (t *Trace) Length() float64 {
	total := 0.0
	for _, seg := range t.segments {
		total += seg.Length()
	}
	return total
}

// PointsAtX returns the stored points in column x, in path order.
func (t *Trace) PointsAtX(x int) []geom.Point {
	var out []geom.Point
	for _, p := range t.points {
		if p.X == x {
			out = append(out, p)
		}
	}
	return out
}

// PointsAtY returns the stored points in row y, in path order.
func (t *Trace) PointsAtY(y int) []geom.Point {
	var out []geom.Point
	for _, p := range t.points {
		if p.Y == y {
			out = append(out, p)
		}
	}
	return out
}

func (t *Trace) String() string {
	return fmt.Sprintf("Trace{points=%v}", t.points)
}
