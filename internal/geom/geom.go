// Package geom provides the integer pixel geometry shared by trial
// construction and interaction: points, directed segments and axis-aligned
// rectangles, plus the intersection predicates the interaction engine
// evaluates on every sample.
//
// Segment intersection follows the classic relative-CCW formulation, so
// touching endpoints and collinear overlaps count as intersections.
// Rectangle containment is half-open on the right and bottom edges, and a
// segment intersects a rectangle only when it passes through one of the
// pixels the rectangle contains.
package geom

import (
	"fmt"
	"math"
)

// Point is an integer pixel coordinate. Y grows downward.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y int) Point {
	return Point{X: x, Y: y}
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// DistanceTo returns the Euclidean distance between p and q.
func (p Point) DistanceTo(q Point) float64 {
	return math.Hypot(float64(p.X-q.X), float64(p.Y-q.Y))
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Segment is a directed line segment from P1 to P2.
type Segment struct {
	P1 Point `json:"p1"`
	P2 Point `json:"p2"`
}

// Seg is shorthand for Segment{P1: p1, P2: p2}.
func Seg(p1, p2 Point) Segment {
	return Segment{P1: p1, P2: p2}
}

// Length returns the Euclidean length of s.
func (s Segment) Length() float64 {
	return s.P1.DistanceTo(s.P2)
}

// Degenerate reports whether both endpoints coincide.
func (s Segment) Degenerate() bool {
	return s.P1 == s.P2
}

// relativeCCW returns -1, 0 or 1 depending on which side of the directed
// segment s the point p lies. Collinear points beyond either endpoint
// report the side of the nearer endpoint's extension, points on the
// segment report 0.
func relativeCCW(s Segment, p Point) int {
	x2 := int64(s.P2.X - s.P1.X)
	y2 := int64(s.P2.Y - s.P1.Y)
	px := int64(p.X - s.P1.X)
	py := int64(p.Y - s.P1.Y)

	ccw := px*y2 - py*x2
	if ccw == 0 {
		ccw = px*x2 + py*y2
		if ccw > 0 {
			px -= x2
			py -= y2
			ccw = px*x2 + py*y2
			if ccw < 0 {
				ccw = 0
			}
		}
	}

	switch {
	case ccw < 0:
		return -1
	case ccw > 0:
		return 1
	default:
		return 0
	}
}

// Intersects reports whether the finite segments s and o share at least
// one point.
func (s Segment) Intersects(o Segment) bool {
	return relativeCCW(s, o.P1)*relativeCCW(s, o.P2) <= 0 &&
		relativeCCW(o, s.P1)*relativeCCW(o, s.P2) <= 0
}

// side returns the sign of the cross product of line and (p - line.P1):
// which side of the infinite line through line.P1, line.P2 the point is on.
func side(line Segment, p Point) int {
	cross := int64(line.P2.X-line.P1.X)*int64(p.Y-line.P1.Y) -
		int64(line.P2.Y-line.P1.Y)*int64(p.X-line.P1.X)
	switch {
	case cross < 0:
		return -1
	case cross > 0:
		return 1
	default:
		return 0
	}
}

// CrossesLine reports whether s touches or crosses the infinite line
// through line.P1 and line.P2. A degenerate line matches nothing.
func (s Segment) CrossesLine(line Segment) bool {
	if line.Degenerate() {
		return false
	}
	return side(line, s.P1)*side(line, s.P2) <= 0
}

// IntersectsRect reports whether s passes through any pixel of r. The
// pixels of r are exactly those Contains accepts, so the right and bottom
// boundaries are not part of r. Empty rectangles never intersect.
func (s Segment) IntersectsRect(r Rect) bool {
	if r.Empty() {
		return false
	}
	px := r.pixelBounds()
	if px.containsClosed(s.P1) || px.containsClosed(s.P2) {
		return true
	}
	for _, edge := range px.Edges() {
		if s.Intersects(edge) {
			return true
		}
	}
	return false
}

func (s Segment) String() string {
	return fmt.Sprintf("%s--%s", s.P1, s.P2)
}

// Rect is an axis-aligned rectangle with its origin at the top-left corner.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// R is shorthand for Rect{X: x, Y: y, Width: w, Height: h}.
func R(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, Width: w, Height: h}
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Right returns the x-coordinate one past the right edge.
func (r Rect) Right() int {
	return r.X + r.Width
}

// Bottom returns the y-coordinate one past the bottom edge.
func (r Rect) Bottom() int {
	return r.Y + r.Height
}

// TopLeft returns the top-left corner.
func (r Rect) TopLeft() Point { return Point{X: r.X, Y: r.Y} }

// TopRight returns the top-right corner.
func (r Rect) TopRight() Point { return Point{X: r.Right(), Y: r.Y} }

// BottomLeft returns the bottom-left corner.
func (r Rect) BottomLeft() Point { return Point{X: r.X, Y: r.Bottom()} }

// BottomRight returns the bottom-right corner.
func (r Rect) BottomRight() Point { return Point{X: r.Right(), Y: r.Bottom()} }

// Center returns the centre point, truncated to whole pixels.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains reports whether p lies inside r. The left and top edges are
// inside, the right and bottom edges are not.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

// pixelBounds returns the closed box spanning the first and last pixel of
// r. A one pixel wide r yields a zero width box.
func (r Rect) pixelBounds() Rect {
	return Rect{X: r.X, Y: r.Y, Width: r.Width - 1, Height: r.Height - 1}
}

func (r Rect) containsClosed(p Point) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// ContainsRect reports whether o lies entirely within r.
func (r Rect) ContainsRect(o Rect) bool {
	return o.X >= r.X && o.Right() <= r.Right() && o.Y >= r.Y && o.Bottom() <= r.Bottom()
}

// WithLocation returns r moved so its top-left corner is p.
func (r Rect) WithLocation(p Point) Rect {
	r.X, r.Y = p.X, p.Y
	return r
}

// Grow returns r expanded by dx on the left and right and dy on the top
// and bottom.
func (r Rect) Grow(dx, dy int) Rect {
	return Rect{X: r.X - dx, Y: r.Y - dy, Width: r.Width + 2*dx, Height: r.Height + 2*dy}
}

// Edges returns the four boundary segments clockwise from the top edge.
func (r Rect) Edges() [4]Segment {
	tl, tr, br, bl := r.TopLeft(), r.TopRight(), r.BottomRight(), r.BottomLeft()
	return [4]Segment{
		{P1: tl, P2: tr},
		{P1: tr, P2: br},
		{P1: br, P2: bl},
		{P1: bl, P2: tl},
	}
}

func (r Rect) String() string {
	return fmt.Sprintf("Rect[x=%d,y=%d,w=%d,h=%d]", r.X, r.Y, r.Width, r.Height)
}
