package trial

import (
	"fmt"
	"math"

	"github.com/banshee-data/steering.lab/internal/geom"
)

// align positions a square inside one axis of the bound rect.
type align int

const (
	alignStart align = iota
	alignCenter
	alignEnd
)

func (a align) offset(origin, span, size int) int {
	switch a {
	case alignCenter:
		return origin + span/2 - size/2
	case alignEnd:
		return origin + span - size
	default:
		return origin
	}
}

// anchor is a placement inside the bound rect, one align per axis.
type anchor struct {
	x, y align
}

func (a anchor) place(bound geom.Rect, size int) geom.Rect {
	return geom.Rect{
		X:      a.x.offset(bound.X, bound.Width, size),
		Y:      a.y.offset(bound.Y, bound.Height, size),
		Width:  size,
		Height: size,
	}
}

// placement assigns the object and target anchors for one direction.
type placement struct {
	object anchor
	target anchor
}

// placements is exhaustive over AllDirections. The object always sits on
// the side opposite the direction of travel.
var placements = map[Direction]placement{
	North:     {object: anchor{alignCenter, alignEnd}, target: anchor{alignStart, alignStart}},
	South:     {object: anchor{alignCenter, alignStart}, target: anchor{alignStart, alignEnd}},
	East:      {object: anchor{alignStart, alignCenter}, target: anchor{alignEnd, alignStart}},
	West:      {object: anchor{alignEnd, alignCenter}, target: anchor{alignStart, alignStart}},
	NorthEast: {object: anchor{alignStart, alignEnd}, target: anchor{alignEnd, alignStart}},
	NorthWest: {object: anchor{alignEnd, alignEnd}, target: anchor{alignStart, alignStart}},
	SouthEast: {object: anchor{alignStart, alignStart}, target: anchor{alignEnd, alignEnd}},
	SouthWest: {object: anchor{alignEnd, alignStart}, target: anchor{alignStart, alignEnd}},
}

// Geometry is the immutable layout of one trial, in screen pixels.
type Geometry struct {
	BoundRect  geom.Rect `json:"bound_rect"`
	ObjectRect geom.Rect `json:"object_rect"`
	TargetRect geom.Rect `json:"target_rect"`
	Direction  Direction `json:"direction"`
	DistancePx int       `json:"distance_px"`
	WallPx     int       `json:"wall_px"`
	Factors    Factors   `json:"factors"`

	// Tunnel is nil for diagonal directions.
	Tunnel *Tunnel `json:"tunnel,omitempty"`
}

// Axis returns the travel axis of the trial.
func (g *Geometry) Axis() Axis {
	return g.Direction.Axis()
}

// EndPoint is where the object is dragged to: the target centre.
func (g *Geometry) EndPoint() geom.Point {
	return g.TargetRect.Center()
}

// PlaceAt returns a copy of g with the bound rect moved to origin and every
// derived rectangle and line re-derived from the placement table.
func (g *Geometry) PlaceAt(origin geom.Point) (*Geometry, error) {
	return layout(g.BoundRect.WithLocation(origin), g.Direction, g.ObjectRect.Width, g.TargetRect.Width, g.DistancePx, g.WallPx, g.Factors)
}

func (g *Geometry) String() string {
	return fmt.Sprintf("%s %s bound=%s object=%s target=%s", g.Direction, g.Axis(), g.BoundRect, g.ObjectRect, g.TargetRect)
}

// boundSize returns the bound rect width and height for a direction.
// Diagonal travel covers the distance across both axes at once, so each
// side carries distance/√2.
func boundSize(dir Direction, objectPx, targetPx, distancePx int) (int, int) {
	switch dir.Axis() {
	case AxisVertical:
		return targetPx, objectPx + distancePx + targetPx
	case AxisHorizontal:
		return objectPx + distancePx + targetPx, targetPx
	default:
		side := int(float64(objectPx) + float64(distancePx)/math.Sqrt2 + float64(targetPx))
		return side, side
	}
}

func layout(bound geom.Rect, dir Direction, objectPx, targetPx, distancePx, wallPx int, f Factors) (*Geometry, error) {
	p, ok := placements[dir]
	if !ok {
		return nil, configErrorf("direction", "no placement for %q", dir)
	}

	g := &Geometry{
		BoundRect:  bound,
		ObjectRect: p.object.place(bound, objectPx),
		TargetRect: p.target.place(bound, targetPx),
		Direction:  dir,
		DistancePx: distancePx,
		WallPx:     wallPx,
		Factors:    f,
	}
	if dir.Axis() != AxisDiagonal {
		g.Tunnel = newTunnel(g)
	}
	return g, nil
}
