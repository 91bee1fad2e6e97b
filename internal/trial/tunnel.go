package trial

import "github.com/banshee-data/steering.lab/internal/geom"

// Tunnel is the corridor of a straight steering trial. The cursor must
// cross StartLine into InRect, travel between the two walls and leave
// across EndLine.
type Tunnel struct {
	// InRect is the corridor interior between object and target.
	InRect geom.Rect `json:"in_rect"`

	// Walls hug the two long sides of InRect.
	Walls [2]geom.Rect `json:"walls"`

	// StartLine closes the object end of InRect, EndLine the target end.
	StartLine geom.Segment `json:"start_line"`
	EndLine   geom.Segment `json:"end_line"`

	// Protected is InRect plus its walls. Grabbing inside it is an error.
	Protected geom.Rect `json:"protected"`

	// Direction is the direction of travel from StartLine to EndLine.
	Direction Direction `json:"direction"`
}

func newTunnel(g *Geometry) *Tunnel {
	obj, tgt, b, w := g.ObjectRect, g.TargetRect, g.BoundRect, g.WallPx
	t := &Tunnel{Direction: g.Direction}

	switch g.Direction {
	case East:
		t.InRect = geom.R(obj.Right(), b.Y, tgt.X-obj.Right(), b.Height)
		t.StartLine = geom.Seg(t.InRect.TopLeft(), t.InRect.BottomLeft())
		t.EndLine = geom.Seg(t.InRect.TopRight(), t.InRect.BottomRight())
	case West:
		t.InRect = geom.R(tgt.Right(), b.Y, obj.X-tgt.Right(), b.Height)
		t.StartLine = geom.Seg(t.InRect.TopRight(), t.InRect.BottomRight())
		t.EndLine = geom.Seg(t.InRect.TopLeft(), t.InRect.BottomLeft())
	case South:
		t.InRect = geom.R(b.X, obj.Bottom(), b.Width, tgt.Y-obj.Bottom())
		t.StartLine = geom.Seg(t.InRect.TopLeft(), t.InRect.TopRight())
		t.EndLine = geom.Seg(t.InRect.BottomLeft(), t.InRect.BottomRight())
	case North:
		t.InRect = geom.R(b.X, tgt.Bottom(), b.Width, obj.Y-tgt.Bottom())
		t.StartLine = geom.Seg(t.InRect.BottomLeft(), t.InRect.BottomRight())
		t.EndLine = geom.Seg(t.InRect.TopLeft(), t.InRect.TopRight())
	default:
		return nil
	}

	in := t.InRect
	if g.Direction.Axis() == AxisHorizontal {
		t.Walls = [2]geom.Rect{
			geom.R(in.X, in.Y-w, in.Width, w),
			geom.R(in.X, in.Bottom(), in.Width, w),
		}
		t.Protected = in.Grow(0, w)
	} else {
		t.Walls = [2]geom.Rect{
			geom.R(in.X-w, in.Y, w, in.Height),
			geom.R(in.Right(), in.Y, w, in.Height),
		}
		t.Protected = in.Grow(w, 0)
	}
	return t
}

// EntryDepth returns the signed distance of p past the start line's
// infinite extension, positive in the direction of travel.
func (t *Tunnel) EntryDepth(p geom.Point) int {
	switch t.Direction {
	case East:
		return p.X - t.InRect.X
	case West:
		return t.InRect.Right() - p.X
	case South:
		return p.Y - t.InRect.Y
	case North:
		return t.InRect.Bottom() - p.Y
	default:
		return 0
	}
}

// Entered reports whether p counts as having entered the tunnel: inside
// the interior and strictly past the start line. A point exactly on the
// start line has not entered.
func (t *Tunnel) Entered(p geom.Point) bool {
	return t.InRect.Contains(p) && t.EntryDepth(p) > 0
}

// IsPointOutside reports whether p lies outside the protected corridor.
func (t *Tunnel) IsPointOutside(p geom.Point) bool {
	return !t.Protected.Contains(p)
}

// Length returns the corridor length along the direction of travel.
func (t *Tunnel) Length() int {
	if t.Direction.Axis() == AxisHorizontal {
		return t.InRect.Width
	}
	return t.InRect.Height
}
