package trial

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Direction is the compass direction of travel from the object to the target.
type Direction string

const (
	North     Direction = "N"
	South     Direction = "S"
	East      Direction = "E"
	West      Direction = "W"
	NorthEast Direction = "NE"
	NorthWest Direction = "NW"
	SouthEast Direction = "SE"
	SouthWest Direction = "SW"
)

// AllDirections lists every direction in a stable order.
var AllDirections = []Direction{North, South, East, West, NorthEast, NorthWest, SouthEast, SouthWest}

// Axis classifies a direction by the screen axis it travels along.
type Axis string

const (
	AxisHorizontal Axis = "horizontal"
	AxisVertical   Axis = "vertical"
	AxisDiagonal   Axis = "diagonal"
)

// Axis returns the travel axis of d. Unknown directions report an empty axis.
func (d Direction) Axis() Axis {
	switch d {
	case East, West:
		return AxisHorizontal
	case North, South:
		return AxisVertical
	case NorthEast, NorthWest, SouthEast, SouthWest:
		return AxisDiagonal
	default:
		return ""
	}
}

// Valid reports whether d is one of the eight compass directions.
func (d Direction) Valid() bool {
	return d.Axis() != ""
}

// Straightness restricts which directions a trial may be given.
type Straightness string

const (
	Straight Straightness = "straight"
	Diagonal Straightness = "diagonal"
	Any      Straightness = "any"
)

var straightnessDirections = map[Straightness][]Direction{
	Straight: {North, South, East, West},
	Diagonal: {NorthEast, NorthWest, SouthEast, SouthWest},
	Any:      AllDirections,
}

// straightnessCodes maps the integer codes used in factor lists.
var straightnessCodes = []Straightness{Straight, Diagonal, Any}

// Directions returns the directions allowed by s, or nil if s is unknown.
// The returned slice is a copy.
func (s Straightness) Directions() []Direction {
	dirs, ok := straightnessDirections[s]
	if !ok {
		return nil
	}
	out := make([]Direction, len(dirs))
	copy(out, dirs)
	return out
}

// Allows reports whether d is in the direction subset of s.
func (s Straightness) Allows(d Direction) bool {
	for _, allowed := range straightnessDirections[s] {
		if allowed == d {
			return true
		}
	}
	return false
}

// axisAligned reports whether s can yield a horizontal or vertical trial.
func (s Straightness) axisAligned() bool {
	for _, d := range straightnessDirections[s] {
		if d.Axis() != AxisDiagonal {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known category.
func (s Straightness) Valid() bool {
	_, ok := straightnessDirections[s]
	return ok
}

// StraightnessFromCode maps a factor-list code (0 straight, 1 diagonal,
// 2 any) to its category.
func StraightnessFromCode(code int) (Straightness, error) {
	if code < 0 || code >= len(straightnessCodes) {
		return "", fmt.Errorf("unknown straightness code %d", code)
	}
	return straightnessCodes[code], nil
}

// ParseStraightness parses a category name, case-insensitively.
func ParseStraightness(s string) (Straightness, error) {
	st := Straightness(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown straightness %q", s)
	}
	return st, nil
}

// DirectionPicker chooses one direction from a non-empty candidate set.
type DirectionPicker interface {
	Pick(candidates []Direction) Direction
}

// RandomPicker picks uniformly at random. A nil Rand uses the global
// source.
type RandomPicker struct {
	Rand *rand.Rand
}

// NewRandomPicker returns a picker seeded for reproducible sessions.
func NewRandomPicker(seed uint64) RandomPicker {
	return RandomPicker{Rand: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Pick returns a uniformly chosen element of candidates.
func (p RandomPicker) Pick(candidates []Direction) Direction {
	if p.Rand == nil {
		return candidates[rand.IntN(len(candidates))]
	}
	return candidates[p.Rand.IntN(len(candidates))]
}

// PickerFunc adapts a function to DirectionPicker.
type PickerFunc func(candidates []Direction) Direction

// Pick calls f.
func (f PickerFunc) Pick(candidates []Direction) Direction {
	return f(candidates)
}
