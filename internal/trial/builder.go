// Package trial builds the geometry of a pointing trial from its factor
// configuration: direction choice, bound rect sizing, object and target
// placement, and the tunnel corridor used by steering trials.
//
// Building is a pure function of the factors, the pixel converter and the
// chosen direction. Only the direction pick consumes randomness, and the
// picker is injected.
package trial

import (
	"github.com/banshee-data/steering.lab/internal/geom"
	"github.com/banshee-data/steering.lab/internal/units"
)

// DefaultWallWidthMm is the tunnel wall thickness when none is configured.
const DefaultWallWidthMm = 1.0

// Builder turns factor configuration into trial geometry.
type Builder struct {
	Units       units.Converter
	Picker      DirectionPicker
	WallWidthMm float64
	Origin      geom.Point
}

// NewBuilder returns a Builder using conv for mm→px conversion and picker
// for direction choice. A nil picker picks uniformly from the global source.
func NewBuilder(conv units.Converter, picker DirectionPicker) *Builder {
	if picker == nil {
		picker = RandomPicker{}
	}
	return &Builder{Units: conv, Picker: picker, WallWidthMm: DefaultWallWidthMm}
}

// Build validates f, picks a direction from its straightness category and
// lays out the trial.
func (b *Builder) Build(f Factors) (*Geometry, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	picker := b.Picker
	if picker == nil {
		picker = RandomPicker{}
	}
	dir := picker.Pick(f.Straightness.Directions())
	return b.BuildWithDirection(f, dir)
}

// BuildFromList decodes a compact factor list (see FactorsFromList) and
// builds it.
func (b *Builder) BuildFromList(conf []int, params ...int) (*Geometry, error) {
	f, err := FactorsFromList(conf, params...)
	if err != nil {
		return nil, err
	}
	return b.Build(f)
}

// BuildWithDirection lays out the trial for an explicit direction, which
// must belong to the factors' straightness category.
func (b *Builder) BuildWithDirection(f Factors, dir Direction) (*Geometry, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if !f.Straightness.Allows(dir) {
		return nil, configErrorf("direction", "%q not allowed by straightness %q", dir, f.Straightness)
	}

	objectPx := b.Units.MMToPx(f.ObjectWidthMm)
	targetPx := b.Units.MMToPx(f.TargetWidthMm)
	distancePx := b.Units.MMToPx(f.DistanceMm)
	if objectPx <= 0 || targetPx <= 0 || distancePx <= 0 {
		return nil, configErrorf("factors", "%s converts to an empty layout (%dpx/%dpx/%dpx)", f, objectPx, targetPx, distancePx)
	}

	wallPx := b.Units.MMToPx(b.WallWidthMm)
	if wallPx <= 0 {
		wallPx = 1
	}

	w, h := boundSize(dir, objectPx, targetPx, distancePx)
	bound := geom.Rect{X: b.Origin.X, Y: b.Origin.Y, Width: w, Height: h}
	return layout(bound, dir, objectPx, targetPx, distancePx, wallPx, f)
}
