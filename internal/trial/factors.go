package trial

import "fmt"

// MinFactorCount is the number of leading values a factor list must carry:
// object width, target width and straightness code.
const MinFactorCount = 3

// Factors is the per-trial factor configuration, in millimetres.
type Factors struct {
	ObjectWidthMm float64      `json:"object_width_mm"`
	TargetWidthMm float64      `json:"target_width_mm"`
	Straightness  Straightness `json:"straightness"`
	DistanceMm    float64      `json:"distance_mm"`
}

// FactorsFromList decodes the compact factor list used by block
// definitions: conf = [objectWidthMm, targetWidthMm, straightnessCode, ...]
// and params = [distanceMm, ...]. A list shorter than MinFactorCount is a
// ConfigurationError; a missing distance parameter is left at zero and
// rejected by Validate.
func FactorsFromList(conf []int, params ...int) (Factors, error) {
	if len(conf) < MinFactorCount {
		return Factors{}, configErrorf("factors", "need at least %d values, got %d", MinFactorCount, len(conf))
	}

	st, err := StraightnessFromCode(conf[2])
	if err != nil {
		return Factors{}, configErrorf("straightness", "%v", err)
	}

	f := Factors{
		ObjectWidthMm: float64(conf[0]),
		TargetWidthMm: float64(conf[1]),
		Straightness:  st,
	}
	if len(params) > 0 {
		f.DistanceMm = float64(params[0])
	}
	return f, nil
}

// Validate checks that f can produce a non-degenerate geometry. Horizontal
// and vertical bound rects are only as wide as the target across the
// direction of travel, so categories that can yield them need an object
// no wider than the target. Diagonal bound rects fit either size.
func (f Factors) Validate() error {
	if !f.Straightness.Valid() {
		return configErrorf("straightness", "unknown category %q", f.Straightness)
	}
	if f.ObjectWidthMm <= 0 {
		return configErrorf("object_width_mm", "must be positive, got %g", f.ObjectWidthMm)
	}
	if f.TargetWidthMm <= 0 {
		return configErrorf("target_width_mm", "must be positive, got %g", f.TargetWidthMm)
	}
	if f.DistanceMm <= 0 {
		return configErrorf("distance_mm", "must be positive, got %g", f.DistanceMm)
	}
	if f.ObjectWidthMm > f.TargetWidthMm && f.Straightness.axisAligned() {
		return configErrorf("object_width_mm", "object (%g) wider than target (%g)", f.ObjectWidthMm, f.TargetWidthMm)
	}
	return nil
}

func (f Factors) String() string {
	return fmt.Sprintf("obj=%gmm tgt=%gmm dist=%gmm %s", f.ObjectWidthMm, f.TargetWidthMm, f.DistanceMm, f.Straightness)
}
