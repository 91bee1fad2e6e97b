// Package units provides the length units used by experiment configuration
// and the fixed-DPI conversion between millimetres and screen pixels.
package units

import "strings"

// Unit constants
const (
	MM = "mm"
	PX = "px"
	IN = "in"
)

// MMPerInch is the number of millimetres in one inch.
const MMPerInch = 25.4

// DefaultDPI is used when no display density is configured.
const DefaultDPI = 109.0

// ValidUnits contains all valid unit values
var ValidUnits = []string{MM, PX, IN}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidUnits, ", ")
}

// Converter converts physical lengths to pixels for a display of fixed
// density. The zero value uses DefaultDPI.
type Converter struct {
	DPI float64
}

// NewConverter returns a Converter for the given density. Non-positive
// values fall back to DefaultDPI.
func NewConverter(dpi float64) Converter {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return Converter{DPI: dpi}
}

func (c Converter) dpi() float64 {
	if c.DPI <= 0 {
		return DefaultDPI
	}
	return c.DPI
}

// MMToPx converts millimetres to whole pixels, truncating toward zero.
func (c Converter) MMToPx(mm float64) int {
	return int(mm / MMPerInch * c.dpi())
}

// PxToMM converts pixels to millimetres.
func (c Converter) PxToMM(px float64) float64 {
	return px / c.dpi() * MMPerInch
}

// ConvertLength converts a length in the given unit to millimetres.
// Unknown units are treated as millimetres.
func (c Converter) ConvertLength(value float64, unit string) float64 {
	switch unit {
	case PX:
		return c.PxToMM(value)
	case IN:
		return value * MMPerInch
	default:
		return value
	}
}
