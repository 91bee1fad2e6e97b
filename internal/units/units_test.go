package units

import (
	"math"
	"testing"
)

func TestMMToPx(t *testing.T) {
	tests := []struct {
		name     string
		dpi      float64
		mm       float64
		expected int
	}{
		{"one inch at 96 dpi", 96, 25.4, 96},
		{"10mm at 96 dpi truncates", 96, 10, 37},
		{"50mm at 96 dpi", 96, 50, 188},
		{"zero", 96, 0, 0},
		{"zero dpi uses default", 0, 25.4, 109},
		{"10mm at default dpi", DefaultDPI, 10, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConverter(tt.dpi)
			if got := c.MMToPx(tt.mm); got != tt.expected {
				t.Errorf("MMToPx(%f) at %f dpi = %d, want %d", tt.mm, tt.dpi, got, tt.expected)
			}
		})
	}
}

func TestZeroConverterUsesDefaultDPI(t *testing.T) {
	var c Converter
	if got := c.MMToPx(MMPerInch); got != int(DefaultDPI) {
		t.Errorf("MMToPx(1in) = %d, want %d", got, int(DefaultDPI))
	}
}

func TestPxToMM(t *testing.T) {
	c := NewConverter(96)
	if got := c.PxToMM(96); math.Abs(got-25.4) > 1e-9 {
		t.Errorf("PxToMM(96) = %f, want 25.4", got)
	}
}

func TestConvertLength(t *testing.T) {
	c := NewConverter(96)
	tests := []struct {
		name     string
		value    float64
		unit     string
		expected float64
	}{
		{"mm passthrough", 12, MM, 12},
		{"inch", 2, IN, 50.8},
		{"pixels", 48, PX, 12.7},
		{"unknown defaults to mm", 7, "furlong", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.ConvertLength(tt.value, tt.unit); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("ConvertLength(%f, %s) = %f, want %f", tt.value, tt.unit, got, tt.expected)
			}
		})
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"mm", MM, true},
		{"px", PX, true},
		{"in", IN, true},
		{"uppercase", "MM", false},
		{"empty", "", false},
		{"cm is not supported", "cm", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.unit); got != tt.expected {
				t.Errorf("IsValid(%q) = %v, want %v", tt.unit, got, tt.expected)
			}
		})
	}
}

func TestGetValidUnitsString(t *testing.T) {
	if got := GetValidUnitsString(); got != "mm, px, in" {
		t.Errorf("GetValidUnitsString() = %q", got)
	}
}
