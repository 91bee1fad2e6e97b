package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/steering.lab/internal/trial"
	"github.com/banshee-data/steering.lab/internal/units"
)

// DefaultConfigPath is the path to the canonical experiment defaults file.
const DefaultConfigPath = "config/experiment.defaults.json"

// ExperimentConfig is the root configuration of a steering experiment:
// display calibration, interaction tuning and the factor design. Every
// field is optional; the Get* methods supply the defaults.
type ExperimentConfig struct {
	// Display
	DPI *float64 `json:"dpi,omitempty"`

	// Interaction
	DragThresholdMm *float64 `json:"drag_threshold_mm,omitempty"`
	TickInterval    *string  `json:"tick_interval,omitempty"` // duration string like "5ms"
	WallWidthMm     *float64 `json:"wall_width_mm,omitempty"`

	// Factor design. The session crosses every list with every other.
	// LengthUnit ("mm", "px" or "in") applies to the three level lists;
	// the getters always return millimetres.
	LengthUnit     *string   `json:"length_unit,omitempty"`
	ObjectWidthsMm []float64 `json:"object_widths_mm,omitempty"`
	TargetWidthsMm []float64 `json:"target_widths_mm,omitempty"`
	DistancesMm    []float64 `json:"distances_mm,omitempty"`
	Straightness   []string  `json:"straightness,omitempty"`

	// Sequencing
	Blocks          *int    `json:"blocks,omitempty"`
	Repetitions     *int    `json:"repetitions,omitempty"`
	MaxErrorRetries *int    `json:"max_error_retries,omitempty"`
	RepeatMissed    *bool   `json:"repeat_missed,omitempty"`
	MaxMissRepeats  *int    `json:"max_miss_repeats,omitempty"`
	Seed            *uint64 `json:"seed,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrUint64(v uint64) *uint64    { return &v }

// Defaults used when a field is absent.
const (
	defaultDPI             = 109.0
	defaultDragThresholdMm = 2.0
	defaultTickInterval    = 5 * time.Millisecond
	defaultWallWidthMm     = 1.0
	defaultBlocks          = 1
	defaultRepetitions     = 1
	defaultMaxErrorRetries = 3
	defaultMaxMissRepeats  = 3
)

var (
	defaultObjectWidthsMm = []float64{5, 10}
	defaultTargetWidthsMm = []float64{10, 20}
	defaultDistancesMm    = []float64{50, 100}
	defaultStraightness   = []string{string(trial.Straight)}
)

// EmptyExperimentConfig returns an ExperimentConfig with all fields unset.
func EmptyExperimentConfig() *ExperimentConfig {
	return &ExperimentConfig{}
}

// DefaultExperimentConfig returns a config with every field set to its
// default value.
func DefaultExperimentConfig() *ExperimentConfig {
	return &ExperimentConfig{
		DPI:             ptrFloat64(defaultDPI),
		DragThresholdMm: ptrFloat64(defaultDragThresholdMm),
		TickInterval:    ptrString(defaultTickInterval.String()),
		WallWidthMm:     ptrFloat64(defaultWallWidthMm),
		LengthUnit:      ptrString(units.MM),
		ObjectWidthsMm:  append([]float64(nil), defaultObjectWidthsMm...),
		TargetWidthsMm:  append([]float64(nil), defaultTargetWidthsMm...),
		DistancesMm:     append([]float64(nil), defaultDistancesMm...),
		Straightness:    append([]string(nil), defaultStraightness...),
		Blocks:          ptrInt(defaultBlocks),
		Repetitions:     ptrInt(defaultRepetitions),
		MaxErrorRetries: ptrInt(defaultMaxErrorRetries),
		RepeatMissed:    ptrBool(false),
		MaxMissRepeats:  ptrInt(defaultMaxMissRepeats),
	}
}

// LoadExperimentConfig loads an ExperimentConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted
// from the file fall back to their defaults, so partial configs are safe.
func LoadExperimentConfig(path string) (*ExperimentConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyExperimentConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and its parents. Panics if the file
// cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *ExperimentConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from internal/storage/sqlite/
	}
	for _, path := range candidates {
		if cfg, err := LoadExperimentConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *ExperimentConfig) Validate() error {
	if c.DPI != nil && *c.DPI <= 0 {
		return fmt.Errorf("dpi must be positive, got %f", *c.DPI)
	}
	if c.DragThresholdMm != nil && *c.DragThresholdMm < 0 {
		return fmt.Errorf("drag_threshold_mm must be non-negative, got %f", *c.DragThresholdMm)
	}
	if c.WallWidthMm != nil && *c.WallWidthMm <= 0 {
		return fmt.Errorf("wall_width_mm must be positive, got %f", *c.WallWidthMm)
	}

	if c.TickInterval != nil && *c.TickInterval != "" {
		d, err := time.ParseDuration(*c.TickInterval)
		if err != nil {
			return fmt.Errorf("invalid tick_interval '%s': %w", *c.TickInterval, err)
		}
		if d <= 0 {
			return fmt.Errorf("tick_interval must be positive, got %s", d)
		}
	}

	if c.LengthUnit != nil && !units.IsValid(*c.LengthUnit) {
		return fmt.Errorf("invalid length_unit '%s': must be one of: %s", *c.LengthUnit, units.GetValidUnitsString())
	}

	lists := []struct {
		name   string
		values []float64
	}{
		{"object_widths_mm", c.ObjectWidthsMm},
		{"target_widths_mm", c.TargetWidthsMm},
		{"distances_mm", c.DistancesMm},
	}
	for _, l := range lists {
		for _, v := range l.values {
			if v <= 0 {
				return fmt.Errorf("%s must hold positive values, got %f", l.name, v)
			}
		}
	}

	for _, s := range c.Straightness {
		if _, err := trial.ParseStraightness(s); err != nil {
			return fmt.Errorf("invalid straightness: %w", err)
		}
	}

	if c.Blocks != nil && *c.Blocks < 1 {
		return fmt.Errorf("blocks must be at least 1, got %d", *c.Blocks)
	}
	if c.Repetitions != nil && *c.Repetitions < 1 {
		return fmt.Errorf("repetitions must be at least 1, got %d", *c.Repetitions)
	}
	if c.MaxErrorRetries != nil && *c.MaxErrorRetries < 0 {
		return fmt.Errorf("max_error_retries must be non-negative, got %d", *c.MaxErrorRetries)
	}
	if c.MaxMissRepeats != nil && *c.MaxMissRepeats < 0 {
		return fmt.Errorf("max_miss_repeats must be non-negative, got %d", *c.MaxMissRepeats)
	}

	return nil
}

// GetDPI returns the display resolution or the default.
func (c *ExperimentConfig) GetDPI() float64 {
	if c.DPI == nil {
		return defaultDPI
	}
	return *c.DPI
}

// GetDragThresholdMm returns the drag threshold or the default.
func (c *ExperimentConfig) GetDragThresholdMm() float64 {
	if c.DragThresholdMm == nil {
		return defaultDragThresholdMm
	}
	return *c.DragThresholdMm
}

// GetTickInterval parses and returns the TickInterval as a time.Duration.
func (c *ExperimentConfig) GetTickInterval() time.Duration {
	if c.TickInterval == nil || *c.TickInterval == "" {
		return defaultTickInterval
	}
	d, err := time.ParseDuration(*c.TickInterval)
	if err != nil || d <= 0 {
		return defaultTickInterval // default on parse error
	}
	return d
}

// GetWallWidthMm returns the tunnel wall thickness or the default.
func (c *ExperimentConfig) GetWallWidthMm() float64 {
	if c.WallWidthMm == nil {
		return defaultWallWidthMm
	}
	return *c.WallWidthMm
}

// GetLengthUnit returns the unit of the factor level lists, or "mm".
func (c *ExperimentConfig) GetLengthUnit() string {
	if c.LengthUnit == nil || *c.LengthUnit == "" {
		return units.MM
	}
	return *c.LengthUnit
}

// levelsMm converts configured levels to millimetres at the configured
// DPI. Defaults are already in millimetres.
func (c *ExperimentConfig) levelsMm(v, def []float64) []float64 {
	if len(v) == 0 {
		return append([]float64(nil), def...)
	}
	conv := units.NewConverter(c.GetDPI())
	unit := c.GetLengthUnit()
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = conv.ConvertLength(x, unit)
	}
	return out
}

// GetObjectWidthsMm returns the object width levels in millimetres, or
// the defaults.
func (c *ExperimentConfig) GetObjectWidthsMm() []float64 {
	return c.levelsMm(c.ObjectWidthsMm, defaultObjectWidthsMm)
}

// GetTargetWidthsMm returns the target width levels in millimetres, or
// the defaults.
func (c *ExperimentConfig) GetTargetWidthsMm() []float64 {
	return c.levelsMm(c.TargetWidthsMm, defaultTargetWidthsMm)
}

// GetDistancesMm returns the distance levels in millimetres, or the
// defaults.
func (c *ExperimentConfig) GetDistancesMm() []float64 {
	return c.levelsMm(c.DistancesMm, defaultDistancesMm)
}

// GetStraightness returns the straightness categories. Unknown names are
// skipped; Validate reports them.
func (c *ExperimentConfig) GetStraightness() []trial.Straightness {
	names := c.Straightness
	if len(names) == 0 {
		names = defaultStraightness
	}
	out := make([]trial.Straightness, 0, len(names))
	for _, n := range names {
		if s, err := trial.ParseStraightness(n); err == nil {
			out = append(out, s)
		}
	}
	return out
}

// GetBlocks returns the number of blocks or the default.
func (c *ExperimentConfig) GetBlocks() int {
	if c.Blocks == nil {
		return defaultBlocks
	}
	return *c.Blocks
}

// GetRepetitions returns the repetitions per factor combination per block.
func (c *ExperimentConfig) GetRepetitions() int {
	if c.Repetitions == nil {
		return defaultRepetitions
	}
	return *c.Repetitions
}

// GetMaxErrorRetries returns how often an errored trial is retried before
// it is recorded as an error and skipped.
func (c *ExperimentConfig) GetMaxErrorRetries() int {
	if c.MaxErrorRetries == nil {
		return defaultMaxErrorRetries
	}
	return *c.MaxErrorRetries
}

// GetRepeatMissed reports whether missed trials are re-queued at the end
// of their block.
func (c *ExperimentConfig) GetRepeatMissed() bool {
	if c.RepeatMissed == nil {
		return false
	}
	return *c.RepeatMissed
}

// GetMaxMissRepeats returns how often a missed trial is re-queued before
// it is skipped. Only used when repeat_missed is set.
func (c *ExperimentConfig) GetMaxMissRepeats() int {
	if c.MaxMissRepeats == nil {
		return defaultMaxMissRepeats
	}
	return *c.MaxMissRepeats
}

// GetSeed returns the sequencing seed and whether one was configured.
func (c *ExperimentConfig) GetSeed() (uint64, bool) {
	if c.Seed == nil {
		return 0, false
	}
	return *c.Seed, true
}
