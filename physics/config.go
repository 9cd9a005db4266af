package physics

import (
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
)

// MinMass is the smallest mass a Dynamic body is given.
const MinMass = 1e-4

// Config holds world-wide simulation settings. The zero value is not usable;
// start from DefaultConfig.
type Config struct {
	Gravity    cp.Vector `yaml:"gravity"`
	Iterations int       `yaml:"iterations"`
	Damping    float64   `yaml:"damping"`
	// MaxStepDelta caps a single Step so a long hitch does not explode the solver.
	MaxStepDelta float64 `yaml:"max_step_delta"`

	// Shape casts advance in sub-steps no longer than CastStepRatio times the
	// cast shape's smallest extent, and never shorter than MinCastStep.
	CastStepRatio  float64 `yaml:"cast_step_ratio"`
	MinCastStep    float64 `yaml:"min_cast_step"`
	CastIterations int     `yaml:"cast_iterations"`
}

// DefaultConfig returns the default world settings (y-up, gravity pulling down).
func DefaultConfig() Config {
	return Config{
		Gravity:        cp.Vector{X: 0, Y: -981},
		Iterations:     10,
		Damping:        1,
		MaxStepDelta:   0.25,
		CastStepRatio:  0.5,
		MinCastStep:    0.5,
		CastIterations: 16,
	}
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	switch {
	case !finite(c.Gravity.X) || !finite(c.Gravity.Y):
		return fmt.Errorf("%w: gravity must be finite", ErrInvalidConfig)
	case c.Iterations < 1:
		return fmt.Errorf("%w: iterations must be at least 1, got %d", ErrInvalidConfig, c.Iterations)
	case !(c.Damping > 0 && c.Damping <= 1):
		return fmt.Errorf("%w: damping must be in (0,1], got %v", ErrInvalidConfig, c.Damping)
	case !(c.MaxStepDelta > 0):
		return fmt.Errorf("%w: max_step_delta must be positive", ErrInvalidConfig)
	case !(c.CastStepRatio > 0 && c.CastStepRatio <= 1):
		return fmt.Errorf("%w: cast_step_ratio must be in (0,1], got %v", ErrInvalidConfig, c.CastStepRatio)
	case !(c.MinCastStep > 0):
		return fmt.Errorf("%w: min_cast_step must be positive", ErrInvalidConfig)
	case c.CastIterations < 0:
		return fmt.Errorf("%w: cast_iterations must not be negative", ErrInvalidConfig)
	}
	return nil
}

// BodyConfig is the per-body configuration a node supplies when it is bound.
type BodyConfig struct {
	Mass        float64 `yaml:"mass"`
	Friction    float64 `yaml:"friction"`
	Restitution float64 `yaml:"restitution"`
	Layer       uint32  `yaml:"collision_layer"`
	Mask        uint32  `yaml:"collision_mask"`

	// Kinematic motion settings.
	SafeMargin    float64 `yaml:"safe_margin"`
	FloorMaxAngle float64 `yaml:"floor_max_angle"` // degrees
	MaxSlides     int     `yaml:"max_slides"`
	SnapDistance  float64 `yaml:"snap_distance"`

	// Dynamic only.
	GravityScale  float64 `yaml:"gravity_scale"`
	FixedRotation bool    `yaml:"fixed_rotation"`
}

// DefaultBodyConfig returns the defaults applied to every bound node.
func DefaultBodyConfig() BodyConfig {
	return BodyConfig{
		Mass:          1,
		Friction:      0.7,
		Restitution:   0,
		Layer:         1,
		Mask:          1,
		SafeMargin:    0.08,
		FloorMaxAngle: 45,
		MaxSlides:     4,
		SnapDistance:  4,
		GravityScale:  1,
	}
}

// Normalize clamps degenerate values to safe defaults. It returns one note per
// clamped field so callers can log them.
func (c BodyConfig) Normalize() (BodyConfig, []string) {
	def := DefaultBodyConfig()
	var notes []string
	if !(c.Mass > 0) || math.IsInf(c.Mass, 0) {
		notes = append(notes, fmt.Sprintf("mass %v clamped to %v", c.Mass, MinMass))
		c.Mass = MinMass
	} else if c.Mass < MinMass {
		c.Mass = MinMass
	}
	if !finite(c.Friction) || c.Friction < 0 {
		notes = append(notes, fmt.Sprintf("friction %v reset to %v", c.Friction, def.Friction))
		c.Friction = def.Friction
	}
	if !finite(c.Restitution) || c.Restitution < 0 {
		notes = append(notes, fmt.Sprintf("restitution %v reset to 0", c.Restitution))
		c.Restitution = 0
	}
	if !finite(c.SafeMargin) || c.SafeMargin < 0 {
		notes = append(notes, fmt.Sprintf("safe_margin %v reset to %v", c.SafeMargin, def.SafeMargin))
		c.SafeMargin = def.SafeMargin
	}
	if !finite(c.FloorMaxAngle) || c.FloorMaxAngle < 0 || c.FloorMaxAngle > 90 {
		notes = append(notes, fmt.Sprintf("floor_max_angle %v reset to %v", c.FloorMaxAngle, def.FloorMaxAngle))
		c.FloorMaxAngle = def.FloorMaxAngle
	}
	if c.MaxSlides < 1 {
		notes = append(notes, fmt.Sprintf("max_slides %d reset to %d", c.MaxSlides, def.MaxSlides))
		c.MaxSlides = def.MaxSlides
	}
	if !finite(c.SnapDistance) || c.SnapDistance < 0 {
		notes = append(notes, fmt.Sprintf("snap_distance %v reset to %v", c.SnapDistance, def.SnapDistance))
		c.SnapDistance = def.SnapDistance
	}
	if !finite(c.GravityScale) {
		notes = append(notes, fmt.Sprintf("gravity_scale %v reset to 1", c.GravityScale))
		c.GravityScale = 1
	}
	return c, notes
}

// FloorMaxAngleRadians returns the floor threshold in radians.
func (c BodyConfig) FloorMaxAngleRadians() float64 {
	return c.FloorMaxAngle * math.Pi / 180
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
