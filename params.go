package physics

import (
	"fmt"
	"log"
	"math"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// SpaceParams tunes the solver of one space. Lengths are in world units,
// velocities in units per second, times in seconds.
type SpaceParams struct {
	SolverIterations int `yaml:"solver_iterations"`
	// Workers bounds the goroutines used by a step. Zero uses GOMAXPROCS.
	Workers int `yaml:"workers"`

	ContactRecycleRadius         float64 `yaml:"contact_recycle_radius"`
	ContactMaxSeparation         float64 `yaml:"contact_max_separation"`
	ContactMaxAllowedPenetration float64 `yaml:"contact_max_allowed_penetration"`
	ContactDefaultBias           float64 `yaml:"contact_default_bias"`
	ConstraintDefaultBias        float64 `yaml:"constraint_default_bias"`

	SleepThresholdLinear  float64 `yaml:"sleep_threshold_linear"`
	SleepThresholdAngular float64 `yaml:"sleep_threshold_angular"`
	TimeBeforeSleep       float64 `yaml:"time_before_sleep"`

	DefaultGravity       float64 `yaml:"default_gravity"`
	DefaultGravityVector Vector  `yaml:"default_gravity_vector"`
	DefaultLinearDamp    float64 `yaml:"default_linear_damp"`
	DefaultAngularDamp   float64 `yaml:"default_angular_damp"`

	// body motion recovery
	RecoveryDamping       float64 `yaml:"recovery_damping"`
	MinContactDepthFactor float64 `yaml:"min_contact_depth_factor"`
	TestMotionMinMargin   float64 `yaml:"test_motion_min_margin"`
}

// DefaultSpaceParams are tuned for bodies about a unit across, with gravity
// pulling down the Y axis.
func DefaultSpaceParams() SpaceParams {
	return SpaceParams{
		SolverIterations: 16,

		ContactRecycleRadius:         0.01,
		ContactMaxSeparation:         0.05,
		ContactMaxAllowedPenetration: 0.01,
		ContactDefaultBias:           0.8,
		ConstraintDefaultBias:        0.2,

		SleepThresholdLinear:  0.1,
		SleepThresholdAngular: 8 * math.Pi / 180,
		TimeBeforeSleep:       0.5,

		DefaultGravity:       9.80665,
		DefaultGravityVector: Vector{0, -1},
		DefaultLinearDamp:    0.1,
		DefaultAngularDamp:   1,

		RecoveryDamping:       0.4,
		MinContactDepthFactor: 0.05,
		TestMotionMinMargin:   0.0001,
	}
}

// LoadSpaceParams reads params from a YAML file. Keys missing from the file
// keep their default.
func LoadSpaceParams(filename string) (SpaceParams, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return SpaceParams{}, fmt.Errorf("physics: load %s: %w", filename, err)
	}
	params, err := ParseSpaceParams(data)
	if err != nil {
		return SpaceParams{}, fmt.Errorf("physics: %s: %w", filename, err)
	}
	return params, nil
}

func ParseSpaceParams(data []byte) (SpaceParams, error) {
	params := DefaultSpaceParams()
	if err := yaml.Unmarshal(data, &params); err != nil {
		return SpaceParams{}, fmt.Errorf("unmarshal space params: %w", err)
	}
	if err := params.Validate(); err != nil {
		return SpaceParams{}, err
	}
	return params, nil
}

// Validate rejects values the solver cannot run with.
func (p SpaceParams) Validate() error {
	switch {
	case p.SolverIterations < 1:
		return fmt.Errorf("solver_iterations %d: %w", p.SolverIterations, ErrInvalidParameter)
	case p.Workers < 0:
		return fmt.Errorf("workers %d: %w", p.Workers, ErrInvalidParameter)
	case p.ContactRecycleRadius < 0, p.ContactMaxSeparation < 0, p.ContactMaxAllowedPenetration < 0:
		return fmt.Errorf("contact distances must not be negative: %w", ErrInvalidParameter)
	case p.TimeBeforeSleep < 0:
		return fmt.Errorf("time_before_sleep %v: %w", p.TimeBeforeSleep, ErrInvalidParameter)
	}
	return nil
}

func (p SpaceParams) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// UnmarshalYAML accepts a vector as [x, y] or as {x: .., y: ..}.
func (v *Vector) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var xy []float64
		if err := value.Decode(&xy); err != nil {
			return err
		}
		if len(xy) != 2 {
			return fmt.Errorf("vector needs 2 components, got %d", len(xy))
		}
		v.X, v.Y = xy[0], xy[1]
		return nil
	case yaml.MappingNode:
		var xy struct {
			X float64 `yaml:"x"`
			Y float64 `yaml:"y"`
		}
		if err := value.Decode(&xy); err != nil {
			return err
		}
		v.X, v.Y = xy.X, xy.Y
		return nil
	}
	return fmt.Errorf("line %d: vector must be a sequence or a mapping", value.Line)
}

// ParamKind names a single solver parameter for SetParam and Param.
type ParamKind int

const (
	SPACE_PARAM_CONTACT_RECYCLE_RADIUS ParamKind = iota
	SPACE_PARAM_CONTACT_MAX_SEPARATION
	SPACE_PARAM_CONTACT_MAX_ALLOWED_PENETRATION
	SPACE_PARAM_CONTACT_DEFAULT_BIAS
	SPACE_PARAM_BODY_LINEAR_VELOCITY_SLEEP_THRESHOLD
	SPACE_PARAM_BODY_ANGULAR_VELOCITY_SLEEP_THRESHOLD
	SPACE_PARAM_BODY_TIME_TO_SLEEP
	SPACE_PARAM_CONSTRAINT_DEFAULT_BIAS
	SPACE_PARAM_SOLVER_ITERATIONS
)

func (space *Space) SetParam(kind ParamKind, value float64) error {
	p := &space.params
	switch kind {
	case SPACE_PARAM_CONTACT_RECYCLE_RADIUS:
		p.ContactRecycleRadius = value
	case SPACE_PARAM_CONTACT_MAX_SEPARATION:
		p.ContactMaxSeparation = value
	case SPACE_PARAM_CONTACT_MAX_ALLOWED_PENETRATION:
		p.ContactMaxAllowedPenetration = value
	case SPACE_PARAM_CONTACT_DEFAULT_BIAS:
		p.ContactDefaultBias = value
	case SPACE_PARAM_BODY_LINEAR_VELOCITY_SLEEP_THRESHOLD:
		p.SleepThresholdLinear = value
	case SPACE_PARAM_BODY_ANGULAR_VELOCITY_SLEEP_THRESHOLD:
		p.SleepThresholdAngular = value
	case SPACE_PARAM_BODY_TIME_TO_SLEEP:
		p.TimeBeforeSleep = value
	case SPACE_PARAM_CONSTRAINT_DEFAULT_BIAS:
		p.ConstraintDefaultBias = value
	case SPACE_PARAM_SOLVER_ITERATIONS:
		if value < 1 {
			log.Println("SetParam: solver iterations must be at least 1, got", value)
			return fmt.Errorf("solver iterations %v: %w", value, ErrInvalidParameter)
		}
		p.SolverIterations = int(value)
	default:
		return fmt.Errorf("param kind %d: %w", kind, ErrInvalidParameter)
	}
	return nil
}

func (space *Space) Param(kind ParamKind) float64 {
	p := &space.params
	switch kind {
	case SPACE_PARAM_CONTACT_RECYCLE_RADIUS:
		return p.ContactRecycleRadius
	case SPACE_PARAM_CONTACT_MAX_SEPARATION:
		return p.ContactMaxSeparation
	case SPACE_PARAM_CONTACT_MAX_ALLOWED_PENETRATION:
		return p.ContactMaxAllowedPenetration
	case SPACE_PARAM_CONTACT_DEFAULT_BIAS:
		return p.ContactDefaultBias
	case SPACE_PARAM_BODY_LINEAR_VELOCITY_SLEEP_THRESHOLD:
		return p.SleepThresholdLinear
	case SPACE_PARAM_BODY_ANGULAR_VELOCITY_SLEEP_THRESHOLD:
		return p.SleepThresholdAngular
	case SPACE_PARAM_BODY_TIME_TO_SLEEP:
		return p.TimeBeforeSleep
	case SPACE_PARAM_CONSTRAINT_DEFAULT_BIAS:
		return p.ConstraintDefaultBias
	case SPACE_PARAM_SOLVER_ITERATIONS:
		return float64(p.SolverIterations)
	}
	return 0
}
