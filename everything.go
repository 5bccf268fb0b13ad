package physics

import "math"

const INFINITY = math.MaxFloat64

// contact impulses under this magnitude are not applied
const MIN_VELOCITY = 0.001

// cap on the angular velocity the bias impulse may add per step, in radians
const MAX_BIAS_ROTATION = math.Pi / 8

// a body pair keeps at most this many persistent contacts
const MAX_CONTACTS = 2

// scratch capacity of a space's query buffers
const INTERSECTION_QUERY_MAX = 2048

// BodyMode orders from least to most simulated. Modes above kinematic take
// part in islands and sleep.
type BodyMode int

const (
	BODY_MODE_STATIC BodyMode = iota
	BODY_MODE_KINEMATIC
	BODY_MODE_RIGID
	BODY_MODE_RIGID_LINEAR
)

var bodyModeNames = [...]string{"static", "kinematic", "rigid", "rigid_linear"}

func (m BodyMode) String() string {
	if m < 0 || int(m) >= len(bodyModeNames) {
		return "unknown"
	}
	return bodyModeNames[m]
}

func ParseBodyMode(name string) (BodyMode, bool) {
	for i, n := range bodyModeNames {
		if n == name {
			return BodyMode(i), true
		}
	}
	return 0, false
}

// CCDMode selects continuous collision detection for fast bodies.
type CCDMode int

const (
	CCD_MODE_DISABLED CCDMode = iota
	// cast a ray from the leading support point along the motion
	CCD_MODE_CAST_RAY
	// sweep the shape along the motion in the solver
	CCD_MODE_CAST_SHAPE
)

// AreaOverrideMode says how an area's gravity or damping combines with the
// areas evaluated after it.
type AreaOverrideMode int

const (
	AREA_OVERRIDE_DISABLED AreaOverrideMode = iota
	AREA_OVERRIDE_COMBINE
	AREA_OVERRIDE_COMBINE_REPLACE
	AREA_OVERRIDE_REPLACE
	AREA_OVERRIDE_REPLACE_COMBINE
)

var areaOverrideNames = [...]string{"disabled", "combine", "combine_replace", "replace", "replace_combine"}

func (m AreaOverrideMode) String() string {
	if m < 0 || int(m) >= len(areaOverrideNames) {
		return "unknown"
	}
	return areaOverrideNames[m]
}

func ParseAreaOverrideMode(name string) (AreaOverrideMode, bool) {
	for i, n := range areaOverrideNames {
		if n == name {
			return AreaOverrideMode(i), true
		}
	}
	return 0, false
}

// DampMode says whether a body's own damping adds to or replaces the
// damping of the areas it is in.
type DampMode int

const (
	DAMP_MODE_COMBINE DampMode = iota
	DAMP_MODE_REPLACE
)

// BodyState names the kinematic state SetState and State work on.
type BodyState int

const (
	BODY_STATE_TRANSFORM BodyState = iota
	BODY_STATE_LINEAR_VELOCITY
	BODY_STATE_ANGULAR_VELOCITY
	BODY_STATE_SLEEPING
	BODY_STATE_CAN_SLEEP
)

// MonitorStatus is reported to area monitor callbacks.
type MonitorStatus int

const (
	MONITOR_ADDED MonitorStatus = iota
	MONITOR_REMOVED
)

func (s MonitorStatus) String() string {
	if s == MONITOR_ADDED {
		return "added"
	}
	return "removed"
}
