package physics

import (
	"fmt"
	"log"
	"math"
)

// AreaMonitorCallback receives one event per body or area shape that
// entered or left an area shape during the last step.
type AreaMonitorCallback func(event MonitorEvent)

type monitorKey struct {
	obj       *CollisionObject
	shape     int
	areaShape int
}

type monitorEntry struct {
	key        monitorKey
	rid        RID
	instanceID uint64
	state      int
}

// monitorSet nets enter and exit counts per key, in first-seen order.
type monitorSet struct {
	index   map[monitorKey]int
	entries []monitorEntry
}

func (m *monitorSet) bump(obj *CollisionObject, shape, areaShape, delta int) {
	key := monitorKey{obj, shape, areaShape}
	if m.index == nil {
		m.index = map[monitorKey]int{}
	}
	i, ok := m.index[key]
	if !ok {
		i = len(m.entries)
		m.index[key] = i
		m.entries = append(m.entries, monitorEntry{key: key, rid: obj.rid, instanceID: obj.instanceID})
	}
	m.entries[i].state += delta
}

func (m *monitorSet) empty() bool {
	return len(m.entries) == 0
}

func (m *monitorSet) clear() {
	m.entries = m.entries[:0]
	for k := range m.index {
		delete(m.index, k)
	}
}

// Area is a region that reports what overlaps it and can override the
// gravity and damping of the bodies inside.
type Area struct {
	CollisionObject

	gravityOverride     AreaOverrideMode
	linearDampOverride  AreaOverrideMode
	angularDampOverride AreaOverrideMode

	gravity                  float64
	gravityVector            Vector
	gravityIsPoint           bool
	gravityPointUnitDistance float64

	linearDamp, angularDamp float64

	overridePriority int
	monitorable      bool

	monitorCallback     AreaMonitorCallback
	areaMonitorCallback AreaMonitorCallback

	monitoredBodies monitorSet
	monitoredAreas  monitorSet

	constraints []Constraint

	movedSlot        int
	monitorQuerySlot int
}

// NewArea returns a detached area with earth-like gravity pointing down
// the Y axis and no overrides.
func NewArea() *Area {
	area := &Area{
		gravity:          9.80665,
		gravityVector:    Vector{0, -1},
		linearDamp:       0.1,
		angularDamp:      1,
		movedSlot:        -1,
		monitorQuerySlot: -1,
	}
	area.init(OBJECT_AREA)
	area.CollisionObject.area = area
	area.static = true
	return area
}

func (area *Area) String() string {
	return fmt.Sprint("Area ", area.rid)
}

func (area *Area) SetSpace(space *Space) {
	if area.space == space {
		return
	}
	if area.space != nil {
		area.space.monitorQueries.remove(area)
		area.space.movedAreas.remove(area)
	}
	area.monitoredBodies.clear()
	area.monitoredAreas.clear()
	area.setSpace(space)
}

func (area *Area) SetTransform(xform Transform) {
	if area.space != nil {
		area.space.movedAreas.add(area)
	}
	area.setTransform(xform, true)
	area.setInvTransform(xform.Inverse())
}

func (area *Area) shapesChanged() {
	if area.space != nil {
		area.space.movedAreas.add(area)
	}
}

func (area *Area) GravityOverrideMode() AreaOverrideMode {
	return area.gravityOverride
}

func (area *Area) SetGravityOverrideMode(mode AreaOverrideMode) {
	area.gravityOverride = mode
	area.overridesChanged()
}

func (area *Area) LinearDampOverrideMode() AreaOverrideMode {
	return area.linearDampOverride
}

func (area *Area) SetLinearDampOverrideMode(mode AreaOverrideMode) {
	area.linearDampOverride = mode
	area.overridesChanged()
}

func (area *Area) AngularDampOverrideMode() AreaOverrideMode {
	return area.angularDampOverride
}

func (area *Area) SetAngularDampOverrideMode(mode AreaOverrideMode) {
	area.angularDampOverride = mode
	area.overridesChanged()
}

// SetOverrideMode sets gravity and both damping overrides at once.
func (area *Area) SetOverrideMode(mode AreaOverrideMode) {
	area.gravityOverride = mode
	area.linearDampOverride = mode
	area.angularDampOverride = mode
	area.overridesChanged()
}

func (area *Area) hasSpaceOverride() bool {
	return area.gravityOverride != AREA_OVERRIDE_DISABLED ||
		area.linearDampOverride != AREA_OVERRIDE_DISABLED ||
		area.angularDampOverride != AREA_OVERRIDE_DISABLED
}

// overridesChanged re-runs pairing so that bodies inside pick the area up.
func (area *Area) overridesChanged() {
	if area.space != nil {
		area.space.movedAreas.add(area)
	}
}

func (area *Area) Gravity() float64 {
	return area.gravity
}

func (area *Area) SetGravity(gravity float64) {
	area.gravity = gravity
}

func (area *Area) GravityVector() Vector {
	return area.gravityVector
}

func (area *Area) SetGravityVector(v Vector) {
	area.gravityVector = v
}

func (area *Area) IsGravityPoint() bool {
	return area.gravityIsPoint
}

// SetGravityPoint makes GravityVector a local point that attracts bodies.
func (area *Area) SetGravityPoint(enable bool) {
	area.gravityIsPoint = enable
}

func (area *Area) GravityPointUnitDistance() float64 {
	return area.gravityPointUnitDistance
}

// SetGravityPointUnitDistance sets the distance at which point gravity has
// its nominal strength. Zero disables falloff.
func (area *Area) SetGravityPointUnitDistance(d float64) {
	area.gravityPointUnitDistance = d
}

func (area *Area) LinearDamp() float64 {
	return area.linearDamp
}

func (area *Area) SetLinearDamp(damp float64) {
	area.linearDamp = damp
}

func (area *Area) AngularDamp() float64 {
	return area.angularDamp
}

func (area *Area) SetAngularDamp(damp float64) {
	area.angularDamp = damp
}

// Priority orders overlapping areas. Higher priorities are applied first.
func (area *Area) Priority() int {
	return area.overridePriority
}

func (area *Area) SetPriority(priority int) {
	area.overridePriority = priority
}

func (area *Area) IsMonitorable() bool {
	return area.monitorable
}

// SetMonitorable lets other areas' monitors see this area. It fails while
// the space is stepping.
func (area *Area) SetMonitorable(monitorable bool) error {
	if area.space != nil && area.space.locked {
		log.Println("SetMonitorable:", ErrSpaceLocked)
		return ErrSpaceLocked
	}
	if area.monitorable == monitorable {
		return nil
	}
	area.monitorable = monitorable
	area.setStatic(!monitorable)
	area.shapesChanged()
	return nil
}

func (area *Area) SetMonitorCallback(fn AreaMonitorCallback) error {
	if area.space != nil && area.space.locked {
		log.Println("SetMonitorCallback:", ErrSpaceLocked)
		return ErrSpaceLocked
	}
	area.unregisterShapes()
	area.monitorCallback = fn
	area.monitoredBodies.clear()
	area.monitoredAreas.clear()
	area.shapeChanged()
	return nil
}

func (area *Area) SetAreaMonitorCallback(fn AreaMonitorCallback) error {
	if area.space != nil && area.space.locked {
		log.Println("SetAreaMonitorCallback:", ErrSpaceLocked)
		return ErrSpaceLocked
	}
	area.unregisterShapes()
	area.areaMonitorCallback = fn
	area.monitoredBodies.clear()
	area.monitoredAreas.clear()
	area.shapeChanged()
	return nil
}

func (area *Area) hasMonitorCallback() bool {
	return area.monitorCallback != nil
}

func (area *Area) hasAreaMonitorCallback() bool {
	return area.areaMonitorCallback != nil
}

func (area *Area) addBodyToQuery(body *Body, bodyShape, areaShape int) {
	area.monitoredBodies.bump(&body.CollisionObject, bodyShape, areaShape, 1)
	area.queueMonitorUpdate()
}

func (area *Area) removeBodyFromQuery(body *Body, bodyShape, areaShape int) {
	area.monitoredBodies.bump(&body.CollisionObject, bodyShape, areaShape, -1)
	area.queueMonitorUpdate()
}

func (area *Area) addAreaToQuery(other *Area, otherShape, areaShape int) {
	area.monitoredAreas.bump(&other.CollisionObject, otherShape, areaShape, 1)
	area.queueMonitorUpdate()
}

func (area *Area) removeAreaFromQuery(other *Area, otherShape, areaShape int) {
	area.monitoredAreas.bump(&other.CollisionObject, otherShape, areaShape, -1)
	area.queueMonitorUpdate()
}

func (area *Area) queueMonitorUpdate() {
	if area.space != nil {
		area.space.monitorQueries.add(area)
	}
}

func (area *Area) addConstraint(c Constraint) {
	area.constraints = append(area.constraints, c)
}

func (area *Area) removeConstraint(c Constraint) {
	for i, ac := range area.constraints {
		if ac == c {
			area.constraints = append(area.constraints[:i], area.constraints[i+1:]...)
			return
		}
	}
}

// callQueries turns the net monitor counts of the step into events.
// Shapes that entered and left within the step report nothing.
func (area *Area) callQueries(events *eventQueue) {
	if area.monitorCallback != nil {
		queueMonitorEvents(events, area, &area.monitoredBodies, OBJECT_BODY)
	}
	area.monitoredBodies.clear()
	if area.areaMonitorCallback != nil {
		queueMonitorEvents(events, area, &area.monitoredAreas, OBJECT_AREA)
	}
	area.monitoredAreas.clear()
}

func queueMonitorEvents(events *eventQueue, area *Area, set *monitorSet, kind ObjectType) {
	for _, e := range set.entries {
		if e.state == 0 {
			continue
		}
		status := MONITOR_ADDED
		if e.state < 0 {
			status = MONITOR_REMOVED
		}
		ev := Event{Kind: EVENT_BODY_MONITOR, Area: area.rid, area: area}
		if kind == OBJECT_AREA {
			ev.Kind = EVENT_AREA_MONITOR
		}
		ev.Monitor = MonitorEvent{
			Status:      status,
			Object:      e.rid,
			InstanceID:  e.instanceID,
			ObjectShape: e.key.shape,
			AreaShape:   e.key.areaShape,
		}
		events.add(ev)
	}
}

// computeGravity is the gravity the area applies at a world position.
func (area *Area) computeGravity(position Vector) Vector {
	if !area.gravityIsPoint {
		return area.gravityVector.Mult(area.gravity)
	}
	v := area.transform.Point(area.gravityVector).Sub(position)
	if area.gravityPointUnitDistance > 0 {
		distSq := v.LengthSq()
		if distSq > 0 {
			strength := area.gravity * math.Pow(area.gravityPointUnitDistance, 2) / distSq
			return v.Normalize().Mult(strength)
		}
		return Vector{}
	}
	return v.Normalize().Mult(area.gravity)
}
