package physics

import (
	"fmt"
	"log"
	"math"
	"sort"
)

// BodyContact is one contact reported to a body with a positive
// MaxContactsReported. Positions are in world space.
type BodyContact struct {
	LocalPosition      Vector
	LocalNormal        Vector
	Depth              float64
	LocalShape         int
	ColliderPosition   Vector
	ColliderShape      int
	ColliderInstanceID uint64
	Collider           RID
	ColliderVelocity   Vector
}

// BodyCallback receives the direct state of a body once per step, after
// the step and outside of it.
type BodyCallback func(state *DirectBodyState)

type bodyConstraint struct {
	c     Constraint
	index int
}

type bodyArea struct {
	area  *Area
	count int
}

type Body struct {
	CollisionObject

	mode BodyMode

	mass, invMass       float64
	inertia, invInertia float64

	calculateInertia      bool
	calculateCenterOfMass bool
	centerOfMassLocal     Vector
	// center of mass offset from the origin, in world orientation
	centerOfMass Vector

	linearVelocity  Vector
	angularVelocity float64

	prevLinearVelocity  Vector
	prevAngularVelocity float64

	// "pseudo-velocities" used for eliminating overlap
	biasedLinearVelocity  Vector
	biasedAngularVelocity float64

	bounce, friction float64
	gravityScale     float64

	linearDamp, angularDamp           float64
	linearDampMode, angularDampMode   DampMode
	totalLinearDamp, totalAngularDamp float64
	gravity                           Vector

	constantForce  Vector
	constantTorque float64
	appliedForce   Vector
	appliedTorque  float64

	stillTime            float64
	canSleep             bool
	active               bool
	omitForceIntegration bool

	// target transform of a kinematic body, previous transform of a CCD body
	newTransform       Transform
	firstTimeKinematic bool
	ccdMode            CCDMode

	exceptions  []*Body
	constraints []bodyConstraint
	islandStep  uint64

	areas []bodyArea

	contacts           []BodyContact
	contactCount       int
	contactsDepthLimit float64

	stateCallback            BodyCallback
	forceIntegrationCallback BodyCallback
	directState              DirectBodyState

	activeSlot     int
	massUpdateSlot int
	stateQuerySlot int
}

// NewBody returns a detached rigid body of mass 1 whose inertia and center
// of mass follow its shapes.
func NewBody() *Body {
	body := &Body{
		mode:                  BODY_MODE_RIGID,
		mass:                  1,
		invMass:               1,
		calculateInertia:      true,
		calculateCenterOfMass: true,
		friction:              1,
		gravityScale:          1,
		canSleep:              true,
		active:                true,
		newTransform:          NewTransformIdentity(),
		activeSlot:            -1,
		massUpdateSlot:        -1,
		stateQuerySlot:        -1,
	}
	body.init(OBJECT_BODY)
	body.CollisionObject.body = body
	body.directState.body = body
	return body
}

func (body *Body) String() string {
	return fmt.Sprint("Body ", body.rid)
}

func (body *Body) Mode() BodyMode {
	return body.mode
}

func (body *Body) SetMode(mode BodyMode) {
	prev := body.mode
	body.mode = mode

	switch mode {
	case BODY_MODE_STATIC, BODY_MODE_KINEMATIC:
		body.setInvTransform(body.transform.Inverse())
		body.invMass = 0
		body.invInertia = 0
		body.setStatic(mode == BODY_MODE_STATIC)
		body.setActive(mode == BODY_MODE_KINEMATIC && body.contactCount > 0)
		body.linearVelocity = Vector{}
		body.angularVelocity = 0
		if mode == BODY_MODE_KINEMATIC && prev != mode {
			body.firstTimeKinematic = true
		}
	case BODY_MODE_RIGID:
		body.invMass = 0
		if body.mass > 0 {
			body.invMass = 1 / body.mass
		}
		if !body.calculateInertia {
			body.invInertia = 0
			if body.inertia > 0 {
				body.invInertia = 1 / body.inertia
			}
		}
		body.massPropertiesChanged()
		body.setStatic(false)
		body.setActive(true)
	case BODY_MODE_RIGID_LINEAR:
		body.invMass = 0
		if body.mass > 0 {
			body.invMass = 1 / body.mass
		}
		body.invInertia = 0
		body.angularVelocity = 0
		body.setStatic(false)
		body.setActive(true)
	}
}

// SetSpace moves the body into space, or out of any space when nil.
func (body *Body) SetSpace(space *Space) {
	if body.space == space {
		return
	}
	if body.space != nil {
		body.space.massUpdates.remove(body)
		body.space.activeBodies.remove(body)
		body.space.stateQueries.remove(body)
		body.clearConstraints()
	}
	body.setSpace(space)
	if space != nil {
		body.massPropertiesChanged()
		if body.active {
			space.activeBodies.add(body)
		}
	}
}

func (body *Body) Mass() float64 {
	return body.mass
}

func (body *Body) SetMass(mass float64) error {
	if mass <= 0 {
		log.Println("SetMass:", ErrInvalidParameter, mass)
		return fmt.Errorf("mass %v: %w", mass, ErrInvalidParameter)
	}
	body.mass = mass
	if body.mode >= BODY_MODE_RIGID {
		body.invMass = 1 / mass
		body.massPropertiesChanged()
	}
	return nil
}

func (body *Body) Inertia() float64 {
	return body.inertia
}

// SetInertia fixes the moment of inertia. Zero or less returns to the value
// computed from the shapes.
func (body *Body) SetInertia(inertia float64) {
	if inertia <= 0 {
		body.calculateInertia = true
		body.massPropertiesChanged()
		return
	}
	body.calculateInertia = false
	body.inertia = inertia
	if body.mode == BODY_MODE_RIGID {
		body.invInertia = 1 / inertia
	}
}

func (body *Body) InvMass() float64 {
	return body.invMass
}

func (body *Body) InvInertia() float64 {
	return body.invInertia
}

// CenterOfMass is in body-local coordinates.
func (body *Body) CenterOfMass() Vector {
	return body.centerOfMassLocal
}

func (body *Body) SetCenterOfMass(local Vector) {
	body.calculateCenterOfMass = false
	body.centerOfMassLocal = local
	body.updateTransformDependent()
}

// ResetMassProperties goes back to inertia and center of mass computed
// from the shapes.
func (body *Body) ResetMassProperties() {
	body.calculateInertia = true
	body.calculateCenterOfMass = true
	body.massPropertiesChanged()
}

func (body *Body) Bounce() float64 {
	return body.bounce
}

func (body *Body) SetBounce(bounce float64) {
	body.bounce = bounce
}

func (body *Body) Friction() float64 {
	return body.friction
}

func (body *Body) SetFriction(friction float64) {
	body.friction = friction
}

func (body *Body) GravityScale() float64 {
	return body.gravityScale
}

func (body *Body) SetGravityScale(scale float64) {
	body.gravityScale = scale
}

func (body *Body) LinearDamp() float64 {
	return body.linearDamp
}

func (body *Body) SetLinearDamp(damp float64, mode DampMode) {
	body.linearDamp = damp
	body.linearDampMode = mode
}

func (body *Body) AngularDamp() float64 {
	return body.angularDamp
}

func (body *Body) SetAngularDamp(damp float64, mode DampMode) {
	body.angularDamp = damp
	body.angularDampMode = mode
}

func (body *Body) LinearVelocity() Vector {
	return body.linearVelocity
}

func (body *Body) SetLinearVelocity(v Vector) {
	body.SetState(BODY_STATE_LINEAR_VELOCITY, v)
}

func (body *Body) AngularVelocity() float64 {
	return body.angularVelocity
}

func (body *Body) SetAngularVelocity(w float64) {
	body.SetState(BODY_STATE_ANGULAR_VELOCITY, w)
}

func (body *Body) SetTransform(xform Transform) {
	body.SetState(BODY_STATE_TRANSFORM, xform)
}

func (body *Body) Position() Vector {
	return body.transform.Origin()
}

func (body *Body) Rotation() float64 {
	return body.transform.Rotation()
}

func (body *Body) IsActive() bool {
	return body.active
}

func (body *Body) IsSleeping() bool {
	return !body.active
}

func (body *Body) CanSleep() bool {
	return body.canSleep
}

func (body *Body) SetCanSleep(canSleep bool) {
	body.SetState(BODY_STATE_CAN_SLEEP, canSleep)
}

// SetState writes one piece of kinematic state. Transforms of kinematic
// bodies take effect at the next step, which derives the body's velocity
// from the move.
func (body *Body) SetState(state BodyState, value interface{}) error {
	switch state {
	case BODY_STATE_TRANSFORM:
		xform, ok := value.(Transform)
		if !ok {
			return fmt.Errorf("transform state %T: %w", value, ErrInvalidParameter)
		}
		switch body.mode {
		case BODY_MODE_KINEMATIC:
			body.newTransform = xform
			body.setActive(true)
			if body.firstTimeKinematic {
				body.setTransform(xform, true)
				body.setInvTransform(xform.Inverse())
				body.firstTimeKinematic = false
			}
		case BODY_MODE_STATIC:
			body.setTransform(xform, true)
			body.setInvTransform(xform.Inverse())
			body.wakeupNeighbours()
		default:
			body.newTransform = body.transform
			if xform == body.transform {
				break
			}
			body.setTransform(xform, true)
			body.setInvTransform(xform.Inverse())
			body.updateTransformDependent()
		}
		body.wakeup()
	case BODY_STATE_LINEAR_VELOCITY:
		v, ok := value.(Vector)
		if !ok {
			return fmt.Errorf("linear velocity state %T: %w", value, ErrInvalidParameter)
		}
		if body.mode == BODY_MODE_STATIC {
			return nil
		}
		body.linearVelocity = v
		body.wakeup()
	case BODY_STATE_ANGULAR_VELOCITY:
		w, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("angular velocity state %T: %w", value, ErrInvalidParameter)
		}
		if body.mode == BODY_MODE_STATIC {
			return nil
		}
		body.angularVelocity = w
		body.wakeup()
	case BODY_STATE_SLEEPING:
		sleep, ok := value.(bool)
		if !ok {
			return fmt.Errorf("sleeping state %T: %w", value, ErrInvalidParameter)
		}
		if body.mode <= BODY_MODE_KINEMATIC {
			return nil
		}
		if sleep {
			body.linearVelocity = Vector{}
			body.angularVelocity = 0
			body.setActive(false)
		} else {
			body.setActive(true)
		}
	case BODY_STATE_CAN_SLEEP:
		can, ok := value.(bool)
		if !ok {
			return fmt.Errorf("can sleep state %T: %w", value, ErrInvalidParameter)
		}
		body.canSleep = can
		if body.mode >= BODY_MODE_RIGID && !body.active && !can {
			body.setActive(true)
		}
	default:
		return fmt.Errorf("body state %d: %w", state, ErrInvalidParameter)
	}
	return nil
}

func (body *Body) State(state BodyState) interface{} {
	switch state {
	case BODY_STATE_TRANSFORM:
		return body.transform
	case BODY_STATE_LINEAR_VELOCITY:
		return body.linearVelocity
	case BODY_STATE_ANGULAR_VELOCITY:
		return body.angularVelocity
	case BODY_STATE_SLEEPING:
		return !body.active
	case BODY_STATE_CAN_SLEEP:
		return body.canSleep
	}
	return nil
}

func (body *Body) ApplyCentralImpulse(impulse Vector) {
	body.wakeup()
	body.linearVelocity = body.linearVelocity.Add(impulse.Mult(body.invMass))
}

// ApplyImpulse applies impulse at position, an offset from the body origin
// in world orientation.
func (body *Body) ApplyImpulse(impulse, position Vector) {
	body.wakeup()
	body.applyImpulse(impulse, position)
}

func (body *Body) ApplyTorqueImpulse(torque float64) {
	body.wakeup()
	body.angularVelocity += body.invInertia * torque
}

func (body *Body) ApplyCentralForce(force Vector) {
	body.wakeup()
	body.appliedForce = body.appliedForce.Add(force)
}

func (body *Body) ApplyForce(force, position Vector) {
	body.wakeup()
	body.appliedForce = body.appliedForce.Add(force)
	body.appliedTorque += position.Sub(body.centerOfMass).Cross(force)
}

func (body *Body) ApplyTorque(torque float64) {
	body.wakeup()
	body.appliedTorque += torque
}

func (body *Body) AddConstantCentralForce(force Vector) {
	body.wakeup()
	body.constantForce = body.constantForce.Add(force)
}

func (body *Body) AddConstantForce(force, position Vector) {
	body.wakeup()
	body.constantForce = body.constantForce.Add(force)
	body.constantTorque += position.Sub(body.centerOfMass).Cross(force)
}

func (body *Body) AddConstantTorque(torque float64) {
	body.wakeup()
	body.constantTorque += torque
}

func (body *Body) ConstantForce() Vector {
	return body.constantForce
}

func (body *Body) SetConstantForce(force Vector) {
	body.constantForce = force
	body.wakeup()
}

func (body *Body) ConstantTorque() float64 {
	return body.constantTorque
}

func (body *Body) SetConstantTorque(torque float64) {
	body.constantTorque = torque
	body.wakeup()
}

// SetAxisVelocity replaces the velocity component along v with v itself.
func (body *Body) SetAxisVelocity(v Vector) {
	lv := body.linearVelocity
	axis := v.Normalize()
	lv = lv.Sub(axis.Mult(axis.Dot(lv))).Add(v)
	body.linearVelocity = lv
	body.wakeup()
}

func (body *Body) applyImpulse(impulse, position Vector) {
	body.linearVelocity = body.linearVelocity.Add(impulse.Mult(body.invMass))
	body.angularVelocity += body.invInertia * position.Sub(body.centerOfMass).Cross(impulse)
}

// applyBiasImpulse moves the pseudo-velocities. A non-zero maxDeltaAV
// bounds the angular change.
func (body *Body) applyBiasImpulse(impulse, position Vector, maxDeltaAV float64) {
	body.biasedLinearVelocity = body.biasedLinearVelocity.Add(impulse.Mult(body.invMass))
	if maxDeltaAV == 0 {
		return
	}
	deltaAV := body.invInertia * position.Sub(body.centerOfMass).Cross(impulse)
	body.biasedAngularVelocity += Clamp(deltaAV, -maxDeltaAV, maxDeltaAV)
}

// velocityAt is the velocity of the world point offset rel from the
// center of mass.
func (body *Body) velocityAt(rel Vector) Vector {
	return Vector{-body.angularVelocity * rel.Y, body.angularVelocity * rel.X}.Add(body.linearVelocity)
}

func (body *Body) AddCollisionException(other *Body) {
	if body.HasException(other) {
		return
	}
	body.exceptions = append(body.exceptions, other)
	body.wakeup()
}

func (body *Body) RemoveCollisionException(other *Body) {
	for i, e := range body.exceptions {
		if e == other {
			body.exceptions = append(body.exceptions[:i], body.exceptions[i+1:]...)
			return
		}
	}
}

func (body *Body) HasException(other *Body) bool {
	for _, e := range body.exceptions {
		if e == other {
			return true
		}
	}
	return false
}

func (body *Body) CollisionExceptions() []*Body {
	return append([]*Body(nil), body.exceptions...)
}

func (body *Body) ContinuousCollisionDetectionMode() CCDMode {
	return body.ccdMode
}

func (body *Body) SetContinuousCollisionDetectionMode(mode CCDMode) {
	body.ccdMode = mode
}

func (body *Body) IsOmittingForceIntegration() bool {
	return body.omitForceIntegration
}

// SetOmitForceIntegration leaves gravity, damping and forces to the force
// integration callback.
func (body *Body) SetOmitForceIntegration(omit bool) {
	body.omitForceIntegration = omit
}

func (body *Body) MaxContactsReported() int {
	return len(body.contacts)
}

func (body *Body) SetMaxContactsReported(n int) {
	if n < 0 {
		n = 0
	}
	body.contacts = make([]BodyContact, n)
	body.contactCount = 0
	if body.mode == BODY_MODE_KINEMATIC && n > 0 {
		body.setActive(true)
	}
}

func (body *Body) ContactsReportedDepthThreshold() float64 {
	return body.contactsDepthLimit
}

func (body *Body) SetContactsReportedDepthThreshold(threshold float64) {
	body.contactsDepthLimit = threshold
}

// Contacts are the contacts reported during the last step.
func (body *Body) Contacts() []BodyContact {
	return body.contacts[:body.contactCount]
}

func (body *Body) canReportContacts() bool {
	return len(body.contacts) > 0
}

// addContact keeps the deepest contacts once the report is full.
func (body *Body) addContact(c BodyContact) {
	max := len(body.contacts)
	if max == 0 {
		return
	}
	idx := -1
	if body.contactCount < max {
		idx = body.contactCount
		body.contactCount++
	} else {
		leastDepth := 1e20
		leastDeep := -1
		for i := 0; i < max; i++ {
			if i == 0 || body.contacts[i].Depth < leastDepth {
				leastDeep = i
				leastDepth = body.contacts[i].Depth
			}
		}
		if leastDeep >= 0 && leastDepth < c.Depth {
			idx = leastDeep
		}
		if idx == -1 {
			return
		}
	}
	body.contacts[idx] = c
}

// SetStateSyncCallback registers fn to be called with the body state after
// every step the body moved in.
func (body *Body) SetStateSyncCallback(fn BodyCallback) {
	body.stateCallback = fn
}

// SetForceIntegrationCallback registers fn to be called before the state
// sync callback, typically to apply custom forces.
func (body *Body) SetForceIntegrationCallback(fn BodyCallback) {
	body.forceIntegrationCallback = fn
}

// DirectState gives access to the body while the space is not stepping.
func (body *Body) DirectState() (*DirectBodyState, error) {
	if body.space != nil && body.space.locked {
		return nil, ErrSpaceLocked
	}
	return &body.directState, nil
}

func (body *Body) setActive(active bool) {
	if body.active == active {
		return
	}
	body.active = active
	if active {
		if body.mode == BODY_MODE_STATIC {
			body.active = false
		} else if body.space != nil {
			body.space.activeBodies.add(body)
		}
	} else if body.space != nil {
		body.space.activeBodies.remove(body)
	}
}

func (body *Body) wakeup() {
	if body.space == nil || body.mode <= BODY_MODE_KINEMATIC {
		return
	}
	body.setActive(true)
}

func (body *Body) wakeupNeighbours() {
	for _, bc := range body.constraints {
		for i, other := range bc.c.bodies() {
			if i == bc.index || other == nil || other.mode == BODY_MODE_STATIC {
				continue
			}
			if !other.active {
				other.setActive(true)
			}
		}
	}
}

func (body *Body) addConstraint(c Constraint, index int) {
	body.constraints = append(body.constraints, bodyConstraint{c, index})
}

func (body *Body) removeConstraint(c Constraint, index int) {
	for i, bc := range body.constraints {
		if bc.c == c && bc.index == index {
			body.constraints = append(body.constraints[:i], body.constraints[i+1:]...)
			return
		}
	}
}

// Constraints lists the joints attached to the body.
func (body *Body) Constraints() []Joint {
	var joints []Joint
	for _, bc := range body.constraints {
		if j, ok := bc.c.(Joint); ok {
			joints = append(joints, j)
		}
	}
	return joints
}

// clearConstraints detaches the joints from a body leaving its space.
// Pairs go away with the broad-phase entries.
func (body *Body) clearConstraints() {
	for _, j := range body.Constraints() {
		j.disconnect()
	}
}

func (body *Body) addArea(area *Area) {
	for i := range body.areas {
		if body.areas[i].area == area {
			body.areas[i].count++
			return
		}
	}
	body.areas = append(body.areas, bodyArea{area: area, count: 1})
	// stable so equal priorities keep their arrival order
	sort.SliceStable(body.areas, func(i, j int) bool {
		return body.areas[i].area.overridePriority < body.areas[j].area.overridePriority
	})
}

func (body *Body) removeArea(area *Area) {
	for i := range body.areas {
		if body.areas[i].area != area {
			continue
		}
		body.areas[i].count--
		if body.areas[i].count <= 0 {
			body.areas = append(body.areas[:i], body.areas[i+1:]...)
		}
		return
	}
}

// shapesChanged runs whenever a shape is added, removed or reconfigured.
func (body *Body) shapesChanged() {
	body.massPropertiesChanged()
	body.wakeup()
	body.wakeupNeighbours()
}

func (body *Body) massPropertiesChanged() {
	if body.space == nil || body.mode <= BODY_MODE_KINEMATIC {
		return
	}
	if body.calculateInertia || body.calculateCenterOfMass {
		body.space.massUpdates.add(body)
	}
}

// updateMassProperties spreads the mass over the enabled shapes by area.
func (body *Body) updateMassProperties() {
	switch body.mode {
	case BODY_MODE_RIGID:
		totalArea := 0.0
		for i := range body.shapes {
			if body.shapes[i].disabled {
				continue
			}
			totalArea += body.shapes[i].aabb.Area()
		}

		if body.calculateCenterOfMass {
			body.centerOfMassLocal = Vector{}
			if totalArea != 0 {
				for i := range body.shapes {
					if body.shapes[i].disabled {
						continue
					}
					m := body.shapes[i].aabb.Area() * body.mass / totalArea
					body.centerOfMassLocal = body.centerOfMassLocal.Add(body.shapes[i].xform.Origin().Mult(m))
				}
				body.centerOfMassLocal = body.centerOfMassLocal.Mult(1 / body.mass)
			}
		}

		if body.calculateInertia {
			body.inertia = 0
			for i := range body.shapes {
				s := &body.shapes[i]
				if s.disabled {
					continue
				}
				area := s.aabb.Area()
				if area == 0 {
					continue
				}
				m := area * body.mass / totalArea
				origin := s.xform.Origin().Sub(body.centerOfMassLocal)
				body.inertia += s.shape.MomentOfInertia(m, s.xform.Scale()) + m*origin.LengthSq()
			}
		}

		body.invInertia = 0
		if body.inertia > 0 {
			body.invInertia = 1 / body.inertia
		}
		body.invMass = 0
		if body.mass > 0 {
			body.invMass = 1 / body.mass
		}
	case BODY_MODE_STATIC, BODY_MODE_KINEMATIC:
		body.invInertia = 0
		body.invMass = 0
	case BODY_MODE_RIGID_LINEAR:
		body.invInertia = 0
		body.invMass = 1 / body.mass
	}
	body.updateTransformDependent()
}

func (body *Body) updateTransformDependent() {
	body.centerOfMass = body.transform.Vect(body.centerOfMassLocal)
}

// integrateForces applies gravity, damping and forces for one step.
// Overlapping areas are combined from the highest priority down.
func (body *Body) integrateForces(step float64) {
	if body.mode == BODY_MODE_STATIC {
		return
	}
	assert(body.space != nil, "integrating a body outside of a space")

	gravityDone, linearDampDone, angularDampDone := false, false, false
	stopped := false
	body.gravity = Vector{}
	body.totalLinearDamp = 0
	body.totalAngularDamp = 0
	origin := body.transform.Origin()

	for i := len(body.areas) - 1; i >= 0 && !stopped; i-- {
		area := body.areas[i].area
		if !gravityDone {
			switch mode := area.gravityOverride; mode {
			case AREA_OVERRIDE_COMBINE, AREA_OVERRIDE_COMBINE_REPLACE:
				body.gravity = body.gravity.Add(area.computeGravity(origin))
				gravityDone = mode == AREA_OVERRIDE_COMBINE_REPLACE
			case AREA_OVERRIDE_REPLACE, AREA_OVERRIDE_REPLACE_COMBINE:
				body.gravity = area.computeGravity(origin)
				gravityDone = mode == AREA_OVERRIDE_REPLACE
			}
		}
		if !linearDampDone {
			switch mode := area.linearDampOverride; mode {
			case AREA_OVERRIDE_COMBINE, AREA_OVERRIDE_COMBINE_REPLACE:
				body.totalLinearDamp += area.linearDamp
				linearDampDone = mode == AREA_OVERRIDE_COMBINE_REPLACE
			case AREA_OVERRIDE_REPLACE, AREA_OVERRIDE_REPLACE_COMBINE:
				body.totalLinearDamp = area.linearDamp
				linearDampDone = mode == AREA_OVERRIDE_REPLACE
			}
		}
		if !angularDampDone {
			switch mode := area.angularDampOverride; mode {
			case AREA_OVERRIDE_COMBINE, AREA_OVERRIDE_COMBINE_REPLACE:
				body.totalAngularDamp += area.angularDamp
				angularDampDone = mode == AREA_OVERRIDE_COMBINE_REPLACE
			case AREA_OVERRIDE_REPLACE, AREA_OVERRIDE_REPLACE_COMBINE:
				body.totalAngularDamp = area.angularDamp
				angularDampDone = mode == AREA_OVERRIDE_REPLACE
			}
		}
		stopped = gravityDone && linearDampDone && angularDampDone
	}

	if !stopped {
		def := body.space.defaultArea
		if !gravityDone {
			body.gravity = body.gravity.Add(def.computeGravity(origin))
		}
		if !linearDampDone {
			body.totalLinearDamp += def.linearDamp
		}
		if !angularDampDone {
			body.totalAngularDamp += def.angularDamp
		}
	}

	switch body.linearDampMode {
	case DAMP_MODE_COMBINE:
		body.totalLinearDamp += body.linearDamp
	case DAMP_MODE_REPLACE:
		body.totalLinearDamp = body.linearDamp
	}
	switch body.angularDampMode {
	case DAMP_MODE_COMBINE:
		body.totalAngularDamp += body.angularDamp
	case DAMP_MODE_REPLACE:
		body.totalAngularDamp = body.angularDamp
	}

	body.gravity = body.gravity.Mult(body.gravityScale)

	body.prevLinearVelocity = body.linearVelocity
	body.prevAngularVelocity = body.angularVelocity

	var motion Vector
	doMotion := false

	if body.mode == BODY_MODE_KINEMATIC {
		// velocities follow from the move requested since the last step
		motion = body.newTransform.Origin().Sub(body.transform.Origin())
		doMotion = true
		body.linearVelocity = motion.Mult(1 / step)
		rot := body.newTransform.Rotation() - body.transform.Rotation()
		body.angularVelocity = math.Remainder(rot, 2*math.Pi) / step
	} else {
		if !body.omitForceIntegration {
			force := body.gravity.Mult(body.mass).Add(body.appliedForce).Add(body.constantForce)
			torque := body.appliedTorque + body.constantTorque

			damp := math.Max(1-step*body.totalLinearDamp, 0)
			angularDamp := math.Max(1-step*body.totalAngularDamp, 0)

			body.linearVelocity = body.linearVelocity.Mult(damp)
			body.angularVelocity *= angularDamp

			body.linearVelocity = body.linearVelocity.Add(force.Mult(body.invMass * step))
			body.angularVelocity += body.invInertia * torque * step
		}
		if body.ccdMode != CCD_MODE_DISABLED {
			motion = body.linearVelocity.Mult(step)
			doMotion = true
		}
	}

	body.appliedForce = Vector{}
	body.appliedTorque = 0

	body.biasedLinearVelocity = Vector{}
	body.biasedAngularVelocity = 0

	if doMotion {
		body.updateShapesWithMotion(motion)
	}

	body.contactCount = 0
}

// motion is the displacement a shape-cast CCD body expects this step.
func (body *Body) motion() Vector {
	switch {
	case body.mode > BODY_MODE_KINEMATIC:
		return body.linearVelocity.Mult(body.space.lastStep)
	case body.mode == BODY_MODE_KINEMATIC:
		return body.newTransform.Origin().Sub(body.transform.Origin())
	}
	return Vector{}
}

// integrateVelocities advances the transform by the solved velocities.
func (body *Body) integrateVelocities(step float64) {
	if body.mode == BODY_MODE_STATIC {
		return
	}
	assert(body.space != nil, "integrating a body outside of a space")

	if body.forceIntegrationCallback != nil || body.stateCallback != nil {
		body.space.stateQueries.add(body)
	}

	if body.mode == BODY_MODE_KINEMATIC {
		body.setTransform(body.newTransform, false)
		body.setInvTransform(body.newTransform.Inverse())
		if body.contactCount == 0 && body.linearVelocity.IsZero() && body.angularVelocity == 0 {
			// stopped moving
			body.setActive(false)
		}
		return
	}

	totalAngularVelocity := body.angularVelocity + body.biasedAngularVelocity
	totalLinearVelocity := body.linearVelocity.Add(body.biasedLinearVelocity)

	angleDelta := totalAngularVelocity * step
	angle := body.transform.Rotation() + angleDelta
	pos := body.transform.Origin().Add(totalLinearVelocity.Mult(step))

	if body.centerOfMass.LengthSq() > CMP_EPSILON*CMP_EPSILON {
		// rotate about the center of mass, not the origin
		pos = pos.Add(body.centerOfMass.Sub(body.centerOfMass.Rotate(ForAngle(angleDelta))))
	}

	xform := NewTransformRigid(pos, angle).Mult(NewTransformScale(body.transform.Scale().X, body.transform.Scale().Y))
	body.setTransform(xform, body.ccdMode == CCD_MODE_DISABLED)
	body.setInvTransform(xform.Inverse())
	body.updateTransformDependent()

	if body.ccdMode != CCD_MODE_DISABLED {
		body.newTransform = body.transform
	}
}

// sleepTest accumulates still time. It reports whether the body has been
// slow for long enough to sleep.
func (body *Body) sleepTest(step float64) bool {
	if body.mode <= BODY_MODE_KINEMATIC {
		return true
	}
	if !body.canSleep {
		return false
	}
	params := &body.space.params
	if math.Abs(body.angularVelocity) < params.SleepThresholdAngular &&
		body.linearVelocity.LengthSq() < params.SleepThresholdLinear*params.SleepThresholdLinear {
		body.stillTime += step
		return body.stillTime > params.TimeBeforeSleep
	}
	body.stillTime = 0
	return false
}

// callQueries queues the callbacks of a body that moved this step.
func (body *Body) callQueries(events *eventQueue) {
	if body.forceIntegrationCallback != nil {
		events.add(Event{Kind: EVENT_FORCE_INTEGRATION, Body: body.rid, body: body})
	}
	if body.stateCallback != nil {
		events.add(Event{Kind: EVENT_BODY_STATE, Body: body.rid, body: body})
	}
}

// TestMotion checks whether the body can move by params.Motion from
// params.From. See Space.TestBodyMotion.
func (body *Body) TestMotion(params MotionParameters) (bool, MotionResult, error) {
	if body.space == nil {
		return false, MotionResult{}, ErrNoSpace
	}
	return body.space.TestBodyMotion(body, params)
}
