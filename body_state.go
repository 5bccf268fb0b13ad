package physics

// DirectBodyState is the view of a body handed to its callbacks. It reads
// and writes the body directly, so it is only valid outside of a step.
type DirectBodyState struct {
	body *Body
}

func (s *DirectBodyState) Body() *Body {
	return s.body
}

func (s *DirectBodyState) RID() RID {
	return s.body.rid
}

func (s *DirectBodyState) InstanceID() uint64 {
	return s.body.instanceID
}

func (s *DirectBodyState) Transform() Transform {
	return s.body.transform
}

func (s *DirectBodyState) SetTransform(xform Transform) {
	s.body.SetState(BODY_STATE_TRANSFORM, xform)
}

func (s *DirectBodyState) LinearVelocity() Vector {
	return s.body.linearVelocity
}

func (s *DirectBodyState) SetLinearVelocity(v Vector) {
	s.body.SetState(BODY_STATE_LINEAR_VELOCITY, v)
}

func (s *DirectBodyState) AngularVelocity() float64 {
	return s.body.angularVelocity
}

func (s *DirectBodyState) SetAngularVelocity(w float64) {
	s.body.SetState(BODY_STATE_ANGULAR_VELOCITY, w)
}

// VelocityAtLocalPosition is the velocity of the point at offset rel from
// the body origin, in world orientation.
func (s *DirectBodyState) VelocityAtLocalPosition(rel Vector) Vector {
	return s.body.velocityAt(rel.Sub(s.body.centerOfMass))
}

func (s *DirectBodyState) CenterOfMass() Vector {
	return s.body.centerOfMass
}

func (s *DirectBodyState) CenterOfMassLocal() Vector {
	return s.body.centerOfMassLocal
}

func (s *DirectBodyState) InverseMass() float64 {
	return s.body.invMass
}

func (s *DirectBodyState) InverseInertia() float64 {
	return s.body.invInertia
}

// TotalGravity is the gravity acting on the body in the last step, after
// areas and gravity scale.
func (s *DirectBodyState) TotalGravity() Vector {
	return s.body.gravity
}

func (s *DirectBodyState) TotalLinearDamp() float64 {
	return s.body.totalLinearDamp
}

func (s *DirectBodyState) TotalAngularDamp() float64 {
	return s.body.totalAngularDamp
}

func (s *DirectBodyState) ApplyCentralImpulse(impulse Vector) {
	s.body.ApplyCentralImpulse(impulse)
}

func (s *DirectBodyState) ApplyImpulse(impulse, position Vector) {
	s.body.ApplyImpulse(impulse, position)
}

func (s *DirectBodyState) ApplyTorqueImpulse(torque float64) {
	s.body.ApplyTorqueImpulse(torque)
}

func (s *DirectBodyState) ApplyCentralForce(force Vector) {
	s.body.ApplyCentralForce(force)
}

func (s *DirectBodyState) ApplyForce(force, position Vector) {
	s.body.ApplyForce(force, position)
}

func (s *DirectBodyState) ApplyTorque(torque float64) {
	s.body.ApplyTorque(torque)
}

func (s *DirectBodyState) IsSleeping() bool {
	return !s.body.active
}

func (s *DirectBodyState) SetSleeping(sleep bool) {
	s.body.SetState(BODY_STATE_SLEEPING, sleep)
}

func (s *DirectBodyState) Contacts() []BodyContact {
	return s.body.Contacts()
}

// Step is the length of the last step of the body's space.
func (s *DirectBodyState) Step() float64 {
	if s.body.space == nil {
		return 0
	}
	return s.body.space.lastStep
}

// Space gives access to queries against the body's space.
func (s *DirectBodyState) Space() *Space {
	return s.body.space
}
