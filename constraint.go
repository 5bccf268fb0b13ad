package physics

import (
	"fmt"
	"log"
	"math"
)

// Constraint is anything the island solver iterates: contact pairs between
// objects and joints between bodies.
//
// setup runs in parallel and must only read body state. preSolve runs
// sequentially and returns false to leave the constraint out of this
// step's solve. solve runs once per iteration, in parallel across islands.
type Constraint interface {
	setup(step float64) bool
	preSolve(step float64) bool
	solve(step float64)

	// bodies are the constrained bodies, indexed as registered with
	// Body.addConstraint.
	bodies() []*Body
	islandStep() uint64
	setIslandStep(step uint64)
}

type constraintBase struct {
	constrained []*Body
	island      uint64
}

func (c *constraintBase) bodies() []*Body {
	return c.constrained
}

func (c *constraintBase) islandStep() uint64 {
	return c.island
}

func (c *constraintBase) setIslandStep(step uint64) {
	c.island = step
}

type JointType int

const (
	JOINT_PIN JointType = iota
	JOINT_GROOVE
	JOINT_DAMPED_SPRING
)

var jointTypeNames = [...]string{"pin", "groove", "damped_spring"}

func (t JointType) String() string {
	if t < 0 || int(t) >= len(jointTypeNames) {
		return "unknown"
	}
	return jointTypeNames[t]
}

func ParseJointType(name string) (JointType, bool) {
	for i, n := range jointTypeNames {
		if n == name {
			return JointType(i), true
		}
	}
	return 0, false
}

// Joint is a user constraint between two bodies. B may be a static world
// anchor when the joint was created without a second body.
type Joint interface {
	Constraint

	Type() JointType
	RID() RID
	BodyA() *Body
	BodyB() *Body

	Bias() float64
	SetBias(bias float64)
	MaxBias() float64
	SetMaxBias(maxBias float64) error
	MaxForce() float64
	SetMaxForce(maxForce float64) error

	DisableCollisionsBetweenBodies(disable bool)
	IsDisabledCollisionsBetweenBodies() bool

	// Impulse is the magnitude of the impulse applied during the last step.
	Impulse() float64

	disconnect()
	setRID(rid RID)
}

type jointBase struct {
	constraintBase

	rid  RID
	a, b *Body

	// b was made up to pin a to the world
	worldAnchor bool

	bias, maxBias, maxForce float64

	disabledCollisions bool

	// set by setup; false leaves the joint out of the step
	valid bool
}

func (joint *jointBase) init(a, b *Body) {
	if b == nil {
		b = NewBody()
		b.SetMode(BODY_MODE_STATIC)
		joint.worldAnchor = true
	}
	joint.a = a
	joint.b = b
	joint.maxBias = INFINITY
	joint.maxForce = INFINITY
	joint.constrained = []*Body{a, b}
}

// attach registers c with its bodies. It is called once the concrete joint
// is built.
func (joint *jointBase) attach(c Constraint) {
	joint.a.addConstraint(c, 0)
	if !joint.worldAnchor {
		joint.b.addConstraint(c, 1)
	}
	joint.a.wakeup()
	joint.b.wakeup()
}

func (joint *jointBase) detach(c Constraint) {
	joint.DisableCollisionsBetweenBodies(false)
	joint.a.removeConstraint(c, 0)
	joint.b.removeConstraint(c, 1)
	joint.a.wakeup()
	joint.b.wakeup()
}

func (joint *jointBase) RID() RID {
	return joint.rid
}

func (joint *jointBase) setRID(rid RID) {
	joint.rid = rid
}

func (joint *jointBase) BodyA() *Body {
	return joint.a
}

func (joint *jointBase) BodyB() *Body {
	if joint.worldAnchor {
		return nil
	}
	return joint.b
}

// Bias is the error correction factor. Zero uses the space's constraint
// default bias.
func (joint *jointBase) Bias() float64 {
	return joint.bias
}

func (joint *jointBase) SetBias(bias float64) {
	joint.bias = bias
}

func (joint *jointBase) MaxBias() float64 {
	return joint.maxBias
}

func (joint *jointBase) SetMaxBias(maxBias float64) error {
	if maxBias < 0 {
		log.Println("SetMaxBias: must be positive, got", maxBias)
		return fmt.Errorf("max bias %v: %w", maxBias, ErrInvalidParameter)
	}
	joint.maxBias = maxBias
	return nil
}

func (joint *jointBase) MaxForce() float64 {
	return joint.maxForce
}

func (joint *jointBase) SetMaxForce(maxForce float64) error {
	if maxForce < 0 {
		log.Println("SetMaxForce: must be positive, got", maxForce)
		return fmt.Errorf("max force %v: %w", maxForce, ErrInvalidParameter)
	}
	joint.maxForce = maxForce
	return nil
}

// DisableCollisionsBetweenBodies adds the two bodies to each other's
// exceptions, or removes them.
func (joint *jointBase) DisableCollisionsBetweenBodies(disable bool) {
	joint.disabledCollisions = disable
	if joint.worldAnchor {
		return
	}
	if disable {
		joint.a.AddCollisionException(joint.b)
		joint.b.AddCollisionException(joint.a)
	} else {
		joint.a.RemoveCollisionException(joint.b)
		joint.b.RemoveCollisionException(joint.a)
	}
}

func (joint *jointBase) IsDisabledCollisionsBetweenBodies() bool {
	return joint.disabledCollisions
}

// errorBias picks the joint's own bias or falls back to the space's.
func (joint *jointBase) errorBias() float64 {
	if joint.bias != 0 {
		return joint.bias
	}
	if joint.a.space != nil {
		return joint.a.space.params.ConstraintDefaultBias
	}
	return DefaultSpaceParams().ConstraintDefaultBias
}

// bothStatic reports whether nothing on either side can move.
func (joint *jointBase) bothStatic() bool {
	return joint.a.mode <= BODY_MODE_KINEMATIC && joint.b.mode <= BODY_MODE_KINEMATIC
}

// Mat2x2 is a 2x2 matrix, row major.
type Mat2x2 struct {
	a, b, c, d float64
}

func (m Mat2x2) Transform(v Vector) Vector {
	return Vector{v.X*m.a + v.Y*m.b, v.X*m.c + v.Y*m.d}
}

// isDynamic bodies take impulses. Solving islands in parallel relies on
// nothing writing to the static and kinematic bodies they share.
func isDynamic(body *Body) bool {
	return body.mode > BODY_MODE_KINEMATIC
}

// r vectors below are offsets from the center of mass, in world
// orientation.

func relative_velocity(a, b *Body, r1, r2 Vector) Vector {
	v1Sum := a.linearVelocity.Add(r1.Perp().Mult(a.angularVelocity))
	v2Sum := b.linearVelocity.Add(r2.Perp().Mult(b.angularVelocity))
	return v2Sum.Sub(v1Sum)
}

func normal_relative_velocity(a, b *Body, r1, r2, n Vector) float64 {
	return relative_velocity(a, b, r1, r2).Dot(n)
}

func apply_impulse(body *Body, j, r Vector) {
	if !isDynamic(body) {
		return
	}
	body.linearVelocity = body.linearVelocity.Add(j.Mult(body.invMass))
	body.angularVelocity += body.invInertia * r.Cross(j)
}

func apply_impulses(a, b *Body, r1, r2, j Vector) {
	apply_impulse(a, j.Neg(), r1)
	apply_impulse(b, j, r2)
}

func k_scalar_body(body *Body, r, n Vector) float64 {
	rcn := r.Cross(n)
	return body.invMass + body.invInertia*rcn*rcn
}

func k_scalar(a, b *Body, r1, r2, n Vector) float64 {
	return k_scalar_body(a, r1, n) + k_scalar_body(b, r2, n)
}

// k_tensor is the inverse effective mass of a point to point constraint,
// softened along the diagonal.
func k_tensor(a, b *Body, r1, r2 Vector, softness float64) Mat2x2 {
	mSum := a.invMass + b.invMass

	k11 := mSum + softness
	k12 := 0.0
	k21 := 0.0
	k22 := mSum + softness

	aI := a.invInertia
	r1xsq := r1.X * r1.X * aI
	r1ysq := r1.Y * r1.Y * aI
	r1nxy := -r1.X * r1.Y * aI
	k11 += r1ysq
	k12 += r1nxy
	k21 += r1nxy
	k22 += r1xsq

	bI := b.invInertia
	r2xsq := r2.X * r2.X * bI
	r2ysq := r2.Y * r2.Y * bI
	r2nxy := -r2.X * r2.Y * bI
	k11 += r2ysq
	k12 += r2nxy
	k21 += r2nxy
	k22 += r2xsq

	det := k11*k22 - k12*k21
	if det == 0 {
		return Mat2x2{}
	}
	detInv := 1 / det
	return Mat2x2{
		k22 * detInv, -k12 * detInv,
		-k21 * detInv, k11 * detInv,
	}
}

// bias_coef is the fraction of positional error corrected in one step of
// dt seconds. errorBias is the fraction corrected per step at 60Hz.
func bias_coef(errorBias, dt float64) float64 {
	return 1 - math.Pow(1-errorBias, dt*60)
}
