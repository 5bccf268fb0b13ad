package physics

import "math"

// DampedSpringJoint pulls an anchor of A and an anchor of B toward RestLength
// apart, with velocity damping along the line between them.
type DampedSpringJoint struct {
	jointBase

	AnchorA, AnchorB               Vector
	RestLength, Stiffness, Damping float64

	targetVrn, vCoef float64

	r1, r2 Vector
	nMass  float64
	n      Vector

	jAcc    float64
	jSpring float64
}

// NewDampedSpringJoint connects the world points anchorA on a and anchorB on
// b. The rest length is their current distance.
func NewDampedSpringJoint(a, b *Body, anchorA, anchorB Vector) *DampedSpringJoint {
	spring := &DampedSpringJoint{
		Stiffness: 20,
		Damping:   1,
	}
	spring.init(a, b)
	spring.AnchorA = a.transform.Inverse().Point(anchorA)
	spring.AnchorB = spring.b.transform.Inverse().Point(anchorB)
	spring.RestLength = anchorA.Distance(anchorB)
	spring.attach(spring)
	return spring
}

func (spring *DampedSpringJoint) Type() JointType {
	return JOINT_DAMPED_SPRING
}

func (spring *DampedSpringJoint) disconnect() {
	spring.detach(spring)
}

func (spring *DampedSpringJoint) Impulse() float64 {
	return spring.jAcc
}

func (spring *DampedSpringJoint) setup(step float64) bool {
	spring.valid = !spring.bothStatic()
	if !spring.valid {
		return false
	}
	a, b := spring.a, spring.b

	spring.r1 = a.transform.Vect(spring.AnchorA).Sub(a.centerOfMass)
	spring.r2 = b.transform.Vect(spring.AnchorB).Sub(b.centerOfMass)

	delta := b.transform.Point(spring.AnchorB).Sub(a.transform.Point(spring.AnchorA))
	dist := delta.Length()
	if dist != 0 {
		spring.n = delta.Mult(1 / dist)
	} else {
		spring.n = Vector{}
	}

	k := k_scalar(a, b, spring.r1, spring.r2, spring.n)
	if k == 0 {
		spring.valid = false
		return false
	}
	spring.nMass = 1 / k

	spring.targetVrn = 0
	spring.vCoef = 1 - math.Exp(-spring.Damping*step*k)

	// the spring force itself is applied once per step, in preSolve
	spring.jSpring = (spring.RestLength - dist) * spring.Stiffness * step
	return true
}

func (spring *DampedSpringJoint) preSolve(step float64) bool {
	if !spring.valid {
		return false
	}
	spring.jAcc = spring.jSpring
	apply_impulses(spring.a, spring.b, spring.r1, spring.r2, spring.n.Mult(spring.jSpring))
	return true
}

func (spring *DampedSpringJoint) solve(step float64) {
	a, b := spring.a, spring.b

	vrn := normal_relative_velocity(a, b, spring.r1, spring.r2, spring.n)

	vDamp := (spring.targetVrn - vrn) * spring.vCoef
	spring.targetVrn = vrn + vDamp

	jDamp := vDamp * spring.nMass
	spring.jAcc += jDamp
	apply_impulses(a, b, spring.r1, spring.r2, spring.n.Mult(jDamp))
}
