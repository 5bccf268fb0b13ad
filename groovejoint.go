package physics

// GrooveJoint keeps a point of B on a segment fixed to A. The point is free
// to slide along the segment.
type GrooveJoint struct {
	jointBase

	GrooveA, GrooveB Vector
	AnchorB          Vector

	grooveN  Vector
	grooveTn Vector
	clamp    float64
	r1, r2   Vector
	k        Mat2x2

	jAcc, bias Vector
}

// NewGrooveJoint makes a groove from grooveA to grooveB, both world points,
// along which the world point anchor of b slides.
func NewGrooveJoint(a, b *Body, grooveA, grooveB, anchor Vector) *GrooveJoint {
	joint := &GrooveJoint{}
	joint.init(a, b)
	inv := a.transform.Inverse()
	joint.GrooveA = inv.Point(grooveA)
	joint.GrooveB = inv.Point(grooveB)
	joint.grooveN = joint.GrooveB.Sub(joint.GrooveA).Normalize().Perp()
	joint.AnchorB = joint.b.transform.Inverse().Point(anchor)
	joint.attach(joint)
	return joint
}

func (joint *GrooveJoint) Type() JointType {
	return JOINT_GROOVE
}

func (joint *GrooveJoint) disconnect() {
	joint.detach(joint)
}

func (joint *GrooveJoint) Impulse() float64 {
	return joint.jAcc.Length()
}

func (joint *GrooveJoint) setup(step float64) bool {
	joint.valid = !joint.bothStatic()
	if !joint.valid {
		return false
	}
	a, b := joint.a, joint.b
	com := a.transform.Origin().Add(a.centerOfMass)

	ta := a.transform.Point(joint.GrooveA)
	tb := a.transform.Point(joint.GrooveB)

	n := a.transform.Vect(joint.grooveN).Normalize()
	d := ta.Dot(n)

	joint.grooveTn = n
	joint.r2 = b.transform.Vect(joint.AnchorB).Sub(b.centerOfMass)

	anchor := b.transform.Point(joint.AnchorB)
	td := anchor.Cross(n)

	// which end of the groove, if any, the anchor is clamped against
	if td <= ta.Cross(n) {
		joint.clamp = 1
		joint.r1 = ta.Sub(com)
	} else if td >= tb.Cross(n) {
		joint.clamp = -1
		joint.r1 = tb.Sub(com)
	} else {
		joint.clamp = 0
		joint.r1 = n.Perp().Mult(-td).Add(n.Mult(d)).Sub(com)
	}

	joint.k = k_tensor(a, b, joint.r1, joint.r2, 0)

	delta := anchor.Sub(com.Add(joint.r1))
	joint.bias = delta.Mult(-bias_coef(joint.errorBias(), step) / step).Clamp(joint.maxBias)
	return true
}

func (joint *GrooveJoint) preSolve(step float64) bool {
	if !joint.valid {
		return false
	}
	apply_impulses(joint.a, joint.b, joint.r1, joint.r2, joint.jAcc)
	return true
}

func (joint *GrooveJoint) grooveConstrain(j Vector, dt float64) Vector {
	n := joint.grooveTn
	var jClamp Vector
	if joint.clamp*j.Cross(n) > 0 {
		jClamp = j
	} else {
		jClamp = j.Project(n)
	}
	return jClamp.Clamp(joint.maxForce * dt)
}

func (joint *GrooveJoint) solve(step float64) {
	a, b := joint.a, joint.b

	vr := relative_velocity(a, b, joint.r1, joint.r2)

	j := joint.k.Transform(joint.bias.Sub(vr))
	jOld := joint.jAcc
	joint.jAcc = joint.grooveConstrain(jOld.Add(j), step)
	j = joint.jAcc.Sub(jOld)

	apply_impulses(a, b, joint.r1, joint.r2, j)
}
