package physics

import "math"

// PinJoint holds a point of A and a point of B together. Softness lets the
// points drift apart under load. The relative rotation of the bodies can be
// limited, and driven by a motor.
type PinJoint struct {
	jointBase

	AnchorA, AnchorB Vector
	Softness         float64

	limitEnabled           bool
	lowerLimit, upperLimit float64
	motorEnabled           bool
	motorTargetVelocity    float64

	initialAngle float64

	r1, r2 Vector
	k      Mat2x2
	bias   Vector
	jAcc   Vector

	iSum                 float64
	limitBias, limitJAcc float64
	motorJAcc            float64
}

// NewPinJoint pins a and b together at the world point pivot. A nil b pins
// a to the world.
func NewPinJoint(a, b *Body, pivot Vector) *PinJoint {
	joint := &PinJoint{}
	joint.init(a, b)
	joint.AnchorA = a.transform.Inverse().Point(pivot)
	joint.AnchorB = joint.b.transform.Inverse().Point(pivot)
	joint.initialAngle = joint.relativeAngle()
	joint.attach(joint)
	return joint
}

func (joint *PinJoint) Type() JointType {
	return JOINT_PIN
}

func (joint *PinJoint) disconnect() {
	joint.detach(joint)
}

// SetLimits restricts the rotation of B relative to A, measured from their
// relative rotation when the joint was made.
func (joint *PinJoint) SetLimits(enable bool, lower, upper float64) {
	joint.limitEnabled = enable
	joint.lowerLimit = lower
	joint.upperLimit = upper
	joint.a.wakeup()
	joint.b.wakeup()
}

func (joint *PinJoint) Limits() (enabled bool, lower, upper float64) {
	return joint.limitEnabled, joint.lowerLimit, joint.upperLimit
}

// SetMotor drives the relative angular velocity of B to target.
func (joint *PinJoint) SetMotor(enable bool, target float64) {
	joint.motorEnabled = enable
	joint.motorTargetVelocity = target
	joint.a.wakeup()
	joint.b.wakeup()
}

func (joint *PinJoint) Motor() (enabled bool, target float64) {
	return joint.motorEnabled, joint.motorTargetVelocity
}

func (joint *PinJoint) relativeAngle() float64 {
	return joint.b.transform.Rotation() - joint.a.transform.Rotation()
}

func (joint *PinJoint) Impulse() float64 {
	return joint.jAcc.Length()
}

func (joint *PinJoint) setup(step float64) bool {
	joint.valid = !joint.bothStatic()
	if !joint.valid {
		return false
	}
	a, b := joint.a, joint.b

	joint.r1 = a.transform.Vect(joint.AnchorA).Sub(a.centerOfMass)
	joint.r2 = b.transform.Vect(joint.AnchorB).Sub(b.centerOfMass)

	joint.k = k_tensor(a, b, joint.r1, joint.r2, joint.Softness)

	// calculate bias velocity
	delta := b.transform.Point(joint.AnchorB).Sub(a.transform.Point(joint.AnchorA))
	joint.bias = delta.Mult(-bias_coef(joint.errorBias(), step) / step).Clamp(joint.maxBias)

	if joint.limitEnabled || joint.motorEnabled {
		iSum := a.invInertia + b.invInertia
		joint.iSum = 0
		if iSum != 0 {
			joint.iSum = 1 / iSum
		}
	}

	joint.limitBias = 0
	if joint.limitEnabled {
		angle := math.Remainder(joint.relativeAngle()-joint.initialAngle, 2*math.Pi)
		pdist := 0.0
		if angle > joint.upperLimit {
			pdist = joint.upperLimit - angle
		} else if angle < joint.lowerLimit {
			pdist = joint.lowerLimit - angle
		}
		joint.limitBias = Clamp(-bias_coef(joint.errorBias(), step)*pdist/step, -joint.maxBias, joint.maxBias)
	}
	if joint.limitBias == 0 {
		joint.limitJAcc = 0
	}
	if !joint.motorEnabled {
		joint.motorJAcc = 0
	}
	return true
}

func (joint *PinJoint) preSolve(step float64) bool {
	if !joint.valid {
		return false
	}
	a, b := joint.a, joint.b
	apply_impulses(a, b, joint.r1, joint.r2, joint.jAcc)

	j := joint.limitJAcc + joint.motorJAcc
	applyAngularImpulses(a, b, j)
	return true
}

func applyAngularImpulses(a, b *Body, j float64) {
	if j == 0 {
		return
	}
	if isDynamic(a) {
		a.angularVelocity -= j * a.invInertia
	}
	if isDynamic(b) {
		b.angularVelocity += j * b.invInertia
	}
}

func (joint *PinJoint) solve(step float64) {
	a, b := joint.a, joint.b

	vr := relative_velocity(a, b, joint.r1, joint.r2)

	j := joint.k.Transform(joint.bias.Sub(vr).Sub(joint.jAcc.Mult(joint.Softness)))
	jOld := joint.jAcc
	joint.jAcc = joint.jAcc.Add(j).Clamp(joint.maxForce * step)
	j = joint.jAcc.Sub(jOld)
	apply_impulses(a, b, joint.r1, joint.r2, j)

	if joint.iSum == 0 {
		return
	}
	jMax := joint.maxForce * step

	if joint.limitBias != 0 {
		wr := b.angularVelocity - a.angularVelocity
		jl := -(joint.limitBias + wr) * joint.iSum
		jlOld := joint.limitJAcc
		if joint.limitBias < 0 {
			joint.limitJAcc = Clamp(jlOld+jl, 0, jMax)
		} else {
			joint.limitJAcc = Clamp(jlOld+jl, -jMax, 0)
		}
		applyAngularImpulses(a, b, joint.limitJAcc-jlOld)
	}

	if joint.motorEnabled {
		wr := b.angularVelocity - a.angularVelocity - joint.motorTargetVelocity
		jm := -wr * joint.iSum
		jmOld := joint.motorJAcc
		joint.motorJAcc = Clamp(jmOld+jm, -jMax, jMax)
		applyAngularImpulses(a, b, joint.motorJAcc-jmOld)
	}
}
