package physics

import "math"

type pairContact struct {
	// contact points relative to each body, unrotated
	localA, localB Vector
	normal         Vector

	accNormalImpulse  float64
	accTangentImpulse float64
	accBiasImpulse    float64
	accBiasImpulseCOM float64
	massNormal        float64
	massTangent       float64
	bias, depth       float64
	bounce            float64
	rA, rB            Vector
	active, used      bool
}

// BodyPair is the contact constraint between one shape of each of two
// bodies. It lives as long as the broad phase reports the shapes' bounds
// overlapping, so contacts and their accumulated impulses persist from one
// step to the next.
type BodyPair struct {
	constraintBase

	a, b           *Body
	shapeA, shapeB int

	// B's origin relative to A's; collision runs around A's origin
	offsetB Vector
	sepAxis Vector

	contacts     [MAX_CONTACTS]pairContact
	contactCount int

	collided           bool
	checkCCD           bool
	oneWayDisabled     bool
	reportContactsOnly bool
	collideA, collideB bool
}

func newBodyPair(a *Body, shapeA int, b *Body, shapeB int) *BodyPair {
	pair := &BodyPair{
		a:      a,
		b:      b,
		shapeA: shapeA,
		shapeB: shapeB,
	}
	pair.constrained = []*Body{a, b}
	a.addConstraint(pair, 0)
	b.addConstraint(pair, 1)
	return pair
}

func (pair *BodyPair) destroy() {
	pair.a.removeConstraint(pair, 0)
	pair.b.removeConstraint(pair, 1)
}

// Count is the number of persistent contacts.
func (pair *BodyPair) Count() int {
	return pair.contactCount
}

func (pair *BodyPair) Bodies() (*Body, *Body) {
	return pair.a, pair.b
}

func (pair *BodyPair) addContact(pointA, pointB Vector) {
	a, b := pair.a, pair.b
	localA := a.invTransform.Vect(pointA)
	localB := b.invTransform.Vect(pointB.Sub(pair.offsetB))

	assert(pair.contactCount <= MAX_CONTACTS, "contact overflow")

	contact := pairContact{
		localA: localA,
		localB: localB,
		normal: pointA.Sub(pointB).Normalize(),
		used:   true,
	}

	// keep the impulses of a contact that barely moved so warm starting works
	radius := a.space.params.ContactRecycleRadius
	radiusSq := radius * radius
	for i := 0; i < pair.contactCount; i++ {
		c := &pair.contacts[i]
		if c.localA.DistanceSq(localA) < radiusSq && c.localB.DistanceSq(localB) < radiusSq {
			contact.accNormalImpulse = c.accNormalImpulse
			contact.accTangentImpulse = c.accTangentImpulse
			contact.accBiasImpulse = c.accBiasImpulse
			contact.accBiasImpulseCOM = c.accBiasImpulseCOM
			*c = contact
			return
		}
	}

	if pair.contactCount == MAX_CONTACTS {
		// full: the new contact replaces the shallowest one if it is deeper
		leastDeep := -1
		minDepth := pair.depth(&contact)
		for i := 0; i < pair.contactCount; i++ {
			if d := pair.depth(&pair.contacts[i]); d < minDepth {
				minDepth = d
				leastDeep = i
			}
		}
		if leastDeep > -1 {
			pair.contacts[leastDeep] = contact
		}
		return
	}

	pair.contacts[pair.contactCount] = contact
	pair.contactCount++
}

// globals are the contact points relative to A's origin.
func (pair *BodyPair) globals(c *pairContact) (globalA, globalB Vector) {
	globalA = pair.a.transform.Vect(c.localA)
	globalB = pair.b.transform.Vect(c.localB).Add(pair.offsetB)
	return
}

func (pair *BodyPair) depth(c *pairContact) float64 {
	globalA, globalB := pair.globals(c)
	return globalA.Sub(globalB).Dot(c.normal)
}

// validateContacts drops contacts left over from the previous step and
// those the bodies have moved too far apart or sideways.
func (pair *BodyPair) validateContacts() {
	maxSeparation := pair.a.space.params.ContactMaxSeparation
	maxSeparationSq := maxSeparation * maxSeparation

	for i := 0; i < pair.contactCount; i++ {
		c := &pair.contacts[i]
		erase := false
		if !c.used {
			erase = true
		} else {
			c.used = false
			globalA, globalB := pair.globals(c)
			depth := globalA.Sub(globalB).Dot(c.normal)
			drift := globalB.Add(c.normal.Mult(depth)).Sub(globalA)
			if depth < -maxSeparation || drift.LengthSq() > maxSeparationSq {
				erase = true
			}
		}
		if erase {
			last := pair.contactCount - 1
			if i < last {
				pair.contacts[i], pair.contacts[last] = pair.contacts[last], pair.contacts[i]
			}
			i--
			pair.contactCount--
		}
	}
}

// localTransforms are the shape transforms with A's origin moved to zero.
func (pair *BodyPair) localTransforms() (xformA, xformB Transform) {
	a, b := pair.a, pair.b
	offsetA := a.transform.Origin()
	xformA = a.transform.WithOrigin(Vector{}).Mult(a.shapes[pair.shapeA].xform)
	xformB = b.transform.Translated(offsetA.Neg()).Mult(b.shapes[pair.shapeB].xform)
	return
}

func (pair *BodyPair) setup(step float64) bool {
	a, b := pair.a, pair.b
	pair.checkCCD = false

	if !a.interactsWith(&b.CollisionObject) || a.HasException(b) || b.HasException(a) {
		pair.collided = false
		return false
	}

	pair.collideA = a.mode > BODY_MODE_KINEMATIC && a.collidesWith(&b.CollisionObject)
	pair.collideB = b.mode > BODY_MODE_KINEMATIC && b.collidesWith(&a.CollisionObject)

	pair.reportContactsOnly = false
	if !pair.collideA && !pair.collideB {
		if !a.canReportContacts() && !b.canReportContacts() {
			pair.collided = false
			return false
		}
		pair.reportContactsOnly = true
	}

	pair.offsetB = b.transform.Origin().Sub(a.transform.Origin())
	pair.validateContacts()

	xformA, xformB := pair.localTransforms()
	shapeA := a.shapes[pair.shapeA].shape
	shapeB := b.shapes[pair.shapeB].shape

	var motionA, motionB Vector
	if a.ccdMode == CCD_MODE_CAST_SHAPE {
		motionA = a.motion()
	}
	if b.ccdMode == CCD_MODE_CAST_SHAPE {
		motionB = b.motion()
	}

	prevCollided := pair.collided
	pair.collided = Solve(shapeA, xformA, motionA, shapeB, xformB, motionB, pair.addContact, &pair.sepAxis, 0, 0)
	if !pair.collided {
		pair.oneWayDisabled = false
		if a.ccdMode == CCD_MODE_CAST_RAY && pair.collideA {
			pair.checkCCD = true
			return true
		}
		if b.ccdMode == CCD_MODE_CAST_RAY && pair.collideB {
			pair.checkCCD = true
			return true
		}
		return false
	}

	if pair.oneWayDisabled {
		return false
	}

	if !prevCollided {
		// a one-way shape only accepts contacts that begin from its open side
		if shapeB.allowsOneWayCollision() && a.shapes[pair.shapeA].oneWay {
			direction := xformA.YAxis().Normalize()
			if !pair.anyContact(func(n Vector) bool { return n.Dot(direction) <= -CMP_EPSILON }) {
				pair.collided = false
				pair.oneWayDisabled = true
				return false
			}
		}
		if shapeA.allowsOneWayCollision() && b.shapes[pair.shapeB].oneWay {
			direction := xformB.YAxis().Normalize()
			if !pair.anyContact(func(n Vector) bool { return n.Dot(direction) >= CMP_EPSILON }) {
				pair.collided = false
				pair.oneWayDisabled = true
				return false
			}
		}
	}

	return true
}

func (pair *BodyPair) anyContact(valid func(normal Vector) bool) bool {
	for i := 0; i < pair.contactCount; i++ {
		if valid(pair.contacts[i].normal) {
			return true
		}
	}
	return false
}

// testCCD slows a down when a ray from its leading point along its motion
// would cross b's shape this step, so that the next step catches the
// contact instead of tunnelling.
func (pair *BodyPair) testCCD(step float64, a *Body, shapeA int, xformA Transform, b *Body, shapeB int, xformB Transform) bool {
	motion := a.linearVelocity.Mult(step)
	mlen := motion.Length()
	if mlen < CMP_EPSILON {
		return false
	}
	mnormal := motion.Mult(1 / mlen)

	sA := a.shapes[shapeA].shape
	min, max := sA.projectRange(mnormal, xformA)
	// it has to move more than a third of its size along the motion
	if mlen <= (max-min)*0.3 {
		return false
	}

	from := xformA.Point(sA.Support(xformA.VectInv(mnormal).Normalize()))
	// start a little behind the support point
	from = from.Sub(motion.Mult(0.1))
	to := from.Add(motion)

	inv := xformB.Inverse()
	localFrom := inv.Point(from)
	localTo := inv.Point(to)

	rpos, _, ok := b.shapes[shapeB].shape.IntersectSegment(localFrom, localTo)
	if !ok {
		return false
	}

	if sA.allowsOneWayCollision() && b.shapes[shapeB].oneWay {
		direction := xformB.YAxis().Normalize()
		if direction.Dot(mnormal) < CMP_EPSILON {
			pair.collided = false
			pair.oneWayDisabled = true
			return false
		}
	}

	// stop just past the hit so the next step collides softly
	hit := xformB.Point(rpos)
	newLen := hit.Distance(from) + (max-min)*0.01
	a.linearVelocity = mnormal.Mult(newLen / step)
	return true
}

func (pair *BodyPair) customBias() (float64, bool) {
	biasA := pair.a.shapes[pair.shapeA].shape.CustomBias()
	biasB := pair.b.shapes[pair.shapeB].shape.CustomBias()
	switch {
	case biasA == 0 && biasB == 0:
		return 0, false
	case biasA == 0:
		return biasB, true
	case biasB == 0:
		return biasA, true
	}
	return (biasA + biasB) * 0.5, true
}

func (pair *BodyPair) preSolve(step float64) bool {
	a, b := pair.a, pair.b

	if !pair.collided {
		if pair.checkCCD {
			xformA, xformB := pair.localTransforms()
			if a.ccdMode == CCD_MODE_CAST_RAY && pair.collideA {
				pair.testCCD(step, a, pair.shapeA, xformA, b, pair.shapeB, xformB)
			} else if b.ccdMode == CCD_MODE_CAST_RAY && pair.collideB {
				pair.testCCD(step, b, pair.shapeB, xformB, a, pair.shapeA, xformA)
			}
		}
		return false
	}

	space := a.space
	maxPenetration := space.params.ContactMaxAllowedPenetration
	bias := space.params.ContactDefaultBias
	if custom, ok := pair.customBias(); ok {
		bias = custom
	}

	invDt := 1 / step
	doProcess := false
	offsetA := a.transform.Origin()

	var invMassA, invMassB, invInertiaA, invInertiaB float64
	if pair.collideA {
		invMassA, invInertiaA = a.invMass, a.invInertia
	}
	if pair.collideB {
		invMassB, invInertiaB = b.invMass, b.invInertia
	}

	for i := 0; i < pair.contactCount; i++ {
		c := &pair.contacts[i]
		c.active = false

		globalA, globalB := pair.globals(c)
		depth := globalA.Sub(globalB).Dot(c.normal)
		if depth <= 0 {
			continue
		}

		space.addDebugContact(globalA.Add(offsetA))
		space.addDebugContact(globalB.Add(offsetA))

		if a.shapes[pair.shapeA].disabled || b.shapes[pair.shapeB].disabled {
			continue
		}

		c.rA = globalA.Sub(a.centerOfMass)
		c.rB = globalB.Sub(b.centerOfMass).Sub(pair.offsetB)

		if a.canReportContacts() {
			a.addContact(BodyContact{
				LocalPosition:      globalA.Add(offsetA),
				LocalNormal:        c.normal.Neg(),
				Depth:              depth,
				LocalShape:         pair.shapeA,
				ColliderPosition:   globalB.Add(offsetA),
				ColliderShape:      pair.shapeB,
				ColliderInstanceID: b.instanceID,
				Collider:           b.rid,
				ColliderVelocity:   b.velocityAt(c.rB),
			})
		}
		if b.canReportContacts() {
			b.addContact(BodyContact{
				LocalPosition:      globalB.Add(offsetA),
				LocalNormal:        c.normal,
				Depth:              depth,
				LocalShape:         pair.shapeB,
				ColliderPosition:   globalA.Add(offsetA),
				ColliderShape:      pair.shapeA,
				ColliderInstanceID: a.instanceID,
				Collider:           a.rid,
				ColliderVelocity:   a.velocityAt(c.rA),
			})
		}

		if pair.reportContactsOnly {
			pair.collided = false
			continue
		}

		rnA := c.rA.Dot(c.normal)
		rnB := c.rB.Dot(c.normal)
		kNormal := invMassA + invMassB
		kNormal += invInertiaA*(c.rA.Dot(c.rA)-rnA*rnA) + invInertiaB*(c.rB.Dot(c.rB)-rnB*rnB)
		c.massNormal = 1 / kNormal

		tangent := c.normal.ReversePerp()
		rtA := c.rA.Dot(tangent)
		rtB := c.rB.Dot(tangent)
		kTangent := invMassA + invMassB
		kTangent += invInertiaA*(c.rA.Dot(c.rA)-rtA*rtA) + invInertiaB*(c.rB.Dot(c.rB)-rtB*rtB)
		c.massTangent = 1 / kTangent

		c.bias = -bias * invDt * math.Min(0, -depth+maxPenetration)
		c.depth = depth

		// warm start
		p := c.normal.Mult(c.accNormalImpulse).Add(tangent.Mult(c.accTangentImpulse))
		if pair.collideA {
			apply_impulse(a, p.Neg(), c.rA)
		}
		if pair.collideB {
			apply_impulse(b, p, c.rB)
		}

		c.bounce = Clamp(a.bounce+b.bounce, 0, 1)
		if c.bounce != 0 {
			crA := Vector{-a.prevAngularVelocity * c.rA.Y, a.prevAngularVelocity * c.rA.X}
			crB := Vector{-b.prevAngularVelocity * c.rB.Y, b.prevAngularVelocity * c.rB.X}
			dv := b.prevLinearVelocity.Add(crB).Sub(a.prevLinearVelocity).Sub(crA)
			c.bounce *= dv.Dot(c.normal)
		}

		c.active = true
		doProcess = true
	}

	return doProcess
}

func (pair *BodyPair) solve(step float64) {
	if !pair.collided || pair.oneWayDisabled {
		return
	}
	a, b := pair.a, pair.b

	maxBiasAV := MAX_BIAS_ROTATION / step

	var invMassA, invMassB float64
	if pair.collideA {
		invMassA = a.invMass
	}
	if pair.collideB {
		invMassB = b.invMass
	}
	friction := math.Abs(math.Min(a.friction, b.friction))

	for i := 0; i < pair.contactCount; i++ {
		c := &pair.contacts[i]
		if !c.active {
			continue
		}

		dv := relative_velocity(a, b, c.rA, c.rB)
		vn := dv.Dot(c.normal)
		tangent := c.normal.ReversePerp()
		vt := dv.Dot(tangent)

		vbn := pair.biasedVelocity(c).Dot(c.normal)
		jbn := (c.bias - vbn) * c.massNormal
		jbnOld := c.accBiasImpulse
		c.accBiasImpulse = math.Max(jbnOld+jbn, 0)
		jb := c.normal.Mult(c.accBiasImpulse - jbnOld)
		if pair.collideA {
			a.applyBiasImpulse(jb.Neg(), c.rA.Add(a.centerOfMass), maxBiasAV)
		}
		if pair.collideB {
			b.applyBiasImpulse(jb, c.rB.Add(b.centerOfMass), maxBiasAV)
		}

		// push the centers of mass apart for whatever rotation could not fix
		vbn = pair.biasedVelocity(c).Dot(c.normal)
		if math.Abs(-vbn+c.bias) > MIN_VELOCITY {
			jbnCOM := (-vbn + c.bias) / (invMassA + invMassB)
			jbnOldCOM := c.accBiasImpulseCOM
			c.accBiasImpulseCOM = math.Max(jbnOldCOM+jbnCOM, 0)
			jbCOM := c.normal.Mult(c.accBiasImpulseCOM - jbnOldCOM)
			if pair.collideA {
				a.applyBiasImpulse(jbCOM.Neg(), a.centerOfMass, 0)
			}
			if pair.collideB {
				b.applyBiasImpulse(jbCOM, b.centerOfMass, 0)
			}
		}

		jn := -(c.bounce + vn) * c.massNormal
		jnOld := c.accNormalImpulse
		c.accNormalImpulse = math.Max(jnOld+jn, 0)

		jtMax := friction * c.accNormalImpulse
		jt := -vt * c.massTangent
		jtOld := c.accTangentImpulse
		c.accTangentImpulse = Clamp(jtOld+jt, -jtMax, jtMax)

		j := c.normal.Mult(c.accNormalImpulse - jnOld).Add(tangent.Mult(c.accTangentImpulse - jtOld))
		if pair.collideA {
			apply_impulse(a, j.Neg(), c.rA)
		}
		if pair.collideB {
			apply_impulse(b, j, c.rB)
		}
	}
}

func (pair *BodyPair) biasedVelocity(c *pairContact) Vector {
	a, b := pair.a, pair.b
	crbA := Vector{-a.biasedAngularVelocity * c.rA.Y, a.biasedAngularVelocity * c.rA.X}
	crbB := Vector{-b.biasedAngularVelocity * c.rB.Y, b.biasedAngularVelocity * c.rB.X}
	return b.biasedLinearVelocity.Add(crbB).Sub(a.biasedLinearVelocity).Sub(crbA)
}
