package physics

import (
	"log"
	"math"
)

// MotionParameters describe a move to test with TestBodyMotion.
type MotionParameters struct {
	// From replaces the body's transform for the test.
	From   Transform
	Motion Vector
	Margin float64

	// CollideSeparationRay makes separation ray shapes collide while
	// sweeping. They always do when they slide on slopes.
	CollideSeparationRay bool
	// RecoveryAsCollision reports being pushed out of an overlap as a
	// collision even when the motion itself is free.
	RecoveryAsCollision bool

	ExcludeBodies  []RID
	ExcludeObjects []uint64
}

// NewMotionParameters tests motion from from with the default margin.
func NewMotionParameters(from Transform, motion Vector) MotionParameters {
	return MotionParameters{From: from, Motion: motion, Margin: 0.08}
}

func (p *MotionParameters) excludes(obj *CollisionObject) bool {
	for _, rid := range p.ExcludeBodies {
		if rid == obj.rid {
			return true
		}
	}
	for _, id := range p.ExcludeObjects {
		if id == obj.instanceID {
			return true
		}
	}
	return false
}

// MotionResult is what TestBodyMotion found. The collision fields are only
// set when it reports a collision.
type MotionResult struct {
	// Travel is how far the body can go, recovery included.
	Travel Vector
	// Remainder is the part of the motion left after the collision, not
	// yet slid. SlideRemainder gives its projection onto the surface hit.
	Remainder Vector

	CollisionPoint          Vector
	CollisionNormal         Vector
	CollisionDepth          float64
	CollisionSafeFraction   float64
	CollisionUnsafeFraction float64
	CollisionLocalShape     int

	Collider         RID
	ColliderID       uint64
	ColliderShape    int
	ColliderVelocity Vector
}

// SlideRemainder is the remainder projected onto the surface that was hit,
// tangent to it. A body moving into a corner keeps moving along the wall
// it hits first. It is zero when there was no collision.
func (r MotionResult) SlideRemainder() Vector {
	if r.CollisionNormal.IsZero() {
		return Vector{}
	}
	return r.Remainder.Slide(r.CollisionNormal)
}

// excludedShapePair is a one-way shape the body was found beyond during
// recovery, which the rest of the test ignores.
type excludedShapePair struct {
	localShape   *Shape
	against      *CollisionObject
	againstShape int
}

const maxExcludedShapePairs = 32

func isExcludedPair(pairs []excludedShapePair, local *Shape, against *CollisionObject, againstShape int) bool {
	for _, p := range pairs {
		if p.localShape == local && p.against == against && p.againstShape == againstShape {
			return true
		}
	}
	return false
}

// cullAABBForBody collects the body shapes body could collide with in bb.
func (space *Space) cullAABBForBody(body *Body, bb BB, buf *cullBuffer) int {
	amount := space.broadphase.CullAABB(bb, buf.objs, buf.subs)
	for i := 0; i < amount; i++ {
		obj := buf.objs[i]
		keep := true
		switch {
		case obj == &body.CollisionObject:
			keep = false
		case obj.kind == OBJECT_AREA:
			keep = false
		case !body.collidesWith(obj):
			keep = false
		case obj.body.HasException(body) || body.HasException(obj.body):
			keep = false
		}
		if keep {
			continue
		}
		last := amount - 1
		buf.objs[i], buf.objs[last] = buf.objs[last], buf.objs[i]
		buf.subs[i], buf.subs[last] = buf.subs[last], buf.subs[i]
		amount--
		i--
	}
	return amount
}

// oneWayDepth is how deep a one-way shape may be entered before it stops
// counting. A moving platform adds what it moved toward the body.
func (space *Space) oneWayDepth(obj *CollisionObject, shapeIdx int, margin float64, validDir Vector) float64 {
	depth := math.Max(obj.shapes[shapeIdx].oneWayMargin, margin)
	if obj.kind == OBJECT_BODY {
		b := obj.body
		if b.mode == BODY_MODE_KINEMATIC || b.mode >= BODY_MODE_RIGID {
			motion := b.linearVelocity.Mult(space.lastStep)
			motionLen := motion.Length()
			motion = motion.Normalize()
			depth += motionLen * math.Max(motion.Dot(validDir.Neg()), 0)
		}
	}
	return depth
}

// TestBodyMotion moves body from params.From by params.Motion without
// changing it, and reports how far it gets. A body that starts overlapping
// something is first pushed out. The sweep finds the fraction of the motion
// that is free, and the deepest contact at the first colliding fraction is
// reported as the collision.
func (space *Space) TestBodyMotion(body *Body, params MotionParameters) (bool, MotionResult, error) {
	if space.locked {
		log.Println("TestBodyMotion:", ErrSpaceLocked)
		return false, MotionResult{}, ErrSpaceLocked
	}
	if body.space != space {
		return false, MotionResult{}, ErrNoSpace
	}

	var result MotionResult

	var bodyAABB BB
	shapesFound := false
	for i := range body.shapes {
		if body.shapes[i].disabled {
			continue
		}
		if !shapesFound {
			bodyAABB = body.shapes[i].aabb
			shapesFound = true
		} else {
			bodyAABB = bodyAABB.Merge(body.shapes[i].aabb)
		}
	}
	if !shapesFound {
		result.Travel = params.Motion
		return false, result, nil
	}

	margin := math.Max(params.Margin, space.params.TestMotionMinMargin)

	// move the cached bounds from the current transform to params.From
	bodyAABB = params.From.Mult(body.invTransform).BB(bodyAABB).Grow(margin)

	var excluded []excludedShapePair
	minContactDepth := margin * space.params.MinContactDepthFactor

	motionLength := params.Motion.Length()
	motionNormal := params.Motion.Normalize()

	bodyTransform := params.From
	recovered := false

	buf := getCullBuffer()
	defer putCullBuffer(buf)

	// step 1: free the body if it is stuck
	{
		const maxResults = 32
		cbk := newContactCollector(maxResults)
		priorities := make([]float64, 0, maxResults)

		for attempts := 4; attempts > 0; attempts-- {
			cbk.reset()
			priorities = priorities[:0]
			// only the last attempt's exclusions stand
			excluded = excluded[:0]
			collided := false

			amount := space.cullAABBForBody(body, bodyAABB, buf)

			for j := range body.shapes {
				if body.shapes[j].disabled {
					continue
				}
				bodyShape := body.shapes[j].shape
				bodyShapeXform := bodyTransform.Mult(body.shapes[j].xform)

				for i := 0; i < amount; i++ {
					obj, shapeIdx := buf.objs[i], buf.subs[i]
					if params.excludes(obj) {
						continue
					}
					objShapeXform := obj.shapeWorldTransform(shapeIdx)

					if bodyShape.allowsOneWayCollision() && obj.shapes[shapeIdx].oneWay {
						cbk.validDir = objShapeXform.YAxis().Normalize()
						cbk.validDepth = space.oneWayDepth(obj, shapeIdx, margin, cbk.validDir)
					} else {
						cbk.validDir = Vector{}
						cbk.validDepth = 0
					}
					cbk.invalidByDir = 0

					passed := cbk.passed
					didCollide := false
					if Solve(bodyShape, bodyShapeXform, Vector{}, obj.shapes[shapeIdx].shape, objShapeXform, Vector{}, cbk.add, nil, margin, 0) {
						didCollide = cbk.passed > passed
					}
					for len(priorities) < cbk.amount {
						priorities = append(priorities, obj.priority)
					}

					if !didCollide && cbk.invalidByDir > 0 && len(excluded) < maxExcludedShapePairs {
						excluded = append(excluded, excludedShapePair{bodyShape, obj, shapeIdx})
					}
					if didCollide {
						collided = true
					}
				}
			}

			if !collided {
				break
			}

			totalPriority := 0.0
			for _, p := range priorities {
				totalPriority += p
			}
			invTotalWeight := 1.0
			if !isZeroApprox(totalPriority) {
				invTotalWeight = float64(cbk.amount) / totalPriority
			}

			recovered = true

			var recoverMotion Vector
			for i := 0; i < cbk.amount; i++ {
				a := cbk.points[i*2]
				b := cbk.points[i*2+1]

				// plane on b facing a
				n := a.Sub(b).Normalize()
				d := n.Dot(b)

				depth := n.Dot(a.Add(recoverMotion)) - d
				if depth > minContactDepth+CMP_EPSILON {
					push := (depth - minContactDepth) * space.params.RecoveryDamping * priorities[i] * invTotalWeight
					recoverMotion = recoverMotion.Sub(n.Mult(push))
				}
			}

			if recoverMotion.IsZero() {
				break
			}

			bodyTransform = bodyTransform.Translated(recoverMotion)
			bodyAABB = bodyAABB.Offset(recoverMotion)
		}
	}

	safe, unsafe := 1.0, 1.0
	bestShape := -1

	// step 2: sweep
	{
		motionAABB := bodyAABB.Sweep(params.Motion)
		amount := space.cullAABBForBody(body, motionAABB, buf)

		for j := range body.shapes {
			if body.shapes[j].disabled {
				continue
			}
			bodyShape := body.shapes[j].shape

			// separation rays only snap to the ground unless they slide
			if !params.CollideSeparationRay && bodyShape.kind == SHAPE_SEPARATION_RAY && !bodyShape.slideOnSlope {
				continue
			}

			bodyShapeXform := bodyTransform.Mult(body.shapes[j].xform)

			stuck := false
			bestSafe, bestUnsafe := 1.0, 1.0

			for i := 0; i < amount; i++ {
				obj, shapeIdx := buf.objs[i], buf.subs[i]
				if params.excludes(obj) {
					continue
				}
				against := obj.shapes[shapeIdx].shape
				if isExcludedPair(excluded, bodyShape, obj, shapeIdx) {
					continue
				}
				objShapeXform := obj.shapeWorldTransform(shapeIdx)
				oneWay := bodyShape.allowsOneWayCollision() && obj.shapes[shapeIdx].oneWay

				if !Solve(bodyShape, bodyShapeXform, params.Motion, against, objShapeXform, Vector{}, nil, nil, 0, 0) {
					continue
				}

				if Solve(bodyShape, bodyShapeXform, Vector{}, against, objShapeXform, Vector{}, nil, nil, 0, 0) {
					if oneWay && motionNormal.Dot(objShapeXform.YAxis().Normalize()) < 0 {
						continue
					}
					stuck = true
					break
				}

				low, hi := castFraction(bodyShape, bodyShapeXform, params.Motion, against, objShapeXform, 0)

				if oneWay {
					cbk := newContactCollector(1)
					cbk.validDir = objShapeXform.YAxis().Normalize()
					cbk.validDepth = 10e20
					sep := motionNormal
					motion := params.Motion.Mult(hi + space.params.ContactMaxAllowedPenetration)
					if !Solve(bodyShape, bodyShapeXform, motion, against, objShapeXform, Vector{}, cbk.add, &sep, 0, 0) || cbk.amount == 0 {
						continue
					}
				}

				if low < bestSafe {
					bestSafe = low
					bestUnsafe = hi
				}
			}

			if stuck {
				safe, unsafe = 0, 0
				bestShape = j
				break
			}
			if bestSafe == 1 {
				continue
			}
			if bestSafe < safe {
				safe = bestSafe
				unsafe = bestUnsafe
				bestShape = j
			}
		}
	}

	collided := false

	// step 3: report the deepest contact at the unsafe fraction
	if (params.RecoveryAsCollision && recovered) || safe < 1 {
		if safe >= 1 {
			bestShape = -1
		}

		ugt := bodyTransform.Translated(params.Motion.Mult(unsafe))

		rcd := restCollector{
			// allowed depth can't exceed the motion, or slow contacts go unseen
			minAllowedDepth: math.Min(motionLength, minContactDepth),
		}

		bodyAABB = bodyAABB.Offset(params.Motion.Mult(unsafe))
		amount := space.cullAABBForBody(body, bodyAABB, buf)

		from, to := 0, len(body.shapes)
		if bestShape != -1 {
			from, to = bestShape, bestShape+1
		}

		for j := from; j < to; j++ {
			if body.shapes[j].disabled {
				continue
			}
			bodyShape := body.shapes[j].shape
			bodyShapeXform := ugt.Mult(body.shapes[j].xform)

			for i := 0; i < amount; i++ {
				obj, shapeIdx := buf.objs[i], buf.subs[i]
				if params.excludes(obj) {
					continue
				}
				if isExcludedPair(excluded, bodyShape, obj, shapeIdx) {
					continue
				}
				objShapeXform := obj.shapeWorldTransform(shapeIdx)

				if bodyShape.allowsOneWayCollision() && obj.shapes[shapeIdx].oneWay {
					rcd.validDir = objShapeXform.YAxis().Normalize()
					rcd.validDepth = space.oneWayDepth(obj, shapeIdx, margin, rcd.validDir)
				} else {
					rcd.validDir = Vector{}
					rcd.validDepth = 0
				}

				rcd.object = obj
				rcd.shape = shapeIdx
				rcd.localShape = j
				Solve(bodyShape, bodyShapeXform, Vector{}, obj.shapes[shapeIdx].shape, objShapeXform, Vector{}, rcd.add, nil, margin, 0)
			}
		}

		if rcd.bestLen != 0 {
			result.Collider = rcd.bestObject.rid
			result.ColliderID = rcd.bestObject.instanceID
			result.ColliderShape = rcd.bestShape
			result.CollisionLocalShape = rcd.bestLocalShape
			result.CollisionNormal = rcd.bestNormal
			result.CollisionPoint = rcd.bestContact
			result.CollisionDepth = rcd.bestLen
			result.CollisionSafeFraction = safe
			result.CollisionUnsafeFraction = unsafe
			result.ColliderVelocity = pointVelocity(rcd.bestObject, rcd.bestContact)

			result.Travel = params.Motion.Mult(safe)
			result.Remainder = params.Motion.Sub(result.Travel)
			result.Travel = result.Travel.Add(bodyTransform.Origin().Sub(params.From.Origin()))
			collided = true
		}
	}

	if !collided {
		result.Travel = params.Motion.Add(bodyTransform.Origin().Sub(params.From.Origin()))
		result.Remainder = Vector{}
	}
	return collided, result, nil
}
