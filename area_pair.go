package physics

// AreaPair tracks whether one body shape overlaps one area shape. It never
// produces impulses: overlap changes become monitor events and, for areas
// that override space parameters, entries in the body's area list.
type AreaPair struct {
	constraintBase

	body      *Body
	area      *Area
	bodyShape int
	areaShape int

	colliding        bool
	hasSpaceOverride bool
	processCollision bool
	bodyAttachedArea bool
}

func newAreaPair(body *Body, bodyShape int, area *Area, areaShape int) *AreaPair {
	pair := &AreaPair{
		body:      body,
		area:      area,
		bodyShape: bodyShape,
		areaShape: areaShape,
	}
	pair.constrained = []*Body{body}
	body.addConstraint(pair, 0)
	area.addConstraint(pair)
	if body.mode == BODY_MODE_KINEMATIC {
		body.setActive(true)
	}
	return pair
}

func (pair *AreaPair) destroy() {
	if pair.colliding {
		if pair.bodyAttachedArea {
			pair.bodyAttachedArea = false
			pair.body.removeArea(pair.area)
		}
		if pair.area.hasMonitorCallback() {
			pair.area.removeBodyFromQuery(pair.body, pair.bodyShape, pair.areaShape)
		}
	}
	pair.body.removeConstraint(pair, 0)
	pair.area.removeConstraint(pair)
}

func (pair *AreaPair) setup(step float64) bool {
	body, area := pair.body, pair.area
	result := area.collidesWith(&body.CollisionObject) && Solve(
		body.shapes[pair.bodyShape].shape, body.transform.Mult(body.shapes[pair.bodyShape].xform), Vector{},
		area.shapes[pair.areaShape].shape, area.transform.Mult(area.shapes[pair.areaShape].xform), Vector{},
		nil, nil, 0, 0)

	pair.processCollision = false
	pair.hasSpaceOverride = false
	if result != pair.colliding {
		pair.hasSpaceOverride = area.hasSpaceOverride()
		pair.processCollision = pair.hasSpaceOverride || area.hasMonitorCallback()
		pair.colliding = result
	}
	return pair.processCollision
}

func (pair *AreaPair) preSolve(step float64) bool {
	if !pair.processCollision {
		return false
	}
	body, area := pair.body, pair.area
	if pair.colliding {
		if pair.hasSpaceOverride {
			pair.bodyAttachedArea = true
			body.addArea(area)
		}
		if area.hasMonitorCallback() {
			area.addBodyToQuery(body, pair.bodyShape, pair.areaShape)
		}
	} else {
		if pair.hasSpaceOverride {
			pair.bodyAttachedArea = false
			body.removeArea(area)
		}
		if area.hasMonitorCallback() {
			area.removeBodyFromQuery(body, pair.bodyShape, pair.areaShape)
		}
	}
	return false
}

func (pair *AreaPair) solve(step float64) {}

// Area2Pair tracks the overlap of two area shapes. Each side sees the other
// only if it monitors areas and the other was monitorable when the pair
// was made.
type Area2Pair struct {
	constraintBase

	areaA, areaB   *Area
	shapeA, shapeB int

	collidingA, collidingB     bool
	processA, processB         bool
	monitorableA, monitorableB bool
}

func newArea2Pair(areaA *Area, shapeA int, areaB *Area, shapeB int) *Area2Pair {
	pair := &Area2Pair{
		areaA:        areaA,
		areaB:        areaB,
		shapeA:       shapeA,
		shapeB:       shapeB,
		monitorableA: areaA.monitorable,
		monitorableB: areaB.monitorable,
	}
	areaA.addConstraint(pair)
	areaB.addConstraint(pair)
	return pair
}

func (pair *Area2Pair) destroy() {
	if pair.collidingA && pair.areaA.hasAreaMonitorCallback() && pair.monitorableB {
		pair.areaA.removeAreaFromQuery(pair.areaB, pair.shapeB, pair.shapeA)
	}
	if pair.collidingB && pair.areaB.hasAreaMonitorCallback() && pair.monitorableA {
		pair.areaB.removeAreaFromQuery(pair.areaA, pair.shapeA, pair.shapeB)
	}
	pair.areaA.removeConstraint(pair)
	pair.areaB.removeConstraint(pair)
}

func (pair *Area2Pair) setup(step float64) bool {
	a, b := pair.areaA, pair.areaB
	resultA := a.collidesWith(&b.CollisionObject)
	resultB := b.collidesWith(&a.CollisionObject)
	if resultA || resultB {
		overlap := Solve(
			a.shapes[pair.shapeA].shape, a.transform.Mult(a.shapes[pair.shapeA].xform), Vector{},
			b.shapes[pair.shapeB].shape, b.transform.Mult(b.shapes[pair.shapeB].xform), Vector{},
			nil, nil, 0, 0)
		if !overlap {
			resultA, resultB = false, false
		}
	}

	process := false
	pair.processA = false
	if resultA != pair.collidingA {
		if a.hasAreaMonitorCallback() && pair.monitorableB {
			pair.processA = true
			process = true
		}
		pair.collidingA = resultA
	}
	pair.processB = false
	if resultB != pair.collidingB {
		if b.hasAreaMonitorCallback() && pair.monitorableA {
			pair.processB = true
			process = true
		}
		pair.collidingB = resultB
	}
	return process
}

func (pair *Area2Pair) preSolve(step float64) bool {
	a, b := pair.areaA, pair.areaB
	if pair.processA {
		if pair.collidingA {
			a.addAreaToQuery(b, pair.shapeB, pair.shapeA)
		} else {
			a.removeAreaFromQuery(b, pair.shapeB, pair.shapeA)
		}
	}
	if pair.processB {
		if pair.collidingB {
			b.addAreaToQuery(a, pair.shapeA, pair.shapeB)
		} else {
			b.removeAreaFromQuery(a, pair.shapeA, pair.shapeB)
		}
	}
	return false
}

func (pair *Area2Pair) solve(step float64) {}
