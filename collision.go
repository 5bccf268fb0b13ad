package physics

// ContactCallback receives one contact: a point on the surface of shape A
// and the matching point on shape B, both in world space.
type ContactCallback func(pointA, pointB Vector)

// Solve tests two shapes for contact. Motions sweep the shapes, margins
// inflate them. Contacts are reported through cb, which may be nil when
// only the boolean result is needed. sepAxis, when not nil, caches the last
// separating axis across calls.
func Solve(a *Shape, xa Transform, motionA Vector, b *Shape, xb Transform, motionB Vector, cb ContactCallback, sepAxis *Vector, marginA, marginB float64) bool {
	if !a.configured || !b.configured {
		assert(false, ErrShapeNotConfigured)
		return false
	}

	typeA, typeB := a.kind, b.kind
	concaveA, concaveB := a.IsConcave(), b.IsConcave()
	swap := false
	if typeA > typeB {
		typeA, typeB = typeB, typeA
		concaveA, concaveB = concaveB, concaveA
		swap = true
	}

	switch {
	case typeA == SHAPE_WORLD_BOUNDARY:
		if typeB == SHAPE_WORLD_BOUNDARY {
			return false
		}
		if swap {
			return solveWorldBoundary(b, xb, a, xa, cb, true, marginA)
		}
		return solveWorldBoundary(a, xa, b, xb, cb, false, marginB)
	case typeA == SHAPE_SEPARATION_RAY:
		if typeB == SHAPE_SEPARATION_RAY {
			return false
		}
		if swap {
			return solveSeparationRay(b, motionB, xb, a, xa, cb, true, marginB)
		}
		return solveSeparationRay(a, motionA, xa, b, xb, cb, false, marginA)
	case concaveB:
		if concaveA {
			return false
		}
		if !swap {
			return solveConcave(a, xa, motionA, b, xb, motionB, cb, false, sepAxis, marginA, marginB)
		}
		return solveConcave(b, xb, motionB, a, xa, motionA, cb, true, sepAxis, marginB, marginA)
	}
	return satSolve(a, xa, motionA, b, xb, motionB, cb, false, sepAxis, marginA, marginB)
}

func report(cb ContactCallback, swap bool, a, b Vector) {
	if cb == nil {
		return
	}
	if swap {
		cb(b, a)
	} else {
		cb(a, b)
	}
}

// solveWorldBoundary is a closed-form half plane test of the supports of
// shape against the plane of boundary.
func solveWorldBoundary(boundary *Shape, xBoundary Transform, shape *Shape, xShape Transform, cb ContactCallback, swap bool, margin float64) bool {
	if shape.kind == SHAPE_WORLD_BOUNDARY {
		return false
	}
	n := xBoundary.Vect(boundary.normal).Normalize()
	p := xBoundary.Point(boundary.normal.Mult(boundary.d))
	d := n.Dot(p)

	supports, count := shape.Supports(xShape.Inverse().Vect(n.Neg()).Normalize())
	found := false
	for i := 0; i < count; i++ {
		s := supports[i].Add(supports[i].Normalize().Mult(margin))
		s = xShape.Point(s)
		pd := n.Dot(s)
		if pd >= d {
			continue
		}
		found = true
		onPlane := s.Sub(n.Mult(pd - d))
		report(cb, swap, onPlane, s)
	}
	return found
}

// solveSeparationRay casts the ray along its local Y axis into the other
// shape and pushes the ray tip out of it.
func solveSeparationRay(ray *Shape, motion Vector, xRay Transform, shape *Shape, xShape Transform, cb ContactCallback, swap bool, margin float64) bool {
	if shape.kind == SHAPE_SEPARATION_RAY {
		return false
	}
	from := xRay.Origin()
	to := from.Add(xRay.YAxis().Mult(ray.length + margin))
	if !motion.IsZero() {
		// not exact, but enough to keep up with the motion
		dir := to.Sub(from).Normalize()
		if ext := dir.Dot(motion); ext > 0 {
			to = to.Add(dir.Mult(ext))
		}
	}
	supportA := to

	inv := xShape.Inverse()
	from = inv.Point(from)
	to = inv.Point(to)

	p, n, ok := shape.IntersectSegment(from, to)
	if !ok {
		return false
	}
	// the ray starts inside the shape
	if n.IsZero() {
		return false
	}
	// surfaces facing away from the ray
	if n.Dot(from.Sub(to)) < CMP_EPSILON {
		return false
	}

	supportB := xShape.Point(p)
	if ray.slideOnSlope {
		globalN := inv.VectInv(n).Normalize()
		supportB = supportA.Add(globalN.Mult(supportB.Sub(supportA).Length()))
	}
	report(cb, swap, supportA, supportB)
	return true
}

// solveConcave tests convex against every concave segment near it. All
// candidates are tested so that the best normals of adjacent segments are
// reported too.
func solveConcave(convex *Shape, xConvex Transform, motionConvex Vector, concave *Shape, xConcave Transform, motionConcave Vector, cb ContactCallback, swap bool, sepAxis *Vector, marginConvex, marginConcave float64) bool {
	if concave.concave == nil {
		return false
	}

	world := xConvex.BB(convex.bb).Sweep(motionConvex).Sweep(motionConcave.Neg())
	local := xConcave.Inverse().BB(world.Grow(marginConvex + marginConcave))

	collided := false
	concave.concave.cull(local, func(seg *Shape) bool {
		var hit bool
		if swap {
			hit = satSolve(seg, xConcave, motionConcave, convex, xConvex, motionConvex, cb, false, sepAxis, marginConcave, marginConvex)
		} else {
			hit = satSolve(convex, xConvex, motionConvex, seg, xConcave, motionConcave, cb, false, sepAxis, marginConvex, marginConcave)
		}
		if hit {
			collided = true
		}
		// without a callback the first hit answers the question
		return hit && cb == nil
	})
	return collided
}
