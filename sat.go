package physics

import "sort"

// satCollector forwards contact points to the caller, undoing any swap
// applied while sorting the pair.
type satCollector struct {
	cb       ContactCallback
	swap     bool
	collided bool
	normal   Vector
	sepAxis  *Vector
}

func (c *satCollector) call(a, b Vector) {
	if c.swap {
		c.cb(b, a)
	} else {
		c.cb(a, b)
	}
}

// separator runs the separating axis test for one shape pair. Shapes are
// projected (swept along their motion when cast is set, inflated by their
// margin when withMargin is set) onto every candidate axis; the axis with
// the least overlap becomes the contact normal.
type separator struct {
	a, b             *Shape
	xa, xb           Transform
	motionA, motionB Vector
	marginA, marginB float64

	castA, castB, withMargin bool

	bestDepth     float64
	bestAxis      Vector
	bestAxisCount int
	bestAxisIndex int

	col *satCollector
}

func (s *separator) testPreviousAxis() bool {
	if s.col != nil && s.col.sepAxis != nil && !s.col.sepAxis.IsZero() {
		return s.testAxis(*s.col.sepAxis)
	}
	s.bestAxisCount++
	return true
}

func (s *separator) testCast() bool {
	if s.castA {
		na := s.motionA.Normalize()
		if !s.testAxis(na) || !s.testAxis(na.ReversePerp()) {
			return false
		}
	}
	if s.castB {
		nb := s.motionB.Normalize()
		if !s.testAxis(nb) || !s.testAxis(nb.ReversePerp()) {
			return false
		}
	}
	return true
}

// testAxis returns false when axis separates the shapes.
func (s *separator) testAxis(axis Vector) bool {
	if isZeroApprox(axis.X) && isZeroApprox(axis.Y) {
		// degenerate, try an upwards separator
		axis = Vector{0, 1}
	}

	var minA, maxA, minB, maxB float64
	if s.castA {
		minA, maxA = s.a.projectRangeCast(s.motionA, axis, s.xa)
	} else {
		minA, maxA = s.a.projectRange(axis, s.xa)
	}
	if s.castB {
		minB, maxB = s.b.projectRangeCast(s.motionB, axis, s.xb)
	} else {
		minB, maxB = s.b.projectRange(axis, s.xb)
	}

	if s.withMargin {
		minA -= s.marginA
		maxA += s.marginA
		minB -= s.marginB
		maxB += s.marginB
	}

	// Minkowski difference of the two ranges, centered on A
	halfA := (maxA - minA) * 0.5
	centerA := (minA + maxA) * 0.5
	dmin := minB - halfA - centerA
	dmax := maxB + halfA - centerA

	if dmin > 0 || dmax < 0 {
		if s.col != nil && s.col.sepAxis != nil {
			*s.col.sepAxis = axis
		}
		s.bestAxisCount++
		return false
	}

	dmin = -dmin
	if dmax < dmin {
		if dmax < s.bestDepth {
			s.bestDepth = dmax
			s.bestAxis = axis
			s.bestAxisIndex = s.bestAxisCount
		}
	} else if dmin < s.bestDepth {
		s.bestDepth = dmin
		// keep it as the A axis
		s.bestAxis = axis.Neg()
		s.bestAxisIndex = s.bestAxisCount
	}
	s.bestAxisCount++
	return true
}

// separatedAtPoints tests the axes between two points that behave as
// circles, plus their swept positions. It returns true if any separates.
func (s *separator) separatedAtPoints(pa, pb Vector) bool {
	if !s.testAxis(pa.Sub(pb).Normalize()) {
		return true
	}
	if s.castA && !s.testAxis(pa.Add(s.motionA).Sub(pb).Normalize()) {
		return true
	}
	if s.castB && !s.testAxis(pa.Sub(pb.Add(s.motionB)).Normalize()) {
		return true
	}
	if s.castA && s.castB && !s.testAxis(pa.Add(s.motionA).Sub(pb.Add(s.motionB)).Normalize()) {
		return true
	}
	return false
}

func (s *separator) generateContacts() {
	if s.bestAxis.IsZero() {
		return
	}
	if s.col == nil {
		return
	}
	s.col.collided = true
	if s.col.cb == nil {
		return
	}

	var supA, supB [2]Vector
	var countA, countB int
	if s.castA {
		supA, countA = s.a.supportsTransformedCast(s.motionA, s.bestAxis.Neg(), s.xa)
	} else {
		supA, countA = s.a.Supports(s.xa.VectInv(s.bestAxis.Neg()).Normalize())
		for i := 0; i < countA; i++ {
			supA[i] = s.xa.Point(supA[i])
		}
	}
	if s.withMargin {
		for i := 0; i < countA; i++ {
			supA[i] = supA[i].Add(s.bestAxis.Mult(-s.marginA))
		}
	}

	if s.castB {
		supB, countB = s.b.supportsTransformedCast(s.motionB, s.bestAxis, s.xb)
	} else {
		supB, countB = s.b.Supports(s.xb.VectInv(s.bestAxis).Normalize())
		for i := 0; i < countB; i++ {
			supB[i] = s.xb.Point(supB[i])
		}
	}
	if s.withMargin {
		for i := 0; i < countB; i++ {
			supB[i] = supB[i].Add(s.bestAxis.Mult(s.marginB))
		}
	}

	s.col.normal = s.bestAxis
	contactsFromSupports(supA[:countA], supB[:countB], s.col)
	if s.col.sepAxis != nil && !s.col.sepAxis.IsZero() {
		// the cached axis failed to separate, drop it
		*s.col.sepAxis = Vector{}
	}
}

func contactsFromSupports(a, b []Vector, col *satCollector) {
	if len(a) == 0 || len(b) == 0 {
		return
	}
	swapped := len(a) > len(b)
	if swapped {
		col.swap = !col.swap
		col.normal = col.normal.Neg()
		a, b = b, a
	}
	switch {
	case len(a) == 1 && len(b) == 1:
		col.call(a[0], b[0])
	case len(a) == 1:
		col.call(a[0], a[0].ClosestPointOnLine(b[0], b[1]))
	default:
		contactsEdgeEdge(a, b, col)
	}
	if swapped {
		col.swap = !col.swap
		col.normal = col.normal.Neg()
	}
}

type edgeSupport struct {
	d     float64
	fromA bool
	idx   int
}

// contactsEdgeEdge clips two edges against each other along the contact
// tangent and keeps the two middle points.
func contactsEdgeEdge(a, b []Vector, col *satCollector) {
	n := col.normal
	t := n.ReversePerp()
	dA := n.Dot(a[0])
	dB := n.Dot(b[0])

	sup := [4]edgeSupport{
		{t.Dot(a[0]), true, 0},
		{t.Dot(a[1]), true, 1},
		{t.Dot(b[0]), false, 0},
		{t.Dot(b[1]), false, 1},
	}
	sort.Slice(sup[:], func(i, j int) bool { return sup[i].d < sup[j].d })

	for i := 1; i < 3; i++ {
		if sup[i].fromA {
			pa := a[sup[i].idx]
			pb := pa.PlaneProject(n, dB)
			if n.Dot(pa) > n.Dot(pb)-CMP_EPSILON {
				continue
			}
			col.call(pa, pb)
		} else {
			pb := b[sup[i].idx]
			pa := pb.PlaneProject(n, dA)
			if n.Dot(pa) > n.Dot(pb)-CMP_EPSILON {
				continue
			}
			col.call(pa, pb)
		}
	}
}

type satFunc func(s *separator)

func satSegmentSegment(s *separator) {
	if !s.testPreviousAxis() || !s.testCast() {
		return
	}
	if !s.testAxis(s.a.segmentNormal(s.xa)) || !s.testAxis(s.b.segmentNormal(s.xb)) {
		return
	}
	if s.withMargin {
		// end points grow into circles
		for _, pa := range [2]Vector{s.xa.Point(s.a.a), s.xa.Point(s.a.b)} {
			for _, pb := range [2]Vector{s.xb.Point(s.b.a), s.xb.Point(s.b.b)} {
				if s.separatedAtPoints(pa, pb) {
					return
				}
			}
		}
	}
	s.generateContacts()
}

func satSegmentCircle(s *separator) {
	if !s.testPreviousAxis() || !s.testCast() {
		return
	}
	if !s.testAxis(s.a.segmentNormal(s.xa)) {
		return
	}
	if s.separatedAtPoints(s.xa.Point(s.a.a), s.xb.Origin()) {
		return
	}
	if s.separatedAtPoints(s.xa.Point(s.a.b), s.xb.Origin()) {
		return
	}
	s.generateContacts()
}

// rectangleCircleAxes tests the corner axes of rectangle r against a world
// point p and its swept positions. motionP moves the point, motionR the
// rectangle.
func (s *separator) rectangleCircleAxes(r *Shape, xr, inv Transform, p, motionP, motionR Vector, castP, castR bool) bool {
	if !s.testAxis(r.circleAxis(xr, inv, p)) {
		return false
	}
	if castP && !s.testAxis(r.circleAxis(xr, inv, p.Add(motionP))) {
		return false
	}
	if castR && !s.testAxis(r.circleAxis(xr, inv, p.Sub(motionR))) {
		return false
	}
	if castP && castR && !s.testAxis(r.circleAxis(xr, inv, p.Sub(motionR).Add(motionP))) {
		return false
	}
	return true
}

func satSegmentRectangle(s *separator) {
	if !s.testPreviousAxis() || !s.testCast() {
		return
	}
	if !s.testAxis(s.a.segmentNormal(s.xa)) ||
		!s.testAxis(s.xb.XAxis().Normalize()) ||
		!s.testAxis(s.xb.YAxis().Normalize()) {
		return
	}
	if s.withMargin {
		inv := s.xb.Inverse()
		for _, p := range [2]Vector{s.xa.Point(s.a.a), s.xa.Point(s.a.b)} {
			if !s.rectangleCircleAxes(s.b, s.xb, inv, p, s.motionA, s.motionB, s.castA, s.castB) {
				return
			}
		}
	}
	s.generateContacts()
}

func satSegmentCapsule(s *separator) {
	if !s.testPreviousAxis() || !s.testCast() {
		return
	}
	if !s.testAxis(s.a.segmentNormal(s.xa)) || !s.testAxis(s.xb.XAxis().Normalize()) {
		return
	}
	for _, pa := range [2]Vector{s.xa.Point(s.a.a), s.xa.Point(s.a.b)} {
		for _, dir := range [2]float64{1, -1} {
			if s.separatedAtPoints(pa, s.b.capsuleEnd(s.xb, dir)) {
				return
			}
		}
	}
	s.generateContacts()
}

func satSegmentConvex(s *separator) {
	if !s.testPreviousAxis() || !s.testCast() {
		return
	}
	if !s.testAxis(s.a.segmentNormal(s.xa)) {
		return
	}
	for i := range s.b.points {
		if !s.testAxis(s.b.edgeNormal(s.xb, i)) {
			return
		}
		if s.withMargin {
			pb := s.xb.Point(s.b.points[i].pos)
			if s.separatedAtPoints(s.xa.Point(s.a.a), pb) || s.separatedAtPoints(s.xa.Point(s.a.b), pb) {
				return
			}
		}
	}
	s.generateContacts()
}

func satCircleCircle(s *separator) {
	if !s.testPreviousAxis() || !s.testCast() {
		return
	}
	if s.separatedAtPoints(s.xa.Origin(), s.xb.Origin()) {
		return
	}
	s.generateContacts()
}

func satCircleRectangle(s *separator) {
	if !s.testPreviousAxis() || !s.testCast() {
		return
	}
	if !s.testAxis(s.xb.XAxis().Normalize()) || !s.testAxis(s.xb.YAxis().Normalize()) {
		return
	}
	inv := s.xb.Inverse()
	if !s.rectangleCircleAxes(s.b, s.xb, inv, s.xa.Origin(), s.motionA, s.motionB, s.castA, s.castB) {
		return
	}
	s.generateContacts()
}

func satCircleCapsule(s *separator) {
	if !s.testPreviousAxis() || !s.testCast() {
		return
	}
	if !s.testAxis(s.xb.XAxis().Normalize()) {
		return
	}
	for _, dir := range [2]float64{1, -1} {
		if s.separatedAtPoints(s.xa.Origin(), s.b.capsuleEnd(s.xb, dir)) {
			return
		}
	}
	s.generateContacts()
}

func satCircleConvex(s *separator) {
	if !s.testPreviousAxis() || !s.testCast() {
		return
	}
	for i := range s.b.points {
		if s.separatedAtPoints(s.xa.Origin(), s.xb.Point(s.b.points[i].pos)) {
			return
		}
		if !s.testAxis(s.b.edgeNormal(s.xb, i)) {
			return
		}
	}
	s.generateContacts()
}

func satRectangleRectangle(s *separator) {
	if !s.testPreviousAxis() || !s.testCast() {
		return
	}
	if !s.testAxis(s.xa.XAxis().Normalize()) || !s.testAxis(s.xa.YAxis().Normalize()) ||
		!s.testAxis(s.xb.XAxis().Normalize()) || !s.testAxis(s.xb.YAxis().Normalize()) {
		return
	}
	if s.withMargin {
		invA := s.xa.Inverse()
		invB := s.xb.Inverse()
		if !s.testAxis(s.a.boxAxis(s.xa, invA, s.b, s.xb, invB)) {
			return
		}
		if s.castA || s.castB {
			aofs := s.xa.Translated(s.motionA)
			bofs := s.xb.Translated(s.motionB)
			aofsInv := aofs.Inverse()
			bofsInv := bofs.Inverse()
			if s.castA && !s.testAxis(s.a.boxAxis(aofs, aofsInv, s.b, s.xb, invB)) {
				return
			}
			if s.castB && !s.testAxis(s.a.boxAxis(s.xa, invA, s.b, bofs, bofsInv)) {
				return
			}
			if s.castA && s.castB && !s.testAxis(s.a.boxAxis(aofs, aofsInv, s.b, bofs, bofsInv)) {
				return
			}
		}
	}
	s.generateContacts()
}

func satRectangleCapsule(s *separator) {
	if !s.testPreviousAxis() || !s.testCast() {
		return
	}
	if !s.testAxis(s.xa.XAxis().Normalize()) || !s.testAxis(s.xa.YAxis().Normalize()) ||
		!s.testAxis(s.xb.XAxis().Normalize()) {
		return
	}
	inv := s.xa.Inverse()
	for _, dir := range [2]float64{1, -1} {
		end := s.b.capsuleEnd(s.xb, dir)
		// the rectangle is A here, so the capsule end moves against motionA
		if !s.rectangleCircleAxes(s.a, s.xa, inv, end, s.motionB, s.motionA, s.castB, s.castA) {
			return
		}
	}
	s.generateContacts()
}

func satRectangleConvex(s *separator) {
	if !s.testPreviousAxis() || !s.testCast() {
		return
	}
	if !s.testAxis(s.xa.XAxis().Normalize()) || !s.testAxis(s.xa.YAxis().Normalize()) {
		return
	}
	var inv Transform
	if s.withMargin {
		inv = s.xa.Inverse()
	}
	for i := range s.b.points {
		if !s.testAxis(s.b.edgeNormal(s.xb, i)) {
			return
		}
		if s.withMargin {
			// all points against all corners once margins exist
			p := s.xb.Point(s.b.points[i].pos)
			if !s.rectangleCircleAxes(s.a, s.xa, inv, p, s.motionB, s.motionA, s.castB, s.castA) {
				return
			}
		}
	}
	s.generateContacts()
}

func satCapsuleCapsule(s *separator) {
	if !s.testPreviousAxis() || !s.testCast() {
		return
	}
	if !s.testAxis(s.xb.XAxis().Normalize()) || !s.testAxis(s.xa.XAxis().Normalize()) {
		return
	}
	for _, da := range [2]float64{1, -1} {
		for _, db := range [2]float64{1, -1} {
			if s.separatedAtPoints(s.a.capsuleEnd(s.xa, da), s.b.capsuleEnd(s.xb, db)) {
				return
			}
		}
	}
	s.generateContacts()
}

func satCapsuleConvex(s *separator) {
	if !s.testPreviousAxis() || !s.testCast() {
		return
	}
	if !s.testAxis(s.xa.XAxis().Normalize()) {
		return
	}
	for i := range s.b.points {
		p := s.xb.Point(s.b.points[i].pos)
		for _, dir := range [2]float64{1, -1} {
			if s.separatedAtPoints(s.a.capsuleEnd(s.xa, dir), p) {
				return
			}
		}
		if !s.testAxis(s.b.edgeNormal(s.xb, i)) {
			return
		}
	}
	s.generateContacts()
}

func satConvexConvex(s *separator) {
	if !s.testPreviousAxis() || !s.testCast() {
		return
	}
	for i := range s.a.points {
		if !s.testAxis(s.a.edgeNormal(s.xa, i)) {
			return
		}
	}
	for i := range s.b.points {
		if !s.testAxis(s.b.edgeNormal(s.xb, i)) {
			return
		}
	}
	if s.withMargin {
		for i := range s.a.points {
			pa := s.xa.Point(s.a.points[i].pos)
			for j := range s.b.points {
				if s.separatedAtPoints(pa, s.xb.Point(s.b.points[j].pos)) {
					return
				}
			}
		}
	}
	s.generateContacts()
}

// satFuncs is indexed by kind - SHAPE_SEGMENT, lower kind first.
var satFuncs = [5][5]satFunc{
	{satSegmentSegment, satSegmentCircle, satSegmentRectangle, satSegmentCapsule, satSegmentConvex},
	{nil, satCircleCircle, satCircleRectangle, satCircleCapsule, satCircleConvex},
	{nil, nil, satRectangleRectangle, satRectangleCapsule, satRectangleConvex},
	{nil, nil, nil, satCapsuleCapsule, satCapsuleConvex},
	{nil, nil, nil, nil, satConvexConvex},
}

// satSolve handles convex against convex.
func satSolve(a *Shape, xa Transform, motionA Vector, b *Shape, xb Transform, motionB Vector, cb ContactCallback, swap bool, sepAxis *Vector, marginA, marginB float64) bool {
	for _, sh := range [2]*Shape{a, b} {
		if sh.kind < SHAPE_SEGMENT || sh.kind > SHAPE_CONVEX_POLYGON {
			assert(false, "shape type not handled by SAT: ", sh.kind)
			return false
		}
	}

	col := &satCollector{cb: cb, swap: swap, sepAxis: sepAxis}
	if a.kind > b.kind {
		a, b = b, a
		xa, xb = xb, xa
		motionA, motionB = motionB, motionA
		marginA, marginB = marginB, marginA
		col.swap = !col.swap
	}

	fn := satFuncs[a.kind-SHAPE_SEGMENT][b.kind-SHAPE_SEGMENT]
	if fn == nil {
		assert(false, "shape types are not sorted")
		return false
	}
	fn(&separator{
		a: a, b: b,
		xa: xa, xb: xb,
		motionA: motionA, motionB: motionB,
		marginA: marginA, marginB: marginB,
		castA:         !motionA.IsZero(),
		castB:         !motionB.IsZero(),
		withMargin:    marginA != 0 || marginB != 0,
		bestDepth:     1e15,
		bestAxisIndex: -1,
		col:           col,
	})
	return col.collided
}
