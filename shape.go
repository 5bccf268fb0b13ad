package physics

import "math"

type ShapeType int

// Shape kinds. The order is significant: the narrow phase swaps pairs so
// that the lower kind comes first.
const (
	SHAPE_WORLD_BOUNDARY ShapeType = iota
	SHAPE_SEPARATION_RAY
	SHAPE_SEGMENT
	SHAPE_CIRCLE
	SHAPE_RECTANGLE
	SHAPE_CAPSULE
	SHAPE_CONVEX_POLYGON
	SHAPE_CONCAVE_POLYGON
	SHAPE_TYPE_NUM
)

var shapeTypeNames = [...]string{
	"world_boundary",
	"separation_ray",
	"segment",
	"circle",
	"rectangle",
	"capsule",
	"convex_polygon",
	"concave_polygon",
}

func (t ShapeType) String() string {
	if t < 0 || t >= SHAPE_TYPE_NUM {
		return "unknown"
	}
	return shapeTypeNames[t]
}

// ParseShapeType maps a shape kind name back to its ShapeType.
func ParseShapeType(name string) (ShapeType, bool) {
	for i, n := range shapeTypeNames {
		if n == name {
			return ShapeType(i), true
		}
	}
	return 0, false
}

// cos of the angle under which a support direction selects a whole edge
const segmentIsValidSupportThreshold = 0.99998

// shapeOwner is anything holding a shape reference, i.e. a collision object.
type shapeOwner interface {
	shapeChanged()
	removeShape(shape *Shape)
}

type polyPoint struct {
	pos, normal Vector
}

// Shape is a closed variant over the eight shape kinds. Only the payload
// fields belonging to kind are meaningful.
type Shape struct {
	rid        RID
	kind       ShapeType
	bb         BB
	configured bool
	customBias float64

	owners map[shapeOwner]int

	// world boundary: points p with normal.p == d lie on the boundary
	normal Vector
	d      float64

	// separation ray
	length       float64
	slideOnSlope bool

	// segment
	a, b, n Vector

	// circle and capsule
	radius float64
	height float64

	// rectangle
	halfExtents Vector

	// convex polygon
	points []polyPoint

	// concave polygon
	concave *concavePolygon
}

func NewShape(kind ShapeType) *Shape {
	assert(kind >= 0 && kind < SHAPE_TYPE_NUM, "invalid shape type ", kind)
	return &Shape{
		kind:   kind,
		owners: map[shapeOwner]int{},
	}
}

// newSegment builds a configured stand-alone segment, used for the pieces
// of a concave polygon.
func newSegment(a, b, n Vector) *Shape {
	s := &Shape{kind: SHAPE_SEGMENT, a: a, b: b, n: n, configured: true}
	s.bb = segmentBB(a, b)
	return s
}

func (s *Shape) RID() RID {
	return s.rid
}

func (s *Shape) Type() ShapeType {
	return s.kind
}

func (s *Shape) AABB() BB {
	return s.bb
}

func (s *Shape) IsConfigured() bool {
	return s.configured
}

func (s *Shape) IsConcave() bool {
	return s.kind == SHAPE_CONCAVE_POLYGON
}

// separation rays always push out, whatever side they come from
func (s *Shape) allowsOneWayCollision() bool {
	return s.kind != SHAPE_SEPARATION_RAY
}

func (s *Shape) CustomBias() float64 {
	return s.customBias
}

func (s *Shape) SetCustomBias(bias float64) {
	s.customBias = bias
}

func (s *Shape) configure(bb BB) {
	s.bb = bb
	s.configured = true
	for owner := range s.owners {
		owner.shapeChanged()
	}
}

func (s *Shape) addOwner(owner shapeOwner) {
	s.owners[owner]++
}

func (s *Shape) removeOwner(owner shapeOwner) {
	count, ok := s.owners[owner]
	if !ok {
		assert(false, "shape is not owned by ", owner)
		return
	}
	if count <= 1 {
		delete(s.owners, owner)
	} else {
		s.owners[owner] = count - 1
	}
}

func (s *Shape) IsOwner(owner shapeOwner) bool {
	_, ok := s.owners[owner]
	return ok
}

// OwnerCount is the number of distinct objects referencing the shape.
func (s *Shape) OwnerCount() int {
	return len(s.owners)
}

// releaseOwners detaches the shape from every owner, as freeing it does.
func (s *Shape) releaseOwners() {
	for len(s.owners) > 0 {
		for owner := range s.owners {
			owner.removeShape(s)
			break
		}
	}
}

func (s *Shape) destroy() {
	assert(len(s.owners) == 0, "destroying a shape that still has owners")
}

func (s *Shape) Support(dir Vector) Vector {
	pts, _ := s.Supports(dir)
	return pts[0]
}

// Supports returns the extreme point, or the extreme edge when dir is close
// enough to an edge normal, along the local direction dir.
func (s *Shape) Supports(dir Vector) (pts [2]Vector, n int) {
	switch s.kind {
	case SHAPE_WORLD_BOUNDARY:
		return pts, 0
	case SHAPE_SEPARATION_RAY:
		if dir.Y > 0 {
			pts[0] = Vector{0, s.length}
		}
		return pts, 1
	case SHAPE_SEGMENT:
		if math.Abs(dir.Dot(s.n)) > segmentIsValidSupportThreshold {
			pts[0], pts[1] = s.a, s.b
			return pts, 2
		}
		if dir.Dot(s.b.Sub(s.a)) > 0 {
			pts[0] = s.b
		} else {
			pts[0] = s.a
		}
		return pts, 1
	case SHAPE_CIRCLE:
		pts[0] = dir.Mult(s.radius)
		return pts, 1
	case SHAPE_RECTANGLE:
		for i := 0; i < 2; i++ {
			dp := dir.Axis(i)
			if math.Abs(dp) <= segmentIsValidSupportThreshold {
				continue
			}
			sgn := 1.0
			if dp < 0 {
				sgn = -1.0
			}
			pts[0].SetAxis(i, s.halfExtents.Axis(i)*sgn)
			pts[0].SetAxis(i^1, s.halfExtents.Axis(i^1))
			pts[1].SetAxis(i, s.halfExtents.Axis(i)*sgn)
			pts[1].SetAxis(i^1, -s.halfExtents.Axis(i^1))
			return pts, 2
		}
		pts[0] = Vector{s.halfExtents.X, s.halfExtents.Y}
		if dir.X < 0 {
			pts[0].X = -pts[0].X
		}
		if dir.Y < 0 {
			pts[0].Y = -pts[0].Y
		}
		return pts, 1
	case SHAPE_CAPSULE:
		h := s.height*0.5 - s.radius
		if h > 0 && math.Abs(dir.X) > segmentIsValidSupportThreshold {
			side := Vector{sign(dir.X) * s.radius, 0}
			pts[0] = side.Add(Vector{0, h})
			pts[1] = side.Sub(Vector{0, h})
			return pts, 2
		}
		p := dir.Mult(s.radius)
		if p.Y > 0 {
			p.Y += h
		} else {
			p.Y -= h
		}
		pts[0] = p
		return pts, 1
	case SHAPE_CONVEX_POLYGON:
		best, bestD := -1, -1e10
		for i, p := range s.points {
			if d := dir.Dot(p.pos); d > bestD {
				best, bestD = i, d
			}
			if p.normal.Dot(dir) > segmentIsValidSupportThreshold {
				pts[0] = p.pos
				pts[1] = s.points[(i+1)%len(s.points)].pos
				return pts, 2
			}
		}
		if best == -1 {
			assert(false, "convex polygon support not found")
			return pts, 0
		}
		pts[0] = s.points[best].pos
		return pts, 1
	case SHAPE_CONCAVE_POLYGON:
		if s.concave == nil || len(s.concave.points) == 0 {
			return pts, 0
		}
		best, bestD := 0, -1e10
		for i, p := range s.concave.points {
			if d := dir.Dot(p); d > bestD {
				best, bestD = i, d
			}
		}
		pts[0] = s.concave.points[best]
		return pts, 1
	}
	return pts, 0
}

// ContainsPoint tests a point in shape-local space.
func (s *Shape) ContainsPoint(p Vector) bool {
	switch s.kind {
	case SHAPE_WORLD_BOUNDARY:
		return s.normal.Dot(p) < s.d
	case SHAPE_CIRCLE:
		return p.LengthSq() < s.radius*s.radius
	case SHAPE_RECTANGLE:
		return p.X >= -s.halfExtents.X && p.X < s.halfExtents.X && p.Y >= -s.halfExtents.Y && p.Y < s.halfExtents.Y
	case SHAPE_CAPSULE:
		p.Y = math.Abs(p.Y) - (s.height*0.5 - s.radius)
		if p.Y < 0 {
			p.Y = 0
		}
		return p.LengthSq() < s.radius*s.radius
	case SHAPE_CONVEX_POLYGON:
		out, in := false, false
		for _, pt := range s.points {
			if pt.normal.Dot(p)-pt.normal.Dot(pt.pos) > 0 {
				out = true
			} else {
				in = true
			}
		}
		return in != out
	}
	// rays, segments and concave outlines have no inside
	return false
}

// IntersectSegment casts the local segment from->to against the shape and
// returns the first hit point and surface normal.
func (s *Shape) IntersectSegment(from, to Vector) (point, normal Vector, ok bool) {
	switch s.kind {
	case SHAPE_WORLD_BOUNDARY:
		seg := from.Sub(to)
		den := s.normal.Dot(seg)
		if math.Abs(den) <= CMP_EPSILON {
			return
		}
		dist := (s.normal.Dot(from) - s.d) / den
		if dist < -CMP_EPSILON || dist > 1.0+CMP_EPSILON {
			return
		}
		return from.Add(seg.Mult(-dist)), s.normal, true
	case SHAPE_SEGMENT:
		p, hit := SegmentIntersectsSegment(from, to, s.a, s.b)
		if !hit {
			return
		}
		if s.n.Dot(from) > s.n.Dot(s.a) {
			return p, s.n, true
		}
		return p, s.n.Neg(), true
	case SHAPE_CIRCLE:
		return intersectCircle(from, to, s.radius)
	case SHAPE_RECTANGLE:
		return s.bb.SegmentHit(from, to)
	case SHAPE_CAPSULE:
		return s.intersectCapsule(from, to)
	case SHAPE_CONVEX_POLYGON:
		dir := to.Sub(from).Normalize()
		best := 1e10
		for i, pt := range s.points {
			next := s.points[(i+1)%len(s.points)].pos
			res, hit := SegmentIntersectsSegment(from, to, pt.pos, next)
			if !hit {
				continue
			}
			if nd := dir.Dot(res); nd < best {
				best = nd
				point, normal, ok = res, pt.normal, true
			}
		}
		return
	case SHAPE_CONCAVE_POLYGON:
		if s.concave == nil {
			return
		}
		return s.concave.intersectSegment(from, to)
	}
	// separation rays cannot be hit
	return
}

func intersectCircle(from, to Vector, radius float64) (point, normal Vector, ok bool) {
	line := to.Sub(from)
	a := line.Dot(line)
	b := 2 * from.Dot(line)
	c := from.Dot(from) - radius*radius
	disc := b*b - 4*a*c
	if disc < 0 || a == 0 {
		return
	}
	res := (-b - math.Sqrt(disc)) / (2 * a)
	if res < 0 || res > 1+CMP_EPSILON {
		return
	}
	point = from.Add(line.Mult(res))
	return point, point.Normalize(), true
}

func (s *Shape) intersectCapsule(from, to Vector) (point, normal Vector, ok bool) {
	dir := to.Sub(from).Normalize()
	best := 1e10
	h := s.height*0.5 - s.radius
	for _, ofs := range [2]float64{-h, h} {
		shift := Vector{0, ofs}
		p, n, hit := intersectCircle(from.Add(shift), to.Add(shift), s.radius)
		if !hit {
			continue
		}
		p = p.Sub(shift)
		if pd := dir.Dot(p); pd < best {
			best = pd
			point, normal, ok = p, n, true
		}
	}
	body := BB{-s.radius, -h, s.radius, h}
	if p, n, hit := body.SegmentHit(from, to); hit {
		if pd := dir.Dot(p); pd < best {
			point, normal, ok = p, n, true
		}
	}
	return
}

// MomentOfInertia returns the inertia of the shape for the given mass,
// scaled by the owner's shape transform scale.
func (s *Shape) MomentOfInertia(mass float64, scale Vector) float64 {
	switch s.kind {
	case SHAPE_SEGMENT:
		return mass * s.a.Scale(scale).DistanceSq(s.b.Scale(scale)) / 12
	case SHAPE_CIRCLE:
		a := s.radius * scale.X
		b := s.radius * scale.Y
		return mass * (a*a + b*b) / 4
	case SHAPE_RECTANGLE:
		he2 := s.halfExtents.Mult(2).Scale(scale)
		return mass * he2.Dot(he2) / 12
	case SHAPE_CAPSULE:
		he2 := Vector{s.radius * 2, s.height}.Scale(scale)
		return mass * he2.Dot(he2) / 12
	case SHAPE_CONVEX_POLYGON:
		if len(s.points) == 0 {
			assert(false, "convex polygon shape has no points")
			return 0
		}
		bb := NewBBForPoint(s.points[0].pos.Scale(scale))
		for _, p := range s.points[1:] {
			bb = bb.Expand(p.pos.Scale(scale))
		}
		size := bb.Size()
		return mass * size.Dot(size) / 12
	case SHAPE_CONCAVE_POLYGON:
		// static geometry only; a rough box estimate keeps bodies usable
		size := s.bb.Size().Scale(scale)
		return mass * size.Dot(size) / 12
	}
	// world boundaries and rays are massless
	return 0
}

// projectRange projects the transformed shape onto a world axis.
func (s *Shape) projectRange(axis Vector, xform Transform) (min, max float64) {
	switch s.kind {
	case SHAPE_WORLD_BOUNDARY:
		return -1e10, 1e10
	case SHAPE_SEPARATION_RAY:
		max = axis.Dot(xform.Origin())
		min = axis.Dot(xform.Point(Vector{0, s.length}))
	case SHAPE_SEGMENT:
		min = axis.Dot(xform.Point(s.a))
		max = axis.Dot(xform.Point(s.b))
	case SHAPE_CIRCLE:
		d := axis.Dot(xform.Origin())
		scale := xform.VectInv(axis).Length()
		return d - s.radius*scale, d + s.radius*scale
	case SHAPE_RECTANGLE:
		min, max = 1e20, -1e20
		for i := 0; i < 4; i++ {
			corner := Vector{
				float64((i&1)*2-1) * s.halfExtents.X,
				float64((i>>1)*2-1) * s.halfExtents.Y,
			}
			d := axis.Dot(xform.Point(corner))
			if d > max {
				max = d
			}
			if d < min {
				min = d
			}
		}
		return
	case SHAPE_CAPSULE:
		n := xform.VectInv(axis).Normalize().Mult(s.radius)
		h := s.height*0.5 - s.radius
		if n.Y > 0 {
			n.Y += h
		} else {
			n.Y -= h
		}
		max = axis.Dot(xform.Point(n))
		min = axis.Dot(xform.Point(n.Neg()))
	case SHAPE_CONVEX_POLYGON:
		if len(s.points) == 0 {
			return 0, 0
		}
		min = axis.Dot(xform.Point(s.points[0].pos))
		max = min
		for _, p := range s.points[1:] {
			d := axis.Dot(xform.Point(p.pos))
			min = math.Min(min, d)
			max = math.Max(max, d)
		}
		return
	case SHAPE_CONCAVE_POLYGON:
		if s.concave == nil || len(s.concave.points) == 0 {
			return 0, 0
		}
		min = axis.Dot(xform.Point(s.concave.points[0]))
		max = min
		for _, p := range s.concave.points[1:] {
			d := axis.Dot(xform.Point(p))
			min = math.Min(min, d)
			max = math.Max(max, d)
		}
		return
	}
	if min > max {
		min, max = max, min
	}
	return
}

// projectRangeCast is projectRange over the whole sweep along cast.
func (s *Shape) projectRangeCast(cast, axis Vector, xform Transform) (min, max float64) {
	mina, maxa := s.projectRange(axis, xform)
	minb, maxb := s.projectRange(axis, xform.Translated(cast))
	return math.Min(mina, minb), math.Max(maxa, maxb)
}

// supportsTransformedCast returns world-space supports of the shape swept
// along cast, for the world direction normal.
func (s *Shape) supportsTransformedCast(cast, normal Vector, xform Transform) ([2]Vector, int) {
	pts, n := s.Supports(xform.VectInv(normal).Normalize())
	for i := 0; i < n; i++ {
		pts[i] = xform.Point(pts[i])
	}
	parallel := math.Abs(normal.Dot(cast.Normalize())) < 1.0-segmentIsValidSupportThreshold
	towards := cast.Dot(normal) > 0
	switch n {
	case 1:
		if parallel {
			// the swept point becomes an edge
			pts[1] = pts[0].Add(cast)
			n = 2
		} else if towards {
			pts[0] = pts[0].Add(cast)
		}
	case 2:
		if parallel {
			if pts[1].Sub(pts[0]).Dot(cast) > 0 {
				pts[1] = pts[1].Add(cast)
			} else {
				pts[0] = pts[0].Add(cast)
			}
		} else if towards {
			pts[0] = pts[0].Add(cast)
			pts[1] = pts[1].Add(cast)
		}
	}
	return pts, n
}

// segmentNormal is the world normal of a segment shape.
func (s *Shape) segmentNormal(xform Transform) Vector {
	return xform.Point(s.b).Sub(xform.Point(s.a)).Normalize().ReversePerp()
}

// edgeNormal is the world normal of edge i of a convex polygon.
func (s *Shape) edgeNormal(xform Transform, i int) Vector {
	a := s.points[i].pos
	b := s.points[(i+1)%len(s.points)].pos
	return xform.Point(b).Sub(xform.Point(a)).Normalize().ReversePerp()
}

// circleAxis is the axis from a world point to the nearest rectangle corner.
func (s *Shape) circleAxis(xform, xformInv Transform, p Vector) Vector {
	local := xformInv.Point(p)
	return xform.Point(s.cornerToward(local)).Sub(p).Normalize()
}

// boxAxis is the axis between the facing corners of two rectangles.
func (s *Shape) boxAxis(xform, xformInv Transform, other *Shape, otherXform, otherInv Transform) Vector {
	a := xform.Point(s.cornerToward(xformInv.Point(otherXform.Origin())))
	b := otherXform.Point(other.cornerToward(otherInv.Point(xform.Origin())))
	return a.Sub(b).Normalize()
}

func (s *Shape) cornerToward(local Vector) Vector {
	he := s.halfExtents
	if local.X < 0 {
		he.X = -he.X
	}
	if local.Y < 0 {
		he.Y = -he.Y
	}
	return he
}

// capsuleEnd is the world center of one capsule cap (dir is +1 or -1).
func (s *Shape) capsuleEnd(xform Transform, dir float64) Vector {
	return xform.Origin().Add(xform.YAxis().Mult(dir * (s.height*0.5 - s.radius)))
}
