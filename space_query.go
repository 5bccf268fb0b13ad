package physics

import (
	"log"
	"math"
	"sync"
)

// QueryFilter selects which objects a query sees.
type QueryFilter struct {
	Exclude           []RID
	CollisionMask     uint32
	CollideWithBodies bool
	CollideWithAreas  bool
}

// DefaultQueryFilter sees every body and no area.
func DefaultQueryFilter() QueryFilter {
	return QueryFilter{
		CollisionMask:     math.MaxUint32,
		CollideWithBodies: true,
	}
}

func (f *QueryFilter) excludes(rid RID) bool {
	for _, e := range f.Exclude {
		if e == rid {
			return true
		}
	}
	return false
}

func (f *QueryFilter) accepts(obj *CollisionObject) bool {
	if obj.layer&f.CollisionMask == 0 {
		return false
	}
	if obj.kind == OBJECT_AREA && !f.CollideWithAreas {
		return false
	}
	if obj.kind == OBJECT_BODY && !f.CollideWithBodies {
		return false
	}
	return !f.excludes(obj.rid)
}

type PointParameters struct {
	QueryFilter
	Position Vector
	// PickPoint skips objects that are not pickable.
	PickPoint bool
}

func NewPointParameters(position Vector) PointParameters {
	return PointParameters{QueryFilter: DefaultQueryFilter(), Position: position}
}

type RayParameters struct {
	QueryFilter
	From, To Vector
	// HitFromInside reports a shape the ray starts in, at From with a zero
	// normal. Otherwise such shapes are skipped.
	HitFromInside bool
}

func NewRayParameters(from, to Vector) RayParameters {
	return RayParameters{QueryFilter: DefaultQueryFilter(), From: from, To: to}
}

type ShapeParameters struct {
	QueryFilter
	Shape     *Shape
	Transform Transform
	Motion    Vector
	Margin    float64
}

func NewShapeParameters(shape *Shape, xform Transform) ShapeParameters {
	return ShapeParameters{QueryFilter: DefaultQueryFilter(), Shape: shape, Transform: xform}
}

// ShapeResult is one shape found by a point or shape query.
type ShapeResult struct {
	Collider   RID
	InstanceID uint64
	Shape      int
}

type RayResult struct {
	Position   Vector
	Normal     Vector
	Collider   RID
	InstanceID uint64
	Shape      int
}

// ShapeRestInfo describes the deepest contact of a shape at rest.
type ShapeRestInfo struct {
	Point          Vector
	Normal         Vector
	Collider       RID
	InstanceID     uint64
	Shape          int
	LinearVelocity Vector
}

// cullBuffer holds broad-phase candidates for one query.
type cullBuffer struct {
	objs []*CollisionObject
	subs []int
}

var cullBuffers = sync.Pool{
	New: func() interface{} {
		return &cullBuffer{
			objs: make([]*CollisionObject, INTERSECTION_QUERY_MAX),
			subs: make([]int, INTERSECTION_QUERY_MAX),
		}
	},
}

func getCullBuffer() *cullBuffer {
	return cullBuffers.Get().(*cullBuffer)
}

func putCullBuffer(buf *cullBuffer) {
	for i := range buf.objs {
		buf.objs[i] = nil
	}
	cullBuffers.Put(buf)
}

// shapeWorldTransform is the transform of shape i of obj in world space.
func (obj *CollisionObject) shapeWorldTransform(i int) Transform {
	return obj.transform.Mult(obj.shapes[i].xform)
}

func checkShapeParams(params *ShapeParameters) error {
	if params.Shape == nil {
		return ErrInvalidHandle
	}
	if !params.Shape.IsConfigured() {
		return ErrShapeNotConfigured
	}
	return nil
}

// sweptAABB is the box covering the shape over its whole motion.
func sweptAABB(params *ShapeParameters, margin float64) BB {
	bb := params.Transform.BB(params.Shape.bb)
	return bb.Sweep(params.Motion).Grow(margin)
}

// IntersectPoint lists up to maxResults shapes containing the point.
func (space *Space) IntersectPoint(params PointParameters, maxResults int) ([]ShapeResult, error) {
	if space.locked {
		log.Println("IntersectPoint:", ErrSpaceLocked)
		return nil, ErrSpaceLocked
	}
	if maxResults <= 0 {
		return nil, nil
	}

	buf := getCullBuffer()
	defer putCullBuffer(buf)
	bb := NewBBForExtents(params.Position, CMP_EPSILON, CMP_EPSILON)
	amount := space.broadphase.CullAABB(bb, buf.objs, buf.subs)

	var results []ShapeResult
	for i := 0; i < amount; i++ {
		obj, shapeIdx := buf.objs[i], buf.subs[i]
		if !params.accepts(obj) {
			continue
		}
		if params.PickPoint && !obj.pickable {
			continue
		}
		local := obj.shapeWorldTransform(shapeIdx).Inverse().Point(params.Position)
		if !obj.shapes[shapeIdx].shape.ContainsPoint(local) {
			continue
		}
		results = append(results, ShapeResult{obj.rid, obj.instanceID, shapeIdx})
		if len(results) >= maxResults {
			break
		}
	}
	return results, nil
}

// IntersectRay finds the hit closest to From, measured along the ray.
func (space *Space) IntersectRay(params RayParameters) (RayResult, bool, error) {
	if space.locked {
		log.Println("IntersectRay:", ErrSpaceLocked)
		return RayResult{}, false, ErrSpaceLocked
	}

	begin, end := params.From, params.To
	dir := end.Sub(begin).Normalize()

	buf := getCullBuffer()
	defer putCullBuffer(buf)
	amount := space.broadphase.CullSegment(begin, end, buf.objs, buf.subs)

	var result RayResult
	collided := false
	minD := 1e10

	for i := 0; i < amount; i++ {
		obj, shapeIdx := buf.objs[i], buf.subs[i]
		if !params.accepts(obj) {
			continue
		}

		inv := obj.shapes[shapeIdx].xformInv.Mult(obj.invTransform)
		localFrom := inv.Point(begin)
		localTo := inv.Point(end)
		shape := obj.shapes[shapeIdx].shape

		if shape.ContainsPoint(localFrom) {
			if !params.HitFromInside {
				continue
			}
			result = RayResult{begin, Vector{}, obj.rid, obj.instanceID, shapeIdx}
			collided = true
			break
		}

		point, normal, ok := shape.IntersectSegment(localFrom, localTo)
		if !ok {
			continue
		}
		point = obj.shapeWorldTransform(shapeIdx).Point(point)
		if d := dir.Dot(point); d < minD {
			minD = d
			result = RayResult{point, inv.VectInv(normal).Normalize(), obj.rid, obj.instanceID, shapeIdx}
			collided = true
		}
	}
	return result, collided, nil
}

// IntersectShape lists up to maxResults shapes overlapping the shape over
// its motion.
func (space *Space) IntersectShape(params ShapeParameters, maxResults int) ([]ShapeResult, error) {
	if space.locked {
		log.Println("IntersectShape:", ErrSpaceLocked)
		return nil, ErrSpaceLocked
	}
	if err := checkShapeParams(&params); err != nil {
		return nil, err
	}
	if maxResults <= 0 {
		return nil, nil
	}

	buf := getCullBuffer()
	defer putCullBuffer(buf)
	amount := space.broadphase.CullAABB(sweptAABB(&params, params.Margin), buf.objs, buf.subs)

	var results []ShapeResult
	for i := 0; i < amount && len(results) < maxResults; i++ {
		obj, shapeIdx := buf.objs[i], buf.subs[i]
		if !params.accepts(obj) {
			continue
		}
		if !Solve(params.Shape, params.Transform, params.Motion, obj.shapes[shapeIdx].shape, obj.shapeWorldTransform(shapeIdx), Vector{}, nil, nil, params.Margin, 0) {
			continue
		}
		results = append(results, ShapeResult{obj.rid, obj.instanceID, shapeIdx})
	}
	return results, nil
}

// castFraction bisects the motion fraction at which a hits b. low is the
// last fraction found free, hi the first found colliding.
func castFraction(a *Shape, xa Transform, motion Vector, b *Shape, xb Transform, margin float64) (low, hi float64) {
	mnormal := motion.Normalize()
	hi = 1
	coeff := 0.5
	for k := 0; k < 8; k++ {
		fraction := low + (hi-low)*coeff

		sep := mnormal
		if Solve(a, xa, motion.Mult(fraction), b, xb, Vector{}, nil, &sep, margin, 0) {
			hi = fraction
			if k == 0 || low > 0 {
				coeff = 0.5
			} else {
				// collided again: a long motion probably hits near the start
				coeff = 0.25
			}
		} else {
			low = fraction
			if k == 0 || hi < 1 {
				coeff = 0.5
			} else {
				coeff = 0.75
			}
		}
	}
	return low, hi
}

// CastMotion sweeps the shape along its motion and returns the largest
// fraction it can travel freely and the smallest at which it collides.
// Shapes it starts inside of are ignored. Without a hit both are 1.
func (space *Space) CastMotion(params ShapeParameters) (safe, unsafe float64, err error) {
	if space.locked {
		log.Println("CastMotion:", ErrSpaceLocked)
		return 0, 0, ErrSpaceLocked
	}
	if err := checkShapeParams(&params); err != nil {
		return 0, 0, err
	}

	buf := getCullBuffer()
	defer putCullBuffer(buf)
	amount := space.broadphase.CullAABB(sweptAABB(&params, params.Margin), buf.objs, buf.subs)

	safe, unsafe = 1, 1
	for i := 0; i < amount; i++ {
		obj, shapeIdx := buf.objs[i], buf.subs[i]
		if !params.accepts(obj) {
			continue
		}
		other := obj.shapes[shapeIdx].shape
		xform := obj.shapeWorldTransform(shapeIdx)

		if !Solve(params.Shape, params.Transform, params.Motion, other, xform, Vector{}, nil, nil, params.Margin, 0) {
			continue
		}
		if Solve(params.Shape, params.Transform, Vector{}, other, xform, Vector{}, nil, nil, params.Margin, 0) {
			continue
		}

		low, hi := castFraction(params.Shape, params.Transform, params.Motion, other, xform, params.Margin)
		if low < safe {
			safe, unsafe = low, hi
		}
	}
	return safe, unsafe, nil
}

// contactCollector gathers up to max contact point pairs, replacing the
// shallowest once full. A non-zero validDir rejects contacts that do not
// push along it, as one-way shapes need.
type contactCollector struct {
	max    int
	points []Vector // a0, b0, a1, b1, ...
	amount int
	passed int

	validDir     Vector
	validDepth   float64
	invalidByDir int
}

func newContactCollector(max int) *contactCollector {
	return &contactCollector{max: max, points: make([]Vector, 0, max*2)}
}

func (c *contactCollector) reset() {
	c.points = c.points[:0]
	c.amount = 0
	c.passed = 0
	c.invalidByDir = 0
}

func (c *contactCollector) add(pointA, pointB Vector) {
	if c.max == 0 {
		return
	}

	rel := pointA.Sub(pointB)
	relLenSq := rel.LengthSq()
	if !c.validDir.IsZero() {
		if c.validDepth < 10e20 {
			if relLenSq > c.validDepth*c.validDepth ||
				(relLenSq > CMP_EPSILON && c.validDir.Dot(rel.Normalize()) < CMP_EPSILON) {
				c.invalidByDir++
				return
			}
		} else if relLenSq > 0 && c.validDir.Dot(rel.Normalize()) < CMP_EPSILON {
			return
		}
	}

	if c.amount == c.max {
		minDepth := 1e20
		minIdx := 0
		for i := 0; i < c.amount; i++ {
			d := c.points[i*2].DistanceSq(c.points[i*2+1])
			if d < minDepth {
				minDepth = d
				minIdx = i
			}
		}
		if relLenSq < minDepth {
			return
		}
		c.points[minIdx*2] = pointA
		c.points[minIdx*2+1] = pointB
		c.passed++
		return
	}

	c.points = append(c.points, pointA, pointB)
	c.amount++
	c.passed++
}

// CollideShape returns up to maxResults contacts of the shape against the
// space, as pairs of points: the point on the shape, then the point on the
// other object.
func (space *Space) CollideShape(params ShapeParameters, maxResults int) ([]Vector, error) {
	if space.locked {
		log.Println("CollideShape:", ErrSpaceLocked)
		return nil, ErrSpaceLocked
	}
	if err := checkShapeParams(&params); err != nil {
		return nil, err
	}
	if maxResults <= 0 {
		return nil, nil
	}

	buf := getCullBuffer()
	defer putCullBuffer(buf)
	amount := space.broadphase.CullAABB(sweptAABB(&params, params.Margin), buf.objs, buf.subs)

	cbk := newContactCollector(maxResults)
	for i := 0; i < amount; i++ {
		obj, shapeIdx := buf.objs[i], buf.subs[i]
		if !params.accepts(obj) {
			continue
		}
		Solve(params.Shape, params.Transform, params.Motion, obj.shapes[shapeIdx].shape, obj.shapeWorldTransform(shapeIdx), Vector{}, cbk.add, nil, params.Margin, 0)
	}
	if cbk.amount == 0 {
		return nil, nil
	}
	return cbk.points, nil
}

// restCollector keeps the deepest contact whose depth is at least
// minAllowedDepth.
type restCollector struct {
	object     *CollisionObject
	shape      int
	localShape int

	bestObject     *CollisionObject
	bestShape      int
	bestLocalShape int
	bestContact    Vector
	bestNormal     Vector
	bestLen        float64

	validDir        Vector
	validDepth      float64
	minAllowedDepth float64
}

func (r *restCollector) add(pointA, pointB Vector) {
	rel := pointB.Sub(pointA)
	length := rel.Length()
	if length < r.minAllowedDepth || length <= r.bestLen {
		return
	}
	normal := rel.Mult(1 / length)

	if !r.validDir.IsZero() {
		if length > r.validDepth {
			return
		}
		if r.validDir.Dot(normal) > -CMP_EPSILON {
			return
		}
	}

	r.bestLen = length
	r.bestContact = pointB
	r.bestNormal = normal
	r.bestObject = r.object
	r.bestShape = r.shape
	r.bestLocalShape = r.localShape
}

// pointVelocity is the velocity of obj at a world point. Areas do not move.
func pointVelocity(obj *CollisionObject, point Vector) Vector {
	if obj.kind != OBJECT_BODY {
		return Vector{}
	}
	body := obj.body
	rel := point.Sub(body.transform.Origin().Add(body.centerOfMass))
	return body.velocityAt(rel)
}

// RestInfo finds the deepest contact of the shape against the space.
func (space *Space) RestInfo(params ShapeParameters) (ShapeRestInfo, bool, error) {
	if space.locked {
		log.Println("RestInfo:", ErrSpaceLocked)
		return ShapeRestInfo{}, false, ErrSpaceLocked
	}
	if err := checkShapeParams(&params); err != nil {
		return ShapeRestInfo{}, false, err
	}

	margin := math.Max(params.Margin, space.params.TestMotionMinMargin)

	buf := getCullBuffer()
	defer putCullBuffer(buf)
	amount := space.broadphase.CullAABB(sweptAABB(&params, margin), buf.objs, buf.subs)

	rcd := restCollector{
		minAllowedDepth: math.Min(params.Motion.Length(), margin*space.params.MinContactDepthFactor),
	}
	for i := 0; i < amount; i++ {
		obj, shapeIdx := buf.objs[i], buf.subs[i]
		if !params.accepts(obj) {
			continue
		}
		rcd.validDir = Vector{}
		rcd.object = obj
		rcd.shape = shapeIdx
		rcd.localShape = 0
		Solve(params.Shape, params.Transform, params.Motion, obj.shapes[shapeIdx].shape, obj.shapeWorldTransform(shapeIdx), Vector{}, rcd.add, nil, margin, 0)
	}

	if rcd.bestLen == 0 || rcd.bestObject == nil {
		return ShapeRestInfo{}, false, nil
	}
	return ShapeRestInfo{
		Point:          rcd.bestContact,
		Normal:         rcd.bestNormal,
		Collider:       rcd.bestObject.rid,
		InstanceID:     rcd.bestObject.instanceID,
		Shape:          rcd.bestShape,
		LinearVelocity: pointVelocity(rcd.bestObject, rcd.bestContact),
	}, true, nil
}
