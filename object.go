package physics

import "log"

type ObjectType int

// Areas sort before bodies when a broad-phase pair is created.
const (
	OBJECT_AREA ObjectType = iota
	OBJECT_BODY
)

type objectShape struct {
	xform, xformInv Transform
	shape           *Shape
	bpID            uint32
	aabb            BB
	disabled        bool
	oneWay          bool
	oneWayMargin    float64
}

// CollisionObject is the part shared by bodies and areas: identity,
// transform, shapes and collision filtering.
type CollisionObject struct {
	rid        RID
	kind       ObjectType
	instanceID uint64

	space     *Space
	spaceSlot int

	transform    Transform
	invTransform Transform

	shapes []objectShape

	layer, mask uint32
	priority    float64
	pickable    bool
	static      bool

	body *Body
	area *Area
}

func (obj *CollisionObject) init(kind ObjectType) {
	obj.kind = kind
	obj.spaceSlot = -1
	obj.transform = NewTransformIdentity()
	obj.invTransform = NewTransformIdentity()
	obj.layer = 1
	obj.mask = 1
	obj.priority = 1
	obj.pickable = true
}

func (obj *CollisionObject) RID() RID {
	return obj.rid
}

func (obj *CollisionObject) Type() ObjectType {
	return obj.kind
}

// InstanceID is the caller's opaque reference to whatever owns the object.
func (obj *CollisionObject) InstanceID() uint64 {
	return obj.instanceID
}

func (obj *CollisionObject) SetInstanceID(id uint64) {
	obj.instanceID = id
}

func (obj *CollisionObject) Space() *Space {
	return obj.space
}

func (obj *CollisionObject) Transform() Transform {
	return obj.transform
}

func (obj *CollisionObject) InvTransform() Transform {
	return obj.invTransform
}

func (obj *CollisionObject) ShapeCount() int {
	return len(obj.shapes)
}

func (obj *CollisionObject) Shape(i int) *Shape {
	if i < 0 || i >= len(obj.shapes) {
		return nil
	}
	return obj.shapes[i].shape
}

func (obj *CollisionObject) ShapeTransform(i int) Transform {
	return obj.shapes[i].xform
}

func (obj *CollisionObject) shapeInvTransform(i int) Transform {
	return obj.shapes[i].xformInv
}

// ShapeAABB is the cached world bounds of shape i.
func (obj *CollisionObject) ShapeAABB(i int) BB {
	return obj.shapes[i].aabb
}

func (obj *CollisionObject) IsShapeDisabled(i int) bool {
	return obj.shapes[i].disabled
}

func (obj *CollisionObject) IsShapeOneWay(i int) bool {
	return obj.shapes[i].oneWay
}

func (obj *CollisionObject) ShapeOneWayMargin(i int) float64 {
	return obj.shapes[i].oneWayMargin
}

func (obj *CollisionObject) CollisionLayer() uint32 {
	return obj.layer
}

func (obj *CollisionObject) CollisionMask() uint32 {
	return obj.mask
}

func (obj *CollisionObject) CollisionPriority() float64 {
	return obj.priority
}

func (obj *CollisionObject) IsPickable() bool {
	return obj.pickable
}

func (obj *CollisionObject) SetPickable(pickable bool) {
	obj.pickable = pickable
}

// SetCollisionLayer re-registers the shapes so that pairs are filtered
// again with the new layer.
func (obj *CollisionObject) SetCollisionLayer(layer uint32) {
	if obj.layer == layer {
		return
	}
	obj.layer = layer
	obj.refilter()
}

func (obj *CollisionObject) SetCollisionMask(mask uint32) {
	if obj.mask == mask {
		return
	}
	obj.mask = mask
	obj.refilter()
}

func (obj *CollisionObject) SetCollisionPriority(priority float64) {
	if priority <= 0 {
		log.Println("SetCollisionPriority: priority must be positive, got", priority)
		return
	}
	obj.priority = priority
}

func (obj *CollisionObject) refilter() {
	obj.unregisterShapes()
	obj.shapeChanged()
}

// interactsWith reports whether either object's layer is in the other's mask.
func (obj *CollisionObject) interactsWith(other *CollisionObject) bool {
	return obj.layer&other.mask != 0 || other.layer&obj.mask != 0
}

// collidesWith reports whether obj is affected by other.
func (obj *CollisionObject) collidesWith(other *CollisionObject) bool {
	return other.layer&obj.mask != 0
}

func (obj *CollisionObject) AddShape(shape *Shape, xform Transform, disabled bool) {
	obj.shapes = append(obj.shapes, objectShape{
		shape:    shape,
		xform:    xform,
		xformInv: xform.Inverse(),
		disabled: disabled,
	})
	shape.addOwner(obj)
	obj.shapeChanged()
}

func (obj *CollisionObject) SetShape(i int, shape *Shape) error {
	if i < 0 || i >= len(obj.shapes) {
		return ErrInvalidParameter
	}
	if !shape.IsConfigured() {
		return ErrShapeNotConfigured
	}
	s := &obj.shapes[i]
	s.shape.removeOwner(obj)
	s.shape = shape
	shape.addOwner(obj)
	obj.shapeChanged()
	return nil
}

func (obj *CollisionObject) SetShapeTransform(i int, xform Transform) error {
	if i < 0 || i >= len(obj.shapes) {
		return ErrInvalidParameter
	}
	obj.shapes[i].xform = xform
	obj.shapes[i].xformInv = xform.Inverse()
	obj.shapeChanged()
	return nil
}

// SetShapeDisabled pulls a shape out of the broad phase, or puts it back.
// It is refused while the space is stepping.
func (obj *CollisionObject) SetShapeDisabled(i int, disabled bool) error {
	if i < 0 || i >= len(obj.shapes) {
		return ErrInvalidParameter
	}
	if obj.space != nil && obj.space.locked {
		log.Println("SetShapeDisabled:", ErrSpaceLocked)
		return ErrSpaceLocked
	}
	s := &obj.shapes[i]
	if s.disabled == disabled {
		return nil
	}
	s.disabled = disabled
	if obj.space == nil {
		return nil
	}
	if disabled && s.bpID != 0 {
		obj.space.broadphase.Remove(s.bpID)
		s.bpID = 0
	}
	obj.shapeChanged()
	return nil
}

// SetShapeOneWay makes shape i only collide with things coming from the
// side its local Y axis points away from.
func (obj *CollisionObject) SetShapeOneWay(i int, enable bool, margin float64) error {
	if i < 0 || i >= len(obj.shapes) {
		return ErrInvalidParameter
	}
	if obj.kind == OBJECT_AREA && enable {
		return ErrInvalidParameter
	}
	obj.shapes[i].oneWay = enable
	obj.shapes[i].oneWayMargin = margin
	return nil
}

// RemoveShapeAt removes shape i. Shapes after it shift down one index, so
// their broad-phase entries are recreated with the new index.
func (obj *CollisionObject) RemoveShapeAt(i int) error {
	if i < 0 || i >= len(obj.shapes) {
		return ErrInvalidParameter
	}
	for j := i; j < len(obj.shapes); j++ {
		if obj.shapes[j].bpID == 0 {
			continue
		}
		obj.space.broadphase.Remove(obj.shapes[j].bpID)
		obj.shapes[j].bpID = 0
	}
	obj.shapes[i].shape.removeOwner(obj)
	obj.shapes = append(obj.shapes[:i], obj.shapes[i+1:]...)
	obj.shapeChanged()
	return nil
}

// removeShape drops every use of shape, as freeing the shape requires.
func (obj *CollisionObject) removeShape(shape *Shape) {
	for i := 0; i < len(obj.shapes); {
		if obj.shapes[i].shape == shape {
			obj.RemoveShapeAt(i)
			continue
		}
		i++
	}
}

func (obj *CollisionObject) ClearShapes() {
	for len(obj.shapes) > 0 {
		obj.RemoveShapeAt(0)
	}
}

// shapeChanged refreshes the broad phase and lets the body or area react.
func (obj *CollisionObject) shapeChanged() {
	obj.updateShapes()
	switch obj.kind {
	case OBJECT_BODY:
		obj.body.shapesChanged()
	case OBJECT_AREA:
		obj.area.shapesChanged()
	}
}

func (obj *CollisionObject) shapeWorldAABB(s *objectShape) BB {
	bb := obj.transform.Mult(s.xform).BB(s.shape.bb)
	size := bb.Size()
	return bb.Grow((size.X + size.Y) * 0.5 * 0.05)
}

func (obj *CollisionObject) updateShapes() {
	obj.updateShapesWithMotion(Vector{})
}

// updateShapesWithMotion refreshes each shape's bounds, swept by motion so
// that fast bodies find their pairs ahead of time.
func (obj *CollisionObject) updateShapesWithMotion(motion Vector) {
	if obj.space == nil {
		return
	}
	bp := obj.space.broadphase
	for i := range obj.shapes {
		s := &obj.shapes[i]
		if s.disabled {
			continue
		}
		bb := obj.shapeWorldAABB(s)
		if !motion.IsZero() {
			bb = bb.Sweep(motion)
		}
		s.aabb = bb
		if s.bpID == 0 {
			s.bpID = bp.Create(obj, i, bb, obj.static)
			continue
		}
		bp.Move(s.bpID, bb)
	}
}

func (obj *CollisionObject) unregisterShapes() {
	if obj.space == nil {
		return
	}
	for i := range obj.shapes {
		s := &obj.shapes[i]
		if s.bpID != 0 {
			obj.space.broadphase.Remove(s.bpID)
			s.bpID = 0
		}
	}
}

func (obj *CollisionObject) setStatic(static bool) {
	if obj.static == static {
		return
	}
	obj.static = static
	if obj.space == nil {
		return
	}
	for i := range obj.shapes {
		if id := obj.shapes[i].bpID; id != 0 {
			obj.space.broadphase.SetStatic(id, static)
		}
	}
}

func (obj *CollisionObject) setTransform(xform Transform, update bool) {
	obj.transform = xform
	if update {
		obj.updateShapes()
	}
}

func (obj *CollisionObject) setInvTransform(xform Transform) {
	obj.invTransform = xform
}

func (obj *CollisionObject) setSpace(space *Space) {
	if obj.space != nil {
		obj.unregisterShapes()
		obj.space.removeObject(obj)
	}
	obj.space = space
	if space != nil {
		space.addObject(obj)
		obj.updateShapes()
	}
}
