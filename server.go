package physics

import (
	"fmt"
	"log"
)

// Server owns shapes, bodies, areas, joints and spaces behind RID handles
// and steps the active spaces together. A freed handle stays invalid.
type Server struct {
	shapes *ridOwner[*Shape]
	bodies *ridOwner[*Body]
	areas  *ridOwner[*Area]
	spaces *ridOwner[*Space]
	joints *ridOwner[Joint]

	active   bool
	stepping bool
}

func NewServer() *Server {
	return &Server{
		shapes: newRIDOwner[*Shape](ridShape),
		bodies: newRIDOwner[*Body](ridBody),
		areas:  newRIDOwner[*Area](ridArea),
		spaces: newRIDOwner[*Space](ridSpace),
		joints: newRIDOwner[Joint](ridJoint),
		active: true,
	}
}

// SetActive pauses or resumes Step.
func (s *Server) SetActive(active bool) {
	s.active = active
}

func (s *Server) IsActive() bool {
	return s.active
}

func invalid(what string, rid RID) error {
	return fmt.Errorf("%s %v: %w", what, rid, ErrInvalidHandle)
}

func (s *Server) ShapeCreate(kind ShapeType) RID {
	shape := NewShape(kind)
	shape.rid = s.shapes.make(shape)
	return shape.rid
}

func (s *Server) Shape(rid RID) (*Shape, error) {
	shape, ok := s.shapes.get(rid)
	if !ok {
		return nil, invalid("shape", rid)
	}
	return shape, nil
}

func (s *Server) ShapeSetData(rid RID, data interface{}) error {
	shape, err := s.Shape(rid)
	if err != nil {
		return err
	}
	return shape.SetData(data)
}

func (s *Server) ShapeData(rid RID) (interface{}, error) {
	shape, err := s.Shape(rid)
	if err != nil {
		return nil, err
	}
	return shape.Data(), nil
}

// ShapeCollide tests two free standing shapes and returns up to maxResults
// contact point pairs.
func (s *Server) ShapeCollide(shapeA RID, xa Transform, motionA Vector, shapeB RID, xb Transform, motionB Vector, maxResults int) ([]Vector, bool, error) {
	a, err := s.Shape(shapeA)
	if err != nil {
		return nil, false, err
	}
	b, err := s.Shape(shapeB)
	if err != nil {
		return nil, false, err
	}
	if !a.IsConfigured() || !b.IsConfigured() {
		return nil, false, ErrShapeNotConfigured
	}
	cc := newContactCollector(maxResults)
	if !Solve(a, xa, motionA, b, xb, motionB, cc.add, nil, 0, 0) {
		return nil, false, nil
	}
	return cc.points, true, nil
}

func (s *Server) SpaceCreate() RID {
	return s.SpaceCreateWithParams(DefaultSpaceParams())
}

func (s *Server) SpaceCreateWithParams(params SpaceParams) RID {
	space := NewSpaceWithParams(params)
	space.rid = s.spaces.make(space)
	return space.rid
}

func (s *Server) Space(rid RID) (*Space, error) {
	space, ok := s.spaces.get(rid)
	if !ok {
		return nil, invalid("space", rid)
	}
	return space, nil
}

// spaceOrNil resolves an optional space handle; the zero RID is no space.
func (s *Server) spaceOrNil(rid RID) (*Space, error) {
	if !rid.IsValid() {
		return nil, nil
	}
	return s.Space(rid)
}

func (s *Server) SpaceSetActive(rid RID, active bool) error {
	space, err := s.Space(rid)
	if err != nil {
		return err
	}
	space.SetActive(active)
	return nil
}

func (s *Server) BodyCreate() RID {
	body := NewBody()
	body.rid = s.bodies.make(body)
	return body.rid
}

func (s *Server) Body(rid RID) (*Body, error) {
	body, ok := s.bodies.get(rid)
	if !ok {
		return nil, invalid("body", rid)
	}
	return body, nil
}

// BodySetSpace moves a body into a space, or out of its space when space is
// the zero RID.
func (s *Server) BodySetSpace(body, space RID) error {
	b, err := s.Body(body)
	if err != nil {
		return err
	}
	sp, err := s.spaceOrNil(space)
	if err != nil {
		return err
	}
	b.SetSpace(sp)
	return nil
}

func (s *Server) BodyAddShape(body, shape RID, xform Transform, disabled bool) error {
	b, err := s.Body(body)
	if err != nil {
		return err
	}
	sh, err := s.Shape(shape)
	if err != nil {
		return err
	}
	b.AddShape(sh, xform, disabled)
	return nil
}

func (s *Server) AreaCreate() RID {
	area := NewArea()
	area.rid = s.areas.make(area)
	return area.rid
}

func (s *Server) Area(rid RID) (*Area, error) {
	area, ok := s.areas.get(rid)
	if !ok {
		return nil, invalid("area", rid)
	}
	return area, nil
}

func (s *Server) AreaSetSpace(area, space RID) error {
	a, err := s.Area(area)
	if err != nil {
		return err
	}
	sp, err := s.spaceOrNil(space)
	if err != nil {
		return err
	}
	a.SetSpace(sp)
	return nil
}

func (s *Server) AreaAddShape(area, shape RID, xform Transform, disabled bool) error {
	a, err := s.Area(area)
	if err != nil {
		return err
	}
	sh, err := s.Shape(shape)
	if err != nil {
		return err
	}
	a.AddShape(sh, xform, disabled)
	return nil
}

// jointBodies resolves the bodies of a new joint. b may be the zero RID to
// anchor a to the world.
func (s *Server) jointBodies(a, b RID) (*Body, *Body, error) {
	bodyA, err := s.Body(a)
	if err != nil {
		return nil, nil, err
	}
	if !b.IsValid() {
		return bodyA, nil, nil
	}
	bodyB, err := s.Body(b)
	if err != nil {
		return nil, nil, err
	}
	if bodyA == bodyB {
		return nil, nil, fmt.Errorf("joint of %v to itself: %w", a, ErrInvalidParameter)
	}
	return bodyA, bodyB, nil
}

func (s *Server) addJoint(joint Joint) RID {
	rid := s.joints.make(joint)
	joint.setRID(rid)
	return rid
}

func (s *Server) JointCreatePin(a, b RID, pivot Vector) (RID, error) {
	bodyA, bodyB, err := s.jointBodies(a, b)
	if err != nil {
		return 0, err
	}
	return s.addJoint(NewPinJoint(bodyA, bodyB, pivot)), nil
}

func (s *Server) JointCreateGroove(a, b RID, grooveA, grooveB, anchor Vector) (RID, error) {
	bodyA, bodyB, err := s.jointBodies(a, b)
	if err != nil {
		return 0, err
	}
	return s.addJoint(NewGrooveJoint(bodyA, bodyB, grooveA, grooveB, anchor)), nil
}

func (s *Server) JointCreateDampedSpring(a, b RID, anchorA, anchorB Vector) (RID, error) {
	bodyA, bodyB, err := s.jointBodies(a, b)
	if err != nil {
		return 0, err
	}
	return s.addJoint(NewDampedSpringJoint(bodyA, bodyB, anchorA, anchorB)), nil
}

func (s *Server) Joint(rid RID) (Joint, error) {
	joint, ok := s.joints.get(rid)
	if !ok {
		return nil, invalid("joint", rid)
	}
	return joint, nil
}

// Free releases any resource. Shapes are first removed from every object
// using them, objects leave their space and spaces drop their objects.
func (s *Server) Free(rid RID) error {
	switch rid.kind() {
	case ridShape:
		shape, err := s.Shape(rid)
		if err != nil {
			return err
		}
		shape.releaseOwners()
		shape.destroy()
		s.shapes.free(rid)
	case ridBody:
		body, err := s.Body(rid)
		if err != nil {
			return err
		}
		body.SetSpace(nil)
		body.clearConstraints()
		body.ClearShapes()
		s.bodies.free(rid)
	case ridArea:
		area, err := s.Area(rid)
		if err != nil {
			return err
		}
		area.SetSpace(nil)
		area.ClearShapes()
		s.areas.free(rid)
	case ridJoint:
		joint, err := s.Joint(rid)
		if err != nil {
			return err
		}
		joint.disconnect()
		s.joints.free(rid)
	case ridSpace:
		space, err := s.Space(rid)
		if err != nil {
			return err
		}
		if space.locked {
			log.Println("Free:", space, ErrSpaceLocked)
			return ErrSpaceLocked
		}
		space.EachBody(func(body *Body) { body.SetSpace(nil) })
		space.EachArea(func(area *Area) { area.SetSpace(nil) })
		s.spaces.free(rid)
	default:
		return invalid("resource", rid)
	}
	return nil
}

// Step advances every active space by delta seconds.
func (s *Server) Step(delta float64) {
	if !s.active {
		return
	}
	if s.stepping {
		log.Println("Step: server is already stepping")
		return
	}
	s.stepping = true
	s.spaces.each(func(_ RID, space *Space) {
		if space.active {
			space.Step(delta)
		}
	})
	s.stepping = false
}

// FlushQueries delivers the events of every active space and returns how
// many callbacks ran.
func (s *Server) FlushQueries() (int, error) {
	if !s.active {
		return 0, nil
	}
	total := 0
	var err error
	s.spaces.each(func(_ RID, space *Space) {
		if !space.active {
			return
		}
		n, e := space.DispatchEvents()
		total += n
		if e != nil && err == nil {
			err = e
		}
	})
	return total, err
}

// Counts reports how many live resources of each kind the server holds.
func (s *Server) Counts() (shapes, bodies, areas, joints, spaces int) {
	return s.shapes.count, s.bodies.count, s.areas.count, s.joints.count, s.spaces.count
}
