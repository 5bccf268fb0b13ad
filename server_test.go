package physics

import (
	"errors"
	"testing"
)

func serverBall(t *testing.T, s *Server, space RID, pos Vector) RID {
	t.Helper()
	shape := s.ShapeCreate(SHAPE_CIRCLE)
	if err := s.ShapeSetData(shape, 0.5); err != nil {
		t.Fatal(err)
	}
	body := s.BodyCreate()
	if err := s.BodyAddShape(body, shape, NewTransformIdentity(), false); err != nil {
		t.Fatal(err)
	}
	b, _ := s.Body(body)
	b.SetTransform(NewTransformTranslate(pos))
	if err := s.BodySetSpace(body, space); err != nil {
		t.Fatal(err)
	}
	return body
}

func TestRID_Reuse(t *testing.T) {
	owner := newRIDOwner[int](ridBody)
	first := owner.make(1)
	if !owner.free(first) || owner.free(first) {
		t.Fatal("A handle frees exactly once")
	}
	second := owner.make(2)
	if first.index() != second.index() {
		t.Error("Expected the slot to be reused")
	}
	if first == second {
		t.Error("A reused slot must hand out a new handle")
	}
	if _, ok := owner.get(first); ok {
		t.Error("The freed handle should stay invalid")
	}
	if v, ok := owner.get(second); !ok || v != 2 {
		t.Error("Expected the new handle to resolve")
	}
	if second.kind() != ridBody || second.String() == "" {
		t.Error(second)
	}
	if RID(0).IsValid() {
		t.Error("The zero RID is never valid")
	}
}

func TestServer_FreeInvalidates(t *testing.T) {
	s := NewServer()
	space := s.SpaceCreate()
	body := serverBall(t, s, space, Vector{})

	if err := s.Free(body); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Body(body); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Expected ErrInvalidHandle, got %v", err)
	}
	if err := s.Free(body); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Double free should fail, got %v", err)
	}
	if err := s.Free(0); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Freeing the zero RID should fail, got %v", err)
	}
	// a handle of one kind never resolves as another
	if _, err := s.Area(space); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Expected ErrInvalidHandle, got %v", err)
	}
	sp, _ := s.Space(space)
	left := 0
	sp.EachBody(func(*Body) { left++ })
	if left != 0 {
		t.Error("A freed body should leave its space")
	}
}

func TestServer_FreeShapeDetaches(t *testing.T) {
	s := NewServer()
	shape := s.ShapeCreate(SHAPE_RECTANGLE)
	if err := s.ShapeSetData(shape, Vector{1, 1}); err != nil {
		t.Fatal(err)
	}
	body := s.BodyCreate()
	area := s.AreaCreate()
	s.BodyAddShape(body, shape, NewTransformIdentity(), false)
	s.BodyAddShape(body, shape, NewTransformTranslate(Vector{2, 0}), false)
	s.AreaAddShape(area, shape, NewTransformIdentity(), false)

	sh, _ := s.Shape(shape)
	if sh.OwnerCount() != 2 {
		t.Fatalf("Expected 2 owners, got %d", sh.OwnerCount())
	}
	if err := s.Free(shape); err != nil {
		t.Fatal(err)
	}
	b, _ := s.Body(body)
	a, _ := s.Area(area)
	if b.ShapeCount() != 0 || a.ShapeCount() != 0 {
		t.Errorf("Expected the shape removed from its owners, got %d and %d", b.ShapeCount(), a.ShapeCount())
	}
	if _, err := s.ShapeData(shape); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Expected ErrInvalidHandle, got %v", err)
	}
}

func TestServer_ShapeCollide(t *testing.T) {
	s := NewServer()
	a := s.ShapeCreate(SHAPE_CIRCLE)
	b := s.ShapeCreate(SHAPE_CIRCLE)

	_, _, err := s.ShapeCollide(a, NewTransformIdentity(), Vector{}, b, NewTransformIdentity(), Vector{}, 4)
	if !errors.Is(err, ErrShapeNotConfigured) {
		t.Fatalf("Expected ErrShapeNotConfigured, got %v", err)
	}
	s.ShapeSetData(a, 1.0)
	s.ShapeSetData(b, 1.0)

	points, ok, err := s.ShapeCollide(a, NewTransformIdentity(), Vector{}, b, NewTransformTranslate(Vector{1.5, 0}), Vector{}, 4)
	if err != nil || !ok {
		t.Fatalf("Expected overlapping circles to collide: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("Expected one point pair, got %v", points)
	}
	if points[0].X <= points[1].X {
		t.Errorf("Expected A's point past B's, got %v", points)
	}

	_, ok, _ = s.ShapeCollide(a, NewTransformIdentity(), Vector{}, b, NewTransformTranslate(Vector{3, 0}), Vector{}, 4)
	if ok {
		t.Error("Separate circles should not collide")
	}
	_, ok, _ = s.ShapeCollide(a, NewTransformIdentity(), Vector{2, 0}, b, NewTransformTranslate(Vector{3, 0}), Vector{}, 4)
	if !ok {
		t.Error("Expected the motion to reach the other circle")
	}
}

func TestServer_Joints(t *testing.T) {
	s := NewServer()
	space := s.SpaceCreate()
	a := serverBall(t, s, space, Vector{0, 0})
	b := serverBall(t, s, space, Vector{2, 0})

	if _, err := s.JointCreatePin(a, a, Vector{}); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter, got %v", err)
	}
	if _, err := s.JointCreatePin(a, RID(12345), Vector{}); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Expected ErrInvalidHandle, got %v", err)
	}

	pin, err := s.JointCreatePin(a, b, Vector{1, 0})
	if err != nil {
		t.Fatal(err)
	}
	groove, err := s.JointCreateGroove(a, b, Vector{-1, 0}, Vector{1, 0}, Vector{})
	if err != nil {
		t.Fatal(err)
	}
	spring, err := s.JointCreateDampedSpring(a, 0, Vector{}, Vector{0, 1})
	if err != nil {
		t.Fatal(err)
	}
	j, _ := s.Joint(pin)
	if j.RID() != pin || j.BodyA() == nil || j.BodyB() == nil {
		t.Error("Expected the pin joint to know its handle and bodies")
	}
	if j, _ := s.Joint(spring); j.BodyB() != nil {
		t.Error("A joint to the zero RID is anchored to the world")
	}

	body, _ := s.Body(a)
	if len(body.Constraints()) != 3 {
		t.Fatalf("Expected 3 joints on the body, got %d", len(body.Constraints()))
	}
	if err := s.Free(groove); err != nil {
		t.Fatal(err)
	}
	if len(body.Constraints()) != 2 {
		t.Errorf("Freeing a joint should disconnect it, got %d", len(body.Constraints()))
	}

	if err := s.Free(a); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Joint(pin); err != nil {
		t.Error("Joints outlive their bodies until freed")
	}
	other, _ := s.Body(b)
	if len(other.Constraints()) != 0 {
		t.Error("Freeing a body should disconnect its joints")
	}
}

func TestServer_StepAndFlush(t *testing.T) {
	s := NewServer()
	space := s.SpaceCreate()
	body := serverBall(t, s, space, Vector{0, 10})
	b, _ := s.Body(body)

	states := 0
	b.SetStateSyncCallback(func(state *DirectBodyState) {
		if state.RID() != body {
			t.Error("Expected the body's handle in its state")
		}
		states++
	})

	s.Step(1.0 / 60.0)
	n, err := s.FlushQueries()
	if err != nil || n != 1 || states != 1 {
		t.Fatalf("Expected one state callback, got %d %v", n, err)
	}
	if b.Position().Y >= 10 {
		t.Error("Expected the body to fall")
	}

	s.SetActive(false)
	y := b.Position().Y
	s.Step(1.0 / 60.0)
	if b.Position().Y != y || s.IsActive() {
		t.Error("An inactive server should not step")
	}
	s.SetActive(true)

	if err := s.SpaceSetActive(space, false); err != nil {
		t.Fatal(err)
	}
	s.Step(1.0 / 60.0)
	if b.Position().Y != y {
		t.Error("An inactive space should not step")
	}
}

func TestServer_Counts(t *testing.T) {
	s := NewServer()
	space := s.SpaceCreate()
	a := serverBall(t, s, space, Vector{})
	serverBall(t, s, space, Vector{3, 0})
	area := s.AreaCreate()
	s.AreaSetSpace(area, space)
	s.JointCreatePin(a, 0, Vector{})

	shapes, bodies, areas, joints, spaces := s.Counts()
	if shapes != 2 || bodies != 2 || areas != 1 || joints != 1 || spaces != 1 {
		t.Fatalf("Unexpected counts %d %d %d %d %d", shapes, bodies, areas, joints, spaces)
	}

	if err := s.Free(space); err != nil {
		t.Fatal(err)
	}
	ar, _ := s.Area(area)
	if ar.Space() != nil {
		t.Error("Freeing a space should detach its areas")
	}
	body, _ := s.Body(a)
	if body.Space() != nil {
		t.Error("Freeing a space should detach its bodies")
	}
	if _, _, _, _, spaces = s.Counts(); spaces != 0 {
		t.Error("Expected no spaces")
	}
	if err := s.BodySetSpace(a, space); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Expected ErrInvalidHandle, got %v", err)
	}
}
