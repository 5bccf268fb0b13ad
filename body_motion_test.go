package physics

import (
	"errors"
	"math"
	"testing"
)

func motionSpace() (*Space, *Body, *Body) {
	space := NewSpace()
	floor := addStaticRect(space, Vector{5, 0.5}, Vector{0, -0.5})
	floor.SetInstanceID(1)
	wall := addStaticRect(space, Vector{0.5, 5}, Vector{5.5, 5})
	wall.SetInstanceID(2)
	return space, floor, wall
}

func TestBodyMotion_HitsFloor(t *testing.T) {
	space, _, _ := motionSpace()
	body := addCircle(space, BODY_MODE_KINEMATIC, 0.5, Vector{3, 1})

	params := NewMotionParameters(body.Transform(), Vector{2, -1})
	collided, result, err := body.TestMotion(params)
	if err != nil {
		t.Fatal(err)
	}
	if !collided {
		t.Fatal("Expected the move to hit the floor")
	}
	if result.ColliderID != 1 {
		t.Errorf("Expected the floor, got %d", result.ColliderID)
	}
	if !result.CollisionNormal.Near(Vector{0, 1}, 1e-3) {
		t.Errorf("Expected an upward normal, got %v", result.CollisionNormal)
	}
	if math.Abs(result.CollisionSafeFraction-0.5) > 1.0/256 {
		t.Errorf("Expected to get halfway, got %v", result.CollisionSafeFraction)
	}
	if result.CollisionUnsafeFraction < result.CollisionSafeFraction {
		t.Error("The unsafe fraction cannot come before the safe one")
	}
	if !result.Travel.Add(result.Remainder).Near(params.Motion, 1e-9) {
		t.Errorf("Travel and remainder should add up to the motion, got %v + %v", result.Travel, result.Remainder)
	}

	slide := result.Remainder.Slide(result.CollisionNormal)
	if slide.Length() < 0.5 || math.Abs(slide.Y) > 1e-3 {
		t.Errorf("Expected the remainder to slide along the floor, got %v", slide)
	}
	if body.Position() != (Vector{3, 1}) {
		t.Error("Testing a motion must not move the body")
	}
}

func TestBodyMotion_HitsWall(t *testing.T) {
	space, _, _ := motionSpace()
	body := addCircle(space, BODY_MODE_KINEMATIC, 0.5, Vector{3, 2})

	collided, result, err := space.TestBodyMotion(body, NewMotionParameters(body.Transform(), Vector{3, 0}))
	if err != nil || !collided {
		t.Fatalf("Expected the move to hit the wall, got %v %v", collided, err)
	}
	if result.ColliderID != 2 || result.CollisionNormal.X > -0.99 {
		t.Errorf("Expected the wall facing left, got %d %v", result.ColliderID, result.CollisionNormal)
	}
	if math.Abs(result.Travel.X-1.5) > 3.0/256 {
		t.Errorf("Expected to travel about 1.5, got %v", result.Travel)
	}
}

func TestBodyMotion_Free(t *testing.T) {
	space, _, _ := motionSpace()
	body := addCircle(space, BODY_MODE_KINEMATIC, 0.5, Vector{0, 3})

	collided, result, err := body.TestMotion(NewMotionParameters(body.Transform(), Vector{-2, 1}))
	if err != nil || collided {
		t.Fatalf("Expected a free move, got %v %v", collided, err)
	}
	if result.Travel != (Vector{-2, 1}) || !result.Remainder.IsZero() {
		t.Errorf("Expected the full motion, got %+v", result)
	}
}

func TestBodyMotion_Recovery(t *testing.T) {
	space, _, _ := motionSpace()
	body := addCircle(space, BODY_MODE_KINEMATIC, 0.5, Vector{0, 0.4})

	params := NewMotionParameters(body.Transform(), Vector{1, 0})
	collided, result, err := body.TestMotion(params)
	if err != nil {
		t.Fatal(err)
	}
	if collided {
		t.Error("Sliding out of a shallow overlap is not a collision")
	}
	if result.Travel.Y <= 0 {
		t.Errorf("Expected recovery to push the body up, got %v", result.Travel)
	}

	params.RecoveryAsCollision = true
	collided, result, _ = body.TestMotion(params)
	if !collided || !result.CollisionNormal.Near(Vector{0, 1}, 1e-3) {
		t.Errorf("Expected the recovery reported as a floor hit, got %v %v", collided, result.CollisionNormal)
	}
}

func TestBodyMotion_Excluded(t *testing.T) {
	space, floor, _ := motionSpace()
	body := addCircle(space, BODY_MODE_KINEMATIC, 0.5, Vector{3, 1})
	floor.SetInstanceID(11)

	params := NewMotionParameters(body.Transform(), Vector{0, -2})
	params.ExcludeObjects = []uint64{11}
	if collided, _, _ := body.TestMotion(params); collided {
		t.Error("Excluded objects should be ignored")
	}

	body.AddCollisionException(floor)
	if collided, _, _ := body.TestMotion(NewMotionParameters(body.Transform(), Vector{0, -2})); collided {
		t.Error("Collision exceptions should be ignored")
	}
}

func TestBodyMotion_OneWay(t *testing.T) {
	space := NewSpace()
	// local Y points down into the platform, so it blocks from above
	ledge := NewBody()
	ledge.SetMode(BODY_MODE_STATIC)
	ledge.SetTransform(NewTransformRigid(Vector{0, 3}, math.Pi))
	ledge.AddShape(mustShape(SHAPE_RECTANGLE, Vector{2, 0.1}), NewTransformIdentity(), false)
	if err := ledge.SetShapeOneWay(0, true, 0.1); err != nil {
		t.Fatal(err)
	}
	space.AddBody(ledge)

	below := addCircle(space, BODY_MODE_KINEMATIC, 0.25, Vector{0, 2})
	if collided, _, _ := below.TestMotion(NewMotionParameters(below.Transform(), Vector{0, 2})); collided {
		t.Error("Bodies should pass through from below")
	}

	above := addCircle(space, BODY_MODE_KINEMATIC, 0.25, Vector{1, 4})
	collided, result, _ := above.TestMotion(NewMotionParameters(above.Transform(), Vector{0, -2}))
	if !collided || !result.CollisionNormal.Near(Vector{0, 1}, 1e-3) {
		t.Errorf("Bodies should land from above, got %v %v", collided, result.CollisionNormal)
	}
}

func TestBodyMotion_NoSpace(t *testing.T) {
	body := NewBody()
	if _, _, err := body.TestMotion(NewMotionParameters(NewTransformIdentity(), Vector{1, 0})); !errors.Is(err, ErrNoSpace) {
		t.Errorf("Expected ErrNoSpace, got %v", err)
	}
}

func TestBodyMotion_Corner(t *testing.T) {
	space, _, _ := motionSpace()
	body := addCircle(space, BODY_MODE_KINEMATIC, 0.5, Vector{3.5, 1.5})

	params := NewMotionParameters(body.Transform(), Vector{2, -2})
	collided, result, err := body.TestMotion(params)
	if err != nil {
		t.Fatal(err)
	}
	if !collided {
		t.Fatal("Expected the move to hit the corner")
	}
	n := result.CollisionNormal
	if !n.Near(Vector{-1, 0}, 1e-3) && !n.Near(Vector{0, 1}, 1e-3) {
		t.Fatalf("Expected the wall or floor normal, got %v", n)
	}
	if !result.Travel.Add(result.Remainder).Near(params.Motion, 1e-9) {
		t.Errorf("Travel and remainder should add up to the motion, got %v + %v", result.Travel, result.Remainder)
	}

	slide := result.SlideRemainder()
	if math.Abs(slide.Dot(n)) > 1e-9 {
		t.Errorf("Expected the slid remainder tangent to the surface, got %v against %v", slide, n)
	}
	if slide.Length() < 0.5 {
		t.Errorf("Expected the body to keep sliding along the wall, got %v", slide)
	}

	// the second leg runs into the other side of the corner and stops
	from := params.From.Translated(result.Travel)
	collided, result, err = body.TestMotion(NewMotionParameters(from, slide))
	if err != nil {
		t.Fatal(err)
	}
	if !collided {
		t.Fatal("Expected the slide to end in the corner")
	}
	end := from.Origin().Add(result.Travel)
	if end.X+0.5 > 5+1e-3 || end.Y-0.5 < -1e-3 {
		t.Errorf("Expected the body to stay out of the corner, ended at %v", end)
	}
	if s := result.SlideRemainder(); math.Abs(s.Dot(result.CollisionNormal)) > 1e-9 {
		t.Errorf("Expected the slid remainder tangent to the surface, got %v", s)
	}

	if (MotionResult{Remainder: Vector{1, 1}}).SlideRemainder() != (Vector{}) {
		t.Error("A result without a collision has nothing to slide")
	}
}
