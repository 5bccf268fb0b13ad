package physics

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func TestSpace_IntersectPoint(t *testing.T) {
	space := NewSpace()
	ground := addStaticRect(space, Vector{5, 0.5}, Vector{0, -0.5})
	ground.SetInstanceID(7)

	results, err := space.IntersectPoint(NewPointParameters(Vector{1, -0.2}), 8)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].InstanceID != 7 || results[0].Shape != 0 {
		t.Errorf("Expected the ground, got %v", results)
	}

	results, _ = space.IntersectPoint(NewPointParameters(Vector{1, 0.2}), 8)
	if len(results) != 0 {
		t.Errorf("Expected nothing above the ground, got %v", results)
	}

	params := NewPointParameters(Vector{1, -0.2})
	params.CollisionMask = 2
	if results, _ = space.IntersectPoint(params, 8); len(results) != 0 {
		t.Error("The mask should filter out layer 1")
	}
	params = NewPointParameters(Vector{1, -0.2})
	ground.SetPickable(false)
	params.PickPoint = true
	if results, _ = space.IntersectPoint(params, 8); len(results) != 0 {
		t.Error("Unpickable objects should be skipped when picking")
	}
}

func TestSpace_IntersectPointAreas(t *testing.T) {
	space := NewSpace()
	area := NewArea()
	area.AddShape(mustShape(SHAPE_CIRCLE, 2.0), NewTransformIdentity(), false)
	area.SetInstanceID(3)
	space.AddArea(area)

	if results, _ := space.IntersectPoint(NewPointParameters(Vector{}), 8); len(results) != 0 {
		t.Error("Areas are hidden from default queries")
	}
	params := NewPointParameters(Vector{})
	params.CollideWithAreas = true
	if results, _ := space.IntersectPoint(params, 8); len(results) != 1 || results[0].InstanceID != 3 {
		t.Errorf("Expected the area, got %v", results)
	}
}

func TestSpace_IntersectRay(t *testing.T) {
	space := NewSpace()
	addStaticRect(space, Vector{5, 0.5}, Vector{0, -0.5}).SetInstanceID(1)
	addCircle(space, BODY_MODE_RIGID, 0.5, Vector{0, 2}).SetInstanceID(2)

	hit, ok, err := space.IntersectRay(NewRayParameters(Vector{0, 5}, Vector{0, -5}))
	if err != nil || !ok {
		t.Fatalf("Expected a hit, got %v %v", ok, err)
	}
	if hit.InstanceID != 2 || !hit.Position.Near(Vector{0, 2.5}, 1e-9) || !hit.Normal.Near(Vector{0, 1}, 1e-9) {
		t.Errorf("Expected the ball top, got %+v", hit)
	}

	hit, ok, _ = space.IntersectRay(NewRayParameters(Vector{3, 5}, Vector{3, -5}))
	if !ok || hit.InstanceID != 1 || !hit.Position.Near(Vector{3, 0}, 1e-9) {
		t.Errorf("Expected the ground top, got %+v", hit)
	}

	if _, ok, _ = space.IntersectRay(NewRayParameters(Vector{-10, 5}, Vector{10, 5})); ok {
		t.Error("Expected a miss")
	}

	params := NewRayParameters(Vector{0, 2}, Vector{0, 10})
	if _, ok, _ = space.IntersectRay(params); ok {
		t.Error("Rays starting inside a shape skip it by default")
	}
	params.HitFromInside = true
	hit, ok, _ = space.IntersectRay(params)
	if !ok || hit.Position != (Vector{0, 2}) || !hit.Normal.IsZero() {
		t.Errorf("Expected an inside hit at the start, got %+v", hit)
	}
}

func TestSpace_IntersectShape(t *testing.T) {
	space := NewSpace()
	addStaticRect(space, Vector{5, 0.5}, Vector{0, -0.5})
	addCircle(space, BODY_MODE_RIGID, 0.5, Vector{3, 0.4})

	caster := mustShape(SHAPE_RECTANGLE, Vector{1, 1})
	results, err := space.IntersectShape(NewShapeParameters(caster, NewTransformTranslate(Vector{2.5, 0.5})), 8)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("Expected the ground and the ball, got %v", results)
	}
	if results, _ = space.IntersectShape(NewShapeParameters(caster, NewTransformTranslate(Vector{2.5, 0.5})), 1); len(results) != 1 {
		t.Errorf("Expected results capped at 1, got %v", results)
	}

	if _, err := space.IntersectShape(NewShapeParameters(NewShape(SHAPE_CIRCLE), NewTransformIdentity()), 8); !errors.Is(err, ErrShapeNotConfigured) {
		t.Errorf("Expected ErrShapeNotConfigured, got %v", err)
	}
}

func TestSpace_CastMotion(t *testing.T) {
	space := NewSpace()
	addStaticRect(space, Vector{0.5, 2}, Vector{5.5, 0})

	params := NewShapeParameters(mustShape(SHAPE_CIRCLE, 0.5), NewTransformIdentity())
	params.Motion = Vector{10, 0}
	safe, unsafe, err := space.CastMotion(params)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(safe-0.45) > 1.0/256 {
		t.Errorf("Expected safe near 0.45, got %v", safe)
	}
	if unsafe < safe || unsafe-safe > 1.0/256 {
		t.Errorf("Expected unsafe just past safe, got %v and %v", safe, unsafe)
	}

	params.Motion = Vector{0, 10}
	if safe, unsafe, _ = space.CastMotion(params); safe != 1 || unsafe != 1 {
		t.Errorf("Expected a free motion, got %v %v", safe, unsafe)
	}

	params.Transform = NewTransformTranslate(Vector{5.5, 0})
	params.Motion = Vector{10, 0}
	if safe, _, _ = space.CastMotion(params); safe != 1 {
		t.Error("Shapes the cast starts in should be ignored")
	}
}

func TestSpace_CollideShapeAndRestInfo(t *testing.T) {
	space := NewSpace()
	ground := addStaticRect(space, Vector{5, 0.5}, Vector{0, -0.5})
	ground.SetInstanceID(9)

	circle := mustShape(SHAPE_CIRCLE, 0.5)
	params := NewShapeParameters(circle, NewTransformTranslate(Vector{1, 0.45}))

	points, err := space.CollideShape(params, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) == 0 || len(points)%2 != 0 {
		t.Fatalf("Expected point pairs, got %v", points)
	}
	for i := 0; i < len(points); i += 2 {
		if points[i].Y > points[i+1].Y {
			t.Errorf("The circle's point should be below the ground's, got %v %v", points[i], points[i+1])
		}
	}

	info, ok, err := space.RestInfo(params)
	if err != nil || !ok {
		t.Fatalf("Expected rest info, got %v %v", ok, err)
	}
	if info.InstanceID != 9 || !info.Normal.Near(Vector{0, 1}, 1e-6) || !info.LinearVelocity.IsZero() {
		t.Errorf("Unexpected rest info %+v", info)
	}

	params.Transform = NewTransformTranslate(Vector{1, 3})
	if _, ok, _ = space.RestInfo(params); ok {
		t.Error("Expected no rest info in the air")
	}
}

func TestSpace_QueriesLocked(t *testing.T) {
	space := NewSpace()
	addStaticRect(space, Vector{5, 0.5}, Vector{0, -0.5})
	shape := NewShapeParameters(mustShape(SHAPE_CIRCLE, 0.5), NewTransformIdentity())

	space.lock()
	defer space.unlock()

	if _, err := space.IntersectPoint(NewPointParameters(Vector{}), 1); !errors.Is(err, ErrSpaceLocked) {
		t.Error("IntersectPoint should be refused")
	}
	if _, _, err := space.IntersectRay(NewRayParameters(Vector{}, Vector{1, 1})); !errors.Is(err, ErrSpaceLocked) {
		t.Error("IntersectRay should be refused")
	}
	if _, err := space.IntersectShape(shape, 1); !errors.Is(err, ErrSpaceLocked) {
		t.Error("IntersectShape should be refused")
	}
	if _, _, err := space.CastMotion(shape); !errors.Is(err, ErrSpaceLocked) {
		t.Error("CastMotion should be refused")
	}
	if _, err := space.CollideShape(shape, 1); !errors.Is(err, ErrSpaceLocked) {
		t.Error("CollideShape should be refused")
	}
	if _, _, err := space.RestInfo(shape); !errors.Is(err, ErrSpaceLocked) {
		t.Error("RestInfo should be refused")
	}
	if _, err := space.DispatchEvents(); !errors.Is(err, ErrSpaceLocked) {
		t.Error("DispatchEvents should be refused")
	}
}

func TestSpace_ConcurrentQueries(t *testing.T) {
	space := NewSpace()
	for i := 0; i < 20; i++ {
		addStaticRect(space, Vector{0.4, 0.4}, Vector{float64(i), 0}).SetInstanceID(uint64(i + 1))
	}

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				x := float64((g + i) % 20)
				hit, ok, err := space.IntersectRay(NewRayParameters(Vector{x, 5}, Vector{x, -5}))
				if err != nil || !ok || hit.InstanceID != uint64(x)+1 {
					errs <- "wrong ray hit"
					return
				}
				results, _ := space.IntersectPoint(NewPointParameters(Vector{x, 0}), 4)
				if len(results) != 1 {
					errs <- "wrong point results"
					return
				}
			}
		}(g)
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}
