package physics

import (
	"math"
	"testing"
)

type contactPair struct {
	a, b Vector
}

func collectContacts(contacts *[]contactPair) ContactCallback {
	return func(pointA, pointB Vector) {
		*contacts = append(*contacts, contactPair{pointA, pointB})
	}
}

func TestSolve_CircleCircleMargin(t *testing.T) {
	a := newShape(t, SHAPE_CIRCLE, 1.0)
	b := newShape(t, SHAPE_CIRCLE, 1.0)
	xa := NewTransformIdentity()
	xb := NewTransformTranslate(Vector{2.05, 0})

	if Solve(a, xa, Vector{}, b, xb, Vector{}, nil, nil, 0, 0) {
		t.Fatal("Circles 0.05 apart should not touch without margin")
	}

	var contacts []contactPair
	if !Solve(a, xa, Vector{}, b, xb, Vector{}, collectContacts(&contacts), nil, 0.1, 0) {
		t.Fatal("A margin of 0.1 should bridge the gap")
	}
	if len(contacts) != 1 {
		t.Fatalf("Expected 1 contact, got %d", len(contacts))
	}
	c := contacts[0]
	if math.Abs(c.a.X-c.b.X-0.05) > 1e-9 || math.Abs(c.a.Y) > 1e-9 {
		t.Errorf("Expected points 0.05 apart on the X axis, got %v %v", c.a, c.b)
	}
	if !c.a.Near(Vector{1.1, 0}, 1e-9) {
		t.Errorf("Expected A's point inflated by its margin, got %v", c.a)
	}
}

func TestSolve_CircleCircleBothMargins(t *testing.T) {
	a := newShape(t, SHAPE_CIRCLE, 1.0)
	b := newShape(t, SHAPE_CIRCLE, 1.0)

	for _, tc := range []struct {
		marginA, marginB, distance float64
		touch                      bool
	}{
		{0.1, 0.1, 2.15, true},
		{0.1, 0.1, 2.25, false},
		{0, 0.1, 2.05, true},
		{0, 0.1, 2.15, false},
		{0.2, 0.05, 2.2, true},
		{0.2, 0.05, 2.3, false},
	} {
		var contacts []contactPair
		xb := NewTransformTranslate(Vector{tc.distance, 0})
		got := Solve(a, NewTransformIdentity(), Vector{}, b, xb, Vector{}, collectContacts(&contacts), nil, tc.marginA, tc.marginB)
		if got != tc.touch {
			t.Errorf("margins %v/%v at %v: expected %v, got %v", tc.marginA, tc.marginB, tc.distance, tc.touch, got)
			continue
		}
		if !tc.touch {
			continue
		}
		if len(contacts) != 1 {
			t.Fatalf("margins %v/%v: expected 1 contact, got %d", tc.marginA, tc.marginB, len(contacts))
		}
		c := contacts[0]
		if !c.a.Near(Vector{1 + tc.marginA, 0}, 1e-9) || !c.b.Near(Vector{tc.distance - 1 - tc.marginB, 0}, 1e-9) {
			t.Errorf("margins %v/%v: expected each point inflated by its own margin, got %v %v", tc.marginA, tc.marginB, c.a, c.b)
		}
		overlap := 2 + tc.marginA + tc.marginB - tc.distance
		if depth := c.a.X - c.b.X; math.Abs(depth-overlap) > 1e-9 {
			t.Errorf("margins %v/%v: expected depth %v, got %v", tc.marginA, tc.marginB, overlap, depth)
		}
	}
}

func TestSolve_RectangleEdges(t *testing.T) {
	a := newShape(t, SHAPE_RECTANGLE, Vector{1, 1})
	b := newShape(t, SHAPE_RECTANGLE, Vector{1, 1})

	var contacts []contactPair
	ok := Solve(a, NewTransformIdentity(), Vector{}, b, NewTransformTranslate(Vector{1.8, 0.5}), Vector{}, collectContacts(&contacts), nil, 0, 0)
	if !ok {
		t.Fatal("Expected overlapping boxes to collide")
	}
	if len(contacts) != 2 {
		t.Fatalf("Expected 2 contacts along the shared edge, got %d", len(contacts))
	}
	for _, c := range contacts {
		if depth := c.a.X - c.b.X; math.Abs(depth-0.2) > 1e-9 {
			t.Errorf("Expected depth 0.2, got %v", depth)
		}
	}
}

func TestSolve_Swapped(t *testing.T) {
	rect := newShape(t, SHAPE_RECTANGLE, Vector{1, 1})
	circle := newShape(t, SHAPE_CIRCLE, 0.5)
	xr := NewTransformIdentity()
	xc := NewTransformTranslate(Vector{0, 1.4})

	var contacts []contactPair
	if !Solve(circle, xc, Vector{}, rect, xr, Vector{}, collectContacts(&contacts), nil, 0, 0) {
		t.Fatal("Expected a collision")
	}
	for _, c := range contacts {
		if c.a.Y > c.b.Y || math.Abs(c.b.Y-1) > 1e-9 {
			t.Errorf("Point A should be the circle's, B on the box top, got %v %v", c.a, c.b)
		}
	}
}

func TestSolve_WorldBoundary(t *testing.T) {
	floor := newShape(t, SHAPE_WORLD_BOUNDARY, WorldBoundaryData{Vector{0, 1}, 0})
	circle := newShape(t, SHAPE_CIRCLE, 1.0)

	var contacts []contactPair
	if !Solve(floor, NewTransformIdentity(), Vector{}, circle, NewTransformTranslate(Vector{3, 0.5}), Vector{}, collectContacts(&contacts), nil, 0, 0) {
		t.Fatal("Expected the circle to sink into the floor")
	}
	if len(contacts) != 1 || !contacts[0].a.Near(Vector{3, 0}, 1e-9) || !contacts[0].b.Near(Vector{3, -0.5}, 1e-9) {
		t.Errorf("Unexpected contacts %v", contacts)
	}
	if Solve(floor, NewTransformIdentity(), Vector{}, circle, NewTransformTranslate(Vector{0, 1.5}), Vector{}, nil, nil, 0, 0) {
		t.Error("A circle above the floor should not collide")
	}
	if Solve(floor, NewTransformIdentity(), Vector{}, floor, NewTransformIdentity(), Vector{}, nil, nil, 0, 0) {
		t.Error("World boundaries never collide with each other")
	}
}

func TestSolve_Motion(t *testing.T) {
	a := newShape(t, SHAPE_CIRCLE, 0.5)
	b := newShape(t, SHAPE_RECTANGLE, Vector{0.5, 2})
	xb := NewTransformTranslate(Vector{5, 0})

	if Solve(a, NewTransformIdentity(), Vector{}, b, xb, Vector{}, nil, nil, 0, 0) {
		t.Fatal("Expected no overlap at rest")
	}
	if !Solve(a, NewTransformIdentity(), Vector{10, 0}, b, xb, Vector{}, nil, nil, 0, 0) {
		t.Error("Expected the sweep to hit the wall")
	}
	if Solve(a, NewTransformIdentity(), Vector{0, 10}, b, xb, Vector{}, nil, nil, 0, 0) {
		t.Error("Expected the sweep away from the wall to miss")
	}
}

func TestSolve_SeparatingAxisCache(t *testing.T) {
	a := newShape(t, SHAPE_RECTANGLE, Vector{1, 1})
	b := newShape(t, SHAPE_RECTANGLE, Vector{1, 1})
	var axis Vector
	if Solve(a, NewTransformIdentity(), Vector{}, b, NewTransformTranslate(Vector{3, 0}), Vector{}, nil, &axis, 0, 0) {
		t.Fatal("Expected separated boxes")
	}
	if axis.IsZero() {
		t.Fatal("Expected the separating axis to be cached")
	}
	if Solve(a, NewTransformIdentity(), Vector{}, b, NewTransformTranslate(Vector{3, 0.1}), Vector{}, nil, &axis, 0, 0) {
		t.Error("The cached axis should still separate")
	}
}
