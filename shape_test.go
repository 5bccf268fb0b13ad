package physics

import (
	"errors"
	"math"
	"testing"
)

func newShape(t *testing.T, kind ShapeType, data interface{}) *Shape {
	t.Helper()
	shape := NewShape(kind)
	if err := shape.SetData(data); err != nil {
		t.Fatalf("SetData(%v): %v", kind, err)
	}
	return shape
}

func TestShapeDataRoundTrip(t *testing.T) {
	payloads := map[ShapeType]interface{}{
		SHAPE_WORLD_BOUNDARY:  WorldBoundaryData{Vector{0, 2}, 1},
		SHAPE_SEPARATION_RAY:  SeparationRayData{Length: 3, SlideOnSlope: true},
		SHAPE_SEGMENT:         [2]Vector{{-1, 0}, {2, 1}},
		SHAPE_CIRCLE:          1.5,
		SHAPE_RECTANGLE:       Vector{2, 0.5},
		SHAPE_CAPSULE:         Vector{0.5, 3},
		SHAPE_CONVEX_POLYGON:  []Vector{{0, 0}, {2, 0}, {2, 1}, {0, 1}},
		SHAPE_CONCAVE_POLYGON: []Vector{{0, 0}, {4, 0}, {4, 0}, {4, 3}, {4, 3}, {0, 0}},
	}
	for kind, data := range payloads {
		shape := newShape(t, kind, data)
		if !shape.IsConfigured() {
			t.Errorf("%v: not configured", kind)
		}
		copied := newShape(t, kind, shape.Data())
		if !copied.AABB().IsEqualApprox(shape.AABB()) {
			t.Errorf("%v: AABB %v after round trip, want %v", kind, copied.AABB(), shape.AABB())
		}
	}

	boundary := newShape(t, SHAPE_WORLD_BOUNDARY, payloads[SHAPE_WORLD_BOUNDARY])
	if wb := boundary.Data().(WorldBoundaryData); wb.Normal != (Vector{0, 1}) || wb.Distance != 1 {
		t.Errorf("Expected a normalized normal, got %v", wb)
	}
}

func TestShapeBadData(t *testing.T) {
	cases := []struct {
		kind ShapeType
		data interface{}
	}{
		{SHAPE_WORLD_BOUNDARY, WorldBoundaryData{}},
		{SHAPE_SEPARATION_RAY, SeparationRayData{Length: 0}},
		{SHAPE_SEGMENT, []float64{1, 2, 3}},
		{SHAPE_CIRCLE, -1.0},
		{SHAPE_CIRCLE, "big"},
		{SHAPE_RECTANGLE, Vector{1, 0}},
		{SHAPE_CAPSULE, Vector{0, 2}},
		{SHAPE_CONVEX_POLYGON, []Vector{}},
		{SHAPE_CONCAVE_POLYGON, []Vector{{0, 0}, {1, 0}, {1, 1}}},
	}
	for _, c := range cases {
		shape := NewShape(c.kind)
		err := shape.SetData(c.data)
		if !errors.Is(err, ErrInvalidShapeData) {
			t.Errorf("%v with %v: expected ErrInvalidShapeData, got %v", c.kind, c.data, err)
		}
		if shape.IsConfigured() {
			t.Errorf("%v: a rejected payload should leave the shape unconfigured", c.kind)
		}
	}
}

func TestShapeConcaveExtent(t *testing.T) {
	for _, data := range [][]Vector{
		{},
		{{-1, 0}, {1, 0}},
		{{0, -1}, {0, 1}, {0, 1}, {0, 2}},
	} {
		bb := newShape(t, SHAPE_CONCAVE_POLYGON, data).AABB()
		if bb.R-bb.L <= 0 || bb.T-bb.B <= 0 {
			t.Errorf("%v: expected a non-empty AABB, got %v", data, bb)
		}
	}
	bb := newShape(t, SHAPE_CONCAVE_POLYGON, []Vector{{-1, 0}, {1, 0}}).AABB()
	if bb.L != -1 || bb.R != 1 || bb.B != 0 {
		t.Errorf("Padding should only widen the flat side, got %v", bb)
	}
}

func TestShapeCircleMoment(t *testing.T) {
	circle := newShape(t, SHAPE_CIRCLE, 2.0)
	if m := circle.MomentOfInertia(3, Vector{1, 1}); math.Abs(m-6) > 1e-9 {
		t.Errorf("Expected 6, got %v", m)
	}
	boundary := newShape(t, SHAPE_WORLD_BOUNDARY, WorldBoundaryData{Vector{0, 1}, 0})
	if boundary.MomentOfInertia(3, Vector{1, 1}) != 0 {
		t.Error("World boundaries should be massless")
	}
}

func TestShapeContainsPoint(t *testing.T) {
	rect := newShape(t, SHAPE_RECTANGLE, Vector{1, 2})
	if !rect.ContainsPoint(Vector{0.9, -1.9}) || rect.ContainsPoint(Vector{1.1, 0}) {
		t.Error("Rectangle containment is wrong")
	}
	capsule := newShape(t, SHAPE_CAPSULE, Vector{0.5, 3})
	if !capsule.ContainsPoint(Vector{0, 1.4}) || capsule.ContainsPoint(Vector{0.4, 1.45}) {
		t.Error("Capsule containment is wrong")
	}
	boundary := newShape(t, SHAPE_WORLD_BOUNDARY, WorldBoundaryData{Vector{0, 1}, 0})
	if !boundary.ContainsPoint(Vector{100, -1}) || boundary.ContainsPoint(Vector{0, 1}) {
		t.Error("World boundary containment is wrong")
	}
}

func TestShapeIntersectSegment(t *testing.T) {
	circle := newShape(t, SHAPE_CIRCLE, 1.0)
	point, normal, ok := circle.IntersectSegment(Vector{-5, 0}, Vector{5, 0})
	if !ok {
		t.Fatal("Expected a hit")
	}
	if !point.Near(Vector{-1, 0}, 1e-9) || !normal.Near(Vector{-1, 0}, 1e-9) {
		t.Errorf("Expected hit at (-1, 0) facing left, got %v %v", point, normal)
	}
	if _, _, ok := circle.IntersectSegment(Vector{-5, 2}, Vector{5, 2}); ok {
		t.Error("Expected a miss")
	}
}

func TestParseShapeType(t *testing.T) {
	for kind := SHAPE_WORLD_BOUNDARY; kind <= SHAPE_CONCAVE_POLYGON; kind++ {
		parsed, ok := ParseShapeType(kind.String())
		if !ok || parsed != kind {
			t.Errorf("%v did not parse back", kind)
		}
	}
	if _, ok := ParseShapeType("blob"); ok {
		t.Error("Expected an unknown name to fail")
	}
}
