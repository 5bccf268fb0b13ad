package physics

import (
	"math"
	"testing"
)

func TestVector_Normalize(t *testing.T) {
	v := Vector{}
	u := v.Normalize()
	if u.X != 0.0 || u.Y != 0.0 {
		t.Errorf("Expected zero vector, got %v", u)
	}

	u = Vector{3, 4}.Normalize()
	if !u.IsNormalized() || !u.IsEqualApprox(Vector{0.6, 0.8}) {
		t.Errorf("Expected (0.6, 0.8), got %v", u)
	}
}

func TestVector_Slide(t *testing.T) {
	v := Vector{2, -1}.Slide(Vector{0, 1})
	if v != (Vector{2, 0}) {
		t.Errorf("Expected (2, 0), got %v", v)
	}
}

func TestTransform_Inverse(t *testing.T) {
	xform := NewTransformRigid(Vector{3, -2}, math.Pi/3)
	p := Vector{1.5, 7}
	back := xform.Inverse().Point(xform.Point(p))
	if !back.Near(p, 1e-9) {
		t.Errorf("Expected %v, got %v", p, back)
	}
	if !xform.Mult(xform.Inverse()).IsEqualApprox(NewTransformIdentity()) {
		t.Error("Expected identity")
	}
}
