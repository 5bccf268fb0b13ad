package physics

import "math"

// Transform is a 2x3 affine matrix. Columns (a,b) and (c,d) are the X and
// Y basis axes and (tx,ty) is the origin.
type Transform struct {
	a, b, c, d, tx, ty float64
}

func NewTransformIdentity() Transform {
	return Transform{1, 0, 0, 1, 0, 0}
}

func NewTransformTranspose(a, c, tx, b, d, ty float64) Transform {
	return Transform{a, b, c, d, tx, ty}
}

// NewTransformAxes builds a transform from its basis columns and origin.
func NewTransformAxes(x, y, origin Vector) Transform {
	return Transform{x.X, x.Y, y.X, y.Y, origin.X, origin.Y}
}

func NewTransformTranslate(translate Vector) Transform {
	return NewTransformTranspose(
		1, 0, translate.X,
		0, 1, translate.Y,
	)
}

func NewTransformScale(scaleX, scaleY float64) Transform {
	return NewTransformTranspose(
		scaleX, 0, 0,
		0, scaleY, 0,
	)
}

func NewTransformRotate(radians float64) Transform {
	rot := ForAngle(radians)
	return NewTransformTranspose(
		rot.X, -rot.Y, 0,
		rot.Y, rot.X, 0,
	)
}

func NewTransformRigid(translate Vector, radians float64) Transform {
	rot := ForAngle(radians)
	return NewTransformTranspose(
		rot.X, -rot.Y, translate.X,
		rot.Y, rot.X, translate.Y,
	)
}

func (t Transform) XAxis() Vector {
	return Vector{t.a, t.b}
}

func (t Transform) YAxis() Vector {
	return Vector{t.c, t.d}
}

func (t Transform) Origin() Vector {
	return Vector{t.tx, t.ty}
}

func (t Transform) WithOrigin(o Vector) Transform {
	t.tx, t.ty = o.X, o.Y
	return t
}

func (t Transform) Translated(v Vector) Transform {
	t.tx += v.X
	t.ty += v.Y
	return t
}

func (t Transform) Rotation() float64 {
	return math.Atan2(t.b, t.a)
}

func (t Transform) Scale() Vector {
	det := t.Determinant()
	return Vector{Vector{t.a, t.b}.Length(), sign(det) * Vector{t.c, t.d}.Length()}
}

func (t Transform) Determinant() float64 {
	return t.a*t.d - t.c*t.b
}

// Inverse is the full affine inverse.
func (t Transform) Inverse() Transform {
	inv_det := 1.0 / t.Determinant()
	return NewTransformTranspose(
		t.d*inv_det, -t.c*inv_det, (t.c*t.ty-t.tx*t.d)*inv_det,
		-t.b*inv_det, t.a*inv_det, (t.tx*t.b-t.a*t.ty)*inv_det,
	)
}

func (t Transform) Mult(t2 Transform) Transform {
	return NewTransformTranspose(
		t.a*t2.a+t.c*t2.b, t.a*t2.c+t.c*t2.d, t.a*t2.tx+t.c*t2.ty+t.tx,
		t.b*t2.a+t.d*t2.b, t.b*t2.c+t.d*t2.d, t.b*t2.tx+t.d*t2.ty+t.ty,
	)
}

func (t Transform) Point(p Vector) Vector {
	return Vector{X: t.a*p.X + t.c*p.Y + t.tx, Y: t.b*p.X + t.d*p.Y + t.ty}
}

func (t Transform) Vect(v Vector) Vector {
	return Vector{t.a*v.X + t.c*v.Y, t.b*v.X + t.d*v.Y}
}

// VectInv multiplies by the transposed basis. It inverts Vect only for
// orthonormal bases and is what normals are carried back to local space with.
func (t Transform) VectInv(v Vector) Vector {
	return Vector{t.a*v.X + t.b*v.Y, t.c*v.X + t.d*v.Y}
}

func (t Transform) IsEqualApprox(o Transform) bool {
	return t.XAxis().IsEqualApprox(o.XAxis()) && t.YAxis().IsEqualApprox(o.YAxis()) && t.Origin().IsEqualApprox(o.Origin())
}

// BB returns the world bounds of a local box.
func (t Transform) BB(bb BB) BB {
	hw := (bb.R - bb.L) * 0.5
	hh := (bb.T - bb.B) * 0.5

	a := t.a * hw
	b := t.c * hh
	d := t.b * hw
	e := t.d * hh
	hw_max := math.Max(math.Abs(a+b), math.Abs(a-b))
	hh_max := math.Max(math.Abs(d+e), math.Abs(d-e))
	return NewBBForExtents(t.Point(bb.Center()), hw_max, hh_max)
}
