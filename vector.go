package physics

import (
	"fmt"
	"math"
)

// CMP_EPSILON is the tolerance used for geometric comparisons.
const CMP_EPSILON = 0.00001

type Vector struct {
	X, Y float64
}

func (v Vector) String() string {
	return fmt.Sprintf("%f,%f", v.X, v.Y)
}

func (v Vector) Equal(other Vector) bool {
	return v.X == other.X && v.Y == other.Y
}

func (v Vector) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

func (v Vector) Add(other Vector) Vector {
	return Vector{v.X + other.X, v.Y + other.Y}
}

func (v Vector) Sub(other Vector) Vector {
	return Vector{v.X - other.X, v.Y - other.Y}
}

func (v Vector) Neg() Vector {
	return Vector{-v.X, -v.Y}
}

func (v Vector) Mult(s float64) Vector {
	return Vector{v.X * s, v.Y * s}
}

// Scale multiplies component-wise.
func (v Vector) Scale(other Vector) Vector {
	return Vector{v.X * other.X, v.Y * other.Y}
}

func (v Vector) Dot(other Vector) float64 {
	return v.X*other.X + v.Y*other.Y
}

/// 2D vector cross product analog.
/// The cross product of 2D vectors results in a 3D vector with only a z component.
/// This function returns the magnitude of the z value.
func (v Vector) Cross(other Vector) float64 {
	return v.X*other.Y - v.Y*other.X
}

func (v Vector) Perp() Vector {
	return Vector{-v.Y, v.X}
}

// ReversePerp is the clockwise perpendicular. Segment and polygon edge
// normals are built with it.
func (v Vector) ReversePerp() Vector {
	return Vector{v.Y, -v.X}
}

func (v Vector) Project(other Vector) Vector {
	return other.Mult(v.Dot(other) / other.Dot(other))
}

// PlaneProject moves v onto the line {x : n.x == d}.
func (v Vector) PlaneProject(n Vector, d float64) Vector {
	return v.Sub(n.Mult(n.Dot(v) - d))
}

// Slide removes the component of v along the unit normal n.
func (v Vector) Slide(n Vector) Vector {
	return v.Sub(n.Mult(v.Dot(n)))
}

/// Returns the unit length vector for the given angle (in radians).
func ForAngle(a float64) Vector {
	return Vector{math.Cos(a), math.Sin(a)}
}

func (v Vector) ToAngle() float64 {
	return math.Atan2(v.Y, v.X)
}

func (v Vector) Rotate(other Vector) Vector {
	return Vector{v.X*other.X - v.Y*other.Y, v.X*other.Y + v.Y*other.X}
}

func (v Vector) LengthSq() float64 {
	return v.Dot(v)
}

func (v Vector) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

func (v Vector) Lerp(other Vector, t float64) Vector {
	return v.Mult(1.0 - t).Add(other.Mult(t))
}

// Normalize returns the unit vector, or the zero vector for a zero input.
func (v Vector) Normalize() Vector {
	l := v.LengthSq()
	if l == 0 {
		return Vector{}
	}
	return v.Mult(1.0 / math.Sqrt(l))
}

func (v Vector) IsNormalized() bool {
	return math.Abs(v.LengthSq()-1) < 0.001
}

func (v Vector) Clamp(length float64) Vector {
	if v.Dot(v) > length*length {
		return v.Normalize().Mult(length)
	}
	return v
}

func (v Vector) Distance(other Vector) float64 {
	return v.Sub(other).Length()
}

func (v Vector) DistanceSq(other Vector) float64 {
	return v.Sub(other).LengthSq()
}

func (v Vector) Near(other Vector, d float64) bool {
	return v.DistanceSq(other) < d*d
}

func (v Vector) IsEqualApprox(other Vector) bool {
	return isEqualApprox(v.X, other.X) && isEqualApprox(v.Y, other.Y)
}

func (v Vector) Abs() Vector {
	return Vector{math.Abs(v.X), math.Abs(v.Y)}
}

func (v Vector) Min(other Vector) Vector {
	return Vector{math.Min(v.X, other.X), math.Min(v.Y, other.Y)}
}

func (v Vector) Max(other Vector) Vector {
	return Vector{math.Max(v.X, other.X), math.Max(v.Y, other.Y)}
}

// Axis returns component i (0 = X, 1 = Y).
func (v Vector) Axis(i int) float64 {
	if i == 0 {
		return v.X
	}
	return v.Y
}

func (v *Vector) SetAxis(i int, f float64) {
	if i == 0 {
		v.X = f
	} else {
		v.Y = f
	}
}

// ClosestPointOnSegment clamps p onto the segment ab.
func (p Vector) ClosestPointOnSegment(a, b Vector) Vector {
	delta := b.Sub(a)
	l2 := delta.LengthSq()
	if l2 < 1e-20 {
		return a
	}
	t := Clamp01(p.Sub(a).Dot(delta) / l2)
	return a.Add(delta.Mult(t))
}

// ClosestPointOnLine projects p onto the infinite line through a and b.
func (p Vector) ClosestPointOnLine(a, b Vector) Vector {
	delta := b.Sub(a)
	l2 := delta.LengthSq()
	if l2 < 1e-20 {
		return a
	}
	return a.Add(delta.Mult(p.Sub(a).Dot(delta) / l2))
}

// SegmentIntersectsSegment reports the crossing point of segments ab and cd.
func SegmentIntersectsSegment(a, b, c, d Vector) (Vector, bool) {
	ab := b.Sub(a)
	abLen := ab.LengthSq()
	if abLen <= 0 {
		return Vector{}, false
	}
	abNorm := ab.Mult(1 / abLen)
	// rotate so ab lies along +X
	rot := func(p Vector) Vector {
		p = p.Sub(a)
		return Vector{p.X*abNorm.X + p.Y*abNorm.Y, p.Y*abNorm.X - p.X*abNorm.Y}
	}
	c2, d2 := rot(c), rot(d)
	if (c2.Y < -CMP_EPSILON && d2.Y < -CMP_EPSILON) || (c2.Y > CMP_EPSILON && d2.Y > CMP_EPSILON) {
		return Vector{}, false
	}
	if isEqualApprox(c2.Y, d2.Y) {
		return Vector{}, false
	}
	pos := d2.X + (c2.X-d2.X)*d2.Y/(d2.Y-c2.Y)
	if pos < 0 || pos > 1 {
		return Vector{}, false
	}
	return a.Add(ab.Mult(pos)), true
}

func Clamp(f, min, max float64) float64 {
	return math.Min(math.Max(f, min), max)
}

func Clamp01(f float64) float64 {
	return math.Max(0, math.Min(f, 1))
}

func Lerp(f1, f2, t float64) float64 {
	return f1*(1.0-t) + f2*t
}

func sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	if f > 0 {
		return 1
	}
	return 0
}

func isZeroApprox(f float64) bool {
	return math.Abs(f) < CMP_EPSILON
}

func isEqualApprox(a, b float64) bool {
	if a == b {
		return true
	}
	tolerance := CMP_EPSILON * math.Abs(a)
	if tolerance < CMP_EPSILON {
		tolerance = CMP_EPSILON
	}
	return math.Abs(a-b) < tolerance
}
