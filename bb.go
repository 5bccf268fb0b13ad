package physics

import "math"

// BB is an axis-aligned bounding box.
type BB struct {
	L, B, R, T float64
}

func NewBB(l, b, r, t float64) BB {
	return BB{l, b, r, t}
}

func NewBBForExtents(c Vector, hw, hh float64) BB {
	return BB{
		L: c.X - hw,
		B: c.Y - hh,
		R: c.X + hw,
		T: c.Y + hh,
	}
}

func NewBBForPoint(p Vector) BB {
	return BB{p.X, p.Y, p.X, p.Y}
}

func (a BB) Intersects(b BB) bool {
	return a.L <= b.R && b.L <= a.R && a.B <= b.T && b.B <= a.T
}

// IntersectsStrict excludes touching edges.
func (a BB) IntersectsStrict(b BB) bool {
	return a.L < b.R && b.L < a.R && a.B < b.T && b.B < a.T
}

func (bb BB) Contains(other BB) bool {
	return bb.L <= other.L && bb.R >= other.R && bb.B <= other.B && bb.T >= other.T
}

func (bb BB) ContainsVect(v Vector) bool {
	return bb.L <= v.X && bb.R >= v.X && bb.B <= v.Y && bb.T >= v.Y
}

func (a BB) Merge(b BB) BB {
	return BB{
		math.Min(a.L, b.L),
		math.Min(a.B, b.B),
		math.Max(a.R, b.R),
		math.Max(a.T, b.T),
	}
}

func (bb BB) Expand(v Vector) BB {
	return BB{
		math.Min(bb.L, v.X),
		math.Min(bb.B, v.Y),
		math.Max(bb.R, v.X),
		math.Max(bb.T, v.Y),
	}
}

func (bb BB) Grow(by float64) BB {
	return BB{bb.L - by, bb.B - by, bb.R + by, bb.T + by}
}

func (bb BB) Center() Vector {
	return Vector{bb.L, bb.B}.Lerp(Vector{bb.R, bb.T}, 0.5)
}

func (bb BB) Size() Vector {
	return Vector{bb.R - bb.L, bb.T - bb.B}
}

func (bb BB) Min() Vector {
	return Vector{bb.L, bb.B}
}

func (bb BB) Max() Vector {
	return Vector{bb.R, bb.T}
}

func (bb BB) Area() float64 {
	return (bb.R - bb.L) * (bb.T - bb.B)
}

func (a BB) MergedArea(b BB) float64 {
	return (math.Max(a.R, b.R) - math.Min(a.L, b.L)) * (math.Max(a.T, b.T) - math.Min(a.B, b.B))
}

func (bb BB) IsEqualApprox(o BB) bool {
	return isEqualApprox(bb.L, o.L) && isEqualApprox(bb.B, o.B) && isEqualApprox(bb.R, o.R) && isEqualApprox(bb.T, o.T)
}

// SegmentQuery returns the entry fraction of segment ab, or INFINITY.
func (bb BB) SegmentQuery(a, b Vector) float64 {
	delta := b.Sub(a)
	tmin := -INFINITY
	tmax := INFINITY

	if delta.X == 0 {
		if a.X < bb.L || bb.R < a.X {
			return INFINITY
		}
	} else {
		t1 := (bb.L - a.X) / delta.X
		t2 := (bb.R - a.X) / delta.X
		tmin = math.Max(tmin, math.Min(t1, t2))
		tmax = math.Min(tmax, math.Max(t1, t2))
	}

	if delta.Y == 0 {
		if a.Y < bb.B || bb.T < a.Y {
			return INFINITY
		}
	} else {
		t1 := (bb.B - a.Y) / delta.Y
		t2 := (bb.T - a.Y) / delta.Y
		tmin = math.Max(tmin, math.Min(t1, t2))
		tmax = math.Min(tmax, math.Max(t1, t2))
	}

	if tmin <= tmax && 0 <= tmax && tmin <= 1.0 {
		return math.Max(tmin, 0.0)
	}
	return INFINITY
}

func (bb BB) IntersectsSegment(a, b Vector) bool {
	return bb.SegmentQuery(a, b) != INFINITY
}

// SegmentHit clips segment ab against the box and returns the entry point
// and the face normal it entered through.
func (bb BB) SegmentHit(a, b Vector) (point, normal Vector, ok bool) {
	min, max := 0.0, 1.0
	axis := 0
	sgn := 0.0
	for i := 0; i < 2; i++ {
		segFrom, segTo := a.Axis(i), b.Axis(i)
		boxBegin, boxEnd := bb.Min().Axis(i), bb.Max().Axis(i)
		var cmin, cmax, csign float64
		if segFrom < segTo {
			if segFrom > boxEnd || segTo < boxBegin {
				return
			}
			length := segTo - segFrom
			if segFrom < boxBegin {
				cmin = (boxBegin - segFrom) / length
			}
			cmax = 1
			if segTo > boxEnd {
				cmax = (boxEnd - segFrom) / length
			}
			csign = -1
		} else {
			if segTo > boxEnd || segFrom < boxBegin {
				return
			}
			length := segTo - segFrom
			if segFrom > boxEnd {
				cmin = (boxEnd - segFrom) / length
			}
			cmax = 1
			if segTo < boxBegin {
				cmax = (boxBegin - segFrom) / length
			}
			csign = 1
		}
		if cmin > min {
			min = cmin
			axis = i
			sgn = csign
		}
		if cmax < max {
			max = cmax
		}
		if max < min {
			return
		}
	}
	normal.SetAxis(axis, sgn)
	return a.Lerp(b, min), normal, true
}

func (bb BB) Offset(v Vector) BB {
	return BB{
		bb.L + v.X,
		bb.B + v.Y,
		bb.R + v.X,
		bb.T + v.Y,
	}
}

// Sweep extends the box along a motion vector.
func (bb BB) Sweep(motion Vector) BB {
	return bb.Merge(bb.Offset(motion))
}

func (a BB) Proximity(b BB) float64 {
	return math.Abs(a.L+a.R-b.L-b.R) + math.Abs(a.B+a.T-b.B-b.T)
}
