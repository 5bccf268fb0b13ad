package physics

import (
	"fmt"
	"log"
)

// WorldBoundaryData configures a SHAPE_WORLD_BOUNDARY: the half plane of
// points p with Normal.p < Distance is solid.
type WorldBoundaryData struct {
	Normal   Vector
	Distance float64
}

// SeparationRayData configures a SHAPE_SEPARATION_RAY.
type SeparationRayData struct {
	Length       float64
	SlideOnSlope bool
}

// SetData configures the shape from a kind-specific payload:
//
//	SHAPE_WORLD_BOUNDARY   WorldBoundaryData, or []float64{nx, ny, d}
//	SHAPE_SEPARATION_RAY   SeparationRayData
//	SHAPE_SEGMENT          [2]Vector, or []float64{ax, ay, bx, by}
//	SHAPE_CIRCLE           radius as float64, float32 or int
//	SHAPE_RECTANGLE        half extents as Vector
//	SHAPE_CAPSULE          Vector{radius, height}, or []float64{height, radius}
//	SHAPE_CONVEX_POLYGON   []Vector, or []float64 of (x, y, nx, ny) quads
//	SHAPE_CONCAVE_POLYGON  []Vector holding segment end point pairs
//
// A rejected payload leaves the shape untouched.
func (s *Shape) SetData(data interface{}) error {
	var err error
	switch s.kind {
	case SHAPE_WORLD_BOUNDARY:
		err = s.setWorldBoundary(data)
	case SHAPE_SEPARATION_RAY:
		err = s.setSeparationRay(data)
	case SHAPE_SEGMENT:
		err = s.setSegment(data)
	case SHAPE_CIRCLE:
		err = s.setCircle(data)
	case SHAPE_RECTANGLE:
		err = s.setRectangle(data)
	case SHAPE_CAPSULE:
		err = s.setCapsule(data)
	case SHAPE_CONVEX_POLYGON:
		err = s.setConvexPolygon(data)
	case SHAPE_CONCAVE_POLYGON:
		err = s.setConcavePolygon(data)
	default:
		err = fmt.Errorf("%w: unknown shape type %d", ErrInvalidShapeData, s.kind)
	}
	if err != nil {
		log.Println("SetData:", err)
	}
	return err
}

func badData(kind ShapeType, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidShapeData, kind, fmt.Sprintf(format, args...))
}

func (s *Shape) setWorldBoundary(data interface{}) error {
	var wb WorldBoundaryData
	switch v := data.(type) {
	case WorldBoundaryData:
		wb = v
	case []float64:
		if len(v) != 3 {
			return badData(s.kind, "want 3 floats, got %d", len(v))
		}
		wb = WorldBoundaryData{Vector{v[0], v[1]}, v[2]}
	default:
		return badData(s.kind, "unsupported payload %T", data)
	}
	if wb.Normal.IsZero() {
		return badData(s.kind, "zero normal")
	}
	s.normal = wb.Normal.Normalize()
	s.d = wb.Distance
	s.configure(BB{-1e15, -1e15, 1e15, 1e15})
	return nil
}

func (s *Shape) setSeparationRay(data interface{}) error {
	v, ok := data.(SeparationRayData)
	if !ok {
		return badData(s.kind, "unsupported payload %T", data)
	}
	if v.Length <= 0 {
		return badData(s.kind, "length must be positive, got %v", v.Length)
	}
	s.length = v.Length
	s.slideOnSlope = v.SlideOnSlope
	s.configure(BB{0, 0, 0.001, v.Length})
	return nil
}

func segmentBB(a, b Vector) BB {
	bb := NewBBForPoint(a).Expand(b)
	if bb.R-bb.L == 0 {
		bb.R = bb.L + 0.001
	}
	if bb.T-bb.B == 0 {
		bb.T = bb.B + 0.001
	}
	return bb
}

func (s *Shape) setSegment(data interface{}) error {
	var a, b Vector
	switch v := data.(type) {
	case [2]Vector:
		a, b = v[0], v[1]
	case []Vector:
		if len(v) != 2 {
			return badData(s.kind, "want 2 points, got %d", len(v))
		}
		a, b = v[0], v[1]
	case []float64:
		if len(v) != 4 {
			return badData(s.kind, "want 4 floats, got %d", len(v))
		}
		a, b = Vector{v[0], v[1]}, Vector{v[2], v[3]}
	default:
		return badData(s.kind, "unsupported payload %T", data)
	}
	s.a, s.b = a, b
	s.n = b.Sub(a).ReversePerp().Normalize()
	s.configure(segmentBB(a, b))
	return nil
}

func toFloat(data interface{}) (float64, bool) {
	switch v := data.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func (s *Shape) setCircle(data interface{}) error {
	r, ok := toFloat(data)
	if !ok {
		return badData(s.kind, "unsupported payload %T", data)
	}
	if r <= 0 {
		return badData(s.kind, "radius must be positive, got %v", r)
	}
	s.radius = r
	s.configure(BB{-r, -r, r, r})
	return nil
}

func (s *Shape) setRectangle(data interface{}) error {
	he, ok := data.(Vector)
	if !ok {
		return badData(s.kind, "unsupported payload %T", data)
	}
	if he.X <= 0 || he.Y <= 0 {
		return badData(s.kind, "half extents must be positive, got %v", he)
	}
	s.halfExtents = he
	s.configure(BB{-he.X, -he.Y, he.X, he.Y})
	return nil
}

func (s *Shape) setCapsule(data interface{}) error {
	var radius, height float64
	switch v := data.(type) {
	case Vector:
		radius, height = v.X, v.Y
	case []float64:
		if len(v) != 2 {
			return badData(s.kind, "want 2 floats, got %d", len(v))
		}
		height, radius = v[0], v[1]
	default:
		return badData(s.kind, "unsupported payload %T", data)
	}
	if radius <= 0 || height < 0 {
		return badData(s.kind, "bad dimensions radius=%v height=%v", radius, height)
	}
	s.radius, s.height = radius, height
	half := height * 0.5
	if half < radius {
		half = radius
	}
	s.configure(BB{-radius, -half, radius, half})
	return nil
}

func (s *Shape) setConvexPolygon(data interface{}) error {
	var points []polyPoint
	switch v := data.(type) {
	case []Vector:
		if len(v) == 0 {
			return badData(s.kind, "no points")
		}
		points = make([]polyPoint, len(v))
		for i := range v {
			points[i].pos = v[i]
		}
		// normals face outward whatever the winding
		flip := polygonArea(v) < 0
		for i := range points {
			next := points[(i+1)%len(points)].pos
			n := next.Sub(points[i].pos).ReversePerp().Normalize()
			if flip {
				n = n.Neg()
			}
			points[i].normal = n
		}
	case []float64:
		if len(v) == 0 || len(v)%4 != 0 {
			return badData(s.kind, "want (x, y, nx, ny) quads, got %d floats", len(v))
		}
		points = make([]polyPoint, len(v)/4)
		for i := range points {
			idx := i << 2
			points[i].pos = Vector{v[idx], v[idx+1]}
			points[i].normal = Vector{v[idx+2], v[idx+3]}
		}
	default:
		return badData(s.kind, "unsupported payload %T", data)
	}
	s.points = points
	bb := NewBBForPoint(points[0].pos)
	for _, p := range points[1:] {
		bb = bb.Expand(p.pos)
	}
	s.configure(bb)
	return nil
}

// polygonArea is the signed area, positive for counter-clockwise winding.
func polygonArea(pts []Vector) float64 {
	area := 0.0
	for i := range pts {
		area += pts[i].Cross(pts[(i+1)%len(pts)])
	}
	return area * 0.5
}

func (s *Shape) setConcavePolygon(data interface{}) error {
	v, ok := data.([]Vector)
	if !ok {
		return badData(s.kind, "unsupported payload %T", data)
	}
	if len(v)%2 != 0 {
		return badData(s.kind, "odd point count %d", len(v))
	}
	s.concave = newConcavePolygon(v)
	s.configure(s.concave.bb)
	return nil
}

// Data returns the configuration payload in a form SetData accepts.
func (s *Shape) Data() interface{} {
	switch s.kind {
	case SHAPE_WORLD_BOUNDARY:
		return WorldBoundaryData{s.normal, s.d}
	case SHAPE_SEPARATION_RAY:
		return SeparationRayData{s.length, s.slideOnSlope}
	case SHAPE_SEGMENT:
		return [2]Vector{s.a, s.b}
	case SHAPE_CIRCLE:
		return s.radius
	case SHAPE_RECTANGLE:
		return s.halfExtents
	case SHAPE_CAPSULE:
		return Vector{s.radius, s.height}
	case SHAPE_CONVEX_POLYGON:
		pts := make([]Vector, len(s.points))
		for i, p := range s.points {
			pts[i] = p.pos
		}
		return pts
	case SHAPE_CONCAVE_POLYGON:
		if s.concave == nil {
			return []Vector{}
		}
		return s.concave.segmentPoints()
	}
	return nil
}
