package physics

import "sort"

type concaveSegment [2]int

// concaveNode is a node of the static segment tree. Leaves have left < 0
// and store their segment index in right.
type concaveNode struct {
	bb          BB
	left, right int
}

type concavePolygon struct {
	points   []Vector
	segments []concaveSegment
	nodes    []concaveNode
	bb       BB
}

func newConcavePolygon(pairs []Vector) *concavePolygon {
	c := &concavePolygon{}
	if len(pairs) == 0 {
		c.bb = segmentBB(Vector{}, Vector{})
		return c
	}

	index := map[Vector]int{}
	pointIndex := func(p Vector) int {
		if i, ok := index[p]; ok {
			return i
		}
		i := len(c.points)
		index[p] = i
		c.points = append(c.points, p)
		return i
	}
	for i := 0; i < len(pairs); i += 2 {
		c.segments = append(c.segments, concaveSegment{pointIndex(pairs[i]), pointIndex(pairs[i+1])})
	}

	c.bb = NewBBForPoint(c.points[0])
	for _, p := range c.points[1:] {
		c.bb = c.bb.Expand(p)
	}
	c.bb = segmentBB(Vector{c.bb.L, c.bb.B}, Vector{c.bb.R, c.bb.T})

	leaves := make([]concaveNode, len(c.segments))
	for i, s := range c.segments {
		leaves[i] = concaveNode{
			bb:    NewBBForPoint(c.points[s[0]]).Expand(c.points[s[1]]),
			left:  -1,
			right: i,
		}
	}
	c.nodes = make([]concaveNode, 0, 2*len(leaves))
	c.build(leaves)
	return c
}

// build splits at the median along the longer axis of the merged bounds.
func (c *concavePolygon) build(leaves []concaveNode) int {
	if len(leaves) == 1 {
		c.nodes = append(c.nodes, leaves[0])
		return len(c.nodes) - 1
	}

	bb := leaves[0].bb
	for _, l := range leaves[1:] {
		bb = bb.Merge(l.bb)
	}
	axis := 1
	if size := bb.Size(); size.X > size.Y {
		axis = 0
	}
	sort.Slice(leaves, func(i, j int) bool {
		return leaves[i].bb.Center().Axis(axis) < leaves[j].bb.Center().Axis(axis)
	})

	median := len(leaves) / 2
	idx := len(c.nodes)
	c.nodes = append(c.nodes, concaveNode{bb: bb})
	l := c.build(leaves[:median])
	r := c.build(leaves[median:])
	c.nodes[idx].left = l
	c.nodes[idx].right = r
	return idx
}

func (c *concavePolygon) segment(i int) (a, b Vector) {
	s := c.segments[i]
	return c.points[s[0]], c.points[s[1]]
}

func (c *concavePolygon) segmentPoints() []Vector {
	out := make([]Vector, 0, len(c.segments)*2)
	for i := range c.segments {
		a, b := c.segment(i)
		out = append(out, a, b)
	}
	return out
}

// walk visits every leaf whose node bounds pass test, depth first, until
// visit returns true. The stack grows as needed.
func (c *concavePolygon) walk(test func(BB) bool, visit func(seg int) bool) {
	if len(c.nodes) == 0 {
		return
	}
	stack := make([]int, 1, 32)
	stack[0] = 0
	for len(stack) > 0 {
		node := &c.nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]
		if !test(node.bb) {
			continue
		}
		if node.left < 0 {
			if visit(node.right) {
				return
			}
			continue
		}
		stack = append(stack, node.right, node.left)
	}
}

// cull calls fn with a segment shape for every segment whose bounds touch
// the local box. fn returns true to stop.
func (c *concavePolygon) cull(local BB, fn func(seg *Shape) bool) {
	c.walk(local.Intersects, func(i int) bool {
		a, b := c.segment(i)
		return fn(newSegment(a, b, b.Sub(a).ReversePerp().Normalize()))
	})
}

func (c *concavePolygon) intersectSegment(from, to Vector) (point, normal Vector, ok bool) {
	dir := to.Sub(from).Normalize()
	best := 1e10
	c.walk(func(bb BB) bool {
		return bb.IntersectsSegment(from, to)
	}, func(i int) bool {
		a, b := c.segment(i)
		if res, hit := SegmentIntersectsSegment(from, to, a, b); hit {
			if nd := dir.Dot(res); nd < best {
				best = nd
				point = res
				normal = b.Sub(a).ReversePerp().Normalize()
				ok = true
			}
		}
		return false
	})
	if ok && dir.Dot(normal) > 0 {
		normal = normal.Neg()
	}
	return
}
