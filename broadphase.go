package physics

import "sort"

// PairCallback is called when the bounds of two elements start to overlap.
// The returned handle is stored by the broad phase and handed back to the
// UnpairCallback when they separate.
type PairCallback func(a *CollisionObject, subA int, b *CollisionObject, subB int) interface{}

// UnpairCallback is called when the bounds of a paired couple separate or
// one of them is removed. The broad phase does not inspect the handle.
type UnpairCallback func(a *CollisionObject, subA int, b *CollisionObject, subB int, handle interface{})

// PairPredicate filters candidate pairs before PairCallback runs.
type PairPredicate func(a, b *CollisionObject) bool

// BroadPhase tracks the bounds of every shape in a space and reports
// candidate overlapping pairs.
type BroadPhase interface {
	Create(obj *CollisionObject, subindex int, bb BB, static bool) uint32
	Move(id uint32, bb BB)
	SetStatic(id uint32, static bool)
	Remove(id uint32)

	Object(id uint32) (*CollisionObject, int)
	IsStatic(id uint32) bool

	CullPoint(p Vector, results []*CollisionObject, subindices []int) int
	CullSegment(from, to Vector, results []*CollisionObject, subindices []int) int
	CullAABB(bb BB, results []*CollisionObject, subindices []int) int

	SetPairCallback(fn PairCallback)
	SetUnpairCallback(fn UnpairCallback)
	SetPairPredicate(fn PairPredicate)

	Update()
}

type bpElement struct {
	obj      *CollisionObject
	subindex int
	bb       BB
	static   bool
	pairs    map[uint32]*bpPair
}

type bpPair struct {
	a, b   uint32
	handle interface{}
}

func bpPairKey(a, b uint32) uint64 {
	if a > b {
		a, b = b, a
	}
	return uint64(a)<<32 | uint64(b)
}

// BVHBroadPhase keeps static and dynamic elements in two trees so static
// elements are never paired with each other.
type BVHBroadPhase struct {
	static, dynamic *bbTree

	elements map[uint32]*bpElement
	pairs    map[uint64]*bpPair
	moved    map[uint32]struct{}
	nextID   uint32

	pairCallback   PairCallback
	unpairCallback UnpairCallback
	predicate      PairPredicate

	candidates []uint32
}

// bbTreeMargin fattens leaf boxes so that small moves skip the reinsert.
const bbTreeMargin = 0.1

func NewBVHBroadPhase() *BVHBroadPhase {
	return &BVHBroadPhase{
		static:   newBBTree(bbTreeMargin),
		dynamic:  newBBTree(bbTreeMargin),
		elements: map[uint32]*bpElement{},
		pairs:    map[uint64]*bpPair{},
		moved:    map[uint32]struct{}{},
	}
}

func (bp *BVHBroadPhase) tree(static bool) *bbTree {
	if static {
		return bp.static
	}
	return bp.dynamic
}

func (bp *BVHBroadPhase) Create(obj *CollisionObject, subindex int, bb BB, static bool) uint32 {
	bp.nextID++
	id := bp.nextID
	bp.elements[id] = &bpElement{
		obj:      obj,
		subindex: subindex,
		bb:       bb,
		static:   static,
		pairs:    map[uint32]*bpPair{},
	}
	bp.tree(static).Insert(id, bb)
	bp.moved[id] = struct{}{}
	return id
}

func (bp *BVHBroadPhase) Move(id uint32, bb BB) {
	e, ok := bp.elements[id]
	if !ok {
		assert(false, "broad phase: moving unknown element ", id)
		return
	}
	e.bb = bb
	bp.tree(e.static).Update(id, bb)
	bp.moved[id] = struct{}{}
}

func (bp *BVHBroadPhase) SetStatic(id uint32, static bool) {
	e, ok := bp.elements[id]
	if !ok {
		assert(false, "broad phase: unknown element ", id)
		return
	}
	if e.static == static {
		return
	}
	bp.tree(e.static).Remove(id)
	e.static = static
	bp.tree(static).Insert(id, e.bb)
	bp.moved[id] = struct{}{}
}

func (bp *BVHBroadPhase) Remove(id uint32) {
	e, ok := bp.elements[id]
	if !ok {
		assert(false, "broad phase: removing unknown element ", id)
		return
	}
	for _, other := range sortedPairIDs(e.pairs) {
		bp.unpair(e.pairs[other])
	}
	bp.tree(e.static).Remove(id)
	delete(bp.elements, id)
	delete(bp.moved, id)
}

func (bp *BVHBroadPhase) Object(id uint32) (*CollisionObject, int) {
	e, ok := bp.elements[id]
	if !ok {
		return nil, -1
	}
	return e.obj, e.subindex
}

func (bp *BVHBroadPhase) IsStatic(id uint32) bool {
	e, ok := bp.elements[id]
	return ok && e.static
}

func (bp *BVHBroadPhase) SetPairCallback(fn PairCallback) {
	bp.pairCallback = fn
}

func (bp *BVHBroadPhase) SetUnpairCallback(fn UnpairCallback) {
	bp.unpairCallback = fn
}

func (bp *BVHBroadPhase) SetPairPredicate(fn PairPredicate) {
	bp.predicate = fn
}

func (bp *BVHBroadPhase) cull(results []*CollisionObject, subindices []int, query func(tree *bbTree, fn func(uint32) bool), exact func(BB) bool) int {
	count := 0
	collect := func(id uint32) bool {
		if count >= len(results) {
			return false
		}
		e := bp.elements[id]
		if !exact(e.bb) {
			return true
		}
		results[count] = e.obj
		if subindices != nil {
			subindices[count] = e.subindex
		}
		count++
		return true
	}
	query(bp.dynamic, collect)
	query(bp.static, collect)
	return count
}

func (bp *BVHBroadPhase) CullPoint(p Vector, results []*CollisionObject, subindices []int) int {
	return bp.cull(results, subindices, func(tree *bbTree, fn func(uint32) bool) {
		tree.PointQuery(p, fn)
	}, func(bb BB) bool {
		return bb.ContainsVect(p)
	})
}

func (bp *BVHBroadPhase) CullSegment(from, to Vector, results []*CollisionObject, subindices []int) int {
	return bp.cull(results, subindices, func(tree *bbTree, fn func(uint32) bool) {
		tree.SegmentQuery(from, to, fn)
	}, func(bb BB) bool {
		return bb.IntersectsSegment(from, to)
	})
}

func (bp *BVHBroadPhase) CullAABB(query BB, results []*CollisionObject, subindices []int) int {
	return bp.cull(results, subindices, func(tree *bbTree, fn func(uint32) bool) {
		tree.Query(query, fn)
	}, func(bb BB) bool {
		return bb.Intersects(query)
	})
}

// Update pairs and unpairs every element moved since the last call. With
// nothing moved it does nothing.
func (bp *BVHBroadPhase) Update() {
	if len(bp.moved) == 0 {
		return
	}
	moved := make([]uint32, 0, len(bp.moved))
	for id := range bp.moved {
		moved = append(moved, id)
	}
	sort.Slice(moved, func(i, j int) bool { return moved[i] < moved[j] })
	for id := range bp.moved {
		delete(bp.moved, id)
	}

	for _, id := range moved {
		e, ok := bp.elements[id]
		if !ok {
			continue
		}

		// drop pairs that no longer overlap
		for _, otherID := range sortedPairIDs(e.pairs) {
			other := bp.elements[otherID]
			if (e.static && other.static) || !e.bb.Intersects(other.bb) {
				bp.unpair(e.pairs[otherID])
			}
		}

		bp.candidates = bp.candidates[:0]
		collect := func(other uint32) bool {
			bp.candidates = append(bp.candidates, other)
			return true
		}
		bp.dynamic.Query(e.bb, collect)
		if !e.static {
			bp.static.Query(e.bb, collect)
		}
		sort.Slice(bp.candidates, func(i, j int) bool { return bp.candidates[i] < bp.candidates[j] })

		for _, otherID := range bp.candidates {
			if otherID == id {
				continue
			}
			if _, paired := e.pairs[otherID]; paired {
				continue
			}
			other := bp.elements[otherID]
			if other.obj == e.obj || !e.bb.Intersects(other.bb) {
				continue
			}
			if bp.predicate != nil && !bp.predicate(e.obj, other.obj) {
				continue
			}
			bp.pair(id, otherID)
		}
	}
}

func (bp *BVHBroadPhase) pair(a, b uint32) {
	if a > b {
		a, b = b, a
	}
	ea, eb := bp.elements[a], bp.elements[b]
	p := &bpPair{a: a, b: b}
	bp.pairs[bpPairKey(a, b)] = p
	ea.pairs[b] = p
	eb.pairs[a] = p
	if bp.pairCallback != nil {
		p.handle = bp.pairCallback(ea.obj, ea.subindex, eb.obj, eb.subindex)
	}
}

func (bp *BVHBroadPhase) unpair(p *bpPair) {
	ea, eb := bp.elements[p.a], bp.elements[p.b]
	delete(bp.pairs, bpPairKey(p.a, p.b))
	delete(ea.pairs, p.b)
	delete(eb.pairs, p.a)
	if bp.unpairCallback != nil && p.handle != nil {
		bp.unpairCallback(ea.obj, ea.subindex, eb.obj, eb.subindex, p.handle)
	}
}

// PairCount is the number of overlapping element pairs.
func (bp *BVHBroadPhase) PairCount() int {
	return len(bp.pairs)
}

func sortedPairIDs(pairs map[uint32]*bpPair) []uint32 {
	ids := make([]uint32, 0, len(pairs))
	for id := range pairs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
