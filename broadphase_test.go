package physics

import "testing"

type pairLog struct {
	paired, unpaired int
}

func newLoggedBroadPhase(log *pairLog) *BVHBroadPhase {
	bp := NewBVHBroadPhase()
	bp.SetPairCallback(func(a *CollisionObject, subA int, b *CollisionObject, subB int) interface{} {
		log.paired++
		return log
	})
	bp.SetUnpairCallback(func(a *CollisionObject, subA int, b *CollisionObject, subB int, handle interface{}) {
		if handle != log {
			panic("handle not handed back")
		}
		log.unpaired++
	})
	return bp
}

func TestBroadPhase_PairUnpair(t *testing.T) {
	var calls pairLog
	bp := newLoggedBroadPhase(&calls)
	a, b := &NewBody().CollisionObject, &NewBody().CollisionObject

	idA := bp.Create(a, 0, NewBBForExtents(Vector{}, 1, 1), false)
	bp.Create(b, 0, NewBBForExtents(Vector{1.5, 0}, 1, 1), false)
	bp.Update()
	if calls.paired != 1 || bp.PairCount() != 1 {
		t.Fatalf("Expected 1 pair, got %d calls and %d pairs", calls.paired, bp.PairCount())
	}

	bp.Update()
	if calls.paired != 1 || calls.unpaired != 0 {
		t.Error("A second update should not call back")
	}

	bp.Move(idA, NewBBForExtents(Vector{0.05, 0}, 1, 1))
	bp.Update()
	if calls.paired != 1 || calls.unpaired != 0 {
		t.Error("A small move should keep the pair")
	}

	bp.Move(idA, NewBBForExtents(Vector{-5, 0}, 1, 1))
	bp.Update()
	if calls.unpaired != 1 || bp.PairCount() != 0 {
		t.Errorf("Expected the pair to be dropped, got %d unpairs", calls.unpaired)
	}
}

func TestBroadPhase_StaticElements(t *testing.T) {
	var calls pairLog
	bp := newLoggedBroadPhase(&calls)
	ground, wall, box := &NewBody().CollisionObject, &NewBody().CollisionObject, &NewBody().CollisionObject

	bp.Create(ground, 0, NewBB(-10, -1, 10, 0), true)
	bp.Create(wall, 0, NewBB(-1, -1, 0, 10), true)
	bp.Update()
	if calls.paired != 0 {
		t.Fatal("Static elements should not pair with each other")
	}

	idBox := bp.Create(box, 0, NewBB(-0.5, -0.5, 0.5, 0.5), false)
	bp.Update()
	if calls.paired != 2 {
		t.Errorf("Expected the box to pair with both, got %d", calls.paired)
	}

	bp.Remove(idBox)
	if calls.unpaired != 2 || bp.PairCount() != 0 {
		t.Errorf("Removing should unpair, got %d", calls.unpaired)
	}
}

func TestBroadPhase_Predicate(t *testing.T) {
	var calls pairLog
	bp := newLoggedBroadPhase(&calls)
	bp.SetPairPredicate(func(a, b *CollisionObject) bool { return false })
	a, b := &NewBody().CollisionObject, &NewBody().CollisionObject

	bp.Create(a, 0, NewBBForExtents(Vector{}, 1, 1), false)
	bp.Create(b, 0, NewBBForExtents(Vector{}, 1, 1), false)
	bp.Update()
	if calls.paired != 0 {
		t.Error("Rejected candidates should not pair")
	}
}

func TestBroadPhase_Cull(t *testing.T) {
	bp := NewBVHBroadPhase()
	a, b := &NewBody().CollisionObject, &NewBody().CollisionObject
	bp.Create(a, 3, NewBBForExtents(Vector{}, 1, 1), false)
	bp.Create(b, 0, NewBBForExtents(Vector{10, 0}, 1, 1), true)

	objs := make([]*CollisionObject, 4)
	subs := make([]int, 4)
	if n := bp.CullPoint(Vector{0.5, 0.5}, objs, subs); n != 1 || objs[0] != a || subs[0] != 3 {
		t.Errorf("Expected a/3, got %d results", n)
	}
	if n := bp.CullSegment(Vector{-5, 0}, Vector{15, 0}, objs, subs); n != 2 {
		t.Errorf("Expected the segment to cross both, got %d", n)
	}
	if n := bp.CullAABB(NewBB(8, -1, 9.5, 1), objs, subs); n != 1 || objs[0] != b {
		t.Errorf("Expected b, got %d results", n)
	}
	if n := bp.CullAABB(NewBB(-20, -20, 20, 20), objs[:1], subs[:1]); n != 1 {
		t.Errorf("Results should be capped, got %d", n)
	}
}
