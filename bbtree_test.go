package physics

import (
	"testing"
)

func TestBBTree_NodePool(t *testing.T) {
	tree := newBBTree(0)
	node := tree.NodeFromPool()

	if node.parent == nil {
		t.Fatal("Expected the pool to be refilled")
	}

	count := 1
	for n := node.parent; n != nil; n = n.parent {
		count++
	}
	if count != 32 {
		t.Errorf("Expected 32 nodes in the chain, got %d", count)
	}

	tree.NodeRecycle(node)
	if tree.NodeFromPool() != node {
		t.Error("Expected the recycled node back")
	}
}

func collectIDs(tree *bbTree, bb BB) map[uint32]bool {
	found := map[uint32]bool{}
	tree.Query(bb, func(id uint32) bool {
		found[id] = true
		return true
	})
	return found
}

func TestBBTree_InsertQuery(t *testing.T) {
	tree := newBBTree(0)
	for i := 1; i <= 20; i++ {
		c := Vector{float64(i) * 3, 0}
		tree.Insert(uint32(i), NewBBForExtents(c, 1, 1))
	}
	if tree.Count() != 20 {
		t.Fatalf("Expected 20 leaves, got %d", tree.Count())
	}

	found := collectIDs(tree, NewBB(8.5, -1, 12.5, 1))
	if len(found) != 2 || !found[3] || !found[4] {
		t.Errorf("Expected leaves 3 and 4, got %v", found)
	}

	hits := 0
	tree.PointQuery(Vector{30, 0.5}, func(id uint32) bool {
		if id != 10 {
			t.Errorf("Unexpected leaf %d", id)
		}
		hits++
		return true
	})
	if hits != 1 {
		t.Errorf("Expected 1 point hit, got %d", hits)
	}

	tree.Remove(3)
	found = collectIDs(tree, NewBB(8.5, -1, 12.5, 1))
	if len(found) != 1 || !found[4] {
		t.Errorf("Expected leaf 4 only, got %v", found)
	}
}

func TestBBTree_UpdateMargin(t *testing.T) {
	tree := newBBTree(0.5)
	tree.Insert(1, NewBBForExtents(Vector{}, 1, 1))

	if tree.Update(1, NewBBForExtents(Vector{0.2, 0}, 1, 1)) {
		t.Error("A move inside the margin should not reinsert")
	}
	if !tree.Update(1, NewBBForExtents(Vector{5, 0}, 1, 1)) {
		t.Error("A move out of the margin should reinsert")
	}
	if found := collectIDs(tree, NewBBForExtents(Vector{}, 0.1, 0.1)); len(found) != 0 {
		t.Errorf("Expected nothing at the old place, got %v", found)
	}
	if found := collectIDs(tree, NewBBForExtents(Vector{5, 0}, 0.1, 0.1)); !found[1] {
		t.Error("Expected the leaf at the new place")
	}
}
