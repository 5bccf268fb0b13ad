package physics

import "sync"

// bbNode is either a branch (a, b set) or a leaf (id != 0).
type bbNode struct {
	id     uint32
	bb     BB
	parent *bbNode

	a, b *bbNode
}

func (node *bbNode) IsLeaf() bool {
	return node.id != 0
}

// bbTree is an incrementally built AABB tree. Leaves store a fattened box
// so small movements do not need a reinsert.
type bbTree struct {
	leaves map[uint32]*bbNode
	root   *bbNode
	margin float64

	pooledNodes *bbNode
}

// walkStacks lets read-only queries run on several goroutines at once.
var walkStacks = sync.Pool{
	New: func() interface{} {
		s := make([]*bbNode, 0, 64)
		return &s
	},
}

func newBBTree(margin float64) *bbTree {
	return &bbTree{
		leaves: map[uint32]*bbNode{},
		margin: margin,
	}
}

func (tree *bbTree) Count() int {
	return len(tree.leaves)
}

func (tree *bbTree) Insert(id uint32, bb BB) {
	assert(id != 0, "bbTree: zero id")
	leaf := tree.NewLeaf(id, bb.Grow(tree.margin))
	tree.leaves[id] = leaf
	tree.root = tree.SubtreeInsert(tree.root, leaf)
}

func (tree *bbTree) Remove(id uint32) {
	leaf, ok := tree.leaves[id]
	if !ok {
		return
	}
	delete(tree.leaves, id)
	tree.root = tree.SubtreeRemove(tree.root, leaf)
	tree.NodeRecycle(leaf)
}

// Update moves a leaf. It returns false when the new box still fits in the
// leaf's fattened box and nothing had to change.
func (tree *bbTree) Update(id uint32, bb BB) bool {
	leaf, ok := tree.leaves[id]
	if !ok {
		return false
	}
	if leaf.bb.Contains(bb) {
		return false
	}
	tree.root = tree.SubtreeRemove(tree.root, leaf)
	leaf.bb = bb.Grow(tree.margin)
	leaf.parent = nil
	tree.root = tree.SubtreeInsert(tree.root, leaf)
	return true
}

func (tree *bbTree) SubtreeInsert(subtree *bbNode, leaf *bbNode) *bbNode {
	if subtree == nil {
		return leaf
	}
	if subtree.IsLeaf() {
		return tree.NewNode(leaf, subtree)
	}

	cost_a := subtree.b.bb.Area() + subtree.a.bb.MergedArea(leaf.bb)
	cost_b := subtree.a.bb.Area() + subtree.b.bb.MergedArea(leaf.bb)

	if cost_a == cost_b {
		cost_a = subtree.a.bb.Proximity(leaf.bb)
		cost_b = subtree.b.bb.Proximity(leaf.bb)
	}

	if cost_b < cost_a {
		NodeSetB(subtree, tree.SubtreeInsert(subtree.b, leaf))
	} else {
		NodeSetA(subtree, tree.SubtreeInsert(subtree.a, leaf))
	}

	subtree.bb = subtree.bb.Merge(leaf.bb)
	return subtree
}

// SubtreeRemove unlinks leaf and returns the new subtree root. The sibling
// of the leaf takes its parent's place.
func (tree *bbTree) SubtreeRemove(subtree *bbNode, leaf *bbNode) *bbNode {
	if leaf == subtree {
		return nil
	}

	parent := leaf.parent
	if parent == subtree {
		other := parent.Other(leaf)
		other.parent = subtree.parent
		tree.NodeRecycle(subtree)
		return other
	}

	grandparent := parent.parent
	grandparent.ReplaceChild(parent, parent.Other(leaf))
	tree.NodeRecycle(parent)
	for node := grandparent; node != nil; node = node.parent {
		node.bb = node.a.bb.Merge(node.b.bb)
	}
	return subtree
}

func (node *bbNode) Other(child *bbNode) *bbNode {
	if node.a == child {
		return node.b
	}
	return node.a
}

func (parent *bbNode) ReplaceChild(child, value *bbNode) {
	assert(!parent.IsLeaf(), "cannot replace child of a leaf")
	if parent.a == child {
		NodeSetA(parent, value)
	} else {
		NodeSetB(parent, value)
	}
}

// Query calls fn for every leaf whose fattened box intersects bb until fn
// returns false.
func (tree *bbTree) Query(bb BB, fn func(id uint32) bool) {
	tree.walk(func(node BB) bool { return node.Intersects(bb) }, fn)
}

func (tree *bbTree) SegmentQuery(a, b Vector, fn func(id uint32) bool) {
	tree.walk(func(node BB) bool { return node.IntersectsSegment(a, b) }, fn)
}

func (tree *bbTree) PointQuery(p Vector, fn func(id uint32) bool) {
	tree.walk(func(node BB) bool { return node.ContainsVect(p) }, fn)
}

// walk is a non-recursive traversal on a pooled stack.
func (tree *bbTree) walk(test func(BB) bool, fn func(id uint32) bool) {
	if tree.root == nil {
		return
	}
	pooled := walkStacks.Get().(*[]*bbNode)
	stack := append((*pooled)[:0], tree.root)
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !test(node.bb) {
			continue
		}
		if node.IsLeaf() {
			if !fn(node.id) {
				break
			}
			continue
		}
		stack = append(stack, node.b, node.a)
	}
	*pooled = stack[:0]
	walkStacks.Put(pooled)
}

func (tree *bbTree) NewNode(a, b *bbNode) *bbNode {
	node := tree.NodeFromPool()
	node.id = 0
	node.bb = a.bb.Merge(b.bb)
	node.parent = nil

	NodeSetA(node, a)
	NodeSetB(node, b)
	return node
}

func NodeSetA(node, value *bbNode) {
	node.a = value
	value.parent = node
}

func NodeSetB(node, value *bbNode) {
	node.b = value
	value.parent = node
}

func (tree *bbTree) NewLeaf(id uint32, bb BB) *bbNode {
	node := tree.NodeFromPool()
	node.id = id
	node.bb = bb
	node.parent = nil
	node.a, node.b = nil, nil
	return node
}

func (tree *bbTree) NodeFromPool() *bbNode {
	node := tree.pooledNodes

	if node != nil {
		tree.pooledNodes = node.parent
		return node
	}

	// Pool is exhausted make more
	for i := 0; i < 32; i++ {
		tree.NodeRecycle(&bbNode{})
	}

	node = tree.pooledNodes
	tree.pooledNodes = node.parent
	return node
}

func (tree *bbTree) NodeRecycle(node *bbNode) {
	node.id = 0
	node.a, node.b = nil, nil
	node.parent = tree.pooledNodes
	tree.pooledNodes = node
}
