package tree

import "slices"

// Index is a validated, key-indexed view over a node collection.
//
// The index holds pointers into the collection it was built from, so
// algorithms that write derived fields (Leaves, Dir, Expanded) mutate those
// nodes directly. Membership changes require a new Index.
type Index struct {
	nodes    []*Node
	byKey    map[Key]*Node
	children map[Key][]Key
	depth    map[Key]int
	order    []Key // breadth-first from the root
	root     *Node
	height   int
}

// NewIndex validates nodes and builds the adjacency index.
//
// The collection must contain exactly one parentless node with key RootKey,
// unique keys, resolvable parents and no cycles. Violations are reported as
// *DuplicateKeyError, *MultipleRootsError, *NoRootError, *DanglingParentError
// or *CycleDetectedError, all matching ErrIntegrity.
func NewIndex(nodes []*Node) (*Index, error) {
	ix := &Index{
		nodes:    nodes,
		byKey:    make(map[Key]*Node, len(nodes)),
		children: make(map[Key][]Key, len(nodes)),
		depth:    make(map[Key]int, len(nodes)),
	}

	var roots []Key
	for _, n := range nodes {
		if _, dup := ix.byKey[n.Key]; dup {
			return nil, &DuplicateKeyError{Key: n.Key}
		}
		ix.byKey[n.Key] = n
		if n.IsRoot() {
			roots = append(roots, n.Key)
		}
	}

	switch {
	case len(roots) == 0:
		return nil, &NoRootError{}
	case len(roots) > 1:
		return nil, &MultipleRootsError{Keys: sortedKeys(roots)}
	case roots[0] != RootKey:
		return nil, &NoRootError{Orphan: Ref(roots[0])}
	}
	ix.root = ix.byKey[RootKey]

	for _, n := range nodes {
		p, ok := n.ParentKey()
		if !ok {
			continue
		}
		if _, exists := ix.byKey[p]; !exists {
			return nil, &DanglingParentError{Key: n.Key, Parent: p}
		}
		ix.children[p] = append(ix.children[p], n.Key)
	}

	if err := ix.walk(); err != nil {
		return nil, err
	}
	return ix, nil
}

// walk computes breadth-first order and depths. A node left unvisited can
// only sit on a parent loop detached from the root.
func (ix *Index) walk() error {
	ix.order = make([]Key, 0, len(ix.nodes))
	ix.order = append(ix.order, RootKey)
	ix.depth[RootKey] = 0
	for i := 0; i < len(ix.order); i++ {
		k := ix.order[i]
		d := ix.depth[k]
		for _, c := range ix.children[k] {
			if _, seen := ix.depth[c]; seen {
				return &CycleDetectedError{Key: c}
			}
			ix.depth[c] = d + 1
			ix.height = max(ix.height, d+1)
			ix.order = append(ix.order, c)
		}
	}
	if len(ix.order) == len(ix.nodes) {
		return nil
	}
	for _, n := range ix.nodes {
		if _, seen := ix.depth[n.Key]; !seen {
			return &CycleDetectedError{Key: n.Key}
		}
	}
	return nil
}

// Root returns the root node.
func (ix *Index) Root() *Node { return ix.root }

// Len returns the number of nodes.
func (ix *Index) Len() int { return len(ix.nodes) }

// Nodes returns the collection in its original order. The slice must not be
// modified; the nodes may be.
func (ix *Index) Nodes() []*Node { return ix.nodes }

// Node returns the node with key k.
func (ix *Index) Node(k Key) (*Node, bool) {
	n, ok := ix.byKey[k]
	return n, ok
}

// Has reports whether k is part of the collection.
func (ix *Index) Has(k Key) bool {
	_, ok := ix.byKey[k]
	return ok
}

// Children returns the direct children of k in collection order.
// The returned slice must not be modified.
func (ix *Index) Children(k Key) []Key { return ix.children[k] }

// IsLeaf reports whether k has no children.
func (ix *Index) IsLeaf(k Key) bool { return len(ix.children[k]) == 0 }

// Parent returns the parent key of k. It returns false for the root and for
// unknown keys.
func (ix *Index) Parent(k Key) (Key, bool) {
	n, ok := ix.byKey[k]
	if !ok {
		return 0, false
	}
	return n.ParentKey()
}

// Depth returns the distance from the root (root = 0), or -1 for unknown keys.
func (ix *Index) Depth(k Key) int {
	d, ok := ix.depth[k]
	if !ok {
		return -1
	}
	return d
}

// Height returns the depth of the deepest node.
func (ix *Index) Height() int { return ix.height }

// Order returns every key in breadth-first order starting at the root.
// The returned slice must not be modified.
func (ix *Index) Order() []Key { return ix.order }

// Branch returns the root child whose subtree contains k.
// It returns false for the root and unknown keys.
func (ix *Index) Branch(k Key) (Key, bool) {
	if !ix.Has(k) || k == RootKey {
		return 0, false
	}
	for {
		p, _ := ix.Parent(k)
		if p == RootKey {
			return k, true
		}
		k = p
	}
}

// IsBranch reports whether k is a direct child of the root.
func (ix *Index) IsBranch(k Key) bool {
	return slices.Contains(ix.children[RootKey], k)
}

// Subtree returns k and all of its descendants in depth-first pre-order.
func (ix *Index) Subtree(k Key) ([]Key, error) {
	if !ix.Has(k) {
		return nil, &UnknownNodeError{Key: k}
	}
	var out []Key
	visited := make(map[Key]struct{})
	stack := []Key{k}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[cur]; seen {
			return nil, &CycleDetectedError{Key: cur}
		}
		visited[cur] = struct{}{}
		out = append(out, cur)
		kids := ix.children[cur]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return out, nil
}

// Without returns a copy of the collection with the subtree rooted at k
// removed, preserving order. The root cannot be removed.
func (ix *Index) Without(k Key) ([]*Node, error) {
	if k == RootKey {
		return nil, &NotBranchError{Key: k}
	}
	doomed, err := ix.Subtree(k)
	if err != nil {
		return nil, err
	}
	drop := make(map[Key]struct{}, len(doomed))
	for _, d := range doomed {
		drop[d] = struct{}{}
	}
	out := make([]*Node, 0, len(ix.nodes)-len(doomed))
	for _, n := range ix.nodes {
		if _, gone := drop[n.Key]; !gone {
			out = append(out, n)
		}
	}
	return out, nil
}

// NextKey returns a key one larger than the largest key in use.
func (ix *Index) NextKey() Key {
	next := RootKey
	for k := range ix.byKey {
		if k >= next {
			next = k + 1
		}
	}
	return next
}
