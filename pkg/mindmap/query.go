package mindmap

import "github.com/matzehuels/mindmap/pkg/tree"

// Snapshot returns a deep copy of the committed collection in order.
func (e *Editor) Snapshot() []*tree.Node {
	var out []*tree.Node
	e.view(func(ix *tree.Index) { out = tree.CloneNodes(ix.Nodes()) })
	return out
}

// Node returns a copy of the node with key k.
func (e *Editor) Node(k tree.Key) (*tree.Node, bool) {
	var (
		n  *tree.Node
		ok bool
	)
	e.view(func(ix *tree.Index) {
		if src, found := ix.Node(k); found {
			n, ok = src.Clone(), true
		}
	})
	return n, ok
}

// Len returns the number of nodes.
func (e *Editor) Len() int {
	var n int
	e.view(func(ix *tree.Index) { n = ix.Len() })
	return n
}

// Height returns the depth of the deepest node.
func (e *Editor) Height() int {
	var h int
	e.view(func(ix *tree.Index) { h = ix.Height() })
	return h
}

// Children returns the child keys of k in collection order.
func (e *Editor) Children(k tree.Key) []tree.Key {
	var out []tree.Key
	e.view(func(ix *tree.Index) { out = append(out, ix.Children(k)...) })
	return out
}

// Visible reports whether k is rendered, i.e. all its ancestors are expanded.
func (e *Editor) Visible(k tree.Key) bool {
	var v bool
	e.view(func(ix *tree.Index) { v = tree.Visible(ix, k) })
	return v
}

// VisibleSet returns the keys of every rendered node.
func (e *Editor) VisibleSet() map[tree.Key]bool {
	var v map[tree.Key]bool
	e.view(func(ix *tree.Index) { v = tree.VisibleSet(ix) })
	return v
}

// Sums returns the leaf weight carried by each side.
func (e *Editor) Sums() (left, right int) {
	e.view(func(ix *tree.Index) {
		for _, c := range ix.Children(tree.RootKey) {
			n, _ := ix.Node(c)
			switch n.Dir {
			case tree.Left:
				left += n.Leaves
			case tree.Right:
				right += n.Leaves
			}
		}
	})
	return left, right
}

// ResolveSourceTitle returns the page title of the nearest node, starting at
// key and walking up, that carries one. See [tree.SourceTitle].
func (e *Editor) ResolveSourceTitle(key tree.Key) (string, bool) {
	var (
		title string
		ok    bool
	)
	e.view(func(ix *tree.Index) { title, ok = tree.SourceTitle(ix, key) })
	return title, ok
}
