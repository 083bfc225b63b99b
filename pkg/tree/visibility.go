package tree

// SetVisibility expands or collapses the subtree rooted at key.
//
// With expand false the node is collapsed, hiding every descendant. With
// expand true and depth > 0 the node is expanded and each child is visited
// with depth-1; a node reached with no depth left is collapsed. The call
// rewrites the visible frontier from scratch, so SetVisibility(k, true, 1)
// shows exactly the children of k regardless of earlier state. Flags below
// the frontier are left as they are; they have no effect while hidden.
//
// Expanding with depth 0 shows no generation at all and is treated as a
// collapse. A negative depth yields *InvalidDepthError and changes nothing.
func SetVisibility(ix *Index, key Key, expand bool, depth int) error {
	if depth < 0 {
		return &InvalidDepthError{Depth: depth}
	}
	n, ok := ix.Node(key)
	if !ok {
		return &UnknownNodeError{Key: key}
	}
	if !expand || depth == 0 {
		n.Expanded = false
		return nil
	}

	type frame struct {
		key       Key
		remaining int
	}
	visited := make(map[Key]struct{})
	stack := []frame{{key, depth}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[f.key]; seen {
			return &CycleDetectedError{Key: f.key}
		}
		visited[f.key] = struct{}{}

		n, _ := ix.Node(f.key)
		if f.remaining == 0 {
			n.Expanded = false
			continue
		}
		n.Expanded = true
		for _, c := range ix.Children(f.key) {
			stack = append(stack, frame{c, f.remaining - 1})
		}
	}
	return nil
}

// ExpandAll expands every generation below the root.
func ExpandAll(ix *Index) error {
	return SetVisibility(ix, RootKey, true, ix.Height()+1)
}

// CollapseAll clears the expanded flag of every node, root included.
func CollapseAll(ix *Index) {
	for _, n := range ix.Nodes() {
		n.Expanded = false
	}
}

// Visible reports whether every strict ancestor of key is expanded. The root
// is always visible; unknown keys are not.
func Visible(ix *Index, key Key) bool {
	if !ix.Has(key) {
		return false
	}
	for k := key; ; {
		p, ok := ix.Parent(k)
		if !ok {
			return true
		}
		if pn, _ := ix.Node(p); !pn.Expanded {
			return false
		}
		k = p
	}
}

// VisibleSet returns the keys of all effectively visible nodes, computed in
// one breadth-first pass.
func VisibleSet(ix *Index) map[Key]bool {
	vis := make(map[Key]bool, ix.Len())
	for _, k := range ix.Order() {
		p, ok := ix.Parent(k)
		if !ok {
			vis[k] = true
			continue
		}
		pn, _ := ix.Node(p)
		vis[k] = vis[p] && pn.Expanded
	}
	return vis
}
