package tree

// Propagate pushes each branch side down to every descendant of that branch.
//
// branch maps root children to their side. Root children missing from the
// map are skipped, which lets callers repaint a single dragged branch. A key
// that is not a root child yields *NotBranchError. The returned map holds an
// entry for every node that was painted; the root never gets one.
func Propagate(ix *Index, branch map[Key]Direction) (map[Key]Direction, error) {
	for k := range branch {
		if !ix.IsBranch(k) {
			return nil, &NotBranchError{Key: k}
		}
	}

	dirs := make(map[Key]Direction, ix.Len())
	visited := make(map[Key]struct{}, ix.Len())
	for _, b := range ix.Children(RootKey) {
		side, ok := branch[b]
		if !ok {
			continue
		}
		stack := []Key{b}
		for len(stack) > 0 {
			k := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if _, seen := visited[k]; seen {
				return nil, &CycleDetectedError{Key: k}
			}
			visited[k] = struct{}{}
			dirs[k] = side
			stack = append(stack, ix.Children(k)...)
		}
	}
	return dirs, nil
}

// SetDirections writes dirs into the Dir field of the indexed nodes. Nodes
// without an entry keep their current value, except the root, which is
// always reset to None.
func SetDirections(ix *Index, dirs map[Key]Direction) {
	for _, n := range ix.Nodes() {
		if n.Key == RootKey {
			n.Dir = None
			continue
		}
		if d, ok := dirs[n.Key]; ok {
			n.Dir = d
		}
	}
}
