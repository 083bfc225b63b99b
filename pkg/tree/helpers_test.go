package tree

import "testing"

// edge is a (child, parent) pair; parent -1 marks the root.
type edge [2]int

func nodes(edges ...edge) []*Node {
	out := make([]*Node, len(edges))
	for i, e := range edges {
		n := &Node{Key: Key(e[0]), Expanded: true}
		if e[1] >= 0 {
			n.Parent = Ref(Key(e[1]))
		}
		out[i] = n
	}
	return out
}

func mustIndex(t *testing.T, edges ...edge) *Index {
	t.Helper()
	ix, err := NewIndex(nodes(edges...))
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	return ix
}

func node(t *testing.T, ix *Index, k Key) *Node {
	t.Helper()
	n, ok := ix.Node(k)
	if !ok {
		t.Fatalf("node %d missing", k)
	}
	return n
}

// sample is a root with three branches:
//
//	0 ─┬─ 1 ─┬─ 4 ── 7
//	   │     ├─ 5
//	   │     └─ 6
//	   ├─ 2
//	   └─ 3 ── 8
func sample(t *testing.T) *Index {
	return mustIndex(t,
		edge{0, -1},
		edge{1, 0}, edge{2, 0}, edge{3, 0},
		edge{4, 1}, edge{5, 1}, edge{6, 1},
		edge{7, 4}, edge{8, 3},
	)
}
