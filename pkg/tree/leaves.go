package tree

// ComputeLeafWeights returns the number of leaf descendants of every node.
// A childless node weighs 1, including a sole child of the root.
//
// Weights are summed in a single pass over the reverse breadth-first order,
// so every child is final before its parent reads it.
func ComputeLeafWeights(ix *Index) map[Key]int {
	order := ix.Order()
	weights := make(map[Key]int, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		k := order[i]
		kids := ix.Children(k)
		if len(kids) == 0 {
			weights[k] = 1
			continue
		}
		sum := 0
		for _, c := range kids {
			sum += weights[c]
		}
		weights[k] = sum
	}
	return weights
}

// TotalLeaves returns the number of leaves in the tree.
func TotalLeaves(ix *Index) int {
	n := 0
	for _, k := range ix.Order() {
		if ix.IsLeaf(k) {
			n++
		}
	}
	return n
}

// SetLeaves writes weights into the Leaves field of every indexed node.
func SetLeaves(ix *Index, weights map[Key]int) {
	for _, n := range ix.Nodes() {
		n.Leaves = weights[n.Key]
	}
}
