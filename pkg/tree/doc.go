// Package tree implements the balancing and expansion core of a two-sided
// radial mind map.
//
// # Overview
//
// A mind map is a rooted tree drawn with its branches fanning out to the left
// and to the right of a single root node. This package owns the structural
// part of that picture: which side every branch lives on, how heavy each
// branch is, and which nodes are currently visible. It computes no pixel
// coordinates and renders nothing; positioning is delegated to a layout
// primitive supplied by the host (see package mindmap).
//
// # Building an Index
//
// The node collection is a flat, ordered slice of [Node] values linked by
// parent keys. [NewIndex] validates the collection and builds a key-indexed
// adjacency structure once per membership change:
//
//	ix, err := tree.NewIndex(nodes)
//	if err != nil {
//	    // *DanglingParentError, *NoRootError, *MultipleRootsError,
//	    // *DuplicateKeyError or *CycleDetectedError
//	}
//	ix.Children(tree.RootKey) // direct children, collection order
//
// Children keep the order of the original collection. That order is the
// tie-breaker for balancing, so repeated runs on the same input produce the
// same sides.
//
// # Balancing
//
// Balancing runs in three steps:
//
//	weights := tree.ComputeLeafWeights(ix)       // leaf count per subtree
//	sides := tree.AssignBranches(ix, weights)    // root children only
//	dirs, err := tree.Propagate(ix, sides)       // every non-root node
//
// [AssignBranches] is the greedy two-bin heuristic: root children sorted by
// leaf weight (descending, stable) are dealt to whichever side currently
// carries less weight, ties going left. The result satisfies
// |left - right| <= max(weight of a root child). Collapsed branches count
// with their full weight so that expanding a node never reshuffles sides.
//
// # Expansion
//
// [SetVisibility] expands a node to exactly N generations and collapses the
// frontier below it. A node is rendered only if every strict ancestor is
// expanded; see [Visible] and [VisibleSet].
//
// # Traversal
//
// All traversals use explicit stacks and a visited set instead of recursion.
// Corrupted input that would loop forever surfaces as [CycleDetectedError].
//
// # Concurrency
//
// Index values are not safe for concurrent use. Package mindmap serializes
// access and applies every mutation to a private clone.
package tree
