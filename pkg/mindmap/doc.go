// Package mindmap wraps the tree algorithms into an editor with atomic edits.
//
// An [Editor] owns one node collection. Every mutating call runs as a
// transaction on a private clone: the clone is re-indexed, weighed, balanced
// and laid out, and only then swapped in. If any step fails the editor keeps
// its previous state and the layout primitive sees nothing from the failed
// call.
//
// # Layout
//
// The editor never computes coordinates. It partitions the visible nodes by
// side and hands each [Part] to a [Primitive]: the right side at 0°, the left
// side at 180°, both anchored at the root so the halves meet at one point.
//
//	ed, err := mindmap.New(ctx, nodes, mindmap.Options{
//	    Primitive: treelayout.New(treelayout.DefaultOptions()),
//	    Logger:    logger,
//	})
//	err = ed.SetVisibility(ctx, key, true, 2)
//	nodes := ed.Snapshot()
//
// # Manual moves
//
// [Editor.MoveBranch] flips one branch to the other side without rebalancing.
// The move holds until the next full rebalance, which structural edits
// ([Editor.AddChild], [Editor.Delete], [Editor.Replace]) and
// [Editor.RebalanceAndLayout] always perform.
package mindmap
