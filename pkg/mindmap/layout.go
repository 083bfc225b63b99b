package mindmap

import (
	"context"
	"time"

	"github.com/matzehuels/mindmap/pkg/observability"
	"github.com/matzehuels/mindmap/pkg/tree"
)

// Link connects a parent to a child inside a Part.
type Link struct {
	From tree.Key
	To   tree.Key
}

// Part is the slice of the map handed to one layout call.
//
// Anchor must stay where it is: for a full layout it is the root shared by
// both sides, for a subtree layout the subtree's top node. Nodes lists the
// visible members in breadth-first order, Anchor first; every other node
// appears as the To end of exactly one link.
type Part struct {
	Side   tree.Direction
	Angle  float64
	Anchor *tree.Node
	Nodes  []*tree.Node
	Links  []Link
}

// Primitive positions the nodes of one part along a fixed angle.
// Implementations write their result into the nodes, typically Loc.
type Primitive interface {
	Layout(ctx context.Context, p Part) error
}

// PrimitiveFunc adapts a function to the Primitive interface.
type PrimitiveFunc func(ctx context.Context, p Part) error

// Layout calls f(ctx, p).
func (f PrimitiveFunc) Layout(ctx context.Context, p Part) error { return f(ctx, p) }

// nopPrimitive accepts every part without moving anything.
type nopPrimitive struct{}

func (nopPrimitive) Layout(context.Context, Part) error { return nil }

// sidePart collects the visible nodes of one side, anchored at the root.
func sidePart(ix *tree.Index, side tree.Direction) Part {
	root := ix.Root()
	return subtreePart(ix, root.Key, side, func(k tree.Key) bool {
		n, _ := ix.Node(k)
		return n.Dir == side
	})
}

// nodePart collects the visible subtree below key, anchored at key itself.
func nodePart(ix *tree.Index, key tree.Key) Part {
	n, _ := ix.Node(key)
	return subtreePart(ix, key, n.Dir, func(tree.Key) bool { return true })
}

// subtreePart walks breadth-first from anchor, keeping visible nodes. include
// filters the anchor's direct children; deeper nodes follow their parent.
func subtreePart(ix *tree.Index, anchor tree.Key, side tree.Direction, include func(tree.Key) bool) Part {
	top, _ := ix.Node(anchor)
	p := Part{Side: side, Angle: side.Angle(), Anchor: top, Nodes: []*tree.Node{top}}

	queue := []tree.Key{anchor}
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		n, _ := ix.Node(k)
		if !n.Expanded {
			continue
		}
		for _, c := range ix.Children(k) {
			if k == anchor && !include(c) {
				continue
			}
			cn, _ := ix.Node(c)
			p.Nodes = append(p.Nodes, cn)
			p.Links = append(p.Links, Link{From: k, To: c})
			queue = append(queue, c)
		}
	}
	return p
}

// invoke runs the primitive for one part and reports it to the hooks.
func invoke(ctx context.Context, prim Primitive, p Part) error {
	start := time.Now()
	err := prim.Layout(ctx, p)
	observability.Engine().OnLayout(ctx, string(p.Side), len(p.Nodes), time.Since(start), err)
	return err
}
