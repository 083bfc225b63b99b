package tree

import (
	"fmt"
	"maps"
)

// Key identifies a node. Keys are unique within a collection.
type Key int

// RootKey is the key of the fixed root node.
const RootKey Key = 0

// Ref returns a pointer to k, for use as a [Node.Parent] value.
func Ref(k Key) *Key { return &k }

// Direction is the side of the root a branch renders on.
type Direction string

const (
	// None is the direction of the root, which has no single side.
	None Direction = ""
	// Left places a branch to the left of the root (180°).
	Left Direction = "left"
	// Right places a branch to the right of the root (0°).
	Right Direction = "right"
)

// ParseDirection converts a wire value into a Direction.
// The empty string parses as None.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case None, Left, Right:
		return Direction(s), nil
	}
	return None, fmt.Errorf("invalid direction %q (must be left or right)", s)
}

// Angle returns the layout angle in degrees: 180 for Left, 0 otherwise.
func (d Direction) Angle() float64 {
	if d == Left {
		return 180
	}
	return 0
}

// Opposite returns the other side. None stays None.
func (d Direction) Opposite() Direction {
	switch d {
	case Left:
		return Right
	case Right:
		return Left
	}
	return None
}

// Metadata carries host fields the algorithms never read.
type Metadata map[string]any

// Node is one entry of the mind map collection.
//
// Leaves and Dir are derived fields written by this package only. Loc, Brush,
// Scale and Meta belong to the renderer and are carried through unchanged.
type Node struct {
	Key       Key
	Parent    *Key   // nil for the root
	Text      string // display label
	PageTitle string // source back-reference, see SourceTitle

	Dir      Direction
	Leaves   int
	Expanded bool

	Loc   string  // opaque renderer location ("x y")
	Brush string  // branch color
	Scale float64 // text scale
	Meta  Metadata
}

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool { return n.Parent == nil }

// ParentKey returns the parent key and true, or false for the root.
func (n *Node) ParentKey() (Key, bool) {
	if n.Parent == nil {
		return 0, false
	}
	return *n.Parent, true
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	c := *n
	if n.Parent != nil {
		c.Parent = Ref(*n.Parent)
	}
	if n.Meta != nil {
		c.Meta = maps.Clone(n.Meta)
	}
	return &c
}

// CloneNodes deep-copies a collection, preserving order.
func CloneNodes(nodes []*Node) []*Node {
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}
