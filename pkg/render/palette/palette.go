// Package palette colors and scales generated mind maps.
//
// The root is black. Each root child gets its own hue, spaced evenly around
// the color wheel in collection order, and every node below it inherits its
// parent's color faded toward white in proportion to its depth. Text scale
// shrinks linearly with depth so that the root reads largest.
package palette

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/mindmap/pkg/tree"
)

// RootColor is the brush of the root node.
const RootColor = "#000000"

// DefaultFade is how far the deepest node is blended toward white.
const DefaultFade = 0.8

var white = colorful.Color{R: 1, G: 1, B: 1}

// Options configures Paint.
type Options struct {
	// Fade is the maximum blend toward white, in [0, 1].
	Fade float64
	// Scale multiplies every text scale. Zero means 1.
	Scale float64
	// MaxDepth caps the depth used for scaling. Zero means the tree height.
	MaxDepth int
}

// BranchColor returns the hue of root child i out of n.
func BranchColor(i, n int) colorful.Color {
	if n <= 0 {
		return colorful.Hsv(0, 1, 1)
	}
	return colorful.Hsv(360*float64(i)/float64(n), 1, 1)
}

// Fade blends c toward white by t and clamps the result.
func Fade(c colorful.Color, t float64) colorful.Color {
	return c.BlendRgb(white, t).Clamped()
}

// Paint writes Brush and Scale on every node of ix.
//
// Existing brushes and scales are overwritten. Nodes are visited in
// breadth-first order so that each parent is painted before its children.
// The only error is a Fade outside [0, 1].
func Paint(ix *tree.Index, opts Options) error {
	if opts.Fade < 0 || opts.Fade > 1 {
		return fmt.Errorf("palette: fade %v out of range [0, 1]", opts.Fade)
	}
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	height := ix.Height()
	maxDepth := max(1, height)
	if opts.MaxDepth > 0 {
		maxDepth = max(1, min(height, opts.MaxDepth))
	}

	branches := ix.Children(tree.RootKey)
	slot := make(map[tree.Key]int, len(branches))
	for i, b := range branches {
		slot[b] = i
	}

	colors := make(map[tree.Key]colorful.Color, ix.Len())
	for _, k := range ix.Order() {
		n, _ := ix.Node(k)
		depth := ix.Depth(k)
		n.Scale = opts.Scale * float64(max(1, maxDepth-depth+1))

		switch {
		case n.IsRoot():
			c, _ := colorful.Hex(RootColor)
			colors[k] = c
		case ix.IsBranch(k):
			colors[k] = BranchColor(slot[k], len(branches))
		default:
			p, _ := n.ParentKey()
			colors[k] = Fade(colors[p], opts.Fade*float64(depth)/float64(height+1))
		}
		n.Brush = colors[k].Hex()
	}
	return nil
}
