// Package treelayout positions one side of a mind map as a layered tree.
//
// [Layout] implements the editor's layout primitive. Each call receives the
// visible nodes of one side (or one subtree) and grows them away from the
// anchor along the part's angle: to the right at 0°, to the left at 180°.
// The anchor is never moved, so the left and right halves meet at the root.
//
// Children are stacked perpendicular to the growth direction, centered on
// their parent, NodeSpacing apart. Layers are LayerSpacing apart, measured
// between the widest nodes of adjacent layers. Locations are node centers
// written to [tree.Node.Loc] as "x y".
package treelayout

import (
	"context"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/matzehuels/mindmap/pkg/mindmap"
	"github.com/matzehuels/mindmap/pkg/tree"
)

// Defaults matching the browser editor.
const (
	DefaultNodeSpacing  = 5
	DefaultLayerSpacing = 20
	DefaultCharWidth    = 7
	DefaultLineHeight   = 16
	DefaultPadding      = 4
)

// Options configures spacing and the text size estimate.
type Options struct {
	NodeSpacing  float64
	LayerSpacing float64
	CharWidth    float64 // per rune at scale 1
	LineHeight   float64 // at scale 1
	Padding      float64 // around the text; negative selects DefaultPadding
}

// DefaultOptions returns the editor's spacing.
func DefaultOptions() Options {
	return Options{
		NodeSpacing:  DefaultNodeSpacing,
		LayerSpacing: DefaultLayerSpacing,
		CharWidth:    DefaultCharWidth,
		LineHeight:   DefaultLineHeight,
		Padding:      DefaultPadding,
	}
}

func (o *Options) setDefaults() {
	d := DefaultOptions()
	if o.NodeSpacing <= 0 {
		o.NodeSpacing = d.NodeSpacing
	}
	if o.LayerSpacing <= 0 {
		o.LayerSpacing = d.LayerSpacing
	}
	if o.CharWidth <= 0 {
		o.CharWidth = d.CharWidth
	}
	if o.LineHeight <= 0 {
		o.LineHeight = d.LineHeight
	}
	if o.Padding < 0 {
		o.Padding = d.Padding
	}
}

// Layout is a mindmap.Primitive.
type Layout struct {
	opts Options
}

var _ mindmap.Primitive = (*Layout)(nil)

// New returns a layout with opts, filling unset fields from DefaultOptions.
func New(opts Options) *Layout {
	opts.setDefaults()
	return &Layout{opts: opts}
}

// Size estimates the rendered width and height of n.
func (l *Layout) Size(n *tree.Node) (w, h float64) {
	scale := n.Scale
	if scale <= 0 {
		scale = 1
	}
	runes := max(utf8.RuneCountInString(n.Text), 1)
	w = float64(runes)*l.opts.CharWidth*scale + 2*l.opts.Padding
	h = l.opts.LineHeight*scale + 2*l.opts.Padding
	return w, h
}

// Layout positions every node of p except the anchor.
func (l *Layout) Layout(ctx context.Context, p mindmap.Part) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.Anchor == nil {
		return fmt.Errorf("layout: part has no anchor")
	}
	if p.Anchor.Loc == "" {
		p.Anchor.Loc = mindmap.FormatLoc(0, 0)
	}
	ax, ay, err := mindmap.ParseLoc(p.Anchor.Loc)
	if err != nil {
		return fmt.Errorf("layout: anchor %d: %w", p.Anchor.Key, err)
	}

	byKey := make(map[tree.Key]*tree.Node, len(p.Nodes))
	for _, n := range p.Nodes {
		byKey[n.Key] = n
	}
	children := make(map[tree.Key][]tree.Key, len(p.Nodes))
	depth := map[tree.Key]int{p.Anchor.Key: 0}
	for _, lk := range p.Links {
		if _, ok := byKey[lk.To]; !ok {
			return fmt.Errorf("layout: link to unknown node %d", lk.To)
		}
		children[lk.From] = append(children[lk.From], lk.To)
	}

	// Breadth-first order gives depths and, reversed, a post-order for sizes.
	order := []tree.Key{p.Anchor.Key}
	for i := 0; i < len(order); i++ {
		k := order[i]
		for _, c := range children[k] {
			if _, seen := depth[c]; seen {
				return &tree.CycleDetectedError{Key: c}
			}
			depth[c] = depth[k] + 1
			order = append(order, c)
		}
	}

	width := make(map[tree.Key]float64, len(order))
	height := make(map[tree.Key]float64, len(order))
	var layerWidth []float64
	for _, k := range order {
		n := byKey[k]
		if n == nil {
			n = p.Anchor
		}
		w, h := l.Size(n)
		width[k], height[k] = w, h
		d := depth[k]
		for len(layerWidth) <= d {
			layerWidth = append(layerWidth, 0)
		}
		layerWidth[d] = math.Max(layerWidth[d], w)
	}

	sign := 1.0
	if math.Cos(p.Angle*math.Pi/180) < 0 {
		sign = -1
	}
	layerX := make([]float64, len(layerWidth))
	layerX[0] = ax
	for d := 1; d < len(layerWidth); d++ {
		step := layerWidth[d-1]/2 + l.opts.LayerSpacing + layerWidth[d]/2
		layerX[d] = layerX[d-1] + sign*step
	}

	// Breadth of a subtree: its own height or its children's stacked breadth.
	breadth := make(map[tree.Key]float64, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		k := order[i]
		kids := children[k]
		sum := 0.0
		for j, c := range kids {
			if j > 0 {
				sum += l.opts.NodeSpacing
			}
			sum += breadth[c]
		}
		breadth[k] = math.Max(height[k], sum)
	}

	ys := map[tree.Key]float64{p.Anchor.Key: ay}
	for _, k := range order {
		kids := children[k]
		if len(kids) == 0 {
			continue
		}
		total := -l.opts.NodeSpacing
		for _, c := range kids {
			total += breadth[c] + l.opts.NodeSpacing
		}
		y := ys[k] - total/2
		for _, c := range kids {
			ys[c] = y + breadth[c]/2
			y += breadth[c] + l.opts.NodeSpacing
			byKey[c].Loc = mindmap.FormatLoc(round(layerX[depth[c]]), round(ys[c]))
		}
	}
	return nil
}

func round(v float64) float64 { return math.Round(v*100) / 100 }
