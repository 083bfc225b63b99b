package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/mindmap/pkg/mindmap"
	"github.com/matzehuels/mindmap/pkg/render"
	"github.com/matzehuels/mindmap/pkg/tree"
)

// DefaultFontSize is the font size of a node with scale 1.
const DefaultFontSize = 12

// Options configures node-link diagram rendering.
type Options struct {
	// FontSize at scale 1. Zero means DefaultFontSize.
	FontSize float64
	// All draws hidden nodes too. By default only visible nodes are drawn.
	All bool
	// Detailed adds key and leaf count to node labels.
	Detailed bool
}

// ToDOT converts a laid-out node collection to Graphviz DOT format.
// Nodes without a location are placed at the origin.
func ToDOT(nodes []*tree.Node, opts Options) (string, error) {
	ix, err := tree.NewIndex(nodes)
	if err != nil {
		return "", err
	}
	if opts.FontSize <= 0 {
		opts.FontSize = DefaultFontSize
	}
	visible := tree.VisibleSet(ix)
	if opts.All {
		for _, n := range ix.Nodes() {
			visible[n.Key] = true
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded\", fontname=\"Helvetica\", margin=\"0.1,0.05\"];\n")
	buf.WriteString("  edge [arrowhead=none, penwidth=2];\n")
	buf.WriteString("\n")

	for _, k := range ix.Order() {
		if !visible[k] {
			continue
		}
		n, _ := ix.Node(k)
		attrs, err := fmtAttrs(ix, n, opts)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", nodeID(k), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, k := range ix.Order() {
		p, ok := ix.Parent(k)
		if !ok || !visible[k] || !visible[p] {
			continue
		}
		n, _ := ix.Node(k)
		if n.Brush != "" {
			fmt.Fprintf(&buf, "  %q -> %q [color=%q];\n", nodeID(p), nodeID(k), n.Brush)
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", nodeID(p), nodeID(k))
		}
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func nodeID(k tree.Key) string { return "n" + strconv.Itoa(int(k)) }

func fmtLabel(n *tree.Node, detailed bool) string {
	if !detailed {
		return n.Text
	}
	return fmt.Sprintf("%s\nkey: %d\nleaves: %d", n.Text, n.Key, n.Leaves)
}

func fmtAttrs(ix *tree.Index, n *tree.Node, opts Options) ([]string, error) {
	x, y := 0.0, 0.0
	if n.Loc != "" {
		var err error
		if x, y, err = mindmap.ParseLoc(n.Loc); err != nil {
			return nil, fmt.Errorf("node %d: %w", n.Key, err)
		}
	}
	scale := n.Scale
	if scale <= 0 {
		scale = 1
	}

	// Graphviz y grows upward.
	attrs := []string{
		fmt.Sprintf("label=%q", fmtLabel(n, opts.Detailed)),
		fmt.Sprintf("pos=\"%s,%s!\"", fmtFloat(x), fmtFloat(-y)),
		fmt.Sprintf("fontsize=%s", fmtFloat(opts.FontSize*scale)),
	}
	if n.Brush != "" {
		attrs = append(attrs, fmt.Sprintf("color=%q", n.Brush))
	}
	if !n.Expanded && !ix.IsLeaf(n.Key) {
		attrs = append(attrs, "peripheries=2")
	}
	return attrs, nil
}

func fmtFloat(v float64) string {
	if v == 0 {
		v = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.-]+)\s+([0-9.-]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with one that
// scales to its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
