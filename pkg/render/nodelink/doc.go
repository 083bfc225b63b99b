// Package nodelink renders laid-out mind maps as node-link diagrams.
//
// # Overview
//
// Layout is done before this package runs: every node already carries its
// location in [tree.Node.Loc]. [ToDOT] pins each visible node at that
// location and hands the result to Graphviz's neato engine, which only routes
// the edges. The root sits in the middle with branches fanning out on both
// sides exactly as the editor placed them.
//
// # Usage
//
//	dot, err := nodelink.ToDOT(nodes, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output, use the render functions:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0)  // 2x scale
//
// # Styling
//
// Node outlines and edges use the node's Brush when set. Text size follows
// Scale. Collapsed nodes with hidden children are drawn with a double
// outline.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering (no Graphviz installation required). PDF and PNG conversion
// requires rsvg-convert from librsvg.
package nodelink
