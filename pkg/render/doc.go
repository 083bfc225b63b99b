// Package render turns laid-out mind maps into images.
//
// # Overview
//
// Rendering runs after the editor has balanced the map and a layout
// primitive has written node locations:
//
//   - [treelayout]: the layout primitive, one tree per side at 0° and 180°
//   - [palette]: branch colors and text scale for generated maps
//   - [nodelink]: Graphviz DOT and SVG output with pinned positions
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// [treelayout]: github.com/matzehuels/mindmap/pkg/render/treelayout
// [palette]: github.com/matzehuels/mindmap/pkg/render/palette
// [nodelink]: github.com/matzehuels/mindmap/pkg/render/nodelink
package render
