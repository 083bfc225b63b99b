// Package pkg provides the libraries behind the mindmap tool.
//
// # Overview
//
// A mind map is a tree drawn with its root in the middle and its branches
// split between a left and a right side. The packages below keep the two
// sides balanced, control which parts of the tree are expanded, and turn
// the result into files:
//
//  1. [tree] - Validation, leaf weights, branch balancing, visibility
//  2. [mindmap] - The transactional editor and the layout primitive contract
//  3. [document] - The tree model JSON format
//  4. [render] - Tree layout, coloring, DOT/SVG/PDF/PNG output
//  5. [store] - Named map persistence (file, SQLite, Redis, MongoDB)
//  6. [cache] - Render artifact cache
//  7. [pipeline] - Orchestration (load → layout → render)
//
// # Architecture
//
//	tree model JSON (file or store)
//	         ↓
//	    [document] package (decode)
//	         ↓
//	    [mindmap] editor (balance, expand, lay out via [render/treelayout])
//	         ↓
//	    [render/nodelink] (DOT → SVG → PDF/PNG)
//
// # Quick Start
//
//	doc, _ := document.ReadFile("ideas.json")
//	ed, _ := mindmap.New(ctx, doc.Nodes, mindmap.Options{
//	    Primitive: treelayout.New(treelayout.DefaultOptions()),
//	})
//	_ = ed.Expand(ctx, tree.RootKey)
//	dot, _ := nodelink.ToDOT(ed.Snapshot(), nodelink.Options{})
//	svg, _ := nodelink.RenderSVG(ctx, dot)
//
// [tree]: github.com/matzehuels/mindmap/pkg/tree
// [mindmap]: github.com/matzehuels/mindmap/pkg/mindmap
// [document]: github.com/matzehuels/mindmap/pkg/document
// [render]: github.com/matzehuels/mindmap/pkg/render
// [render/treelayout]: github.com/matzehuels/mindmap/pkg/render/treelayout
// [render/nodelink]: github.com/matzehuels/mindmap/pkg/render/nodelink
// [store]: github.com/matzehuels/mindmap/pkg/store
// [cache]: github.com/matzehuels/mindmap/pkg/cache
// [pipeline]: github.com/matzehuels/mindmap/pkg/pipeline
package pkg
