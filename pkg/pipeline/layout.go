package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/mindmap/pkg/document"
	"github.com/matzehuels/mindmap/pkg/mindmap"
	"github.com/matzehuels/mindmap/pkg/render/palette"
	"github.com/matzehuels/mindmap/pkg/render/treelayout"
	"github.com/matzehuels/mindmap/pkg/tree"
)

// =============================================================================
// Layout Generation
// =============================================================================

// NewEditor opens an editor over nodes with the tree layout primitive
// configured from opts.
func NewEditor(ctx context.Context, nodes []*tree.Node, opts Options) (*mindmap.Editor, error) {
	opts.SetLayoutDefaults()
	return mindmap.New(ctx, nodes, mindmap.Options{
		Primitive:   treelayout.New(opts.LayoutOptions()),
		Logger:      opts.Logger,
		ExpandDepth: max(opts.ExpandDepth, 1),
	})
}

// GenerateLayout balances and positions a document.
//
// Painting happens first because text scale feeds node sizes. Collapse then
// folds the whole map and reopens ExpandDepth generations below the root,
// which lays out again with only the visible nodes.
func GenerateLayout(ctx context.Context, doc *document.Document, opts Options) (*mindmap.Editor, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, err
	}

	nodes := tree.CloneNodes(doc.Nodes)
	if opts.Paint {
		ix, err := tree.NewIndex(nodes)
		if err != nil {
			return nil, err
		}
		if err := palette.Paint(ix, opts.PaletteOptions()); err != nil {
			return nil, err
		}
	}

	ed, err := NewEditor(ctx, nodes, opts)
	if err != nil {
		return nil, err
	}
	if opts.Collapse {
		if err := ed.CollapseAll(ctx); err != nil {
			return nil, fmt.Errorf("collapse: %w", err)
		}
		if opts.ExpandDepth > 0 {
			if err := ed.SetVisibility(ctx, tree.RootKey, true, opts.ExpandDepth); err != nil {
				return nil, fmt.Errorf("expand: %w", err)
			}
		}
	}
	return ed, nil
}
