package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/mindmap/pkg/document"
	"github.com/matzehuels/mindmap/pkg/observability"
	"github.com/matzehuels/mindmap/pkg/render/nodelink"
	"github.com/matzehuels/mindmap/pkg/tree"
)

// Render generates output artifacts in the requested formats from a
// laid-out collection. DOT is generated once and shared by the graphical
// formats.
func Render(ctx context.Context, nodes []*tree.Node, opts Options) (artifacts map[string][]byte, err error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	defer func() { hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err) }()

	var dot string
	needsDOT := false
	for _, f := range opts.Formats {
		needsDOT = needsDOT || f != FormatJSON
	}
	if needsDOT {
		dot, err = nodelink.ToDOT(nodes, nodelink.Options{All: opts.All, Detailed: opts.Detailed})
		if err != nil {
			return nil, fmt.Errorf("generate DOT: %w", err)
		}
	}

	artifacts = make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var ferr error

		switch format {
		case FormatJSON:
			data, ferr = document.Marshal(document.New(nodes))
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, ferr = nodelink.RenderSVG(ctx, dot)
		case FormatPNG:
			data, ferr = nodelink.RenderPNG(ctx, dot, opts.PNGScale)
		case FormatPDF:
			data, ferr = nodelink.RenderPDF(ctx, dot)
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if ferr != nil {
			return nil, fmt.Errorf("render %s: %w", format, ferr)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
