package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/matzehuels/mindmap/pkg/document"
	"github.com/matzehuels/mindmap/pkg/observability"
)

// Load reads the raw document bytes named by opts.
func Load(ctx context.Context, opts Options) ([]byte, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}
	if opts.Data != nil {
		return opts.Data, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", opts.Input, err)
	}
	return data, nil
}

// Decode parses a document and reports the load to the pipeline hooks.
func Decode(ctx context.Context, source string, data []byte) (*document.Document, error) {
	start := time.Now()
	doc, err := document.Unmarshal(data)
	n := 0
	if doc != nil {
		n = len(doc.Nodes)
	}
	observability.Pipeline().OnLoadComplete(ctx, source, n, time.Since(start), err)
	return doc, err
}

func sourceName(opts Options) string {
	if opts.Data != nil || opts.Input == "" {
		return "data"
	}
	return opts.Input
}
