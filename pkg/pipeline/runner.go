package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mindmap/pkg/cache"
	"github.com/matzehuels/mindmap/pkg/document"
	"github.com/matzehuels/mindmap/pkg/mindmap"
	"github.com/matzehuels/mindmap/pkg/tree"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  cache.Observe(c),
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	data, err := Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	doc, err := Decode(ctx, sourceName(opts), data)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.DocHash = cache.Hash(data)
	result.Stats.LoadTime = time.Since(loadStart)

	r.Logger.Debug("loaded map", "source", sourceName(opts), "nodes", len(doc.Nodes))

	// Stage 2: Layout
	layoutStart := time.Now()
	nodes, layoutHit, err := r.LayoutWithCacheInfo(ctx, doc, result.DocHash, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Nodes = nodes
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit
	fillStats(&result.Stats, nodes)

	r.Logger.Info("balanced map",
		"nodes", result.Stats.NodeCount,
		"left", result.Stats.Left,
		"right", result.Stats.Right,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, layoutHash, renderHit, err := r.RenderWithCacheInfo(ctx, nodes, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.LayoutHash = layoutHash
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LayoutWithCacheInfo balances and positions doc, caching the laid-out
// document under its content hash.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, doc *document.Document, docHash string, opts Options) ([]*tree.Node, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return nil, false, err
	}
	key := r.Keyer.LayoutKey(docHash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if nodes, err := restore(ctx, data, opts); err == nil {
				return nodes, true, nil
			}
		}
	}

	ed, err := GenerateLayout(ctx, doc, opts)
	if err != nil {
		return nil, false, err
	}
	nodes := ed.Snapshot()

	if data, err := document.Marshal(document.New(nodes)); err == nil {
		_ = r.Cache.Set(ctx, key, data, cache.TTLLayout)
	}
	return nodes, false, nil
}

// RenderWithCacheInfo renders nodes in every requested format. It returns
// the layout hash the artifacts were keyed under and whether all of them
// came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, nodes []*tree.Node, opts Options) (map[string][]byte, string, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, "", false, err
	}

	layoutData, err := document.Marshal(document.New(nodes))
	if err != nil {
		return nil, "", false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)

	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, layoutHash, true, nil
		}
	}

	rendered, err := Render(ctx, nodes, opts)
	if err != nil {
		return nil, "", false, err
	}
	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, key, data, cache.TTLArtifact)
	}
	return rendered, layoutHash, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// restore decodes a cached layout. Derived fields are not trusted on read,
// so the map is rebalanced without a primitive, which keeps every location.
func restore(ctx context.Context, data []byte, opts Options) ([]*tree.Node, error) {
	doc, err := document.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	ed, err := mindmap.New(ctx, doc.Nodes, mindmap.Options{Logger: opts.Logger})
	if err != nil {
		return nil, err
	}
	return ed.Snapshot(), nil
}

func fillStats(s *Stats, nodes []*tree.Node) {
	s.NodeCount = len(nodes)
	ix, err := tree.NewIndex(nodes)
	if err != nil {
		return
	}
	s.Height = ix.Height()
	for _, k := range ix.Children(tree.RootKey) {
		n, _ := ix.Node(k)
		switch n.Dir {
		case tree.Left:
			s.Left += max(1, n.Leaves)
		case tree.Right:
			s.Right += max(1, n.Leaves)
		}
	}
}
