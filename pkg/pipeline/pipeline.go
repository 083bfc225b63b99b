// Package pipeline runs the load → balance → render pipeline for mind maps.
//
// This package is shared by the CLI, the HTTP server and the MCP server so
// that every entry point balances, lays out and renders a map the same way.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Decode a tree model document from a file, a store or raw bytes
//  2. Layout: Balance branches, apply visibility and color, position nodes
//  3. Render: Generate output in various formats (JSON, DOT, SVG, PNG, PDF)
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:   "ideas.json",
//	    Formats: []string{"svg"},
//	})
//	svg := result.Artifacts["svg"]
//
// Layout and render results are cached by content hash, so re-rendering an
// unchanged map is a cache lookup.
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mindmap/pkg/cache"
	"github.com/matzehuels/mindmap/pkg/render/palette"
	"github.com/matzehuels/mindmap/pkg/render/treelayout"
	"github.com/matzehuels/mindmap/pkg/tree"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultExpandDepth is the number of generations left open below the
	// root when Collapse is set.
	DefaultExpandDepth = 1

	// DefaultPNGScale is the resolution multiplier for PNG output.
	DefaultPNGScale = 2.0
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options. Data wins over Input when both are set.
	Input string `json:"input,omitempty"`
	Data  []byte `json:"-"`

	// Layout options
	Collapse     bool    `json:"collapse,omitempty"`      // collapse everything, then open ExpandDepth levels
	ExpandDepth  int     `json:"expand_depth,omitempty"`  // generations opened below the root when collapsing
	Paint        bool    `json:"paint,omitempty"`         // recolor branches and rescale text
	MaxDepth     int     `json:"max_depth,omitempty"`     // depth cap for text scaling
	NodeSpacing  float64 `json:"node_spacing,omitempty"`  // between siblings
	LayerSpacing float64 `json:"layer_spacing,omitempty"` // between generations

	// Render options
	Formats  []string `json:"formats,omitempty"`
	All      bool     `json:"all,omitempty"`      // draw hidden nodes
	Detailed bool     `json:"detailed,omitempty"` // key and leaf count in labels
	PNGScale float64  `json:"png_scale,omitempty"`
	Refresh  bool     `json:"refresh,omitempty"` // bypass the cache

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Nodes is the balanced, laid-out collection.
	Nodes []*tree.Node

	// DocHash is the content hash of the loaded document.
	DocHash string

	// LayoutHash is the content hash of the laid-out document.
	LayoutHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	Height     int
	Left       int // leaf weight on the left side
	Right      int // leaf weight on the right side
	LoadTime   time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: json, dot, svg, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks that there is something to load.
func (o *Options) ValidateForLoad() error {
	if o.Input == "" && o.Data == nil {
		return fmt.Errorf("input is required")
	}
	o.setLogger()
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Collapse && o.ExpandDepth == 0 {
		o.ExpandDepth = DefaultExpandDepth
	}
	if o.NodeSpacing == 0 {
		o.NodeSpacing = treelayout.DefaultNodeSpacing
	}
	if o.LayerSpacing == 0 {
		o.LayerSpacing = treelayout.DefaultLayerSpacing
	}
	o.setLogger()
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if o.ExpandDepth < 0 {
		return &tree.InvalidDepthError{Depth: o.ExpandDepth}
	}
	if o.MaxDepth < 0 {
		return fmt.Errorf("invalid max_depth %d: must be >= 0", o.MaxDepth)
	}
	if o.NodeSpacing < 0 || o.LayerSpacing < 0 {
		return fmt.Errorf("spacing must be >= 0")
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.PNGScale == 0 {
		o.PNGScale = DefaultPNGScale
	}
	o.setLogger()
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// LayoutOptions returns the tree layout spacing for these options.
func (o *Options) LayoutOptions() treelayout.Options {
	opts := treelayout.DefaultOptions()
	opts.NodeSpacing = o.NodeSpacing
	opts.LayerSpacing = o.LayerSpacing
	return opts
}

// PaletteOptions returns the palette settings for these options.
func (o *Options) PaletteOptions() palette.Options {
	return palette.Options{Fade: palette.DefaultFade, MaxDepth: o.MaxDepth}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		ExpandDepth:  o.ExpandDepth,
		Collapse:     o.Collapse,
		Paint:        o.Paint,
		MaxDepth:     o.MaxDepth,
		NodeSpacing:  o.NodeSpacing,
		LayerSpacing: o.LayerSpacing,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		All:      o.All,
		Detailed: o.Detailed,
		Scale:    o.PNGScale,
	}
}
