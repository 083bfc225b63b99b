package cache

import "time"

// Keyer builds cache keys for the render pipeline.
type Keyer interface {
	// LayoutKey identifies a laid-out node collection.
	LayoutKey(docHash string, opts LayoutKeyOpts) string
	// ArtifactKey identifies one rendered output of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the options that change node locations or styling.
type LayoutKeyOpts struct {
	ExpandDepth  int     `json:"expand_depth"`
	Collapse     bool    `json:"collapse"`
	Paint        bool    `json:"paint"`
	MaxDepth     int     `json:"max_depth"`
	NodeSpacing  float64 `json:"node_spacing"`
	LayerSpacing float64 `json:"layer_spacing"`
}

// ArtifactKeyOpts are the options that change a rendered file.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	All      bool    `json:"all"`
	Detailed bool    `json:"detailed"`
	Scale    float64 `json:"scale"`
}

// DefaultKeyer hashes options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey returns "layout:<sha256>".
func (DefaultKeyer) LayoutKey(docHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", docHash, opts)
}

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

var _ Keyer = DefaultKeyer{}

// Default expiry per entry kind.
const (
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)
