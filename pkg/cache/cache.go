// Package cache provides pluggable result caching for the pipeline.
//
// Four backends share one interface: a file cache for CLI usage, Redis and
// MongoDB for server deployments, and a null cache for disabling caching
// entirely. Keys are produced by a Keyer so every stage of the pipeline
// derives its key from the same hashed inputs.
package cache

import (
	"context"
	"time"
)

// Default TTLs per cached artifact kind.
const (
	// LayoutTTL covers optimized layouts, which are deterministic for a
	// given input and rule set.
	LayoutTTL = 7 * 24 * time.Hour
	// ReportTTL covers validation reports.
	ReportTTL = 7 * 24 * time.Hour
	// ArtifactTTL covers rendered artifacts (SVG, PNG, DOT).
	ArtifactTTL = 24 * time.Hour
)

// Cache is the storage interface shared by all backends.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value. A zero ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// LayoutKeyOpts are the search parameters that affect an optimized layout.
type LayoutKeyOpts struct {
	Attempts  int    `json:"attempts"`
	RulesHash string `json:"rulesHash"`
}

// ArtifactKeyOpts identify a rendered artifact. RulesHash is part of the
// key because rule thresholds flow into rendering (zone sizes, graph edge
// reach).
type ArtifactKeyOpts struct {
	Format    string  `json:"format"`
	RulesHash string  `json:"rulesHash"`
	Scale     float64 `json:"scale,omitempty"`
	ShowZones bool    `json:"showZones,omitempty"`
}

// Keyer generates cache keys for the pipeline stages.
type Keyer interface {
	// LayoutKey keys an optimized layout by the input document hash and the
	// search options.
	LayoutKey(inputHash string, opts LayoutKeyOpts) string
	// ReportKey keys a validation report by the layout it describes.
	ReportKey(layoutHash string, rulesHash string) string
	// ArtifactKey keys a rendered artifact by layout and format.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// LayoutKey generates a key for an optimized layout.
func (k *DefaultKeyer) LayoutKey(inputHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", inputHash, opts)
}

// ReportKey generates a key for a validation report.
func (k *DefaultKeyer) ReportKey(layoutHash string, rulesHash string) string {
	return hashKey("report", layoutHash, rulesHash)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
