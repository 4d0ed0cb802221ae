// Package pipeline provides the core processing pipeline: optimize →
// validate → render.
//
// This package implements the complete flow used by both the CLI and the
// HTTP server. Centralizing it keeps caching behavior and defaults identical
// across entry points.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Optimize: search for a furniture arrangement for the input layout
//  2. Validate: run the compliance checks and build a report
//  3. Render: generate output in various formats (JSON, SVG, PNG, report, graph)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Attempts: 200,
//	    Formats:  []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, input, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/HDA-AWA/roomplan/pkg/cache"
	"github.com/HDA-AWA/roomplan/pkg/layout"
	"github.com/HDA-AWA/roomplan/pkg/optimize"
	"github.com/HDA-AWA/roomplan/pkg/rules"
	"github.com/HDA-AWA/roomplan/pkg/validate"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

// DefaultAttempts is the default search attempt budget.
const DefaultAttempts = optimize.DefaultMaxAttempts

// Format constants for output formats.
const (
	FormatJSON   = "json"
	FormatSVG    = "svg"
	FormatPNG    = "png"
	FormatReport = "report"
	FormatGraph  = "graph"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON:   true,
	FormatSVG:    true,
	FormatPNG:    true,
	FormatReport: true,
	FormatGraph:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Search options
	Attempts int `json:"attempts,omitempty"`

	// RulesPath is a TOML rule file overlaying the defaults. Ignored when
	// Rules is already populated.
	RulesPath string      `json:"rules_path,omitempty"`
	Rules     rules.Rules `json:"-"`

	// Render options
	Formats   []string `json:"formats,omitempty"`
	Scale     float64  `json:"scale,omitempty"`
	ShowZones bool     `json:"show_zones,omitempty"`

	// NoCache bypasses cache reads and writes for this run.
	NoCache bool `json:"no_cache,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// OnAttempt, if set, receives search progress: attempt index, items
	// placed, and violation count. Not called on a cache hit.
	OnAttempt func(attempt, placed, violations int) `json:"-"`

	// rulesHash memoizes the canonical rule-set hash.
	rulesHash string `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Layout is the optimized arrangement.
	Layout layout.Layout

	// LayoutHash is the content hash of the optimized layout.
	LayoutHash string

	// Placed and Total count furniture items.
	Placed int
	Total  int

	// Report contains the compliance findings on the result.
	Report validate.Report

	// Summary compares the input layout's findings with the result's.
	Summary optimize.Summary

	// Unplaced lists input items that found no position.
	Unplaced []optimize.Unplaced

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Attempts     int
	OptimizeTime time.Duration
	ValidateTime time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	OptimizeHit bool // Whether the search result came from cache
	ValidateHit bool // Whether the report came from cache
	RenderHit   bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: json, svg, png, report, graph)", format)
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

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect
// as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.Attempts == 0 {
		o.Attempts = DefaultAttempts
	}
	if o.Attempts < 0 {
		return fmt.Errorf("attempts must be positive, got %d", o.Attempts)
	}

	if o.Rules.Clearance == 0 {
		if o.RulesPath != "" {
			r, err := rules.Load(o.RulesPath)
			if err != nil {
				return err
			}
			o.Rules = r
		} else {
			o.Rules = rules.Default()
		}
	}
	if err := o.Rules.Validate(); err != nil {
		return err
	}

	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}

	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}

	o.validated = true
	return nil
}

// RulesHash returns the canonical hash of the effective rule set. JSON
// marshaling sorts map keys, so the hash is stable.
func (o *Options) RulesHash() string {
	if o.rulesHash == "" {
		data, _ := json.Marshal(o.Rules)
		o.rulesHash = cache.Hash(data)
	}
	return o.rulesHash
}

// LayoutKeyOpts returns cache key options for the search stage.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Attempts:  o.Attempts,
		RulesHash: o.RulesHash(),
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:    format,
		RulesHash: o.RulesHash(),
		Scale:     o.Scale,
		ShowZones: o.ShowZones,
	}
}
