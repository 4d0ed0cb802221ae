package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/HDA-AWA/roomplan/pkg/cache"
	"github.com/HDA-AWA/roomplan/pkg/layout"
	"github.com/HDA-AWA/roomplan/pkg/observability"
	"github.com/HDA-AWA/roomplan/pkg/optimize"
	"github.com/HDA-AWA/roomplan/pkg/render"
	"github.com/HDA-AWA/roomplan/pkg/validate"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
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
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// searchArtifact is the serialized form of a search result stored in the
// cache. The findings are recomputed from the layout on load, so only the
// placement outcome needs to survive.
type searchArtifact struct {
	Layout   layout.Layout      `json:"layout"`
	Placed   int                `json:"placed"`
	Total    int                `json:"total"`
	Attempts int                `json:"attempts"`
	Summary  optimize.Summary   `json:"summary"`
	Unplaced []optimize.Unplaced `json:"unplaced,omitempty"`
}

// Execute runs the complete optimize → validate → render pipeline with
// caching.
func (r *Runner) Execute(ctx context.Context, in layout.Layout, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Optimize
	searchStart := time.Now()
	res, searchHit, err := r.OptimizeWithCacheInfo(ctx, in, opts)
	if err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}
	result.Layout = res.Layout
	result.Placed = res.Placed
	result.Total = res.Total
	result.Summary = res.Summary
	result.Unplaced = res.Unplaced
	result.Stats.Attempts = res.Attempts
	result.Stats.OptimizeTime = time.Since(searchStart)
	result.CacheInfo.OptimizeHit = searchHit

	if data, err := layout.MarshalLayout(res.Layout); err == nil {
		result.LayoutHash = cache.Hash(data)
	}

	r.Logger.Info("optimized layout",
		"placed", res.Placed,
		"total", res.Total,
		"attempts", res.Attempts,
		"duration", result.Stats.OptimizeTime)

	// Stage 2: Validate
	validateStart := time.Now()
	report, reportHit, err := r.ValidateWithCacheInfo(ctx, res.Layout, opts)
	if err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	result.Report = report
	result.Stats.ValidateTime = time.Since(validateStart)
	result.CacheInfo.ValidateHit = reportHit

	r.Logger.Info("validated layout",
		"findings", report.Total,
		"score", report.Score,
		"duration", result.Stats.ValidateTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, res.Layout, report, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// OptimizeWithCacheInfo runs the placement search with caching and returns
// cache hit info.
func (r *Runner) OptimizeWithCacheInfo(ctx context.Context, in layout.Layout, opts Options) (optimize.Result, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return optimize.Result{}, false, err
	}

	// Compute cache key from the input document
	inputData, err := layout.MarshalLayout(in)
	if err != nil {
		return optimize.Result{}, false, fmt.Errorf("serialize input for cache key: %w", err)
	}
	cacheKey := r.Keyer.LayoutKey(cache.Hash(inputData), opts.LayoutKeyOpts())

	// Try cache first
	if !opts.NoCache {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached searchArtifact
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.CacheHit(cacheKey)
				res := optimize.Result{
					Layout:   cached.Layout,
					Placed:   cached.Placed,
					Total:    cached.Total,
					Attempts: cached.Attempts,
					Summary:  cached.Summary,
					Unplaced: cached.Unplaced,
				}
				res.Layout.Normalize()
				res.Violations = validate.New(opts.Rules).Validate(res.Layout)
				return res, true, nil // Cache hit
			}
		}
		observability.CacheMiss(cacheKey)
	}

	// Search
	opt, err := optimize.New(optimize.Options{
		MaxAttempts: opts.Attempts,
		Rules:       opts.Rules,
		Logger:      opts.Logger,
		OnAttempt:   opts.OnAttempt,
	})
	if err != nil {
		return optimize.Result{}, false, err
	}
	res, err := opt.Optimize(ctx, in)
	if err != nil {
		return optimize.Result{}, false, err
	}

	// Cache the result
	if !opts.NoCache {
		if data, err := json.Marshal(searchArtifact{
			Layout:   res.Layout,
			Placed:   res.Placed,
			Total:    res.Total,
			Attempts: res.Attempts,
			Summary:  res.Summary,
			Unplaced: res.Unplaced,
		}); err == nil {
			_ = r.Cache.Set(ctx, cacheKey, data, cache.LayoutTTL)
		}
	}

	return res, false, nil // Cache miss
}

// Optimize is a convenience wrapper that discards the cache hit info.
func (r *Runner) Optimize(ctx context.Context, in layout.Layout, opts Options) (optimize.Result, error) {
	res, _, err := r.OptimizeWithCacheInfo(ctx, in, opts)
	return res, err
}

// ValidateWithCacheInfo builds a compliance report with caching and returns
// cache hit info.
func (r *Runner) ValidateWithCacheInfo(ctx context.Context, l layout.Layout, opts Options) (validate.Report, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return validate.Report{}, false, err
	}

	layoutData, err := layout.MarshalLayout(l)
	if err != nil {
		return validate.Report{}, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	cacheKey := r.Keyer.ReportKey(cache.Hash(layoutData), opts.RulesHash())

	if !opts.NoCache {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached validate.Report
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.CacheHit(cacheKey)
				return cached, true, nil // Cache hit
			}
		}
		observability.CacheMiss(cacheKey)
	}

	report := validate.New(opts.Rules).Report(l)
	observability.ValidateDone(report.Total)

	if !opts.NoCache {
		if data, err := json.Marshal(report); err == nil {
			_ = r.Cache.Set(ctx, cacheKey, data, cache.ReportTTL)
		}
	}

	return report, false, nil // Cache miss
}

// Validate is a convenience wrapper that discards the cache hit info.
func (r *Runner) Validate(ctx context.Context, l layout.Layout, opts Options) (validate.Report, error) {
	report, _, err := r.ValidateWithCacheInfo(ctx, l, opts)
	return report, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit
// info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l layout.Layout, report validate.Report, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	// Compute cache key from layout data
	layoutData, err := layout.MarshalLayout(l)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)

	// Try to get all formats from cache
	artifacts := make(map[string][]byte)
	if !opts.NoCache {
		allCached := true
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				artifacts[format] = data
			} else {
				allCached = false
				break
			}
		}
		if allCached && len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil // All artifacts from cache
		}
	}

	// Render all formats
	rendered, err := r.renderFormats(ctx, l, report, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	if !opts.NoCache {
		for format, data := range rendered {
			cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			_ = r.Cache.Set(ctx, cacheKey, data, cache.ArtifactTTL)
		}
	}

	return rendered, false, nil // Cache miss
}

// Render is a convenience wrapper that discards the cache hit info.
func (r *Runner) Render(ctx context.Context, l layout.Layout, report validate.Report, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, report, opts)
	return artifacts, err
}

// renderFormats renders every requested format.
func (r *Runner) renderFormats(ctx context.Context, l layout.Layout, report validate.Report, opts Options) (map[string][]byte, error) {
	renderOpts := render.Options{
		Scale:     opts.Scale,
		ShowZones: opts.ShowZones,
		Rules:     opts.Rules,
	}

	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			data, err = layout.MarshalLayout(l)
		case FormatSVG:
			data = render.SVG(l, renderOpts)
		case FormatPNG:
			data, err = render.PNG(l, renderOpts)
		case FormatReport:
			data = render.Report(report)
		case FormatGraph:
			data, err = render.GraphSVG(ctx, render.ToDOT(l, opts.Rules))
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
		observability.RenderDone(format, len(data))
	}
	return artifacts, nil
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
