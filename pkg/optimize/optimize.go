// Package optimize searches for furniture placements that satisfy the
// accessibility rules.
//
// The search is a deterministic multi-start: attempt i seeds its own
// math/rand source with i, builds one candidate bed-first with per-category
// strategies, and scores it with the validator. Candidates that place more
// items always beat candidates with fewer; among equals, fewer violations
// wins. A candidate without a placed bed is discarded outright — a bedroom
// layout without a bed is not a solution. The same input therefore always
// produces the same output.
package optimize

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/HDA-AWA/roomplan/pkg/errors"
	"github.com/HDA-AWA/roomplan/pkg/layout"
	"github.com/HDA-AWA/roomplan/pkg/observability"
	"github.com/HDA-AWA/roomplan/pkg/rules"
	"github.com/HDA-AWA/roomplan/pkg/validate"
)

// DefaultMaxAttempts bounds the search when the caller does not.
const DefaultMaxAttempts = 200

// Options configures a search.
type Options struct {
	// MaxAttempts is the attempt budget. Defaults to DefaultMaxAttempts.
	MaxAttempts int
	// Rules is the threshold set. Zero value means rules.Default().
	Rules rules.Rules
	// Logger receives progress output. Defaults to a discarding logger.
	Logger *log.Logger
	// OnAttempt, if set, is called after every attempt that produced a
	// candidate, with the attempt index, items placed, and violation count.
	OnAttempt func(attempt, placed, violations int)
}

// ValidateAndSetDefaults fills in defaults and rejects invalid options.
func (o *Options) ValidateAndSetDefaults() error {
	if o.MaxAttempts == 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.MaxAttempts < 0 {
		return errors.New(errors.ErrCodeInvalidInput,
			"max attempts must be positive, got %d", o.MaxAttempts)
	}
	if o.Rules.Clearance == 0 {
		o.Rules = rules.Default()
	}
	if err := o.Rules.Validate(); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return nil
}

// Result is the outcome of a successful search.
type Result struct {
	// Layout is the best candidate found.
	Layout layout.Layout
	// Placed and Total count furniture items.
	Placed int
	Total  int
	// Attempts is how many attempts actually ran.
	Attempts int
	// Violations are the findings on the best candidate.
	Violations []validate.Violation
	// Summary compares the input layout's findings with the result's.
	Summary Summary
	// Unplaced lists input items that found no position.
	Unplaced []Unplaced
}

// Perfect reports whether every item was placed with zero findings.
func (r Result) Perfect() bool {
	return r.Placed == r.Total && len(r.Violations) == 0
}

// Optimizer runs placement searches with a fixed rule set.
type Optimizer struct {
	opts      Options
	validator *validate.Validator
}

// New creates an Optimizer. The options are validated once here.
func New(opts Options) (*Optimizer, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return &Optimizer{
		opts:      opts,
		validator: validate.New(opts.Rules),
	}, nil
}

// Optimize searches for the best placement of in's furniture. The input
// coordinates are only used for the before/after comparison; every candidate
// is placed from scratch. Cancelling ctx stops the search at the next
// attempt boundary and returns the best candidate so far, if any.
func (o *Optimizer) Optimize(ctx context.Context, in layout.Layout) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}

	logger := o.opts.Logger
	tracker := &Tracker{}
	tracker.SetInitial(o.validator.Validate(in))
	logger.Debug("initial layout analyzed",
		"furniture", len(in.Furniture), "violations", len(tracker.Initial))

	search := in.Clone()
	// Egress checks need a door; assume one centered on the bottom wall when
	// the plan has none.
	if search.Door() == nil {
		search.Openings = append(search.Openings, layout.Opening{
			Type:     layout.OpeningDoor,
			Wall:     layout.WallBottom,
			Position: (search.Room.Width - 90) / 2,
			Size:     90,
		})
		logger.Debug("no door in plan, assuming 90cm door on bottom wall")
	}

	gen := newGenerator(search, o.opts.Rules)
	total := len(in.Furniture)

	var (
		best       *layout.Layout
		bestViols  []validate.Violation
		bestPlaced int
		attempts   int
	)

	for attempt := 0; attempt < o.opts.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			logger.Debug("search cancelled", "attempt", attempt)
			break
		}
		attempts = attempt + 1

		candidate, ok := gen.generate(attempt)
		if !ok {
			continue
		}

		violations := o.validator.Validate(candidate)
		placed := len(candidate.Furniture)
		observability.OptimizeAttempt(attempt, placed, len(violations))
		if o.opts.OnAttempt != nil {
			o.opts.OnAttempt(attempt, placed, len(violations))
		}

		better := placed > bestPlaced ||
			(best != nil && placed == bestPlaced && len(violations) < len(bestViols))
		if better {
			c := candidate.Clone()
			best = &c
			bestViols = violations
			bestPlaced = placed
			logger.Debug("better candidate",
				"attempt", attempt, "placed", placed, "violations", len(violations))
		}

		if placed == total && len(violations) == 0 {
			logger.Info("perfect layout found", "attempt", attempt)
			break
		}
	}

	if best == nil {
		if err := ctx.Err(); err != nil {
			return Result{}, errors.Wrap(errors.ErrCodeNoSolution, err,
				"search cancelled before any candidate was found")
		}
		return Result{}, errors.New(errors.ErrCodeNoSolution,
			"no valid placement found in %d attempts", o.opts.MaxAttempts)
	}

	summary := tracker.Finalize(bestViols)
	observability.OptimizeDone(attempts, validate.ScoreViolations(bestViols))
	logger.Info("search complete",
		"placed", bestPlaced, "total", total,
		"violations", summary.FinalCount, "fixed", summary.FixedCount,
		"attempts", attempts)

	return Result{
		Layout:     *best,
		Placed:     bestPlaced,
		Total:      total,
		Attempts:   attempts,
		Violations: bestViols,
		Summary:    summary,
		Unplaced:   analyzeUnplaced(in, *best),
	}, nil
}
