package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/HDA-AWA/roomplan/pkg/layout"
	"github.com/HDA-AWA/roomplan/pkg/pipeline"
)

// optimizeCommand creates the optimize command.
func (c *CLI) optimizeCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		noCache    bool
		watch      bool
		dir        string
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "optimize [input.json]",
		Short: "Search for a compliant furniture arrangement",
		Long: `Search for a compliant furniture arrangement.

The optimize command reads a room description (room dimensions, furniture
list, openings) and runs a randomized placement search. Every attempt is
scored against the accessibility rules; the best candidate wins. A bed in
the input must be placeable or the search fails.

Results are cached locally, so re-running with the same input, rules, and
attempt budget returns instantly.

Use --dir to process every .json file in a directory in one run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			if dir != "" {
				if len(args) > 0 {
					return fmt.Errorf("cannot combine --dir with an input file")
				}
				return c.runOptimizeDir(cmd.Context(), dir, opts, noCache)
			}
			if len(args) == 0 {
				return fmt.Errorf("input file or --dir is required")
			}
			return c.runOptimize(cmd.Context(), args[0], opts, output, noCache, watch)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&dir, "dir", "", "process every .json layout in a directory")

	// Search flags
	cmd.Flags().IntVarP(&opts.Attempts, "attempts", "a", 0, "attempt budget (default 200)")
	cmd.Flags().StringVar(&opts.RulesPath, "rules", "", "TOML rule file overlaying the defaults")
	cmd.Flags().BoolVar(&watch, "watch", false, "show live search progress")

	// Render flags
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): json (default), svg, png, report, graph (comma-separated)")
	cmd.Flags().Float64Var(&opts.Scale, "scale", 0, "floor-plan scale in pixels per cm (default 2)")
	cmd.Flags().BoolVar(&opts.ShowZones, "zones", false, "draw door-swing and window zones")

	return cmd
}

// runOptimize executes the pipeline for one input file.
func (c *CLI) runOptimize(ctx context.Context, input string, opts pipeline.Options, output string, noCache, watch bool) error {
	in, err := layout.ReadLayoutFile(input)
	if err != nil {
		return fmt.Errorf("load layout %s: %w", input, err)
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	opts.NoCache = opts.NoCache || noCache

	var result *pipeline.Result
	if watch {
		result, err = c.executeWatched(ctx, runner, in, opts)
	} else {
		spinner := newSpinnerWithContext(ctx, "Searching placements...")
		spinner.Start()
		result, err = runner.Execute(ctx, in, opts)
		if err != nil {
			spinner.StopWithError("Search failed")
			return fmt.Errorf("optimize: %w", err)
		}
		spinner.Stop()
	}
	if err != nil {
		return fmt.Errorf("optimize: %w", err)
	}
	if result == nil {
		return nil // watch cancelled
	}

	printSuccess("Optimized %s", filepath.Base(input))
	printStats(result.Placed, result.Total, result.Report.Score, result.CacheInfo.OptimizeHit)
	printSummary(result)

	if err := writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		input:     input,
		output:    output,
		cacheHit:  result.CacheInfo.RenderHit,
	}); err != nil {
		return err
	}

	if containsFormat(opts.Formats, pipeline.FormatJSON) && !containsFormat(opts.Formats, pipeline.FormatReport) {
		printNextStep("Inspect findings", fmt.Sprintf("roomplan validate %s", defaultArtifactPath(input, output, pipeline.FormatJSON)))
	}
	return nil
}

// executeWatched runs the pipeline under a live bubbletea progress view.
// Returns a nil result when the user quits early.
func (c *CLI) executeWatched(ctx context.Context, runner *pipeline.Runner, in layout.Layout, opts pipeline.Options) (*pipeline.Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewSearchModel(opts.Attempts, len(in.Furniture)), tea.WithOutput(os.Stderr))
	opts.OnAttempt = func(attempt, placed, violations int) {
		p.Send(attemptMsg{Attempt: attempt, Placed: placed, Violations: violations})
	}

	var result *pipeline.Result
	var runErr error
	go func() {
		result, runErr = runner.Execute(runCtx, in, opts)
		p.Send(searchDoneMsg{Err: runErr})
	}()

	final, err := p.Run()
	if err != nil {
		cancel()
		return nil, err
	}
	if m, ok := final.(SearchModel); ok && m.Cancelled() {
		cancel()
		printWarning("Search cancelled")
		return nil, nil
	}
	return result, runErr
}

// runOptimizeDir processes every .json layout in a directory.
func (c *CLI) runOptimizeDir(ctx context.Context, dir string, opts pipeline.Options, noCache bool) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read directory %s: %w", dir, err)
	}

	var inputs []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		inputs = append(inputs, filepath.Join(dir, e.Name()))
	}
	sort.Strings(inputs)

	if len(inputs) == 0 {
		printInfo("No .json layouts in %s", dir)
		return nil
	}

	printInfo("Processing %d layout(s) from %s", len(inputs), dir)
	prog := newProgress(c.Logger)
	failed := 0
	for _, input := range inputs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := c.runOptimize(ctx, input, opts, "", noCache, false); err != nil {
			printError("%s: %v", filepath.Base(input), err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d layouts failed", failed, len(inputs))
	}
	prog.done(fmt.Sprintf("Processed %d layout(s)", len(inputs)))
	return nil
}

// printSummary prints the before/after comparison and unplaced items.
func printSummary(result *pipeline.Result) {
	s := result.Summary
	if s.InitialCount > 0 || s.FinalCount > 0 {
		printDetail("findings: %d before, %d after (%+d)", s.InitialCount, s.FinalCount, -s.Improvement)
	}
	for _, u := range result.Unplaced {
		printWarning("Could not place %s: %s", u.Item.Name, u.Reason)
	}
}

// containsFormat reports whether formats includes format.
func containsFormat(formats []string, format string) bool {
	for _, f := range formats {
		if f == format {
			return true
		}
	}
	return false
}

// defaultArtifactPath reproduces the path writeArtifacts chooses for a
// format, for use in next-step hints.
func defaultArtifactPath(input, output, format string) string {
	if output != "" && output != "-" {
		return output
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	path := base + "." + artifactExts[format]
	if path == input {
		path = base + ".out." + artifactExts[format]
	}
	return path
}
