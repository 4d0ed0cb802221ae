package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HDA-AWA/roomplan/pkg/layout"
	"github.com/HDA-AWA/roomplan/pkg/pipeline"
)

// renderCommand creates the render command for drawing an existing layout.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		noCache    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [layout.json]",
		Short: "Render an existing layout without optimizing it",
		Long: `Render an existing layout without optimizing it.

The render command draws a layout exactly as given: the floor plan as SVG
or PNG, the compliance findings as a plain-text report, or the furniture
relation graph as SVG. No furniture is moved.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	// Render flags
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "svg", "output format(s): svg (default), png, report, graph, json (comma-separated)")
	cmd.Flags().Float64Var(&opts.Scale, "scale", 0, "floor-plan scale in pixels per cm (default 2)")
	cmd.Flags().BoolVar(&opts.ShowZones, "zones", false, "draw door-swing and window zones")
	cmd.Flags().StringVar(&opts.RulesPath, "rules", "", "TOML rule file overlaying the defaults")

	return cmd
}

// runRender loads the layout and renders it.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	l, err := layout.ReadLayoutFile(input)
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

	spinner := newSpinnerWithContext(ctx, "Checking compliance...")
	spinner.Start()

	// The report format needs the findings; other formats only need the
	// layout, but the report comes cheap and from cache when possible.
	report, _, err := runner.ValidateWithCacheInfo(ctx, l, opts)
	if err != nil {
		spinner.StopWithError("Validation failed")
		return fmt.Errorf("validate: %w", err)
	}

	spinner.SetMessage("Rendering...")

	artifacts, cacheHit, err := runner.RenderWithCacheInfo(ctx, l, report, opts)
	if err != nil {
		spinner.StopWithError("Rendering failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()

	return writeArtifacts(artifactWriteParams{
		artifacts: artifacts,
		formats:   opts.Formats,
		input:     input,
		output:    output,
		cacheHit:  cacheHit,
	})
}
