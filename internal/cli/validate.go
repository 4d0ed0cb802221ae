package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HDA-AWA/roomplan/pkg/layout"
	"github.com/HDA-AWA/roomplan/pkg/pipeline"
	"github.com/HDA-AWA/roomplan/pkg/render"
	"github.com/HDA-AWA/roomplan/pkg/validate"
)

// reportArtifact serializes a report as JSON or plain text.
func reportArtifact(r validate.Report, asJSON bool) ([]byte, error) {
	if asJSON {
		return json.MarshalIndent(r, "", "  ")
	}
	return render.Report(r), nil
}

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var (
		rulesPath string
		noCache   bool
		strict    bool
		output    string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "validate [layout.json]",
		Short: "Check a layout against the accessibility rules",
		Long: `Check a layout against the accessibility rules.

The validate command runs the full compliance check suite on an existing
layout without moving any furniture: overlaps, clearances, wheelchair
turning space, door swing, emergency path, bed transfer space, furniture
pairing, window access, circulation, and wall adjacency.

With --strict the command fails when any finding is reported, which makes
it usable as a CI gate for layout files.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(cmd.Context(), args[0], rulesPath, output, noCache, strict, asJSON)
		},
	}

	cmd.Flags().StringVar(&rulesPath, "rules", "", "TOML rule file overlaying the defaults")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit with an error when findings exist")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the report to a file instead of the terminal")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the report as JSON")

	return cmd
}

// runValidate loads the layout and reports its findings.
func (c *CLI) runValidate(ctx context.Context, input, rulesPath, output string, noCache, strict, asJSON bool) error {
	l, err := layout.ReadLayoutFile(input)
	if err != nil {
		return fmt.Errorf("load layout %s: %w", input, err)
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := pipeline.Options{
		RulesPath: rulesPath,
		NoCache:   noCache,
		Logger:    c.Logger,
	}

	report, cacheHit, err := runner.ValidateWithCacheInfo(ctx, l, opts)
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	if output != "" || asJSON {
		data, err := reportArtifact(report, asJSON)
		if err != nil {
			return err
		}
		if output == "" {
			// Never default onto the input path: reports get their own
			// suffix.
			base := strings.TrimSuffix(input, filepath.Ext(input))
			if asJSON {
				output = base + ".report.json"
			} else {
				output = base + ".report.txt"
			}
		}
		if output == "-" {
			_, err := os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(output, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
		printFile(output)
		return nil
	}

	printReport(report)
	if cacheHit {
		printDetail("report served from cache")
	}

	if strict && report.Total > 0 {
		return fmt.Errorf("%d finding(s) reported", report.Total)
	}
	return nil
}
