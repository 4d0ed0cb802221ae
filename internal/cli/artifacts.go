package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/HDA-AWA/roomplan/pkg/pipeline"
)

// artifactExts maps formats to output file extensions. The relation graph
// gets a compound extension so it can coexist with the floor-plan SVG.
var artifactExts = map[string]string{
	pipeline.FormatJSON:   "json",
	pipeline.FormatSVG:    "svg",
	pipeline.FormatPNG:    "png",
	pipeline.FormatReport: "txt",
	pipeline.FormatGraph:  "graph.svg",
}

// artifactWriteParams bundles the inputs for writeArtifacts.
type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string // source path, used to derive default names
	output    string // --output flag, empty for default
	cacheHit  bool
}

// writeArtifacts writes rendered artifacts to disk (or stdout) and prints
// where they went.
//
// With a single format, --output names the file directly and "-" streams to
// stdout. With multiple formats, --output (or the input name) is the base
// path and each artifact gets its format's extension.
func writeArtifacts(p artifactWriteParams) error {
	if len(p.formats) == 1 && p.output == "-" {
		_, err := os.Stdout.Write(p.artifacts[p.formats[0]])
		return err
	}

	if len(p.formats) == 1 && p.output != "" {
		if err := os.WriteFile(p.output, p.artifacts[p.formats[0]], 0644); err != nil {
			return fmt.Errorf("write %s: %w", p.output, err)
		}
		printOutcome(p.cacheHit)
		printFile(p.output)
		return nil
	}

	base := p.output
	if base == "" {
		base = strings.TrimSuffix(p.input, filepath.Ext(p.input))
	}
	if base == "" {
		base = "layout"
	}

	printOutcome(p.cacheHit)
	for _, format := range p.formats {
		ext, ok := artifactExts[format]
		if !ok {
			ext = format
		}
		path := base + "." + ext
		if path == p.input {
			// Never overwrite the source layout with a derived name.
			path = base + ".out." + ext
		}
		if err := os.WriteFile(path, p.artifacts[format], 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

func printOutcome(cacheHit bool) {
	if cacheHit {
		printSuccess("Rendered outputs (%s)", iconCached)
	} else {
		printSuccess("Rendered outputs")
	}
}
