package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/HDA-AWA/roomplan/pkg/geo"
	"github.com/HDA-AWA/roomplan/pkg/layout"
	"github.com/HDA-AWA/roomplan/pkg/rules"
)

// ToDOT converts a layout's furniture relations to Graphviz DOT format.
// Each furniture item becomes a node colored by category. Paired items
// (bedside-bed, chair-table) get an edge labeled with their measured
// center distance, green when within the configured reach and red when not.
// Openings appear as small nodes attached to their wall position.
func ToDOT(l layout.Layout, r rules.Rules) string {
	var buf bytes.Buffer
	buf.WriteString("graph room {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontsize=12];\n")
	buf.WriteString("\n")

	for i, f := range l.Furniture {
		fmt.Fprintf(&buf, "  %q [fillcolor=%q];\n", nodeID(f, i), fillFor(f))
	}
	for i, o := range l.Openings {
		fmt.Fprintf(&buf, "  \"%s %d\" [shape=ellipse, fillcolor=%q, fontsize=10];\n",
			o.Type, i+1, openingFill(o))
	}

	buf.WriteString("\n")
	for i, f := range l.Furniture {
		pair, ok := r.PairFor(f.Category)
		if !ok {
			continue
		}
		j := nearestOfCategory(l, f, pair.Parent)
		if j < 0 {
			continue
		}
		parent := l.Furniture[j]
		dist := geo.Distance(f.Center(), parent.Center())
		reach := pair.MaxDistance + maxDim(parent)
		color := "forestgreen"
		if dist > reach {
			color = "red"
		}
		fmt.Fprintf(&buf, "  %q -- %q [label=\"%.0fcm\", color=%s, fontsize=10];\n",
			nodeID(f, i), nodeID(parent, j), dist, color)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// GraphSVG renders a DOT graph to SVG in-process.
func GraphSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// nodeID builds a stable node identifier. Duplicate names get an index
// suffix so each instance stays distinct.
func nodeID(f layout.FurnitureItem, i int) string {
	return fmt.Sprintf("%s #%d", f.Name, i+1)
}

func openingFill(o layout.Opening) string {
	if o.Type == layout.OpeningWindow {
		return windowColor
	}
	return doorColor
}

func maxDim(f layout.FurnitureItem) float64 {
	if f.Width > f.Height {
		return f.Width
	}
	return f.Height
}

// nearestOfCategory returns the index of the closest item of the wanted
// category, or -1 when none exists.
func nearestOfCategory(l layout.Layout, from layout.FurnitureItem, want layout.Category) int {
	best := -1
	bestDist := 0.0
	c := from.Center()
	for i, f := range l.Furniture {
		if f.Category != want {
			continue
		}
		d := geo.Distance(c, f.Center())
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the Graphviz SVG header so the viewBox starts at
// origin and pixel dimensions match it.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
