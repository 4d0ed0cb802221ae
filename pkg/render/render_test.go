package render

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/HDA-AWA/roomplan/pkg/layout"
	"github.com/HDA-AWA/roomplan/pkg/rules"
	"github.com/HDA-AWA/roomplan/pkg/validate"
)

func testLayout() layout.Layout {
	bed := layout.NewItem("Bed", 140, 200)
	bed.X, bed.Y = 20, 60
	bedside := layout.NewItem("Bedside Table", 40, 40)
	bedside.X, bedside.Y = 165, 200

	return layout.Layout{
		Room: layout.Room{Width: 400, Height: 350},
		Furniture: []layout.FurnitureItem{bed, bedside},
		Openings: []layout.Opening{
			{Type: layout.OpeningDoor, Wall: layout.WallBottom, Position: 150, Size: 90},
			{Type: layout.OpeningWindow, Wall: layout.WallTop, Position: 100, Size: 120},
		},
	}
}

func TestSVG(t *testing.T) {
	out := SVG(testLayout(), Options{})
	s := string(out)

	if !strings.Contains(s, "<svg") || !strings.Contains(s, "</svg>") {
		t.Fatal("output is not an SVG document")
	}
	for _, want := range []string{"Bed (0°)", "Bedside Table (0°)"} {
		if !strings.Contains(s, want) {
			t.Errorf("SVG missing label %q", want)
		}
	}

	// Zones appear only when requested
	if strings.Contains(s, "<polygon") {
		t.Error("zones should not be drawn by default")
	}
	withZones := string(SVG(testLayout(), Options{ShowZones: true}))
	if !strings.Contains(withZones, "<polygon") {
		t.Error("ShowZones should draw zone polygons")
	}
}

func TestSVGCanvasSize(t *testing.T) {
	l := testLayout()
	s := string(SVG(l, Options{Scale: 2}))
	// 400cm * 2 px/cm + 2*40 margin
	if !strings.Contains(s, `width="880"`) {
		t.Errorf("unexpected canvas width in: %.120s", s)
	}
	if !strings.Contains(s, `height="780"`) {
		t.Errorf("unexpected canvas height in: %.120s", s)
	}
}

func TestPNG(t *testing.T) {
	out, err := PNG(testLayout(), Options{Scale: 1})
	if err != nil {
		t.Fatalf("PNG error: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("\x89PNG")) {
		t.Error("output is not a PNG image")
	}
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, validate.Report{}); err != nil {
		t.Fatalf("WriteReport error: %v", err)
	}
	if !strings.Contains(buf.String(), "Compliant") {
		t.Errorf("empty report should be compliant: %q", buf.String())
	}

	rep := validate.BuildReport([]validate.Violation{
		{Category: validate.CategoryOverlap, Severity: validate.SeverityCritical, Message: "Bed overlaps Wardrobe"},
		{Category: validate.CategoryTurning, Severity: validate.SeverityViolation, Message: "no turning space"},
	})
	buf.Reset()
	if err := WriteReport(&buf, rep); err != nil {
		t.Fatalf("WriteReport error: %v", err)
	}
	s := buf.String()
	for _, want := range []string{"Found 2 issue(s)", "Critical (1):", "Accessibility (1):", "Bed overlaps Wardrobe"} {
		if !strings.Contains(s, want) {
			t.Errorf("report missing %q in:\n%s", want, s)
		}
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testLayout(), rules.Default())

	for _, want := range []string{"graph room", `"Bed #1"`, `"Bedside Table #2"`, `"door 1"`, `"window 2"`} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q in:\n%s", want, dot)
		}
	}

	// Bedside at 110cm from bed center, reach 50+200: edge is green.
	if !strings.Contains(dot, "color=forestgreen") {
		t.Errorf("pair edge should be within reach:\n%s", dot)
	}
}

func TestToDOTOutOfReach(t *testing.T) {
	l := testLayout()
	l.Furniture[1].X, l.Furniture[1].Y = 350, 300
	dot := ToDOT(l, rules.Default())
	if !strings.Contains(dot, "color=red") {
		t.Errorf("distant pair edge should be red:\n%s", dot)
	}
}

func TestGraphSVG(t *testing.T) {
	dot := ToDOT(testLayout(), rules.Default())
	out, err := GraphSVG(context.Background(), dot)
	if err != nil {
		t.Fatalf("GraphSVG error: %v", err)
	}
	if !bytes.Contains(out, []byte("<svg")) {
		t.Error("output is not an SVG document")
	}
}
