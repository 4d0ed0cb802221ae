package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/HDA-AWA/roomplan/pkg/layout"
	"github.com/HDA-AWA/roomplan/pkg/pipeline"
)

func writeTestLayout(t *testing.T, dir, name string) string {
	t.Helper()
	l := layout.Layout{
		Room: layout.Room{Width: 400, Height: 350},
		Furniture: []layout.FurnitureItem{
			layout.NewItem("Bed", 140, 200),
			layout.NewItem("Wardrobe", 120, 60),
		},
		Openings: []layout.Opening{
			{Type: layout.OpeningDoor, Wall: layout.WallBottom, Position: 150, Size: 90},
		},
	}
	path := filepath.Join(dir, name)
	if err := layout.WriteLayoutFile(l, path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunOptimize(t *testing.T) {
	dir := t.TempDir()
	input := writeTestLayout(t, dir, "room.json")
	output := filepath.Join(dir, "out.json")

	c := New(io.Discard, LogInfo)
	opts := pipeline.Options{Attempts: 20, Formats: []string{pipeline.FormatJSON}}

	if err := c.runOptimize(context.Background(), input, opts, output, true, false); err != nil {
		t.Fatalf("runOptimize error: %v", err)
	}

	result, err := layout.ReadLayoutFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(result.Furniture) != 2 {
		t.Errorf("output has %d items, want 2", len(result.Furniture))
	}
	for _, f := range result.Furniture {
		if !f.InBounds(result.Room) {
			t.Errorf("%s placed out of bounds", f.Name)
		}
	}
}

func TestRunOptimizeDir(t *testing.T) {
	dir := t.TempDir()
	writeTestLayout(t, dir, "a.json")
	writeTestLayout(t, dir, "b.json")

	c := New(io.Discard, LogInfo)
	opts := pipeline.Options{Attempts: 20, Formats: []string{pipeline.FormatReport}}

	if err := c.runOptimizeDir(context.Background(), dir, opts, true); err != nil {
		t.Fatalf("runOptimizeDir error: %v", err)
	}

	for _, name := range []string{"a.txt", "b.txt"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing report %s: %v", name, err)
		}
	}
}

func TestRunOptimizeMissingInput(t *testing.T) {
	c := New(io.Discard, LogInfo)
	opts := pipeline.Options{Attempts: 5}
	opts.Formats = []string{pipeline.FormatJSON}

	err := c.runOptimize(context.Background(), filepath.Join(t.TempDir(), "missing.json"), opts, "", true, false)
	if err == nil {
		t.Error("missing input should fail")
	}
}
