package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/HDA-AWA/roomplan/pkg/pipeline"
)

func TestWriteArtifactsSingle(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "plan.svg")

	err := writeArtifacts(artifactWriteParams{
		artifacts: map[string][]byte{pipeline.FormatSVG: []byte("<svg/>")},
		formats:   []string{pipeline.FormatSVG},
		input:     "room.json",
		output:    out,
	})
	if err != nil {
		t.Fatalf("writeArtifacts error: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "<svg/>" {
		t.Errorf("output content = %q", data)
	}
}

func TestWriteArtifactsMultiple(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "plan")

	err := writeArtifacts(artifactWriteParams{
		artifacts: map[string][]byte{
			pipeline.FormatSVG:    []byte("<svg/>"),
			pipeline.FormatReport: []byte("ok"),
			pipeline.FormatGraph:  []byte("<svg class=g/>"),
		},
		formats: []string{pipeline.FormatSVG, pipeline.FormatReport, pipeline.FormatGraph},
		input:   "room.json",
		output:  base,
	})
	if err != nil {
		t.Fatalf("writeArtifacts error: %v", err)
	}

	// The graph gets a compound extension so it does not clobber the plan.
	for _, name := range []string{"plan.svg", "plan.txt", "plan.graph.svg"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}
}

func TestWriteArtifactsDefaultBase(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "room.json")

	err := writeArtifacts(artifactWriteParams{
		artifacts: map[string][]byte{pipeline.FormatReport: []byte("ok")},
		formats:   []string{pipeline.FormatReport},
		input:     input,
	})
	if err != nil {
		t.Fatalf("writeArtifacts error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "room.txt")); err != nil {
		t.Errorf("missing artifact room.txt: %v", err)
	}
}

func TestWriteArtifactsNeverClobbersInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "room.json")
	if err := os.WriteFile(input, []byte(`{"room":{}}`), 0644); err != nil {
		t.Fatal(err)
	}

	err := writeArtifacts(artifactWriteParams{
		artifacts: map[string][]byte{pipeline.FormatJSON: []byte(`{"optimized":true}`)},
		formats:   []string{pipeline.FormatJSON},
		input:     input,
	})
	if err != nil {
		t.Fatalf("writeArtifacts error: %v", err)
	}

	data, err := os.ReadFile(input)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"room":{}}` {
		t.Errorf("input was overwritten: %q", data)
	}
	if _, err := os.Stat(filepath.Join(dir, "room.out.json")); err != nil {
		t.Errorf("missing artifact room.out.json: %v", err)
	}
}

func TestDefaultArtifactPath(t *testing.T) {
	if got := defaultArtifactPath("room.json", "", pipeline.FormatJSON); got != "room.out.json" {
		t.Errorf("defaultArtifactPath = %q", got)
	}
	if got := defaultArtifactPath("room.json", "", pipeline.FormatSVG); got != "room.svg" {
		t.Errorf("defaultArtifactPath svg = %q", got)
	}
	if got := defaultArtifactPath("room.json", "out.json", pipeline.FormatJSON); got != "out.json" {
		t.Errorf("defaultArtifactPath with output = %q", got)
	}
}
