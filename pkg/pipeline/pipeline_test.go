package pipeline

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/HDA-AWA/roomplan/pkg/cache"
	"github.com/HDA-AWA/roomplan/pkg/layout"
	"github.com/HDA-AWA/roomplan/pkg/rules"
	"github.com/HDA-AWA/roomplan/pkg/validate"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"svg", false},
		{"png", false},
		{"report", false},
		{"graph", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Valid options should pass: %v", err)
	}

	if opts.Attempts != DefaultAttempts {
		t.Errorf("Attempts should be %d, got %d", DefaultAttempts, opts.Attempts)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatJSON {
		t.Errorf("Formats should default to json, got %v", opts.Formats)
	}
	if opts.Rules.Clearance == 0 {
		t.Error("Rules should default to the built-in set")
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discarding logger")
	}

	// Invalid values are rejected
	bad := Options{Attempts: -1}
	if err := bad.ValidateAndSetDefaults(); err == nil {
		t.Error("Negative attempts should fail")
	}
	bad = Options{Formats: []string{"gif"}}
	if err := bad.ValidateAndSetDefaults(); err == nil {
		t.Error("Unknown format should fail")
	}
}

func TestRulesHashStable(t *testing.T) {
	a := Options{}
	b := Options{}
	if err := a.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if err := b.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if a.RulesHash() != b.RulesHash() {
		t.Error("Identical rule sets should hash identically")
	}
}

func pipelineInput() layout.Layout {
	return layout.Layout{
		Room: layout.Room{Width: 400, Height: 350},
		Furniture: []layout.FurnitureItem{
			layout.NewItem("Bed", 140, 200),
			layout.NewItem("Wardrobe", 120, 60),
		},
		Openings: []layout.Opening{
			{Type: layout.OpeningDoor, Wall: layout.WallBottom, Position: 150, Size: 90},
		},
	}
}

func TestExecute(t *testing.T) {
	runner := NewRunner(cache.NewNullCache(), nil, nil)
	defer runner.Close()

	res, err := runner.Execute(context.Background(), pipelineInput(), Options{
		Attempts: 20,
		Formats:  []string{FormatJSON, FormatReport, FormatSVG},
	})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	if res.Placed != 2 || res.Total != 2 {
		t.Errorf("Placed/Total = %d/%d, want 2/2", res.Placed, res.Total)
	}
	if res.LayoutHash == "" {
		t.Error("LayoutHash should be set")
	}
	if len(res.Artifacts) != 3 {
		t.Errorf("Artifacts = %d, want 3", len(res.Artifacts))
	}
	if !strings.Contains(string(res.Artifacts[FormatSVG]), "<svg") {
		t.Error("svg artifact should be an SVG document")
	}

	// Round-trip the JSON artifact
	parsed, err := layout.ReadLayout(strings.NewReader(string(res.Artifacts[FormatJSON])))
	if err != nil {
		t.Fatalf("json artifact should parse: %v", err)
	}
	if len(parsed.Furniture) != 2 {
		t.Errorf("json artifact has %d items, want 2", len(parsed.Furniture))
	}

	// With a null cache nothing hits
	if res.CacheInfo.OptimizeHit || res.CacheInfo.ValidateHit || res.CacheInfo.RenderHit {
		t.Errorf("NullCache should never hit: %+v", res.CacheInfo)
	}
}

func TestExecuteCaching(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(fc, nil, nil)
	defer runner.Close()

	opts := Options{Attempts: 20, Formats: []string{FormatJSON}}
	first, err := runner.Execute(context.Background(), pipelineInput(), opts)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if first.CacheInfo.OptimizeHit {
		t.Error("First run should not hit the cache")
	}

	second, err := runner.Execute(context.Background(), pipelineInput(), Options{Attempts: 20, Formats: []string{FormatJSON}})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if !second.CacheInfo.OptimizeHit || !second.CacheInfo.ValidateHit || !second.CacheInfo.RenderHit {
		t.Errorf("Second run should hit all stages: %+v", second.CacheInfo)
	}
	if second.LayoutHash != first.LayoutHash {
		t.Error("Cached run should reproduce the same layout")
	}
	if second.Report.Score != first.Report.Score {
		t.Error("Cached run should reproduce the same report")
	}

	// Different attempt budget keys a fresh search
	third, err := runner.Execute(context.Background(), pipelineInput(), Options{Attempts: 30, Formats: []string{FormatJSON}})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if third.CacheInfo.OptimizeHit {
		t.Error("Changed attempts should miss the search cache")
	}
}

func TestRenderCacheKeyedByRules(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(fc, nil, nil)
	defer runner.Close()

	l := pipelineInput()
	ctx := context.Background()

	first, hit, err := runner.RenderWithCacheInfo(ctx, l, validate.Report{}, Options{
		Formats:   []string{FormatSVG},
		ShowZones: true,
	})
	if err != nil {
		t.Fatalf("RenderWithCacheInfo error: %v", err)
	}
	if hit {
		t.Error("First render should not hit the cache")
	}

	// A different door swing radius changes the drawn zone, so the cached
	// artifact must not be served.
	wide := rules.Default()
	wide.DoorSwingRadius = 150
	second, hit, err := runner.RenderWithCacheInfo(ctx, l, validate.Report{}, Options{
		Formats:   []string{FormatSVG},
		ShowZones: true,
		Rules:     wide,
	})
	if err != nil {
		t.Fatalf("RenderWithCacheInfo error: %v", err)
	}
	if hit {
		t.Error("Changed rules should miss the artifact cache")
	}
	if bytes.Equal(first[FormatSVG], second[FormatSVG]) {
		t.Error("Wider door swing should change the rendered SVG")
	}

	// Same rules again is a hit.
	_, hit, err = runner.RenderWithCacheInfo(ctx, l, validate.Report{}, Options{
		Formats:   []string{FormatSVG},
		ShowZones: true,
		Rules:     wide,
	})
	if err != nil {
		t.Fatalf("RenderWithCacheInfo error: %v", err)
	}
	if !hit {
		t.Error("Unchanged rules should hit the artifact cache")
	}
}

func TestExecuteNoCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(fc, nil, nil)
	defer runner.Close()

	opts := Options{Attempts: 20, Formats: []string{FormatJSON}, NoCache: true}
	if _, err := runner.Execute(context.Background(), pipelineInput(), opts); err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	res, err := runner.Execute(context.Background(), pipelineInput(), Options{Attempts: 20, Formats: []string{FormatJSON}, NoCache: true})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if res.CacheInfo.OptimizeHit || res.CacheInfo.ValidateHit || res.CacheInfo.RenderHit {
		t.Errorf("NoCache should bypass the cache: %+v", res.CacheInfo)
	}
}

func TestValidateStage(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	defer runner.Close()

	// An empty room validates clean except for the missing-furniture checks.
	report, err := runner.Validate(context.Background(), layout.Layout{
		Room: layout.Room{Width: 400, Height: 350},
		Openings: []layout.Opening{
			{Type: layout.OpeningDoor, Wall: layout.WallBottom, Position: 150, Size: 90},
		},
	}, Options{})
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if report.Total != 0 {
		t.Errorf("Empty room should be compliant, got %d findings", report.Total)
	}
}
