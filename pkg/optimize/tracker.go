package optimize

import (
	"fmt"

	"github.com/HDA-AWA/roomplan/pkg/geo"
	"github.com/HDA-AWA/roomplan/pkg/layout"
	"github.com/HDA-AWA/roomplan/pkg/validate"
)

// Tracker records the findings before and after a search so callers can show
// what the optimizer fixed and what remains.
type Tracker struct {
	Initial []validate.Violation
	Final   []validate.Violation
}

// Summary is the before/after comparison of a search.
type Summary struct {
	InitialCount int                  `json:"initialCount"`
	FinalCount   int                  `json:"finalCount"`
	FixedCount   int                  `json:"fixedCount"`
	Improvement  int                  `json:"improvement"`
	Fixed        []validate.Violation `json:"fixed,omitempty"`
	Remaining    []validate.Violation `json:"remaining,omitempty"`
}

// SetInitial stores the pre-search findings.
func (t *Tracker) SetInitial(v []validate.Violation) {
	t.Initial = v
}

// Finalize stores the post-search findings and returns the comparison.
// A finding counts as fixed when no identical finding survives.
func (t *Tracker) Finalize(v []validate.Violation) Summary {
	t.Final = v
	finalSet := make(map[validate.Violation]bool, len(v))
	for _, viol := range v {
		finalSet[viol] = true
	}
	var fixed []validate.Violation
	for _, viol := range t.Initial {
		if !finalSet[viol] {
			fixed = append(fixed, viol)
		}
	}
	return Summary{
		InitialCount: len(t.Initial),
		FinalCount:   len(t.Final),
		FixedCount:   len(fixed),
		Improvement:  len(t.Initial) - len(t.Final),
		Fixed:        fixed,
		Remaining:    t.Final,
	}
}

// Buckets groups the tracked findings for UI display.
type Buckets struct {
	Initial   validate.Report `json:"initial"`
	Fixed     validate.Report `json:"fixed"`
	Remaining validate.Report `json:"remaining"`
}

// Categorized buckets the initial, fixed, and remaining findings.
func (t *Tracker) Categorized() Buckets {
	finalSet := make(map[validate.Violation]bool, len(t.Final))
	for _, viol := range t.Final {
		finalSet[viol] = true
	}
	var fixed []validate.Violation
	for _, viol := range t.Initial {
		if !finalSet[viol] {
			fixed = append(fixed, viol)
		}
	}
	return Buckets{
		Initial:   validate.BuildReport(t.Initial),
		Fixed:     validate.BuildReport(fixed),
		Remaining: validate.BuildReport(t.Final),
	}
}

// =============================================================================
// Unplaced analysis
// =============================================================================

// Unplaced describes an input item the search could not place, with a hint
// about why.
type Unplaced struct {
	Item   layout.FurnitureItem `json:"item"`
	Reason string               `json:"reason"`
}

// analyzeUnplaced diffs the input furniture against the best candidate and
// explains the leftovers. Items are matched by name and footprint so
// duplicates are handled per instance.
func analyzeUnplaced(in, best layout.Layout) []Unplaced {
	type key struct {
		name string
		w, h float64
	}
	placed := make(map[key]int)
	for _, f := range best.Furniture {
		placed[key{f.Name, f.Width, f.Height}]++
	}

	roomArea := in.Room.Width * in.Room.Height
	var usedArea float64
	for _, f := range best.Furniture {
		usedArea += geo.Area(f.Polygon())
	}
	free := roomArea - usedArea

	var out []Unplaced
	for _, f := range in.Furniture {
		k := key{f.Name, f.Width, f.Height}
		if placed[k] > 0 {
			placed[k]--
			continue
		}
		area := f.Width * f.Height
		var reason string
		switch {
		case area > free:
			reason = fmt.Sprintf("footprint %.0f×%.0fcm exceeds the remaining %.1fm² of floor",
				f.Width, f.Height, free/10000)
		case f.Width > in.Room.Width || f.Height > in.Room.Height:
			reason = fmt.Sprintf("footprint %.0f×%.0fcm does not fit the %.0f×%.0fcm room",
				f.Width, f.Height, in.Room.Width, in.Room.Height)
		default:
			reason = "no position satisfies the clearance and corridor constraints; " +
				"consider a smaller item or fewer pieces"
		}
		out = append(out, Unplaced{Item: f, Reason: reason})
	}
	return out
}
