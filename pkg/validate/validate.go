// Package validate checks layouts against the wheelchair-accessibility rule
// set and scores the findings.
//
// Validation is pure: it never mutates the layout and the same layout with
// the same rules always yields the same violations in the same order. The
// ten checks run in a fixed sequence from most to least severe, and every
// finding carries an explicit category and severity so downstream code never
// has to parse messages.
package validate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/paulmach/orb"

	"github.com/HDA-AWA/roomplan/pkg/geo"
	"github.com/HDA-AWA/roomplan/pkg/layout"
	"github.com/HDA-AWA/roomplan/pkg/rules"
)

// =============================================================================
// Violation
// =============================================================================

// Category identifies which check produced a violation.
type Category string

// Violation categories, one per check.
const (
	CategoryOverlap       Category = "overlap"
	CategoryClearance     Category = "clearance"
	CategoryTurning       Category = "turning"
	CategoryDoorSwing     Category = "door_swing"
	CategoryEmergencyPath Category = "emergency_path"
	CategoryBedClearance  Category = "bed_clearance"
	CategoryPaired        Category = "paired"
	CategoryWindow        Category = "window"
	CategoryCirculation   Category = "circulation"
	CategoryWallAdjacency Category = "wall_adjacency"
)

// Severity grades a violation.
type Severity string

// Severities.
const (
	SeverityCritical  Severity = "critical"
	SeverityViolation Severity = "violation"
	SeverityAdvisory  Severity = "advisory"
)

// Violation is one finding: a tagged category, a severity, and a
// human-readable message naming the items involved.
type Violation struct {
	Category Category `json:"category" bson:"category"`
	Severity Severity `json:"severity" bson:"severity"`
	Message  string   `json:"message" bson:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("[%s/%s] %s", v.Category, v.Severity, v.Message)
}

// Weight returns the score contribution of a violation. Overlaps dominate,
// safety issues come next, then usability, then everything else.
func Weight(v Violation) int {
	switch v.Category {
	case CategoryOverlap:
		return 10
	case CategoryDoorSwing, CategoryEmergencyPath:
		return 5
	case CategoryPaired, CategoryWindow:
		if v.Severity == SeverityViolation {
			return 3
		}
		return 1
	case CategoryTurning:
		return 2
	default:
		return 1
	}
}

// =============================================================================
// Validator
// =============================================================================

// Validator runs the accessibility checks with a fixed rule set.
type Validator struct {
	rules rules.Rules
}

// New returns a Validator using the given rules.
func New(r rules.Rules) *Validator {
	return &Validator{rules: r}
}

// Validate runs all checks in order and returns the findings.
func (v *Validator) Validate(l layout.Layout) []Violation {
	var out []Violation
	out = append(out, v.checkOverlaps(l)...)
	out = append(out, v.checkClearances(l)...)
	out = append(out, v.checkTurningSpace(l)...)
	out = append(out, v.checkDoorSwing(l)...)
	out = append(out, v.checkEmergencyPath(l)...)
	out = append(out, v.checkBedClearance(l)...)
	out = append(out, v.checkPairedFurniture(l)...)
	out = append(out, v.checkWindowBlocking(l)...)
	out = append(out, v.checkCirculation(l)...)
	out = append(out, v.checkWallAdjacency(l)...)
	return out
}

// Score returns the weighted violation total for a layout. Lower is better;
// zero means fully compliant.
func (v *Validator) Score(l layout.Layout) int {
	return ScoreViolations(v.Validate(l))
}

// ScoreViolations sums the weights of an existing finding list.
func ScoreViolations(violations []Violation) int {
	score := 0
	for _, viol := range violations {
		score += Weight(viol)
	}
	return score
}

// =============================================================================
// Report
// =============================================================================

// Report groups the findings for presentation.
type Report struct {
	Total         int         `json:"total" bson:"total"`
	Score         int         `json:"score" bson:"score"`
	Critical      []Violation `json:"critical,omitempty" bson:"critical,omitempty"`
	Accessibility []Violation `json:"accessibility,omitempty" bson:"accessibility,omitempty"`
	Safety        []Violation `json:"safety,omitempty" bson:"safety,omitempty"`
	Usability     []Violation `json:"usability,omitempty" bson:"usability,omitempty"`
	Other         []Violation `json:"other,omitempty" bson:"other,omitempty"`
}

// Report validates the layout and buckets the findings by category.
func (v *Validator) Report(l layout.Layout) Report {
	return BuildReport(v.Validate(l))
}

// BuildReport buckets an existing finding list.
func BuildReport(violations []Violation) Report {
	r := Report{
		Total: len(violations),
		Score: ScoreViolations(violations),
	}
	for _, viol := range violations {
		switch viol.Category {
		case CategoryOverlap:
			r.Critical = append(r.Critical, viol)
		case CategoryTurning, CategoryClearance, CategoryBedClearance:
			r.Accessibility = append(r.Accessibility, viol)
		case CategoryDoorSwing, CategoryEmergencyPath:
			r.Safety = append(r.Safety, viol)
		case CategoryPaired, CategoryWindow:
			r.Usability = append(r.Usability, viol)
		default:
			r.Other = append(r.Other, viol)
		}
	}
	return r
}

// =============================================================================
// Check 1: overlaps
// =============================================================================

func (v *Validator) checkOverlaps(l layout.Layout) []Violation {
	var out []Violation
	polys := make([]orb.Ring, len(l.Furniture))
	for i, f := range l.Furniture {
		polys[i] = f.Polygon()
	}
	for i := range l.Furniture {
		for j := i + 1; j < len(l.Furniture); j++ {
			if !geo.Intersects(polys[i], polys[j]) {
				continue
			}
			area := geo.IntersectionArea(polys[i], polys[j])
			out = append(out, Violation{
				Category: CategoryOverlap,
				Severity: SeverityCritical,
				Message: fmt.Sprintf("%s overlaps %s (area: %.0fcm²)",
					l.Furniture[i].Name, l.Furniture[j].Name, area),
			})
		}
	}
	return out
}

// =============================================================================
// Check 2: clearances
// =============================================================================

// clearanceCategories are the items that need an accessible approach.
var clearanceCategories = map[layout.Category]bool{
	layout.CategoryBed:      true,
	layout.CategoryWardrobe: true,
	layout.CategorySofa:     true,
	layout.CategoryTable:    true,
}

func (v *Validator) checkClearances(l layout.Layout) []Violation {
	var out []Violation
	roomRing := l.Room.Ring()
	for _, item := range l.Furniture {
		if !clearanceCategories[item.Category] {
			continue
		}
		zone := v.clearanceZone(item)
		for _, other := range l.Furniture {
			if other.Name == item.Name {
				continue
			}
			// Paired furniture may sit inside its parent's approach zone.
			if p, ok := v.rules.PairFor(other.Category); ok && p.Parent == item.Category {
				continue
			}
			if geo.Intersects(zone, other.Polygon()) {
				out = append(out, Violation{
					Category: CategoryClearance,
					Severity: SeverityViolation,
					Message: fmt.Sprintf("%s needs %.0fcm clearance, blocked by %s",
						item.Name, v.rules.Clearance, other.Name),
				})
			}
		}
		zoneArea := geo.Area(zone)
		outside := zoneArea - geo.IntersectionArea(zone, roomRing)
		if outside > zoneArea*v.rules.ClearanceOutsideFrac {
			out = append(out, Violation{
				Category: CategoryClearance,
				Severity: SeverityAdvisory,
				Message: fmt.Sprintf("%s clearance extends significantly outside room",
					item.Name),
			})
		}
	}
	return out
}

// clearanceZone returns the approach zone for an item. Beds need both long
// sides; everything else needs the side the rotation faces. Zones are
// computed from the rotated envelope so 90/270 poses get the right strip.
func (v *Validator) clearanceZone(item layout.FurnitureItem) orb.Ring {
	env := item.Envelope()
	c := v.rules.Clearance
	minX, minY := env.Min.X(), env.Min.Y()
	maxX, maxY := env.Max.X(), env.Max.Y()
	if item.Category == layout.CategoryBed {
		if item.Rotation == 0 || item.Rotation == 180 {
			return geo.Box(minX-c, minY, maxX+c, maxY)
		}
		return geo.Box(minX, minY-c, maxX, maxY+c)
	}
	switch item.Rotation {
	case 90:
		return geo.Box(minX-c, minY, minX, maxY)
	case 180:
		return geo.Box(minX, minY-c, maxX, minY)
	case 270:
		return geo.Box(maxX, minY, maxX+c, maxY)
	default:
		return geo.Box(minX, maxY, maxX, maxY+c)
	}
}

// =============================================================================
// Check 3: turning space
// =============================================================================

func (v *Validator) checkTurningSpace(l layout.Layout) []Violation {
	size, step := v.rules.TurningSize, v.rules.TurningStep
	polys := make([]orb.Ring, len(l.Furniture))
	for i, f := range l.Furniture {
		polys[i] = f.Polygon()
	}
	valid := 0
	for x := 0.0; x <= l.Room.Width-size; x += step {
		for y := 0.0; y <= l.Room.Height-size; y += step {
			zone := geo.Box(x, y, x+size, y+size)
			clear := true
			for _, p := range polys {
				if geo.Intersects(zone, p) {
					clear = false
					break
				}
			}
			if clear {
				valid++
			}
		}
	}
	switch {
	case valid == 0:
		return []Violation{{
			Category: CategoryTurning,
			Severity: SeverityViolation,
			Message: fmt.Sprintf("no %.0f×%.0fcm turning space available for wheelchair",
				size, size),
		}}
	case valid == 1:
		return []Violation{{
			Category: CategoryTurning,
			Severity: SeverityAdvisory,
			Message:  "only one turning space available, recommend at least two",
		}}
	}
	return nil
}

// =============================================================================
// Check 4: door swing
// =============================================================================

// SwingZone returns the quarter-ish disc swept by a door, clipped to the
// room-side strip along the door's wall. Exported for rendering.
func SwingZone(o layout.Opening, room layout.Room, radius float64) orb.Ring {
	center := o.Center(room)
	disc := geo.Circle(center, radius)
	var strip orb.Ring
	switch o.Wall {
	case layout.WallTop:
		strip = geo.Box(0, 0, room.Width, radius)
	case layout.WallBottom:
		strip = geo.Box(0, room.Height-radius, room.Width, room.Height)
	case layout.WallLeft:
		strip = geo.Box(0, 0, radius, room.Height)
	default:
		strip = geo.Box(room.Width-radius, 0, room.Width, room.Height)
	}
	return geo.Clip(disc, strip)
}

func (v *Validator) checkDoorSwing(l layout.Layout) []Violation {
	var out []Violation
	for _, o := range l.Openings {
		if o.Type != layout.OpeningDoor {
			continue
		}
		zone := SwingZone(o, l.Room, v.rules.DoorSwingRadius)
		var blockers []string
		for _, item := range l.Furniture {
			if geo.Intersects(zone, item.Polygon()) {
				blockers = append(blockers, item.Name)
			}
		}
		if len(blockers) > 0 {
			out = append(out, Violation{
				Category: CategoryDoorSwing,
				Severity: SeverityViolation,
				Message:  "door swing blocked by " + strings.Join(blockers, ", "),
			})
		}
	}
	return out
}

// =============================================================================
// Check 5: emergency path
// =============================================================================

func (v *Validator) checkEmergencyPath(l layout.Layout) []Violation {
	bed := l.FirstByCategory(layout.CategoryBed)
	door := l.Door()
	if bed == nil || door == nil {
		return nil
	}
	from := geo.Centroid(bed.Polygon())
	to := door.Center(l.Room)
	path := geo.BufferSegment(from, to, v.rules.EmergencyPathWidth/2)

	var blockers []string
	for _, item := range l.Furniture {
		// The bed anchors the path and its paired furniture has to hug it.
		if v.rules.PathExempt(item.Category) {
			continue
		}
		if geo.Intersects(path, item.Polygon()) {
			blockers = append(blockers, item.Name)
		}
	}
	if len(blockers) > 0 {
		return []Violation{{
			Category: CategoryEmergencyPath,
			Severity: SeverityViolation,
			Message:  "path from bed to door blocked by " + strings.Join(blockers, ", "),
		}}
	}
	return nil
}

// =============================================================================
// Check 6: bed clearance
// =============================================================================

func (v *Validator) checkBedClearance(l layout.Layout) []Violation {
	bed := l.FirstByCategory(layout.CategoryBed)
	if bed == nil {
		return nil
	}
	c := v.rules.BedSideClearance
	env := bed.Envelope()
	minX, minY := env.Min.X(), env.Min.Y()
	maxX, maxY := env.Max.X(), env.Max.Y()

	var sides []orb.Ring
	if bed.Rotation == 0 || bed.Rotation == 180 {
		sides = []orb.Ring{
			geo.Box(minX-c, minY, minX, maxY),
			geo.Box(maxX, minY, maxX+c, maxY),
		}
	} else {
		sides = []orb.Ring{
			geo.Box(minX, minY-c, maxX, minY),
			geo.Box(minX, maxY, maxX, maxY+c),
		}
	}

	roomBound := l.Room.Bound()
	available := 0
	for _, zone := range sides {
		// A side only counts if the full transfer zone fits inside the room.
		if !geo.InBound(zone, roomBound) {
			continue
		}
		blocked := false
		for _, item := range l.Furniture {
			if item.Category == layout.CategoryBed || v.rules.PathExempt(item.Category) {
				continue
			}
			if geo.Intersects(zone, item.Polygon()) {
				blocked = true
				break
			}
		}
		if !blocked {
			available++
		}
	}
	if available == 0 {
		return []Violation{{
			Category: CategoryBedClearance,
			Severity: SeverityViolation,
			Message: fmt.Sprintf("no long side of %s has the required %.0fcm clearance",
				bed.Name, c),
		}}
	}
	// One clear side is acceptable.
	return nil
}

// =============================================================================
// Check 7: paired furniture
// =============================================================================

func (v *Validator) checkPairedFurniture(l layout.Layout) []Violation {
	var out []Violation
	children := make([]layout.Category, 0, len(v.rules.Pairs))
	for c := range v.rules.Pairs {
		children = append(children, c)
	}
	sort.Slice(children, func(i, j int) bool { return children[i] < children[j] })

	for _, childCat := range children {
		pair := v.rules.Pairs[childCat]
		child := l.FirstByCategory(childCat)
		parent := l.FirstByCategory(pair.Parent)
		if child == nil || parent == nil {
			continue
		}
		dist := geo.Distance(child.Center(), parent.Center())
		effectiveMax := pair.MaxDistance + math.Max(parent.Width, parent.Height)
		if dist > effectiveMax {
			out = append(out, Violation{
				Category: CategoryPaired,
				Severity: SeverityViolation,
				Message: fmt.Sprintf("%s too far from %s (%.0fcm, max %.0fcm)",
					child.Name, parent.Name, dist, effectiveMax),
			})
		}
		// A chair at its table must face the same way.
		if childCat == layout.CategoryChair && pair.Parent == layout.CategoryTable {
			diff := child.Rotation - parent.Rotation
			if diff < 0 {
				diff = -diff
			}
			if diff > 45 {
				out = append(out, Violation{
					Category: CategoryPaired,
					Severity: SeverityAdvisory,
					Message: fmt.Sprintf("%s not oriented to %s",
						child.Name, parent.Name),
				})
			}
		}
	}
	return out
}

// =============================================================================
// Check 8: window blocking
// =============================================================================

// WindowZone returns the keep-clear strip in front of a window. Exported for
// rendering and placement.
func WindowZone(o layout.Opening, room layout.Room, depth float64) orb.Ring {
	switch o.Wall {
	case layout.WallTop:
		return geo.Box(o.Position, 0, o.Position+o.Size, depth)
	case layout.WallBottom:
		return geo.Box(o.Position, room.Height-depth, o.Position+o.Size, room.Height)
	case layout.WallLeft:
		return geo.Box(0, o.Position, depth, o.Position+o.Size)
	default:
		return geo.Box(room.Width-depth, o.Position, room.Width, o.Position+o.Size)
	}
}

func (v *Validator) checkWindowBlocking(l layout.Layout) []Violation {
	var out []Violation
	for _, w := range l.Windows() {
		zone := WindowZone(w, l.Room, v.rules.WindowZoneDepth)
		zoneArea := geo.Area(zone)
		var severe, partial []string
		for _, item := range l.Furniture {
			// A table under the window is fine.
			if item.Category == layout.CategoryTable {
				continue
			}
			poly := item.Polygon()
			if !geo.Intersects(zone, poly) {
				continue
			}
			if geo.IntersectionArea(zone, poly) <= zoneArea*v.rules.WindowBlockFrac {
				continue
			}
			if item.Category == layout.CategoryWardrobe {
				severe = append(severe, item.Name)
			} else {
				partial = append(partial, item.Name)
			}
		}
		if len(severe) > 0 {
			out = append(out, Violation{
				Category: CategoryWindow,
				Severity: SeverityViolation,
				Message: strings.Join(severe, ", ") +
					" blocking window (reduces natural light)",
			})
		} else if len(partial) > 0 {
			out = append(out, Violation{
				Category: CategoryWindow,
				Severity: SeverityAdvisory,
				Message:  strings.Join(partial, ", ") + " partially blocking window",
			})
		}
	}
	return out
}

// =============================================================================
// Check 9: circulation
// =============================================================================

func (v *Validator) checkCirculation(l layout.Layout) []Violation {
	var out []Violation
	width := v.rules.PassageWidth
	spacing := v.rules.PassageSpacing
	polys := make([]orb.Ring, len(l.Furniture))
	for i, f := range l.Furniture {
		polys[i] = f.Polygon()
	}

	blockedAlong := func(horizontal bool) (blocked, total int) {
		span := l.Room.Height
		length := l.Room.Width
		if !horizontal {
			span, length = length, span
		}
		for c := width; c < span-width; c += spacing {
			var passage orb.Ring
			if horizontal {
				passage = geo.Box(0, c-width/2, length, c+width/2)
			} else {
				passage = geo.Box(c-width/2, 0, c+width/2, length)
			}
			total++
			for _, p := range polys {
				if !geo.Intersects(passage, p) {
					continue
				}
				clip := geo.Clip(passage, p)
				reach := geo.SpanX(clip)
				if !horizontal {
					reach = geo.SpanY(clip)
				}
				if reach > length*v.rules.PassageBlockFrac {
					blocked++
					break
				}
			}
		}
		return blocked, total
	}

	if b, t := blockedAlong(true); t > 0 && float64(b)/float64(t) > v.rules.CirculationBlockFrac {
		out = append(out, Violation{
			Category: CategoryCirculation,
			Severity: SeverityViolation,
			Message:  "limited horizontal movement through room",
		})
	}
	if b, t := blockedAlong(false); t > 0 && float64(b)/float64(t) > v.rules.CirculationBlockFrac {
		out = append(out, Violation{
			Category: CategoryCirculation,
			Severity: SeverityViolation,
			Message:  "limited vertical movement through room",
		})
	}
	return out
}

// =============================================================================
// Check 10: wall adjacency
// =============================================================================

// wallCategories are the large items expected against a wall.
var wallCategories = map[layout.Category]bool{
	layout.CategoryBed:      true,
	layout.CategoryWardrobe: true,
	layout.CategorySofa:     true,
	layout.CategoryTable:    true,
}

func (v *Validator) checkWallAdjacency(l layout.Layout) []Violation {
	var out []Violation
	for _, item := range l.Furniture {
		if !wallCategories[item.Category] {
			continue
		}
		env := item.Envelope()
		min := env.Min.X()
		for _, d := range []float64{
			env.Min.Y(),
			l.Room.Height - env.Max.Y(),
			l.Room.Width - env.Max.X(),
		} {
			if d < min {
				min = d
			}
		}
		if min <= v.rules.WallDistance {
			continue
		}
		// Beds may float a little further out in spacious layouts.
		if item.Category == layout.CategoryBed && min < v.rules.BedWallDistance {
			continue
		}
		out = append(out, Violation{
			Category: CategoryWallAdjacency,
			Severity: SeverityViolation,
			Message:  fmt.Sprintf("%s too far from walls (%.0fcm)", item.Name, min),
		})
	}
	return out
}
