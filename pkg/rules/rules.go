// Package rules holds the accessibility rule set: the numeric thresholds the
// validator checks against and the paired-furniture configuration shared by
// validation and placement.
//
// A rule file is TOML; any omitted value falls back to its default, so a file
// can override a single threshold:
//
//	clearance = 120
//
//	[pairs.bedside]
//	parent = "bed"
//	max_distance = 60
//
// Defaults follow common wheelchair-accessibility guidance (DIN 18040 style
// dimensions): 150cm clearance and turning diameter, 90cm corridors.
package rules

import (
	"github.com/BurntSushi/toml"

	"github.com/HDA-AWA/roomplan/pkg/errors"
	"github.com/HDA-AWA/roomplan/pkg/layout"
)

// Pair configures a paired-furniture relationship: items of the child
// category must sit within MaxDistance of an item of the Parent category.
// The effective threshold adds the parent's largest dimension, so distance is
// measured center-to-center.
type Pair struct {
	Parent      layout.Category `toml:"parent"`
	MaxDistance float64         `toml:"max_distance"`
}

// Rules is the full threshold set. All lengths are centimeters.
type Rules struct {
	// Clearance is the accessible approach depth required in front of each
	// furniture item.
	Clearance float64 `toml:"clearance"`
	// ClearanceOutsideFrac is the fraction of a clearance zone allowed to
	// fall outside the room before the finding is only advisory.
	ClearanceOutsideFrac float64 `toml:"clearance_outside_frac"`

	// TurningSize is the side of the square wheelchair turning space.
	TurningSize float64 `toml:"turning_size"`
	// TurningStep is the scan step when searching for turning spaces.
	TurningStep float64 `toml:"turning_step"`

	// DoorSwingRadius is the quarter-circle swept by an opening door.
	DoorSwingRadius float64 `toml:"door_swing_radius"`

	// EmergencyPathWidth is the corridor width required from the bed to the
	// door.
	EmergencyPathWidth float64 `toml:"emergency_path_width"`

	// BedSideClearance is the transfer clearance required beside the bed.
	BedSideClearance float64 `toml:"bed_side_clearance"`

	// WindowZoneDepth is the depth of the keep-clear strip under a window;
	// WindowBlockFrac is the blocked-area fraction that raises a finding.
	WindowZoneDepth float64 `toml:"window_zone_depth"`
	WindowBlockFrac float64 `toml:"window_block_frac"`

	// PassageWidth and PassageSpacing parameterize the circulation scan:
	// passage strips of PassageWidth sampled every PassageSpacing.
	// PassageBlockFrac is the blocked fraction at which one strip counts as
	// blocked; CirculationBlockFrac is the fraction of blocked strips at
	// which a direction is reported.
	PassageWidth         float64 `toml:"passage_width"`
	PassageSpacing       float64 `toml:"passage_spacing"`
	PassageBlockFrac     float64 `toml:"passage_block_frac"`
	CirculationBlockFrac float64 `toml:"circulation_block_frac"`

	// WallDistance is how close large furniture must sit to a wall.
	// BedWallDistance is the looser threshold tolerated for beds.
	WallDistance    float64 `toml:"wall_distance"`
	BedWallDistance float64 `toml:"bed_wall_distance"`

	// DoorCorridor is the half-width of the keep-clear corridor in front of
	// the door used during placement.
	DoorCorridor float64 `toml:"door_corridor"`

	// WallMargin is the gap placement leaves between furniture and walls;
	// PlacementGap the gap between items; ChairGap the chair-to-table gap.
	WallMargin   float64 `toml:"wall_margin"`
	PlacementGap float64 `toml:"placement_gap"`
	ChairGap     float64 `toml:"chair_gap"`

	// Pairs maps a child category to its pairing rule. Categories that
	// appear here are exempt from the emergency-path and door-corridor
	// checks when the bed itself is.
	Pairs map[layout.Category]Pair `toml:"pairs"`
}

// Default returns the built-in rule set.
func Default() Rules {
	return Rules{
		Clearance:            150,
		ClearanceOutsideFrac: 0.3,
		TurningSize:          150,
		TurningStep:          25,
		DoorSwingRadius:      90,
		EmergencyPathWidth:   90,
		BedSideClearance:     150,
		WindowZoneDepth:      100,
		WindowBlockFrac:      0.3,
		PassageWidth:         80,
		PassageSpacing:       50,
		PassageBlockFrac:     0.8,
		CirculationBlockFrac: 0.7,
		WallDistance:         50,
		BedWallDistance:      100,
		DoorCorridor:         120,
		WallMargin:           30,
		PlacementGap:         5,
		ChairGap:             10,
		Pairs: map[layout.Category]Pair{
			layout.CategoryBedside: {Parent: layout.CategoryBed, MaxDistance: 50},
			layout.CategoryChair:   {Parent: layout.CategoryTable, MaxDistance: 30},
		},
	}
}

// Load reads a TOML rule file, overlaying it on the defaults. Unknown keys
// and non-positive thresholds are rejected.
func Load(path string) (Rules, error) {
	r := Default()
	meta, err := toml.DecodeFile(path, &r)
	if err != nil {
		return Rules{}, errors.Wrap(errors.ErrCodeInvalidRules, err, "parse rules %s", path)
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		return Rules{}, errors.New(errors.ErrCodeInvalidRules,
			"unknown key %q in %s", undec[0].String(), path)
	}
	if err := r.Validate(); err != nil {
		return Rules{}, err
	}
	return r, nil
}

// Validate rejects rule sets with non-positive lengths or fractions outside
// (0, 1].
func (r Rules) Validate() error {
	lengths := map[string]float64{
		"clearance":            r.Clearance,
		"turning_size":         r.TurningSize,
		"turning_step":         r.TurningStep,
		"door_swing_radius":    r.DoorSwingRadius,
		"emergency_path_width": r.EmergencyPathWidth,
		"bed_side_clearance":   r.BedSideClearance,
		"window_zone_depth":    r.WindowZoneDepth,
		"passage_width":        r.PassageWidth,
		"passage_spacing":      r.PassageSpacing,
		"wall_distance":        r.WallDistance,
		"bed_wall_distance":    r.BedWallDistance,
		"door_corridor":        r.DoorCorridor,
	}
	for name, v := range lengths {
		if v <= 0 {
			return errors.New(errors.ErrCodeInvalidRules, "%s must be positive, got %g", name, v)
		}
	}
	fracs := map[string]float64{
		"clearance_outside_frac": r.ClearanceOutsideFrac,
		"window_block_frac":      r.WindowBlockFrac,
		"passage_block_frac":     r.PassageBlockFrac,
		"circulation_block_frac": r.CirculationBlockFrac,
	}
	for name, v := range fracs {
		if v <= 0 || v > 1 {
			return errors.New(errors.ErrCodeInvalidRules,
				"%s must be in (0, 1], got %g", name, v)
		}
	}
	for child, p := range r.Pairs {
		if p.MaxDistance <= 0 {
			return errors.New(errors.ErrCodeInvalidRules,
				"pairs.%s.max_distance must be positive, got %g", child, p.MaxDistance)
		}
		if p.Parent == "" {
			return errors.New(errors.ErrCodeInvalidRules, "pairs.%s has no parent", child)
		}
	}
	return nil
}

// PairFor returns the pairing rule for a category, if one is configured.
func (r Rules) PairFor(c layout.Category) (Pair, bool) {
	p, ok := r.Pairs[c]
	return p, ok
}

// PathExempt reports whether a category is exempt from the emergency-path
// and door-corridor checks: the bed is the path's origin and its paired
// furniture has to sit against it.
func (r Rules) PathExempt(c layout.Category) bool {
	if c == layout.CategoryBed {
		return true
	}
	p, ok := r.Pairs[c]
	return ok && p.Parent == layout.CategoryBed
}
