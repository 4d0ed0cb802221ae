// Package layout defines the data model for rooms, openings, and furniture.
//
// A Layout is the unit of exchange between the optimizer, the validator, and
// the rendering sinks: a rectangular room, a list of placed (or unplaced)
// furniture items, and the room's doors and windows. Coordinates are in
// centimeters with the origin at the room's top-left corner, x growing right
// and y growing down. The placement bounds are [0,Width]×[0,Height].
//
// Furniture categories are assigned once at ingestion from the item name and
// carried as an explicit enum; all downstream dispatch is over Category, never
// over name substrings.
package layout

import (
	"math"
	"strings"

	"github.com/paulmach/orb"

	"github.com/HDA-AWA/roomplan/pkg/errors"
	"github.com/HDA-AWA/roomplan/pkg/geo"
)

// =============================================================================
// Constants
// =============================================================================

// Wall identifies one of the four room walls.
type Wall string

// Wall names match the serialized document format.
const (
	WallTop    Wall = "top"
	WallBottom Wall = "bottom"
	WallLeft   Wall = "left"
	WallRight  Wall = "right"
)

// Walls lists all walls in the canonical try-order used by placement code.
var Walls = []Wall{WallTop, WallBottom, WallLeft, WallRight}

// Opposite returns the wall facing w.
func (w Wall) Opposite() Wall {
	switch w {
	case WallTop:
		return WallBottom
	case WallBottom:
		return WallTop
	case WallLeft:
		return WallRight
	default:
		return WallLeft
	}
}

// Horizontal reports whether the wall runs along the x axis.
func (w Wall) Horizontal() bool {
	return w == WallTop || w == WallBottom
}

// Perpendicular returns the two walls perpendicular to w.
func (w Wall) Perpendicular() []Wall {
	if w.Horizontal() {
		return []Wall{WallLeft, WallRight}
	}
	return []Wall{WallTop, WallBottom}
}

// Rotation returns the furniture rotation implied by placing an item with its
// back against this wall: top→0, bottom→180, left→270, right→90.
func (w Wall) Rotation() int {
	switch w {
	case WallTop:
		return 0
	case WallBottom:
		return 180
	case WallLeft:
		return 270
	default:
		return 90
	}
}

// OpeningType distinguishes doors from windows.
type OpeningType string

// Opening types.
const (
	OpeningDoor   OpeningType = "door"
	OpeningWindow OpeningType = "window"
)

// Category is the explicit furniture category used for placement-strategy
// dispatch and paired-furniture configuration.
type Category string

// Furniture categories.
const (
	CategoryBed      Category = "bed"
	CategoryBedside  Category = "bedside"
	CategoryWardrobe Category = "wardrobe"
	CategoryTable    Category = "table"
	CategoryChair    Category = "chair"
	CategorySofa     Category = "sofa"
	CategoryOther    Category = "other"
)

// CategoryFromName infers the category from a free-text furniture name.
// Matching is ordered so that "bedside" wins over "bed" and "bedside table"
// is not mistaken for a table. This inference happens exactly once, at
// ingestion; everything downstream dispatches over the resulting Category.
func CategoryFromName(name string) Category {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "bedside"):
		return CategoryBedside
	case strings.Contains(n, "bed"):
		return CategoryBed
	case strings.Contains(n, "wardrobe"):
		return CategoryWardrobe
	case strings.Contains(n, "table"):
		return CategoryTable
	case strings.Contains(n, "chair"):
		return CategoryChair
	case strings.Contains(n, "sofa"):
		return CategorySofa
	default:
		return CategoryOther
	}
}

// =============================================================================
// Room
// =============================================================================

// Room is the rectangular placement area. Immutable for a given run.
type Room struct {
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// Bound returns the room interior as an orb.Bound.
func (r Room) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{r.Width, r.Height}}
}

// Ring returns the room interior as a polygon ring.
func (r Room) Ring() orb.Ring {
	return geo.Box(0, 0, r.Width, r.Height)
}

// =============================================================================
// Opening
// =============================================================================

// Opening is a door or window in one of the room walls. Position is the
// offset of the opening's near edge along the wall (from the room origin's
// side); Size is its span along the wall.
type Opening struct {
	Type     OpeningType `json:"type" bson:"type"`
	Wall     Wall        `json:"wall" bson:"wall"`
	Position float64     `json:"position" bson:"position"`
	Size     float64     `json:"size" bson:"size"`
}

// Center returns the opening's midpoint on the wall in room coordinates.
func (o Opening) Center(room Room) orb.Point {
	mid := o.Position + o.Size/2
	switch o.Wall {
	case WallTop:
		return orb.Point{mid, 0}
	case WallBottom:
		return orb.Point{mid, room.Height}
	case WallLeft:
		return orb.Point{0, mid}
	default:
		return orb.Point{room.Width, mid}
	}
}

// =============================================================================
// FurnitureItem
// =============================================================================

// FurnitureItem is one piece of furniture. Width and Height describe the
// axis-aligned footprint before rotation; X and Y are the top-left corner of
// that unrotated box. Rotation is a clockwise rotation of the box about its
// own center, one of 0, 90, 180, 270. ZHeight is vertical metadata unused by
// placement logic.
type FurnitureItem struct {
	Name     string   `json:"name" bson:"name"`
	Width    float64  `json:"width" bson:"width"`
	Height   float64  `json:"height" bson:"height"`
	X        float64  `json:"x" bson:"x"`
	Y        float64  `json:"y" bson:"y"`
	Rotation int      `json:"rotation" bson:"rotation"`
	ZHeight  float64  `json:"zHeight,omitempty" bson:"zHeight,omitempty"`
	Category Category `json:"-" bson:"-"`
}

// NewItem creates an item with its category inferred from name.
func NewItem(name string, width, height float64) FurnitureItem {
	return FurnitureItem{
		Name:     name,
		Width:    width,
		Height:   height,
		Category: CategoryFromName(name),
	}
}

// Polygon returns the item's rotated footprint.
func (f FurnitureItem) Polygon() orb.Ring {
	return geo.Rect(f.X, f.Y, f.Width, f.Height, f.Rotation)
}

// Center returns the footprint center, which is rotation-invariant.
func (f FurnitureItem) Center() orb.Point {
	return orb.Point{f.X + f.Width/2, f.Y + f.Height/2}
}

// EffectiveSize returns the axis-aligned extent of the rotated footprint:
// the nominal size for 0/180, swapped for 90/270.
func (f FurnitureItem) EffectiveSize() (w, h float64) {
	if f.Rotation == 90 || f.Rotation == 270 {
		return f.Height, f.Width
	}
	return f.Width, f.Height
}

// Envelope returns the axis-aligned bounding box of the rotated footprint.
func (f FurnitureItem) Envelope() orb.Bound {
	w, h := f.EffectiveSize()
	cx, cy := f.X+f.Width/2, f.Y+f.Height/2
	return orb.Bound{
		Min: orb.Point{cx - w/2, cy - h/2},
		Max: orb.Point{cx + w/2, cy + h/2},
	}
}

// SetEnvelopePos moves the item so its rotated footprint's top-left corner
// sits at (ex, ey). Placement code works in envelope space so that 90/270
// poses can never extend past a wall the bounds check approved.
func (f *FurnitureItem) SetEnvelopePos(ex, ey float64) {
	w, h := f.EffectiveSize()
	f.X = ex + w/2 - f.Width/2
	f.Y = ey + h/2 - f.Height/2
}

// InBounds reports whether the rotated footprint lies inside the room.
func (f FurnitureItem) InBounds(room Room) bool {
	env := f.Envelope()
	return env.Min.X() >= 0 && env.Min.Y() >= 0 &&
		env.Max.X() <= room.Width && env.Max.Y() <= room.Height
}

// =============================================================================
// Layout
// =============================================================================

// Layout bundles a room with its furniture and openings. It is passed by
// value throughout the optimizer and validator; Clone produces the deep copy
// needed when a candidate must be kept independent of further mutation.
type Layout struct {
	Room      Room            `json:"room" bson:"room"`
	Furniture []FurnitureItem `json:"furniture" bson:"furniture"`
	Openings  []Opening       `json:"openings" bson:"openings"`
}

// Clone returns a deep copy of the layout.
func (l Layout) Clone() Layout {
	out := Layout{Room: l.Room}
	out.Furniture = make([]FurnitureItem, len(l.Furniture))
	copy(out.Furniture, l.Furniture)
	out.Openings = make([]Opening, len(l.Openings))
	copy(out.Openings, l.Openings)
	return out
}

// Door returns the first door opening, or nil if the room has none.
func (l Layout) Door() *Opening {
	for i := range l.Openings {
		if l.Openings[i].Type == OpeningDoor {
			return &l.Openings[i]
		}
	}
	return nil
}

// Windows returns all window openings.
func (l Layout) Windows() []Opening {
	var out []Opening
	for _, o := range l.Openings {
		if o.Type == OpeningWindow {
			out = append(out, o)
		}
	}
	return out
}

// FirstByCategory returns a pointer to the first item of the given category,
// or nil.
func (l Layout) FirstByCategory(c Category) *FurnitureItem {
	for i := range l.Furniture {
		if l.Furniture[i].Category == c {
			return &l.Furniture[i]
		}
	}
	return nil
}

// ByCategory returns all items of the given category.
func (l Layout) ByCategory(c Category) []FurnitureItem {
	var out []FurnitureItem
	for _, f := range l.Furniture {
		if f.Category == c {
			out = append(out, f)
		}
	}
	return out
}

// Normalize assigns categories to all furniture items from their names.
// It is called by the readers in this package; callers constructing layouts
// by hand should call it once before validation or optimization.
func (l *Layout) Normalize() {
	for i := range l.Furniture {
		l.Furniture[i].Category = CategoryFromName(l.Furniture[i].Name)
	}
}

// Validate checks the layout for malformed input: non-positive room
// dimensions, degenerate furniture, bad rotations, unknown walls or opening
// types, NaN coordinates. Malformed input is a hard error, never silently
// defaulted.
func (l Layout) Validate() error {
	if l.Room.Width <= 0 || l.Room.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidRoom,
			"room dimensions must be positive, got %g×%g", l.Room.Width, l.Room.Height)
	}
	for _, f := range l.Furniture {
		if f.Name == "" {
			return errors.New(errors.ErrCodeInvalidFurniture, "furniture item has empty name")
		}
		if f.Width <= 0 || f.Height <= 0 {
			return errors.New(errors.ErrCodeInvalidFurniture,
				"%s has non-positive size %g×%g", f.Name, f.Width, f.Height)
		}
		if math.IsNaN(f.X) || math.IsNaN(f.Y) || math.IsNaN(f.Width) || math.IsNaN(f.Height) {
			return errors.New(errors.ErrCodeInvalidFurniture, "%s has NaN coordinates", f.Name)
		}
		switch f.Rotation {
		case 0, 90, 180, 270:
		default:
			return errors.New(errors.ErrCodeInvalidFurniture,
				"%s has invalid rotation %d (must be 0, 90, 180 or 270)", f.Name, f.Rotation)
		}
	}
	for _, o := range l.Openings {
		if o.Type != OpeningDoor && o.Type != OpeningWindow {
			return errors.New(errors.ErrCodeInvalidOpening, "unknown opening type %q", o.Type)
		}
		switch o.Wall {
		case WallTop, WallBottom, WallLeft, WallRight:
		default:
			return errors.New(errors.ErrCodeInvalidOpening, "unknown wall %q", o.Wall)
		}
		if o.Size <= 0 {
			return errors.New(errors.ErrCodeInvalidOpening,
				"%s on %s wall has non-positive size %g", o.Type, o.Wall, o.Size)
		}
	}
	return nil
}
