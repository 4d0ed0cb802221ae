// Package render turns layouts and validation reports into presentation
// artifacts: SVG and PNG floor plans, a plain-text report, and a furniture
// relation graph rendered from DOT.
//
// All distances in a layout are centimeters; rendering scales them to pixels.
// The sinks are intentionally thin - they draw what the layout says and never
// modify placement.
package render

import (
	"github.com/HDA-AWA/roomplan/pkg/layout"
	"github.com/HDA-AWA/roomplan/pkg/rules"
)

// DefaultScale is the default pixels-per-centimeter factor.
const DefaultScale = 2.0

// canvasMargin is the pixel margin around the room on all sides.
const canvasMargin = 40

// Options configures floor-plan rendering.
type Options struct {
	// Scale is the pixels-per-centimeter factor. Zero means DefaultScale.
	Scale float64
	// ShowZones draws door-swing and window access zones.
	ShowZones bool
	// Rules supplies the zone dimensions when ShowZones is set. A zero
	// value falls back to the defaults.
	Rules rules.Rules
}

// setDefaults fills zero fields in place.
func (o *Options) setDefaults() {
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	if o.Rules.Clearance == 0 {
		o.Rules = rules.Default()
	}
}

// categoryColors maps furniture categories to fill colors shared by the SVG
// and PNG sinks.
var categoryColors = map[layout.Category]string{
	layout.CategoryBed:      "#a5c8e1",
	layout.CategoryBedside:  "#d4b8e0",
	layout.CategoryWardrobe: "#c9a87c",
	layout.CategoryTable:    "#e1c699",
	layout.CategoryChair:    "#b6d7a8",
	layout.CategorySofa:     "#f4a6a6",
	layout.CategoryOther:    "#d9d9d9",
}

const (
	strokeColor = "#33333d"
	floorColor  = "#fbfaf7"
	doorColor   = "#8b5a2b"
	windowColor = "#6baed6"
	zoneColor   = "#fde6c4"
)

// fillFor returns the fill color for an item.
func fillFor(f layout.FurnitureItem) string {
	if c, ok := categoryColors[f.Category]; ok {
		return c
	}
	return categoryColors[layout.CategoryOther]
}

// canvasSize returns the pixel dimensions for a room at the given scale.
func canvasSize(room layout.Room, scale float64) (w, h int) {
	w = int(room.Width*scale) + 2*canvasMargin
	h = int(room.Height*scale) + 2*canvasMargin
	return w, h
}
