package render

import (
	"bytes"
	"fmt"
	"math"

	svg "github.com/ajstarks/svgo"
	"github.com/paulmach/orb"

	"github.com/HDA-AWA/roomplan/pkg/layout"
	"github.com/HDA-AWA/roomplan/pkg/validate"
)

// SVG renders a floor plan as an SVG document.
func SVG(l layout.Layout, opts Options) []byte {
	opts.setDefaults()

	var buf bytes.Buffer
	canvas := svg.New(&buf)

	w, h := canvasSize(l.Room, opts.Scale)
	canvas.Start(w, h)
	canvas.Rect(0, 0, w, h, "fill:#ffffff")

	p := plotter{scale: opts.Scale}

	// Floor
	canvas.Rect(p.x(0), p.y(0), p.d(l.Room.Width), p.d(l.Room.Height),
		fmt.Sprintf("fill:%s;stroke:%s;stroke-width:3", floorColor, strokeColor))

	// Zones go under furniture so blockers stay visible.
	if opts.ShowZones {
		for _, o := range l.Openings {
			var zone orb.Ring
			switch o.Type {
			case layout.OpeningDoor:
				zone = validate.SwingZone(o, l.Room, opts.Rules.DoorSwingRadius)
			case layout.OpeningWindow:
				zone = validate.WindowZone(o, l.Room, opts.Rules.WindowZoneDepth)
			}
			if len(zone) == 0 {
				continue
			}
			xs, ys := p.ring(zone)
			canvas.Polygon(xs, ys, fmt.Sprintf("fill:%s;fill-opacity:0.6", zoneColor))
		}
	}

	// Furniture
	for _, f := range l.Furniture {
		env := f.Envelope()
		ex, ey := env.Min[0], env.Min[1]
		ew, eh := env.Max[0]-env.Min[0], env.Max[1]-env.Min[1]
		canvas.Rect(p.x(ex), p.y(ey), p.d(ew), p.d(eh),
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:2", fillFor(f), strokeColor))

		c := f.Center()
		canvas.Text(p.x(c[0]), p.y(c[1]),
			fmt.Sprintf("%s (%d°)", f.Name, f.Rotation),
			fmt.Sprintf("font-family:sans-serif;font-size:%dpx;fill:%s;text-anchor:middle;dominant-baseline:middle",
				labelSize(opts.Scale, ew), strokeColor))
	}

	// Openings drawn last so they sit on the wall line.
	for _, o := range l.Openings {
		x1, y1, x2, y2 := openingSegment(o, l.Room)
		color := doorColor
		if o.Type == layout.OpeningWindow {
			color = windowColor
		}
		canvas.Line(p.x(x1), p.y(y1), p.x(x2), p.y(y2),
			fmt.Sprintf("stroke:%s;stroke-width:6", color))
	}

	canvas.End()
	return buf.Bytes()
}

// plotter converts room centimeters to canvas pixels.
type plotter struct {
	scale float64
}

func (p plotter) x(v float64) int { return canvasMargin + int(math.Round(v*p.scale)) }
func (p plotter) y(v float64) int { return canvasMargin + int(math.Round(v*p.scale)) }
func (p plotter) d(v float64) int { return int(math.Round(v * p.scale)) }

func (p plotter) ring(r orb.Ring) (xs, ys []int) {
	xs = make([]int, 0, len(r))
	ys = make([]int, 0, len(r))
	for _, pt := range r {
		xs = append(xs, p.x(pt[0]))
		ys = append(ys, p.y(pt[1]))
	}
	return xs, ys
}

// labelSize picks a font size that fits inside the item at the given scale.
func labelSize(scale, itemWidth float64) int {
	size := int(itemWidth * scale / 8)
	if size < 9 {
		size = 9
	}
	if size > 16 {
		size = 16
	}
	return size
}

// openingSegment returns the opening's endpoints on its wall in room
// coordinates.
func openingSegment(o layout.Opening, room layout.Room) (x1, y1, x2, y2 float64) {
	switch o.Wall {
	case layout.WallTop:
		return o.Position, 0, o.Position + o.Size, 0
	case layout.WallBottom:
		return o.Position, room.Height, o.Position + o.Size, room.Height
	case layout.WallLeft:
		return 0, o.Position, 0, o.Position + o.Size
	default:
		return room.Width, o.Position, room.Width, o.Position + o.Size
	}
}
