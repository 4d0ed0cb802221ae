package render

import (
	"bytes"
	"fmt"

	"github.com/fogleman/gg"
	"github.com/paulmach/orb"

	"github.com/HDA-AWA/roomplan/pkg/layout"
	"github.com/HDA-AWA/roomplan/pkg/validate"
)

// PNG renders a floor plan as a PNG image. The drawing mirrors [SVG] so the
// two formats stay visually consistent.
func PNG(l layout.Layout, opts Options) ([]byte, error) {
	opts.setDefaults()

	w, h := canvasSize(l.Room, opts.Scale)
	dc := gg.NewContext(w, h)
	p := plotter{scale: opts.Scale}

	dc.SetHexColor("#ffffff")
	dc.Clear()

	// Floor
	dc.SetHexColor(floorColor)
	dc.DrawRectangle(fpx(p, 0), fpx(p, 0), l.Room.Width*opts.Scale, l.Room.Height*opts.Scale)
	dc.FillPreserve()
	dc.SetHexColor(strokeColor)
	dc.SetLineWidth(3)
	dc.Stroke()

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
			drawRing(dc, p, zone)
			dc.SetRGBA(0.99, 0.9, 0.77, 0.6)
			dc.Fill()
		}
	}

	// Furniture
	for _, f := range l.Furniture {
		env := f.Envelope()
		dc.DrawRectangle(fpx(p, env.Min[0]), fpx(p, env.Min[1]),
			(env.Max[0]-env.Min[0])*opts.Scale, (env.Max[1]-env.Min[1])*opts.Scale)
		dc.SetHexColor(fillFor(f))
		dc.FillPreserve()
		dc.SetHexColor(strokeColor)
		dc.SetLineWidth(2)
		dc.Stroke()

		c := f.Center()
		dc.SetHexColor(strokeColor)
		dc.DrawStringAnchored(fmt.Sprintf("%s (%d°)", f.Name, f.Rotation),
			fpx(p, c[0]), fpx(p, c[1]), 0.5, 0.5)
	}

	// Openings
	for _, o := range l.Openings {
		x1, y1, x2, y2 := openingSegment(o, l.Room)
		if o.Type == layout.OpeningWindow {
			dc.SetHexColor(windowColor)
		} else {
			dc.SetHexColor(doorColor)
		}
		dc.SetLineWidth(6)
		dc.DrawLine(fpx(p, x1), fpx(p, y1), fpx(p, x2), fpx(p, y2))
		dc.Stroke()
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// fpx converts a room coordinate to a float pixel coordinate.
func fpx(p plotter, v float64) float64 {
	return float64(canvasMargin) + v*p.scale
}

func drawRing(dc *gg.Context, p plotter, r orb.Ring) {
	if len(r) == 0 {
		return
	}
	dc.MoveTo(fpx(p, r[0][0]), fpx(p, r[0][1]))
	for _, pt := range r[1:] {
		dc.LineTo(fpx(p, pt[0]), fpx(p, pt[1]))
	}
	dc.ClosePath()
}
