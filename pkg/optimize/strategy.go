package optimize

import (
	"math"
	"math/rand"

	"github.com/paulmach/orb"

	"github.com/HDA-AWA/roomplan/pkg/geo"
	"github.com/HDA-AWA/roomplan/pkg/layout"
	"github.com/HDA-AWA/roomplan/pkg/rules"
	"github.com/HDA-AWA/roomplan/pkg/validate"
)

// gridMargin is the wall gap used by the exhaustive grid scans.
const gridMargin = 20

// corridorPad widens the door keep-clear zone past the door frame itself.
const corridorPad = 30

// generator builds one candidate per attempt. Strategies place items in
// envelope space: positions are the top-left corner of the rotated
// footprint, so a pose accepted by the bounds check can never poke through a
// wall.
type generator struct {
	room     layout.Room
	items    []layout.FurnitureItem
	openings []layout.Opening
	door     layout.Opening
	windows  []layout.Opening
	rules    rules.Rules
}

func newGenerator(l layout.Layout, r rules.Rules) *generator {
	g := &generator{
		room:     l.Room,
		items:    l.Furniture,
		openings: l.Openings,
		windows:  l.Windows(),
		rules:    r,
	}
	if d := l.Door(); d != nil {
		g.door = *d
	}
	return g
}

// pose is a candidate envelope position with its rotation.
type pose struct {
	ex, ey float64
	rot    int
}

// generate builds one candidate. Attempt-to-attempt variation comes from the
// per-attempt seed shuffling wall try-orders. The bool is false when the
// candidate must be discarded (an input bed that found no position).
func (g *generator) generate(attempt int) (layout.Layout, bool) {
	rng := rand.New(rand.NewSource(int64(attempt)))
	cand := layout.Layout{Room: g.room, Openings: g.openings}

	var beds, bedsides, wardrobes, tables, chairs, sofas, others []layout.FurnitureItem
	for _, f := range g.items {
		switch f.Category {
		case layout.CategoryBed:
			beds = append(beds, f)
		case layout.CategoryBedside:
			bedsides = append(bedsides, f)
		case layout.CategoryWardrobe:
			wardrobes = append(wardrobes, f)
		case layout.CategoryTable:
			tables = append(tables, f)
		case layout.CategoryChair:
			chairs = append(chairs, f)
		case layout.CategorySofa:
			sofas = append(sofas, f)
		default:
			others = append(others, f)
		}
	}
	// Only the first bed gets the bed treatment.
	if len(beds) > 1 {
		others = append(others, beds[1:]...)
		beds = beds[:1]
	}

	if len(beds) > 0 {
		placedBed, rest, ok := g.placeBedPhase(beds[0], bedsides, &cand)
		if !ok {
			// A bedroom candidate without a bed is no candidate at all.
			return layout.Layout{}, false
		}
		for _, bs := range rest {
			if p, ok := g.placeBedsideNear(bs, placedBed, &cand); ok {
				cand.Furniture = append(cand.Furniture, p)
			}
		}
	} else {
		others = append(others, bedsides...)
	}

	for _, w := range wardrobes {
		if p, ok := g.placeWardrobe(w, &cand, rng); ok {
			cand.Furniture = append(cand.Furniture, p)
		}
	}

	var firstTable *layout.FurnitureItem
	for _, t := range tables {
		if p, ok := g.placeTable(t, &cand, rng); ok {
			cand.Furniture = append(cand.Furniture, p)
			if firstTable == nil {
				placed := p
				firstTable = &placed
			}
		}
	}

	for _, c := range chairs {
		if p, ok := g.placeChair(c, firstTable, &cand); ok {
			cand.Furniture = append(cand.Furniture, p)
		}
	}

	for _, s := range sofas {
		if p, ok := g.placeSofa(s, &cand, rng); ok {
			cand.Furniture = append(cand.Furniture, p)
		}
	}

	for _, o := range others {
		if p, ok := g.placeGeneric(o, &cand, rng); ok {
			cand.Furniture = append(cand.Furniture, p)
		}
	}

	return cand, len(cand.Furniture) > 0
}

// =============================================================================
// Validity
// =============================================================================

func (g *generator) valid(f layout.FurnitureItem, cand *layout.Layout, corridor bool) bool {
	if !f.InBounds(g.room) {
		return false
	}
	poly := f.Polygon()
	for _, other := range cand.Furniture {
		if geo.Intersects(poly, other.Polygon()) {
			return false
		}
	}
	if corridor && g.blocksDoorCorridor(f) {
		return false
	}
	return true
}

// blocksDoorCorridor reports whether the item's envelope intrudes into the
// keep-clear corridor extending DoorCorridor deep from the door.
func (g *generator) blocksDoorCorridor(f layout.FurnitureItem) bool {
	depth := g.rules.DoorCorridor
	lo := g.door.Position - corridorPad
	hi := g.door.Position + g.door.Size + corridorPad

	var zone orb.Bound
	switch g.door.Wall {
	case layout.WallTop:
		zone = orb.Bound{Min: orb.Point{lo, 0}, Max: orb.Point{hi, depth}}
	case layout.WallBottom:
		zone = orb.Bound{Min: orb.Point{lo, g.room.Height - depth}, Max: orb.Point{hi, g.room.Height}}
	case layout.WallLeft:
		zone = orb.Bound{Min: orb.Point{0, lo}, Max: orb.Point{depth, hi}}
	default:
		zone = orb.Bound{Min: orb.Point{g.room.Width - depth, lo}, Max: orb.Point{g.room.Width, hi}}
	}

	env := f.Envelope()
	return env.Min.X() < zone.Max.X() && env.Max.X() > zone.Min.X() &&
		env.Min.Y() < zone.Max.Y() && env.Max.Y() > zone.Min.Y()
}

// =============================================================================
// Wall positions
// =============================================================================

func effectiveDims(w, h float64, rot int) (float64, float64) {
	if rot == 90 || rot == 270 {
		return h, w
	}
	return w, h
}

// wallPositions returns envelope poses sliding along a wall with the given
// rotation, stepped so count positions roughly cover the free span.
func (g *generator) wallPositions(itemW, itemH float64, wall layout.Wall, rot, count int) []pose {
	margin := g.rules.WallMargin
	ew, eh := effectiveDims(itemW, itemH, rot)

	span, edim := g.room.Width, ew
	if !wall.Horizontal() {
		span, edim = g.room.Height, eh
	}
	step := math.Max(50, (span-2*margin-edim)/float64(count))

	var out []pose
	for i := 0; i < count; i++ {
		p := margin + float64(i)*step
		if p+edim > span-margin {
			break
		}
		switch wall {
		case layout.WallTop:
			out = append(out, pose{p, margin, rot})
		case layout.WallBottom:
			out = append(out, pose{p, g.room.Height - eh - margin, rot})
		case layout.WallLeft:
			out = append(out, pose{margin, p, rot})
		default:
			out = append(out, pose{g.room.Width - ew - margin, p, rot})
		}
	}
	return out
}

func (g *generator) windowWalls() map[layout.Wall]bool {
	out := make(map[layout.Wall]bool)
	for _, w := range g.windows {
		out[w.Wall] = true
	}
	return out
}

// bedWalls is the bed's wall preference: the wall facing the door first,
// then the perpendicular walls without windows.
func (g *generator) bedWalls() []layout.Wall {
	windowed := g.windowWalls()
	walls := []layout.Wall{g.door.Wall.Opposite()}
	for _, w := range g.door.Wall.Perpendicular() {
		if !windowed[w] {
			walls = append(walls, w)
		}
	}
	return walls
}

func shuffledWalls(rng *rand.Rand, walls []layout.Wall) []layout.Wall {
	out := make([]layout.Wall, len(walls))
	copy(out, walls)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// =============================================================================
// Bed and bedside
// =============================================================================

// placeBedPhase places the bed, preferring the composite bed+bedside unit
// when a bedside exists. It returns the placed bed, the bedsides still
// unplaced, and whether a bed made it in at all.
func (g *generator) placeBedPhase(bed layout.FurnitureItem, bedsides []layout.FurnitureItem, cand *layout.Layout) (layout.FurnitureItem, []layout.FurnitureItem, bool) {
	if len(bedsides) > 0 {
		if b, bs, ok := g.placeBedUnit(bed, bedsides[0], cand); ok {
			cand.Furniture = append(cand.Furniture, b, bs)
			return b, bedsides[1:], true
		}
	}
	if b, ok := g.placeBedAlone(bed, cand); ok {
		cand.Furniture = append(cand.Furniture, b)
		return b, bedsides, true
	}
	return layout.FurnitureItem{}, nil, false
}

// placeBedUnit slides a composite box (bed plus bedside, side by side at the
// headboard) along the preferred walls and decomposes it on success.
func (g *generator) placeBedUnit(bed, bedside layout.FurnitureItem, cand *layout.Layout) (layout.FurnitureItem, layout.FurnitureItem, bool) {
	unitW := bed.Width + bedside.Width
	unitH := math.Max(bed.Height, bedside.Height)

	for _, wall := range g.bedWalls() {
		rot := wall.Rotation()
		for _, p := range g.wallPositions(unitW, unitH, wall, rot, 8) {
			b, bs := decomposeBedUnit(bed, bedside, unitW, unitH, p)
			if !g.valid(b, cand, true) {
				continue
			}
			// The bedside shares the unit's box but is checked on its own;
			// it skips the corridor check like any bedside.
			if !bs.InBounds(g.room) || geo.Intersects(bs.Polygon(), b.Polygon()) {
				continue
			}
			ok := true
			for _, other := range cand.Furniture {
				if geo.Intersects(bs.Polygon(), other.Polygon()) {
					ok = false
					break
				}
			}
			if ok {
				return b, bs, true
			}
		}
	}
	return layout.FurnitureItem{}, layout.FurnitureItem{}, false
}

// decomposeBedUnit splits a unit pose into bed and bedside placements. The
// arrangement is the rotation-0 layout (bed left, bedside right, headboards
// on the unit's top edge) rotated with the unit, so the headboard always
// ends up against the wall the pose came from.
func decomposeBedUnit(bed, bedside layout.FurnitureItem, unitW, unitH float64, p pose) (layout.FurnitureItem, layout.FurnitureItem) {
	b, bs := bed, bedside
	b.Rotation = p.rot
	bs.Rotation = p.rot

	bw, bh := effectiveDims(bed.Width, bed.Height, p.rot)
	sw, sh := effectiveDims(bedside.Width, bedside.Height, p.rot)
	envW, envH := effectiveDims(unitW, unitH, p.rot)

	switch p.rot {
	case 0: // headboard on top edge, bedside to the right
		b.SetEnvelopePos(p.ex, p.ey)
		bs.SetEnvelopePos(p.ex+bw, p.ey)
	case 90: // headboard on right edge, bedside below
		b.SetEnvelopePos(p.ex+envW-bw, p.ey)
		bs.SetEnvelopePos(p.ex+envW-sw, p.ey+bh)
	case 180: // headboard on bottom edge, bedside to the left
		b.SetEnvelopePos(p.ex+envW-bw, p.ey+envH-bh)
		bs.SetEnvelopePos(p.ex, p.ey+envH-sh)
	default: // 270: headboard on left edge, bedside above
		b.SetEnvelopePos(p.ex, p.ey+envH-bh)
		bs.SetEnvelopePos(p.ex, p.ey)
	}
	return b, bs
}

func (g *generator) placeBedAlone(bed layout.FurnitureItem, cand *layout.Layout) (layout.FurnitureItem, bool) {
	for _, wall := range g.bedWalls() {
		rot := wall.Rotation()
		for _, p := range g.wallPositions(bed.Width, bed.Height, wall, rot, 8) {
			b := bed
			b.Rotation = p.rot
			b.SetEnvelopePos(p.ex, p.ey)
			if g.valid(b, cand, true) {
				return b, true
			}
		}
	}
	return g.gridScan(bed, cand, true)
}

// placeBedsideNear tries positions flanking the bed at its headboard end.
// Bedsides keep rotation 0 and skip the door corridor check.
func (g *generator) placeBedsideNear(bedside, bed layout.FurnitureItem, cand *layout.Layout) (layout.FurnitureItem, bool) {
	gap := g.rules.PlacementGap
	env := bed.Envelope()
	bx, by := env.Min.X(), env.Min.Y()
	bw, bh := env.Max.X()-bx, env.Max.Y()-by
	sw, sh := bedside.Width, bedside.Height

	var positions [][2]float64
	switch bed.Rotation {
	case 0: // headboard at top
		positions = [][2]float64{
			{bx + bw + gap, by},
			{bx - sw - gap, by},
			{bx + bw + gap, by + bh/3},
			{bx - sw - gap, by + bh/3},
		}
	case 180: // headboard at bottom
		positions = [][2]float64{
			{bx + bw + gap, by + bh - sh},
			{bx - sw - gap, by + bh - sh},
			{bx + bw + gap, by + 2*bh/3 - sh},
			{bx - sw - gap, by + 2*bh/3 - sh},
		}
	case 90: // headboard at right
		positions = [][2]float64{
			{bx + bw - sw, by - sh - gap},
			{bx + bw - sw, by + bh + gap},
			{bx + 2*bw/3 - sw, by - sh - gap},
			{bx + 2*bw/3 - sw, by + bh + gap},
		}
	default: // 270: headboard at left
		positions = [][2]float64{
			{bx, by - sh - gap},
			{bx, by + bh + gap},
			{bx + bw/3, by - sh - gap},
			{bx + bw/3, by + bh + gap},
		}
	}

	for _, p := range positions {
		bs := bedside
		bs.Rotation = 0
		bs.X, bs.Y = p[0], p[1]
		if g.valid(bs, cand, false) {
			return bs, true
		}
	}
	return layout.FurnitureItem{}, false
}

// =============================================================================
// Wardrobe
// =============================================================================

// backToWallRotation picks the rotation that puts the wardrobe's depth
// perpendicular to the wall with the doors facing in.
func backToWallRotation(w, h float64, wall layout.Wall) int {
	if wall.Horizontal() {
		if w >= h {
			return 0
		}
		return 90
	}
	if h >= w {
		return 270
	}
	return 90
}

func (g *generator) blocksWindow(f layout.FurnitureItem) bool {
	poly := f.Polygon()
	for _, w := range g.windows {
		zone := validate.WindowZone(w, g.room, g.rules.WindowZoneDepth)
		if geo.IntersectionArea(zone, poly) > geo.Area(zone)*g.rules.WindowBlockFrac {
			return true
		}
	}
	return false
}

func (g *generator) wardrobeWalls() []layout.Wall {
	windowed := g.windowWalls()
	var avail []layout.Wall
	for _, w := range layout.Walls {
		if w != g.door.Wall && !windowed[w] {
			avail = append(avail, w)
		}
	}
	if len(avail) == 0 {
		for _, w := range layout.Walls {
			if w != g.door.Wall {
				avail = append(avail, w)
			}
		}
	}
	if len(avail) == 0 {
		avail = layout.Walls
	}
	return avail
}

func (g *generator) placeWardrobe(wardrobe layout.FurnitureItem, cand *layout.Layout, rng *rand.Rand) (layout.FurnitureItem, bool) {
	walls := shuffledWalls(rng, g.wardrobeWalls())

	// First pass forces the back against the wall.
	for _, wall := range walls {
		rot := backToWallRotation(wardrobe.Width, wardrobe.Height, wall)
		for _, p := range g.wallPositions(wardrobe.Width, wardrobe.Height, wall, rot, 8) {
			w := wardrobe
			w.Rotation = p.rot
			w.SetEnvelopePos(p.ex, p.ey)
			if g.blocksWindow(w) {
				continue
			}
			if g.valid(w, cand, true) {
				return w, true
			}
		}
	}
	// Second pass relaxes to the wall's natural facing rotation.
	for _, wall := range walls {
		for _, p := range g.wallPositions(wardrobe.Width, wardrobe.Height, wall, wall.Rotation(), 8) {
			w := wardrobe
			w.Rotation = p.rot
			w.SetEnvelopePos(p.ex, p.ey)
			if g.blocksWindow(w) {
				continue
			}
			if g.valid(w, cand, true) {
				return w, true
			}
		}
	}
	return g.gridScan(wardrobe, cand, true)
}

// =============================================================================
// Table and chair
// =============================================================================

// placeTable prefers a spot in front of the first window, facing it, at
// increasing distances from the wall.
func (g *generator) placeTable(table layout.FurnitureItem, cand *layout.Layout, rng *rand.Rand) (layout.FurnitureItem, bool) {
	if len(g.windows) == 0 {
		return g.placeAlongWalls(table, cand, rng)
	}

	win := g.windows[0]
	rot := win.Wall.Rotation()
	ew, eh := effectiveDims(table.Width, table.Height, rot)
	center := win.Center(g.room)

	for dist := 50.0; dist < 200; dist += 30 {
		var p pose
		switch win.Wall {
		case layout.WallTop:
			p = pose{center.X() - ew/2, dist, rot}
		case layout.WallBottom:
			p = pose{center.X() - ew/2, g.room.Height - eh - dist, rot}
		case layout.WallLeft:
			p = pose{dist, center.Y() - eh/2, rot}
		default:
			p = pose{g.room.Width - ew - dist, center.Y() - eh/2, rot}
		}
		t := table
		t.Rotation = p.rot
		t.SetEnvelopePos(p.ex, p.ey)
		if g.valid(t, cand, true) {
			return t, true
		}
	}
	if t, ok := g.placeAlongWalls(table, cand, rng); ok {
		return t, ok
	}
	return g.gridScan(table, cand, true)
}

// placeChair puts the chair in front of the table, matching its rotation,
// with the table's flanks as fallbacks.
func (g *generator) placeChair(chair layout.FurnitureItem, table *layout.FurnitureItem, cand *layout.Layout) (layout.FurnitureItem, bool) {
	if table == nil {
		return g.gridScan(chair, cand, true)
	}
	gap := g.rules.ChairGap
	env := table.Envelope()
	tx, ty := env.Min.X(), env.Min.Y()
	tw, th := env.Max.X()-tx, env.Max.Y()-ty
	rot := table.Rotation
	cw, ch := effectiveDims(chair.Width, chair.Height, rot)

	var poses []pose
	switch rot {
	case 0: // table faces down
		poses = []pose{
			{tx + tw/2 - cw/2, ty + th + gap, rot},
			{tx - cw - gap, ty, rot},
			{tx + tw + gap, ty, rot},
		}
	case 180: // faces up
		poses = []pose{
			{tx + tw/2 - cw/2, ty - ch - gap, rot},
			{tx - cw - gap, ty + th - ch, rot},
			{tx + tw + gap, ty + th - ch, rot},
		}
	case 90: // faces left
		poses = []pose{
			{tx - cw - gap, ty + th/2 - ch/2, rot},
			{tx, ty - ch - gap, rot},
			{tx, ty + th + gap, rot},
		}
	default: // 270: faces right
		poses = []pose{
			{tx + tw + gap, ty + th/2 - ch/2, rot},
			{tx + tw - cw, ty - ch - gap, rot},
			{tx + tw - cw, ty + th + gap, rot},
		}
	}

	for _, p := range poses {
		c := chair
		c.Rotation = p.rot
		c.SetEnvelopePos(p.ex, p.ey)
		if g.valid(c, cand, true) {
			return c, true
		}
	}
	return g.gridScan(chair, cand, true)
}

// =============================================================================
// Sofa and generic
// =============================================================================

// placeSofa avoids the door wall and rejects poses inside the door swing;
// the door wall is the last resort.
func (g *generator) placeSofa(sofa layout.FurnitureItem, cand *layout.Layout, rng *rand.Rand) (layout.FurnitureItem, bool) {
	swing := validate.SwingZone(g.door, g.room, g.rules.DoorSwingRadius)

	var walls []layout.Wall
	for _, w := range layout.Walls {
		if w != g.door.Wall {
			walls = append(walls, w)
		}
	}
	walls = shuffledWalls(rng, walls)
	walls = append(walls, g.door.Wall)

	for _, wall := range walls {
		for _, p := range g.wallPositions(sofa.Width, sofa.Height, wall, wall.Rotation(), 6) {
			s := sofa
			s.Rotation = p.rot
			s.SetEnvelopePos(p.ex, p.ey)
			if geo.Intersects(swing, s.Polygon()) {
				continue
			}
			if g.valid(s, cand, true) {
				return s, true
			}
		}
	}
	return g.gridScan(sofa, cand, true)
}

func (g *generator) placeAlongWalls(item layout.FurnitureItem, cand *layout.Layout, rng *rand.Rand) (layout.FurnitureItem, bool) {
	for _, wall := range shuffledWalls(rng, layout.Walls) {
		for _, p := range g.wallPositions(item.Width, item.Height, wall, wall.Rotation(), 8) {
			f := item
			f.Rotation = p.rot
			f.SetEnvelopePos(p.ex, p.ey)
			if g.valid(f, cand, true) {
				return f, true
			}
		}
	}
	return layout.FurnitureItem{}, false
}

func (g *generator) placeGeneric(item layout.FurnitureItem, cand *layout.Layout, rng *rand.Rand) (layout.FurnitureItem, bool) {
	if f, ok := g.placeAlongWalls(item, cand, rng); ok {
		return f, true
	}
	return g.gridScan(item, cand, true)
}

// gridScan is the last-resort search: coarse, then medium, then fine steps
// over the whole floor at rotation 0.
func (g *generator) gridScan(item layout.FurnitureItem, cand *layout.Layout, corridor bool) (layout.FurnitureItem, bool) {
	for _, step := range []float64{50, 30, 20} {
		for y := float64(gridMargin); y+item.Height <= g.room.Height-gridMargin; y += step {
			for x := float64(gridMargin); x+item.Width <= g.room.Width-gridMargin; x += step {
				f := item
				f.Rotation = 0
				f.X, f.Y = x, y
				if g.valid(f, cand, corridor) {
					return f, true
				}
			}
		}
	}
	return layout.FurnitureItem{}, false
}
