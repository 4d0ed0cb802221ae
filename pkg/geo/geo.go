// Package geo provides the 2D geometry operations used by placement and
// validation: oriented rectangles, intersection tests and areas, buffered
// corridors, and swing zones.
//
// Shapes are [orb.Ring] values in room coordinates (centimeters, y down).
// Every shape in this domain is convex — rotated rectangles, circles,
// capsules, and their clips — so the intersection routines use exact convex
// algorithms: separating-axis testing for the boolean check and
// Sutherland–Hodgman clipping for areas. orb supplies the geometry types and
// planar measures; it has no polygon boolean ops, which is why the clip loop
// lives here.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

const eps = 1e-9

// circleSegments is the arc resolution for buffered shapes.
const circleSegments = 32

// Box returns a closed axis-aligned rectangle ring.
func Box(minX, minY, maxX, maxY float64) orb.Ring {
	return orb.Ring{
		{minX, minY},
		{maxX, minY},
		{maxX, maxY},
		{minX, maxY},
		{minX, minY},
	}
}

// Rect returns the closed ring of a w×h rectangle whose unrotated top-left
// corner is (x, y), rotated clockwise by rot degrees (0, 90, 180 or 270)
// about the rectangle's center.
func Rect(x, y, w, h float64, rot int) orb.Ring {
	if rot == 0 {
		return Box(x, y, x+w, y+h)
	}
	cx, cy := x+w/2, y+h/2
	rad := float64(rot) * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	corners := [4][2]float64{
		{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h},
	}
	ring := make(orb.Ring, 0, 5)
	for _, c := range corners {
		dx, dy := c[0]-cx, c[1]-cy
		ring = append(ring, orb.Point{cx + dx*cos - dy*sin, cy + dx*sin + dy*cos})
	}
	ring = append(ring, ring[0])
	return ring
}

// Circle returns a closed ring approximating a circle.
func Circle(center orb.Point, radius float64) orb.Ring {
	ring := make(orb.Ring, 0, circleSegments+1)
	for i := 0; i < circleSegments; i++ {
		a := 2 * math.Pi * float64(i) / circleSegments
		ring = append(ring, orb.Point{
			center.X() + radius*math.Cos(a),
			center.Y() + radius*math.Sin(a),
		})
	}
	ring = append(ring, ring[0])
	return ring
}

// BufferSegment returns a capsule: the set of points within radius of the
// segment from a to b. Degenerate segments reduce to a circle.
func BufferSegment(a, b orb.Point, radius float64) orb.Ring {
	dx, dy := b.X()-a.X(), b.Y()-a.Y()
	length := math.Hypot(dx, dy)
	if length < eps {
		return Circle(a, radius)
	}
	dx, dy = dx/length, dy/length
	// Angle of the segment direction; arcs sweep half circles around each end.
	base := math.Atan2(dy, dx)
	half := circleSegments / 2
	ring := make(orb.Ring, 0, circleSegments+3)
	for i := 0; i <= half; i++ {
		ang := base - math.Pi/2 + math.Pi*float64(i)/float64(half)
		ring = append(ring, orb.Point{
			b.X() + radius*math.Cos(ang),
			b.Y() + radius*math.Sin(ang),
		})
	}
	for i := 0; i <= half; i++ {
		ang := base + math.Pi/2 + math.Pi*float64(i)/float64(half)
		ring = append(ring, orb.Point{
			a.X() + radius*math.Cos(ang),
			a.Y() + radius*math.Sin(ang),
		})
	}
	ring = append(ring, ring[0])
	return ring
}

// Area returns the unsigned area of a ring.
func Area(r orb.Ring) float64 {
	return math.Abs(signedArea(r))
}

// Centroid returns the area centroid of a ring.
func Centroid(r orb.Ring) orb.Point {
	c, _ := planar.CentroidArea(orb.Polygon{r})
	return c
}

// Intersects reports whether two convex rings overlap with positive area.
// Rings that merely touch along an edge or corner do not intersect.
func Intersects(a, b orb.Ring) bool {
	return !separated(a, b) && !separated(b, a)
}

// IntersectionArea returns the overlap area of two convex rings.
func IntersectionArea(a, b orb.Ring) float64 {
	return Area(Clip(a, b))
}

// Clip returns the part of subject inside the convex ring clip, as a closed
// ring, or nil when the intersection is empty or degenerate.
func Clip(subject, clip orb.Ring) orb.Ring {
	out := openRing(subject)
	c := ccw(openRing(clip))
	for i := 0; i < len(c) && len(out) > 0; i++ {
		a, b := c[i], c[(i+1)%len(c)]
		out = clipEdge(out, a, b)
	}
	if len(out) < 3 {
		return nil
	}
	out = append(out, out[0])
	return out
}

// InBound reports whether every vertex of r lies inside b (with tolerance).
func InBound(r orb.Ring, b orb.Bound) bool {
	for _, p := range r {
		if p.X() < b.Min.X()-eps || p.Y() < b.Min.Y()-eps ||
			p.X() > b.Max.X()+eps || p.Y() > b.Max.Y()+eps {
			return false
		}
	}
	return true
}

// SpanX returns the x extent of a ring's bounding box. Nil rings span zero.
func SpanX(r orb.Ring) float64 {
	if len(r) == 0 {
		return 0
	}
	b := r.Bound()
	return b.Max.X() - b.Min.X()
}

// SpanY returns the y extent of a ring's bounding box. Nil rings span zero.
func SpanY(r orb.Ring) float64 {
	if len(r) == 0 {
		return 0
	}
	b := r.Bound()
	return b.Max.Y() - b.Min.Y()
}

// Distance returns the euclidean distance between two points.
func Distance(a, b orb.Point) float64 {
	return math.Hypot(b.X()-a.X(), b.Y()-a.Y())
}

// =============================================================================
// Internals
// =============================================================================

func signedArea(r orb.Ring) float64 {
	if len(r) < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < len(r)-1; i++ {
		sum += r[i].X()*r[i+1].Y() - r[i+1].X()*r[i].Y()
	}
	// Close the ring if the caller didn't.
	if r[0] != r[len(r)-1] {
		last := r[len(r)-1]
		sum += last.X()*r[0].Y() - r[0].X()*last.Y()
	}
	return sum / 2
}

// openRing strips the closing point so vertices appear exactly once.
func openRing(r orb.Ring) []orb.Point {
	if len(r) > 1 && r[0] == r[len(r)-1] {
		return r[:len(r)-1]
	}
	return r
}

// ccw normalizes vertex order so the interior is to the left of each edge.
func ccw(pts []orb.Point) []orb.Point {
	if signedArea(orb.Ring(pts)) >= 0 {
		return pts
	}
	out := make([]orb.Point, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}

func cross(ax, ay, bx, by float64) float64 {
	return ax*by - ay*bx
}

// inside reports whether p is on the interior side of the directed edge a→b.
func inside(p, a, b orb.Point) bool {
	return cross(b.X()-a.X(), b.Y()-a.Y(), p.X()-a.X(), p.Y()-a.Y()) >= -eps
}

func lineIntersection(p, q, a, b orb.Point) orb.Point {
	// Intersection of segment p→q with the infinite line through a→b.
	dx1, dy1 := q.X()-p.X(), q.Y()-p.Y()
	dx2, dy2 := b.X()-a.X(), b.Y()-a.Y()
	denom := cross(dx1, dy1, dx2, dy2)
	if math.Abs(denom) < eps {
		return q
	}
	t := cross(a.X()-p.X(), a.Y()-p.Y(), dx2, dy2) / denom
	return orb.Point{p.X() + t*dx1, p.Y() + t*dy1}
}

func clipEdge(pts []orb.Point, a, b orb.Point) []orb.Point {
	var out []orb.Point
	for i := 0; i < len(pts); i++ {
		p, q := pts[i], pts[(i+1)%len(pts)]
		pin, qin := inside(p, a, b), inside(q, a, b)
		switch {
		case pin && qin:
			out = append(out, q)
		case pin && !qin:
			out = append(out, lineIntersection(p, q, a, b))
		case !pin && qin:
			out = append(out, lineIntersection(p, q, a, b), q)
		}
	}
	return out
}

// separated reports whether any edge normal of a is a separating axis.
func separated(a, b orb.Ring) bool {
	pa, pb := openRing(a), openRing(b)
	for i := 0; i < len(pa); i++ {
		p, q := pa[i], pa[(i+1)%len(pa)]
		// Edge normal.
		nx, ny := q.Y()-p.Y(), p.X()-q.X()
		minA, maxA := project(pa, nx, ny)
		minB, maxB := project(pb, nx, ny)
		if maxA <= minB+eps || maxB <= minA+eps {
			return true
		}
	}
	return false
}

func project(pts []orb.Point, nx, ny float64) (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		d := p.X()*nx + p.Y()*ny
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	return min, max
}
