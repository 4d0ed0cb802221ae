package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestRectArea(t *testing.T) {
	tests := []struct {
		name string
		rot  int
	}{
		{"unrotated", 0},
		{"quarter turn", 90},
		{"half turn", 180},
		{"three quarters", 270},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Rect(10, 20, 120, 60, tt.rot)
			if got := Area(r); !almostEqual(got, 7200, 1e-6) {
				t.Errorf("Area() = %v, want 7200", got)
			}
		})
	}
}

func TestRectRotationEnvelope(t *testing.T) {
	// A 90 degree rotation swaps the envelope extents about the center.
	r := Rect(0, 0, 100, 40, 90)
	if got := SpanX(r); !almostEqual(got, 40, 1e-6) {
		t.Errorf("SpanX = %v, want 40", got)
	}
	if got := SpanY(r); !almostEqual(got, 100, 1e-6) {
		t.Errorf("SpanY = %v, want 100", got)
	}
}

func TestIntersects(t *testing.T) {
	tests := []struct {
		name string
		a, b orb.Ring
		want bool
	}{
		{
			name: "overlapping",
			a:    Box(0, 0, 100, 100),
			b:    Box(50, 50, 150, 150),
			want: true,
		},
		{
			name: "disjoint",
			a:    Box(0, 0, 100, 100),
			b:    Box(200, 0, 300, 100),
			want: false,
		},
		{
			name: "touching edge is not overlap",
			a:    Box(0, 0, 100, 100),
			b:    Box(100, 0, 200, 100),
			want: false,
		},
		{
			name: "touching corner is not overlap",
			a:    Box(0, 0, 100, 100),
			b:    Box(100, 100, 200, 200),
			want: false,
		},
		{
			name: "contained",
			a:    Box(0, 0, 100, 100),
			b:    Box(25, 25, 75, 75),
			want: true,
		},
		{
			name: "rotated across",
			a:    Rect(40, 0, 20, 200, 0),
			b:    Rect(0, 90, 200, 20, 0),
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Intersects(tt.a, tt.b); got != tt.want {
				t.Errorf("Intersects() = %v, want %v", got, tt.want)
			}
			// Symmetric by definition.
			if got := Intersects(tt.b, tt.a); got != tt.want {
				t.Errorf("Intersects() reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIntersectionArea(t *testing.T) {
	tests := []struct {
		name string
		a, b orb.Ring
		want float64
	}{
		{"half overlap", Box(0, 0, 100, 100), Box(50, 0, 150, 100), 5000},
		{"contained", Box(0, 0, 100, 100), Box(25, 25, 75, 75), 2500},
		{"disjoint", Box(0, 0, 100, 100), Box(200, 200, 300, 300), 0},
		{"touching", Box(0, 0, 100, 100), Box(100, 0, 200, 100), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IntersectionArea(tt.a, tt.b); !almostEqual(got, tt.want, 1e-6) {
				t.Errorf("IntersectionArea() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClipRotated(t *testing.T) {
	// A 45 degree style overlap: diamond-ish check via two crossing strips.
	vertical := Rect(90, 0, 20, 300, 0)
	horizontal := Rect(0, 140, 300, 20, 0)
	got := IntersectionArea(vertical, horizontal)
	if !almostEqual(got, 400, 1e-6) {
		t.Errorf("IntersectionArea() = %v, want 400", got)
	}
}

func TestCircleArea(t *testing.T) {
	c := Circle(orb.Point{50, 50}, 90)
	want := math.Pi * 90 * 90
	// Polygonal approximation runs a little under the true area.
	if got := Area(c); got > want || got < want*0.98 {
		t.Errorf("Area() = %v, want approximately %v", got, want)
	}
}

func TestBufferSegment(t *testing.T) {
	a, b := orb.Point{0, 100}, orb.Point{200, 100}
	zone := BufferSegment(a, b, 45)
	// Rectangle part plus two half discs.
	want := 200*90 + math.Pi*45*45
	if got := Area(zone); !almostEqual(got, want, want*0.02) {
		t.Errorf("Area() = %v, want approximately %v", got, want)
	}
	// The capsule must cover points along the corridor and miss far ones.
	if !Intersects(zone, Box(95, 95, 105, 105)) {
		t.Error("capsule should cover its own midline")
	}
	if Intersects(zone, Box(95, 200, 105, 210)) {
		t.Error("capsule should not reach 100cm off axis")
	}
}

func TestBufferSegmentDegenerate(t *testing.T) {
	p := orb.Point{50, 50}
	got := Area(BufferSegment(p, p, 30))
	want := math.Pi * 30 * 30
	if got > want || got < want*0.98 {
		t.Errorf("Area() = %v, want approximately %v", got, want)
	}
}

func TestCentroid(t *testing.T) {
	c := Centroid(Box(0, 0, 100, 60))
	if !almostEqual(c.X(), 50, 1e-6) || !almostEqual(c.Y(), 30, 1e-6) {
		t.Errorf("Centroid() = %v, want {50 30}", c)
	}
}

func TestInBound(t *testing.T) {
	room := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{400, 350}}
	tests := []struct {
		name string
		r    orb.Ring
		want bool
	}{
		{"inside", Box(10, 10, 100, 100), true},
		{"flush against wall", Box(0, 0, 100, 100), true},
		{"sticking out", Box(350, 10, 450, 100), false},
		{"negative corner", Box(-5, 10, 100, 100), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InBound(tt.r, room); got != tt.want {
				t.Errorf("InBound() = %v, want %v", got, tt.want)
			}
		})
	}
}
