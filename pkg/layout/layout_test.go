package layout

import (
	"strings"
	"testing"
)

func TestCategoryFromName(t *testing.T) {
	tests := []struct {
		name string
		want Category
	}{
		{"Bed", CategoryBed},
		{"Double Bed", CategoryBed},
		{"Bedside Table", CategoryBedside},
		{"bedside", CategoryBedside},
		{"Wardrobe", CategoryWardrobe},
		{"Dining Table", CategoryTable},
		{"Chair", CategoryChair},
		{"Armchair", CategoryChair},
		{"Sofa", CategorySofa},
		{"Plant", CategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CategoryFromName(tt.name); got != tt.want {
				t.Errorf("CategoryFromName(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestWallRotation(t *testing.T) {
	tests := []struct {
		wall Wall
		want int
	}{
		{WallTop, 0},
		{WallBottom, 180},
		{WallLeft, 270},
		{WallRight, 90},
	}
	for _, tt := range tests {
		if got := tt.wall.Rotation(); got != tt.want {
			t.Errorf("%s.Rotation() = %d, want %d", tt.wall, got, tt.want)
		}
		if tt.wall.Opposite().Opposite() != tt.wall {
			t.Errorf("%s.Opposite() is not an involution", tt.wall)
		}
	}
}

func TestEffectiveSize(t *testing.T) {
	f := NewItem("Bed", 140, 200)
	w, h := f.EffectiveSize()
	if w != 140 || h != 200 {
		t.Errorf("EffectiveSize() = %g×%g, want 140×200", w, h)
	}
	f.Rotation = 90
	w, h = f.EffectiveSize()
	if w != 200 || h != 140 {
		t.Errorf("EffectiveSize() rotated = %g×%g, want 200×140", w, h)
	}
}

func TestSetEnvelopePos(t *testing.T) {
	for _, rot := range []int{0, 90, 180, 270} {
		f := NewItem("Wardrobe", 120, 60)
		f.Rotation = rot
		f.SetEnvelopePos(30, 40)
		env := f.Envelope()
		if env.Min.X() != 30 || env.Min.Y() != 40 {
			t.Errorf("rotation %d: envelope min = %v, want {30 40}", rot, env.Min)
		}
		ew, eh := f.EffectiveSize()
		if env.Max.X() != 30+ew || env.Max.Y() != 40+eh {
			t.Errorf("rotation %d: envelope max = %v", rot, env.Max)
		}
	}
}

func TestInBounds(t *testing.T) {
	room := Room{Width: 400, Height: 350}
	f := NewItem("Bed", 140, 200)
	f.Rotation = 90
	// Envelope is 200×140: nominal box at (250, 200) would fit unrotated,
	// but the rotated envelope extends past the right wall.
	f.X, f.Y = 250, 200
	if f.InBounds(room) {
		t.Error("rotated envelope past the wall should be out of bounds")
	}
	f.SetEnvelopePos(200, 210)
	if !f.InBounds(room) {
		t.Error("envelope-placed item should be in bounds")
	}
}

func TestLayoutAccessors(t *testing.T) {
	l := Layout{
		Room: Room{Width: 400, Height: 350},
		Furniture: []FurnitureItem{
			NewItem("Bed", 140, 200),
			NewItem("Bedside Table", 40, 40),
			NewItem("Chair", 45, 45),
		},
		Openings: []Opening{
			{Type: OpeningDoor, Wall: WallBottom, Position: 150, Size: 90},
			{Type: OpeningWindow, Wall: WallTop, Position: 100, Size: 120},
		},
	}
	if d := l.Door(); d == nil || d.Wall != WallBottom {
		t.Fatalf("Door() = %+v, want bottom-wall door", d)
	}
	if got := len(l.Windows()); got != 1 {
		t.Errorf("Windows() count = %d, want 1", got)
	}
	if b := l.FirstByCategory(CategoryBed); b == nil || b.Name != "Bed" {
		t.Errorf("FirstByCategory(bed) = %+v", b)
	}
	if l.FirstByCategory(CategorySofa) != nil {
		t.Error("FirstByCategory(sofa) should be nil")
	}
}

func TestValidate(t *testing.T) {
	valid := Layout{
		Room:      Room{Width: 400, Height: 350},
		Furniture: []FurnitureItem{NewItem("Bed", 140, 200)},
		Openings:  []Opening{{Type: OpeningDoor, Wall: WallBottom, Position: 150, Size: 90}},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() on valid layout: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Layout)
	}{
		{"zero room width", func(l *Layout) { l.Room.Width = 0 }},
		{"negative furniture size", func(l *Layout) { l.Furniture[0].Width = -1 }},
		{"bad rotation", func(l *Layout) { l.Furniture[0].Rotation = 45 }},
		{"empty name", func(l *Layout) { l.Furniture[0].Name = "" }},
		{"unknown wall", func(l *Layout) { l.Openings[0].Wall = "diagonal" }},
		{"unknown opening type", func(l *Layout) { l.Openings[0].Type = "hatch" }},
		{"zero opening size", func(l *Layout) { l.Openings[0].Size = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := valid.Clone()
			tt.mutate(&l)
			if err := l.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestReadLayout(t *testing.T) {
	doc := `{
	  "room": {"width": 400, "height": 350},
	  "furniture": [
	    {"name": "Bed", "width": 140, "height": 200},
	    {"name": "Bedside Table", "width": 40, "height": 40}
	  ],
	  "openings": [
	    {"type": "door", "wall": "bottom", "position": 150, "size": 90}
	  ]
	}`
	l, err := ReadLayout(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ReadLayout() error: %v", err)
	}
	if l.Furniture[0].Category != CategoryBed {
		t.Errorf("category = %v, want bed", l.Furniture[0].Category)
	}
	if l.Furniture[1].Category != CategoryBedside {
		t.Errorf("category = %v, want bedside", l.Furniture[1].Category)
	}
}

func TestReadLayoutRejectsMalformed(t *testing.T) {
	_, err := ReadLayout(strings.NewReader(`{"room": {"width": -10, "height": 350}}`))
	if err == nil {
		t.Error("ReadLayout() accepted negative room width")
	}
}
