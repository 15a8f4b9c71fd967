package geom

import (
	"encoding/json"
	"testing"
)

func TestPlacementTransform(t *testing.T) {
	tests := []struct {
		name string
		pl   Placement
		in   Coord
		want Coord
	}{
		{"identity", Placement{}, Coord{10, 20}, Coord{10, 20}},
		{"shift", Placement{Shift: Coord{5, 5}}, Coord{10, 20}, Coord{15, 25}},
		{"quarter turn", Placement{Angle: AngleFullTurn / 4}, Coord{10, 0}, Coord{0, 10}},
		{"half turn", Placement{Angle: AngleFullTurn / 2}, Coord{10, 3}, Coord{-10, -3}},
		{"three quarter", Placement{Angle: 3 * AngleFullTurn / 4}, Coord{10, 0}, Coord{0, -10}},
		{"mirror", Placement{Mirror: true}, Coord{10, 3}, Coord{-10, 3}},
		{"eighth turn", Placement{Angle: AngleFullTurn / 8}, Coord{1000, 0}, Coord{707, 707}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.pl.Transform(tt.in)
			if got != tt.want {
				t.Errorf("Transform(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestBBox(t *testing.T) {
	bb := NewBBox()
	if !bb.IsEmpty() {
		t.Fatal("new bbox should be empty")
	}
	bb.Expand(Coord{-1, 2})
	bb.Expand(Coord{3, -4})
	if bb.Min != (Coord{-1, -4}) || bb.Max != (Coord{3, 2}) {
		t.Errorf("unexpected bbox %+v", bb)
	}
	if bb.Width() != 4 || bb.Height() != 6 {
		t.Errorf("unexpected size %dx%d", bb.Width(), bb.Height())
	}

	rotated := Placement{Angle: AngleFullTurn / 4}.TransformBBox(bb)
	if rotated.Min != (Coord{-2, -1}) || rotated.Max != (Coord{4, 3}) {
		t.Errorf("unexpected rotated bbox %+v", rotated)
	}
}

func TestCoordJSON(t *testing.T) {
	data, err := json.Marshal(Coord{1, -2})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "[1,-2]" {
		t.Errorf("got %s", data)
	}

	var c Coord
	if err := json.Unmarshal([]byte("[1,2,3]"), &c); err == nil {
		t.Error("expected error for 3 values")
	}
}
