// Package geom provides the integer coordinate types shared by pool entities.
// Coordinates are stored in nanometres.
package geom

import (
	"encoding/json"
	"fmt"
	"math"
)

// Unit conversion constants
const (
	NanometersPerMM = 1_000_000
	AngleFullTurn   = 65536 // angle units per full rotation
)

// Coord is a 2D position in nanometres.
type Coord struct {
	X int64
	Y int64
}

// MM builds a Coord from millimetre values, rounding to the nearest nanometre.
func MM(x, y float64) Coord {
	return Coord{X: int64(math.Round(x * NanometersPerMM)), Y: int64(math.Round(y * NanometersPerMM))}
}

func (c Coord) Add(o Coord) Coord { return Coord{X: c.X + o.X, Y: c.Y + o.Y} }
func (c Coord) Sub(o Coord) Coord { return Coord{X: c.X - o.X, Y: c.Y - o.Y} }

// Min returns the component-wise minimum.
func Min(a, b Coord) Coord {
	return Coord{X: min(a.X, b.X), Y: min(a.Y, b.Y)}
}

// Max returns the component-wise maximum.
func Max(a, b Coord) Coord {
	return Coord{X: max(a.X, b.X), Y: max(a.Y, b.Y)}
}

// MarshalJSON encodes the coordinate as [x, y].
func (c Coord) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int64{c.X, c.Y})
}

// UnmarshalJSON decodes a [x, y] pair.
func (c *Coord) UnmarshalJSON(data []byte) error {
	var v []int64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("coordinate: %w", err)
	}
	if len(v) != 2 {
		return fmt.Errorf("coordinate: expected 2 values, got %d", len(v))
	}
	c.X, c.Y = v[0], v[1]
	return nil
}

// Placement positions a child object: optional mirror about the Y axis,
// then rotation, then translation.
type Placement struct {
	Shift  Coord `json:"shift"`
	Angle  int   `json:"angle"` // 1/65536 turn
	Mirror bool  `json:"mirror"`
}

// AngleDegrees returns the rotation in degrees.
func (p Placement) AngleDegrees() float64 {
	return float64(p.Angle) * 360.0 / AngleFullTurn
}

// Transform maps a point from the child frame into the parent frame.
func (p Placement) Transform(c Coord) Coord {
	x, y := c.X, c.Y
	if p.Mirror {
		x = -x
	}

	switch ((p.Angle % AngleFullTurn) + AngleFullTurn) % AngleFullTurn {
	case 0:
	case AngleFullTurn / 4:
		x, y = -y, x
	case AngleFullTurn / 2:
		x, y = -x, -y
	case 3 * AngleFullTurn / 4:
		x, y = y, -x
	default:
		rad := float64(p.Angle) * 2 * math.Pi / AngleFullTurn
		cos, sin := math.Cos(rad), math.Sin(rad)
		fx, fy := float64(x), float64(y)
		x = int64(math.Round(fx*cos - fy*sin))
		y = int64(math.Round(fx*sin + fy*cos))
	}

	return Coord{X: x + p.Shift.X, Y: y + p.Shift.Y}
}

// TransformBBox transforms all four corners of bb and returns their bounds.
func (p Placement) TransformBBox(bb BBox) BBox {
	if bb.IsEmpty() {
		return bb
	}
	out := NewBBox()
	for _, c := range []Coord{bb.Min, bb.Max, {X: bb.Min.X, Y: bb.Max.Y}, {X: bb.Max.X, Y: bb.Min.Y}} {
		out.Expand(p.Transform(c))
	}
	return out
}
