package geom

import "math"

// BBox is an axis-aligned bounding box.
type BBox struct {
	Min Coord
	Max Coord
}

// NewBBox creates an empty bounding box.
func NewBBox() BBox {
	return BBox{
		Min: Coord{X: math.MaxInt64, Y: math.MaxInt64},
		Max: Coord{X: math.MinInt64, Y: math.MinInt64},
	}
}

// IsEmpty reports whether nothing has been added to the box.
func (bb BBox) IsEmpty() bool {
	return bb.Min.X > bb.Max.X || bb.Min.Y > bb.Max.Y
}

// Expand grows the box to include c.
func (bb *BBox) Expand(c Coord) {
	bb.Min = Min(bb.Min, c)
	bb.Max = Max(bb.Max, c)
}

// ExpandBox grows the box to include other.
func (bb *BBox) ExpandBox(other BBox) {
	if !other.IsEmpty() {
		bb.Expand(other.Min)
		bb.Expand(other.Max)
	}
}

func (bb BBox) Width() int64  { return bb.Max.X - bb.Min.X }
func (bb BBox) Height() int64 { return bb.Max.Y - bb.Min.Y }

// Center returns the midpoint of the box.
func (bb BBox) Center() Coord {
	return Coord{X: (bb.Min.X + bb.Max.X) / 2, Y: (bb.Min.Y + bb.Max.Y) / 2}
}

// Contains checks if c lies within the box (inclusive).
func (bb BBox) Contains(c Coord) bool {
	return c.X >= bb.Min.X && c.X <= bb.Max.X && c.Y >= bb.Min.Y && c.Y <= bb.Max.Y
}
