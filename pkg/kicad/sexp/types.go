// Package sexp provides navigation helpers over KiCad S-expressions and the
// conversion from KiCad file units to pool units.
package sexp

import (
	"math"

	"github.com/OpenTraceLab/OpenTracePool/pkg/geom"
)

// KiCad footprint files store lengths in millimetres with the Y axis pointing
// down, and angles in degrees. Pool coordinates are nanometres with Y up.

// Length converts a KiCad length in millimetres to nanometres.
func Length(mm float64) int64 {
	return int64(math.Round(mm * geom.NanometersPerMM))
}

// Point converts a KiCad position to a pool coordinate, flipping the Y axis.
func Point(x, y float64) geom.Coord {
	return geom.Coord{X: Length(x), Y: -Length(y)}
}

// Angle converts degrees to pool angle units. Flipping the Y axis keeps the
// visual rotation direction, so the sign is preserved. The result is
// normalized to [0, AngleFullTurn).
func Angle(deg float64) int {
	a := int(math.Round(deg * geom.AngleFullTurn / 360))
	return ((a % geom.AngleFullTurn) + geom.AngleFullTurn) % geom.AngleFullTurn
}
