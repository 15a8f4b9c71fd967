package paramprog

import (
	"math"
	"sort"

	"github.com/OpenTraceLab/OpenTracePool/pkg/geom"
)

// miterLimit bounds how far a corner may extend, as a multiple of the offset
// distance. Sharper corners are bevelled.
const miterLimit = 2.0

type vec struct{ x, y float64 }

func (a vec) add(b vec) vec       { return vec{a.x + b.x, a.y + b.y} }
func (a vec) sub(b vec) vec       { return vec{a.x - b.x, a.y - b.y} }
func (a vec) scale(f float64) vec { return vec{a.x * f, a.y * f} }
func (a vec) dot(b vec) float64   { return a.x*b.x + a.y*b.y }
func (a vec) cross(b vec) float64 { return a.x*b.y - a.y*b.x }

func (a vec) coord() geom.Coord {
	return geom.Coord{X: int64(math.Round(a.x)), Y: int64(math.Round(a.y))}
}

// collapsedSize is the half width of the square a consumed outline is
// clamped to.
const collapsedSize = 1

// OffsetOutline grows (d > 0) or shrinks (d < 0) a closed outline by d
// nanometres using mitered joins. The result never crosses itself: a grown
// outline whose notches close up is offset from its convex hull instead, and
// a shrink that consumes the outline clamps it to a minimal square at its
// centroid.
func OffsetOutline(pts []geom.Coord, d int64) []geom.Coord {
	poly := cleanOutline(pts)
	if len(poly) < 3 {
		return collapsed(centroid(poly))
	}
	area := signedArea(poly)
	if area == 0 {
		return collapsed(centroid(poly))
	}
	if area < 0 {
		for i, j := 0, len(poly)-1; i < j; i, j = i+1, j-1 {
			poly[i], poly[j] = poly[j], poly[i]
		}
	}
	if d == 0 {
		return toCoords(poly)
	}

	out, ok := offsetCCW(poly, float64(d))
	if ok {
		return toCoords(out)
	}
	if d < 0 {
		return collapsed(centroid(poly))
	}
	// A concave outline whose notches close up when growing.
	out, ok = offsetCCW(convexHull(poly), float64(d))
	if !ok {
		return toCoords(poly)
	}
	return toCoords(out)
}

// offsetCCW offsets each edge along its outward normal and joins neighbours
// at their miter point. It reports false when an edge flips direction, two
// edges cross or the result has no area.
func offsetCCW(poly []vec, d float64) ([]vec, bool) {
	n := len(poly)
	normals := make([]vec, n)
	for i := range poly {
		e := poly[(i+1)%n].sub(poly[i])
		l := math.Hypot(e.x, e.y)
		normals[i] = vec{e.y / l, -e.x / l}
	}

	out := make([]vec, 0, n)
	for i := range poly {
		n1 := normals[(i+n-1)%n]
		n2 := normals[i]
		p := poly[i]
		k := 1 + n1.dot(n2)
		// Only corners on the side the outline moves towards are bevelled.
		outer := n1.cross(n2)*d > 0
		if k > 1e-9 && (!outer || k >= 2/(miterLimit*miterLimit)) {
			out = append(out, p.add(n1.add(n2).scale(d/k)))
		} else {
			out = append(out, p.add(n1.scale(d)), p.add(n2.scale(d)))
		}
	}

	// Reject results where an edge reversed relative to its source.
	m := len(out)
	if m == n {
		for i := range poly {
			src := poly[(i+1)%n].sub(poly[i])
			dst := out[(i+1)%n].sub(out[i])
			if src.dot(dst) <= 0 {
				return nil, false
			}
		}
	}
	if signedArea(out) <= 0 || selfIntersects(out) {
		return nil, false
	}
	return out, true
}

// collapsed returns the smallest square outline centred on c.
func collapsed(c vec) []geom.Coord {
	p := c.coord()
	return []geom.Coord{
		{X: p.X - collapsedSize, Y: p.Y - collapsedSize},
		{X: p.X + collapsedSize, Y: p.Y - collapsedSize},
		{X: p.X + collapsedSize, Y: p.Y + collapsedSize},
		{X: p.X - collapsedSize, Y: p.Y + collapsedSize},
	}
}

// selfIntersects reports whether any two non-adjacent edges of the closed
// outline touch or cross.
func selfIntersects(poly []vec) bool {
	n := len(poly)
	for i := 0; i < n; i++ {
		a1, a2 := poly[i], poly[(i+1)%n]
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue
			}
			if segmentsIntersect(a1, a2, poly[j], poly[(j+1)%n]) {
				return true
			}
		}
	}
	return false
}

func segmentsIntersect(p1, p2, q1, q2 vec) bool {
	d1 := orient(q1, q2, p1)
	d2 := orient(q1, q2, p2)
	d3 := orient(p1, p2, q1)
	d4 := orient(p1, p2, q2)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && onSegment(q1, q2, p1)) ||
		(d2 == 0 && onSegment(q1, q2, p2)) ||
		(d3 == 0 && onSegment(p1, p2, q1)) ||
		(d4 == 0 && onSegment(p1, p2, q2))
}

func orient(a, b, c vec) float64 {
	return b.sub(a).cross(c.sub(a))
}

// onSegment reports whether c, known to be collinear with a and b, lies
// between them.
func onSegment(a, b, c vec) bool {
	return math.Min(a.x, b.x) <= c.x && c.x <= math.Max(a.x, b.x) &&
		math.Min(a.y, b.y) <= c.y && c.y <= math.Max(a.y, b.y)
}

func cleanOutline(pts []geom.Coord) []vec {
	out := make([]vec, 0, len(pts))
	for _, p := range pts {
		v := vec{float64(p.X), float64(p.Y)}
		if len(out) > 0 && out[len(out)-1] == v {
			continue
		}
		out = append(out, v)
	}
	for len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}

func signedArea(poly []vec) float64 {
	var a float64
	for i := range poly {
		a += poly[i].cross(poly[(i+1)%len(poly)])
	}
	return a / 2
}

func centroid(poly []vec) vec {
	if len(poly) == 0 {
		return vec{}
	}
	var c vec
	for _, p := range poly {
		c = c.add(p)
	}
	return c.scale(1 / float64(len(poly)))
}

// convexHull returns the hull in counter-clockwise order.
func convexHull(poly []vec) []vec {
	pts := append([]vec(nil), poly...)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].x != pts[j].x {
			return pts[i].x < pts[j].x
		}
		return pts[i].y < pts[j].y
	})
	if len(pts) < 3 {
		return pts
	}
	hull := make([]vec, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && hull[len(hull)-1].sub(hull[len(hull)-2]).cross(p.sub(hull[len(hull)-2])) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && hull[len(hull)-1].sub(hull[len(hull)-2]).cross(p.sub(hull[len(hull)-2])) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

func toCoords(poly []vec) []geom.Coord {
	out := make([]geom.Coord, len(poly))
	for i, p := range poly {
		out[i] = p.coord()
	}
	return out
}
