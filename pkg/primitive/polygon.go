package primitive

import (
	"math"

	"github.com/OpenTraceLab/OpenTracePool/pkg/geom"
	"github.com/OpenTraceLab/OpenTracePool/pkg/ident"
)

// VertexType tells how the edge leaving a vertex is drawn.
type VertexType string

const (
	VertexLine VertexType = "line"
	VertexArc  VertexType = "arc"
)

// Vertex is one corner of a polygon. For arc vertices the edge to the next
// vertex is a circular arc around ArcCenter, counter-clockwise unless
// ArcReverse is set.
type Vertex struct {
	Type       VertexType `json:"type"`
	Position   geom.Coord `json:"position"`
	ArcCenter  geom.Coord `json:"arc_center"`
	ArcReverse bool       `json:"arc_reverse"`
}

// Polygon is a closed outline. Polygons written by a parameter program are
// marked Generated.
type Polygon struct {
	UUID           ident.ID `json:"-"`
	Vertices       []Vertex `json:"vertices"`
	Layer          int      `json:"layer"`
	ParameterClass string   `json:"parameter_class"`
	Generated      bool     `json:"generated,omitempty"`
}

// Clone returns a deep copy of p.
func (p *Polygon) Clone() *Polygon {
	c := *p
	c.Vertices = append([]Vertex(nil), p.Vertices...)
	return &c
}

// SetOutline replaces the vertex list with straight edges through pts.
func (p *Polygon) SetOutline(pts []geom.Coord) {
	p.Vertices = make([]Vertex, 0, len(pts))
	for _, pt := range pts {
		p.Vertices = append(p.Vertices, Vertex{Type: VertexLine, Position: pt})
	}
}

// Outline flattens the polygon into a closed path. Arcs are approximated with
// at most segmentsPerTurn segments per full circle.
func (p *Polygon) Outline(segmentsPerTurn int) []geom.Coord {
	if segmentsPerTurn < 4 {
		segmentsPerTurn = 4
	}
	var out []geom.Coord
	for i, v := range p.Vertices {
		out = append(out, v.Position)
		if v.Type != VertexArc {
			continue
		}
		next := p.Vertices[(i+1)%len(p.Vertices)].Position
		out = append(out, arcPoints(v.Position, next, v.ArcCenter, v.ArcReverse, segmentsPerTurn)...)
	}
	return out
}

// BBox returns the bounds of the flattened outline.
func (p *Polygon) BBox() geom.BBox {
	bb := geom.NewBBox()
	for _, c := range p.Outline(64) {
		bb.Expand(c)
	}
	return bb
}

// arcPoints returns the intermediate points of the arc from a to b around c,
// excluding both end points.
func arcPoints(a, b, c geom.Coord, reverse bool, segmentsPerTurn int) []geom.Coord {
	r := float64(hypot(a.Sub(c)))
	if r == 0 {
		return nil
	}
	a0 := math.Atan2(float64(a.Y-c.Y), float64(a.X-c.X))
	a1 := math.Atan2(float64(b.Y-c.Y), float64(b.X-c.X))
	sweep := a1 - a0
	if reverse {
		for sweep >= 0 {
			sweep -= 2 * math.Pi
		}
	} else {
		for sweep <= 0 {
			sweep += 2 * math.Pi
		}
	}

	n := int(math.Ceil(math.Abs(sweep) / (2 * math.Pi) * float64(segmentsPerTurn)))
	var out []geom.Coord
	for i := 1; i < n; i++ {
		t := a0 + sweep*float64(i)/float64(n)
		out = append(out, geom.Coord{
			X: c.X + int64(math.Round(r*math.Cos(t))),
			Y: c.Y + int64(math.Round(r*math.Sin(t))),
		})
	}
	return out
}

func hypot(c geom.Coord) int64 {
	return int64(math.Round(math.Hypot(float64(c.X), float64(c.Y))))
}
