// Package padstack describes the layered copper, mask and hole structure of
// a pad. Pool padstacks are templates; every pad works on its own clone.
package padstack

import (
	"encoding/json"
	"fmt"

	"github.com/OpenTraceLab/OpenTracePool/pkg/geom"
	"github.com/OpenTraceLab/OpenTracePool/pkg/ident"
	"github.com/OpenTraceLab/OpenTracePool/pkg/parameter"
	"github.com/OpenTraceLab/OpenTracePool/pkg/paramprog"
	"github.com/OpenTraceLab/OpenTracePool/pkg/primitive"
)

// Type classifies a padstack.
type Type string

const (
	TypeTop        Type = "top"
	TypeBottom     Type = "bottom"
	TypeThrough    Type = "through"
	TypeVia        Type = "via"
	TypeHole       Type = "hole"
	TypeMechanical Type = "mechanical"
)

// HoleShape is the drill shape of a hole.
type HoleShape string

const (
	HoleRound HoleShape = "round"
	HoleSlot  HoleShape = "slot"
)

// Hole is a drilled hole. Slots extend Length along the placement's x axis.
type Hole struct {
	UUID           ident.ID       `json:"-"`
	Placement      geom.Placement `json:"placement"`
	Diameter       int64          `json:"diameter"`
	Length         int64          `json:"length"`
	Shape          HoleShape      `json:"shape"`
	Plated         bool           `json:"plated"`
	ParameterClass string         `json:"parameter_class"`
}

// BBox returns the hole's extent.
func (h *Hole) BBox() geom.BBox {
	r := h.Diameter / 2
	half := r
	if h.Shape == HoleSlot {
		half = max(r, h.Length/2)
	}
	return h.Placement.TransformBBox(geom.BBox{
		Min: geom.Coord{X: -half, Y: -r},
		Max: geom.Coord{X: half, Y: r},
	})
}

// Padstack is a pad template.
type Padstack struct {
	UUID               ident.ID
	Name               string
	Type               Type
	Polygons           map[ident.ID]*primitive.Polygon
	Holes              map[ident.ID]*Hole
	ParameterSet       parameter.Set
	ParametersRequired []parameter.ID
	ParameterProgram   *paramprog.Program
}

// New returns an empty padstack.
func New(id ident.ID) *Padstack {
	p := &Padstack{
		UUID:             id,
		Type:             TypeTop,
		Polygons:         make(map[ident.ID]*primitive.Polygon),
		Holes:            make(map[ident.ID]*Hole),
		ParameterSet:     make(parameter.Set),
		ParameterProgram: paramprog.New(""),
	}
	p.bindProgram()
	return p
}

// PolygonTable implements paramprog.PolygonOwner.
func (p *Padstack) PolygonTable() map[ident.ID]*primitive.Polygon {
	return p.Polygons
}

// SetParameterProgram replaces the program source and binds it to p.
func (p *Padstack) SetParameterProgram(code string) {
	p.ParameterProgram = paramprog.New(code)
	p.bindProgram()
}

func (p *Padstack) bindProgram() {
	if p.ParameterProgram == nil {
		p.ParameterProgram = paramprog.New("")
	}
	p.ParameterProgram.Extend(func() paramprog.CommandTable {
		return paramprog.PolygonCommands(p)
	})
}

// Clone returns a deep copy whose program operates on the copy's polygons.
func (p *Padstack) Clone() *Padstack {
	c := &Padstack{
		UUID:               p.UUID,
		Name:               p.Name,
		Type:               p.Type,
		Polygons:           make(map[ident.ID]*primitive.Polygon, len(p.Polygons)),
		Holes:              make(map[ident.ID]*Hole, len(p.Holes)),
		ParameterSet:       p.ParameterSet.Clone(),
		ParametersRequired: append([]parameter.ID(nil), p.ParametersRequired...),
	}
	for id, poly := range p.Polygons {
		c.Polygons[id] = poly.Clone()
	}
	for id, h := range p.Holes {
		hc := *h
		c.Holes[id] = &hc
	}
	if p.ParameterProgram != nil {
		c.ParameterProgram = p.ParameterProgram.Clone()
	}
	c.bindProgram()
	return c
}

// ApplyParameterSet overlays ps onto the padstack defaults and runs the
// parameter program. Geometry written before a failing statement stays.
func (p *Padstack) ApplyParameterSet(ps parameter.Set) error {
	eff := p.ParameterSet.Clone()
	for id, v := range ps {
		eff[id] = v
	}
	return p.ParameterProgram.Run(eff)
}

// BBox returns the union of polygon outlines and hole extents in padstack
// coordinates.
func (p *Padstack) BBox() geom.BBox {
	bb := geom.NewBBox()
	for _, id := range ident.SortedKeys(p.Polygons) {
		bb.ExpandBox(p.Polygons[id].BBox())
	}
	for _, id := range ident.SortedKeys(p.Holes) {
		bb.ExpandBox(p.Holes[id].BBox())
	}
	return bb
}

// document is the persisted form of a padstack.
type document struct {
	UUID               *ident.ID                       `json:"uuid"`
	Type               string                          `json:"type"`
	Name               *string                         `json:"name"`
	PadstackType       Type                            `json:"padstack_type"`
	Polygons           map[ident.ID]*primitive.Polygon `json:"polygons"`
	Holes              map[ident.ID]*Hole              `json:"holes"`
	ParameterSet       parameter.Set                   `json:"parameter_set"`
	ParametersRequired []parameter.ID                  `json:"parameters_required"`
	ParameterProgram   string                          `json:"parameter_program"`
}

// MarshalJSON encodes the padstack document.
func (p *Padstack) MarshalJSON() ([]byte, error) {
	doc := document{
		UUID:               &p.UUID,
		Type:               "padstack",
		Name:               &p.Name,
		PadstackType:       p.Type,
		Polygons:           p.Polygons,
		Holes:              p.Holes,
		ParameterSet:       p.ParameterSet,
		ParametersRequired: p.ParametersRequired,
	}
	if doc.Polygons == nil {
		doc.Polygons = map[ident.ID]*primitive.Polygon{}
	}
	if doc.Holes == nil {
		doc.Holes = map[ident.ID]*Hole{}
	}
	if doc.ParameterSet == nil {
		doc.ParameterSet = parameter.Set{}
	}
	if doc.ParametersRequired == nil {
		doc.ParametersRequired = []parameter.ID{}
	}
	if p.ParameterProgram != nil {
		doc.ParameterProgram = p.ParameterProgram.Code()
	}
	return json.Marshal(doc)
}

// UnmarshalJSON decodes a padstack document. uuid and name are required.
func (p *Padstack) UnmarshalJSON(data []byte) error {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("padstack: %w", err)
	}
	if doc.UUID == nil {
		return fmt.Errorf("padstack: missing uuid")
	}
	if doc.Name == nil {
		return fmt.Errorf("padstack %s: missing name", doc.UUID)
	}

	*p = Padstack{
		UUID:               *doc.UUID,
		Name:               *doc.Name,
		Type:               doc.PadstackType,
		Polygons:           make(map[ident.ID]*primitive.Polygon, len(doc.Polygons)),
		Holes:              make(map[ident.ID]*Hole, len(doc.Holes)),
		ParameterSet:       doc.ParameterSet,
		ParametersRequired: doc.ParametersRequired,
		ParameterProgram:   paramprog.New(doc.ParameterProgram),
	}
	if p.Type == "" {
		p.Type = TypeTop
	}
	if p.ParameterSet == nil {
		p.ParameterSet = make(parameter.Set)
	}
	for id, poly := range doc.Polygons {
		if poly == nil || len(poly.Vertices) == 0 {
			continue
		}
		poly.UUID = id
		p.Polygons[id] = poly
	}
	for id, h := range doc.Holes {
		if h == nil {
			continue
		}
		h.UUID = id
		p.Holes[id] = h
	}
	p.bindProgram()
	return nil
}
