// Package footprint implements the package aggregate: the junctions, lines,
// arcs, texts, pads, polygons, keepouts, dimensions and 3D models of one
// footprint, the reference resolution that keeps them linked, their derived
// state and warnings, and parameter application.
//
// A Package is single-owner and not safe for concurrent use.
package footprint

import (
	"github.com/OpenTraceLab/OpenTracePool/pkg/geom"
	"github.com/OpenTraceLab/OpenTracePool/pkg/ident"
	"github.com/OpenTraceLab/OpenTracePool/pkg/padstack"
	"github.com/OpenTraceLab/OpenTracePool/pkg/parameter"
	"github.com/OpenTraceLab/OpenTracePool/pkg/paramprog"
	"github.com/OpenTraceLab/OpenTracePool/pkg/primitive"
)

// Pool resolves the shared templates a package refers to. GetPadstack must
// return a value the caller may keep; it is never modified by a package.
type Pool interface {
	GetPadstack(id ident.ID) (*padstack.Padstack, error)
	GetPackage(id ident.ID) (*Package, error)
}

// Pad is an instance of a pool padstack. Padstack is the pad's own working
// copy; PoolPadstack is the template it was copied from.
type Pad struct {
	UUID         ident.ID                         `json:"-"`
	Name         string                           `json:"name"`
	Placement    geom.Placement                   `json:"placement"`
	PoolPadstack primitive.Ref[padstack.Padstack] `json:"padstack"`
	Padstack     *padstack.Padstack               `json:"-"`
	ParameterSet parameter.Set                    `json:"parameter_set"`
}

// Clone returns a copy with its own working padstack. The template
// reference is shared.
func (p *Pad) Clone() *Pad {
	c := *p
	if p.Padstack != nil {
		c.Padstack = p.Padstack.Clone()
	}
	c.ParameterSet = p.ParameterSet.Clone()
	return &c
}

// template returns the pool padstack, falling back to the working copy.
func (p *Pad) template() *padstack.Padstack {
	if ps := p.PoolPadstack.Get(); ps != nil {
		return ps
	}
	return p.Padstack
}

// Warning is an advisory message anchored at a position.
type Warning struct {
	Position geom.Coord
	Text     string
}

// Package is a footprint definition.
type Package struct {
	UUID         ident.ID
	Name         string
	Manufacturer string
	Tags         []string

	Junctions  map[ident.ID]*primitive.Junction
	Lines      map[ident.ID]*primitive.Line
	Arcs       map[ident.ID]*primitive.Arc
	Texts      map[ident.ID]*primitive.Text
	Pads       map[ident.ID]*Pad
	Polygons   map[ident.ID]*primitive.Polygon
	Keepouts   map[ident.ID]*primitive.Keepout
	Dimensions map[ident.ID]*primitive.Dimension

	Models       map[ident.ID]*Model
	DefaultModel ident.ID

	ParameterSet     parameter.Set
	ParameterProgram *paramprog.Program

	// AlternateFor is the package this one substitutes for, or nil.
	AlternateFor *Package

	// Warnings is rebuilt by UpdateWarnings and never persisted.
	Warnings []Warning
}

// New returns an empty package.
func New(id ident.ID) *Package {
	p := &Package{
		UUID:             id,
		Junctions:        make(map[ident.ID]*primitive.Junction),
		Lines:            make(map[ident.ID]*primitive.Line),
		Arcs:             make(map[ident.ID]*primitive.Arc),
		Texts:            make(map[ident.ID]*primitive.Text),
		Pads:             make(map[ident.ID]*Pad),
		Polygons:         make(map[ident.ID]*primitive.Polygon),
		Keepouts:         make(map[ident.ID]*primitive.Keepout),
		Dimensions:       make(map[ident.ID]*primitive.Dimension),
		Models:           make(map[ident.ID]*Model),
		ParameterSet:     make(parameter.Set),
		ParameterProgram: paramprog.New(""),
	}
	p.bindProgram()
	return p
}

// PolygonTable implements paramprog.PolygonOwner.
func (p *Package) PolygonTable() map[ident.ID]*primitive.Polygon {
	return p.Polygons
}

// SetParameterProgram replaces the program source and binds it to p.
func (p *Package) SetParameterProgram(code string) {
	p.ParameterProgram = paramprog.New(code)
	p.bindProgram()
}

func (p *Package) bindProgram() {
	if p.ParameterProgram == nil {
		p.ParameterProgram = paramprog.New("")
	}
	p.ParameterProgram.Extend(func() paramprog.CommandTable {
		return paramprog.PolygonCommands(p)
	})
}

// AddJunction inserts a junction at pos and returns it.
func (p *Package) AddJunction(id ident.ID, pos geom.Coord) *primitive.Junction {
	j := primitive.NewJunction(id, pos)
	p.Junctions[id] = j
	return j
}

// AddLine inserts a line between two junctions of p.
func (p *Package) AddLine(id ident.ID, from, to *primitive.Junction, width int64, layerIndex int) *primitive.Line {
	l := &primitive.Line{
		UUID:  id,
		From:  primitive.RefTo(from.UUID, from),
		To:    primitive.RefTo(to.UUID, to),
		Width: width,
		Layer: layerIndex,
	}
	p.Lines[id] = l
	return l
}

// AddArc inserts an arc between junctions of p.
func (p *Package) AddArc(id ident.ID, from, to, center *primitive.Junction, width int64, layerIndex int) *primitive.Arc {
	a := &primitive.Arc{
		UUID:   id,
		From:   primitive.RefTo(from.UUID, from),
		To:     primitive.RefTo(to.UUID, to),
		Center: primitive.RefTo(center.UUID, center),
		Width:  width,
		Layer:  layerIndex,
	}
	p.Arcs[id] = a
	return a
}

// AddPad places a working copy of template.
func (p *Package) AddPad(id ident.ID, name string, template *padstack.Padstack, placement geom.Placement) *Pad {
	pad := &Pad{
		UUID:         id,
		Name:         name,
		Placement:    placement,
		PoolPadstack: primitive.RefTo(template.UUID, template),
		Padstack:     template.Clone(),
		ParameterSet: make(parameter.Set),
	}
	p.Pads[id] = pad
	return pad
}

// AddKeepout wraps poly, which must already belong to p.
func (p *Package) AddKeepout(id ident.ID, poly *primitive.Polygon, class string) *primitive.Keepout {
	k := &primitive.Keepout{
		UUID:         id,
		Polygon:      primitive.RefTo(poly.UUID, poly),
		KeepoutClass: class,
	}
	p.Keepouts[id] = k
	return k
}
