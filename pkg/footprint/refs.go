package footprint

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTracePool/pkg/ident"
	"github.com/OpenTraceLab/OpenTracePool/pkg/primitive"
)

// UpdateRefs re-points every cross-reference into p's own tables. A line or
// arc whose junction is missing is an error; a keepout whose polygon is
// missing is dropped. The parameter program is rebound to p.
func (p *Package) UpdateRefs() error {
	for _, id := range ident.SortedKeys(p.Lines) {
		l := p.Lines[id]
		for _, r := range []*primitive.Ref[primitive.Junction]{&l.From, &l.To} {
			if !r.IsSet() {
				return fmt.Errorf("footprint: line %s: junction not set", id)
			}
			if !r.Resolve(p.Junctions) {
				return fmt.Errorf("footprint: line %s: junction %s not found", id, r.UUID)
			}
		}
	}
	for _, id := range ident.SortedKeys(p.Arcs) {
		a := p.Arcs[id]
		for _, r := range []*primitive.Ref[primitive.Junction]{&a.From, &a.To, &a.Center} {
			if !r.IsSet() {
				return fmt.Errorf("footprint: arc %s: junction not set", id)
			}
			if !r.Resolve(p.Junctions) {
				return fmt.Errorf("footprint: arc %s: junction %s not found", id, r.UUID)
			}
		}
	}
	p.resolveKeepouts()
	p.bindProgram()
	return nil
}

// UpdateRefsFromPool re-fetches every pad's template from pool, replaces the
// pad's working copy with a fresh clone, then calls UpdateRefs.
func (p *Package) UpdateRefsFromPool(pool Pool) error {
	for _, id := range ident.SortedKeys(p.Pads) {
		pad := p.Pads[id]
		ps, err := pool.GetPadstack(pad.PoolPadstack.UUID)
		if err != nil {
			return fmt.Errorf("footprint: pad %s: %w", pad.Name, err)
		}
		pad.PoolPadstack = primitive.RefTo(ps.UUID, ps)
		pad.Padstack = ps.Clone()
	}
	return p.UpdateRefs()
}

func (p *Package) resolveKeepouts() {
	for id, k := range p.Keepouts {
		if !k.Polygon.Resolve(p.Polygons) {
			delete(p.Keepouts, id)
		}
	}
}

// Clone returns a deep copy of p with its references resolved against the
// copy. It panics if a line or arc of p refers to a missing junction.
func (p *Package) Clone() *Package {
	c := &Package{
		UUID:         p.UUID,
		Name:         p.Name,
		Manufacturer: p.Manufacturer,
		Tags:         append([]string(nil), p.Tags...),
		Junctions:    make(map[ident.ID]*primitive.Junction, len(p.Junctions)),
		Lines:        make(map[ident.ID]*primitive.Line, len(p.Lines)),
		Arcs:         make(map[ident.ID]*primitive.Arc, len(p.Arcs)),
		Texts:        make(map[ident.ID]*primitive.Text, len(p.Texts)),
		Pads:         make(map[ident.ID]*Pad, len(p.Pads)),
		Polygons:     make(map[ident.ID]*primitive.Polygon, len(p.Polygons)),
		Keepouts:     make(map[ident.ID]*primitive.Keepout, len(p.Keepouts)),
		Dimensions:   make(map[ident.ID]*primitive.Dimension, len(p.Dimensions)),
		Models:       make(map[ident.ID]*Model, len(p.Models)),
		DefaultModel: p.DefaultModel,
		ParameterSet: p.ParameterSet.Clone(),
		AlternateFor: p.AlternateFor,
		Warnings:     append([]Warning(nil), p.Warnings...),
	}
	if p.ParameterProgram != nil {
		c.ParameterProgram = p.ParameterProgram.Clone()
	}
	for id, v := range p.Junctions {
		j := *v
		c.Junctions[id] = &j
	}
	for id, v := range p.Lines {
		l := *v
		c.Lines[id] = &l
	}
	for id, v := range p.Arcs {
		a := *v
		c.Arcs[id] = &a
	}
	for id, v := range p.Texts {
		t := *v
		c.Texts[id] = &t
	}
	for id, v := range p.Pads {
		c.Pads[id] = v.Clone()
	}
	for id, v := range p.Polygons {
		c.Polygons[id] = v.Clone()
	}
	for id, v := range p.Keepouts {
		c.Keepouts[id] = v.Clone()
	}
	for id, v := range p.Dimensions {
		d := *v
		c.Dimensions[id] = &d
	}
	for id, v := range p.Models {
		m := *v
		c.Models[id] = &m
	}
	if err := c.UpdateRefs(); err != nil {
		panic(err)
	}
	return c
}
