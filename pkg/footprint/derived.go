package footprint

import (
	"fmt"
	"math"

	"github.com/OpenTraceLab/OpenTracePool/pkg/geom"
	"github.com/OpenTraceLab/OpenTracePool/pkg/ident"
	"github.com/OpenTraceLab/OpenTracePool/pkg/layer"
	"github.com/OpenTraceLab/OpenTracePool/pkg/parameter"
	"github.com/OpenTraceLab/OpenTracePool/pkg/primitive"
)

// Parameters a package program receives from ApplyParameterSet.
var packageParameters = []parameter.ID{
	parameter.CourtyardExpansion,
}

// Parameters every pad receives from ApplyParameterSet.
var padParameters = []parameter.ID{
	parameter.SolderMaskExpansion,
	parameter.PasteMaskContraction,
	parameter.HoleSolderMaskExpansion,
}

// Expand recomputes junction derived state: connection counts and layers.
// Lines are visited before arcs, each in ascending id order, and the first
// primitive to touch an unassigned junction gives it its layer.
func (p *Package) Expand() {
	for id, k := range p.Keepouts {
		if _, ok := p.Polygons[k.Polygon.UUID]; !ok {
			delete(p.Keepouts, id)
		}
	}
	for _, j := range p.Junctions {
		j.ResetDerived()
	}

	for _, id := range ident.SortedKeys(p.Lines) {
		l := p.Lines[id]
		connect(l.Layer, l.From.Get(), l.To.Get())
	}
	for _, id := range ident.SortedKeys(p.Arcs) {
		a := p.Arcs[id]
		connect(a.Layer, a.From.Get(), a.To.Get())
	}
}

func connect(layerIndex int, junctions ...*primitive.Junction) {
	for _, j := range junctions {
		if j == nil {
			continue
		}
		j.ConnectionCount++
		if j.Layer == layer.Unassigned {
			j.Layer = layerIndex
		}
	}
}

// UpdateWarnings rebuilds p.Warnings: one warning per repeated pad name and
// one per required parameter a pad does not set.
func (p *Package) UpdateWarnings() {
	p.Warnings = nil
	seen := make(map[string]bool, len(p.Pads))
	for _, id := range ident.SortedKeys(p.Pads) {
		pad := p.Pads[id]
		if seen[pad.Name] {
			p.Warnings = append(p.Warnings, Warning{Position: pad.Placement.Shift, Text: "duplicate pad name"})
		}
		seen[pad.Name] = true

		tmpl := pad.template()
		if tmpl == nil {
			continue
		}
		for _, req := range tmpl.ParametersRequired {
			if !pad.ParameterSet.Has(req) {
				p.Warnings = append(p.Warnings, Warning{
					Position: pad.Placement.Shift,
					Text:     "missing parameter " + req.String(),
				})
			}
		}
	}
}

// ApplyParameterSet pushes ps into the package. Only courtyard_expansion
// reaches the package program; solder_mask_expansion,
// paste_mask_contraction and hole_solder_mask_expansion reach every pad.
// Other entries are ignored.
//
// The program runs first and a failure skips the pads. Pads run in ascending
// id order and the first failure stops the loop with "Pad <name>: <reason>".
// Nothing done before a failure is undone.
func (p *Package) ApplyParameterSet(ps parameter.Set) error {
	eff := p.ParameterSet.Clone()
	parameter.Copy(eff, ps, packageParameters...)
	if err := p.ParameterProgram.Run(eff); err != nil {
		return err
	}

	for _, id := range ident.SortedKeys(p.Pads) {
		pad := p.Pads[id]
		if pad.Padstack == nil {
			continue
		}
		padSet := pad.ParameterSet.Clone()
		parameter.Copy(padSet, ps, padParameters...)
		if err := pad.Padstack.ApplyParameterSet(padSet); err != nil {
			return fmt.Errorf("Pad %s: %w", pad.Name, err)
		}
	}
	return nil
}

// BBox returns the union of the placed pad padstack boxes. The origin is
// always included.
func (p *Package) BBox() geom.BBox {
	bb := geom.BBox{}
	for _, id := range ident.SortedKeys(p.Pads) {
		pad := p.Pads[id]
		if pad.Padstack == nil {
			continue
		}
		pb := pad.Padstack.BBox()
		if pb.IsEmpty() {
			continue
		}
		bb.ExpandBox(pad.Placement.TransformBBox(pb))
	}
	return bb
}

// Layers returns the layer table packages are drawn on.
func (p *Package) Layers() *layer.Map {
	return layer.Package()
}

// Model returns the model with the given id, or the default model for
// ident.Nil. It returns nil when there is no such model.
func (p *Package) Model(id ident.ID) *Model {
	if id == ident.Nil {
		id = p.DefaultModel
	}
	return p.Models[id]
}

// MaxPadName returns the largest pad name that starts with a number, or -1.
func (p *Package) MaxPadName() int {
	best := -1
	found := false
	for _, pad := range p.Pads {
		n, ok := leadingInt(pad.Name)
		if !ok {
			continue
		}
		if !found || n > best {
			best = n
			found = true
		}
	}
	return best
}

// leadingInt parses the integer prefix of s after leading spaces, so "12A"
// gives 12.
func leadingInt(s string) (int, bool) {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	start := i
	var n int64
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		n = n*10 + int64(s[i]-'0')
		if n > math.MaxInt32 {
			return 0, false
		}
		i++
	}
	if i == start {
		return 0, false
	}
	if neg {
		n = -n
	}
	return int(n), true
}
