package footprint

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/OpenTraceLab/OpenTracePool/pkg/ident"
	"github.com/OpenTraceLab/OpenTracePool/pkg/parameter"
	"github.com/OpenTraceLab/OpenTracePool/pkg/primitive"
)

// Document is the persisted form of a package. Entity tables are keyed by
// canonical id strings.
type Document struct {
	UUID             *ident.ID     `json:"uuid"`
	Type             string        `json:"type"`
	Name             *string       `json:"name"`
	Manufacturer     string        `json:"manufacturer"`
	Tags             []string      `json:"tags"`
	ParameterProgram string        `json:"parameter_program"`
	ParameterSet     parameter.Set `json:"parameter_set"`
	AlternateFor     *ident.ID     `json:"alternate_for,omitempty"`

	// ModelFilename is the legacy single-model field. It is read, never
	// written.
	ModelFilename string              `json:"model_filename,omitempty"`
	Models        map[ident.ID]*Model `json:"models"`
	DefaultModel  *ident.ID           `json:"default_model"`

	Junctions  map[ident.ID]*primitive.Junction  `json:"junctions"`
	Lines      map[ident.ID]*primitive.Line      `json:"lines"`
	Arcs       map[ident.ID]*primitive.Arc       `json:"arcs"`
	Texts      map[ident.ID]*primitive.Text      `json:"texts"`
	Pads       map[ident.ID]*Pad                 `json:"pads"`
	Polygons   map[ident.ID]*primitive.Polygon   `json:"polygons"`
	Keepouts   map[ident.ID]*primitive.Keepout   `json:"keepouts"`
	Dimensions map[ident.ID]*primitive.Dimension `json:"dimensions"`
}

// Load reads the package document at path, resolving pads and the alternate
// through pool.
func Load(path string, pool Pool) (*Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("footprint: %w", err)
	}
	defer f.Close()

	p, err := Decode(f, pool)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Decode reads a package document from r.
func Decode(r io.Reader, pool Pool) (*Package, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("footprint: parse: %w", err)
	}
	return FromDocument(&doc, pool)
}

// FromDocument builds a package from doc. No partial package is returned on
// error.
func FromDocument(doc *Document, pool Pool) (*Package, error) {
	if doc.UUID == nil {
		return nil, fmt.Errorf("footprint: missing uuid")
	}
	if doc.Name == nil {
		return nil, fmt.Errorf("footprint: package %s: missing name", doc.UUID)
	}
	if doc.Type != "" && doc.Type != "package" {
		return nil, fmt.Errorf("footprint: package %s: unexpected type %q", doc.UUID, doc.Type)
	}

	p := New(*doc.UUID)
	p.Name = *doc.Name
	p.Manufacturer = doc.Manufacturer
	p.Tags = normalizeTags(doc.Tags)
	p.SetParameterProgram(doc.ParameterProgram)
	if doc.ParameterSet != nil {
		p.ParameterSet = doc.ParameterSet
	}

	for id, j := range doc.Junctions {
		if j == nil {
			return nil, fmt.Errorf("footprint: junction %s: null entry", id)
		}
		j.UUID = id
		j.ResetDerived()
		p.Junctions[id] = j
	}
	for id, l := range doc.Lines {
		if l == nil {
			return nil, fmt.Errorf("footprint: line %s: null entry", id)
		}
		l.UUID = id
		p.Lines[id] = l
	}
	for id, a := range doc.Arcs {
		if a == nil {
			return nil, fmt.Errorf("footprint: arc %s: null entry", id)
		}
		a.UUID = id
		p.Arcs[id] = a
	}
	for id, t := range doc.Texts {
		if t == nil {
			return nil, fmt.Errorf("footprint: text %s: null entry", id)
		}
		t.UUID = id
		p.Texts[id] = t
	}
	for _, id := range ident.SortedKeys(doc.Pads) {
		pad := doc.Pads[id]
		if pad == nil {
			return nil, fmt.Errorf("footprint: pad %s: null entry", id)
		}
		ps, err := pool.GetPadstack(pad.PoolPadstack.UUID)
		if err != nil {
			return nil, fmt.Errorf("footprint: pad %s: %w", pad.Name, err)
		}
		pad.UUID = id
		pad.PoolPadstack = primitive.RefTo(ps.UUID, ps)
		pad.Padstack = ps.Clone()
		if pad.ParameterSet == nil {
			pad.ParameterSet = make(parameter.Set)
		}
		p.Pads[id] = pad
	}
	for id, poly := range doc.Polygons {
		if poly == nil || len(poly.Vertices) == 0 {
			continue
		}
		poly.UUID = id
		p.Polygons[id] = poly
	}
	for id, k := range doc.Keepouts {
		if k == nil {
			continue
		}
		k.UUID = id
		p.Keepouts[id] = k
	}
	for id, d := range doc.Dimensions {
		if d == nil {
			return nil, fmt.Errorf("footprint: dimension %s: null entry", id)
		}
		d.UUID = id
		p.Dimensions[id] = d
	}

	if doc.AlternateFor != nil && *doc.AlternateFor != ident.Nil && *doc.AlternateFor != p.UUID {
		alt, err := pool.GetPackage(*doc.AlternateFor)
		if err != nil {
			return nil, fmt.Errorf("footprint: package %s: alternate: %w", p.UUID, err)
		}
		p.AlternateFor = alt
	}

	if doc.ModelFilename != "" {
		m := &Model{UUID: ident.New(), Filename: doc.ModelFilename}
		p.Models[m.UUID] = m
		p.DefaultModel = m.UUID
	}
	if doc.Models != nil {
		for id, m := range doc.Models {
			if m == nil {
				return nil, fmt.Errorf("footprint: model %s: null entry", id)
			}
			m.UUID = id
			p.Models[id] = m
		}
		if doc.DefaultModel == nil {
			return nil, fmt.Errorf("footprint: package %s: missing default_model", p.UUID)
		}
		p.DefaultModel = *doc.DefaultModel
	}
	if _, ok := p.Models[p.DefaultModel]; !ok {
		p.DefaultModel = ident.Nil
	}

	if err := p.UpdateRefs(); err != nil {
		return nil, err
	}
	return p, nil
}

// Serialize returns the persisted form of p. Warnings and junction derived
// state are not part of it.
func (p *Package) Serialize() *Document {
	id := p.UUID
	name := p.Name
	def := p.DefaultModel
	doc := &Document{
		UUID:         &id,
		Type:         "package",
		Name:         &name,
		Manufacturer: p.Manufacturer,
		Tags:         normalizeTags(p.Tags),
		ParameterSet: p.ParameterSet,
		Models:       p.Models,
		DefaultModel: &def,
		Junctions:    p.Junctions,
		Lines:        p.Lines,
		Arcs:         p.Arcs,
		Texts:        p.Texts,
		Pads:         p.Pads,
		Polygons:     p.Polygons,
		Keepouts:     p.Keepouts,
		Dimensions:   p.Dimensions,
	}
	if doc.ParameterSet == nil {
		doc.ParameterSet = parameter.Set{}
	}
	if p.ParameterProgram != nil {
		doc.ParameterProgram = p.ParameterProgram.Code()
	}
	if p.AlternateFor != nil && p.AlternateFor.UUID != p.UUID {
		alt := p.AlternateFor.UUID
		doc.AlternateFor = &alt
	}
	return doc
}

// Encode writes p to w as indented JSON.
func (p *Package) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(p.Serialize()); err != nil {
		return fmt.Errorf("footprint: encode: %w", err)
	}
	return nil
}

// Save writes p to path, replacing any existing file.
func (p *Package) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("footprint: %w", err)
	}
	if err := p.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}
