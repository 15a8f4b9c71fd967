// Package modimport converts KiCad footprint files (.kicad_mod) into pool
// packages. Pads become instances of generated padstacks; identical pad
// geometries share one padstack with a deterministic id, so importing the
// same file twice yields the same pool entities.
package modimport

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/OpenTraceLab/OpenTracePool/pkg/footprint"
	"github.com/OpenTraceLab/OpenTracePool/pkg/geom"
	"github.com/OpenTraceLab/OpenTracePool/pkg/ident"
	"github.com/OpenTraceLab/OpenTracePool/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTracePool/pkg/kicad/sexp/kicadsexp"
	"github.com/OpenTraceLab/OpenTracePool/pkg/padstack"
	"github.com/OpenTraceLab/OpenTracePool/pkg/parameter"
	"github.com/OpenTraceLab/OpenTracePool/pkg/primitive"
)

// DefaultCourtyardExpansion is the courtyard_expansion default given to
// imported packages with pads.
const DefaultCourtyardExpansion = 250000

// Sink receives each generated padstack once.
type Sink interface {
	AddPadstack(ps *padstack.Padstack)
}

// Import reads one footprint from r. Only the first top-level expression is
// read. Generated padstacks are handed to sink before the package is
// returned.
func Import(r io.Reader, sink Sink) (*footprint.Package, error) {
	node, err := kicadsexp.NewParser(r).Next()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("modimport: empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("modimport: %w", err)
	}
	root, ok := node.(*kicadsexp.List)
	if !ok || (root.Keyword() != "footprint" && root.Keyword() != "module") {
		return nil, errors.New("modimport: not a footprint")
	}
	name, err := sexp.GetString(root, 1)
	if err != nil {
		return nil, fmt.Errorf("modimport: footprint name: %w", err)
	}

	im := &importer{
		name:      name,
		pkg:       footprint.New(ident.FromKey("kicad-footprint/" + name)),
		sink:      sink,
		counters:  make(map[string]int),
		junctions: make(map[geom.Coord]*primitive.Junction),
		padstacks: make(map[ident.ID]*padstack.Padstack),
	}
	im.pkg.Name = name

	for _, item := range root.Items()[1:] {
		node, ok := item.(*kicadsexp.List)
		if !ok {
			continue
		}
		if err := im.item(node); err != nil {
			return nil, fmt.Errorf("modimport: %s: line %d: %s: %w", name, node.Line, node.Keyword(), err)
		}
	}
	im.addCourtyardProgram()

	if err := im.pkg.UpdateRefs(); err != nil {
		return nil, fmt.Errorf("modimport: %s: %w", name, err)
	}
	return im.pkg, nil
}

type importer struct {
	name      string
	pkg       *footprint.Package
	sink      Sink
	counters  map[string]int
	junctions map[geom.Coord]*primitive.Junction
	padstacks map[ident.ID]*padstack.Padstack
}

// newID returns the next deterministic id for an entity kind.
func (im *importer) newID(kind string) ident.ID {
	n := im.counters[kind]
	im.counters[kind] = n + 1
	return ident.FromKey(fmt.Sprintf("kicad-footprint/%s/%s/%d", im.name, kind, n))
}

// junction returns the junction at c, creating it on first use.
func (im *importer) junction(c geom.Coord) *primitive.Junction {
	if j, ok := im.junctions[c]; ok {
		return j
	}
	j := im.pkg.AddJunction(im.newID("junction"), c)
	im.junctions[c] = j
	return j
}

func (im *importer) item(node *kicadsexp.List) error {
	switch node.Keyword() {
	case "tags":
		s, err := sexp.GetString(node, 1)
		if err != nil {
			return err
		}
		im.pkg.Tags = append(im.pkg.Tags, strings.Fields(s)...)
	case "fp_line":
		return im.line(node)
	case "fp_arc":
		return im.arc(node)
	case "fp_circle":
		return im.circle(node)
	case "fp_rect":
		return im.rect(node)
	case "fp_poly":
		return im.poly(node)
	case "fp_text":
		return im.text(node)
	case "property":
		return im.property(node)
	case "pad":
		return im.pad(node)
	case "model":
		return im.model(node)
	}
	return nil
}

// graphicLayer reads the layer of a graphic item. ok is false for layers
// packages have no equivalent for.
func (im *importer) graphicLayer(node *kicadsexp.List) (int, bool, error) {
	ln, found := sexp.FindNode(node, "layer")
	if !found {
		return 0, false, errors.New("missing layer")
	}
	name, err := sexp.GetString(ln, 1)
	if err != nil {
		return 0, false, err
	}
	l, ok := mapLayer(name)
	if !ok {
		slog.Debug("skipping item on unmapped layer", "footprint", im.name, "item", node.Keyword(), "layer", name, "line", node.Line)
	}
	return l, ok, nil
}

func (im *importer) line(node *kicadsexp.List) error {
	l, ok, err := im.graphicLayer(node)
	if err != nil || !ok {
		return err
	}
	start, err := sexp.GetPoint(node, "start")
	if err != nil {
		return err
	}
	end, err := sexp.GetPoint(node, "end")
	if err != nil {
		return err
	}
	width, err := sexp.GetStrokeWidth(node)
	if err != nil {
		return err
	}
	im.pkg.AddLine(im.newID("line"), im.junction(start), im.junction(end), width, l)
	return nil
}

// arc reads the three-point form (start, mid, end). Arcs run
// counter-clockwise from From to To.
func (im *importer) arc(node *kicadsexp.List) error {
	l, ok, err := im.graphicLayer(node)
	if err != nil || !ok {
		return err
	}
	if _, found := sexp.FindNode(node, "mid"); !found {
		slog.Debug("skipping arc without mid point", "footprint", im.name, "line", node.Line)
		return nil
	}
	var pts [3]geom.Coord
	for i, key := range []string{"start", "mid", "end"} {
		if pts[i], err = sexp.GetPoint(node, key); err != nil {
			return err
		}
	}
	center, ok := circumcenter(pts[0], pts[1], pts[2])
	if !ok {
		return errors.New("arc points are collinear")
	}
	from, to := pts[0], pts[2]
	if cross(pts[0], pts[1], pts[2]) < 0 {
		from, to = to, from
	}
	width, err := sexp.GetStrokeWidth(node)
	if err != nil {
		return err
	}
	im.pkg.AddArc(im.newID("arc"), im.junction(from), im.junction(to), im.junction(center), width, l)
	return nil
}

func (im *importer) addPolygon(l int, vertices []primitive.Vertex) {
	p := &primitive.Polygon{
		UUID:     im.newID("polygon"),
		Layer:    l,
		Vertices: vertices,
	}
	if isCourtyard(l) {
		p.ParameterClass = "courtyard"
	}
	im.pkg.Polygons[p.UUID] = p
}

func (im *importer) circle(node *kicadsexp.List) error {
	l, ok, err := im.graphicLayer(node)
	if err != nil || !ok {
		return err
	}
	center, err := sexp.GetPoint(node, "center")
	if err != nil {
		return err
	}
	end, err := sexp.GetPoint(node, "end")
	if err != nil {
		return err
	}
	d := end.Sub(center)
	r := int64(math.Round(math.Hypot(float64(d.X), float64(d.Y))))
	im.addPolygon(l, []primitive.Vertex{
		{Type: primitive.VertexArc, Position: geom.Coord{X: center.X + r, Y: center.Y}, ArcCenter: center},
		{Type: primitive.VertexArc, Position: geom.Coord{X: center.X - r, Y: center.Y}, ArcCenter: center},
	})
	return nil
}

func (im *importer) rect(node *kicadsexp.List) error {
	l, ok, err := im.graphicLayer(node)
	if err != nil || !ok {
		return err
	}
	start, err := sexp.GetPoint(node, "start")
	if err != nil {
		return err
	}
	end, err := sexp.GetPoint(node, "end")
	if err != nil {
		return err
	}
	lo, hi := geom.Min(start, end), geom.Max(start, end)
	im.addPolygon(l, lineVertices([]geom.Coord{
		lo, {X: hi.X, Y: lo.Y}, hi, {X: lo.X, Y: hi.Y},
	}))
	return nil
}

func (im *importer) poly(node *kicadsexp.List) error {
	l, ok, err := im.graphicLayer(node)
	if err != nil || !ok {
		return err
	}
	pts, err := sexp.GetPoints(node)
	if err != nil {
		return err
	}
	if len(pts) < 3 {
		slog.Debug("skipping degenerate polygon", "footprint", im.name, "line", node.Line, "points", len(pts))
		return nil
	}
	im.addPolygon(l, lineVertices(pts))
	return nil
}

func lineVertices(pts []geom.Coord) []primitive.Vertex {
	out := make([]primitive.Vertex, len(pts))
	for i, p := range pts {
		out[i] = primitive.Vertex{Type: primitive.VertexLine, Position: p}
	}
	return out
}

// text reads fp_text. Reference and value texts become placeholders that
// are substituted at placement time.
func (im *importer) text(node *kicadsexp.List) error {
	kind, err := sexp.GetString(node, 1)
	if err != nil {
		return err
	}
	s, err := sexp.GetString(node, 2)
	if err != nil {
		return err
	}
	return im.addText(node, kind, s)
}

// property reads the Reference and Value properties of newer files.
func (im *importer) property(node *kicadsexp.List) error {
	key, err := sexp.GetString(node, 1)
	if err != nil {
		return err
	}
	if key != "Reference" && key != "Value" {
		return nil
	}
	if _, ok := sexp.FindNode(node, "layer"); !ok {
		return nil
	}
	return im.addText(node, strings.ToLower(key), "")
}

func (im *importer) addText(node *kicadsexp.List, kind, s string) error {
	switch kind {
	case "reference":
		s = "$REFDES"
	case "value":
		s = "$VALUE"
	}
	l, ok, err := im.graphicLayer(node)
	if err != nil || !ok {
		return err
	}
	pl, err := sexp.GetPlacement(node)
	if err != nil {
		return err
	}
	size, thickness, err := sexp.GetFont(node)
	if err != nil {
		return err
	}
	t := &primitive.Text{
		UUID:      im.newID("text"),
		Placement: pl,
		Text:      s,
		Layer:     l,
		Size:      size,
		Width:     thickness,
	}
	im.pkg.Texts[t.UUID] = t
	return nil
}

func (im *importer) pad(node *kicadsexp.List) error {
	name, err := sexp.GetString(node, 1)
	if err != nil {
		return err
	}
	shape, err := readPadShape(node)
	if err != nil {
		return fmt.Errorf("pad %q: %w", name, err)
	}
	pl, err := sexp.GetPlacement(node)
	if err != nil {
		return fmt.Errorf("pad %q: %w", name, err)
	}

	id := shape.id()
	ps, ok := im.padstacks[id]
	if !ok {
		ps = shape.build()
		im.padstacks[id] = ps
		if im.sink != nil {
			im.sink.AddPadstack(ps)
		}
	}
	pad := im.pkg.AddPad(im.newID("pad"), name, ps, pl)
	parameter.Copy(pad.ParameterSet, ps.ParameterSet, ps.ParametersRequired...)
	return nil
}

func readPadShape(node *kicadsexp.List) (padShape, error) {
	var s padShape
	var err error
	if s.kind, err = sexp.GetString(node, 2); err != nil {
		return s, err
	}
	if s.shape, err = sexp.GetString(node, 3); err != nil {
		return s, err
	}
	switch s.kind {
	case "smd", "thru_hole", "np_thru_hole", "connect":
	default:
		return s, fmt.Errorf("unknown pad type %s", s.kind)
	}

	size, ok := sexp.FindNode(node, "size")
	if !ok {
		return s, errors.New("missing size")
	}
	w, err := sexp.GetFloat(size, 1)
	if err != nil {
		return s, err
	}
	h, err := sexp.GetOptionalFloat(size, 2, w)
	if err != nil {
		return s, err
	}
	s.width, s.height = sexp.Length(w), sexp.Length(h)

	if drill, ok := sexp.FindNode(node, "drill"); ok {
		idx := 1
		oval := sexp.HasSymbol(drill, "oval")
		if oval {
			idx = 2
		}
		dx, err := sexp.GetFloat(drill, idx)
		if err != nil {
			return s, err
		}
		s.drill = sexp.Length(dx)
		if oval {
			dy, err := sexp.GetOptionalFloat(drill, idx+1, dx)
			if err != nil {
				return s, err
			}
			if ly := sexp.Length(dy); ly != s.drill {
				s.drill, s.slot = min(s.drill, ly), max(s.drill, ly)
				s.rotate = ly > sexp.Length(dx)
			}
		}
	}

	if layers, ok := sexp.FindNode(node, "layers"); ok {
		for _, l := range sexp.GetStrings(layers) {
			switch l {
			case "B.Cu":
				s.bottom = s.kind != "thru_hole"
			case "F.Mask", "B.Mask", "*.Mask":
				s.mask = true
			case "F.Paste", "B.Paste", "*.Paste":
				s.paste = s.kind == "smd"
			}
		}
	}
	if m, ok := sexp.FindNode(node, "solder_mask_margin"); ok {
		v, err := sexp.GetFloat(m, 1)
		if err != nil {
			return s, err
		}
		s.maskExpansion = sexp.Length(v)
	}
	if m, ok := sexp.FindNode(node, "solder_paste_margin"); ok {
		v, err := sexp.GetFloat(m, 1)
		if err != nil {
			return s, err
		}
		s.pasteContraction = -sexp.Length(v)
	}
	return s, nil
}

func (im *importer) model(node *kicadsexp.List) error {
	filename, err := sexp.GetString(node, 1)
	if err != nil {
		return err
	}
	m := &footprint.Model{
		UUID:     ident.FromKey(fmt.Sprintf("kicad-footprint/%s/model/%s", im.name, filename)),
		Filename: filename,
	}
	if xyz, ok := nestedXYZ(node, "offset"); ok {
		var v [3]float64
		if v, err = readXYZ(xyz); err != nil {
			return err
		}
		m.X, m.Y, m.Z = sexp.Length(v[0]), sexp.Length(v[1]), sexp.Length(v[2])
	}
	if xyz, ok := nestedXYZ(node, "rotate"); ok {
		var v [3]float64
		if v, err = readXYZ(xyz); err != nil {
			return err
		}
		m.Roll, m.Pitch, m.Yaw = sexp.Angle(v[0]), sexp.Angle(v[1]), sexp.Angle(v[2])
	}
	im.pkg.Models[m.UUID] = m
	if im.pkg.DefaultModel == ident.Nil {
		im.pkg.DefaultModel = m.UUID
	}
	return nil
}

func nestedXYZ(node *kicadsexp.List, key string) (*kicadsexp.List, bool) {
	outer, ok := sexp.FindNode(node, key)
	if !ok {
		return nil, false
	}
	return sexp.FindNode(outer, "xyz")
}

func readXYZ(xyz *kicadsexp.List) ([3]float64, error) {
	var v [3]float64
	for i := range v {
		f, err := sexp.GetFloat(xyz, i+1)
		if err != nil {
			return v, err
		}
		v[i] = f
	}
	return v, nil
}

// addCourtyardProgram attaches a program that rebuilds the courtyard as the
// pad envelope grown by courtyard_expansion.
func (im *importer) addCourtyardProgram() {
	if len(im.pkg.Pads) == 0 {
		return
	}
	bb := geom.NewBBox()
	for _, id := range ident.SortedKeys(im.pkg.Pads) {
		pad := im.pkg.Pads[id]
		bb.ExpandBox(pad.Placement.TransformBBox(pad.Padstack.BBox()))
	}
	if bb.IsEmpty() {
		return
	}
	im.pkg.ParameterSet[parameter.CourtyardExpansion] = DefaultCourtyardExpansion
	im.pkg.SetParameterProgram(fmt.Sprintf(
		"get-parameter [ courtyard_expansion ]\nexpand-polygon [ courtyard %d %d %d %d %d %d %d %d ]\n",
		bb.Min.X, bb.Min.Y, bb.Max.X, bb.Min.Y, bb.Max.X, bb.Max.Y, bb.Min.X, bb.Max.Y,
	))
}

// cross is the z component of (b-a) x (c-b); positive when a, b, c turn
// counter-clockwise.
func cross(a, b, c geom.Coord) float64 {
	return float64(b.X-a.X)*float64(c.Y-b.Y) - float64(b.Y-a.Y)*float64(c.X-b.X)
}

func circumcenter(a, b, c geom.Coord) (geom.Coord, bool) {
	ax, ay := float64(a.X), float64(a.Y)
	bx, by := float64(b.X), float64(b.Y)
	cx, cy := float64(c.X), float64(c.Y)
	d := 2 * (ax*(by-cy) + bx*(cy-ay) + cx*(ay-by))
	if d == 0 {
		return geom.Coord{}, false
	}
	a2, b2, c2 := ax*ax+ay*ay, bx*bx+by*by, cx*cx+cy*cy
	ux := (a2*(by-cy) + b2*(cy-ay) + c2*(ay-by)) / d
	uy := (a2*(cx-bx) + b2*(ax-cx) + c2*(bx-ax)) / d
	return geom.Coord{X: int64(math.Round(ux)), Y: int64(math.Round(uy))}, true
}
