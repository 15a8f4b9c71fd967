package modimport

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/OpenTracePool/pkg/geom"
	"github.com/OpenTraceLab/OpenTracePool/pkg/ident"
	"github.com/OpenTraceLab/OpenTracePool/pkg/layer"
	"github.com/OpenTraceLab/OpenTracePool/pkg/padstack"
	"github.com/OpenTraceLab/OpenTracePool/pkg/parameter"
	"github.com/OpenTraceLab/OpenTracePool/pkg/primitive"
)

// padShape is the geometry of one KiCad pad, independent of its placement.
// Pads with equal shapes share one generated padstack.
type padShape struct {
	kind   string // smd, thru_hole, np_thru_hole, connect
	shape  string // rect, roundrect, trapezoid, custom, circle, oval
	width  int64
	height int64
	drill  int64
	slot   int64 // slot length along x, zero for round holes
	rotate bool  // slot runs along y

	bottom bool // smd pad on the back side
	mask   bool
	paste  bool

	maskExpansion    int64
	pasteContraction int64
}

func (s padShape) key() string {
	return strings.Join([]string{
		s.kind, s.shape,
		strconv.FormatInt(s.width, 10), strconv.FormatInt(s.height, 10),
		strconv.FormatInt(s.drill, 10), strconv.FormatInt(s.slot, 10), strconv.FormatBool(s.rotate),
		strconv.FormatBool(s.bottom), strconv.FormatBool(s.mask), strconv.FormatBool(s.paste),
		strconv.FormatInt(s.maskExpansion, 10), strconv.FormatInt(s.pasteContraction, 10),
	}, "/")
}

func (s padShape) id() ident.ID {
	return ident.FromKey("kicad-padstack/" + s.key())
}

func mm(v int64) string {
	return strconv.FormatFloat(float64(v)/geom.NanometersPerMM, 'f', -1, 64)
}

func (s padShape) name() string {
	var b strings.Builder
	switch s.kind {
	case "thru_hole":
		b.WriteString("THT")
	case "np_thru_hole":
		b.WriteString("NPTH")
	default:
		b.WriteString("SMD")
	}
	if s.kind != "np_thru_hole" {
		fmt.Fprintf(&b, " %s %sx%s", s.shape, mm(s.width), mm(s.height))
	}
	if s.drill > 0 {
		fmt.Fprintf(&b, " drill %s", mm(s.drill))
		if s.slot > 0 {
			fmt.Fprintf(&b, "x%s", mm(s.slot))
		}
	}
	if s.bottom {
		b.WriteString(" bottom")
	}
	return b.String()
}

func (s padShape) padstackType() padstack.Type {
	switch {
	case s.kind == "np_thru_hole":
		return padstack.TypeHole
	case s.kind == "thru_hole":
		return padstack.TypeThrough
	case s.bottom:
		return padstack.TypeBottom
	default:
		return padstack.TypeTop
	}
}

// build returns the padstack for s. Rectangular and round pads carry a
// parameter program that regenerates copper, mask and paste from the pad
// parameters. Oval pads are static.
func (s padShape) build() *padstack.Padstack {
	key := s.key()
	ps := padstack.New(s.id())
	ps.Name = s.name()
	ps.Type = s.padstackType()

	if s.drill > 0 {
		h := &padstack.Hole{
			UUID:           ident.FromKey("kicad-padstack/" + key + "/hole"),
			Diameter:       s.drill,
			Shape:          padstack.HoleRound,
			Plated:         s.kind == "thru_hole",
			ParameterClass: "hole",
		}
		if s.slot > 0 {
			h.Shape = padstack.HoleSlot
			h.Length = s.slot
			if s.rotate {
				h.Placement.Angle = geom.AngleFullTurn / 4
			}
		}
		ps.Holes[h.UUID] = h
		ps.ParameterSet[parameter.HoleDiameter] = s.drill
		if s.slot > 0 {
			ps.ParameterSet[parameter.HoleLength] = s.slot
		}
	}
	if s.kind == "np_thru_hole" {
		return ps
	}

	var copper, masks, pastes []int
	switch {
	case s.kind == "thru_hole":
		copper = []int{layer.TopCopper, layer.BottomCopper}
		if s.mask {
			masks = []int{layer.TopMask, layer.BottomMask}
		}
	case s.bottom:
		copper = []int{layer.BottomCopper}
		if s.mask {
			masks = []int{layer.BottomMask}
		}
		if s.paste {
			pastes = []int{layer.BottomPaste}
		}
	default:
		copper = []int{layer.TopCopper}
		if s.mask {
			masks = []int{layer.TopMask}
		}
		if s.paste {
			pastes = []int{layer.TopPaste}
		}
	}

	add := func(class string, layers []int, grow int64) {
		for _, l := range layers {
			p := &primitive.Polygon{
				UUID:           ident.FromKey(fmt.Sprintf("kicad-padstack/%s/%s/%d", key, class, l)),
				Layer:          l,
				ParameterClass: class,
				Vertices:       s.outline(grow),
			}
			ps.Polygons[p.UUID] = p
		}
	}
	add("pad", copper, 0)
	add("mask", masks, s.maskExpansion)
	add("paste", pastes, -s.pasteContraction)

	if len(masks) > 0 {
		ps.ParameterSet[parameter.SolderMaskExpansion] = s.maskExpansion
	}
	if len(pastes) > 0 {
		ps.ParameterSet[parameter.PasteMaskContraction] = s.pasteContraction
	}

	var prog strings.Builder
	switch s.shape {
	case "circle":
		ps.ParameterSet[parameter.PadDiameter] = s.width
		ps.ParametersRequired = []parameter.ID{parameter.PadDiameter}
		prog.WriteString("get-parameter [ pad_diameter ]\nset-polygon [ pad circle 0 0 ]\n")
		if len(masks) > 0 {
			prog.WriteString("get-parameter [ solder_mask_expansion ]\nset-polygon [ mask ]\nexpand-polygon\n")
		}
		if len(pastes) > 0 {
			prog.WriteString("get-parameter [ pad_diameter ]\nset-polygon [ paste circle 0 0 ]\n")
			prog.WriteString("get-parameter [ paste_mask_contraction ]\nneg\nexpand-polygon\n")
		}
	case "oval":
		ps.ParameterSet[parameter.PadWidth] = s.width
		ps.ParameterSet[parameter.PadHeight] = s.height
	default:
		ps.ParameterSet[parameter.PadWidth] = s.width
		ps.ParameterSet[parameter.PadHeight] = s.height
		ps.ParametersRequired = []parameter.ID{parameter.PadWidth, parameter.PadHeight}
		prog.WriteString("get-parameter [ pad_width ]\nget-parameter [ pad_height ]\nset-polygon [ pad rectangle 0 0 ]\n")
		if len(masks) > 0 {
			prog.WriteString("get-parameter [ solder_mask_expansion ]\nset-polygon [ mask ]\nexpand-polygon\n")
		}
		if len(pastes) > 0 {
			prog.WriteString("get-parameter [ pad_width ]\nget-parameter [ pad_height ]\nset-polygon [ paste rectangle 0 0 ]\n")
			prog.WriteString("get-parameter [ paste_mask_contraction ]\nneg\nexpand-polygon\n")
		}
	}
	ps.SetParameterProgram(prog.String())
	return ps
}

// outline returns the pad outline grown by grow on every side.
func (s padShape) outline(grow int64) []primitive.Vertex {
	w, h := s.width/2+grow, s.height/2+grow
	switch {
	case s.shape == "circle" || (s.shape == "oval" && s.width == s.height):
		return []primitive.Vertex{
			{Type: primitive.VertexArc, Position: geom.Coord{X: w}},
			{Type: primitive.VertexArc, Position: geom.Coord{X: -w}},
		}
	case s.shape == "oval":
		return obround(w, h)
	default:
		return []primitive.Vertex{
			{Type: primitive.VertexLine, Position: geom.Coord{X: -w, Y: -h}},
			{Type: primitive.VertexLine, Position: geom.Coord{X: w, Y: -h}},
			{Type: primitive.VertexLine, Position: geom.Coord{X: w, Y: h}},
			{Type: primitive.VertexLine, Position: geom.Coord{X: -w, Y: h}},
		}
	}
}

// obround returns a stadium with half extents w and h, counter-clockwise.
func obround(w, h int64) []primitive.Vertex {
	if h > w {
		vs := obround(h, w)
		for i := range vs {
			vs[i].Position = geom.Coord{X: -vs[i].Position.Y, Y: vs[i].Position.X}
			vs[i].ArcCenter = geom.Coord{X: -vs[i].ArcCenter.Y, Y: vs[i].ArcCenter.X}
		}
		return vs
	}
	a := w - h
	return []primitive.Vertex{
		{Type: primitive.VertexLine, Position: geom.Coord{X: -a, Y: -h}},
		{Type: primitive.VertexArc, Position: geom.Coord{X: a, Y: -h}, ArcCenter: geom.Coord{X: a}},
		{Type: primitive.VertexLine, Position: geom.Coord{X: a, Y: h}},
		{Type: primitive.VertexArc, Position: geom.Coord{X: -a, Y: h}, ArcCenter: geom.Coord{X: -a}},
	}
}
