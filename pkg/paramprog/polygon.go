package paramprog

import (
	"errors"
	"fmt"

	"github.com/OpenTraceLab/OpenTracePool/pkg/geom"
	"github.com/OpenTraceLab/OpenTracePool/pkg/ident"
	"github.com/OpenTraceLab/OpenTracePool/pkg/layer"
	"github.com/OpenTraceLab/OpenTracePool/pkg/primitive"
)

// PolygonOwner is anything whose polygons a program may rewrite. The
// returned map is the owner's own table; commands insert into it.
type PolygonOwner interface {
	PolygonTable() map[ident.ID]*primitive.Polygon
}

// circleSegments is the flattening resolution used when a circle becomes the
// base outline of expand-polygon.
const circleSegments = 64

type polygonCommands struct {
	owner   PolygonOwner
	class   string
	outline []geom.Coord // outline last written during this run
}

// PolygonCommands returns the extension table for owner:
//
//	set-polygon [ class ]                   select the target polygons
//	set-polygon [ class rectangle cx cy ]   w h -> write a rectangle
//	set-polygon [ class circle cx cy ]      d   -> write a circle
//	set-polygon-vertices [ class? ]         x1 y1 ... xn yn n -> write vertices
//	expand-polygon [ class? x1 y1 ... ]     d   -> write the offset outline
//
// The target is every polygon whose parameter class matches. When none
// exists, the first write creates one. Selecting a class keeps the outline
// written last, so a bare expand-polygon grows the previous shape into the
// newly selected class.
func PolygonCommands(owner PolygonOwner) CommandTable {
	pc := &polygonCommands{owner: owner}
	return CommandTable{
		"set-polygon":          pc.setPolygon,
		"set-polygon-vertices": pc.setPolygonVertices,
		"expand-polygon":       pc.expandPolygon,
	}
}

// PolygonCommandNames lists the commands PolygonCommands provides.
func PolygonCommandNames() []string {
	return []string{"set-polygon", "set-polygon-vertices", "expand-polygon"}
}

func (pc *polygonCommands) setPolygon(m *Machine, args []Argument) error {
	if len(args) < 1 || args[0].IsNumber {
		return errors.New("not enough arguments")
	}
	pc.class = args[0].Word
	if len(args) == 1 {
		return nil
	}

	if len(args) < 4 || args[1].IsNumber || !args[2].IsNumber || !args[3].IsNumber {
		return errors.New("expected class, shape and center")
	}
	shape := args[1].Word
	center := geom.Coord{X: args[2].Number, Y: args[3].Number}

	switch shape {
	case "rectangle":
		h, err := m.Pop()
		if err != nil {
			return err
		}
		w, err := m.Pop()
		if err != nil {
			return err
		}
		pc.write([]geom.Coord{
			{X: center.X - w/2, Y: center.Y - h/2},
			{X: center.X + w/2, Y: center.Y - h/2},
			{X: center.X + w/2, Y: center.Y + h/2},
			{X: center.X - w/2, Y: center.Y + h/2},
		})
	case "circle":
		d, err := m.Pop()
		if err != nil {
			return err
		}
		r := d / 2
		vertices := []primitive.Vertex{
			{Type: primitive.VertexArc, Position: geom.Coord{X: center.X + r, Y: center.Y}, ArcCenter: center},
			{Type: primitive.VertexArc, Position: geom.Coord{X: center.X - r, Y: center.Y}, ArcCenter: center},
		}
		for _, p := range pc.targets() {
			p.Vertices = append([]primitive.Vertex(nil), vertices...)
			p.Generated = true
		}
		circle := primitive.Polygon{Vertices: vertices}
		pc.outline = circle.Outline(circleSegments)
	default:
		return fmt.Errorf("unknown shape %s", shape)
	}
	return nil
}

func (pc *polygonCommands) setPolygonVertices(m *Machine, args []Argument) error {
	if err := pc.selectFromArgs(args); err != nil {
		return err
	}
	n, err := m.Pop()
	if err != nil {
		return err
	}
	if n < 3 {
		return fmt.Errorf("need at least 3 vertices, got %d", n)
	}
	if int64(len(m.Stack)) < 2*n {
		return errEmptyStack
	}

	pts := make([]geom.Coord, n)
	for i := n - 1; i >= 0; i-- {
		y, _ := m.Pop()
		x, _ := m.Pop()
		pts[i] = geom.Coord{X: x, Y: y}
	}
	pc.write(pts)
	return nil
}

func (pc *polygonCommands) expandPolygon(m *Machine, args []Argument) error {
	if len(args) > 0 && !args[0].IsNumber {
		pc.class = args[0].Word
		args = args[1:]
	}
	if pc.class == "" {
		return errors.New("no polygon selected")
	}

	base := pc.outline
	if len(args) > 0 {
		if len(args)%2 != 0 || len(args) < 6 {
			return errors.New("expected at least 3 coordinate pairs")
		}
		base = make([]geom.Coord, 0, len(args)/2)
		for i := 0; i < len(args); i += 2 {
			if !args[i].IsNumber || !args[i+1].IsNumber {
				return fmt.Errorf("invalid coordinate %s %s", args[i], args[i+1])
			}
			base = append(base, geom.Coord{X: args[i].Number, Y: args[i+1].Number})
		}
	}
	if len(base) == 0 {
		return errors.New("nothing to expand")
	}

	d, err := m.Pop()
	if err != nil {
		return err
	}
	pc.write(OffsetOutline(base, d))
	return nil
}

// selectFromArgs switches the target when a class is given.
func (pc *polygonCommands) selectFromArgs(args []Argument) error {
	if len(args) > 0 {
		if args[0].IsNumber {
			return errors.New("expected polygon class")
		}
		pc.class = args[0].Word
	}
	if pc.class == "" {
		return errors.New("no polygon selected")
	}
	return nil
}

func (pc *polygonCommands) write(pts []geom.Coord) {
	for _, p := range pc.targets() {
		p.SetOutline(pts)
		p.Generated = true
	}
	pc.outline = append([]geom.Coord(nil), pts...)
}

// targets returns the polygons of the current class, creating one if none
// exists yet.
func (pc *polygonCommands) targets() []*primitive.Polygon {
	polygons := pc.owner.PolygonTable()
	var out []*primitive.Polygon
	for _, id := range ident.SortedKeys(polygons) {
		if p := polygons[id]; p.ParameterClass == pc.class {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		p := &primitive.Polygon{
			UUID:           ident.New(),
			Layer:          classLayer(pc.class),
			ParameterClass: pc.class,
		}
		polygons[p.UUID] = p
		out = append(out, p)
	}
	return out
}

// classLayer picks the layer for a polygon created by a program.
func classLayer(class string) int {
	switch class {
	case "courtyard":
		return layer.TopCourtyard
	case "assembly":
		return layer.TopAssembly
	case "silkscreen":
		return layer.TopSilkscreen
	case "paste":
		return layer.TopPaste
	case "mask":
		return layer.TopMask
	case "pad", "copper":
		return layer.TopCopper
	default:
		return layer.TopPackage
	}
}
