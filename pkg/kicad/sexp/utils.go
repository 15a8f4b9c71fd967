package sexp

import (
	"fmt"
	"strconv"

	"github.com/OpenTraceLab/OpenTracePool/pkg/geom"
	"github.com/OpenTraceLab/OpenTracePool/pkg/kicad/sexp/kicadsexp"
)

// FindNode returns the first child list of s whose keyword is key.
// Example: FindNode(pad, "at") finds (at 1.5 0 90).
func FindNode(s kicadsexp.Sexp, key string) (*kicadsexp.List, bool) {
	l, ok := s.(*kicadsexp.List)
	if !ok {
		return nil, false
	}
	for _, item := range l.Items() {
		if sub, ok := item.(*kicadsexp.List); ok && sub.Keyword() == key {
			return sub, true
		}
	}
	return nil, false
}

// FindAllNodes returns every child list of s whose keyword is key.
func FindAllNodes(s kicadsexp.Sexp, key string) []*kicadsexp.List {
	l, ok := s.(*kicadsexp.List)
	if !ok {
		return nil
	}
	var out []*kicadsexp.List
	for _, item := range l.Items() {
		if sub, ok := item.(*kicadsexp.List); ok && sub.Keyword() == key {
			out = append(out, sub)
		}
	}
	return out
}

// GetListItems returns the items after the keyword.
// Example: GetListItems((layers "F.Cu" "F.Mask")) returns ["F.Cu", "F.Mask"].
func GetListItems(l *kicadsexp.List) []kicadsexp.Sexp {
	if l.Len() <= 1 {
		return nil
	}
	return l.Items()[1:]
}

// GetStrings returns the atom items after the keyword as strings.
func GetStrings(l *kicadsexp.List) []string {
	var out []string
	for _, item := range GetListItems(l) {
		if sym, ok := item.(kicadsexp.Symbol); ok {
			out = append(out, string(sym))
		}
	}
	return out
}

// GetString returns the atom at index. Index 0 is the keyword.
func GetString(l *kicadsexp.List, index int) (string, error) {
	item := l.Get(index)
	if item == nil {
		return "", fmt.Errorf("line %d: %s: index %d out of bounds (length %d)", l.Line, l.Keyword(), index, l.Len())
	}
	sym, ok := item.(kicadsexp.Symbol)
	if !ok {
		return "", fmt.Errorf("line %d: %s: expected atom at index %d", l.Line, l.Keyword(), index)
	}
	return string(sym), nil
}

// GetFloat parses the atom at index as a number.
func GetFloat(l *kicadsexp.List, index int) (float64, error) {
	s, err := GetString(l, index)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: %s: invalid number %q", l.Line, l.Keyword(), s)
	}
	return v, nil
}

// GetOptionalFloat is like GetFloat but returns def when index is absent.
func GetOptionalFloat(l *kicadsexp.List, index int, def float64) (float64, error) {
	if l.Get(index) == nil {
		return def, nil
	}
	return GetFloat(l, index)
}

// HasSymbol reports whether the list contains the bare atom symbol.
func HasSymbol(l *kicadsexp.List, symbol string) bool {
	for _, item := range l.Items() {
		if sym, ok := item.(kicadsexp.Symbol); ok && string(sym) == symbol {
			return true
		}
	}
	return false
}

// GetPoint reads the child (key x y) of s as a pool coordinate.
func GetPoint(s kicadsexp.Sexp, key string) (geom.Coord, error) {
	node, ok := FindNode(s, key)
	if !ok {
		return geom.Coord{}, fmt.Errorf("missing %s", key)
	}
	return pointOf(node)
}

func pointOf(node *kicadsexp.List) (geom.Coord, error) {
	x, err := GetFloat(node, 1)
	if err != nil {
		return geom.Coord{}, err
	}
	y, err := GetFloat(node, 2)
	if err != nil {
		return geom.Coord{}, err
	}
	return Point(x, y), nil
}

// GetPoints reads the (xy x y) entries of a (pts ...) child of s.
func GetPoints(s kicadsexp.Sexp) ([]geom.Coord, error) {
	pts, ok := FindNode(s, "pts")
	if !ok {
		return nil, fmt.Errorf("missing pts")
	}
	var out []geom.Coord
	for _, xy := range FindAllNodes(pts, "xy") {
		c, err := pointOf(xy)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// GetPlacement reads (at x y [angle]) of s.
func GetPlacement(s kicadsexp.Sexp) (geom.Placement, error) {
	at, ok := FindNode(s, "at")
	if !ok {
		return geom.Placement{}, fmt.Errorf("missing at")
	}
	shift, err := pointOf(at)
	if err != nil {
		return geom.Placement{}, err
	}
	deg, err := GetOptionalFloat(at, 3, 0)
	if err != nil {
		return geom.Placement{}, err
	}
	return geom.Placement{Shift: shift, Angle: Angle(deg)}, nil
}

// GetStrokeWidth reads the line width of a graphic item, accepting both
// (stroke (width w)) and the older bare (width w). Missing means zero.
func GetStrokeWidth(s kicadsexp.Sexp) (int64, error) {
	if stroke, ok := FindNode(s, "stroke"); ok {
		s = stroke
	}
	w, ok := FindNode(s, "width")
	if !ok {
		return 0, nil
	}
	mm, err := GetFloat(w, 1)
	if err != nil {
		return 0, err
	}
	return Length(mm), nil
}

// GetFont reads (effects (font (size h w) (thickness t))) of s.
// Missing values are zero.
func GetFont(s kicadsexp.Sexp) (size, thickness int64, err error) {
	effects, ok := FindNode(s, "effects")
	if !ok {
		return 0, 0, nil
	}
	font, ok := FindNode(effects, "font")
	if !ok {
		return 0, 0, nil
	}
	if sz, ok := FindNode(font, "size"); ok {
		mm, err := GetFloat(sz, 1)
		if err != nil {
			return 0, 0, err
		}
		size = Length(mm)
	}
	if th, ok := FindNode(font, "thickness"); ok {
		mm, err := GetFloat(th, 1)
		if err != nil {
			return 0, 0, err
		}
		thickness = Length(mm)
	}
	return size, thickness, nil
}
