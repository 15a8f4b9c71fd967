// Package layer defines the fixed layer stack available to packages.
package layer

import "sort"

// Well-known layer indices.
const (
	TopCourtyard     = 60
	TopAssembly      = 50
	TopPackage       = 40
	TopPaste         = 30
	TopSilkscreen    = 20
	TopMask          = 10
	TopCopper        = 0
	InnerCopper      = -1
	BottomCopper     = -100
	BottomMask       = -110
	BottomSilkscreen = -120
	BottomPaste      = -130
	BottomPackage    = -140
	BottomAssembly   = -150
	BottomCourtyard  = -160

	// Unassigned marks a junction no line or arc has claimed yet.
	Unassigned = 10000
)

// Layer describes one entry of the layer stack.
type Layer struct {
	Index   int
	Name    string
	Reverse bool // seen from the bottom side
	Copper  bool
}

var packageLayers = []Layer{
	{TopCourtyard, "Top Courtyard", false, false},
	{TopAssembly, "Top Assembly", false, false},
	{TopPackage, "Top Package", false, false},
	{TopPaste, "Top Paste", false, false},
	{TopSilkscreen, "Top Silkscreen", false, false},
	{TopMask, "Top Mask", false, false},
	{TopCopper, "Top Copper", false, true},
	{InnerCopper, "Inner", false, true},
	{BottomCopper, "Bottom Copper", true, true},
	{BottomMask, "Bottom Mask", true, false},
	{BottomSilkscreen, "Bottom Silkscreen", true, false},
	{BottomPaste, "Bottom Paste", false, false},
	{BottomPackage, "Bottom Package", false, false},
	{BottomAssembly, "Bottom Assembly", true, false},
	{BottomCourtyard, "Bottom Courtyard", false, false},
}

// Map provides lookup of layers by index or name.
type Map struct {
	byIndex map[int]*Layer
	byName  map[string]*Layer
}

// NewMap creates a Map from a slice of layers.
func NewMap(layers []Layer) *Map {
	m := &Map{
		byIndex: make(map[int]*Layer),
		byName:  make(map[string]*Layer),
	}
	for i := range layers {
		l := &layers[i]
		m.byIndex[l.Index] = l
		m.byName[l.Name] = l
	}
	return m
}

var packageMap = NewMap(packageLayers)

// Package returns the layer map shared by all packages. Callers must not
// modify the returned layers.
func Package() *Map {
	return packageMap
}

// ByIndex retrieves a layer by its index.
func (m *Map) ByIndex(index int) (*Layer, bool) {
	l, ok := m.byIndex[index]
	return l, ok
}

// ByName retrieves a layer by its display name (e.g. "Top Copper").
func (m *Map) ByName(name string) (*Layer, bool) {
	l, ok := m.byName[name]
	return l, ok
}

// IsCopper reports whether index is a copper layer.
func (m *Map) IsCopper(index int) bool {
	l, ok := m.byIndex[index]
	return ok && l.Copper
}

// Layers returns all layers ordered from top to bottom.
func (m *Map) Layers() []Layer {
	out := make([]Layer, 0, len(m.byIndex))
	for _, l := range m.byIndex {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index > out[j].Index })
	return out
}
