package modimport

import "github.com/OpenTraceLab/OpenTracePool/pkg/layer"

var layerNames = map[string]int{
	"F.Cu":         layer.TopCopper,
	"B.Cu":         layer.BottomCopper,
	"F.Mask":       layer.TopMask,
	"B.Mask":       layer.BottomMask,
	"F.Paste":      layer.TopPaste,
	"B.Paste":      layer.BottomPaste,
	"F.SilkS":      layer.TopSilkscreen,
	"F.Silkscreen": layer.TopSilkscreen,
	"B.SilkS":      layer.BottomSilkscreen,
	"B.Silkscreen": layer.BottomSilkscreen,
	"F.Fab":        layer.TopAssembly,
	"B.Fab":        layer.BottomAssembly,
	"F.CrtYd":      layer.TopCourtyard,
	"F.Courtyard":  layer.TopCourtyard,
	"B.CrtYd":      layer.BottomCourtyard,
	"B.Courtyard":  layer.BottomCourtyard,
}

// mapLayer returns the pool layer for a KiCad layer name.
func mapLayer(name string) (int, bool) {
	l, ok := layerNames[name]
	return l, ok
}

func isCourtyard(l int) bool {
	return l == layer.TopCourtyard || l == layer.BottomCourtyard
}
