package primitive

import (
	"github.com/OpenTraceLab/OpenTracePool/pkg/geom"
	"github.com/OpenTraceLab/OpenTracePool/pkg/ident"
	"github.com/OpenTraceLab/OpenTracePool/pkg/layer"
)

// Junction is a point lines and arcs attach to. Everything except UUID and
// Position is derived state recomputed by the owner and never persisted.
type Junction struct {
	UUID     ident.ID   `json:"-"`
	Position geom.Coord `json:"position"`

	Temp            bool `json:"-"`
	Layer           int  `json:"-"`
	ConnectionCount int  `json:"-"`
	HasVia          bool `json:"-"`
	NeedsVia        bool `json:"-"`
}

// NewJunction returns a junction at pos with its derived fields reset.
func NewJunction(id ident.ID, pos geom.Coord) *Junction {
	j := &Junction{UUID: id, Position: pos}
	j.ResetDerived()
	return j
}

// ResetDerived clears all derived fields.
func (j *Junction) ResetDerived() {
	j.Temp = false
	j.Layer = layer.Unassigned
	j.ConnectionCount = 0
	j.HasVia = false
	j.NeedsVia = false
}

// Line is a straight segment between two junctions.
type Line struct {
	UUID  ident.ID      `json:"-"`
	From  Ref[Junction] `json:"from"`
	To    Ref[Junction] `json:"to"`
	Width int64         `json:"width"`
	Layer int           `json:"layer"`
}

// Arc is a circular segment from From to To around Center.
type Arc struct {
	UUID   ident.ID      `json:"-"`
	From   Ref[Junction] `json:"from"`
	To     Ref[Junction] `json:"to"`
	Center Ref[Junction] `json:"center"`
	Width  int64         `json:"width"`
	Layer  int           `json:"layer"`
}

// Text is a placed text label.
type Text struct {
	UUID      ident.ID       `json:"-"`
	Placement geom.Placement `json:"placement"`
	Text      string         `json:"text"`
	Layer     int            `json:"layer"`
	Size      int64          `json:"size"`
	Width     int64          `json:"width"`
}

// DimensionMode selects which distance a dimension measures.
type DimensionMode string

const (
	DimensionHorizontal DimensionMode = "horizontal"
	DimensionVertical   DimensionMode = "vertical"
	DimensionDistance   DimensionMode = "distance"
)

// Dimension is a measurement annotation between two points.
type Dimension struct {
	UUID          ident.ID      `json:"-"`
	P0            geom.Coord    `json:"p0"`
	P1            geom.Coord    `json:"p1"`
	LabelDistance int64         `json:"label_distance"`
	LabelSize     int64         `json:"label_size"`
	Mode          DimensionMode `json:"mode"`
}

// Length returns the measured distance along the dimension's axis.
func (d *Dimension) Length() int64 {
	switch d.Mode {
	case DimensionHorizontal:
		return abs(d.P1.X - d.P0.X)
	case DimensionVertical:
		return abs(d.P1.Y - d.P0.Y)
	default:
		return hypot(d.P1.Sub(d.P0))
	}
}

// Keepout excludes manufacturing features from the area of one polygon. The
// polygon is referenced, not owned.
type Keepout struct {
	UUID          ident.ID     `json:"-"`
	Polygon       Ref[Polygon] `json:"polygon"`
	KeepoutClass  string       `json:"keepout_class"`
	PatchTypesCu  []string     `json:"patch_types_cu"`
	ExposedCuOnly bool         `json:"exposed_cu_only"`
	AllCuLayers   bool         `json:"all_cu_layers"`
}

// Clone returns a copy that shares nothing mutable with k. The polygon
// reference keeps its identifier but must be re-resolved by the caller.
func (k *Keepout) Clone() *Keepout {
	c := *k
	c.PatchTypesCu = append([]string(nil), k.PatchTypesCu...)
	return &c
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
