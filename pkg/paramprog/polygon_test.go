package paramprog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTracePool/pkg/geom"
	"github.com/OpenTraceLab/OpenTracePool/pkg/ident"
	"github.com/OpenTraceLab/OpenTracePool/pkg/layer"
	"github.com/OpenTraceLab/OpenTracePool/pkg/parameter"
	"github.com/OpenTraceLab/OpenTracePool/pkg/primitive"
)

type owner struct {
	polygons map[ident.ID]*primitive.Polygon
}

func (o *owner) PolygonTable() map[ident.ID]*primitive.Polygon { return o.polygons }

func newOwner(polys ...*primitive.Polygon) *owner {
	o := &owner{polygons: map[ident.ID]*primitive.Polygon{}}
	for _, p := range polys {
		o.polygons[p.UUID] = p
	}
	return o
}

func runOn(o *owner, code string, ps parameter.Set) error {
	p := New(code)
	p.Extend(func() CommandTable { return PolygonCommands(o) })
	return p.Run(ps)
}

func outline(p *primitive.Polygon) []geom.Coord {
	out := make([]geom.Coord, len(p.Vertices))
	for i, v := range p.Vertices {
		out[i] = v.Position
	}
	return out
}

func TestExpandPolygonFromArgs(t *testing.T) {
	court := &primitive.Polygon{UUID: ident.New(), Layer: layer.TopCourtyard, ParameterClass: "courtyard"}
	o := newOwner(court)
	ps := parameter.Set{parameter.CourtyardExpansion: 250000}

	err := runOn(o, "get-parameter [ courtyard_expansion ]\nexpand-polygon [ courtyard -1mm -1mm 1mm -1mm 1mm 1mm -1mm 1mm ]", ps)
	require.NoError(t, err)

	bb := court.BBox()
	assert.Equal(t, geom.Coord{X: -1250000, Y: -1250000}, bb.Min)
	assert.Equal(t, geom.Coord{X: 1250000, Y: 1250000}, bb.Max)
	assert.True(t, court.Generated)
	assert.Len(t, o.polygons, 1)
}

func TestExpandPolygonCreatesTarget(t *testing.T) {
	o := newOwner()
	err := runOn(o, "100000 expand-polygon [ courtyard 0 0 1mm 0 1mm 1mm 0 1mm ]", nil)
	require.NoError(t, err)
	require.Len(t, o.polygons, 1)
	for _, p := range o.polygons {
		assert.Equal(t, "courtyard", p.ParameterClass)
		assert.Equal(t, layer.TopCourtyard, p.Layer)
		assert.Len(t, p.Vertices, 4)
	}
}

func TestSetPolygonRectangleThenExpand(t *testing.T) {
	pad := &primitive.Polygon{UUID: ident.New(), Layer: layer.TopCopper, ParameterClass: "pad"}
	mask := &primitive.Polygon{UUID: ident.New(), Layer: layer.TopMask, ParameterClass: "mask"}
	o := newOwner(pad, mask)
	ps := parameter.Set{
		parameter.PadWidth:            2000000,
		parameter.PadHeight:           1000000,
		parameter.SolderMaskExpansion: 100000,
	}
	code := `
get-parameter [ pad_width ]
get-parameter [ pad_height ]
set-polygon [ pad rectangle 0 0 ]
get-parameter [ solder_mask_expansion ]
set-polygon [ mask ]
expand-polygon
`
	require.NoError(t, runOn(o, code, ps))
	assert.Equal(t, []geom.Coord{
		{X: -1000000, Y: -500000},
		{X: 1000000, Y: -500000},
		{X: 1000000, Y: 500000},
		{X: -1000000, Y: 500000},
	}, outline(pad))
	assert.Equal(t, []geom.Coord{
		{X: -1100000, Y: -600000},
		{X: 1100000, Y: -600000},
		{X: 1100000, Y: 600000},
		{X: -1100000, Y: 600000},
	}, outline(mask))
}

func TestExpandWithoutOutline(t *testing.T) {
	err := runOn(newOwner(), "1 set-polygon [ mask ] expand-polygon", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to expand")
}

func TestSetPolygonVertices(t *testing.T) {
	o := newOwner()
	err := runOn(o, "set-polygon [ package ] 0 0 1mm 0 0 1mm 3 set-polygon-vertices", nil)
	require.NoError(t, err)
	require.Len(t, o.polygons, 1)
	for _, p := range o.polygons {
		assert.Equal(t, layer.TopPackage, p.Layer)
		assert.Equal(t, []geom.Coord{{X: 0, Y: 0}, {X: 1000000, Y: 0}, {X: 0, Y: 1000000}}, outline(p))
	}
}

func TestSetPolygonVerticesErrors(t *testing.T) {
	err := runOn(newOwner(), "0 0 1 1 2 set-polygon-vertices [ x ]", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "need at least 3 vertices")

	err = runOn(newOwner(), "3 set-polygon-vertices", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no polygon selected")

	err = runOn(newOwner(), "1 2 3 set-polygon-vertices [ x ]", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty stack")
}

func TestSetPolygonCircle(t *testing.T) {
	o := newOwner()
	err := runOn(o, "1mm set-polygon [ pad circle 0 0 ]", nil)
	require.NoError(t, err)
	require.Len(t, o.polygons, 1)
	for _, p := range o.polygons {
		require.Len(t, p.Vertices, 2)
		assert.Equal(t, primitive.VertexArc, p.Vertices[0].Type)
		bb := p.BBox()
		assert.InDelta(t, -500000, bb.Min.X, 1000)
		assert.InDelta(t, 500000, bb.Max.X, 1000)
	}
}

func TestSetPolygonUnknownShape(t *testing.T) {
	err := runOn(newOwner(), "1 set-polygon [ pad hexagon 0 0 ]", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown shape hexagon")
}

func TestPartialEffectsKept(t *testing.T) {
	court := &primitive.Polygon{UUID: ident.New(), ParameterClass: "courtyard"}
	o := newOwner(court)
	err := runOn(o, "1 expand-polygon [ courtyard 0 0 10 0 10 10 0 10 ] bogus", nil)
	require.Error(t, err)
	assert.Len(t, court.Vertices, 4)
}

func TestOffsetOutline(t *testing.T) {
	square := []geom.Coord{{X: -1000000, Y: -1000000}, {X: 1000000, Y: -1000000}, {X: 1000000, Y: 1000000}, {X: -1000000, Y: 1000000}}

	grown := OffsetOutline(square, 250000)
	assert.Equal(t, []geom.Coord{{X: -1250000, Y: -1250000}, {X: 1250000, Y: -1250000}, {X: 1250000, Y: 1250000}, {X: -1250000, Y: 1250000}}, grown)

	shrunk := OffsetOutline(square, -500000)
	assert.Equal(t, []geom.Coord{{X: -500000, Y: -500000}, {X: 500000, Y: -500000}, {X: 500000, Y: 500000}, {X: -500000, Y: 500000}}, shrunk)

	collapsed := OffsetOutline(square, -1500000)
	assert.Equal(t, []geom.Coord{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}}, collapsed)

	// Clockwise input is reoriented.
	cw := []geom.Coord{square[3], square[2], square[1], square[0]}
	assert.Equal(t, grown, OffsetOutline(cw, 250000))
}

func TestOffsetOutlineConcave(t *testing.T) {
	// A V notch stays a notch: the reflex corner takes the miter point.
	arrow := []geom.Coord{{X: 0, Y: 0}, {X: 10000, Y: 0}, {X: 10000, Y: 10000}, {X: 5000, Y: 1000}, {X: 0, Y: 10000}}
	grown := OffsetOutline(arrow, 3000)
	assert.Len(t, grown, 7)
	assert.Contains(t, grown, geom.Coord{X: 5000, Y: 7177})
	assert.False(t, selfIntersects(cleanOutline(grown)))

	// A slot narrower than twice the distance closes; the hull is grown instead.
	slot := []geom.Coord{
		{X: 0, Y: 0}, {X: 10000, Y: 0}, {X: 10000, Y: 10000}, {X: 6000, Y: 10000},
		{X: 6000, Y: 2000}, {X: 4000, Y: 2000}, {X: 4000, Y: 10000}, {X: 0, Y: 10000},
	}
	assert.Equal(t, []geom.Coord{{X: -3000, Y: -3000}, {X: 13000, Y: -3000}, {X: 13000, Y: 13000}, {X: -3000, Y: 13000}}, OffsetOutline(slot, 3000))

	tests := []struct {
		name string
		pts  []geom.Coord
		d    int64
	}{
		{"arrow grow", arrow, 3000},
		{"arrow shrink", arrow, -500},
		{"arrow consumed", arrow, -6000},
		{"slot grow", slot, 3000},
		{"slot shrink", slot, -800},
		{"slot consumed", slot, -3000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := OffsetOutline(tt.pts, tt.d)
			poly := cleanOutline(out)
			require.GreaterOrEqual(t, len(poly), 3)
			assert.Greater(t, signedArea(poly), 0.0)
			assert.False(t, selfIntersects(poly), "outline %v crosses itself", out)
		})
	}
}

func TestSelfIntersects(t *testing.T) {
	loop := []vec{{-3000, -3000}, {13000, -3000}, {13000, 10000}, {7378, 11457}, {2378, 2457}, {7622, 2457}, {2622, 11457}, {-3000, 10000}}
	assert.True(t, selfIntersects(loop))

	square := []vec{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	assert.False(t, selfIntersects(square))

	// Touching at a vertex counts.
	pinched := []vec{{0, 0}, {10, 0}, {5, 5}, {10, 10}, {0, 10}, {5, 5}}
	assert.True(t, selfIntersects(pinched))
}
