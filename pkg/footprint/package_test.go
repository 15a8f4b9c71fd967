package footprint

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTracePool/pkg/geom"
	"github.com/OpenTraceLab/OpenTracePool/pkg/ident"
	"github.com/OpenTraceLab/OpenTracePool/pkg/layer"
	"github.com/OpenTraceLab/OpenTracePool/pkg/parameter"
	"github.com/OpenTraceLab/OpenTracePool/pkg/paramprog"
	"github.com/OpenTraceLab/OpenTracePool/pkg/primitive"
)

var (
	j1 = ident.MustParse("11111111-0000-4000-8000-000000000001")
	j2 = ident.MustParse("11111111-0000-4000-8000-000000000002")
	j3 = ident.MustParse("11111111-0000-4000-8000-000000000003")

	line1 = ident.MustParse("22222222-0000-4000-8000-000000000001")

	pad1 = ident.MustParse("55555555-0000-4000-8000-000000000001")
	pad3 = ident.MustParse("55555555-0000-4000-8000-000000000003")

	courtyardID = ident.MustParse("66666666-0000-4000-8000-000000000001")
	emptyPoly   = ident.MustParse("66666666-0000-4000-8000-000000000003")
	keepout1    = ident.MustParse("77777777-0000-4000-8000-000000000001")
	keepout2    = ident.MustParse("77777777-0000-4000-8000-000000000002")
	model1      = ident.MustParse("99999999-0000-4000-8000-000000000001")
)

func encode(t *testing.T, p *Package) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, p.Encode(&buf))
	return buf.Bytes()
}

func TestLoad(t *testing.T) {
	p, pool := loadSOT23(t)

	assert.Equal(t, sot23ID, p.UUID)
	assert.Equal(t, "SOT-23", p.Name)
	assert.Equal(t, "JEDEC", p.Manufacturer)
	assert.Equal(t, []string{"smd", "sot"}, p.Tags)
	assert.Len(t, p.Junctions, 3)
	assert.Len(t, p.Lines, 2)
	assert.Len(t, p.Arcs, 1)
	assert.Len(t, p.Texts, 1)
	assert.Len(t, p.Pads, 3)
	assert.Len(t, p.Dimensions, 1)
	assert.Equal(t, 3, pool.calls)
	assert.Equal(t, int64(250000), p.ParameterSet[parameter.CourtyardExpansion])

	l := p.Lines[line1]
	assert.Same(t, p.Junctions[j1], l.From.Get())
	assert.Same(t, p.Junctions[j2], l.To.Get())
	assert.Equal(t, layer.Unassigned, p.Junctions[j1].Layer)

	for id, pad := range p.Pads {
		require.NotNil(t, pad.PoolPadstack.Get(), "pad %s", id)
		assert.Equal(t, smdPadstackID, pad.PoolPadstack.UUID)
		assert.NotSame(t, pad.PoolPadstack.Get(), pad.Padstack)
		assert.Equal(t, id, pad.UUID)
	}

	require.NotNil(t, p.Model(ident.Nil))
	assert.Equal(t, "3d/sot23.step", p.Model(ident.Nil).Filename)
	assert.Equal(t, 16384, p.Model(model1).Yaw)
	assert.Nil(t, p.Model(ident.New()))
}

func TestLoadPrunes(t *testing.T) {
	p, _ := loadSOT23(t)

	assert.NotContains(t, p.Polygons, emptyPoly)
	assert.Len(t, p.Polygons, 2)

	assert.NotContains(t, p.Keepouts, keepout2)
	require.Contains(t, p.Keepouts, keepout1)
	k := p.Keepouts[keepout1]
	assert.Same(t, p.Polygons[k.Polygon.UUID], k.Polygon.Get())
	assert.Equal(t, []string{"pad"}, k.PatchTypesCu)
}

func TestRoundTrip(t *testing.T) {
	p, pool := loadSOT23(t)
	first := encode(t, p)

	q, err := Decode(bytes.NewReader(first), pool)
	require.NoError(t, err)
	second := encode(t, q)

	var a, b map[string]any
	require.NoError(t, json.Unmarshal(first, &a))
	require.NoError(t, json.Unmarshal(second, &b))
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("round trip mismatch (-first +second):\n%s", diff)
	}

	assert.NotContains(t, a, "model_filename")
	assert.NotContains(t, a, "alternate_for")
	assert.NotContains(t, a, "warnings")
	junction := a["junctions"].(map[string]any)[j1.String()].(map[string]any)
	assert.Equal(t, []string{"position"}, keys(junction))
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestSaveLoad(t *testing.T) {
	p, pool := loadSOT23(t)
	p.Expand()
	p.UpdateWarnings()

	path := filepath.Join(t.TempDir(), "pkg.json")
	require.NoError(t, p.Save(path))
	q, err := Load(path, pool)
	require.NoError(t, err)

	assert.Equal(t, encode(t, p), encode(t, q))
	assert.Empty(t, q.Warnings)
}

func TestCloneDoesNotAlias(t *testing.T) {
	p, _ := loadSOT23(t)
	c := p.Clone()

	for id, j := range c.Junctions {
		j.Position = j.Position.Add(geom.Coord{X: 1000, Y: 1000})
		assert.NotSame(t, p.Junctions[id], j)
	}
	assert.Equal(t, geom.Coord{X: -1500000, Y: -700000}, p.Junctions[j1].Position)

	l := c.Lines[line1]
	assert.Same(t, c.Junctions[j1], l.From.Get())
	assert.NotSame(t, p.Lines[line1], l)

	k := c.Keepouts[keepout1]
	assert.Same(t, c.Polygons[k.Polygon.UUID], k.Polygon.Get())

	assert.NotSame(t, p.Pads[pad1].Padstack, c.Pads[pad1].Padstack)
	c.Pads[pad1].ParameterSet[parameter.PadWidth] = 1
	assert.Equal(t, int64(600000), p.Pads[pad1].ParameterSet[parameter.PadWidth])

	// The clone's program writes the clone's polygons.
	require.NoError(t, c.ApplyParameterSet(parameter.Set{parameter.CourtyardExpansion: 500000}))
	assert.Equal(t, geom.Coord{X: -1750000, Y: -1550000}, p.Polygons[courtyardID].BBox().Min)
	assert.Equal(t, geom.Coord{X: -2000000, Y: -1800000}, c.Polygons[courtyardID].BBox().Min)
}

func TestCloneMissingJunctionPanics(t *testing.T) {
	p, _ := loadSOT23(t)
	delete(p.Junctions, j3)
	assert.Panics(t, func() { p.Clone() })
}

func TestUpdateRefsFromPool(t *testing.T) {
	p, pool := loadSOT23(t)
	pool.padstacks[smdPadstackID].Name = "renamed"
	old := p.Pads[pad1].Padstack

	require.NoError(t, p.UpdateRefsFromPool(pool))
	assert.NotSame(t, old, p.Pads[pad1].Padstack)
	assert.Equal(t, "renamed", p.Pads[pad1].Padstack.Name)
	assert.Equal(t, "renamed", p.Pads[pad1].PoolPadstack.Get().Name)

	delete(pool.padstacks, smdPadstackID)
	assert.Error(t, p.UpdateRefsFromPool(pool))
}

func TestUpdateRefsUnsetJunction(t *testing.T) {
	p, _ := loadSOT23(t)
	p.Lines[line1].To = primitive.Ref[primitive.Junction]{}
	err := p.UpdateRefs()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "junction not set")
}

func TestUpdateRefsDropsKeepouts(t *testing.T) {
	p, _ := loadSOT23(t)
	delete(p.Polygons, p.Keepouts[keepout1].Polygon.UUID)
	require.NoError(t, p.UpdateRefs())
	assert.Empty(t, p.Keepouts)
}

func TestExpand(t *testing.T) {
	p, _ := loadSOT23(t)
	p.Expand()

	// Lines come before arcs, so line 2 (layer 40) claims j3 before the
	// arc (layer 50).
	assert.Equal(t, layer.TopSilkscreen, p.Junctions[j1].Layer)
	assert.Equal(t, layer.TopSilkscreen, p.Junctions[j2].Layer)
	assert.Equal(t, layer.TopPackage, p.Junctions[j3].Layer)

	assert.Equal(t, 2, p.Junctions[j1].ConnectionCount)
	assert.Equal(t, 2, p.Junctions[j2].ConnectionCount)
	assert.Equal(t, 2, p.Junctions[j3].ConnectionCount)
}

func TestExpandIdempotent(t *testing.T) {
	p, _ := loadSOT23(t)
	p.Junctions[j1].Temp = true
	p.Expand()
	once := map[ident.ID]primitive.Junction{}
	for id, j := range p.Junctions {
		once[id] = *j
	}
	p.Expand()
	for id, j := range p.Junctions {
		assert.Equal(t, once[id], *j, "junction %s", id)
	}
	assert.False(t, p.Junctions[j1].Temp)
}

func TestExpandDropsDanglingKeepout(t *testing.T) {
	p, _ := loadSOT23(t)
	delete(p.Polygons, p.Keepouts[keepout1].Polygon.UUID)
	p.Expand()
	assert.Empty(t, p.Keepouts)
}

func TestConnectionCount(t *testing.T) {
	p := New(ident.New())
	a := p.AddJunction(ident.New(), geom.Coord{})
	shared := p.AddJunction(ident.New(), geom.Coord{X: 1000})
	b := p.AddJunction(ident.New(), geom.Coord{X: 2000})
	p.AddLine(ident.New(), a, shared, 100, layer.TopSilkscreen)
	p.AddLine(ident.New(), shared, b, 100, layer.TopSilkscreen)

	p.Expand()
	assert.Equal(t, 2, shared.ConnectionCount)
	assert.Equal(t, 1, a.ConnectionCount)
	assert.Equal(t, 1, b.ConnectionCount)
}

func TestUpdateWarnings(t *testing.T) {
	p, _ := loadSOT23(t)
	p.UpdateWarnings()
	require.Len(t, p.Warnings, 1)
	assert.Equal(t, "missing parameter pad_height", p.Warnings[0].Text)
	assert.Equal(t, p.Pads[pad3].Placement.Shift, p.Warnings[0].Position)

	p.Pads[pad3].ParameterSet[parameter.PadHeight] = 700000
	p.UpdateWarnings()
	assert.Empty(t, p.Warnings)
}

func TestUpdateWarningsKeepsPreviousSlice(t *testing.T) {
	p, _ := loadSOT23(t)
	p.UpdateWarnings()
	prev := p.Warnings
	require.Len(t, prev, 1)

	p.Pads[pad3].ParameterSet[parameter.PadHeight] = 700000
	p.Pads[pad3].Name = p.Pads[pad1].Name
	p.UpdateWarnings()
	require.Len(t, p.Warnings, 1)
	assert.Equal(t, "duplicate pad name", p.Warnings[0].Text)
	assert.Equal(t, "missing parameter pad_height", prev[0].Text)
}

func TestDuplicatePadWarning(t *testing.T) {
	pool := newTestPool(t)
	tmpl, err := pool.GetPadstack(smdPadstackID)
	require.NoError(t, err)
	tmpl.ParametersRequired = nil

	p := New(ident.New())
	p.AddPad(ident.New(), "1", tmpl, geom.Placement{})
	second := p.AddPad(ident.New(), "1", tmpl, geom.Placement{Shift: geom.Coord{X: 5, Y: 6}})
	p.UpdateWarnings()

	require.Len(t, p.Warnings, 1)
	assert.Contains(t, p.Warnings[0].Text, "duplicate pad name")

	// The warning lands on whichever pad comes second in id order.
	first := p.Pads[ident.SortedKeys(p.Pads)[0]]
	if first == second {
		assert.Equal(t, geom.Coord{}, p.Warnings[0].Position)
	} else {
		assert.Equal(t, geom.Coord{X: 5, Y: 6}, p.Warnings[0].Position)
	}
}

func TestApplyParameterSet(t *testing.T) {
	p, _ := loadSOT23(t)
	require.NoError(t, p.ApplyParameterSet(parameter.Set{
		parameter.CourtyardExpansion:  500000,
		parameter.SolderMaskExpansion: 100000,
	}))

	bb := p.Polygons[courtyardID].BBox()
	assert.Equal(t, geom.Coord{X: -2000000, Y: -1800000}, bb.Min)
	assert.Equal(t, geom.Coord{X: 2000000, Y: 1800000}, bb.Max)

	// Pad 1 overrides width and height; the mask grows by 0.1mm.
	pb := p.Pads[pad1].Padstack.BBox()
	assert.Equal(t, geom.Coord{X: -400000, Y: -450000}, pb.Min)
	assert.Equal(t, geom.Coord{X: 400000, Y: 450000}, pb.Max)

	// The package and pad sets themselves are untouched.
	assert.Equal(t, int64(250000), p.ParameterSet[parameter.CourtyardExpansion])
	assert.False(t, p.Pads[pad1].ParameterSet.Has(parameter.SolderMaskExpansion))
}

func TestApplyProgramFailureSkipsPads(t *testing.T) {
	p, _ := loadSOT23(t)
	p.SetParameterProgram("frobnicate")
	before := p.Pads[pad1].Padstack.BBox()

	err := p.ApplyParameterSet(parameter.Set{parameter.SolderMaskExpansion: 1000000})
	var perr *paramprog.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "frobnicate", perr.Command)
	assert.Equal(t, "frobnicate: unknown command", err.Error())

	for id, pad := range p.Pads {
		for _, poly := range pad.Padstack.Polygons {
			assert.False(t, poly.Generated, "pad %s was applied", id)
		}
	}
	assert.Equal(t, before, p.Pads[pad1].Padstack.BBox())
}

func TestApplyPadFailure(t *testing.T) {
	p, _ := loadSOT23(t)
	p.Pads[pad3].Padstack.SetParameterProgram("get-parameter [ corner_radius ]")

	err := p.ApplyParameterSet(nil)
	require.Error(t, err)
	assert.Equal(t, "Pad 3: get-parameter: parameter corner_radius not set", err.Error())

	// Pads before the failing one keep their new geometry.
	for _, poly := range p.Pads[pad1].Padstack.Polygons {
		assert.True(t, poly.Generated)
	}
}

func TestApplyIgnoresUnknownParameters(t *testing.T) {
	p, _ := loadSOT23(t)
	before := map[ident.ID]parameter.Set{}
	for id, pad := range p.Pads {
		before[id] = pad.ParameterSet.Clone()
	}

	err := p.ApplyParameterSet(parameter.Set{
		parameter.CornerRadius: 1,
		parameter.ViaDiameter:  2,
		parameter.ID(999):      3,
	})
	require.NoError(t, err)
	for id, pad := range p.Pads {
		assert.Equal(t, before[id], pad.ParameterSet)
		assert.False(t, pad.ParameterSet.Has(parameter.CornerRadius))
	}
}

func TestLoadErrors(t *testing.T) {
	pool := newTestPool(t)

	_, err := Load(filepath.Join("testdata", "does-not-exist.json"), pool)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = Load(filepath.Join("testdata", "model-missing-z.json"), pool)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing position")

	_, err = Load(filepath.Join("testdata", "missing-junction.json"), pool)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	for _, doc := range []string{
		`{"name": "x"}`,
		`{"uuid": "bbbbbbbb-0000-4000-8000-000000000010"}`,
		`{"uuid": "not-a-uuid", "name": "x"}`,
		`{"uuid": "bbbbbbbb-0000-4000-8000-000000000010", "name": "x", "type": "padstack"}`,
		`{"uuid": "bbbbbbbb-0000-4000-8000-000000000010", "name": "x", "models": {}}`,
	} {
		_, err := Decode(strings.NewReader(doc), pool)
		assert.Error(t, err, doc)
	}
}

func TestLegacyModelFilename(t *testing.T) {
	p, err := Load(filepath.Join("testdata", "legacy-model.json"), newTestPool(t))
	require.NoError(t, err)
	require.Len(t, p.Models, 1)
	m := p.Model(ident.Nil)
	require.NotNil(t, m)
	assert.Equal(t, "3d/legacy.wrl", m.Filename)
	assert.NotEqual(t, ident.Nil, p.DefaultModel)

	doc := p.Serialize()
	assert.Empty(t, doc.ModelFilename)
	assert.Equal(t, p.DefaultModel, *doc.DefaultModel)
}

func TestDefaultModelNormalized(t *testing.T) {
	doc := `{"uuid": "bbbbbbbb-0000-4000-8000-000000000011", "name": "x", "models": {},
		"default_model": "99999999-0000-4000-8000-000000000001"}`
	p, err := Decode(strings.NewReader(doc), newTestPool(t))
	require.NoError(t, err)
	assert.Equal(t, ident.Nil, p.DefaultModel)
	assert.Nil(t, p.Model(ident.Nil))
}

func TestAlternateFor(t *testing.T) {
	pool := newTestPool(t)
	base := New(ident.MustParse("bbbbbbbb-0000-4000-8000-000000000020"))
	pool.packages[base.UUID] = base

	self := `{"uuid": "bbbbbbbb-0000-4000-8000-000000000021", "name": "x",
		"alternate_for": "bbbbbbbb-0000-4000-8000-000000000021"}`
	p, err := Decode(strings.NewReader(self), pool)
	require.NoError(t, err)
	assert.Nil(t, p.AlternateFor)

	other := `{"uuid": "bbbbbbbb-0000-4000-8000-000000000021", "name": "x",
		"alternate_for": "bbbbbbbb-0000-4000-8000-000000000020"}`
	p, err = Decode(strings.NewReader(other), pool)
	require.NoError(t, err)
	assert.Same(t, base, p.AlternateFor)
	assert.Equal(t, base.UUID, *p.Serialize().AlternateFor)

	p.AlternateFor = p
	assert.Nil(t, p.Serialize().AlternateFor)

	missing := `{"uuid": "bbbbbbbb-0000-4000-8000-000000000021", "name": "x",
		"alternate_for": "bbbbbbbb-0000-4000-8000-000000000099"}`
	_, err = Decode(strings.NewReader(missing), pool)
	assert.Error(t, err)
}

func TestBBox(t *testing.T) {
	pool := newTestPool(t)
	tmpl, err := pool.GetPadstack(smdPadstackID)
	require.NoError(t, err)

	p := New(ident.New())
	assert.Equal(t, geom.BBox{}, p.BBox())

	p.AddPad(ident.New(), "1", tmpl, geom.Placement{Shift: geom.MM(5, 5)})
	bb := p.BBox()
	assert.Equal(t, geom.Coord{}, bb.Min)
	assert.Equal(t, geom.Coord{X: 5550000, Y: 5350000}, bb.Max)
}

func TestMaxPadName(t *testing.T) {
	p := New(ident.New())
	assert.Equal(t, -1, p.MaxPadName())

	pool := newTestPool(t)
	tmpl, err := pool.GetPadstack(smdPadstackID)
	require.NoError(t, err)
	for _, name := range []string{"1", "12A", "abc", "-3", "7"} {
		p.AddPad(ident.New(), name, tmpl, geom.Placement{})
	}
	assert.Equal(t, 12, p.MaxPadName())
}

func TestLayers(t *testing.T) {
	p := New(ident.New())
	l, ok := p.Layers().ByIndex(layer.TopCourtyard)
	require.True(t, ok)
	assert.Equal(t, "Top Courtyard", l.Name)
}
