package footprint

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/OpenTraceLab/OpenTracePool/pkg/ident"
	"github.com/OpenTraceLab/OpenTracePool/pkg/padstack"
)

var (
	smdPadstackID = ident.MustParse("aaaaaaaa-0000-4000-8000-000000000001")
	sot23ID       = ident.MustParse("bbbbbbbb-0000-4000-8000-000000000001")
)

// testPool serves padstacks from testdata and packages from a map.
type testPool struct {
	padstacks map[ident.ID]*padstack.Padstack
	packages  map[ident.ID]*Package
	calls     int
}

func newTestPool(t *testing.T) *testPool {
	t.Helper()
	ps, err := padstack.Load(filepath.Join("testdata", "smd-padstack.json"))
	if err != nil {
		t.Fatalf("load padstack: %v", err)
	}
	return &testPool{
		padstacks: map[ident.ID]*padstack.Padstack{ps.UUID: ps},
		packages:  map[ident.ID]*Package{},
	}
}

func (tp *testPool) GetPadstack(id ident.ID) (*padstack.Padstack, error) {
	tp.calls++
	ps, ok := tp.padstacks[id]
	if !ok {
		return nil, fmt.Errorf("padstack %s not found", id)
	}
	return ps.Clone(), nil
}

func (tp *testPool) GetPackage(id ident.ID) (*Package, error) {
	p, ok := tp.packages[id]
	if !ok {
		return nil, fmt.Errorf("package %s not found", id)
	}
	return p, nil
}

func loadSOT23(t *testing.T) (*Package, *testPool) {
	t.Helper()
	pool := newTestPool(t)
	p, err := Load(filepath.Join("testdata", "sot23.json"), pool)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return p, pool
}
