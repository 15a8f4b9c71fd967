package pool

import (
	"fmt"
	"sync"

	"github.com/OpenTraceLab/OpenTracePool/pkg/footprint"
	"github.com/OpenTraceLab/OpenTracePool/pkg/ident"
	"github.com/OpenTraceLab/OpenTracePool/pkg/padstack"
)

// Memory is an in-memory pool useful during tests or when the caller
// preloads a fixed set of templates.
type Memory struct {
	mu        sync.RWMutex
	padstacks map[ident.ID]*padstack.Padstack
	packages  map[ident.ID]*footprint.Package
}

// NewMemory creates an empty pool.
func NewMemory() *Memory {
	return &Memory{
		padstacks: make(map[ident.ID]*padstack.Padstack),
		packages:  make(map[ident.ID]*footprint.Package),
	}
}

// AddPadstack registers ps, replacing any padstack with the same id.
func (m *Memory) AddPadstack(ps *padstack.Padstack) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.padstacks[ps.UUID] = ps
}

// AddPackage registers p, replacing any package with the same id.
func (m *Memory) AddPackage(p *footprint.Package) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.packages[p.UUID] = p
}

// GetPadstack implements footprint.Pool. The result is a private copy.
func (m *Memory) GetPadstack(id ident.ID) (*padstack.Padstack, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if ps, ok := m.padstacks[id]; ok {
		return ps.Clone(), nil
	}
	return nil, notFound("padstack", id)
}

// GetPackage implements footprint.Pool. Packages are shared, not copied.
func (m *Memory) GetPackage(id ident.ID) (*footprint.Package, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.packages[id]; ok {
		return p, nil
	}
	return nil, notFound("package", id)
}

// PadstackIDs returns the padstack ids in ascending order.
func (m *Memory) PadstackIDs() []ident.ID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ident.SortedKeys(m.padstacks)
}

// PackageIDs returns the package ids in ascending order.
func (m *Memory) PackageIDs() []ident.ID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ident.SortedKeys(m.packages)
}

// LoadPadstackFiles parses the given padstack documents and adds them.
func (m *Memory) LoadPadstackFiles(paths ...string) error {
	for _, path := range paths {
		ps, err := padstack.Load(path)
		if err != nil {
			return fmt.Errorf("pool: %w", err)
		}
		m.AddPadstack(ps)
	}
	return nil
}
