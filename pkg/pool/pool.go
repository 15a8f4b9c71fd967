// Package pool provides the lookup services packages resolve padstacks and
// alternates through: an in-memory pool, a directory pool, a packed bolt
// database and a bleve search index.
package pool

import (
	"errors"
	"fmt"

	"github.com/OpenTraceLab/OpenTracePool/pkg/footprint"
	"github.com/OpenTraceLab/OpenTracePool/pkg/ident"
	"github.com/OpenTraceLab/OpenTracePool/pkg/padstack"
)

// ErrNotFound is returned when a pool has no entry for an id.
var ErrNotFound = errors.New("not found")

// Lister is a pool that can enumerate its contents.
type Lister interface {
	footprint.Pool
	PadstackIDs() []ident.ID
	PackageIDs() []ident.ID
}

func notFound(kind string, id ident.ID) error {
	return fmt.Errorf("pool: %s %s: %w", kind, id, ErrNotFound)
}

// resolver is the pool one lookup hands to footprint loading. visiting holds
// the packages on that lookup's alternate chain.
type resolver struct {
	padstacks func(ident.ID) (*padstack.Padstack, error)
	packages  func(ident.ID, map[ident.ID]bool) (*footprint.Package, error)
	visiting  map[ident.ID]bool
}

func (r *resolver) GetPadstack(id ident.ID) (*padstack.Padstack, error) {
	return r.padstacks(id)
}

func (r *resolver) GetPackage(id ident.ID) (*footprint.Package, error) {
	return r.packages(id, r.visiting)
}

// enter marks id as being loaded on this chain and returns the function that
// clears it again.
func enter(visiting map[ident.ID]bool, id ident.ID) (func(), error) {
	if visiting[id] {
		return nil, fmt.Errorf("pool: package %s: alternate cycle", id)
	}
	visiting[id] = true
	return func() { delete(visiting, id) }, nil
}
