// Package primitive contains the geometric building blocks of packages and
// padstacks, and the weak reference type that links them.
package primitive

import (
	"encoding/json"
	"fmt"

	"github.com/OpenTraceLab/OpenTracePool/pkg/ident"
)

// Ref is a weak reference to an entity owned by some identifier-keyed table.
// Only the identifier is persisted. The pointer is valid for the table it was
// last resolved against; copying the owning aggregate invalidates it and the
// copy must call Resolve against its own table.
type Ref[T any] struct {
	UUID ident.ID
	ptr  *T
}

// RefTo returns a reference to v, known by id.
func RefTo[T any](id ident.ID, v *T) Ref[T] {
	return Ref[T]{UUID: id, ptr: v}
}

// Get returns the resolved target, or nil if the reference is unresolved.
func (r Ref[T]) Get() *T {
	return r.ptr
}

// IsSet reports whether the reference carries a non-nil identifier.
func (r Ref[T]) IsSet() bool {
	return r.UUID != ident.Nil
}

// Resolve points the reference at table[r.UUID]. It reports false, and
// clears the pointer, when the table has no such entry.
func (r *Ref[T]) Resolve(table map[ident.ID]*T) bool {
	v, ok := table[r.UUID]
	if !ok {
		r.ptr = nil
		return false
	}
	r.ptr = v
	return true
}

// MarshalJSON encodes the reference as its identifier string.
func (r Ref[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.UUID.String())
}

// UnmarshalJSON decodes an identifier string. The pointer stays unresolved.
func (r *Ref[T]) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("reference: %w", err)
	}
	id, err := ident.Parse(s)
	if err != nil {
		return fmt.Errorf("reference %q: %w", s, err)
	}
	*r = Ref[T]{UUID: id}
	return nil
}
