// Package ident provides the identifier type used as the key of every pool
// entity and every cross-reference between entities.
package ident

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
)

// ID is a 128-bit identifier. The zero value is Nil and means "no reference".
type ID = uuid.UUID

// Nil is the unset identifier.
var Nil = uuid.Nil

// Namespace for deterministic ids minted from content keys.
var Namespace = uuid.MustParse("6b1c0b5e-3f0c-4f5a-9d4e-5a0f2b9c7e11")

// New returns a fresh random identifier.
func New() ID {
	return uuid.New()
}

// FromKey returns the identifier derived from key. The same key always yields
// the same id.
func FromKey(key string) ID {
	return uuid.NewSHA1(Namespace, []byte(key))
}

// Parse parses the canonical string form.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse is like Parse but panics on malformed input. Intended for tests
// and constants.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Compare orders identifiers by their byte representation.
func Compare(a, b ID) int {
	return bytes.Compare(a[:], b[:])
}

// SortedKeys returns the keys of m in ascending identifier order.
func SortedKeys[V any](m map[ID]V) []ID {
	keys := make([]ID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return Compare(keys[i], keys[j]) < 0
	})
	return keys
}
