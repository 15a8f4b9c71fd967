// Package parameter defines the closed set of numeric parameters that drive
// parametric geometry, and sparse parameter sets.
package parameter

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ID identifies one parameter.
type ID int

const (
	Invalid ID = iota
	PadWidth
	PadHeight
	PadDiameter
	SolderMaskExpansion
	PasteMaskContraction
	HoleDiameter
	HoleLength
	CourtyardExpansion
	ViaDiameter
	HoleSolderMaskExpansion
	ViaSolderMaskExpansion
	HoleAnnularRing
	CornerRadius
)

var names = map[ID]string{
	PadWidth:                "pad_width",
	PadHeight:               "pad_height",
	PadDiameter:             "pad_diameter",
	SolderMaskExpansion:     "solder_mask_expansion",
	PasteMaskContraction:    "paste_mask_contraction",
	HoleDiameter:            "hole_diameter",
	HoleLength:              "hole_length",
	CourtyardExpansion:      "courtyard_expansion",
	ViaDiameter:             "via_diameter",
	HoleSolderMaskExpansion: "hole_solder_mask_expansion",
	ViaSolderMaskExpansion:  "via_solder_mask_expansion",
	HoleAnnularRing:         "hole_annular_ring",
	CornerRadius:            "corner_radius",
}

var descriptions = map[ID]string{
	PadWidth:                "Pad width",
	PadHeight:               "Pad height",
	PadDiameter:             "Pad diameter",
	SolderMaskExpansion:     "Solder mask expansion",
	PasteMaskContraction:    "Paste mask contraction",
	HoleDiameter:            "Hole diameter",
	HoleLength:              "Hole length",
	CourtyardExpansion:      "Courtyard expansion",
	ViaDiameter:             "Via diameter",
	HoleSolderMaskExpansion: "Hole solder mask expansion",
	ViaSolderMaskExpansion:  "Via solder mask expansion",
	HoleAnnularRing:         "Hole annular ring",
	CornerRadius:            "Corner radius",
}

var byName = func() map[string]ID {
	m := make(map[string]ID, len(names))
	for id, n := range names {
		m[n] = id
	}
	return m
}()

// String returns the machine name, or "invalid".
func (id ID) String() string {
	if n, ok := names[id]; ok {
		return n
	}
	return "invalid"
}

// Description returns the human-readable name.
func (id ID) Description() string {
	if d, ok := descriptions[id]; ok {
		return d
	}
	return "Invalid"
}

// Valid reports whether id is a member of the enumeration.
func (id ID) Valid() bool {
	_, ok := names[id]
	return ok
}

// MarshalText encodes the machine name.
func (id ID) MarshalText() ([]byte, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("parameter: invalid id %d", int(id))
	}
	return []byte(id.String()), nil
}

// UnmarshalText decodes a machine name.
func (id *ID) UnmarshalText(text []byte) error {
	v := IDFromName(string(text))
	if v == Invalid {
		return fmt.Errorf("parameter: unknown name %q", text)
	}
	*id = v
	return nil
}

// IDFromName maps a machine name to its ID, or Invalid.
func IDFromName(name string) ID {
	if id, ok := byName[name]; ok {
		return id
	}
	return Invalid
}

// All returns every valid ID in ascending order.
func All() []ID {
	ids := make([]ID, 0, len(names))
	for id := range names {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Set is a sparse mapping from parameter to value in nanometres. A missing
// entry means "use the default".
type Set map[ID]int64

// Clone returns an independent copy.
func (s Set) Clone() Set {
	c := make(Set, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}

// Has reports whether id is present.
func (s Set) Has(id ID) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the present ids in ascending order.
func (s Set) IDs() []ID {
	ids := make([]ID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Copy copies each of ids from src into dst when src has it. Ids absent from
// src leave dst untouched.
func Copy(dst, src Set, ids ...ID) {
	for _, id := range ids {
		if v, ok := src[id]; ok {
			dst[id] = v
		}
	}
}

// MarshalJSON encodes the set as an object keyed by machine name.
func (s Set) MarshalJSON() ([]byte, error) {
	m := make(map[string]int64, len(s))
	for id, v := range s {
		if id.Valid() {
			m[id.String()] = v
		}
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes an object keyed by machine name. Unknown names are
// skipped.
func (s *Set) UnmarshalJSON(data []byte) error {
	var m map[string]int64
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parameter set: %w", err)
	}
	out := make(Set, len(m))
	for name, v := range m {
		if id := IDFromName(name); id != Invalid {
			out[id] = v
		}
	}
	*s = out
	return nil
}

// ParseValue parses a length: plain integers are nanometres, an "mm" suffix
// means millimetres ("0.25mm").
func ParseValue(text string) (int64, error) {
	if strings.HasSuffix(text, "mm") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(text, "mm"), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid length %q: %w", text, err)
		}
		return int64(math.Round(f * 1e6)), nil
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid length %q: %w", text, err)
	}
	return v, nil
}

// ParseAssignment parses "name=value" into an ID and value.
func ParseAssignment(text string) (ID, int64, error) {
	name, value, ok := strings.Cut(text, "=")
	if !ok {
		return Invalid, 0, fmt.Errorf("expected name=value, got %q", text)
	}
	id := IDFromName(strings.TrimSpace(name))
	if id == Invalid {
		return Invalid, 0, fmt.Errorf("unknown parameter %q", name)
	}
	v, err := ParseValue(strings.TrimSpace(value))
	if err != nil {
		return Invalid, 0, err
	}
	return id, v, nil
}
