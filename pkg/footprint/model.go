package footprint

import (
	"encoding/json"
	"fmt"

	"github.com/OpenTraceLab/OpenTracePool/pkg/ident"
)

// Model places a 3D model file relative to the package origin. Offsets are
// nanometres, rotations are angle units.
type Model struct {
	UUID     ident.ID
	Filename string
	X, Y, Z  int64
	Roll     int
	Pitch    int
	Yaw      int
}

type modelDocument struct {
	Filename *string `json:"filename"`
	X        *int64  `json:"x"`
	Y        *int64  `json:"y"`
	Z        *int64  `json:"z"`
	Roll     *int    `json:"roll"`
	Pitch    *int    `json:"pitch"`
	Yaw      *int    `json:"yaw"`
}

// MarshalJSON encodes every field.
func (m *Model) MarshalJSON() ([]byte, error) {
	return json.Marshal(modelDocument{
		Filename: &m.Filename,
		X:        &m.X,
		Y:        &m.Y,
		Z:        &m.Z,
		Roll:     &m.Roll,
		Pitch:    &m.Pitch,
		Yaw:      &m.Yaw,
	})
}

// UnmarshalJSON requires every field to be present.
func (m *Model) UnmarshalJSON(data []byte) error {
	var doc modelDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	switch {
	case doc.Filename == nil:
		return fmt.Errorf("model: missing filename")
	case doc.X == nil, doc.Y == nil, doc.Z == nil:
		return fmt.Errorf("model %s: missing position", *doc.Filename)
	case doc.Roll == nil, doc.Pitch == nil, doc.Yaw == nil:
		return fmt.Errorf("model %s: missing rotation", *doc.Filename)
	}
	*m = Model{
		UUID:     m.UUID,
		Filename: *doc.Filename,
		X:        *doc.X,
		Y:        *doc.Y,
		Z:        *doc.Z,
		Roll:     *doc.Roll,
		Pitch:    *doc.Pitch,
		Yaw:      *doc.Yaw,
	}
	return nil
}
