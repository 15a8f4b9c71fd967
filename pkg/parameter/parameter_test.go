package parameter

import (
	"encoding/json"
	"testing"
)

func TestNames(t *testing.T) {
	for _, id := range All() {
		if IDFromName(id.String()) != id {
			t.Errorf("name round trip failed for %d (%s)", id, id)
		}
		if id.Description() == "Invalid" {
			t.Errorf("missing description for %s", id)
		}
	}
	if IDFromName("frobnicate") != Invalid {
		t.Error("unknown name should map to Invalid")
	}
	if Invalid.Valid() || ID(999).Valid() {
		t.Error("Invalid and out-of-range ids must not be valid")
	}
}

func TestSetJSONSkipsUnknown(t *testing.T) {
	var s Set
	err := json.Unmarshal([]byte(`{"courtyard_expansion": 250000, "warp_factor": 9}`), &s)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(s) != 1 || s[CourtyardExpansion] != 250000 {
		t.Errorf("unexpected set %v", s)
	}

	data, err := json.Marshal(Set{SolderMaskExpansion: 50000, ID(999): 1})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"solder_mask_expansion":50000}` {
		t.Errorf("unexpected JSON %s", data)
	}
}

func TestCopy(t *testing.T) {
	dst := Set{PadWidth: 1}
	src := Set{CourtyardExpansion: 5, PadHeight: 7}
	Copy(dst, src, CourtyardExpansion, SolderMaskExpansion)

	if dst[CourtyardExpansion] != 5 {
		t.Error("CourtyardExpansion not copied")
	}
	if dst.Has(SolderMaskExpansion) {
		t.Error("absent id must not be created")
	}
	if dst.Has(PadHeight) {
		t.Error("id outside the list must not be copied")
	}
	if dst[PadWidth] != 1 {
		t.Error("existing entry lost")
	}
}

func TestParseAssignment(t *testing.T) {
	tests := []struct {
		in      string
		id      ID
		value   int64
		wantErr bool
	}{
		{"courtyard_expansion=0.25mm", CourtyardExpansion, 250000, false},
		{"pad_width = 1000", PadWidth, 1000, false},
		{"pad_width=-1.5mm", PadWidth, -1500000, false},
		{"bogus=1", Invalid, 0, true},
		{"pad_width", Invalid, 0, true},
		{"pad_width=abc", Invalid, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			id, v, err := ParseAssignment(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && (id != tt.id || v != tt.value) {
				t.Errorf("got %s=%d, want %s=%d", id, v, tt.id, tt.value)
			}
		})
	}
}
