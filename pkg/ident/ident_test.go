package ident

import "testing"

func TestSortedKeys(t *testing.T) {
	a := MustParse("00000000-0000-0000-0000-000000000001")
	b := MustParse("00000000-0000-0000-0000-000000000002")
	c := MustParse("f0000000-0000-0000-0000-000000000000")

	m := map[ID]int{c: 3, a: 1, b: 2}
	keys := SortedKeys(m)
	if len(keys) != 3 {
		t.Fatalf("expected 3 keys, got %d", len(keys))
	}
	if keys[0] != a || keys[1] != b || keys[2] != c {
		t.Errorf("keys not sorted: %v", keys)
	}
}

func TestFromKeyDeterministic(t *testing.T) {
	if FromKey("smd rect 1 2") != FromKey("smd rect 1 2") {
		t.Error("FromKey should be deterministic")
	}
	if FromKey("a") == FromKey("b") {
		t.Error("different keys should give different ids")
	}
}

func TestCompare(t *testing.T) {
	a := MustParse("00000000-0000-0000-0000-000000000001")
	if Compare(a, a) != 0 {
		t.Error("id should compare equal to itself")
	}
	if Compare(Nil, a) >= 0 {
		t.Error("Nil should sort first")
	}
}
