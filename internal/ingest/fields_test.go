package ingest

import (
	"encoding/json"
	"testing"
)

func TestExtractAliasSpellings(t *testing.T) {
	// The same field arrives under different spellings depending on the
	// source; all of them must resolve to one value.
	cases := []RawRecord{
		{"tower_name": "Payments"},
		{"towerName": "Payments"},
		{"Tower Name": "Payments"},
		{"TOWER": "Payments"},
	}
	for _, rec := range cases {
		if got := Extract(rec, aliasesTower, ""); got != "Payments" {
			t.Errorf("Extract(%v) = %q, want %q", rec, got, "Payments")
		}
	}
}

func TestExtractPriorityOrder(t *testing.T) {
	rec := RawRecord{"id": "fallback", "component_id": "primary"}
	if got := Extract(rec, aliasesExternalKey, ""); got != "primary" {
		t.Errorf("Extract = %q, want componentId alias to win over id", got)
	}
}

func TestExtractSkipsAbsentValues(t *testing.T) {
	rec := RawRecord{"status": "  ", "state": "nan", "phase": nil, "stage": "Released"}
	if got := Extract(rec, aliasesStatus, ""); got != "Released" {
		t.Errorf("Extract = %q, want blank/nan/nil values skipped", got)
	}
}

func TestExtractDefault(t *testing.T) {
	if got := Extract(RawRecord{}, aliasesName, "fallback"); got != "fallback" {
		t.Errorf("Extract on empty record = %q, want default", got)
	}
	if got := Extract(nil, aliasesName, "fallback"); got != "fallback" {
		t.Errorf("Extract on nil record = %q, want default", got)
	}
}

func TestStringifyNumbers(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{2024, "2024"},
		{int64(7), "7"},
		{2024.0, "2024"},
		{3.5, "3.5"},
		{json.Number("2024"), "2024"},
		{true, "true"},
	}
	for _, tc := range cases {
		if got := stringify(tc.in); got != tc.want {
			t.Errorf("stringify(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStringifyNestedJSON(t *testing.T) {
	got := stringify(map[string]any{"technologies": []any{"Go"}})
	if got != `{"technologies":["Go"]}` {
		t.Errorf("stringify(map) = %q", got)
	}
}

func TestFoldKey(t *testing.T) {
	cases := map[string]string{
		"Tower Name":   "towername",
		"tower_name":   "towername",
		"towerName":    "towername",
		" Release-Date": "releasedate",
	}
	for in, want := range cases {
		if got := foldKey(in); got != want {
			t.Errorf("foldKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractCollidingSpellingsAreDeterministic(t *testing.T) {
	rec := RawRecord{"towerName": "Payments", "tower_name": "Lending"}
	for i := 0; i < 50; i++ {
		if got := Extract(rec, aliasesTower, ""); got != "Payments" {
			t.Fatalf("Extract = %q, want the sorted-first spelling to win every run", got)
		}
	}

	// An empty value never shadows a non-empty one under a colliding key.
	rec = RawRecord{"towerName": "", "tower_name": "Lending"}
	if got := Extract(rec, aliasesTower, ""); got != "Lending" {
		t.Errorf("Extract = %q, want the non-empty colliding value", got)
	}
}
