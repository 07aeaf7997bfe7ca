package ingest

import (
	"testing"
)

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		filename, contentType string
		want                  Format
	}{
		{"components.csv", "", FormatCSV},
		{"components.XLSX", "", FormatExcel},
		{"components.json", "", FormatJSON},
		{"upload", "text/csv", FormatCSV},
		{"upload", "application/json", FormatJSON},
		{"upload.bin", "application/octet-stream", ""},
	}
	for _, tc := range cases {
		if got := DetectFormat(tc.filename, tc.contentType); got != tc.want {
			t.Errorf("DetectFormat(%q, %q) = %q, want %q", tc.filename, tc.contentType, got, tc.want)
		}
	}
}

func TestDecodeCSV(t *testing.T) {
	payload := []byte("name,tower,status\nAlpha,Payments,Released\nBeta,Data Platform,planning\n")
	records, err := Decode(payload, FormatCSV)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0]["name"] != "Alpha" || records[1]["tower"] != "Data Platform" {
		t.Errorf("unexpected records %v", records)
	}
}

func TestDecodeCSVRaggedRows(t *testing.T) {
	payload := []byte("name,tower\nAlpha\nBeta,Payments,extra\n")
	records, err := Decode(payload, FormatCSV)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if _, ok := records[0]["tower"]; ok {
		t.Error("short row should not carry a tower key")
	}
}

func TestDecodeJSONShapes(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    int
	}{
		{"array", `[{"name":"A"},{"name":"B"}]`, 2},
		{"single object", `{"name":"A"}`, 1},
		{"components wrapper", `{"components":[{"name":"A"}]}`, 1},
		{"data wrapper", `{"data":[{"name":"A"},{"name":"B"},{"name":"C"}]}`, 3},
	}
	for _, tc := range cases {
		records, err := Decode([]byte(tc.payload), FormatJSON)
		if err != nil {
			t.Errorf("%s: Decode: %v", tc.name, err)
			continue
		}
		if len(records) != tc.want {
			t.Errorf("%s: got %d records, want %d", tc.name, len(records), tc.want)
		}
	}
}

func TestDecodeJSONNumbersSurvive(t *testing.T) {
	records, err := Decode([]byte(`[{"name":"A","year":2024,"month":3}]`), FormatJSON)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := Extract(records[0], aliasesYear, ""); got != "2024" {
		t.Errorf("year extracted as %q, want 2024", got)
	}
}

func TestDecodeInvalidPayloadsAreFatal(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		format  Format
	}{
		{"broken json", `{"name": `, FormatJSON},
		{"scalar json", `42`, FormatJSON},
		{"non-object element", `[1, 2]`, FormatJSON},
		{"not a workbook", "name,tower\n", FormatExcel},
		{"unknown format", "whatever", Format("")},
	}
	for _, tc := range cases {
		_, err := Decode([]byte(tc.payload), tc.format)
		if err == nil {
			t.Errorf("%s: Decode succeeded, want fatal error", tc.name)
			continue
		}
		if !IsFatalDecode(err) {
			t.Errorf("%s: error %v is not a FatalDecodeError", tc.name, err)
		}
	}
}

func TestDecodeEmptyCSV(t *testing.T) {
	records, err := Decode([]byte(""), FormatCSV)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}
