package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format is the declared payload format of an upload.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
	FormatJSON  Format = "json"
)

// FatalDecodeError means the payload could not be parsed as its declared
// format at all. It is the only error class that aborts an ingestion run;
// everything downstream of decoding is fault tolerant.
type FatalDecodeError struct {
	Format Format
	Err    error
}

func (e *FatalDecodeError) Error() string {
	return fmt.Sprintf("cannot decode payload as %s: %v", e.Format, e.Err)
}

func (e *FatalDecodeError) Unwrap() error { return e.Err }

// IsFatalDecode reports whether err is (or wraps) a decode failure.
func IsFatalDecode(err error) bool {
	var fde *FatalDecodeError
	return errors.As(err, &fde)
}

// DetectFormat maps a filename extension (and optionally a MIME type) onto
// a Format. Unknown inputs return "" and the caller rejects the upload.
func DetectFormat(filename, contentType string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV
	case ".xlsx", ".xls":
		return FormatExcel
	case ".json":
		return FormatJSON
	}
	switch contentType {
	case "text/csv":
		return FormatCSV
	case "application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return FormatExcel
	case "application/json":
		return FormatJSON
	}
	return ""
}

// Decode turns a payload into one RawRecord per row/element. It is the only
// pipeline stage that can fail, and it fails with *FatalDecodeError.
func Decode(payload []byte, format Format) ([]RawRecord, error) {
	switch format {
	case FormatCSV:
		return decodeCSV(payload)
	case FormatExcel:
		return decodeExcel(payload)
	case FormatJSON:
		return decodeJSON(payload)
	default:
		return nil, &FatalDecodeError{Format: format, Err: fmt.Errorf("unsupported format %q", string(format))}
	}
}

func decodeCSV(payload []byte) ([]RawRecord, error) {
	reader := csv.NewReader(bytes.NewReader(payload))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &FatalDecodeError{Format: FormatCSV, Err: err}
	}
	if len(rows) == 0 {
		return []RawRecord{}, nil
	}
	header := rows[0]
	records := make([]RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, rowToRecord(header, row))
	}
	return records, nil
}

func decodeExcel(payload []byte) ([]RawRecord, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, &FatalDecodeError{Format: FormatExcel, Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &FatalDecodeError{Format: FormatExcel, Err: errors.New("workbook has no sheets")}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &FatalDecodeError{Format: FormatExcel, Err: err}
	}
	if len(rows) == 0 {
		return []RawRecord{}, nil
	}
	header := rows[0]
	records := make([]RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, rowToRecord(header, row))
	}
	return records, nil
}

// decodeJSON accepts an array of objects, a single object, or an object
// wrapping the list under a "components" or "data" key.
func decodeJSON(payload []byte) ([]RawRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, &FatalDecodeError{Format: FormatJSON, Err: err}
	}

	var elems []any
	switch t := root.(type) {
	case []any:
		elems = t
	case map[string]any:
		if list, ok := t["components"].([]any); ok {
			elems = list
		} else if list, ok := t["data"].([]any); ok {
			elems = list
		} else {
			elems = []any{t}
		}
	default:
		return nil, &FatalDecodeError{
			Format: FormatJSON,
			Err:    errors.New("expected an array, an object, or an object with a components/data list"),
		}
	}

	records := make([]RawRecord, 0, len(elems))
	for i, elem := range elems {
		obj, ok := elem.(map[string]any)
		if !ok {
			return nil, &FatalDecodeError{
				Format: FormatJSON,
				Err:    fmt.Errorf("element %d is not an object", i),
			}
		}
		records = append(records, RawRecord(obj))
	}
	return records, nil
}

func rowToRecord(header, row []string) RawRecord {
	rec := make(RawRecord, len(header))
	for i, key := range header {
		if i >= len(row) {
			break
		}
		rec[key] = row[i]
	}
	return rec
}
