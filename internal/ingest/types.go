package ingest

import (
	"fmt"
	"time"
)

// RawRecord is one decoded row or array element of an uploaded payload.
// Keys are whatever the source file used; values are whatever the decoder
// produced. RawRecords live only for the duration of one ingestion call.
type RawRecord map[string]any

// Record is the canonical component record every raw row is normalized into.
// After ValidateAndFix every field except ExternalKey is non-empty and
// schema-valid; ExternalKey stays empty when the source carried no stable
// identifier and is generated during reconciliation.
type Record struct {
	ExternalKey   string     `json:"external_key"`
	Name          string     `json:"name"`
	TowerName     string     `json:"tower_name"`
	AppGroup      string     `json:"app_group"`
	ComponentType string     `json:"component_type"`
	Status        string     `json:"status"`
	Complexity    string     `json:"complexity"`
	ChangeType    string     `json:"change_type"`
	Month         int        `json:"month"`
	Year          int        `json:"year"`
	Description   string     `json:"description"`
	ReleaseDate   *time.Time `json:"release_date,omitempty"`
	TechStack     string     `json:"tech_stack,omitempty"`
}

// OutcomeKind classifies what reconciliation did with one record.
type OutcomeKind string

const (
	OutcomeCreated OutcomeKind = "created"
	OutcomeUpdated OutcomeKind = "updated"
	OutcomeFailed  OutcomeKind = "failed"
)

// Outcome is the reconciliation result for one input record, reported in
// original input order.
type Outcome struct {
	Row         int         `json:"row"`
	Kind        OutcomeKind `json:"kind"`
	ExternalKey string      `json:"external_key"`
	Reason      string      `json:"reason,omitempty"`
}

// RowMessage is a row-indexed warning or error surfaced to the caller.
type RowMessage struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

func (m RowMessage) String() string {
	return fmt.Sprintf("Row %d: %s", m.Row, m.Message)
}

// BatchResult aggregates one ingestion run. It is assembled once by the
// orchestrator and not mutated after return.
type BatchResult struct {
	TotalRows int          `json:"total_rows"`
	Created   int          `json:"created"`
	Updated   int          `json:"updated"`
	Outcomes  []Outcome    `json:"outcomes"`
	Warnings  []RowMessage `json:"warnings"`
	Errors    []RowMessage `json:"errors"`
}

// PreviewResult is the validation-only pipeline output: the first capped
// batch of canonical records, nothing persisted.
type PreviewResult struct {
	TotalRows   int          `json:"total_rows"`
	PreviewRows int          `json:"preview_rows"`
	Records     []Record     `json:"records"`
	Warnings    []RowMessage `json:"warnings"`
}
