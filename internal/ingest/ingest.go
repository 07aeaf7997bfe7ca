package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/comptrack/comptrack-backend/internal/platform/logger"
)

// PreviewCap bounds how many canonical records a preview returns.
const PreviewCap = 100

// DefaultMaxPayloadBytes rejects oversized uploads before decoding begins.
const DefaultMaxPayloadBytes = 10 << 20

// ProgressEvent is the upload progress message pushed to connected clients.
type ProgressEvent struct {
	Type      string `json:"type"`
	Filename  string `json:"filename"`
	Progress  int    `json:"progress"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Broadcaster is the realtime collaborator the orchestrator emits progress
// to. Emission is best-effort: a failing broadcaster never aborts a run.
type Broadcaster interface {
	PublishProgress(ctx context.Context, ev ProgressEvent) error
}

// Service drives one upload end-to-end: decode, validate, reconcile,
// summarize. Each call is scoped to its request; the record store is the
// only shared state and is only touched inside the reconciler's
// transactions.
type Service struct {
	log         *logger.Logger
	reconciler  *Reconciler
	broadcaster Broadcaster
	maxBytes    int64
}

func NewService(baseLog *logger.Logger, reconciler *Reconciler, broadcaster Broadcaster, maxBytes int64) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxPayloadBytes
	}
	return &Service{
		log:         baseLog.With("service", "IngestService"),
		reconciler:  reconciler,
		broadcaster: broadcaster,
		maxBytes:    maxBytes,
	}
}

// ErrPayloadTooLarge is returned before any decoding happens.
type ErrPayloadTooLarge struct {
	Size, Limit int64
}

func (e *ErrPayloadTooLarge) Error() string {
	return fmt.Sprintf("payload of %d bytes exceeds the %d byte limit", e.Size, e.Limit)
}

// Ingest runs the full pipeline and commits the batch. The only error it
// can return is a fatal one (*ErrPayloadTooLarge or *FatalDecodeError);
// every per-row problem comes back as data inside the BatchResult.
func (s *Service) Ingest(ctx context.Context, payload []byte, format Format, filename string, actor *uuid.UUID) (*BatchResult, error) {
	if int64(len(payload)) > s.maxBytes {
		return nil, &ErrPayloadTooLarge{Size: int64(len(payload)), Limit: s.maxBytes}
	}

	s.emit(ctx, filename, 0, "processing")

	raws, err := Decode(payload, format)
	if err != nil {
		s.emit(ctx, filename, 0, "error")
		return nil, err
	}

	records, warnings, rows := s.validateAll(raws)
	s.emit(ctx, filename, 50, "processing")

	outcomes := s.reconciler.Reconcile(ctx, records, actor)
	for i := range outcomes {
		outcomes[i].Row = rows[i]
	}

	result := assemble(len(raws), outcomes, warnings)
	s.emit(ctx, filename, 100, "completed")

	s.log.Info("ingestion finished",
		"filename", filename,
		"total_rows", result.TotalRows,
		"created", result.Created,
		"updated", result.Updated,
		"failed", len(result.Errors),
		"warnings", len(result.Warnings),
	)
	return result, nil
}

// Preview runs decode + validate only, capped at PreviewCap records, and
// persists nothing. Used for human review before committing an upload.
func (s *Service) Preview(ctx context.Context, payload []byte, format Format) (*PreviewResult, error) {
	if int64(len(payload)) > s.maxBytes {
		return nil, &ErrPayloadTooLarge{Size: int64(len(payload)), Limit: s.maxBytes}
	}

	raws, err := Decode(payload, format)
	if err != nil {
		return nil, err
	}

	capped := raws
	if len(capped) > PreviewCap {
		capped = capped[:PreviewCap]
	}

	records, warnings, _ := s.validateAll(capped)
	return &PreviewResult{
		TotalRows:   len(raws),
		PreviewRows: len(records),
		Records:     records,
		Warnings:    warnings,
	}, nil
}

// validateAll fixes every non-empty row. Fully empty rows (trailing blank
// spreadsheet lines and the like) are dropped without comment. Row numbers in
// warnings and in the returned positions slice are 1-based raw-input
// positions, so they keep pointing at the source file's rows even when empty
// rows were dropped in between.
func (s *Service) validateAll(raws []RawRecord) ([]Record, []RowMessage, []int) {
	records := make([]Record, 0, len(raws))
	rows := make([]int, 0, len(raws))
	var warnings []RowMessage
	for i, raw := range raws {
		if isEmptyRow(raw) {
			continue
		}
		rec, ws := ValidateAndFix(raw)
		for _, w := range ws {
			warnings = append(warnings, RowMessage{Row: i + 1, Message: w})
		}
		records = append(records, rec)
		rows = append(rows, i + 1)
	}
	return records, warnings, rows
}

func isEmptyRow(raw RawRecord) bool {
	for _, v := range raw {
		if strings.TrimSpace(stringify(v)) != "" {
			return false
		}
	}
	return true
}

func assemble(totalRows int, outcomes []Outcome, warnings []RowMessage) *BatchResult {
	result := &BatchResult{
		TotalRows: totalRows,
		Outcomes:  outcomes,
		Warnings:  warnings,
	}
	for _, out := range outcomes {
		switch out.Kind {
		case OutcomeCreated:
			result.Created++
		case OutcomeUpdated:
			result.Updated++
		case OutcomeFailed:
			result.Errors = append(result.Errors, RowMessage{Row: out.Row, Message: out.Reason})
		}
	}
	return result
}

func (s *Service) emit(ctx context.Context, filename string, progress int, status string) {
	if s.broadcaster == nil {
		return
	}
	ev := ProgressEvent{
		Type:      "upload_progress",
		Filename:  filename,
		Progress:  progress,
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.broadcaster.PublishProgress(ctx, ev); err != nil {
		s.log.Warn("progress broadcast failed", "filename", filename, "error", err)
	}
}
