package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/comptrack/comptrack-backend/internal/data/repos"
	types "github.com/comptrack/comptrack-backend/internal/domain"
	"github.com/comptrack/comptrack-backend/internal/ingest"
	"github.com/comptrack/comptrack-backend/internal/platform/dbctx"
	"github.com/comptrack/comptrack-backend/internal/platform/logger"
)

// UploadService wraps the ingestion pipeline with the bookkeeping around
// it: the uploaded_file ledger row and the audit entry for the commit.
type UploadService struct {
	log        *logger.Logger
	ingest     *ingest.Service
	files      repos.UploadedFileRepo
	activities *ActivityService
}

func NewUploadService(
	baseLog *logger.Logger,
	ingestSvc *ingest.Service,
	files repos.UploadedFileRepo,
	activities *ActivityService,
) *UploadService {
	return &UploadService{
		log:        baseLog.With("service", "UploadService"),
		ingest:     ingestSvc,
		files:      files,
		activities: activities,
	}
}

// Preview decodes and validates without touching the store.
func (s *UploadService) Preview(ctx context.Context, payload []byte, filename, contentType string) (*ingest.PreviewResult, error) {
	format := ingest.DetectFormat(filename, contentType)
	return s.ingest.Preview(ctx, payload, format)
}

// Commit runs the full pipeline, then records the upload. Fatal errors
// (oversized payload, undecodable file) leave no trace in the store.
func (s *UploadService) Commit(ctx context.Context, payload []byte, filename, contentType string, actor *uuid.UUID) (*ingest.BatchResult, error) {
	format := ingest.DetectFormat(filename, contentType)
	result, err := s.ingest.Ingest(ctx, payload, format, filename, actor)
	if err != nil {
		return nil, err
	}

	row := &types.UploadedFile{
		ID:          uuid.New(),
		Filename:    filename,
		ContentType: contentType,
		SizeBytes:   int64(len(payload)),
		TotalRows:   result.TotalRows,
		Created:     result.Created,
		Updated:     result.Updated,
		FailedRows:  len(result.Errors),
		UploadedBy:  actor,
	}
	if _, err := s.files.Create(dbctx.Context{Ctx: ctx}, []*types.UploadedFile{row}); err != nil {
		// The batch itself committed; losing the ledger row is not fatal.
		s.log.Warn("record uploaded file failed", "filename", filename, "error", err)
	}

	s.activities.Log(ctx, actor, nil, "file_uploaded", map[string]any{
		"filename": filename,
		"created":  result.Created,
		"updated":  result.Updated,
		"failed":   len(result.Errors),
	})
	return result, nil
}

// History lists recent committed uploads.
func (s *UploadService) History(ctx context.Context, limit int) ([]*types.UploadedFile, error) {
	return s.files.List(dbctx.Context{Ctx: ctx}, limit)
}
