package repos

import (
	"gorm.io/gorm"

	types "github.com/comptrack/comptrack-backend/internal/domain"
	"github.com/comptrack/comptrack-backend/internal/platform/dbctx"
	"github.com/comptrack/comptrack-backend/internal/platform/logger"
)

type UploadedFileRepo interface {
	Create(dbc dbctx.Context, rows []*types.UploadedFile) ([]*types.UploadedFile, error)
	List(dbc dbctx.Context, limit int) ([]*types.UploadedFile, error)
}

type uploadedFileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUploadedFileRepo(db *gorm.DB, baseLog *logger.Logger) UploadedFileRepo {
	return &uploadedFileRepo{db: db, log: baseLog.With("repo", "UploadedFileRepo")}
}

func (r *uploadedFileRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *uploadedFileRepo) Create(dbc dbctx.Context, rows []*types.UploadedFile) ([]*types.UploadedFile, error) {
	if len(rows) == 0 {
		return []*types.UploadedFile{}, nil
	}
	if err := r.handle(dbc).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *uploadedFileRepo) List(dbc dbctx.Context, limit int) ([]*types.UploadedFile, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []*types.UploadedFile
	if err := r.handle(dbc).Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
