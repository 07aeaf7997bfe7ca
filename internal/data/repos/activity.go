package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/comptrack/comptrack-backend/internal/domain"
	"github.com/comptrack/comptrack-backend/internal/platform/dbctx"
	"github.com/comptrack/comptrack-backend/internal/platform/logger"
)

type ActivityRepo interface {
	Create(dbc dbctx.Context, rows []*types.Activity) ([]*types.Activity, error)
	ListRecent(dbc dbctx.Context, limit int) ([]*types.Activity, error)
	ListByComponent(dbc dbctx.Context, componentID uuid.UUID, limit int) ([]*types.Activity, error)
}

type activityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRepo {
	return &activityRepo{db: db, log: baseLog.With("repo", "ActivityRepo")}
}

func (r *activityRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *activityRepo) Create(dbc dbctx.Context, rows []*types.Activity) ([]*types.Activity, error) {
	if len(rows) == 0 {
		return []*types.Activity{}, nil
	}
	if err := r.handle(dbc).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *activityRepo) ListRecent(dbc dbctx.Context, limit int) ([]*types.Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []*types.Activity
	if err := r.handle(dbc).Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *activityRepo) ListByComponent(dbc dbctx.Context, componentID uuid.UUID, limit int) ([]*types.Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []*types.Activity
	if err := r.handle(dbc).
		Where("component_id = ?", componentID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
