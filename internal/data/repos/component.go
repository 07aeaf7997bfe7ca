package repos

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/comptrack/comptrack-backend/internal/domain"
	"github.com/comptrack/comptrack-backend/internal/platform/dbctx"
	"github.com/comptrack/comptrack-backend/internal/platform/logger"
)

// ComponentFilter narrows List; zero values mean "no filter".
type ComponentFilter struct {
	Search     string
	TowerID    uuid.UUID
	Status     string
	Complexity string
	Year       int
	Month      int
	Limit      int
	Offset     int
}

// StatusCount is one bucket of a group-by rollup.
type StatusCount struct {
	Key   string `gorm:"column:key"`
	Count int64  `gorm:"column:count"`
}

// MonthlyCount is one bucket of the release trend rollup.
type MonthlyCount struct {
	Year  int   `gorm:"column:year"`
	Month int   `gorm:"column:month"`
	Count int64 `gorm:"column:count"`
}

type ComponentRepo interface {
	Create(dbc dbctx.Context, comps []*types.Component) ([]*types.Component, error)
	Update(dbc dbctx.Context, comp *types.Component) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Component, error)
	GetByExternalKey(dbc dbctx.Context, key string) (*types.Component, error)
	List(dbc dbctx.Context, filter ComponentFilter) ([]*types.Component, error)
	Count(dbc dbctx.Context) (int64, error)
	Recent(dbc dbctx.Context, limit int) ([]*types.Component, error)
	CountByColumn(dbc dbctx.Context, column string) ([]StatusCount, error)
	CountByTower(dbc dbctx.Context) ([]StatusCount, error)
	MonthlyReleases(dbc dbctx.Context) ([]MonthlyCount, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type componentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewComponentRepo(db *gorm.DB, baseLog *logger.Logger) ComponentRepo {
	return &componentRepo{db: db, log: baseLog.With("repo", "ComponentRepo")}
}

func (r *componentRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *componentRepo) Create(dbc dbctx.Context, comps []*types.Component) ([]*types.Component, error) {
	if len(comps) == 0 {
		return []*types.Component{}, nil
	}
	if err := r.handle(dbc).Create(&comps).Error; err != nil {
		return nil, err
	}
	return comps, nil
}

func (r *componentRepo) Update(dbc dbctx.Context, comp *types.Component) error {
	comp.UpdatedAt = time.Now().UTC()
	return r.handle(dbc).Save(comp).Error
}

func (r *componentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Component, error) {
	var out types.Component
	if err := r.handle(dbc).Preload("Tower").First(&out, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *componentRepo) GetByExternalKey(dbc dbctx.Context, key string) (*types.Component, error) {
	var out types.Component
	err := r.handle(dbc).First(&out, "external_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *componentRepo) List(dbc dbctx.Context, filter ComponentFilter) ([]*types.Component, error) {
	q := r.handle(dbc).Model(&types.Component{}).Preload("Tower")

	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		q = q.Where(
			"LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(external_key) LIKE ? OR LOWER(app_group) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}
	if filter.TowerID != uuid.Nil {
		q = q.Where("tower_id = ?", filter.TowerID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Complexity != "" {
		q = q.Where("complexity = ?", filter.Complexity)
	}
	if filter.Year != 0 {
		q = q.Where("year = ?", filter.Year)
	}
	if filter.Month != 0 {
		q = q.Where("month = ?", filter.Month)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var out []*types.Component
	if err := q.Order("updated_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *componentRepo) Count(dbc dbctx.Context) (int64, error) {
	var n int64
	if err := r.handle(dbc).Model(&types.Component{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *componentRepo) Recent(dbc dbctx.Context, limit int) ([]*types.Component, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []*types.Component
	if err := r.handle(dbc).Preload("Tower").
		Order("updated_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CountByColumn groups components by status or complexity. The column name is
// restricted to a fixed allowlist since it is interpolated into SQL.
func (r *componentRepo) CountByColumn(dbc dbctx.Context, column string) ([]StatusCount, error) {
	switch column {
	case "status", "complexity", "change_type":
	default:
		return nil, errors.New("unsupported rollup column: " + column)
	}
	var out []StatusCount
	if err := r.handle(dbc).Model(&types.Component{}).
		Select(column + " AS key, COUNT(*) AS count").
		Group(column).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *componentRepo) CountByTower(dbc dbctx.Context) ([]StatusCount, error) {
	var out []StatusCount
	if err := r.handle(dbc).Model(&types.Component{}).
		Select("tower.name AS key, COUNT(*) AS count").
		Joins("JOIN tower ON tower.id = component.tower_id").
		Group("tower.name").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *componentRepo) MonthlyReleases(dbc dbctx.Context) ([]MonthlyCount, error) {
	var out []MonthlyCount
	if err := r.handle(dbc).Model(&types.Component{}).
		Select("year, month, COUNT(*) AS count").
		Where("release_date IS NOT NULL").
		Group("year, month").
		Order("year, month").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *componentRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return r.handle(dbc).Delete(&types.Component{}, "id = ?", id).Error
}
