package repos

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/comptrack/comptrack-backend/internal/domain"
	"github.com/comptrack/comptrack-backend/internal/platform/dbctx"
	"github.com/comptrack/comptrack-backend/internal/platform/logger"
)

type TowerRepo interface {
	Create(dbc dbctx.Context, towers []*types.Tower) ([]*types.Tower, error)
	Update(dbc dbctx.Context, tower *types.Tower) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Tower, error)
	GetByName(dbc dbctx.Context, name string) (*types.Tower, error)
	GetOrCreateByName(dbc dbctx.Context, name, description, ownership string) (*types.Tower, bool, error)
	List(dbc dbctx.Context) ([]*types.Tower, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type towerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTowerRepo(db *gorm.DB, baseLog *logger.Logger) TowerRepo {
	return &towerRepo{db: db, log: baseLog.With("repo", "TowerRepo")}
}

func (r *towerRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *towerRepo) Create(dbc dbctx.Context, towers []*types.Tower) ([]*types.Tower, error) {
	if len(towers) == 0 {
		return []*types.Tower{}, nil
	}
	if err := r.handle(dbc).Create(&towers).Error; err != nil {
		return nil, err
	}
	return towers, nil
}

func (r *towerRepo) Update(dbc dbctx.Context, tower *types.Tower) error {
	return r.handle(dbc).Save(tower).Error
}

func (r *towerRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Tower, error) {
	var out types.Tower
	if err := r.handle(dbc).First(&out, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *towerRepo) GetByName(dbc dbctx.Context, name string) (*types.Tower, error) {
	var out types.Tower
	if err := r.handle(dbc).First(&out, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// GetOrCreateByName returns the existing tower or creates it, reporting
// whether a row was created. Used by upload commits for unseen tower names.
func (r *towerRepo) GetOrCreateByName(dbc dbctx.Context, name, description, ownership string) (*types.Tower, bool, error) {
	existing, err := r.GetByName(dbc, name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	tower := &types.Tower{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Ownership:   ownership,
	}
	if err := r.handle(dbc).Create(tower).Error; err != nil {
		return nil, false, err
	}
	return tower, true, nil
}

func (r *towerRepo) List(dbc dbctx.Context) ([]*types.Tower, error) {
	var out []*types.Tower
	if err := r.handle(dbc).Order("name").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *towerRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return r.handle(dbc).Delete(&types.Tower{}, "id = ?", id).Error
}
