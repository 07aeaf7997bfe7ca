package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/comptrack/comptrack-backend/internal/domain"
	"github.com/comptrack/comptrack-backend/internal/platform/dbctx"
	"github.com/comptrack/comptrack-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error)
	GetByEmail(dbc dbctx.Context, email string) (*types.User, error)
	List(dbc dbctx.Context) ([]*types.User, error)
	TouchLastActive(dbc dbctx.Context, id uuid.UUID) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *userRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *userRepo) Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error) {
	if len(users) == 0 {
		return []*types.User{}, nil
	}
	if err := r.handle(dbc).Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
	var out types.User
	if err := r.handle(dbc).First(&out, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userRepo) GetByEmail(dbc dbctx.Context, email string) (*types.User, error) {
	var out types.User
	if err := r.handle(dbc).First(&out, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userRepo) List(dbc dbctx.Context) ([]*types.User, error) {
	var out []*types.User
	if err := r.handle(dbc).Order("created_at").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userRepo) TouchLastActive(dbc dbctx.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	return r.handle(dbc).Model(&types.User{}).
		Where("id = ?", id).
		Update("last_active", now).Error
}
