package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/comptrack/comptrack-backend/internal/data/repos"
	types "github.com/comptrack/comptrack-backend/internal/domain"
	"github.com/comptrack/comptrack-backend/internal/platform/dbctx"
	"github.com/comptrack/comptrack-backend/internal/platform/logger"
)

var ErrTowerNotFound = errors.New("tower not found")

type TowerInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Ownership   string `json:"ownership"`
}

type TowerService interface {
	Create(ctx context.Context, in TowerInput, actor *uuid.UUID) (*types.Tower, error)
	Update(ctx context.Context, id uuid.UUID, in TowerInput, actor *uuid.UUID) (*types.Tower, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Tower, error)
	List(ctx context.Context) ([]*types.Tower, error)
	Delete(ctx context.Context, id uuid.UUID, actor *uuid.UUID) error
}

type towerService struct {
	log        *logger.Logger
	towers     repos.TowerRepo
	activities *ActivityService
}

func NewTowerService(baseLog *logger.Logger, towers repos.TowerRepo, activities *ActivityService) TowerService {
	return &towerService{
		log:        baseLog.With("service", "TowerService"),
		towers:     towers,
		activities: activities,
	}
}

func (s *towerService) Create(ctx context.Context, in TowerInput, actor *uuid.UUID) (*types.Tower, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errors.New("name is required")
	}
	dbc := dbctx.Context{Ctx: ctx}
	tower, created, err := s.towers.GetOrCreateByName(dbc, name, in.Description, in.Ownership)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, errors.New("tower already exists")
	}
	s.activities.Log(ctx, actor, nil, "tower_created", map[string]any{"name": tower.Name})
	return tower, nil
}

func (s *towerService) Update(ctx context.Context, id uuid.UUID, in TowerInput, actor *uuid.UUID) (*types.Tower, error) {
	dbc := dbctx.Context{Ctx: ctx}
	tower, err := s.towers.GetByID(dbc, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTowerNotFound
	}
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) != "" {
		tower.Name = strings.TrimSpace(in.Name)
	}
	if in.Description != "" {
		tower.Description = in.Description
	}
	if in.Ownership != "" {
		tower.Ownership = in.Ownership
	}
	if err := s.towers.Update(dbc, tower); err != nil {
		return nil, err
	}
	s.activities.Log(ctx, actor, nil, "tower_updated", map[string]any{"name": tower.Name})
	return tower, nil
}

func (s *towerService) Get(ctx context.Context, id uuid.UUID) (*types.Tower, error) {
	tower, err := s.towers.GetByID(dbctx.Context{Ctx: ctx}, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTowerNotFound
	}
	return tower, err
}

func (s *towerService) List(ctx context.Context) ([]*types.Tower, error) {
	return s.towers.List(dbctx.Context{Ctx: ctx})
}

func (s *towerService) Delete(ctx context.Context, id uuid.UUID, actor *uuid.UUID) error {
	dbc := dbctx.Context{Ctx: ctx}
	tower, err := s.towers.GetByID(dbc, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrTowerNotFound
	}
	if err != nil {
		return err
	}
	if err := s.towers.Delete(dbc, id); err != nil {
		return err
	}
	s.activities.Log(ctx, actor, nil, "tower_deleted", map[string]any{"name": tower.Name})
	return nil
}
