package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/comptrack/comptrack-backend/internal/data/repos"
	types "github.com/comptrack/comptrack-backend/internal/domain"
	"github.com/comptrack/comptrack-backend/internal/ingest"
	"github.com/comptrack/comptrack-backend/internal/platform/dbctx"
	"github.com/comptrack/comptrack-backend/internal/platform/logger"
)

var ErrComponentNotFound = errors.New("component not found")

// ComponentInput is the write shape for manual CRUD. Status and complexity
// go through the same normalization the upload pipeline uses, so hand-typed
// values get the same tolerance as spreadsheet cells.
type ComponentInput struct {
	ExternalKey   string `json:"external_key"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	TowerName     string `json:"tower_name"`
	AppGroup      string `json:"app_group"`
	ComponentType string `json:"component_type"`
	Status        string `json:"status"`
	Complexity    string `json:"complexity"`
	ChangeType    string `json:"change_type"`
	Month         int    `json:"month"`
	Year          int    `json:"year"`
	ReleaseDate   string `json:"release_date"`
}

type ComponentService interface {
	Create(ctx context.Context, in ComponentInput, actor *uuid.UUID) (*types.Component, error)
	Update(ctx context.Context, id uuid.UUID, in ComponentInput, actor *uuid.UUID) (*types.Component, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Component, error)
	List(ctx context.Context, filter repos.ComponentFilter) ([]*types.Component, error)
	Delete(ctx context.Context, id uuid.UUID, actor *uuid.UUID) error
	ExportCSV(ctx context.Context, w *csv.Writer) (int, error)
}

type componentService struct {
	db         *gorm.DB
	log        *logger.Logger
	components repos.ComponentRepo
	towers     repos.TowerRepo
	activities *ActivityService
	notifier   *Notifier
}

func NewComponentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	components repos.ComponentRepo,
	towers repos.TowerRepo,
	activities *ActivityService,
	notifier *Notifier,
) ComponentService {
	return &componentService{
		db:         db,
		log:        baseLog.With("service", "ComponentService"),
		components: components,
		towers:     towers,
		activities: activities,
		notifier:   notifier,
	}
}

func (s *componentService) Create(ctx context.Context, in ComponentInput, actor *uuid.UUID) (*types.Component, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, errors.New("name is required")
	}

	var created *types.Component
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		towerName := strings.TrimSpace(in.TowerName)
		if towerName == "" {
			towerName = ingest.DefaultTowerName
		}
		tower, _, err := s.towers.GetOrCreateByName(dbc, towerName, "", "")
		if err != nil {
			return err
		}

		key := strings.TrimSpace(in.ExternalKey)
		if key == "" {
			key = ingest.GenerateExternalKey()
		}

		comp := &types.Component{
			ID:          uuid.New(),
			ExternalKey: key,
			TowerID:     tower.ID,
			CreatedByID: actor,
		}
		applyInput(comp, in)

		if _, err := s.components.Create(dbc, []*types.Component{comp}); err != nil {
			return err
		}
		created = comp
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activities.Log(ctx, actor, &created.ID, "component_created", map[string]any{
		"name": created.Name, "external_key": created.ExternalKey,
	})
	s.notifier.ComponentChanged(ctx, "created", map[string]any{
		"id": created.ID, "name": created.Name, "external_key": created.ExternalKey,
	})
	return created, nil
}

func (s *componentService) Update(ctx context.Context, id uuid.UUID, in ComponentInput, actor *uuid.UUID) (*types.Component, error) {
	var updated *types.Component
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		comp, err := s.components.GetByID(dbc, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrComponentNotFound
		}
		if err != nil {
			return err
		}

		if strings.TrimSpace(in.TowerName) != "" {
			tower, _, err := s.towers.GetOrCreateByName(dbc, strings.TrimSpace(in.TowerName), "", "")
			if err != nil {
				return err
			}
			comp.TowerID = tower.ID
		}
		applyInput(comp, in)

		if err := s.components.Update(dbc, comp); err != nil {
			return err
		}
		updated = comp
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activities.Log(ctx, actor, &updated.ID, "component_updated", map[string]any{
		"name": updated.Name, "external_key": updated.ExternalKey,
	})
	s.notifier.ComponentChanged(ctx, "updated", map[string]any{
		"id": updated.ID, "name": updated.Name, "external_key": updated.ExternalKey,
	})
	return updated, nil
}

func (s *componentService) Get(ctx context.Context, id uuid.UUID) (*types.Component, error) {
	comp, err := s.components.GetByID(dbctx.Context{Ctx: ctx}, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrComponentNotFound
	}
	return comp, err
}

func (s *componentService) List(ctx context.Context, filter repos.ComponentFilter) ([]*types.Component, error) {
	return s.components.List(dbctx.Context{Ctx: ctx}, filter)
}

func (s *componentService) Delete(ctx context.Context, id uuid.UUID, actor *uuid.UUID) error {
	dbc := dbctx.Context{Ctx: ctx}
	comp, err := s.components.GetByID(dbc, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrComponentNotFound
	}
	if err != nil {
		return err
	}
	if err := s.components.Delete(dbc, id); err != nil {
		return err
	}

	s.activities.Log(ctx, actor, nil, "component_deleted", map[string]any{
		"name": comp.Name, "external_key": comp.ExternalKey,
	})
	s.notifier.ComponentChanged(ctx, "deleted", map[string]any{
		"id": comp.ID, "name": comp.Name, "external_key": comp.ExternalKey,
	})
	return nil
}

var exportHeader = []string{
	"external_key", "name", "description", "tower", "app_group",
	"component_type", "status", "complexity", "change_type",
	"month", "year", "release_date", "updated_at",
}

// ExportCSV streams every component as CSV and returns the row count.
func (s *componentService) ExportCSV(ctx context.Context, w *csv.Writer) (int, error) {
	comps, err := s.components.List(dbctx.Context{Ctx: ctx}, repos.ComponentFilter{})
	if err != nil {
		return 0, err
	}
	if err := w.Write(exportHeader); err != nil {
		return 0, err
	}
	for _, c := range comps {
		towerName := ""
		if c.Tower != nil {
			towerName = c.Tower.Name
		}
		releaseDate := ""
		if c.ReleaseDate != nil {
			releaseDate = c.ReleaseDate.Format("2006-01-02")
		}
		row := []string{
			c.ExternalKey, c.Name, c.Description, towerName, c.AppGroup,
			c.ComponentType, c.Status, c.Complexity, c.ChangeType,
			strconv.Itoa(c.Month), strconv.Itoa(c.Year),
			releaseDate, c.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if err := w.Write(row); err != nil {
			return 0, fmt.Errorf("write row for %s: %w", c.ExternalKey, err)
		}
	}
	w.Flush()
	return len(comps), w.Error()
}

func applyInput(comp *types.Component, in ComponentInput) {
	if strings.TrimSpace(in.Name) != "" {
		comp.Name = strings.TrimSpace(in.Name)
	}
	if in.Description != "" {
		comp.Description = in.Description
	}
	if strings.TrimSpace(in.AppGroup) != "" {
		comp.AppGroup = strings.TrimSpace(in.AppGroup)
	} else if comp.AppGroup == "" {
		comp.AppGroup = ingest.DefaultAppGroup
	}
	if strings.TrimSpace(in.ComponentType) != "" {
		comp.ComponentType = strings.TrimSpace(in.ComponentType)
	} else if comp.ComponentType == "" {
		comp.ComponentType = ingest.DefaultComponentType
	}

	status, _ := ingest.NormalizeStatus(in.Status)
	if in.Status != "" || comp.Status == "" {
		comp.Status = status
	}
	complexity, _ := ingest.NormalizeComplexity(in.Complexity)
	if in.Complexity != "" || comp.Complexity == "" {
		comp.Complexity = complexity
	}

	if strings.TrimSpace(in.ChangeType) != "" {
		comp.ChangeType = strings.TrimSpace(in.ChangeType)
	} else if comp.ChangeType == "" {
		comp.ChangeType = ingest.DefaultChangeType
	}

	if in.Month >= 1 && in.Month <= 12 {
		comp.Month = in.Month
	}
	if in.Year >= ingest.MinYear && in.Year <= ingest.MaxYear {
		comp.Year = in.Year
	}
	if date := ingest.NormalizeDate(in.ReleaseDate, ingest.DateFormats); date != nil {
		comp.ReleaseDate = date
	}
}
