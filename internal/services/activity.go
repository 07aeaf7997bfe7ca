package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/comptrack/comptrack-backend/internal/data/repos"
	types "github.com/comptrack/comptrack-backend/internal/domain"
	"github.com/comptrack/comptrack-backend/internal/platform/dbctx"
	"github.com/comptrack/comptrack-backend/internal/platform/logger"
)

// ActivityService records and reads the audit trail. Log is best-effort:
// auditing never fails the caller's operation.
type ActivityService struct {
	log        *logger.Logger
	activities repos.ActivityRepo
	notifier   *Notifier
}

func NewActivityService(baseLog *logger.Logger, activities repos.ActivityRepo, notifier *Notifier) *ActivityService {
	return &ActivityService{
		log:        baseLog.With("service", "ActivityService"),
		activities: activities,
		notifier:   notifier,
	}
}

func (s *ActivityService) Log(ctx context.Context, userID, componentID *uuid.UUID, action string, meta map[string]any) {
	var raw []byte
	if meta != nil {
		var err error
		raw, err = json.Marshal(meta)
		if err != nil {
			s.log.Warn("marshal activity meta failed", "action", action, "error", err)
			raw = nil
		}
	}
	row := &types.Activity{
		ID:          uuid.New(),
		UserID:      userID,
		ComponentID: componentID,
		ActionType:  action,
		Meta:        raw,
	}
	if _, err := s.activities.Create(dbctx.Context{Ctx: ctx}, []*types.Activity{row}); err != nil {
		s.log.Warn("record activity failed", "action", action, "error", err)
		return
	}
	if s.notifier != nil {
		s.notifier.ActivityLogged(ctx, map[string]any{
			"id": row.ID, "action_type": action, "meta": meta,
		})
	}
}

func (s *ActivityService) Recent(ctx context.Context, limit int) ([]*types.Activity, error) {
	return s.activities.ListRecent(dbctx.Context{Ctx: ctx}, limit)
}

func (s *ActivityService) ForComponent(ctx context.Context, componentID uuid.UUID, limit int) ([]*types.Activity, error) {
	return s.activities.ListByComponent(dbctx.Context{Ctx: ctx}, componentID, limit)
}
