package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/comptrack/comptrack-backend/internal/data/repos"
	types "github.com/comptrack/comptrack-backend/internal/domain"
	"github.com/comptrack/comptrack-backend/internal/platform/dbctx"
	"github.com/comptrack/comptrack-backend/internal/platform/logger"
)

// DashboardStats is the aggregate payload behind the overview screen.
type DashboardStats struct {
	TotalComponents int64                `json:"total_components"`
	ByStatus        []repos.StatusCount  `json:"by_status"`
	ByComplexity    []repos.StatusCount  `json:"by_complexity"`
	ByChangeType    []repos.StatusCount  `json:"by_change_type"`
	ByTower         []repos.StatusCount  `json:"by_tower"`
	MonthlyReleases []repos.MonthlyCount `json:"monthly_releases"`
	Recent          []*types.Component   `json:"recent"`
}

type AnalyticsService interface {
	Dashboard(ctx context.Context) (*DashboardStats, error)
}

type analyticsService struct {
	log        *logger.Logger
	components repos.ComponentRepo
}

func NewAnalyticsService(baseLog *logger.Logger, components repos.ComponentRepo) AnalyticsService {
	return &analyticsService{
		log:        baseLog.With("service", "AnalyticsService"),
		components: components,
	}
}

// Dashboard fans the rollup queries out concurrently; any failure cancels
// the rest.
func (s *analyticsService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}

	g, gctx := errgroup.WithContext(ctx)
	dbc := func() dbctx.Context { return dbctx.Context{Ctx: gctx} }

	g.Go(func() error {
		n, err := s.components.Count(dbc())
		stats.TotalComponents = n
		return err
	})
	g.Go(func() error {
		rows, err := s.components.CountByColumn(dbc(), "status")
		stats.ByStatus = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.components.CountByColumn(dbc(), "complexity")
		stats.ByComplexity = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.components.CountByColumn(dbc(), "change_type")
		stats.ByChangeType = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.components.CountByTower(dbc())
		stats.ByTower = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.components.MonthlyReleases(dbc())
		stats.MonthlyReleases = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.components.Recent(dbc(), 10)
		stats.Recent = rows
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
