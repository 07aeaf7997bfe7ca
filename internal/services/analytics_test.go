package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/comptrack/comptrack-backend/internal/data/repos"
	"github.com/comptrack/comptrack-backend/internal/data/repos/testutil"
	types "github.com/comptrack/comptrack-backend/internal/domain"
	"github.com/comptrack/comptrack-backend/internal/services"
)

func TestAnalyticsDashboard(t *testing.T) {
	db := testutil.FreshDB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	componentRepo := repos.NewComponentRepo(db, log)
	svc := services.NewAnalyticsService(log, componentRepo)

	// Seed directly; committed rows because the rollups run on separate
	// connections.
	tower := testutil.SeedTower(t, ctx, db, "Payments")
	for i, key := range []string{"COMP-AN000001", "COMP-AN000002", "COMP-AN000003"} {
		comp := testutil.SeedComponent(t, ctx, db, tower.ID, key)
		if i == 0 {
			comp.Status = types.StatusReleased
			date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
			comp.ReleaseDate = &date
			if err := db.WithContext(ctx).Save(comp).Error; err != nil {
				t.Fatal(err)
			}
		}
	}

	stats, err := svc.Dashboard(ctx)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if stats.TotalComponents != 3 {
		t.Errorf("TotalComponents = %d, want 3", stats.TotalComponents)
	}
	byStatus := map[string]int64{}
	for _, c := range stats.ByStatus {
		byStatus[c.Key] = c.Count
	}
	if byStatus[types.StatusPlanned] != 2 || byStatus[types.StatusReleased] != 1 {
		t.Errorf("ByStatus = %v", byStatus)
	}
	if len(stats.ByTower) != 1 || stats.ByTower[0].Count != 3 {
		t.Errorf("ByTower = %v", stats.ByTower)
	}
	if len(stats.MonthlyReleases) != 1 {
		t.Errorf("MonthlyReleases = %v, want one bucket", stats.MonthlyReleases)
	}
	if len(stats.Recent) != 3 {
		t.Errorf("Recent has %d rows, want 3", len(stats.Recent))
	}
}
