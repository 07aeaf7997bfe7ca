package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/comptrack/comptrack-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:       uuid.New(),
		Name:     "Test User",
		Email:    email,
		Password: "pw",
		Role:     "user",
		IsActive: true,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedTower(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Tower {
	tb.Helper()
	tw := &types.Tower{
		ID:        uuid.New(),
		Name:      name,
		Ownership: "Test Team",
	}
	if err := tx.WithContext(ctx).Create(tw).Error; err != nil {
		tb.Fatalf("seed tower: %v", err)
	}
	return tw
}

func SeedComponent(tb testing.TB, ctx context.Context, tx *gorm.DB, towerID uuid.UUID, key string) *types.Component {
	tb.Helper()
	c := &types.Component{
		ID:            uuid.New(),
		ExternalKey:   key,
		Name:          "Component " + key,
		TowerID:       towerID,
		AppGroup:      "Test Team",
		ComponentType: "Service",
		Status:        types.StatusPlanned,
		Complexity:    types.ComplexityMedium,
		ChangeType:    "New",
		Month:         6,
		Year:          2024,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed component: %v", err)
	}
	return c
}
