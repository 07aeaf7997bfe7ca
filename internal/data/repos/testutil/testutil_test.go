package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"

	types "github.com/comptrack/comptrack-backend/internal/domain"
)

// The full schema must migrate and accept inserts on the sqlite test driver.
// The models carry no database-side column defaults that sqlite cannot parse;
// IDs and timestamps are set by the code that creates the rows.
func TestFreshDBMigratesFullSchema(t *testing.T) {
	db := FreshDB(t)
	ctx := context.Background()
	tx := Tx(t, db)

	user := SeedUser(t, ctx, tx, "schema@example.com")
	tower := SeedTower(t, ctx, tx, "Schema Tower")
	comp := SeedComponent(t, ctx, tx, tower.ID, "Schema Component")

	act := &types.Activity{
		ID:          uuid.New(),
		UserID:      &user.ID,
		ComponentID: &comp.ID,
		ActionType:  "component_created",
	}
	if err := tx.WithContext(ctx).Create(act).Error; err != nil {
		t.Fatalf("insert activity: %v", err)
	}

	file := &types.UploadedFile{
		ID:        uuid.New(),
		Filename:  "schema.csv",
		TotalRows: 1,
		Created:   1,
	}
	if err := tx.WithContext(ctx).Create(file).Error; err != nil {
		t.Fatalf("insert uploaded file: %v", err)
	}

	var count int64
	if err := tx.WithContext(ctx).Model(&types.Component{}).Count(&count).Error; err != nil {
		t.Fatalf("count components: %v", err)
	}
	if count != 1 {
		t.Fatalf("component count = %d, want 1", count)
	}
}

func TestFreshDBIsolatesDatabases(t *testing.T) {
	ctx := context.Background()

	first := FreshDB(t)
	tower := SeedTower(t, ctx, first, "Only In First")

	second := FreshDB(t)
	var count int64
	if err := second.WithContext(ctx).Model(&types.Tower{}).Where("id = ?", tower.ID).Count(&count).Error; err != nil {
		t.Fatalf("count towers: %v", err)
	}
	if count != 0 {
		t.Fatalf("tower leaked into a fresh database")
	}
}
