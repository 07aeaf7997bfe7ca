package services_test

import (
	"context"
	"testing"

	"github.com/comptrack/comptrack-backend/internal/data/repos"
	"github.com/comptrack/comptrack-backend/internal/data/repos/testutil"
	"github.com/comptrack/comptrack-backend/internal/ingest"
	"github.com/comptrack/comptrack-backend/internal/platform/dbctx"
	"github.com/comptrack/comptrack-backend/internal/realtime/bus"
	"github.com/comptrack/comptrack-backend/internal/services"
)

func newUploadFixture(t *testing.T) (*services.UploadService, repos.UploadedFileRepo, repos.ActivityRepo, repos.ComponentRepo) {
	t.Helper()
	db := testutil.FreshDB(t)
	log := testutil.Logger(t)

	notifier := services.NewNotifier(log, bus.NewInprocBus(log))
	componentRepo := repos.NewComponentRepo(db, log)
	towerRepo := repos.NewTowerRepo(db, log)
	activityRepo := repos.NewActivityRepo(db, log)
	fileRepo := repos.NewUploadedFileRepo(db, log)

	activityService := services.NewActivityService(log, activityRepo, notifier)
	reconciler := ingest.NewReconciler(db, log, componentRepo, towerRepo, 0)
	ingestService := ingest.NewService(log, reconciler, notifier, 0)
	return services.NewUploadService(log, ingestService, fileRepo, activityService), fileRepo, activityRepo, componentRepo
}

func TestUploadCommitRecordsLedgerAndAudit(t *testing.T) {
	svc, files, activities, components := newUploadFixture(t)
	ctx := context.Background()

	payload := []byte("componentId,name,tower,owner\nCOMP-U0000001,Alpha,Payments,Core\nCOMP-U0000002,Beta,Payments,Core\n")
	result, err := svc.Commit(ctx, payload, "batch.csv", "text/csv", nil)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if result.Created != 2 {
		t.Errorf("created = %d, want 2", result.Created)
	}

	dbc := dbctx.Context{Ctx: ctx}
	rows, err := files.List(dbc, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("uploaded_file rows = %d, want 1", len(rows))
	}
	row := rows[0]
	if row.Filename != "batch.csv" || row.TotalRows != 2 || row.Created != 2 || row.FailedRows != 0 {
		t.Errorf("ledger row = %+v", row)
	}
	if row.SizeBytes != int64(len(payload)) {
		t.Errorf("SizeBytes = %d, want %d", row.SizeBytes, len(payload))
	}

	acts, err := activities.ListRecent(dbc, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(acts) != 1 || acts[0].ActionType != "file_uploaded" {
		t.Errorf("activities = %v, want one file_uploaded", acts)
	}

	n, _ := components.Count(dbc)
	if n != 2 {
		t.Errorf("store has %d components, want 2", n)
	}
}

func TestUploadCommitFatalDecodeLeavesNoLedgerRow(t *testing.T) {
	svc, files, activities, components := newUploadFixture(t)
	ctx := context.Background()

	_, err := svc.Commit(ctx, []byte(`{"broken`), "batch.json", "application/json", nil)
	if !ingest.IsFatalDecode(err) {
		t.Fatalf("err = %v, want fatal decode", err)
	}

	dbc := dbctx.Context{Ctx: ctx}
	if rows, _ := files.List(dbc, 10); len(rows) != 0 {
		t.Errorf("uploaded_file rows = %d, want 0 after fatal decode", len(rows))
	}
	if acts, _ := activities.ListRecent(dbc, 10); len(acts) != 0 {
		t.Errorf("activities = %d, want 0 after fatal decode", len(acts))
	}
	if n, _ := components.Count(dbc); n != 0 {
		t.Errorf("components = %d, want 0 after fatal decode", n)
	}
}

func TestUploadPreviewPersistsNothing(t *testing.T) {
	svc, files, _, components := newUploadFixture(t)
	ctx := context.Background()

	payload := []byte("name,tower,owner\nAlpha,Payments,Core\n")
	result, err := svc.Preview(ctx, payload, "batch.csv", "text/csv")
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if result.TotalRows != 1 || len(result.Records) != 1 {
		t.Errorf("preview = %+v", result)
	}

	dbc := dbctx.Context{Ctx: ctx}
	if n, _ := components.Count(dbc); n != 0 {
		t.Errorf("preview persisted %d components", n)
	}
	if rows, _ := files.List(dbc, 10); len(rows) != 0 {
		t.Errorf("preview recorded %d uploads", len(rows))
	}
}
