package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/comptrack/comptrack-backend/internal/data/repos"
	"github.com/comptrack/comptrack-backend/internal/data/repos/testutil"
	types "github.com/comptrack/comptrack-backend/internal/domain"
	"github.com/comptrack/comptrack-backend/internal/platform/dbctx"
)

type captureBroadcaster struct {
	events []ProgressEvent
}

func (c *captureBroadcaster) PublishProgress(_ context.Context, ev ProgressEvent) error {
	c.events = append(c.events, ev)
	return nil
}

func newTestService(t *testing.T) (*Service, repos.ComponentRepo, *captureBroadcaster) {
	t.Helper()
	db := testutil.FreshDB(t)
	log := testutil.Logger(t)
	components := repos.NewComponentRepo(db, log)
	towers := repos.NewTowerRepo(db, log)
	reconciler := NewReconciler(db, log, components, towers, 0)
	bc := &captureBroadcaster{}
	return NewService(log, reconciler, bc, 0), components, bc
}

func TestIngestThreeRowCSV(t *testing.T) {
	svc, components, bc := newTestService(t)
	ctx := context.Background()

	// Row 1 is complete, row 2 is missing its tower and has an unknown
	// status, row 3 carries only a name.
	payload := []byte(strings.Join([]string{
		"componentId,name,tower,owner,status,complexity,month,year",
		"COMP-00000001,Settlement Engine,Payments,Core Payments,Released,High,3,2024",
		"COMP-00000002,Refund API,,Core Payments,donezo,Medium,6,2024",
		",Mystery Service,,,,,,",
	}, "\n"))

	result, err := svc.Ingest(ctx, payload, FormatCSV, "components.csv", nil)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if result.TotalRows != 3 || result.Created != 3 || result.Updated != 0 {
		t.Errorf("counts = total %d created %d updated %d, want 3/3/0",
			result.TotalRows, result.Created, result.Updated)
	}
	if len(result.Errors) != 0 {
		t.Errorf("errors = %v, want none; bad data is fixed, not rejected", result.Errors)
	}

	// Row 2 warns twice: missing tower, unknown status.
	var row2 []string
	for _, w := range result.Warnings {
		if w.Row == 2 {
			row2 = append(row2, w.Message)
		}
	}
	if len(row2) != 2 {
		t.Errorf("row 2 warnings = %v, want exactly 2", row2)
	}

	dbc := dbctx.Context{Ctx: ctx}
	comp, err := components.GetByExternalKey(dbc, "COMP-00000002")
	if err != nil {
		t.Fatalf("get row 2: %v", err)
	}
	if comp.Status != types.StatusPlanned {
		t.Errorf("row 2 status = %q, want default after unknown input", comp.Status)
	}

	// Progress events fire at 0, 50 and 100.
	if len(bc.events) != 3 {
		t.Fatalf("events = %v, want 3", bc.events)
	}
	wantProgress := []int{0, 50, 100}
	for i, ev := range bc.events {
		if ev.Progress != wantProgress[i] {
			t.Errorf("event %d progress = %d, want %d", i, ev.Progress, wantProgress[i])
		}
		if ev.Type != "upload_progress" || ev.Filename != "components.csv" {
			t.Errorf("event %d = %+v", i, ev)
		}
	}
	if bc.events[2].Status != "completed" {
		t.Errorf("final event status = %q, want completed", bc.events[2].Status)
	}
}

func TestIngestIsIdempotentByKey(t *testing.T) {
	svc, components, _ := newTestService(t)
	ctx := context.Background()
	payload := []byte("componentId,name,tower,owner\nCOMP-AAAA0001,Alpha,Payments,Core\nCOMP-AAAA0002,Beta,Payments,Core\n")

	first, err := svc.Ingest(ctx, payload, FormatCSV, "a.csv", nil)
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	second, err := svc.Ingest(ctx, payload, FormatCSV, "a.csv", nil)
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}

	if first.Created != 2 || first.Updated != 0 {
		t.Errorf("first run created/updated = %d/%d, want 2/0", first.Created, first.Updated)
	}
	if second.Created != 0 || second.Updated != 2 {
		t.Errorf("second run created/updated = %d/%d, want 0/2", second.Created, second.Updated)
	}
	n, _ := components.Count(dbctx.Context{Ctx: ctx})
	if n != 2 {
		t.Errorf("store has %d components, want 2", n)
	}
}

func TestIngestFatalDecodeLeavesNoTrace(t *testing.T) {
	svc, components, bc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, []byte(`{"name": `), FormatJSON, "broken.json", nil)
	if !IsFatalDecode(err) {
		t.Fatalf("err = %v, want fatal decode", err)
	}

	n, _ := components.Count(dbctx.Context{Ctx: ctx})
	if n != 0 {
		t.Errorf("store has %d components after fatal decode, want 0", n)
	}
	last := bc.events[len(bc.events)-1]
	if last.Status != "error" {
		t.Errorf("final event status = %q, want error", last.Status)
	}
}

func TestIngestRejectsOversizedPayload(t *testing.T) {
	db := testutil.FreshDB(t)
	log := testutil.Logger(t)
	components := repos.NewComponentRepo(db, log)
	towers := repos.NewTowerRepo(db, log)
	reconciler := NewReconciler(db, log, components, towers, 0)
	svc := NewService(log, reconciler, nil, 16)

	_, err := svc.Ingest(context.Background(), []byte(strings.Repeat("x", 17)), FormatCSV, "big.csv", nil)
	var tooLarge *ErrPayloadTooLarge
	if !errors.As(err, &tooLarge) {
		t.Fatalf("err = %v, want ErrPayloadTooLarge", err)
	}
	if tooLarge.Size != 17 || tooLarge.Limit != 16 {
		t.Errorf("error = %+v, want size 17 limit 16", tooLarge)
	}
}

func TestIngestSkipsEmptyRows(t *testing.T) {
	svc, _, _ := newTestService(t)
	payload := []byte("name,tower,owner,status\nAlpha,Payments,Core,released\n,,,\nBeta,Payments,Core,donezo\n")

	result, err := svc.Ingest(context.Background(), payload, FormatCSV, "gaps.csv", nil)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.Created != 2 {
		t.Errorf("created = %d, want 2 with the blank row dropped", result.Created)
	}

	// Row numbers keep pointing at the source positions, with the dropped
	// blank row still counted: Beta is row 3, not row 2.
	if len(result.Outcomes) != 2 || result.Outcomes[0].Row != 1 || result.Outcomes[1].Row != 3 {
		t.Errorf("outcome rows = %+v, want rows 1 and 3", result.Outcomes)
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Row != 3 {
		t.Errorf("warnings = %+v, want one at row 3 for the unknown status", result.Warnings)
	}
}

func TestPreviewCapsAndPersistsNothing(t *testing.T) {
	svc, components, _ := newTestService(t)
	ctx := context.Background()

	rows := make([]map[string]any, PreviewCap+20)
	for i := range rows {
		rows[i] = map[string]any{
			"componentId": fmt.Sprintf("COMP-%08d", i),
			"name":        fmt.Sprintf("Component %d", i),
			"tower":       "Payments",
			"owner":       "Core",
		}
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		t.Fatal(err)
	}

	result, err := svc.Preview(ctx, payload, FormatJSON)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if result.TotalRows != PreviewCap+20 {
		t.Errorf("TotalRows = %d, want %d", result.TotalRows, PreviewCap+20)
	}
	if result.PreviewRows != PreviewCap || len(result.Records) != PreviewCap {
		t.Errorf("preview returned %d records, want cap %d", len(result.Records), PreviewCap)
	}

	n, _ := components.Count(dbctx.Context{Ctx: ctx})
	if n != 0 {
		t.Errorf("preview persisted %d components, want 0", n)
	}
}
