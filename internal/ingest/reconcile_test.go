package ingest

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"gorm.io/gorm"

	"github.com/comptrack/comptrack-backend/internal/data/repos"
	"github.com/comptrack/comptrack-backend/internal/data/repos/testutil"
	types "github.com/comptrack/comptrack-backend/internal/domain"
	"github.com/comptrack/comptrack-backend/internal/platform/dbctx"
)

func newTestReconciler(t *testing.T, batchSize int) (*Reconciler, *gorm.DB, repos.ComponentRepo) {
	t.Helper()
	db := testutil.FreshDB(t)
	log := testutil.Logger(t)
	components := repos.NewComponentRepo(db, log)
	towers := repos.NewTowerRepo(db, log)
	return NewReconciler(db, log, components, towers, batchSize), db, components
}

func makeRecords(n int, keyPrefix string) []Record {
	records := make([]Record, n)
	for i := range records {
		records[i] = Record{
			ExternalKey:   fmt.Sprintf("%s-%04d", keyPrefix, i),
			Name:          fmt.Sprintf("Component %d", i),
			TowerName:     "Payments",
			AppGroup:      "Core Payments",
			ComponentType: "Service",
			Status:        types.StatusPlanned,
			Complexity:    types.ComplexityMedium,
			ChangeType:    "New",
			Month:         6,
			Year:          2024,
		}
	}
	return records
}

func TestGenerateExternalKeyFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^COMP-[0-9A-F]{8}$`)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		key := GenerateExternalKey()
		if !pattern.MatchString(key) {
			t.Fatalf("key %q does not match %s", key, pattern)
		}
		if seen[key] {
			t.Fatalf("key %q generated twice", key)
		}
		seen[key] = true
	}
}

func TestReconcileCreatesThenUpdates(t *testing.T) {
	r, _, components := newTestReconciler(t, 0)
	ctx := context.Background()
	records := makeRecords(7, "COMP-A")

	outcomes := r.Reconcile(ctx, records, nil)
	if len(outcomes) != 7 {
		t.Fatalf("got %d outcomes, want 7", len(outcomes))
	}
	for i, out := range outcomes {
		if out.Kind != OutcomeCreated {
			t.Errorf("outcome %d = %s, want created", i, out.Kind)
		}
		if out.Row != i+1 {
			t.Errorf("outcome %d row = %d, want %d", i, out.Row, i+1)
		}
	}

	// Same keys again: every record updates, nothing duplicates.
	for i := range records {
		records[i].Status = types.StatusReleased
	}
	outcomes = r.Reconcile(ctx, records, nil)
	for i, out := range outcomes {
		if out.Kind != OutcomeUpdated {
			t.Errorf("re-ingest outcome %d = %s, want updated", i, out.Kind)
		}
	}

	n, err := components.Count(dbctx.Context{Ctx: ctx})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 7 {
		t.Errorf("store has %d components, want 7", n)
	}
	comp, err := components.GetByExternalKey(dbctx.Context{Ctx: ctx}, "COMP-A-0003")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if comp.Status != types.StatusReleased {
		t.Errorf("status = %q, want updated to %q", comp.Status, types.StatusReleased)
	}
}

func TestReconcileGeneratesMissingKeys(t *testing.T) {
	r, _, components := newTestReconciler(t, 0)
	ctx := context.Background()

	records := makeRecords(2, "COMP-B")
	records[1].ExternalKey = ""

	outcomes := r.Reconcile(ctx, records, nil)
	if outcomes[1].ExternalKey == "" {
		t.Fatal("outcome for keyless record carries no generated key")
	}
	if _, err := components.GetByExternalKey(dbctx.Context{Ctx: ctx}, outcomes[1].ExternalKey); err != nil {
		t.Errorf("generated key %q not found in store: %v", outcomes[1].ExternalKey, err)
	}
}

func TestReconcileAutoCreatesTowers(t *testing.T) {
	r, db, _ := newTestReconciler(t, 0)
	ctx := context.Background()

	records := makeRecords(1, "COMP-C")
	records[0].TowerName = "Brand New Tower"
	r.Reconcile(ctx, records, nil)

	towers := repos.NewTowerRepo(db, testutil.Logger(t))
	tower, err := towers.GetByName(dbctx.Context{Ctx: ctx}, "Brand New Tower")
	if err != nil {
		t.Fatalf("tower not auto-created: %v", err)
	}
	if tower.Ownership != "Auto-Generated" {
		t.Errorf("ownership = %q, want Auto-Generated", tower.Ownership)
	}
}

// flakyComponentRepo fails Create for one poisoned external key so tests
// can observe the chunk rollback and per-record retry path.
type flakyComponentRepo struct {
	repos.ComponentRepo
	poisonKey string
}

func (f *flakyComponentRepo) Create(dbc dbctx.Context, comps []*types.Component) ([]*types.Component, error) {
	for _, c := range comps {
		if c.ExternalKey == f.poisonKey {
			return nil, errors.New("injected store failure")
		}
	}
	return f.ComponentRepo.Create(dbc, comps)
}

func TestReconcilePartialFailureIsolation(t *testing.T) {
	const batchSize = 5
	db := testutil.FreshDB(t)
	log := testutil.Logger(t)
	components := repos.NewComponentRepo(db, log)
	towers := repos.NewTowerRepo(db, log)

	records := makeRecords(batchSize+1, "COMP-D")
	poison := records[2].ExternalKey
	flaky := &flakyComponentRepo{ComponentRepo: components, poisonKey: poison}
	r := NewReconciler(db, log, flaky, towers, batchSize)

	outcomes := r.Reconcile(context.Background(), records, nil)
	if len(outcomes) != batchSize+1 {
		t.Fatalf("got %d outcomes, want %d", len(outcomes), batchSize+1)
	}

	var failed, created int
	for i, out := range outcomes {
		if out.Row != i+1 {
			t.Errorf("outcome %d row = %d, want input order preserved", i, out.Row)
		}
		switch out.Kind {
		case OutcomeFailed:
			failed++
			if out.ExternalKey != poison {
				t.Errorf("failed outcome for %q, want %q", out.ExternalKey, poison)
			}
			if out.Reason == "" {
				t.Error("failed outcome carries no reason")
			}
		case OutcomeCreated:
			created++
		}
	}
	if failed != 1 || created != batchSize {
		t.Fatalf("failed=%d created=%d, want exactly 1 failure and %d creates", failed, created, batchSize)
	}

	// The poisoned row must not exist; its chunk siblings must.
	dbc := dbctx.Context{Ctx: context.Background()}
	if _, err := components.GetByExternalKey(dbc, poison); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("poisoned record lookup = %v, want not found", err)
	}
	n, err := components.Count(dbc)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != int64(batchSize) {
		t.Errorf("store has %d components, want %d", n, batchSize)
	}
}

func TestNormalizeTechStack(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"technologies":["Go"]}`, `{"technologies":["Go"]}`},
		{`["Go","Redis"]`, `["Go","Redis"]`},
		{"Go, Redis", `{"technologies":["Go","Redis"]}`},
		{"Go", `{"technologies":["Go"]}`},
	}
	for _, tc := range cases {
		if got := string(normalizeTechStack(tc.in)); got != tc.want {
			t.Errorf("normalizeTechStack(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}
