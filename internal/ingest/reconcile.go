package ingest

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/comptrack/comptrack-backend/internal/domain"
	"github.com/comptrack/comptrack-backend/internal/data/repos"
	"github.com/comptrack/comptrack-backend/internal/platform/dbctx"
	"github.com/comptrack/comptrack-backend/internal/platform/logger"
)

// DefaultBatchSize bounds how many records share one transaction.
const DefaultBatchSize = 100

// Reconciler applies canonical records against the component store. Each
// chunk of records runs in one transaction; a chunk that fails to commit is
// rolled back and replayed record-by-record so a single bad row cannot take
// the rest of the chunk down with it.
type Reconciler struct {
	db         *gorm.DB
	log        *logger.Logger
	components repos.ComponentRepo
	towers     repos.TowerRepo
	batchSize  int
}

func NewReconciler(db *gorm.DB, baseLog *logger.Logger, components repos.ComponentRepo, towers repos.TowerRepo, batchSize int) *Reconciler {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Reconciler{
		db:         db,
		log:        baseLog.With("component", "Reconciler"),
		components: components,
		towers:     towers,
		batchSize:  batchSize,
	}
}

// GenerateExternalKey produces a key for records whose source carried none.
// Keys are random, so re-ingesting a keyless source always creates new rows
// instead of updating; updates require a stable identifier in the file.
func GenerateExternalKey() string {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand is effectively infallible; fall back to a uuid anyway.
		return "COMP-" + strings.ToUpper(uuid.New().String()[:8])
	}
	return "COMP-" + strings.ToUpper(hex.EncodeToString(buf[:]))
}

// Reconcile processes records in input order and returns one outcome per
// record, also in input order. Rows are 1-based in outcomes.
func (r *Reconciler) Reconcile(ctx context.Context, records []Record, actor *uuid.UUID) []Outcome {
	outcomes := make([]Outcome, len(records))

	for start := 0; start < len(records); start += r.batchSize {
		end := start + r.batchSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]

		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			dbc := dbctx.Context{Ctx: ctx, Tx: tx}
			for i := range chunk {
				out, err := r.applyOne(dbc, &chunk[i], start+i+1, actor)
				if err != nil {
					return fmt.Errorf("row %d: %w", start+i+1, err)
				}
				outcomes[start+i] = out
			}
			return nil
		})
		if err == nil {
			continue
		}

		r.log.Warn("chunk commit failed, retrying records individually",
			"chunk_start", start, "chunk_size", len(chunk), "error", err)
		r.retryIndividually(ctx, chunk, start, actor, outcomes)
	}

	return outcomes
}

// retryIndividually replays a failed chunk with one transaction per record.
// Records that fail again are marked Failed and excluded from counts.
func (r *Reconciler) retryIndividually(ctx context.Context, chunk []Record, start int, actor *uuid.UUID, outcomes []Outcome) {
	for i := range chunk {
		row := start + i + 1
		var out Outcome
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var applyErr error
			out, applyErr = r.applyOne(dbctx.Context{Ctx: ctx, Tx: tx}, &chunk[i], row, actor)
			return applyErr
		})
		if err != nil {
			outcomes[start+i] = Outcome{
				Row:         row,
				Kind:        OutcomeFailed,
				ExternalKey: chunk[i].ExternalKey,
				Reason:      err.Error(),
			}
			continue
		}
		outcomes[start+i] = out
	}
}

// applyOne upserts one record by external key inside the caller's
// transaction: existing key updates field-by-field, unseen key inserts.
func (r *Reconciler) applyOne(dbc dbctx.Context, rec *Record, row int, actor *uuid.UUID) (Outcome, error) {
	if rec.ExternalKey == "" {
		rec.ExternalKey = GenerateExternalKey()
	}

	tower, _, err := r.towers.GetOrCreateByName(dbc, rec.TowerName, "Auto-created during upload", "Auto-Generated")
	if err != nil {
		return Outcome{}, fmt.Errorf("resolve tower %q: %w", rec.TowerName, err)
	}

	existing, err := r.components.GetByExternalKey(dbc, rec.ExternalKey)
	switch {
	case err == nil:
		applyFields(existing, rec, tower.ID)
		if err := r.components.Update(dbc, existing); err != nil {
			return Outcome{}, err
		}
		return Outcome{Row: row, Kind: OutcomeUpdated, ExternalKey: rec.ExternalKey}, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		comp := &types.Component{ID: uuid.New(), ExternalKey: rec.ExternalKey, CreatedByID: actor}
		applyFields(comp, rec, tower.ID)
		if _, err := r.components.Create(dbc, []*types.Component{comp}); err != nil {
			return Outcome{}, err
		}
		return Outcome{Row: row, Kind: OutcomeCreated, ExternalKey: rec.ExternalKey}, nil

	default:
		return Outcome{}, err
	}
}

func applyFields(comp *types.Component, rec *Record, towerID uuid.UUID) {
	comp.Name = rec.Name
	comp.Description = rec.Description
	comp.TowerID = towerID
	comp.AppGroup = rec.AppGroup
	comp.ComponentType = rec.ComponentType
	comp.Status = rec.Status
	comp.Complexity = rec.Complexity
	comp.ChangeType = rec.ChangeType
	comp.Month = rec.Month
	comp.Year = rec.Year
	comp.ReleaseDate = rec.ReleaseDate
	if rec.TechStack != "" {
		comp.TechStack = datatypes.JSON(normalizeTechStack(rec.TechStack))
	}
	comp.UpdatedAt = time.Now().UTC()
}

// normalizeTechStack stores raw JSON as-is and wraps comma-separated plain
// text as a technologies list.
func normalizeTechStack(raw string) []byte {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return []byte(trimmed)
	}
	parts := strings.Split(trimmed, ",")
	quoted := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		quoted = append(quoted, fmt.Sprintf("%q", p))
	}
	return []byte(`{"technologies":[` + strings.Join(quoted, ",") + `]}`)
}
