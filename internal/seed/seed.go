package seed

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/comptrack/comptrack-backend/internal/data/repos"
	"github.com/comptrack/comptrack-backend/internal/ingest"
	"github.com/comptrack/comptrack-backend/internal/platform/dbctx"
	"github.com/comptrack/comptrack-backend/internal/platform/logger"
)

//go:embed sample.yaml
var sampleData []byte

type towerSeed struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Ownership   string `yaml:"ownership"`
}

type componentSeed struct {
	ExternalKey   string `yaml:"external_key"`
	Name          string `yaml:"name"`
	Description   string `yaml:"description"`
	Tower         string `yaml:"tower"`
	AppGroup      string `yaml:"app_group"`
	ComponentType string `yaml:"component_type"`
	Status        string `yaml:"status"`
	Complexity    string `yaml:"complexity"`
	ChangeType    string `yaml:"change_type"`
	Month         int    `yaml:"month"`
	Year          int    `yaml:"year"`
	ReleaseDate   string `yaml:"release_date"`
}

type dataset struct {
	Towers     []towerSeed     `yaml:"towers"`
	Components []componentSeed `yaml:"components"`
}

// Seeder loads a starter dataset into an empty store. It is idempotent:
// a store that already has components is left alone.
type Seeder struct {
	db         *gorm.DB
	log        *logger.Logger
	components repos.ComponentRepo
	towers     repos.TowerRepo
	reconciler *ingest.Reconciler
}

func NewSeeder(db *gorm.DB, baseLog *logger.Logger, components repos.ComponentRepo, towers repos.TowerRepo, reconciler *ingest.Reconciler) *Seeder {
	return &Seeder{
		db:         db,
		log:        baseLog.With("service", "Seeder"),
		components: components,
		towers:     towers,
		reconciler: reconciler,
	}
}

// Run seeds from SEED_FILE if set, otherwise from the embedded sample.
func (s *Seeder) Run(ctx context.Context) error {
	count, err := s.components.Count(dbctx.Context{Ctx: ctx})
	if err != nil {
		return fmt.Errorf("count components: %w", err)
	}
	if count > 0 {
		s.log.Info("store already populated, skipping seed", "components", count)
		return nil
	}

	raw := sampleData
	if path := os.Getenv("SEED_FILE"); path != "" {
		raw, err = os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read seed file %s: %w", path, err)
		}
	}

	var data dataset
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("parse seed data: %w", err)
	}

	dbc := dbctx.Context{Ctx: ctx}
	for _, t := range data.Towers {
		if _, _, err := s.towers.GetOrCreateByName(dbc, t.Name, t.Description, t.Ownership); err != nil {
			return fmt.Errorf("seed tower %s: %w", t.Name, err)
		}
	}

	records := make([]ingest.Record, 0, len(data.Components))
	for _, c := range data.Components {
		raw := ingest.RawRecord{
			"external_key":   c.ExternalKey,
			"name":           c.Name,
			"description":    c.Description,
			"tower":          c.Tower,
			"app_group":      c.AppGroup,
			"component_type": c.ComponentType,
			"status":         c.Status,
			"complexity":     c.Complexity,
			"change_type":    c.ChangeType,
			"month":          c.Month,
			"year":           c.Year,
			"release_date":   c.ReleaseDate,
		}
		rec, _ := ingest.ValidateAndFix(raw)
		records = append(records, rec)
	}

	outcomes := s.reconciler.Reconcile(ctx, records, nil)
	var created, failed int
	for _, out := range outcomes {
		switch out.Kind {
		case ingest.OutcomeCreated:
			created++
		case ingest.OutcomeFailed:
			failed++
			s.log.Warn("seed record failed", "row", out.Row, "reason", out.Reason)
		}
	}
	s.log.Info("seed finished", "towers", len(data.Towers), "created", created, "failed", failed)
	return nil
}
