package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/laborstat-cli/internal/config"
	"github.com/sells-group/laborstat-cli/internal/model"
)

// RunRecord is one pipeline run in the run-history database.
type RunRecord struct {
	ID        string             `json:"id"`
	RunID     string             `json:"run_id"`
	Status    model.RunStatus    `json:"status"`
	Manifest  *model.RunManifest `json:"manifest,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// RunStore defines the run-history persistence interface.
type RunStore interface {
	CreateRun(ctx context.Context, runID string) (*RunRecord, error)
	UpdateRunStatus(ctx context.Context, id string, status model.RunStatus) error
	UpdateRunManifest(ctx context.Context, id string, status model.RunStatus, m *model.RunManifest) error
	GetRun(ctx context.Context, id string) (*RunRecord, error)
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open creates the RunStore configured by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (RunStore, error) {
	switch cfg.Driver {
	case "sqlite":
		return NewSQLite(cfg.SQLitePath)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
