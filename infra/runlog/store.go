package runlog

import (
	"context"
	"fmt"
	"time"
)

// RunRecord captures one completed training pipeline run.
type RunRecord struct {
	RunID         string             `json:"run_id"`
	StartedAt     time.Time          `json:"started_at"`
	DurationMS    int64              `json:"duration_ms"`
	Rows          int                `json:"rows"`
	BestIteration int                `json:"best_iteration"`
	RMSE          map[string]float64 `json:"rmse"`
	MAE           map[string]float64 `json:"mae"`
}

// Query defines filters for retrieving records.
type Query struct {
	Start time.Time
	End   time.Time
	Limit int
}

// Store persists RunRecords and supports querying.
type Store interface {
	Append(ctx context.Context, rec RunRecord) error
	Query(ctx context.Context, q Query) ([]RunRecord, error)
	Close() error
}

// Config selects and locates the store backend.
type Config struct {
	Backend string
	Path    string
}

// New creates the configured store backend.
func New(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "jsonl":
		return NewJSONLStore(cfg.Path)
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown runlog backend %s", cfg.Backend)
	}
}
