package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/digital-native-cli/internal/model"
)

// ErrNotFound is returned when a lookup matches no rows.
var ErrNotFound = eris.New("store: not found")

// Store defines the persistence interface for analysis items. Updates are
// keyed by item id; no cross-item locking is required of implementations, so
// concurrent batches can write independently.
type Store interface {
	// Items
	InsertItems(ctx context.Context, items []model.AnalysisItem) error
	UpdateItemStatus(ctx context.Context, itemID string, status model.ItemStatus) error
	CompleteItem(ctx context.Context, itemID string, result *model.ScoreResult, analyzedAt time.Time) error
	FailItem(ctx context.Context, itemID string, analyzedAt time.Time) error
	GetItem(ctx context.Context, itemID string) (*model.AnalysisItem, error)

	// Batch queries
	ListByBatch(ctx context.Context, batchID string) ([]model.AnalysisItem, error)
	ListRecent(ctx context.Context, limit int) ([]model.AnalysisItem, error)
	CountByBatch(ctx context.Context, batchID string) (int, error)
	CountByBatchStatus(ctx context.Context, batchID string, statuses ...model.ItemStatus) (int, error)
	DeleteBatch(ctx context.Context, batchID string) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
