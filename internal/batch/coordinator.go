package batch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/digital-native-cli/internal/model"
	"github.com/sells-group/digital-native-cli/internal/store"
)

// Scorer produces a score result for a company record. It is total; the
// scoring engine absorbs its own failures.
type Scorer interface {
	Score(ctx context.Context, record model.CompanyRecord) *model.ScoreResult
}

// Coordinator owns the batch lifecycle: persisting uploaded records,
// scheduling their analysis, and answering progress and result queries.
type Coordinator struct {
	store  store.Store
	scorer Scorer
	queue  *Queue
}

// NewCoordinator wires a coordinator. queue may be nil for callers that run
// batches synchronously themselves.
func NewCoordinator(st store.Store, scorer Scorer, queue *Queue) *Coordinator {
	return &Coordinator{
		store:  st,
		scorer: scorer,
		queue:  queue,
	}
}

// CreateBatch persists the records as pending items under a fresh batch id
// and schedules the batch for background analysis. It returns as soon as the
// items are stored; analysis proceeds on the queue workers.
func (c *Coordinator) CreateBatch(ctx context.Context, records []model.CompanyRecord) (string, int, error) {
	if len(records) == 0 {
		return "", 0, eris.New("batch: no records to analyze")
	}

	batchID := uuid.NewString()
	now := time.Now().UTC()

	items := make([]model.AnalysisItem, len(records))
	for i, rec := range records {
		rec.ID = uuid.NewString()
		rec.BatchID = batchID
		rec.CreatedAt = now
		items[i] = model.AnalysisItem{
			CompanyRecord: rec,
			Status:        model.StatusPending,
		}
	}

	if err := c.store.InsertItems(ctx, items); err != nil {
		return "", 0, eris.Wrap(err, "batch: insert items")
	}

	if c.queue != nil {
		err := c.queue.Submit(func(jobCtx context.Context) {
			c.RunBatch(jobCtx, batchID, items)
		})
		if err != nil {
			// Unschedulable items would sit pending forever; remove them so
			// the failed upload leaves no trace.
			if _, derr := c.store.DeleteBatch(ctx, batchID); derr != nil {
				zap.L().Error("batch: cleanup after failed scheduling",
					zap.String("batch_id", batchID),
					zap.Error(derr),
				)
			}
			return "", 0, eris.Wrap(err, "batch: schedule batch")
		}
	}

	zap.L().Info("batch: created",
		zap.String("batch_id", batchID),
		zap.Int("companies", len(items)),
	)

	return batchID, len(items), nil
}

// RunBatch analyzes the items of one batch sequentially. One item's failure
// never aborts the rest; failures are recorded on the item and the loop
// moves on.
func (c *Coordinator) RunBatch(ctx context.Context, batchID string, items []model.AnalysisItem) {
	for i := range items {
		c.processItem(ctx, &items[i])
	}

	zap.L().Info("batch: processing complete",
		zap.String("batch_id", batchID),
		zap.Int("companies", len(items)),
	)
}

func (c *Coordinator) processItem(ctx context.Context, item *model.AnalysisItem) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("batch: item processing panicked",
				zap.String("item_id", item.ID),
				zap.String("company", item.Name),
				zap.Any("panic", r),
			)
			c.failItem(ctx, item)
		}
	}()

	if err := item.MarkAnalyzing(); err != nil {
		zap.L().Warn("batch: skipping item in unexpected state",
			zap.String("item_id", item.ID),
			zap.String("status", string(item.Status)),
			zap.Error(err),
		)
		return
	}
	if err := c.store.UpdateItemStatus(ctx, item.ID, model.StatusAnalyzing); err != nil {
		zap.L().Error("batch: mark analyzing failed",
			zap.String("item_id", item.ID),
			zap.Error(err),
		)
		c.failItem(ctx, item)
		return
	}

	result := c.scorer.Score(ctx, item.CompanyRecord)

	now := time.Now().UTC()
	if err := c.store.CompleteItem(ctx, item.ID, result, now); err != nil {
		zap.L().Error("batch: persist result failed",
			zap.String("item_id", item.ID),
			zap.String("company", item.Name),
			zap.Error(err),
		)
		c.failItem(ctx, item)
		return
	}
	_ = item.MarkCompleted(result, now)

	zap.L().Debug("batch: item completed",
		zap.String("item_id", item.ID),
		zap.String("company", item.Name),
		zap.Float64("digital_native_score", result.DigitalNativeScore),
	)
}

// failItem records a terminal error state for the item. A failure to record
// the failure is only logged; there is nowhere left to escalate.
func (c *Coordinator) failItem(ctx context.Context, item *model.AnalysisItem) {
	now := time.Now().UTC()
	if item.Status == model.StatusAnalyzing {
		_ = item.MarkError(now)
	}
	if err := c.store.FailItem(ctx, item.ID, now); err != nil {
		zap.L().Error("batch: mark error failed",
			zap.String("item_id", item.ID),
			zap.Error(err),
		)
	}
}

// Progress reports a point-in-time snapshot of a batch. Unknown batch ids
// yield store.ErrNotFound.
func (c *Coordinator) Progress(ctx context.Context, batchID string) (model.Progress, error) {
	total, err := c.store.CountByBatch(ctx, batchID)
	if err != nil {
		return model.Progress{}, eris.Wrap(err, "batch: count items")
	}
	if total == 0 {
		return model.Progress{}, store.ErrNotFound
	}

	completed, err := c.store.CountByBatchStatus(ctx, batchID, model.StatusCompleted, model.StatusError)
	if err != nil {
		return model.Progress{}, eris.Wrap(err, "batch: count finished items")
	}
	failed, err := c.store.CountByBatchStatus(ctx, batchID, model.StatusError)
	if err != nil {
		return model.Progress{}, eris.Wrap(err, "batch: count failed items")
	}

	return model.NewProgress(batchID, total, completed, failed), nil
}

// Results returns the batch's items. Unknown batch ids yield
// store.ErrNotFound.
func (c *Coordinator) Results(ctx context.Context, batchID string) ([]model.AnalysisItem, error) {
	items, err := c.store.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, eris.Wrap(err, "batch: list items")
	}
	if len(items) == 0 {
		return nil, store.ErrNotFound
	}
	return items, nil
}

// DeleteBatch removes all of a batch's items. Items being analyzed when the
// delete lands may be rewritten by late status updates; callers should
// delete only settled batches.
func (c *Coordinator) DeleteBatch(ctx context.Context, batchID string) error {
	deleted, err := c.store.DeleteBatch(ctx, batchID)
	if err != nil {
		return eris.Wrap(err, "batch: delete items")
	}
	if deleted == 0 {
		return store.ErrNotFound
	}

	zap.L().Info("batch: deleted",
		zap.String("batch_id", batchID),
		zap.Int("companies", deleted),
	)
	return nil
}
