package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/digital-native-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testItems(batchID string, n int) []model.AnalysisItem {
	items := make([]model.AnalysisItem, 0, n)
	for i := 0; i < n; i++ {
		year := 2010 + i
		items = append(items, model.AnalysisItem{
			CompanyRecord: model.CompanyRecord{
				ID:          batchID + "-item-" + string(rune('a'+i)),
				BatchID:     batchID,
				Name:        "Company " + string(rune('A'+i)),
				Domain:      "company" + string(rune('a'+i)) + ".io",
				Industry:    "SaaS",
				FoundedYear: &year,
				CreatedAt:   time.Now().UTC().Truncate(time.Second),
			},
			Status: model.StatusPending,
		})
	}
	return items
}

func TestSQLite_InsertAndListByBatch(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	items := testItems("batch-1", 3)
	require.NoError(t, st.InsertItems(ctx, items))

	got, err := st.ListByBatch(ctx, "batch-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, model.StatusPending, got[0].Status)
	assert.Equal(t, "SaaS", got[0].Industry)
	require.NotNil(t, got[0].FoundedYear)
	assert.Equal(t, 2010, *got[0].FoundedYear)
	assert.Nil(t, got[0].Result)
}

func TestSQLite_InsertItems_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)
	assert.NoError(t, st.InsertItems(context.Background(), nil))
}

func TestSQLite_GetItem_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetItem(context.Background(), "missing")
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLite_UpdateItemStatus(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	items := testItems("batch-1", 1)
	require.NoError(t, st.InsertItems(ctx, items))

	require.NoError(t, st.UpdateItemStatus(ctx, items[0].ID, model.StatusAnalyzing))

	got, err := st.GetItem(ctx, items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAnalyzing, got.Status)
}

func TestSQLite_UpdateItemStatus_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)
	err := st.UpdateItemStatus(context.Background(), "missing", model.StatusAnalyzing)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLite_CompleteItem_RoundTripsResult(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	items := testItems("batch-1", 1)
	require.NoError(t, st.InsertItems(ctx, items))

	result := &model.ScoreResult{
		DigitalNativeScore:     85,
		DigitalNativeReasoning: "High digital native industry: saas",
		IncidentFitScore:       68,
		IncidentFitReasoning:   "High incident management needs",
		IsDigitalNative:        true,
	}
	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, st.CompleteItem(ctx, items[0].ID, result, at))

	got, err := st.GetItem(ctx, items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, *result, *got.Result)
	require.NotNil(t, got.AnalyzedAt)
	assert.WithinDuration(t, at, *got.AnalyzedAt, time.Second)
}

func TestSQLite_FailItem(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	items := testItems("batch-1", 1)
	require.NoError(t, st.InsertItems(ctx, items))

	at := time.Now().UTC()
	require.NoError(t, st.FailItem(ctx, items[0].ID, at))

	got, err := st.GetItem(ctx, items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusError, got.Status)
	assert.Nil(t, got.Result)
	assert.NotNil(t, got.AnalyzedAt)
}

func TestSQLite_Counts(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	items := testItems("batch-1", 4)
	require.NoError(t, st.InsertItems(ctx, items))

	// Finish two, fail one.
	at := time.Now().UTC()
	require.NoError(t, st.CompleteItem(ctx, items[0].ID, &model.ScoreResult{}, at))
	require.NoError(t, st.CompleteItem(ctx, items[1].ID, &model.ScoreResult{}, at))
	require.NoError(t, st.FailItem(ctx, items[2].ID, at))

	total, err := st.CountByBatch(ctx, "batch-1")
	require.NoError(t, err)
	assert.Equal(t, 4, total)

	finished, err := st.CountByBatchStatus(ctx, "batch-1", model.StatusCompleted, model.StatusError)
	require.NoError(t, err)
	assert.Equal(t, 3, finished)

	failed, err := st.CountByBatchStatus(ctx, "batch-1", model.StatusError)
	require.NoError(t, err)
	assert.Equal(t, 1, failed)

	// Progress invariant: finished + unfinished == total.
	pending, err := st.CountByBatchStatus(ctx, "batch-1", model.StatusPending, model.StatusAnalyzing)
	require.NoError(t, err)
	assert.Equal(t, total, finished+pending)
}

func TestSQLite_CountByBatch_UnknownBatchIsZero(t *testing.T) {
	st := newTestSQLiteStore(t)
	n, err := st.CountByBatch(context.Background(), "nope")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSQLite_DeleteBatch(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.InsertItems(ctx, testItems("batch-1", 2)))
	require.NoError(t, st.InsertItems(ctx, testItems("batch-2", 1)))

	n, err := st.DeleteBatch(ctx, "batch-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Other batches untouched.
	remaining, err := st.CountByBatch(ctx, "batch-2")
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)

	// Second delete removes nothing.
	n, err = st.DeleteBatch(ctx, "batch-1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSQLite_ListRecent(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	old := testItems("batch-old", 1)
	old[0].CreatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, st.InsertItems(ctx, old))
	require.NoError(t, st.InsertItems(ctx, testItems("batch-new", 2)))

	got, err := st.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "batch-new", got[0].BatchID)
	assert.Equal(t, "batch-new", got[1].BatchID)
}
