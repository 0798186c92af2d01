package runstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"mandi/internal/pipeline"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "runlog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func report(status string) pipeline.Report {
	now := time.Now()
	return pipeline.Report{
		RunID:      uuid.NewString(),
		StartedAt:  now.Add(-time.Minute),
		FinishedAt: now,
		Fetched:    12000,
		Rejected:   35,
		Merged:     11800,
		Status:     status,
	}
}

func TestRecordThenListRoundTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	want := report(pipeline.StatusOK)
	require.NoError(t, store.Record(ctx, want))

	runs, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	got := runs[0]
	assert.Equal(t, want.RunID, got.RunID)
	assert.Equal(t, want.Fetched, got.Fetched)
	assert.Equal(t, want.Rejected, got.Rejected)
	assert.Equal(t, want.Merged, got.Merged)
	assert.Equal(t, pipeline.StatusOK, got.Status)
	assert.WithinDuration(t, want.StartedAt, got.StartedAt, time.Millisecond)
}

func TestListReturnsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old := report(pipeline.StatusFailed)
	old.StartedAt = time.Now().Add(-2 * time.Hour)
	old.Err = "batch failed after 3 attempts"
	require.NoError(t, store.Record(ctx, old))

	recent := report(pipeline.StatusOK)
	require.NoError(t, store.Record(ctx, recent))

	runs, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, recent.RunID, runs[0].RunID)
	assert.Equal(t, old.RunID, runs[1].RunID)
	assert.Equal(t, "batch failed after 3 attempts", runs[1].Err)
}

func TestListHonorsLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		rep := report(pipeline.StatusOK)
		rep.StartedAt = time.Now().Add(time.Duration(i) * time.Second)
		require.NoError(t, store.Record(ctx, rep))
	}
	runs, err := store.List(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}
