package service

import (
	"context"
	"testing"

	"videotube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordWatch_RepeatedWatchesKeepOneEntry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, h.history.RecordWatch(ctx, "carol", "v1"))
	}
	last := h.clock.now

	assert.Equal(t, int64(1), h.f.Count(&models.WatchEvent{}, "actor_id = ?", "carol"))
	entries, err := h.history.ListHistory(ctx, "carol", 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "v1", entries[0].ID)
	assert.True(t, last.Equal(entries[0].LastWatchedAt), "want %v, got %v", last, entries[0].LastWatchedAt)
}

func TestListHistory_MostRecentFirst(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.history.RecordWatch(ctx, "carol", "v1"))
	require.NoError(t, h.history.RecordWatch(ctx, "carol", "v3"))
	require.NoError(t, h.history.RecordWatch(ctx, "carol", "v1"))

	entries, err := h.history.ListHistory(ctx, "carol", 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "v1", entries[0].ID)
	assert.Equal(t, "v3", entries[1].ID)
	assert.Equal(t, "bob", entries[1].OwnerUsername)
}

func TestRecordWatch_Errors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	assert.True(t, models.IsUnauthorized(h.history.RecordWatch(ctx, "", "v1")))
	assert.True(t, models.IsNotFound(h.history.RecordWatch(ctx, "carol", "nope")))
	assert.True(t, models.IsNotFound(h.history.RecordWatch(ctx, "carol", "v2")))
	assert.True(t, models.IsInvalidOperation(h.history.RecordWatch(ctx, "carol", "")))
	assert.NoError(t, h.history.RecordWatch(ctx, "alice", "v2"))
}

func TestRecordWatch_VideoDeletedAfterLookup(t *testing.T) {
	h := newHarness(t)
	h.history.content = deleteAfterLookup(t, h.db)

	err := h.history.RecordWatch(context.Background(), "carol", "v1")
	assert.True(t, models.IsNotFound(err))
	assert.Zero(t, h.f.Count(&models.WatchEvent{}, "video_id = ?", "v1"))
}

func TestRemoveAndClearHistory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.history.RecordWatch(ctx, "carol", "v1"))
	require.NoError(t, h.history.RecordWatch(ctx, "carol", "v3"))
	require.NoError(t, h.history.RecordWatch(ctx, "bob", "v1"))

	require.NoError(t, h.history.RemoveFromHistory(ctx, "carol", "v1"))
	require.NoError(t, h.history.RemoveFromHistory(ctx, "carol", "v1"))
	entries, err := h.history.ListHistory(ctx, "carol", 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "v3", entries[0].ID)

	n, err := h.history.ClearHistory(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	entries, err = h.history.ListHistory(ctx, "carol", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, int64(1), h.f.Count(&models.WatchEvent{}, "actor_id = ?", "bob"))

	_, err = h.history.ClearHistory(ctx, "")
	assert.True(t, models.IsUnauthorized(err))
	_, err = h.history.ListHistory(ctx, "", 0, 0)
	assert.True(t, models.IsUnauthorized(err))
}
