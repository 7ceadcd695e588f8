package metrics

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auroramusic/aurora/pkg/logging"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "metrics.db")
	store, err := NewStore(dbPath, logging.Null())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_RecordsAndAggregatesRoomStats(t *testing.T) {
	store := newTestStore(t)

	store.RecordPlay("guild-1")
	store.RecordPlay("guild-1")
	store.RecordPlaybackError("guild-1")
	store.RecordCacheHit("guild-1")
	store.RecordCacheMiss("guild-1")
	store.RecordPlay("guild-2")

	stats, err := store.RoomStats(context.Background(), "guild-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Plays)
	assert.Equal(t, int64(1), stats.PlaybackErrors)
	assert.Equal(t, int64(1), stats.CacheHits)
	assert.Equal(t, int64(1), stats.CacheMisses)
	assert.InDelta(t, 0.5, stats.CacheHitRate(), 0.001)

	other, err := store.RoomStats(context.Background(), "guild-2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), other.Plays)
	assert.Equal(t, int64(0), other.PlaybackErrors)
}

func TestStore_TotalPlaysSpansRooms(t *testing.T) {
	store := newTestStore(t)

	store.RecordPlay("guild-1")
	store.RecordPlay("guild-2")
	store.RecordCacheHit("guild-1")

	total, err := store.TotalPlays(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestStore_EmptyRoomStats(t *testing.T) {
	store := newTestStore(t)

	stats, err := store.RoomStats(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Plays)
	assert.Equal(t, float64(0), stats.CacheHitRate())
}

func TestStore_CleanExpiredRemovesOldEvents(t *testing.T) {
	store := newTestStore(t)

	// One old event, one fresh.
	_, err := store.db.Exec(
		"INSERT INTO playback_events (room_id, event_type, created_at) VALUES (?, ?, ?)",
		"guild-1", EventPlay, time.Now().Add(-48*time.Hour))
	require.NoError(t, err)
	store.RecordPlay("guild-1")

	removed, err := store.CleanExpired(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	stats, err := store.RoomStats(context.Background(), "guild-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Plays)
}

func TestStore_CloseIsIdempotentWithCleanupRunning(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "metrics.db")
	store, err := NewStore(dbPath, logging.Null())
	require.NoError(t, err)

	store.StartCleanup(10*time.Millisecond, time.Hour)
	time.Sleep(25 * time.Millisecond)

	require.NoError(t, store.Close())
}
