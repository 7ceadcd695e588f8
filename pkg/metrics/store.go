// Package metrics persists playback counters to SQLite so play counts,
// failure rates and prefetch effectiveness survive restarts.
package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/auroramusic/aurora/pkg/logging"
)

// Event types stored in playback_events.
const (
	EventPlay          = "play"
	EventPlaybackError = "playback_error"
	EventCacheHit      = "cache_hit"
	EventCacheMiss     = "cache_miss"
)

// Store is a SQLite-backed recorder of playback events. Recording never
// fails the caller: a failed insert is logged and dropped, playback is
// worth more than a counter.
type Store struct {
	db  *sql.DB
	log logging.Logger

	insertStmt *sql.Stmt

	mu      sync.Mutex
	stopCh  chan struct{}
	stopped bool
}

// NewStore opens (or creates) the metrics database at dbPath.
func NewStore(dbPath string, log logging.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open metrics database: %v", err)
	}

	if err := initTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metrics tables: %v", err)
	}

	insertStmt, err := db.Prepare(`
		INSERT INTO playback_events (room_id, event_type, created_at)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare insert statement: %v", err)
	}

	return &Store{
		db:         db,
		log:        log.With(logging.String("component", "metrics")),
		insertStmt: insertStmt,
		stopCh:     make(chan struct{}),
	}, nil
}

func initTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS playback_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			room_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_playback_events_room ON playback_events(room_id)`,
		`CREATE INDEX IF NOT EXISTS idx_playback_events_type ON playback_events(event_type)`,
		`CREATE INDEX IF NOT EXISTS idx_playback_events_created ON playback_events(created_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %v", err)
		}
	}
	return nil
}

// RecordPlay records a successfully started playback.
func (s *Store) RecordPlay(roomID string) { s.record(roomID, EventPlay) }

// RecordPlaybackError records a failed construction or playback error.
func (s *Store) RecordPlaybackError(roomID string) { s.record(roomID, EventPlaybackError) }

// RecordCacheHit records a playback start served from the prefetch cache.
func (s *Store) RecordCacheHit(roomID string) { s.record(roomID, EventCacheHit) }

// RecordCacheMiss records a playback start that had to construct inline.
func (s *Store) RecordCacheMiss(roomID string) { s.record(roomID, EventCacheMiss) }

func (s *Store) record(roomID, eventType string) {
	if _, err := s.insertStmt.Exec(roomID, eventType, time.Now()); err != nil {
		s.log.Warn("failed to record playback event",
			logging.String("room", roomID),
			logging.String("event", eventType),
			logging.Error(err))
	}
}

// Stats aggregates a room's recorded playback events.
type Stats struct {
	RoomID         string
	Plays          int64
	PlaybackErrors int64
	CacheHits      int64
	CacheMisses    int64
}

// CacheHitRate returns the fraction of playback starts served from cache.
func (st Stats) CacheHitRate() float64 {
	total := st.CacheHits + st.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(st.CacheHits) / float64(total)
}

// RoomStats returns aggregate counters for one room.
func (s *Store) RoomStats(ctx context.Context, roomID string) (*Stats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_type, COUNT(*) FROM playback_events
		WHERE room_id = ?
		GROUP BY event_type
	`, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to query room stats: %w", err)
	}
	defer rows.Close()

	stats := &Stats{RoomID: roomID}
	for rows.Next() {
		var eventType string
		var count int64
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan room stats: %w", err)
		}
		switch eventType {
		case EventPlay:
			stats.Plays = count
		case EventPlaybackError:
			stats.PlaybackErrors = count
		case EventCacheHit:
			stats.CacheHits = count
		case EventCacheMiss:
			stats.CacheMisses = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating room stats: %w", err)
	}
	return stats, nil
}

// TotalPlays returns the all-rooms play count.
func (s *Store) TotalPlays(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM playback_events WHERE event_type = ?", EventPlay).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count plays: %w", err)
	}
	return count, nil
}

// CleanExpired removes events older than the retention period.
func (s *Store) CleanExpired(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM playback_events WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean expired events: %w", err)
	}
	removed, _ := res.RowsAffected()
	return removed, nil
}

// StartCleanup runs CleanExpired on a fixed interval until Close.
func (s *Store) StartCleanup(interval, retention time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopCh:
				return
			case <-ticker.C:
				removed, err := s.CleanExpired(context.Background(), retention)
				if err != nil {
					s.log.Error("retention cleanup failed", logging.Error(err))
					continue
				}
				if removed > 0 {
					s.log.Debug("retention cleanup removed events",
						logging.Int("removed", int(removed)))
				}
			}
		}
	}()
}

// Close stops background cleanup and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		close(s.stopCh)
	}
	s.mu.Unlock()

	if err := s.insertStmt.Close(); err != nil {
		s.db.Close()
		return fmt.Errorf("failed to close insert statement: %v", err)
	}
	return s.db.Close()
}
