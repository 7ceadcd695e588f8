package player

import (
	"sync"
	"time"

	"github.com/auroramusic/aurora/pkg/queue"
)

// State is a room's playback state. Multi-step transitions are serialized
// by the room lock, so a manual stop is always distinguishable from a
// natural end of track.
type State int

const (
	// StateIdle: no current item, nothing playing.
	StateIdle State = iota
	// StateStarting: a stream handle is being constructed.
	StateStarting
	// StatePlaying: the transport confirmed playback.
	StatePlaying
	// StateStoppingManual: an operator action (skip/stop/previous) forced
	// the transport to stop; the next completion is not a natural end.
	StateStoppingManual
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StatePlaying:
		return "playing"
	case StateStoppingManual:
		return "stopping-manual"
	default:
		return "unknown"
	}
}

// session is the ephemeral per-room playback state while a room is active.
// gen increments on every confirmed start so completion notifications from
// a superseded playback (seek, failed confirm) are ignored. The fields are
// guarded by the session's own mutex: transitions run under the room lock,
// but position and state reads arrive from command handlers at any time.
type session struct {
	mu        sync.RWMutex
	state     State
	gen       uint64
	item      *queue.Item
	startedAt time.Time
}

func (s *session) currentState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *session) setState(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
}

// supersede invalidates the in-flight watch goroutine so its completion
// does no queue bookkeeping.
func (s *session) supersede() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
}

// beginPlayback marks the session live and returns the generation the
// watch goroutine must carry.
func (s *session) beginPlayback(item *queue.Item, startedAt time.Time) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.item = item
	s.startedAt = startedAt
	s.state = StatePlaying
	return s.gen
}

// finish resets the session for a completed playback. Returns the finished
// item and whether the completion was operator-triggered; ok is false when
// gen is stale and the completion must be ignored.
func (s *session) finish(gen uint64) (finished *queue.Item, manual, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return nil, false, false
	}
	manual = s.state == StateStoppingManual
	finished = s.item
	s.item = nil
	s.state = StateIdle
	s.startedAt = time.Time{}
	return finished, manual, true
}

// position returns the elapsed playback time, or 0 when idle.
func (s *session) position() time.Duration {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startedAt.IsZero() {
		return 0
	}
	return time.Since(s.startedAt)
}
