// Package uisync projects room state changes into debounced UI renders:
// at most one outbound render per room per cool-down window, with a single
// retry when the render transport reports rate limiting.
package uisync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/auroramusic/aurora/pkg/logging"
	"github.com/auroramusic/aurora/pkg/queue"
	"github.com/auroramusic/aurora/pkg/retry"
)

// Status is the playback state a render reflects.
type Status string

const (
	StatusPlaying Status = "playing"
	StatusPaused  Status = "paused"
	StatusLoading Status = "loading"
	StatusIdle    Status = "waiting"
)

// ErrRateLimited is returned by a RenderSink when the transport rejected
// the render due to rate limiting. Rate-limited renders are retried once.
var ErrRateLimited = errors.New("render rate limited")

// RenderSink delivers a render to the outside world (e.g. editing a
// controller embed message).
type RenderSink interface {
	Render(roomID string, snap queue.Snapshot, item *queue.Item, status Status) error
}

// Notifier is the interface the playback engine uses to schedule renders.
type Notifier interface {
	Notify(roomID string, item *queue.Item, status Status)
}

type pendingRender struct {
	timer  *time.Timer
	item   *queue.Item
	status Status
}

// Sync is the debounced projector. Each Notify cancels any pending render
// for the room and schedules a fresh one; the render re-reads the room's
// live queue at fire time so rapid notifications collapse into a single
// render reflecting the latest state.
type Sync struct {
	registry *queue.Registry
	sink     RenderSink
	window   time.Duration
	policy   retry.Policy
	log      logging.Logger

	mu         sync.Mutex
	pending    map[string]*pendingRender
	lastRender map[string]time.Time
}

// Option configures a Sync.
type Option func(*Sync)

// WithWindow overrides the debounce cool-down window.
func WithWindow(d time.Duration) Option {
	return func(s *Sync) { s.window = d }
}

// WithRetryPolicy overrides the rate-limit retry policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(s *Sync) { s.policy = p }
}

// New creates a Sync with a 500ms debounce window and a single 5s
// rate-limit retry.
func New(registry *queue.Registry, sink RenderSink, log logging.Logger, opts ...Option) *Sync {
	s := &Sync{
		registry: registry,
		sink:     sink,
		window:   500 * time.Millisecond,
		policy: retry.Policy{
			MaxAttempts: 2,
			Backoff:     retry.ConstantBackoff(5 * time.Second),
		},
		log:        log.With(logging.String("component", "uisync")),
		pending:    make(map[string]*pendingRender),
		lastRender: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notify schedules a render for the room, replacing any pending one. The
// delay honors the cool-down: a room rendered recently waits out the rest
// of the window, otherwise the render fires almost immediately.
func (s *Sync) Notify(roomID string, item *queue.Item, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pending[roomID]; ok {
		p.timer.Stop()
	}

	delay := s.window - time.Since(s.lastRender[roomID])
	// A short floor keeps a burst of notifications coalescing into one
	// trailing render instead of letting the first fire immediately.
	if floor := s.window / 10; delay < floor {
		delay = floor
	}

	p := &pendingRender{item: item, status: status}
	p.timer = time.AfterFunc(delay, func() { s.fire(roomID, p) })
	s.pending[roomID] = p
}

// Flush fires any pending render for the room immediately. Used on
// shutdown so the last state change is not lost.
func (s *Sync) Flush(roomID string) {
	s.mu.Lock()
	p, ok := s.pending[roomID]
	s.mu.Unlock()
	if ok && p.timer.Stop() {
		s.fire(roomID, p)
	}
}

func (s *Sync) fire(roomID string, p *pendingRender) {
	s.mu.Lock()
	// A later Notify may have replaced us between timer fire and here.
	if s.pending[roomID] != p {
		s.mu.Unlock()
		return
	}
	delete(s.pending, roomID)
	s.lastRender[roomID] = time.Now()
	s.mu.Unlock()

	// Live state at fire time, not a snapshot from notify time.
	snap := s.registry.Get(roomID).Snapshot()

	err := s.policy.Do(context.Background(), func(attempt int) error {
		renderErr := s.sink.Render(roomID, snap, p.item, p.status)
		if renderErr == nil {
			return nil
		}
		if errors.Is(renderErr, ErrRateLimited) {
			s.log.Warn("render rate limited",
				logging.String("room", roomID),
				logging.Int("attempt", attempt))
			return renderErr
		}
		// Other failures are dropped; the next state change re-renders.
		s.log.Error("render failed", logging.String("room", roomID), logging.Error(renderErr))
		return nil
	})
	if err != nil {
		s.log.Error("render dropped after rate-limit retry",
			logging.String("room", roomID), logging.Error(err))
	}
}
