package player

import (
	"context"
	"sync"
	"time"

	"github.com/auroramusic/aurora/pkg/logging"
	"github.com/auroramusic/aurora/pkg/queue"
)

const (
	defaultPrefetchTimeout  = 25 * time.Second
	defaultPrefetchFollowUp = 30 * time.Second
)

// Prefetcher constructs stream handles for upcoming ready items in the
// background so track transitions skip the construction latency. Cached
// handles live in the room's queue and are consumed once by the engine or
// released on Clear.
type Prefetcher struct {
	registry *queue.Registry
	sources  SourceFactory
	playing  func(roomID string) bool
	log      logging.Logger

	itemTimeout time.Duration
	followUp    time.Duration

	mu       sync.Mutex
	inflight map[string]bool
}

// PrefetchOption configures a Prefetcher.
type PrefetchOption func(*Prefetcher)

// WithPrefetchTimings overrides the per-item construction timeout and the
// follow-up interval. A zero follow-up makes Run a single pass.
func WithPrefetchTimings(itemTimeout, followUp time.Duration) PrefetchOption {
	return func(p *Prefetcher) {
		p.itemTimeout = itemTimeout
		p.followUp = followUp
	}
}

// NewPrefetcher creates a prefetcher. playing reports whether a room is
// still actively playing; follow-up passes stop when it returns false.
func NewPrefetcher(registry *queue.Registry, sources SourceFactory, playing func(roomID string) bool, log logging.Logger, opts ...PrefetchOption) *Prefetcher {
	p := &Prefetcher{
		registry:    registry,
		sources:     sources,
		playing:     playing,
		log:         log.With(logging.String("component", "prefetch")),
		itemTimeout: defaultPrefetchTimeout,
		followUp:    defaultPrefetchFollowUp,
		inflight:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run prefetches upcoming items for a room until the room stops playing or
// ctx is cancelled. At most one Run is active per room; concurrent calls
// return immediately.
func (p *Prefetcher) Run(ctx context.Context, roomID string) {
	if !p.begin(roomID) {
		return
	}
	defer p.end(roomID)

	for {
		p.fill(ctx, roomID)

		if p.followUp <= 0 || !p.isPlaying(roomID) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.followUp):
		}
		if !p.isPlaying(roomID) {
			return
		}
	}
}

// fill constructs handles for one adaptive batch of upcoming items. Deep
// queues get a bigger batch so the cache stays ahead of playback.
func (p *Prefetcher) fill(ctx context.Context, roomID string) {
	q := p.registry.Get(roomID)
	batch := batchFor(q.ReadyLen())

	for _, item := range q.ReadyAhead(batch) {
		select {
		case <-ctx.Done():
			return
		default:
		}
		// Items needing conversion have no stream locator yet; failed
		// items get skipped at playback anyway.
		if item.URL == "" || item.Failed || item.NeedsConversion() {
			continue
		}
		if q.CacheContains(item.URL) {
			continue
		}

		cctx, cancel := context.WithTimeout(ctx, p.itemTimeout)
		src, err := p.sources.Construct(cctx, item.URL, q.Volume(), 0)
		cancel()
		if err != nil {
			p.log.Warn("prefetch failed",
				logging.String("room", roomID),
				logging.String("title", item.Title),
				logging.Error(err))
			continue
		}
		q.CachePut(item.URL, src)
		p.log.Debug("prefetched",
			logging.String("room", roomID),
			logging.String("title", item.Title))
	}
}

func batchFor(readyDepth int) int {
	switch {
	case readyDepth > 10:
		return 5
	case readyDepth > 5:
		return 3
	default:
		return 2
	}
}

func (p *Prefetcher) isPlaying(roomID string) bool {
	return p.playing != nil && p.playing(roomID)
}

func (p *Prefetcher) begin(roomID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inflight[roomID] {
		return false
	}
	p.inflight[roomID] = true
	return true
}

func (p *Prefetcher) end(roomID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inflight, roomID)
}
