// Package player implements the per-room playback state machine: it starts
// playback of the next ready item, reacts to natural completion versus
// operator-triggered completion, retries failed stream construction and
// advances the queue or reports idle.
package player

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/auroramusic/aurora/pkg/logging"
	"github.com/auroramusic/aurora/pkg/queue"
	"github.com/auroramusic/aurora/pkg/retry"
	"github.com/auroramusic/aurora/pkg/uisync"
)

const (
	defaultResolveTimeout  = 10 * time.Second
	defaultPlaylistTimeout = 60 * time.Second
	defaultConfirmWait     = 500 * time.Millisecond
	defaultAdvancePause    = 500 * time.Millisecond
)

// Engine coordinates queues, stream sources and voice transports for all
// rooms. All playback-affecting transitions hold the room lock for their
// critical section; rooms never contend with each other.
type Engine struct {
	registry *queue.Registry
	resolver Resolver
	sources  SourceFactory
	notifier uisync.Notifier
	metrics  Metrics
	log      logging.Logger

	constructPolicy retry.Policy
	confirmWait     time.Duration
	advancePause    time.Duration
	resolveTimeout  time.Duration
	playlistTimeout time.Duration

	mu         sync.Mutex
	transports map[string]Transport
	sessions   map[string]*session

	prefetcher *Prefetcher
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics attaches a playback metrics recorder.
func WithMetrics(m Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithConstructPolicy overrides the stream-construction retry policy.
func WithConstructPolicy(p retry.Policy) Option {
	return func(e *Engine) { e.constructPolicy = p }
}

// WithTimings overrides the playback-confirmation wait and the pause
// before advancing to the next track. Tests pass zero for both.
func WithTimings(confirmWait, advancePause time.Duration) Option {
	return func(e *Engine) {
		e.confirmWait = confirmWait
		e.advancePause = advancePause
	}
}

// WithResolveTimeout overrides the single-item resolution timeout.
func WithResolveTimeout(d time.Duration) Option {
	return func(e *Engine) { e.resolveTimeout = d }
}

// NewEngine creates a playback engine.
func NewEngine(registry *queue.Registry, resolver Resolver, sources SourceFactory, notifier uisync.Notifier, log logging.Logger, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		resolver: resolver,
		sources:  sources,
		notifier: notifier,
		log:      log.With(logging.String("component", "player")),
		constructPolicy: retry.Policy{
			MaxAttempts: 3,
			Backoff:     retry.LinearBackoff(time.Second),
		},
		confirmWait:     defaultConfirmWait,
		advancePause:    defaultAdvancePause,
		resolveTimeout:  defaultResolveTimeout,
		playlistTimeout: defaultPlaylistTimeout,
		transports:      make(map[string]Transport),
		sessions:        make(map[string]*session),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetPrefetcher wires the background prefetcher kicked after each start.
func (e *Engine) SetPrefetcher(p *Prefetcher) {
	e.prefetcher = p
}

// AttachTransport registers the room's voice transport. Called by the host
// when a voice connection is established.
func (e *Engine) AttachTransport(roomID string, t Transport) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.transports[roomID] = t
}

// DetachTransport removes the room's voice transport.
func (e *Engine) DetachTransport(roomID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.transports, roomID)
}

func (e *Engine) transport(roomID string) Transport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.transports[roomID]
}

func (e *Engine) session(roomID string) *session {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[roomID]
	if !ok {
		s = &session{}
		e.sessions[roomID] = s
	}
	return s
}

// Submit pushes a raw request into the room's queue. No resolution
// happens here; run ProcessPending to resolve.
func (e *Engine) Submit(roomID string, req *queue.RawRequest) {
	e.registry.Get(roomID).EnqueueRequest(req)
}

// SubmitPlaylist resolves a playlist URL and enqueues every entry as a
// pre-resolved request, preserving submission order.
func (e *Engine) SubmitPlaylist(ctx context.Context, roomID, url, requestedBy string) (*PlaylistInfo, error) {
	pctx, cancel := context.WithTimeout(ctx, e.playlistTimeout)
	defer cancel()

	info, items, err := e.resolver.ResolvePlaylist(pctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResolution, err)
	}
	for _, item := range items {
		if item.RequestedBy == "" {
			item.RequestedBy = requestedBy
		}
		e.Submit(roomID, &queue.RawRequest{Item: item, RequestedBy: requestedBy})
	}
	return info, nil
}

// ProcessPending drains the room's pending requests, resolving each into a
// ready item in FIFO submission order. At most one pass runs per room;
// overlapping calls return immediately. Failed resolutions are logged and
// dropped, the queue continues.
func (e *Engine) ProcessPending(ctx context.Context, roomID string) {
	q := e.registry.Get(roomID)
	if !q.TryBeginResolve() {
		return
	}
	defer q.EndResolve()

	for {
		req := q.DequeueRequest()
		if req == nil {
			return
		}

		if req.Item != nil {
			if req.Item.RequestedBy == "" {
				req.Item.RequestedBy = req.RequestedBy
			}
			e.OnReady(roomID, req.Item)
			continue
		}

		rctx, cancel := context.WithTimeout(ctx, e.resolveTimeout)
		item, err := e.resolver.Resolve(rctx, req.Query)
		cancel()
		if err != nil {
			e.log.Error("resolution failed, dropping request",
				logging.String("room", roomID),
				logging.String("query", req.Query),
				logging.Error(err))
			continue
		}
		if item.RequestedBy == "" {
			item.RequestedBy = req.RequestedBy
		}
		e.OnReady(roomID, item)
	}
}

// OnReady appends a resolved item to the room's ready list. Exposed so a
// host can run its own resolution outside the engine's control flow.
func (e *Engine) OnReady(roomID string, item *queue.Item) {
	e.registry.Get(roomID).EnqueueReady(item)
}

// Play starts playback of the next ready item. Idempotent when the room is
// already playing; returns ErrEmptyQueue when nothing is ready.
func (e *Engine) Play(ctx context.Context, roomID string) error {
	lock := e.registry.Lock(roomID)
	lock.Lock()
	defer lock.Unlock()

	return e.startLocked(ctx, roomID, e.registry.Get(roomID).ReadyLen()+1)
}

// startLocked is the start-of-playback step of the state machine. The
// caller holds the room lock. attempts bounds the advance-to-next
// recursion so an all-failing queue terminates at Idle instead of
// spinning.
func (e *Engine) startLocked(ctx context.Context, roomID string, attempts int) error {
	t := e.transport(roomID)
	if t == nil {
		return ErrNoTransport
	}
	if t.IsPlaying() {
		return nil
	}

	q := e.registry.Get(roomID)
	sess := e.session(roomID)

	if attempts <= 0 {
		sess.setState(StateIdle)
		e.notifier.Notify(roomID, nil, uisync.StatusIdle)
		return ErrEmptyQueue
	}

	// A current item may already be set (e.g. by Previous); otherwise pop
	// the next ready item.
	item := q.Current()
	if item == nil {
		item = q.Next()
	}
	if item == nil {
		sess.setState(StateIdle)
		e.notifier.Notify(roomID, nil, uisync.StatusIdle)
		return ErrEmptyQueue
	}
	sess.setState(StateStarting)

	if item.NeedsConversion() {
		converted, err := e.convert(ctx, item)
		if err != nil {
			e.log.Warn("conversion failed, skipping item",
				logging.String("room", roomID),
				logging.String("title", item.Title),
				logging.Error(err))
			item.Failed = true
			q.ArchiveCurrent()
			return e.startLocked(ctx, roomID, attempts-1)
		}
		q.SetCurrent(converted)
		item = converted
	}

	src, fromCache, err := e.obtainSource(ctx, q, item)
	if err != nil {
		e.log.Error("could not obtain stream, skipping item",
			logging.String("room", roomID),
			logging.String("title", item.Title),
			logging.Error(err))
		e.recordPlaybackError(roomID)
		item.Failed = true
		q.ArchiveCurrent()
		return e.startLocked(ctx, roomID, attempts-1)
	}
	if fromCache {
		e.recordCacheHit(roomID)
	} else {
		e.recordCacheMiss(roomID)
	}

	done, err := t.Play(src)
	if err != nil {
		src.Cleanup()
		e.log.Error("transport rejected playback",
			logging.String("room", roomID), logging.Error(err))
		e.recordPlaybackError(roomID)
		item.Failed = true
		q.ArchiveCurrent()
		return e.startLocked(ctx, roomID, attempts-1)
	}

	// Confirm the transport actually entered a playing state before
	// declaring the session live.
	if e.confirmWait > 0 {
		time.Sleep(e.confirmWait)
	}
	if !t.IsPlaying() {
		t.Stop()
		src.Cleanup()
		e.log.Warn("playback did not start, retrying",
			logging.String("room", roomID), logging.String("title", item.Title))
		return e.startLocked(ctx, roomID, attempts-1)
	}

	gen := sess.beginPlayback(item, time.Now())
	go e.watch(roomID, gen, src, done)

	e.recordPlay(roomID)
	e.log.Info("playing",
		logging.String("room", roomID), logging.String("title", item.Title))
	e.notifier.Notify(roomID, item, uisync.StatusPlaying)

	if e.prefetcher != nil {
		go e.prefetcher.Run(context.Background(), roomID)
	}
	return nil
}

func (e *Engine) convert(ctx context.Context, item *queue.Item) (*queue.Item, error) {
	cctx, cancel := context.WithTimeout(ctx, e.resolveTimeout)
	defer cancel()

	resolved, err := e.resolver.Resolve(cctx, item.Conversion.Query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResolution, err)
	}
	// Preserve requester identity across the conversion.
	resolved.RequestedBy = item.RequestedBy
	if resolved.ID == "" {
		resolved.ID = item.ID
	}
	return resolved, nil
}

// obtainSource consumes a prefetched handle when one exists, otherwise
// constructs one under the shared retry policy.
func (e *Engine) obtainSource(ctx context.Context, q *queue.Queue, item *queue.Item) (Source, bool, error) {
	if h, ok := q.CacheTake(item.URL); ok {
		if src, isSource := h.(Source); isSource {
			return src, true, nil
		}
	}

	var src Source
	err := e.constructPolicy.Do(ctx, func(attempt int) error {
		s, constructErr := e.sources.Construct(ctx, item.URL, q.Volume(), 0)
		if constructErr != nil {
			e.log.Warn("stream construction failed",
				logging.String("title", item.Title),
				logging.Int("attempt", attempt),
				logging.Error(constructErr))
			return constructErr
		}
		src = s
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrHandleConstruction, err)
	}
	return src, false, nil
}

func (e *Engine) watch(roomID string, gen uint64, src Source, done <-chan error) {
	err := <-done
	e.onCompletion(roomID, gen, src, err)
}

type afterAction int

const (
	actionIdle afterAction = iota
	actionRestart
	actionSuperseded
)

// onCompletion is the completion hook, invoked exactly once per confirmed
// playback. Nothing may panic out of here: the transport's completion
// context must never see a failure, so the room is forced back to a
// recoverable Idle instead.
func (e *Engine) onCompletion(roomID string, gen uint64, src Source, playErr error) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("completion handler panicked",
				logging.String("room", roomID),
				logging.String("panic", fmt.Sprintf("%v", r)))
			e.session(roomID).setState(StateIdle)
			e.notifier.Notify(roomID, nil, uisync.StatusIdle)
		}
	}()

	src.Cleanup()

	if playErr != nil {
		e.log.Warn("playback ended with error",
			logging.String("room", roomID), logging.Error(playErr))
		e.recordPlaybackError(roomID)
	}

	switch e.completeLocked(roomID, gen) {
	case actionSuperseded:
		return
	case actionRestart:
		e.pause(e.advancePause)
		if err := e.Play(context.Background(), roomID); err != nil {
			e.log.Warn("could not continue playback",
				logging.String("room", roomID), logging.Error(err))
		}
	case actionIdle:
		e.notifier.Notify(roomID, nil, uisync.StatusIdle)
	}
}

// completeLocked does the queue bookkeeping for a finished playback under
// the room lock and decides what happens next.
func (e *Engine) completeLocked(roomID string, gen uint64) afterAction {
	lock := e.registry.Lock(roomID)
	lock.Lock()
	defer lock.Unlock()

	q := e.registry.Get(roomID)

	// A seek or a failed start confirmation already superseded this
	// playback; its bookkeeping happened elsewhere.
	finished, manual, ok := e.session(roomID).finish(gen)
	if !ok {
		return actionSuperseded
	}

	if manual {
		// Skip/stop finished the playing track. Previous installs a
		// different current that must survive untouched.
		if cur := q.Current(); cur != nil && cur == finished {
			q.ArchiveCurrent()
		}
		if q.Current() != nil || q.HasReady() {
			return actionRestart
		}
		return actionIdle
	}

	// Natural end of track.
	q.ArchiveCurrent()
	if q.Loop() && finished != nil {
		q.Requeue(finished)
	}
	if q.HasReady() {
		return actionRestart
	}
	return actionIdle
}

// Skip stops the current track; the completion hook advances the queue.
// A room with nothing playing is left untouched.
func (e *Engine) Skip(roomID string) error {
	lock := e.registry.Lock(roomID)
	lock.Lock()
	defer lock.Unlock()

	t := e.transport(roomID)
	if t == nil {
		return ErrNoTransport
	}
	if !t.IsPlaying() && !t.IsPaused() {
		return ErrNothingPlaying
	}

	// The flag must be set before the stop so the completion hook can
	// tell this apart from a natural end of track.
	e.session(roomID).setState(StateStoppingManual)
	t.Stop()
	return nil
}

// Stop halts playback and clears the room's queue and prefetch cache.
func (e *Engine) Stop(roomID string) error {
	lock := e.registry.Lock(roomID)
	lock.Lock()
	defer lock.Unlock()

	q := e.registry.Get(roomID)
	sess := e.session(roomID)
	t := e.transport(roomID)

	// Archive before clearing so the stopped track stays reachable through
	// history; Clear nils current without archiving.
	q.ArchiveCurrent()
	q.Clear()

	if t != nil && (t.IsPlaying() || t.IsPaused()) {
		sess.setState(StateStoppingManual)
		t.Stop()
		return nil
	}
	sess.setState(StateIdle)
	e.notifier.Notify(roomID, nil, uisync.StatusIdle)
	return nil
}

// Previous replays the most recent history entry, pushing the current
// track back to the front of the ready list.
func (e *Engine) Previous(ctx context.Context, roomID string) error {
	lock := e.registry.Lock(roomID)
	lock.Lock()
	defer lock.Unlock()

	q := e.registry.Get(roomID)
	if q.HistoryLen() == 0 {
		return ErrNoHistory
	}
	t := e.transport(roomID)
	if t == nil {
		return ErrNoTransport
	}
	if q.Previous() == nil {
		return ErrNoHistory
	}

	if t.IsPlaying() || t.IsPaused() {
		e.session(roomID).setState(StateStoppingManual)
		t.Stop()
		// The completion hook restarts with the restored current item.
		return nil
	}
	return e.startLocked(ctx, roomID, q.ReadyLen()+1)
}

// Pause suspends the current track.
func (e *Engine) Pause(roomID string) error {
	t := e.transport(roomID)
	if t == nil {
		return ErrNoTransport
	}
	if !t.IsPlaying() {
		return ErrNothingPlaying
	}
	if err := t.Pause(); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	q := e.registry.Get(roomID)
	e.notifier.Notify(roomID, q.Current(), uisync.StatusPaused)
	return nil
}

// Resume continues a paused track.
func (e *Engine) Resume(roomID string) error {
	t := e.transport(roomID)
	if t == nil {
		return ErrNoTransport
	}
	if !t.IsPaused() {
		return ErrNothingPlaying
	}
	if err := t.Resume(); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	q := e.registry.Get(roomID)
	e.notifier.Notify(roomID, q.Current(), uisync.StatusPlaying)
	return nil
}

// Seek restarts the current track at the given offset. Failure leaves the
// room idle and is reported to the caller rather than retried.
func (e *Engine) Seek(ctx context.Context, roomID string, pos time.Duration) error {
	lock := e.registry.Lock(roomID)
	lock.Lock()
	defer lock.Unlock()

	q := e.registry.Get(roomID)
	sess := e.session(roomID)
	t := e.transport(roomID)
	if t == nil {
		return ErrNoTransport
	}
	cur := q.Current()
	if cur == nil {
		return ErrNothingPlaying
	}

	// Supersede the in-flight watch before stopping so the completion
	// hook does not treat the stop as an end of track.
	sess.supersede()
	t.Stop()

	src, err := e.sources.Construct(ctx, cur.URL, q.Volume(), pos)
	if err != nil {
		sess.setState(StateIdle)
		e.notifier.Notify(roomID, nil, uisync.StatusIdle)
		return fmt.Errorf("%w: %v", ErrHandleConstruction, err)
	}
	done, err := t.Play(src)
	if err != nil {
		src.Cleanup()
		sess.setState(StateIdle)
		e.notifier.Notify(roomID, nil, uisync.StatusIdle)
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}

	// Keep position() accurate: elapsed = now - startedAt = pos.
	gen := sess.beginPlayback(cur, time.Now().Add(-pos))
	go e.watch(roomID, gen, src, done)

	e.notifier.Notify(roomID, cur, uisync.StatusPlaying)
	return nil
}

// HasTransport reports whether a voice transport is attached for the room.
func (e *Engine) HasTransport(roomID string) bool {
	return e.transport(roomID) != nil
}

// IsPlaying reports whether the room's transport is actively playing.
func (e *Engine) IsPlaying(roomID string) bool {
	t := e.transport(roomID)
	return t != nil && t.IsPlaying()
}

// Position returns the elapsed playback time for the room, or 0.
func (e *Engine) Position(roomID string) time.Duration {
	return e.session(roomID).position()
}

// RoomState returns the room's playback state.
func (e *Engine) RoomState(roomID string) State {
	return e.session(roomID).currentState()
}

// QueueInfo returns a point-in-time snapshot of the room's queue.
func (e *Engine) QueueInfo(roomID string) queue.Snapshot {
	return e.registry.Get(roomID).Snapshot()
}

// SetLoop toggles loop mode and schedules a render.
func (e *Engine) SetLoop(roomID string, on bool) {
	q := e.registry.Get(roomID)
	q.SetLoop(on)
	e.notifyCurrent(roomID)
}

// SetVolume clamps and applies the room volume, returning the value used.
// Takes effect from the next constructed stream.
func (e *Engine) SetVolume(roomID string, volume int) int {
	v := e.registry.Get(roomID).SetVolume(volume)
	e.notifyCurrent(roomID)
	return v
}

// ShuffleQueue randomly permutes the room's ready list.
func (e *Engine) ShuffleQueue(roomID string) {
	e.registry.Get(roomID).Shuffle()
	e.notifyCurrent(roomID)
}

func (e *Engine) notifyCurrent(roomID string) {
	q := e.registry.Get(roomID)
	t := e.transport(roomID)
	switch {
	case t != nil && t.IsPlaying():
		e.notifier.Notify(roomID, q.Current(), uisync.StatusPlaying)
	case t != nil && t.IsPaused():
		e.notifier.Notify(roomID, q.Current(), uisync.StatusPaused)
	default:
		e.notifier.Notify(roomID, nil, uisync.StatusIdle)
	}
}

func (e *Engine) pause(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

func (e *Engine) recordPlay(roomID string) {
	if e.metrics != nil {
		e.metrics.RecordPlay(roomID)
	}
}

func (e *Engine) recordPlaybackError(roomID string) {
	if e.metrics != nil {
		e.metrics.RecordPlaybackError(roomID)
	}
}

func (e *Engine) recordCacheHit(roomID string) {
	if e.metrics != nil {
		e.metrics.RecordCacheHit(roomID)
	}
}

func (e *Engine) recordCacheMiss(roomID string) {
	if e.metrics != nil {
		e.metrics.RecordCacheMiss(roomID)
	}
}
