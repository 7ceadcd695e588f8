package queue

import (
	"math/rand"
	"sync"
	"time"
)

const (
	historyCap = 10
	minVolume  = 10
	maxVolume  = 200
)

// Queue holds a single room's ordered playback state: raw requests waiting
// for resolution, resolved items ready to play, the current item, a bounded
// play history and the room's loop/volume settings. Multi-step playback
// transitions additionally hold the room lock from the Registry; the
// internal mutex only keeps individual operations and snapshot reads safe.
type Queue struct {
	roomID string

	mu        sync.RWMutex
	pending   []*RawRequest
	ready     []*Item
	current   *Item
	history   []*Item
	loopMode  bool
	volume    int
	resolving bool
	cache     map[string]Handle
}

// New creates an empty queue for a room.
func New(roomID string) *Queue {
	return &Queue{
		roomID: roomID,
		volume: 100,
		cache:  make(map[string]Handle),
	}
}

// RoomID returns the owning room id.
func (q *Queue) RoomID() string {
	return q.roomID
}

// EnqueueRequest appends a raw request to the pending list, assigning the
// next monotonic order when the request carries none. No resolution
// happens here.
func (q *Queue) EnqueueRequest(req *RawRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if req.Order == 0 {
		maxOrder := 0
		for _, p := range q.pending {
			if p.Order > maxOrder {
				maxOrder = p.Order
			}
		}
		req.Order = maxOrder + 1
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}
	q.pending = append(q.pending, req)
}

// DequeueRequest pops the oldest pending request, or nil when none remain.
func (q *Queue) DequeueRequest() *RawRequest {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil
	}
	req := q.pending[0]
	q.pending = q.pending[1:]
	return req
}

// EnqueueReady appends a resolved item to the ready list.
func (q *Queue) EnqueueReady(item *Item) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ready = append(q.ready, item)
}

// Next archives the current item into history and promotes the head of the
// ready list. Returns nil when the ready list is empty, leaving current
// unset.
func (q *Queue) Next() *Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.archiveCurrentLocked()

	if len(q.ready) == 0 {
		q.current = nil
		return nil
	}
	q.current = q.ready[0]
	q.ready = q.ready[1:]
	return q.current
}

// Previous undoes Next: the current item goes back to the front of the
// ready list and the most recent history entry becomes current. Returns
// nil when history is empty.
func (q *Queue) Previous() *Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.history) == 0 {
		return nil
	}
	if q.current != nil && q.current.Title != "" {
		q.ready = append([]*Item{q.current}, q.ready...)
	}
	q.current = q.history[len(q.history)-1]
	q.history = q.history[:len(q.history)-1]
	return q.current
}

// archiveCurrentLocked pushes current into history, deduplicating by id
// against the most recent entry. Caller holds q.mu.
func (q *Queue) archiveCurrentLocked() {
	if q.current == nil || q.current.Title == "" {
		return
	}
	if n := len(q.history); n > 0 && q.history[n-1].ID == q.current.ID {
		return
	}
	q.history = append(q.history, q.current)
	if len(q.history) > historyCap {
		q.history = q.history[len(q.history)-historyCap:]
	}
}

// ArchiveCurrent moves the current item into history and clears it.
func (q *Queue) ArchiveCurrent() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.archiveCurrentLocked()
	q.current = nil
}

// Requeue pushes an item back onto the front of the ready list. Loop mode
// and Previous both rely on front insertion so the item plays next.
func (q *Queue) Requeue(item *Item) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ready = append([]*Item{item}, q.ready...)
}

// Current returns the currently playing item, or nil.
func (q *Queue) Current() *Item {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.current
}

// SetCurrent replaces the current item in place. Used when a deferred
// conversion resolves the item to a concrete stream.
func (q *Queue) SetCurrent(item *Item) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.current = item
}

// Shuffle randomly permutes the ready list. Current and history are
// untouched.
func (q *Queue) Shuffle() {
	q.mu.Lock()
	defer q.mu.Unlock()
	rand.Shuffle(len(q.ready), func(i, j int) {
		q.ready[i], q.ready[j] = q.ready[j], q.ready[i]
	})
}

// SetVolume clamps v to [10,200] and returns the applied value.
func (q *Queue) SetVolume(v int) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if v < minVolume {
		v = minVolume
	}
	if v > maxVolume {
		v = maxVolume
	}
	q.volume = v
	return v
}

// Volume returns the room volume percent.
func (q *Queue) Volume() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.volume
}

// SetLoop toggles loop mode.
func (q *Queue) SetLoop(on bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.loopMode = on
}

// Loop reports whether loop mode is on.
func (q *Queue) Loop() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.loopMode
}

// Clear empties the pending and ready lists, clears the current item and
// releases every cached handle. History survives so Previous keeps working
// after a stop.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending = nil
	q.ready = nil
	q.current = nil
	for url, h := range q.cache {
		h.Cleanup()
		delete(q.cache, url)
	}
}

// TryBeginResolve sets the resolving guard; at most one resolution pass
// runs per room. Returns false when a pass is already running.
func (q *Queue) TryBeginResolve() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.resolving {
		return false
	}
	q.resolving = true
	return true
}

// EndResolve clears the resolving guard.
func (q *Queue) EndResolve() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.resolving = false
}

// HasPending reports whether unresolved requests remain.
func (q *Queue) HasPending() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.pending) > 0
}

// HasReady reports whether resolved items are waiting to play.
func (q *Queue) HasReady() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.ready) > 0
}

// TotalCount returns pending plus ready sizes.
func (q *Queue) TotalCount() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.pending) + len(q.ready)
}

// HistoryLen returns the number of archived items.
func (q *Queue) HistoryLen() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.history)
}

// History returns a copy of the archived items, oldest first.
func (q *Queue) History() []*Item {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]*Item, len(q.history))
	copy(out, q.history)
	return out
}

// ReadyAhead returns up to n upcoming items without removing them.
func (q *Queue) ReadyAhead(n int) []*Item {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if n > len(q.ready) {
		n = len(q.ready)
	}
	out := make([]*Item, n)
	copy(out, q.ready[:n])
	return out
}

// ReadyLen returns the ready list depth.
func (q *Queue) ReadyLen() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.ready)
}

// CachePut stores a prefetched handle keyed by locator, releasing any
// handle it displaces.
func (q *Queue) CachePut(url string, h Handle) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if old, ok := q.cache[url]; ok && old != h {
		old.Cleanup()
	}
	q.cache[url] = h
}

// CacheTake removes and returns the cached handle for a locator. Entries
// are consumed exactly once.
func (q *Queue) CacheTake(url string) (Handle, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	h, ok := q.cache[url]
	if ok {
		delete(q.cache, url)
	}
	return h, ok
}

// CacheContains reports whether a locator is already prefetched.
func (q *Queue) CacheContains(url string) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	_, ok := q.cache[url]
	return ok
}

// CacheLen returns the number of prefetched handles.
func (q *Queue) CacheLen() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.cache)
}

// Snapshot returns a point-in-time view for rendering and queue listings.
func (q *Queue) Snapshot() Snapshot {
	q.mu.RLock()
	defer q.mu.RUnlock()

	next := make([]string, 0, 5)
	for i := 0; i < len(q.ready) && i < 5; i++ {
		next = append(next, q.ready[i].Title)
	}
	return Snapshot{
		Current:     q.current,
		NextTitles:  next,
		ReadySize:   len(q.ready),
		PendingSize: len(q.pending),
		TotalSize:   len(q.pending) + len(q.ready),
		LoopMode:    q.loopMode,
		Volume:      q.volume,
		HistorySize: len(q.history),
	}
}

// Empty reports whether the room has nothing pending, ready or playing.
// Used by the registry's idle sweep.
func (q *Queue) Empty() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.pending) == 0 && len(q.ready) == 0 && q.current == nil
}
