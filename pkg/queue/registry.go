package queue

import "sync"

// Registry owns one Queue and one room lock per room. Queues are created
// lazily on first access and removed by SweepIdle once fully empty.
// Cross-room operations never contend for the same lock.
type Registry struct {
	mu     sync.Mutex
	queues map[string]*Queue
	locks  map[string]*sync.Mutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		queues: make(map[string]*Queue),
		locks:  make(map[string]*sync.Mutex),
	}
}

// Get returns the room's queue, creating an empty one on first call.
func (r *Registry) Get(roomID string) *Queue {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.queues[roomID]
	if !ok {
		q = New(roomID)
		r.queues[roomID] = q
	}
	return q
}

// Lock returns the room's mutual-exclusion handle. All playback-affecting
// transitions (start, skip, previous, stop) hold it for their critical
// section.
func (r *Registry) Lock(roomID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.locks[roomID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[roomID] = l
	}
	return l
}

// Remove clears and deletes the room's queue and lock.
func (r *Registry) Remove(roomID string) {
	r.mu.Lock()
	q := r.queues[roomID]
	delete(r.queues, roomID)
	delete(r.locks, roomID)
	r.mu.Unlock()

	if q != nil {
		q.Clear()
	}
}

// ActiveRooms returns the ids of all rooms with a queue.
func (r *Registry) ActiveRooms() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms := make([]string, 0, len(r.queues))
	for id := range r.queues {
		rooms = append(rooms, id)
	}
	return rooms
}

// SweepIdle removes rooms whose queue is fully empty and returns how many
// were removed. Run periodically, never from inside a playback operation.
func (r *Registry) SweepIdle() int {
	r.mu.Lock()
	var idle []string
	for id, q := range r.queues {
		if q.Empty() {
			idle = append(idle, id)
		}
	}
	r.mu.Unlock()

	for _, id := range idle {
		r.Remove(id)
	}
	return len(idle)
}
