package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Get_CreatesLazily(t *testing.T) {
	r := NewRegistry()

	q1 := r.Get("guild-1")
	require.NotNil(t, q1)
	assert.Same(t, q1, r.Get("guild-1"), "same queue on repeat access")
	assert.NotSame(t, q1, r.Get("guild-2"))
}

func TestRegistry_Lock_IsPerRoom(t *testing.T) {
	r := NewRegistry()

	l1 := r.Lock("guild-1")
	l2 := r.Lock("guild-2")
	assert.Same(t, l1, r.Lock("guild-1"))
	assert.NotSame(t, l1, l2)
}

func TestRegistry_SweepIdle_RemovesEmptyRooms(t *testing.T) {
	r := NewRegistry()

	r.Get("idle").EnqueueReady(readyItem("a", "Song A"))
	r.Get("idle").Next() // now playing, ready empty
	r.Get("empty")
	busy := r.Get("busy")
	busy.EnqueueReady(readyItem("b", "Song B"))

	// "idle" still has a current item, so only "empty" goes.
	removed := r.SweepIdle()
	assert.Equal(t, 1, removed)
	assert.ElementsMatch(t, []string{"idle", "busy"}, r.ActiveRooms())

	r.Get("idle").ArchiveCurrent()
	removed = r.SweepIdle()
	assert.Equal(t, 1, removed)
	assert.Equal(t, []string{"busy"}, r.ActiveRooms())
}

func TestRegistry_Remove_ClearsQueue(t *testing.T) {
	r := NewRegistry()
	q := r.Get("guild-1")
	h := &fakeHandle{}
	q.CachePut("url", h)

	r.Remove("guild-1")

	assert.Equal(t, 1, h.cleaned)
	assert.Empty(t, r.ActiveRooms())
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q := r.Get("guild-1")
			q.EnqueueRequest(&RawRequest{Query: "x"})
			r.Lock("guild-1")
		}()
	}
	wg.Wait()

	assert.Equal(t, 16, r.Get("guild-1").TotalCount())
}
