package uisync

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auroramusic/aurora/pkg/logging"
	"github.com/auroramusic/aurora/pkg/queue"
	"github.com/auroramusic/aurora/pkg/retry"
)

type renderCall struct {
	roomID string
	snap   queue.Snapshot
	item   *queue.Item
	status Status
}

type fakeSink struct {
	mu    sync.Mutex
	calls []renderCall
	errs  []error // consumed per call, nil when exhausted
}

func (f *fakeSink) Render(roomID string, snap queue.Snapshot, item *queue.Item, status Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, renderCall{roomID, snap, item, status})
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return err
	}
	return nil
}

func (f *fakeSink) rendered() []renderCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]renderCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func waitForRenders(t *testing.T, sink *fakeSink, n int) []renderCall {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if calls := sink.rendered(); len(calls) >= n {
			return calls
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d renders, got %d", n, len(sink.rendered()))
	return nil
}

func newTestSync(sink *fakeSink, window time.Duration) (*Sync, *queue.Registry) {
	reg := queue.NewRegistry()
	s := New(reg, sink, logging.Null(),
		WithWindow(window),
		WithRetryPolicy(retry.NoDelay(2)))
	return s, reg
}

func TestSync_CoalescesRapidNotifications(t *testing.T) {
	sink := &fakeSink{}
	s, _ := newTestSync(sink, 100*time.Millisecond)

	itemA := &queue.Item{ID: "a", Title: "Song A"}
	itemC := &queue.Item{ID: "c", Title: "Song C"}

	// Three notifies inside one window: only the last may render.
	s.Notify("guild-1", itemA, StatusLoading)
	s.Notify("guild-1", &queue.Item{ID: "b", Title: "Song B"}, StatusLoading)
	s.Notify("guild-1", itemC, StatusPlaying)

	waitForRenders(t, sink, 1)
	time.Sleep(150 * time.Millisecond)

	calls := sink.rendered()
	require.Len(t, calls, 1, "three notifies inside the window produce one render")
	assert.Equal(t, itemC, calls[0].item)
	assert.Equal(t, StatusPlaying, calls[0].status)
}

func TestSync_ReadsLiveStateAtFireTime(t *testing.T) {
	sink := &fakeSink{}
	s, reg := newTestSync(sink, 80*time.Millisecond)

	s.Notify("guild-1", nil, StatusIdle)
	// Queue changes after notify but before the render fires.
	reg.Get("guild-1").EnqueueReady(&queue.Item{ID: "a", Title: "Song A"})

	calls := waitForRenders(t, sink, 1)
	assert.Equal(t, 1, calls[0].snap.ReadySize, "render reflects state at fire time")
}

func TestSync_HonorsCooldownBetweenRenders(t *testing.T) {
	sink := &fakeSink{}
	s, _ := newTestSync(sink, 120*time.Millisecond)

	s.Notify("guild-1", nil, StatusIdle)
	waitForRenders(t, sink, 1)

	start := time.Now()
	s.Notify("guild-1", nil, StatusPlaying)
	calls := waitForRenders(t, sink, 2)
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond,
		"second render waits out the remaining window")
	assert.Len(t, calls, 2)
}

func TestSync_RoomsDoNotInterfere(t *testing.T) {
	sink := &fakeSink{}
	s, _ := newTestSync(sink, 50*time.Millisecond)

	s.Notify("guild-1", nil, StatusPlaying)
	s.Notify("guild-2", nil, StatusIdle)

	calls := waitForRenders(t, sink, 2)
	rooms := map[string]bool{}
	for _, c := range calls {
		rooms[c.roomID] = true
	}
	assert.True(t, rooms["guild-1"])
	assert.True(t, rooms["guild-2"])
}

func TestSync_RetriesOnceOnRateLimit(t *testing.T) {
	sink := &fakeSink{errs: []error{ErrRateLimited}}
	s, _ := newTestSync(sink, 20*time.Millisecond)

	s.Notify("guild-1", nil, StatusPlaying)

	calls := waitForRenders(t, sink, 2)
	assert.Len(t, calls, 2, "rate-limited render is retried exactly once")
}

func TestSync_DropsOtherFailures(t *testing.T) {
	sink := &fakeSink{errs: []error{assert.AnError}}
	s, _ := newTestSync(sink, 20*time.Millisecond)

	s.Notify("guild-1", nil, StatusPlaying)

	waitForRenders(t, sink, 1)
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, sink.rendered(), 1, "non-rate-limit failures are not retried")
}

func TestSync_Flush_FiresPendingImmediately(t *testing.T) {
	sink := &fakeSink{}
	s, _ := newTestSync(sink, 10*time.Second)

	s.Notify("guild-1", nil, StatusIdle)
	s.Flush("guild-1")

	calls := waitForRenders(t, sink, 1)
	assert.Equal(t, StatusIdle, calls[0].status)
}
