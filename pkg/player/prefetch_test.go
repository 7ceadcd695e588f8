package player

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auroramusic/aurora/pkg/logging"
	"github.com/auroramusic/aurora/pkg/queue"
)

func newTestPrefetcher(factory SourceFactory, playing func(string) bool) (*Prefetcher, *queue.Registry) {
	reg := queue.NewRegistry()
	p := NewPrefetcher(reg, factory, playing, logging.Null(),
		WithPrefetchTimings(time.Second, 0))
	return p, reg
}

func neverPlaying(string) bool { return false }

func TestPrefetcher_FillsDefaultBatch(t *testing.T) {
	factory := &fakeFactory{fail: map[string]error{}}
	p, reg := newTestPrefetcher(factory, neverPlaying)
	q := reg.Get(testRoom)
	for _, id := range []string{"a", "b", "c"} {
		q.EnqueueReady(readyItem(id, id))
	}

	p.Run(context.Background(), testRoom)

	assert.Equal(t, 2, q.CacheLen(), "shallow queues prefetch two items")
	assert.True(t, q.CacheContains("https://stream/a"))
	assert.True(t, q.CacheContains("https://stream/b"))
	assert.False(t, q.CacheContains("https://stream/c"))
}

func TestPrefetcher_BatchGrowsWithQueueDepth(t *testing.T) {
	cases := []struct {
		name  string
		depth int
		want  int
	}{
		{"shallow", 4, 2},
		{"medium", 7, 3},
		{"deep", 12, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			factory := &fakeFactory{fail: map[string]error{}}
			p, reg := newTestPrefetcher(factory, neverPlaying)
			q := reg.Get(testRoom)
			for i := 0; i < tc.depth; i++ {
				q.EnqueueReady(readyItem(string(rune('a'+i)), "x"))
			}

			p.Run(context.Background(), testRoom)

			assert.Equal(t, tc.want, q.CacheLen())
		})
	}
}

func TestPrefetcher_SkipsCachedConversionAndFailedItems(t *testing.T) {
	factory := &fakeFactory{fail: map[string]error{}}
	p, reg := newTestPrefetcher(factory, neverPlaying)
	q := reg.Get(testRoom)

	already := readyItem("a", "Cached")
	q.EnqueueReady(already)
	q.CachePut(already.URL, &fakeSource{url: already.URL})
	q.EnqueueReady(&queue.Item{ID: "sp", Title: "Unconverted",
		Conversion: &queue.Conversion{Query: "artist - title"}})
	failed := readyItem("f", "Broken")
	failed.Failed = true
	q.EnqueueReady(failed)

	p.Run(context.Background(), testRoom)

	assert.Equal(t, 0, factory.callCount(), "nothing eligible to construct")
	assert.Equal(t, 1, q.CacheLen())
}

func TestPrefetcher_ConstructionFailureDoesNotStopBatch(t *testing.T) {
	factory := &fakeFactory{fail: map[string]error{
		"https://stream/a": errors.New("403"),
	}}
	p, reg := newTestPrefetcher(factory, neverPlaying)
	q := reg.Get(testRoom)
	q.EnqueueReady(readyItem("a", "Song A"))
	q.EnqueueReady(readyItem("b", "Song B"))

	p.Run(context.Background(), testRoom)

	assert.False(t, q.CacheContains("https://stream/a"))
	assert.True(t, q.CacheContains("https://stream/b"))
}

func TestPrefetcher_SingleRunPerRoom(t *testing.T) {
	release := make(chan struct{})
	factory := &blockingFactory{release: release}
	p, reg := newTestPrefetcher(factory, neverPlaying)
	q := reg.Get(testRoom)
	q.EnqueueReady(readyItem("a", "Song A"))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.Run(context.Background(), testRoom)
	}()

	waitFor(t, func() bool { return factory.started() > 0 }, "first run should reach the factory")
	p.Run(context.Background(), testRoom) // must return immediately, guard held
	close(release)
	wg.Wait()

	assert.Equal(t, 1, factory.started(), "overlapping run was rejected")
}

func TestPrefetcher_FollowUpPassWhilePlaying(t *testing.T) {
	factory := &fakeFactory{fail: map[string]error{}}
	reg := queue.NewRegistry()

	var mu sync.Mutex
	remaining := 2
	playing := func(string) bool {
		mu.Lock()
		defer mu.Unlock()
		remaining--
		return remaining >= 0
	}

	p := NewPrefetcher(reg, factory, playing, logging.Null(),
		WithPrefetchTimings(time.Second, 5*time.Millisecond))
	q := reg.Get(testRoom)
	q.EnqueueReady(readyItem("a", "Song A"))

	p.Run(context.Background(), testRoom)

	// First pass cached the item; the follow-up pass ran and found it
	// cached, then the probe reported not playing and Run returned.
	assert.Equal(t, 1, q.CacheLen())
	assert.Equal(t, 1, factory.callCount())
}

type blockingFactory struct {
	mu      sync.Mutex
	starts  int
	release chan struct{}
}

func (f *blockingFactory) Construct(ctx context.Context, url string, vol int, startAt time.Duration) (Source, error) {
	f.mu.Lock()
	f.starts++
	f.mu.Unlock()
	select {
	case <-f.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &fakeSource{url: url, vol: vol, start: startAt}, nil
}

func (f *blockingFactory) started() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

var _ SourceFactory = (*blockingFactory)(nil)

func TestPrefetcher_EngineConsumesPrefetchedHandle(t *testing.T) {
	e, reg, tr, factory, _, _, metrics := newTestEngine(t)
	p := NewPrefetcher(reg, factory, e.IsPlaying, logging.Null(),
		WithPrefetchTimings(time.Second, 0))
	q := reg.Get(testRoom)
	q.EnqueueReady(readyItem("a", "Song A"))
	q.EnqueueReady(readyItem("b", "Song B"))

	p.Run(context.Background(), testRoom)
	require.Equal(t, 2, q.CacheLen())

	require.NoError(t, e.Play(context.Background(), testRoom))
	tr.finish(nil)

	waitFor(t, func() bool { return len(tr.played()) == 2 }, "expected both tracks to play")
	assert.Equal(t, 2, metrics.hits, "both starts consumed prefetched handles")
	assert.Equal(t, 2, factory.callCount(), "factory only ran during prefetch")
}
