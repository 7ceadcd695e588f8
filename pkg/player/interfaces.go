package player

import (
	"context"
	"time"

	"github.com/auroramusic/aurora/pkg/queue"
)

// Resolver turns a query, URL or conversion hint into playable metadata.
// Implementations must be safe for concurrent use across rooms; per-call
// timeouts are enforced by the caller through ctx.
type Resolver interface {
	Resolve(ctx context.Context, query string) (*queue.Item, error)
	ResolvePlaylist(ctx context.Context, url string) (*PlaylistInfo, []*queue.Item, error)
}

// PlaylistInfo describes a resolved playlist.
type PlaylistInfo struct {
	Title string
	URL   string
	Count int
}

// Source is an opaque playable handle fed to a Transport. Cleanup releases
// any underlying process or socket resources deterministically.
type Source interface {
	queue.Handle
}

// SourceFactory constructs playable handles for a stream locator.
type SourceFactory interface {
	Construct(ctx context.Context, url string, volumePercent int, startAt time.Duration) (Source, error)
}

// Transport drives audio playback for one room's voice connection.
//
// Play starts the source and returns a single-shot completion channel that
// receives exactly one value when playback ends, whether it finished
// naturally, was stopped, or errored. The channel must be buffered so the
// transport never blocks on an absent listener.
type Transport interface {
	IsPlaying() bool
	IsPaused() bool
	Play(src Source) (<-chan error, error)
	Stop()
	Pause() error
	Resume() error
}

// Metrics records playback events. Implementations must tolerate
// concurrent calls; a nil Metrics disables recording.
type Metrics interface {
	RecordPlay(roomID string)
	RecordPlaybackError(roomID string)
	RecordCacheHit(roomID string)
	RecordCacheMiss(roomID string)
}
