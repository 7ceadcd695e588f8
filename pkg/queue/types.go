package queue

import (
	"time"

	"github.com/google/uuid"
)

// RawRequest is an unresolved play request. It is immutable once created
// and consumed exactly once by the resolution step.
type RawRequest struct {
	Query       string
	Item        *Item // pre-resolved item, e.g. a playlist or catalog entry
	RequestedBy string
	Order       int
	Timestamp   time.Time
}

// Conversion marks an item that still needs a catalog-to-stream conversion
// step before it can play. Query is the pre-built search text.
type Conversion struct {
	Query string
}

// Item is a resolved, playable unit owned by the queue once appended.
type Item struct {
	ID          string
	Title       string
	URL         string // stream locator handed to the source factory
	Duration    time.Duration
	Uploader    string
	RequestedBy string

	// Conversion is non-nil while the item still needs a deferred
	// conversion step; the engine resolves it at start time.
	Conversion *Conversion

	// Failed is set when the item could not be played after retries.
	Failed bool
}

// NewItem creates an item with a generated id when the source provides none.
func NewItem(title, url string) *Item {
	return &Item{
		ID:    uuid.NewString(),
		Title: title,
		URL:   url,
	}
}

// NeedsConversion reports whether the item carries a pending conversion step.
func (i *Item) NeedsConversion() bool {
	return i != nil && i.Conversion != nil
}

// Handle is a pre-constructed playable resource cached by the prefetcher.
// Cleanup releases any underlying process or socket deterministically.
type Handle interface {
	Cleanup()
}

// Snapshot is a read-only view of a room's queue state.
type Snapshot struct {
	Current     *Item
	NextTitles  []string // up to five upcoming titles
	ReadySize   int
	PendingSize int
	TotalSize   int
	LoopMode    bool
	Volume      int
	HistorySize int
}
