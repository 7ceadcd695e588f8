package discord

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/auroramusic/aurora/pkg/queue"
	"github.com/auroramusic/aurora/pkg/uisync"
)

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0:05", FormatDuration(5*time.Second))
	assert.Equal(t, "3:35", FormatDuration(215*time.Second))
	assert.Equal(t, "1:01:05", FormatDuration(time.Hour+65*time.Second))
}

func TestBuildEmbed_PlayingShowsTrackAndUpNext(t *testing.T) {
	snap := queue.Snapshot{
		NextTitles: []string{"Second Song", "Third Song", "Fourth Song", "Fifth Song", "Sixth Song"},
		ReadySize:  9,
		TotalSize:  10,
		Volume:     120,
		LoopMode:   true,
	}
	item := &queue.Item{
		Title:       "First Song",
		Uploader:    "ChannelA",
		Duration:    215 * time.Second,
		RequestedBy: "alice",
	}

	embed := buildEmbed(snap, item, uisync.StatusPlaying)

	assert.Equal(t, "🎵 Now Playing", embed.Title)
	assert.Contains(t, embed.Description, "First Song")
	assert.Contains(t, embed.Description, "ChannelA")
	assert.Contains(t, embed.Footer.Text, "Volume 120%")
	assert.Contains(t, embed.Footer.Text, "Loop on")

	last := embed.Fields[len(embed.Fields)-1]
	assert.Equal(t, "Up next", last.Name)
	assert.Contains(t, last.Value, "1. Second Song")
	assert.Contains(t, last.Value, "…and 4 more")
}

func TestBuildEmbed_IdleWithoutItem(t *testing.T) {
	embed := buildEmbed(queue.Snapshot{Volume: 100}, nil, uisync.StatusIdle)

	assert.Equal(t, "💤 Waiting", embed.Title)
	assert.Contains(t, embed.Description, "Queue is empty")
}

func TestSink_SetChannelResetsControllerOnMove(t *testing.T) {
	s := &Sink{
		channels: map[string]string{"g": "chan-1"},
		messages: map[string]messageRef{"g": {channelID: "chan-1", messageID: "m1"}},
	}

	s.SetChannel("g", "chan-2")

	_, have := s.messages["g"]
	assert.False(t, have, "controller message is abandoned when the channel changes")
	assert.Equal(t, "chan-2", s.channels["g"])
}
