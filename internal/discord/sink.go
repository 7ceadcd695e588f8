package discord

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/auroramusic/aurora/pkg/logging"
	"github.com/auroramusic/aurora/pkg/queue"
	"github.com/auroramusic/aurora/pkg/uisync"
)

const (
	colorPlaying = 0x1DB954
	colorPaused  = 0xFAA61A
	colorIdle    = 0x808080
)

type messageRef struct {
	channelID string
	messageID string
}

// Sink renders room state into a per-guild controller embed. The first
// render for a room sends a new message; later renders edit it in place.
type Sink struct {
	session *discordgo.Session
	log     logging.Logger

	mu       sync.Mutex
	channels map[string]string     // room -> command channel
	messages map[string]messageRef // room -> controller message
}

// NewSink creates an embed renderer bound to a Discord session.
func NewSink(session *discordgo.Session, log logging.Logger) *Sink {
	return &Sink{
		session:  session,
		log:      log.With(logging.String("component", "sink")),
		channels: make(map[string]string),
		messages: make(map[string]messageRef),
	}
}

// SetChannel records the text channel the room's controller embed lives
// in. Called whenever a playback command arrives so renders follow the
// conversation.
func (s *Sink) SetChannel(roomID, channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.channels[roomID] != channelID {
		s.channels[roomID] = channelID
		// The old controller message is in another channel now; start over.
		delete(s.messages, roomID)
	}
}

// Render implements the render sink: one embed per room, edited in place.
// A Discord 429 surfaces as the rate-limit error so the synchronizer can
// retry once.
func (s *Sink) Render(roomID string, snap queue.Snapshot, item *queue.Item, status uisync.Status) error {
	s.mu.Lock()
	channelID, ok := s.channels[roomID]
	ref, haveMsg := s.messages[roomID]
	s.mu.Unlock()
	if !ok {
		// No command has been issued in this room yet; nothing to render to.
		return nil
	}

	embed := buildEmbed(snap, item, status)

	var err error
	if haveMsg && ref.channelID == channelID {
		_, err = s.session.ChannelMessageEditEmbed(ref.channelID, ref.messageID, embed)
	} else {
		var msg *discordgo.Message
		msg, err = s.session.ChannelMessageSendEmbed(channelID, embed)
		if err == nil {
			s.mu.Lock()
			s.messages[roomID] = messageRef{channelID: channelID, messageID: msg.ID}
			s.mu.Unlock()
		}
	}

	if err != nil {
		if isRateLimited(err) {
			return uisync.ErrRateLimited
		}
		return fmt.Errorf("failed to render controller embed: %v", err)
	}
	return nil
}

func isRateLimited(err error) bool {
	if restErr, ok := err.(*discordgo.RESTError); ok {
		return restErr.Response != nil && restErr.Response.StatusCode == http.StatusTooManyRequests
	}
	if _, ok := err.(*discordgo.RateLimitError); ok {
		return true
	}
	return false
}

func buildEmbed(snap queue.Snapshot, item *queue.Item, status uisync.Status) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Timestamp: time.Now().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Volume %d%% • Loop %s", snap.Volume, onOff(snap.LoopMode)),
		},
	}

	switch status {
	case uisync.StatusPlaying:
		embed.Title = "🎵 Now Playing"
		embed.Color = colorPlaying
	case uisync.StatusPaused:
		embed.Title = "⏸️ Paused"
		embed.Color = colorPaused
	case uisync.StatusLoading:
		embed.Title = "⏳ Loading"
		embed.Color = colorPaused
	default:
		embed.Title = "💤 Waiting"
		embed.Color = colorIdle
	}

	if item != nil {
		embed.Description = fmt.Sprintf("**%s**", item.Title)
		if item.Uploader != "" {
			embed.Description += fmt.Sprintf("\nby %s", item.Uploader)
		}
		fields := []*discordgo.MessageEmbedField{}
		if item.Duration > 0 {
			fields = append(fields, &discordgo.MessageEmbedField{
				Name: "Duration", Value: FormatDuration(item.Duration), Inline: true,
			})
		}
		if item.RequestedBy != "" {
			fields = append(fields, &discordgo.MessageEmbedField{
				Name: "Requested by", Value: item.RequestedBy, Inline: true,
			})
		}
		embed.Fields = fields
	} else if status == uisync.StatusIdle {
		embed.Description = "Queue is empty. Use `!play` to add something."
	}

	if len(snap.NextTitles) > 0 {
		var b strings.Builder
		for i, title := range snap.NextTitles {
			fmt.Fprintf(&b, "%d. %s\n", i+1, title)
		}
		remaining := snap.ReadySize - len(snap.NextTitles)
		if remaining > 0 {
			fmt.Fprintf(&b, "…and %d more", remaining)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Up next", Value: b.String(),
		})
	}

	return embed
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// FormatDuration renders a track length as m:ss or h:mm:ss.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
