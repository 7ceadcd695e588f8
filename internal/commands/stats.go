package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/auroramusic/aurora/pkg/logging"
)

// StatsCommand shows the room's persisted playback counters.
func (h *Handler) StatsCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	if h.Stats == nil {
		sendEmbedMessage(s, m.ChannelID, "📊 Stats", "Stats are not enabled.", colorNeutral)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats, err := h.Stats.RoomStats(ctx, m.GuildID)
	if err != nil {
		h.Log.Error("stats query failed",
			logging.String("guild", m.GuildID), logging.Error(err))
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Could not load stats.", colorError)
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:     "📊 Playback Stats",
		Color:     colorInfo,
		Timestamp: time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Tracks played", Value: fmt.Sprintf("%d", stats.Plays), Inline: true},
			{Name: "Playback errors", Value: fmt.Sprintf("%d", stats.PlaybackErrors), Inline: true},
			{Name: "Prefetch hit rate", Value: fmt.Sprintf("%.0f%%", stats.CacheHitRate()*100), Inline: true},
		},
	}
	s.ChannelMessageSendEmbed(m.ChannelID, embed)
}
