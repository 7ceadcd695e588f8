package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// ShuffleCommand randomly reorders the upcoming tracks.
func (h *Handler) ShuffleCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	h.Sink.SetChannel(m.GuildID, m.ChannelID)

	snap := h.Engine.QueueInfo(m.GuildID)
	if snap.ReadySize < 2 {
		sendEmbedMessage(s, m.ChannelID, "📭 Not Enough Songs",
			"Need at least 2 upcoming tracks to shuffle.", colorNeutral)
		return
	}

	h.Engine.ShuffleQueue(m.GuildID)
	sendEmbedMessage(s, m.ChannelID, "🔀 Shuffled",
		fmt.Sprintf("Reordered %d upcoming tracks.", snap.ReadySize), colorSuccess)
}
