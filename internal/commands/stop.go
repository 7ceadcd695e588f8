package commands

import (
	"github.com/bwmarrin/discordgo"
)

// StopCommand halts playback and empties the queue. History survives so
// !previous still works afterwards.
func (h *Handler) StopCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	h.Sink.SetChannel(m.GuildID, m.ChannelID)

	if err := h.Engine.Stop(m.GuildID); err != nil {
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Failed to stop playback.", colorError)
		return
	}
	sendEmbedMessage(s, m.ChannelID, "⏹️ Stopped", "Playback stopped and queue cleared.", colorNeutral)
}
