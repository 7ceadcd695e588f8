package commands

import (
	"github.com/bwmarrin/discordgo"

	"github.com/auroramusic/aurora/internal/discord"
)

// LeaveCommand stops playback, detaches the transport and leaves the
// voice channel. The room's queue state is swept later once it is empty.
func (h *Handler) LeaveCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	guildID := m.GuildID

	h.Engine.Stop(guildID)
	h.Engine.DetachTransport(guildID)
	discord.Disconnect(s, guildID)

	sendEmbedMessage(s, m.ChannelID, "👋 Disconnected",
		"Left the voice channel.", colorNeutral)
}
