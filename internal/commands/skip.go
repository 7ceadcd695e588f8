package commands

import (
	"errors"

	"github.com/bwmarrin/discordgo"

	"github.com/auroramusic/aurora/pkg/player"
)

// SkipCommand stops the current track; the engine advances to the next
// one on its own.
func (h *Handler) SkipCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	h.Sink.SetChannel(m.GuildID, m.ChannelID)

	err := h.Engine.Skip(m.GuildID)
	switch {
	case err == nil:
		sendEmbedMessage(s, m.ChannelID, "⏭️ Skipped", "Moving to the next track.", colorSuccess)
	case errors.Is(err, player.ErrNothingPlaying):
		sendEmbedMessage(s, m.ChannelID, "🔇 Nothing Playing", "There is nothing to skip.", colorNeutral)
	case errors.Is(err, player.ErrNoTransport):
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Not connected to a voice channel.", colorError)
	default:
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Failed to skip.", colorError)
	}
}
