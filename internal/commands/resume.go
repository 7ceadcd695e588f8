package commands

import (
	"errors"

	"github.com/bwmarrin/discordgo"

	"github.com/auroramusic/aurora/pkg/player"
)

// ResumeCommand continues a paused track.
func (h *Handler) ResumeCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	h.Sink.SetChannel(m.GuildID, m.ChannelID)

	err := h.Engine.Resume(m.GuildID)
	switch {
	case err == nil:
		sendEmbedMessage(s, m.ChannelID, "▶️ Resumed", "Playback resumed.", colorSuccess)
	case errors.Is(err, player.ErrNothingPlaying):
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Nothing is paused.", colorError)
	default:
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Failed to resume.", colorError)
	}
}
