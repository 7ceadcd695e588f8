package commands

import (
	"errors"

	"github.com/bwmarrin/discordgo"

	"github.com/auroramusic/aurora/pkg/player"
)

// PauseCommand suspends the current track in place.
func (h *Handler) PauseCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	h.Sink.SetChannel(m.GuildID, m.ChannelID)

	err := h.Engine.Pause(m.GuildID)
	switch {
	case err == nil:
		sendEmbedMessage(s, m.ChannelID, "⏸️ Paused", "Playback paused.", colorInfo)
	case errors.Is(err, player.ErrNothingPlaying):
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Nothing is playing.", colorError)
	default:
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Failed to pause.", colorError)
	}
}
