package commands

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"

	"github.com/auroramusic/aurora/pkg/player"
)

// PreviousCommand replays the most recent track from history. Whatever
// was playing goes back to the front of the queue.
func (h *Handler) PreviousCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	h.Sink.SetChannel(m.GuildID, m.ChannelID)

	if err := h.ensureVoice(s, m); err != nil {
		sendEmbedMessage(s, m.ChannelID, "❌ Voice Error", err.Error(), colorError)
		return
	}

	err := h.Engine.Previous(context.Background(), m.GuildID)
	switch {
	case err == nil:
		sendEmbedMessage(s, m.ChannelID, "⏮️ Previous", "Going back one track.", colorSuccess)
	case errors.Is(err, player.ErrNoHistory):
		sendEmbedMessage(s, m.ChannelID, "📭 No History", "No earlier track to go back to.", colorNeutral)
	default:
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Failed to go back.", colorError)
	}
}
