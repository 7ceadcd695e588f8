package commands

import (
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
)

// VolumeCommand shows or sets the room volume. Values are clamped to
// 10-200 percent and take effect from the next track.
func (h *Handler) VolumeCommand(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	h.Sink.SetChannel(m.GuildID, m.ChannelID)

	if len(args) == 0 {
		snap := h.Engine.QueueInfo(m.GuildID)
		sendEmbedMessage(s, m.ChannelID, "🔊 Volume",
			fmt.Sprintf("Current volume is **%d%%**.", snap.Volume), colorInfo)
		return
	}

	requested, err := strconv.Atoi(args[0])
	if err != nil {
		sendEmbedMessage(s, m.ChannelID, "❌ Usage Error",
			"Usage: `!volume [10-200]`", colorError)
		return
	}

	applied := h.Engine.SetVolume(m.GuildID, requested)
	description := fmt.Sprintf("Volume set to **%d%%**. Applies from the next track.", applied)
	if applied != requested {
		description = fmt.Sprintf("Volume clamped to **%d%%**. Applies from the next track.", applied)
	}
	sendEmbedMessage(s, m.ChannelID, "🔊 Volume", description, colorSuccess)
}
