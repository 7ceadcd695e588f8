package commands

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

// LoopCommand toggles loop mode, or sets it explicitly with on/off.
func (h *Handler) LoopCommand(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	h.Sink.SetChannel(m.GuildID, m.ChannelID)

	var on bool
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "on":
			on = true
		case "off":
			on = false
		default:
			sendEmbedMessage(s, m.ChannelID, "❌ Usage Error",
				"Usage: `!loop [on|off]`", colorError)
			return
		}
	} else {
		on = !h.Engine.QueueInfo(m.GuildID).LoopMode
	}

	h.Engine.SetLoop(m.GuildID, on)
	if on {
		sendEmbedMessage(s, m.ChannelID, "🔁 Loop On",
			"Finished tracks go back to the front of the queue.", colorSuccess)
		return
	}
	sendEmbedMessage(s, m.ChannelID, "➡️ Loop Off", "Loop mode disabled.", colorNeutral)
}
