package commands

import (
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// ShowHelpCommand lists every available command.
func (h *Handler) ShowHelpCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	embed := &discordgo.MessageEmbed{
		Title:       "Aurora",
		Description: "Here are all the available commands:",
		Color:       colorSuccess,
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Aurora Music",
		},
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "Playback",
				Value: strings.Join([]string{
					"• `!play <url|search>` / `!p` - Queue a track, playlist or search result",
					"• `!skip` - Skip the current track",
					"• `!previous` / `!prev` - Replay the previous track",
					"• `!pause` / `!resume` - Pause or continue playback",
					"• `!seek <seconds|m:ss>` - Jump to a position in the current track",
					"• `!stop` - Stop playback and clear the queue",
					"• `!leave` - Disconnect from the voice channel",
				}, "\n"),
			},
			{
				Name: "Queue",
				Value: strings.Join([]string{
					"• `!queue` / `!q` - Show the current queue",
					"• `!nowplaying` / `!np` - Show the current track and position",
					"• `!shuffle` - Shuffle the upcoming tracks",
					"• `!loop [on|off]` - Replay finished tracks",
					"• `!volume [10-200]` - Show or set the volume",
				}, "\n"),
			},
			{
				Name: "Info",
				Value: strings.Join([]string{
					"• `!stats` - Playback stats for this server",
					"• `!help` / `!h` - Show this message",
				}, "\n"),
			},
		},
	}
	s.ChannelMessageSendEmbed(m.ChannelID, embed)
}
