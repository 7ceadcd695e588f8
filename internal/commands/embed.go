package commands

import (
	"github.com/bwmarrin/discordgo"
)

const (
	colorSuccess = 0x00ff00
	colorError   = 0xff0000
	colorInfo    = 0x7289DA
	colorNeutral = 0x808080
)

func sendEmbedMessage(s *discordgo.Session, channelID, title, description string, color int) {
	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
	}
	s.ChannelMessageSendEmbed(channelID, embed)
}
