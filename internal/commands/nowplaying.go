package commands

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/auroramusic/aurora/internal/discord"
)

// NowPlayingCommand shows the current track and elapsed position.
func (h *Handler) NowPlayingCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	snap := h.Engine.QueueInfo(m.GuildID)

	if snap.Current == nil {
		embed := &discordgo.MessageEmbed{
			Title:       "🎵 Now Playing",
			Description: "Nothing is currently playing",
			Color:       colorNeutral,
			Timestamp:   time.Now().Format(time.RFC3339),
			Footer: &discordgo.MessageEmbedFooter{
				Text: "Use !play to start playing music",
			},
		}
		s.ChannelMessageSendEmbed(m.ChannelID, embed)
		return
	}

	item := snap.Current
	description := fmt.Sprintf("**%s**", item.Title)
	if item.Uploader != "" {
		description += fmt.Sprintf("\nby %s", item.Uploader)
	}

	position := h.Engine.Position(m.GuildID)
	var progress string
	if item.Duration > 0 {
		progress = fmt.Sprintf("%s / %s",
			discord.FormatDuration(position),
			discord.FormatDuration(item.Duration))
	} else {
		progress = discord.FormatDuration(position)
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🎵 Now Playing",
		Description: description,
		Color:       colorSuccess,
		Timestamp:   time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Position", Value: progress, Inline: true},
			{Name: "Requested by", Value: orDash(item.RequestedBy), Inline: true},
		},
	}
	s.ChannelMessageSendEmbed(m.ChannelID, embed)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
