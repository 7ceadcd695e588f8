package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/auroramusic/aurora/internal/discord"
)

// QueueCommand shows what is playing and what comes next.
func (h *Handler) QueueCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	snap := h.Engine.QueueInfo(m.GuildID)

	if snap.Current == nil && snap.TotalSize == 0 {
		sendEmbedMessage(s, m.ChannelID, "📭 Queue Empty",
			"Nothing queued. Use `!play` to add something.", colorNeutral)
		return
	}

	var b strings.Builder
	if snap.Current != nil {
		fmt.Fprintf(&b, "**Now:** %s", snap.Current.Title)
		if snap.Current.Duration > 0 {
			fmt.Fprintf(&b, " (%s)", discord.FormatDuration(snap.Current.Duration))
		}
		b.WriteString("\n\n")
	}
	for i, title := range snap.NextTitles {
		fmt.Fprintf(&b, "%d. %s\n", i+1, title)
	}
	if remaining := snap.ReadySize - len(snap.NextTitles); remaining > 0 {
		fmt.Fprintf(&b, "…and %d more ready\n", remaining)
	}
	if snap.PendingSize > 0 {
		fmt.Fprintf(&b, "\n%d request(s) still resolving", snap.PendingSize)
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🎶 Queue",
		Description: b.String(),
		Color:       colorInfo,
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%d track(s) total • Volume %d%% • Loop %s",
				snap.TotalSize, snap.Volume, loopLabel(snap.LoopMode)),
		},
	}
	s.ChannelMessageSendEmbed(m.ChannelID, embed)
}

func loopLabel(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
