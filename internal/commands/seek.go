package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/auroramusic/aurora/internal/discord"
	"github.com/auroramusic/aurora/pkg/player"
)

// SeekCommand restarts the current track at the given position. Accepts
// plain seconds ("90"), m:ss ("1:30") or h:mm:ss.
func (h *Handler) SeekCommand(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	h.Sink.SetChannel(m.GuildID, m.ChannelID)

	if len(args) < 1 {
		sendEmbedMessage(s, m.ChannelID, "❌ Usage Error",
			"Usage: `!seek <seconds|m:ss>`", colorError)
		return
	}

	pos, err := parseTimestamp(args[0])
	if err != nil {
		sendEmbedMessage(s, m.ChannelID, "❌ Usage Error",
			"Could not read that position. Try `!seek 90` or `!seek 1:30`.", colorError)
		return
	}

	err = h.Engine.Seek(context.Background(), m.GuildID, pos)
	switch {
	case err == nil:
		sendEmbedMessage(s, m.ChannelID, "⏩ Seek",
			fmt.Sprintf("Jumped to %s.", discord.FormatDuration(pos)), colorSuccess)
	case errors.Is(err, player.ErrNothingPlaying):
		sendEmbedMessage(s, m.ChannelID, "🔇 Nothing Playing",
			"There is nothing to seek in.", colorNeutral)
	default:
		sendEmbedMessage(s, m.ChannelID, "❌ Seek Failed",
			"Could not restart the stream at that position.", colorError)
	}
}

func parseTimestamp(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("too many segments")
	}

	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid timestamp %q", s)
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second, nil
}
