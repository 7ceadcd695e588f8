package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/auroramusic/aurora/internal/resolver"
	"github.com/auroramusic/aurora/pkg/logging"
	"github.com/auroramusic/aurora/pkg/player"
	"github.com/auroramusic/aurora/pkg/queue"
)

// PlayCommand queues a link, playlist or search query and starts playback
// if the room is idle. Resolution happens off the handler goroutine so
// Discord events are never blocked on yt-dlp.
func (h *Handler) PlayCommand(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if len(args) < 1 {
		sendEmbedMessage(s, m.ChannelID, "❌ Usage Error",
			"Please provide a link or a search query.", colorError)
		return
	}

	guildID := m.GuildID
	h.Sink.SetChannel(guildID, m.ChannelID)

	if err := h.ensureVoice(s, m); err != nil {
		sendEmbedMessage(s, m.ChannelID, "❌ Voice Error", err.Error(), colorError)
		return
	}

	input := strings.Join(args, " ")

	if resolver.IsPlaylistURL(input) {
		h.playPlaylist(s, m, guildID, input)
		return
	}

	h.Engine.Submit(guildID, &queue.RawRequest{
		Query:       input,
		RequestedBy: m.Author.Username,
	})
	sendEmbedMessage(s, m.ChannelID, "🎵 Queued",
		fmt.Sprintf("Looking up **%s**…", input), colorSuccess)

	go func() {
		h.Engine.ProcessPending(context.Background(), guildID)
		h.startPlayback(s, m.ChannelID, guildID)
	}()
}

func (h *Handler) playPlaylist(s *discordgo.Session, m *discordgo.MessageCreate, guildID, url string) {
	go func() {
		info, err := h.Engine.SubmitPlaylist(context.Background(), guildID, url, m.Author.Username)
		if err != nil {
			h.Log.Warn("playlist resolution failed",
				logging.String("guild", guildID), logging.Error(err))
			sendEmbedMessage(s, m.ChannelID, "❌ Playlist Error",
				"Could not read that playlist.", colorError)
			return
		}
		sendEmbedMessage(s, m.ChannelID, "🎵 Playlist Queued",
			fmt.Sprintf("**%s** (%d tracks added)", info.Title, info.Count), colorSuccess)

		h.Engine.ProcessPending(context.Background(), guildID)
		h.startPlayback(s, m.ChannelID, guildID)
	}()
}

// startPlayback kicks the engine and reports resolution dead ends. A room
// that is already playing makes this a no-op.
func (h *Handler) startPlayback(s *discordgo.Session, channelID, guildID string) {
	err := h.Engine.Play(context.Background(), guildID)
	if err == nil {
		return
	}
	if errors.Is(err, player.ErrEmptyQueue) {
		if !h.Engine.IsPlaying(guildID) {
			sendEmbedMessage(s, channelID, "❌ Nothing to Play",
				"Could not resolve anything playable from that request.", colorError)
		}
		return
	}
	h.Log.Error("playback start failed",
		logging.String("guild", guildID), logging.Error(err))
	sendEmbedMessage(s, channelID, "❌ Playback Error",
		"Something went wrong starting playback.", colorError)
}
