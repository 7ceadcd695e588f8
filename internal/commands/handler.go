// Package commands implements the prefix commands that drive playback.
package commands

import (
	"github.com/bwmarrin/discordgo"

	"github.com/auroramusic/aurora/internal/discord"
	"github.com/auroramusic/aurora/pkg/audio"
	"github.com/auroramusic/aurora/pkg/logging"
	"github.com/auroramusic/aurora/pkg/metrics"
	"github.com/auroramusic/aurora/pkg/player"
	"github.com/auroramusic/aurora/pkg/queue"
	"github.com/auroramusic/aurora/pkg/uisync"
)

// Handler carries the shared dependencies of all playback commands.
type Handler struct {
	Engine   *player.Engine
	Registry *queue.Registry
	Sync     *uisync.Sync
	Sink     *discord.Sink
	Stats    *metrics.Store
	Log      logging.Logger
}

// ensureVoice joins the caller's voice channel and attaches a transport
// when the room has none yet.
func (h *Handler) ensureVoice(s *discordgo.Session, m *discordgo.MessageCreate) error {
	guildID := m.GuildID
	if h.Engine.HasTransport(guildID) {
		return nil
	}

	vc, err := discord.FindAndJoinUserVoiceChannel(s, m.Author.ID, guildID, h.Log)
	if err != nil {
		return err
	}
	h.Engine.AttachTransport(guildID, audio.NewPlayer(vc, h.Log))
	return nil
}
