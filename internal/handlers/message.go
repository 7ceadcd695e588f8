// Package handlers routes Discord gateway events to the bot's commands.
package handlers

import (
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/auroramusic/aurora/internal/commands"
)

const prefix = "!"

// Router dispatches prefix commands to the command handlers.
type Router struct {
	Commands *commands.Handler
}

// HandleMessage is registered as the discordgo MessageCreate handler.
func (r *Router) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore all messages created by the bot itself
	if m.Author.ID == s.State.User.ID {
		return
	}
	if m.GuildID == "" || !strings.HasPrefix(m.Content, prefix) {
		return
	}

	args := strings.Fields(strings.TrimPrefix(m.Content, prefix))
	if len(args) == 0 {
		return
	}
	command := strings.ToLower(args[0])
	args = args[1:]

	h := r.Commands
	switch command {
	case "play", "p":
		h.PlayCommand(s, m, args)
	case "skip":
		h.SkipCommand(s, m)
	case "previous", "prev", "back":
		h.PreviousCommand(s, m)
	case "pause":
		h.PauseCommand(s, m)
	case "resume":
		h.ResumeCommand(s, m)
	case "seek":
		h.SeekCommand(s, m, args)
	case "stop":
		h.StopCommand(s, m)
	case "queue", "q":
		h.QueueCommand(s, m)
	case "nowplaying", "np":
		h.NowPlayingCommand(s, m)
	case "shuffle":
		h.ShuffleCommand(s, m)
	case "loop":
		h.LoopCommand(s, m, args)
	case "volume", "vol":
		h.VolumeCommand(s, m, args)
	case "stats":
		h.StatsCommand(s, m)
	case "leave":
		h.LeaveCommand(s, m)
	case "help", "h":
		h.ShowHelpCommand(s, m)
	}
}
