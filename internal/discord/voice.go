// Package discord binds the playback core to discordgo: voice connection
// management and the embed renderer driven by the UI synchronizer.
package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/auroramusic/aurora/pkg/logging"
	"github.com/auroramusic/aurora/pkg/retry"
)

var joinPolicy = retry.Policy{
	MaxAttempts: 3,
	Backoff:     retry.LinearBackoff(time.Second),
}

// FindAndJoinUserVoiceChannel joins the voice channel the user is sitting
// in and waits for the connection to become ready.
func FindAndJoinUserVoiceChannel(s *discordgo.Session, userID, guildID string, log logging.Logger) (*discordgo.VoiceConnection, error) {
	guild, err := s.State.Guild(guildID)
	if err != nil {
		return nil, fmt.Errorf("could not find guild: %v", err)
	}

	var userChannelID string
	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID {
			userChannelID = vs.ChannelID
			break
		}
	}
	if userChannelID == "" {
		return nil, fmt.Errorf("you must be in a voice channel to play music")
	}

	var vc *discordgo.VoiceConnection
	err = joinPolicy.Do(context.Background(), func(attempt int) error {
		conn, joinErr := s.ChannelVoiceJoin(guildID, userChannelID, false, true)
		if joinErr != nil {
			log.Warn("voice join attempt failed",
				logging.String("guild", guildID),
				logging.Int("attempt", attempt),
				logging.Error(joinErr))
			return joinErr
		}
		vc = conn
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to join voice channel: %v", err)
	}

	timeout := time.After(10 * time.Second)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			vc.Disconnect()
			return nil, fmt.Errorf("voice connection timed out")
		case <-ticker.C:
			if vc.Ready {
				log.Info("voice connection ready",
					logging.String("guild", guildID),
					logging.String("channel", userChannelID))
				return vc, nil
			}
		}
	}
}

// Disconnect drops the guild's voice connection if one exists.
func Disconnect(s *discordgo.Session, guildID string) {
	for _, vc := range s.VoiceConnections {
		if vc.GuildID == guildID {
			vc.Disconnect()
			return
		}
	}
}
