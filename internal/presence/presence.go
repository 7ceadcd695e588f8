// Package presence keeps the bot's Discord status in line with playback.
package presence

import (
	"strconv"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/auroramusic/aurora/pkg/logging"
	"github.com/auroramusic/aurora/pkg/queue"
	"github.com/auroramusic/aurora/pkg/uisync"
)

// Manager mirrors playback onto the bot's status line. While any room is
// playing the status shows the most recently started track; otherwise it
// falls back to a server count.
type Manager struct {
	session *discordgo.Session
	log     logging.Logger

	mu       sync.Mutex
	playing  map[string]string
	lastRoom string
}

// NewManager creates a presence manager for the session.
func NewManager(session *discordgo.Session, log logging.Logger) *Manager {
	return &Manager{
		session: session,
		log:     log.With(logging.String("component", "presence")),
		playing: make(map[string]string),
	}
}

// Notify implements uisync.Notifier so the manager can sit next to the
// UI projector on the engine's notification path.
func (m *Manager) Notify(roomID string, item *queue.Item, status uisync.Status) {
	m.mu.Lock()
	switch {
	case status == uisync.StatusPlaying && item != nil:
		m.playing[roomID] = item.Title
		m.lastRoom = roomID
	case status == uisync.StatusPaused:
		// Paused rooms keep their title; the status only changes on idle.
	default:
		delete(m.playing, roomID)
	}
	m.updateLocked()
	m.mu.Unlock()
}

// UpdateDefault sets the fallback status showing how many servers the bot
// serves. Called at startup and periodically while nothing is playing.
func (m *Manager) UpdateDefault() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.playing) == 0 {
		m.updateLocked()
	}
}

// StartPeriodicUpdates refreshes the default status on a ticker so the
// server count stays current. Stops when stop is closed.
func (m *Manager) StartPeriodicUpdates(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.UpdateDefault()
			case <-stop:
				return
			}
		}
	}()
}

func (m *Manager) updateLocked() {
	var data discordgo.UpdateStatusData
	data.Status = "online"

	if title, ok := m.currentTitleLocked(); ok {
		data.Activities = []*discordgo.Activity{{
			Name:  "to",
			Type:  discordgo.ActivityTypeListening,
			State: title,
		}}
	} else {
		guilds := len(m.session.State.Guilds)
		data.Activities = []*discordgo.Activity{{
			Name:  "music",
			Type:  discordgo.ActivityTypeListening,
			State: "in " + strconv.Itoa(guilds) + " servers",
		}}
	}

	if err := m.session.UpdateStatusComplex(data); err != nil {
		m.log.Warn("presence update failed", logging.Error(err))
	}
}

func (m *Manager) currentTitleLocked() (string, bool) {
	if title, ok := m.playing[m.lastRoom]; ok {
		return title, true
	}
	for _, title := range m.playing {
		return title, true
	}
	return "", false
}
