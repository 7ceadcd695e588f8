package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_RequiresToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")

	_, err := LoadConfig()
	assert.ErrorIs(t, err, ErrDiscordTokenNotSet)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token-123")
	t.Setenv("AURORA_DB_PATH", "")
	t.Setenv("AURORA_RENDER_WINDOW_MS", "")
	t.Setenv("AURORA_SWEEP_INTERVAL_MS", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "token-123", cfg.DiscordToken)
	assert.Equal(t, "aurora.db", cfg.DBPath)
	assert.Equal(t, "ffmpeg", cfg.FFmpegPath)
	assert.Equal(t, "yt-dlp", cfg.YtdlpPath)
	assert.Equal(t, 500*time.Millisecond, cfg.RenderWindow)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token-123")
	t.Setenv("AURORA_DB_PATH", "/var/lib/aurora/metrics.db")
	t.Setenv("AURORA_RENDER_WINDOW_MS", "250")
	t.Setenv("AURORA_SWEEP_INTERVAL_MS", "60000")
	t.Setenv("AURORA_LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/aurora/metrics.db", cfg.DBPath)
	assert.Equal(t, 250*time.Millisecond, cfg.RenderWindow)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token-123")
	t.Setenv("AURORA_RENDER_WINDOW_MS", "not-a-number")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, cfg.RenderWindow)
}
