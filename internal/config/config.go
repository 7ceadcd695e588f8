package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ErrDiscordTokenNotSet means the bot cannot authenticate.
var ErrDiscordTokenNotSet = errors.New("DISCORD_TOKEN is not set")

// Config carries everything the bot needs at startup. Only the Discord
// token is mandatory; the rest has working defaults.
type Config struct {
	DiscordToken string

	DBPath     string
	FFmpegPath string
	YtdlpPath  string

	RenderWindow  time.Duration
	SweepInterval time.Duration

	LogLevel string
}

// LoadConfig reads configuration from a .env file (when present) and the
// process environment.
func LoadConfig() (*Config, error) {
	// A missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	token := os.Getenv("DISCORD_TOKEN")
	if token == "" {
		return nil, ErrDiscordTokenNotSet
	}

	return &Config{
		DiscordToken:  token,
		DBPath:        envOr("AURORA_DB_PATH", "aurora.db"),
		FFmpegPath:    envOr("AURORA_FFMPEG_PATH", "ffmpeg"),
		YtdlpPath:     envOr("AURORA_YTDLP_PATH", "yt-dlp"),
		RenderWindow:  envMillis("AURORA_RENDER_WINDOW_MS", 500*time.Millisecond),
		SweepInterval: envMillis("AURORA_SWEEP_INTERVAL_MS", 5*time.Minute),
		LogLevel:      envOr("AURORA_LOG_LEVEL", "info"),
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envMillis(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
