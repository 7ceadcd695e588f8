package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/auroramusic/aurora/internal/commands"
	"github.com/auroramusic/aurora/internal/config"
	"github.com/auroramusic/aurora/internal/discord"
	"github.com/auroramusic/aurora/internal/handlers"
	"github.com/auroramusic/aurora/internal/presence"
	"github.com/auroramusic/aurora/internal/resolver"
	"github.com/auroramusic/aurora/pkg/audio"
	"github.com/auroramusic/aurora/pkg/logging"
	"github.com/auroramusic/aurora/pkg/metrics"
	"github.com/auroramusic/aurora/pkg/player"
	"github.com/auroramusic/aurora/pkg/queue"
	"github.com/auroramusic/aurora/pkg/uisync"
)

const metricsRetention = 90 * 24 * time.Hour

// notifierFanout forwards engine notifications to every registered
// notifier (the UI projector and the presence manager).
type notifierFanout []uisync.Notifier

func (f notifierFanout) Notify(roomID string, item *queue.Item, status uisync.Status) {
	for _, n := range f {
		n.Notify(roomID, item, status)
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(logging.ParseLevel(cfg.LogLevel), "text", os.Stdout)

	store, err := metrics.NewStore(cfg.DBPath, logger)
	if err != nil {
		log.Fatalf("Failed to open metrics store: %v", err)
	}
	defer store.Close()
	store.StartCleanup(24*time.Hour, metricsRetention)

	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		log.Fatalf("Failed to create Discord session: %v", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentMessageContent

	registry := queue.NewRegistry()
	sink := discord.NewSink(dg, logger)
	sync := uisync.New(registry, sink, logger, uisync.WithWindow(cfg.RenderWindow))
	pres := presence.NewManager(dg, logger)

	factory := audio.NewFactory(cfg.FFmpegPath, logger)
	engine := player.NewEngine(
		registry,
		resolver.New(cfg.YtdlpPath, logger),
		factory,
		notifierFanout{sync, pres},
		logger,
		player.WithMetrics(store),
	)
	engine.SetPrefetcher(player.NewPrefetcher(registry, factory, engine.IsPlaying, logger))

	router := &handlers.Router{Commands: &commands.Handler{
		Engine:   engine,
		Registry: registry,
		Sync:     sync,
		Sink:     sink,
		Stats:    store,
		Log:      logger,
	}}
	dg.AddHandler(router.HandleMessage)

	if err := dg.Open(); err != nil {
		log.Fatalf("Failed to open Discord session: %v", err)
	}
	defer dg.Close()

	stop := make(chan struct{})
	pres.UpdateDefault()
	pres.StartPeriodicUpdates(5*time.Minute, stop)

	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := registry.SweepIdle(); n > 0 {
					logger.Debug("swept idle rooms", logging.Int("count", n))
				}
			case <-stop:
				return
			}
		}
	}()

	logger.Info("bot is running, press CTRL-C to exit")
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	close(stop)
	for _, roomID := range registry.ActiveRooms() {
		engine.Stop(roomID)
		engine.DetachTransport(roomID)
		sync.Flush(roomID)
	}
}
