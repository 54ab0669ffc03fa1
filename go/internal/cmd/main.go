package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gamenight/liveboard/go/clients/board_api_client"
	"github.com/gamenight/liveboard/go/internal/cache"
	"github.com/gamenight/liveboard/go/internal/dispatch"
	"github.com/gamenight/liveboard/go/internal/engine"
	"github.com/gamenight/liveboard/go/internal/poller"
	"github.com/gamenight/liveboard/go/internal/push"
	"github.com/gamenight/liveboard/go/internal/store"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	config, err := loadConfig(getEnv("LIVEBOARD_CONFIG", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Seed the store from the persistence cache so the UI has
	// something to show before the first network response lands.
	boardCache := cache.New(config.CacheDir)
	boardStore := store.New()
	boardStore.SeedAppState(boardCache.LoadAppState())
	if teams := boardCache.LoadTeams(); teams != nil {
		boardStore.SeedTeams(teams)
	}
	if name := boardCache.LoadUsername(); name != "" {
		boardStore.SetUsername(name)
	}
	boardStore.SetAdmin(config.Admin)

	syncEngine := engine.New(boardStore, boardCache)

	pushConfig := push.DefaultConfig(config.pushURL())
	pushConfig.MinReconnectWait = config.ReconnectMin
	pushConfig.MaxReconnectWait = config.ReconnectMax
	pushChannel := push.NewChannel(pushConfig, syncEngine.HandlePush)
	pushChannel.Start()

	apiClient := board_api_client.NewBoardApiClient(config.ServerURL)
	pull := poller.NewWithClock(apiClient, syncEngine.ApplySnapshot, config.PollInterval, clockwork.NewRealClock())
	pull.Start(ctx)

	dispatcher := dispatch.New(boardStore, apiClient, pushChannel, boardCache)
	if config.Username != "" && boardStore.Profile().Username == "" {
		if err := dispatcher.SetUsername(config.Username); err != nil {
			log.Warn().Err(err).Msg("failed to set username")
		}
	}

	boardStore.OnChange(func() {
		state := boardStore.AppState()
		log.Debug().
			Int("teams", len(boardStore.Teams())).
			Int("events", len(boardStore.Events())).
			Bool("torch", state.IsTorchLit).
			Msg("board state changed")
	})

	log.Info().
		Str("server", config.ServerURL).
		Str("push", config.pushURL()).
		Dur("poll_interval", config.PollInterval).
		Msg("liveboard client running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutting down")
	pull.Stop()
	pushChannel.Close()
	cancel()
}
