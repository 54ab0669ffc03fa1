package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gamenight/liveboard/go/internal/devserver"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	addr := os.Getenv("LIVEBOARD_DEV_ADDR")
	if addr == "" {
		addr = ":8090"
	}

	board := devserver.NewBoard()
	devserver.SeedDemo(board)

	hub := devserver.NewHub(devserver.DefaultHubConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Start(ctx)

	server := devserver.NewServer(board, hub)
	httpServer := &http.Server{Addr: addr, Handler: server.Handler()}

	go func() {
		log.Info().Str("addr", addr).Msg("dev server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("dev server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutting down")
	cancel()
	httpServer.Shutdown(context.Background())
}
