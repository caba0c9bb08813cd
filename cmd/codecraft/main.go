package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/codebytemirza/coodecraft/config"
	"github.com/codebytemirza/coodecraft/reconcile"
	"github.com/codebytemirza/coodecraft/remove"
	"github.com/codebytemirza/coodecraft/repository"
	"github.com/codebytemirza/coodecraft/server"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		log.Info().Msg("received interrupt, shutting down")
		cancel()
	}()

	cfg, err := config.ReadConfig()
	if err != nil {
		log.Panic().Err(err).Msg("failed to read config")
	}

	repo, err := repository.New(ctx, cfg.Database)
	if err != nil {
		log.Panic().Err(err).Msg("failed to create repository")
	}
	defer func() {
		closeCtx, cancelClose := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelClose()
		if err := repo.Close(closeCtx); err != nil {
			log.Error().Err(err).Msg("failed to close repository")
		}
	}()

	reconciler := reconcile.NewReconciler(repo)
	remover := remove.NewRemover(repo)

	srv := server.NewServer(cfg.Server.Addr, cfg.Server.AdminPassword, repo, reconciler, remover)
	if err := srv.Start(ctx); err != nil {
		log.Panic().Err(err).Msg("server failure")
	}
}
