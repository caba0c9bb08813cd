package repository

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	coodecraft "github.com/codebytemirza/coodecraft"
	"github.com/codebytemirza/coodecraft/config"
)

func New(ctx context.Context, cfg config.Database) (coodecraft.Repository, error) {
	if cfg.Type == "mongo" {
		log.Info().Msg("creating mongo repository")
		return newMongoRepository(ctx, cfg.Mongo)
	} else if cfg.Type == "firestore" {
		log.Info().Msg("creating firestore repository")
		return newFirestoreRepository(ctx, cfg.Firestore)
	} else if cfg.Type == "sqlite" {
		log.Info().Msg("creating sqlite repository")
		return newSQLiteRepository(ctx, cfg.SQLite)
	} else {
		return nil, errors.New("invalid database type")
	}
}
