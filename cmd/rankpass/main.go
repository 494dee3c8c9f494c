// Command rankpass recomputes the Teams rank column once and exits.
package main

import (
	"context"

	"nbasync/ingestion/internal/config"
	"nbasync/ingestion/internal/store"
	"nbasync/ingestion/internal/sync"

	"github.com/rs/zerolog/log"
)

func main() {
	ctx := context.Background()
	cfg := config.MustLoad()

	lg, ok := sync.LeagueByTag(cfg.League)
	if !ok {
		log.Fatal().Str("league", cfg.League).Msg("Unknown league")
	}

	statField := cfg.RankStatField
	if statField == "" {
		statField = lg.StatField
	}

	storeClient := store.NewClient(cfg.StoreBaseURL, cfg.StoreToken, cfg.StoreBaseID, cfg.StoreTimeout)
	rank := sync.NewRankJob(storeClient.Table(cfg.TeamsTableName))

	log.Info().Str("league", lg.Tag).Str("stat", statField).Msg("Starting rank recomputation")

	if err := rank.Recompute(ctx, lg.Tag, statField); err != nil {
		log.Fatal().Err(err).Msg("Rank recomputation failed")
	}

	log.Info().Msg("Rank recomputation complete")
}
