// Command syncpass runs one scoreboard sync pass over the configured
// date window and exits. Exits non-zero when no date could be fetched,
// so cron-driven invocations surface total feed outages.
package main

import (
	"context"
	"errors"
	"strconv"
	"time"

	"nbasync/ingestion/internal/cache"
	"nbasync/ingestion/internal/config"
	"nbasync/ingestion/internal/feed"
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

	feedClient := feed.NewClient(cfg.FeedBaseURL, cfg.FeedTimeout)
	storeClient := store.NewClient(cfg.StoreBaseURL, cfg.StoreToken, cfg.StoreBaseID, cfg.StoreTimeout)
	games := storeClient.Table(cfg.GamesTableName)
	events := storeClient.Table(cfg.EventsTableName)
	teams := storeClient.Table(cfg.TeamsTableName)

	redisCache, err := cache.NewRedisCache(cache.Config{
		Host:     cfg.RedisHost,
		Port:     strconv.Itoa(cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      time.Duration(cfg.CacheTTLTeams) * time.Second,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without cache")
		redisCache = nil
	} else {
		defer redisCache.Close()
	}

	links := sync.NewLinkResolver(teams, events, games, redisCache)
	engine := sync.NewEngine(games, links, lg)
	runner := sync.NewRunner(feedClient, engine, lg)

	dates := sync.Dates(time.Now(), sync.Options{
		DayOffset: cfg.DayOffset,
		DaysBack:  cfg.DaysBack,
		DaysAhead: cfg.DaysAhead,
		Ascending: cfg.Ascending,
	})
	log.Info().Strs("dates", dates).Str("league", lg.Tag).Msg("Starting sync pass")

	summary, err := runner.Run(ctx, dates)
	if err != nil {
		if errors.Is(err, sync.ErrNoData) {
			log.Fatal().Err(err).Msg("No scoreboard data fetched")
		}
		log.Fatal().Err(err).Msg("Sync pass failed")
	}

	log.Info().
		Int("inserted", summary.Inserted).
		Int("updated", summary.Updated).
		Int("unchanged", summary.Unchanged).
		Int("failed", summary.Failed).
		Msg("Sync pass complete")
}
