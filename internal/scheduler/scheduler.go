package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"nbasync/ingestion/internal/config"
	"nbasync/ingestion/internal/sync"
)

// Scheduler manages background passes:
// - periodic scoreboard sync over the configured date window
// - nightly rank recomputation via cron
type Scheduler struct {
	cfg      *config.Config
	runner   *sync.Runner
	rank     *sync.RankJob
	league   sync.League
	cron     *cron.Cron
	ticker   *time.Ticker
	stopChan chan struct{}
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg *config.Config, runner *sync.Runner, rank *sync.RankJob, lg sync.League) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		runner:   runner,
		rank:     rank,
		league:   lg,
		cron:     cron.New(),
		stopChan: make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	// Nightly rank refresh
	if _, err := s.cron.AddFunc(s.cfg.RankRefreshCron, func() {
		log.Info().Msg("Running rank recomputation...")
		if err := s.rank.Recompute(ctx, s.league.Tag, s.cfg.RankStatField); err != nil {
			log.Error().Err(err).Msg("Rank recomputation failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule rank refresh: %w", err)
	}

	s.cron.Start()
	log.Info().
		Str("schedule", s.cfg.RankRefreshCron).
		Msg("Rank refresh scheduled")

	// Periodic scoreboard sync
	s.ticker = time.NewTicker(s.cfg.SyncInterval)
	log.Info().
		Dur("interval", s.cfg.SyncInterval).
		Msg("Scoreboard polling started")

	go s.pollScoreboard(ctx)

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")

	if s.cron != nil {
		s.cron.Stop()
	}

	if s.ticker != nil {
		s.ticker.Stop()
	}

	close(s.stopChan)
	log.Info().Msg("Scheduler stopped")
}

// pollScoreboard runs sync passes until stopped
func (s *Scheduler) pollScoreboard(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Context cancelled, stopping scoreboard polling")
			return
		case <-s.stopChan:
			log.Info().Msg("Stop signal received, stopping scoreboard polling")
			return
		case <-s.ticker.C:
			if err := s.RunSyncPass(ctx); err != nil {
				log.Error().Err(err).Msg("Sync pass failed")
			}
		}
	}
}

// RunSyncPass resolves the configured date window and runs one pass
func (s *Scheduler) RunSyncPass(ctx context.Context) error {
	start := time.Now()

	dates := sync.Dates(time.Now(), sync.Options{
		DayOffset: s.cfg.DayOffset,
		DaysBack:  s.cfg.DaysBack,
		DaysAhead: s.cfg.DaysAhead,
		Ascending: s.cfg.Ascending,
	})

	summary, err := s.runner.Run(ctx, dates)
	if err != nil {
		return err
	}

	log.Info().
		Strs("dates", dates).
		Int("records", summary.Total()).
		Int("inserted", summary.Inserted).
		Int("updated", summary.Updated).
		Int("failed", summary.Failed).
		Dur("duration", time.Since(start)).
		Msg("Sync pass complete")

	return nil
}
