package sync

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"nbasync/ingestion/internal/metrics"
	"nbasync/ingestion/internal/store"
)

// RankJob recomputes the dense 1..N rank column on the Teams table from
// an aggregate statistic, preserving the previous rank in a shadow
// column. Runs decoupled from any date's fetch.
type RankJob struct {
	teams Table
}

// NewRankJob creates a rank recomputation job
func NewRankJob(teams Table) *RankJob {
	return &RankJob{teams: teams}
}

// Recompute snapshots Rank into Rank Yesterday for every row in the
// league partition, then re-sorts the partition descending by statField
// and rewrites Rank as 1..N in that order. Ties keep the store's stable
// sort order, so tied teams do not churn run to run. The snapshot is
// best effort: partial failure never skips the reassignment.
func (j *RankJob) Recompute(ctx context.Context, leagueTag, statField string) error {
	partition := store.Eq(FieldLeague, leagueTag)

	// Step 1: snapshot current ranks into the shadow column
	rows, err := j.teams.Select(ctx, store.SelectOptions{
		FilterByFormula: partition,
		Fields:          []string{FieldRank},
	})
	if err != nil {
		log.Warn().Err(err).Str("league", leagueTag).Msg("Rank snapshot select failed, skipping shadow copy")
		metrics.RecordError("rank", "snapshot")
	} else {
		for _, row := range rows {
			rank, ok := row.Fields[FieldRank]
			if !ok {
				continue
			}
			if _, err := j.teams.Update(ctx, row.ID, store.Fields{FieldRankYesterday: rank}); err != nil {
				log.Warn().Err(err).Str("row", row.ID).Msg("Rank shadow copy failed for row")
				metrics.RecordError("rank", "snapshot")
			}
		}
		log.Debug().Int("rows", len(rows)).Msg("Rank shadow copy complete")
	}

	// Step 2: re-sort the partition and assign dense ranks
	sorted, err := j.teams.Select(ctx, store.SelectOptions{
		FilterByFormula: partition,
		Sort:            []store.SortField{{Field: statField, Direction: "desc"}},
		Fields:          []string{statField},
	})
	if err != nil {
		return fmt.Errorf("rank select for %s failed: %w", leagueTag, err)
	}

	assigned := 0
	for i, row := range sorted {
		rank := i + 1
		if _, err := j.teams.Update(ctx, row.ID, store.Fields{FieldRank: rank}); err != nil {
			log.Error().Err(err).Str("row", row.ID).Int("rank", rank).Msg("Rank update failed for row")
			metrics.RecordError("rank", "update")
			continue
		}
		assigned++
	}

	metrics.RanksAssigned.Set(float64(assigned))
	log.Info().
		Str("league", leagueTag).
		Str("stat", statField).
		Int("ranked", assigned).
		Msg("Rank recomputation complete")

	return nil
}
