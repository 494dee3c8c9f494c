package sync

import (
	"context"
	"fmt"
	"reflect"

	"github.com/rs/zerolog/log"

	"nbasync/ingestion/internal/metrics"
	"nbasync/ingestion/internal/store"
)

// Outcome is the result of reconciling one TeamGame
type Outcome string

const (
	OutcomeInserted  Outcome = "inserted"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeFailed    Outcome = "failed"
)

// Summary aggregates reconciliation outcomes over a batch
type Summary struct {
	Inserted  int
	Updated   int
	Unchanged int
	Failed    int
}

// Total returns the number of records processed
func (s Summary) Total() int {
	return s.Inserted + s.Updated + s.Unchanged + s.Failed
}

// Add accumulates another summary
func (s *Summary) Add(other Summary) {
	s.Inserted += other.Inserted
	s.Updated += other.Updated
	s.Unchanged += other.Unchanged
	s.Failed += other.Failed
}

// Engine reconciles TeamGame records into the games table: lookup by
// the (Event ID, Home Away) composite key, then update-in-place or
// insert. All writes go through the suppressed field set so partial
// re-fetches never blank out previously populated columns.
type Engine struct {
	games  Table
	links  *LinkResolver
	league League
}

// NewEngine creates a reconciliation engine. links may be nil, in which
// case relationship columns are left untouched.
func NewEngine(games Table, links *LinkResolver, lg League) *Engine {
	return &Engine{games: games, links: links, league: lg}
}

// Reconcile upserts one TeamGame into the games table
func (e *Engine) Reconcile(ctx context.Context, tg TeamGame) (Outcome, error) {
	existing, err := e.lookup(ctx, tg)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("key lookup for %s failed: %w", tg.Key(), err)
	}

	fields := e.writeFields(tg)
	e.attachLinks(ctx, tg, fields)

	if existing != nil {
		changed := diffFields(fields, existing.Fields)
		if len(changed) == 0 {
			return OutcomeUnchanged, nil
		}

		if _, err := e.games.Update(ctx, existing.ID, changed); err != nil {
			return OutcomeFailed, fmt.Errorf("update of %s failed: %w", tg.Key(), err)
		}
		return OutcomeUpdated, nil
	}

	if _, err := e.games.Create(ctx, fields); err != nil {
		return OutcomeFailed, fmt.Errorf("create of %s failed: %w", tg.Key(), err)
	}
	return OutcomeInserted, nil
}

// ReconcileAll processes records strictly sequentially, in normalized
// order. A failure on one record is logged and does not stop the batch.
func (e *Engine) ReconcileAll(ctx context.Context, records []TeamGame) Summary {
	var summary Summary
	for _, tg := range records {
		outcome, err := e.Reconcile(ctx, tg)
		if err != nil {
			log.Error().
				Err(err).
				Str("event_id", tg.EventID).
				Str("home_away", tg.HomeAway).
				Str("team", tg.TeamName).
				Msg("Failed to reconcile record")
			metrics.RecordError("engine", "reconcile")
		}

		metrics.RecordReconcile(string(outcome))
		switch outcome {
		case OutcomeInserted:
			summary.Inserted++
		case OutcomeUpdated:
			summary.Updated++
		case OutcomeUnchanged:
			summary.Unchanged++
		default:
			summary.Failed++
		}
	}
	return summary
}

// lookup finds the destination row by composite key. More than one
// match is a data-integrity fault: warn and proceed with the first.
func (e *Engine) lookup(ctx context.Context, tg TeamGame) (*store.Record, error) {
	recs, err := e.games.Select(ctx, store.SelectOptions{
		FilterByFormula: store.And(
			store.Eq(FieldEventID, tg.EventID),
			store.Eq(FieldHomeAway, tg.HomeAway),
		),
		MaxRecords: 2,
	})
	if err != nil {
		return nil, err
	}

	if len(recs) == 0 {
		return nil, nil
	}
	if len(recs) > 1 {
		log.Warn().
			Str("event_id", tg.EventID).
			Str("home_away", tg.HomeAway).
			Int("matches", len(recs)).
			Msg("Multiple rows match a unique key, using the first")
		metrics.RecordError("engine", "lookup_ambiguity")
	}
	return &recs[0], nil
}

// writeFields builds the suppressed field set: empty strings and absent
// scores are dropped so they never clobber populated columns, and Odds
// is dropped outright once the event is final.
func (e *Engine) writeFields(tg TeamGame) store.Fields {
	fields := store.Fields{}
	put := func(key, val string) {
		if val != "" {
			fields[key] = val
		}
	}

	put(FieldEventID, tg.EventID)
	put(FieldHomeAway, tg.HomeAway)
	put(FieldTeamName, tg.TeamName)
	put(FieldOpponentTeamName, tg.OpponentName)
	put(FieldTeamAbbreviation, tg.TeamAbbrev)
	put(FieldStatusID, tg.StatusID)
	put(FieldBroadcast, tg.Broadcast)
	put(FieldPeriod, tg.Period)
	put(FieldClock, tg.Clock)
	put(FieldTeamRecord, tg.TeamRecord)
	put(FieldEventTime, tg.EventTime)
	put(FieldLeague, tg.League)

	if tg.TeamScore != nil {
		fields[e.league.ScoreField] = *tg.TeamScore
	}
	if tg.OpponentScore != nil {
		fields[e.league.OpponentScoreField] = *tg.OpponentScore
	}

	// Stale odds must not overwrite the closing line
	if tg.StatusID != StatusFinal {
		put(FieldOdds, tg.Odds)
	}

	return fields
}

// attachLinks resolves relationship columns. Link failures degrade to a
// write without the link; they never fail the record.
func (e *Engine) attachLinks(ctx context.Context, tg TeamGame, fields store.Fields) {
	if e.links == nil {
		return
	}

	teamRowID, err := e.links.ResolveTeam(ctx, tg.TeamName)
	if err != nil {
		log.Warn().Err(err).Str("team", tg.TeamName).Msg("Team link resolution failed")
		metrics.RecordError("links", "team")
	} else if teamRowID != "" {
		fields[FieldTeamLink] = []string{teamRowID}
	}

	eventRow, _, err := e.links.ResolveOrCreateEvent(ctx, tg)
	if err != nil {
		log.Warn().Err(err).Str("event_id", tg.EventID).Msg("Event link resolution failed")
		metrics.RecordError("links", "event")
	} else {
		fields[FieldEventLink] = []string{eventRow.ID}
		if err := e.links.SyncEventRow(ctx, eventRow, tg, teamRowID); err != nil {
			log.Warn().Err(err).Str("event_id", tg.EventID).Msg("Event row sync failed")
			metrics.RecordError("links", "event_sync")
		}
	}

	prevID, err := e.links.PreviousGame(ctx, tg)
	if err != nil {
		log.Warn().Err(err).Str("team", tg.TeamName).Msg("Previous game resolution failed")
		metrics.RecordError("links", "previous_game")
	} else if prevID != "" {
		fields[FieldPreviousGame] = []string{prevID}
	}
}

// diffFields returns the subset of want whose values differ from have.
// An empty result means the write can be skipped entirely.
func diffFields(want, have store.Fields) store.Fields {
	changed := store.Fields{}
	for key, val := range want {
		if !valueEqual(val, have[key]) {
			changed[key] = val
		}
	}
	return changed
}

// valueEqual compares a value we are about to write against one read
// back from the store, tolerating the JSON round trip (ints come back
// as float64, string slices as []interface{}).
func valueEqual(a, b interface{}) bool {
	return reflect.DeepEqual(normalizeValue(a), normalizeValue(b))
}

func normalizeValue(v interface{}) interface{} {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case float32:
		return float64(x)
	case []string:
		out := make([]interface{}, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, el := range x {
			out[i] = normalizeValue(el)
		}
		return out
	default:
		return v
	}
}
