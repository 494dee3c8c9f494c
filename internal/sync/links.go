package sync

import (
	"context"
	"fmt"

	"nbasync/ingestion/internal/cache"
	"nbasync/ingestion/internal/store"
)

// LinkResolver resolves cross-table relationships: team names to Teams
// rows, external event ids to Events rows, and a team's most recent
// prior game row. Team rows are provisioned out of band and never
// created here; Events rows are created lazily on first sight.
type LinkResolver struct {
	teams  Table
	events Table
	games  Table
	cache  *cache.RedisCache
}

// NewLinkResolver creates a link resolver. cache may be nil.
func NewLinkResolver(teams, events, games Table, c *cache.RedisCache) *LinkResolver {
	return &LinkResolver{teams: teams, events: events, games: games, cache: c}
}

// ResolveTeam returns the Teams row id for an exact display-name match,
// or "" when the team is unknown.
func (r *LinkResolver) ResolveTeam(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", nil
	}

	cacheKey := "team:" + name
	if id, ok := r.cache.Get(ctx, cacheKey); ok {
		return id, nil
	}

	recs, err := r.teams.Select(ctx, store.SelectOptions{
		FilterByFormula: store.Eq(FieldTeamName, name),
		MaxRecords:      1,
	})
	if err != nil {
		return "", fmt.Errorf("team lookup for %q failed: %w", name, err)
	}
	if len(recs) == 0 {
		return "", nil
	}

	r.cache.Set(ctx, cacheKey, recs[0].ID)
	return recs[0].ID, nil
}

// ResolveOrCreateEvent returns the Events row for an external event id,
// creating a minimal row on first sight so the relationship is always
// resolvable. Lookup-then-create is best effort: with no transactions
// in the store, two simultaneous runs can each create a row for the
// same id. That race is accepted; re-querying before every create keeps
// it rare.
func (r *LinkResolver) ResolveOrCreateEvent(ctx context.Context, tg TeamGame) (store.Record, bool, error) {
	recs, err := r.events.Select(ctx, store.SelectOptions{
		FilterByFormula: store.Eq(FieldEventID, tg.EventID),
		MaxRecords:      1,
	})
	if err != nil {
		return store.Record{}, false, fmt.Errorf("event lookup for %s failed: %w", tg.EventID, err)
	}
	if len(recs) > 0 {
		return recs[0], false, nil
	}

	fields := store.Fields{FieldEventID: tg.EventID}
	if tg.EventTime != "" {
		fields[FieldEventTime] = tg.EventTime
	}
	if tg.StatusID != "" {
		fields[FieldStatusID] = tg.StatusID
	}

	rec, err := r.events.Create(ctx, fields)
	if err != nil {
		return store.Record{}, false, fmt.Errorf("event create for %s failed: %w", tg.EventID, err)
	}
	return rec, true, nil
}

// SyncEventRow mirrors the latest status onto an Events row and fills
// in the home/away team back-link for the observed side. Only issues a
// write when something actually changed.
func (r *LinkResolver) SyncEventRow(ctx context.Context, ev store.Record, tg TeamGame, teamRowID string) error {
	fields := store.Fields{}

	if tg.StatusID != "" && fieldString(ev.Fields, FieldStatusID) != tg.StatusID {
		fields[FieldStatusID] = tg.StatusID
	}

	if teamRowID != "" {
		linkField := FieldHomeTeamLink
		if tg.HomeAway == Away {
			linkField = FieldAwayTeamLink
		}
		if firstLink(ev.Fields, linkField) != teamRowID {
			fields[linkField] = []string{teamRowID}
		}
	}

	if len(fields) == 0 {
		return nil
	}

	if _, err := r.events.Update(ctx, ev.ID, fields); err != nil {
		return fmt.Errorf("event row update for %s failed: %w", tg.EventID, err)
	}
	return nil
}

// PreviousGame returns the games row id of the same team's most recent
// game strictly before this one, threading a backward link through time
// per team. Returns "" when this is the team's first known game.
func (r *LinkResolver) PreviousGame(ctx context.Context, tg TeamGame) (string, error) {
	if tg.TeamName == "" || tg.EventTime == "" {
		return "", nil
	}

	recs, err := r.games.Select(ctx, store.SelectOptions{
		FilterByFormula: store.And(
			store.Eq(FieldTeamName, tg.TeamName),
			store.Before(FieldEventTime, tg.EventTime),
			store.Not(store.Eq(FieldEventID, tg.EventID)),
		),
		Sort:       []store.SortField{{Field: FieldEventTime, Direction: "desc"}},
		MaxRecords: 1,
	})
	if err != nil {
		return "", fmt.Errorf("previous game lookup for %q failed: %w", tg.TeamName, err)
	}
	if len(recs) == 0 {
		return "", nil
	}
	return recs[0].ID, nil
}

func fieldString(fields store.Fields, key string) string {
	if s, ok := fields[key].(string); ok {
		return s
	}
	return ""
}

// firstLink returns the first row id in a link column, tolerating both
// the []string we write and the []interface{} the store returns.
func firstLink(fields store.Fields, key string) string {
	switch v := fields[key].(type) {
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	case []interface{}:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	}
	return ""
}
