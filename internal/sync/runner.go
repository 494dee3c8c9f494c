package sync

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"nbasync/ingestion/internal/feed"
	"nbasync/ingestion/internal/metrics"
)

// ErrNoData is returned when no requested date yielded any scoreboard
// response at all. Partial per-record failures do not trigger it.
var ErrNoData = errors.New("no scoreboard data fetched for any requested date")

const dateLayout = "20060102"

// Options selects the target-date window for a run.
// DaysBack/DaysAhead take precedence and produce exactly the N days
// preceding/following now, today excluded. Otherwise DayOffset applies:
// 0 means today only; -N means today plus the N-1 preceding days; +N
// means today plus the N-1 following days.
type Options struct {
	DayOffset int
	DaysBack  int
	DaysAhead int
	Ascending bool
}

// Dates resolves the option set against a reference time into YYYYMMDD
// strings, ordered per Ascending.
func Dates(now time.Time, opts Options) []string {
	var days []time.Time

	switch {
	case opts.DaysBack > 0 || opts.DaysAhead > 0:
		for i := opts.DaysBack; i >= 1; i-- {
			days = append(days, now.AddDate(0, 0, -i))
		}
		for i := 1; i <= opts.DaysAhead; i++ {
			days = append(days, now.AddDate(0, 0, i))
		}
	case opts.DayOffset < 0:
		for i := 0; i < -opts.DayOffset; i++ {
			days = append(days, now.AddDate(0, 0, -i))
		}
	case opts.DayOffset > 0:
		for i := 0; i < opts.DayOffset; i++ {
			days = append(days, now.AddDate(0, 0, i))
		}
	default:
		days = append(days, now)
	}

	sort.Slice(days, func(i, j int) bool {
		if opts.Ascending {
			return days[i].Before(days[j])
		}
		return days[j].Before(days[i])
	})

	dates := make([]string, len(days))
	for i, d := range days {
		dates[i] = d.Format(dateLayout)
	}
	return dates
}

// Feed is the slice of feed client behavior the runner needs
type Feed interface {
	Scoreboard(ctx context.Context, sportPath, date string) (*feed.Scoreboard, error)
}

// Runner sequences one sync pass: fetch each date's scoreboard,
// normalize its events, reconcile the resulting records in feed order.
// A fetch failure skips that date and the run continues.
type Runner struct {
	feed   Feed
	engine *Engine
	league League
}

// NewRunner creates a run driver
func NewRunner(f Feed, e *Engine, lg League) *Runner {
	return &Runner{feed: f, engine: e, league: lg}
}

// Run processes the given dates and aggregates per-date results. It
// fails only when not a single date could be fetched.
func (r *Runner) Run(ctx context.Context, dates []string) (Summary, error) {
	start := time.Now()

	var total Summary
	fetched := 0
	for _, date := range dates {
		sb, err := r.feed.Scoreboard(ctx, r.league.SportPath, date)
		if err != nil {
			log.Error().Err(err).Str("date", date).Msg("Scoreboard fetch failed, skipping date")
			metrics.RecordError("runner", "fetch")
			continue
		}
		fetched++

		var records []TeamGame
		for _, ev := range sb.Events {
			records = append(records, Normalize(ev, r.league)...)
		}

		summary := r.engine.ReconcileAll(ctx, records)
		total.Add(summary)

		log.Info().
			Str("date", date).
			Int("events", len(sb.Events)).
			Int("inserted", summary.Inserted).
			Int("updated", summary.Updated).
			Int("unchanged", summary.Unchanged).
			Int("failed", summary.Failed).
			Msg("Date reconciled")
	}

	if fetched == 0 && len(dates) > 0 {
		metrics.RecordSync("scoreboard", "failure", time.Since(start).Seconds())
		return total, ErrNoData
	}

	metrics.RecordSync("scoreboard", "success", time.Since(start).Seconds())
	return total, nil
}
