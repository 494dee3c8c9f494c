package sync

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"nbasync/ingestion/internal/feed"
)

// Normalize maps one raw feed event into zero, one, or two TeamGame
// records: the home perspective and the away perspective. An event with
// no competitions is skipped outright; a missing side suppresses that
// side's record but not the other's.
func Normalize(event feed.Raw, lg League) []TeamGame {
	comps := event.Slice("competitions")
	if len(comps) == 0 {
		log.Debug().
			Str("event_id", event.String("id")).
			Msg("Event has no competitions, skipping")
		return nil
	}
	comp := comps[0]

	var home, away feed.Raw
	for _, c := range comp.Slice("competitors") {
		switch c.String("homeAway") {
		case "home":
			home = c
		case "away":
			away = c
		}
	}

	odds := ""
	if oddsList := comp.Slice("odds"); len(oddsList) > 0 {
		odds = oddsList[0].String("details")
	}

	var names []string
	for _, b := range comp.Slice("broadcasts") {
		names = append(names, b.Strings("names")...)
	}
	broadcast := strings.Join(names, ", ")

	status := event.Map("status")
	shared := TeamGame{
		EventID:   event.String("id"),
		StatusID:  status.Map("type").String("id"),
		Odds:      odds,
		Broadcast: broadcast,
		Period:    status.String("period"),
		Clock:     status.String("displayClock"),
		EventTime: event.String("date"),
		League:    lg.Tag,
	}

	var records []TeamGame
	if home != nil {
		records = append(records, sideRecord(shared, home, away, Home))
	}
	if away != nil {
		records = append(records, sideRecord(shared, away, home, Away))
	}
	return records
}

func sideRecord(shared TeamGame, side, other feed.Raw, homeAway string) TeamGame {
	tg := shared
	tg.HomeAway = homeAway

	team := side.Map("team")
	tg.TeamName = team.String("displayName")
	tg.TeamAbbrev = team.String("abbreviation")
	tg.TeamScore = parseScore(side.String("score"))

	if recs := side.Slice("records"); len(recs) > 0 {
		tg.TeamRecord = recs[0].String("summary")
	}

	if other != nil {
		tg.OpponentName = other.Map("team").String("displayName")
		tg.OpponentScore = parseScore(other.String("score"))
	}

	return tg
}

// parseScore parses a feed score string. A failure yields nil, which is
// distinct from a literal "0": zero is a real score and must survive.
func parseScore(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}
