package sync

// League parameterizes the engine per sport: the feed path and the
// sport-specific column names in the games table. One engine, one
// mapping table per league, instead of a near-duplicate engine per
// sport.
type League struct {
	Tag                string // value written to the League column
	SportPath          string // feed path under the scoreboard API
	ScoreField         string // games-table column for the team's score
	OpponentScoreField string // games-table column for the opponent's score
	StatField          string // teams-table statistic the rank sorts on
}

var (
	NBA = League{
		Tag:                "NBA",
		SportPath:          "basketball/nba",
		ScoreField:         "Team Score NBA",
		OpponentScoreField: "Opponent Score NBA",
		StatField:          "ATS AVG",
	}

	NFL = League{
		Tag:                "NFL",
		SportPath:          "football/nfl",
		ScoreField:         "Team Score NFL",
		OpponentScoreField: "Opponent Score NFL",
		StatField:          "ATS AVG",
	}
)

// LeagueByTag returns the league config for a tag
func LeagueByTag(tag string) (League, bool) {
	switch tag {
	case NBA.Tag:
		return NBA, true
	case NFL.Tag:
		return NFL, true
	}
	return League{}, false
}
