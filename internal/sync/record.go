package sync

// Column names shared by the Games, Events and Teams tables.
const (
	FieldEventID          = "Event ID"
	FieldHomeAway         = "Home Away"
	FieldTeamName         = "Team Name"
	FieldOpponentTeamName = "Opponent Team Name"
	FieldTeamAbbreviation = "Team Abbreviation"
	FieldOdds             = "Odds"
	FieldBroadcast        = "Broadcast"
	FieldStatusID         = "Status ID"
	FieldLeague           = "League"
	FieldEventTime        = "Event Time"
	FieldTeamRecord       = "Team Record"
	FieldPeriod           = "Period"
	FieldClock            = "Clock"

	FieldEventLink    = "Event"
	FieldTeamLink     = "Team Link"
	FieldPreviousGame = "Previous Game"
	FieldHomeTeamLink = "Home Team Link"
	FieldAwayTeamLink = "Away Team Link"

	FieldRank          = "Rank"
	FieldRankYesterday = "Rank Yesterday"
)

// Sides of a game.
const (
	Home = "Home"
	Away = "Away"
)

// StatusFinal is the feed's status code for a completed game. Odds are
// never written once an event reaches this state.
const StatusFinal = "3"

// TeamGame is one team's perspective of one event, the unit of
// reconciliation. (EventID, HomeAway) uniquely identifies its
// destination row. String fields are empty when the feed omitted them;
// score pointers are nil when unparsable, since 0 is a valid score.
type TeamGame struct {
	EventID       string
	HomeAway      string
	TeamName      string
	OpponentName  string
	TeamAbbrev    string
	TeamScore     *int
	OpponentScore *int
	StatusID      string
	Odds          string
	Broadcast     string
	Period        string
	Clock         string
	TeamRecord    string
	EventTime     string
	League        string
}

// Key returns the composite natural key for logging
func (tg TeamGame) Key() string {
	return tg.EventID + "/" + tg.HomeAway
}
