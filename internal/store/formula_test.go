package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEq(t *testing.T) {
	assert.Equal(t, `{Team Name} = "Boston Celtics"`, Eq("Team Name", "Boston Celtics"))
}

func TestEq_EscapesValue(t *testing.T) {
	assert.Equal(t, `{Team Name} = "The \"Atoms\""`, Eq("Team Name", `The "Atoms"`))
	assert.Equal(t, `{Path} = "a\\b"`, Eq("Path", `a\b`))
}

func TestEqNum(t *testing.T) {
	assert.Equal(t, `{Event Order} = 3`, EqNum("Event Order", 3))
}

func TestComposition(t *testing.T) {
	key := And(Eq("Event ID", "401585601"), Eq("Home Away", "Home"))
	assert.Equal(t, `AND({Event ID} = "401585601", {Home Away} = "Home")`, key)

	assert.Equal(t, `NOT({Event ID} = "401585601")`, Not(Eq("Event ID", "401585601")))
	assert.Equal(t, `OR({League} = "NBA", {League} = "NFL")`, Or(Eq("League", "NBA"), Eq("League", "NFL")))
}

func TestBefore(t *testing.T) {
	assert.Equal(t, `IS_BEFORE({Event Time}, "2026-01-15T00:00Z")`, Before("Event Time", "2026-01-15T00:00Z"))
}
