package feed

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRaw_Accessors(t *testing.T) {
	var doc Raw
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "401585601",
		"period": 4,
		"neutralSite": false,
		"status": {"clock": "2:31"},
		"competitors": [{"homeAway": "home"}, "not-an-object"],
		"names": ["ESPN", "TNT", 7]
	}`), &doc))

	assert.Equal(t, "401585601", doc.String("id"))
	assert.Equal(t, "2:31", doc.Map("status").String("clock"))
	assert.Equal(t, []string{"ESPN", "TNT"}, doc.Strings("names"))

	comps := doc.Slice("competitors")
	require.Len(t, comps, 1, "non-object elements are skipped")
	assert.Equal(t, "home", comps[0].String("homeAway"))
}

func TestRaw_StringFormatsNumbersAndBools(t *testing.T) {
	doc := Raw{"period": float64(4), "half": float64(1.5), "neutral": true}

	assert.Equal(t, "4", doc.String("period"))
	assert.Equal(t, "1.5", doc.String("half"))
	assert.Equal(t, "true", doc.String("neutral"))
	assert.Equal(t, "", doc.String("missing"))
}

func TestRaw_Int(t *testing.T) {
	doc := Raw{"a": float64(7), "b": "12", "c": "12th", "zero": float64(0)}

	n, ok := doc.Int("a")
	assert.True(t, ok)
	assert.Equal(t, 7, n)

	n, ok = doc.Int("b")
	assert.True(t, ok)
	assert.Equal(t, 12, n)

	_, ok = doc.Int("c")
	assert.False(t, ok)

	// A literal zero is a value, not a miss
	n, ok = doc.Int("zero")
	assert.True(t, ok)
	assert.Equal(t, 0, n)

	_, ok = doc.Int("missing")
	assert.False(t, ok)
}

func TestRaw_NilSafety(t *testing.T) {
	var doc Raw

	assert.Equal(t, "", doc.String("x"))
	assert.NotNil(t, doc.Map("x"))
	assert.Nil(t, doc.Slice("x"))
	assert.Nil(t, doc.Strings("x"))

	_, ok := doc.Int("x")
	assert.False(t, ok)

	// Deep chains on absent nodes stay total
	assert.Equal(t, "", doc.Map("a").Map("b").String("c"))
}
