package feed

import (
	"strconv"
	"strings"
)

// Raw is a schema-less JSON object as returned by the scoreboard feed.
// Accessors are total: any access on a missing or wrongly-typed node
// returns a zero value instead of panicking, so a feed shape change is
// contained to this layer.
type Raw map[string]interface{}

// Map returns the nested object at key, or an empty Raw.
func (r Raw) Map(key string) Raw {
	if r == nil {
		return Raw{}
	}
	if m, ok := r[key].(map[string]interface{}); ok {
		return Raw(m)
	}
	return Raw{}
}

// Slice returns the array of objects at key. Non-object elements are
// skipped. Returns nil when the key is absent or not an array.
func (r Raw) Slice(key string) []Raw {
	if r == nil {
		return nil
	}
	arr, ok := r[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]Raw, 0, len(arr))
	for _, el := range arr {
		if m, ok := el.(map[string]interface{}); ok {
			out = append(out, Raw(m))
		}
	}
	return out
}

// String returns the string at key. Numbers are formatted, which covers
// feeds that flip a field between "4" and 4 across seasons.
func (r Raw) String(key string) string {
	if r == nil {
		return ""
	}
	switch v := r[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Int returns the integer at key. The second return is false when the
// value is absent or unparsable; a literal 0 in the feed parses as
// (0, true), never as missing.
func (r Raw) Int(key string) (int, bool) {
	if r == nil {
		return 0, false
	}
	switch v := r[key].(type) {
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Strings returns the array of strings at key.
func (r Raw) Strings(key string) []string {
	if r == nil {
		return nil
	}
	arr, ok := r[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, el := range arr {
		if s, ok := el.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
