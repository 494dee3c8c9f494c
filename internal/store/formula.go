package store

import (
	"fmt"
	"strings"
)

// Filter formula helpers. The store's filter language supports equality
// over named fields with AND/OR/NOT composition; all record matching in
// the sync engine is expressed through these.

// Escape escapes a value for inclusion in a double-quoted formula string.
func Escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// Eq builds an exact-match comparison: {Field} = "value"
func Eq(field, value string) string {
	return fmt.Sprintf(`{%s} = "%s"`, field, Escape(value))
}

// EqNum builds a numeric comparison: {Field} = value
func EqNum(field string, value int) string {
	return fmt.Sprintf(`{%s} = %d`, field, value)
}

// And joins clauses with AND()
func And(clauses ...string) string {
	return fmt.Sprintf("AND(%s)", strings.Join(clauses, ", "))
}

// Or joins clauses with OR()
func Or(clauses ...string) string {
	return fmt.Sprintf("OR(%s)", strings.Join(clauses, ", "))
}

// Not negates a clause
func Not(clause string) string {
	return fmt.Sprintf("NOT(%s)", clause)
}

// Before builds a strict timestamp comparison against an ISO-8601 value:
// the row's {Field} is earlier than ts.
func Before(field, ts string) string {
	return fmt.Sprintf(`IS_BEFORE({%s}, "%s")`, field, Escape(ts))
}
