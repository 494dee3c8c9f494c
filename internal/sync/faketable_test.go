package sync

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"nbasync/ingestion/internal/store"
)

// fakeTable is an in-memory Table. It evaluates the filter formulas the
// engine actually generates (equality, AND/OR/NOT, IS_BEFORE) against
// stored rows, and counts writes so tests can assert on write traffic.
type fakeTable struct {
	rows    []store.Record
	nextID  int
	selects int
	creates int
	updates int

	createErr func(fields store.Fields) error
	updateErr func(id string, fields store.Fields) error
}

func newFakeTable() *fakeTable {
	return &fakeTable{}
}

func (f *fakeTable) seed(fields store.Fields) store.Record {
	f.nextID++
	rec := store.Record{ID: fmt.Sprintf("rec%d", f.nextID), Fields: fields}
	f.rows = append(f.rows, rec)
	return rec
}

func (f *fakeTable) get(id string) store.Record {
	for _, r := range f.rows {
		if r.ID == id {
			return r
		}
	}
	return store.Record{}
}

func (f *fakeTable) writes() int {
	return f.creates + f.updates
}

func (f *fakeTable) Select(ctx context.Context, opts store.SelectOptions) ([]store.Record, error) {
	f.selects++

	var out []store.Record
	for _, r := range f.rows {
		if opts.FilterByFormula == "" || evalFormula(opts.FilterByFormula, r.Fields) {
			out = append(out, r)
		}
	}

	if len(opts.Sort) > 0 {
		s := opts.Sort[0]
		sort.SliceStable(out, func(i, j int) bool {
			less := lessValue(out[i].Fields[s.Field], out[j].Fields[s.Field])
			if s.Direction == "desc" {
				return !less && !valueEqual(out[i].Fields[s.Field], out[j].Fields[s.Field])
			}
			return less
		})
	}

	if opts.MaxRecords > 0 && len(out) > opts.MaxRecords {
		out = out[:opts.MaxRecords]
	}
	return out, nil
}

func (f *fakeTable) Create(ctx context.Context, fields store.Fields) (store.Record, error) {
	if f.createErr != nil {
		if err := f.createErr(fields); err != nil {
			return store.Record{}, err
		}
	}
	f.creates++
	return f.seed(fields), nil
}

func (f *fakeTable) Update(ctx context.Context, id string, fields store.Fields) (store.Record, error) {
	if f.updateErr != nil {
		if err := f.updateErr(id, fields); err != nil {
			return store.Record{}, err
		}
	}
	for i, r := range f.rows {
		if r.ID != id {
			continue
		}
		f.updates++
		for k, v := range fields {
			f.rows[i].Fields[k] = v
		}
		return f.rows[i], nil
	}
	return store.Record{}, fmt.Errorf("no row %s", id)
}

func lessValue(a, b interface{}) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af < bf
	}
	as, _ := a.(string)
	bs, _ := b.(string)
	return as < bs
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

// evalFormula evaluates the filter subset generated by the store
// formula helpers.
func evalFormula(formula string, fields store.Fields) bool {
	formula = strings.TrimSpace(formula)

	switch {
	case strings.HasPrefix(formula, "AND(") && strings.HasSuffix(formula, ")"):
		for _, clause := range splitClauses(formula[4 : len(formula)-1]) {
			if !evalFormula(clause, fields) {
				return false
			}
		}
		return true

	case strings.HasPrefix(formula, "OR(") && strings.HasSuffix(formula, ")"):
		for _, clause := range splitClauses(formula[3 : len(formula)-1]) {
			if evalFormula(clause, fields) {
				return true
			}
		}
		return false

	case strings.HasPrefix(formula, "NOT(") && strings.HasSuffix(formula, ")"):
		return !evalFormula(formula[4:len(formula)-1], fields)

	case strings.HasPrefix(formula, "IS_BEFORE("):
		inner := formula[len("IS_BEFORE(") : len(formula)-1]
		parts := splitClauses(inner)
		if len(parts) != 2 {
			return false
		}
		field := strings.Trim(strings.TrimSpace(parts[0]), "{}")
		ts := strings.Trim(strings.TrimSpace(parts[1]), `"`)
		val, _ := fields[field].(string)
		return val != "" && val < ts
	}

	// {Field} = "value" or {Field} = number
	eq := strings.SplitN(formula, " = ", 2)
	if len(eq) != 2 {
		return false
	}
	field := strings.Trim(eq[0], "{}")
	want := strings.TrimSpace(eq[1])

	if strings.HasPrefix(want, `"`) {
		val, _ := fields[field].(string)
		return val == strings.Trim(want, `"`)
	}

	n, err := strconv.ParseFloat(want, 64)
	if err != nil {
		return false
	}
	got, ok := toFloat(fields[field])
	return ok && got == n
}

// splitClauses splits on top-level commas, ignoring commas nested in
// parentheses or quoted strings.
func splitClauses(s string) []string {
	var out []string
	depth := 0
	quoted := false
	start := 0
	for i, c := range s {
		switch {
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == ',' && depth == 0:
			out = append(out, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	out = append(out, strings.TrimSpace(s[start:]))
	return out
}
