package transform

import (
	"context"
	"fmt"
	"strings"

	"musicetl/internal/storage"
)

// fakeSession records executed statements and serves canned lookup rows.
type fakeSession struct {
	execs   []execCall
	lookups [][]any // rows served to every Query call
	queries []execCall
}

type execCall struct {
	sql  string
	args []any
}

func (f *fakeSession) Exec(_ context.Context, sql string, args ...any) error {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	return nil
}

func (f *fakeSession) Query(_ context.Context, sql string, args ...any) (storage.Rows, error) {
	f.queries = append(f.queries, execCall{sql: sql, args: args})
	return &fakeRows{rows: f.lookups}, nil
}

// execsMatching returns the recorded calls whose SQL contains frag.
func (f *fakeSession) execsMatching(frag string) []execCall {
	var out []execCall
	for _, c := range f.execs {
		if strings.Contains(c.sql, frag) {
			out = append(out, c)
		}
	}
	return out
}

type fakeRows struct {
	rows [][]any
	i    int
}

func (r *fakeRows) Next() bool {
	if r.i >= len(r.rows) {
		return false
	}
	r.i++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.i-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: %d dests for %d columns", len(dest), len(row))
	}
	for i, v := range row {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *int64:
			*d = v.(int64)
		case *float64:
			*d = v.(float64)
		default:
			return fmt.Errorf("scan: unsupported dest %T", dest[i])
		}
	}
	return nil
}

func (r *fakeRows) Err() error   { return nil }
func (r *fakeRows) Close() error { return nil }

var _ storage.Session = (*fakeSession)(nil)
