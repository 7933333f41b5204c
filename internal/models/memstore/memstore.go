// Package memstore is an in-memory models.Store for tests. Rows are held as decoded
// JSON objects, so they look exactly like what PostgREST would return.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/joshua-takyi/studenthub/internal/models"
)

type row = map[string]any

// Call records one Store operation.
type Call struct {
	Op    string
	Table string
}

type Store struct {
	mu      sync.Mutex
	tables  map[string][]row
	serials map[string]string
	next    map[string]int64
	failing map[string]error
	calls   []Call
}

var _ models.Store = (*Store)(nil)

// New returns an empty store. Tables get an auto-incrementing "id" unless
// WithSerial names another key column.
func New() *Store {
	return &Store{
		tables:  map[string][]row{},
		serials: map[string]string{},
		next:    map[string]int64{},
		failing: map[string]error{},
	}
}

func (s *Store) WithSerial(table, column string) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serials[table] = column
	return s
}

// Seed inserts rows without recording a call.
func (s *Store) Seed(table string, rows ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		decoded, err := toRows(r)
		if err != nil {
			panic(fmt.Sprintf("memstore: seed %s: %v", table, err))
		}
		for _, d := range decoded {
			s.appendRow(table, d)
		}
	}
}

// Rows returns a copy of every row in table.
func (s *Store) Rows(table string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.tables[table]))
	for _, r := range s.tables[table] {
		out = append(out, clone(r))
	}
	return out
}

// Fail makes every later operation on table return err.
func (s *Store) Fail(table string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[table] = err
}

func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

func (s *Store) begin(op, table string) error {
	s.calls = append(s.calls, Call{Op: op, Table: table})
	return s.failing[table]
}

func (s *Store) Select(ctx context.Context, q models.Query, dest any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("select", q.Table); err != nil {
		return err
	}

	matched := s.match(q.Table, q.Filters)
	if q.OrderBy != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			c := compare(matched[i][q.OrderBy], matched[j][q.OrderBy])
			if q.Desc {
				return c > 0
			}
			return c < 0
		})
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	cols := columns(q.Columns)
	out := make([]row, 0, len(matched))
	for _, r := range matched {
		out = append(out, project(r, cols))
	}
	return decode(out, dest)
}

func (s *Store) Count(ctx context.Context, table string, filters ...models.Filter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("count", table); err != nil {
		return 0, err
	}
	return int64(len(s.match(table, filters))), nil
}

func (s *Store) Insert(ctx context.Context, table string, rows any, dest any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("insert", table); err != nil {
		return err
	}

	decoded, err := toRows(rows)
	if err != nil {
		return err
	}
	inserted := make([]row, 0, len(decoded))
	for _, r := range decoded {
		inserted = append(inserted, clone(s.appendRow(table, r)))
	}
	if dest == nil {
		return nil
	}
	return decode(inserted, dest)
}

func (s *Store) Update(ctx context.Context, table string, values map[string]any, filters ...models.Filter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("update", table); err != nil {
		return 0, err
	}

	patch, err := toRows(values)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, r := range s.tables[table] {
		if matches(r, filters) {
			for k, v := range patch[0] {
				r[k] = v
			}
			n++
		}
	}
	return n, nil
}

func (s *Store) Delete(ctx context.Context, table string, filters ...models.Filter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("delete", table); err != nil {
		return 0, err
	}

	kept := s.tables[table][:0]
	var n int64
	for _, r := range s.tables[table] {
		if matches(r, filters) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	s.tables[table] = kept
	return n, nil
}

func (s *Store) appendRow(table string, r row) row {
	key := s.serials[table]
	if key == "" {
		key = "id"
	}
	if id, ok := r[key].(float64); ok && id != 0 {
		if int64(id) > s.next[table] {
			s.next[table] = int64(id)
		}
	} else {
		s.next[table]++
		r[key] = float64(s.next[table])
	}
	s.tables[table] = append(s.tables[table], r)
	return r
}

func (s *Store) match(table string, filters []models.Filter) []row {
	var out []row
	for _, r := range s.tables[table] {
		if matches(r, filters) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r row, filters []models.Filter) bool {
	for _, f := range filters {
		got := text(r[f.Column])
		switch f.Op {
		case models.OpEq:
			if got != f.Values[0] {
				return false
			}
		case models.OpNeq:
			if got == f.Values[0] {
				return false
			}
		case models.OpIn:
			found := false
			for _, v := range f.Values {
				if got == v {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

// text renders a decoded JSON value the way it would appear in a PostgREST filter.
func text(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func compare(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return 1
		default:
			return -1
		}
	}
	if fa, ok := a.(float64); ok {
		if fb, ok := b.(float64); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(text(a), text(b))
}

func columns(spec string) []string {
	if spec == "" || spec == "*" {
		return nil
	}
	var out []string
	for _, c := range strings.Split(spec, ",") {
		out = append(out, strings.TrimSpace(c))
	}
	return out
}

func project(r row, cols []string) row {
	if cols == nil {
		return clone(r)
	}
	out := row{}
	for _, c := range cols {
		if v, ok := r[c]; ok {
			out[c] = v
		}
	}
	return out
}

func clone(r row) row {
	out := make(row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func toRows(v any) ([]row, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var rows []row
		err := json.Unmarshal(raw, &rows)
		return rows, err
	}
	var r row
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	return []row{r}, nil
}

func decode(rows []row, dest any) error {
	raw, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
