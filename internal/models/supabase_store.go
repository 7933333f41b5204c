package models

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"

	"github.com/supabase-community/postgrest-go"
)

func applyFilters(fb *postgrest.FilterBuilder, filters []Filter) *postgrest.FilterBuilder {
	for _, f := range filters {
		switch f.Op {
		case OpEq:
			fb = fb.Eq(f.Column, f.Values[0])
		case OpNeq:
			fb = fb.Neq(f.Column, f.Values[0])
		case OpIn:
			fb = fb.In(f.Column, f.Values)
		}
	}
	return fb
}

func hasEmptyIn(filters []Filter) bool {
	for _, f := range filters {
		if f.MatchesNothing() {
			return true
		}
	}
	return false
}

func (su *SupabaseRepo) Select(ctx context.Context, q Query, dest any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if q.matchesNothing() {
		return json.Unmarshal([]byte("[]"), dest)
	}

	columns := q.Columns
	if columns == "" {
		columns = "*"
	}
	fb := applyFilters(su.supabaseClient.From(q.Table).Select(columns, "", false), q.Filters)
	if q.OrderBy != "" {
		fb = fb.Order(q.OrderBy, &postgrest.OrderOpts{Ascending: !q.Desc})
	}
	if q.Limit > 0 {
		fb = fb.Limit(q.Limit, "")
	}

	raw, _, err := fb.Execute()
	if err != nil {
		return fmt.Errorf("failed to select from %s: %v", q.Table, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("failed to unmarshal %s rows: %v", q.Table, err)
	}
	return nil
}

func (su *SupabaseRepo) Count(ctx context.Context, table string, filters ...Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if hasEmptyIn(filters) {
		return 0, nil
	}
	_, count, err := applyFilters(su.supabaseClient.From(table).Select("*", "exact", true), filters).Execute()
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %v", table, err)
	}
	return count, nil
}

func (su *SupabaseRepo) Insert(ctx context.Context, table string, rows any, dest any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, _, err := su.supabaseClient.From(table).Insert(rows, false, "", "representation", "").Execute()
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %v", table, err)
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("failed to unmarshal inserted %s rows: %v", table, err)
	}
	return nil
}

func (su *SupabaseRepo) Update(ctx context.Context, table string, values map[string]any, filters ...Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("no fields to update")
	}
	if hasEmptyIn(filters) {
		return 0, nil
	}
	_, count, err := applyFilters(su.supabaseClient.From(table).Update(values, "representation", "exact"), filters).Execute()
	if err != nil {
		return 0, fmt.Errorf("failed to update %s: %v", table, err)
	}
	return count, nil
}

func (su *SupabaseRepo) Delete(ctx context.Context, table string, filters ...Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(filters) == 0 {
		return 0, fmt.Errorf("refusing to delete from %s without filters", table)
	}
	if hasEmptyIn(filters) {
		return 0, nil
	}
	_, count, err := applyFilters(su.supabaseClient.From(table).Delete("representation", "exact"), filters).Execute()
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %v", table, err)
	}
	return count, nil
}

// RemoveImages deletes the stored objects behind public image URLs.
func (su *SupabaseRepo) RemoveImages(ctx context.Context, bucket string, urls []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	names := ObjectNames(urls)
	if len(names) == 0 {
		return nil
	}
	if _, err := su.supabaseClient.Storage.RemoveFile(bucket, names); err != nil {
		return fmt.Errorf("failed to remove %d objects from %s: %v", len(names), bucket, err)
	}
	return nil
}

// ObjectNames maps public object URLs to their decoded object names (last path segment).
func ObjectNames(urls []string) []string {
	var names []string
	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil || u.Path == "" {
			continue
		}
		name := path.Base(u.Path)
		if decoded, err := url.PathUnescape(name); err == nil {
			name = decoded
		}
		if name == "." || name == "/" {
			continue
		}
		names = append(names, name)
	}
	return names
}
