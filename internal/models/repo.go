package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
)

var Validate = validator.New()

// ErrNotFound is returned by SelectOne when no row matches.
var ErrNotFound = errors.New("no rows found")

type FilterOp int

const (
	OpEq FilterOp = iota
	OpNeq
	OpIn
)

// Filter narrows a query on one column. Values are compared in their text form,
// the way PostgREST receives them.
type Filter struct {
	Column string
	Op     FilterOp
	Values []string
}

func Eq(column string, value any) Filter {
	return Filter{Column: column, Op: OpEq, Values: []string{fmt.Sprint(value)}}
}

func Neq(column string, value any) Filter {
	return Filter{Column: column, Op: OpNeq, Values: []string{fmt.Sprint(value)}}
}

func In[T any](column string, values []T) Filter {
	vals := make([]string, 0, len(values))
	for _, v := range values {
		vals = append(vals, fmt.Sprint(v))
	}
	return Filter{Column: column, Op: OpIn, Values: vals}
}

// MatchesNothing reports whether the filter is an empty in-list.
func (f Filter) MatchesNothing() bool {
	return f.Op == OpIn && len(f.Values) == 0
}

type Query struct {
	Table   string
	Columns string
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

func (q Query) matchesNothing() bool {
	for _, f := range q.Filters {
		if f.MatchesNothing() {
			return true
		}
	}
	return false
}

// Store is the data-access layer: filtered reads and writes against named tables.
// dest arguments are pointers to slices of row structs.
type Store interface {
	Select(ctx context.Context, q Query, dest any) error
	Count(ctx context.Context, table string, filters ...Filter) (int64, error)
	Insert(ctx context.Context, table string, rows any, dest any) error
	Update(ctx context.Context, table string, values map[string]any, filters ...Filter) (int64, error)
	Delete(ctx context.Context, table string, filters ...Filter) (int64, error)
}

// SelectOne returns the first row of q or ErrNotFound.
func SelectOne[T any](ctx context.Context, s Store, q Query) (*T, error) {
	q.Limit = 1
	var rows []T
	if err := s.Select(ctx, q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", q.Table, ErrNotFound)
	}
	return &rows[0], nil
}

// Exists reports whether any row of table matches the filters.
func Exists(ctx context.Context, s Store, table string, filters ...Filter) (bool, error) {
	n, err := s.Count(ctx, table, filters...)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type SupabaseRepo struct {
	supabaseClient *supabase.Client
}

func SupabaseNewRepo(supabaseClient *supabase.Client) *SupabaseRepo {
	return &SupabaseRepo{
		supabaseClient: supabaseClient,
	}
}

type MongodbRepo struct {
	mongodbClient *mongo.Client
	dbName        string
}

func MongodbNewRepo(mongodbClient *mongo.Client, dbName string) *MongodbRepo {
	return &MongodbRepo{
		mongodbClient: mongodbClient,
		dbName:        dbName,
	}
}

func (mdb *MongodbRepo) GetCollection(colName string) (*mongo.Collection, error) {
	if mdb.mongodbClient == nil {
		return nil, fmt.Errorf("mongodb client is not initialized")
	}
	return mdb.mongodbClient.Database(mdb.dbName).Collection(colName), nil
}
