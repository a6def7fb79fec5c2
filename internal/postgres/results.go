package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nestlogic/forum-sentinel/internal/domain"
)

// Destination tables for canonical results. The insert statement is fixed per
// table so a dynamic identifier can never reach the query text.
const (
	TableAkismet   = "result_akismet"
	TableBodyguard = "result_bodyguard"
)

const (
	insertAkismetSQL = `
		INSERT INTO result_akismet (classification, analyzed_at, post_id)
		VALUES ($1, $2, $3)
		RETURNING id`

	insertBodyguardSQL = `
		INSERT INTO result_bodyguard (
			content_type, severity, classifications, directed_at,
			recommended_action, analyzed_at, post_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
)

// binder maps a canonical result to the positional arguments of a table's
// insert statement.
type binder func(res domain.DetectionResult) []any

type destination struct {
	insertSQL string
	bind      binder
}

// destinations is the closed allow-list of result tables. Table names outside
// this set are rejected at construction time.
var destinations = map[string]destination{
	TableAkismet: {
		insertSQL: insertAkismetSQL,
		bind: func(res domain.DetectionResult) []any {
			return []any{res.Classification, res.AnalyzedAt, res.ContentID}
		},
	},
	TableBodyguard: {
		insertSQL: insertBodyguardSQL,
		bind: func(res domain.DetectionResult) []any {
			return []any{
				res.ContentType, res.Severity, res.Classifications,
				res.DirectedAt, res.RecommendedAction, res.AnalyzedAt, res.ContentID,
			}
		},
	},
}

// ResultStore persists canonical results into one destination table chosen at
// construction.
type ResultStore struct {
	pool  *pgxpool.Pool
	table string
	dest  destination
}

// NewResultStore builds a store for the given destination table. The table
// must belong to the known allow-list.
func NewResultStore(pool *pgxpool.Pool, table string) (*ResultStore, error) {
	dest, ok := destinations[table]
	if !ok {
		return nil, fmt.Errorf("unknown result table %q", table)
	}
	return &ResultStore{pool: pool, table: table, dest: dest}, nil
}

// Table returns the destination table name.
func (s *ResultStore) Table() string { return s.table }

// Save writes exactly one row for the result and returns the generated row
// id. Persistence failures surface as domain.StorageError.
func (s *ResultStore) Save(ctx context.Context, res domain.DetectionResult) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, s.dest.insertSQL, s.dest.bind(res)...).Scan(&id)
	if err != nil {
		return 0, &domain.StorageError{Table: s.table, Err: err}
	}
	return id, nil
}
