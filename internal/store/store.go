// Package store maps relational rows onto the domain types. Every method runs
// against either the connection pool or an open transaction.
package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"inventory/m/internal/database"
)

type Store struct {
	db *database.DB
}

func New(db *database.DB) *Store {
	return &Store{db: db}
}

// Queries is a set of typed statements bound to a pool or a transaction.
type Queries struct {
	db  *database.DB
	ext sqlx.ExtContext
}

// Q returns queries that run on the connection pool.
func (s *Store) Q() *Queries {
	return &Queries{db: s.db, ext: s.db}
}

// InTx runs fn with queries bound to a single transaction.
func (s *Store) InTx(ctx context.Context, fn func(q *Queries) error) error {
	return s.db.InTx(ctx, func(tx *sqlx.Tx) error {
		return fn(&Queries{db: s.db, ext: tx})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (q *Queries) get(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.GetContext(ctx, q.ext, dest, q.ext.Rebind(query), args...)
}

func (q *Queries) selectAll(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, q.ext, dest, q.ext.Rebind(query), args...)
}

func (q *Queries) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := q.ext.ExecContext(ctx, q.ext.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func page(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return skip, limit
}
