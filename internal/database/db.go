// Package database is the storage port for the gateway. Queries runs
// against any DBTX (pool or transaction); the pipeline above it never
// inspects SQL dialect.
package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries exposes the gateway's storage operations.
type Queries struct {
	db   DBTX
	caps SchemaCapabilities
}

// New creates Queries over db with full schema capabilities assumed.
func New(db DBTX) *Queries {
	return &Queries{db: db, caps: AllCapabilities()}
}

// NewWithCapabilities creates Queries constrained to the capabilities
// detected at startup.
func NewWithCapabilities(db DBTX, caps SchemaCapabilities) *Queries {
	return &Queries{db: db, caps: caps}
}

// WithTx returns Queries bound to tx, keeping the same capabilities.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx, caps: q.caps}
}
