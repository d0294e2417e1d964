package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const txKey contextKey = "db_tx"

// Queryable is the subset of pgx shared by the pool and a transaction, so a
// repository can run the same statement inside or outside a transaction.
type Queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// TxRunner runs fn inside a single database transaction. Repositories called
// with the ctx handed to fn pick the transaction up through Conn.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type poolTxRunner struct{ pool *pgxpool.Pool }

func NewTxRunner(pool *pgxpool.Pool) TxRunner {
	return &poolTxRunner{pool: pool}
}

func (r *poolTxRunner) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	// Nested calls join the outer transaction.
	if TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// TxFromContext returns the transaction started by WithTx, or nil.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey).(pgx.Tx)
	return tx
}

// Conn returns the transaction bound to ctx when there is one, else the pool.
func Conn(ctx context.Context, pool *pgxpool.Pool) Queryable {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// NoopTxRunner calls fn directly. Used where no database is involved, such as
// services backed by in-memory repositories in tests.
type NoopTxRunner struct{}

func (NoopTxRunner) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
