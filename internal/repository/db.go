// Package repository contains the data access layer: hand-written SQL over
// database/sql, separated from HTTP handlers. Every repository works over
// the DBTX interface so the same code runs against the pooled *sql.DB or an
// open *sql.Tx.
package repository

import (
	"context"
	"database/sql"
)

// DBTX is the subset of *sql.DB / *sql.Tx the repositories need.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithSerializable runs fn inside one serializable transaction. Session
// mutation is read-then-conditionally-write (check fingerprint, then decide
// to rotate or terminate); serializable isolation makes one of two
// concurrent conflicting transactions abort instead of silently
// interleaving. The transaction is rolled back when fn returns an error and
// committed otherwise.
func WithSerializable(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
