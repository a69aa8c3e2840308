package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

// querier is satisfied by both [sql.DB] and [sql.Tx].
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NextSequence increments and returns the counter stored in "<table>_sequence".
//
// Pass the insert's transaction so a rolled back insert gives its number back.
func NextSequence(ctx context.Context, q querier, table string) (int, error) {
	var sequence int
	query := fmt.Sprintf("UPDATE %s_sequence SET value = value + 1 WHERE id = 1 RETURNING value", table)
	if err := q.QueryRowContext(ctx, query).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to increment %s sequence: %w", table, err)
	}
	return sequence, nil
}

// withTx runs fn in a transaction, committing only when fn succeeds.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
