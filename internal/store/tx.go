package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Tx is a handle to one atomic unit of work. All engine reads and writes go
// through a Tx so that any failure rolls back every write performed so far.
type Tx struct {
	tx *sql.Tx
}

// WithTx runs fn inside a single transaction.
//
// On a nil return from fn the transaction commits, unless dryRun is set, in
// which case it always rolls back after fn completes - fn's result is still
// returned so callers can report what would have changed. Any error from fn
// rolls back unconditionally and is returned as-is; there are no retries.
func (s *Store) WithTx(ctx context.Context, dryRun bool, fn func(*Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(&Tx{tx: tx}); err != nil {
		return err
	}

	if dryRun {
		if err := tx.Rollback(); err != nil {
			return fmt.Errorf("rollback dry run: %w", err)
		}
		return nil
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
