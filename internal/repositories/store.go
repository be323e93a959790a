// Package repositories provides MySQL data access for the statistics engine.
//
// Repositories are stateless: every method takes a Querier, which both *sql.DB
// and *sql.Tx satisfy. The mutation services use Store.InTx to bind a
// fine-grained write and its aggregate recomputation to one transaction, so a
// failed recomputation rolls the whole unit back. Any code path that writes
// enrollments, reviews, or lesson progress must go through the service layer;
// out-of-band writes let the derived fields drift.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

// Querier is the subset of database/sql methods shared by *sql.DB and *sql.Tx
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store owns the database handle and runs transactional units of work
type Store struct {
	db *sql.DB
}

// NewStore creates a new store
func NewStore(db *sql.DB) *Store {
	return &Store{
		db: db,
	}
}

// DB returns the underlying handle for non-transactional reads
func (s *Store) DB() Querier {
	return s.db
}

// InTx runs fn inside a transaction. The transaction is committed if fn
// returns nil and rolled back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
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
