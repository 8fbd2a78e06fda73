package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"metro/internal/repository"
)

// Transactor runs units of work inside a PostgreSQL transaction.
type Transactor struct {
	db *sql.DB
}

// NewTransactor creates a new PostgreSQL transactor.
func NewTransactor(db *sql.DB) *Transactor {
	return &Transactor{db: db}
}

// WithinTx begins a transaction, hands fn transaction-scoped repositories and
// commits if fn succeeds. Any error or panic rolls the transaction back.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) (err error) {
	sqlTx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	// Create transaction-scoped repositories.
	err = fn(ctx, repository.Tx{
		Wallets: NewWalletRepositoryWithTx(sqlTx),
		Tickets: NewTicketRepositoryWithTx(sqlTx),
		Scans:   NewScanRepositoryWithTx(sqlTx),
	})
	if err != nil {
		return err
	}

	if err = sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Ensure Transactor implements repository.Transactor.
var _ repository.Transactor = (*Transactor)(nil)
