package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"metro/internal/domain"
	"metro/internal/repository"
)

// WalletRepository is a PostgreSQL implementation of repository.WalletRepository.
type WalletRepository struct {
	q Querier
}

// NewWalletRepository creates a new PostgreSQL wallet repository.
func NewWalletRepository(db *sql.DB) *WalletRepository {
	return &WalletRepository{q: db}
}

// NewWalletRepositoryWithTx creates a wallet repository using a transaction.
func NewWalletRepositoryWithTx(tx *sql.Tx) *WalletRepository {
	return &WalletRepository{q: tx}
}

// GetByPassengerID retrieves a wallet without locking it.
func (r *WalletRepository) GetByPassengerID(ctx context.Context, passengerID string) (*domain.Wallet, error) {
	query := `SELECT passenger_id, balance, updated_at FROM wallets WHERE passenger_id = $1`

	return r.scanWallet(r.q.QueryRowContext(ctx, query, passengerID))
}

// GetForUpdate retrieves a wallet with a row lock, creating it first if needed.
// Must be called on a transaction-scoped repository for the lock to hold.
func (r *WalletRepository) GetForUpdate(ctx context.Context, passengerID string) (*domain.Wallet, error) {
	ensure := `
		INSERT INTO wallets (passenger_id, balance, updated_at)
		VALUES ($1, 0, NOW())
		ON CONFLICT (passenger_id) DO NOTHING
	`
	if _, err := r.q.ExecContext(ctx, ensure, passengerID); err != nil {
		return nil, err
	}

	query := `
		SELECT passenger_id, balance, updated_at
		FROM wallets WHERE passenger_id = $1
		FOR UPDATE
	`

	return r.scanWallet(r.q.QueryRowContext(ctx, query, passengerID))
}

func (r *WalletRepository) scanWallet(row *sql.Row) (*domain.Wallet, error) {
	var wallet domain.Wallet
	err := row.Scan(&wallet.PassengerID, &wallet.Balance, &wallet.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &wallet, nil
}

// UpdateBalance overwrites the wallet balance.
func (r *WalletRepository) UpdateBalance(ctx context.Context, passengerID string, balance decimal.Decimal, at time.Time) error {
	query := `UPDATE wallets SET balance = $1, updated_at = $2 WHERE passenger_id = $3`

	result, err := r.q.ExecContext(ctx, query, balance, at, passengerID)
	if err != nil {
		return err
	}

	return checkAffected(result)
}

// AppendTransaction records a ledger entry.
func (r *WalletRepository) AppendTransaction(ctx context.Context, txn *domain.WalletTransaction) error {
	query := `
		INSERT INTO wallet_transactions (id, passenger_id, amount, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.q.ExecContext(ctx, query,
		txn.ID,
		txn.PassengerID,
		txn.Amount,
		txn.Description,
		txn.CreatedAt,
	)

	return err
}

// ListTransactions retrieves the ledger of a passenger, oldest first.
func (r *WalletRepository) ListTransactions(ctx context.Context, passengerID string) ([]*domain.WalletTransaction, error) {
	query := `
		SELECT id, passenger_id, amount, description, created_at
		FROM wallet_transactions
		WHERE passenger_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.q.QueryContext(ctx, query, passengerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*domain.WalletTransaction
	for rows.Next() {
		var txn domain.WalletTransaction
		if err := rows.Scan(
			&txn.ID,
			&txn.PassengerID,
			&txn.Amount,
			&txn.Description,
			&txn.CreatedAt,
		); err != nil {
			return nil, err
		}
		txns = append(txns, &txn)
	}

	return txns, rows.Err()
}

// Ensure WalletRepository implements repository.WalletRepository.
var _ repository.WalletRepository = (*WalletRepository)(nil)
