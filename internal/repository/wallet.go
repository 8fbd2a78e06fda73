package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"metro/internal/domain"
)

// WalletRepository defines the persistence operations for passenger wallets
// and their ledger.
type WalletRepository interface {
	// GetByPassengerID retrieves a wallet without locking it.
	GetByPassengerID(ctx context.Context, passengerID string) (*domain.Wallet, error)

	// GetForUpdate retrieves a wallet and locks it until the surrounding
	// transaction ends. An empty wallet is created if none exists.
	GetForUpdate(ctx context.Context, passengerID string) (*domain.Wallet, error)

	// UpdateBalance overwrites the wallet balance.
	UpdateBalance(ctx context.Context, passengerID string, balance decimal.Decimal, at time.Time) error

	// AppendTransaction records a ledger entry. Entries are never updated.
	AppendTransaction(ctx context.Context, txn *domain.WalletTransaction) error

	// ListTransactions retrieves the ledger of a passenger, oldest first.
	ListTransactions(ctx context.Context, passengerID string) ([]*domain.WalletTransaction, error)
}
