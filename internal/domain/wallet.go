package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds a passenger's stored balance.
type Wallet struct {
	PassengerID string
	Balance     decimal.Decimal
	UpdatedAt   time.Time
}

// WalletTransaction is an immutable ledger entry. Positive amounts are
// credits, negative amounts are debits.
type WalletTransaction struct {
	ID          string
	PassengerID string
	Amount      decimal.Decimal
	Description string
	CreatedAt   time.Time
}

// Receipt confirms a wallet mutation to the passenger.
type Receipt struct {
	ID            string
	PassengerID   string
	TransactionID string
	Amount        decimal.Decimal
	BalanceAfter  decimal.Decimal
	Description   string
	CreatedAt     time.Time
}
