package memory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"metro/internal/domain"
	"metro/internal/repository"
)

// WalletRepository is an in-memory repository.WalletRepository that writes
// straight to the store. Inside WithinTx the transactional variant is used.
type WalletRepository struct{ s *Store }

func (r *WalletRepository) GetByPassengerID(ctx context.Context, passengerID string) (*domain.Wallet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	w, ok := r.s.wallets[passengerID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *w
	return &c, nil
}

func (r *WalletRepository) GetForUpdate(ctx context.Context, passengerID string) (*domain.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.wallets[passengerID]
	if !ok {
		w = &domain.Wallet{PassengerID: passengerID, Balance: decimal.Zero, UpdatedAt: time.Now()}
		r.s.wallets[passengerID] = w
	}
	c := *w
	return &c, nil
}

func (r *WalletRepository) UpdateBalance(ctx context.Context, passengerID string, balance decimal.Decimal, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.wallets[passengerID]
	if !ok {
		return repository.ErrNotFound
	}
	w.Balance = balance
	w.UpdatedAt = at
	return nil
}

func (r *WalletRepository) AppendTransaction(ctx context.Context, txn *domain.WalletTransaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *txn
	r.s.transactions[txn.PassengerID] = append(r.s.transactions[txn.PassengerID], &c)
	return nil
}

func (r *WalletRepository) ListTransactions(ctx context.Context, passengerID string) ([]*domain.WalletTransaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return copyTransactions(r.s.transactions[passengerID], nil), nil
}

func copyTransactions(committed, staged []*domain.WalletTransaction) []*domain.WalletTransaction {
	result := make([]*domain.WalletTransaction, 0, len(committed)+len(staged))
	for _, t := range committed {
		c := *t
		result = append(result, &c)
	}
	for _, t := range staged {
		c := *t
		result = append(result, &c)
	}
	return result
}

var _ repository.WalletRepository = (*WalletRepository)(nil)
