package memory

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"metro/internal/domain"
	"metro/internal/repository"
)

// WithinTx runs fn against repositories that stage their writes. Staged
// writes become visible to other callers only when fn succeeds and the
// commit goes through. Entity locks taken via GetForUpdate are held until
// then.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) (err error) {
	t := &txState{
		s:       s,
		held:    make(map[string]bool),
		wallets: make(map[string]*domain.Wallet),
		tickets: make(map[string]*domain.Ticket),
	}
	defer t.release()

	defer func() {
		if p := recover(); p != nil {
			atomic.AddInt32(&s.RollbackCount, 1)
			panic(p)
		}
	}()

	if err := fn(ctx, repository.Tx{
		Wallets: &txWallets{t: t},
		Tickets: &txTickets{t: t},
		Scans:   &txScans{t: t},
	}); err != nil {
		atomic.AddInt32(&s.RollbackCount, 1)
		return err
	}

	if err := s.injectedCommitError(); err != nil {
		atomic.AddInt32(&s.RollbackCount, 1)
		return fmt.Errorf("commit transaction: %w", err)
	}

	t.apply()
	atomic.AddInt32(&s.CommitCount, 1)
	return nil
}

type txState struct {
	s    *Store
	held map[string]bool
	keys []string

	wallets      map[string]*domain.Wallet
	transactions []*domain.WalletTransaction
	tickets      map[string]*domain.Ticket
	created      []string
	scans        []*domain.TicketScan
}

func (t *txState) lock(ctx context.Context, key string) error {
	if t.held[key] {
		return nil
	}
	if err := t.s.locks.lock(ctx, key); err != nil {
		return err
	}
	t.held[key] = true
	t.keys = append(t.keys, key)
	return nil
}

func (t *txState) release() {
	for _, key := range t.keys {
		t.s.locks.unlock(key)
	}
}

func (t *txState) apply() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	for id, w := range t.wallets {
		t.s.wallets[id] = w
	}
	for _, txn := range t.transactions {
		t.s.transactions[txn.PassengerID] = append(t.s.transactions[txn.PassengerID], txn)
	}
	isNew := make(map[string]bool, len(t.created))
	for _, id := range t.created {
		isNew[id] = true
		t.s.insertTicket(t.tickets[id])
	}
	for id, ticket := range t.tickets {
		if !isNew[id] {
			t.s.tickets[id] = ticket
		}
	}
	for _, sc := range t.scans {
		t.s.scans[sc.TicketID] = append(t.s.scans[sc.TicketID], sc)
	}
}

func (t *txState) wallet(passengerID string) (*domain.Wallet, bool) {
	if w, ok := t.wallets[passengerID]; ok {
		return w, true
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	w, ok := t.s.wallets[passengerID]
	if !ok {
		return nil, false
	}
	c := *w
	return &c, true
}

func (t *txState) ticket(id string) (*domain.Ticket, bool) {
	if ticket, ok := t.tickets[id]; ok {
		return ticket, true
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	ticket, ok := t.s.tickets[id]
	if !ok {
		return nil, false
	}
	return copyTicket(ticket), true
}

type txWallets struct{ t *txState }

func (r *txWallets) GetByPassengerID(ctx context.Context, passengerID string) (*domain.Wallet, error) {
	w, ok := r.t.wallet(passengerID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *w
	return &c, nil
}

func (r *txWallets) GetForUpdate(ctx context.Context, passengerID string) (*domain.Wallet, error) {
	if err := r.t.lock(ctx, "wallet:"+passengerID); err != nil {
		return nil, err
	}
	w, ok := r.t.wallet(passengerID)
	if !ok {
		w = &domain.Wallet{PassengerID: passengerID, Balance: decimal.Zero, UpdatedAt: time.Now()}
	}
	r.t.wallets[passengerID] = w
	c := *w
	return &c, nil
}

func (r *txWallets) UpdateBalance(ctx context.Context, passengerID string, balance decimal.Decimal, at time.Time) error {
	w, ok := r.t.wallet(passengerID)
	if !ok {
		return repository.ErrNotFound
	}
	w.Balance = balance
	w.UpdatedAt = at
	r.t.wallets[passengerID] = w
	return nil
}

func (r *txWallets) AppendTransaction(ctx context.Context, txn *domain.WalletTransaction) error {
	c := *txn
	r.t.transactions = append(r.t.transactions, &c)
	return nil
}

func (r *txWallets) ListTransactions(ctx context.Context, passengerID string) ([]*domain.WalletTransaction, error) {
	var staged []*domain.WalletTransaction
	for _, txn := range r.t.transactions {
		if txn.PassengerID == passengerID {
			staged = append(staged, txn)
		}
	}
	r.t.s.mu.RLock()
	defer r.t.s.mu.RUnlock()
	return copyTransactions(r.t.s.transactions[passengerID], staged), nil
}

type txTickets struct{ t *txState }

func (r *txTickets) Create(ctx context.Context, ticket *domain.Ticket) error {
	if _, exists := r.t.ticket(ticket.ID); exists {
		return repository.ErrDuplicate
	}
	r.t.tickets[ticket.ID] = copyTicket(ticket)
	r.t.created = append(r.t.created, ticket.ID)
	return nil
}

func (r *txTickets) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.t.ticket(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyTicket(ticket), nil
}

func (r *txTickets) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	if err := r.t.lock(ctx, "ticket:"+id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *txTickets) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus, at time.Time) error {
	ticket, ok := r.t.ticket(id)
	if !ok {
		return repository.ErrNotFound
	}
	ticket.Status = status
	ticket.UpdatedAt = at
	r.t.tickets[id] = ticket
	return nil
}

func (r *txTickets) ListByPassengerID(ctx context.Context, passengerID string, limit int) ([]*domain.Ticket, error) {
	r.t.s.mu.RLock()
	defer r.t.s.mu.RUnlock()
	return r.t.s.ticketsOf(passengerID, r.t.tickets, limit), nil
}

type txScans struct{ t *txState }

func (r *txScans) Create(ctx context.Context, scan *domain.TicketScan) error {
	c := *scan
	r.t.scans = append(r.t.scans, &c)
	return nil
}

func (r *txScans) ListByTicketID(ctx context.Context, ticketID string) ([]*domain.TicketScan, error) {
	var staged []*domain.TicketScan
	for _, sc := range r.t.scans {
		if sc.TicketID == ticketID {
			staged = append(staged, sc)
		}
	}
	r.t.s.mu.RLock()
	defer r.t.s.mu.RUnlock()
	return copyScans(r.t.s.scans[ticketID], staged), nil
}

var (
	_ repository.Transactor       = (*Store)(nil)
	_ repository.WalletRepository = (*txWallets)(nil)
	_ repository.TicketRepository = (*txTickets)(nil)
	_ repository.ScanRepository   = (*txScans)(nil)
)
