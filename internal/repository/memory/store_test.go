package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metro/internal/domain"
	"metro/internal/repository"
)

func newTicket(id, passengerID string) *domain.Ticket {
	now := time.Now()
	return &domain.Ticket{
		ID:          id,
		PassengerID: passengerID,
		Price:       decimal.RequireFromString("10.00"),
		Status:      domain.TicketStatusActive,
		Path:        []string{"S1", "S2", "S3"},
		LinesUsed:   []string{"Red Line"},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestWithinTx_CommitMakesWritesVisible(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	err := s.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		w, err := tx.Wallets.GetForUpdate(ctx, "p1")
		require.NoError(t, err)
		assert.True(t, w.Balance.IsZero())
		require.NoError(t, tx.Wallets.UpdateBalance(ctx, "p1", decimal.RequireFromString("50.00"), time.Now()))
		require.NoError(t, tx.Wallets.AppendTransaction(ctx, &domain.WalletTransaction{
			ID: "t1", PassengerID: "p1", Amount: decimal.RequireFromString("50.00"),
		}))
		require.NoError(t, tx.Tickets.Create(ctx, newTicket("k1", "p1")))

		// Nothing is visible outside the transaction yet.
		_, err = s.Wallets().GetByPassengerID(ctx, "p1")
		assert.ErrorIs(t, err, repository.ErrNotFound)
		_, err = s.Tickets().GetByID(ctx, "k1")
		assert.ErrorIs(t, err, repository.ErrNotFound)

		// But it is visible inside.
		got, err := tx.Tickets.GetByID(ctx, "k1")
		require.NoError(t, err)
		assert.Equal(t, "p1", got.PassengerID)
		return nil
	})
	require.NoError(t, err)

	w, err := s.Wallets().GetByPassengerID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "50", w.Balance.String())

	txns, err := s.Wallets().ListTransactions(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, txns, 1)

	_, err = s.Tickets().GetByID(ctx, "k1")
	assert.NoError(t, err)
	assert.Equal(t, int32(1), s.CommitCount)
}

func TestWithinTx_ErrorDiscardsWrites(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		_, err := tx.Wallets.GetForUpdate(ctx, "p1")
		require.NoError(t, err)
		require.NoError(t, tx.Tickets.Create(ctx, newTicket("k1", "p1")))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Wallets().GetByPassengerID(ctx, "p1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.Tickets().GetByID(ctx, "k1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, int32(1), s.RollbackCount)
}

func TestWithinTx_CommitFailureDiscardsWrites(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	s.FailCommits(errors.New("disk full"))

	err := s.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.Tickets.Create(ctx, newTicket("k1", "p1"))
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	_, err = s.Tickets().GetByID(ctx, "k1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	s.FailCommits(nil)
	err = s.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.Tickets.Create(ctx, newTicket("k1", "p1"))
	})
	assert.NoError(t, err)
}

func TestWithinTx_LocksSerializeReadModifyWrite(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	const n = 50

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
				w, err := tx.Wallets.GetForUpdate(ctx, "p1")
				if err != nil {
					return err
				}
				return tx.Wallets.UpdateBalance(ctx, "p1", w.Balance.Add(decimal.NewFromInt(1)), time.Now())
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	w, err := s.Wallets().GetByPassengerID(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(n)), "got %s", w.Balance)
}

func TestWithinTx_LockWaitHonoursContext(t *testing.T) {
	s := NewStore()
	locked := make(chan struct{})
	done := make(chan struct{})

	go func() {
		_ = s.WithinTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
			_, err := tx.Wallets.GetForUpdate(ctx, "p1")
			close(locked)
			<-done
			return err
		})
	}()
	<-locked

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		_, err := tx.Wallets.GetForUpdate(ctx, "p1")
		return err
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(done)
}

func TestWithinTx_PanicRollsBack(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = s.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			_, _ = tx.Wallets.GetForUpdate(ctx, "p1")
			panic("unexpected")
		})
	})

	// The wallet lock must have been released.
	err := s.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		_, err := tx.Wallets.GetForUpdate(ctx, "p1")
		return err
	})
	assert.NoError(t, err)
	assert.Equal(t, int32(1), s.RollbackCount)
}

func TestTickets_ListNewestFirstWithLimit(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	repo := s.Tickets()

	for _, id := range []string{"k1", "k2", "k3"} {
		require.NoError(t, repo.Create(ctx, newTicket(id, "p1")))
	}
	require.NoError(t, repo.Create(ctx, newTicket("other", "p2")))

	all, err := repo.ListByPassengerID(ctx, "p1", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "k3", all[0].ID)
	assert.Equal(t, "k1", all[2].ID)

	limited, err := repo.ListByPassengerID(ctx, "p1", 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "k3", limited[0].ID)
	assert.Equal(t, "k2", limited[1].ID)
}

func TestTickets_ReturnedValuesAreCopies(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Tickets().Create(ctx, newTicket("k1", "p1")))

	got, err := s.Tickets().GetByID(ctx, "k1")
	require.NoError(t, err)
	got.Status = domain.TicketStatusUsed
	got.Path[0] = "XX"

	again, err := s.Tickets().GetByID(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusActive, again.Status)
	assert.Equal(t, "S1", again.Path[0])
}

func TestStations_DuplicateCode(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Stations().Create(ctx, &domain.Station{ID: "1", Code: "S1", Name: "One"}))
	err := s.Stations().Create(ctx, &domain.Station{ID: "2", Code: "S1", Name: "Other"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestLines_HasPurchasable(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	lines := s.Lines()

	ok, err := lines.HasPurchasable(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	line := &domain.MetroLine{ID: "l1", Code: "RED", Name: "Red Line", IsActive: true, AllowTicketPurchase: false}
	require.NoError(t, lines.Create(ctx, line))
	ok, _ = lines.HasPurchasable(ctx)
	assert.False(t, ok)

	line.AllowTicketPurchase = true
	require.NoError(t, lines.Update(ctx, line))
	ok, _ = lines.HasPurchasable(ctx)
	assert.True(t, ok)
}
