package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopUpWallet_CreditsAndRecords(t *testing.T) {
	env := newTestEnv(t)

	receipt, err := env.wallets.TopUpWallet(context.Background(), TopUpRequest{
		PassengerID: "p1",
		Amount:      decimal.RequireFromString("25.50"),
	})
	require.NoError(t, err)

	assert.Equal(t, "p1", receipt.PassengerID)
	assert.Equal(t, "25.50", receipt.Amount.StringFixed(2))
	assert.Equal(t, "25.50", receipt.BalanceAfter.StringFixed(2))
	assert.Equal(t, "Wallet top-up", receipt.Description)
	assert.NotEmpty(t, receipt.TransactionID)

	txns, err := env.wallets.ListTransactions(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, receipt.TransactionID, txns[0].ID)
	assert.Equal(t, "25.50", env.balance(t, "p1"))
}

func TestTopUpWallet_RejectsInvalidAmounts(t *testing.T) {
	env := newTestEnv(t)

	for _, amount := range []string{"0", "-5.00", "0.001", "10.555", "1000000.00"} {
		t.Run(amount, func(t *testing.T) {
			_, err := env.wallets.TopUpWallet(context.Background(), TopUpRequest{
				PassengerID: "p1",
				Amount:      decimal.RequireFromString(amount),
			})
			assert.ErrorIs(t, err, ErrInvalidAmount)
		})
	}

	assert.Equal(t, "0.00", env.balance(t, "p1"))
	txns, err := env.wallets.ListTransactions(context.Background(), "p1")
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestTopUpWallet_AcceptsBounds(t *testing.T) {
	env := newTestEnv(t)
	env.topUp(t, "p1", "0.01")
	env.topUp(t, "p1", "999999.99")
	assert.Equal(t, "1000000.00", env.balance(t, "p1"))
}

func TestTopUpWallet_RejectsBalanceOverLimit(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 100; i++ {
		env.topUp(t, "p1", "999999.99")
	}
	require.Equal(t, "99999999.00", env.balance(t, "p1"))

	_, err := env.wallets.TopUpWallet(context.Background(), TopUpRequest{
		PassengerID: "p1",
		Amount:      decimal.RequireFromString("1.00"),
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Equal(t, "99999999.00", env.balance(t, "p1"))
	assert.Equal(t, "99999999.00", env.ledgerSum(t, "p1"))

	env.topUp(t, "p1", "0.99")
	assert.Equal(t, MaxBalance.StringFixed(2), env.balance(t, "p1"))
}

func TestTopUpWallet_RequiresPassenger(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.wallets.TopUpWallet(context.Background(), TopUpRequest{Amount: decimal.NewFromInt(5)})
	assert.ErrorIs(t, err, ErrInvalidPassengerID)
}

func TestGetWallet_ZeroWhenNeverToppedUp(t *testing.T) {
	env := newTestEnv(t)
	w, err := env.wallets.GetWallet(context.Background(), "newcomer")
	require.NoError(t, err)
	assert.Equal(t, "newcomer", w.PassengerID)
	assert.True(t, w.Balance.IsZero())
}

func TestWallet_BalanceEqualsLedgerSum(t *testing.T) {
	env := newTestEnv(t)
	env.topUp(t, "p1", "12.34")
	_, err := env.purchase("p1", "S1", "S2")
	require.NoError(t, err)
	env.topUp(t, "p1", "0.66")
	_, err = env.purchase("p1", "S2", "S3")
	require.NoError(t, err)
	_, err = env.purchase("p1", "S1", "S3")
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	assert.Equal(t, "3.00", env.balance(t, "p1"))
	assert.Equal(t, env.balance(t, "p1"), env.ledgerSum(t, "p1"))
}

func TestWallet_ConcurrentTopUpsAndPurchases(t *testing.T) {
	env := newTestEnv(t)
	env.topUp(t, "p1", "50.00")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = env.purchase("p1", "S1", "S3")
		}()
		go func() {
			defer wg.Done()
			_, err := env.wallets.TopUpWallet(context.Background(), TopUpRequest{
				PassengerID: "p1",
				Amount:      decimal.RequireFromString("1.25"),
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	w, err := env.wallets.GetWallet(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, w.Balance.IsNegative())
	assert.Equal(t, w.Balance.StringFixed(2), env.ledgerSum(t, "p1"))
}

func TestReceiptService_FormatReceipt(t *testing.T) {
	env := newTestEnv(t)
	receipt, err := env.wallets.TopUpWallet(context.Background(), TopUpRequest{
		PassengerID: "p1",
		Amount:      decimal.RequireFromString("7.5"),
	})
	require.NoError(t, err)

	text := NewReceiptService().FormatReceipt(receipt)
	assert.Contains(t, text, receipt.ID)
	assert.Contains(t, text, "Wallet top-up")
	assert.Contains(t, text, "$7.50")
}
