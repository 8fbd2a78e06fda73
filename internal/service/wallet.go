package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"metro/internal/domain"
	"metro/internal/metrics"
	"metro/internal/repository"
)

var (
	minTopUp = decimal.RequireFromString("0.01")
	maxTopUp = decimal.RequireFromString("999999.99")

	// MaxBalance is the largest balance the ledger columns can hold.
	MaxBalance = decimal.RequireFromString("99999999.99")
)

const topUpDescription = "Wallet top-up"

// WalletService handles wallet balances and their ledger.
type WalletService struct {
	transactor          repository.Transactor
	walletRepo          repository.WalletRepository
	receiptService      *ReceiptService
	notificationService *NotificationService
	logger              *slog.Logger
}

// NewWalletService creates a new WalletService.
func NewWalletService(
	transactor repository.Transactor,
	walletRepo repository.WalletRepository,
	receiptService *ReceiptService,
	notificationService *NotificationService,
	logger *slog.Logger,
) *WalletService {
	if logger == nil {
		logger = slog.Default()
	}
	return &WalletService{
		transactor:          transactor,
		walletRepo:          walletRepo,
		receiptService:      receiptService,
		notificationService: notificationService,
		logger:              logger,
	}
}

// TopUpRequest contains the parameters for crediting a wallet.
type TopUpRequest struct {
	PassengerID string
	Amount      decimal.Decimal
}

// TopUpWallet credits a wallet and records the matching ledger entry in
// one transaction.
func (s *WalletService) TopUpWallet(ctx context.Context, req TopUpRequest) (*domain.Receipt, error) {
	if req.PassengerID == "" {
		return nil, ErrInvalidPassengerID
	}
	if err := validateAmount(req.Amount); err != nil {
		return nil, err
	}

	var (
		txn     *domain.WalletTransaction
		balance decimal.Decimal
	)
	err := s.transactor.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		wallet, err := tx.Wallets.GetForUpdate(ctx, req.PassengerID)
		if err != nil {
			return err
		}

		balance = wallet.Balance.Add(req.Amount)
		if balance.GreaterThan(MaxBalance) {
			return fmt.Errorf("%w: balance would exceed %s", ErrInvalidAmount, MaxBalance.StringFixed(2))
		}

		at := now()
		if err := tx.Wallets.UpdateBalance(ctx, req.PassengerID, balance, at); err != nil {
			return err
		}

		txn = &domain.WalletTransaction{
			ID:          uuid.New().String(),
			PassengerID: req.PassengerID,
			Amount:      req.Amount,
			Description: topUpDescription,
			CreatedAt:   at,
		}
		return tx.Wallets.AppendTransaction(ctx, txn)
	})
	if err != nil {
		return nil, storageErr("top up wallet", err)
	}

	metrics.TopUps.Inc()
	s.logger.Info("wallet topped up",
		"passenger_id", req.PassengerID,
		"amount", req.Amount.StringFixed(2),
		"balance", balance.StringFixed(2))

	receipt := s.receiptService.GenerateReceipt(txn, balance)
	if s.notificationService != nil {
		_ = s.notificationService.NotifyWalletToppedUp(ctx, receipt)
	}
	return receipt, nil
}

// validateAmount accepts 0.01 to 999999.99 with at most two decimals.
func validateAmount(amount decimal.Decimal) error {
	if amount.LessThan(minTopUp) || amount.GreaterThan(maxTopUp) {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Truncate(2)) {
		return ErrInvalidAmount
	}
	return nil
}

// debitForPurchase takes amount from a wallet inside tx and returns the
// receipt of the debit. The balance is checked before anything is
// written, so a refused debit leaves the wallet untouched.
func (s *WalletService) debitForPurchase(ctx context.Context, tx repository.Tx, passengerID string, amount decimal.Decimal, description string) (*domain.Receipt, error) {
	wallet, err := tx.Wallets.GetForUpdate(ctx, passengerID)
	if err != nil {
		return nil, err
	}

	if wallet.Balance.LessThan(amount) {
		return nil, &InsufficientBalanceError{
			PassengerID: passengerID,
			Available:   wallet.Balance,
			Requested:   amount,
		}
	}

	at := now()
	balance := wallet.Balance.Sub(amount)
	if err := tx.Wallets.UpdateBalance(ctx, passengerID, balance, at); err != nil {
		return nil, err
	}

	txn := &domain.WalletTransaction{
		ID:          uuid.New().String(),
		PassengerID: passengerID,
		Amount:      amount.Neg(),
		Description: description,
		CreatedAt:   at,
	}
	if err := tx.Wallets.AppendTransaction(ctx, txn); err != nil {
		return nil, err
	}
	return s.receiptService.GenerateReceipt(txn, balance), nil
}

// GetWallet returns a passenger's wallet. A passenger who never topped up
// has a zero balance.
func (s *WalletService) GetWallet(ctx context.Context, passengerID string) (*domain.Wallet, error) {
	if passengerID == "" {
		return nil, ErrInvalidPassengerID
	}

	wallet, err := s.walletRepo.GetByPassengerID(ctx, passengerID)
	if errors.Is(err, repository.ErrNotFound) {
		return &domain.Wallet{PassengerID: passengerID, Balance: decimal.Zero}, nil
	}
	if err != nil {
		return nil, storageErr("get wallet", err)
	}
	return wallet, nil
}

// ListTransactions returns a passenger's ledger, oldest first.
func (s *WalletService) ListTransactions(ctx context.Context, passengerID string) ([]*domain.WalletTransaction, error) {
	if passengerID == "" {
		return nil, ErrInvalidPassengerID
	}

	txns, err := s.walletRepo.ListTransactions(ctx, passengerID)
	if err != nil {
		return nil, storageErr("list transactions", err)
	}
	return txns, nil
}
