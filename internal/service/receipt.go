package service

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"metro/internal/domain"
)

// ReceiptService handles receipt generation.
type ReceiptService struct{}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService() *ReceiptService {
	return &ReceiptService{}
}

// GenerateReceipt builds the receipt for a ledger entry.
func (s *ReceiptService) GenerateReceipt(txn *domain.WalletTransaction, balanceAfter decimal.Decimal) *domain.Receipt {
	return &domain.Receipt{
		ID:            uuid.New().String(),
		PassengerID:   txn.PassengerID,
		TransactionID: txn.ID,
		Amount:        txn.Amount,
		BalanceAfter:  balanceAfter,
		Description:   txn.Description,
		CreatedAt:     txn.CreatedAt,
	}
}

// FormatReceipt formats the receipt as plain text (for print).
func (s *ReceiptService) FormatReceipt(receipt *domain.Receipt) string {
	return `
=====================================
        METRO WALLET RECEIPT
=====================================
Receipt ID: ` + receipt.ID + `
Date: ` + receipt.CreatedAt.Format("Jan 02, 2006 3:04 PM") + `

` + receipt.Description + `
-------------------------------------
Amount:        ` + formatMoney(receipt.Amount) + `
Balance after: ` + formatMoney(receipt.BalanceAfter) + `

=====================================
     Thank you for riding the metro!
=====================================
`
}

func formatMoney(d decimal.Decimal) string {
	return fmt.Sprintf("$%s", d.StringFixed(2))
}
