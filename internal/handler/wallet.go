package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"metro/internal/domain"
	"metro/internal/middleware"
	"metro/internal/service"
)

// recentTicketCount is how many tickets the wallet view lists.
const recentTicketCount = 5

// WalletHandler handles HTTP requests for a passenger's wallet.
type WalletHandler struct {
	walletService  *service.WalletService
	ticketService  *service.TicketService
	receiptService *service.ReceiptService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(
	walletService *service.WalletService,
	ticketService *service.TicketService,
	receiptService *service.ReceiptService,
) *WalletHandler {
	return &WalletHandler{
		walletService:  walletService,
		ticketService:  ticketService,
		receiptService: receiptService,
	}
}

// TopUpRequest is the HTTP request body for a top-up. Amount accepts a
// JSON number or string.
type TopUpRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// WalletResponse is the HTTP response for the wallet view.
type WalletResponse struct {
	PassengerID   string           `json:"passenger_id"`
	Balance       string           `json:"balance"`
	UpdatedAt     string           `json:"updated_at,omitempty"`
	RecentTickets []TicketResponse `json:"recent_tickets"`
}

// TransactionResponse is the HTTP representation of a ledger entry.
type TransactionResponse struct {
	ID          string `json:"id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

// ReceiptResponse is the HTTP response for a top-up.
type ReceiptResponse struct {
	ID            string `json:"id"`
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
	BalanceAfter  string `json:"balance_after"`
	Description   string `json:"description"`
	CreatedAt     string `json:"created_at"`
	Text          string `json:"text"`
}

// GetWallet handles GET /v1/wallet
func (h *WalletHandler) GetWallet(c *gin.Context) {
	ctx := c.Request.Context()
	passengerID := middleware.PassengerID(c)

	wallet, err := h.walletService.GetWallet(ctx, passengerID)
	if err != nil {
		respondError(c, err)
		return
	}

	tickets, err := h.ticketService.ListPassengerTickets(ctx, passengerID, recentTicketCount)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, WalletResponse{
		PassengerID:   wallet.PassengerID,
		Balance:       money(wallet.Balance),
		UpdatedAt:     timestamp(wallet.UpdatedAt),
		RecentTickets: toTicketResponses(tickets),
	})
}

// ListTransactions handles GET /v1/wallet/transactions
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	txns, err := h.walletService.ListTransactions(c.Request.Context(), middleware.PassengerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TransactionResponse, len(txns))
	for i, t := range txns {
		response[i] = TransactionResponse{
			ID:          t.ID,
			Amount:      money(t.Amount),
			Description: t.Description,
			CreatedAt:   timestamp(t.CreatedAt),
		}
	}
	respondJSON(c, http.StatusOK, response)
}

// TopUp handles POST /v1/wallet/topup
func (h *WalletHandler) TopUp(c *gin.Context) {
	var req TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	receipt, err := h.walletService.TopUpWallet(c.Request.Context(), service.TopUpRequest{
		PassengerID: middleware.PassengerID(c),
		Amount:      req.Amount,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toReceiptResponse(receipt, h.receiptService.FormatReceipt(receipt)))
}

func toReceiptResponse(r *domain.Receipt, text string) ReceiptResponse {
	return ReceiptResponse{
		ID:            r.ID,
		TransactionID: r.TransactionID,
		Amount:        money(r.Amount),
		BalanceAfter:  money(r.BalanceAfter),
		Description:   r.Description,
		CreatedAt:     timestamp(r.CreatedAt),
		Text:          text,
	}
}
