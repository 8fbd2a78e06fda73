package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"metro/internal/domain"
	"metro/internal/middleware"
	"metro/internal/service"
)

// TicketHandler handles HTTP requests for a passenger's tickets.
type TicketHandler struct {
	ticketService  *service.TicketService
	receiptService *service.ReceiptService
}

// NewTicketHandler creates a new TicketHandler.
func NewTicketHandler(ticketService *service.TicketService, receiptService *service.ReceiptService) *TicketHandler {
	return &TicketHandler{ticketService: ticketService, receiptService: receiptService}
}

// PurchaseResponse is a new ticket plus the receipt of its wallet debit.
type PurchaseResponse struct {
	TicketResponse
	Receipt ReceiptResponse `json:"receipt"`
}

// PurchaseTicketRequest is the HTTP request body for buying a ticket.
type PurchaseTicketRequest struct {
	SourceStationID      string `json:"source_station_id"`
	DestinationStationID string `json:"destination_station_id"`
}

// TicketResponse is the HTTP representation of a ticket.
type TicketResponse struct {
	ID                   string   `json:"id"`
	PassengerID          string   `json:"passenger_id"`
	SourceStationID      string   `json:"source_station_id"`
	DestinationStationID string   `json:"destination_station_id"`
	Price                string   `json:"price"`
	Status               string   `json:"status"`
	Path                 []string `json:"path"`
	PathRepr             string   `json:"path_repr"`
	LinesUsed            []string `json:"lines_used"`
	LinesUsedRepr        string   `json:"lines_used_repr"`
	CreatedAt            string   `json:"created_at"`
	UpdatedAt            string   `json:"updated_at"`
}

func toTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:                   t.ID,
		PassengerID:          t.PassengerID,
		SourceStationID:      t.SourceStationID,
		DestinationStationID: t.DestinationStationID,
		Price:                money(t.Price),
		Status:               string(t.Status),
		Path:                 t.Path,
		PathRepr:             t.PathRepr(),
		LinesUsed:            t.LinesUsed,
		LinesUsedRepr:        t.LinesUsedRepr(),
		CreatedAt:            timestamp(t.CreatedAt),
		UpdatedAt:            timestamp(t.UpdatedAt),
	}
}

func toTicketResponses(tickets []*domain.Ticket) []TicketResponse {
	response := make([]TicketResponse, len(tickets))
	for i, t := range tickets {
		response[i] = toTicketResponse(t)
	}
	return response
}

// PurchaseTicket handles POST /v1/tickets
func (h *TicketHandler) PurchaseTicket(c *gin.Context) {
	var req PurchaseTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	purchase, err := h.ticketService.PurchaseTicket(c.Request.Context(), service.PurchaseTicketRequest{
		PassengerID:          middleware.PassengerID(c),
		SourceStationID:      req.SourceStationID,
		DestinationStationID: req.DestinationStationID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, PurchaseResponse{
		TicketResponse: toTicketResponse(purchase.Ticket),
		Receipt:        toReceiptResponse(purchase.Receipt, h.receiptService.FormatReceipt(purchase.Receipt)),
	})
}

// ListTickets handles GET /v1/tickets?limit=
func (h *TicketHandler) ListTickets(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}

	tickets, err := h.ticketService.ListPassengerTickets(c.Request.Context(), middleware.PassengerID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTicketResponses(tickets))
}

// GetTicket handles GET /v1/tickets/:id
func (h *TicketHandler) GetTicket(c *gin.Context) {
	ticket, err := h.ticketService.GetPassengerTicket(c.Request.Context(), middleware.PassengerID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTicketResponse(ticket))
}
