package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"metro/internal/domain"
	"metro/internal/middleware"
	"metro/internal/service"
)

// ScannerHandler handles HTTP requests from gates and ticket counters.
type ScannerHandler struct {
	ticketService *service.TicketService
}

// NewScannerHandler creates a new ScannerHandler.
func NewScannerHandler(ticketService *service.TicketService) *ScannerHandler {
	return &ScannerHandler{ticketService: ticketService}
}

// ScanRequest is the HTTP request body for a gate scan.
type ScanRequest struct {
	TicketID  string `json:"ticket_id"`
	StationID string `json:"station_id"`
	Direction string `json:"direction"` // ENTRY or EXIT
}

// OfflineSaleRequest is the HTTP request body for a counter sale.
type OfflineSaleRequest struct {
	SourceStationID      string `json:"source_station_id"`
	DestinationStationID string `json:"destination_station_id"`
}

// ScanResponse is the HTTP representation of a scan record.
type ScanResponse struct {
	ID        string `json:"id"`
	TicketID  string `json:"ticket_id"`
	StationID string `json:"station_id"`
	Direction string `json:"direction"`
	ScannedBy string `json:"scanned_by"`
	ScannedAt string `json:"scanned_at"`
}

// ScanResultResponse is the HTTP response for a successful scan.
type ScanResultResponse struct {
	Message string         `json:"message"`
	Ticket  TicketResponse `json:"ticket"`
	Scan    ScanResponse   `json:"scan"`
}

func toScanResponse(s *domain.TicketScan) ScanResponse {
	return ScanResponse{
		ID:        s.ID,
		TicketID:  s.TicketID,
		StationID: s.StationID,
		Direction: string(s.Direction),
		ScannedBy: s.ScannedBy,
		ScannedAt: timestamp(s.ScannedAt),
	}
}

// Scan handles POST /v1/scanner/scans
func (h *ScannerHandler) Scan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.ticketService.ScanTicket(c.Request.Context(), service.ScanTicketRequest{
		TicketID:  req.TicketID,
		StationID: req.StationID,
		Direction: domain.ScanDirection(req.Direction),
		ScannedBy: middleware.ActorID(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, ScanResultResponse{
		Message: result.Message,
		Ticket:  toTicketResponse(result.Ticket),
		Scan:    toScanResponse(result.Scan),
	})
}

// OfflineSale handles POST /v1/scanner/offline-tickets
func (h *ScannerHandler) OfflineSale(c *gin.Context) {
	var req OfflineSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ticket, err := h.ticketService.OfflineSale(c.Request.Context(), service.OfflineSaleRequest{
		SourceStationID:      req.SourceStationID,
		DestinationStationID: req.DestinationStationID,
		SoldBy:               middleware.ActorID(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toTicketResponse(ticket))
}

// ListScans handles GET /v1/scanner/tickets/:id/scans
func (h *ScannerHandler) ListScans(c *gin.Context) {
	scans, err := h.ticketService.ListScans(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]ScanResponse, len(scans))
	for i, s := range scans {
		response[i] = toScanResponse(s)
	}
	respondJSON(c, http.StatusOK, response)
}
