package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"metro/internal/domain"
	"metro/internal/service"
)

// NetworkHandler handles HTTP requests for stations, lines and routes.
type NetworkHandler struct {
	networkService *service.NetworkService
}

// NewNetworkHandler creates a new NetworkHandler.
func NewNetworkHandler(networkService *service.NetworkService) *NetworkHandler {
	return &NetworkHandler{networkService: networkService}
}

// StationResponse is the HTTP representation of a station.
type StationResponse struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// LineResponse is the HTTP representation of a line.
type LineResponse struct {
	ID                  string `json:"id"`
	Code                string `json:"code"`
	Name                string `json:"name"`
	IsActive            bool   `json:"is_active"`
	AllowTicketPurchase bool   `json:"allow_ticket_purchase"`
}

// ConnectionResponse is the HTTP representation of a connection.
type ConnectionResponse struct {
	ID            string `json:"id"`
	LineID        string `json:"line_id"`
	FromStationID string `json:"from_station_id"`
	ToStationID   string `json:"to_station_id"`
}

// RouteResponse is the HTTP response for a route quote.
type RouteResponse struct {
	From      StationResponse `json:"from"`
	To        StationResponse `json:"to"`
	Path      []string        `json:"path"`
	PathRepr  string          `json:"path_repr"`
	Hops      int             `json:"hops"`
	Price     string          `json:"price"`
	LinesUsed []string        `json:"lines_used"`
}

// CreateStationRequest is the HTTP request body for creating a station.
type CreateStationRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// CreateLineRequest is the HTTP request body for creating a line.
type CreateLineRequest struct {
	Code                string `json:"code"`
	Name                string `json:"name"`
	IsActive            bool   `json:"is_active"`
	AllowTicketPurchase bool   `json:"allow_ticket_purchase"`
}

// UpdateLineRequest is the HTTP request body for updating a line.
type UpdateLineRequest struct {
	Name                *string `json:"name,omitempty"`
	IsActive            *bool   `json:"is_active,omitempty"`
	AllowTicketPurchase *bool   `json:"allow_ticket_purchase,omitempty"`
}

// CreateConnectionRequest is the HTTP request body for creating a connection.
type CreateConnectionRequest struct {
	LineID        string `json:"line_id"`
	FromStationID string `json:"from_station_id"`
	ToStationID   string `json:"to_station_id"`
}

func toStationResponse(s *domain.Station) StationResponse {
	return StationResponse{ID: s.ID, Code: s.Code, Name: s.Name}
}

func toLineResponse(l *domain.MetroLine) LineResponse {
	return LineResponse{
		ID:                  l.ID,
		Code:                l.Code,
		Name:                l.Name,
		IsActive:            l.IsActive,
		AllowTicketPurchase: l.AllowTicketPurchase,
	}
}

// ListStations handles GET /v1/stations
func (h *NetworkHandler) ListStations(c *gin.Context) {
	stations, err := h.networkService.ListStations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]StationResponse, len(stations))
	for i, s := range stations {
		response[i] = toStationResponse(s)
	}
	respondJSON(c, http.StatusOK, response)
}

// ListLines handles GET /v1/lines
func (h *NetworkHandler) ListLines(c *gin.Context) {
	lines, err := h.networkService.ListLines(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]LineResponse, len(lines))
	for i, l := range lines {
		response[i] = toLineResponse(l)
	}
	respondJSON(c, http.StatusOK, response)
}

// QuoteRoute handles GET /v1/routes?from=&to=
func (h *NetworkHandler) QuoteRoute(c *gin.Context) {
	quote, err := h.networkService.Quote(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, RouteResponse{
		From:      toStationResponse(quote.Source),
		To:        toStationResponse(quote.Destination),
		Path:      quote.Path,
		PathRepr:  strings.Join(quote.Path, "-"),
		Hops:      quote.StationIDs.Hops(),
		Price:     money(quote.Price),
		LinesUsed: quote.LinesUsed,
	})
}

// CreateStation handles POST /v1/admin/stations
func (h *NetworkHandler) CreateStation(c *gin.Context) {
	var req CreateStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	station, err := h.networkService.CreateStation(c.Request.Context(), service.CreateStationRequest{
		Code: req.Code,
		Name: req.Name,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toStationResponse(station))
}

// CreateLine handles POST /v1/admin/lines
func (h *NetworkHandler) CreateLine(c *gin.Context) {
	var req CreateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	line, err := h.networkService.CreateLine(c.Request.Context(), service.CreateLineRequest{
		Code:                req.Code,
		Name:                req.Name,
		IsActive:            req.IsActive,
		AllowTicketPurchase: req.AllowTicketPurchase,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toLineResponse(line))
}

// UpdateLine handles PATCH /v1/admin/lines/:id
func (h *NetworkHandler) UpdateLine(c *gin.Context) {
	var req UpdateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	line, err := h.networkService.UpdateLine(c.Request.Context(), service.UpdateLineRequest{
		ID:                  c.Param("id"),
		Name:                req.Name,
		IsActive:            req.IsActive,
		AllowTicketPurchase: req.AllowTicketPurchase,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toLineResponse(line))
}

// CreateConnection handles POST /v1/admin/connections
func (h *NetworkHandler) CreateConnection(c *gin.Context) {
	var req CreateConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	conn, err := h.networkService.CreateConnection(c.Request.Context(), service.CreateConnectionRequest{
		LineID:        req.LineID,
		FromStationID: req.FromStationID,
		ToStationID:   req.ToStationID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, ConnectionResponse{
		ID:            conn.ID,
		LineID:        conn.LineID,
		FromStationID: conn.FromStationID,
		ToStationID:   conn.ToStationID,
	})
}
