package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"metro/internal/domain"
	"metro/internal/metrics"
	"metro/internal/network"
	"metro/internal/repository"
)

// NetworkService owns the station/line/connection records and the routing
// graph derived from them. Every mutation invalidates the cached graph.
type NetworkService struct {
	stationRepo    repository.StationRepository
	lineRepo       repository.LineRepository
	connectionRepo repository.ConnectionRepository
	cache          *network.GraphCache
	ratePerEdge    decimal.Decimal
	logger         *slog.Logger
}

// NewNetworkService creates a new NetworkService. A zero rate falls back
// to network.DefaultRatePerEdge.
func NewNetworkService(
	stationRepo repository.StationRepository,
	lineRepo repository.LineRepository,
	connectionRepo repository.ConnectionRepository,
	ratePerEdge decimal.Decimal,
	logger *slog.Logger,
) *NetworkService {
	if ratePerEdge.IsZero() {
		ratePerEdge = network.DefaultRatePerEdge
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &NetworkService{
		stationRepo:    stationRepo,
		lineRepo:       lineRepo,
		connectionRepo: connectionRepo,
		ratePerEdge:    ratePerEdge,
		logger:         logger,
	}
	s.cache = network.NewGraphCache(s.loadSnapshot)
	return s
}

func (s *NetworkService) loadSnapshot(ctx context.Context) (*network.Snapshot, error) {
	stations, err := s.stationRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	lines, err := s.lineRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	connections, err := s.connectionRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	snap := network.NewSnapshot(stations, lines, connections)
	metrics.GraphRebuilds.Inc()
	s.logger.Debug("network graph rebuilt",
		"stations", snap.Graph.NodeCount(),
		"connections", snap.Graph.EdgeCount())
	return snap, nil
}

// Snapshot returns the current network view.
func (s *NetworkService) Snapshot(ctx context.Context) (*network.Snapshot, error) {
	snap, err := s.cache.Get(ctx)
	if err != nil {
		return nil, storageErr("load network", err)
	}
	return snap, nil
}

// RatePerEdge returns the fare charged per hop.
func (s *NetworkService) RatePerEdge() decimal.Decimal {
	return s.ratePerEdge
}

// EnsurePurchasable returns ErrNoActiveLine unless at least one line is
// both active and open for ticket purchase.
func (s *NetworkService) EnsurePurchasable(ctx context.Context) error {
	ok, err := s.lineRepo.HasPurchasable(ctx)
	if err != nil {
		return storageErr("check purchasable lines", err)
	}
	if !ok {
		return ErrNoActiveLine
	}
	return nil
}

// Quote is the priced route between two stations.
type Quote struct {
	Source      *domain.Station
	Destination *domain.Station
	StationIDs  network.Path
	Path        []string // station codes
	Price       decimal.Decimal
	LinesUsed   []string
}

// Quote routes src to dst over the current graph and prices the result.
// A hop with no connection record is logged and left out of LinesUsed;
// it never affects the price.
func (s *NetworkService) Quote(ctx context.Context, srcID, dstID string) (*Quote, error) {
	if srcID == "" || dstID == "" {
		return nil, ErrInvalidStationID
	}
	if srcID == dstID {
		return nil, ErrSameStation
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	src, ok := snap.Station(srcID)
	if !ok {
		return nil, &NotFoundError{Entity: "station", ID: srcID}
	}
	dst, ok := snap.Station(dstID)
	if !ok {
		return nil, &NotFoundError{Entity: "station", ID: dstID}
	}

	path, err := network.ShortestPath(snap.Graph, srcID, dstID)
	if err != nil {
		return nil, err
	}

	lines, err := network.AnnotateLines(path, snap.Index)
	var unannotated *network.UnannotatedHopError
	if errors.As(err, &unannotated) {
		for _, hop := range unannotated.Hops {
			a, _ := snap.Station(hop.From)
			b, _ := snap.Station(hop.To)
			s.logger.Warn("route hop has no connection record",
				"from", stationCode(a, hop.From),
				"to", stationCode(b, hop.To))
		}
	} else if err != nil {
		return nil, err
	}

	return &Quote{
		Source:      src,
		Destination: dst,
		StationIDs:  path,
		Path:        snap.Codes(path),
		Price:       network.ComputePrice(path, s.ratePerEdge),
		LinesUsed:   lines,
	}, nil
}

func stationCode(st *domain.Station, fallback string) string {
	if st == nil {
		return fallback
	}
	return st.Code
}

// ListStations returns every station ordered by code.
func (s *NetworkService) ListStations(ctx context.Context) ([]*domain.Station, error) {
	stations, err := s.stationRepo.GetAll(ctx)
	if err != nil {
		return nil, storageErr("list stations", err)
	}
	return stations, nil
}

// ListLines returns every line ordered by code.
func (s *NetworkService) ListLines(ctx context.Context) ([]*domain.MetroLine, error) {
	lines, err := s.lineRepo.GetAll(ctx)
	if err != nil {
		return nil, storageErr("list lines", err)
	}
	return lines, nil
}

// CreateStationRequest contains the parameters for creating a station.
type CreateStationRequest struct {
	Code string
	Name string
}

// CreateStation adds a station to the network.
func (s *NetworkService) CreateStation(ctx context.Context, req CreateStationRequest) (*domain.Station, error) {
	code, name := strings.TrimSpace(req.Code), strings.TrimSpace(req.Name)
	if code == "" || name == "" {
		return nil, ErrInvalidCode
	}

	station := &domain.Station{
		ID:   uuid.New().String(),
		Code: code,
		Name: name,
	}
	if err := s.stationRepo.Create(ctx, station); err != nil {
		return nil, storageErr("create station", err)
	}

	s.cache.Invalidate()
	s.logger.Info("station created", "station_id", station.ID, "code", station.Code)
	return station, nil
}

// CreateLineRequest contains the parameters for creating a line.
type CreateLineRequest struct {
	Code                string
	Name                string
	IsActive            bool
	AllowTicketPurchase bool
}

// CreateLine adds a line to the network.
func (s *NetworkService) CreateLine(ctx context.Context, req CreateLineRequest) (*domain.MetroLine, error) {
	code, name := strings.TrimSpace(req.Code), strings.TrimSpace(req.Name)
	if code == "" || name == "" {
		return nil, ErrInvalidCode
	}

	line := &domain.MetroLine{
		ID:                  uuid.New().String(),
		Code:                code,
		Name:                name,
		IsActive:            req.IsActive,
		AllowTicketPurchase: req.AllowTicketPurchase,
	}
	if err := s.lineRepo.Create(ctx, line); err != nil {
		return nil, storageErr("create line", err)
	}

	s.cache.Invalidate()
	s.logger.Info("line created", "line_id", line.ID, "code", line.Code)
	return line, nil
}

// UpdateLineRequest contains the fields of a line to change. Nil fields
// are left untouched.
type UpdateLineRequest struct {
	ID                  string
	Name                *string
	IsActive            *bool
	AllowTicketPurchase *bool
}

// UpdateLine changes the name or the operating flags of a line.
func (s *NetworkService) UpdateLine(ctx context.Context, req UpdateLineRequest) (*domain.MetroLine, error) {
	if req.ID == "" {
		return nil, ErrInvalidLineID
	}

	line, err := s.lineRepo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, storageErr("get line", notFound("line", req.ID, err))
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrInvalidCode
		}
		line.Name = name
	}
	if req.IsActive != nil {
		line.IsActive = *req.IsActive
	}
	if req.AllowTicketPurchase != nil {
		line.AllowTicketPurchase = *req.AllowTicketPurchase
	}

	if err := s.lineRepo.Update(ctx, line); err != nil {
		return nil, storageErr("update line", notFound("line", req.ID, err))
	}

	s.cache.Invalidate()
	s.logger.Info("line updated",
		"line_id", line.ID,
		"active", line.IsActive,
		"allow_ticket_purchase", line.AllowTicketPurchase)
	return line, nil
}

// CreateConnectionRequest contains the parameters for linking two stations.
type CreateConnectionRequest struct {
	LineID        string
	FromStationID string
	ToStationID   string
}

// CreateConnection links two existing stations on an existing line.
func (s *NetworkService) CreateConnection(ctx context.Context, req CreateConnectionRequest) (*domain.Connection, error) {
	if req.LineID == "" {
		return nil, ErrInvalidLineID
	}
	if req.FromStationID == "" || req.ToStationID == "" {
		return nil, ErrInvalidStationID
	}
	if req.FromStationID == req.ToStationID {
		return nil, ErrSelfLoopConnection
	}

	if _, err := s.lineRepo.GetByID(ctx, req.LineID); err != nil {
		return nil, storageErr("get line", notFound("line", req.LineID, err))
	}
	for _, id := range []string{req.FromStationID, req.ToStationID} {
		if _, err := s.stationRepo.GetByID(ctx, id); err != nil {
			return nil, storageErr("get station", notFound("station", id, err))
		}
	}

	conn := &domain.Connection{
		ID:            uuid.New().String(),
		LineID:        req.LineID,
		FromStationID: req.FromStationID,
		ToStationID:   req.ToStationID,
	}
	if err := s.connectionRepo.Create(ctx, conn); err != nil {
		return nil, storageErr("create connection", err)
	}

	s.cache.Invalidate()
	s.logger.Info("connection created",
		"connection_id", conn.ID,
		"line_id", conn.LineID,
		"from", conn.FromStationID,
		"to", conn.ToStationID)
	return conn, nil
}

// now is the clock used for every timestamp the services write.
var now = func() time.Time { return time.Now().UTC() }
