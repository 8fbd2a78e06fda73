package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"metro/internal/domain"
	"metro/internal/metrics"
	"metro/internal/redis"
	"metro/internal/repository"
)

const (
	scanLockTTL = 10 * time.Second

	// DefaultOfflinePassengerID owns tickets sold at a counter.
	DefaultOfflinePassengerID = "offline"
)

// TicketService handles ticket sales and the gate lifecycle.
type TicketService struct {
	transactor          repository.Transactor
	ticketRepo          repository.TicketRepository
	scanRepo            repository.ScanRepository
	networkService      *NetworkService
	walletService       *WalletService
	cacheStore          redis.TicketCacheInterface
	lockStore           redis.LockStoreInterface
	notificationService *NotificationService
	offlinePassengerID  string
	logger              *slog.Logger
}

// NewTicketService creates a new TicketService. cacheStore and lockStore
// may be nil when Redis is disabled.
func NewTicketService(
	transactor repository.Transactor,
	ticketRepo repository.TicketRepository,
	scanRepo repository.ScanRepository,
	networkService *NetworkService,
	walletService *WalletService,
	cacheStore redis.TicketCacheInterface,
	lockStore redis.LockStoreInterface,
	notificationService *NotificationService,
	offlinePassengerID string,
	logger *slog.Logger,
) *TicketService {
	if offlinePassengerID == "" {
		offlinePassengerID = DefaultOfflinePassengerID
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TicketService{
		transactor:          transactor,
		ticketRepo:          ticketRepo,
		scanRepo:            scanRepo,
		networkService:      networkService,
		walletService:       walletService,
		cacheStore:          cacheStore,
		lockStore:           lockStore,
		notificationService: notificationService,
		offlinePassengerID:  offlinePassengerID,
		logger:              logger,
	}
}

// PurchaseTicketRequest contains the parameters for buying a ticket.
type PurchaseTicketRequest struct {
	PassengerID          string
	SourceStationID      string
	DestinationStationID string
}

// Purchase is a ticket together with the receipt of the debit that paid for it.
type Purchase struct {
	Ticket  *domain.Ticket
	Receipt *domain.Receipt
}

// PurchaseTicket prices the shortest route and, in one transaction, debits
// the passenger's wallet and issues an ACTIVE ticket. Either both happen
// or neither does.
func (s *TicketService) PurchaseTicket(ctx context.Context, req PurchaseTicketRequest) (*Purchase, error) {
	if req.PassengerID == "" {
		return nil, ErrInvalidPassengerID
	}

	quote, err := s.purchasableQuote(ctx, req.SourceStationID, req.DestinationStationID)
	if err != nil {
		s.rejected(err)
		return nil, err
	}

	ticket := newTicket(req.PassengerID, quote, domain.TicketStatusActive)
	description := fmt.Sprintf("Ticket purchase %s->%s", quote.Source.Code, quote.Destination.Code)

	var receipt *domain.Receipt
	err = s.transactor.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		receipt, err = s.walletService.debitForPurchase(ctx, tx, req.PassengerID, quote.Price, description)
		if err != nil {
			return err
		}
		return tx.Tickets.Create(ctx, ticket)
	})
	if err != nil {
		err = storageErr("purchase ticket", err)
		s.rejected(err)
		return nil, err
	}

	metrics.TicketsPurchased.Inc()
	s.logger.Info("ticket purchased",
		"ticket_id", ticket.ID,
		"passenger_id", ticket.PassengerID,
		"path", ticket.PathRepr(),
		"price", ticket.Price.StringFixed(2),
		"receipt_id", receipt.ID)

	if s.notificationService != nil {
		_ = s.notificationService.NotifyTicketPurchased(ctx, ticket, receipt)
	}
	return &Purchase{Ticket: ticket, Receipt: receipt}, nil
}

// OfflineSaleRequest contains the parameters for a counter sale.
type OfflineSaleRequest struct {
	SourceStationID      string
	DestinationStationID string
	SoldBy               string
}

// OfflineSale issues a ticket paid outside the system. It is created
// already USED, owned by the offline passenger, and touches no wallet.
func (s *TicketService) OfflineSale(ctx context.Context, req OfflineSaleRequest) (*domain.Ticket, error) {
	if req.SoldBy == "" {
		return nil, ErrInvalidActorID
	}

	quote, err := s.prepareSale(ctx, req.SourceStationID, req.DestinationStationID)
	if err != nil {
		return nil, err
	}

	ticket := newTicket(s.offlinePassengerID, quote, domain.TicketStatusUsed)
	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		return nil, storageErr("offline sale", err)
	}

	metrics.TicketsSoldOffline.Inc()
	s.logger.Info("offline ticket sold",
		"ticket_id", ticket.ID,
		"sold_by", req.SoldBy,
		"path", ticket.PathRepr(),
		"price", ticket.Price.StringFixed(2))
	return ticket, nil
}

// prepareSale validates the station pair and quotes the route.
func (s *TicketService) prepareSale(ctx context.Context, srcID, dstID string) (*Quote, error) {
	if err := checkStationPair(srcID, dstID); err != nil {
		return nil, err
	}
	return s.networkService.Quote(ctx, srcID, dstID)
}

// purchasableQuote is prepareSale for wallet purchases, which also need a
// line that is open for ticket sales. Counter sales do not.
func (s *TicketService) purchasableQuote(ctx context.Context, srcID, dstID string) (*Quote, error) {
	if err := checkStationPair(srcID, dstID); err != nil {
		return nil, err
	}
	if err := s.networkService.EnsurePurchasable(ctx); err != nil {
		return nil, err
	}
	return s.networkService.Quote(ctx, srcID, dstID)
}

func checkStationPair(srcID, dstID string) error {
	if srcID == "" || dstID == "" {
		return ErrInvalidStationID
	}
	if srcID == dstID {
		return ErrSameStation
	}
	return nil
}

func newTicket(passengerID string, quote *Quote, status domain.TicketStatus) *domain.Ticket {
	at := now()
	return &domain.Ticket{
		ID:                   uuid.New().String(),
		PassengerID:          passengerID,
		SourceStationID:      quote.Source.ID,
		DestinationStationID: quote.Destination.ID,
		Price:                quote.Price,
		Status:               status,
		Path:                 quote.Path,
		LinesUsed:            quote.LinesUsed,
		CreatedAt:            at,
		UpdatedAt:            at,
	}
}

func (s *TicketService) rejected(err error) {
	var reason string
	switch {
	case errors.Is(err, ErrInsufficientBalance):
		reason = "insufficient_balance"
	case errors.Is(err, ErrNoActiveLine):
		reason = "no_active_line"
	case errors.Is(err, ErrNoPath):
		reason = "no_path"
	case errors.Is(err, repository.ErrNotFound):
		reason = "not_found"
	case errors.Is(err, ErrSameStation), errors.Is(err, ErrInvalidStationID):
		reason = "invalid_request"
	default:
		reason = "storage"
	}
	metrics.PurchasesRejected.WithLabelValues(reason).Inc()
}

// ScanTicketRequest contains the parameters for a gate scan.
type ScanTicketRequest struct {
	TicketID  string
	StationID string
	Direction domain.ScanDirection
	ScannedBy string
}

// ScanResult is the outcome of a successful scan.
type ScanResult struct {
	Ticket  *domain.Ticket
	Scan    *domain.TicketScan
	Message string
}

// ScanTicket advances a ticket through the gate lifecycle: ENTRY moves
// ACTIVE to IN_USE and EXIT moves IN_USE to USED. Any other combination is
// refused with an *IllegalTransitionError and changes nothing.
func (s *TicketService) ScanTicket(ctx context.Context, req ScanTicketRequest) (*ScanResult, error) {
	if req.TicketID == "" {
		return nil, ErrInvalidTicketID
	}
	if req.StationID == "" {
		return nil, ErrInvalidStationID
	}
	if !req.Direction.Valid() {
		return nil, ErrInvalidDirection
	}
	if req.ScannedBy == "" {
		return nil, ErrInvalidActorID
	}

	if s.lockStore != nil {
		token, err := s.lockStore.AcquireTicketLock(ctx, req.TicketID, scanLockTTL)
		if err != nil {
			s.logger.Warn("scan lock unavailable, relying on row lock",
				"ticket_id", req.TicketID, "error", err)
		} else if token == "" {
			s.scanned(req.Direction, "in_progress")
			return nil, ErrScanInProgress
		} else {
			defer func() {
				_ = s.lockStore.ReleaseTicketLock(context.WithoutCancel(ctx), req.TicketID, token)
			}()
		}
	}

	snap, err := s.networkService.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := snap.Station(req.StationID); !ok {
		return nil, &NotFoundError{Entity: "station", ID: req.StationID}
	}

	var (
		ticket *domain.Ticket
		scan   *domain.TicketScan
	)
	err = s.transactor.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		ticket, err = tx.Tickets.GetForUpdate(ctx, req.TicketID)
		if err != nil {
			return notFound("ticket", req.TicketID, err)
		}

		next, ok := ticket.Status.Next(req.Direction)
		if !ok {
			return &IllegalTransitionError{Direction: req.Direction, Status: ticket.Status}
		}

		at := now()
		if err := tx.Tickets.UpdateStatus(ctx, ticket.ID, next, at); err != nil {
			return err
		}
		ticket.Status = next
		ticket.UpdatedAt = at

		scan = &domain.TicketScan{
			ID:        uuid.New().String(),
			TicketID:  ticket.ID,
			StationID: req.StationID,
			Direction: req.Direction,
			ScannedBy: req.ScannedBy,
			ScannedAt: at,
		}
		return tx.Scans.Create(ctx, scan)
	})
	if err != nil {
		err = storageErr("scan ticket", err)
		if errors.Is(err, ErrIllegalTransition) {
			s.scanned(req.Direction, "rejected")
		} else {
			s.scanned(req.Direction, "error")
		}
		return nil, err
	}

	s.scanned(req.Direction, "ok")
	s.invalidateTicket(ctx, ticket.ID)
	s.logger.Info("ticket scanned",
		"ticket_id", ticket.ID,
		"station_id", req.StationID,
		"direction", req.Direction,
		"status", ticket.Status)
	if s.notificationService != nil {
		_ = s.notificationService.NotifyTicketScanned(ctx, ticket, scan)
	}

	return &ScanResult{
		Ticket:  ticket,
		Scan:    scan,
		Message: scanMessage(req.Direction, ticket.Status),
	}, nil
}

func scanMessage(d domain.ScanDirection, status domain.TicketStatus) string {
	if d == domain.ScanDirectionEntry {
		return fmt.Sprintf("Entry scan successful. Ticket is now %s.", status)
	}
	return fmt.Sprintf("Exit scan successful. Ticket is now %s.", status)
}

func (s *TicketService) scanned(d domain.ScanDirection, outcome string) {
	metrics.Scans.WithLabelValues(string(d), outcome).Inc()
}

// GetTicket retrieves a ticket by ID.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	if ticketID == "" {
		return nil, ErrInvalidTicketID
	}

	if s.cacheStore != nil {
		if cached, err := s.cacheStore.GetTicket(ctx, ticketID); err == nil && cached != nil {
			return cached, nil
		}
	}

	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, storageErr("get ticket", notFound("ticket", ticketID, err))
	}
	s.cacheTicket(ctx, ticket)
	return ticket, nil
}

// GetPassengerTicket retrieves a ticket owned by passengerID. Tickets of
// other passengers are reported as not found.
func (s *TicketService) GetPassengerTicket(ctx context.Context, passengerID, ticketID string) (*domain.Ticket, error) {
	if passengerID == "" {
		return nil, ErrInvalidPassengerID
	}

	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.PassengerID != passengerID {
		return nil, &NotFoundError{Entity: "ticket", ID: ticketID}
	}
	return ticket, nil
}

// ListPassengerTickets returns a passenger's tickets, newest first. A
// limit of zero or less returns all of them.
func (s *TicketService) ListPassengerTickets(ctx context.Context, passengerID string, limit int) ([]*domain.Ticket, error) {
	if passengerID == "" {
		return nil, ErrInvalidPassengerID
	}

	tickets, err := s.ticketRepo.ListByPassengerID(ctx, passengerID, limit)
	if err != nil {
		return nil, storageErr("list tickets", err)
	}
	return tickets, nil
}

// ListScans returns the scan history of a ticket, oldest first.
func (s *TicketService) ListScans(ctx context.Context, ticketID string) ([]*domain.TicketScan, error) {
	if ticketID == "" {
		return nil, ErrInvalidTicketID
	}

	if _, err := s.ticketRepo.GetByID(ctx, ticketID); err != nil {
		return nil, storageErr("get ticket", notFound("ticket", ticketID, err))
	}

	scans, err := s.scanRepo.ListByTicketID(ctx, ticketID)
	if err != nil {
		return nil, storageErr("list scans", err)
	}
	return scans, nil
}

// cacheTicket stores only tickets that no scan can change any more. A
// live ticket read just before a scan commits could otherwise be written
// back after the scan's invalidation and serve a stale status.
func (s *TicketService) cacheTicket(ctx context.Context, ticket *domain.Ticket) {
	if s.cacheStore == nil || !ticket.Status.Terminal() {
		return
	}
	if err := s.cacheStore.SetTicket(ctx, ticket); err != nil {
		s.logger.Warn("ticket cache write failed", "ticket_id", ticket.ID, "error", err)
	}
}

func (s *TicketService) invalidateTicket(ctx context.Context, ticketID string) {
	if s.cacheStore == nil {
		return
	}
	if err := s.cacheStore.InvalidateTicket(ctx, ticketID); err != nil {
		s.logger.Warn("ticket cache invalidation failed", "ticket_id", ticketID, "error", err)
	}
}
