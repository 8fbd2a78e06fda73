package repository

import (
	"context"
	"time"

	"metro/internal/domain"
)

// TicketRepository defines the persistence operations for tickets.
type TicketRepository interface {
	// Create persists a new ticket.
	Create(ctx context.Context, ticket *domain.Ticket) error

	// GetByID retrieves a ticket by ID.
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)

	// GetForUpdate retrieves a ticket and locks it until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error)

	// UpdateStatus changes the status of a ticket.
	UpdateStatus(ctx context.Context, id string, status domain.TicketStatus, at time.Time) error

	// ListByPassengerID retrieves a passenger's tickets, newest first.
	// A limit of zero or less returns all of them.
	ListByPassengerID(ctx context.Context, passengerID string, limit int) ([]*domain.Ticket, error)
}

// ScanRepository defines the persistence operations for the scan audit log.
type ScanRepository interface {
	// Create appends a scan record.
	Create(ctx context.Context, scan *domain.TicketScan) error

	// ListByTicketID retrieves the scans of a ticket, oldest first.
	ListByTicketID(ctx context.Context, ticketID string) ([]*domain.TicketScan, error)
}
