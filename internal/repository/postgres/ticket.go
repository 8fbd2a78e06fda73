package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"metro/internal/domain"
	"metro/internal/repository"
)

const ticketColumns = `
	id, passenger_id, source_station_id, destination_station_id,
	price, status, path, lines_used, created_at, updated_at
`

// TicketRepository is a PostgreSQL implementation of repository.TicketRepository.
type TicketRepository struct {
	q Querier
}

// NewTicketRepository creates a new PostgreSQL ticket repository.
func NewTicketRepository(db *sql.DB) *TicketRepository {
	return &TicketRepository{q: db}
}

// NewTicketRepositoryWithTx creates a ticket repository using a transaction.
func NewTicketRepositoryWithTx(tx *sql.Tx) *TicketRepository {
	return &TicketRepository{q: tx}
}

// Create persists a new ticket.
func (r *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	query := `
		INSERT INTO tickets (` + ticketColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q.ExecContext(ctx, query,
		ticket.ID,
		ticket.PassengerID,
		ticket.SourceStationID,
		ticket.DestinationStationID,
		ticket.Price,
		ticket.Status,
		pq.Array(nonNil(ticket.Path)),
		pq.Array(nonNil(ticket.LinesUsed)),
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)

	return err
}

// GetByID retrieves a ticket by ID.
func (r *TicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if !validID(id) {
		return nil, repository.ErrNotFound
	}

	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`

	return scanTicket(r.q.QueryRowContext(ctx, query, id))
}

// GetForUpdate retrieves a ticket with a row lock.
// Must be called on a transaction-scoped repository for the lock to hold.
func (r *TicketRepository) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	if !validID(id) {
		return nil, repository.ErrNotFound
	}

	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1 FOR UPDATE`

	return scanTicket(r.q.QueryRowContext(ctx, query, id))
}

// UpdateStatus changes the status of a ticket.
func (r *TicketRepository) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus, at time.Time) error {
	if !validID(id) {
		return repository.ErrNotFound
	}

	query := `UPDATE tickets SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := r.q.ExecContext(ctx, query, status, at, id)
	if err != nil {
		return err
	}

	return checkAffected(result)
}

// ListByPassengerID retrieves a passenger's tickets, newest first.
func (r *TicketRepository) ListByPassengerID(ctx context.Context, passengerID string, limit int) ([]*domain.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE passenger_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`

	// LIMIT NULL means no limit.
	var limitArg any
	if limit > 0 {
		limitArg = limit
	}

	rows, err := r.q.QueryContext(ctx, query, passengerID, limitArg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []*domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}

	return tickets, rows.Err()
}

// nonNil keeps NOT NULL array columns from receiving NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var ticket domain.Ticket
	err := row.Scan(
		&ticket.ID,
		&ticket.PassengerID,
		&ticket.SourceStationID,
		&ticket.DestinationStationID,
		&ticket.Price,
		&ticket.Status,
		pq.Array(&ticket.Path),
		pq.Array(&ticket.LinesUsed),
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &ticket, nil
}

// Ensure TicketRepository implements repository.TicketRepository.
var _ repository.TicketRepository = (*TicketRepository)(nil)
