package postgres

import (
	"context"
	"database/sql"

	"metro/internal/domain"
	"metro/internal/repository"
)

// ScanRepository is a PostgreSQL implementation of repository.ScanRepository.
type ScanRepository struct {
	q Querier
}

// NewScanRepository creates a new PostgreSQL scan repository.
func NewScanRepository(db *sql.DB) *ScanRepository {
	return &ScanRepository{q: db}
}

// NewScanRepositoryWithTx creates a scan repository using a transaction.
func NewScanRepositoryWithTx(tx *sql.Tx) *ScanRepository {
	return &ScanRepository{q: tx}
}

// Create appends a scan record.
func (r *ScanRepository) Create(ctx context.Context, scan *domain.TicketScan) error {
	query := `
		INSERT INTO ticket_scans (id, ticket_id, station_id, direction, scanned_by, scanned_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.q.ExecContext(ctx, query,
		scan.ID,
		scan.TicketID,
		scan.StationID,
		scan.Direction,
		scan.ScannedBy,
		scan.ScannedAt,
	)

	return err
}

// ListByTicketID retrieves the scans of a ticket, oldest first.
func (r *ScanRepository) ListByTicketID(ctx context.Context, ticketID string) ([]*domain.TicketScan, error) {
	if !validID(ticketID) {
		return nil, nil
	}

	query := `
		SELECT id, ticket_id, COALESCE(station_id::text, ''), direction, scanned_by, scanned_at
		FROM ticket_scans
		WHERE ticket_id = $1
		ORDER BY scanned_at, id
	`

	rows, err := r.q.QueryContext(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scans []*domain.TicketScan
	for rows.Next() {
		var scan domain.TicketScan
		if err := rows.Scan(
			&scan.ID,
			&scan.TicketID,
			&scan.StationID,
			&scan.Direction,
			&scan.ScannedBy,
			&scan.ScannedAt,
		); err != nil {
			return nil, err
		}
		scans = append(scans, &scan)
	}

	return scans, rows.Err()
}

// Ensure ScanRepository implements repository.ScanRepository.
var _ repository.ScanRepository = (*ScanRepository)(nil)
