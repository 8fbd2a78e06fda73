package postgres

import (
	"context"
	"database/sql"
	"errors"

	"metro/internal/domain"
	"metro/internal/repository"
)

// LineRepository is a PostgreSQL implementation of repository.LineRepository.
type LineRepository struct {
	q Querier
}

// NewLineRepository creates a new PostgreSQL line repository.
func NewLineRepository(db *sql.DB) *LineRepository {
	return &LineRepository{q: db}
}

// Create persists a new line.
func (r *LineRepository) Create(ctx context.Context, line *domain.MetroLine) error {
	query := `
		INSERT INTO metro_lines (id, code, name, is_active, allow_ticket_purchase)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.q.ExecContext(ctx, query,
		line.ID,
		line.Code,
		line.Name,
		line.IsActive,
		line.AllowTicketPurchase,
	)

	return mapWriteError(err)
}

// GetByID retrieves a line by ID.
func (r *LineRepository) GetByID(ctx context.Context, id string) (*domain.MetroLine, error) {
	if !validID(id) {
		return nil, repository.ErrNotFound
	}

	query := `
		SELECT id, code, name, is_active, allow_ticket_purchase
		FROM metro_lines WHERE id = $1
	`

	var line domain.MetroLine
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&line.ID,
		&line.Code,
		&line.Name,
		&line.IsActive,
		&line.AllowTicketPurchase,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &line, nil
}

// GetAll retrieves all lines ordered by code.
func (r *LineRepository) GetAll(ctx context.Context) ([]*domain.MetroLine, error) {
	query := `
		SELECT id, code, name, is_active, allow_ticket_purchase
		FROM metro_lines ORDER BY code
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []*domain.MetroLine
	for rows.Next() {
		var line domain.MetroLine
		if err := rows.Scan(
			&line.ID,
			&line.Code,
			&line.Name,
			&line.IsActive,
			&line.AllowTicketPurchase,
		); err != nil {
			return nil, err
		}
		lines = append(lines, &line)
	}

	return lines, rows.Err()
}

// Update updates the name and flags of an existing line.
func (r *LineRepository) Update(ctx context.Context, line *domain.MetroLine) error {
	if !validID(line.ID) {
		return repository.ErrNotFound
	}

	query := `
		UPDATE metro_lines
		SET name = $1, is_active = $2, allow_ticket_purchase = $3
		WHERE id = $4
	`

	result, err := r.q.ExecContext(ctx, query,
		line.Name,
		line.IsActive,
		line.AllowTicketPurchase,
		line.ID,
	)
	if err != nil {
		return err
	}

	return checkAffected(result)
}

// HasPurchasable reports whether any line is active and open for purchase.
func (r *LineRepository) HasPurchasable(ctx context.Context) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM metro_lines WHERE is_active AND allow_ticket_purchase
		)
	`

	var exists bool
	if err := r.q.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

// Ensure LineRepository implements repository.LineRepository.
var _ repository.LineRepository = (*LineRepository)(nil)
