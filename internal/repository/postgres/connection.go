package postgres

import (
	"context"
	"database/sql"

	"metro/internal/domain"
	"metro/internal/repository"
)

// ConnectionRepository is a PostgreSQL implementation of repository.ConnectionRepository.
type ConnectionRepository struct {
	q Querier
}

// NewConnectionRepository creates a new PostgreSQL connection repository.
func NewConnectionRepository(db *sql.DB) *ConnectionRepository {
	return &ConnectionRepository{q: db}
}

// Create persists a new connection.
func (r *ConnectionRepository) Create(ctx context.Context, conn *domain.Connection) error {
	query := `
		INSERT INTO connections (id, line_id, from_station_id, to_station_id)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.q.ExecContext(ctx, query,
		conn.ID,
		conn.LineID,
		conn.FromStationID,
		conn.ToStationID,
	)

	return err
}

// GetAll retrieves all connections in creation order.
func (r *ConnectionRepository) GetAll(ctx context.Context) ([]*domain.Connection, error) {
	query := `
		SELECT id, line_id, from_station_id, to_station_id
		FROM connections ORDER BY created_at, id
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conns []*domain.Connection
	for rows.Next() {
		var conn domain.Connection
		if err := rows.Scan(
			&conn.ID,
			&conn.LineID,
			&conn.FromStationID,
			&conn.ToStationID,
		); err != nil {
			return nil, err
		}
		conns = append(conns, &conn)
	}

	return conns, rows.Err()
}

// Ensure ConnectionRepository implements repository.ConnectionRepository.
var _ repository.ConnectionRepository = (*ConnectionRepository)(nil)
