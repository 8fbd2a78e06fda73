package postgres

import (
	"context"
	"database/sql"
	"errors"

	"metro/internal/domain"
	"metro/internal/repository"
)

// StationRepository is a PostgreSQL implementation of repository.StationRepository.
type StationRepository struct {
	q Querier
}

// NewStationRepository creates a new PostgreSQL station repository.
func NewStationRepository(db *sql.DB) *StationRepository {
	return &StationRepository{q: db}
}

// Create persists a new station.
func (r *StationRepository) Create(ctx context.Context, station *domain.Station) error {
	query := `INSERT INTO stations (id, code, name) VALUES ($1, $2, $3)`

	_, err := r.q.ExecContext(ctx, query, station.ID, station.Code, station.Name)
	return mapWriteError(err)
}

// GetByID retrieves a station by ID.
func (r *StationRepository) GetByID(ctx context.Context, id string) (*domain.Station, error) {
	if !validID(id) {
		return nil, repository.ErrNotFound
	}

	query := `SELECT id, code, name FROM stations WHERE id = $1`

	var station domain.Station
	err := r.q.QueryRowContext(ctx, query, id).Scan(&station.ID, &station.Code, &station.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &station, nil
}

// GetAll retrieves all stations ordered by code.
func (r *StationRepository) GetAll(ctx context.Context) ([]*domain.Station, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, code, name FROM stations ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []*domain.Station
	for rows.Next() {
		var station domain.Station
		if err := rows.Scan(&station.ID, &station.Code, &station.Name); err != nil {
			return nil, err
		}
		stations = append(stations, &station)
	}

	return stations, rows.Err()
}

// Ensure StationRepository implements repository.StationRepository.
var _ repository.StationRepository = (*StationRepository)(nil)
