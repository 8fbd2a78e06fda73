package repository

import (
	"context"

	"metro/internal/domain"
)

// StationRepository defines the persistence operations for stations.
type StationRepository interface {
	// Create persists a new station. Returns ErrDuplicate if the code is taken.
	Create(ctx context.Context, station *domain.Station) error

	// GetByID retrieves a station by ID.
	GetByID(ctx context.Context, id string) (*domain.Station, error)

	// GetAll retrieves all stations ordered by code.
	GetAll(ctx context.Context) ([]*domain.Station, error)
}

// LineRepository defines the persistence operations for metro lines.
type LineRepository interface {
	// Create persists a new line. Returns ErrDuplicate if the code is taken.
	Create(ctx context.Context, line *domain.MetroLine) error

	// GetByID retrieves a line by ID.
	GetByID(ctx context.Context, id string) (*domain.MetroLine, error)

	// GetAll retrieves all lines ordered by code.
	GetAll(ctx context.Context) ([]*domain.MetroLine, error)

	// Update updates the flags and name of an existing line.
	Update(ctx context.Context, line *domain.MetroLine) error

	// HasPurchasable reports whether any line is both active and open for
	// ticket purchase.
	HasPurchasable(ctx context.Context) (bool, error)
}

// ConnectionRepository defines the persistence operations for connections.
type ConnectionRepository interface {
	// Create persists a new connection.
	Create(ctx context.Context, conn *domain.Connection) error

	// GetAll retrieves all connections in creation order.
	GetAll(ctx context.Context) ([]*domain.Connection, error)
}
