package app

import (
	"database/sql"

	"metro/internal/repository"
	"metro/internal/repository/memory"
	"metro/internal/repository/postgres"
)

// Stores bundles the repositories of one storage backend.
type Stores struct {
	Stations    repository.StationRepository
	Lines       repository.LineRepository
	Connections repository.ConnectionRepository
	Wallets     repository.WalletRepository
	Tickets     repository.TicketRepository
	Scans       repository.ScanRepository
	Transactor  repository.Transactor
}

// NewPostgresStores returns repositories backed by db.
func NewPostgresStores(db *sql.DB) Stores {
	return Stores{
		Stations:    postgres.NewStationRepository(db),
		Lines:       postgres.NewLineRepository(db),
		Connections: postgres.NewConnectionRepository(db),
		Wallets:     postgres.NewWalletRepository(db),
		Tickets:     postgres.NewTicketRepository(db),
		Scans:       postgres.NewScanRepository(db),
		Transactor:  postgres.NewTransactor(db),
	}
}

// NewMemoryStores returns repositories kept in process memory.
func NewMemoryStores() Stores {
	store := memory.NewStore()
	return Stores{
		Stations:    store.Stations(),
		Lines:       store.Lines(),
		Connections: store.Connections(),
		Wallets:     store.Wallets(),
		Tickets:     store.Tickets(),
		Scans:       store.Scans(),
		Transactor:  store,
	}
}
