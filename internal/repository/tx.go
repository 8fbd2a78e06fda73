package repository

import "context"

// Tx exposes the repositories bound to one storage transaction.
type Tx struct {
	Wallets WalletRepository
	Tickets TicketRepository
	Scans   ScanRepository
}

// Transactor runs a unit of work atomically. If fn returns an error
// nothing it wrote is kept.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
