package redis

import (
	"context"
	"time"

	"metro/internal/domain"
)

// TicketCacheInterface defines the interface for ticket caching.
type TicketCacheInterface interface {
	GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error)
	SetTicket(ctx context.Context, ticket *domain.Ticket) error
	InvalidateTicket(ctx context.Context, ticketID string) error
}

// LockStoreInterface defines the interface for distributed locking.
// An empty token from AcquireTicketLock means the lock is held elsewhere.
type LockStoreInterface interface {
	AcquireTicketLock(ctx context.Context, ticketID string, ttl time.Duration) (string, error)
	ReleaseTicketLock(ctx context.Context, ticketID, token string) error
}

// Ensure concrete types implement interfaces.
var (
	_ TicketCacheInterface = (*CacheStore)(nil)
	_ LockStoreInterface   = (*LockStore)(nil)
)
