package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"metro/internal/domain"
)

// CacheStore handles ticket caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// TicketCacheTTL bounds how long a ticket view may be served from cache.
// Scans invalidate the entry; the TTL covers a read racing a scan.
const TicketCacheTTL = 30 * time.Second

const ticketCachePrefix = "cache:ticket:"

// cachedTicket is the JSON form of a ticket in Redis.
type cachedTicket struct {
	ID                   string          `json:"id"`
	PassengerID          string          `json:"passenger_id"`
	SourceStationID      string          `json:"source_station_id"`
	DestinationStationID string          `json:"destination_station_id"`
	Price                decimal.Decimal `json:"price"`
	Status               string          `json:"status"`
	Path                 []string        `json:"path"`
	LinesUsed            []string        `json:"lines_used"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// GetTicket retrieves a ticket from cache. A miss returns nil, nil.
func (s *CacheStore) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	data, err := s.client.Get(ctx, ticketCachePrefix+ticketID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var c cachedTicket
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &domain.Ticket{
		ID:                   c.ID,
		PassengerID:          c.PassengerID,
		SourceStationID:      c.SourceStationID,
		DestinationStationID: c.DestinationStationID,
		Price:                c.Price,
		Status:               domain.TicketStatus(c.Status),
		Path:                 c.Path,
		LinesUsed:            c.LinesUsed,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}, nil
}

// SetTicket stores a ticket in cache.
func (s *CacheStore) SetTicket(ctx context.Context, ticket *domain.Ticket) error {
	data, err := json.Marshal(cachedTicket{
		ID:                   ticket.ID,
		PassengerID:          ticket.PassengerID,
		SourceStationID:      ticket.SourceStationID,
		DestinationStationID: ticket.DestinationStationID,
		Price:                ticket.Price,
		Status:               string(ticket.Status),
		Path:                 ticket.Path,
		LinesUsed:            ticket.LinesUsed,
		CreatedAt:            ticket.CreatedAt,
		UpdatedAt:            ticket.UpdatedAt,
	})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, ticketCachePrefix+ticket.ID, data, TicketCacheTTL).Err()
}

// InvalidateTicket removes a ticket from cache.
func (s *CacheStore) InvalidateTicket(ctx context.Context, ticketID string) error {
	return s.client.Del(ctx, ticketCachePrefix+ticketID).Err()
}
