package memory

import (
	"context"
	"sort"
	"time"

	"metro/internal/domain"
	"metro/internal/repository"
)

// TicketRepository is an in-memory repository.TicketRepository.
type TicketRepository struct{ s *Store }

func (r *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.tickets[ticket.ID]; exists {
		return repository.ErrDuplicate
	}
	r.s.insertTicket(copyTicket(ticket))
	return nil
}

func (r *TicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyTicket(t), nil
}

// GetForUpdate behaves like GetByID outside a transaction.
func (r *TicketRepository) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.GetByID(ctx, id)
}

func (r *TicketRepository) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.Status = status
	t.UpdatedAt = at
	return nil
}

func (r *TicketRepository) ListByPassengerID(ctx context.Context, passengerID string, limit int) ([]*domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.ticketsOf(passengerID, nil, limit), nil
}

// insertTicket must be called with s.mu held for writing.
func (s *Store) insertTicket(t *domain.Ticket) {
	s.ticketSeq++
	s.ticketOrder[t.ID] = s.ticketSeq
	s.tickets[t.ID] = t
}

// ticketsOf lists a passenger's tickets with staged ones overlaid, newest
// first. Staged tickets not yet committed count as the newest.
func (s *Store) ticketsOf(passengerID string, staged map[string]*domain.Ticket, limit int) []*domain.Ticket {
	type entry struct {
		t   *domain.Ticket
		seq int64
	}
	var entries []entry
	for id, t := range s.tickets {
		if st, ok := staged[id]; ok {
			t = st
		}
		if t.PassengerID == passengerID {
			entries = append(entries, entry{t: t, seq: s.ticketOrder[id]})
		}
	}
	for id, t := range staged {
		if _, committed := s.tickets[id]; committed || t.PassengerID != passengerID {
			continue
		}
		entries = append(entries, entry{t: t, seq: s.ticketSeq + 1})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].seq != entries[j].seq {
			return entries[i].seq > entries[j].seq
		}
		return entries[i].t.CreatedAt.After(entries[j].t.CreatedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	result := make([]*domain.Ticket, len(entries))
	for i, e := range entries {
		result[i] = copyTicket(e.t)
	}
	return result
}

func copyTicket(t *domain.Ticket) *domain.Ticket {
	c := *t
	c.Path = append([]string(nil), t.Path...)
	c.LinesUsed = append([]string(nil), t.LinesUsed...)
	return &c
}

// ScanRepository is an in-memory repository.ScanRepository.
type ScanRepository struct{ s *Store }

func (r *ScanRepository) Create(ctx context.Context, scan *domain.TicketScan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *scan
	r.s.scans[scan.TicketID] = append(r.s.scans[scan.TicketID], &c)
	return nil
}

func (r *ScanRepository) ListByTicketID(ctx context.Context, ticketID string) ([]*domain.TicketScan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return copyScans(r.s.scans[ticketID], nil), nil
}

func copyScans(committed, staged []*domain.TicketScan) []*domain.TicketScan {
	result := make([]*domain.TicketScan, 0, len(committed)+len(staged))
	for _, sc := range committed {
		c := *sc
		result = append(result, &c)
	}
	for _, sc := range staged {
		c := *sc
		result = append(result, &c)
	}
	return result
}

var (
	_ repository.TicketRepository = (*TicketRepository)(nil)
	_ repository.ScanRepository   = (*ScanRepository)(nil)
)
