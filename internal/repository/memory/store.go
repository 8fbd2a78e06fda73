// Package memory provides an in-process implementation of the repository
// interfaces. It backs the server when STORE_DRIVER=memory and is the store
// used by the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"metro/internal/domain"
	"metro/internal/repository"
)

// Store holds all entities in maps guarded by a single RWMutex. Entity
// locks taken by GetForUpdate are separate per key, so transactions on
// different wallets or tickets never wait on each other.
type Store struct {
	mu sync.RWMutex

	stations     map[string]*domain.Station
	lines        map[string]*domain.MetroLine
	connections  []*domain.Connection
	wallets      map[string]*domain.Wallet
	transactions map[string][]*domain.WalletTransaction
	tickets      map[string]*domain.Ticket
	ticketOrder  map[string]int64
	ticketSeq    int64
	scans        map[string][]*domain.TicketScan

	locks *keyedLocks

	// Counters for verification.
	CommitCount   int32
	RollbackCount int32

	// Error injection.
	commitErr atomic.Value
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		stations:     make(map[string]*domain.Station),
		lines:        make(map[string]*domain.MetroLine),
		wallets:      make(map[string]*domain.Wallet),
		transactions: make(map[string][]*domain.WalletTransaction),
		tickets:      make(map[string]*domain.Ticket),
		ticketOrder:  make(map[string]int64),
		scans:        make(map[string][]*domain.TicketScan),
		locks:        newKeyedLocks(),
	}
}

// FailCommits makes every following commit fail with err. Pass nil to clear.
func (s *Store) FailCommits(err error) {
	s.commitErr.Store(errBox{err})
}

type errBox struct{ err error }

func (s *Store) injectedCommitError() error {
	if v, ok := s.commitErr.Load().(errBox); ok {
		return v.err
	}
	return nil
}

// Stations returns the station repository.
func (s *Store) Stations() *StationRepository { return &StationRepository{s: s} }

// Lines returns the line repository.
func (s *Store) Lines() *LineRepository { return &LineRepository{s: s} }

// Connections returns the connection repository.
func (s *Store) Connections() *ConnectionRepository { return &ConnectionRepository{s: s} }

// Wallets returns the non-transactional wallet repository.
func (s *Store) Wallets() *WalletRepository { return &WalletRepository{s: s} }

// Tickets returns the non-transactional ticket repository.
func (s *Store) Tickets() *TicketRepository { return &TicketRepository{s: s} }

// Scans returns the non-transactional scan repository.
func (s *Store) Scans() *ScanRepository { return &ScanRepository{s: s} }

// ──────────────────────────────────────────────
// STATIONS, LINES, CONNECTIONS
// ──────────────────────────────────────────────

// StationRepository is an in-memory repository.StationRepository.
type StationRepository struct{ s *Store }

func (r *StationRepository) Create(ctx context.Context, station *domain.Station) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.stations {
		if existing.Code == station.Code {
			return repository.ErrDuplicate
		}
	}
	c := *station
	r.s.stations[station.ID] = &c
	return nil
}

func (r *StationRepository) GetByID(ctx context.Context, id string) (*domain.Station, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	station, ok := r.s.stations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *station
	return &c, nil
}

func (r *StationRepository) GetAll(ctx context.Context) ([]*domain.Station, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := make([]*domain.Station, 0, len(r.s.stations))
	for _, station := range r.s.stations {
		c := *station
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

// LineRepository is an in-memory repository.LineRepository.
type LineRepository struct{ s *Store }

func (r *LineRepository) Create(ctx context.Context, line *domain.MetroLine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.lines {
		if existing.Code == line.Code {
			return repository.ErrDuplicate
		}
	}
	c := *line
	r.s.lines[line.ID] = &c
	return nil
}

func (r *LineRepository) GetByID(ctx context.Context, id string) (*domain.MetroLine, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	line, ok := r.s.lines[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *line
	return &c, nil
}

func (r *LineRepository) GetAll(ctx context.Context) ([]*domain.MetroLine, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := make([]*domain.MetroLine, 0, len(r.s.lines))
	for _, line := range r.s.lines {
		c := *line
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (r *LineRepository) Update(ctx context.Context, line *domain.MetroLine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.lines[line.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Name = line.Name
	existing.IsActive = line.IsActive
	existing.AllowTicketPurchase = line.AllowTicketPurchase
	return nil
}

func (r *LineRepository) HasPurchasable(ctx context.Context) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, line := range r.s.lines {
		if line.Purchasable() {
			return true, nil
		}
	}
	return false, nil
}

// ConnectionRepository is an in-memory repository.ConnectionRepository.
type ConnectionRepository struct{ s *Store }

func (r *ConnectionRepository) Create(ctx context.Context, conn *domain.Connection) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *conn
	r.s.connections = append(r.s.connections, &c)
	return nil
}

func (r *ConnectionRepository) GetAll(ctx context.Context) ([]*domain.Connection, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := make([]*domain.Connection, len(r.s.connections))
	for i, conn := range r.s.connections {
		c := *conn
		result[i] = &c
	}
	return result, nil
}

// Ensure repositories implement the interfaces.
var (
	_ repository.StationRepository    = (*StationRepository)(nil)
	_ repository.LineRepository       = (*LineRepository)(nil)
	_ repository.ConnectionRepository = (*ConnectionRepository)(nil)
)
