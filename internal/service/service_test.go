package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"metro/internal/domain"
	"metro/internal/redis"
	"metro/internal/repository/memory"
)

// testEnv wires the services over an in-memory store holding
// S1 -L1- S2 -L1- S3 and an isolated S4.
type testEnv struct {
	store    *memory.Store
	network  *NetworkService
	wallets  *WalletService
	tickets  *TicketService
	stations map[string]string // code -> id
	lineID   string
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWith(t, nil, nil)
}

func newTestEnvWith(t *testing.T, cache *fakeTicketCache, locks *fakeLockStore) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := discardLogger()
	store := memory.NewStore()

	ns := NewNetworkService(store.Stations(), store.Lines(), store.Connections(), decimal.Zero, logger)
	notifications := NewNotificationService(logger)
	ws := NewWalletService(store, store.Wallets(), NewReceiptService(), notifications, logger)

	// Keep absent fakes as nil interfaces.
	var (
		ticketCache redis.TicketCacheInterface
		lockStore   redis.LockStoreInterface
	)
	if cache != nil {
		ticketCache = cache
	}
	if locks != nil {
		lockStore = locks
	}
	ts := NewTicketService(store, store.Tickets(), store.Scans(), ns, ws, ticketCache, lockStore, notifications, "", logger)

	env := &testEnv{store: store, network: ns, wallets: ws, tickets: ts, stations: map[string]string{}}
	for _, code := range []string{"S1", "S2", "S3", "S4"} {
		st, err := ns.CreateStation(ctx, CreateStationRequest{Code: code, Name: "Station " + code})
		require.NoError(t, err)
		env.stations[code] = st.ID
	}
	line, err := ns.CreateLine(ctx, CreateLineRequest{Code: "L1", Name: "L1", IsActive: true, AllowTicketPurchase: true})
	require.NoError(t, err)
	env.lineID = line.ID

	env.connect(t, "S1", "S2")
	env.connect(t, "S2", "S3")
	return env
}

func (e *testEnv) connect(t *testing.T, from, to string) {
	t.Helper()
	_, err := e.network.CreateConnection(context.Background(), CreateConnectionRequest{
		LineID:        e.lineID,
		FromStationID: e.stations[from],
		ToStationID:   e.stations[to],
	})
	require.NoError(t, err)
}

func (e *testEnv) topUp(t *testing.T, passengerID, amount string) {
	t.Helper()
	_, err := e.wallets.TopUpWallet(context.Background(), TopUpRequest{
		PassengerID: passengerID,
		Amount:      decimal.RequireFromString(amount),
	})
	require.NoError(t, err)
}

func (e *testEnv) purchase(passengerID, from, to string) (*domain.Ticket, error) {
	p, err := e.buy(passengerID, from, to)
	if err != nil {
		return nil, err
	}
	return p.Ticket, nil
}

func (e *testEnv) buy(passengerID, from, to string) (*Purchase, error) {
	return e.tickets.PurchaseTicket(context.Background(), PurchaseTicketRequest{
		PassengerID:          passengerID,
		SourceStationID:      e.stations[from],
		DestinationStationID: e.stations[to],
	})
}

func (e *testEnv) scan(ticketID, station string, d domain.ScanDirection) (*ScanResult, error) {
	return e.tickets.ScanTicket(context.Background(), ScanTicketRequest{
		TicketID:  ticketID,
		StationID: e.stations[station],
		Direction: d,
		ScannedBy: "gate-1",
	})
}

func (e *testEnv) balance(t *testing.T, passengerID string) string {
	t.Helper()
	w, err := e.wallets.GetWallet(context.Background(), passengerID)
	require.NoError(t, err)
	return w.Balance.StringFixed(2)
}

func (e *testEnv) ledgerSum(t *testing.T, passengerID string) string {
	t.Helper()
	txns, err := e.wallets.ListTransactions(context.Background(), passengerID)
	require.NoError(t, err)
	sum := decimal.Zero
	for _, txn := range txns {
		sum = sum.Add(txn.Amount)
	}
	return sum.StringFixed(2)
}

// ──────────────────────────────────────────────
// Mocks
// ──────────────────────────────────────────────

type fakeTicketCache struct {
	mu           sync.Mutex
	tickets      map[string]*domain.Ticket
	invalidated  []string
	getCallCount int
}

func newFakeTicketCache() *fakeTicketCache {
	return &fakeTicketCache{tickets: make(map[string]*domain.Ticket)}
}

func (c *fakeTicketCache) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getCallCount++
	t, ok := c.tickets[ticketID]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (c *fakeTicketCache) SetTicket(ctx context.Context, ticket *domain.Ticket) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *ticket
	c.tickets[ticket.ID] = &cp
	return nil
}

func (c *fakeTicketCache) InvalidateTicket(ctx context.Context, ticketID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tickets, ticketID)
	c.invalidated = append(c.invalidated, ticketID)
	return nil
}

type fakeLockStore struct {
	mu       sync.Mutex
	held     map[string]string
	seq      int
	released int
}

func newFakeLockStore() *fakeLockStore {
	return &fakeLockStore{held: make(map[string]string)}
}

func (l *fakeLockStore) AcquireTicketLock(ctx context.Context, ticketID string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[ticketID]; ok {
		return "", nil
	}
	l.seq++
	token := fmt.Sprintf("token-%d", l.seq)
	l.held[ticketID] = token
	return token, nil
}

func (l *fakeLockStore) ReleaseTicketLock(ctx context.Context, ticketID, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[ticketID] == token {
		delete(l.held, ticketID)
	}
	l.released++
	return nil
}
