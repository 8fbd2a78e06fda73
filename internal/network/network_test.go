package network

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metro/internal/domain"
)

// fixture builds stations with ID == code for readable assertions.
type fixture struct {
	stations    []*domain.Station
	lines       []*domain.MetroLine
	connections []*domain.Connection
}

func (f *fixture) station(code string) {
	f.stations = append(f.stations, &domain.Station{ID: code, Code: code, Name: "Station " + code})
}

func (f *fixture) line(code, name string) {
	f.lines = append(f.lines, &domain.MetroLine{ID: code, Code: code, Name: name, IsActive: true, AllowTicketPurchase: true})
}

func (f *fixture) connect(line, from, to string) {
	f.connections = append(f.connections, &domain.Connection{
		ID:            from + "-" + to + "-" + line,
		LineID:        line,
		FromStationID: from,
		ToStationID:   to,
	})
}

func (f *fixture) graph() *Graph {
	return BuildGraph(f.stations, f.lines, f.connections)
}

func scenarioA() *fixture {
	f := &fixture{}
	for _, s := range []string{"S1", "S2", "S3"} {
		f.station(s)
	}
	f.line("L1", "L1")
	f.connect("L1", "S1", "S2")
	f.connect("L1", "S2", "S3")
	return f
}

func TestBuildGraph_IncludesIsolatedStations(t *testing.T) {
	f := scenarioA()
	f.station("S9")

	g := f.graph()

	assert.Equal(t, 4, g.NodeCount())
	assert.Equal(t, 2, g.EdgeCount())
	assert.True(t, g.HasStation("S9"))
	assert.Empty(t, g.Neighbors("S9"))
}

func TestBuildGraph_InsertsBothDirections(t *testing.T) {
	g := scenarioA().graph()

	require.Len(t, g.Neighbors("S3"), 1)
	assert.Equal(t, "S2", g.Neighbors("S3")[0].To)
	assert.Equal(t, "L1", g.Neighbors("S3")[0].LineCode)
}

func TestBuildGraph_KeepsParallelConnections(t *testing.T) {
	f := scenarioA()
	f.line("L2", "Blue")
	f.connect("L2", "S2", "S1")

	g := f.graph()

	assert.Len(t, g.Neighbors("S1"), 2)
	assert.Equal(t, 3, g.EdgeCount())
}

func TestBuildGraph_SkipsConnectionsToUnknownStations(t *testing.T) {
	f := scenarioA()
	f.connect("L1", "S3", "GHOST")

	g := f.graph()

	assert.Equal(t, 2, g.EdgeCount())
	assert.False(t, g.HasStation("GHOST"))
}

func TestBuildGraph_SkipsSelfLoops(t *testing.T) {
	f := scenarioA()
	f.connect("L1", "S2", "S2")

	g := f.graph()

	assert.Equal(t, 2, g.EdgeCount())
	assert.Len(t, g.Neighbors("S2"), 2)
}

func TestShortestPath_ScenarioA(t *testing.T) {
	f := scenarioA()
	g := f.graph()

	path, err := ShortestPath(g, "S1", "S3")
	require.NoError(t, err)
	assert.Equal(t, Path{"S1", "S2", "S3"}, path)
	assert.True(t, decimal.RequireFromString("10.00").Equal(ComputePrice(path, DefaultRatePerEdge)))

	lines, err := AnnotateLines(path, NewConnectionIndex(f.connections, f.lines))
	require.NoError(t, err)
	assert.Equal(t, []string{"L1"}, lines)
}

func TestShortestPath_MinimumHopCount(t *testing.T) {
	// A-B-C-D-E around a ring plus a shortcut A-D.
	f := &fixture{}
	for _, s := range []string{"A", "B", "C", "D", "E"} {
		f.station(s)
	}
	f.line("R", "Ring")
	f.connect("R", "A", "B")
	f.connect("R", "B", "C")
	f.connect("R", "C", "D")
	f.connect("R", "D", "E")
	f.connect("R", "E", "A")

	g := f.graph()

	testCases := []struct {
		src, dst string
		hops     int
	}{
		{"A", "B", 1},
		{"A", "C", 2},
		{"A", "D", 2},
		{"B", "D", 2},
		{"B", "E", 2},
		{"C", "A", 2},
	}

	for _, tc := range testCases {
		t.Run(tc.src+"->"+tc.dst, func(t *testing.T) {
			path, err := ShortestPath(g, tc.src, tc.dst)
			require.NoError(t, err)
			assert.Equal(t, tc.hops, path.Hops())
			assert.Equal(t, tc.src, path[0])
			assert.Equal(t, tc.dst, path[len(path)-1])
		})
	}
}

func TestShortestPath_TieBreakIsLexicographic(t *testing.T) {
	// Two equal routes from A to D: via B and via C.
	f := &fixture{}
	for _, s := range []string{"A", "C", "B", "D"} {
		f.station(s)
	}
	f.line("L1", "Red")
	f.connect("L1", "A", "C")
	f.connect("L1", "C", "D")
	f.connect("L1", "A", "B")
	f.connect("L1", "B", "D")

	for i := 0; i < 5; i++ {
		path, err := ShortestPath(f.graph(), "A", "D")
		require.NoError(t, err)
		assert.Equal(t, Path{"A", "B", "D"}, path)
	}
}

func TestShortestPath_NotFound(t *testing.T) {
	f := scenarioA()
	f.station("S9")
	g := f.graph()

	testCases := []struct {
		name     string
		src, dst string
	}{
		{"disconnected", "S1", "S9"},
		{"same station", "S1", "S1"},
		{"unknown source", "NOPE", "S1"},
		{"unknown destination", "S1", "NOPE"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path, err := ShortestPath(g, tc.src, tc.dst)
			assert.ErrorIs(t, err, ErrNoPath)
			assert.Nil(t, path)
		})
	}
}

func TestComputePrice_LinearInHops(t *testing.T) {
	rate := decimal.RequireFromString("5.00")

	assert.True(t, decimal.Zero.Equal(ComputePrice(nil, rate)))
	assert.True(t, decimal.Zero.Equal(ComputePrice(Path{"S1"}, rate)))
	assert.Equal(t, "0.00", ComputePrice(Path{"S1"}, rate).StringFixed(2))

	for n := 2; n <= 12; n++ {
		path := make(Path, n)
		want := rate.Mul(decimal.NewFromInt(int64(n - 1)))
		assert.True(t, want.Equal(ComputePrice(path, rate)), "path of %d stations", n)
	}
}

func TestComputePrice_NoFloatingPointDrift(t *testing.T) {
	rate := decimal.RequireFromString("0.10")
	total := decimal.Zero
	for i := 0; i < 1000; i++ {
		total = total.Add(ComputePrice(Path{"a", "b", "c"}, rate))
	}
	assert.Equal(t, "200.00", total.StringFixed(2))
}

func TestAnnotateLines_DedupesByFirstOccurrence(t *testing.T) {
	f := &fixture{}
	for _, s := range []string{"A", "B", "C", "D"} {
		f.station(s)
	}
	f.line("R", "Red Line")
	f.line("B", "Blue Line")
	f.connect("R", "A", "B")
	f.connect("B", "B", "C")
	f.connect("R", "C", "D")

	lines, err := AnnotateLines(Path{"A", "B", "C", "D"}, NewConnectionIndex(f.connections, f.lines))

	require.NoError(t, err)
	assert.Equal(t, []string{"Red Line", "Blue Line"}, lines)
}

func TestAnnotateLines_UsesReverseDirection(t *testing.T) {
	f := scenarioA()

	lines, err := AnnotateLines(Path{"S3", "S2", "S1"}, NewConnectionIndex(f.connections, f.lines))

	require.NoError(t, err)
	assert.Equal(t, []string{"L1"}, lines)
}

func TestAnnotateLines_PrefersStoredDirection(t *testing.T) {
	f := scenarioA()
	f.line("L2", "Green")
	f.connect("L2", "S2", "S1")

	lines, err := AnnotateLines(Path{"S2", "S1"}, NewConnectionIndex(f.connections, f.lines))

	require.NoError(t, err)
	assert.Equal(t, []string{"Green"}, lines)
}

func TestAnnotateLines_ReportsMissingHops(t *testing.T) {
	f := scenarioA()

	lines, err := AnnotateLines(Path{"S1", "S2", "S3", "S9"}, NewConnectionIndex(f.connections, f.lines))

	assert.Equal(t, []string{"L1"}, lines)
	var hopErr *UnannotatedHopError
	require.ErrorAs(t, err, &hopErr)
	assert.Equal(t, []Hop{{From: "S3", To: "S9"}}, hopErr.Hops)
	assert.ErrorIs(t, err, ErrUnannotatedHop)
	assert.Contains(t, err.Error(), "S3->S9")
}

func TestAnnotateLines_ShortPath(t *testing.T) {
	lines, err := AnnotateLines(Path{"S1"}, NewConnectionIndex(nil, nil))

	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestGraphCache_ReusesSnapshotUntilInvalidated(t *testing.T) {
	f := scenarioA()
	var loads int32
	cache := NewGraphCache(func(ctx context.Context) (*Snapshot, error) {
		atomic.AddInt32(&loads, 1)
		return NewSnapshot(f.stations, f.lines, f.connections), nil
	})
	ctx := context.Background()

	first, err := cache.Get(ctx)
	require.NoError(t, err)
	second, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))

	f.station("S4")
	f.connect("L1", "S3", "S4")
	cache.Invalidate()

	third, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&loads))
	assert.True(t, third.Graph.HasStation("S4"))
	assert.Equal(t, []string{"S1", "S2", "S3"}, third.Codes(Path{"S1", "S2", "S3"}))
}

func TestGraphCache_ConcurrentReaders(t *testing.T) {
	f := scenarioA()
	cache := NewGraphCache(func(ctx context.Context) (*Snapshot, error) {
		return NewSnapshot(f.stations, f.lines, f.connections), nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := cache.Get(context.Background())
			if assert.NoError(t, err) {
				_, err = ShortestPath(snap.Graph, "S1", "S3")
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
}

func TestGraphCache_LoadErrorIsNotCached(t *testing.T) {
	f := scenarioA()
	fail := true
	cache := NewGraphCache(func(ctx context.Context) (*Snapshot, error) {
		if fail {
			return nil, errors.New("connection refused")
		}
		return NewSnapshot(f.stations, f.lines, f.connections), nil
	})

	_, err := cache.Get(context.Background())
	require.Error(t, err)

	fail = false
	snap, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Graph.NodeCount())
}
