package network

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"metro/internal/domain"
)

// Snapshot is a consistent view of the network used to serve one request.
type Snapshot struct {
	Graph *Graph
	Index *ConnectionIndex
	Lines []*domain.MetroLine
}

// NewSnapshot builds the graph and connection index from records.
func NewSnapshot(stations []*domain.Station, lines []*domain.MetroLine, connections []*domain.Connection) *Snapshot {
	return &Snapshot{
		Graph: BuildGraph(stations, lines, connections),
		Index: NewConnectionIndex(connections, lines),
		Lines: lines,
	}
}

// Station returns the station for id.
func (s *Snapshot) Station(id string) (*domain.Station, bool) {
	return s.Graph.Station(id)
}

// Codes maps a path of station IDs to station codes.
func (s *Snapshot) Codes(path Path) []string {
	codes := make([]string, len(path))
	for i, id := range path {
		if st, ok := s.Graph.Station(id); ok {
			codes[i] = st.Code
		}
	}
	return codes
}

// Loader reads the current network records.
type Loader func(ctx context.Context) (*Snapshot, error)

// GraphCache keeps the last built snapshot until it is invalidated.
// Concurrent misses share a single rebuild.
type GraphCache struct {
	load  Loader
	group singleflight.Group

	mu         sync.RWMutex
	snapshot   *Snapshot
	generation uint64
}

// NewGraphCache creates a cache backed by load.
func NewGraphCache(load Loader) *GraphCache {
	return &GraphCache{load: load}
}

// Get returns the cached snapshot, rebuilding it if needed.
func (c *GraphCache) Get(ctx context.Context) (*Snapshot, error) {
	c.mu.RLock()
	snap, gen := c.snapshot, c.generation
	c.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}

	v, err, _ := c.group.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		built, err := c.load(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		// A mutation during the rebuild makes this result stale.
		if c.generation == gen {
			c.snapshot = built
		}
		c.mu.Unlock()
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Invalidate drops the cached snapshot. The next Get rebuilds it.
func (c *GraphCache) Invalidate() {
	c.mu.Lock()
	c.snapshot = nil
	c.generation++
	c.mu.Unlock()
}
