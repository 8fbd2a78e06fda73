// Package network builds the routing graph of the metro and derives paths,
// fares and line annotations from it.
package network

import (
	"sort"

	"metro/internal/domain"
)

// Edge is one traversable direction of a connection.
type Edge struct {
	To           string
	LineCode     string
	ConnectionID string
}

// Graph is an undirected adjacency index of stations. Every connection
// record is inserted in both directions, and parallel connections on
// different lines are kept as separate edges.
type Graph struct {
	stations map[string]*domain.Station
	adj      map[string][]Edge
	edges    int
}

// BuildGraph constructs the graph from the current station, line and
// connection records. All stations become nodes, including isolated ones.
// Connections whose endpoints are not known stations, and self-loops, are
// ignored.
func BuildGraph(stations []*domain.Station, lines []*domain.MetroLine, connections []*domain.Connection) *Graph {
	g := &Graph{
		stations: make(map[string]*domain.Station, len(stations)),
		adj:      make(map[string][]Edge, len(stations)),
	}

	for _, s := range stations {
		g.stations[s.ID] = s
		if _, ok := g.adj[s.ID]; !ok {
			g.adj[s.ID] = nil
		}
	}

	lineCodes := make(map[string]string, len(lines))
	for _, l := range lines {
		lineCodes[l.ID] = l.Code
	}

	for _, c := range connections {
		if c.FromStationID == c.ToStationID {
			continue
		}
		if _, ok := g.stations[c.FromStationID]; !ok {
			continue
		}
		if _, ok := g.stations[c.ToStationID]; !ok {
			continue
		}
		code := lineCodes[c.LineID]
		g.adj[c.FromStationID] = append(g.adj[c.FromStationID], Edge{To: c.ToStationID, LineCode: code, ConnectionID: c.ID})
		g.adj[c.ToStationID] = append(g.adj[c.ToStationID], Edge{To: c.FromStationID, LineCode: code, ConnectionID: c.ID})
		g.edges++
	}

	// Neighbour order drives the BFS tie-break, so fix it here.
	for id, edges := range g.adj {
		sort.SliceStable(edges, func(i, j int) bool {
			return g.less(edges[i].To, edges[j].To)
		})
		g.adj[id] = edges
	}

	return g
}

// less orders stations by code, then by id.
func (g *Graph) less(a, b string) bool {
	sa, sb := g.stations[a], g.stations[b]
	if sa.Code != sb.Code {
		return sa.Code < sb.Code
	}
	return sa.ID < sb.ID
}

// HasStation reports whether id is a node of the graph.
func (g *Graph) HasStation(id string) bool {
	_, ok := g.stations[id]
	return ok
}

// Station returns the station for id.
func (g *Graph) Station(id string) (*domain.Station, bool) {
	s, ok := g.stations[id]
	return s, ok
}

// Neighbors returns the edges leaving id, ordered by neighbour code.
func (g *Graph) Neighbors(id string) []Edge {
	return g.adj[id]
}

// NodeCount returns the number of stations in the graph.
func (g *Graph) NodeCount() int {
	return len(g.stations)
}

// EdgeCount returns the number of connection records in the graph.
func (g *Graph) EdgeCount() int {
	return g.edges
}
