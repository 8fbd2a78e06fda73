package network

import (
	"errors"
	"fmt"
	"strings"

	"metro/internal/domain"
)

// ErrUnannotatedHop is returned when a path hop has no connection record
// in either direction.
var ErrUnannotatedHop = errors.New("path hop has no connection record")

// Hop is a pair of consecutive stations on a path.
type Hop struct {
	From string
	To   string
}

// UnannotatedHopError lists the hops that could not be matched to a line.
type UnannotatedHopError struct {
	Hops []Hop
}

func (e *UnannotatedHopError) Error() string {
	parts := make([]string, len(e.Hops))
	for i, h := range e.Hops {
		parts[i] = h.From + "->" + h.To
	}
	return fmt.Sprintf("%v: %s", ErrUnannotatedHop, strings.Join(parts, ", "))
}

func (e *UnannotatedHopError) Unwrap() error {
	return ErrUnannotatedHop
}

// ConnectionIndex maps a directed station pair to the lines of the
// connection records stored in that direction, in record order.
type ConnectionIndex struct {
	byPair map[Hop][]*domain.MetroLine
}

// NewConnectionIndex indexes connections by (from, to). Connections whose
// line is unknown are skipped.
func NewConnectionIndex(connections []*domain.Connection, lines []*domain.MetroLine) *ConnectionIndex {
	byID := make(map[string]*domain.MetroLine, len(lines))
	for _, l := range lines {
		byID[l.ID] = l
	}

	idx := &ConnectionIndex{byPair: make(map[Hop][]*domain.MetroLine, len(connections))}
	for _, c := range connections {
		line, ok := byID[c.LineID]
		if !ok {
			continue
		}
		key := Hop{From: c.FromStationID, To: c.ToStationID}
		idx.byPair[key] = append(idx.byPair[key], line)
	}
	return idx
}

// Lookup returns the first line connecting a to b, trying the stored
// direction first and the reverse direction second.
func (idx *ConnectionIndex) Lookup(a, b string) (*domain.MetroLine, bool) {
	if lines := idx.byPair[Hop{From: a, To: b}]; len(lines) > 0 {
		return lines[0], true
	}
	if lines := idx.byPair[Hop{From: b, To: a}]; len(lines) > 0 {
		return lines[0], true
	}
	return nil, false
}

// AnnotateLines returns the names of the lines travelled along path, in
// order of first use and without duplicates.
//
// Hops with no matching connection contribute nothing; they are reported
// through an *UnannotatedHopError alongside the lines that were resolved.
func AnnotateLines(path Path, idx *ConnectionIndex) ([]string, error) {
	lines := []string{}
	seen := make(map[string]struct{})
	var missing []Hop

	for i := 0; i+1 < len(path); i++ {
		line, ok := idx.Lookup(path[i], path[i+1])
		if !ok {
			missing = append(missing, Hop{From: path[i], To: path[i+1]})
			continue
		}
		if _, dup := seen[line.Name]; dup {
			continue
		}
		seen[line.Name] = struct{}{}
		lines = append(lines, line.Name)
	}

	if len(missing) > 0 {
		return lines, &UnannotatedHopError{Hops: missing}
	}
	return lines, nil
}
