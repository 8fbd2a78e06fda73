package network

import "errors"

// ErrNoPath is returned when two stations are not connected, are the same
// station, or are not part of the graph.
var ErrNoPath = errors.New("no path found between selected stations")

// Path is an ordered sequence of station IDs from source to destination.
type Path []string

// Hops returns the number of edges travelled along the path.
func (p Path) Hops() int {
	if len(p) < 2 {
		return 0
	}
	return len(p) - 1
}

// ShortestPath returns a minimum hop-count path from src to dst.
//
// Neighbours are expanded in (code, id) order, so among several shortest
// paths the one whose station codes sort first lexicographically wins.
func ShortestPath(g *Graph, src, dst string) (Path, error) {
	if src == dst || !g.HasStation(src) || !g.HasStation(dst) {
		return nil, ErrNoPath
	}

	prev := map[string]string{src: ""}
	queue := []string{src}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, e := range g.Neighbors(current) {
			if _, seen := prev[e.To]; seen {
				continue
			}
			prev[e.To] = current
			if e.To == dst {
				return walkBack(prev, src, dst), nil
			}
			queue = append(queue, e.To)
		}
	}

	return nil, ErrNoPath
}

func walkBack(prev map[string]string, src, dst string) Path {
	var reversed []string
	for at := dst; at != src; at = prev[at] {
		reversed = append(reversed, at)
	}
	reversed = append(reversed, src)

	path := make(Path, len(reversed))
	for i, id := range reversed {
		path[len(reversed)-1-i] = id
	}
	return path
}
