package search

import (
	"time"

	"github.com/jonasrmichel/solana-cycles/pkg/graph"
	"github.com/jonasrmichel/solana-cycles/pkg/quote"
)

// State is one partial walk in the search frontier. A state is never
// modified once it has been enqueued; extend returns a new one.
type State struct {
	Last         int                            // Last edge entered, graph.NoEdge for the root
	Visited      []bool                         // Indexed by node id, size n+1
	Path         []int                          // Edge ids in walk order
	Quotes       map[quote.Pair]*quote.Snapshot // Quote used for each hop
	FirstQuoteAt time.Time                      // When the first hop was priced
}

func newRootState(nodeCount, start, maxDepth int) *State {
	visited := make([]bool, nodeCount+1)
	visited[start] = true
	return &State{
		Last:    graph.NoEdge,
		Visited: visited,
		Path:    make([]int, 0, maxDepth),
		Quotes:  make(map[quote.Pair]*quote.Snapshot, maxDepth),
	}
}

// Len returns the number of edges in the walk.
func (s *State) Len() int {
	return len(s.Path)
}

// extend returns a deep copy of s with edge appended and to marked visited.
// The quote is filed under pair, the asset pair of edge.
func (s *State) extend(edge, to int, pair quote.Pair, snap *quote.Snapshot, at time.Time) *State {
	visited := make([]bool, len(s.Visited))
	copy(visited, s.Visited)
	visited[to] = true

	path := make([]int, len(s.Path), cap(s.Path))
	copy(path, s.Path)
	path = append(path, edge)

	quotes := make(map[quote.Pair]*quote.Snapshot, len(s.Quotes)+1)
	for k, v := range s.Quotes {
		quotes[k] = v
	}
	quotes[pair] = snap

	first := s.FirstQuoteAt
	if first.IsZero() {
		first = at
	}

	return &State{
		Last:         edge,
		Visited:      visited,
		Path:         path,
		Quotes:       quotes,
		FirstQuoteAt: first,
	}
}
