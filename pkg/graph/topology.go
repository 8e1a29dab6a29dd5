package graph

import (
	"fmt"
	"strings"
)

// Topology is a directed multigraph stored in chain forward star form.
//
// head[v] is the most recently added edge leaving v, next[e] links to the
// edge added before e from the same source, to[e] is the destination of e.
// The structure is built once on a single goroutine and then only read.
type Topology struct {
	head     []int
	next     []int
	to       []int
	edgeInfo []EdgeInfo
}

// NewTopology creates an empty topology for nodes 1..n.
func NewTopology(n int) (*Topology, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %w: got %d", ErrInvalidTopology, ErrNodeCount, n)
	}

	head := make([]int, n+1) // head[0] is reserved for the empty node
	for i := range head {
		head[i] = NoEdge
	}

	return &Topology{
		head:     head,
		next:     make([]int, 0),
		to:       make([]int, 0),
		edgeInfo: make([]EdgeInfo, 0),
	}, nil
}

// AddEdge adds a directed edge and returns its index.
// The new edge becomes the first one visited when iterating from.
func (t *Topology) AddEdge(from, to int, info EdgeInfo) (int, error) {
	if !t.validNode(from) {
		return NoEdge, fmt.Errorf("%w: %w: source %d not in [1, %d]", ErrInvalidTopology, ErrNodeOutOfRange, from, t.NodeCount())
	}
	if !t.validNode(to) {
		return NoEdge, fmt.Errorf("%w: %w: destination %d not in [1, %d]", ErrInvalidTopology, ErrNodeOutOfRange, to, t.NodeCount())
	}

	idx := len(t.to)
	t.to = append(t.to, to)
	t.edgeInfo = append(t.edgeInfo, info)
	t.next = append(t.next, t.head[from])
	t.head[from] = idx

	return idx, nil
}

func (t *Topology) validNode(v int) bool {
	return v > NoNode && v < len(t.head)
}

// NodeCount returns n, the highest valid node id.
func (t *Topology) NodeCount() int {
	return len(t.head) - 1
}

// EdgeCount returns the number of edges.
func (t *Topology) EdgeCount() int {
	return len(t.to)
}

// Head returns the first edge leaving v, or NoEdge.
func (t *Topology) Head(v int) int {
	return t.head[v]
}

// Next returns the edge following e in its source's list, or NoEdge.
func (t *Topology) Next(e int) int {
	return t.next[e]
}

// To returns the destination of e.
func (t *Topology) To(e int) int {
	return t.to[e]
}

// Info returns the metadata of e.
func (t *Topology) Info(e int) EdgeInfo {
	return t.edgeInfo[e]
}

// Outgoing returns the edges leaving v in traversal order (newest first).
func (t *Topology) Outgoing(v int) []int {
	var edges []int
	for e := t.head[v]; e != NoEdge; e = t.next[e] {
		edges = append(edges, e)
	}
	return edges
}

// Source returns the node whose adjacency list contains e.
// It walks every list, so it is meant for reporting, not hot paths.
func (t *Topology) Source(e int) int {
	for v := 1; v < len(t.head); v++ {
		for cur := t.head[v]; cur != NoEdge; cur = t.next[cur] {
			if cur == e {
				return v
			}
		}
	}
	return NoNode
}

// Validate checks that every edge belongs to exactly one adjacency list,
// that no list loops, and that every destination is a real node.
func (t *Topology) Validate() error {
	if len(t.next) != len(t.to) || len(t.edgeInfo) != len(t.to) {
		return fmt.Errorf("%w: %w: array lengths differ", ErrInvalidTopology, ErrInconsistentAdjacency)
	}

	seen := make([]bool, len(t.to))
	for v := range t.head {
		steps := 0
		for e := t.head[v]; e != NoEdge; e = t.next[e] {
			if v == NoNode {
				return fmt.Errorf("%w: %w: edge %d leaves the empty node", ErrInvalidTopology, ErrInconsistentAdjacency, e)
			}
			if e < 0 || e >= len(t.to) {
				return fmt.Errorf("%w: %w: edge index %d out of range", ErrInvalidTopology, ErrInconsistentAdjacency, e)
			}
			if seen[e] {
				return fmt.Errorf("%w: %w: edge %d linked twice", ErrInvalidTopology, ErrInconsistentAdjacency, e)
			}
			seen[e] = true
			steps++
			if steps > len(t.to) {
				return fmt.Errorf("%w: %w: adjacency list of node %d loops", ErrInvalidTopology, ErrInconsistentAdjacency, v)
			}
		}
	}

	for e, ok := range seen {
		if !ok {
			return fmt.Errorf("%w: %w: edge %d unreachable from any head", ErrInvalidTopology, ErrInconsistentAdjacency, e)
		}
		if !t.validNode(t.to[e]) {
			return fmt.Errorf("%w: %w: edge %d points to node %d", ErrInvalidTopology, ErrNodeOutOfRange, e, t.to[e])
		}
	}

	return nil
}

// String returns a string representation of the topology.
func (t *Topology) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Topology: %d nodes, %d edges\n", t.NodeCount(), t.EdgeCount()))

	for v := 1; v < len(t.head); v++ {
		for e := t.head[v]; e != NoEdge; e = t.next[e] {
			info := t.edgeInfo[e]
			sb.WriteString(fmt.Sprintf("  #%d %d -> %d (%s -> %s)\n", e, v, t.to[e], info.InputMint, info.OutputMint))
		}
	}

	return sb.String()
}
