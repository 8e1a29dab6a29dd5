// Package graph provides the forward-star swap topology used for cycle search.
//
// Nodes are numbered densely from 1 to n. Node 0 is reserved as the empty
// node and never appears as a route endpoint.
package graph

import "errors"

const (
	// NoNode is the reserved sentinel node id.
	NoNode = 0

	// NoEdge marks the end of an adjacency list.
	NoEdge = -1
)

// EdgeInfo is the static metadata of a swap route.
type EdgeInfo struct {
	InputMint  string // Mint sold on this edge
	OutputMint string // Mint bought on this edge
}

// Topology errors. All of them are configuration errors and should abort startup.
var (
	ErrInvalidTopology       = errors.New("invalid topology")
	ErrNodeCount             = errors.New("node count must be at least 1")
	ErrNodeOutOfRange        = errors.New("node id out of range")
	ErrInconsistentAdjacency = errors.New("inconsistent adjacency")
)
