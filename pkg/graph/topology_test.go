package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func info(in, out string) EdgeInfo {
	return EdgeInfo{InputMint: in, OutputMint: out}
}

func TestNewTopology_RejectsEmpty(t *testing.T) {
	_, err := NewTopology(0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTopology)
	assert.ErrorIs(t, err, ErrNodeCount)
}

func TestAddEdge_LIFOPerSource(t *testing.T) {
	topo, err := NewTopology(3)
	require.NoError(t, err)

	e1, err := topo.AddEdge(1, 2, info("A", "B"))
	require.NoError(t, err)
	e2, err := topo.AddEdge(1, 3, info("A", "C"))
	require.NoError(t, err)

	assert.Equal(t, 0, e1)
	assert.Equal(t, 1, e2)
	assert.Equal(t, []int{e2, e1}, topo.Outgoing(1))
	assert.Equal(t, e2, topo.Head(1))
	assert.Equal(t, e1, topo.Next(e2))
	assert.Equal(t, NoEdge, topo.Next(e1))
}

func TestAddEdge_AllowsSelfLoopsAndParallelEdges(t *testing.T) {
	topo, err := NewTopology(2)
	require.NoError(t, err)

	_, err = topo.AddEdge(1, 1, info("A", "A"))
	require.NoError(t, err)
	_, err = topo.AddEdge(1, 2, info("A", "B"))
	require.NoError(t, err)
	_, err = topo.AddEdge(1, 2, info("A", "B"))
	require.NoError(t, err)

	assert.Equal(t, 3, topo.EdgeCount())
	assert.Equal(t, []int{2, 1, 0}, topo.Outgoing(1))
	assert.Empty(t, topo.Outgoing(2))
	require.NoError(t, topo.Validate())
}

func TestAddEdge_RejectsOutOfRangeNodes(t *testing.T) {
	topo, err := NewTopology(2)
	require.NoError(t, err)

	tests := []struct {
		name     string
		from, to int
	}{
		{"sentinel source", NoNode, 1},
		{"sentinel destination", 1, NoNode},
		{"source too large", 3, 1},
		{"destination too large", 1, 3},
		{"negative source", -1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := topo.AddEdge(tt.from, tt.to, info("A", "B"))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNodeOutOfRange)
			assert.Equal(t, NoEdge, idx)
		})
	}
	assert.Equal(t, 0, topo.EdgeCount())
}

func TestTopology_Accessors(t *testing.T) {
	topo, err := NewTopology(3)
	require.NoError(t, err)

	_, _ = topo.AddEdge(1, 2, info("A", "B"))
	e, _ := topo.AddEdge(2, 3, info("B", "C"))

	assert.Equal(t, 3, topo.NodeCount())
	assert.Equal(t, 3, topo.To(e))
	assert.Equal(t, info("B", "C"), topo.Info(e))
	assert.Equal(t, 2, topo.Source(e))
	assert.Equal(t, NoNode, topo.Source(99))
	assert.Equal(t, NoEdge, topo.Head(3))
	assert.Contains(t, topo.String(), "#1 2 -> 3 (B -> C)")
}

func TestValidate_DetectsCorruption(t *testing.T) {
	topo, err := NewTopology(2)
	require.NoError(t, err)
	_, _ = topo.AddEdge(1, 2, info("A", "B"))
	_, _ = topo.AddEdge(2, 1, info("B", "A"))
	require.NoError(t, topo.Validate())

	// Orphan edge 0 by pointing head at nothing.
	topo.head[1] = NoEdge
	err = topo.Validate()
	assert.ErrorIs(t, err, ErrInconsistentAdjacency)

	// Make node 2's list loop on itself.
	topo.head[1] = 0
	topo.next[1] = 1
	err = topo.Validate()
	assert.ErrorIs(t, err, ErrInconsistentAdjacency)
}
