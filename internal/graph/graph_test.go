package graph

import (
	"testing"

	"github.com/specialistvlad/burstplan/internal/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, ids []plan.TaskID, edges [][2]plan.TaskID) *Graph {
	t.Helper()
	g := New()
	for _, id := range ids {
		g.AddNode(id)
	}
	for _, e := range edges {
		require.NoError(t, g.AddEdge(e[0], e[1]))
	}
	return g
}

func TestAddNode(t *testing.T) {
	g := New()
	g.AddNode(1)
	g.AddNode(1) // idempotent
	g.AddNode(2)
	assert.Equal(t, 2, g.Len())
	assert.True(t, g.Has(1))
	assert.False(t, g.Has(3))
	assert.Equal(t, []plan.TaskID{1, 2}, g.Nodes())
}

func TestAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := build(t, []plan.TaskID{1, 2}, [][2]plan.TaskID{{1, 2}})

		deps, err := g.Dependencies(2)
		require.NoError(t, err)
		assert.Equal(t, []plan.TaskID{1}, deps)

		dependents, err := g.Dependents(1)
		require.NoError(t, err)
		assert.Equal(t, []plan.TaskID{2}, dependents)
	})

	t.Run("error cases", func(t *testing.T) {
		g := build(t, []plan.TaskID{1, 2}, nil)

		assert.ErrorContains(t, g.AddEdge(9, 1), "source node not found")
		assert.ErrorContains(t, g.AddEdge(1, 9), "destination node not found")
		assert.ErrorContains(t, g.AddEdge(1, 1), "self-referential edge")

		_, err := g.Dependencies(9)
		assert.ErrorContains(t, err, "node not found")
		_, err = g.Dependents(9)
		assert.ErrorContains(t, err, "node not found")
	})
}

func TestDetectCycles(t *testing.T) {
	t.Run("empty graph has no cycles", func(t *testing.T) {
		assert.NoError(t, New().DetectCycles())
	})

	t.Run("diamond has no cycles", func(t *testing.T) {
		g := build(t, []plan.TaskID{1, 2, 3, 4}, [][2]plan.TaskID{{1, 3}, {2, 4}, {3, 4}})
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("three node cycle is reported", func(t *testing.T) {
		g := build(t, []plan.TaskID{1, 2, 3}, [][2]plan.TaskID{{1, 2}, {2, 3}, {3, 1}})
		err := g.DetectCycles()
		var cycle *CycleError
		require.ErrorAs(t, err, &cycle)
		assert.Contains(t, []plan.TaskID{1, 2, 3}, cycle.ID)
	})
}

func TestTopologicalOrder(t *testing.T) {
	t.Run("orders dependencies first", func(t *testing.T) {
		g := build(t, []plan.TaskID{1, 2, 3, 4}, [][2]plan.TaskID{{1, 3}, {2, 4}, {3, 4}, {1, 4}})
		order, err := g.TopologicalOrder()
		require.NoError(t, err)
		assert.Equal(t, []plan.TaskID{1, 2, 3, 4}, order)
	})

	t.Run("fails on a cycle", func(t *testing.T) {
		g := build(t, []plan.TaskID{1, 2}, [][2]plan.TaskID{{1, 2}, {2, 1}})
		_, err := g.TopologicalOrder()
		var cycle *CycleError
		assert.ErrorAs(t, err, &cycle)
	})
}
