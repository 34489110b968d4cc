package graph

import (
	"fmt"
	"slices"
	"sync"

	"github.com/specialistvlad/burstplan/internal/plan"
)

type vertex struct {
	id         plan.TaskID
	deps       map[plan.TaskID]*vertex
	dependents map[plan.TaskID]*vertex
}

// Graph is a directed graph over task ids.
type Graph struct {
	mu    sync.RWMutex
	nodes map[plan.TaskID]*vertex
}

// CycleError reports the first node found on a cycle.
type CycleError struct {
	ID plan.TaskID
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected involving task %d", e.ID)
}

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{nodes: make(map[plan.TaskID]*vertex)}
}

// AddNode adds a node. Adding an existing id is a no-op.
func (g *Graph) AddNode(id plan.TaskID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[id]; ok {
		return
	}
	g.nodes[id] = &vertex{
		id:         id,
		deps:       make(map[plan.TaskID]*vertex),
		dependents: make(map[plan.TaskID]*vertex),
	}
}

// AddEdge records that `to` depends on `from`. Both nodes must exist.
func (g *Graph) AddEdge(from, to plan.TaskID) error {
	if from == to {
		return fmt.Errorf("self-referential edge not allowed: %d -> %d", from, to)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	fromNode, ok := g.nodes[from]
	if !ok {
		return fmt.Errorf("source node not found: %d", from)
	}
	toNode, ok := g.nodes[to]
	if !ok {
		return fmt.Errorf("destination node not found: %d", to)
	}

	toNode.deps[from] = fromNode
	fromNode.dependents[to] = toNode
	return nil
}

// Has reports whether id is a node of the graph.
func (g *Graph) Has(id plan.TaskID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Nodes returns every node id in ascending order.
func (g *Graph) Nodes() []plan.TaskID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedKeys(g.nodes)
}

// Dependencies returns the ids the given node depends on, ascending.
func (g *Graph) Dependencies(id plan.TaskID) ([]plan.TaskID, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %d", id)
	}
	return sortedKeys(n.deps), nil
}

// Dependents returns the ids that depend on the given node, ascending.
func (g *Graph) Dependents(id plan.TaskID) ([]plan.TaskID, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %d", id)
	}
	return sortedKeys(n.dependents), nil
}

// DetectCycles runs a depth-first search and returns a *CycleError naming a
// node on the first cycle found.
func (g *Graph) DetectCycles() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	// permanent: fully explored, not on a cycle. temporary: on the current
	// recursion stack.
	permanent := make(map[plan.TaskID]bool)
	temporary := make(map[plan.TaskID]bool)

	var visit func(n *vertex) error
	visit = func(n *vertex) error {
		if permanent[n.id] {
			return nil
		}
		if temporary[n.id] {
			return &CycleError{ID: n.id}
		}
		temporary[n.id] = true
		for _, id := range sortedKeys(n.dependents) {
			if err := visit(n.dependents[id]); err != nil {
				return err
			}
		}
		delete(temporary, n.id)
		permanent[n.id] = true
		return nil
	}

	for _, id := range sortedKeys(g.nodes) {
		if err := visit(g.nodes[id]); err != nil {
			return err
		}
	}
	return nil
}

// TopologicalOrder returns the nodes in an order where every node follows
// all of its dependencies. Ties are broken by ascending id.
func (g *Graph) TopologicalOrder() ([]plan.TaskID, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	indegree := make(map[plan.TaskID]int, len(g.nodes))
	var ready []plan.TaskID
	for id, n := range g.nodes {
		indegree[id] = len(n.deps)
		if len(n.deps) == 0 {
			ready = append(ready, id)
		}
	}

	order := make([]plan.TaskID, 0, len(g.nodes))
	for len(ready) > 0 {
		slices.Sort(ready)
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		for dep := range g.nodes[id].dependents {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}
	if len(order) != len(g.nodes) {
		for _, id := range sortedKeys(g.nodes) {
			if indegree[id] > 0 {
				return nil, &CycleError{ID: id}
			}
		}
	}
	return order, nil
}

func sortedKeys[V any](m map[plan.TaskID]V) []plan.TaskID {
	ids := make([]plan.TaskID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
