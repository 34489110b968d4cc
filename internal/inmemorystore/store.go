// Package inmemorystore provides an ephemeral, thread-safe, in-memory
// implementation of the nodestore.Store interface.
//
// # Concurrency Model
//
// Outcomes live in a sync.Map keyed by task id. Workers write disjoint keys,
// each exactly once, while the builder and the join step read keys that are
// already final. sync.Map fits that pattern: a stable key space, one write
// per key, many reads. LoadOrStore gives write-once semantics without a
// global lock.
//
// A fresh Store is created for every round and dropped when the round ends.
package inmemorystore

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/burstplan/internal/nodestore"
	"github.com/specialistvlad/burstplan/internal/plan"
)

// Store is an in-memory, write-once Execution Context.
type Store struct {
	outcomes sync.Map // Key: plan.TaskID, Value: nodestore.Outcome
	count    atomic.Int32
}

// New creates a new, empty in-memory store.
func New() *Store {
	return &Store{}
}

// Record stores o unless an outcome for o.ID already exists.
func (s *Store) Record(ctx context.Context, o nodestore.Outcome) error {
	if _, loaded := s.outcomes.LoadOrStore(o.ID, o); loaded {
		return fmt.Errorf("task %d: %w", o.ID, nodestore.ErrAlreadyRecorded)
	}
	s.count.Add(1)
	return nil
}

// Get retrieves the recorded outcome of a task.
func (s *Store) Get(ctx context.Context, id plan.TaskID) (nodestore.Outcome, bool) {
	v, ok := s.outcomes.Load(id)
	if !ok {
		return nodestore.Outcome{}, false
	}
	return v.(nodestore.Outcome), true
}

// All returns every recorded outcome ordered by task id.
func (s *Store) All(ctx context.Context) []nodestore.Outcome {
	var out []nodestore.Outcome
	s.outcomes.Range(func(_, v any) bool {
		out = append(out, v.(nodestore.Outcome))
		return true
	})
	slices.SortFunc(out, func(a, b nodestore.Outcome) int {
		return int(a.ID) - int(b.ID)
	})
	return out
}

// Len returns the number of recorded outcomes.
func (s *Store) Len() int {
	return int(s.count.Load())
}
