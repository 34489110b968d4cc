package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/burstplan/internal/ctxlog"
	"github.com/specialistvlad/burstplan/internal/node"
	"github.com/specialistvlad/burstplan/internal/nodestore"
	"github.com/specialistvlad/burstplan/internal/plan"
	"github.com/specialistvlad/burstplan/internal/resolver"
)

// ErrDependencyFailed matches the error recorded for skipped tasks.
var ErrDependencyFailed = errors.New("dependency did not succeed")

// DependencyFailedError is the error of a task skipped because Dependency
// failed or was skipped itself.
type DependencyFailedError struct {
	Task       plan.TaskID
	Dependency plan.TaskID
}

func (e *DependencyFailedError) Error() string {
	return fmt.Sprintf("task %d was skipped because its dependency %s did not succeed", e.Task, e.Dependency.Ref())
}

func (e *DependencyFailedError) Unwrap() error { return ErrDependencyFailed }

// Scheduler streams nodes whose dependencies are satisfied.
type Scheduler interface {
	// ReadyNodes returns the channel of nodes ready to launch. It is closed
	// when every node is terminal.
	ReadyNodes() <-chan *node.Node
	// Complete tells the scheduler that the outcome of id is recorded.
	Complete(ctx context.Context, id plan.TaskID) error
	// Node returns the node of id.
	Node(id plan.TaskID) (*node.Node, bool)
}

// DefaultScheduler is the in-process Scheduler.
type DefaultScheduler struct {
	resolved  *resolver.Resolved
	store     nodestore.Store
	nodes     map[plan.TaskID]*node.Node
	ready     chan *node.Node
	remaining atomic.Int32
	closeOnce sync.Once
}

// New creates a scheduler for one round and queues every node without
// dependencies.
func New(ctx context.Context, r *resolver.Resolved, store nodestore.Store) (*DefaultScheduler, error) {
	logger := ctxlog.FromContext(ctx)

	s := &DefaultScheduler{
		resolved: r,
		store:    store,
		nodes:    make(map[plan.TaskID]*node.Node, r.Plan.Len()),
		ready:    make(chan *node.Node, r.Plan.Len()),
	}
	s.remaining.Store(int32(r.Plan.Len()))

	for _, t := range r.Plan.Tasks {
		deps, err := r.Graph.Dependencies(t.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to read dependencies of task %d: %w", t.ID, err)
		}
		n := node.New(t, r.Kinds(t.ID))
		n.SetDepCount(int32(len(deps)))
		s.nodes[t.ID] = n
	}

	for _, id := range r.Order {
		if n := s.nodes[id]; n.DepCount() == 0 {
			s.release(n)
		}
	}
	if s.remaining.Load() == 0 {
		s.closeReady()
	}

	logger.Debug("Scheduler initialized.", "nodes", len(s.nodes), "initially_ready", len(s.ready))
	return s, nil
}

// ReadyNodes implements Scheduler.
func (s *DefaultScheduler) ReadyNodes() <-chan *node.Node {
	return s.ready
}

// Node implements Scheduler.
func (s *DefaultScheduler) Node(id plan.TaskID) (*node.Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Complete implements Scheduler. The outcome of id must already be in the
// store; its status decides what happens to the dependents.
func (s *DefaultScheduler) Complete(ctx context.Context, id plan.TaskID) error {
	n, ok := s.nodes[id]
	if !ok {
		return fmt.Errorf("complete: unknown task %d", id)
	}
	o, ok := s.store.Get(ctx, id)
	if !ok {
		return fmt.Errorf("complete: task %d has no recorded outcome", id)
	}

	var failures []error
	n.Finish(func() {
		n.SetState(stateOf(o.Status))
		failures = s.propagate(ctx, n, o.Status)
	})
	return errors.Join(failures...)
}

func (s *DefaultScheduler) propagate(ctx context.Context, n *node.Node, status nodestore.Status) []error {
	logger := ctxlog.FromContext(ctx)
	var failures []error

	dependents, err := s.resolved.Graph.Dependents(n.ID())
	if err != nil {
		return []error{err}
	}
	for _, depID := range dependents {
		dep := s.nodes[depID]
		if status != nodestore.Succeeded {
			dep.NoteFailedDependency(n.ID())
		}
		if dep.DecrementDepCount() > 0 {
			continue
		}
		if failed, ok := dep.FailedDependency(); ok && !dep.IsJoin() {
			logger.Debug("Skipping task.", "task", depID, "failed_dependency", failed)
			if err := s.skip(ctx, dep, failed); err != nil {
				failures = append(failures, err)
			}
			continue
		}
		s.release(dep)
	}

	if s.remaining.Add(-1) == 0 {
		s.closeReady()
	}
	return failures
}

func (s *DefaultScheduler) skip(ctx context.Context, n *node.Node, failed plan.TaskID) error {
	o := nodestore.NewOutcome(n.Task)
	o.Status = nodestore.Skipped
	o.Err = &DependencyFailedError{Task: n.ID(), Dependency: failed}
	o.Finished = time.Now()
	if err := s.store.Record(ctx, o); err != nil {
		return err
	}
	return s.Complete(ctx, n.ID())
}

func (s *DefaultScheduler) release(n *node.Node) {
	n.SetState(node.Ready)
	s.ready <- n
}

func (s *DefaultScheduler) closeReady() {
	s.closeOnce.Do(func() { close(s.ready) })
}

func stateOf(st nodestore.Status) node.State {
	switch st {
	case nodestore.Succeeded:
		return node.Succeeded
	case nodestore.Failed:
		return node.Failed
	default:
		return node.Skipped
	}
}
