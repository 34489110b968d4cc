package node

import (
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/burstplan/internal/plan"
	"github.com/specialistvlad/burstplan/internal/resolver"
)

// Node is a single vertex of a round's execution graph: one task plus the
// scheduling state the scheduler and workers share.
type Node struct {
	// Task is the parsed task this node executes.
	Task *plan.Task
	// Kinds classifies each argument of Task by name.
	Kinds map[string]resolver.ArgKind

	// --- Internal state management ---

	// depCount is an atomic counter of dependencies without a terminal outcome.
	depCount atomic.Int32
	// state is the node's current execution state, managed atomically.
	state atomic.Int32
	// failedDep holds the id of the first dependency that did not succeed,
	// or 0 if all succeeded so far.
	failedDep atomic.Int64
	// finishOnce guarantees the node is completed exactly once.
	finishOnce sync.Once
}

// State represents the execution state of a node.
type State int32

const (
	// Pending indicates the node is waiting for its dependencies.
	Pending State = iota
	// Ready indicates the node was handed to the workers.
	Ready
	// Running indicates a worker is executing the node.
	Running
	// Succeeded indicates the tool returned a value.
	Succeeded
	// Failed indicates the tool returned an error.
	Failed
	// Skipped indicates a dependency did not succeed.
	Skipped
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// New creates a node for t.
func New(t *plan.Task, kinds map[string]resolver.ArgKind) *Node {
	return &Node{Task: t, Kinds: kinds}
}

// ID returns the task id.
func (n *Node) ID() plan.TaskID {
	return n.Task.ID
}

// IsJoin reports whether the node is the plan's join task.
func (n *Node) IsJoin() bool {
	return n.Task.IsJoin()
}

func (n *Node) SetDepCount(count int32) {
	n.depCount.Store(count)
}

// DepCount atomically returns the current number of unmet dependencies.
func (n *Node) DepCount() int32 {
	return n.depCount.Load()
}

// DecrementDepCount atomically decrements the dependency counter and returns the new value.
func (n *Node) DecrementDepCount() int32 {
	return n.depCount.Add(-1)
}

// SetState atomically sets the node's execution state.
func (n *Node) SetState(s State) {
	n.state.Store(int32(s))
}

// GetState atomically retrieves the node's execution state.
func (n *Node) GetState() State {
	return State(n.state.Load())
}

// Terminal reports whether the node reached a final state.
func (n *Node) Terminal() bool {
	switch n.GetState() {
	case Succeeded, Failed, Skipped:
		return true
	}
	return false
}

// NoteFailedDependency remembers dep as a dependency that did not succeed.
// Only the first one is kept.
func (n *Node) NoteFailedDependency(dep plan.TaskID) {
	n.failedDep.CompareAndSwap(0, int64(dep))
}

// FailedDependency returns the first dependency that did not succeed.
func (n *Node) FailedDependency() (plan.TaskID, bool) {
	id := n.failedDep.Load()
	return plan.TaskID(id), id != 0
}

// Finish runs f exactly once and reports whether this call ran it.
func (n *Node) Finish(f func()) bool {
	var ran bool
	n.finishOnce.Do(func() {
		f()
		ran = true
	})
	return ran
}
