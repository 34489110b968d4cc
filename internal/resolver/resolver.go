// Package resolver turns a parsed plan into a validated dependency graph and
// classifies how every argument consumes the results it references.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/burstplan/internal/ctxlog"
	"github.com/specialistvlad/burstplan/internal/graph"
	"github.com/specialistvlad/burstplan/internal/plan"
)

// ErrInternalFault matches resolver errors. They indicate an inconsistency
// the parser should already have rejected, so rounds abort on them.
var ErrInternalFault = errors.New("internal plan consistency fault")

// DanglingReferenceError is a reference to a task the plan does not contain.
type DanglingReferenceError struct {
	Task plan.TaskID
	Ref  plan.TaskID
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("task %d references task %d, which is not part of the plan", e.Task, e.Ref)
}

func (e *DanglingReferenceError) Unwrap() error { return ErrInternalFault }

// CyclicPlanError is a dependency cycle through Task.
type CyclicPlanError struct {
	Task plan.TaskID
}

func (e *CyclicPlanError) Error() string {
	return fmt.Sprintf("plan contains a dependency cycle through task %d", e.Task)
}

func (e *CyclicPlanError) Unwrap() error { return ErrInternalFault }

// ArgKind describes how an argument consumes referenced results.
type ArgKind int

const (
	// Literal arguments reference nothing.
	Literal ArgKind = iota
	// Passthrough arguments are a single bare reference and receive the
	// referenced value with its type intact.
	Passthrough
	// Composite arguments mix references with literal text or structure and
	// receive the text rendering of each referenced value.
	Composite
)

func (k ArgKind) String() string {
	switch k {
	case Literal:
		return "literal"
	case Passthrough:
		return "passthrough"
	case Composite:
		return "composite"
	default:
		return "unknown"
	}
}

// Classify returns the kind of a single argument value.
func Classify(v plan.Value) ArgKind {
	if _, ok := v.SingleRef(); ok {
		return Passthrough
	}
	if len(v.Refs()) > 0 {
		return Composite
	}
	return Literal
}

// Resolved is a plan together with its validated dependency graph.
type Resolved struct {
	Plan  *plan.Plan
	Graph *graph.Graph
	// Order is a topological order of all task ids, join last.
	Order []plan.TaskID
	kinds map[plan.TaskID]map[string]ArgKind
}

// Kinds returns the argument kinds of a task keyed by argument name.
func (r *Resolved) Kinds(id plan.TaskID) map[string]ArgKind {
	return r.kinds[id]
}

// Resolve builds the dependency graph of p. Dependencies are recomputed from
// the argument references rather than taken from Task.Deps; the join task
// depends on every other task.
func Resolve(ctx context.Context, p *plan.Plan) (*Resolved, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Resolving plan dependencies.", "tasks", p.Len())

	g := graph.New()
	for _, t := range p.Tasks {
		g.AddNode(t.ID)
	}

	kinds := make(map[plan.TaskID]map[string]ArgKind, p.Len())
	for _, t := range p.Tasks {
		if t.IsJoin() {
			for _, other := range p.Tasks {
				if other.ID == t.ID {
					continue
				}
				if err := g.AddEdge(other.ID, t.ID); err != nil {
					return nil, fmt.Errorf("failed to link join task: %w", err)
				}
			}
			continue
		}

		taskKinds := make(map[string]ArgKind, len(t.Args))
		for _, a := range t.Args {
			taskKinds[a.Name] = Classify(a.Value)
			for _, ref := range a.Value.Refs() {
				if !g.Has(ref) {
					return nil, &DanglingReferenceError{Task: t.ID, Ref: ref}
				}
				if ref == t.ID {
					return nil, &CyclicPlanError{Task: t.ID}
				}
				if err := g.AddEdge(ref, t.ID); err != nil {
					return nil, fmt.Errorf("failed to link task %d: %w", t.ID, err)
				}
			}
		}
		kinds[t.ID] = taskKinds
	}

	if err := g.DetectCycles(); err != nil {
		var cycle *graph.CycleError
		if errors.As(err, &cycle) {
			return nil, &CyclicPlanError{Task: cycle.ID}
		}
		return nil, err
	}

	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, fmt.Errorf("failed to order plan: %w", err)
	}

	logger.Debug("Plan dependencies resolved.", "order", order)
	return &Resolved{Plan: p, Graph: g, Order: order, kinds: kinds}, nil
}
