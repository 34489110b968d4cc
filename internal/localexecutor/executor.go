// Package localexecutor provides a concrete, in-process implementation of the
// executor.Executor interface.
//
// Ready nodes are drained from the scheduler and handed to a bounded pool of
// goroutines. Each worker builds the task, invokes the tool, records the
// outcome and reports completion back to the scheduler, which may release
// more nodes. Execute returns when the scheduler closes its ready channel.
package localexecutor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
	"github.com/specialistvlad/burstplan/internal/builder"
	"github.com/specialistvlad/burstplan/internal/ctxlog"
	"github.com/specialistvlad/burstplan/internal/executor"
	"github.com/specialistvlad/burstplan/internal/node"
	"github.com/specialistvlad/burstplan/internal/nodestore"
	"github.com/specialistvlad/burstplan/internal/registry"
	"github.com/specialistvlad/burstplan/internal/scheduler"
	"github.com/zclconf/go-cty/cty"
)

// DefaultWorkers bounds concurrency when Options.Workers is not set.
const DefaultWorkers = 10

// Options tunes an Executor.
type Options struct {
	Workers int
	// Join runs for the join task. Nil records an empty join outcome.
	Join executor.JoinFunc
}

// Executor implements the executor.Executor interface for local execution.
type Executor struct {
	sched   scheduler.Scheduler
	store   nodestore.Store
	builder builder.Builder
	tools   *registry.Toolbox
	opts    Options
}

var _ executor.Executor = (*Executor)(nil)

// New creates a new local executor for one round.
func New(
	sch scheduler.Scheduler,
	store nodestore.Store,
	b builder.Builder,
	tools *registry.Toolbox,
	opts Options,
) *Executor {
	if opts.Workers < 1 {
		opts.Workers = DefaultWorkers
	}
	return &Executor{sched: sch, store: store, builder: b, tools: tools, opts: opts}
}

// Execute runs the round until every node is terminal.
func (e *Executor) Execute(ctx context.Context) (nodestore.Store, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Executing round.", "workers", e.opts.Workers)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	faults := make(chan error, 1)
	var fault error

	workers := pool.New().WithMaxGoroutines(e.opts.Workers)
loop:
	for {
		select {
		case n, ok := <-e.sched.ReadyNodes():
			if !ok {
				break loop
			}
			workers.Go(func() {
				if err := e.run(runCtx, n); err != nil {
					select {
					case faults <- err:
					default:
					}
				}
			})
		case fault = <-faults:
			cancel()
			break loop
		}
	}
	workers.Wait()

	if fault != nil {
		return e.store, fmt.Errorf("round aborted: %w", fault)
	}
	logger.Debug("Round executed.", "outcomes", e.store.Len())
	return e.store, nil
}

// run executes a single node. Tool failures become outcomes; the returned
// error is reserved for faults of the Execution Context itself.
func (e *Executor) run(ctx context.Context, n *node.Node) error {
	ctx = ctxlog.With(ctx, "task", int(n.ID()), "tool", n.Task.Tool)
	logger := ctxlog.FromContext(ctx)

	n.SetState(node.Running)
	o := nodestore.NewOutcome(n.Task)
	o.Started = time.Now()

	var (
		v   cty.Value
		err error
	)
	if n.IsJoin() {
		v, err = e.join(ctx)
	} else {
		v, o.Resolved, err = e.invoke(ctx, n)
	}
	o.Finished = time.Now()

	if err != nil {
		o.Status = nodestore.Failed
		o.Err = err
		logger.Error("Task failed.", "error", err, "duration", o.Finished.Sub(o.Started))
	} else {
		o.Status = nodestore.Succeeded
		o.Value = v
		logger.Debug("Task succeeded.", "duration", o.Finished.Sub(o.Started))
	}

	if err := e.store.Record(ctx, o); err != nil {
		return fmt.Errorf("failed to record outcome of task %d: %w", n.ID(), err)
	}
	return e.sched.Complete(ctx, n.ID())
}

func (e *Executor) invoke(ctx context.Context, n *node.Node) (cty.Value, map[string]string, error) {
	fail := func(resolved map[string]string, cause error) (cty.Value, map[string]string, error) {
		return cty.NilVal, resolved, &executor.ToolExecutionError{
			Task:  n.ID(),
			Tool:  n.Task.Tool,
			Args:  n.Task.LiteralArgs(),
			Cause: cause,
		}
	}

	if err := ctx.Err(); err != nil {
		return fail(nil, err)
	}

	tk, err := e.builder.Build(ctx, n, e.store)
	if err != nil {
		return fail(nil, err)
	}
	resolved := tk.Rendered()

	tool, err := e.tools.Lookup(n.Task.Tool)
	if err != nil {
		return fail(resolved, err)
	}

	var v cty.Value
	var pc panics.Catcher
	pc.Try(func() {
		v, err = tool.Invoke(ctx, registry.Args(tk.Clone()))
	})
	if r := pc.Recovered(); r != nil {
		return fail(resolved, r.AsError())
	}
	if err != nil {
		return fail(resolved, err)
	}
	if v.IsNull() {
		v = cty.NullVal(cty.DynamicPseudoType)
	}
	return v, resolved, nil
}

func (e *Executor) join(ctx context.Context) (cty.Value, error) {
	if e.opts.Join == nil {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}
	var (
		v   cty.Value
		err error
	)
	var pc panics.Catcher
	pc.Try(func() {
		v, err = e.opts.Join(ctx, e.store)
	})
	if r := pc.Recovered(); r != nil {
		err = errors.Join(errors.New("join step panicked"), r.AsError())
	}
	return v, err
}
