// Package executor defines the contract for running a round's execution
// graph to completion, along with the errors recorded for failed tools.
package executor

import (
	"context"
	"fmt"

	"github.com/specialistvlad/burstplan/internal/nodestore"
	"github.com/specialistvlad/burstplan/internal/plan"
	"github.com/zclconf/go-cty/cty"
)

// Executor runs every node of a round and returns the complete Execution
// Context. Tool failures are recorded as outcomes; only infrastructure
// faults are returned as errors.
type Executor interface {
	Execute(ctx context.Context) (nodestore.Store, error)
}

// JoinFunc runs in place of a tool for the join task. It receives the
// Execution Context with every other task already terminal.
type JoinFunc func(ctx context.Context, store nodestore.Store) (cty.Value, error)

// ToolExecutionError is the recorded failure of one tool call.
type ToolExecutionError struct {
	Task  plan.TaskID
	Tool  string
	Args  map[string]string
	Cause error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed on task %d: %v", e.Tool, e.Task, e.Cause)
}

func (e *ToolExecutionError) Unwrap() error { return e.Cause }
