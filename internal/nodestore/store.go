// Package nodestore defines the Execution Context: the per-round record of
// every task's outcome.
//
// # Contract
//
// Outcomes are write-once. Each task id is recorded exactly once, by the
// worker that ran the task or by the scheduler when it skips the task. A
// second Record for the same id fails with ErrAlreadyRecorded and leaves the
// first outcome in place. Readers only ever look up ids whose outcome the
// scheduler has already published, so no further locking is needed.
//
// Every Outcome carries its own provenance (tool, literal arguments, resolved
// arguments) so the join step can always tell which call produced which
// result.
package nodestore

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/specialistvlad/burstplan/internal/ctyconv"
	"github.com/specialistvlad/burstplan/internal/plan"
	"github.com/zclconf/go-cty/cty"
)

// ErrAlreadyRecorded is returned when an outcome is written twice.
var ErrAlreadyRecorded = errors.New("outcome already recorded")

// Status is the terminal state of a task.
type Status int

const (
	Succeeded Status = iota
	Failed
	Skipped
)

func (s Status) String() string {
	switch s {
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

// Outcome is the terminal record of one task.
type Outcome struct {
	ID      plan.TaskID
	Tool    string
	Thought string
	// Args are the arguments as written in the plan.
	Args map[string]string
	// Resolved are the arguments after reference substitution, rendered as
	// text. Nil when the task was never launched.
	Resolved map[string]string
	Status   Status
	Value    cty.Value
	Err      error
	Started  time.Time
	Finished time.Time
}

// Succeeded reports whether the task produced a value.
func (o Outcome) Succeeded() bool {
	return o.Status == Succeeded
}

// Text renders the outcome the way observations are shown to the planner:
// the value's text on success, an ERROR(...) line otherwise.
func (o Outcome) Text() string {
	if o.Succeeded() {
		return ctyconv.Render(o.Value)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "ERROR(Failed to call %s with args %s.", o.Tool, renderArgs(o.Args))
	if o.Resolved != nil {
		fmt.Fprintf(&b, " Args resolved to %s.", renderArgs(o.Resolved))
	}
	if o.Err != nil {
		fmt.Fprintf(&b, " Error: %s", o.Err.Error())
	}
	b.WriteString(")")
	return b.String()
}

func renderArgs(args map[string]string) string {
	keys := slices.Sorted(maps.Keys(args))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+args[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// NewOutcome starts an outcome for t with its provenance filled in.
func NewOutcome(t *plan.Task) Outcome {
	return Outcome{
		ID:      t.ID,
		Tool:    t.Tool,
		Thought: t.Thought,
		Args:    t.LiteralArgs(),
	}
}

// Store is the Execution Context of a single round.
type Store interface {
	// Record publishes the outcome of o.ID. It fails with
	// ErrAlreadyRecorded if an outcome for that id exists.
	Record(ctx context.Context, o Outcome) error
	// Get returns the outcome of id, if recorded.
	Get(ctx context.Context, id plan.TaskID) (Outcome, bool)
	// All returns every recorded outcome ordered by id.
	All(ctx context.Context) []Outcome
	// Len returns the number of recorded outcomes.
	Len() int
}
