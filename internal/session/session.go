// Package session defines the core interfaces for creating and running a
// planning session: the loop of plan, execute and join rounds that answers
// one query at a time.
package session

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/burstplan/internal/join"
	"github.com/specialistvlad/burstplan/internal/nodestore"
	"github.com/specialistvlad/burstplan/internal/plan"
)

// ErrConsumed is yielded when a round sequence is iterated a second time.
var ErrConsumed = errors.New("round sequence already consumed")

// Phase is a step of the round state machine:
// Planning -> Executing -> Joining -> {Planning | Done}.
type Phase int

const (
	Planning Phase = iota
	Executing
	Joining
	Done
)

func (p Phase) String() string {
	switch p {
	case Planning:
		return "planning"
	case Executing:
		return "executing"
	case Joining:
		return "joining"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Snapshot is the record of one completed round.
type Snapshot struct {
	ID    uuid.UUID
	Round int
	// PlanText is the planner's raw output.
	PlanText string
	// Plan is nil when PlanErr is set.
	Plan    *plan.Plan
	PlanErr error
	// Outcomes are ordered by task id.
	Outcomes []nodestore.Outcome
	Decision join.Decision
	// Next is Planning when another round follows, Done otherwise.
	Next     Phase
	Started  time.Time
	Finished time.Time
}

// Result is the final answer of a query.
type Result struct {
	SessionID uuid.UUID
	Answer    string
	Thought   string
	// Forced is set when the round limit cut the session short.
	Forced bool
	Rounds []Snapshot
}

// Session answers queries. Queries on one session share a transcript.
type Session interface {
	ID() uuid.UUID
	// Rounds runs the query lazily, yielding one snapshot per round. The
	// sequence is finite and can be iterated only once. Stopping early
	// abandons the query once the current round finishes.
	Rounds(ctx context.Context, query string) iter.Seq2[Snapshot, error]
	// Answer drains Rounds and returns the final answer.
	Answer(ctx context.Context, query string) (*Result, error)
	// Close releases any resources held by the session.
	Close(ctx context.Context) error
}

// SessionFactory creates sessions. Different implementations can support
// various backends; only local execution exists today.
type SessionFactory interface {
	NewSession(ctx context.Context) (Session, error)
}
