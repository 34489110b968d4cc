package join

import (
	"context"
	"fmt"

	"github.com/specialistvlad/burstplan/internal/history"
	"github.com/specialistvlad/burstplan/internal/nodestore"
)

// Kind is the outcome of a join.
type Kind int

const (
	// Finalize ends the session with an answer.
	Finalize Kind = iota
	// Replan starts another planning round with guidance.
	Replan
)

func (k Kind) String() string {
	switch k {
	case Finalize:
		return "finalize"
	case Replan:
		return "replan"
	default:
		return "unknown"
	}
}

// Decision is what the join step concluded about a round.
type Decision struct {
	Kind    Kind
	Thought string
	// Answer is set when Kind is Finalize.
	Answer string
	// Guidance is set when Kind is Replan.
	Guidance string
	// Forced is set when a replan was turned into a finalization because
	// the round limit was reached.
	Forced bool
}

// Err returns ErrRoundLimitExceeded for forced decisions, nil otherwise.
func (d Decision) Err() error {
	if d.Forced {
		return ErrRoundLimitExceeded
	}
	return nil
}

// DecideRequest is everything the decider sees.
type DecideRequest struct {
	Query string
	// History holds the transcript since the latest query.
	History []history.Entry
	// Summary renders every outcome of the round.
	Summary  string
	Outcomes []nodestore.Outcome
	Round    int
	// Final is set on the last permitted round; a replan will be overridden.
	Final bool
}

// Decider chooses between finalizing and replanning.
type Decider interface {
	Decide(ctx context.Context, req DecideRequest) (Decision, error)
}

// DeciderFunc adapts a function to Decider.
type DeciderFunc func(ctx context.Context, req DecideRequest) (Decision, error)

func (f DeciderFunc) Decide(ctx context.Context, req DecideRequest) (Decision, error) {
	return f(ctx, req)
}

func (d Decision) validate() error {
	switch d.Kind {
	case Finalize, Replan:
		return nil
	default:
		return fmt.Errorf("decider returned unknown decision kind %d", d.Kind)
	}
}
