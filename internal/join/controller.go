// Package join decides, at the end of every round, whether the gathered
// results answer the query or another planning round is needed.
//
// The Controller renders the round's outcomes, asks the Decider, and
// enforces the round limit: on the last permitted round a Replan is turned
// into a forced Finalize carrying a best-effort answer.
package join

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/specialistvlad/burstplan/internal/ctxlog"
	"github.com/specialistvlad/burstplan/internal/history"
	"github.com/specialistvlad/burstplan/internal/nodestore"
	"github.com/specialistvlad/burstplan/internal/plan"
)

// Request is the input of one join.
type Request struct {
	Query    string
	History  []history.Entry
	Outcomes []nodestore.Outcome
	Rounds   *RoundState
}

// Controller runs the join step.
type Controller struct {
	decider Decider
}

// NewController creates a controller around d.
func NewController(d Decider) *Controller {
	return &Controller{decider: d}
}

// Join asks the decider about a completed round. Decider failures are
// returned as errors; they are collaborator faults, not round outcomes.
func (c *Controller) Join(ctx context.Context, req Request) (Decision, error) {
	logger := ctxlog.FromContext(ctx)
	summary := Summarize(req.Outcomes)

	d, err := c.decider.Decide(ctx, DecideRequest{
		Query:    req.Query,
		History:  req.History,
		Summary:  summary,
		Outcomes: req.Outcomes,
		Round:    req.Rounds.Current(),
		Final:    req.Rounds.Final(),
	})
	if err != nil {
		return Decision{}, fmt.Errorf("join decision failed: %w", err)
	}
	if err := d.validate(); err != nil {
		return Decision{}, err
	}

	if d.Kind == Replan && req.Rounds.Final() {
		logger.Warn("Round limit reached, forcing finalization.", "round", req.Rounds.Current(), "max", req.Rounds.Max())
		return Force(d, req.Rounds, summary), nil
	}

	logger.Debug("Join decided.", "decision", d.Kind.String(), "round", req.Rounds.Current())
	return d, nil
}

// Force turns d into a finalization that reports what was gathered.
func Force(d Decision, rounds *RoundState, summary string) Decision {
	var b strings.Builder
	fmt.Fprintf(&b, "No complete answer was found within %d round(s).", rounds.Max())
	if d.Guidance != "" {
		fmt.Fprintf(&b, " Last assessment: %s", d.Guidance)
	}
	if summary != "" {
		b.WriteString("\n\nGathered results:\n")
		b.WriteString(summary)
	}
	return Decision{
		Kind:     Finalize,
		Thought:  d.Thought,
		Answer:   b.String(),
		Guidance: d.Guidance,
		Forced:   true,
	}
}

// Summarize renders every outcome except the join's, one block per task:
//
//	1. search(query="oldest parrot")
//	   Args resolved to {query=oldest parrot}
//	   Observation: Cookie, 83 years
func Summarize(outcomes []nodestore.Outcome) string {
	var b strings.Builder
	for _, o := range outcomes {
		if o.Tool == plan.JoinTool {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s(%s)\n", o.ID, o.Tool, renderArgs(o.Args))
		if o.Thought != "" {
			fmt.Fprintf(&b, "   Thought: %s\n", o.Thought)
		}
		if o.Resolved != nil {
			fmt.Fprintf(&b, "   Args resolved to {%s}\n", renderArgs(o.Resolved))
		}
		fmt.Fprintf(&b, "   Observation: %s\n", o.Text())
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderArgs(args map[string]string) string {
	keys := slices.Sorted(maps.Keys(args))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+args[k])
	}
	return strings.Join(parts, ", ")
}
