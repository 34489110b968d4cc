// Package history records the transcript of a session: the query, each
// round's plan and observations, and the decisions taken at every join.
//
// The transcript is what the planner and the decider see. Observations keep
// their provenance (task id, tool, arguments) so a replan can refer to the
// exact calls that already ran.
package history

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/specialistvlad/burstplan/internal/nodestore"
	"github.com/specialistvlad/burstplan/internal/plan"
)

// Kind is the role of a transcript entry.
type Kind int

const (
	// Query is the user's request.
	Query Kind = iota
	// Plan is the plan text produced for a round.
	Plan
	// Observation is the outcome of one executed task.
	Observation
	// Thought is the decider's reasoning at a join.
	Thought
	// Guidance is replan feedback carried into the next round.
	Guidance
	// Answer is the final response.
	Answer
)

func (k Kind) String() string {
	switch k {
	case Query:
		return "query"
	case Plan:
		return "plan"
	case Observation:
		return "observation"
	case Thought:
		return "thought"
	case Guidance:
		return "guidance"
	case Answer:
		return "answer"
	default:
		return "unknown"
	}
}

// GuidancePrefix starts every guidance entry.
const GuidancePrefix = "Context from last attempt: "

// Entry is one transcript message.
type Entry struct {
	Kind  Kind
	Round int
	Text  string

	// Set on Observation entries only.
	Task plan.TaskID
	Tool string
	Args map[string]string
}

// Render returns the entry the way it is shown to language models.
func (e Entry) Render() string {
	switch e.Kind {
	case Observation:
		keys := slices.Sorted(maps.Keys(e.Args))
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+"="+e.Args[k])
		}
		return fmt.Sprintf("%d. %s(%s)\nObservation: %s", e.Task, e.Tool, strings.Join(parts, ", "), e.Text)
	case Thought:
		return "Thought: " + e.Text
	case Guidance:
		return GuidancePrefix + e.Text
	default:
		return e.Text
	}
}

// History is an append-only, concurrency-safe transcript.
type History struct {
	mu      sync.RWMutex
	entries []Entry
}

// New creates an empty history.
func New() *History {
	return &History{}
}

// Append adds entries in order.
func (h *History) Append(entries ...Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, entries...)
}

// AddQuery records the user's request.
func (h *History) AddQuery(q string) {
	h.Append(Entry{Kind: Query, Text: q})
}

// AddObservations records the outcomes of a round in task id order. The
// join task is left out; its result is the decision.
func (h *History) AddObservations(round int, outcomes []nodestore.Outcome) {
	entries := make([]Entry, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Tool == plan.JoinTool {
			continue
		}
		args := o.Args
		if o.Resolved != nil {
			args = o.Resolved
		}
		entries = append(entries, Entry{
			Kind:  Observation,
			Round: round,
			Text:  o.Text(),
			Task:  o.ID,
			Tool:  o.Tool,
			Args:  args,
		})
	}
	h.Append(entries...)
}

// Entries returns a copy of the transcript.
func (h *History) Entries() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.entries)
}

// SinceLastQuery returns the entries from the most recent query onwards.
func (h *History) SinceLastQuery() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for i := len(h.entries) - 1; i >= 0; i-- {
		if h.entries[i].Kind == Query {
			return slices.Clone(h.entries[i:])
		}
	}
	return slices.Clone(h.entries)
}

// NextTaskID returns one past the id of the latest observation, or 1 when
// nothing has run yet.
func (h *History) NextTaskID() plan.TaskID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for i := len(h.entries) - 1; i >= 0; i-- {
		if h.entries[i].Kind == Observation {
			return h.entries[i].Task + 1
		}
	}
	return 1
}

// LastGuidance returns the most recent guidance text.
func (h *History) LastGuidance() (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for i := len(h.entries) - 1; i >= 0; i-- {
		switch h.entries[i].Kind {
		case Guidance:
			return h.entries[i].Text, true
		case Query:
			return "", false
		}
	}
	return "", false
}

// Render joins the rendered entries with blank lines.
func Render(entries []Entry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, e.Render())
	}
	return strings.Join(parts, "\n\n")
}
