package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/burstplan/internal/ctxlog"
	"github.com/specialistvlad/burstplan/internal/history"
	"github.com/specialistvlad/burstplan/internal/join"
)

// ErrUnparsableDecision is returned when the model reply is not a decision.
var ErrUnparsableDecision = errors.New("model reply is not a valid join decision")

// Decider is a join.Decider that asks a language model whether to finalize
// or replan.
type Decider struct {
	completer Completer
}

var _ join.Decider = (*Decider)(nil)

// NewDecider creates a decider talking to c.
func NewDecider(c Completer) (*Decider, error) {
	if c == nil {
		return nil, errors.New("llm decider needs a completer")
	}
	return &Decider{completer: c}, nil
}

type decisionReply struct {
	Thought  string `json:"thought"`
	Action   string `json:"action"`
	Answer   string `json:"answer"`
	Feedback string `json:"feedback"`
}

// Decide implements join.Decider.
func (d *Decider) Decide(ctx context.Context, req join.DecideRequest) (join.Decision, error) {
	system := joinerSystemPrompt
	if req.Final {
		system += joinerFinalNote
	}
	user := JoinerUserPrompt(req.Query, history.Render(req.History), req.Summary)

	out, err := d.completer.Complete(ctx, system, user)
	if err != nil {
		return join.Decision{}, fmt.Errorf("llm decider: %w", err)
	}
	dec, err := ParseDecision(out)
	if err != nil {
		return join.Decision{}, err
	}
	ctxlog.FromContext(ctx).Debug("Decision received.", "decision", dec.Kind.String())
	return dec, nil
}

// ParseDecision reads a decision reply. Code fences and text around the JSON
// object are ignored.
func ParseDecision(reply string) (join.Decision, error) {
	body := stripFences(reply)
	start, end := strings.IndexByte(body, '{'), strings.LastIndexByte(body, '}')
	if start < 0 || end < start {
		return join.Decision{}, fmt.Errorf("%w: no JSON object in %q", ErrUnparsableDecision, reply)
	}

	var r decisionReply
	if err := json.Unmarshal([]byte(body[start:end+1]), &r); err != nil {
		return join.Decision{}, fmt.Errorf("%w: %v", ErrUnparsableDecision, err)
	}

	switch strings.ToLower(strings.TrimSpace(r.Action)) {
	case "finalize", "final", "finalresponse", "final_response":
		return join.Decision{Kind: join.Finalize, Thought: r.Thought, Answer: r.Answer}, nil
	case "replan":
		return join.Decision{Kind: join.Replan, Thought: r.Thought, Guidance: r.Feedback}, nil
	default:
		return join.Decision{}, fmt.Errorf("%w: unknown action %q", ErrUnparsableDecision, r.Action)
	}
}
