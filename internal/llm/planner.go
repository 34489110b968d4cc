package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/burstplan/internal/ctxlog"
	"github.com/specialistvlad/burstplan/internal/history"
	"github.com/specialistvlad/burstplan/internal/planner"
)

// Planner is a planner.Planner that asks a language model for plan text.
type Planner struct {
	completer Completer
}

var _ planner.Planner = (*Planner)(nil)

// NewPlanner creates a planner talking to c.
func NewPlanner(c Completer) (*Planner, error) {
	if c == nil {
		return nil, errors.New("llm planner needs a completer")
	}
	return &Planner{completer: c}, nil
}

// Plan implements planner.Planner.
func (p *Planner) Plan(ctx context.Context, req planner.Request) (string, error) {
	system := PlannerSystemPrompt(req.Tools, req.Replan)
	user := PlannerUserPrompt(req.Query, history.Render(req.History), req.Replan, req.StartAt)

	out, err := p.completer.Complete(ctx, system, user)
	if err != nil {
		return "", fmt.Errorf("llm planner: %w", err)
	}
	text := stripFences(out)
	ctxlog.FromContext(ctx).Debug("Plan received.", "bytes", len(text), "replan", req.Replan)
	return text, nil
}
