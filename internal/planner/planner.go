// Package planner defines the contract of the upstream planner that turns a
// query and the transcript so far into plan text.
package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/specialistvlad/burstplan/internal/history"
	"github.com/specialistvlad/burstplan/internal/plan"
	"github.com/specialistvlad/burstplan/internal/registry"
)

// Request is everything a planner sees for one round.
type Request struct {
	Query   string
	History []history.Entry
	Tools   []registry.Descriptor
	// Replan is set from the second round on.
	Replan bool
	// StartAt is the id the new plan should start counting from.
	StartAt plan.TaskID
	Round   int
}

// Planner produces plan text.
type Planner interface {
	Plan(ctx context.Context, req Request) (string, error)
}

// Func adapts a function to Planner.
type Func func(ctx context.Context, req Request) (string, error)

func (f Func) Plan(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// ErrScriptExhausted is returned by a Scripted planner asked for more plans
// than it holds.
var ErrScriptExhausted = errors.New("scripted planner has no more plans")

// Scripted replays a fixed list of plans, one per round. It backs offline
// runs (--plan-file) and tests.
type Scripted struct {
	mu    sync.Mutex
	plans []string
	next  int
	seen  []Request
}

// NewScripted creates a planner returning plans in order.
func NewScripted(plans ...string) *Scripted {
	return &Scripted{plans: plans}
}

// Plan implements Planner.
func (s *Scripted) Plan(ctx context.Context, req Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, req)
	if s.next >= len(s.plans) {
		return "", fmt.Errorf("round %d: %w", req.Round, ErrScriptExhausted)
	}
	p := s.plans[s.next]
	s.next++
	return p, nil
}

// Requests returns every request received so far.
func (s *Scripted) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.seen...)
}
