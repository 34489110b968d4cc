// Package localsession provides a concrete implementation of the session.Session
// and session.SessionFactory interfaces for local, in-process execution.
package localsession

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/burstplan/internal/builder"
	"github.com/specialistvlad/burstplan/internal/ctxlog"
	"github.com/specialistvlad/burstplan/internal/history"
	"github.com/specialistvlad/burstplan/internal/inmemorystore"
	"github.com/specialistvlad/burstplan/internal/join"
	"github.com/specialistvlad/burstplan/internal/localexecutor"
	"github.com/specialistvlad/burstplan/internal/nodestore"
	"github.com/specialistvlad/burstplan/internal/plan"
	"github.com/specialistvlad/burstplan/internal/planner"
	"github.com/specialistvlad/burstplan/internal/registry"
	"github.com/specialistvlad/burstplan/internal/resolver"
	"github.com/specialistvlad/burstplan/internal/scheduler"
	"github.com/specialistvlad/burstplan/internal/session"
	"github.com/zclconf/go-cty/cty"
)

// Options tunes every session of a factory.
type Options struct {
	MaxRounds int
	Workers   int
	TextOnly  bool
}

// SessionFactory implements session.SessionFactory for local runs.
type SessionFactory struct {
	Planner planner.Planner
	Decider join.Decider
	Tools   *registry.Toolbox
	Options Options
}

var _ session.SessionFactory = (*SessionFactory)(nil)

// NewSession creates and configures a new local session.
func (f *SessionFactory) NewSession(ctx context.Context) (session.Session, error) {
	if f.Planner == nil || f.Decider == nil || f.Tools == nil {
		return nil, errors.New("session factory needs a planner, a decider and tools")
	}
	if f.Options.MaxRounds < 1 {
		return nil, fmt.Errorf("max rounds must be at least 1, got %d", f.Options.MaxRounds)
	}

	s := &Session{
		id:         uuid.New(),
		planner:    f.Planner,
		controller: join.NewController(f.Decider),
		tools:      f.Tools,
		builder:    builder.New(builder.Options{TextOnly: f.Options.TextOnly}),
		opts:       f.Options,
		history:    history.New(),
	}
	ctxlog.FromContext(ctx).Debug("Session created.", "session", s.id.String(), "max_rounds", f.Options.MaxRounds)
	return s, nil
}

// Session implements session.Session for local runs.
type Session struct {
	id         uuid.UUID
	planner    planner.Planner
	controller *join.Controller
	tools      *registry.Toolbox
	builder    builder.Builder
	opts       Options
	history    *history.History
}

// ID implements session.Session.
func (s *Session) ID() uuid.UUID { return s.id }

// History returns the session transcript.
func (s *Session) History() []history.Entry { return s.history.Entries() }

// Close implements session.Session.
func (s *Session) Close(ctx context.Context) error {
	ctxlog.FromContext(ctx).Debug("Session closed.", "session", s.id.String())
	return nil
}

// Rounds implements session.Session.
func (s *Session) Rounds(ctx context.Context, query string) iter.Seq2[session.Snapshot, error] {
	var consumed atomic.Bool
	return func(yield func(session.Snapshot, error) bool) {
		if consumed.Swap(true) {
			yield(session.Snapshot{}, session.ErrConsumed)
			return
		}
		ctx := ctxlog.With(ctx, "session", s.id.String())
		logger := ctxlog.FromContext(ctx)

		rounds, err := join.NewRoundState(s.opts.MaxRounds)
		if err != nil {
			yield(session.Snapshot{}, err)
			return
		}
		rounds.Begin()
		s.history.AddQuery(query)
		logger.Info("Query started.", "max_rounds", rounds.Max())

		for {
			snap, err := s.round(ctx, query, rounds)
			if err != nil {
				logger.Error("Round aborted.", "round", rounds.Current(), "error", err)
				yield(session.Snapshot{}, err)
				return
			}
			if !yield(snap, nil) || snap.Next == session.Done {
				return
			}
			if err := rounds.Advance(); err != nil {
				yield(session.Snapshot{}, err)
				return
			}
		}
	}
}

// Answer implements session.Session.
func (s *Session) Answer(ctx context.Context, query string) (*session.Result, error) {
	res := &session.Result{SessionID: s.id}
	for snap, err := range s.Rounds(ctx, query) {
		if err != nil {
			return nil, err
		}
		res.Rounds = append(res.Rounds, snap)
	}
	if len(res.Rounds) == 0 {
		return nil, errors.New("session produced no rounds")
	}
	last := res.Rounds[len(res.Rounds)-1].Decision
	res.Answer = last.Answer
	res.Thought = last.Thought
	res.Forced = last.Forced
	return res, nil
}

func (s *Session) round(ctx context.Context, query string, rounds *join.RoundState) (session.Snapshot, error) {
	ctx = ctxlog.With(ctx, "round", rounds.Current())
	logger := ctxlog.FromContext(ctx)

	snap := session.Snapshot{ID: uuid.New(), Round: rounds.Current(), Started: time.Now()}
	logger.Info("Round started.", "round_id", snap.ID.String())

	logger.Debug("Phase changed.", "phase", session.Planning.String())
	text, err := s.planner.Plan(ctx, planner.Request{
		Query:   query,
		History: s.history.Entries(),
		Tools:   s.tools.Descriptors(),
		Replan:  rounds.Current() > 1,
		StartAt: s.history.NextTaskID(),
		Round:   rounds.Current(),
	})
	if err != nil {
		return snap, fmt.Errorf("planner failed in round %d: %w", rounds.Current(), err)
	}
	snap.PlanText = text
	s.history.Append(history.Entry{Kind: history.Plan, Round: snap.Round, Text: text})

	p, err := plan.Parse(text)
	if err != nil {
		var malformed *plan.MalformedPlanError
		if !errors.As(err, &malformed) {
			return snap, err
		}
		logger.Warn("Plan rejected.", "line", malformed.Line, "reason", malformed.Reason)
		snap.PlanErr = err
		d := join.Decision{
			Kind:     join.Replan,
			Thought:  "The plan could not be parsed.",
			Guidance: malformed.Guidance(),
		}
		if rounds.Final() {
			d = join.Force(d, rounds, "")
		}
		return s.conclude(ctx, snap, d), nil
	}
	snap.Plan = p

	resolved, err := resolver.Resolve(ctx, p)
	if err != nil {
		return snap, fmt.Errorf("round %d: %w", rounds.Current(), err)
	}

	logger.Debug("Phase changed.", "phase", session.Executing.String(), "tasks", p.Len())
	store := inmemorystore.New()
	sched, err := scheduler.New(ctx, resolved, store)
	if err != nil {
		return snap, err
	}

	var (
		decision join.Decision
		joinErr  error
	)
	exec := localexecutor.New(sched, store, s.builder, s.tools, localexecutor.Options{
		Workers: s.opts.Workers,
		Join: func(ctx context.Context, st nodestore.Store) (cty.Value, error) {
			logger.Debug("Phase changed.", "phase", session.Joining.String())
			decision, joinErr = s.controller.Join(ctx, join.Request{
				Query:    query,
				History:  s.history.SinceLastQuery(),
				Outcomes: st.All(ctx),
				Rounds:   rounds,
			})
			if joinErr != nil {
				return cty.NilVal, joinErr
			}
			return cty.StringVal(decision.Kind.String()), nil
		},
	})
	if _, err := exec.Execute(ctx); err != nil {
		return snap, err
	}
	if joinErr != nil {
		return snap, joinErr
	}
	joinID := resolved.Plan.Join().ID
	if o, ok := store.Get(ctx, joinID); !ok {
		return snap, fmt.Errorf("round %d: join task %d left no outcome", rounds.Current(), joinID)
	} else if !o.Succeeded() {
		return snap, fmt.Errorf("round %d: join failed: %w", rounds.Current(), o.Err)
	}

	snap.Outcomes = store.All(ctx)
	s.history.AddObservations(snap.Round, snap.Outcomes)
	return s.conclude(ctx, snap, decision), nil
}

// conclude records the decision in the transcript and closes the snapshot.
func (s *Session) conclude(ctx context.Context, snap session.Snapshot, d join.Decision) session.Snapshot {
	logger := ctxlog.FromContext(ctx)

	snap.Decision = d
	snap.Finished = time.Now()
	entries := []history.Entry{{Kind: history.Thought, Round: snap.Round, Text: d.Thought}}
	if d.Kind == join.Replan {
		snap.Next = session.Planning
		entries = append(entries, history.Entry{Kind: history.Guidance, Round: snap.Round, Text: d.Guidance})
	} else {
		snap.Next = session.Done
		entries = append(entries, history.Entry{Kind: history.Answer, Round: snap.Round, Text: d.Answer})
	}
	s.history.Append(entries...)

	logger.Info("Round finished.",
		"decision", d.Kind.String(),
		"forced", d.Forced,
		"outcomes", len(snap.Outcomes),
		"duration", snap.Finished.Sub(snap.Started),
	)
	return snap
}
