package localsession

import (
	"context"
	"errors"
	"testing"

	"github.com/specialistvlad/burstplan/internal/history"
	"github.com/specialistvlad/burstplan/internal/join"
	"github.com/specialistvlad/burstplan/internal/nodestore"
	"github.com/specialistvlad/burstplan/internal/plan"
	"github.com/specialistvlad/burstplan/internal/planner"
	"github.com/specialistvlad/burstplan/internal/registry"
	"github.com/specialistvlad/burstplan/internal/session"
	"github.com/specialistvlad/burstplan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

const parrotPlan = `Thought: look both facts up, then compare.
1. search(query="oldest parrot alive")
2. search(query="average parrot lifespan")
3. solve(problem="${1} minus ${2}")
4. join()
<END_OF_PLAN>`

func parrotTools() *registry.Toolbox {
	return registry.NewToolbox(
		testutil.Lookup("search", map[string]cty.Value{
			"oldest parrot alive":     cty.StringVal("Cookie, 83 years"),
			"average parrot lifespan": cty.StringVal("60 years"),
		}),
		testutil.Echo("solve"),
	)
}

func newSession(t *testing.T, p planner.Planner, d join.Decider, tools *registry.Toolbox, maxRounds int) *Session {
	t.Helper()
	f := &SessionFactory{Planner: p, Decider: d, Tools: tools, Options: Options{MaxRounds: maxRounds, Workers: 4}}
	s, err := f.NewSession(testutil.Context(t))
	require.NoError(t, err)
	return s.(*Session)
}

func alwaysReplan(guidance string) join.DeciderFunc {
	return func(context.Context, join.DecideRequest) (join.Decision, error) {
		return join.Decision{Kind: join.Replan, Thought: "not enough", Guidance: guidance}, nil
	}
}

func TestSession_ParrotExample(t *testing.T) {
	s := newSession(t, planner.NewScripted(parrotPlan), join.Auto{}, parrotTools(), 3)

	res, err := s.Answer(testutil.Context(t), "How much longer than average does the oldest parrot live?")
	require.NoError(t, err)
	require.Len(t, res.Rounds, 1)

	snap := res.Rounds[0]
	require.NoError(t, snap.PlanErr)
	require.Len(t, snap.Outcomes, 4, "four entries in the Execution Context")

	solve := snap.Outcomes[2]
	assert.Equal(t, plan.TaskID(3), solve.ID)
	assert.Equal(t, "Cookie, 83 years minus 60 years", solve.Resolved["problem"])
	assert.Equal(t, `"${1} minus ${2}"`, solve.Args["problem"])
	assert.Equal(t, "look both facts up, then compare.", snap.Plan.Thought)
	assert.Equal(t, "look both facts up, then compare.", snap.Outcomes[0].Thought)

	join4 := snap.Outcomes[3]
	for _, o := range snap.Outcomes[:3] {
		assert.Equal(t, nodestore.Succeeded, o.Status)
		assert.False(t, join4.Started.Before(o.Finished), "join starts after task %d finishes", o.ID)
	}

	assert.Equal(t, "Cookie, 83 years minus 60 years", res.Answer)
	assert.False(t, res.Forced)
	assert.Equal(t, session.Done, snap.Next)
}

func TestSession_RoundLimitForcesFinalization(t *testing.T) {
	p := planner.NewScripted(
		"1. search(query=\"oldest parrot alive\")\n2. join()",
		"3. search(query=\"average parrot lifespan\")\n4. join()",
		"5. search(query=\"unused\")\n6. join()",
	)
	s := newSession(t, p, alwaysReplan("keep digging"), parrotTools(), 2)

	var snaps []session.Snapshot
	for snap, err := range s.Rounds(testutil.Context(t), "parrots") {
		require.NoError(t, err)
		snaps = append(snaps, snap)
	}

	require.Len(t, snaps, 2, "the session stops at the limit even though the decider keeps replanning")
	assert.Equal(t, []int{1, 2}, []int{snaps[0].Round, snaps[1].Round})
	assert.Equal(t, join.Replan, snaps[0].Decision.Kind)
	assert.Equal(t, session.Planning, snaps[0].Next)

	last := snaps[1].Decision
	assert.Equal(t, join.Finalize, last.Kind)
	assert.True(t, last.Forced)
	assert.ErrorIs(t, last.Err(), join.ErrRoundLimitExceeded)
	assert.Contains(t, last.Answer, "60 years")

	reqs := p.Requests()
	require.Len(t, reqs, 2)
	assert.False(t, reqs[0].Replan)
	assert.Equal(t, plan.TaskID(1), reqs[0].StartAt)
	assert.True(t, reqs[1].Replan)
	assert.Equal(t, plan.TaskID(2), reqs[1].StartAt, "replans continue numbering after the last executed task")

	var sawGuidance bool
	for _, e := range reqs[1].History {
		if e.Kind == history.Guidance {
			sawGuidance = true
			assert.Equal(t, "Context from last attempt: keep digging", e.Render())
		}
	}
	assert.True(t, sawGuidance, "replan guidance reaches the planner")
}

func TestSession_MalformedPlanCountsAsRound(t *testing.T) {
	p := planner.NewScripted(
		"1. search(query=\"x\")\n2. solve(problem=\"${3}\")\n3. join()",
		parrotPlan,
	)
	s := newSession(t, p, join.Auto{}, parrotTools(), 2)

	res, err := s.Answer(testutil.Context(t), "parrots")
	require.NoError(t, err)
	require.Len(t, res.Rounds, 2)

	first := res.Rounds[0]
	var malformed *plan.MalformedPlanError
	require.ErrorAs(t, first.PlanErr, &malformed)
	assert.Equal(t, 2, malformed.Line)
	assert.Empty(t, first.Outcomes, "a malformed plan never reaches the scheduler")
	assert.Equal(t, join.Replan, first.Decision.Kind)
	assert.Contains(t, first.Decision.Guidance, "Write a corrected plan.")

	reqs := p.Requests()
	assert.Contains(t, history.Render(reqs[1].History), "line 2")
	assert.Equal(t, "Cookie, 83 years minus 60 years", res.Answer)
}

func TestSession_MalformedPlanOnFinalRoundIsForced(t *testing.T) {
	s := newSession(t, planner.NewScripted("no plan here"), join.Auto{}, parrotTools(), 1)

	res, err := s.Answer(testutil.Context(t), "parrots")
	require.NoError(t, err)
	require.Len(t, res.Rounds, 1)
	assert.True(t, res.Forced)
	assert.ErrorIs(t, res.Rounds[0].PlanErr, plan.ErrMalformedPlan)
}

func TestSession_CollaboratorFailuresAbort(t *testing.T) {
	t.Run("planner", func(t *testing.T) {
		p := planner.Func(func(context.Context, planner.Request) (string, error) {
			return "", errors.New("connection refused")
		})
		s := newSession(t, p, join.Auto{}, parrotTools(), 3)
		_, err := s.Answer(testutil.Context(t), "parrots")
		assert.ErrorContains(t, err, "planner failed in round 1: connection refused")
	})

	t.Run("decider", func(t *testing.T) {
		d := join.DeciderFunc(func(context.Context, join.DecideRequest) (join.Decision, error) {
			return join.Decision{}, errors.New("rate limited")
		})
		s := newSession(t, planner.NewScripted(parrotPlan), d, parrotTools(), 3)
		_, err := s.Answer(testutil.Context(t), "parrots")
		assert.ErrorContains(t, err, "rate limited")
	})

	t.Run("decider panics", func(t *testing.T) {
		d := join.DeciderFunc(func(context.Context, join.DecideRequest) (join.Decision, error) {
			panic("decider blew up")
		})
		s := newSession(t, planner.NewScripted(parrotPlan), d, parrotTools(), 3)
		res, err := s.Answer(testutil.Context(t), "parrots")
		require.Error(t, err)
		assert.Nil(t, res)
		assert.ErrorContains(t, err, "round 1: join failed")
		assert.ErrorContains(t, err, "join step panicked")
	})
}

func TestSession_SequenceIsLazyAndNotRestartable(t *testing.T) {
	p := planner.NewScripted(parrotPlan, parrotPlan)
	s := newSession(t, p, alwaysReplan("again"), parrotTools(), 5)

	seq := s.Rounds(testutil.Context(t), "parrots")
	assert.Empty(t, p.Requests(), "nothing runs before iteration")

	for _, err := range seq {
		require.NoError(t, err)
		break
	}
	assert.Len(t, p.Requests(), 1, "stopping early runs no further rounds")

	for _, err := range seq {
		assert.ErrorIs(t, err, session.ErrConsumed)
	}
}

func TestSession_QueriesShareTranscript(t *testing.T) {
	p := planner.NewScripted(parrotPlan, "5. search(query=\"oldest parrot alive\")\n6. join()")
	var seen []join.DecideRequest
	d := join.DeciderFunc(func(ctx context.Context, req join.DecideRequest) (join.Decision, error) {
		seen = append(seen, req)
		return join.Auto{}.Decide(ctx, req)
	})
	s := newSession(t, p, d, parrotTools(), 2)
	ctx := testutil.Context(t)

	_, err := s.Answer(ctx, "first")
	require.NoError(t, err)
	res, err := s.Answer(ctx, "second")
	require.NoError(t, err)
	assert.Equal(t, "Cookie, 83 years", res.Answer)

	require.Len(t, seen, 2)
	assert.Equal(t, "second", seen[1].History[0].Text, "the decider sees history since the latest query")
	assert.Equal(t, plan.TaskID(4), p.Requests()[1].StartAt)
}
