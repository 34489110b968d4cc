package join

import (
	"context"
	"errors"
	"testing"

	"github.com/specialistvlad/burstplan/internal/nodestore"
	"github.com/specialistvlad/burstplan/internal/plan"
	"github.com/specialistvlad/burstplan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestRoundState(t *testing.T) {
	_, err := NewRoundState(0)
	assert.ErrorContains(t, err, "at least 1")

	r, err := NewRoundState(3)
	require.NoError(t, err)
	r.Begin()
	assert.Equal(t, 1, r.Current())
	assert.False(t, r.Final())

	require.NoError(t, r.Advance())
	require.NoError(t, r.Advance())
	assert.Equal(t, 3, r.Current())
	assert.True(t, r.Final())

	err = r.Advance()
	assert.ErrorIs(t, err, ErrRoundLimitExceeded)
	assert.Equal(t, 3, r.Current(), "a refused advance leaves the count alone")
}

func TestRoundState_SingleRoundIsFinal(t *testing.T) {
	r, err := NewRoundState(1)
	require.NoError(t, err)
	r.Begin()
	assert.True(t, r.Final())
}

var outcomes = []nodestore.Outcome{
	{ID: 1, Tool: "search", Args: map[string]string{"query": `"oldest parrot"`}, Resolved: map[string]string{"query": "oldest parrot"}, Value: cty.StringVal("Cookie, 83 years")},
	{ID: 2, Tool: "math", Thought: "compare", Args: map[string]string{"problem": `"${1} - 60"`}, Status: nodestore.Failed, Err: errors.New("bad expression"), Resolved: map[string]string{"problem": "Cookie, 83 years - 60"}},
	{ID: 3, Tool: plan.JoinTool},
}

func TestSummarize(t *testing.T) {
	want := `1. search(query="oldest parrot")
   Args resolved to {query=oldest parrot}
   Observation: Cookie, 83 years

2. math(problem="${1} - 60")
   Thought: compare
   Args resolved to {problem=Cookie, 83 years - 60}
   Observation: ERROR(Failed to call math with args {problem="${1} - 60"}. Args resolved to {problem=Cookie, 83 years - 60}. Error: bad expression)`
	assert.Equal(t, want, Summarize(outcomes))
}

func rounds(t *testing.T, max, current int) *RoundState {
	t.Helper()
	r, err := NewRoundState(max)
	require.NoError(t, err)
	r.Begin()
	for r.Current() < current {
		require.NoError(t, r.Advance())
	}
	return r
}

func TestController_Join(t *testing.T) {
	replan := DeciderFunc(func(_ context.Context, req DecideRequest) (Decision, error) {
		return Decision{Kind: Replan, Thought: "math failed", Guidance: "rewrite the expression"}, nil
	})

	t.Run("replan before the limit", func(t *testing.T) {
		d, err := NewController(replan).Join(testutil.Context(t), Request{Query: "q", Outcomes: outcomes, Rounds: rounds(t, 2, 1)})
		require.NoError(t, err)
		assert.Equal(t, Replan, d.Kind)
		assert.False(t, d.Forced)
		assert.NoError(t, d.Err())
	})

	t.Run("replan on the final round is forced", func(t *testing.T) {
		d, err := NewController(replan).Join(testutil.Context(t), Request{Query: "q", Outcomes: outcomes, Rounds: rounds(t, 2, 2)})
		require.NoError(t, err)
		assert.Equal(t, Finalize, d.Kind)
		assert.True(t, d.Forced)
		assert.ErrorIs(t, d.Err(), ErrRoundLimitExceeded)
		assert.Equal(t, "math failed", d.Thought)
		assert.Contains(t, d.Answer, "within 2 round(s)")
		assert.Contains(t, d.Answer, "rewrite the expression")
		assert.Contains(t, d.Answer, "Cookie, 83 years")
	})

	t.Run("decider sees the final flag and summary", func(t *testing.T) {
		var got DecideRequest
		dec := DeciderFunc(func(_ context.Context, req DecideRequest) (Decision, error) {
			got = req
			return Decision{Kind: Finalize, Answer: "Cookie"}, nil
		})
		d, err := NewController(dec).Join(testutil.Context(t), Request{Query: "q", Outcomes: outcomes, Rounds: rounds(t, 1, 1)})
		require.NoError(t, err)
		assert.Equal(t, "Cookie", d.Answer)
		assert.True(t, got.Final)
		assert.Equal(t, 1, got.Round)
		assert.Equal(t, Summarize(outcomes), got.Summary)
	})

	t.Run("decider errors are returned", func(t *testing.T) {
		dec := DeciderFunc(func(context.Context, DecideRequest) (Decision, error) {
			return Decision{}, errors.New("503")
		})
		_, err := NewController(dec).Join(testutil.Context(t), Request{Rounds: rounds(t, 3, 1)})
		assert.ErrorContains(t, err, "join decision failed: 503")
	})

	t.Run("unknown kind is rejected", func(t *testing.T) {
		dec := DeciderFunc(func(context.Context, DecideRequest) (Decision, error) {
			return Decision{Kind: Kind(7)}, nil
		})
		_, err := NewController(dec).Join(testutil.Context(t), Request{Rounds: rounds(t, 3, 1)})
		assert.ErrorContains(t, err, "unknown decision kind")
	})
}

func TestAuto(t *testing.T) {
	d, err := Auto{}.Decide(context.Background(), DecideRequest{Outcomes: outcomes})
	require.NoError(t, err)
	assert.Equal(t, Replan, d.Kind)
	assert.Contains(t, d.Guidance, "task 2 (math) failed")

	d, err = Auto{}.Decide(context.Background(), DecideRequest{Outcomes: outcomes[:1]})
	require.NoError(t, err)
	assert.Equal(t, Finalize, d.Kind)
	assert.Equal(t, "Cookie, 83 years", d.Answer)
}
