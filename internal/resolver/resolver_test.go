package resolver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/specialistvlad/burstplan/internal/ctxlog"
	"github.com/specialistvlad/burstplan/internal/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCtx() context.Context {
	return ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func mustParse(t *testing.T, text string) *plan.Plan {
	t.Helper()
	p, err := plan.Parse(text)
	require.NoError(t, err)
	return p
}

func TestResolve_Diamond(t *testing.T) {
	p := mustParse(t, `1. search(query="a")
2. search(query="b")
3. echo(v=${1})
4. echo(v="${2} and ${3}")
5. join()`)

	r, err := Resolve(testCtx(), p)
	require.NoError(t, err)

	deps, err := r.Graph.Dependencies(4)
	require.NoError(t, err)
	assert.Equal(t, []plan.TaskID{2, 3}, deps)

	joinDeps, err := r.Graph.Dependencies(5)
	require.NoError(t, err)
	assert.Equal(t, []plan.TaskID{1, 2, 3, 4}, joinDeps)

	assert.Equal(t, plan.TaskID(5), r.Order[len(r.Order)-1])
	assert.Equal(t, Passthrough, r.Kinds(3)["v"])
	assert.Equal(t, Composite, r.Kinds(4)["v"])
	assert.Equal(t, Literal, r.Kinds(1)["query"])
}

func TestClassify(t *testing.T) {
	p := mustParse(t, `1. search(query="a")
2. echo(a="${1}", b=${1}, c="x ${1}", d=[${1}], e=3, f="plain")
3. join()`)
	task := p.Tasks[1]

	want := map[string]ArgKind{
		"a": Passthrough,
		"b": Passthrough,
		"c": Composite,
		"d": Composite,
		"e": Literal,
		"f": Literal,
	}
	for _, a := range task.Args {
		assert.Equal(t, want[a.Name], Classify(a.Value), "argument %s", a.Name)
	}
}

func TestResolve_InternalFaults(t *testing.T) {
	// Plans built by hand can violate what the parser guarantees.
	ref := func(id plan.TaskID) []plan.Arg {
		return []plan.Arg{{Name: "v", Value: plan.Value{
			Kind:     plan.BareValue,
			Raw:      id.Ref(),
			Segments: []plan.Segment{{Kind: plan.RefSegment, Ref: id}},
		}}}
	}

	t.Run("dangling reference", func(t *testing.T) {
		p := &plan.Plan{Tasks: []*plan.Task{
			{ID: 1, Tool: "echo", Args: ref(7)},
			{ID: 2, Tool: plan.JoinTool},
		}}
		_, err := Resolve(testCtx(), p)
		var dangling *DanglingReferenceError
		require.ErrorAs(t, err, &dangling)
		assert.Equal(t, plan.TaskID(7), dangling.Ref)
		assert.True(t, errors.Is(err, ErrInternalFault))
	})

	t.Run("cycle", func(t *testing.T) {
		p := &plan.Plan{Tasks: []*plan.Task{
			{ID: 1, Tool: "echo", Args: ref(2)},
			{ID: 2, Tool: "echo", Args: ref(1)},
			{ID: 3, Tool: plan.JoinTool},
		}}
		_, err := Resolve(testCtx(), p)
		var cyclic *CyclicPlanError
		require.ErrorAs(t, err, &cyclic)
		assert.True(t, errors.Is(err, ErrInternalFault))
	})

	t.Run("self reference", func(t *testing.T) {
		p := &plan.Plan{Tasks: []*plan.Task{
			{ID: 1, Tool: "echo", Args: ref(1)},
			{ID: 2, Tool: plan.JoinTool},
		}}
		_, err := Resolve(testCtx(), p)
		var cyclic *CyclicPlanError
		require.ErrorAs(t, err, &cyclic)
		assert.Equal(t, plan.TaskID(1), cyclic.Task)
	})
}
