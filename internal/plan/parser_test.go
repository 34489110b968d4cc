// internal/plan/parser_test.go
package plan

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_ParrotPlan(t *testing.T) {
	text := `Thought: find both numbers first.
1. search(query="oldest parrot alive")
2. search(query="average parrot lifespan")
3. solve(problem="${1} minus ${2}")
4. join()
<END_OF_PLAN>
this trailing chatter is discarded
5. search(query="never parsed")`

	p, err := Parse(text)
	require.NoError(t, err)

	assert.Equal(t, []TaskID{1, 2, 3, 4}, p.IDs())
	assert.Equal(t, "find both numbers first.", p.Thought)
	assert.Equal(t, "find both numbers first.", p.Tasks[0].Thought)
	assert.Empty(t, p.Tasks[1].Thought)

	solve := p.Tasks[2]
	assert.Equal(t, "solve", solve.Tool)
	assert.Equal(t, []TaskID{1, 2}, solve.Deps)
	arg, ok := solve.Arg("problem")
	require.True(t, ok)
	want := []Segment{
		{Kind: RefSegment, Ref: 1},
		{Kind: TextSegment, Text: " minus "},
		{Kind: RefSegment, Ref: 2},
	}
	if diff := cmp.Diff(want, arg.Value.Segments); diff != "" {
		t.Errorf("problem segments mismatch (-want +got):\n%s", diff)
	}

	join := p.Join()
	assert.True(t, join.IsJoin())
	assert.Equal(t, TaskID(4), join.ID)
	assert.Equal(t, []TaskID{1, 2, 3}, join.Deps)
	assert.Equal(t, TaskID(5), p.NextID())
}

func TestParse_ArgumentShapes(t *testing.T) {
	text := `1. search("parrots", max_results=3)
2. math(problem='what is ${1.output}?', context=[${1}, "fixed", 2.5], exact=true)
3. echo(value=${2}, note = plain words ${1} here,)
4. join()`

	p, err := Parse(text)
	require.NoError(t, err)

	search := p.Tasks[0]
	require.Len(t, search.Args, 2)
	assert.Equal(t, "arg0", search.Args[0].Name)
	assert.Equal(t, StringValue, search.Args[0].Value.Kind)
	assert.Equal(t, "parrots", search.Args[0].Value.Text())
	assert.Equal(t, NumberValue, search.Args[1].Value.Kind)
	assert.Equal(t, "3", search.Args[1].Value.Raw)

	math := p.Tasks[1]
	problem, _ := math.Arg("problem")
	assert.Equal(t, "what is ${1}?", problem.Value.Text())
	ctxArg, _ := math.Arg("context")
	require.Equal(t, ListValue, ctxArg.Value.Kind)
	require.Len(t, ctxArg.Value.Elems, 3)
	ref, ok := ctxArg.Value.Elems[0].SingleRef()
	assert.True(t, ok)
	assert.Equal(t, TaskID(1), ref)
	assert.Equal(t, NumberValue, ctxArg.Value.Elems[2].Kind)
	exact, _ := math.Arg("exact")
	assert.Equal(t, BoolValue, exact.Value.Kind)
	assert.Equal(t, []TaskID{1}, math.Deps)

	echo := p.Tasks[2]
	value, _ := echo.Arg("value")
	ref, ok = value.Value.SingleRef()
	assert.True(t, ok)
	assert.Equal(t, TaskID(2), ref)
	note, _ := echo.Arg("note")
	assert.Equal(t, BareValue, note.Value.Kind)
	assert.Equal(t, "plain words ${1} here", note.Value.Text())
	assert.Equal(t, []TaskID{1, 2}, echo.Deps)
}

func TestParse_ReplanNumbering(t *testing.T) {
	// Follow-up plans continue numbering where the previous round stopped.
	p, err := Parse("7. search(query=\"x\")\n8. search(query=\"${7} again\")\n10. join()")
	require.NoError(t, err)
	assert.Equal(t, []TaskID{7, 8, 10}, p.IDs())
	assert.Equal(t, []TaskID{7, 8}, p.Join().Deps)
}

func TestParse_IgnoresChatterAndComments(t *testing.T) {
	text := `Here is the plan:

1. search(query="a") #E1
Some commentary the model added.
2. join()`
	p, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, []TaskID{1, 2}, p.IDs())
}

func TestParse_JoinOnly(t *testing.T) {
	p, err := Parse("1. join()")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Len())
	assert.Empty(t, p.Join().Deps)
}

func TestParse_Malformed(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		wantLine int
		reason   string
	}{
		{
			name:     "duplicate id",
			text:     "1. search(query=\"a\")\n1. search(query=\"b\")\n2. join()",
			wantLine: 2,
			reason:   "declared more than once",
		},
		{
			name:     "decreasing id",
			text:     "2. search(query=\"a\")\n1. search(query=\"b\")\n3. join()",
			wantLine: 2,
			reason:   "strictly increasing",
		},
		{
			name:     "forward reference",
			text:     "1. search(query=\"${2}\")\n2. search(query=\"b\")\n3. join()",
			wantLine: 1,
			reason:   "not declared before task 1",
		},
		{
			name:     "self reference",
			text:     "1. search(query=\"a\")\n2. search(query=\"${2}\")\n3. join()",
			wantLine: 2,
			reason:   "not declared before task 2",
		},
		{
			name:     "undeclared reference",
			text:     "3. search(query=\"a\")\n4. echo(v=[${1}])\n5. join()",
			wantLine: 2,
			reason:   "references ${1}",
		},
		{
			name:     "missing join",
			text:     "1. search(query=\"a\")\n2. search(query=\"b\")",
			wantLine: 2,
			reason:   "does not end with a join()",
		},
		{
			name:     "join after end marker",
			text:     "1. search(query=\"a\")\n<END_OF_PLAN>\n2. join()",
			wantLine: 2,
			reason:   "does not end with a join()",
		},
		{
			name:     "join with arguments",
			text:     "1. search(query=\"a\")\n2. join(x=1)",
			wantLine: 2,
			reason:   "takes no arguments",
		},
		{
			name:   "empty plan",
			text:   "\n  \n",
			reason: "no tasks",
		},
		{
			name:     "bad call syntax",
			text:     "1. search query a\n2. join()",
			wantLine: 1,
			reason:   "expected <tool>(<arguments>)",
		},
		{
			name:     "unterminated string",
			text:     "1. search(query=\"a)\n2. join()",
			wantLine: 1,
			reason:   "unterminated string",
		},
		{
			name:     "unterminated list",
			text:     "1. echo(v=[1, 2)\n2. join()",
			wantLine: 1,
			reason:   "unterminated list",
		},
		{
			name:     "duplicate argument",
			text:     "1. search(query=\"a\", query=\"b\")\n2. join()",
			wantLine: 1,
			reason:   "more than once",
		},
		{
			name:     "zero id",
			text:     "0. search(query=\"a\")\n1. join()",
			wantLine: 1,
			reason:   "not a positive integer",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Parse(tc.text)
			require.Error(t, err)
			assert.Nil(t, p)
			assert.True(t, errors.Is(err, ErrMalformedPlan))

			var mpe *MalformedPlanError
			require.ErrorAs(t, err, &mpe)
			assert.Equal(t, tc.wantLine, mpe.Line)
			assert.Contains(t, mpe.Reason, tc.reason)
			assert.Contains(t, mpe.Guidance(), "corrected plan")
		})
	}
}

func TestPlan_StringRoundTrip(t *testing.T) {
	text := "Thought: go\n1. search(query=\"a\")\n2. echo(v=${1})\n3. join()"
	p, err := Parse(text)
	require.NoError(t, err)

	again, err := Parse(p.String())
	require.NoError(t, err)
	assert.Equal(t, p.IDs(), again.IDs())
	assert.Equal(t, p.Thought, again.Thought)
	assert.Equal(t, p.Tasks[1].Deps, again.Tasks[1].Deps)
}
