package history

import (
	"errors"
	"testing"

	"github.com/specialistvlad/burstplan/internal/nodestore"
	"github.com/specialistvlad/burstplan/internal/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestHistory_Observations(t *testing.T) {
	h := New()
	h.AddQuery("oldest parrot?")
	assert.Equal(t, plan.TaskID(1), h.NextTaskID())

	h.AddObservations(1, []nodestore.Outcome{
		{ID: 1, Tool: "search", Args: map[string]string{"query": `"parrot"`}, Resolved: map[string]string{"query": "parrot"}, Value: cty.StringVal("Cookie")},
		{ID: 2, Tool: "math", Args: map[string]string{"problem": `"${1}"`}, Status: nodestore.Skipped, Err: errors.New("skipped")},
		{ID: 3, Tool: plan.JoinTool},
	})

	entries := h.Entries()
	require.Len(t, entries, 3, "the join outcome is not an observation")
	assert.Equal(t, "1. search(query=parrot)\nObservation: Cookie", entries[1].Render())
	assert.Equal(t, map[string]string{"problem": `"${1}"`}, entries[2].Args, "unlaunched tasks keep their literal args")
	assert.Contains(t, entries[2].Text, "ERROR(Failed to call math")
	assert.Equal(t, plan.TaskID(3), h.NextTaskID())
}

func TestHistory_SinceLastQueryAndGuidance(t *testing.T) {
	h := New()
	h.AddQuery("first")
	h.Append(Entry{Kind: Answer, Text: "one"})
	h.AddQuery("second")

	_, ok := h.LastGuidance()
	assert.False(t, ok)

	h.Append(Entry{Kind: Thought, Text: "need more"}, Entry{Kind: Guidance, Text: "search again"})

	recent := h.SinceLastQuery()
	require.Len(t, recent, 3)
	assert.Equal(t, "second", recent[0].Text)

	g, ok := h.LastGuidance()
	require.True(t, ok)
	assert.Equal(t, "search again", g)

	assert.Equal(t, "second\n\nThought: need more\n\nContext from last attempt: search again", Render(recent))
}
