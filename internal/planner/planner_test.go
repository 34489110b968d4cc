package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScripted(t *testing.T) {
	s := NewScripted("1. a()\n2. join()", "3. b()\n4. join()")
	ctx := context.Background()

	p, err := s.Plan(ctx, Request{Round: 1, StartAt: 1})
	require.NoError(t, err)
	assert.Equal(t, "1. a()\n2. join()", p)

	p, err = s.Plan(ctx, Request{Round: 2, StartAt: 3, Replan: true})
	require.NoError(t, err)
	assert.Equal(t, "3. b()\n4. join()", p)

	_, err = s.Plan(ctx, Request{Round: 3})
	assert.ErrorIs(t, err, ErrScriptExhausted)

	reqs := s.Requests()
	require.Len(t, reqs, 3)
	assert.True(t, reqs[1].Replan)
}
