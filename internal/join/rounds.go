package join

import (
	"errors"
	"fmt"
)

// ErrRoundLimitExceeded signals that no more planning rounds are permitted.
// It marks forced decisions and is returned by RoundState.Advance.
var ErrRoundLimitExceeded = errors.New("round limit exceeded")

// RoundState counts planning rounds against a hard limit. It is owned by a
// single session and passed explicitly; it is not safe for concurrent use.
type RoundState struct {
	current int
	max     int
}

// NewRoundState creates a round counter allowing at most max rounds.
func NewRoundState(max int) (*RoundState, error) {
	if max < 1 {
		return nil, fmt.Errorf("round limit must be at least 1, got %d", max)
	}
	return &RoundState{max: max}, nil
}

// Begin starts the first round.
func (r *RoundState) Begin() {
	r.current = 1
}

// Advance moves to the next round, once per replan.
func (r *RoundState) Advance() error {
	if r.current >= r.max {
		return fmt.Errorf("round %d of %d: %w", r.current, r.max, ErrRoundLimitExceeded)
	}
	r.current++
	return nil
}

// Current returns the 1-based number of the running round, 0 before Begin.
func (r *RoundState) Current() int { return r.current }

// Max returns the round limit.
func (r *RoundState) Max() int { return r.max }

// Final reports whether the running round is the last one permitted.
func (r *RoundState) Final() bool { return r.current >= r.max }
