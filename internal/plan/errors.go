package plan

import (
	"errors"
	"fmt"
)

// ErrMalformedPlan matches every *MalformedPlanError via errors.Is.
var ErrMalformedPlan = errors.New("malformed plan")

// MalformedPlanError is a structural violation found while parsing plan text.
type MalformedPlanError struct {
	// Line is the 1-based line of the violation, or 0 when it concerns the
	// plan as a whole.
	Line   int
	Text   string
	Reason string
}

func (e *MalformedPlanError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed plan at line %d: %s: %q", e.Line, e.Reason, e.Text)
	}
	return fmt.Sprintf("malformed plan: %s", e.Reason)
}

func (e *MalformedPlanError) Is(target error) bool {
	return target == ErrMalformedPlan
}

// Guidance renders the error as an instruction for the planner.
func (e *MalformedPlanError) Guidance() string {
	if e.Line > 0 {
		return fmt.Sprintf("The previous plan could not be executed: line %d (%s) is invalid: %s. Write a corrected plan.", e.Line, e.Text, e.Reason)
	}
	return fmt.Sprintf("The previous plan could not be executed: %s. Write a corrected plan.", e.Reason)
}

func malformed(line int, text, format string, args ...any) *MalformedPlanError {
	return &MalformedPlanError{Line: line, Text: text, Reason: fmt.Sprintf(format, args...)}
}
