package join

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/burstplan/internal/nodestore"
	"github.com/specialistvlad/burstplan/internal/plan"
)

// Auto is a Decider that needs no language model. It finalizes with the
// result of the last task when every task succeeded, and replans naming the
// tasks that did not otherwise.
type Auto struct{}

// Decide implements Decider.
func (Auto) Decide(_ context.Context, req DecideRequest) (Decision, error) {
	var (
		last   *nodestore.Outcome
		failed []string
	)
	for i := range req.Outcomes {
		o := &req.Outcomes[i]
		if o.Tool == plan.JoinTool {
			continue
		}
		if !o.Succeeded() {
			failed = append(failed, fmt.Sprintf("task %d (%s) %s", o.ID, o.Tool, o.Status))
			continue
		}
		last = o
	}

	if len(failed) > 0 {
		return Decision{
			Kind:     Replan,
			Thought:  fmt.Sprintf("%d task(s) did not succeed.", len(failed)),
			Guidance: "The following tasks did not succeed and must be retried differently: " + strings.Join(failed, "; "),
		}, nil
	}
	if last == nil {
		return Decision{Kind: Finalize, Thought: "The plan ran no tools.", Answer: ""}, nil
	}
	return Decision{
		Kind:    Finalize,
		Thought: fmt.Sprintf("All tasks succeeded; task %d holds the answer.", last.ID),
		Answer:  last.Text(),
	}, nil
}
