package task

import (
	"maps"

	"github.com/specialistvlad/burstplan/internal/ctyconv"
	"github.com/specialistvlad/burstplan/internal/node"
	"github.com/zclconf/go-cty/cty"
)

// Task represents a node that is fully prepared for execution.
// It is the output of the builder and the input of a tool invocation.
type Task struct {
	// Node is the original node from the graph.
	Node *node.Node

	// Args holds the resolved argument values keyed by argument name, with
	// every reference substituted.
	Args map[string]cty.Value
}

// Rendered returns the resolved arguments as text, for provenance.
func (t *Task) Rendered() map[string]string {
	out := make(map[string]string, len(t.Args))
	for k, v := range t.Args {
		out[k] = ctyconv.Render(v)
	}
	return out
}

// Clone returns a copy of the arguments that tools may modify freely.
func (t *Task) Clone() map[string]cty.Value {
	return maps.Clone(t.Args)
}
