// Package builder resolves a ready node's arguments against the Execution
// Context, producing a task.Task whose values are ready for a tool.
//
// Resolution runs immediately before launch, never at parse time. Every
// referenced task already has a successful outcome at that point; the
// scheduler never releases a node otherwise, so a missing or failed
// reference here is reported as an error rather than silently rendered.
//
// Substitution rules:
//
//	Passthrough  a bare `${1}`           the referenced value, type preserved
//	Composite    "${1} minus ${2}"       text with each reference rendered
//	List         [${1}, "x ${2}"]        each element resolved on its own
//	Literal      "parrots", 3, true      converted to the matching cty type
package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/burstplan/internal/ctxlog"
	"github.com/specialistvlad/burstplan/internal/ctyconv"
	"github.com/specialistvlad/burstplan/internal/node"
	"github.com/specialistvlad/burstplan/internal/nodestore"
	"github.com/specialistvlad/burstplan/internal/plan"
	"github.com/specialistvlad/burstplan/internal/resolver"
	"github.com/specialistvlad/burstplan/internal/task"
	"github.com/zclconf/go-cty/cty"
)

// Builder transforms a ready node into a fully-resolved, executable task.
type Builder interface {
	Build(ctx context.Context, n *node.Node, store nodestore.Store) (*task.Task, error)
}

// Options tunes substitution.
type Options struct {
	// TextOnly renders passthrough references as text too, trading type
	// fidelity for uniform string arguments.
	TextOnly bool
}

// DefaultBuilder is the standard Builder.
type DefaultBuilder struct {
	opts Options
}

// New creates a builder.
func New(opts Options) *DefaultBuilder {
	return &DefaultBuilder{opts: opts}
}

// Build resolves every argument of n.
func (b *DefaultBuilder) Build(ctx context.Context, n *node.Node, store nodestore.Store) (*task.Task, error) {
	logger := ctxlog.FromContext(ctx)
	args := make(map[string]cty.Value, len(n.Task.Args))

	for _, a := range n.Task.Args {
		kind := n.Kinds[a.Name]
		var (
			v   cty.Value
			err error
		)
		if kind == resolver.Passthrough && !b.opts.TextOnly {
			id, _ := a.Value.SingleRef()
			v, err = lookup(ctx, store, n.ID(), id)
		} else {
			v, err = b.resolve(ctx, store, n.ID(), a.Value)
		}
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", a.Name, err)
		}
		logger.Debug("Resolved argument.", "arg", a.Name, "kind", kind.String())
		args[a.Name] = v
	}

	return &task.Task{Node: n, Args: args}, nil
}

func (b *DefaultBuilder) resolve(ctx context.Context, store nodestore.Store, self plan.TaskID, v plan.Value) (cty.Value, error) {
	switch v.Kind {
	case plan.NumberValue:
		n, err := cty.ParseNumberVal(v.Raw)
		if err != nil {
			return cty.NilVal, fmt.Errorf("invalid number %q: %w", v.Raw, err)
		}
		return n, nil
	case plan.BoolValue:
		return cty.BoolVal(v.Raw == "true"), nil
	case plan.ListValue:
		elems := make([]cty.Value, 0, len(v.Elems))
		for _, e := range v.Elems {
			var (
				ev  cty.Value
				err error
			)
			if id, ok := e.SingleRef(); ok && !b.opts.TextOnly {
				ev, err = lookup(ctx, store, self, id)
			} else {
				ev, err = b.resolve(ctx, store, self, e)
			}
			if err != nil {
				return cty.NilVal, err
			}
			elems = append(elems, ev)
		}
		return cty.TupleVal(elems), nil
	default:
		var sb strings.Builder
		for _, seg := range v.Segments {
			if seg.Kind == plan.TextSegment {
				sb.WriteString(seg.Text)
				continue
			}
			ref, err := lookup(ctx, store, self, seg.Ref)
			if err != nil {
				return cty.NilVal, err
			}
			sb.WriteString(ctyconv.Render(ref))
		}
		return cty.StringVal(sb.String()), nil
	}
}

func lookup(ctx context.Context, store nodestore.Store, self, id plan.TaskID) (cty.Value, error) {
	o, ok := store.Get(ctx, id)
	if !ok {
		return cty.NilVal, fmt.Errorf("task %d references %s, which has no recorded outcome", self, id.Ref())
	}
	if !o.Succeeded() {
		return cty.NilVal, fmt.Errorf("task %d references %s, which %s", self, id.Ref(), o.Status)
	}
	if o.Value.IsNull() {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}
	return o.Value, nil
}
