package echo

import (
	"context"
	"maps"
	"slices"

	"github.com/specialistvlad/burstplan/internal/ctxlog"
	"github.com/specialistvlad/burstplan/internal/ctyconv"
	"github.com/specialistvlad/burstplan/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

const description = `echo(value) -> any
 - Returns its argument unchanged. With several named arguments it returns them as an object.
 - Useful to pass an earlier result to join() verbatim, e.g. echo(${1}).`

// Tool is the echo tool.
type Tool struct{}

func (Tool) Name() string        { return "echo" }
func (Tool) Description() string { return description }

// Invoke implements registry.Tool.
func (Tool) Invoke(ctx context.Context, args registry.Args) (cty.Value, error) {
	logger := ctxlog.FromContext(ctx)

	if len(args) == 0 {
		logger.Info("Echoing nothing.")
		return cty.NullVal(cty.DynamicPseudoType), nil
	}

	// Sort keys for consistent output
	keys := slices.Sorted(maps.Keys(args))
	for _, k := range keys {
		logger.Info("Echoing argument.", "name", k, "value", ctyconv.Render(args[k]))
	}

	if len(args) == 1 {
		return args[keys[0]], nil
	}
	return cty.ObjectVal(args), nil
}

// Register registers the tool with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTool("echo", &registry.RegisteredTool{
		Description: description,
		New: func(context.Context, registry.Deps, registry.Args) (registry.Tool, error) {
			return Tool{}, nil
		},
	})
}
