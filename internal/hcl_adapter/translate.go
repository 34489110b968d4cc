package hcl_adapter

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/burstplan/internal/config"
	"github.com/specialistvlad/burstplan/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// newEvalContext returns the functions available inside configuration files.
func newEvalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"env":        envFunc,
			"upper":      stdlib.UpperFunc,
			"lower":      stdlib.LowerFunc,
			"trimspace":  stdlib.TrimSpaceFunc,
			"format":     stdlib.FormatFunc,
			"join":       stdlib.JoinFunc,
			"concat":     stdlib.ConcatFunc,
			"min":        stdlib.MinFunc,
			"max":        stdlib.MaxFunc,
			"jsonencode": stdlib.JSONEncodeFunc,
			"jsondecode": stdlib.JSONDecodeFunc,
		},
	}
}

// envFunc reads a process environment variable; unset variables are "".
var envFunc = function.New(&function.Spec{
	Params: []function.Parameter{{Name: "name", Type: cty.String}},
	Type:   function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		return cty.StringVal(os.Getenv(args[0].AsString())), nil
	},
})

func applyEngine(dst *config.Engine, b *EngineBlock) {
	if b.MaxRounds != nil {
		dst.MaxRounds = *b.MaxRounds
	}
	if b.Workers != nil {
		dst.Workers = *b.Workers
	}
	if b.TextOnly != nil {
		dst.TextOnly = *b.TextOnly
	}
}

func applyBackend(dst *config.Backend, b *BackendBlock) error {
	if b.Backend != nil {
		dst.Provider = *b.Backend
	}
	if b.Model != nil {
		dst.Model = *b.Model
	}
	if b.BaseURL != nil {
		dst.BaseURL = *b.BaseURL
	}
	if b.Temperature != nil {
		dst.Temperature = *b.Temperature
	}
	if b.MaxTokens != nil {
		dst.MaxTokens = *b.MaxTokens
	}
	if b.Timeout != nil {
		d, err := time.ParseDuration(*b.Timeout)
		if err != nil {
			return fmt.Errorf("%s: invalid timeout %q: %w", b.DefRange, *b.Timeout, err)
		}
		dst.Timeout = d
	}
	return nil
}

// translateTool evaluates every attribute of a tool block.
func translateTool(ctx context.Context, evalCtx *hcl.EvalContext, b *ToolBlock) (config.Tool, error) {
	attrs, diags := b.Body.JustAttributes()
	if diags.HasErrors() {
		return config.Tool{}, fmt.Errorf("tool %q: %w", b.Name, diags)
	}

	tool := config.Tool{Name: b.Name, Attrs: make(map[string]cty.Value, len(attrs))}
	for name, attr := range attrs {
		v, diags := attr.Expr.Value(evalCtx)
		if diags.HasErrors() {
			return config.Tool{}, fmt.Errorf("tool %q attribute %q: %w", b.Name, name, diags)
		}
		tool.Attrs[name] = v
	}
	ctxlog.FromContext(ctx).Debug("Translated tool block.", "tool", b.Name, "attributes", len(tool.Attrs), "range", b.DefRange.String())
	return tool, nil
}
