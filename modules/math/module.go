// Package math provides a tool that solves arithmetic and word problems.
//
// Plain expressions such as "83 - 60" are evaluated directly. When a language
// model is configured, the problem (and any context) is first translated into
// a single expression by the model, so word problems work too.
package math

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/burstplan/internal/ctxlog"
	"github.com/specialistvlad/burstplan/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Tool is the math tool.
type Tool struct {
	completer registry.Completer
	translate bool
}

func (t *Tool) Name() string        { return "math" }
func (t *Tool) Description() string { return description }

// New builds the tool. The translate setting (default true) turns model
// translation off even when a completer is available.
func New(_ context.Context, deps registry.Deps, settings registry.Args) (registry.Tool, error) {
	translate, err := settings.Bool(true, "translate")
	if err != nil {
		return nil, err
	}
	return &Tool{completer: deps.Completer, translate: translate && deps.Completer != nil}, nil
}

// Invoke implements registry.Tool.
func (t *Tool) Invoke(ctx context.Context, args registry.Args) (cty.Value, error) {
	problem, err := args.String("problem", "arg0")
	if err != nil {
		return cty.NilVal, err
	}
	var hints []string
	if _, _, ok := args.Lookup("context", "arg1"); ok {
		hints = args.Strings("context", "arg1")
	}

	logger := ctxlog.FromContext(ctx)
	expression := problem
	if t.translate {
		expression, err = t.toExpression(ctx, problem, hints)
		if err != nil {
			return cty.NilVal, err
		}
		logger.Debug("Problem translated.", "problem", problem, "expression", expression)
	} else if len(hints) > 0 {
		logger.Warn("Ignoring math context without a language model.", "items", len(hints))
	}

	v, err := Evaluate(expression)
	if err != nil {
		return cty.NilVal, err
	}
	logger.Info("Expression evaluated.", "expression", expression)
	return v, nil
}

func (t *Tool) toExpression(ctx context.Context, problem string, hints []string) (string, error) {
	user := "Question: " + problem
	if joined := strings.TrimSpace(strings.Join(hints, "\n")); joined != "" {
		user += "\n\n" + fmt.Sprintf(contextPrompt, joined)
	}
	out, err := t.completer.Complete(ctx, systemPrompt, user)
	if err != nil {
		return "", fmt.Errorf("failed to translate problem: %w", err)
	}
	return extractExpression(out), nil
}

// extractExpression takes the first expression line of a model reply,
// looking inside a code fence when there is one.
func extractExpression(reply string) string {
	lines := strings.Split(strings.TrimSpace(reply), "\n")
	inFence := false
	var first string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "```") {
			if inFence {
				break
			}
			inFence = true
			first = ""
			continue
		}
		if line == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(line), "expression:") {
			return strings.TrimSpace(line[len("expression:"):])
		}
		if first == "" {
			first = line
			if inFence {
				break
			}
		}
	}
	return first
}

// Register registers the tool with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTool("math", &registry.RegisteredTool{
		Description: description,
		New:         New,
	})
}
