package math

import (
	"fmt"
	stdmath "math"
	"math/big"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

var evalCtx = &hcl.EvalContext{
	Variables: map[string]cty.Value{
		"pi": cty.NumberFloatVal(stdmath.Pi),
		"e":  cty.NumberFloatVal(stdmath.E),
	},
	Functions: map[string]function.Function{
		"abs":    stdlib.AbsoluteFunc,
		"ceil":   stdlib.CeilFunc,
		"floor":  stdlib.FloorFunc,
		"log":    stdlib.LogFunc,
		"max":    stdlib.MaxFunc,
		"min":    stdlib.MinFunc,
		"pow":    stdlib.PowFunc,
		"signum": stdlib.SignumFunc,
		"sqrt":   sqrtFunc,
		"round":  roundFunc,
	},
}

var sqrtFunc = function.New(&function.Spec{
	Params: []function.Parameter{{Name: "num", Type: cty.Number}},
	Type:   function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		n := args[0].AsBigFloat()
		if n.Sign() < 0 {
			return cty.NilVal, function.NewArgErrorf(0, "cannot take the square root of a negative number")
		}
		return cty.NumberVal(new(big.Float).Sqrt(n)), nil
	},
})

var roundFunc = function.New(&function.Spec{
	Params: []function.Parameter{{Name: "num", Type: cty.Number}},
	Type:   function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		f, _ := args[0].AsBigFloat().Float64()
		return cty.NumberFloatVal(stdmath.Round(f)), nil
	},
})

// Evaluate computes a single arithmetic expression. Operators are + - * / %
// and parentheses; pi, e and the functions abs, ceil, floor, log, max, min,
// pow, round, signum and sqrt are available.
func Evaluate(expression string) (_ cty.Value, err error) {
	src := strings.TrimSpace(expression)
	if src == "" {
		return cty.NilVal, fmt.Errorf("empty expression")
	}
	expr, diags := hclsyntax.ParseExpression([]byte(src), "expression", hcl.InitialPos)
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("failed to evaluate %q: %s. Please try again with a valid numerical expression", src, diags.Error())
	}
	if diags := hclsyntax.VisitAll(expr, rejectZeroModulo); diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("failed to evaluate %q: %s", src, diags.Error())
	}
	defer func() {
		// big.Float panics on Inf-Inf and 0*Inf.
		if r := recover(); r != nil {
			if _, ok := r.(big.ErrNaN); !ok {
				panic(r)
			}
			err = fmt.Errorf("expression %q has no finite value", src)
		}
	}()
	v, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("failed to evaluate %q: %s. Please try again with a valid numerical expression", src, diags.Error())
	}
	if v.IsNull() || !v.IsKnown() {
		return cty.NilVal, fmt.Errorf("expression %q has no value", src)
	}
	n, err := convert.Convert(v, cty.Number)
	if err != nil {
		return cty.NilVal, fmt.Errorf("expression %q is not numeric: %w", src, err)
	}
	if n.AsBigFloat().IsInf() {
		return cty.NilVal, fmt.Errorf("expression %q has no finite value", src)
	}
	return n, nil
}

// rejectZeroModulo fails on "x % 0", which cty evaluates to x.
func rejectZeroModulo(node hclsyntax.Node) hcl.Diagnostics {
	bin, ok := node.(*hclsyntax.BinaryOpExpr)
	if !ok || bin.Op != hclsyntax.OpModulo {
		return nil
	}
	rhs, diags := bin.RHS.Value(evalCtx)
	if diags.HasErrors() || rhs.IsNull() || !rhs.IsKnown() {
		return nil
	}
	n, err := convert.Convert(rhs, cty.Number)
	if err != nil || n.IsNull() || n.AsBigFloat().Sign() != 0 {
		return nil
	}
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Modulo by zero",
		Detail:   "The right-hand side of % must not be zero.",
		Subject:  bin.RHS.Range().Ptr(),
	}}
}
