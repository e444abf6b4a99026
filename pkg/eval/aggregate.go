package eval

import (
	"fmt"

	"github.com/essadb/essadb/pkg/ast"
	"github.com/essadb/essadb/pkg/value"
)

// evalAggregate reduces n.Expr over the current frame's row-group
// (spec §4.6 aggregate evaluation). pkg/exec is responsible for
// attaching a Group to the top frame before evaluating any expression
// that ast.Expression.ContainsAggregate() reports true for.
func evalAggregate(n *ast.Aggregate, ctx *Context) (value.Value, error) {
	top := ctx.Top()
	if top.Group == nil {
		return value.Value{}, fmt.Errorf("aggregate %s used outside of a grouped context", n.Kind)
	}

	rowCtx := ctx.Child()
	groupFrame := &Frame{Kind: top.Kind, Labels: top.Labels}
	rowCtx.Push(groupFrame)
	defer rowCtx.Pop()

	switch n.Kind {
	case ast.AggCount:
		count := int32(0)
		for _, row := range top.Group {
			groupFrame.Row = row
			v, err := Eval(n.Expr, rowCtx)
			if err != nil {
				return value.Value{}, err
			}
			if !v.IsNull() {
				count++
			}
		}
		return value.NewInt(count), nil

	case ast.AggSum:
		sum := value.NewInt(0)
		any := false
		for _, row := range top.Group {
			groupFrame.Row = row
			v, err := Eval(n.Expr, rowCtx)
			if err != nil {
				return value.Value{}, err
			}
			if v.IsNull() {
				continue
			}
			any = true
			sum, err = value.Add(sum, v)
			if err != nil {
				return value.Value{}, err
			}
		}
		if !any {
			return value.NewNull(), nil
		}
		return sum, nil

	case ast.AggAvg:
		// Matches the original's count++-per-row, Null-to_float()=0
		// semantics: the denominator is every row in the group, not
		// just the ones with a non-null value.
		sum := float32(0)
		count := 0
		for _, row := range top.Group {
			groupFrame.Row = row
			v, err := Eval(n.Expr, rowCtx)
			if err != nil {
				return value.Value{}, err
			}
			count++
			if v.IsNull() {
				continue
			}
			f, err := v.ToFloat()
			if err != nil {
				return value.Value{}, err
			}
			sum += f
		}
		if count == 0 {
			return value.NewNull(), nil
		}
		return value.NewFloat(sum / float32(count)), nil

	case ast.AggMin, ast.AggMax:
		var best value.Value
		any := false
		for _, row := range top.Group {
			groupFrame.Row = row
			v, err := Eval(n.Expr, rowCtx)
			if err != nil {
				return value.Value{}, err
			}
			if v.IsNull() {
				continue
			}
			if !any {
				best = v
				any = true
				continue
			}
			if n.Kind == ast.AggMin {
				lt, err := value.Less(v, best)
				if err != nil {
					return value.Value{}, err
				}
				if lt {
					best = v
				}
			} else {
				gt, err := value.Greater(v, best)
				if err != nil {
					return value.Value{}, err
				}
				if gt {
					best = v
				}
			}
		}
		if !any {
			return value.NewNull(), nil
		}
		return best, nil
	}
	return value.Value{}, fmt.Errorf("unknown aggregate kind %q", n.Kind)
}

func evalScalarSelect(n *ast.ScalarSelect, ctx *Context) (value.Value, error) {
	if ctx.RunScalarSelect == nil {
		return value.Value{}, fmt.Errorf("internal error: no scalar-select runner installed")
	}
	return ctx.RunScalarSelect(n.Select, ctx)
}
