package eval

import (
	"fmt"

	"github.com/essadb/essadb/pkg/ast"
	"github.com/essadb/essadb/pkg/value"
)

// Eval evaluates an expression against the top frame of ctx (spec
// §4.5/§4.6). Aggregate nodes require the top frame to carry a
// Group; pkg/exec attaches one to every projection frame (an ungrouped
// row gets a one-row group), and evaluating an aggregate in a frame
// without one, such as a WHERE row, is an error.
func Eval(e ast.Expression, ctx *Context) (value.Value, error) {
	switch n := e.(type) {
	case *ast.Literal:
		return n.Value, nil

	case *ast.Identifier:
		return ctx.ResolveIdentifier(n.Table, n.Name)

	case *ast.IndexExpression:
		return ctx.Top().Row.Value(n.Position), nil

	case *ast.BinaryOp:
		return evalBinaryOp(n, ctx)

	case *ast.ArithmeticOp:
		l, err := Eval(n.LHS, ctx)
		if err != nil {
			return value.Value{}, err
		}
		r, err := Eval(n.RHS, ctx)
		if err != nil {
			return value.Value{}, err
		}
		switch n.Op {
		case ast.ArithAdd:
			return value.Add(l, r)
		case ast.ArithSub:
			return value.Sub(l, r)
		case ast.ArithMul:
			return value.Mul(l, r)
		case ast.ArithDiv:
			return value.Div(l, r)
		}
		return value.Value{}, fmt.Errorf("unknown arithmetic operator %q", n.Op)

	case *ast.UnaryOp:
		v, err := Eval(n.Operand, ctx)
		if err != nil {
			return value.Value{}, err
		}
		return value.Neg(v)

	case *ast.Between:
		lhs, err := Eval(n.LHS, ctx)
		if err != nil {
			return value.Value{}, err
		}
		min, err := Eval(n.Min, ctx)
		if err != nil {
			return value.Value{}, err
		}
		max, err := Eval(n.Max, ctx)
		if err != nil {
			return value.Value{}, err
		}
		ge, err := value.GreaterOrEqual(lhs, min)
		if err != nil {
			return value.Value{}, err
		}
		le, err := value.LessOrEqual(lhs, max)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewBool(ge && le), nil

	case *ast.In:
		lhs, err := Eval(n.LHS, ctx)
		if err != nil {
			return value.Value{}, err
		}
		found := false
		for _, a := range n.Args {
			v, err := Eval(a, ctx)
			if err != nil {
				return value.Value{}, err
			}
			eq, err := value.Equal(lhs, v)
			if err != nil {
				return value.Value{}, err
			}
			if eq {
				found = true
				break
			}
		}
		if n.Not {
			found = !found
		}
		return value.NewBool(found), nil

	case *ast.Is:
		lhs, err := Eval(n.LHS, ctx)
		if err != nil {
			return value.Value{}, err
		}
		if n.Kind == ast.IsNull {
			return value.NewBool(lhs.IsNull()), nil
		}
		return value.NewBool(!lhs.IsNull()), nil

	case *ast.Case:
		for _, w := range n.Whens {
			cond, err := Eval(w.When, ctx)
			if err != nil {
				return value.Value{}, err
			}
			b, err := cond.ToBool()
			if err != nil {
				return value.Value{}, err
			}
			if b {
				return Eval(w.Then, ctx)
			}
		}
		if n.Else != nil {
			return Eval(n.Else, ctx)
		}
		return value.NewNull(), nil

	case *ast.Function:
		return evalFunction(n, ctx)

	case *ast.Aggregate:
		return evalAggregate(n, ctx)

	case *ast.ScalarSelect:
		return evalScalarSelect(n, ctx)
	}
	return value.Value{}, fmt.Errorf("unhandled expression node %T", e)
}

func evalBinaryOp(n *ast.BinaryOp, ctx *Context) (value.Value, error) {
	switch n.Op {
	case ast.OpAnd:
		l, err := Eval(n.LHS, ctx)
		if err != nil {
			return value.Value{}, err
		}
		lb, err := l.ToBool()
		if err != nil {
			return value.Value{}, err
		}
		if !lb {
			return value.NewBool(false), nil
		}
		r, err := Eval(n.RHS, ctx)
		if err != nil {
			return value.Value{}, err
		}
		rb, err := r.ToBool()
		return value.NewBool(rb), err

	case ast.OpOr:
		l, err := Eval(n.LHS, ctx)
		if err != nil {
			return value.Value{}, err
		}
		lb, err := l.ToBool()
		if err != nil {
			return value.Value{}, err
		}
		if lb {
			return value.NewBool(true), nil
		}
		r, err := Eval(n.RHS, ctx)
		if err != nil {
			return value.Value{}, err
		}
		rb, err := r.ToBool()
		return value.NewBool(rb), err

	case "NOT":
		l, err := Eval(n.LHS, ctx)
		if err != nil {
			return value.Value{}, err
		}
		b, err := l.ToBool()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewBool(!b), nil
	}

	l, err := Eval(n.LHS, ctx)
	if err != nil {
		return value.Value{}, err
	}
	r, err := Eval(n.RHS, ctx)
	if err != nil {
		return value.Value{}, err
	}

	switch n.Op {
	case ast.OpEq:
		b, err := value.Equal(l, r)
		return value.NewBool(b), err
	case ast.OpNotEq:
		b, err := value.NotEqual(l, r)
		return value.NewBool(b), err
	case ast.OpLt:
		b, err := value.Less(l, r)
		return value.NewBool(b), err
	case ast.OpGt:
		b, err := value.Greater(l, r)
		return value.NewBool(b), err
	case ast.OpLtEq:
		b, err := value.LessOrEqual(l, r)
		return value.NewBool(b), err
	case ast.OpGtEq:
		b, err := value.GreaterOrEqual(l, r)
		return value.NewBool(b), err
	case ast.OpLike:
		b, err := likeMatch(l.ToString(), r.ToString())
		return value.NewBool(b), err
	case ast.OpMatch:
		b, err := regexMatch(l.ToString(), r.ToString())
		return value.NewBool(b), err
	}
	return value.Value{}, fmt.Errorf("unknown binary operator %q", n.Op)
}
