package eval

import (
	"testing"

	"github.com/essadb/essadb/pkg/ast"
	"github.com/essadb/essadb/pkg/value"
)

func evalIn(t *testing.T, e ast.Expression, labels []ColumnLabel, row value.Tuple) value.Value {
	t.Helper()
	ctx := NewContext()
	ctx.Push(&Frame{Kind: FromTable, Labels: labels, Row: row})
	v, err := Eval(e, ctx)
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	return v
}

func TestEvalIdentifierResolution(t *testing.T) {
	labels := []ColumnLabel{{Table: "t", Name: "a"}, {Table: "t", Name: "b"}}
	row := value.NewTuple(value.NewInt(1), value.NewInt(2))

	v := evalIn(t, &ast.Identifier{Name: "b"}, labels, row)
	n, _ := v.ToInt()
	if n != 2 {
		t.Fatalf("expected b=2, got %d", n)
	}

	v = evalIn(t, &ast.Identifier{Table: "t", Name: "a"}, labels, row)
	n, _ = v.ToInt()
	if n != 1 {
		t.Fatalf("expected t.a=1, got %d", n)
	}
}

func TestEvalArithmeticAndComparison(t *testing.T) {
	e := &ast.BinaryOp{
		LHS: &ast.ArithmeticOp{LHS: &ast.Literal{Value: value.NewInt(1)}, Op: ast.ArithAdd, RHS: &ast.Literal{Value: value.NewInt(2)}},
		Op:  ast.OpEq,
		RHS: &ast.Literal{Value: value.NewInt(3)},
	}
	v := evalIn(t, e, nil, value.NewTuple())
	b, _ := v.ToBool()
	if !b {
		t.Fatal("expected (1 + 2) = 3 to be true")
	}
}

func TestEvalAndShortCircuitsOnFalse(t *testing.T) {
	// false AND <anything> should short-circuit without evaluating the
	// right-hand side (which here would divide by zero).
	e := &ast.BinaryOp{
		LHS: &ast.Literal{Value: value.NewBool(false)},
		Op:  ast.OpAnd,
		RHS: &ast.ArithmeticOp{LHS: &ast.Literal{Value: value.NewInt(1)}, Op: ast.ArithDiv, RHS: &ast.Literal{Value: value.NewInt(0)}},
	}
	v := evalIn(t, e, nil, value.NewTuple())
	b, _ := v.ToBool()
	if b {
		t.Fatal("expected false")
	}
}

func TestEvalLikePattern(t *testing.T) {
	ok, err := likeMatch("hello123", "hell*")
	if err != nil || !ok {
		t.Fatalf("expected match, got %v %v", ok, err)
	}
	ok, err = likeMatch("hello123", "hell[0-9]123")
	if err != nil || ok {
		t.Fatalf("expected no match (class expects a digit where 'o' is), got %v %v", ok, err)
	}
	ok, _ = likeMatch("a1b", "a#b")
	if !ok {
		t.Fatal("expected a#b to match a1b")
	}
}

func TestEvalFunctionConcatAndLen(t *testing.T) {
	e := &ast.Function{Name: "CONCAT", Args: []ast.Expression{
		&ast.Literal{Value: value.NewVarchar("foo")},
		&ast.Literal{Value: value.NewVarchar("bar")},
	}}
	v := evalIn(t, e, nil, value.NewTuple())
	if v.ToString() != "foobar" {
		t.Fatalf("expected 'foobar', got %q", v.ToString())
	}

	e2 := &ast.Function{Name: "LEN", Args: []ast.Expression{&ast.Literal{Value: value.NewVarchar("hello")}}}
	v2 := evalIn(t, e2, nil, value.NewTuple())
	n, _ := v2.ToInt()
	if n != 5 {
		t.Fatalf("expected LEN=5, got %d", n)
	}
}

func TestEvalAggregateSum(t *testing.T) {
	labels := []ColumnLabel{{Name: "x"}}
	group := []value.Tuple{
		value.NewTuple(value.NewInt(1)),
		value.NewTuple(value.NewInt(2)),
		value.NewTuple(value.NewInt(3)),
	}
	ctx := NewContext()
	ctx.Push(&Frame{Kind: FromTable, Labels: labels, Group: group})
	v, err := Eval(&ast.Aggregate{Kind: ast.AggSum, Expr: &ast.Identifier{Name: "x"}}, ctx)
	if err != nil {
		t.Fatal(err)
	}
	n, _ := v.ToInt()
	if n != 6 {
		t.Fatalf("expected sum=6, got %d", n)
	}
}
