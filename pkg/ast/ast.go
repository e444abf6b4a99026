// Package ast defines the closed node families for expressizons,
// table expressions and statements (spec §4.4/§4.5). Node variants are
// fixed; new behavior is added via type switches in pkg/eval and
// pkg/exec rather than open subtyping (see spec §9 "Polymorphism").
// Grounded on the teacher's pkg/parser/ast.go (BaseNode/Node/Expression/
// Statement interface shape, concrete node structs) regeneralized to
// EssaDB's closed node set.
package ast

import (
	"fmt"
	"strings"

	"github.com/essadb/essadb/pkg/value"
)

// Node is the capability shared by every AST node: its textual form
// (spec §4.4).
type Node interface {
	String() string
}

// Expression is the capability set from spec §4.5: evaluation lives in
// pkg/eval, but every expression node can describe itself, report
// which columns it reads, and say whether it contains an aggregate
// (needed to decide whether a SELECT must group, spec §4.6 step 6).
type Expression interface {
	Node
	ReferencedColumns() []ColumnRef
	ContainsAggregate() bool
}

// ColumnRef names a column an expression depends on, optionally
// qualified by a table name/alias (spec §4.5 identifier resolution).
type ColumnRef struct {
	Table string
	Name  string
}

// --- Literal ---

type Literal struct {
	Value value.Value
}

func (l *Literal) String() string                  { return l.Value.DebugString() }
func (l *Literal) ReferencedColumns() []ColumnRef   { return nil }
func (l *Literal) ContainsAggregate() bool          { return false }

// --- Identifier ---

type Identifier struct {
	Table string // optional qualifier, "" if unqualified
	Name  string
}

func (i *Identifier) String() string {
	if i.Table != "" {
		return i.Table + "." + i.Name
	}
	return i.Name
}
func (i *Identifier) ReferencedColumns() []ColumnRef { return []ColumnRef{{Table: i.Table, Name: i.Name}} }
func (i *Identifier) ContainsAggregate() bool        { return false }

// --- IndexExpression: injected for SELECT * expansion (spec §4.5) ---

type IndexExpression struct {
	Position int
	Label    string
}

func (e *IndexExpression) String() string                { return e.Label }
func (e *IndexExpression) ReferencedColumns() []ColumnRef { return nil }
func (e *IndexExpression) ContainsAggregate() bool        { return false }

// --- BinaryOp: comparison and boolean connectives ---

type BinaryOperator string

const (
	OpEq      BinaryOperator = "="
	OpNotEq   BinaryOperator = "!="
	OpLt      BinaryOperator = "<"
	OpGt      BinaryOperator = ">"
	OpLtEq    BinaryOperator = "<="
	OpGtEq    BinaryOperator = ">="
	OpAnd     BinaryOperator = "AND"
	OpOr      BinaryOperator = "OR"
	OpLike    BinaryOperator = "LIKE"
	OpMatch   BinaryOperator = "MATCH"
)

type BinaryOp struct {
	LHS, RHS Expression
	Op       BinaryOperator
}

func (b *BinaryOp) String() string {
	return fmt.Sprintf("(%s %s %s)", b.LHS.String(), b.Op, b.RHS.String())
}
func (b *BinaryOp) ReferencedColumns() []ColumnRef {
	return append(b.LHS.ReferencedColumns(), b.RHS.ReferencedColumns()...)
}
func (b *BinaryOp) ContainsAggregate() bool {
	return b.LHS.ContainsAggregate() || b.RHS.ContainsAggregate()
}

// --- ArithmeticOp: + - * / ---

type ArithmeticOperator string

const (
	ArithAdd ArithmeticOperator = "+"
	ArithSub ArithmeticOperator = "-"
	ArithMul ArithmeticOperator = "*"
	ArithDiv ArithmeticOperator = "/"
)

type ArithmeticOp struct {
	LHS, RHS Expression
	Op       ArithmeticOperator
}

func (a *ArithmeticOp) String() string {
	return fmt.Sprintf("(%s %s %s)", a.LHS.String(), a.Op, a.RHS.String())
}
func (a *ArithmeticOp) ReferencedColumns() []ColumnRef {
	return append(a.LHS.ReferencedColumns(), a.RHS.ReferencedColumns()...)
}
func (a *ArithmeticOp) ContainsAggregate() bool {
	return a.LHS.ContainsAggregate() || a.RHS.ContainsAggregate()
}

// --- UnaryOp: unary minus ---

type UnaryOp struct {
	Operand Expression
}

func (u *UnaryOp) String() string                  { return "-" + u.Operand.String() }
func (u *UnaryOp) ReferencedColumns() []ColumnRef   { return u.Operand.ReferencedColumns() }
func (u *UnaryOp) ContainsAggregate() bool          { return u.Operand.ContainsAggregate() }

// --- Between ---

type Between struct {
	LHS, Min, Max Expression
}

func (b *Between) String() string {
	return fmt.Sprintf("%s BETWEEN %s AND %s", b.LHS.String(), b.Min.String(), b.Max.String())
}
func (b *Between) ReferencedColumns() []ColumnRef {
	cols := b.LHS.ReferencedColumns()
	cols = append(cols, b.Min.ReferencedColumns()...)
	return append(cols, b.Max.ReferencedColumns()...)
}
func (b *Between) ContainsAggregate() bool {
	return b.LHS.ContainsAggregate() || b.Min.ContainsAggregate() || b.Max.ContainsAggregate()
}

// --- In ---

type In struct {
	LHS  Expression
	Args []Expression
	Not  bool
}

func (in *In) String() string {
	parts := make([]string, len(in.Args))
	for i, a := range in.Args {
		parts[i] = a.String()
	}
	not := ""
	if in.Not {
		not = "NOT "
	}
	return fmt.Sprintf("%s %sIN (%s)", in.LHS.String(), not, strings.Join(parts, ", "))
}
func (in *In) ReferencedColumns() []ColumnRef {
	cols := in.LHS.ReferencedColumns()
	for _, a := range in.Args {
		cols = append(cols, a.ReferencedColumns()...)
	}
	return cols
}
func (in *In) ContainsAggregate() bool {
	if in.LHS.ContainsAggregate() {
		return true
	}
	for _, a := range in.Args {
		if a.ContainsAggregate() {
			return true
		}
	}
	return false
}

// --- Is: IS NULL / IS NOT NULL ---

type IsKind int

const (
	IsNull IsKind = iota
	IsNotNull
)

type Is struct {
	LHS  Expression
	Kind IsKind
}

func (i *Is) String() string {
	if i.Kind == IsNull {
		return i.LHS.String() + " IS NULL"
	}
	return i.LHS.String() + " IS NOT NULL"
}
func (i *Is) ReferencedColumns() []ColumnRef { return i.LHS.ReferencedColumns() }
func (i *Is) ContainsAggregate() bool        { return i.LHS.ContainsAggregate() }

// --- Case ---

type WhenClause struct {
	When Expression
	Then Expression
}

type Case struct {
	Whens []WhenClause
	Else  Expression // nil if absent
}

func (c *Case) String() string {
	var sb strings.Builder
	sb.WriteString("CASE")
	for _, w := range c.Whens {
		fmt.Fprintf(&sb, " WHEN %s THEN %s", w.When.String(), w.Then.String())
	}
	if c.Else != nil {
		fmt.Fprintf(&sb, " ELSE %s", c.Else.String())
	}
	sb.WriteString(" END")
	return sb.String()
}
func (c *Case) ReferencedColumns() []ColumnRef {
	var cols []ColumnRef
	for _, w := range c.Whens {
		cols = append(cols, w.When.ReferencedColumns()...)
		cols = append(cols, w.Then.ReferencedColumns()...)
	}
	if c.Else != nil {
		cols = append(cols, c.Else.ReferencedColumns()...)
	}
	return cols
}
func (c *Case) ContainsAggregate() bool {
	for _, w := range c.Whens {
		if w.When.ContainsAggregate() || w.Then.ContainsAggregate() {
			return true
		}
	}
	return c.Else != nil && c.Else.ContainsAggregate()
}

// --- Function: scalar SQL function call (spec §4.5.1) ---

type Function struct {
	Name string
	Args []Expression
}

func (f *Function) String() string {
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", f.Name, strings.Join(parts, ", "))
}
func (f *Function) ReferencedColumns() []ColumnRef {
	var cols []ColumnRef
	for _, a := range f.Args {
		cols = append(cols, a.ReferencedColumns()...)
	}
	return cols
}
func (f *Function) ContainsAggregate() bool {
	for _, a := range f.Args {
		if a.ContainsAggregate() {
			return true
		}
	}
	return false
}

// --- Aggregate ---

type AggregateKind string

const (
	AggCount AggregateKind = "COUNT"
	AggSum   AggregateKind = "SUM"
	AggMin   AggregateKind = "MIN"
	AggMax   AggregateKind = "MAX"
	AggAvg   AggregateKind = "AVG"
)

type Aggregate struct {
	Kind AggregateKind
	Expr Expression
}

func (a *Aggregate) String() string                  { return fmt.Sprintf("%s(%s)", a.Kind, a.Expr.String()) }
func (a *Aggregate) ReferencedColumns() []ColumnRef   { return a.Expr.ReferencedColumns() }
func (a *Aggregate) ContainsAggregate() bool          { return true }

// --- ScalarSelect: sub-select used as an expression (spec §4.5) ---

type ScalarSelect struct {
	Select *Select
}

func (s *ScalarSelect) String() string                  { return "(" + s.Select.String() + ")" }
func (s *ScalarSelect) ReferencedColumns() []ColumnRef   { return nil }
func (s *ScalarSelect) ContainsAggregate() bool          { return false }
