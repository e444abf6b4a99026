package ast

import "fmt"

// TableExpression is the FROM-clause capability set (spec §4.4):
// table reference, join, cross join, or sub-select.
type TableExpression interface {
	Node
	// Alias returns the name this table expression is addressable by
	// for qualified identifiers ("t.c"), per spec §4.5 resolution rule 3.
	Alias() string
}

// TableRef names a table (optionally aliased): `FROM t` or `FROM t AS a`.
type TableRef struct {
	TableName string
	As        string
}

func (t *TableRef) String() string {
	if t.As != "" {
		return t.TableName + " AS " + t.As
	}
	return t.TableName
}
func (t *TableRef) Alias() string {
	if t.As != "" {
		return t.As
	}
	return t.TableName
}

// JoinKind enumerates the join types from spec §4.6.
type JoinKind string

const (
	InnerJoin JoinKind = "INNER"
	LeftJoin  JoinKind = "LEFT"
	RightJoin JoinKind = "RIGHT"
	OuterJoin JoinKind = "OUTER"
)

// Join is `lhs <kind> JOIN rhs ON lid = rid`.
type Join struct {
	Kind     JoinKind
	Left     TableExpression
	Right    TableExpression
	LeftCol  string
	RightCol string
}

func (j *Join) String() string {
	return fmt.Sprintf("%s %s JOIN %s ON %s = %s", j.Left.String(), j.Kind, j.Right.String(), j.LeftCol, j.RightCol)
}
func (j *Join) Alias() string { return j.Left.Alias() }

// CrossJoin is `lhs, rhs` — the Cartesian product (spec §4.4).
type CrossJoin struct {
	Left, Right TableExpression
}

func (c *CrossJoin) String() string { return c.Left.String() + ", " + c.Right.String() }
func (c *CrossJoin) Alias() string  { return c.Left.Alias() }

// SubSelect is `(SELECT ...) AS alias` used as a FROM source.
type SubSelect struct {
	Select *Select
	As     string
}

func (s *SubSelect) String() string { return "(" + s.Select.String() + ") AS " + s.As }
func (s *SubSelect) Alias() string  { return s.As }
