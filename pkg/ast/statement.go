package ast

import (
	"strings"

	"github.com/essadb/essadb/pkg/value"
)

// Statement is the capability set shared by every top-level statement
// (spec §4.4 grammar). Grounded on the teacher's Statement/statementNode
// shape in pkg/parser/ast.go, regeneralized to §4.8's DDL/DML set.
type Statement interface {
	Node
	statementNode()
}

// SelectColumn is one projected expression, with an optional alias
// (spec §4.4 `column := expr [AS id]`).
type SelectColumn struct {
	Expr  Expression
	Alias string // "" if none
}

// Name returns the column's display name: its alias if given, else
// its textual form (spec §4.6 step 12).
func (c SelectColumn) Name() string {
	if c.Alias != "" {
		return c.Alias
	}
	return c.Expr.String()
}

// GroupKind distinguishes GROUP BY from PARTITION BY, which the spec
// freezes as disabling grouping (§9 Open Question).
type GroupKind int

const (
	NoGroup GroupKind = iota
	GroupBy
	PartitionBy
)

type OrderColumn struct {
	Expr Expression
	Desc bool
}

// Select is the AST for a SELECT statement (spec §4.4).
type Select struct {
	Distinct bool
	Top      *TopClause
	Columns  []SelectColumn
	Star     bool // true when the projection is bare `*`
	From     TableExpression
	Where    Expression
	GroupKind GroupKind
	GroupBy  []string // column names
	Having   Expression
	OrderBy  []OrderColumn
	Into     string // "" if no INTO clause
}

func (s *Select) statementNode() {}
func (s *Select) String() string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if s.Distinct {
		sb.WriteString("DISTINCT ")
	}
	if s.Star {
		sb.WriteString("*")
	} else {
		parts := make([]string, len(s.Columns))
		for i, c := range s.Columns {
			parts[i] = c.Expr.String()
			if c.Alias != "" {
				parts[i] += " AS " + c.Alias
			}
		}
		sb.WriteString(strings.Join(parts, ", "))
	}
	if s.From != nil {
		sb.WriteString(" FROM ")
		sb.WriteString(s.From.String())
	}
	if s.Where != nil {
		sb.WriteString(" WHERE ")
		sb.WriteString(s.Where.String())
	}
	return sb.String()
}

type TopClause struct {
	Count   int
	Percent bool
}

// --- DDL/DML statements (spec §4.8) ---

type ColumnDef struct {
	Name          string
	Type          value.Type
	NotNull       bool
	Unique        bool
	AutoIncrement bool
	HasDefault    bool
	Default       Expression
	PrimaryKey    bool
	References    *ColumnRef // table(col)
}

type NamedCheck struct {
	Name string // "" if unnamed
	Expr Expression
}

type Engine int

const (
	EngineMemory Engine = iota
	EngineEDB
)

type CreateTable struct {
	Table   string
	Columns []ColumnDef
	Checks  []NamedCheck
	Engine  Engine
}

func (c *CreateTable) statementNode() {}
func (c *CreateTable) String() string { return "CREATE TABLE " + c.Table }

type DropTable struct {
	Table string
}

func (d *DropTable) statementNode() {}
func (d *DropTable) String() string { return "DROP TABLE " + d.Table }

type TruncateTable struct {
	Table string
}

func (t *TruncateTable) statementNode() {}
func (t *TruncateTable) String() string { return "TRUNCATE TABLE " + t.Table }

// AlterAction is one clause of an ALTER TABLE statement.
type AlterAction interface {
	Node
	alterActionNode()
}

type AddColumn struct{ Column ColumnDef }

func (a *AddColumn) alterActionNode() {}
func (a *AddColumn) String() string   { return "ADD COLUMN " + a.Column.Name }

type AlterColumnType struct {
	Name   string
	Column ColumnDef
}

func (a *AlterColumnType) alterActionNode() {}
func (a *AlterColumnType) String() string   { return "ALTER COLUMN " + a.Name }

type DropColumn struct{ Name string }

func (d *DropColumn) alterActionNode() {}
func (d *DropColumn) String() string   { return "DROP COLUMN " + d.Name }

type AlterTable struct {
	Table  string
	Action AlterAction
}

func (a *AlterTable) statementNode() {}
func (a *AlterTable) String() string { return "ALTER TABLE " + a.Table }

type Insert struct {
	Table   string
	Columns []string // empty means positional
	Rows    [][]Expression
	Select  *Select // non-nil for INSERT ... SELECT
}

func (i *Insert) statementNode() {}
func (i *Insert) String() string { return "INSERT INTO " + i.Table }

type Assignment struct {
	Column string
	Value  Expression
}

type Update struct {
	Table string
	Set   []Assignment
	Where Expression
}

func (u *Update) statementNode() {}
func (u *Update) String() string { return "UPDATE " + u.Table }

type Delete struct {
	Table string
	Where Expression
}

func (d *Delete) statementNode() {}
func (d *Delete) String() string { return "DELETE FROM " + d.Table }

type Import struct {
	Table      string
	CSVPath    string
	HintsPath  string // "" if no schema hint document
}

func (i *Import) statementNode() {}
func (i *Import) String() string { return "IMPORT " + i.Table }

type Show struct {
	Tables bool
}

func (s *Show) statementNode() {}
func (s *Show) String() string { return "SHOW TABLES" }

type Union struct {
	Left  Statement
	Right Statement
	All   bool
}

func (u *Union) statementNode() {}
func (u *Union) String() string {
	if u.All {
		return "UNION ALL"
	}
	return "UNION"
}
