package parser

import (
	"testing"

	"github.com/essadb/essadb/pkg/ast"
)

func mustParse(t *testing.T, sql string) ast.Statement {
	t.Helper()
	stmt, err := ParseStatement(sql)
	if err != nil {
		t.Fatalf("ParseStatement(%q) failed: %v", sql, err)
	}
	return stmt
}

func TestParseSimpleSelect(t *testing.T) {
	stmt := mustParse(t, "SELECT id, name FROM users WHERE id = 1")
	sel, ok := stmt.(*ast.Select)
	if !ok {
		t.Fatalf("expected *ast.Select, got %T", stmt)
	}
	if sel.Star || len(sel.Columns) != 2 {
		t.Fatalf("expected 2 projected columns, got star=%v cols=%d", sel.Star, len(sel.Columns))
	}
	if sel.From == nil || sel.From.Alias() != "users" {
		t.Fatalf("expected FROM users, got %+v", sel.From)
	}
	if sel.Where == nil {
		t.Fatal("expected a WHERE clause")
	}
}

func TestParseSelectStarTopDistinct(t *testing.T) {
	stmt := mustParse(t, "SELECT DISTINCT TOP 10 PERC * FROM t")
	sel := stmt.(*ast.Select)
	if !sel.Distinct || !sel.Star {
		t.Fatalf("expected DISTINCT and *, got %+v", sel)
	}
	if sel.Top == nil || sel.Top.Count != 10 || !sel.Top.Percent {
		t.Fatalf("expected TOP 10 PERC, got %+v", sel.Top)
	}
}

func TestParseJoin(t *testing.T) {
	stmt := mustParse(t, "SELECT a.id FROM a LEFT JOIN b ON a.id = b.a_id")
	sel := stmt.(*ast.Select)
	j, ok := sel.From.(*ast.Join)
	if !ok {
		t.Fatalf("expected *ast.Join, got %T", sel.From)
	}
	if j.Kind != ast.LeftJoin || j.LeftCol != "id" || j.RightCol != "a_id" {
		t.Fatalf("unexpected join shape: %+v", j)
	}
}

func TestParseGroupByHavingOrderBy(t *testing.T) {
	stmt := mustParse(t, "SELECT dept, COUNT(*) FROM emp GROUP BY dept HAVING COUNT(*) > 1 ORDER BY dept DESC")
	sel := stmt.(*ast.Select)
	if sel.GroupKind != ast.GroupBy || len(sel.GroupBy) != 1 || sel.GroupBy[0] != "dept" {
		t.Fatalf("unexpected GROUP BY: %+v", sel)
	}
	if sel.Having == nil {
		t.Fatal("expected HAVING clause")
	}
	if len(sel.OrderBy) != 1 || !sel.OrderBy[0].Desc {
		t.Fatalf("expected ORDER BY ... DESC, got %+v", sel.OrderBy)
	}
}

func TestParseWhereBetweenInLikeIsNull(t *testing.T) {
	stmt := mustParse(t, "SELECT * FROM t WHERE a BETWEEN 1 AND 10 AND b IN (1, 2, 3) AND c LIKE 'x%' AND d IS NOT NULL")
	sel := stmt.(*ast.Select)
	if sel.Where == nil {
		t.Fatal("expected WHERE clause")
	}
}

func TestParseCreateTable(t *testing.T) {
	stmt := mustParse(t, "CREATE TABLE t (id INT PRIMARY KEY AUTO_INCREMENT, name VARCHAR NOT NULL, CHECK (id > 0))")
	ct, ok := stmt.(*ast.CreateTable)
	if !ok {
		t.Fatalf("expected *ast.CreateTable, got %T", stmt)
	}
	if len(ct.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(ct.Columns))
	}
	if !ct.Columns[0].PrimaryKey || !ct.Columns[0].AutoIncrement {
		t.Fatalf("expected id to be PK + auto_increment, got %+v", ct.Columns[0])
	}
	if !ct.Columns[1].NotNull {
		t.Fatalf("expected name NOT NULL, got %+v", ct.Columns[1])
	}
	if len(ct.Checks) != 1 {
		t.Fatalf("expected 1 table-level CHECK, got %d", len(ct.Checks))
	}
}

func TestParseInsertValuesAndSelect(t *testing.T) {
	stmt := mustParse(t, "INSERT INTO t (a, b) VALUES (1, 'x'), (2, 'y')")
	ins := stmt.(*ast.Insert)
	if len(ins.Columns) != 2 || len(ins.Rows) != 2 {
		t.Fatalf("unexpected insert shape: %+v", ins)
	}

	stmt2 := mustParse(t, "INSERT INTO t SELECT * FROM u")
	ins2 := stmt2.(*ast.Insert)
	if ins2.Select == nil {
		t.Fatal("expected INSERT ... SELECT form")
	}
}

func TestParseUpdateDelete(t *testing.T) {
	stmt := mustParse(t, "UPDATE t SET a = 1, b = 2 WHERE a = 0")
	u := stmt.(*ast.Update)
	if len(u.Set) != 2 || u.Where == nil {
		t.Fatalf("unexpected update shape: %+v", u)
	}

	stmt2 := mustParse(t, "DELETE FROM t WHERE a = 1")
	d := stmt2.(*ast.Delete)
	if d.Table != "t" || d.Where == nil {
		t.Fatalf("unexpected delete shape: %+v", d)
	}
}

func TestParseAlterTable(t *testing.T) {
	stmt := mustParse(t, "ALTER TABLE t ADD COLUMN c INT")
	at := stmt.(*ast.AlterTable)
	if _, ok := at.Action.(*ast.AddColumn); !ok {
		t.Fatalf("expected AddColumn action, got %T", at.Action)
	}

	stmt2 := mustParse(t, "ALTER TABLE t DROP COLUMN c")
	at2 := stmt2.(*ast.AlterTable)
	if _, ok := at2.Action.(*ast.DropColumn); !ok {
		t.Fatalf("expected DropColumn action, got %T", at2.Action)
	}
}

func TestParseUnion(t *testing.T) {
	stmt := mustParse(t, "SELECT a FROM t UNION ALL SELECT a FROM u")
	u, ok := stmt.(*ast.Union)
	if !ok {
		t.Fatalf("expected *ast.Union, got %T", stmt)
	}
	if !u.All {
		t.Fatal("expected UNION ALL")
	}
}

func TestParseCaseExpression(t *testing.T) {
	stmt := mustParse(t, "SELECT CASE WHEN a = 1 THEN 'one' ELSE 'other' END FROM t")
	sel := stmt.(*ast.Select)
	if _, ok := sel.Columns[0].Expr.(*ast.Case); !ok {
		t.Fatalf("expected *ast.Case, got %T", sel.Columns[0].Expr)
	}
}

func TestParseSubSelectInFrom(t *testing.T) {
	stmt := mustParse(t, "SELECT x FROM (SELECT a AS x FROM t) AS sub")
	sel := stmt.(*ast.Select)
	sub, ok := sel.From.(*ast.SubSelect)
	if !ok {
		t.Fatalf("expected *ast.SubSelect, got %T", sel.From)
	}
	if sub.As != "sub" {
		t.Fatalf("expected alias 'sub', got %q", sub.As)
	}
}

func TestParseOperatorPrecedence(t *testing.T) {
	stmt := mustParse(t, "SELECT * FROM t WHERE a = 1 AND b = 2 OR c = 3")
	sel := stmt.(*ast.Select)
	top, ok := sel.Where.(*ast.BinaryOp)
	if !ok || top.Op != ast.OpOr {
		t.Fatalf("expected top-level OR, got %+v", sel.Where)
	}
	left, ok := top.LHS.(*ast.BinaryOp)
	if !ok || left.Op != ast.OpAnd {
		t.Fatalf("expected AND on the OR's left side, got %+v", top.LHS)
	}
}

func TestParseArithmeticPrecedence(t *testing.T) {
	stmt := mustParse(t, "SELECT 1 + 2 * 3 FROM t")
	sel := stmt.(*ast.Select)
	top, ok := sel.Columns[0].Expr.(*ast.ArithmeticOp)
	if !ok || top.Op != ast.ArithAdd {
		t.Fatalf("expected top-level +, got %+v", sel.Columns[0].Expr)
	}
	if _, ok := top.RHS.(*ast.ArithmeticOp); !ok {
		t.Fatalf("expected 2 * 3 nested on the right, got %+v", top.RHS)
	}
}

func TestParseImportAndShow(t *testing.T) {
	stmt := mustParse(t, "IMPORT t 'data.csv'")
	imp := stmt.(*ast.Import)
	if imp.Table != "t" || imp.CSVPath != "data.csv" {
		t.Fatalf("unexpected import shape: %+v", imp)
	}

	stmt2 := mustParse(t, "SHOW TABLES")
	show := stmt2.(*ast.Show)
	if !show.Tables {
		t.Fatal("expected Show.Tables = true")
	}
}

func TestParseErrorsCarryOffset(t *testing.T) {
	_, err := ParseStatement("SELECT FROM")
	if err == nil {
		t.Fatal("expected a parse error")
	}
	sqlErr, ok := err.(*SQLError)
	if !ok {
		t.Fatalf("expected *SQLError, got %T", err)
	}
	if sqlErr.Offset < 0 {
		t.Fatalf("expected a non-negative offset, got %d", sqlErr.Offset)
	}
}
