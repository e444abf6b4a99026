package exec

import (
	"fmt"

	"github.com/essadb/essadb/pkg/ast"
	"github.com/essadb/essadb/pkg/resultset"
)

// Union implements UNION / UNION ALL over two statements that must
// both yield a ResultSet (spec §4.6): concatenate rows, then
// de-duplicate unless ALL was given.
func (e *Executor) Union(u *ast.Union) (*resultset.ResultSet, error) {
	left, err := e.execSelectLike(u.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.execSelectLike(u.Right)
	if err != nil {
		return nil, err
	}
	if len(left.ColumnNames) != len(right.ColumnNames) {
		return nil, fmt.Errorf("UNION operands have mismatched column counts: %d vs %d", len(left.ColumnNames), len(right.ColumnNames))
	}

	rs := resultset.New(left.ColumnNames)
	rs.Rows = append(rs.Rows, left.Rows...)
	rs.Rows = append(rs.Rows, right.Rows...)
	if !u.All {
		rs.Rows = distinctRows(rs.Rows)
	}
	return rs, nil
}

// execSelectLike runs the left/right side of a UNION, which the
// grammar restricts to a SELECT or a nested UNION.
func (e *Executor) execSelectLike(stmt ast.Statement) (*resultset.ResultSet, error) {
	switch s := stmt.(type) {
	case *ast.Select:
		return e.Select(s)
	case *ast.Union:
		return e.Union(s)
	}
	return nil, fmt.Errorf("UNION operand must be a SELECT, got %T", stmt)
}
