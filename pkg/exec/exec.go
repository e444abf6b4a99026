package exec

import (
	"fmt"

	"github.com/essadb/essadb/pkg/ast"
	"github.com/essadb/essadb/pkg/resultset"
)

// Execute runs any parsed statement against the Executor's database,
// dispatching to the method that implements it (spec §4.4's
// statement grammar, §4.6-§4.9's semantics). DDL/DML statements that
// don't produce rows are reported as a single "rows affected" cell,
// the way the teacher's CLI prints mutation results.
func (e *Executor) Execute(stmt ast.Statement) (*resultset.ResultSet, error) {
	switch s := stmt.(type) {
	case *ast.Select:
		return e.Select(s)
	case *ast.Union:
		return e.Union(s)
	case *ast.Show:
		return e.Show(s)

	case *ast.CreateTable:
		if err := e.CreateTable(s); err != nil {
			return nil, err
		}
		return affectedResult("status", 0), nil
	case *ast.DropTable:
		if err := e.DropTable(s); err != nil {
			return nil, err
		}
		return affectedResult("status", 0), nil
	case *ast.TruncateTable:
		if err := e.TruncateTable(s); err != nil {
			return nil, err
		}
		return affectedResult("status", 0), nil
	case *ast.AlterTable:
		if err := e.AlterTable(s); err != nil {
			return nil, err
		}
		return affectedResult("status", 0), nil

	case *ast.Insert:
		n, err := e.Insert(s)
		if err != nil {
			return nil, err
		}
		return affectedResult("rows_inserted", n), nil
	case *ast.Update:
		n, err := e.Update(s)
		if err != nil {
			return nil, err
		}
		return affectedResult("rows_updated", n), nil
	case *ast.Delete:
		n, err := e.Delete(s)
		if err != nil {
			return nil, err
		}
		return affectedResult("rows_deleted", n), nil
	case *ast.Import:
		n, err := e.Import(s)
		if err != nil {
			return nil, err
		}
		return affectedResult("rows_imported", n), nil
	}
	return nil, fmt.Errorf("unhandled statement type %T", stmt)
}
