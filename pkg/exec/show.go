package exec

import (
	"github.com/essadb/essadb/pkg/ast"
	"github.com/essadb/essadb/pkg/resultset"
	"github.com/essadb/essadb/pkg/value"
)

// Show implements SHOW TABLES (spec §4.8 supplement): one row per
// table currently registered in the database.
func (e *Executor) Show(sh *ast.Show) (*resultset.ResultSet, error) {
	rs := resultset.New([]string{"table_name"})
	if sh.Tables {
		for _, name := range e.db.TableNames() {
			rs.AddRow(value.NewTuple(value.NewVarchar(name)))
		}
	}
	return rs, nil
}
