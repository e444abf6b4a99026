package exec

import (
	"fmt"

	"github.com/essadb/essadb/pkg/ast"
	"github.com/essadb/essadb/pkg/eval"
	"github.com/essadb/essadb/pkg/memtable"
	"github.com/essadb/essadb/pkg/relation"
	"github.com/essadb/essadb/pkg/value"
)

func newMemTable(name string, cols []relation.Column) *memtable.Table {
	return memtable.New(name, cols)
}

// CreateTable implements CREATE TABLE (spec §4.8): column constraints,
// table-level CHECKs and the storage ENGINE choice. ENGINE=EDB tables
// are backed by pkg/storage/edb on disk, under the database's
// directory; ENGINE=MEMORY (the default) uses pkg/memtable.
func (e *Executor) CreateTable(ct *ast.CreateTable) error {
	if e.db.HasTable(ct.Table) {
		return fmt.Errorf("Table '%s' already exists", ct.Table)
	}

	cols := make([]relation.Column, len(ct.Columns))
	for i, cd := range ct.Columns {
		col := relation.Column{
			Name: cd.Name, Type: cd.Type,
			AutoIncrement: cd.AutoIncrement, Unique: cd.Unique, NotNull: cd.NotNull,
		}
		if cd.HasDefault {
			ctx := e.newEvalContext()
			ctx.Push(&eval.Frame{})
			v, err := eval.Eval(cd.Default, ctx)
			if err != nil {
				return fmt.Errorf("evaluating DEFAULT for column '%s': %w", cd.Name, err)
			}
			col.Default = v
		} else {
			col.Default = value.NewNull()
		}
		cols[i] = col
	}

	var tbl relation.Table
	if ct.Engine == ast.EngineEDB {
		t, err := e.db.CreateEDBTable(ct.Table, cols)
		if err != nil {
			return err
		}
		tbl = t
	} else {
		tbl = newMemTable(ct.Table, cols)
	}

	for _, cd := range ct.Columns {
		if cd.PrimaryKey {
			if err := tbl.SetPrimaryKey(cd.Name); err != nil {
				return err
			}
		}
		if cd.References != nil {
			if err := tbl.AddForeignKey(relation.ForeignKey{
				LocalColumn: cd.Name, ReferencedTable: cd.References.Table, ReferencedColumn: cd.References.Name,
			}); err != nil {
				return err
			}
		}
	}
	for _, c := range ct.Checks {
		if c.Name == "" {
			tbl.SetMainCheck(c.Expr.String())
		} else {
			tbl.AddNamedCheck(c.Name, c.Expr.String())
		}
	}

	return e.db.AddTable(tbl)
}

func (e *Executor) DropTable(d *ast.DropTable) error {
	return e.db.DropTable(d.Table)
}

func (e *Executor) TruncateTable(tr *ast.TruncateTable) error {
	tbl, err := e.db.Table(tr.Table)
	if err != nil {
		return err
	}
	return tbl.Truncate()
}

func (e *Executor) AlterTable(at *ast.AlterTable) error {
	tbl, err := e.db.Table(at.Table)
	if err != nil {
		return err
	}
	switch action := at.Action.(type) {
	case *ast.AddColumn:
		col := relation.Column{
			Name: action.Column.Name, Type: action.Column.Type,
			AutoIncrement: action.Column.AutoIncrement, Unique: action.Column.Unique, NotNull: action.Column.NotNull,
		}
		if action.Column.HasDefault {
			ctx := e.newEvalContext()
			ctx.Push(&eval.Frame{})
			v, err := eval.Eval(action.Column.Default, ctx)
			if err != nil {
				return err
			}
			col.Default = v
		} else {
			col.Default = value.NewNull()
		}
		return tbl.AddColumn(col)

	case *ast.DropColumn:
		return tbl.DropColumn(action.Name)

	case *ast.AlterColumnType:
		return tbl.AlterColumn(action.Name, relation.Column{Name: action.Column.Name, Type: action.Column.Type})
	}
	return fmt.Errorf("unhandled ALTER TABLE action %T", at.Action)
}
