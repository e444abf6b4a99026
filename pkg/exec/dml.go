package exec

import (
	"fmt"

	"github.com/essadb/essadb/pkg/ast"
	"github.com/essadb/essadb/pkg/eval"
	"github.com/essadb/essadb/pkg/relation"
	"github.com/essadb/essadb/pkg/resultset"
	"github.com/essadb/essadb/pkg/value"
)

// Insert implements INSERT INTO ... VALUES and INSERT INTO ... SELECT
// (spec §4.9), with every row funneled through integrityGate.
func (e *Executor) Insert(ins *ast.Insert) (int, error) {
	tbl, err := e.db.Table(ins.Table)
	if err != nil {
		return 0, err
	}

	if ins.Select != nil {
		rs, err := e.Select(ins.Select)
		if err != nil {
			return 0, err
		}
		cols := ins.Columns
		if len(cols) == 0 {
			cols = rs.ColumnNames
		}
		n := 0
		for _, row := range rs.Rows {
			named, err := namedValuesFromRow(cols, row)
			if err != nil {
				return n, err
			}
			if err := e.insertOne(tbl, named); err != nil {
				return n, err
			}
			n++
		}
		return n, nil
	}

	ctx := e.newEvalContext()
	ctx.Push(&eval.Frame{})
	cols := ins.Columns
	if len(cols) == 0 {
		cols = make([]string, len(tbl.Columns()))
		for i, c := range tbl.Columns() {
			cols[i] = c.Name
		}
	}

	n := 0
	for _, rowExprs := range ins.Rows {
		if len(rowExprs) != len(cols) {
			return n, fmt.Errorf("INSERT has %d columns but %d values", len(cols), len(rowExprs))
		}
		named := make(map[string]value.Value, len(cols))
		for i, expr := range rowExprs {
			v, err := eval.Eval(expr, ctx)
			if err != nil {
				ctx.Pop()
				return n, err
			}
			named[cols[i]] = v
		}
		if err := e.insertOne(tbl, named); err != nil {
			ctx.Pop()
			return n, err
		}
		n++
	}
	ctx.Pop()
	return n, nil
}

func (e *Executor) insertOne(tbl relation.Table, named map[string]value.Value) error {
	row, err := e.integrityGate(tbl, named)
	if err != nil {
		return err
	}
	return tbl.InsertUnchecked(row)
}

func namedValuesFromRow(cols []string, row value.Tuple) (map[string]value.Value, error) {
	if len(cols) != row.Len() {
		return nil, fmt.Errorf("INSERT ... SELECT column count mismatch: %d columns, %d values", len(cols), row.Len())
	}
	named := make(map[string]value.Value, len(cols))
	for i, name := range cols {
		named[name] = row.Value(i)
	}
	return named, nil
}

// Update implements UPDATE ... SET ... WHERE (spec §4.9): each
// matching row is rebuilt with its SET assignments applied and run
// back through integrityGate so constraints still hold.
func (e *Executor) Update(upd *ast.Update) (int, error) {
	tbl, err := e.db.Table(upd.Table)
	if err != nil {
		return 0, err
	}
	labels := make([]eval.ColumnLabel, len(tbl.Columns()))
	for i, c := range tbl.Columns() {
		labels[i] = eval.ColumnLabel{Table: upd.Table, Name: c.Name}
	}

	ctx := e.newEvalContext()
	n := 0
	w := tbl.RowsWritable()
	for {
		row, ok, err := w.Next()
		if err != nil {
			return n, err
		}
		if !ok {
			break
		}

		ctx.Push(&eval.Frame{Kind: eval.FromTable, Labels: labels, Row: row})
		matches := true
		if upd.Where != nil {
			v, err := eval.Eval(upd.Where, ctx)
			if err != nil {
				ctx.Pop()
				return n, err
			}
			matches, err = v.ToBool()
			if err != nil {
				ctx.Pop()
				return n, err
			}
		}
		if !matches {
			ctx.Pop()
			continue
		}

		named := make(map[string]value.Value, len(tbl.Columns()))
		for i, c := range tbl.Columns() {
			named[c.Name] = row.Value(i)
		}
		for _, a := range upd.Set {
			v, err := eval.Eval(a.Value, ctx)
			if err != nil {
				ctx.Pop()
				return n, err
			}
			named[a.Column] = v
		}
		ctx.Pop()

		newRow, err := e.integrityGate(tbl, named)
		if err != nil {
			return n, err
		}
		if err := w.Overwrite(newRow); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Delete implements DELETE FROM ... WHERE (spec §4.9) using the
// writable iterator's delete-during-iteration support.
func (e *Executor) Delete(del *ast.Delete) (int, error) {
	tbl, err := e.db.Table(del.Table)
	if err != nil {
		return 0, err
	}
	labels := make([]eval.ColumnLabel, len(tbl.Columns()))
	for i, c := range tbl.Columns() {
		labels[i] = eval.ColumnLabel{Table: del.Table, Name: c.Name}
	}

	ctx := e.newEvalContext()
	n := 0
	w := tbl.RowsWritable()
	for {
		row, ok, err := w.Next()
		if err != nil {
			return n, err
		}
		if !ok {
			break
		}

		matches := true
		if del.Where != nil {
			ctx.Push(&eval.Frame{Kind: eval.FromTable, Labels: labels, Row: row})
			v, err := eval.Eval(del.Where, ctx)
			ctx.Pop()
			if err != nil {
				return n, err
			}
			matches, err = v.ToBool()
			if err != nil {
				return n, err
			}
		}
		if !matches {
			continue
		}
		if err := w.Delete(); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// affectedResult wraps a row count as the single-cell ResultSet the
// REPL prints for a mutating statement (spec §6).
func affectedResult(label string, n int) *resultset.ResultSet {
	rs := resultset.New([]string{label})
	rs.AddRow(value.NewTuple(value.NewInt(int32(n))))
	return rs
}
