package exec

import (
	"fmt"

	"github.com/essadb/essadb/pkg/eval"
	"github.com/essadb/essadb/pkg/parser"
	"github.com/essadb/essadb/pkg/relation"
	"github.com/essadb/essadb/pkg/value"
)

// integrityGate is the single insert path every DML route funnels
// through (spec §4.9), grounded on
// original_source/db/core/TupleFromValues.cpp's create_tuple_from_values:
//  1. place proposed values at column indices, Null where omitted
//  2. UNIQUE check against the still-unsubstituted proposed value
//  3. NOT NULL check for non-unique columns
//  4. for columns still Null: AUTO_INCREMENT assignment, NOT NULL
//     failure, or DEFAULT substitution
//  5. primary key non-null + uniqueness
//  6. foreign key existence
//  7. CHECK/CONSTRAINT evaluation
//  8. caller stores via InsertUnchecked
func (e *Executor) integrityGate(tbl relation.Table, named map[string]value.Value) (value.Tuple, error) {
	cols := tbl.Columns()
	row := value.NewTuple()
	for _, col := range cols {
		v, given := named[col.Name]
		if !given {
			v = value.NewNull()
		}
		coerced, err := coerce(v, col.Type)
		if err != nil {
			return value.Tuple{}, fmt.Errorf("column '%s': %w", col.Name, err)
		}
		row.Append(coerced)
	}

	for i, col := range cols {
		v := row.Value(i)
		if col.Unique {
			if v.IsNull() {
				continue
			}
			if _, found, err := tbl.FindFirstMatching(i, v); err != nil {
				return value.Tuple{}, err
			} else if found {
				return value.Tuple{}, fmt.Errorf("Not valid UNIQUE value for column '%s'", col.Name)
			}
		} else if col.NotNull && v.IsNull() {
			return value.Tuple{}, fmt.Errorf("Value can't be null for column '%s'", col.Name)
		}
	}

	for i, col := range cols {
		if !row.Value(i).IsNull() {
			if col.AutoIncrement {
				if n, err := row.Value(i).ToInt(); err == nil {
					tbl.BumpAutoIncrement(col.Name, n)
				}
			}
			continue
		}
		switch {
		case col.AutoIncrement:
			if col.Type != value.Int {
				return value.Tuple{}, fmt.Errorf("AUTO_INCREMENT used on non-int column '%s'", col.Name)
			}
			row.Set(i, value.NewInt(tbl.NextAutoIncrement(col.Name)))
		case col.NotNull:
			return value.Tuple{}, fmt.Errorf("Value can't be null for column '%s'", col.Name)
		default:
			row.Set(i, col.Default)
		}
	}

	if pk, ok := tbl.PrimaryKey(); ok {
		idx, _, found := tbl.GetColumn(pk)
		if !found {
			return value.Tuple{}, fmt.Errorf("primary key references unknown column '%s'", pk)
		}
		v := row.Value(idx)
		if v.IsNull() {
			return value.Tuple{}, fmt.Errorf("Primary key may not be null")
		}
		if _, exists, err := tbl.FindFirstMatching(idx, v); err != nil {
			return value.Tuple{}, err
		} else if exists {
			return value.Tuple{}, fmt.Errorf("Primary key must be unique")
		}
	}

	for _, fk := range tbl.ForeignKeys() {
		idx, _, ok := tbl.GetColumn(fk.LocalColumn)
		if !ok {
			continue
		}
		v := row.Value(idx)
		if v.IsNull() {
			continue
		}
		refTable, err := e.db.Table(fk.ReferencedTable)
		if err != nil {
			return value.Tuple{}, err
		}
		refIdx, _, ok := refTable.GetColumn(fk.ReferencedColumn)
		if !ok {
			return value.Tuple{}, fmt.Errorf("Foreign key references unknown column '%s.%s'", fk.ReferencedTable, fk.ReferencedColumn)
		}
		if _, found, err := refTable.FindFirstMatching(refIdx, v); err != nil {
			return value.Tuple{}, err
		} else if !found {
			return value.Tuple{}, fmt.Errorf("Foreign key '%s' requires matching value in referenced column '%s.%s'", fk.LocalColumn, fk.ReferencedTable, fk.ReferencedColumn)
		}
	}

	if main, ok := tbl.MainCheck(); ok {
		if err := e.evalCheckExpr(cols, row, main); err != nil {
			return value.Tuple{}, fmt.Errorf("Values doesn't match general check rule specified for this table: %w", err)
		}
	}
	for name, expr := range tbl.NamedChecks() {
		if err := e.evalCheckExpr(cols, row, expr); err != nil {
			return value.Tuple{}, fmt.Errorf("Values doesn't match '%s' check rule specified for this table: %w", name, err)
		}
	}

	return row, nil
}

// evalCheckExpr re-parses exprSrc (a CHECK clause stored as source
// text) and evaluates it against row, with each column of the table
// resolvable by its bare name (spec §4.9).
func (e *Executor) evalCheckExpr(cols []relation.Column, row value.Tuple, exprSrc string) error {
	expr, err := parser.ParseExpr(exprSrc)
	if err != nil {
		return fmt.Errorf("invalid CHECK expression '%s': %w", exprSrc, err)
	}

	labels := make([]eval.ColumnLabel, len(cols))
	for i, c := range cols {
		labels[i] = eval.ColumnLabel{Name: c.Name}
	}

	ctx := e.newEvalContext()
	ctx.Push(&eval.Frame{Kind: eval.FromTable, Labels: labels, Row: row})
	v, err := eval.Eval(expr, ctx)
	ctx.Pop()
	if err != nil {
		return err
	}
	ok, err := v.ToBool()
	if err != nil || !ok {
		return fmt.Errorf("check failed")
	}
	return nil
}

// coerce converts v to the column's declared type when it doesn't
// already match, the way a CREATE TABLE DEFAULT literal or an
// INSERT ... VALUES literal is reconciled with its column (spec §3).
func coerce(v value.Value, want value.Type) (value.Value, error) {
	if v.IsNull() || v.Type() == want {
		return v, nil
	}
	switch want {
	case value.Int:
		n, err := v.ToInt()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewInt(n), nil
	case value.Float:
		f, err := v.ToFloat()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewFloat(f), nil
	case value.Varchar:
		return value.NewVarchar(v.ToString()), nil
	case value.Bool:
		b, err := v.ToBool()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewBool(b), nil
	case value.Time:
		t, err := v.ToTime()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewTime(t), nil
	}
	return v, nil
}
