package exec

import (
	"fmt"

	"github.com/essadb/essadb/pkg/ast"
	"github.com/essadb/essadb/pkg/eval"
	"github.com/essadb/essadb/pkg/value"
)

// evalTableExpression materializes a FROM source: a bare table, a
// sub-select, a cross join, or an equi-join (spec §4.6 Joins).
func (e *Executor) evalTableExpression(te ast.TableExpression, ctx *eval.Context) (rowSource, error) {
	switch n := te.(type) {
	case *ast.TableRef:
		tbl, err := e.db.Table(n.TableName)
		if err != nil {
			return rowSource{}, err
		}
		labels := make([]eval.ColumnLabel, len(tbl.Columns()))
		for i, c := range tbl.Columns() {
			labels[i] = eval.ColumnLabel{Table: n.Alias(), Name: c.Name}
		}
		var rows []value.Tuple
		it := tbl.Rows()
		for {
			row, ok, err := it.Next()
			if err != nil {
				return rowSource{}, err
			}
			if !ok {
				break
			}
			rows = append(rows, row)
		}
		return rowSource{labels: labels, rows: rows}, nil

	case *ast.SubSelect:
		rs, err := e.runSelectWithContext(n.Select, ctx)
		if err != nil {
			return rowSource{}, err
		}
		labels := make([]eval.ColumnLabel, len(rs.ColumnNames))
		for i, name := range rs.ColumnNames {
			labels[i] = eval.ColumnLabel{Table: n.As, Name: name}
		}
		return rowSource{labels: labels, rows: rs.Rows}, nil

	case *ast.CrossJoin:
		left, err := e.evalTableExpression(n.Left, ctx)
		if err != nil {
			return rowSource{}, err
		}
		right, err := e.evalTableExpression(n.Right, ctx)
		if err != nil {
			return rowSource{}, err
		}
		labels := append(append([]eval.ColumnLabel{}, left.labels...), right.labels...)
		var rows []value.Tuple
		for _, lrow := range left.rows {
			for _, rrow := range right.rows {
				rows = append(rows, concatTuples(lrow, rrow))
			}
		}
		return rowSource{labels: labels, rows: rows}, nil

	case *ast.Join:
		return e.evalJoin(n, ctx)
	}
	return rowSource{}, fmt.Errorf("unhandled table expression %T", te)
}

func concatTuples(a, b value.Tuple) value.Tuple {
	out := a.Clone()
	for i := 0; i < b.Len(); i++ {
		out.Append(b.Value(i))
	}
	return out
}

func findLabel(labels []eval.ColumnLabel, name string) int {
	for i, l := range labels {
		if l.Name == name {
			return i
		}
	}
	return -1
}

// evalJoin runs an equi-join (spec §4.6 Joins) by grouping the right
// side's rows in a hash map keyed by the DebugString of their
// join-column value.
func (e *Executor) evalJoin(n *ast.Join, ctx *eval.Context) (rowSource, error) {
	left, err := e.evalTableExpression(n.Left, ctx)
	if err != nil {
		return rowSource{}, err
	}
	right, err := e.evalTableExpression(n.Right, ctx)
	if err != nil {
		return rowSource{}, err
	}

	leftIdx := findLabel(left.labels, n.LeftCol)
	rightIdx := findLabel(right.labels, n.RightCol)
	if leftIdx < 0 {
		return rowSource{}, fmt.Errorf("Invalid identifier '%s'", n.LeftCol)
	}
	if rightIdx < 0 {
		return rowSource{}, fmt.Errorf("Invalid identifier '%s'", n.RightCol)
	}

	rightByKey := map[string][]value.Tuple{}
	for _, rrow := range right.rows {
		k := rrow.Value(rightIdx).DebugString()
		rightByKey[k] = append(rightByKey[k], rrow)
	}

	labels := append(append([]eval.ColumnLabel{}, left.labels...), right.labels...)
	rightNulls := value.NewTuple()
	for range right.labels {
		rightNulls.AppendNull()
	}
	leftNulls := value.NewTuple()
	for range left.labels {
		leftNulls.AppendNull()
	}

	matchedRight := map[int]bool{}
	rightIndexByIdentity := map[string][]int{} // key -> indices into right.rows, for outer-join unmatched pass
	for i, rrow := range right.rows {
		k := rrow.Value(rightIdx).DebugString()
		rightIndexByIdentity[k] = append(rightIndexByIdentity[k], i)
	}

	var rows []value.Tuple
	for _, lrow := range left.rows {
		k := lrow.Value(leftIdx).DebugString()
		matches := rightByKey[k]
		if len(matches) == 0 {
			if n.Kind == ast.LeftJoin || n.Kind == ast.OuterJoin {
				rows = append(rows, concatTuples(lrow, rightNulls))
			}
			continue
		}
		for _, idx := range rightIndexByIdentity[k] {
			matchedRight[idx] = true
		}
		for _, rrow := range matches {
			rows = append(rows, concatTuples(lrow, rrow))
		}
	}

	if n.Kind == ast.RightJoin || n.Kind == ast.OuterJoin {
		for i, rrow := range right.rows {
			if !matchedRight[i] {
				rows = append(rows, concatTuples(leftNulls, rrow))
			}
		}
	}

	return rowSource{labels: labels, rows: rows}, nil
}
