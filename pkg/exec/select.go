// Package exec runs parsed statements (pkg/ast) against a
// pkg/database.Database, producing a pkg/resultset.ResultSet for
// queries or mutating tables for DDL/DML (spec §4.6-§4.9). Grounded
// on original_source/db/core/Select.cpp's pipeline order and the
// teacher's cmd/ execution entry points.
package exec

import (
	"sort"

	"github.com/essadb/essadb/pkg/ast"
	"github.com/essadb/essadb/pkg/database"
	"github.com/essadb/essadb/pkg/eval"
	"github.com/essadb/essadb/pkg/relation"
	"github.com/essadb/essadb/pkg/resultset"
	"github.com/essadb/essadb/pkg/value"
)

// Executor runs statements against one Database.
type Executor struct {
	db *database.Database
}

func New(db *database.Database) *Executor { return &Executor{db: db} }

// rowSource is a materialized FROM source: its column labels and the
// tuples it produced, built once per table expression so joins and
// sub-selects can be treated uniformly by the rest of the pipeline.
type rowSource struct {
	labels []eval.ColumnLabel
	rows   []value.Tuple
}

func (e *Executor) newEvalContext() *eval.Context {
	ctx := eval.NewContext()
	ctx.RunScalarSelect = func(sel *ast.Select, callerCtx *eval.Context) (value.Value, error) {
		rs, err := e.runSelectWithContext(sel, callerCtx)
		if err != nil {
			return value.Value{}, err
		}
		if len(rs.Rows) == 0 {
			return value.NewNull(), nil
		}
		return rs.Rows[0].Value(0), nil
	}
	return ctx
}

// Select runs a SELECT statement end-to-end (spec §4.6 steps 1-12).
func (e *Executor) Select(sel *ast.Select) (*resultset.ResultSet, error) {
	return e.runSelectWithContext(sel, e.newEvalContext())
}

func (e *Executor) runSelectWithContext(sel *ast.Select, outerCtx *eval.Context) (*resultset.ResultSet, error) {
	ctx := outerCtx.Child()

	// Step 1: FROM.
	var src rowSource
	if sel.From != nil {
		s, err := e.evalTableExpression(sel.From, ctx)
		if err != nil {
			return nil, err
		}
		src = s
	} else {
		src = rowSource{rows: []value.Tuple{value.NewTuple()}}
	}

	// Step 2: WHERE.
	filtered := make([]value.Tuple, 0, len(src.rows))
	for _, row := range src.rows {
		ctx.Push(&eval.Frame{Kind: eval.FromTable, Labels: src.labels, Row: row})
		ok := true
		if sel.Where != nil {
			v, err := eval.Eval(sel.Where, ctx)
			ctx.Pop()
			if err != nil {
				return nil, err
			}
			ok, err = v.ToBool()
			if err != nil {
				return nil, err
			}
		} else {
			ctx.Pop()
		}
		if ok {
			filtered = append(filtered, row)
		}
	}

	columns := e.resolveProjection(sel, src.labels)

	// PARTITION BY disables grouping unconditionally, even when the
	// projection has an aggregate column (original_source's
	// Select.cpp forces should_group false for PARTITION BY).
	needsGroup := sel.GroupKind == ast.GroupBy ||
		(sel.GroupKind != ast.PartitionBy && hasAggregate(columns))

	var groups [][]value.Tuple
	var groupKeys []value.Tuple
	if needsGroup && sel.GroupKind == ast.GroupBy {
		groups, groupKeys = groupRows(filtered, src.labels, sel.GroupBy)
	} else if needsGroup {
		// An aggregate with no GROUP BY reduces the whole filtered set
		// to a single row (spec §4.6 step 6).
		groups = [][]value.Tuple{filtered}
		groupKeys = []value.Tuple{value.NewTuple()}
	} else {
		groups = make([][]value.Tuple, len(filtered))
		for i, row := range filtered {
			groups[i] = []value.Tuple{row}
		}
	}
	_ = groupKeys

	// Steps 5-6: project each group/row into result tuples.
	projected := make([]value.Tuple, 0, len(groups))
	for _, group := range groups {
		// An empty group only arises for an aggregate with no GROUP BY
		// over an empty filtered set; its row reads as all Nulls.
		row := value.NewTuple()
		if len(group) > 0 {
			row = group[0]
		} else {
			for range src.labels {
				row.AppendNull()
			}
		}
		frame := &eval.Frame{Kind: eval.FromTable, Labels: src.labels, Row: row, Group: group}
		ctx.Push(frame)
		out := value.NewTuple()
		for _, col := range columns {
			v, err := eval.Eval(col.Expr, ctx)
			if err != nil {
				ctx.Pop()
				return nil, err
			}
			out.Append(v)
		}
		ctx.Pop()
		projected = append(projected, out)
	}

	resultLabels := make([]eval.ColumnLabel, len(columns))
	for i, c := range columns {
		resultLabels[i] = eval.ColumnLabel{Name: c.Name()}
		// An unaliased column reference keeps its table qualifier, so
		// HAVING and ORDER BY can name it as t.c.
		if id, ok := c.Expr.(*ast.Identifier); ok && c.Alias == "" {
			resultLabels[i] = eval.ColumnLabel{Table: id.Table, Name: id.Name}
		}
	}

	// Step 7: HAVING, evaluated against the already-projected result
	// row (spec §4.6 step 7 resolves unqualified names via aliases
	// first, matching a FromResultSet frame).
	if sel.Having != nil {
		keep := make([]value.Tuple, 0, len(projected))
		for i, row := range projected {
			group := groups[i]
			frame := &eval.Frame{Kind: eval.FromResultSet, Labels: resultLabels, Row: row, SelectColumns: columns, Group: group}
			ctx.Push(frame)
			v, err := eval.Eval(sel.Having, ctx)
			ctx.Pop()
			if err != nil {
				return nil, err
			}
			b, err := v.ToBool()
			if err != nil {
				return nil, err
			}
			if b {
				keep = append(keep, row)
			}
		}
		projected = keep
	}

	// Step 8: ORDER BY.
	if len(sel.OrderBy) > 0 {
		if err := e.orderBy(projected, resultLabels, columns, sel.OrderBy, ctx); err != nil {
			return nil, err
		}
	}

	// Step 9: DISTINCT.
	if sel.Distinct {
		projected = distinctRows(projected)
	}

	// Step 10: TOP [PERC].
	if sel.Top != nil {
		n := sel.Top.Count
		if sel.Top.Percent {
			n = len(projected) * sel.Top.Count / 100
		}
		if n < len(projected) {
			projected = projected[:n]
		}
	}

	rs := resultset.New(columnNames(columns))
	rs.Rows = projected

	// Step 12: INTO.
	if sel.Into != "" {
		if err := e.selectInto(sel.Into, rs); err != nil {
			return nil, err
		}
	}

	return rs, nil
}

func columnNames(columns []ast.SelectColumn) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name()
	}
	return names
}

func hasAggregate(columns []ast.SelectColumn) bool {
	for _, c := range columns {
		if c.Expr.ContainsAggregate() {
			return true
		}
	}
	return false
}

// resolveProjection expands `SELECT *` into one IndexExpression per
// source column (spec §4.5), or returns the explicit column list.
func (e *Executor) resolveProjection(sel *ast.Select, labels []eval.ColumnLabel) []ast.SelectColumn {
	if !sel.Star {
		return sel.Columns
	}
	cols := make([]ast.SelectColumn, len(labels))
	for i, lbl := range labels {
		cols[i] = ast.SelectColumn{Expr: &ast.IndexExpression{Position: i, Label: lbl.Name}}
	}
	return cols
}

func groupRows(rows []value.Tuple, labels []eval.ColumnLabel, groupBy []string) ([][]value.Tuple, []value.Tuple) {
	idxs := make([]int, len(groupBy))
	for i, name := range groupBy {
		idxs[i] = -1
		for j, lbl := range labels {
			if lbl.Name == name {
				idxs[i] = j
				break
			}
		}
	}
	keyOf := func(row value.Tuple) value.Tuple {
		key := value.NewTuple()
		for _, idx := range idxs {
			if idx >= 0 {
				key.Append(row.Value(idx))
			} else {
				key.AppendNull()
			}
		}
		return key
	}

	var keys []value.Tuple
	var groups [][]value.Tuple
	for _, row := range rows {
		k := keyOf(row)
		placed := false
		for i, existing := range keys {
			if existing.Equal(k) {
				groups[i] = append(groups[i], row)
				placed = true
				break
			}
		}
		if !placed {
			keys = append(keys, k)
			groups = append(groups, []value.Tuple{row})
		}
	}
	return groups, keys
}

func distinctRows(rows []value.Tuple) []value.Tuple {
	out := make([]value.Tuple, 0, len(rows))
	for _, row := range rows {
		dup := false
		for _, seen := range out {
			if seen.Equal(row) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, row)
		}
	}
	return out
}

func (e *Executor) orderBy(rows []value.Tuple, labels []eval.ColumnLabel, columns []ast.SelectColumn, orderBy []ast.OrderColumn, ctx *eval.Context) error {
	type keyed struct {
		row value.Tuple
		key value.Tuple
	}
	items := make([]keyed, len(rows))
	for i, row := range rows {
		frame := &eval.Frame{Kind: eval.FromResultSet, Labels: labels, Row: row, SelectColumns: columns}
		ctx.Push(frame)
		key := value.NewTuple()
		for _, ob := range orderBy {
			v, err := eval.Eval(ob.Expr, ctx)
			if err != nil {
				ctx.Pop()
				return err
			}
			key.Append(v)
		}
		ctx.Pop()
		items[i] = keyed{row: row, key: key}
	}

	sort.SliceStable(items, func(i, j int) bool {
		for k, ob := range orderBy {
			a, b := items[i].key.Value(k), items[j].key.Value(k)
			eq, _ := value.Equal(a, b)
			if eq {
				continue
			}
			lt, _ := value.Less(a, b)
			if ob.Desc {
				return !lt
			}
			return lt
		}
		return false
	})
	for i, it := range items {
		rows[i] = it.row
	}
	return nil
}

func (e *Executor) selectInto(tableName string, rs *resultset.ResultSet) error {
	if e.db.HasTable(tableName) {
		if err := e.db.DropTable(tableName); err != nil {
			return err
		}
	}
	cols := make([]relation.Column, len(rs.ColumnNames))
	for i, name := range rs.ColumnNames {
		typ := value.Varchar
		if len(rs.Rows) > 0 {
			typ = rs.Rows[0].Value(i).Type()
		}
		cols[i] = relation.Column{Name: name, Type: typ}
	}
	tbl := newMemTable(tableName, cols)
	for _, row := range rs.Rows {
		if err := tbl.InsertUnchecked(row); err != nil {
			return err
		}
	}
	return e.db.AddTable(tbl)
}
