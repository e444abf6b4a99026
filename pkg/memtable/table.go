// Package memtable implements a Relation/Table over an in-memory
// slice of tuples (spec §4.2, component D). Grounded on
// original_source's implicit memory-backed AbstractTable plus the
// teacher's struct-and-methods layout.
package memtable

import (
	"fmt"

	"github.com/essadb/essadb/pkg/relation"
	"github.com/essadb/essadb/pkg/value"
)

// Table is a memory-backed relation.Table.
type Table struct {
	name        string
	columns     []relation.Column
	rows        []value.Tuple
	primaryKey  string
	hasPK       bool
	foreignKeys []relation.ForeignKey
	mainCheck   string
	hasCheck    bool
	namedChecks map[string]string
	autoIncr    map[string]int32
}

func New(name string, columns []relation.Column) *Table {
	return &Table{
		name:        name,
		columns:     append([]relation.Column(nil), columns...),
		namedChecks: map[string]string{},
		autoIncr:    map[string]int32{},
	}
}

// NextAutoIncrement implements the per-column counter of spec §4.9
// step 4: it jumps past any explicitly inserted value (via
// BumpAutoIncrement) rather than rescanning existing rows.
func (t *Table) NextAutoIncrement(column string) int32 {
	t.autoIncr[column]++
	return t.autoIncr[column]
}

func (t *Table) BumpAutoIncrement(column string, v int32) {
	if v >= t.autoIncr[column] {
		t.autoIncr[column] = v
	}
}

func (t *Table) Name() string               { return t.name }
func (t *Table) Columns() []relation.Column { return append([]relation.Column(nil), t.columns...) }

func (t *Table) Size() (int, error) { return len(t.rows), nil }

func (t *Table) GetColumn(name string) (int, relation.Column, bool) {
	return relation.ColumnsOf(t.columns, name)
}

func (t *Table) FindFirstMatching(columnIndex int, v value.Value) (value.Tuple, bool, error) {
	for _, r := range t.rows {
		eq, err := value.Equal(r.Value(columnIndex), v)
		if err != nil {
			return value.Tuple{}, false, err
		}
		if eq {
			return r, true, nil
		}
	}
	return value.Tuple{}, false, nil
}

type tableIterator struct {
	rows []value.Tuple
	pos  int
}

func (it *tableIterator) Next() (value.Tuple, bool, error) {
	if it.pos >= len(it.rows) {
		return value.Tuple{}, false, nil
	}
	t := it.rows[it.pos]
	it.pos++
	return t, true, nil
}

// Rows returns a fresh, reentrant iterator over a snapshot of the
// current rows (spec §4.1: iterators are reentrant across distinct
// objects, not across clones).
func (t *Table) Rows() relation.RowIterator {
	snapshot := append([]value.Tuple(nil), t.rows...)
	return &tableIterator{rows: snapshot}
}

// writer supports deletion during iteration with the "retained index,
// erased-previous flag" technique from spec §4.2/§9: after a deletion
// the same index now holds what had been the successor, so Next()
// must not advance past it.
type writer struct {
	t            *Table
	pos          int
	erasedPrevAt bool
}

func (w *writer) Next() (value.Tuple, bool, error) {
	if w.erasedPrevAt {
		w.erasedPrevAt = false
	} else if w.pos >= 0 {
		w.pos++
	}
	if w.pos < 0 {
		w.pos = 0
	}
	if w.pos >= len(w.t.rows) {
		return value.Tuple{}, false, nil
	}
	return w.t.rows[w.pos], true, nil
}

func (w *writer) Overwrite(nt value.Tuple) error {
	if w.pos < 0 || w.pos >= len(w.t.rows) {
		return fmt.Errorf("writer not positioned on a row")
	}
	w.t.rows[w.pos] = nt
	return nil
}

func (w *writer) Delete() error {
	if w.pos < 0 || w.pos >= len(w.t.rows) {
		return fmt.Errorf("writer not positioned on a row")
	}
	w.t.rows = append(w.t.rows[:w.pos], w.t.rows[w.pos+1:]...)
	w.erasedPrevAt = true
	return nil
}

func (t *Table) RowsWritable() relation.RowWriter {
	return &writer{t: t, pos: -1}
}

func (t *Table) Truncate() error {
	t.rows = nil
	return nil
}

func (t *Table) InsertUnchecked(tup value.Tuple) error {
	if tup.Len() != len(t.columns) {
		return fmt.Errorf("tuple has %d values, table has %d columns", tup.Len(), len(t.columns))
	}
	t.rows = append(t.rows, tup)
	return nil
}

// Insert is provided for callers that only hold a relation.Table and
// want a default integrity-free insert keyed by column name; the
// engine's integrity gate (pkg/exec) is the sanctioned entry point
// for user-facing INSERT and calls InsertUnchecked itself after
// validating.
func (t *Table) Insert(namedValues map[string]value.Value) error {
	vals := make([]value.Value, len(t.columns))
	for i, c := range t.columns {
		if v, ok := namedValues[c.Name]; ok {
			vals[i] = v
		} else {
			vals[i] = value.NewNull()
		}
	}
	return t.InsertUnchecked(value.NewTuple(vals...))
}

func (t *Table) AddColumn(c relation.Column) error {
	if _, _, ok := t.GetColumn(c.Name); ok {
		return fmt.Errorf("column '%s' already exists", c.Name)
	}
	t.columns = append(t.columns, c)
	for i := range t.rows {
		t.rows[i].Append(c.Default)
	}
	return nil
}

// AlterColumn re-interprets existing cells under the new type,
// atomically: either every row converts or the schema is left
// unchanged (spec §4.2).
func (t *Table) AlterColumn(name string, newCol relation.Column) error {
	idx, _, ok := t.GetColumn(name)
	if !ok {
		return fmt.Errorf("column '%s' does not exist in table '%s'", name, t.name)
	}
	converted := make([]value.Value, len(t.rows))
	for i, r := range t.rows {
		v := r.Value(idx)
		if v.IsNull() {
			converted[i] = v
			continue
		}
		nv, err := value.FromString(newCol.Type, v.ToString())
		if err != nil {
			return err
		}
		converted[i] = nv
	}
	for i := range t.rows {
		t.rows[i].Set(idx, converted[i])
	}
	t.columns[idx] = newCol
	return nil
}

func (t *Table) DropColumn(name string) error {
	idx, _, ok := t.GetColumn(name)
	if !ok {
		return fmt.Errorf("column '%s' does not exist in table '%s'", name, t.name)
	}
	t.columns = append(t.columns[:idx], t.columns[idx+1:]...)
	for i := range t.rows {
		t.rows[i].RemoveAt(idx)
	}
	if t.hasPK && t.primaryKey == name {
		t.hasPK = false
		t.primaryKey = ""
	}
	return nil
}

func (t *Table) Rename(newName string) error {
	t.name = newName
	return nil
}

func (t *Table) PrimaryKey() (string, bool) { return t.primaryKey, t.hasPK }

func (t *Table) SetPrimaryKey(column string) error {
	if _, _, ok := t.GetColumn(column); !ok {
		return fmt.Errorf("column '%s' does not exist in table '%s'", column, t.name)
	}
	t.primaryKey = column
	t.hasPK = true
	return nil
}

func (t *Table) ForeignKeys() []relation.ForeignKey {
	return append([]relation.ForeignKey(nil), t.foreignKeys...)
}

func (t *Table) AddForeignKey(fk relation.ForeignKey) error {
	t.foreignKeys = append(t.foreignKeys, fk)
	return nil
}

func (t *Table) MainCheck() (string, bool) { return t.mainCheck, t.hasCheck }
func (t *Table) SetMainCheck(expr string) {
	t.mainCheck = expr
	t.hasCheck = true
}

func (t *Table) NamedChecks() map[string]string {
	cp := make(map[string]string, len(t.namedChecks))
	for k, v := range t.namedChecks {
		cp[k] = v
	}
	return cp
}

func (t *Table) AddNamedCheck(name, expr string) { t.namedChecks[name] = expr }

var _ relation.Table = (*Table)(nil)
