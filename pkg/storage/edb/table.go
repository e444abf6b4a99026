package edb

import (
	"fmt"

	"github.com/essadb/essadb/pkg/relation"
	"github.com/essadb/essadb/pkg/value"
)

// Table is an on-disk, EDB-backed relation.Table: schema and rows live
// in *File, while primary-key/foreign-key/CHECK/AUTO_INCREMENT state
// that spec §4.7's header has no room to fully persist is tracked here
// in memory and rebuilt on Open (see DESIGN.md's grounding note for
// pkg/storage/edb).
type Table struct {
	f           *File
	name        string
	primaryKey  string
	hasPK       bool
	foreignKeys []relation.ForeignKey
	mainCheck   string
	hasCheck    bool
	namedChecks map[string]string
	autoIncr    map[string]int32
}

// CreateTable makes a brand-new EDB file at path for a table with the
// given columns.
func CreateTable(path, name string, cols []relation.Column) (*Table, error) {
	f, err := Create(path, name, cols)
	if err != nil {
		return nil, err
	}
	return &Table{f: f, name: name, namedChecks: map[string]string{}, autoIncr: map[string]int32{}}, nil
}

// OpenTable re-attaches to an existing EDB file. The main CHECK text
// and the primary key (from the header's keyCount) are restored;
// foreign keys and named CHECK clauses are not persisted by this
// implementation, so they start empty on reopen (see DESIGN.md); the
// AUTO_INCREMENT counters are rebuilt by scanning existing rows for
// the current max value per AUTO_INCREMENT column.
func OpenTable(path, name string) (*Table, error) {
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	t := &Table{f: f, name: name, namedChecks: map[string]string{}, autoIncr: map[string]int32{}}

	if !f.hdr.checkStmt.Ptr.IsNull() {
		raw, err := f.readHeapBytes(f.hdr.checkStmt)
		if err != nil {
			return nil, err
		}
		t.mainCheck = string(raw)
		t.hasCheck = true
	}

	cols, err := f.Columns()
	if err != nil {
		return nil, err
	}
	if f.hdr.keyCount > 0 && int(f.hdr.keyCount)-1 < len(cols) {
		t.primaryKey = cols[f.hdr.keyCount-1].Name
		t.hasPK = true
	}

	rows, _, err := f.ScanRows()
	if err != nil {
		return nil, err
	}
	for i, c := range cols {
		if !c.AutoIncrement {
			continue
		}
		var max int32
		for _, r := range rows {
			if r[i].IsNull() {
				continue
			}
			if n, err := r[i].ToInt(); err == nil && n > max {
				max = n
			}
		}
		t.autoIncr[c.Name] = max
	}
	return t, nil
}

func (t *Table) Name() string { return t.name }

func (t *Table) Columns() []relation.Column {
	cols, err := t.f.Columns()
	if err != nil {
		return nil
	}
	return cols
}

func (t *Table) GetColumn(name string) (int, relation.Column, bool) {
	return relation.ColumnsOf(t.Columns(), name)
}

func (t *Table) Size() (int, error) {
	rows, _, err := t.f.ScanRows()
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (t *Table) FindFirstMatching(columnIndex int, v value.Value) (value.Tuple, bool, error) {
	rows, _, err := t.f.ScanRows()
	if err != nil {
		return value.Tuple{}, false, err
	}
	for _, r := range rows {
		eq, err := value.Equal(r[columnIndex], v)
		if err != nil {
			return value.Tuple{}, false, err
		}
		if eq {
			return value.NewTuple(r...), true, nil
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
	tup := it.rows[it.pos]
	it.pos++
	return tup, true, nil
}

// Rows snapshots the current on-disk rows into a reentrant iterator
// (spec §4.1: an EDB file has no standing in-memory row cache, so
// every call to Rows re-scans).
func (t *Table) Rows() relation.RowIterator {
	rows, _, err := t.f.ScanRows()
	if err != nil {
		return &tableIterator{}
	}
	tuples := make([]value.Tuple, len(rows))
	for i, r := range rows {
		tuples[i] = value.NewTuple(r...)
	}
	return &tableIterator{rows: tuples}
}

// writer walks the live rowLocations captured at creation time,
// mirroring memtable's "retained index, erased-previous flag"
// technique (spec §4.2/§9) against physical slots instead of a slice.
type writer struct {
	t            *Table
	locs         []rowLocation
	rows         []value.Tuple
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
	if w.pos >= len(w.rows) {
		return value.Tuple{}, false, nil
	}
	return w.rows[w.pos], true, nil
}

func (w *writer) Overwrite(nt value.Tuple) error {
	if w.pos < 0 || w.pos >= len(w.locs) {
		return fmt.Errorf("writer not positioned on a row")
	}
	values := make([]value.Value, nt.Len())
	for i := 0; i < nt.Len(); i++ {
		values[i] = nt.Value(i)
	}
	if err := w.t.f.OverwriteRow(w.locs[w.pos], values); err != nil {
		return err
	}
	w.rows[w.pos] = nt
	return nil
}

func (w *writer) Delete() error {
	if w.pos < 0 || w.pos >= len(w.locs) {
		return fmt.Errorf("writer not positioned on a row")
	}
	if err := w.t.f.DeleteRow(w.locs[w.pos]); err != nil {
		return err
	}
	w.locs = append(w.locs[:w.pos], w.locs[w.pos+1:]...)
	w.rows = append(w.rows[:w.pos], w.rows[w.pos+1:]...)
	w.erasedPrevAt = true
	return nil
}

func (t *Table) RowsWritable() relation.RowWriter {
	rows, locs, err := t.f.ScanRows()
	if err != nil {
		return &writer{t: t, pos: -1}
	}
	tuples := make([]value.Tuple, len(rows))
	for i, r := range rows {
		tuples[i] = value.NewTuple(r...)
	}
	return &writer{t: t, locs: locs, rows: tuples, pos: -1}
}

func (t *Table) Truncate() error {
	w := t.RowsWritable()
	for {
		_, ok, err := w.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err := w.Delete(); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) InsertUnchecked(tup value.Tuple) error {
	values := make([]value.Value, tup.Len())
	for i := 0; i < tup.Len(); i++ {
		values[i] = tup.Value(i)
	}
	return t.f.InsertRow(values)
}

func (t *Table) Insert(namedValues map[string]value.Value) error {
	cols := t.Columns()
	values := make([]value.Value, len(cols))
	for i, c := range cols {
		if v, ok := namedValues[c.Name]; ok {
			values[i] = v
		} else {
			values[i] = value.NewNull()
		}
	}
	return t.f.InsertRow(values)
}

// AddColumn, AlterColumn and DropColumn rewrite the column table and
// every existing row, since EDB rows are packed with no room to grow
// or shrink in place (spec §4.7).
func (t *Table) AddColumn(c relation.Column) error {
	if _, _, ok := t.GetColumn(c.Name); ok {
		return fmt.Errorf("column '%s' already exists", c.Name)
	}
	return t.rewriteSchema(append(t.Columns(), c), func(old []value.Value) []value.Value {
		return append(append([]value.Value(nil), old...), c.Default)
	})
}

func (t *Table) AlterColumn(name string, newCol relation.Column) error {
	idx, _, ok := t.GetColumn(name)
	if !ok {
		return fmt.Errorf("column '%s' does not exist in table '%s'", name, t.name)
	}
	newCols := append([]relation.Column(nil), t.Columns()...)
	newCols[idx] = newCol
	return t.rewriteSchema(newCols, func(old []value.Value) []value.Value {
		nv := append([]value.Value(nil), old...)
		if !old[idx].IsNull() {
			converted, err := value.FromString(newCol.Type, old[idx].ToString())
			if err == nil {
				nv[idx] = converted
			}
		}
		return nv
	})
}

func (t *Table) DropColumn(name string) error {
	idx, _, ok := t.GetColumn(name)
	if !ok {
		return fmt.Errorf("column '%s' does not exist in table '%s'", name, t.name)
	}
	cols := t.Columns()
	newCols := append(append([]relation.Column(nil), cols[:idx]...), cols[idx+1:]...)
	if err := t.rewriteSchema(newCols, func(old []value.Value) []value.Value {
		return append(append([]value.Value(nil), old[:idx]...), old[idx+1:]...)
	}); err != nil {
		return err
	}
	if t.hasPK && t.primaryKey == name {
		t.hasPK = false
		t.primaryKey = ""
	}
	return nil
}

// rewriteSchema replaces the table's schema and rows with a freshly
// built EDB file, then swaps it in; used by every DDL operation that
// changes column shape.
func (t *Table) rewriteSchema(newCols []relation.Column, transformRow func([]value.Value) []value.Value) error {
	path := t.f.mf.path
	oldRows, _, err := t.f.ScanRows()
	if err != nil {
		return err
	}
	tmpPath := path + ".rewrite"
	nf, err := Create(tmpPath, t.name, newCols)
	if err != nil {
		return err
	}
	for _, r := range oldRows {
		if err := nf.InsertRow(transformRow(r)); err != nil {
			nf.Close()
			return err
		}
	}
	if err := nf.Close(); err != nil {
		return err
	}
	if err := t.f.Close(); err != nil {
		return err
	}
	if err := replaceFile(tmpPath, path); err != nil {
		return err
	}
	reopened, err := Open(path)
	if err != nil {
		return err
	}
	t.f = reopened
	return nil
}

func (t *Table) Rename(newName string) error {
	t.name = newName
	return nil
}

func (t *Table) PrimaryKey() (string, bool) { return t.primaryKey, t.hasPK }

func (t *Table) SetPrimaryKey(column string) error {
	idx, _, ok := t.GetColumn(column)
	if !ok {
		return fmt.Errorf("column '%s' does not exist in table '%s'", column, t.name)
	}
	t.primaryKey = column
	t.hasPK = true
	t.f.hdr.keyCount = uint8(idx + 1)
	return t.f.flushHeader()
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
	span, err := t.f.allocHeapBytes([]byte(expr))
	if err != nil {
		return
	}
	t.f.hdr.checkStmt = span
	t.f.flushHeader()
}

func (t *Table) NamedChecks() map[string]string {
	cp := make(map[string]string, len(t.namedChecks))
	for k, v := range t.namedChecks {
		cp[k] = v
	}
	return cp
}

func (t *Table) AddNamedCheck(name, expr string) { t.namedChecks[name] = expr }

func (t *Table) NextAutoIncrement(column string) int32 {
	t.autoIncr[column]++
	return t.autoIncr[column]
}

func (t *Table) BumpAutoIncrement(column string, v int32) {
	if v >= t.autoIncr[column] {
		t.autoIncr[column] = v
	}
}

func (t *Table) Close() error { return t.f.Close() }

var _ relation.Table = (*Table)(nil)
