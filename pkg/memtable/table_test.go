package memtable

import (
	"testing"

	"github.com/essadb/essadb/pkg/relation"
	"github.com/essadb/essadb/pkg/value"
)

func newTestTable() *Table {
	t := New("t", []relation.Column{
		{Name: "id", Type: value.Int},
		{Name: "name", Type: value.Varchar},
	})
	for i := int32(1); i <= 4; i++ {
		_ = t.InsertUnchecked(value.NewTuple(value.NewInt(i), value.NewVarchar("n")))
	}
	return t
}

func TestInsertUncheckedAndRows(t *testing.T) {
	tbl := newTestTable()
	n, _ := tbl.Size()
	if n != 4 {
		t.Fatalf("size = %d, want 4", n)
	}
	it := tbl.Rows()
	count := 0
	for {
		_, ok, err := it.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		count++
	}
	if count != 4 {
		t.Fatalf("iterated %d rows, want 4", count)
	}
}

func TestWritableIteratorDeleteAdvancesToSuccessor(t *testing.T) {
	tbl := newTestTable()
	w := tbl.RowsWritable()

	row, ok, err := w.Next() // id=1
	if err != nil || !ok {
		t.Fatalf("expected first row: %v %v", ok, err)
	}
	if v, _ := row.Value(0).ToInt(); v != 1 {
		t.Fatalf("expected id=1, got %d", v)
	}

	row, ok, err = w.Next() // id=2
	if err != nil || !ok || mustInt(row.Value(0)) != 2 {
		t.Fatalf("expected id=2, got %+v", row)
	}

	if err := w.Delete(); err != nil {
		t.Fatal(err)
	}

	row, ok, err = w.Next() // should now be id=3, the successor of deleted id=2
	if err != nil || !ok {
		t.Fatalf("expected a row after delete: %v %v", ok, err)
	}
	if mustInt(row.Value(0)) != 3 {
		t.Fatalf("expected successor id=3 after delete, got %d", mustInt(row.Value(0)))
	}
}

func mustInt(v value.Value) int32 {
	n, _ := v.ToInt()
	return n
}

func TestAlterColumnAtomicFailureLeavesSchemaUnchanged(t *testing.T) {
	tbl := New("t", []relation.Column{{Name: "a", Type: value.Varchar}})
	_ = tbl.InsertUnchecked(value.NewTuple(value.NewVarchar("not-a-number")))

	err := tbl.AlterColumn("a", relation.Column{Name: "a", Type: value.Int})
	if err == nil {
		t.Fatalf("expected alter to fail converting 'not-a-number' to int")
	}
	_, col, _ := tbl.GetColumn("a")
	if col.Type != value.Varchar {
		t.Fatalf("schema should be unchanged after failed alter, got %v", col.Type)
	}
}

func TestDropColumnShiftsRows(t *testing.T) {
	tbl := newTestTable()
	if err := tbl.DropColumn("id"); err != nil {
		t.Fatal(err)
	}
	if len(tbl.Columns()) != 1 {
		t.Fatalf("expected 1 column after drop, got %d", len(tbl.Columns()))
	}
	it := tbl.Rows()
	row, _, _ := it.Next()
	if row.Len() != 1 {
		t.Fatalf("row should have 1 value after drop, got %d", row.Len())
	}
}
