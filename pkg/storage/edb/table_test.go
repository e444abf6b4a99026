package edb

import (
	"path/filepath"
	"testing"

	"github.com/essadb/essadb/pkg/relation"
	"github.com/essadb/essadb/pkg/value"
)

func testColumns() []relation.Column {
	return []relation.Column{
		{Name: "id", Type: value.Int, AutoIncrement: true, NotNull: true},
		{Name: "name", Type: value.Varchar, Default: value.NewVarchar("anon")},
		{Name: "score", Type: value.Float},
	}
}

func TestCreateInsertScan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.edb")
	tbl, err := CreateTable(path, "t", testColumns())
	if err != nil {
		t.Fatal(err)
	}
	defer tbl.Close()

	for i := 0; i < 5; i++ {
		id := tbl.NextAutoIncrement("id")
		err := tbl.InsertUnchecked(value.NewTuple(
			value.NewInt(id), value.NewVarchar("row"), value.NewFloat(float32(i)),
		))
		if err != nil {
			t.Fatal(err)
		}
	}

	n, err := tbl.Size()
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Fatalf("size = %d, want 5", n)
	}

	it := tbl.Rows()
	count := 0
	for {
		tup, ok, err := it.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		if tup.Value(1).ToString() != "row" {
			t.Fatalf("unexpected name cell: %v", tup.Value(1))
		}
		count++
	}
	if count != 5 {
		t.Fatalf("iterated %d rows, want 5", count)
	}
}

func TestReopenPersistsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.edb")
	tbl, err := CreateTable(path, "t", testColumns())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := tbl.InsertUnchecked(value.NewTuple(
			value.NewInt(int32(i+1)), value.NewVarchar("x"), value.NewFloat(1.5),
		)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tbl.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := OpenTable(path, "t")
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	n, err := reopened.Size()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("size after reopen = %d, want 3", n)
	}
	if next := reopened.NextAutoIncrement("id"); next != 4 {
		t.Fatalf("NextAutoIncrement after reopen = %d, want 4 (rebuilt from max)", next)
	}
}

func TestDeleteAndOverwriteViaWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.edb")
	tbl, err := CreateTable(path, "t", testColumns())
	if err != nil {
		t.Fatal(err)
	}
	defer tbl.Close()
	for i := 0; i < 3; i++ {
		if err := tbl.InsertUnchecked(value.NewTuple(
			value.NewInt(int32(i+1)), value.NewVarchar("x"), value.NewFloat(0),
		)); err != nil {
			t.Fatal(err)
		}
	}

	w := tbl.RowsWritable()
	for {
		tup, ok, err := w.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		id, _ := tup.Value(0).ToInt()
		if id == 2 {
			if err := w.Delete(); err != nil {
				t.Fatal(err)
			}
			continue
		}
		nt := value.NewTuple(tup.Value(0), value.NewVarchar("updated"), tup.Value(2))
		if err := w.Overwrite(nt); err != nil {
			t.Fatal(err)
		}
	}

	n, err := tbl.Size()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("size after delete = %d, want 2", n)
	}
	rows, _, err := tbl.f.ScanRows()
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range rows {
		if r[1].ToString() != "updated" {
			t.Fatalf("expected overwritten name, got %v", r[1])
		}
	}
}

func TestAddColumnRewritesRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.edb")
	tbl, err := CreateTable(path, "t", testColumns())
	if err != nil {
		t.Fatal(err)
	}
	defer tbl.Close()
	if err := tbl.InsertUnchecked(value.NewTuple(value.NewInt(1), value.NewVarchar("a"), value.NewFloat(0))); err != nil {
		t.Fatal(err)
	}

	newCol := relation.Column{Name: "active", Type: value.Bool, Default: value.NewBool(true)}
	if err := tbl.AddColumn(newCol); err != nil {
		t.Fatal(err)
	}

	cols := tbl.Columns()
	if len(cols) != 4 || cols[3].Name != "active" {
		t.Fatalf("expected 4 columns with 'active' last, got %+v", cols)
	}
	it := tbl.Rows()
	tup, ok, err := it.Next()
	if err != nil || !ok {
		t.Fatalf("expected one row after AddColumn, ok=%v err=%v", ok, err)
	}
	if b, _ := tup.Value(3).ToBool(); !b {
		t.Fatalf("expected new column default true, got %v", tup.Value(3))
	}
}
