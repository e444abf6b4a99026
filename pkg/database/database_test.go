package database

import (
	"testing"

	"github.com/essadb/essadb/pkg/memtable"
	"github.com/essadb/essadb/pkg/relation"
	"github.com/essadb/essadb/pkg/value"
)

func TestAddDropTable(t *testing.T) {
	db := New("test")
	tbl := memtable.New("t", []relation.Column{{Name: "a", Type: value.Int}})
	if err := db.AddTable(tbl); err != nil {
		t.Fatal(err)
	}
	if !db.HasTable("t") {
		t.Fatal("expected HasTable to be true")
	}
	if err := db.AddTable(tbl); err == nil {
		t.Fatal("expected duplicate AddTable to fail")
	}
	if err := db.DropTable("t"); err != nil {
		t.Fatal(err)
	}
	if db.HasTable("t") {
		t.Fatal("expected table to be gone after drop")
	}
}

func TestRenameTable(t *testing.T) {
	db := New("test")
	tbl := memtable.New("old", []relation.Column{{Name: "a", Type: value.Int}})
	_ = db.AddTable(tbl)
	if err := db.RenameTable("old", "new"); err != nil {
		t.Fatal(err)
	}
	if db.HasTable("old") || !db.HasTable("new") {
		t.Fatal("expected table renamed from old to new")
	}
}

func TestCreateEDBTableAndLoad(t *testing.T) {
	dir := t.TempDir()
	db := NewWithDir("persisted", dir)
	cols := []relation.Column{{Name: "id", Type: value.Int, NotNull: true}}
	tbl, err := db.CreateEDBTable("widgets", cols)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.AddTable(tbl); err != nil {
		t.Fatal(err)
	}
	if err := tbl.InsertUnchecked(value.NewTuple(value.NewInt(7))); err != nil {
		t.Fatal(err)
	}

	reopened := NewWithDir("persisted", dir)
	if err := reopened.Load(); err != nil {
		t.Fatal(err)
	}
	if !reopened.HasTable("widgets") {
		t.Fatal("expected widgets to be reloaded from disk")
	}
	got, err := reopened.Table("widgets")
	if err != nil {
		t.Fatal(err)
	}
	n, err := got.Size()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("size after reload = %d, want 1", n)
	}
}

func TestTableNamesSorted(t *testing.T) {
	db := New("test")
	_ = db.AddTable(memtable.New("zeta", nil))
	_ = db.AddTable(memtable.New("alpha", nil))
	names := db.TableNames()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Fatalf("expected sorted [alpha zeta], got %v", names)
	}
}
