// Package database holds the name -> table registry a running EssaDB
// instance operates on (spec §4.8's CREATE/DROP/ALTER TABLE and
// IMPORT all mutate this registry). Grounded on
// original_source/db/core/Database.{hpp,cpp}.
package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/essadb/essadb/pkg/relation"
	"github.com/essadb/essadb/pkg/storage/edb"
)

// edbExt is the on-disk extension for EngineEDB tables within a
// database directory.
const edbExt = ".edb"

// Database is a name-keyed collection of tables. Safe for concurrent
// use since the REPL and any future network front-end may share one.
// When dir is non-empty, EngineEDB tables created via CreateEDBTable
// live as dir/<name>.edb and are reopened by Load.
type Database struct {
	mu     sync.RWMutex
	name   string
	dir    string
	tables map[string]relation.Table
}

func New(name string) *Database {
	return &Database{name: name, tables: map[string]relation.Table{}}
}

// NewWithDir is New plus a backing directory for EngineEDB tables
// (spec §4.7/§4.8's ENGINE=EDB).
func NewWithDir(name, dir string) *Database {
	return &Database{name: name, dir: dir, tables: map[string]relation.Table{}}
}

func (d *Database) Name() string { return d.name }

// Dir returns the database's backing directory, or "" for a purely
// in-memory database.
func (d *Database) Dir() string { return d.dir }

// CreateEDBTable creates a new on-disk table under the database
// directory; the caller must have already checked the name is free.
func (d *Database) CreateEDBTable(name string, cols []relation.Column) (relation.Table, error) {
	if d.dir == "" {
		return nil, fmt.Errorf("database has no backing directory for ENGINE=EDB tables")
	}
	t, err := edb.CreateTable(d.edbPath(name), name, cols)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (d *Database) edbPath(name string) string {
	return filepath.Join(d.dir, name+edbExt)
}

// Load opens every *.edb file in the database directory and registers
// it under its file-stem name, so a persistent database resumes where
// it left off.
func (d *Database) Load() error {
	if d.dir == "" {
		return nil
	}
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading database directory '%s': %w", d.dir, err)
	}
	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), edbExt) {
			continue
		}
		name := strings.TrimSuffix(ent.Name(), edbExt)
		t, err := edb.OpenTable(filepath.Join(d.dir, ent.Name()), name)
		if err != nil {
			return fmt.Errorf("opening table '%s': %w", name, err)
		}
		if err := d.AddTable(t); err != nil {
			return err
		}
	}
	return nil
}

func (d *Database) Table(name string) (relation.Table, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.tables[name]
	if !ok {
		return nil, fmt.Errorf("Table '%s' doesn't exist", name)
	}
	return t, nil
}

func (d *Database) HasTable(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.tables[name]
	return ok
}

func (d *Database) AddTable(t relation.Table) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.tables[t.Name()]; ok {
		return fmt.Errorf("Table '%s' already exists", t.Name())
	}
	d.tables[t.Name()] = t
	return nil
}

func (d *Database) DropTable(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.tables[name]; !ok {
		return fmt.Errorf("Table '%s' doesn't exist", name)
	}
	delete(d.tables, name)
	return nil
}

// RenameTable is the first half of the restructure protocol (spec
// §4.8/§7): rename the live table out of the way so a replacement can
// be created under its old name.
func (d *Database) RenameTable(oldName, newName string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.tables[oldName]
	if !ok {
		return fmt.Errorf("Table '%s' doesn't exist", oldName)
	}
	if _, exists := d.tables[newName]; exists {
		return fmt.Errorf("Table '%s' already exists", newName)
	}
	if err := t.Rename(newName); err != nil {
		return err
	}
	delete(d.tables, oldName)
	d.tables[newName] = t
	return nil
}

// Close releases any table backed by an open file handle (EngineEDB
// tables); in-memory tables have nothing to release.
func (d *Database) Close() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var first error
	for _, t := range d.tables {
		if c, ok := t.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// TableNames returns every table name, sorted, for SHOW TABLES.
func (d *Database) TableNames() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.tables))
	for n := range d.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
