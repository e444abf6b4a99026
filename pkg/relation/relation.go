// Package relation defines the Column/Relation/Table capability set
// shared by memory-backed tables, EDB-backed tables, join results and
// non-owning wrappers (spec §3, §4.1). Grounded on
// original_source/db/core/{Relation,AbstractTable,IndexedRelation}.hpp.
package relation

import "github.com/essadb/essadb/pkg/value"

// Column describes one field of a relation's schema.
type Column struct {
	Name          string
	Type          value.Type
	AutoIncrement bool
	Unique        bool
	NotNull       bool
	Default       value.Value
}

// ForeignKey is a FK constraint from a local column to a column of
// another table (spec §3, Indexed Relation).
type ForeignKey struct {
	LocalColumn      string
	ReferencedTable  string
	ReferencedColumn string
}

// RowIterator is a single-pass, finite cursor over Tuples (spec §4.1).
// Implementations must be reentrant across distinct iterator objects
// obtained from the same Relation, but a given iterator itself is not
// safely clonable mid-stream.
type RowIterator interface {
	// Next returns the next tuple, or ok=false when exhausted.
	Next() (t value.Tuple, ok bool, err error)
}

// RowWriter is a cursor that can overwrite or delete the row it is
// currently positioned on, in addition to advancing (spec §4.2).
type RowWriter interface {
	// Next advances to the next live row.
	Next() (t value.Tuple, ok bool, err error)
	// Overwrite replaces the value of the current row at the current
	// position with t.
	Overwrite(t value.Tuple) error
	// Delete removes the current row. A subsequent Next() call
	// returns what had been the successor.
	Delete() error
}

// Relation is the read/iterate capability set shared by every table
// variant, join result and non-owning wrapper (spec §3).
type Relation interface {
	Columns() []Column
	Rows() RowIterator
	RowsWritable() RowWriter
	Size() (int, error)
	// FindFirstMatching returns the first tuple whose value at
	// columnIndex equals v, used by UNIQUE/FK checks (spec §4.9,
	// SPEC_FULL's find_first_matching_tuple supplement).
	FindFirstMatching(columnIndex int, v value.Value) (value.Tuple, bool, error)
	// GetColumn resolves a column by name, returning its index.
	GetColumn(name string) (int, Column, bool)
}

// Table extends Relation with schema and row mutation (spec §3).
type Table interface {
	Relation

	Name() string
	Truncate() error
	AddColumn(c Column) error
	AlterColumn(name string, newCol Column) error
	DropColumn(name string) error
	Rename(newName string) error

	// Insert stores a tuple built from namedValues, with Null for every
	// column not named. It does not run the tuple integrity gate
	// (spec §4.9); pkg/exec runs the gate itself and then calls
	// InsertUnchecked.
	Insert(namedValues map[string]value.Value) error
	// InsertUnchecked stores t as given, without the integrity gate;
	// pkg/exec uses it after its own gate and for SELECT ... INTO.
	InsertUnchecked(t value.Tuple) error

	PrimaryKey() (string, bool)
	SetPrimaryKey(column string) error
	ForeignKeys() []ForeignKey
	AddForeignKey(fk ForeignKey) error

	// NextAutoIncrement returns the next value of the per-column
	// AUTO_INCREMENT counter, advancing it (spec §4.9 step 4). The
	// counter only moves forward: an explicitly inserted value higher
	// than the counter jumps it past that value via Bump.
	NextAutoIncrement(column string) int32
	// BumpAutoIncrement advances a column's counter past v if v is
	// greater than its current value, so an explicit INSERT of a high
	// id doesn't get reused by a later AUTO_INCREMENT.
	BumpAutoIncrement(column string, v int32)

	// MainCheck returns the table's main CHECK source (if any) and
	// NamedChecks its named CONSTRAINT CHECK clauses, for the integrity
	// gate.
	MainCheck() (string, bool)
	SetMainCheck(expr string)
	NamedChecks() map[string]string
	AddNamedCheck(name, expr string)
}

// SliceIterator adapts a pre-materialized tuple slice into a
// RowIterator, used by join results and other materialized relations.
type SliceIterator struct {
	tuples []value.Tuple
	pos    int
}

func NewSliceIterator(tuples []value.Tuple) *SliceIterator {
	return &SliceIterator{tuples: tuples}
}

func (s *SliceIterator) Next() (value.Tuple, bool, error) {
	if s.pos >= len(s.tuples) {
		return value.Tuple{}, false, nil
	}
	t := s.tuples[s.pos]
	s.pos++
	return t, true, nil
}

// ColumnsOf is a convenience used by non-owning wrappers: find a
// column by name across a column slice.
func ColumnsOf(cols []Column, name string) (int, Column, bool) {
	for i, c := range cols {
		if c.Name == name {
			return i, c, true
		}
	}
	return -1, Column{}, false
}
