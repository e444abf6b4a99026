package exec

import (
	"testing"

	"github.com/essadb/essadb/pkg/database"
	"github.com/essadb/essadb/pkg/parser"
	"github.com/essadb/essadb/pkg/resultset"
)

// run parses and executes one statement, failing the test on error;
// the §8 end-to-end scenarios drive everything through this path the
// way a real client would, not by poking the executor's internals.
func run(t *testing.T, e *Executor, sql string) *resultset.ResultSet {
	t.Helper()
	stmt, err := parser.ParseStatement(sql)
	if err != nil {
		t.Fatalf("parse %q: %v", sql, err)
	}
	rs, err := e.Execute(stmt)
	if err != nil {
		t.Fatalf("execute %q: %v", sql, err)
	}
	return rs
}

// newTestTable builds the schema and rows §8's end-to-end scenarios
// share: test(id INT, [group] VARCHAR) with rows
// (1,AA),(2,C),(3,B),(4,C),(NULL,AA),(2,C),(6,AA),(7,B).
func newTestTable(t *testing.T) *Executor {
	t.Helper()
	e := New(database.New("scenarios"))
	run(t, e, "CREATE TABLE test (id INT, [group] VARCHAR)")
	rows := []string{
		"(1, 'AA')", "(2, 'C')", "(3, 'B')", "(4, 'C')",
		"(NULL, 'AA')", "(2, 'C')", "(6, 'AA')", "(7, 'B')",
	}
	for _, r := range rows {
		run(t, e, "INSERT INTO test (id, [group]) VALUES "+r)
	}
	return e
}

func cellInt(t *testing.T, rs *resultset.ResultSet, row, col int) int32 {
	t.Helper()
	n, err := rs.Rows[row].Value(col).ToInt()
	if err != nil {
		t.Fatalf("row %d col %d is not an int: %v", row, col, err)
	}
	return n
}

func cellFloat(t *testing.T, rs *resultset.ResultSet, row, col int) float32 {
	t.Helper()
	f, err := rs.Rows[row].Value(col).ToFloat()
	if err != nil {
		t.Fatalf("row %d col %d is not a float: %v", row, col, err)
	}
	return f
}

// Scenario 1: COUNT/SUM/MIN/MAX/AVG with no GROUP BY reduce the whole
// table to a single row.
func TestScenarioAggregatesNoGroupBy(t *testing.T) {
	e := newTestTable(t)
	rs := run(t, e, "SELECT COUNT(id), SUM(id), MIN(id), MAX(id), AVG(id) FROM test")
	if len(rs.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rs.Rows))
	}
	if got := cellInt(t, rs, 0, 0); got != 7 {
		t.Errorf("COUNT(id) = %d, want 7", got)
	}
	if got := cellInt(t, rs, 0, 1); got != 25 {
		t.Errorf("SUM(id) = %d, want 25", got)
	}
	if got := cellInt(t, rs, 0, 2); got != 1 {
		t.Errorf("MIN(id) = %d, want 1", got)
	}
	if got := cellInt(t, rs, 0, 3); got != 7 {
		t.Errorf("MAX(id) = %d, want 7", got)
	}
	if got := cellFloat(t, rs, 0, 4); got != 3.125 {
		t.Errorf("AVG(id) = %v, want 3.125", got)
	}
}

// Scenario 2: GROUP BY [group] produces one row per distinct key.
func TestScenarioGroupBy(t *testing.T) {
	e := newTestTable(t)
	rs := run(t, e, "SELECT [group], COUNT(id) FROM test GROUP BY [group]")
	if len(rs.Rows) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(rs.Rows))
	}
	want := map[string]int32{"AA": 2, "B": 2, "C": 3}
	seen := map[string]bool{}
	for i, row := range rs.Rows {
		key := row.Value(0).ToString()
		n := cellInt(t, rs, i, 1)
		if want[key] != n {
			t.Errorf("group %q count = %d, want %d", key, n, want[key])
		}
		seen[key] = true
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 distinct keys, got %d", len(seen))
	}
}

// Scenario 3: BETWEEN filters, ORDER BY sorts (with duplicates kept).
func TestScenarioBetweenOrderBy(t *testing.T) {
	e := newTestTable(t)
	rs := run(t, e, "SELECT id FROM test WHERE id BETWEEN 2 AND 4 ORDER BY id")
	want := []int32{2, 2, 3, 4}
	if len(rs.Rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rs.Rows))
	}
	for i, w := range want {
		if got := cellInt(t, rs, i, 0); got != w {
			t.Errorf("row %d = %d, want %d", i, got, w)
		}
	}
}

// Scenario 4: IS NULL matches only the one NULL id.
func TestScenarioIsNull(t *testing.T) {
	e := newTestTable(t)
	rs := run(t, e, "SELECT id FROM test WHERE id IS NULL")
	if len(rs.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rs.Rows))
	}
	if !rs.Rows[0].Value(0).IsNull() {
		t.Errorf("expected the matched row's id to be NULL")
	}
}

// Scenario 5: TOP 75 PERC keeps floor(8*0.75)=6 rows off the
// DESC-ordered result.
func TestScenarioTopPerc(t *testing.T) {
	e := newTestTable(t)
	rs := run(t, e, "SELECT TOP 75 PERC id FROM test ORDER BY id DESC")
	want := []int32{7, 6, 4, 3, 2, 2}
	if len(rs.Rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rs.Rows))
	}
	for i, w := range want {
		if got := cellInt(t, rs, i, 0); got != w {
			t.Errorf("row %d = %d, want %d", i, got, w)
		}
	}
}

// Scenario 6: LIKE's full-string anchoring and negated character
// class. Schema `strs(s VARCHAR)` holding test/test1/test2; only
// test2 matches 'test[!1]' (a 5-char string ending in anything but
// '1').
func TestScenarioLike(t *testing.T) {
	e := New(database.New("scenarios"))
	run(t, e, "CREATE TABLE strs (s VARCHAR)")
	for _, s := range []string{"test", "test1", "test2"} {
		run(t, e, "INSERT INTO strs (s) VALUES ('"+s+"')")
	}
	rs := run(t, e, "SELECT * FROM strs WHERE s LIKE 'test[!1]'")
	if len(rs.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rs.Rows))
	}
	if got := rs.Rows[0].Value(0).ToString(); got != "test2" {
		t.Errorf("matched row = %q, want test2", got)
	}
}

// DISTINCT removes duplicate tuples, keeping first occurrence order.
func TestDistinct(t *testing.T) {
	e := newTestTable(t)
	rs := run(t, e, "SELECT DISTINCT [group] FROM test ORDER BY [group]")
	want := []string{"AA", "B", "C"}
	if len(rs.Rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rs.Rows))
	}
	for i, w := range want {
		if got := rs.Rows[i].Value(0).ToString(); got != w {
			t.Errorf("row %d = %q, want %q", i, got, w)
		}
	}
}

// A two-table join through an implicit FROM a, b cross product
// narrowed by WHERE exercises the join/table-expression path.
func TestJoinViaWhere(t *testing.T) {
	e := New(database.New("joins"))
	run(t, e, "CREATE TABLE a (id INT, val VARCHAR)")
	run(t, e, "INSERT INTO a (id, val) VALUES (1, 'x'), (2, 'y')")
	run(t, e, "CREATE TABLE b (aid INT, note VARCHAR)")
	run(t, e, "INSERT INTO b (aid, note) VALUES (1, 'one'), (2, 'two')")

	rs := run(t, e, "SELECT a.val, b.note FROM a, b WHERE a.id = b.aid ORDER BY a.val")
	if len(rs.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rs.Rows))
	}
	if got := rs.Rows[0].Value(1).ToString(); got != "one" {
		t.Errorf("row 0 note = %q, want one", got)
	}
	if got := rs.Rows[1].Value(1).ToString(); got != "two" {
		t.Errorf("row 1 note = %q, want two", got)
	}
}

// INSERT/UPDATE/DELETE mutate the table in place and report affected
// row counts (spec §4.8).
func TestInsertUpdateDelete(t *testing.T) {
	e := New(database.New("dml"))
	run(t, e, "CREATE TABLE t (id INT, name VARCHAR)")

	rs := run(t, e, "INSERT INTO t (id, name) VALUES (1, 'a'), (2, 'b')")
	if n := cellInt(t, rs, 0, 0); n != 2 {
		t.Fatalf("rows_inserted = %d, want 2", n)
	}

	rs = run(t, e, "UPDATE t SET name = 'z' WHERE id = 1")
	if n := cellInt(t, rs, 0, 0); n != 1 {
		t.Fatalf("rows_updated = %d, want 1", n)
	}

	rs = run(t, e, "SELECT name FROM t WHERE id = 1")
	if got := rs.Rows[0].Value(0).ToString(); got != "z" {
		t.Fatalf("name after update = %q, want z", got)
	}

	rs = run(t, e, "DELETE FROM t WHERE id = 2")
	if n := cellInt(t, rs, 0, 0); n != 1 {
		t.Fatalf("rows_deleted = %d, want 1", n)
	}

	rs = run(t, e, "SELECT id FROM t")
	if len(rs.Rows) != 1 {
		t.Fatalf("expected 1 row left, got %d", len(rs.Rows))
	}
}

// The integrity gate rejects a duplicate primary key and accepts the
// same tuple shape when no constraint is in play.
func TestIntegrityGateRejectsDuplicatePK(t *testing.T) {
	e := New(database.New("integrity"))
	run(t, e, "CREATE TABLE t (id INT PRIMARY KEY, name VARCHAR)")
	run(t, e, "INSERT INTO t (id, name) VALUES (1, 'a')")

	stmt, err := parser.ParseStatement("INSERT INTO t (id, name) VALUES (1, 'b')")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Execute(stmt); err == nil {
		t.Fatal("expected duplicate primary key insert to fail")
	}
}

// UNION combines two SELECTs, deduplicating unless ALL is given.
func TestUnion(t *testing.T) {
	e := New(database.New("union"))
	run(t, e, "CREATE TABLE t (id INT)")
	run(t, e, "INSERT INTO t (id) VALUES (1), (2)")

	rs := run(t, e, "SELECT id FROM t WHERE id = 1 UNION SELECT id FROM t WHERE id = 1")
	if len(rs.Rows) != 1 {
		t.Fatalf("UNION expected 1 deduplicated row, got %d", len(rs.Rows))
	}

	rs = run(t, e, "SELECT id FROM t WHERE id = 1 UNION ALL SELECT id FROM t WHERE id = 1")
	if len(rs.Rows) != 2 {
		t.Fatalf("UNION ALL expected 2 rows, got %d", len(rs.Rows))
	}
}

// SHOW TABLES reports every registered table name, sorted.
func TestShowTables(t *testing.T) {
	e := New(database.New("show"))
	run(t, e, "CREATE TABLE zeta (id INT)")
	run(t, e, "CREATE TABLE alpha (id INT)")

	rs := run(t, e, "SHOW TABLES")
	if len(rs.Rows) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(rs.Rows))
	}
	if got := rs.Rows[0].Value(0).ToString(); got != "alpha" {
		t.Errorf("first table = %q, want alpha", got)
	}
	if got := rs.Rows[1].Value(0).ToString(); got != "zeta" {
		t.Errorf("second table = %q, want zeta", got)
	}
}

// PARTITION BY disables grouping even with an aggregate column
// present, passing every row through unaggregated.
func TestPartitionByDisablesGrouping(t *testing.T) {
	e := newTestTable(t)
	rs := run(t, e, "SELECT id, SUM(id) FROM test PARTITION BY [group]")
	if len(rs.Rows) != 8 {
		t.Fatalf("expected all 8 rows passed through ungrouped, got %d", len(rs.Rows))
	}
}
