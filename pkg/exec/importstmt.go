package exec

import (
	"fmt"
	"os"

	"github.com/essadb/essadb/pkg/ast"
	"github.com/essadb/essadb/pkg/csvio"
	"github.com/essadb/essadb/pkg/relation"
	"github.com/essadb/essadb/pkg/schemaimport"
)

// Import implements IMPORT (spec §4.8): reads a CSV file and inserts
// each row through the integrity gate; if the target table doesn't
// exist, it's created from the CSV's column hints or inferred types.
func (e *Executor) Import(im *ast.Import) (int, error) {
	var hints []relation.Column
	if im.HintsPath != "" {
		h, err := schemaimport.Load(im.HintsPath)
		if err != nil {
			return 0, err
		}
		hints = h
	}

	f, err := os.Open(im.CSVPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open CSV file '%s': %w", im.CSVPath, err)
	}
	defer f.Close()

	cols, rows, err := csvio.Import(f, hints)
	if err != nil {
		return 0, err
	}

	if !e.db.HasTable(im.Table) {
		tbl := newMemTable(im.Table, cols)
		if err := e.db.AddTable(tbl); err != nil {
			return 0, err
		}
	}
	tbl, err := e.db.Table(im.Table)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, row := range rows {
		values, err := namedValuesFromRow(columnNamesOf(cols), row)
		if err != nil {
			return n, err
		}
		if err := e.insertOne(tbl, values); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func columnNamesOf(cols []relation.Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}
