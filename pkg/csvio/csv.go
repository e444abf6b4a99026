// Package csvio reads and writes the comma-or-semicolon, quoted-field
// CSV dialect IMPORT and `essadb dump --csv` use (spec §4.8, §6).
// Grounded on original_source/db/storage/CSVFile.{hpp,cpp}: a
// hand-rolled reader rather than encoding/csv, since that dialect
// allows either delimiter and a bare `null` literal that
// encoding/csv's RFC-4180 reader has no hook for.
package csvio

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/essadb/essadb/pkg/relation"
	"github.com/essadb/essadb/pkg/value"
)

// Import parses CSV text from r. If hints is non-empty its columns
// are used verbatim (spec's IMPORT schema-hint path); otherwise each
// column's type is inferred by scanning every row: start Null,
// promote to Int on the first integer-shaped value, promote to
// Varchar on the first non-integer value (spec §4.8).
func Import(r io.Reader, hints []relation.Column) ([]relation.Column, []value.Tuple, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var headerLine []string
	var rowLines [][]string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := splitCSVLine(line)
		if headerLine == nil {
			headerLine = fields
			continue
		}
		if len(fields) != len(headerLine) {
			return nil, nil, fmt.Errorf("invalid value count in row, expected %d, got %d", len(headerLine), len(fields))
		}
		rowLines = append(rowLines, fields)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	if len(headerLine) == 0 {
		return nil, nil, fmt.Errorf("CSV file contains no columns")
	}

	var columns []relation.Column
	if len(hints) > 0 {
		columns = hints
	} else {
		columns = make([]relation.Column, len(headerLine))
		for i, name := range headerLine {
			typ := value.Null
			for _, row := range rowLines {
				t := value.InferType(row[i])
				if typ == value.Null {
					if t != value.Null {
						typ = t
					}
				} else if typ == value.Int && t == value.Varchar {
					typ = value.Varchar
				}
			}
			if typ == value.Null {
				typ = value.Varchar
			}
			columns[i] = relation.Column{Name: name, Type: typ}
		}
	}

	rows := make([]value.Tuple, 0, len(rowLines))
	for _, fields := range rowLines {
		tup := value.NewTuple()
		for i, col := range columns {
			if fields[i] == "null" {
				tup.AppendNull()
				continue
			}
			v, err := value.FromString(col.Type, fields[i])
			if err != nil {
				return nil, nil, err
			}
			tup.Append(v)
		}
		rows = append(rows, tup)
	}
	return columns, rows, nil
}

// splitCSVLine tokenizes one line on ',' or ';', honoring single- or
// double-quoted fields (spec §6's CSV dialect).
func splitCSVLine(line string) []string {
	var fields []string
	runes := []rune(line)
	i := 0
	n := len(runes)
	for i < n {
		for i < n && (runes[i] == ' ' || runes[i] == '\t') {
			i++
		}
		if i >= n {
			break
		}
		var quote rune
		if runes[i] == '\'' || runes[i] == '"' {
			quote = runes[i]
			i++
		}
		var sb strings.Builder
		for i < n {
			c := runes[i]
			if quote != 0 {
				if c == quote {
					break
				}
			} else if c == ',' || c == ';' {
				break
			}
			sb.WriteRune(c)
			i++
		}
		if quote != 0 && i < n && runes[i] == quote {
			i++
		}
		for i < n && (runes[i] == ' ' || runes[i] == '\t') {
			i++
		}
		if i < n && (runes[i] == ',' || runes[i] == ';') {
			i++
		}
		fields = append(fields, sb.String())
	}
	return fields
}

// Export writes columns+rows back out in the same dialect Import
// reads, so `essadb dump --csv` round-trips with `essadb import`
// (SPEC_FULL's CSV export supplement).
func Export(w io.Writer, columns []relation.Column, rows []value.Tuple) error {
	bw := bufio.NewWriter(w)
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	if _, err := bw.WriteString(strings.Join(names, ",") + "\n"); err != nil {
		return err
	}
	for _, row := range rows {
		cells := make([]string, row.Len())
		for i := 0; i < row.Len(); i++ {
			v := row.Value(i)
			if v.IsNull() {
				cells[i] = "null"
				continue
			}
			s := v.ToString()
			if strings.ContainsAny(s, ",;") {
				s = "\"" + s + "\""
			}
			cells[i] = s
		}
		if _, err := bw.WriteString(strings.Join(cells, ",") + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
