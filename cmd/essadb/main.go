// Package main is the essadb CLI: query/repl/import/dump over a
// directory of tables, built on cobra (grounded on Pieczasz-smf's
// cmd/smf/main.go command-tree layout and the teacher's own
// flag-driven cmd/sqlparser/main.go entrypoint).
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/essadb/essadb/pkg/csvio"
	"github.com/essadb/essadb/pkg/database"
	"github.com/essadb/essadb/pkg/exec"
	"github.com/essadb/essadb/pkg/parser"
	"github.com/essadb/essadb/pkg/relation"
	"github.com/essadb/essadb/pkg/resultset"
	"github.com/essadb/essadb/pkg/value"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "essadb",
		Short: "A small relational SQL database engine",
	}

	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(replCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(dumpCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openDatabase(dir string) (*database.Database, error) {
	db := database.NewWithDir(dir, dir)
	if err := db.Load(); err != nil {
		return nil, fmt.Errorf("opening database at '%s': %w", dir, err)
	}
	return db, nil
}

func runAndPrint(e *exec.Executor, sql string) error {
	stmt, err := parser.ParseStatement(sql)
	if err != nil {
		return err
	}
	rs, err := e.Execute(stmt)
	if err != nil {
		return err
	}
	fmt.Print(rs.DumpFancy())
	return nil
}

func queryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <db-dir> <sql>",
		Short: "Run a single SQL statement against a database directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			db, err := openDatabase(args[0])
			if err != nil {
				return err
			}
			defer db.Close()
			return runAndPrint(exec.New(db), args[1])
		},
	}
}

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl <db-dir>",
		Short: "Read SQL statements from stdin, one per line, and print their results",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			db, err := openDatabase(args[0])
			if err != nil {
				return err
			}
			defer db.Close()
			e := exec.New(db)

			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if err := runAndPrint(e, line); err != nil {
					fmt.Fprintln(os.Stderr, err)
				}
			}
			return scanner.Err()
		},
	}
}

// quoteLiteral wraps s as a single-quoted SQL string literal; the
// grammar's string token has no escape syntax, so a path containing a
// quote can't be expressed and is rejected up front.
func quoteLiteral(s string) (string, error) {
	if strings.Contains(s, "'") {
		return "", fmt.Errorf("path %q contains a single quote, which the SQL string literal syntax can't escape", s)
	}
	return "'" + s + "'", nil
}

func importCmd() *cobra.Command {
	var hintsPath string
	cmd := &cobra.Command{
		Use:   "import <db-dir> <table> <csv-file>",
		Short: "Load a CSV file into a table, creating it if needed",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			db, err := openDatabase(args[0])
			if err != nil {
				return err
			}
			defer db.Close()

			csvLit, err := quoteLiteral(args[2])
			if err != nil {
				return err
			}
			sql := fmt.Sprintf("IMPORT %s %s", args[1], csvLit)
			if hintsPath != "" {
				hintsLit, err := quoteLiteral(hintsPath)
				if err != nil {
					return err
				}
				sql += " " + hintsLit
			}
			return runAndPrint(exec.New(db), sql)
		},
	}
	cmd.Flags().StringVar(&hintsPath, "hints", "", "JSON/YAML column-hint document for the CSV import")
	return cmd
}

func dumpCmd() *cobra.Command {
	var asCSV bool
	cmd := &cobra.Command{
		Use:   "dump <db-dir> <table>",
		Short: "Print every row of a table",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			db, err := openDatabase(args[0])
			if err != nil {
				return err
			}
			defer db.Close()
			tbl, err := db.Table(args[1])
			if err != nil {
				return err
			}
			if asCSV {
				return csvio.Export(os.Stdout, tbl.Columns(), collectRows(tbl))
			}
			return printTable(tbl)
		},
	}
	cmd.Flags().BoolVar(&asCSV, "csv", false, "dump in the IMPORT-compatible CSV dialect instead of a table")
	return cmd
}

func collectRows(tbl relation.Table) []value.Tuple {
	it := tbl.Rows()
	var rows []value.Tuple
	for {
		row, ok, err := it.Next()
		if err != nil || !ok {
			break
		}
		rows = append(rows, row)
	}
	return rows
}

func printTable(tbl relation.Table) error {
	cols := tbl.Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	rs := resultset.New(names)
	for _, row := range collectRows(tbl) {
		rs.AddRow(row)
	}
	fmt.Print(rs.DumpFancy())
	return nil
}
