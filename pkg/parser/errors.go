package parser

import "fmt"

// SQLError is the structured error type the parser returns (spec
// §4.4, §7): a message plus the source byte offset of the token that
// caused it. Errors from evaluation and execution are plain errors
// without an offset.
type SQLError struct {
	Message string
	Offset  int
}

func (e *SQLError) Error() string {
	return fmt.Sprintf("%s (at offset %d)", e.Message, e.Offset)
}

func errf(offset int, format string, args ...interface{}) *SQLError {
	return &SQLError{Message: fmt.Sprintf(format, args...), Offset: offset}
}
