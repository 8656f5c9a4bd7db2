package parser

import "fmt"

// SyntaxError is raised internally (via panic) when a production cannot
// continue, caught by the statement-level recovery loop and reported
// through the diag.Sink as a plain diagnostic rather than a Go error.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("💥 %d:%d: %s", e.Line, e.Column, e.Message)
}
