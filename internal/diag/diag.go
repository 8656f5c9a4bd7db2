// Package diag is the host-facing diagnostic seam: the Go expression of
// spec.md §6's on_error/on_warn hooks. The parser and compiler report
// through a Sink instead of printing directly (lex errors reach it as the
// parser's diagnostics; the VM returns run-time errors as Go errors), so an
// embedder can redirect, collect, or filter diagnostics without any package
// reaching for os.Stderr itself.
package diag

import "fmt"

// Sink receives diagnostics as they are produced. OnError is for failures
// that stop the pipeline (a later stage will not run); OnWarn is for
// recoverable situations the pipeline continues past (spec.md §4.2's
// unknown-escape-sequence case).
type Sink interface {
	OnError(line, col int, msg string)
	OnWarn(line, col int, msg string)
}

// Diagnostic is one recorded error or warning.
type Diagnostic struct {
	Line    int
	Column  int
	Message string
	Warn    bool
}

func (d Diagnostic) String() string {
	if d.Warn {
		return fmt.Sprintf("⚠️  %d:%d: %s", d.Line, d.Column, d.Message)
	}
	return fmt.Sprintf("%d:%d: %s", d.Line, d.Column, d.Message)
}

// Collector accumulates diagnostics instead of printing them, the Go
// equivalent of the teacher's ad hoc []error accumulation inside Parse().
// Used by tests and by the `emit` CLI subcommand, which wants the full list
// before deciding how to render it.
type Collector struct {
	Diagnostics []Diagnostic
}

func NewCollector() *Collector { return &Collector{} }

func (c *Collector) OnError(line, col int, msg string) {
	c.Diagnostics = append(c.Diagnostics, Diagnostic{Line: line, Column: col, Message: msg})
}

func (c *Collector) OnWarn(line, col int, msg string) {
	c.Diagnostics = append(c.Diagnostics, Diagnostic{Line: line, Column: col, Message: msg, Warn: true})
}

// HasErrors reports whether any non-warning diagnostic was collected.
func (c *Collector) HasErrors() bool {
	for _, d := range c.Diagnostics {
		if !d.Warn {
			return true
		}
	}
	return false
}

// Writer formats diagnostics as "line:col: message" lines and hands each
// one to its Print function as it arrives, for interactive feedback.
type Writer struct {
	Print func(string)
}

func (w Writer) OnError(line, col int, msg string) {
	w.Print(fmt.Sprintf("%d:%d: %s\n", line, col, msg))
}

func (w Writer) OnWarn(line, col int, msg string) {
	w.Print(fmt.Sprintf("⚠️  %d:%d: %s\n", line, col, msg))
}
