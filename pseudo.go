// Package pseudo is the embedding surface for the pseudocode interpreter:
// construct a VM with New, feed it source with Eval, release it with Close.
// This collapses what the teacher split across four cmd_*.go entry points
// (lexer.New → parser.Make → compile → vm.Run, repeated per mode) into one
// reusable, embeddable call sequence.
package pseudo

import (
	"pseudo/internal/compiler"
	"pseudo/internal/diag"
	"pseudo/internal/parser"
	"pseudo/internal/symtab"
	"pseudo/internal/value"
	"pseudo/internal/vm"
)

// Config configures a VM. The zero Config is valid: Print discards output
// and OnError/OnWarn discard diagnostics.
type Config struct {
	// Print receives each OUTPUT statement's rendered value, without a
	// trailing newline; the callback decides how to end the line.
	Print func(string)
	// OnError and OnWarn receive compile-time diagnostics. Run-time errors
	// are not passed to them; Eval returns them instead.
	OnError func(line, col int, msg string)
	OnWarn  func(line, col int, msg string)
	// StackLimit caps call-frame depth; zero uses the VM's default.
	StackLimit int
}

// CompileError wraps every diagnostic collected while lexing/parsing/
// compiling a program. Eval returns it when compilation fails (spec.md §6
// exit code 1).
type CompileError struct {
	Diagnostics []diag.Diagnostic
}

func (e *CompileError) Error() string {
	if len(e.Diagnostics) == 0 {
		return "compile error"
	}
	return e.Diagnostics[0].String()
}

// VM is one interpreter instance. It holds only its Config: every Eval call
// builds a fresh symbol table, intern table, and global variable storage,
// so no declaration or value carries over from one Eval to the next, on the
// same VM or across VMs.
type VM struct {
	cfg Config
}

// New creates a VM. No source is compiled yet; call Eval.
func New(cfg Config) *VM {
	return &VM{cfg: cfg}
}

// Eval lexes, parses, compiles, and runs source as one program. It returns
// a *CompileError for a compile-time failure (exit code 1, spec.md §6) or
// the VM package's *RuntimeError for a run-time failure (exit code 2);
// nil means the program ran to completion.
func (m *VM) Eval(source string) error {
	collector := diag.NewCollector()
	interns := value.NewInternTable()
	st := symtab.New()

	p := parser.New(source, collector, interns)
	program := p.Parse()

	var compiled *compiler.Program
	if !collector.HasErrors() {
		c := compiler.New(st, interns, collector)
		var err error
		compiled, err = c.Compile(program)
		if err != nil {
			return err
		}
	}

	m.report(collector)
	if collector.HasErrors() {
		return &CompileError{Diagnostics: collector.Diagnostics}
	}

	print := m.cfg.Print
	if print == nil {
		print = func(string) {}
	}
	var opts []vm.Option
	opts = append(opts, vm.WithPrint(print))
	if m.cfg.StackLimit > 0 {
		opts = append(opts, vm.WithStackLimit(m.cfg.StackLimit))
	}
	machine := vm.New(compiled, st, interns, opts...)
	return machine.Run()
}

// report forwards every collected diagnostic to the Config's callbacks, if
// set, so an embedder gets live feedback even when Eval ultimately succeeds
// (a program can warn without erroring).
func (m *VM) report(c *diag.Collector) {
	for _, d := range c.Diagnostics {
		if d.Warn {
			if m.cfg.OnWarn != nil {
				m.cfg.OnWarn(d.Line, d.Column, d.Message)
			}
			continue
		}
		if m.cfg.OnError != nil {
			m.cfg.OnError(d.Line, d.Column, d.Message)
		}
	}
}

// Close releases resources held by the VM. Go is garbage collected, so
// there is nothing to free; Close exists so an embedder's lifecycle code
// has a symmetrical release point, mirroring the teacher's vm_new/vm_eval/
// vm_free shape without a real allocator underneath it.
func (m *VM) Close() {}
