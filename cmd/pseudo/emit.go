package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/google/subcommands"

	"pseudo/internal/ast"
	"pseudo/internal/bytecode"
	"pseudo/internal/compiler"
	"pseudo/internal/diag"
	"pseudo/internal/parser"
	"pseudo/internal/symtab"
	"pseudo/internal/value"
)

// emitCmd implements `pseudo emit <file>`: compiles a source file without
// running it and dumps its disassembly (and, with -dumpAST, its parsed
// AST) for debugging — the Go equivalent of the original's lib/dump.c and
// lib/pretty.c tooling (spec.md §1's "pretty-printing used for debugging"
// collaborator).
type emitCmd struct {
	dumpAST bool
}

func (*emitCmd) Name() string     { return "emit" }
func (*emitCmd) Synopsis() string { return "Compile a source file and print its bytecode" }
func (*emitCmd) Usage() string {
	return `emit <file>:
  Compile a source file and print its disassembled bytecode.
`
}

func (cmd *emitCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.dumpAST, "dumpAST", false, "also print the parsed AST before the bytecode")
}

func (cmd *emitCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "💥 no source file given")
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	collector := diag.NewCollector()
	interns := value.NewInternTable()
	st := symtab.New()

	p := parser.New(string(data), collector, interns)
	prog := p.Parse()

	if cmd.dumpAST {
		fmt.Println("--- AST ---")
		ast.Print(os.Stdout, prog)
	}

	var compiled *compiler.Program
	if !collector.HasErrors() {
		c := compiler.New(st, interns, collector)
		compiled, err = c.Compile(prog)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	}

	for _, d := range collector.Diagnostics {
		if d.Warn {
			color.Yellow("%s", d.String())
			continue
		}
		color.Red("%s", d.String())
	}
	if collector.HasErrors() {
		return exitStatus(1)
	}

	fmt.Println("--- bytecode: main ---")
	fmt.Print(bytecode.Disassemble(compiled.Main.Code))
	for _, fn := range compiled.Functions {
		fmt.Printf("--- bytecode: %s ---\n", fn.Name)
		fmt.Print(bytecode.Disassemble(fn.Code))
	}
	return subcommands.ExitSuccess
}
