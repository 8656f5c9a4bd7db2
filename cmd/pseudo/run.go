package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/google/subcommands"

	"pseudo"
	"pseudo/internal/vm"
)

// runCmd implements `pseudo run <file>`.
type runCmd struct{}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Execute pseudocode from a source file" }
func (*runCmd) Usage() string {
	return `run <file>:
  Execute pseudocode from a source file.
`
}
func (*runCmd) SetFlags(*flag.FlagSet) {}

func (*runCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	machine := pseudo.New(pseudo.Config{
		Print: func(s string) { fmt.Println(s) },
		OnError: func(line, col int, msg string) {
			color.Red("%d:%d: %s", line, col, msg)
		},
		OnWarn: func(line, col int, msg string) {
			color.Yellow("⚠️  %d:%d: %s", line, col, msg)
		},
	})
	defer machine.Close()

	runErr := machine.Eval(string(data))
	if runErr == nil {
		return subcommands.ExitSuccess
	}
	if _, ok := runErr.(*pseudo.CompileError); ok {
		return exitStatus(1)
	}
	if _, ok := runErr.(*vm.RuntimeError); ok {
		color.Red("%s", runErr.Error())
		return exitStatus(2)
	}
	fmt.Fprintln(os.Stderr, runErr)
	return subcommands.ExitFailure
}

// exitStatus lets run/emit surface the exact exit codes spec.md §6 defines
// (0 success, 1 compile error, 2 runtime error) instead of subcommands'
// generic Success/Failure/UsageError trio.
func exitStatus(code int) subcommands.ExitStatus { return subcommands.ExitStatus(code) }
