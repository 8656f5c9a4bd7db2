package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/google/subcommands"

	"pseudo"
)

// replCmd implements `pseudo repl`: a line-editing, history-backed
// interactive session, one statement (or block) per Eval call.
type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive session" }
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive pseudocode session. Type "exit" to quit.
`
}
func (*replCmd) SetFlags(*flag.FlagSet) {}

func (*replCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Println("pseudo REPL — type \"exit\" to quit")

	rl, err := readline.New(">>> ")
	if err != nil {
		fmt.Println("💥 failed to start line editor:", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

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

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return subcommands.ExitSuccess
		}
		if err != nil {
			fmt.Println("💥", err)
			return subcommands.ExitFailure
		}
		if line == "exit" {
			return subcommands.ExitSuccess
		}
		if line == "" {
			continue
		}
		if runErr := machine.Eval(line + "\n"); runErr != nil {
			if _, ok := runErr.(*pseudo.CompileError); !ok {
				color.Red("%s", runErr.Error())
			}
		}
	}
}
