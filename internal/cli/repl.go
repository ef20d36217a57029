package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// isTerminal reports whether stdin is interactive; prompts are printed only then.
var isTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

// execIface is the command surface the REPL needs. *App satisfies it.
type execIface interface {
	Dispatch(ctx context.Context, cmd string, args []string) error
}

// Shell reads commands from stdin until EOF, "exit" or "quit".
func (a *App) Shell(ctx context.Context) error {
	printlnFn("pixels shell (type 'help' for commands)")
	runREPL(ctx, a, a.status, bufio.NewScanner(os.Stdin), isTerminal())
	return nil
}

func (a *App) status() string {
	return a.config.Table
}

// runREPL reads a line from scanner, takes the first token as the command
// and the rest as its arguments, and dispatches it to a. Errors are printed
// and the loop goes on. The loop exits on scanner EOF, on "exit" or "quit",
// or when ctx is done.
// "shell" is refused inside the shell.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner, prompt bool) {
	for {
		if ctx.Err() != nil {
			return
		}
		if prompt {
			fmt.Printf("pixels (%s)> ", statusFn())
		}
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "exit", "quit":
			printlnFn("Bye!")
			return

		case "shell":
			printlnFn("Already in the shell")

		default:
			if err := a.Dispatch(ctx, cmd, args); err != nil {
				printlnFn("Error:", err)
			}
		}
	}
}
